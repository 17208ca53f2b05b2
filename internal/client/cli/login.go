package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ravey/almond/pkg/poll"
	"github.com/ravey/almond/pkg/qrlogin"
	"github.com/spf13/cobra"
)

func newLoginCommand(o *rootOptions) *cobra.Command {
	var (
		pngPath string
		scene   string
		invert  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Show a login QR code and wait for it to be confirmed",
		Long: `Generate a login QR code, display it and poll until the companion app
confirms it. The code is drawn in the terminal when stdout is one; otherwise
--png is required.

Examples:
  almond login
  almond login --png /tmp/login.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if s, ok := a.session.GetState(); ok {
				fmt.Fprintf(a.out, "Already logged in as %s. Run `almond logout` first.\n", s.User.DisplayName)
				return nil
			}

			terminal := isTerminal(a.out)
			if !terminal && pngPath == "" {
				return errors.New("stdout is not a terminal, use --png to write the code to a file")
			}

			flow := qrlogin.NewFlow(qrlogin.FlowConfig{
				Provider: a.sdk,
				Store:    a.session,
				Target: qrlogin.Target{
					AppID:      a.cfg.AppID,
					Page:       a.cfg.Page,
					Width:      a.cfg.Width,
					EnvVersion: a.cfg.EnvVersion,
					Scene:      scene,
				},
				Poll: poll.Options{
					Interval: a.cfg.PollInterval,
					Timeout:  a.cfg.LoginTimeout,
					OnState: func(s poll.State) {
						if s == poll.ScannedAwaitingConfirm {
							fmt.Fprintln(a.out, "Scanned. Confirm the login on your phone.")
						}
					},
				},
				Logger: a.log,
			})

			ctx := cmd.Context()
			attempt, err := flow.Start(ctx)
			if err != nil {
				return a.explain("login", err)
			}
			ls := attempt.Login

			if pngPath != "" {
				if err := os.WriteFile(pngPath, ls.Image, 0o600); err != nil {
					attempt.Cancel()
					return fmt.Errorf("write qr image: %w", err)
				}
				fmt.Fprintf(a.out, "QR code written to %s\n", pngPath)
			}
			if terminal {
				if err := renderHalfBlocks(a.out, ls.Image, terminalWidth(a.out, 80), invert); err != nil {
					attempt.Cancel()
					return err
				}
			}
			fmt.Fprintf(a.out, "Scan code %s with the almond app. It expires at %s.\n",
				ls.QRCodeID, ls.ExpireAt.Local().Format(time.TimeOnly))

			// The attempt follows ctx, so an interrupt ends it as cancelled
			// and the outcome is still collected.
			outcome, err := attempt.Wait(context.WithoutCancel(ctx))
			if err != nil {
				return err
			}

			switch outcome.State {
			case poll.Done:
				if outcome.Err != nil {
					return fmt.Errorf("login confirmed but could not be saved: %w", outcome.Err)
				}
				fmt.Fprintf(a.out, "Welcome, %s.\n", outcome.Session.User.DisplayName)
				return nil
			case poll.DoneTimeout:
				return errors.New("login timed out, run `almond login` for a new code")
			default:
				return errors.New("login cancelled")
			}
		},
	}

	cmd.Flags().StringVar(&pngPath, "png", "", "also write the QR code PNG to this file")
	cmd.Flags().StringVar(&scene, "scene", "", "scene value passed to the provider")
	cmd.Flags().BoolVar(&invert, "invert", false, "draw dark modules as blocks, for light terminal themes")
	return cmd
}
