package cli

import (
	"errors"
	"fmt"

	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/spf13/cobra"
)

// newApproveCommand plays the companion device: it scans and confirms a
// code shown by another `almond login`.
func newApproveCommand(o *rootOptions) *cobra.Command {
	var (
		userID   string
		nickname string
		avatar   string
		secret   string
		scanOnly bool
	)

	cmd := &cobra.Command{
		Use:   "approve <qrcodeId>",
		Short: "Scan and confirm a login code as the companion device",
		Long: `Approve a login code without a phone. By default this device acts as the
companion: it must be logged in and approves as its own user. With a
companion secret (--secret, companion_secret or ALMOND_COMPANION_SECRET)
it acts as the trusted companion backend for the user named by --user-id.
Unless --scan-only is set the login is confirmed as well.

Examples:
  almond approve 01J9Z3M6Q4...
  almond approve 01J9Z3M6Q4... --secret s3cret --user-id 42 --nickname Ann
  almond approve 01J9Z3M6Q4... --secret s3cret --user-id 42 --scan-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if secret != "" {
				a.cfg.CompanionSecret = secret
			}

			var auth almondsdk.CompanionAuth
			if a.cfg.CompanionSecret != "" {
				if userID == "" {
					return errors.New("--user-id is required with a companion secret")
				}
				auth.Secret = a.cfg.CompanionSecret
			} else {
				if userID != "" {
					return errors.New("--user-id needs a companion secret, a logged in device approves as itself")
				}
				if err := a.openSession(cmd.Context()); err != nil {
					return err
				}
				s, err := a.authenticated()
				if err != nil {
					return err
				}
				auth.AccessToken = s.Token
				userID = s.User.ID
			}

			qrcodeID := args[0]
			scan, err := a.sdk.ScanQR(cmd.Context(), auth, qrcodeID, almondsdk.QRUserInfo{
				ID:        almondsdk.FlexibleID(userID),
				Nickname:  nickname,
				AvatarURL: avatar,
			})
			if err != nil {
				return a.explain("scan", err)
			}
			fmt.Fprintf(a.out, "Scanned %s (status %d).\n", scan.QRCodeID, scan.Status)
			if scanOnly {
				return nil
			}

			conf, err := a.sdk.ConfirmQR(cmd.Context(), auth, qrcodeID, userID)
			if err != nil {
				return a.explain("confirm", err)
			}
			fmt.Fprintf(a.out, "Confirmed %s (status %d).\n", conf.QRCodeID, conf.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "numeric id of the approving user, requires a companion secret")
	cmd.Flags().StringVar(&nickname, "nickname", "", "nickname sent with the scan")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL sent with the scan")
	cmd.Flags().StringVar(&secret, "secret", "", "companion secret of the provider")
	cmd.Flags().BoolVar(&scanOnly, "scan-only", false, "scan without confirming")
	return cmd
}
