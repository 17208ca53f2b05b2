package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/session"
	"github.com/spf13/cobra"
)

func newWhoamiCommand(o *rootOptions) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Long: `Show the user stored on this device. With --remote the profile is fetched
from the provider and the stored copy is updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.authenticated()
			if err != nil {
				return err
			}

			if remote {
				profile, err := a.sdk.GetUserInfo(cmd.Context(), s.Token)
				if err != nil {
					if almondsdk.IsCode(err, almondsdk.CodeUnauthorized) {
						return errors.New("access token rejected, run `almond refresh` or log in again")
					}
					return a.explain("whoami", err)
				}
				err = a.session.UpdateUser(cmd.Context(), func(u *session.User) {
					if profile.Nickname != "" {
						u.DisplayName = profile.Nickname
					}
					if profile.AvatarURL != "" {
						u.AvatarURL = profile.AvatarURL
					}
					u.Email = profile.Email
				})
				if err != nil {
					return err
				}
				s, _ = a.session.GetState()
			}

			printUser(a, s.User)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the profile from the provider")
	return cmd
}

func printUser(a *app, u *session.User) {
	fmt.Fprintf(a.out, "%s (id %s)\n", u.DisplayName, u.ID)
	if u.Email != "" {
		fmt.Fprintf(a.out, "email:  %s\n", u.Email)
	}
	if u.AvatarURL != "" {
		fmt.Fprintf(a.out, "avatar: %s\n", u.AvatarURL)
	}
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "since:  %s\n", u.CreatedAt.Local().Format(time.DateTime))
	}
}
