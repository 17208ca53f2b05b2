package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored refresh token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, ok := a.session.GetState()
			if !ok {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}

			// The local session goes regardless; a token the provider
			// never revoked still expires on its own.
			if s.RefreshToken != "" {
				if err := a.sdk.RevokeToken(cmd.Context(), s.RefreshToken); err != nil {
					a.log.Warn("revoking refresh token failed", "err", err)
				}
			}
			if err := a.session.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}
