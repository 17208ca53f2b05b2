package cli

import (
	"errors"
	"fmt"

	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/spf13/cobra"
)

func newRefreshCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the stored refresh token for a new credential pair",
		Args:  cobra.NoArgs,
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
			if s.RefreshToken == "" {
				return errors.New("no refresh token stored, log in again")
			}

			pair, err := a.sdk.RefreshToken(cmd.Context(), s.RefreshToken)
			if err != nil {
				if almondsdk.IsCode(err, almondsdk.CodeUnauthorized) {
					if err := a.session.Clear(cmd.Context()); err != nil {
						return err
					}
					return errors.New("refresh token rejected, session cleared, run `almond login`")
				}
				return a.explain("refresh", err)
			}

			s.Token, s.RefreshToken = pair.Token, pair.RefreshToken
			if err := a.session.SetState(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Token refreshed, valid for %ds.\n", pair.ExpiresIn)
			return nil
		},
	}
}
