// Package cli is the almond command line: QR login against the provider,
// the local session it produces, and a companion-side approve command for
// testing without a phone.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via ldflags.
var Version = "v0.1.0"

// rootOptions are the persistent flags. Non-empty values win over the
// config file and environment.
type rootOptions struct {
	configPath string
	serverURL  string
	dataDir    string
	logLevel   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "almond",
		Short: "Log in to almond by scanning a QR code",
		Long: `almond shows a login QR code in the terminal. Scan it with the companion
app and confirm; the session is then stored on this device, sealed with a
per-device key.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/almond/config.yaml)")
	pf.StringVar(&o.serverURL, "server", "", "login provider base URL")
	pf.StringVar(&o.dataDir, "data-dir", "", "directory holding the device store")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newLoginCommand(o),
		newLogoutCommand(o),
		newWhoamiCommand(o),
		newRefreshCommand(o),
		newApproveCommand(o),
		newStagesCommand(),
	)
	return root
}

// Execute runs the CLI with ctx, normally cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
