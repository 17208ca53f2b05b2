package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ravey/almond/internal/client/config"
	"github.com/ravey/almond/internal/client/kvstore"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/session"
	"github.com/ravey/almond/pkg/slogx"
	"github.com/spf13/cobra"
)

const (
	deviceKeyFile = "device.key"
	sessionDBFile = "session.db"
)

var errNotLoggedIn = errors.New("not logged in, run `almond login`")

// app carries what a command needs. session and device are nil for
// commands that never touch local state.
type app struct {
	cfg config.Config
	log *slog.Logger
	sdk *almondsdk.SDKClient
	out io.Writer

	device  *kvstore.Store
	session *session.Store
}

// load resolves config and builds the logger and SDK client.
func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.serverURL != "" {
		cfg.ServerURL = o.serverURL
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	log := slogx.New(slogx.Config{
		Service: "almond",
		Version: Version,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Writer:  cmd.ErrOrStderr(),
	})

	return &app{
		cfg: cfg,
		log: log,
		sdk: almondsdk.NewSDKClient(cfg.ServerURL),
		out: cmd.OutOrStdout(),
	}, nil
}

// open is load plus the device store with the persisted session restored.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	a, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.openSession(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openSession(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	sealer, err := cryptox.LoadOrCreateSealer(filepath.Join(a.cfg.DataDir, deviceKeyFile))
	if err != nil {
		return err
	}
	device, err := kvstore.Open(kvstore.FileDSN(filepath.Join(a.cfg.DataDir, sessionDBFile)), sealer)
	if err != nil {
		return err
	}

	a.device = device
	a.session = session.NewStore(device, a.log)

	_, err = a.session.Restore(ctx)
	if errors.Is(err, kvstore.ErrCorrupt) {
		a.log.Warn("stored session cannot be opened with this device key, discarding it", "err", err)
		return device.Reset(ctx)
	}
	return err
}

func (a *app) Close() {
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			a.log.Warn("closing device store", "err", err)
		}
	}
}

// explain turns SDK errors into something a person can act on. The raw
// error goes to the debug log.
func (a *app) explain(action string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Debug(action+" failed", "err", err)
	f := almondsdk.FriendlyError(err)
	return fmt.Errorf("%s: %s. %s", action, f.Title, f.Description)
}

// authenticated returns the restored session or errNotLoggedIn.
func (a *app) authenticated() (session.Session, error) {
	s, ok := a.session.GetState()
	if !ok {
		return session.Session{}, errNotLoggedIn
	}
	return s, nil
}
