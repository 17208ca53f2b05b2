package qrlogin

import (
	"errors"
	"fmt"
)

// Mini-program defaults used by the web login page.
const (
	DefaultAppID = "wxe6d828ae0245ab9c"
	DefaultPage  = "pages/auth/login/login"
	DefaultWidth = 430
)

// Environment channels accepted by the renderer.
const (
	EnvRelease = "release"
	EnvTrial   = "trial"
	EnvDevelop = "develop"
)

var ErrInvalidTarget = errors.New("qrlogin: invalid target")

// Target is where the scanned code sends the companion device.
type Target struct {
	AppID      string
	Page       string
	Width      int
	EnvVersion string
	Scene      string
}

// ValidEnv reports whether env is a known channel.
func ValidEnv(env string) bool {
	switch env {
	case EnvRelease, EnvTrial, EnvDevelop:
		return true
	}
	return false
}

func (t Target) withDefaults() Target {
	if t.AppID == "" {
		t.AppID = DefaultAppID
	}
	if t.Page == "" {
		t.Page = DefaultPage
	}
	if t.Width <= 0 {
		t.Width = DefaultWidth
	}
	if t.EnvVersion == "" {
		t.EnvVersion = EnvTrial
	}
	return t
}

func (t Target) validate() error {
	if !ValidEnv(t.EnvVersion) {
		return fmt.Errorf("%w: env %q", ErrInvalidTarget, t.EnvVersion)
	}
	return nil
}
