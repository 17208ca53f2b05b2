package app

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/jwtx"
)

// Keys bundles the token signing material and the at-rest sealer.
type Keys struct {
	Signer   jwtx.Signer
	KeySet   *jwtx.KeySet
	Verifier jwtx.Verifier
	Sealer   *cryptox.Sealer
}

// InitKeys loads or creates the Ed25519 signing key and the sealing key.
//
// With no key files configured both are ephemeral: every restart
// invalidates issued access tokens and any confirmed-but-unclaimed code.
func InitKeys(cfg Config, logger *slog.Logger) (*Keys, error) {
	pemKey, err := cryptox.LoadOrGenerateEd25519Key(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	// The kid is derived from the key so restarts with the same file keep it.
	sum := sha256.Sum256(pemKey)
	signer, err := jwtx.NewSignerEdDSA(hex.EncodeToString(sum[:8]), pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("failed to register signer: %w", err)
	}

	sealer, err := initSealer(cfg.SealKeyFile)
	if err != nil {
		return nil, err
	}

	if cfg.SigningKeyFile == "" || cfg.SealKeyFile == "" {
		logger.Warn("running with ephemeral keys, issued tokens do not survive a restart")
	}
	logger.Info("signing key loaded", "alg", signer.Alg(), "kid", signer.KID(), "issuer", cfg.Issuer)

	return &Keys{
		Signer:   signer,
		KeySet:   keys,
		Verifier: jwtx.NewCommonEdDSA(keys, cfg.Issuer, nil),
		Sealer:   sealer,
	}, nil
}

func initSealer(path string) (*cryptox.Sealer, error) {
	if path != "" {
		s, err := cryptox.LoadOrCreateSealer(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load sealing key: %w", err)
		}
		return s, nil
	}

	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	return cryptox.NewSealer(material)
}
