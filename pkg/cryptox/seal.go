package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrSealedTooShort reports ciphertext shorter than the nonce it must carry.
var ErrSealedTooShort = errors.New("cryptox: sealed value too short")

// Sealer encrypts small values (tokens, user records) stored on the local
// device. The output format is [24-byte nonce][ciphertext][16-byte tag].
type Sealer struct {
	key []byte
}

// NewSealer derives a 32-byte XChaCha20-Poly1305 key from arbitrary key material.
func NewSealer(material []byte) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty sealing key material")
	}
	sum := sha256.Sum256(material)
	return &Sealer{key: sum[:]}, nil
}

// LoadOrCreateSealer reads key material from path, creating a fresh random
// key file (0600) when none exists yet.
func LoadOrCreateSealer(path string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return NewSealer(data)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read sealing key: %w", err)
	}

	data = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("generate sealing key: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write sealing key: %w", err)
	}
	return NewSealer(data)
}

// Seal encrypts and authenticates plaintext. additional binds the ciphertext
// to a context such as the storage key so values cannot be swapped.
func (s *Sealer) Seal(plaintext, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrSealedTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
