package jwtx_test

import (
	"testing"
	"time"

	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "almond-qrauth"

func newSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newSigner(t, "k1")
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "k1", signer.KID())

	now := time.Now().UTC().Truncate(time.Second)
	claims := jwtx.NewAccessClaims("42", "Alice", "https://cdn/a.png", "01HQR", time.Hour, testIssuer, []string{"almond-web"}, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.False(t, keys.IsReady())
	require.NoError(t, keys.AddSigner(signer))
	require.True(t, keys.IsReady())

	jwks := keys.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)

	got, err := jwtx.NewCommonEdDSA(keys, testIssuer, []string{"almond-web"}).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "42", got.Subject)
	require.Equal(t, "Alice", got.Nickname)
	require.Equal(t, "01HQR", got.QRCodeID)
	require.NotEmpty(t, got.ID)
	require.True(t, got.IssuedAt.Time.Equal(now))
}

func TestEdDSAVerify_Rejects(t *testing.T) {
	signer := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	now := time.Now().UTC()

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewAccessClaims("1", "", "", "", time.Hour, "other", nil, now))
		require.NoError(t, err)
		_, err = jwtx.NewCommonEdDSA(keys, testIssuer, nil).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewAccessClaims("1", "", "", "", time.Hour, testIssuer, []string{"x"}, now))
		require.NoError(t, err)
		_, err = jwtx.NewCommonEdDSA(keys, testIssuer, []string{"almond-web"}).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewAccessClaims("1", "", "", "", time.Minute, testIssuer, nil, now.Add(-time.Hour)))
		require.NoError(t, err)
		_, err = jwtx.NewCommonEdDSA(keys, testIssuer, nil).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other := newSigner(t, "k2")
		tok, err := other.Sign(jwtx.NewAccessClaims("1", "", "", "", time.Hour, testIssuer, nil, now))
		require.NoError(t, err)
		_, err = jwtx.NewCommonEdDSA(keys, testIssuer, nil).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})
}

func TestParseUnverified(t *testing.T) {
	signer := newSigner(t, "k1")
	iat := time.Unix(1700000000, 0).UTC()

	tok, err := signer.Sign(jwtx.NewAccessClaims("7", "Bob", "", "", time.Hour, testIssuer, nil, iat))
	require.NoError(t, err)

	c, err := jwtx.ParseUnverified(tok)
	require.NoError(t, err)
	require.Equal(t, "7", c.Subject)
	require.True(t, c.IssuedAt.Time.Equal(iat))

	_, err = jwtx.ParseUnverified("opaque-token")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
