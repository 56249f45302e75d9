package webhook

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signingKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, base64.StdEncoding.EncodeToString(der)
}

func sign(t *testing.T, priv *ecdsa.PrivateKey, ts string, body []byte) http.Header {
	t.Helper()
	digest := sha256.Sum256(append([]byte(ts), body...))
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)
	h := http.Header{}
	h.Set(HeaderSignature, base64.StdEncoding.EncodeToString(sig))
	h.Set(HeaderTimestamp, ts)
	return h
}

func TestVerify_ValidSignature(t *testing.T) {
	priv, pub := signingKey(t)
	v, err := NewVerifier(pub, true)
	require.NoError(t, err)
	assert.False(t, v.Insecure())

	body := []byte(`[{"event":"bounce","recipient_id":"r1"}]`)
	assert.NoError(t, v.Verify(body, sign(t, priv, "1718000000", body)))
}

func TestVerify_Rejects(t *testing.T) {
	priv, pub := signingKey(t)
	v, err := NewVerifier(pub, false)
	require.NoError(t, err)
	body := []byte(`[{"event":"open"}]`)

	h := sign(t, priv, "1718000000", body)
	assert.ErrorIs(t, v.Verify([]byte(`[{"event":"click"}]`), h), ErrBadSignature, "tampered body")

	h.Set(HeaderTimestamp, "1718000001")
	assert.ErrorIs(t, v.Verify(body, h), ErrBadSignature, "tampered timestamp")

	assert.ErrorIs(t, v.Verify(body, http.Header{}), ErrMissingSignature)

	other, _ := signingKey(t)
	assert.ErrorIs(t, v.Verify(body, sign(t, other, "1718000000", body)), ErrBadSignature, "wrong key")
}

func TestNewVerifier_NoKey(t *testing.T) {
	v, err := NewVerifier("", false)
	require.NoError(t, err)
	assert.True(t, v.Insecure())
	assert.NoError(t, v.Verify([]byte("anything"), http.Header{}))

	_, err = NewVerifier("", true)
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = NewVerifier("not-base64!", false)
	assert.Error(t, err)
}
