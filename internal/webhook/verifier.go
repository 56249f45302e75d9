// Package webhook verifies SendGrid signed event webhook deliveries.
//
// SendGrid signs timestamp || body with ECDSA P-256 and sends the base64
// signature and the timestamp in two headers. The public key comes from
// the SendGrid console as base64 DER.
package webhook

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go/helpers/eventwebhook"

	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// Signature headers set by SendGrid on signed event webhook requests.
const (
	HeaderSignature = "X-Twilio-Email-Event-Webhook-Signature"
	HeaderTimestamp = "X-Twilio-Email-Event-Webhook-Timestamp"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrNoKey            = errors.New("webhook public key not configured")
)

// Verifier checks a webhook request body against its signature headers.
type Verifier interface {
	Verify(body []byte, h http.Header) error
	// Insecure reports that no key is configured and every request passes.
	Insecure() bool
}

// ECDSAVerifier verifies signatures against a configured public key. With
// no key it runs in insecure mode and accepts everything.
type ECDSAVerifier struct {
	key *ecdsa.PublicKey
}

// NewVerifier parses the base64 DER public key. An empty key yields an
// insecure verifier unless required is set.
func NewVerifier(publicKey string, required bool) (*ECDSAVerifier, error) {
	if publicKey == "" {
		if required {
			return nil, ErrNoKey
		}
		logger.Warn("webhook signature verification disabled: no public key configured")
		return &ECDSAVerifier{}, nil
	}
	key, err := eventwebhook.ConvertPublicKeyBase64ToECDSA(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse webhook public key: %w", err)
	}
	return &ECDSAVerifier{key: key}, nil
}

func (v *ECDSAVerifier) Insecure() bool { return v.key == nil }

// Verify checks the signature over timestamp || body.
func (v *ECDSAVerifier) Verify(body []byte, h http.Header) error {
	if v.key == nil {
		return nil
	}
	sig := h.Get(HeaderSignature)
	ts := h.Get(HeaderTimestamp)
	if sig == "" || ts == "" {
		return ErrMissingSignature
	}
	ok, err := eventwebhook.VerifySignature(v.key, body, sig, ts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}
