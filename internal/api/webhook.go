package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ignite/founders-outreach/internal/pkg/httputil"
)

const maxWebhookBody = 5 << 20

// SendGridWebhook receives a batch of provider events.
//
//	POST /webhooks/sendgrid
func (h *Handlers) SendGridWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.BadRequest(w, "unreadable body")
		return
	}

	if h.deps.Verifier == nil || h.deps.Verifier.Insecure() {
		h.log.Warn("accepting unsigned sendgrid webhook", "remote", r.RemoteAddr)
	} else if err := h.deps.Verifier.Verify(body, r.Header); err != nil {
		h.log.Warn("sendgrid webhook rejected", "error", err, "remote", r.RemoteAddr)
		httputil.Unauthorized(w, "invalid signature")
		return
	}

	var events []map[string]any
	if err := json.Unmarshal(body, &events); err != nil {
		httputil.BadRequest(w, "invalid JSON: expected an array of events")
		return
	}

	res := h.deps.Tracker.ProcessWebhook(r.Context(), events)
	h.log.Info("sendgrid webhook processed",
		"received", res.Received, "processed", res.Processed, "ignored", res.Ignored, "failed", res.Failed)
	httputil.OK(w, map[string]string{"status": "ok"})
}
