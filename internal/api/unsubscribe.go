package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/founders-outreach/internal/pkg/httputil"
	"github.com/ignite/founders-outreach/internal/service/engagement"
)

const unsubscribePage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Unsubscribed</title></head>
<body style="font-family:sans-serif;max-width:480px;margin:64px auto;text-align:center">
<h1>You have been unsubscribed</h1>
<p>You will not receive further outreach emails from us.</p>
</body>
</html>`

// UnsubscribeToken signs an address for the token unsubscribe form.
func UnsubscribeToken(email, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(mac.Sum(nil))
}

func validUnsubscribeToken(email, token, secret string) bool {
	if secret == "" || token == "" {
		return false
	}
	want := UnsubscribeToken(email, secret)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(token)))
}

// UnsubscribeRecipient opts out the recipient behind a drip email link.
// The confirmation page is served whatever the outcome.
//
//	GET|POST /unsubscribe/{rid}
func (h *Handlers) UnsubscribeRecipient(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	err := h.deps.Tracker.Unsubscribe(r.Context(), rid)
	switch {
	case err == nil:
		h.log.Info("recipient unsubscribed", "rid", rid)
	case errors.Is(err, engagement.ErrRecipientNotFound):
		h.log.Debug("unsubscribe for unknown recipient", "rid", rid)
	default:
		h.log.Error("unsubscribe failed", "rid", rid, "error", err)
	}
	writeUnsubscribePage(w)
}

type unsubscribeRequest struct {
	Email string `json:"email" schema:"email"`
	Token string `json:"token" schema:"token"`
}

// UnsubscribeByToken opts out an address carrying a valid HMAC token. Bad
// tokens get the same page so the endpoint does not confirm addresses.
//
//	POST /unsubscribe
func (h *Handlers) UnsubscribeByToken(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxJSONBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Debug("unsubscribe body rejected", "error", err)
		}
	} else if err := r.ParseForm(); err == nil {
		if err := h.decoder.Decode(&req, r.PostForm); err != nil {
			h.log.Debug("unsubscribe form rejected", "error", err)
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !validUnsubscribeToken(email, req.Token, h.deps.UnsubscribeSecret) {
		h.log.Warn("unsubscribe token rejected", "email", email)
		writeUnsubscribePage(w)
		return
	}
	if err := h.deps.Tracker.UnsubscribeEmail(r.Context(), email); err != nil {
		h.log.Error("unsubscribe by token failed", "email", email, "error", err)
	} else {
		h.log.Info("address unsubscribed", "email", email)
	}
	writeUnsubscribePage(w)
}

func writeUnsubscribePage(w http.ResponseWriter) {
	httputil.HTML(w, http.StatusOK, unsubscribePage)
}
