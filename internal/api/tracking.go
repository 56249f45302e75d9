package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/engagement"
)

// 1x1 transparent GIF
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
	0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type trackingQuery struct {
	RID  string `schema:"rid"`
	Type string `schema:"type"`
	URL  string `schema:"url"`
}

// TrackOpen records an open and always serves the pixel, whatever happened
// to the event.
//
//	GET /t/open?rid=&type=
func (h *Handlers) TrackOpen(w http.ResponseWriter, r *http.Request) {
	var q trackingQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		h.log.Debug("tracking query rejected", "error", err)
	} else if et, ok := pixelEventType(q.Type); ok && q.RID != "" {
		h.recordTracking(r, q.RID, et, map[string]any{"user_agent": r.UserAgent()})
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	w.Write(transparentGIF)
}

// TrackClick records a click and redirects. Targets outside the allow-list
// are replaced by the site URL.
//
//	GET /t/click?rid=&url=
func (h *Handlers) TrackClick(w http.ResponseWriter, r *http.Request) {
	var q trackingQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		h.log.Debug("tracking query rejected", "error", err)
	}
	target := h.redirectTarget(q.URL)
	if q.RID != "" {
		h.recordTracking(r, q.RID, domain.EventClick, map[string]any{"url": target, "user_agent": r.UserAgent()})
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handlers) recordTracking(r *http.Request, rid string, et domain.EventType, detail map[string]any) {
	err := h.deps.Tracker.RecordEvent(r.Context(), rid, et, detail)
	switch {
	case err == nil:
	case errors.Is(err, engagement.ErrRecipientNotFound):
		h.log.Debug("tracking hit for unknown recipient", "rid", rid, "event", string(et))
	default:
		h.log.Error("record tracking event failed", "rid", rid, "event", string(et), "error", err)
	}
}

// pixelEventType accepts only engagement signals on the public pixel;
// negative events come from the provider webhook or the unsubscribe page.
func pixelEventType(raw string) (domain.EventType, bool) {
	if raw == "" {
		return domain.EventOpen, true
	}
	et, ok := domain.ParseEventType(raw)
	if !ok || (et != domain.EventOpen && et != domain.EventClick) {
		return "", false
	}
	return et, true
}

func (h *Handlers) redirectTarget(raw string) string {
	fallback := h.deps.SiteURL
	if fallback == "" {
		fallback = "/"
	}
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fallback
	}
	if !h.allowedHosts[strings.ToLower(u.Host)] {
		return fallback
	}
	return u.String()
}
