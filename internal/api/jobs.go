package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/founders-outreach/internal/pkg/distlock"
	"github.com/ignite/founders-outreach/internal/pkg/httputil"
	"github.com/ignite/founders-outreach/internal/service/drip"
	"github.com/ignite/founders-outreach/internal/service/phase"
)

const jobLockTTL = 10 * time.Minute

// RunDrip executes one drip batch, typically from a cron trigger.
//
//	POST /api/drip/run
func (h *Handlers) RunDrip(w http.ResponseWriter, r *http.Request) {
	var res *drip.RunResult
	err := h.withLock(r.Context(), distlock.KeyDrip, func(ctx context.Context) error {
		var err error
		res, err = h.deps.Drip.Run(ctx, h.now())
		return err
	})
	if errors.Is(err, distlock.ErrNotAcquired) {
		httputil.Conflict(w, "a drip run is already in progress")
		return
	}
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	httputil.OK(w, res)
}

// RunPhaseGuard recomputes the phase and gates founding campaigns.
//
//	POST /api/phase-guard/run
func (h *Handlers) RunPhaseGuard(w http.ResponseWriter, r *http.Request) {
	var res *phase.Result
	err := h.withLock(r.Context(), distlock.KeyPhaseGuard, func(ctx context.Context) error {
		var err error
		res, err = h.deps.Phase.Run(ctx)
		return err
	})
	switch {
	case errors.Is(err, distlock.ErrNotAcquired):
		httputil.Conflict(w, "a phase guard run is already in progress")
	case errors.Is(err, phase.ErrCountUnavailable):
		h.log.Error("phase guard run failed", "error", err)
		httputil.Error(w, http.StatusServiceUnavailable, "member count unavailable")
	case err != nil:
		httputil.InternalError(w, r, err)
	default:
		httputil.OK(w, res)
	}
}

// GetPhase reports the current phase without acting on campaigns.
//
//	GET /api/phase
func (h *Handlers) GetPhase(w http.ResponseWriter, r *http.Request) {
	p, c, err := h.deps.Phase.Status(r.Context())
	if err != nil {
		h.log.Error("phase status failed", "error", err)
		httputil.Error(w, http.StatusServiceUnavailable, "member count unavailable")
		return
	}
	httputil.OK(w, map[string]any{"phase": p, "founders": c})
}

func (h *Handlers) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if h.deps.Locks == nil {
		return fn(ctx)
	}
	return distlock.Run(ctx, h.deps.Locks(key, jobLockTTL), fn)
}
