package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/httputil"
	"github.com/ignite/founders-outreach/internal/service/campaign"
)

// ListCampaigns returns campaigns, newest first.
//
//	GET /api/campaigns?status=&limit=&offset=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.deps.Campaigns.List(r.Context(), campaign.ListFilter{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Campaign{}
	}
	httputil.OK(w, map[string]any{"campaigns": items, "total": total, "limit": limit, "offset": offset})
}

// CreateCampaign creates a draft campaign.
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.deps.Campaigns.Create(r.Context(), in)
	if err != nil {
		writeCampaignError(w, r, err)
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns one campaign with its counters.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCampaignError(w, r, err)
		return
	}
	httputil.OK(w, c)
}

// ActivateCampaign moves a draft campaign to active.
func (h *Handlers) ActivateCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.Campaigns.Activate)
}

// PauseCampaign pauses an active campaign on behalf of an operator.
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.Campaigns.Pause)
}

// ResumeCampaign reactivates a paused campaign.
func (h *Handlers) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.Campaigns.Resume)
}

// CompleteCampaign closes an active campaign.
func (h *Handlers) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.Campaigns.Complete)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*domain.Campaign, error)) {
	c, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCampaignError(w, r, err)
		return
	}
	httputil.OK(w, c)
}

func writeCampaignError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidTransition):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, campaign.ErrNameRequired), errors.Is(err, campaign.ErrInvalidPhaseTag):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, r, err)
	}
}
