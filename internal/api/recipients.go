package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/httputil"
	"github.com/ignite/founders-outreach/internal/service/recipient"
)

const maxUploadSize = 32 << 20

type ingestRequest struct {
	Recipients []domain.RecipientRow `json:"recipients"`
}

// IngestRecipients adds a JSON batch of recipients to a campaign.
//
//	POST /api/campaigns/{id}/recipients
func (h *Handlers) IngestRecipients(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.deps.Recipients.IngestBatch(r.Context(), chi.URLParam(r, "id"), req.Recipients)
	writeIngestResult(w, r, res, err)
}

// IngestRecipientsCSV adds recipients from a multipart CSV upload in the
// "file" field.
//
//	POST /api/campaigns/{id}/recipients/csv
func (h *Handlers) IngestRecipientsCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.BadRequest(w, "invalid multipart upload: "+err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	res, err := h.deps.Importer.IngestCSV(r.Context(), chi.URLParam(r, "id"), file)
	writeIngestResult(w, r, res, err)
}

type importRequest struct {
	Key string `json:"key"`
}

// ImportRecipients ingests a CSV previously dropped in the import bucket.
//
//	POST /api/campaigns/{id}/recipients/import
func (h *Handlers) ImportRecipients(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.deps.Importer.IngestFromObject(r.Context(), chi.URLParam(r, "id"), req.Key)
	writeIngestResult(w, r, res, err)
}

func writeIngestResult(w http.ResponseWriter, r *http.Request, res *recipient.IngestResult, err error) {
	var partial *recipient.PartialError
	switch {
	case err == nil:
		httputil.OK(w, res)
	case errors.As(err, &partial):
		httputil.ServerError(w, r, partial.Err, "failed to store recipients", partial.Result)
	case errors.Is(err, recipient.ErrCampaignNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, recipient.ErrValidation), errors.Is(err, recipient.ErrTooManyRows):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, r, err)
	}
}
