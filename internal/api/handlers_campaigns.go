package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ampline/ampline/internal/api/respond"
	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/services"
	"github.com/ampline/ampline/internal/template"
)

// CampaignHandler is a thin HTTP transport over CampaignService.
type CampaignHandler struct {
	svc *services.CampaignService
}

func NewCampaignHandler(svc *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{svc: svc}
}

// CreateCampaign POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON", RequestID(r.Context()))
		return
	}
	campaign, err := h.svc.CreateCampaign(r.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error(), RequestID(r.Context()))
			return
		}
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"campaign_id": campaign.CampaignID,
		"status":      campaign.Status,
		"request_id":  RequestID(r.Context()),
	})
}

// ListCampaigns GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.svc.ListCampaigns(r.Context(), 100)
	if err != nil {
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns":  campaigns,
		"count":      len(campaigns),
		"request_id": RequestID(r.Context()),
	})
}

// SendCampaign POST /api/v1/campaigns/{campaignId}/send
func (h *CampaignHandler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := mux.Vars(r)["campaignId"]
	res, err := h.svc.SendCampaign(r.Context(), campaignID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			respond.WriteNotFound(w, "Campaign not found", RequestID(r.Context()))
		case errors.Is(err, model.ErrValidation):
			respond.WriteBadRequest(w, err.Error(), RequestID(r.Context()))
		default:
			respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		}
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": res.CampaignID,
		"sent":        res.Sent,
		"failed":      res.Failed,
		"status":      res.Status,
		"request_id":  RequestID(r.Context()),
	})
}

// PreviewBrand GET /api/v1/preview/{brandId}
func (h *CampaignHandler) PreviewBrand(w http.ResponseWriter, r *http.Request) {
	rendered, err := h.preview(r)
	if err != nil {
		switch {
		case errors.Is(err, brand.ErrBrandNotFound):
			respond.WriteNotFound(w, err.Error(), RequestID(r.Context()))
		case errors.Is(err, model.ErrValidation):
			respond.WriteBadRequest(w, err.Error(), RequestID(r.Context()))
		default:
			respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		}
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"brand_id":      mux.Vars(r)["brandId"],
		"amp_module":    rendered.AMPModule,
		"amp_html":      rendered.AMPHTML,
		"html_fallback": rendered.HTMLFallback,
		"request_id":    RequestID(r.Context()),
	})
}

// PreviewPage GET /demo/preview-page/{brandId} serves the fallback HTML
// directly so the preview renders in a browser.
func (h *CampaignHandler) PreviewPage(w http.ResponseWriter, r *http.Request) {
	rendered, err := h.preview(r)
	if err != nil {
		if errors.Is(err, brand.ErrBrandNotFound) {
			respond.WriteNotFound(w, err.Error(), RequestID(r.Context()))
			return
		}
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered.HTMLFallback))
}

func (h *CampaignHandler) preview(r *http.Request) (*template.RenderedEmail, error) {
	q := r.URL.Query()
	return h.svc.Preview(r.Context(), services.PreviewRequest{
		BrandID:   mux.Vars(r)["brandId"],
		Subject:   q.Get("subject"),
		FirstName: q.Get("first_name"),
		Email:     q.Get("email"),
		Preset:    q.Get("preset"),
	})
}
