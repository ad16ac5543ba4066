package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ampline/ampline/internal/api/respond"
	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/services"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/token"
)

// ChatHandler is the AMP action-xhr endpoint behind the in-email chat module.
type ChatHandler struct {
	svc      *services.ChatService
	store    store.Store
	verifier *token.Signer
	log      zerolog.Logger
}

func NewChatHandler(svc *services.ChatService, s store.Store, verifier *token.Signer, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, store: s, verifier: verifier, log: log}
}

type chatRequest struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	ConvoID string `json:"convo_id"`
}

// parseChatRequest accepts both JSON bodies and the urlencoded/multipart form
// posts AMP action-xhr produces.
func parseChatRequest(r *http.Request) (chatRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return chatRequest{}, err
		}
		return req, nil
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
		return chatRequest{}, err
	}
	return chatRequest{
		Token:   r.FormValue("token"),
		Message: r.FormValue("message"),
		ConvoID: r.FormValue("convo_id"),
	}, nil
}

// HandleMessage POST /api/v1/chat/message
//
// Every token verification failure is reported as the same generic 401 so the
// response does not reveal which check rejected the token.
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())

	req, err := parseChatRequest(r)
	if err != nil {
		respond.WriteBadRequest(w, "Invalid request body", requestID)
		return
	}
	if req.Token == "" {
		respond.WriteBadRequest(w, "Missing token", requestID)
		return
	}
	if req.Message == "" {
		respond.WriteBadRequest(w, "Missing message", requestID)
		return
	}

	claims, err := h.verifier.Verify(req.Token)
	if err != nil {
		h.log.Debug().Err(err).Str("requestId", requestID).Msg("chat token rejected")
		respond.WriteUnauthorized(w, requestID)
		return
	}

	// Preview campaigns have no recipient rows; everything else must match
	// the exact (campaign, email, token identity) triple baked at creation.
	if !strings.HasPrefix(claims.CampaignID, "preview-") {
		if _, err := h.store.Recipients().Match(r.Context(), claims.CampaignID, claims.Recipient, claims.TokenID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				respond.WriteError(w, http.StatusForbidden, "Token does not match a campaign recipient", requestID)
				return
			}
			respond.WriteInternalError(w, err.Error(), requestID)
			return
		}
	}

	res, err := h.svc.HandleMessage(r.Context(), claims.CampaignID, claims.Recipient, claims.TokenID, req.Message, req.ConvoID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			respond.WriteNotFound(w, "Conversation not found", requestID)
		case errors.Is(err, services.ErrConversationMismatch):
			respond.WriteError(w, http.StatusForbidden, err.Error(), requestID)
		default:
			h.log.Error().Err(err).Str("requestId", requestID).Msg("chat message failed")
			respond.WriteInternalError(w, "Unable to generate a reply", requestID)
		}
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"convo_id":   res.ConversationID,
		"response":   res.Reply,
		"request_id": requestID,
	})
}
