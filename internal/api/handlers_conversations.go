package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ampline/ampline/internal/api/respond"
	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/services"
)

// ConversationHandler serves read-only conversation views for operators.
type ConversationHandler struct {
	svc *services.ChatService
}

func NewConversationHandler(svc *services.ChatService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// ListConversations GET /api/v1/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convos, last, err := h.svc.ListRecentConversations(r.Context(), 100)
	if err != nil {
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}

	payload := make([]map[string]interface{}, 0, len(convos))
	for _, c := range convos {
		lastMessage := ""
		if m, ok := last[c.ConversationID]; ok {
			lastMessage = m.Content
		}
		payload = append(payload, map[string]interface{}{
			"convo_id":        c.ConversationID,
			"campaign_id":     c.CampaignID,
			"recipient_email": c.RecipientEmail,
			"last_message":    lastMessage,
			"last_message_at": c.LastMessageAt.Format(time.RFC3339),
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": payload,
		"request_id":    RequestID(r.Context()),
	})
}

// ConversationDetail GET /api/v1/conversations/{convoId}
func (h *ConversationHandler) ConversationDetail(w http.ResponseWriter, r *http.Request) {
	convoID := mux.Vars(r)["convoId"]
	convo, msgs, err := h.svc.GetConversationMessages(r.Context(), convoID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "Conversation not found", RequestID(r.Context()))
			return
		}
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}

	messages := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		messages = append(messages, map[string]interface{}{
			"role":       m.Role,
			"content":    m.Content,
			"created_at": m.CreationTime.Format(time.RFC3339),
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"convo_id":        convo.ConversationID,
		"campaign_id":     convo.CampaignID,
		"recipient_email": convo.RecipientEmail,
		"messages":        messages,
		"request_id":      RequestID(r.Context()),
	})
}
