package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/provider"
	"github.com/ampline/ampline/internal/store"
)

// Assistant replies are rendered inside a small AMP viewport, so output is
// hard-capped rather than trusted to provider instructions.
const (
	maxAssistantReplyChars = 560
	maxAssistantReplyLines = 6
)

const emptyReplyFallback = "I can help with fit, materials, shipping, and recommendations. What would you like to know?"

// ErrConversationMismatch is returned when a supplied conversation id exists
// but belongs to a different campaign or recipient than the presented token.
var ErrConversationMismatch = errors.New("conversation ownership mismatch")

var (
	codeFenceRe  = regexp.MustCompile("`{1,3}")
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	linePrefixRe = regexp.MustCompile(`(?m)^\s{0,3}(#{1,6}|\*|-|\d+\.)\s*`)
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe  = regexp.MustCompile(`\s{2,}`)
)

// ChatService runs the in-email chat flow: conversation resolution, transcript
// assembly, provider call, and persistence of both turns.
type ChatService struct {
	store        store.Store
	provider     provider.Provider
	systemPrompt string
}

// NewChatService wires the chat flow to its store and model provider.
func NewChatService(s store.Store, p provider.Provider, systemPrompt string) *ChatService {
	return &ChatService{store: s, provider: p, systemPrompt: systemPrompt}
}

// ChatResult is the outcome of one handled message.
type ChatResult struct {
	ConversationID string
	Reply          string
	LatencyMs      int64
}

// HandleMessage appends the user turn, fetches an assistant reply, and
// persists the normalized result. When convoID is empty a new conversation is
// created for the token identity; when present it must belong to the same
// campaign and recipient.
func (s *ChatService) HandleMessage(ctx context.Context, campaignID, recipientEmail, tokenID, userMessage, convoID string) (*ChatResult, error) {
	convo, err := s.resolveConversation(ctx, campaignID, recipientEmail, tokenID, convoID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Messages().Append(ctx, &model.Message{
		ConversationID: convo.ConversationID,
		Role:           model.RoleUser,
		Content:        userMessage,
		Provider:       "inbox",
	}); err != nil {
		return nil, errors.Wrap(err, "append user message")
	}

	transcript, err := s.transcript(ctx, convo.ConversationID)
	if err != nil {
		return nil, err
	}

	reply, latencyMs, err := s.provider.Complete(ctx, transcript)
	if err != nil {
		return nil, err
	}
	reply = normalizeAssistantReply(reply)

	latency := latencyMs
	if _, err := s.store.Messages().Append(ctx, &model.Message{
		ConversationID: convo.ConversationID,
		Role:           model.RoleAssistant,
		Content:        reply,
		Provider:       s.provider.Name(),
		LatencyMs:      &latency,
	}); err != nil {
		return nil, errors.Wrap(err, "append assistant message")
	}
	if err := s.store.Conversations().TouchLastMessage(ctx, convo.ConversationID, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.store.Events().Append(ctx, &model.Event{
		CampaignID:     campaignID,
		ConversationID: convo.ConversationID,
		EventType:      "chat_message_completed",
		PayloadJSON:    fmt.Sprintf(`{"latency_ms": %d}`, latencyMs),
	}); err != nil {
		return nil, err
	}

	return &ChatResult{ConversationID: convo.ConversationID, Reply: reply, LatencyMs: latencyMs}, nil
}

// GetConversationMessages returns the ordered transcript of one conversation.
func (s *ChatService) GetConversationMessages(ctx context.Context, convoID string) (*model.Conversation, []*model.Message, error) {
	convo, err := s.store.Conversations().GetByID(ctx, convoID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.Messages().ListByConversation(ctx, convoID)
	if err != nil {
		return nil, nil, err
	}
	return convo, msgs, nil
}

// ListRecentConversations returns recent conversations with their last message.
func (s *ChatService) ListRecentConversations(ctx context.Context, limit int) ([]*model.Conversation, map[string]*model.Message, error) {
	convos, err := s.store.Conversations().ListRecent(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	last := make(map[string]*model.Message, len(convos))
	for _, c := range convos {
		m, err := s.store.Messages().LastByConversation(ctx, c.ConversationID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		last[c.ConversationID] = m
	}
	return convos, last, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, campaignID, recipientEmail, tokenID, convoID string) (*model.Conversation, error) {
	if convoID != "" {
		convo, err := s.store.Conversations().GetByID(ctx, convoID)
		if err != nil {
			return nil, err
		}
		if convo.CampaignID != campaignID || convo.RecipientEmail != recipientEmail {
			return nil, ErrConversationMismatch
		}
		return convo, nil
	}

	return s.store.Conversations().Create(ctx, &model.Conversation{
		ConversationID: uuid.NewString(),
		CampaignID:     campaignID,
		RecipientEmail: recipientEmail,
		TokenID:        tokenID,
	})
}

func (s *ChatService) transcript(ctx context.Context, convoID string) ([]provider.Message, error) {
	history, err := s.store.Messages().ListByConversation(ctx, convoID)
	if err != nil {
		return nil, err
	}
	msgs := make([]provider.Message, 0, len(history)+1)
	msgs = append(msgs, provider.Message{Role: model.RoleSystem, Content: s.systemPrompt})
	for _, m := range history {
		msgs = append(msgs, provider.Message{Role: m.Role, Content: m.Content})
	}
	return msgs, nil
}

// normalizeAssistantReply keeps assistant output readable inside constrained
// AMP chat viewports: markdown syntax is stripped, lines are capped and joined,
// and the result is truncated with an ellipsis.
func normalizeAssistantReply(content string) string {
	text := strings.ReplaceAll(content, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyReplyFallback
	}

	text = codeFenceRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = linePrefixRe.ReplaceAllString(text, "")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > maxAssistantReplyLines {
		lines = lines[:maxAssistantReplyLines]
	}
	text = strings.Join(lines, " ")
	text = strings.TrimSpace(spaceRunsRe.ReplaceAllString(text, " "))

	if len([]rune(text)) > maxAssistantReplyChars {
		runes := []rune(text)
		text = strings.TrimRight(string(runes[:maxAssistantReplyChars-1]), " ") + "…"
	}
	return text
}
