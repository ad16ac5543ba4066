// Package storetest exercises a compliance suite against a store.Store
// implementation. Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store"
)

// Run exercises the compliance suite. makeStore should provide a clean,
// isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Brands
	if err := s.Brands().Upsert(ctx, &model.Brand{BrandID: "acme", Name: "Acme", ConfigPath: "config/brands/acme.json"}); err != nil {
		t.Fatalf("UpsertBrand: %v", err)
	}
	if err := s.Brands().Upsert(ctx, &model.Brand{BrandID: "acme", Name: "Acme Outfitters", ConfigPath: "config/brands/acme.json"}); err != nil {
		t.Fatalf("UpsertBrand (update): %v", err)
	}
	lst, err := s.Brands().List(ctx)
	if err != nil {
		t.Fatalf("ListBrands: %v", err)
	}
	foundBrand := false
	for _, b := range lst {
		if b.BrandID == "acme" && b.Name == "Acme Outfitters" {
			foundBrand = true
		}
	}
	if !foundBrand {
		t.Fatalf("ListBrands: upserted brand missing from %d rows", len(lst))
	}

	// Campaigns
	campaignID := uuid.New().String()
	c, cErr := s.Campaigns().Create(ctx, &model.Campaign{
		CampaignID: campaignID,
		BrandID:    "acme",
		Name:       "Spring Drop",
		Subject:    "New spring arrivals are here",
		FromEmail:  "hello@acme.example",
		ReplyTo:    "support@acme.example",
	})
	if cErr != nil {
		t.Fatalf("CreateCampaign: %v", cErr)
	}
	if c.Status != model.CampaignStatusDraft {
		t.Fatalf("CreateCampaign: status=%q", c.Status)
	}
	if got, err := s.Campaigns().GetByID(ctx, campaignID); err != nil || got.Subject != "New spring arrivals are here" {
		t.Fatalf("GetCampaign: got=%v err=%v", got, err)
	}
	if _, err := s.Campaigns().GetByID(ctx, "absent"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetCampaign absent: err=%v", err)
	}
	if lst, err := s.Campaigns().List(ctx, 10); err != nil || len(lst) == 0 {
		t.Fatalf("ListCampaigns: n=%d err=%v", len(lst), err)
	}
	if err := s.Campaigns().UpdateStatus(ctx, campaignID, model.CampaignStatusSent); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := s.Campaigns().UpdateStatus(ctx, "absent", model.CampaignStatusSent); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateStatus absent: err=%v", err)
	}

	// Recipients
	tokenID := uuid.New().String()
	rec, err := s.Recipients().Add(ctx, &model.CampaignRecipient{
		CampaignID: campaignID,
		Email:      "alice@example.com",
		FirstName:  "Alice",
		TokenID:    tokenID,
	})
	if err != nil {
		t.Fatalf("AddRecipient: %v", err)
	}
	if rec.ID == 0 {
		t.Fatalf("AddRecipient: zero id")
	}
	if lst, err := s.Recipients().ListByCampaign(ctx, campaignID); err != nil || len(lst) != 1 {
		t.Fatalf("ListRecipients: n=%d err=%v", len(lst), err)
	}
	if got, err := s.Recipients().Match(ctx, campaignID, "alice@example.com", tokenID); err != nil || got.ID != rec.ID {
		t.Fatalf("MatchRecipient: got=%v err=%v", got, err)
	}
	if _, err := s.Recipients().Match(ctx, campaignID, "alice@example.com", "other-token"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("MatchRecipient wrong token: err=%v", err)
	}
	if err := s.Recipients().MarkSent(ctx, rec.ID, time.Now()); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if lst, _ := s.Recipients().ListByCampaign(ctx, campaignID); lst[0].SentAt == nil {
		t.Fatalf("MarkSent: sent_at still nil")
	}

	// Conversations and messages
	convoID := uuid.New().String()
	convo, err := s.Conversations().Create(ctx, &model.Conversation{
		ConversationID: convoID,
		CampaignID:     campaignID,
		RecipientEmail: "alice@example.com",
		TokenID:        tokenID,
	})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if convo.CreationTime.IsZero() || convo.LastMessageAt.IsZero() {
		t.Fatalf("CreateConversation: zero timestamps")
	}
	if _, err := s.Conversations().GetByID(ctx, "absent"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetConversation absent: err=%v", err)
	}

	latency := int64(42)
	if _, err := s.Messages().Append(ctx, &model.Message{ConversationID: convoID, Role: model.RoleUser, Content: "hello", Provider: "inbox"}); err != nil {
		t.Fatalf("AppendMessage user: %v", err)
	}
	if _, err := s.Messages().Append(ctx, &model.Message{ConversationID: convoID, Role: model.RoleAssistant, Content: "hi!", Provider: "openrouter", LatencyMs: &latency}); err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}
	msgs, err := s.Messages().ListByConversation(ctx, convoID)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("ListMessages: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Fatalf("ListMessages: order %s,%s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].LatencyMs == nil || *msgs[1].LatencyMs != 42 {
		t.Fatalf("ListMessages: latency=%v", msgs[1].LatencyMs)
	}
	if last, err := s.Messages().LastByConversation(ctx, convoID); err != nil || last.Content != "hi!" {
		t.Fatalf("LastMessage: got=%v err=%v", last, err)
	}

	touch := time.Now().Add(time.Minute)
	if err := s.Conversations().TouchLastMessage(ctx, convoID, touch); err != nil {
		t.Fatalf("TouchLastMessage: %v", err)
	}
	recent, err := s.Conversations().ListRecent(ctx, 50)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	foundConvo := false
	for _, cv := range recent {
		if cv.ConversationID == convoID {
			foundConvo = true
			if !cv.LastMessageAt.After(convo.LastMessageAt) {
				t.Fatalf("TouchLastMessage: last_message_at not advanced")
			}
		}
	}
	if !foundConvo {
		t.Fatalf("ListRecent: conversation missing from %d rows", len(recent))
	}

	// Events and render audit
	if err := s.Events().Append(ctx, &model.Event{CampaignID: campaignID, ConversationID: convoID, EventType: "chat_message_completed", PayloadJSON: `{"latency_ms":42}`}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := s.Events().Append(ctx, &model.Event{EventType: "brands_synced"}); err != nil {
		t.Fatalf("AppendEvent without campaign: %v", err)
	}
	if err := s.Renders().Record(ctx, &model.TemplateRender{CampaignID: campaignID, BrandID: "acme"}); err != nil {
		t.Fatalf("RecordRender: %v", err)
	}

	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}
