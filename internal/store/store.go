// Package store defines persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
package store

import (
	"context"
	"time"

	"github.com/ampline/ampline/internal/model"
)

// Store exposes the aggregate-scoped repositories.
type Store interface {
	Brands() Brands
	Campaigns() Campaigns
	Recipients() Recipients
	Conversations() Conversations
	Messages() Messages
	Events() Events
	Renders() Renders

	HealthPing(ctx context.Context) error
	Close() error
}

type Brands interface {
	Upsert(ctx context.Context, b *model.Brand) error
	List(ctx context.Context) ([]*model.Brand, error)
}

type Campaigns interface {
	Create(ctx context.Context, c *model.Campaign) (*model.Campaign, error)
	GetByID(ctx context.Context, campaignID string) (*model.Campaign, error)
	List(ctx context.Context, limit int) ([]*model.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID, status string) error
}

type Recipients interface {
	Add(ctx context.Context, r *model.CampaignRecipient) (*model.CampaignRecipient, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*model.CampaignRecipient, error)
	// Match returns the recipient row whose (campaign, email, token identity)
	// triple matches exactly; model.ErrNotFound otherwise. Chat authorization
	// depends on this exact-match lookup.
	Match(ctx context.Context, campaignID, email, tokenID string) (*model.CampaignRecipient, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
}

type Conversations interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	GetByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Conversation, error)
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
}

type Messages interface {
	Append(ctx context.Context, m *model.Message) (*model.Message, error)
	// ListByConversation returns messages ordered by creation time, then id.
	ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error)
	LastByConversation(ctx context.Context, conversationID string) (*model.Message, error)
}

type Events interface {
	Append(ctx context.Context, e *model.Event) error
}

type Renders interface {
	Record(ctx context.Context, r *model.TemplateRender) error
}
