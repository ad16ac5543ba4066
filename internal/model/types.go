package model

import "time"

// Brand is the persisted record for a theme loaded from brand config files.
type Brand struct {
	BrandID      string    `json:"brandId"`
	Name         string    `json:"name"`
	ConfigPath   string    `json:"configPath"`
	CreationTime time.Time `json:"creationTime"`
}

// BrandConfig is the validated visual theme for a brand. All fields are
// required; Validate in internal/template enforces the constraints before
// any rendering happens.
type BrandConfig struct {
	BrandID         string `json:"brand_id"`
	BrandName       string `json:"brand_name"`
	LogoURL         string `json:"logo_url"`
	FontStack       string `json:"font_stack"`
	ColorPrimary    string `json:"color_primary"`
	ColorSurface    string `json:"color_surface"`
	ColorText       string `json:"color_text"`
	ColorMuted      string `json:"color_muted"`
	BorderRadiusPx  int    `json:"border_radius_px"`
	SpacingScale    int    `json:"spacing_scale"`
	ChatHeaderTitle string `json:"chat_header_title"`
}

// Campaign is a branded send with a fixed recipient list.
type Campaign struct {
	CampaignID   string    `json:"campaignId"`
	BrandID      string    `json:"brandId"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject"`
	FromEmail    string    `json:"fromEmail"`
	ReplyTo      string    `json:"replyTo"`
	Status       string    `json:"status"`
	CreationTime time.Time `json:"creationTime"`
}

// Campaign statuses.
const (
	CampaignStatusDraft  = "draft"
	CampaignStatusSent   = "sent"
	CampaignStatusFailed = "failed"
)

// CampaignRecipient binds an email address to a campaign together with the
// token identity baked into that recipient's chat capability token.
type CampaignRecipient struct {
	ID         int64      `json:"id"`
	CampaignID string     `json:"campaignId"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	TokenID    string     `json:"tokenId"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
}

// CampaignContent holds the nine substitutable content fields of a campaign
// email. Empty fields fall back to documented defaults at render time.
type CampaignContent struct {
	Subject      string `json:"subject"`
	Preheader    string `json:"preheader"`
	HeroEyebrow  string `json:"hero_eyebrow"`
	HeroHeadline string `json:"hero_headline"`
	HeroBody     string `json:"hero_body"`
	OfferBadge   string `json:"offer_badge"`
	CTALabel     string `json:"cta_label"`
	Feature1     string `json:"feature_1"`
	Feature2     string `json:"feature_2"`
	Feature3     string `json:"feature_3"`
}

// Conversation is an in-email chat thread, owned by the recipient and token
// identity that created it.
type Conversation struct {
	ConversationID string    `json:"conversationId"`
	CampaignID     string    `json:"campaignId"`
	RecipientEmail string    `json:"recipientEmail"`
	TokenID        string    `json:"tokenId"`
	CreationTime   time.Time `json:"creationTime"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
}

// Message is one turn of a conversation, ordered by creation time.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Provider       string    `json:"provider,omitempty"`
	LatencyMs      *int64    `json:"latencyMs,omitempty"`
	CreationTime   time.Time `json:"creationTime"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Event records an audit trail entry for campaign and chat activity.
type Event struct {
	ID             int64     `json:"id"`
	CampaignID     string    `json:"campaignId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	EventType      string    `json:"eventType"`
	PayloadJSON    string    `json:"payload"`
	CreationTime   time.Time `json:"creationTime"`
}

// TemplateRender is the audit row written once per campaign send.
type TemplateRender struct {
	ID              int64     `json:"id"`
	CampaignID      string    `json:"campaignId"`
	BrandID         string    `json:"brandId"`
	TemplateVersion string    `json:"templateVersion"`
	RenderedAt      time.Time `json:"renderedAt"`
}
