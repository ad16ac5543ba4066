package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/mailer"
	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/presets"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/template"
	"github.com/ampline/ampline/internal/token"
)

// Chat tokens baked into sent emails stay valid for a week; preview tokens for
// a day.
const (
	sendTokenTTLSeconds    = 7 * 24 * 3600
	previewTokenTTLSeconds = 24 * 3600
)

// CampaignService owns campaign creation, sending, and previewing.
type CampaignService struct {
	store    store.Store
	brands   *brand.Loader
	renderer *template.Renderer
	signer   *token.Signer
	sender   mailer.Sender

	chatEndpoint string
	log          zerolog.Logger
}

// NewCampaignService wires the campaign flows together. chatEndpoint is the
// absolute URL embedded into AMP chat modules.
func NewCampaignService(s store.Store, brands *brand.Loader, renderer *template.Renderer, signer *token.Signer, sender mailer.Sender, chatEndpoint string, log zerolog.Logger) *CampaignService {
	return &CampaignService{
		store:        s,
		brands:       brands,
		renderer:     renderer,
		signer:       signer,
		sender:       sender,
		chatEndpoint: chatEndpoint,
		log:          log,
	}
}

// NewRecipient is one recipient of a campaign being created.
type NewRecipient struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// CreateCampaignRequest carries the fields needed to create a draft campaign.
// Preset optionally names a canned content bundle; its subject fills in when
// Subject is omitted.
type CreateCampaignRequest struct {
	BrandID    string         `json:"brand_id"`
	Name       string         `json:"name"`
	Subject    string         `json:"subject"`
	FromEmail  string         `json:"from_email"`
	ReplyTo    string         `json:"reply_to"`
	Preset     string         `json:"preset,omitempty"`
	Recipients []NewRecipient `json:"recipients"`
}

// CreateCampaign validates the brand, persists the campaign with a fresh token
// identity per recipient, and records a campaign_created event.
func (s *CampaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*model.Campaign, error) {
	if req.Subject == "" && req.Preset != "" {
		preset, err := presets.Get(req.Preset)
		if err != nil {
			return nil, errors.Wrap(model.ErrValidation, err.Error())
		}
		req.Subject = preset.Subject
	}
	if req.BrandID == "" || req.Name == "" || req.Subject == "" || req.FromEmail == "" || req.ReplyTo == "" {
		return nil, errors.Wrap(model.ErrValidation, "brand_id, name, subject, from_email, and reply_to are required")
	}
	if len(req.Recipients) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "recipients must be a non-empty list")
	}
	for _, r := range req.Recipients {
		if r.Email == "" {
			return nil, errors.Wrap(model.ErrValidation, "each recipient must include email")
		}
	}

	if _, err := s.brands.Load(req.BrandID); err != nil {
		return nil, errors.Wrapf(model.ErrValidation, "brand %s: %v", req.BrandID, err)
	}
	if err := s.brands.Sync(ctx, s.store); err != nil {
		return nil, err
	}

	campaign, err := s.store.Campaigns().Create(ctx, &model.Campaign{
		CampaignID: uuid.NewString(),
		BrandID:    req.BrandID,
		Name:       req.Name,
		Subject:    req.Subject,
		FromEmail:  req.FromEmail,
		ReplyTo:    req.ReplyTo,
		Status:     model.CampaignStatusDraft,
	})
	if err != nil {
		return nil, err
	}

	for _, r := range req.Recipients {
		firstName := r.FirstName
		if firstName == "" {
			firstName = "there"
		}
		if _, err := s.store.Recipients().Add(ctx, &model.CampaignRecipient{
			CampaignID: campaign.CampaignID,
			Email:      r.Email,
			FirstName:  firstName,
			TokenID:    uuid.NewString(),
		}); err != nil {
			return nil, errors.Wrapf(err, "add recipient %s", r.Email)
		}
	}

	payload, _ := json.Marshal(map[string]any{"name": req.Name, "recipient_count": len(req.Recipients)})
	if err := s.store.Events().Append(ctx, &model.Event{
		CampaignID:  campaign.CampaignID,
		EventType:   "campaign_created",
		PayloadJSON: string(payload),
	}); err != nil {
		return nil, err
	}
	return campaign, nil
}

// SendFailure reports one recipient that could not be delivered to.
type SendFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// SendResult summarizes a campaign send.
type SendResult struct {
	CampaignID string        `json:"campaign_id"`
	Sent       int           `json:"sent"`
	Failed     []SendFailure `json:"failed"`
	Status     string        `json:"status"`
}

// SendCampaign renders and delivers the campaign to every recipient. A failed
// recipient is recorded and skipped; the send continues. The campaign ends up
// "sent" when at least one delivery succeeded, "failed" otherwise.
func (s *CampaignService) SendCampaign(ctx context.Context, campaignID string) (*SendResult, error) {
	campaign, err := s.store.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	brandCfg, err := s.brands.Load(campaign.BrandID)
	if err != nil {
		return nil, errors.Wrapf(model.ErrValidation, "brand %s: %v", campaign.BrandID, err)
	}
	recipients, err := s.store.Recipients().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "campaign has no recipients")
	}

	result := &SendResult{CampaignID: campaignID, Failed: []SendFailure{}}
	content := model.CampaignContent{Subject: campaign.Subject}

	for _, rec := range recipients {
		if err := s.sendToRecipient(ctx, campaign, brandCfg, content, rec); err != nil {
			s.log.Warn().Err(err).Str("campaignId", campaignID).Str("email", rec.Email).Msg("campaign send failure")
			result.Failed = append(result.Failed, SendFailure{Email: rec.Email, Error: err.Error()})
			s.appendSendEvent(ctx, campaignID, "campaign_send_failure", map[string]any{"email": rec.Email, "error": err.Error()})
			continue
		}
		result.Sent++
		s.appendSendEvent(ctx, campaignID, "campaign_send_success", map[string]any{"email": rec.Email})
	}

	result.Status = model.CampaignStatusFailed
	if result.Sent > 0 {
		result.Status = model.CampaignStatusSent
	}
	if err := s.store.Campaigns().UpdateStatus(ctx, campaignID, result.Status); err != nil {
		return nil, err
	}
	if err := s.store.Renders().Record(ctx, &model.TemplateRender{
		CampaignID:      campaignID,
		BrandID:         campaign.BrandID,
		TemplateVersion: "v1",
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CampaignService) sendToRecipient(ctx context.Context, campaign *model.Campaign, brandCfg *model.BrandConfig, content model.CampaignContent, rec *model.CampaignRecipient) error {
	tok, err := s.signer.Issue(campaign.CampaignID, rec.Email, rec.TokenID, sendTokenTTLSeconds)
	if err != nil {
		return err
	}
	rendered, err := s.renderer.Render(brandCfg, content, template.Recipient{Email: rec.Email, FirstName: rec.FirstName}, s.chatEndpoint, tok, "")
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, mailer.Email{
		From:     campaign.FromEmail,
		ReplyTo:  campaign.ReplyTo,
		To:       rec.Email,
		Subject:  campaign.Subject,
		TextBody: rendered.TextBody,
		HTMLBody: rendered.HTMLFallback,
		AMPBody:  rendered.AMPHTML,
	}); err != nil {
		return err
	}
	return s.store.Recipients().MarkSent(ctx, rec.ID, time.Now().UTC())
}

func (s *CampaignService) appendSendEvent(ctx context.Context, campaignID, eventType string, payload map[string]any) {
	data, _ := json.Marshal(payload)
	if err := s.store.Events().Append(ctx, &model.Event{
		CampaignID:  campaignID,
		EventType:   eventType,
		PayloadJSON: string(data),
	}); err != nil {
		s.log.Warn().Err(err).Str("campaignId", campaignID).Str("eventType", eventType).Msg("event append failed")
	}
}

// PreviewRequest customizes a brand preview render. Preset names one of the
// canned content bundles; when set it supplies the full campaign content and
// Subject only overrides the preset's subject line.
type PreviewRequest struct {
	BrandID   string
	Subject   string
	FirstName string
	Email     string
	Preset    string
}

// Preview renders the campaign artifacts for a synthetic recipient without
// persisting anything. The token is scoped to the "preview-<brand>" campaign
// id, which the chat endpoint treats as not requiring a recipient row.
func (s *CampaignService) Preview(ctx context.Context, req PreviewRequest) (*template.RenderedEmail, error) {
	content := model.CampaignContent{}
	if req.Preset != "" {
		preset, err := presets.Get(req.Preset)
		if err != nil {
			return nil, errors.Wrap(model.ErrValidation, err.Error())
		}
		content = preset
	}
	if req.Subject != "" {
		content.Subject = req.Subject
	} else if content.Subject == "" {
		content.Subject = "Demo campaign"
	}
	if req.FirstName == "" {
		req.FirstName = "there"
	}
	if req.Email == "" {
		req.Email = "preview@example.com"
	}

	brandCfg, err := s.brands.Load(req.BrandID)
	if err != nil {
		return nil, err
	}
	tok, err := s.signer.Issue("preview-"+req.BrandID, req.Email, "preview-token", previewTokenTTLSeconds)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(
		brandCfg,
		content,
		template.Recipient{Email: req.Email, FirstName: req.FirstName},
		s.chatEndpoint, tok, "",
	)
}

// ListCampaigns returns recent campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, limit int) ([]*model.Campaign, error) {
	return s.store.Campaigns().List(ctx, limit)
}
