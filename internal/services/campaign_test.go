package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/mailer"
	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/template"
	"github.com/ampline/ampline/internal/token"
)

type fakeSender struct {
	sent    []mailer.Email
	failFor map[string]error
}

func (f *fakeSender) Send(_ context.Context, email mailer.Email) error {
	if err, ok := f.failFor[email.To]; ok {
		return err
	}
	f.sent = append(f.sent, email)
	return nil
}

func writeBrandConfig(t *testing.T, dir, brandID string) {
	t.Helper()
	cfg := map[string]any{
		"brand_id":          brandID,
		"brand_name":        "Acme Outfitters",
		"logo_url":          "https://cdn.example.com/logo.png",
		"font_stack":        "Arial, sans-serif",
		"color_primary":     "#C4320F",
		"color_surface":     "#FFF6F1",
		"color_text":        "#1F1A17",
		"color_muted":       "#8A7F78",
		"border_radius_px":  8,
		"spacing_scale":     4,
		"chat_header_title": "Ask Acme",
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, brandID+".json"), data, 0o644))
}

func newCampaignService(t *testing.T, st store.Store, sender mailer.Sender) *CampaignService {
	t.Helper()
	brandDir := t.TempDir()
	writeBrandConfig(t, brandDir, "acme")
	return NewCampaignService(
		st,
		brand.NewLoader(brandDir),
		template.NewRenderer(template.NewEmbeddedSource()),
		token.NewSigner("test-secret"),
		sender,
		"http://127.0.0.1:8000/api/v1/chat/message",
		zerolog.Nop(),
	)
}

func createReq() CreateCampaignRequest {
	return CreateCampaignRequest{
		BrandID:   "acme",
		Name:      "Spring Drop",
		Subject:   "The spring drop is live",
		FromEmail: "offers@acme.example.com",
		ReplyTo:   "support@acme.example.com",
		Recipients: []NewRecipient{
			{Email: "alice@example.com", FirstName: "Alice"},
			{Email: "bob@example.com"},
		},
	}
}

func TestCampaignService_Create(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	ctx := context.Background()

	campaign, err := svc.CreateCampaign(ctx, createReq())
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusDraft, campaign.Status)

	recs, err := st.Recipients().ListByCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEmpty(t, recs[0].TokenID)
	assert.NotEqual(t, recs[0].TokenID, recs[1].TokenID)
	assert.Equal(t, "there", recs[1].FirstName)

	// brand sync ran as part of creation
	brands, err := st.Brands().List(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "acme", brands[0].BrandID)
}

func TestCampaignService_CreateValidation(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	ctx := context.Background()

	req := createReq()
	req.Recipients = nil
	_, err := svc.CreateCampaign(ctx, req)
	assert.ErrorIs(t, err, model.ErrValidation)

	req = createReq()
	req.Recipients = []NewRecipient{{FirstName: "NoEmail"}}
	_, err = svc.CreateCampaign(ctx, req)
	assert.ErrorIs(t, err, model.ErrValidation)

	req = createReq()
	req.BrandID = "ghost"
	_, err = svc.CreateCampaign(ctx, req)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCampaignService_Send(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{}
	svc := newCampaignService(t, st, sender)
	ctx := context.Background()

	campaign, err := svc.CreateCampaign(ctx, createReq())
	require.NoError(t, err)

	res, err := svc.SendCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Empty(t, res.Failed)
	assert.Equal(t, model.CampaignStatusSent, res.Status)

	require.Len(t, sender.sent, 2)
	first := sender.sent[0]
	assert.Equal(t, "offers@acme.example.com", first.From)
	assert.Equal(t, "The spring drop is live", first.Subject)
	assert.Contains(t, first.AMPBody, "⚡4email")
	assert.Contains(t, first.AMPBody, "Hi Alice")
	assert.NotContains(t, first.AMPBody, "__")
	assert.Contains(t, first.TextBody, "Hi Alice,")

	// each recipient gets a token bound to their own identity
	signer := token.NewSigner("test-secret")
	for i, rec := range []string{"alice@example.com", "bob@example.com"} {
		body := sender.sent[i].AMPBody
		start := strings.Index(body, `name="token" value="`) + len(`name="token" value="`)
		tok := body[start : start+strings.Index(body[start:], `"`)]
		claims, err := signer.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, campaign.CampaignID, claims.CampaignID)
		assert.Equal(t, rec, claims.Recipient)
	}

	recs, err := st.Recipients().ListByCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotNil(t, r.SentAt)
	}

	got, err := st.Campaigns().GetByID(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSent, got.Status)
}

func TestCampaignService_SendContinuesPastFailures(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{failFor: map[string]error{"alice@example.com": assert.AnError}}
	svc := newCampaignService(t, st, sender)
	ctx := context.Background()

	campaign, err := svc.CreateCampaign(ctx, createReq())
	require.NoError(t, err)

	res, err := svc.SendCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "alice@example.com", res.Failed[0].Email)
	assert.Equal(t, model.CampaignStatusSent, res.Status)
}

func TestCampaignService_SendAllFailures(t *testing.T) {
	st := newTestStore(t)
	sender := &fakeSender{failFor: map[string]error{
		"alice@example.com": assert.AnError,
		"bob@example.com":   assert.AnError,
	}}
	svc := newCampaignService(t, st, sender)
	ctx := context.Background()

	campaign, err := svc.CreateCampaign(ctx, createReq())
	require.NoError(t, err)

	res, err := svc.SendCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, model.CampaignStatusFailed, res.Status)

	got, err := st.Campaigns().GetByID(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusFailed, got.Status)
}

func TestCampaignService_SendUnknownCampaign(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	_, err := svc.SendCampaign(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCampaignService_Preview(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	ctx := context.Background()

	rendered, err := svc.Preview(ctx, PreviewRequest{BrandID: "acme"})
	require.NoError(t, err)
	assert.Contains(t, rendered.AMPHTML, "Demo campaign")
	assert.Contains(t, rendered.HTMLFallback, "Acme Outfitters")
	assert.NotEmpty(t, rendered.AMPModule)

	// preview token is scoped to the synthetic preview campaign
	signer := token.NewSigner("test-secret")
	body := rendered.AMPModule
	start := strings.Index(body, `name="token" value="`) + len(`name="token" value="`)
	tok := body[start : start+strings.Index(body[start:], `"`)]
	claims, err := signer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "preview-acme", claims.CampaignID)
	assert.Equal(t, "preview-token", claims.TokenID)

	// nothing persisted
	campaigns, err := st.Campaigns().List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}

func TestCampaignService_PreviewWithPreset(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	ctx := context.Background()

	rendered, err := svc.Preview(ctx, PreviewRequest{BrandID: "acme", Preset: "clearance_event"})
	require.NoError(t, err)
	assert.Contains(t, rendered.AMPHTML, "Final hours: up to 60% off")
	assert.Contains(t, rendered.HTMLFallback, "Ends tonight at midnight")

	_, err = svc.Preview(ctx, PreviewRequest{BrandID: "acme", Preset: "nope"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCampaignService_CreateWithPresetSubject(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	ctx := context.Background()

	req := createReq()
	req.Subject = ""
	req.Preset = "spring_drop"
	campaign, err := svc.CreateCampaign(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "The spring drop is live", campaign.Subject)
}

func TestCampaignService_PreviewUnknownBrand(t *testing.T) {
	st := newTestStore(t)
	svc := newCampaignService(t, st, &fakeSender{})
	_, err := svc.Preview(context.Background(), PreviewRequest{BrandID: "ghost"})
	assert.ErrorIs(t, err, brand.ErrBrandNotFound)
}
