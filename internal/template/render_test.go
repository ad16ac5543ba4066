package template

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampline/ampline/internal/model"
)

func validBrand() *model.BrandConfig {
	return &model.BrandConfig{
		BrandID:         "acme",
		BrandName:       "Acme Outfitters",
		LogoURL:         "https://cdn.example.com/acme/logo.png",
		FontStack:       "Helvetica, Arial, sans-serif",
		ColorPrimary:    "#0B5FFF",
		ColorSurface:    "#F4F6FA",
		ColorText:       "#1A1A1A",
		ColorMuted:      "#6B7280",
		BorderRadiusPx:  8,
		SpacingScale:    8,
		ChatHeaderTitle: "Chat with Acme",
	}
}

func TestValidateBrandConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.BrandConfig)
		wantErr error
	}{
		{"valid", func(c *model.BrandConfig) {}, nil},
		{"missing name", func(c *model.BrandConfig) { c.BrandName = "" }, ErrMissingBrandField},
		{"missing chat header", func(c *model.BrandConfig) { c.ChatHeaderTitle = "" }, ErrMissingBrandField},
		{"blank font stack", func(c *model.BrandConfig) { c.FontStack = "   " }, ErrMissingBrandField},
		{"short color", func(c *model.BrandConfig) { c.ColorPrimary = "#FFF" }, ErrInvalidColor},
		{"no hash color", func(c *model.BrandConfig) { c.ColorMuted = "6B7280" }, ErrInvalidColor},
		{"non-hex color", func(c *model.BrandConfig) { c.ColorText = "#GGGGGG" }, ErrInvalidColor},
		{"relative logo url", func(c *model.BrandConfig) { c.LogoURL = "/assets/logo.png" }, ErrInvalidURL},
		{"ftp logo url", func(c *model.BrandConfig) { c.LogoURL = "ftp://cdn.example.com/logo.png" }, ErrInvalidURL},
		{"negative radius", func(c *model.BrandConfig) { c.BorderRadiusPx = -1 }, ErrInvalidBrandField},
		{"negative spacing", func(c *model.BrandConfig) { c.SpacingScale = -4 }, ErrInvalidBrandField},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validBrand()
			tc.mutate(cfg)
			err := ValidateBrandConfig(cfg)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestInjectChatModuleRequiresSlot(t *testing.T) {
	_, err := InjectChatModule("<html><body>No slot</body></html>", "<div>chat</div>")
	assert.ErrorIs(t, err, ErrMissingSlot)

	merged, err := InjectChatModule("<body>"+ChatModuleSlot+"</body>", "<div>chat</div>")
	require.NoError(t, err)
	assert.Equal(t, "<body><div>chat</div></body>", merged)
}

func TestRenderLeavesNoUnresolvedTokens(t *testing.T) {
	r := NewRenderer(NewEmbeddedSource())

	rendered, err := r.Render(validBrand(), model.CampaignContent{Subject: "Spring Sale"},
		Recipient{Email: "demo@example.com", FirstName: "Sam"},
		"https://example.com/api/v1/chat/message", "token-123", "")
	require.NoError(t, err)

	placeholder := regexp.MustCompile(`__[A-Z0-9_]+__`)
	assert.Empty(t, placeholder.FindAllString(rendered.AMPHTML, -1))
	assert.Empty(t, placeholder.FindAllString(rendered.HTMLFallback, -1))
	assert.Empty(t, placeholder.FindAllString(rendered.AMPModule, -1))
	assert.NotContains(t, rendered.AMPHTML, ChatModuleSlot)
}

func TestRenderEmbedsTokenAndBrandColor(t *testing.T) {
	r := NewRenderer(NewEmbeddedSource())
	brand := validBrand()

	rendered, err := r.Render(brand, model.CampaignContent{Subject: "Spring Sale"},
		Recipient{Email: "demo@example.com", FirstName: "Sam"},
		"https://example.com/api/v1/chat/message", "token-123", "")
	require.NoError(t, err)

	assert.Contains(t, rendered.AMPHTML, "token-123")
	assert.Contains(t, rendered.AMPHTML, brand.ColorPrimary)
	assert.Contains(t, rendered.AMPHTML, "https://example.com/api/v1/chat/message")
	assert.Contains(t, rendered.AMPHTML, "Hi Sam,")
	assert.Contains(t, rendered.HTMLFallback, brand.BrandName)
	assert.NotContains(t, rendered.HTMLFallback, "token-123")
}

func TestRenderAppliesContentDefaults(t *testing.T) {
	r := NewRenderer(NewEmbeddedSource())

	rendered, err := r.Render(validBrand(), model.CampaignContent{},
		Recipient{Email: "demo@example.com"},
		"https://example.com/api/v1/chat/message", "token-123", "")
	require.NoError(t, err)

	assert.Contains(t, rendered.AMPHTML, "Campaign update")
	assert.Contains(t, rendered.AMPHTML, "Hi there,")
	assert.Contains(t, rendered.TextBody, "Hi there,")
	assert.Contains(t, rendered.TextBody, "Campaign update")
}

func TestRenderTextBodyIsThreeSections(t *testing.T) {
	r := NewRenderer(NewEmbeddedSource())

	rendered, err := r.Render(validBrand(), model.CampaignContent{Subject: "VIP early access is open"},
		Recipient{Email: "vip@example.com", FirstName: "Lee"},
		"https://example.com/api/v1/chat/message", "tok", "")
	require.NoError(t, err)

	assert.Equal(t,
		"Hi Lee,\n\nVIP early access is open\n\nThis email contains an interactive AMP chat experience in compatible inboxes.",
		rendered.TextBody)
}

func TestRenderChatModuleResolvesAllPlaceholders(t *testing.T) {
	r := NewRenderer(NewEmbeddedSource())

	module, err := r.RenderChatModule(validBrand(), "https://example.com/chat", "tok-9", "convo-1")
	require.NoError(t, err)

	assert.Contains(t, module, "https://example.com/chat")
	assert.Contains(t, module, "tok-9")
	assert.Contains(t, module, "convo-1")
	assert.Contains(t, module, "Chat with Acme")
}

func TestReplaceTokensReportsEveryUnresolvedKey(t *testing.T) {
	_, err := replaceTokens("__ALPHA__ and __BETA__ and __ALPHA__", map[string]string{"GAMMA": "x"})
	require.ErrorIs(t, err, ErrUnresolvedTokens)
	assert.Contains(t, err.Error(), "__ALPHA__")
	assert.Contains(t, err.Error(), "__BETA__")
}

func TestDirSourceLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "custom.html", "hello __NAME__")

	src := NewDirSource(dir)
	text, err := src.Load("custom.html")
	require.NoError(t, err)
	assert.Equal(t, "hello __NAME__", text)

	// Second load must be served from cache.
	writeTemplate(t, dir, "custom.html", "changed")
	text, err = src.Load("custom.html")
	require.NoError(t, err)
	assert.Equal(t, "hello __NAME__", text)

	_, err = src.Load("absent.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
