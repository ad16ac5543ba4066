// Package template renders branded AMP, HTML fallback, and plain-text email
// variants by literal substitution of __UPPER_SNAKE_CASE__ markers. Rendering
// is all-or-nothing: any unresolved marker left in an output document fails
// the whole render, because AMP email validators reject documents containing
// stray template syntax.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ampline/ampline/internal/model"
)

// Template file names resolved through a Source.
const (
	AMPBaseTemplate      = "amp_campaign_base.html"
	FallbackBaseTemplate = "html_fallback_base.html"
	ChatModuleTemplate   = "amp_chat_module.html"
)

// ChatModuleSlot is the literal marker in the AMP base layout where the chat
// module fragment is injected. AMP email permits a single interactive form
// region per slot, so the module is composed rather than concatenated.
const ChatModuleSlot = "{{CHAT_MODULE_SLOT}}"

var (
	hexColorRe   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	unresolvedRe = regexp.MustCompile(`__[A-Z0-9_]+__`)
)

// Recipient carries the per-recipient fields used during rendering.
type Recipient struct {
	Email     string
	FirstName string
}

// RenderedEmail holds the artifacts produced for one recipient.
type RenderedEmail struct {
	AMPHTML      string
	HTMLFallback string
	TextBody     string
	AMPModule    string
}

// ValidateBrandConfig checks a brand config before any rendering occurs.
// Rendering never re-validates.
func ValidateBrandConfig(cfg *model.BrandConfig) error {
	required := map[string]string{
		"brand_id":          cfg.BrandID,
		"brand_name":        cfg.BrandName,
		"logo_url":          cfg.LogoURL,
		"font_stack":        cfg.FontStack,
		"color_primary":     cfg.ColorPrimary,
		"color_surface":     cfg.ColorSurface,
		"color_text":        cfg.ColorText,
		"color_muted":       cfg.ColorMuted,
		"chat_header_title": cfg.ChatHeaderTitle,
	}
	var missing []string
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingBrandField, strings.Join(missing, ", "))
	}

	colors := map[string]string{
		"color_primary": cfg.ColorPrimary,
		"color_surface": cfg.ColorSurface,
		"color_text":    cfg.ColorText,
		"color_muted":   cfg.ColorMuted,
	}
	for field, value := range colors {
		if !hexColorRe.MatchString(value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidColor, field, value)
		}
	}

	if !strings.HasPrefix(cfg.LogoURL, "https://") && !strings.HasPrefix(cfg.LogoURL, "http://") {
		return fmt.Errorf("%w: logo_url must be absolute http(s): %q", ErrInvalidURL, cfg.LogoURL)
	}
	if cfg.BorderRadiusPx < 0 {
		return fmt.Errorf("%w: border_radius_px must be >= 0", ErrInvalidBrandField)
	}
	if cfg.SpacingScale < 0 {
		return fmt.Errorf("%w: spacing_scale must be >= 0", ErrInvalidBrandField)
	}
	return nil
}

// InjectChatModule merges the rendered chat module into the AMP base layout.
func InjectChatModule(baseTemplate, moduleMarkup string) (string, error) {
	if !strings.Contains(baseTemplate, ChatModuleSlot) {
		return "", ErrMissingSlot
	}
	return strings.Replace(baseTemplate, ChatModuleSlot, moduleMarkup, 1), nil
}

// Renderer produces rendered campaign emails from a template Source.
type Renderer struct {
	src Source
}

// NewRenderer returns a Renderer loading templates from src.
func NewRenderer(src Source) *Renderer { return &Renderer{src: src} }

// RenderChatModule renders the standalone AMP chat module fragment.
func (r *Renderer) RenderChatModule(brand *model.BrandConfig, chatEndpoint, chatToken, convoID string) (string, error) {
	module, err := r.src.Load(ChatModuleTemplate)
	if err != nil {
		return "", err
	}
	return replaceTokens(module, map[string]string{
		"CHAT_ENDPOINT":     chatEndpoint,
		"CHAT_TOKEN":        chatToken,
		"CONVO_ID":          convoID,
		"CHAT_HEADER_TITLE": brand.ChatHeaderTitle,
	})
}

// Render produces the AMP, HTML fallback, and plain-text variants for one
// recipient. Inputs must already be validated via ValidateBrandConfig. Any
// failure aborts the whole render with no partial output.
func (r *Renderer) Render(brand *model.BrandConfig, content model.CampaignContent, rec Recipient, chatEndpoint, chatToken, convoID string) (*RenderedEmail, error) {
	ampBase, err := r.src.Load(AMPBaseTemplate)
	if err != nil {
		return nil, err
	}
	fallbackBase, err := r.src.Load(FallbackBaseTemplate)
	if err != nil {
		return nil, err
	}

	module, err := r.RenderChatModule(brand, chatEndpoint, chatToken, convoID)
	if err != nil {
		return nil, err
	}
	ampWithModule, err := InjectChatModule(ampBase, module)
	if err != nil {
		return nil, err
	}

	content = withContentDefaults(content)
	firstName := rec.FirstName
	if firstName == "" {
		firstName = "there"
	}

	tokens := map[string]string{
		"BRAND_NAME":           brand.BrandName,
		"BRAND_LOGO_URL":       brand.LogoURL,
		"FONT_STACK":           brand.FontStack,
		"COLOR_PRIMARY":        brand.ColorPrimary,
		"COLOR_SURFACE":        brand.ColorSurface,
		"COLOR_TEXT":           brand.ColorText,
		"COLOR_MUTED":          brand.ColorMuted,
		"BORDER_RADIUS_PX":     strconv.Itoa(brand.BorderRadiusPx),
		"SPACING_SCALE":        strconv.Itoa(brand.SpacingScale),
		"CAMPAIGN_SUBJECT":     content.Subject,
		"CAMPAIGN_PREHEADER":   content.Preheader,
		"HERO_EYEBROW":         content.HeroEyebrow,
		"HERO_HEADLINE":        content.HeroHeadline,
		"HERO_BODY":            content.HeroBody,
		"OFFER_BADGE":          content.OfferBadge,
		"CTA_LABEL":            content.CTALabel,
		"FEATURE_1":            content.Feature1,
		"FEATURE_2":            content.Feature2,
		"FEATURE_3":            content.Feature3,
		"RECIPIENT_FIRST_NAME": firstName,
	}

	ampHTML, err := replaceTokens(ampWithModule, tokens)
	if err != nil {
		return nil, err
	}
	htmlFallback, err := replaceTokens(fallbackBase, tokens)
	if err != nil {
		return nil, err
	}

	// The plain-text variant has no placeholders and never goes through the
	// substitution pass.
	textBody := fmt.Sprintf(
		"Hi %s,\n\n%s\n\nThis email contains an interactive AMP chat experience in compatible inboxes.",
		firstName, content.Subject,
	)

	return &RenderedEmail{
		AMPHTML:      ampHTML,
		HTMLFallback: htmlFallback,
		TextBody:     textBody,
		AMPModule:    module,
	}, nil
}

// withContentDefaults fills empty campaign content fields so the email never
// renders with a visibly blank section.
func withContentDefaults(c model.CampaignContent) model.CampaignContent {
	if c.Subject == "" {
		c.Subject = "Campaign update"
	}
	if c.Preheader == "" {
		c.Preheader = "This campaign includes an interactive AI chat experience in AMP-capable inboxes."
	}
	if c.HeroEyebrow == "" {
		c.HeroEyebrow = "Featured Campaign"
	}
	if c.HeroHeadline == "" {
		c.HeroHeadline = c.Subject
	}
	if c.HeroBody == "" {
		c.HeroBody = "we picked these highlights for you and can answer questions instantly in your inbox."
	}
	if c.OfferBadge == "" {
		c.OfferBadge = "Featured"
	}
	if c.CTALabel == "" {
		c.CTALabel = "Explore Now"
	}
	if c.Feature1 == "" {
		c.Feature1 = "Curated picks tailored for this campaign"
	}
	if c.Feature2 == "" {
		c.Feature2 = "Fast answers from an embedded AI product rep"
	}
	if c.Feature3 == "" {
		c.Feature3 = "Simple in-email support for purchase questions"
	}
	return c
}

// replaceTokens applies one literal replacement pass per key, then scans for
// anything still matching the placeholder pattern. Keys are disjoint
// exact-match markers so replacement order does not matter.
func replaceTokens(tmpl string, mapping map[string]string) (string, error) {
	result := tmpl
	for key, value := range mapping {
		result = strings.ReplaceAll(result, "__"+key+"__", value)
	}

	if leftover := unresolvedRe.FindAllString(result, -1); len(leftover) > 0 {
		seen := make(map[string]struct{}, len(leftover))
		var unique []string
		for _, tok := range leftover {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				unique = append(unique, tok)
			}
		}
		sort.Strings(unique)
		return "", fmt.Errorf("%w: %s", ErrUnresolvedTokens, strings.Join(unique, ", "))
	}
	return result, nil
}
