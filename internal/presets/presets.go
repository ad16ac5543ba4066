// Package presets ships ready-made campaign content bundles so a campaign can
// be created and sent without authoring all nine content fields by hand.
package presets

import (
	"fmt"
	"sort"

	"github.com/ampline/ampline/internal/model"
)

// ErrUnknownPreset is wrapped with the requested preset name.
var ErrUnknownPreset = fmt.Errorf("unknown preset")

var catalog = map[string]model.CampaignContent{
	"spring_drop": {
		Subject:      "The spring drop is live",
		Preheader:    "New-season styles, picked for you",
		HeroEyebrow:  "NEW SEASON",
		HeroHeadline: "Spring has landed",
		HeroBody:     "Fresh colors, lighter layers, and the pieces our stylists keep reaching for. Chat with us right here to find your size.",
		OfferBadge:   "FREE SHIPPING",
		CTALabel:     "Shop the drop",
		Feature1:     "New arrivals across every category",
		Feature2:     "Free shipping on orders over $50",
		Feature3:     "Easy 30-day returns",
	},
	"vip_launch": {
		Subject:      "You're in: VIP early access",
		Preheader:    "Shop the launch 48 hours before everyone else",
		HeroEyebrow:  "VIP EARLY ACCESS",
		HeroHeadline: "The launch, before the line",
		HeroBody:     "As one of our best customers you get first pick. Ask the assistant below anything about fit, fabric, or delivery.",
		OfferBadge:   "48H EARLY ACCESS",
		CTALabel:     "Get early access",
		Feature1:     "Members-only pricing on launch day",
		Feature2:     "Reserved stock for VIPs",
		Feature3:     "Priority delivery at no charge",
	},
	"clearance_event": {
		Subject:      "Final hours: up to 60% off",
		Preheader:    "Clearance ends tonight at midnight",
		HeroEyebrow:  "CLEARANCE",
		HeroHeadline: "Everything must go",
		HeroBody:     "Last call on this season's stock. Sizes are going fast, so ask us below to check availability before you click through.",
		OfferBadge:   "UP TO 60% OFF",
		CTALabel:     "Shop clearance",
		Feature1:     "Up to 60% off sitewide",
		Feature2:     "No code needed at checkout",
		Feature3:     "Ends tonight at midnight",
	},
}

// Get returns a copy of the named preset.
func Get(name string) (model.CampaignContent, error) {
	c, ok := catalog[name]
	if !ok {
		return model.CampaignContent{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return c, nil
}

// List returns the available preset names, sorted.
func List() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
