package selector

import (
	"fmt"

	"pricedrop/priceworker/logger"
)

// Rule is a single CSS price-locator rule. Rules for a platform are tried in
// order; the first rule whose element yields non-empty text wins.
type Rule string

// Registry maps platform tags to their ordered price-locator rules.
type Registry struct {
	platforms       map[string][]Rule
	defaultPlatform string
	allowFallback   bool
	log             *logger.Logger
}

// defaultRules mirrors the selector sets used by the tracking extension, so
// the worker and the extension locate the same price element.
var defaultRules = map[string][]Rule{
	"amazon": {
		".a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price-whole",
	},
	"ebay": {
		".x-price-primary .ux-textspans",
		"#prcIsum",
	},
	"walmart": {
		"[itemprop=\"price\"]",
		".price-characteristic",
	},
	"target": {
		"[data-test=\"product-price\"]",
	},
	"bestbuy": {
		".priceView-customer-price span",
	},
}

// NewRegistry creates a registry with the built-in platform rules.
// defaultPlatform must be one of the known platforms; unknown platforms
// resolve to its rules when allowFallback is set, and fail otherwise.
func NewRegistry(defaultPlatform string, allowFallback bool) (*Registry, error) {
	if _, ok := defaultRules[defaultPlatform]; !ok {
		return nil, fmt.Errorf("default platform %q has no selector rules", defaultPlatform)
	}
	return &Registry{
		platforms:       defaultRules,
		defaultPlatform: defaultPlatform,
		allowFallback:   allowFallback,
		log:             logger.ForChecker(),
	}, nil
}

// RulesFor returns the ordered rules for platform. An unknown platform
// resolves to the default platform's rules when fallback is allowed; every
// fallback resolution is logged as a warning.
func (r *Registry) RulesFor(platform string) ([]Rule, error) {
	if rules, ok := r.platforms[platform]; ok {
		return rules, nil
	}
	if !r.allowFallback {
		return nil, fmt.Errorf("no selector rules for platform %q", platform)
	}
	r.log.Warn().
		Str("platform", platform).
		Str("fallback", r.defaultPlatform).
		Msg("Unknown platform, falling back to default platform rules")
	return r.platforms[r.defaultPlatform], nil
}

// Known reports whether platform has its own rule set.
func (r *Registry) Known(platform string) bool {
	_, ok := r.platforms[platform]
	return ok
}

// Platforms returns the known platform tags.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	return names
}
