package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"pricedrop/priceworker/internal/selector"
	"pricedrop/priceworker/logger"
	apperr "pricedrop/priceworker/pkg/errors"
)

// RenderFetcher fetches pages through a browserless-style rendering service:
// the service navigates an isolated browser context to the URL, waits for
// the DOM plus a grace delay for script-driven prices, and returns the
// rendered markup. The browser context lives server-side per request, so it
// is released even when this process gives up on the response.
type RenderFetcher struct {
	addr       string
	client     *http.Client
	navTimeout time.Duration
	grace      time.Duration
	log        *logger.Logger
}

// RenderConfig holds the tunables for the rendering strategy
type RenderConfig struct {
	Addr       string
	NavTimeout time.Duration
	GraceDelay time.Duration
}

// NewRenderFetcher creates a rendering fetcher against the given service
// address.
func NewRenderFetcher(cfg RenderConfig) *RenderFetcher {
	// The HTTP timeout has to outlive navigation plus the grace delay
	clientTimeout := cfg.NavTimeout + cfg.GraceDelay + 10*time.Second
	return &RenderFetcher{
		addr:       strings.TrimRight(cfg.Addr, "/"),
		client:     &http.Client{Timeout: clientTimeout},
		navTimeout: cfg.NavTimeout,
		grace:      cfg.GraceDelay,
		log:        logger.ForFetcher("render"),
	}
}

type renderRequest struct {
	URL         string      `json:"url"`
	GotoOptions gotoOptions `json:"gotoOptions"`
	WaitForMs   int         `json:"waitForTimeout,omitempty"`
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	TimeoutMs int    `json:"timeout"`
}

// FetchPriceText renders the page and walks the rules against the markup
func (f *RenderFetcher) FetchPriceText(ctx context.Context, pageURL, platform string, rules []selector.Rule) (string, error) {
	payload := renderRequest{
		URL: pageURL,
		GotoOptions: gotoOptions{
			WaitUntil: "domcontentloaded",
			TimeoutMs: int(f.navTimeout.Milliseconds()),
		},
		WaitForMs: int(f.grace.Milliseconds()),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.NewRender(platform, "failed to marshal render request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.addr+"/content", bytes.NewReader(data))
	if err != nil {
		return "", apperr.NewRender(platform, "failed to create render request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperr.NewRender(platform, "render service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.NewRender(platform, "render service returned "+resp.Status, nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.NewRender(platform, "failed to read rendered markup", err)
	}

	markup := strings.ToLower(string(raw))
	if !strings.Contains(markup, "<html") && !strings.Contains(markup, "<body") {
		return "", apperr.NewRender(platform, "render service returned non-HTML content", nil)
	}

	return firstMatch(platform, bytes.NewReader(raw), rules)
}
