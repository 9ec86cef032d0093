package fetcher

import (
	"bytes"
	"context"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/net/html/charset"

	"pricedrop/priceworker/internal/selector"
	"pricedrop/priceworker/logger"
	apperr "pricedrop/priceworker/pkg/errors"
	"pricedrop/priceworker/services/cache"
)

// Browser-like header pools, rotated per request
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// StaticFetcher fetches a page with a single HTTP GET and searches the
// returned markup. Hosts that answered with a rate-limit status are kept in
// backoff and fail fast until the entry expires.
type StaticFetcher struct {
	client  *http.Client
	backoff cache.BackoffCache
	block   time.Duration
	log     *logger.Logger
}

// StaticConfig holds the tunables for the static strategy
type StaticConfig struct {
	Timeout       time.Duration
	RedirectLimit int
	HostBackoff   time.Duration
}

// NewStaticFetcher creates a static fetcher. backoff may be nil, which
// disables host backoff tracking.
func NewStaticFetcher(cfg StaticConfig, backoff cache.BackoffCache) *StaticFetcher {
	redirectLimit := cfg.RedirectLimit
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= redirectLimit {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return &StaticFetcher{
		client:  client,
		backoff: backoff,
		block:   cfg.HostBackoff,
		log:     logger.ForFetcher("static"),
	}
}

// FetchPriceText issues the GET and walks the rules against the markup
func (f *StaticFetcher) FetchPriceText(ctx context.Context, pageURL, platform string, rules []selector.Rule) (string, error) {
	host := hostOf(pageURL)

	if f.backoff != nil && host != "" && f.backoff.InBackoff(host) {
		return "", apperr.NewRateLimit(platform, f.block)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", apperr.NewNetwork(platform, "failed to create request", err)
	}

	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperr.NewNetwork(platform, "failed to fetch "+pageURL, err)
	}
	defer resp.Body.Close()

	// 430 is a non-standard "blocked" status some storefronts use
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		if f.backoff != nil && host != "" {
			if setErr := f.backoff.SetBackoff(host, f.block); setErr != nil {
				f.log.Warn().Err(setErr).Str("host", host).Msg("Failed to record host backoff")
			}
		}
		return "", apperr.NewRateLimit(platform, f.block)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.NewNetwork(platform, "unexpected status "+resp.Status+" for "+pageURL, nil)
	}

	body, err := normalizeUTF8(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", apperr.NewNetwork(platform, "failed to read response body", err)
	}

	return firstMatch(platform, body, rules)
}

// normalizeUTF8 converts the response body to UTF-8 when it is not already
func normalizeUTF8(body io.Reader, contentType string) (io.Reader, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	encoding, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(raw), nil
	}

	decoded := encoding.NewDecoder().Reader(bytes.NewReader(raw))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoded); err != nil {
		return nil, err
	}
	return &buf, nil
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}
