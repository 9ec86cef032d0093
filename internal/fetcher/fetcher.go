package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricedrop/priceworker/internal/selector"
	apperr "pricedrop/priceworker/pkg/errors"
)

// Fetcher returns the raw price text for a product page: the text of the
// first candidate rule that matches a non-empty element, or an error.
type Fetcher interface {
	FetchPriceText(ctx context.Context, pageURL, platform string, rules []selector.Rule) (string, error)
}

// firstMatch parses the markup and walks the rules in order, returning the
// text of the first rule that yields a non-empty element.
func firstMatch(platform string, body io.Reader, rules []selector.Rule) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", apperr.NewParse(platform, "failed to parse HTML: "+err.Error())
	}

	for _, rule := range rules {
		text := strings.TrimSpace(doc.Find(string(rule)).First().Text())
		if text != "" {
			return text, nil
		}
	}

	return "", apperr.NewNoPrice(platform, "no selector rule matched a price")
}
