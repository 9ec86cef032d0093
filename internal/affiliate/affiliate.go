package affiliate

import (
	"net/url"
)

// Decorator adds affiliate parameters to product URLs at track time. It is
// a pure URL transform: decorated once when tracking starts, never during
// checking.
type Decorator struct {
	AmazonAssociateTag string
	EbayCampaignID     string
	WalmartPublisherID string
}

// eBay Partner Network rotation id for US web placements
const ebayRotationID = "711-53200-19255-0"

// Decorate applies platform-specific affiliate parameters to rawURL.
// Unsupported platforms, unparsable URLs, and missing credentials all return
// the URL unchanged.
func (d Decorator) Decorate(rawURL, platform string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	switch platform {
	case "amazon":
		if d.AmazonAssociateTag == "" {
			return rawURL
		}
		q.Set("tag", d.AmazonAssociateTag)
	case "ebay":
		if d.EbayCampaignID == "" {
			return rawURL
		}
		q.Set("mkcid", "1")
		q.Set("mkrid", ebayRotationID)
		q.Set("campid", d.EbayCampaignID)
	case "walmart":
		if d.WalmartPublisherID == "" {
			return rawURL
		}
		q.Set("wmlspartner", d.WalmartPublisherID)
	default:
		return rawURL
	}

	u.RawQuery = q.Encode()
	return u.String()
}
