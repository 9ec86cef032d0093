package notifier

import (
	"pricedrop/priceworker/internal/model"
)

// Notifier delivers price drop notifications. Delivery is best-effort;
// callers log failures and move on.
type Notifier interface {
	// SendPriceDrop sends a price drop notification to the given address
	SendPriceDrop(toAddress string, event model.PriceDropEvent) error
}
