package publisher

import (
	"context"

	"pricedrop/priceworker/internal/model"
)

// Publisher fans recorded price drops out to downstream consumers
type Publisher interface {
	// PublishDrop publishes a price drop event
	PublishDrop(ctx context.Context, event model.PriceDropEvent) error

	// Close closes the publisher connection
	Close() error
}
