package alert

import (
	"context"

	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/logger"
	"pricedrop/priceworker/services/notifier"
	"pricedrop/priceworker/services/publisher"
	"pricedrop/priceworker/services/store"
)

// Gate decides whether a detected price drop becomes an alert. All internal
// failures are logged and swallowed: the price update is already committed
// and a failed notification must not roll it back.
type Gate struct {
	store    store.Gateway
	notifier notifier.Notifier
	events   publisher.Publisher
	log      *logger.Logger
}

// NewGate creates an alert gate. events may be nil to disable drop-event
// publishing.
func NewGate(gw store.Gateway, n notifier.Notifier, events publisher.Publisher) *Gate {
	return &Gate{
		store:    gw,
		notifier: n,
		events:   events,
		log:      logger.ForAlerts(),
	}
}

// Evaluate compares the drop against the owning user's threshold, records a
// PriceAlert when it qualifies, and dispatches notifications.
func (g *Gate) Evaluate(ctx context.Context, product model.Product, oldPrice, newPrice float64) {
	dropPercent := (oldPrice - newPrice) / oldPrice * 100

	pref, err := g.store.GetUserPreference(ctx, product.UserID)
	if err != nil {
		g.log.Error().Err(err).
			Str("product_id", product.ID.String()).
			Msg("Failed to load user preference")
		return
	}
	if pref == nil {
		// No preference row: suppress silently
		return
	}

	if dropPercent < pref.NotificationThreshold {
		g.log.Debug().
			Str("product_id", product.ID.String()).
			Float64("drop_percent", dropPercent).
			Float64("threshold", pref.NotificationThreshold).
			Msg("Drop below notification threshold")
		return
	}

	if err := g.store.InsertPriceAlert(ctx, product.ID, product.UserID, oldPrice, newPrice); err != nil {
		g.log.Error().Err(err).
			Str("product_id", product.ID.String()).
			Msg("Failed to record price alert")
		return
	}

	event := model.PriceDropEvent{
		ProductID:   product.ID,
		Title:       product.Title,
		URL:         product.URL,
		ImageURL:    product.ImageURL,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		DropPercent: dropPercent,
	}

	if g.events != nil {
		if err := g.events.PublishDrop(ctx, event); err != nil {
			g.log.Error().Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to publish drop event")
		}
	}

	if pref.EmailNotifications {
		if err := g.notifier.SendPriceDrop(pref.Email, event); err != nil {
			g.log.Error().Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to send price drop email")
			return
		}
		g.log.Info().
			Str("product_id", product.ID.String()).
			Float64("drop_percent", dropPercent).
			Msg("Price drop alert sent")
	}
}
