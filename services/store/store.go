package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pricedrop/priceworker/internal/model"
)

// Gateway is the persistence surface consumed by the monitoring engine.
// Any failure here is batch-fatal for the caller: if the store cannot be
// read or written, no progress is possible.
type Gateway interface {
	// GetDueProducts returns products whose last_checked_at is older than
	// interval, oldest first, capped at limit.
	GetDueProducts(ctx context.Context, interval time.Duration, limit int) ([]model.Product, error)

	// GetUserPreference returns the user's notification preference joined
	// with their email address, or nil if no preference row exists.
	GetUserPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error)

	// CommitPriceUpdate atomically sets current_price, folds newPrice into
	// lowest_price, advances last_checked_at, and appends a price history
	// entry. A crash cannot leave the product updated without its history
	// row or vice versa.
	CommitPriceUpdate(ctx context.Context, productID uuid.UUID, newPrice float64, checkedAt time.Time) error

	// TouchLastChecked advances last_checked_at only, used on unchanged
	// prices and on per-product check failures.
	TouchLastChecked(ctx context.Context, productID uuid.UUID, checkedAt time.Time) error

	// AppendPriceHistory appends a price observation outside the checking
	// path (the initial tracking price).
	AppendPriceHistory(ctx context.Context, productID uuid.UUID, price float64, recordedAt time.Time) error

	// InsertPriceAlert records a threshold-meeting drop for audit.
	InsertPriceAlert(ctx context.Context, productID, userID uuid.UUID, oldPrice, newPrice float64) error
}
