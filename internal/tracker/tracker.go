package tracker

import (
	"context"

	"github.com/google/uuid"

	"pricedrop/priceworker/internal/affiliate"
	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/services/store"
)

// productStore is the slice of the persistence gateway used for tracking
type productStore interface {
	TrackProduct(ctx context.Context, params store.TrackParams) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID, userID uuid.UUID) error
}

// Request describes a product a user wants to start tracking. URL is the
// raw product page URL; affiliate decoration happens here, once.
type Request struct {
	UserID   uuid.UUID
	Title    string
	URL      string
	Store    string
	Platform string
	ImageURL string
	Price    float64
}

// Tracker starts and stops tracking products. Checking never touches the
// decorator again; the stored URL is already decorated.
type Tracker struct {
	store productStore
	deco  affiliate.Decorator
}

// New creates a Tracker
func New(s productStore, deco affiliate.Decorator) *Tracker {
	return &Tracker{store: s, deco: deco}
}

// Track decorates the product URL and inserts the product with its initial
// price observation.
func (t *Tracker) Track(ctx context.Context, req Request) (*model.Product, error) {
	return t.store.TrackProduct(ctx, store.TrackParams{
		UserID:   req.UserID,
		Title:    req.Title,
		URL:      t.deco.Decorate(req.URL, req.Platform),
		Store:    req.Store,
		Platform: req.Platform,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
}

// Untrack removes a tracked product along with its history and alerts
func (t *Tracker) Untrack(ctx context.Context, productID, userID uuid.UUID) error {
	return t.store.DeleteProduct(ctx, productID, userID)
}
