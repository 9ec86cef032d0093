package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a tracked product. Price and timestamp fields are mutated only
// by the checking path; lowest_price never increases.
type Product struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Store         string    `json:"store,omitempty"`
	Platform      string    `json:"platform"`
	ImageURL      string    `json:"image_url,omitempty"`
	InitialPrice  float64   `json:"initial_price"`
	CurrentPrice  float64   `json:"current_price"`
	LowestPrice   float64   `json:"lowest_price"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PriceHistoryEntry is one append-only price observation.
type PriceHistoryEntry struct {
	ID         int64     `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PriceAlert records a threshold-meeting price drop. Immutable once written.
type PriceAlert struct {
	ID        int64     `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPreference is read-only from the engine's perspective; it is owned by
// the preferences subsystem. Email is joined in for notification dispatch.
type UserPreference struct {
	UserID                uuid.UUID `json:"user_id"`
	Email                 string    `json:"email"`
	EmailNotifications    bool      `json:"email_notifications"`
	NotificationThreshold float64   `json:"notification_threshold"`
	CheckFrequency        string    `json:"check_frequency"`
}

// PriceDropEvent is the payload published to the drop stream and handed to
// the mail notifier. Prices are preformatted the way the templates expect.
type PriceDropEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	DropPercent float64   `json:"drop_percent"`
}
