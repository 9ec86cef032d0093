package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricedrop/priceworker/internal/model"
	apperr "pricedrop/priceworker/pkg/errors"
)

// Postgres implements Gateway over a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperr.NewPersistence("failed to create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.NewPersistence("failed to ping database", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool
func (s *Postgres) Close() {
	s.pool.Close()
}

const productColumns = `id, user_id, title, url, COALESCE(store, ''), platform,
	COALESCE(image_url, ''), initial_price, current_price, lowest_price,
	last_checked_at, created_at, updated_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.URL, &p.Store, &p.Platform,
		&p.ImageURL, &p.InitialPrice, &p.CurrentPrice, &p.LowestPrice,
		&p.LastCheckedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetDueProducts returns products not checked within interval, oldest first
func (s *Postgres) GetDueProducts(ctx context.Context, interval time.Duration, limit int) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE last_checked_at < now() - $1::interval
		 ORDER BY last_checked_at ASC
		 LIMIT $2`,
		interval, limit,
	)
	if err != nil {
		return nil, apperr.NewPersistence("failed to query due products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.NewPersistence("failed to scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewPersistence("failed to read due products", err)
	}
	return products, nil
}

// GetUserPreference returns the user's preference row, nil when absent
func (s *Postgres) GetUserPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := s.pool.QueryRow(ctx,
		`SELECT up.user_id, u.email, up.email_notifications,
		        up.notification_threshold, up.check_frequency
		 FROM user_preferences up
		 JOIN users u ON u.id = up.user_id
		 WHERE up.user_id = $1`,
		userID,
	).Scan(&pref.UserID, &pref.Email, &pref.EmailNotifications,
		&pref.NotificationThreshold, &pref.CheckFrequency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("failed to query user preference", err)
	}
	return &pref, nil
}

// CommitPriceUpdate updates the product and appends history in one transaction
func (s *Postgres) CommitPriceUpdate(ctx context.Context, productID uuid.UUID, newPrice float64, checkedAt time.Time) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE products
			 SET current_price = $1,
			     lowest_price = LEAST(lowest_price, $1),
			     last_checked_at = $2,
			     updated_at = now()
			 WHERE id = $3`,
			newPrice, checkedAt, productID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO price_history (product_id, price, recorded_at)
			 VALUES ($1, $2, $3)`,
			productID, newPrice, checkedAt,
		)
		return err
	})
	if err != nil {
		return apperr.NewPersistence("failed to commit price update", err)
	}
	return nil
}

// TouchLastChecked advances last_checked_at only
func (s *Postgres) TouchLastChecked(ctx context.Context, productID uuid.UUID, checkedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE products SET last_checked_at = $1 WHERE id = $2`,
		checkedAt, productID,
	)
	if err != nil {
		return apperr.NewPersistence("failed to touch last_checked_at", err)
	}
	return nil
}

// AppendPriceHistory appends a price observation
func (s *Postgres) AppendPriceHistory(ctx context.Context, productID uuid.UUID, price float64, recordedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_history (product_id, price, recorded_at)
		 VALUES ($1, $2, $3)`,
		productID, price, recordedAt,
	)
	if err != nil {
		return apperr.NewPersistence("failed to append price history", err)
	}
	return nil
}

// InsertPriceAlert records a threshold-meeting drop
func (s *Postgres) InsertPriceAlert(ctx context.Context, productID, userID uuid.UUID, oldPrice, newPrice float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_alerts (product_id, user_id, old_price, new_price)
		 VALUES ($1, $2, $3, $4)`,
		productID, userID, oldPrice, newPrice,
	)
	if err != nil {
		return apperr.NewPersistence("failed to insert price alert", err)
	}
	return nil
}

// TrackParams describes a new product to track. URL is expected to be
// affiliate-decorated already; decoration happens once at track time.
type TrackParams struct {
	UserID   uuid.UUID
	Title    string
	URL      string
	Store    string
	Platform string
	ImageURL string
	Price    float64
}

// TrackProduct inserts a new product and its initial history entry in one
// transaction. initial, current and lowest price all start at the tracked
// price.
func (s *Postgres) TrackProduct(ctx context.Context, params TrackParams) (*model.Product, error) {
	var product model.Product
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO products (
			   user_id, title, url, store, platform, image_url,
			   initial_price, current_price, lowest_price
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)
			 RETURNING `+productColumns,
			params.UserID, params.Title, params.URL, params.Store,
			params.Platform, params.ImageURL, params.Price,
		)
		p, err := scanProduct(row)
		if err != nil {
			return err
		}
		product = p

		_, err = tx.Exec(ctx,
			`INSERT INTO price_history (product_id, price) VALUES ($1, $2)`,
			product.ID, params.Price,
		)
		return err
	})
	if err != nil {
		return nil, apperr.NewPersistence("failed to track product", err)
	}
	return &product, nil
}

// DeleteProduct removes a tracked product. History and alert rows cascade
// with it (schema policy).
func (s *Postgres) DeleteProduct(ctx context.Context, productID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM products WHERE id = $1 AND user_id = $2`,
		productID, userID,
	)
	if err != nil {
		return apperr.NewPersistence("failed to delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewPersistence("product not found", pgx.ErrNoRows)
	}
	return nil
}

// PruneHistory deletes price history entries older than the retention window
// and returns the number of rows removed.
func (s *Postgres) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM price_history WHERE recorded_at < now() - $1::interval`,
		retention,
	)
	if err != nil {
		return 0, apperr.NewPersistence("failed to prune price history", err)
	}
	return tag.RowsAffected(), nil
}
