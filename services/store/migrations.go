package store

import (
	"context"

	apperr "pricedrop/priceworker/pkg/errors"
)

// schema covers the tables owned by the monitoring engine. users and
// user_preferences belong to the accounts subsystem and are only read here.
// History and alert rows cascade-delete with their product: once a user
// stops tracking, nothing references them.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id         UUID NOT NULL,
	title           TEXT NOT NULL,
	url             TEXT NOT NULL,
	store           TEXT,
	platform        TEXT NOT NULL,
	image_url       TEXT,
	initial_price   NUMERIC(10,2) NOT NULL,
	current_price   NUMERIC(10,2) NOT NULL,
	lowest_price    NUMERIC(10,2) NOT NULL,
	last_checked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT lowest_not_above_current CHECK (lowest_price <= current_price)
);

CREATE INDEX IF NOT EXISTS idx_products_last_checked
	ON products (last_checked_at);

CREATE TABLE IF NOT EXISTS price_history (
	id          BIGSERIAL PRIMARY KEY,
	product_id  UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	price       NUMERIC(10,2) NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_history_product
	ON price_history (product_id, recorded_at);

CREATE TABLE IF NOT EXISTS price_alerts (
	id         BIGSERIAL PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL,
	old_price  NUMERIC(10,2) NOT NULL,
	new_price  NUMERIC(10,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the engine-owned tables if they do not exist
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return apperr.NewPersistence("failed to run migrations", err)
	}
	return nil
}
