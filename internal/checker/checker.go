package checker

import (
	"context"
	"time"

	"pricedrop/priceworker/internal/fetcher"
	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/internal/price"
	"pricedrop/priceworker/internal/selector"
	"pricedrop/priceworker/logger"
	"pricedrop/priceworker/services/store"
)

// AlertGate evaluates a detected drop against the owner's threshold.
// Evaluate never fails: alerting is best-effort and must not undo the price
// update already committed.
type AlertGate interface {
	Evaluate(ctx context.Context, product model.Product, oldPrice, newPrice float64)
}

// Result describes the outcome of one product check
type Result struct {
	// Price is the parsed price, valid only when Found is true
	Price float64
	Found bool
	// Changed is true when the price differed from the stored current price
	Changed bool
	// Dropped is true when the new price was lower than the stored one
	Dropped bool
}

// Checker runs one product's check cycle: fetch, parse, compare, persist,
// maybe alert.
type Checker struct {
	fetcher fetcher.Fetcher
	rules   *selector.Registry
	store   store.Gateway
	alerts  AlertGate
	log     *logger.Logger
	now     func() time.Time
}

// New creates a product checker
func New(f fetcher.Fetcher, rules *selector.Registry, gw store.Gateway, alerts AlertGate) *Checker {
	return &Checker{
		fetcher: f,
		rules:   rules,
		store:   gw,
		alerts:  alerts,
		log:     logger.ForChecker(),
		now:     time.Now,
	}
}

// Check checks a single product.
//
// Fetch and parse failures are checked-but-errored outcomes: last_checked_at
// still advances so a flaky product cannot stay perpetually overdue, and the
// error is returned as data. Only persistence failures are fatal to the
// caller (CheckError.IsFatal).
func (c *Checker) Check(ctx context.Context, p model.Product) (Result, error) {
	checkedAt := c.now()

	rules, err := c.rules.RulesFor(p.Platform)
	if err != nil {
		return c.checkedWithError(ctx, p, checkedAt, err)
	}

	raw, err := c.fetcher.FetchPriceText(ctx, p.URL, p.Platform, rules)
	if err != nil {
		return c.checkedWithError(ctx, p, checkedAt, err)
	}

	newPrice, err := price.Parse(raw)
	if err != nil {
		return c.checkedWithError(ctx, p, checkedAt, err)
	}

	if newPrice == p.CurrentPrice {
		if err := c.store.TouchLastChecked(ctx, p.ID, checkedAt); err != nil {
			return Result{}, err
		}
		return Result{Price: newPrice, Found: true}, nil
	}

	c.log.Info().
		Str("product_id", p.ID.String()).
		Float64("old_price", p.CurrentPrice).
		Float64("new_price", newPrice).
		Msg("Price changed")

	if err := c.store.CommitPriceUpdate(ctx, p.ID, newPrice, checkedAt); err != nil {
		return Result{}, err
	}

	dropped := newPrice < p.CurrentPrice
	if dropped {
		c.alerts.Evaluate(ctx, p, p.CurrentPrice, newPrice)
	}

	return Result{Price: newPrice, Found: true, Changed: true, Dropped: dropped}, nil
}

// checkedWithError advances last_checked_at and reports the original error.
// A failing touch outranks it: that is a persistence failure and fatal.
func (c *Checker) checkedWithError(ctx context.Context, p model.Product, checkedAt time.Time, checkErr error) (Result, error) {
	c.log.Warn().
		Str("product_id", p.ID.String()).
		Str("platform", p.Platform).
		Err(checkErr).
		Msg("Product check failed")

	if err := c.store.TouchLastChecked(ctx, p.ID, checkedAt); err != nil {
		return Result{}, err
	}
	return Result{}, checkErr
}
