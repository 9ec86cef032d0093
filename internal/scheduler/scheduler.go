package scheduler

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pricedrop/priceworker/internal/checker"
	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/logger"
	apperr "pricedrop/priceworker/pkg/errors"
	"pricedrop/priceworker/services/store"
)

// ProductChecker checks a single product
type ProductChecker interface {
	Check(ctx context.Context, p model.Product) (checker.Result, error)
}

// Stats aggregates the outcome of one batch run. Checked counts every
// product attempted, not only successes.
type Stats struct {
	Checked int
	Errors  int
}

// Options configures a Scheduler
type Options struct {
	// CheckInterval decides which products are due
	CheckInterval time.Duration
	// BatchLimit caps the products per run
	BatchLimit int
	// Concurrency is the worker count; the shared limiter still governs the
	// aggregate request rate
	Concurrency int
	// PacingMin and PacingMax bound the randomized delay after each check
	PacingMin time.Duration
	PacingMax time.Duration
}

// Scheduler selects due products and runs checks over a bounded worker pool.
// A single token bucket paces requests across all workers so raising the
// concurrency does not raise the aggregate request rate against target
// sites.
type Scheduler struct {
	store   store.Gateway
	checker ProductChecker
	opts    Options
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates a Scheduler
func New(gw store.Gateway, pc ProductChecker, opts Options) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	// One request per minimum pacing interval, shared by all workers
	limit := rate.Every(opts.PacingMin)
	if opts.PacingMin <= 0 {
		limit = rate.Inf
	}
	return &Scheduler{
		store:   gw,
		checker: pc,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.ForScheduler(),
	}
}

// RunBatch selects due products, oldest last_checked_at first, and checks
// them. Per-product errors are counted and do not stop the batch; a
// persistence failure aborts the run. Cancelling ctx stops dispatching new
// checks, while in-flight fetches resolve through their own timeouts.
func (s *Scheduler) RunBatch(ctx context.Context) (Stats, error) {
	start := time.Now()

	products, err := s.store.GetDueProducts(ctx, s.opts.CheckInterval, s.opts.BatchLimit)
	if err != nil {
		return Stats{}, err
	}

	s.log.Info().
		Int("due", len(products)).
		Int("limit", s.opts.BatchLimit).
		Msg("Batch check started")

	var (
		mu    sync.Mutex
		stats Stats
		fatal error
	)

	jobs := make(chan model.Product)
	var wg sync.WaitGroup

	for i := 0; i < s.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if err := s.limiter.Wait(ctx); err != nil {
					// Cancelled while pacing; the product was never attempted
					continue
				}

				// In-flight fetches run to their own timeouts after a
				// cancellation, so the check is detached from batch ctx.
				_, err := s.checker.Check(context.WithoutCancel(ctx), p)

				mu.Lock()
				stats.Checked++
				if err != nil {
					stats.Errors++
					if apperr.IsFatal(err) && fatal == nil {
						fatal = err
					}
				}
				mu.Unlock()

				s.pause(ctx)
			}
		}()
	}

dispatch:
	for _, p := range products {
		mu.Lock()
		abort := fatal != nil
		mu.Unlock()
		if abort {
			break
		}

		select {
		case <-ctx.Done():
			s.log.Warn().Msg("Batch cancelled, no further checks dispatched")
			break dispatch
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		s.log.Error().Err(fatal).Msg("Batch aborted on persistence failure")
		return stats, fatal
	}

	s.log.Info().
		Int("checked", stats.Checked).
		Int("errors", stats.Errors).
		Dur("elapsed", time.Since(start)).
		Msg("Batch check complete")

	return stats, nil
}

// pause sleeps for a uniformly random politeness delay, returning early on
// cancellation.
func (s *Scheduler) pause(ctx context.Context) {
	if s.opts.PacingMax <= 0 {
		return
	}
	delay := s.opts.PacingMin
	if spread := s.opts.PacingMax - s.opts.PacingMin; spread > 0 {
		delay += time.Duration(mathrand.Int63n(int64(spread)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
