package checker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/internal/selector"
	"pricedrop/priceworker/services/store"
)

// mockGateway implements store.Gateway in memory, mirroring the LEAST()
// folding the real store performs on commit.
type mockGateway struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	history  map[uuid.UUID][]model.PriceHistoryEntry
	alerts   []model.PriceAlert
	prefs    map[uuid.UUID]*model.UserPreference

	touchErr  error
	commitErr error
}

var _ store.Gateway = (*mockGateway)(nil)

func newMockGateway(products ...*model.Product) *mockGateway {
	g := &mockGateway{
		products: make(map[uuid.UUID]*model.Product),
		history:  make(map[uuid.UUID][]model.PriceHistoryEntry),
		prefs:    make(map[uuid.UUID]*model.UserPreference),
	}
	for _, p := range products {
		g.products[p.ID] = p
	}
	return g
}

func (g *mockGateway) GetDueProducts(ctx context.Context, interval time.Duration, limit int) ([]model.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var due []model.Product
	for _, p := range g.products {
		due = append(due, *p)
	}
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (g *mockGateway) GetUserPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prefs[userID], nil
}

func (g *mockGateway) CommitPriceUpdate(ctx context.Context, productID uuid.UUID, newPrice float64, checkedAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.commitErr != nil {
		return g.commitErr
	}
	p := g.products[productID]
	p.CurrentPrice = newPrice
	if newPrice < p.LowestPrice {
		p.LowestPrice = newPrice
	}
	p.LastCheckedAt = checkedAt
	g.history[productID] = append(g.history[productID], model.PriceHistoryEntry{
		ProductID:  productID,
		Price:      newPrice,
		RecordedAt: checkedAt,
	})
	return nil
}

func (g *mockGateway) TouchLastChecked(ctx context.Context, productID uuid.UUID, checkedAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.touchErr != nil {
		return g.touchErr
	}
	g.products[productID].LastCheckedAt = checkedAt
	return nil
}

func (g *mockGateway) AppendPriceHistory(ctx context.Context, productID uuid.UUID, price float64, recordedAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history[productID] = append(g.history[productID], model.PriceHistoryEntry{
		ProductID:  productID,
		Price:      price,
		RecordedAt: recordedAt,
	})
	return nil
}

func (g *mockGateway) InsertPriceAlert(ctx context.Context, productID, userID uuid.UUID, oldPrice, newPrice float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.alerts = append(g.alerts, model.PriceAlert{
		ProductID: productID,
		UserID:    userID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		CreatedAt: time.Now(),
	})
	return nil
}

// mockFetcher returns a fixed price text or error
type mockFetcher struct {
	text string
	err  error
}

func (m *mockFetcher) FetchPriceText(ctx context.Context, pageURL, platform string, rules []selector.Rule) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// mockGate records Evaluate invocations
type mockGate struct {
	mu    sync.Mutex
	calls []gateCall
}

type gateCall struct {
	product  model.Product
	oldPrice float64
	newPrice float64
}

func (m *mockGate) Evaluate(ctx context.Context, product model.Product, oldPrice, newPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, gateCall{product: product, oldPrice: oldPrice, newPrice: newPrice})
}
