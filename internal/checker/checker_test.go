package checker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pricedrop/priceworker/internal/model"
	"pricedrop/priceworker/internal/selector"
	apperr "pricedrop/priceworker/pkg/errors"
)

func testProduct(current, lowest float64) *model.Product {
	return &model.Product{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Title:         "4K Monitor",
		URL:           "https://www.amazon.com/dp/B0TEST",
		Platform:      "amazon",
		InitialPrice:  current,
		CurrentPrice:  current,
		LowestPrice:   lowest,
		LastCheckedAt: time.Now().Add(-12 * time.Hour),
	}
}

func newChecker(t *testing.T, f *mockFetcher, gw *mockGateway, gate *mockGate) *Checker {
	t.Helper()
	registry, err := selector.NewRegistry("amazon", true)
	assert.NoError(t, err)
	return New(f, registry, gw, gate)
}

func TestCheckUnchangedPrice(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gate := &mockGate{}
	c := newChecker(t, &mockFetcher{text: "$100.00"}, gw, gate)

	before := p.LastCheckedAt
	res, err := c.Check(context.Background(), *p)
	assert.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Changed)
	assert.Equal(t, 100.0, res.Price)

	assert.True(t, p.LastCheckedAt.After(before), "last_checked_at must advance")
	assert.Empty(t, gw.history[p.ID], "unchanged price appends no history")
	assert.Empty(t, gw.alerts, "unchanged price creates no alert")
	assert.Empty(t, gate.calls)
}

func TestCheckPriceRose(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gate := &mockGate{}
	c := newChecker(t, &mockFetcher{text: "$120.00"}, gw, gate)

	res, err := c.Check(context.Background(), *p)
	assert.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Dropped)

	assert.Equal(t, 120.0, p.CurrentPrice)
	assert.Equal(t, 90.0, p.LowestPrice, "lowest price never increases")
	assert.Len(t, gw.history[p.ID], 1)
	assert.Empty(t, gate.calls, "a rise does not reach the alert gate")
}

func TestCheckPriceDropped(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gate := &mockGate{}
	c := newChecker(t, &mockFetcher{text: "$80.00"}, gw, gate)

	res, err := c.Check(context.Background(), *p)
	assert.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Dropped)

	assert.Equal(t, 80.0, p.CurrentPrice)
	assert.Equal(t, 80.0, p.LowestPrice)
	assert.Len(t, gw.history[p.ID], 1)
	assert.Equal(t, 80.0, gw.history[p.ID][0].Price)

	assert.Len(t, gate.calls, 1)
	assert.Equal(t, 100.0, gate.calls[0].oldPrice)
	assert.Equal(t, 80.0, gate.calls[0].newPrice)
}

func TestCheckFetchFailure(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gate := &mockGate{}
	fetchErr := apperr.NewNetwork("amazon", "connection refused", nil)
	c := newChecker(t, &mockFetcher{err: fetchErr}, gw, gate)

	before := p.LastCheckedAt
	_, err := c.Check(context.Background(), *p)
	assert.Error(t, err)
	assert.Equal(t, apperr.ErrorTypeNetwork, apperr.TypeOf(err))
	assert.False(t, apperr.IsFatal(err))

	assert.True(t, p.LastCheckedAt.After(before), "failed checks still advance last_checked_at")
	assert.Equal(t, 100.0, p.CurrentPrice)
	assert.Empty(t, gw.history[p.ID])
	assert.Empty(t, gate.calls)
}

func TestCheckUnparseablePrice(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gate := &mockGate{}
	c := newChecker(t, &mockFetcher{text: "Currently unavailable"}, gw, gate)

	before := p.LastCheckedAt
	_, err := c.Check(context.Background(), *p)
	assert.Error(t, err)
	assert.Equal(t, apperr.ErrorTypeParse, apperr.TypeOf(err))
	assert.True(t, p.LastCheckedAt.After(before))
	assert.Empty(t, gw.history[p.ID])
}

func TestCheckPersistenceFailureIsFatal(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gw.commitErr = apperr.NewPersistence("connection lost", nil)
	c := newChecker(t, &mockFetcher{text: "$80.00"}, gw, &mockGate{})

	_, err := c.Check(context.Background(), *p)
	assert.Error(t, err)
	assert.True(t, apperr.IsFatal(err))
}

func TestCheckTouchFailureIsFatal(t *testing.T) {
	p := testProduct(100, 90)
	gw := newMockGateway(p)
	gw.touchErr = apperr.NewPersistence("connection lost", nil)
	c := newChecker(t, &mockFetcher{err: apperr.NewNetwork("amazon", "timeout", nil)}, gw, &mockGate{})

	_, err := c.Check(context.Background(), *p)
	assert.Error(t, err)
	assert.True(t, apperr.IsFatal(err), "a failing touch is a persistence failure, not a fetch failure")
}

// TestLowestPriceInvariant runs a volatile price sequence through repeated
// checks and verifies lowest_price <= current_price after every one.
func TestLowestPriceInvariant(t *testing.T) {
	p := testProduct(100, 100)
	gw := newMockGateway(p)
	gate := &mockGate{}
	f := &mockFetcher{}
	c := newChecker(t, f, gw, gate)

	sequence := []string{"$90.00", "$110.00", "$85.50", "$85.50", "$200.00", "$15.00"}
	for _, text := range sequence {
		f.text = text
		_, err := c.Check(context.Background(), *p)
		assert.NoError(t, err)
		assert.LessOrEqual(t, p.LowestPrice, p.CurrentPrice,
			"invariant violated after observing %s", text)
	}

	assert.Equal(t, 15.0, p.LowestPrice)

	// History was appended exactly once per distinct price change
	assert.Len(t, gw.history[p.ID], 5)

	// History timestamps are strictly increasing
	entries := gw.history[p.ID]
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].RecordedAt.After(entries[i-1].RecordedAt) ||
			entries[i].RecordedAt.Equal(entries[i-1].RecordedAt))
	}
}
