package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pricedrop/priceworker/internal/model"
)

// mockGateway implements the preference and alert slices of store.Gateway
type mockGateway struct {
	mu        sync.Mutex
	prefs     map[uuid.UUID]*model.UserPreference
	alerts    []model.PriceAlert
	prefErr   error
	insertErr error
}

func newMockGateway() *mockGateway {
	return &mockGateway{prefs: make(map[uuid.UUID]*model.UserPreference)}
}

func (g *mockGateway) GetDueProducts(ctx context.Context, interval time.Duration, limit int) ([]model.Product, error) {
	return nil, nil
}

func (g *mockGateway) GetUserPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error) {
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	return g.prefs[userID], nil
}

func (g *mockGateway) CommitPriceUpdate(ctx context.Context, productID uuid.UUID, newPrice float64, checkedAt time.Time) error {
	return nil
}

func (g *mockGateway) TouchLastChecked(ctx context.Context, productID uuid.UUID, checkedAt time.Time) error {
	return nil
}

func (g *mockGateway) AppendPriceHistory(ctx context.Context, productID uuid.UUID, price float64, recordedAt time.Time) error {
	return nil
}

func (g *mockGateway) InsertPriceAlert(ctx context.Context, productID, userID uuid.UUID, oldPrice, newPrice float64) error {
	if g.insertErr != nil {
		return g.insertErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.alerts = append(g.alerts, model.PriceAlert{
		ProductID: productID, UserID: userID, OldPrice: oldPrice, NewPrice: newPrice,
	})
	return nil
}

// mockNotifier records sent notifications
type mockNotifier struct {
	mu      sync.Mutex
	sent    []model.PriceDropEvent
	sentTo  []string
	sendErr error
}

func (m *mockNotifier) SendPriceDrop(toAddress string, event model.PriceDropEvent) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, event)
	m.sentTo = append(m.sentTo, toAddress)
	return nil
}

// mockPublisher records published drop events
type mockPublisher struct {
	mu     sync.Mutex
	events []model.PriceDropEvent
	pubErr error
}

func (m *mockPublisher) PublishDrop(ctx context.Context, event model.PriceDropEvent) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func alertProduct() model.Product {
	return model.Product{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "4K Monitor",
		URL:      "https://www.amazon.com/dp/B0TEST",
		ImageURL: "https://img.example.com/monitor.jpg",
		Platform: "amazon",
	}
}

func TestEvaluateDropMeetingThreshold(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    true,
		NotificationThreshold: 15,
	}
	n := &mockNotifier{}
	pub := &mockPublisher{}
	gate := NewGate(gw, n, pub)

	// $100 -> $80 is a 20% drop against a 15% threshold
	gate.Evaluate(context.Background(), p, 100, 80)

	assert.Len(t, gw.alerts, 1, "exactly one alert row")
	assert.Equal(t, 100.0, gw.alerts[0].OldPrice)
	assert.Equal(t, 80.0, gw.alerts[0].NewPrice)

	assert.Len(t, n.sent, 1, "exactly one notification")
	assert.Equal(t, "buyer@example.com", n.sentTo[0])
	assert.Equal(t, 20.0, n.sent[0].DropPercent)
	assert.Equal(t, p.Title, n.sent[0].Title)

	assert.Len(t, pub.events, 1, "drop event published")
}

func TestEvaluateDropBelowThreshold(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    true,
		NotificationThreshold: 25,
	}
	n := &mockNotifier{}
	pub := &mockPublisher{}
	gate := NewGate(gw, n, pub)

	// The same 20% drop against a 25% threshold is suppressed
	gate.Evaluate(context.Background(), p, 100, 80)

	assert.Empty(t, gw.alerts)
	assert.Empty(t, n.sent)
	assert.Empty(t, pub.events)
}

func TestEvaluateMissingPreferenceSuppresses(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	n := &mockNotifier{}
	gate := NewGate(gw, n, nil)

	gate.Evaluate(context.Background(), p, 100, 50)

	assert.Empty(t, gw.alerts)
	assert.Empty(t, n.sent)
}

func TestEvaluateEmailDisabledStillRecordsAlert(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    false,
		NotificationThreshold: 10,
	}
	n := &mockNotifier{}
	gate := NewGate(gw, n, nil)

	gate.Evaluate(context.Background(), p, 100, 80)

	assert.Len(t, gw.alerts, 1, "the alert row is audit data, independent of email")
	assert.Empty(t, n.sent)
}

func TestEvaluateNotifierFailureIsSwallowed(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    true,
		NotificationThreshold: 10,
	}
	n := &mockNotifier{sendErr: errors.New("smtp unavailable")}
	gate := NewGate(gw, n, nil)

	assert.NotPanics(t, func() {
		gate.Evaluate(context.Background(), p, 100, 80)
	})
	assert.Len(t, gw.alerts, 1, "the recorded alert survives a failed notification")
}

func TestEvaluateInsertFailureSkipsNotification(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    true,
		NotificationThreshold: 10,
	}
	gw.insertErr = errors.New("insert failed")
	n := &mockNotifier{}
	gate := NewGate(gw, n, nil)

	gate.Evaluate(context.Background(), p, 100, 80)

	assert.Empty(t, n.sent, "no notification without a recorded alert")
}

func TestEvaluatePublisherFailureIsSwallowed(t *testing.T) {
	p := alertProduct()
	gw := newMockGateway()
	gw.prefs[p.UserID] = &model.UserPreference{
		UserID:                p.UserID,
		Email:                 "buyer@example.com",
		EmailNotifications:    true,
		NotificationThreshold: 10,
	}
	n := &mockNotifier{}
	pub := &mockPublisher{pubErr: errors.New("redis down")}
	gate := NewGate(gw, n, pub)

	gate.Evaluate(context.Background(), p, 100, 80)

	assert.Len(t, n.sent, 1, "email still goes out when event publishing fails")
}
