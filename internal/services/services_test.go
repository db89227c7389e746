package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"baytna-backend/internal/events"
	"baytna-backend/internal/models"
	"baytna-backend/internal/push"
	"baytna-backend/internal/testutil"
	"baytna-backend/pkg/utils"

	"gorm.io/gorm"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []push.Target
	msgs    []push.Message
	failFor map[string]error
}

func (f *fakeSender) Send(_ context.Context, t push.Target, m push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, t)
	f.msgs = append(f.msgs, m)
	key := t.Endpoint
	if key == "" {
		key = t.FCMToken
	}
	return f.failFor[key]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type frame struct {
	userID  uint64
	msgType string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames []frame
}

func (b *fakeBroadcaster) SendToUser(userID uint64, msgType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame{userID, msgType})
}

func (b *fakeBroadcaster) framesFor(userID uint64, msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, f := range b.frames {
		if f.userID == userID && f.msgType == msgType {
			n++
		}
	}
	return n
}

type env struct {
	db       *gorm.DB
	sender   *fakeSender
	rt       *fakeBroadcaster
	events   *events.Recorder
	notifier *Dispatcher
	avail    *AvailabilityChecker
	orders   *OrderService
	trips    *TripService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenTestDB(t)
	e := &env{
		db:     db,
		sender: &fakeSender{failFor: map[string]error{}},
		rt:     &fakeBroadcaster{},
		events: &events.Recorder{},
	}
	e.notifier = NewDispatcher(db, e.sender, e.rt, e.events)
	e.avail = NewAvailabilityChecker(db)
	e.orders = NewOrderService(db, e.notifier, e.events)
	e.trips = NewTripService(db, e.avail, e.notifier, e.events)
	t.Cleanup(e.notifier.Wait)
	return e
}

func (e *env) createTrip(t *testing.T, creator uint64, driver *uint64, status models.TripStatus, departure time.Time, minutes int) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		CreatedBy:         creator,
		AssignedDriver:    driver,
		Location:          "Souq",
		Status:            status,
		DepartureTime:     departure.UTC(),
		EstimatedDuration: minutes,
	}
	if err := e.db.Create(trip).Error; err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return trip
}

func (e *env) unreadFor(t *testing.T, userID uint64) int64 {
	t.Helper()
	counts, err := e.notifier.UnreadCounts(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnreadCounts: %v", err)
	}
	return counts.Total
}

func ptr[T any](v T) *T { return &v }

func assertKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if !utils.IsKind(err, kind) {
		t.Fatalf("expected error of kind %d, got %v", kind, err)
	}
}
