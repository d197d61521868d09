// Package checkin stores follow-up check-ins scheduled after a crisis
// analysis asks for one.
//
// Two [Store] implementations are provided: [FileStore] keeps an append-only
// JSON-lines log suitable for a single instance, and [PostgresStore] persists
// to PostgreSQL via pgx.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/solace/internal/crisis"
)

// ErrNotFound is returned by [Store.Complete] for an unknown or already
// completed check-in.
var ErrNotFound = errors.New("checkin: not found")

// Record is a single scheduled check-in.
type Record struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	RiskLevel   crisis.RiskLevel `json:"riskLevel"`
	DueAt       time.Time        `json:"dueAt"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// Pending reports whether the check-in has not been completed yet.
func (r Record) Pending() bool {
	return r.CompletedAt == nil
}

// Store persists check-ins. Implementations must be safe for concurrent use.
type Store interface {
	// Schedule stores r. An empty ID is filled with a fresh UUID and a zero
	// CreatedAt with the current time. The stored record is returned.
	Schedule(ctx context.Context, r Record) (Record, error)

	// Due returns pending check-ins with DueAt at or before before, oldest
	// first.
	Due(ctx context.Context, before time.Time) ([]Record, error)

	// Complete marks a pending check-in as done. It returns [ErrNotFound]
	// if id is unknown or already completed.
	Complete(ctx context.Context, id string) error
}

// DefaultDelays is how long after an analysis the check-in falls due, per
// risk level. Levels without an entry never schedule a check-in.
var DefaultDelays = map[crisis.RiskLevel]time.Duration{
	crisis.RiskMedium:   24 * time.Hour,
	crisis.RiskHigh:     4 * time.Hour,
	crisis.RiskCritical: time.Hour,
}

// Scheduler decides whether an assessed message gets a check-in and stores
// it.
type Scheduler struct {
	store  Store
	delays map[crisis.RiskLevel]time.Duration
	now    func() time.Time
}

// SchedulerOption configures a [Scheduler].
type SchedulerOption func(*Scheduler)

// WithDelay overrides the delay for one risk level.
func WithDelay(level crisis.RiskLevel, d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.delays[level] = d
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler returns a Scheduler writing to store.
func NewScheduler(store Store, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:  store,
		delays: make(map[crisis.RiskLevel]time.Duration, len(DefaultDelays)),
		now:    time.Now,
	}
	for k, v := range DefaultDelays {
		s.delays[k] = v
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Scheduler) Store() Store {
	return s.store
}

// MaybeSchedule stores a check-in for userID when p shows one. It returns
// the stored record and true, or a zero record and false when nothing was
// scheduled.
func (s *Scheduler) MaybeSchedule(ctx context.Context, userID string, p crisis.Presentation) (Record, bool, error) {
	if !p.ShowCheckIn || strings.TrimSpace(userID) == "" {
		return Record{}, false, nil
	}
	delay, ok := s.delays[p.RiskLevel]
	if !ok {
		// Unknown levels render as elevated.
		delay = s.delays[crisis.RiskHigh]
	}

	now := s.now().UTC()
	rec, err := s.store.Schedule(ctx, Record{
		UserID:    userID,
		RiskLevel: p.RiskLevel,
		DueAt:     now.Add(delay),
		CreatedAt: now,
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("checkin: schedule for %q: %w", userID, err)
	}
	return rec, true, nil
}

// prepare fills in the generated fields of a new record.
func prepare(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.CompletedAt = nil
	return r
}
