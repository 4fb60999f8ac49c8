package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/events"
	ierr "github.com/billforge/billforge/internal/errors"
)

type EventStore struct {
	mu     sync.RWMutex
	events []*events.Event
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Insert(ctx context.Context, event *events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *EventStore) ListBySubscription(ctx context.Context, subscriptionID, code string, from, to time.Time) ([]*events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*events.Event
	for _, e := range s.events {
		if e.SubscriptionID != subscriptionID || e.Code != code {
			continue
		}
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*events.UsageSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot *events.UsageSnapshot) error {
	if snapshot.SubscriptionID == "" || snapshot.MetricCode == "" {
		return ierr.NewError("snapshot scope is incomplete").
			WithHint("Snapshots require a subscription and metric code").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *SnapshotStore) GetLatest(ctx context.Context, subscriptionID, metricCode, groupKey string, before time.Time) (*events.UsageSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *events.UsageSnapshot
	for _, snap := range s.snapshots {
		if snap.SubscriptionID != subscriptionID ||
			snap.MetricCode != metricCode ||
			snap.GroupKey != groupKey {
			continue
		}
		if snap.PeriodEnd.After(before) {
			continue
		}
		if latest == nil || snap.PeriodEnd.After(latest.PeriodEnd) {
			latest = snap
		}
	}
	return latest, nil
}
