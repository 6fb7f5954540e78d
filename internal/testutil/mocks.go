package testutil

import (
	"context"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

// Publish publishes events
func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// Names returns the names of every published event in order
func (m *MockEventPublisher) Names() []string {
	var names []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			names = append(names, e.EventName())
		}
	}
	return names
}

// MockProgressSink provides a mock implementation of ProgressSink
type MockProgressSink struct {
	mock.Mock
}

// RecordConfirmation records a confirmation delta
func (m *MockProgressSink) RecordConfirmation(ctx context.Context, userID, mealID uuid.UUID, delta int) error {
	args := m.Called(ctx, userID, mealID, delta)
	return args.Error(0)
}

// MockNotifier provides a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

// PlanReady notifies a user that next week's plan exists
func (m *MockNotifier) PlanReady(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	args := m.Called(ctx, userID, weekStart)
	return args.Error(0)
}

// MockSubscriptionChecker provides a mock implementation of SubscriptionChecker
type MockSubscriptionChecker struct {
	mock.Mock
}

// VerifyDateAllowed checks a date against the user's horizon
func (m *MockSubscriptionChecker) VerifyDateAllowed(ctx context.Context, userID uuid.UUID, date time.Time) error {
	args := m.Called(ctx, userID, date)
	return args.Error(0)
}
