package adapters

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressLog keeps a running confirmation tally per user and logs every
// change
type ProgressLog struct {
	mu     sync.Mutex
	totals map[uuid.UUID]int
	logger *zap.Logger
}

// NewProgressLog creates a progress sink
func NewProgressLog(logger *zap.Logger) *ProgressLog {
	return &ProgressLog{
		totals: make(map[uuid.UUID]int),
		logger: logger.Named("progress"),
	}
}

// RecordConfirmation applies a +1/-1 confirmation delta
func (p *ProgressLog) RecordConfirmation(ctx context.Context, userID, mealID uuid.UUID, delta int) error {
	p.mu.Lock()
	p.totals[userID] += delta
	total := p.totals[userID]
	p.mu.Unlock()

	p.logger.Info("Meal confirmation recorded",
		zap.String("user_id", userID.String()),
		zap.String("meal_id", mealID.String()),
		zap.Int("delta", delta),
		zap.Int("total", total),
	)
	return nil
}

// Total returns the user's running tally
func (p *ProgressLog) Total(userID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals[userID]
}

// LogNotifier writes plan-ready notifications to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

// PlanReady logs that the user's week is planned
func (n *LogNotifier) PlanReady(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	n.logger.Info("Plan ready",
		zap.String("user_id", userID.String()),
		zap.String("week_start", weekStart.Format("2006-01-02")),
	)
	return nil
}

var (
	_ outbound.ProgressSink = (*ProgressLog)(nil)
	_ outbound.Notifier     = (*LogNotifier)(nil)
)
