package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
)

// ErrBeyondHorizon is returned for dates past the planning horizon
var ErrBeyondHorizon = errors.New("date is beyond the planning horizon")

// WindowChecker allows planning up to a fixed number of weeks past the
// current one. Past dates stay allowed so meals can be confirmed after the
// fact.
type WindowChecker struct {
	clock        outbound.Clock
	horizonWeeks int
}

// NewWindowChecker creates a checker with the given horizon
func NewWindowChecker(clock outbound.Clock, horizonWeeks int) *WindowChecker {
	if horizonWeeks < 1 {
		horizonWeeks = 1
	}
	return &WindowChecker{clock: clock, horizonWeeks: horizonWeeks}
}

var _ outbound.SubscriptionChecker = (*WindowChecker)(nil)

// VerifyDateAllowed rejects dates after the last day of the horizon
func (c *WindowChecker) VerifyDateAllowed(ctx context.Context, userID uuid.UUID, date time.Time) error {
	last := c.LastAllowed()
	if schedule.Date(date).After(last) {
		return fmt.Errorf("%w: %s is after %s", ErrBeyondHorizon,
			date.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	return nil
}

// LastAllowed returns the last plannable date
func (c *WindowChecker) LastAllowed() time.Time {
	return schedule.WeekEnd(c.clock.Now()).AddDate(0, 0, 7*c.horizonWeeks)
}
