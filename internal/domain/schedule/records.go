package schedule

import (
	"time"

	"github.com/google/uuid"
)

// SlotRef names one generator slot of a generation run
type SlotRef struct {
	Date     time.Time
	MealType MealType
}

// GenerationLog is the audit entry written for every generation run
type GenerationLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Start     time.Time
	End       time.Time
	Unfilled  []SlotRef
	CreatedAt time.Time
}

// WeeklyStats summarises one user's confirmations for one week
type WeeklyStats struct {
	UserID       uuid.UUID
	WeekStart    time.Time
	Planned      int
	ConfirmedYes int
	ConfirmedNo  int
	Unset        int
	ComputedAt   time.Time
}

// Stats counts the confirmation states of the week's meals
func (w *Week) Stats(now time.Time) *WeeklyStats {
	st := &WeeklyStats{
		UserID:     w.UserID,
		WeekStart:  w.Start,
		ComputedAt: now,
	}
	for _, m := range w.meals {
		st.Planned++
		switch m.Status {
		case ConfirmedYes:
			st.ConfirmedYes++
		case ConfirmedNo:
			st.ConfirmedNo++
		default:
			st.Unset++
		}
	}
	return st
}
