// Package prepplan holds the static weekly template a schedule is generated
// from: generator rows that batch-cook and consumer rows that eat the batch.
package prepplan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/google/uuid"
)

var (
	ErrNoGenerators            = errors.New("plan has no generators")
	ErrNoConsumers             = errors.New("generator has no consumers")
	ErrConsumerBeforeGenerator = errors.New("consumer weekday precedes its generator")
	ErrInvalidWeekday          = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")
	ErrInvalidServings         = errors.New("consumer servings must be greater than 0")
	ErrDuplicateGenerator      = errors.New("two generators share a weekday and meal type")
	ErrForeignConsumer         = errors.New("consumer references another generator")
)

// Plan is the template for one user and one weekly cooking cadence
type Plan struct {
	UserID     uuid.UUID
	TargetDays int
	DietType   schedule.DietType
	Generators []Generator
}

// Generator names the weekday and slot that produces a batch
type Generator struct {
	ID        uuid.UUID
	Weekday   int
	MealType  schedule.MealType
	Consumers []Consumer
}

// Consumer names a weekday and slot eating from its generator's batch
type Consumer struct {
	ID          uuid.UUID
	GeneratorID uuid.UUID
	Weekday     int
	MealType    schedule.MealType
	Servings    int
}

// TotalServings is the batch size the generator must cook
func (g Generator) TotalServings() int {
	total := 0
	for _, c := range g.Consumers {
		total += c.Servings
	}
	return total
}

// IsLeftover reports whether the consumer eats in a different slot than the batch is cooked in
func (g Generator) IsLeftover(c Consumer) bool {
	return c.Weekday != g.Weekday || c.MealType != g.MealType
}

// Validate checks the template constraints. Consumers may not wrap into the
// following week: a consumer's weekday must not precede its generator's.
func (p Plan) Validate() error {
	if len(p.Generators) == 0 {
		return ErrNoGenerators
	}
	seen := make(map[string]struct{}, len(p.Generators))
	for _, g := range p.Generators {
		if err := validWeekday(g.Weekday); err != nil {
			return err
		}
		if !g.MealType.Valid() {
			return fmt.Errorf("generator %s: unknown meal type %q", g.ID, g.MealType)
		}
		key := fmt.Sprintf("%d/%s", g.Weekday, g.MealType)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateGenerator, key)
		}
		seen[key] = struct{}{}

		if len(g.Consumers) == 0 {
			return fmt.Errorf("%w: %s", ErrNoConsumers, g.ID)
		}
		for _, c := range g.Consumers {
			if c.GeneratorID != uuid.Nil && c.GeneratorID != g.ID {
				return fmt.Errorf("%w: %s", ErrForeignConsumer, c.ID)
			}
			if err := validWeekday(c.Weekday); err != nil {
				return err
			}
			if !c.MealType.Valid() {
				return fmt.Errorf("consumer %s: unknown meal type %q", c.ID, c.MealType)
			}
			if c.Servings < 1 {
				return fmt.Errorf("%w: consumer %s", ErrInvalidServings, c.ID)
			}
			if c.Weekday < g.Weekday {
				return fmt.Errorf("%w: consumer %s on %d, generator on %d", ErrConsumerBeforeGenerator, c.ID, c.Weekday, g.Weekday)
			}
		}
	}
	return nil
}

// ActiveWeekdays returns the weekdays on which anything is cooked or eaten
func (p Plan) ActiveWeekdays() map[int]bool {
	out := make(map[int]bool)
	for _, g := range p.Generators {
		out[g.Weekday] = true
		for _, c := range g.Consumers {
			out[c.Weekday] = true
		}
	}
	return out
}

// OrderedGenerators returns generators sorted by weekday then slot
func (p Plan) OrderedGenerators() []Generator {
	out := make([]Generator, len(p.Generators))
	copy(out, p.Generators)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].MealType.Order() < out[j].MealType.Order()
	})
	return out
}

// DefaultServings is the servings of the plan's first consumer, used for ad hoc
// challenge meals. Falls back to 1.
func (p Plan) DefaultServings() int {
	for _, g := range p.OrderedGenerators() {
		for _, c := range g.Consumers {
			if c.Servings > 0 {
				return c.Servings
			}
		}
	}
	return 1
}

func validWeekday(d int) error {
	if d < 0 || d > 6 {
		return ErrInvalidWeekday
	}
	return nil
}
