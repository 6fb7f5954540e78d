package gorm

import (
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/google/uuid"
)

const slotDateLayout = "2006-01-02"

// DayToModel converts a schedule day to a GORM model
func DayToModel(d *schedule.ScheduleDay) *ScheduleDayModel {
	return &ScheduleDayModel{
		ID:        d.ID,
		UserID:    d.UserID,
		Date:      schedule.Date(d.Date),
		DietType:  int(d.DietType),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ModelToDay converts a GORM model to a schedule day
func ModelToDay(m *ScheduleDayModel) *schedule.ScheduleDay {
	return &schedule.ScheduleDay{
		ID:        m.ID,
		UserID:    m.UserID,
		Date:      schedule.Date(m.Date.UTC()),
		DietType:  schedule.DietType(m.DietType),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// PreparationToModel converts a preparation to a GORM model
func PreparationToModel(p *schedule.Preparation) *PreparationModel {
	return &PreparationModel{
		ID:        p.ID,
		UserID:    p.UserID,
		DayID:     p.DayID,
		MealType:  string(p.MealType),
		RecipeID:  p.RecipeID,
		Servings:  p.Servings,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ModelToPreparation converts a GORM model to a preparation
func ModelToPreparation(m *PreparationModel) *schedule.Preparation {
	return &schedule.Preparation{
		ID:        m.ID,
		UserID:    m.UserID,
		DayID:     m.DayID,
		MealType:  schedule.MealType(m.MealType),
		RecipeID:  m.RecipeID,
		Servings:  m.Servings,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MealToModel converts a meal to a GORM model
func MealToModel(m *schedule.Meal) *MealModel {
	return &MealModel{
		ID:            m.ID,
		UserID:        m.UserID,
		DayID:         m.DayID,
		PreparationID: nullableID(m.PreparationID),
		MealType:      string(m.MealType),
		RecipeID:      m.RecipeID,
		Servings:      m.Servings,
		IsLeftover:    m.IsLeftover,
		IsChallenge:   m.IsChallenge,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ModelToMeal converts a GORM model to a meal
func ModelToMeal(m *MealModel) *schedule.Meal {
	return &schedule.Meal{
		ID:            m.ID,
		UserID:        m.UserID,
		DayID:         m.DayID,
		PreparationID: idOrNil(m.PreparationID),
		MealType:      schedule.MealType(m.MealType),
		RecipeID:      m.RecipeID,
		Servings:      m.Servings,
		IsLeftover:    m.IsLeftover,
		IsChallenge:   m.IsChallenge,
		Status:        schedule.ConfirmStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ItemToModel converts a shopping list item to a GORM model
func ItemToModel(it *shopping.Item) *ShoppingItemModel {
	return &ShoppingItemModel{
		ID:            it.ID,
		UserID:        it.UserID,
		WeekStart:     schedule.Date(it.WeekStart),
		IngredientID:  it.IngredientID,
		Quantity:      it.Quantity,
		Unit:          string(it.Unit),
		Checked:       it.Checked,
		ManuallyAdded: it.ManuallyAdded,
		PreparationID: nullableID(it.PreparationID),
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

// ModelToItem converts a GORM model to a shopping list item
func ModelToItem(m *ShoppingItemModel) *shopping.Item {
	return &shopping.Item{
		ID:            m.ID,
		UserID:        m.UserID,
		IngredientID:  m.IngredientID,
		WeekStart:     schedule.Date(m.WeekStart.UTC()),
		Quantity:      m.Quantity,
		Unit:          recipe.MeasurementUnit(m.Unit),
		Checked:       m.Checked,
		ManuallyAdded: m.ManuallyAdded,
		PreparationID: idOrNil(m.PreparationID),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// LogToModel converts a generation log entry to a GORM model
func LogToModel(l *schedule.GenerationLog) *GenerationLogModel {
	slots := make(SlotList, 0, len(l.Unfilled))
	for _, s := range l.Unfilled {
		slots = append(slots, SlotJSON{Date: s.Date.Format(slotDateLayout), MealType: string(s.MealType)})
	}
	return &GenerationLogModel{
		ID:        l.ID,
		UserID:    l.UserID,
		Start:     l.Start,
		End:       l.End,
		Unfilled:  slots,
		CreatedAt: l.CreatedAt,
	}
}

// ModelToLog converts a GORM model to a generation log entry
func ModelToLog(m *GenerationLogModel) *schedule.GenerationLog {
	l := &schedule.GenerationLog{
		ID:        m.ID,
		UserID:    m.UserID,
		Start:     schedule.Date(m.Start.UTC()),
		End:       schedule.Date(m.End.UTC()),
		CreatedAt: m.CreatedAt,
	}
	for _, s := range m.Unfilled {
		d, err := time.Parse(slotDateLayout, s.Date)
		if err != nil {
			continue
		}
		l.Unfilled = append(l.Unfilled, schedule.SlotRef{Date: d, MealType: schedule.MealType(s.MealType)})
	}
	return l
}

// StatsToModel converts weekly stats to a GORM model
func StatsToModel(s *schedule.WeeklyStats) *WeeklyStatsModel {
	return &WeeklyStatsModel{
		UserID:       s.UserID,
		WeekStart:    schedule.Date(s.WeekStart),
		Planned:      s.Planned,
		ConfirmedYes: s.ConfirmedYes,
		ConfirmedNo:  s.ConfirmedNo,
		Unset:        s.Unset,
		ComputedAt:   s.ComputedAt,
	}
}

// ModelToStats converts a GORM model to weekly stats
func ModelToStats(m *WeeklyStatsModel) *schedule.WeeklyStats {
	return &schedule.WeeklyStats{
		UserID:       m.UserID,
		WeekStart:    schedule.Date(m.WeekStart.UTC()),
		Planned:      m.Planned,
		ConfirmedYes: m.ConfirmedYes,
		ConfirmedNo:  m.ConfirmedNo,
		Unset:        m.Unset,
		ComputedAt:   m.ComputedAt,
	}
}

// RecipeToModel converts a catalog recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	model := &RecipeModel{
		ID:        r.ID,
		Slug:      r.Slug,
		Title:     r.Title,
		MealTypes: make(StringSlice, 0, len(r.MealTypes)),
		DietTypes: make(IntSlice, 0, len(r.DietTypes)),
		Priority:  r.Priority,
		Active:    r.Active,
	}
	for _, m := range r.MealTypes {
		model.MealTypes = append(model.MealTypes, string(m))
	}
	for _, d := range r.DietTypes {
		model.DietTypes = append(model.DietTypes, int(d))
	}
	for i, ing := range r.Ingredients {
		model.Ingredients = append(model.Ingredients, RecipeIngredientModel{
			RecipeID:         r.ID,
			IngredientID:     ing.IngredientID,
			Name:             ing.Name,
			AmountPerServing: ing.AmountPerServing,
			Unit:             string(ing.Unit),
			Position:         i,
		})
	}
	return model
}

// ModelToRecipe converts a GORM model to a catalog recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	r := &recipe.Recipe{
		ID:       m.ID,
		Slug:     m.Slug,
		Title:    m.Title,
		Priority: m.Priority,
		Active:   m.Active,
	}
	for _, t := range m.MealTypes {
		r.MealTypes = append(r.MealTypes, schedule.MealType(t))
	}
	for _, d := range m.DietTypes {
		r.DietTypes = append(r.DietTypes, schedule.DietType(d))
	}
	for _, ing := range m.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			IngredientID:     ing.IngredientID,
			Name:             ing.Name,
			AmountPerServing: ing.AmountPerServing,
			Unit:             recipe.MeasurementUnit(ing.Unit),
		})
	}
	return r
}

// IngredientToModel converts an ingredient catalog entry to a GORM model
func IngredientToModel(info recipe.IngredientInfo) *IngredientModel {
	return &IngredientModel{
		ID:            info.ID,
		Name:          info.Name,
		Tags:          append(StringSlice{}, info.Tags...),
		CanonicalUnit: string(info.CanonicalUnit),
		Decimals:      info.Decimals,
	}
}

// ModelToIngredient converts a GORM model to an ingredient catalog entry
func ModelToIngredient(m *IngredientModel) recipe.IngredientInfo {
	return recipe.IngredientInfo{
		ID:            m.ID,
		Name:          m.Name,
		Tags:          append([]string(nil), m.Tags...),
		CanonicalUnit: recipe.MeasurementUnit(m.CanonicalUnit),
		Decimals:      m.Decimals,
	}
}

// PlanToModel converts a prep plan to a GORM model
func PlanToModel(p *prepplan.Plan) *PrepPlanModel {
	model := &PrepPlanModel{
		UserID:     p.UserID,
		TargetDays: p.TargetDays,
		DietType:   int(p.DietType),
	}
	for _, g := range p.Generators {
		gm := PlanGeneratorModel{
			ID:       g.ID,
			UserID:   p.UserID,
			Weekday:  g.Weekday,
			MealType: string(g.MealType),
		}
		for _, c := range g.Consumers {
			gm.Consumers = append(gm.Consumers, PlanConsumerModel{
				ID:          c.ID,
				GeneratorID: g.ID,
				Weekday:     c.Weekday,
				MealType:    string(c.MealType),
				Servings:    c.Servings,
			})
		}
		model.Generators = append(model.Generators, gm)
	}
	return model
}

// ModelToPlan converts a GORM model to a prep plan
func ModelToPlan(m *PrepPlanModel) *prepplan.Plan {
	p := &prepplan.Plan{
		UserID:     m.UserID,
		TargetDays: m.TargetDays,
		DietType:   schedule.DietType(m.DietType),
	}
	for _, gm := range m.Generators {
		g := prepplan.Generator{
			ID:       gm.ID,
			Weekday:  gm.Weekday,
			MealType: schedule.MealType(gm.MealType),
		}
		for _, cm := range gm.Consumers {
			g.Consumers = append(g.Consumers, prepplan.Consumer{
				ID:          cm.ID,
				GeneratorID: cm.GeneratorID,
				Weekday:     cm.Weekday,
				MealType:    schedule.MealType(cm.MealType),
				Servings:    cm.Servings,
			})
		}
		p.Generators = append(p.Generators, g)
	}
	return p
}

// ModelToVote converts a GORM model to a recipe vote
func ModelToVote(m *RecipeVoteModel) recipe.Vote {
	return recipe.Vote{
		UserID:   m.UserID,
		RecipeID: m.RecipeID,
		Value:    recipe.VoteValue(m.Value),
		VotedAt:  m.VotedAt,
	}
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func idOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
