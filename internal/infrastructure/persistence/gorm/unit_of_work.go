package gorm

import (
	"context"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork runs planner operations inside one database transaction
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over db
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ outbound.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn in a transaction that commits when fn returns nil
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx outbound.Tx) error) error {
	return u.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &txRepos{db: db})
	})
}

type txRepos struct {
	db *gorm.DB
}

func (t *txRepos) Schedule() outbound.ScheduleRepository { return &ScheduleRepository{db: t.db} }
func (t *txRepos) ShoppingList() outbound.ShoppingListRepository {
	return &ShoppingRepository{db: t.db}
}
func (t *txRepos) GenerationLogs() outbound.GenerationLogRepository {
	return &GenerationLogRepository{db: t.db}
}
func (t *txRepos) WeeklyStats() outbound.WeeklyStatsRepository {
	return &WeeklyStatsRepository{db: t.db}
}

// ScheduleRepository stores days, preparations and meals
type ScheduleRepository struct {
	db *gorm.DB
}

// LoadWeek loads every row of the user's days in [start, end]
func (r *ScheduleRepository) LoadWeek(ctx context.Context, userID uuid.UUID, start, end time.Time) (*schedule.Week, error) {
	week := schedule.NewWeek(userID, start, end)
	db := r.db.WithContext(ctx)

	var days []ScheduleDayModel
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, week.Start, week.End).
		Order("date").Find(&days).Error; err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return week, nil
	}
	dayIDs := make([]uuid.UUID, 0, len(days))
	for i := range days {
		week.AddDay(ModelToDay(&days[i]))
		dayIDs = append(dayIDs, days[i].ID)
	}

	var preps []PreparationModel
	if err := db.Where("day_id IN ?", dayIDs).Find(&preps).Error; err != nil {
		return nil, err
	}
	for i := range preps {
		week.AddPreparation(ModelToPreparation(&preps[i]))
	}

	var meals []MealModel
	if err := db.Where("day_id IN ?", dayIDs).Find(&meals).Error; err != nil {
		return nil, err
	}
	for i := range meals {
		week.AddMeal(ModelToMeal(&meals[i]))
	}
	return week, nil
}

// SaveWeek upserts every row of the week and deletes what it removed
func (r *ScheduleRepository) SaveWeek(ctx context.Context, week *schedule.Week) error {
	db := r.db.WithContext(ctx)
	upsert := db.Clauses(clause.OnConflict{UpdateAll: true})

	removedMeals, removedPreps := week.Removed()
	if len(removedMeals) > 0 {
		if err := db.Where("id IN ?", removedMeals).Delete(&MealModel{}).Error; err != nil {
			return err
		}
	}
	if len(removedPreps) > 0 {
		if err := db.Where("id IN ?", removedPreps).Delete(&PreparationModel{}).Error; err != nil {
			return err
		}
	}

	for _, d := range week.Days() {
		if err := upsert.Create(DayToModel(d)).Error; err != nil {
			return err
		}
	}
	for _, p := range week.Preparations() {
		if err := upsert.Create(PreparationToModel(p)).Error; err != nil {
			return err
		}
	}
	for _, m := range week.Meals() {
		if err := upsert.Create(MealToModel(m)).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteRange removes the user's days in [start, end] with their
// preparations and meals
func (r *ScheduleRepository) DeleteRange(ctx context.Context, userID uuid.UUID, start, end time.Time) error {
	db := r.db.WithContext(ctx)

	var dayIDs []uuid.UUID
	if err := db.Model(&ScheduleDayModel{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, schedule.Date(start), schedule.Date(end)).
		Pluck("id", &dayIDs).Error; err != nil {
		return err
	}
	if len(dayIDs) == 0 {
		return nil
	}
	if err := db.Where("day_id IN ?", dayIDs).Delete(&MealModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("day_id IN ?", dayIDs).Delete(&PreparationModel{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", dayIDs).Delete(&ScheduleDayModel{}).Error
}

type locationRow struct {
	UserID uuid.UUID
	Date   time.Time
}

// LocateDay returns the owner and date of a day
func (r *ScheduleRepository) LocateDay(ctx context.Context, dayID uuid.UUID) (*outbound.Location, error) {
	var day ScheduleDayModel
	if err := r.db.WithContext(ctx).Select("user_id", "date").First(&day, "id = ?", dayID).Error; err != nil {
		return nil, notFound(err)
	}
	return &outbound.Location{UserID: day.UserID, Date: schedule.Date(day.Date.UTC())}, nil
}

// LocateMeal returns the owner and date of the day a meal is eaten on
func (r *ScheduleRepository) LocateMeal(ctx context.Context, mealID uuid.UUID) (*outbound.Location, error) {
	return r.locate(ctx, "meals", mealID)
}

// LocatePreparation returns the owner and date of the day a preparation is
// cooked on
func (r *ScheduleRepository) LocatePreparation(ctx context.Context, prepID uuid.UUID) (*outbound.Location, error) {
	return r.locate(ctx, "preparations", prepID)
}

func (r *ScheduleRepository) locate(ctx context.Context, table string, id uuid.UUID) (*outbound.Location, error) {
	var row locationRow
	err := r.db.WithContext(ctx).
		Table(table).
		Select("schedule_days.user_id AS user_id, schedule_days.date AS date").
		Joins("JOIN schedule_days ON schedule_days.id = "+table+".day_id").
		Where(table+".id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &outbound.Location{UserID: row.UserID, Date: schedule.Date(row.Date.UTC())}, nil
}

// RecipesUsedSince lists one recipe id per preparation cooked on or after
// since. Repeats are kept so callers can count uses.
func (r *ScheduleRepository) RecipesUsedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("preparations").
		Joins("JOIN schedule_days ON schedule_days.id = preparations.day_id").
		Where("preparations.user_id = ? AND schedule_days.date >= ?", userID, schedule.Date(since)).
		Order("preparations.recipe_id").
		Pluck("preparations.recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ShoppingRepository stores shopping list items
type ShoppingRepository struct {
	db *gorm.DB
}

// ListByWeek returns the user's items for a shopping week
func (r *ShoppingRepository) ListByWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]*shopping.Item, error) {
	var models []ShoppingItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, schedule.Date(weekStart)).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*shopping.Item, 0, len(models))
	for i := range models {
		out = append(out, ModelToItem(&models[i]))
	}
	return out, nil
}

// FindByID returns one item
func (r *ShoppingRepository) FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	var model ShoppingItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return ModelToItem(&model), nil
}

// Save upserts items
func (r *ShoppingRepository) Save(ctx context.Context, items ...*shopping.Item) error {
	if len(items) == 0 {
		return nil
	}
	models := make([]*ShoppingItemModel, 0, len(items))
	for _, it := range items {
		models = append(models, ItemToModel(it))
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&models).Error
}

// Delete removes items by id
func (r *ShoppingRepository) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&ShoppingItemModel{}).Error
}

// GenerationLogRepository stores the audit trail of generation runs
type GenerationLogRepository struct {
	db *gorm.DB
}

// Record appends a generation log entry
func (r *GenerationLogRepository) Record(ctx context.Context, entry *schedule.GenerationLog) error {
	return r.db.WithContext(ctx).Create(LogToModel(entry)).Error
}

// ListByUser returns the user's latest entries first. A limit of zero or less
// returns every entry.
func (r *GenerationLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*schedule.GenerationLog, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []GenerationLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*schedule.GenerationLog, 0, len(models))
	for i := range models {
		out = append(out, ModelToLog(&models[i]))
	}
	return out, nil
}

// WeeklyStatsRepository stores weekly confirmation rollups
type WeeklyStatsRepository struct {
	db *gorm.DB
}

// Save creates or replaces the rollup of one week
func (r *WeeklyStatsRepository) Save(ctx context.Context, stats *schedule.WeeklyStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(StatsToModel(stats)).Error
}

// Find returns the rollup of one week
func (r *WeeklyStatsRepository) Find(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*schedule.WeeklyStats, error) {
	var model WeeklyStatsModel
	if err := r.db.WithContext(ctx).
		First(&model, "user_id = ? AND week_start = ?", userID, schedule.Date(weekStart)).Error; err != nil {
		return nil, notFound(err)
	}
	return ModelToStats(&model), nil
}
