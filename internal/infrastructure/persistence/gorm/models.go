// Package gorm provides GORM model definitions and repositories for the
// planner's schedule, shopping list and catalog tables
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for planner users
type UserModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	IsActive  bool      `gorm:"default:true;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// IngredientModel represents the GORM model for catalog ingredients
type IngredientModel struct {
	ID            uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Name          string      `gorm:"type:varchar(255);not null"`
	Tags          StringSlice `gorm:"type:json"`
	CanonicalUnit string      `gorm:"type:varchar(20);not null"`
	Decimals      int         `gorm:"default:2"`
}

// RecipeModel represents the GORM model for catalog recipes
type RecipeModel struct {
	ID        uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Slug      string      `gorm:"type:varchar(255);uniqueIndex;not null"`
	Title     string      `gorm:"type:varchar(255);not null"`
	MealTypes StringSlice `gorm:"type:json"`
	DietTypes IntSlice    `gorm:"type:json"`
	Priority  int         `gorm:"default:0"`
	Active    bool        `gorm:"default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredientModel is one per-serving ingredient line of a recipe
type RecipeIngredientModel struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID         uuid.UUID `gorm:"type:char(36);not null;index"`
	IngredientID     uuid.UUID `gorm:"type:char(36);not null;index"`
	Name             string    `gorm:"type:varchar(255)"`
	AmountPerServing float64   `gorm:"not null"`
	Unit             string    `gorm:"type:varchar(20);not null"`
	Position         int       `gorm:"default:0"`
}

// RecipeVoteModel represents a user's standing vote on a recipe
type RecipeVoteModel struct {
	UserID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Value    string    `gorm:"type:varchar(10);not null"`
	VotedAt  time.Time
}

// PrepPlanModel is the header row of a user's prep plan
type PrepPlanModel struct {
	UserID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	TargetDays int       `gorm:"not null"`
	DietType   int       `gorm:"not null"`
	UpdatedAt  time.Time

	// Relationships
	Generators []PlanGeneratorModel `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

// PlanGeneratorModel is a plan row that cooks a batch
type PlanGeneratorModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Weekday  int       `gorm:"not null"`
	MealType string    `gorm:"type:varchar(20);not null"`

	// Relationships
	Consumers []PlanConsumerModel `gorm:"foreignKey:GeneratorID;constraint:OnDelete:CASCADE"`
}

// PlanConsumerModel is a plan row that eats from a generator's batch
type PlanConsumerModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	GeneratorID uuid.UUID `gorm:"type:char(36);not null;index"`
	Weekday     int       `gorm:"not null"`
	MealType    string    `gorm:"type:varchar(20);not null"`
	Servings    int       `gorm:"not null"`
}

// ScheduleDayModel represents one calendar day of a user's schedule
type ScheduleDayModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_schedule_day_user_date"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_schedule_day_user_date"`
	DietType  int       `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PreparationModel represents a cooking event
type PreparationModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index"`
	DayID     uuid.UUID `gorm:"type:char(36);not null;index"`
	MealType  string    `gorm:"type:varchar(20);not null"`
	RecipeID  uuid.UUID `gorm:"type:char(36);not null;index"`
	Servings  int       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealModel represents an eating event
type MealModel struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID  `gorm:"type:char(36);not null;index"`
	DayID         uuid.UUID  `gorm:"type:char(36);not null;index"`
	PreparationID *uuid.UUID `gorm:"type:char(36);index"` // nil for meals without a preparation
	MealType      string     `gorm:"type:varchar(20);not null"`
	RecipeID      uuid.UUID  `gorm:"type:char(36);not null"`
	Servings      int        `gorm:"not null"`
	IsLeftover    bool       `gorm:"default:false"`
	IsChallenge   bool       `gorm:"default:false"`
	Status        string     `gorm:"type:varchar(20);default:'UNSET'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ShoppingItemModel represents one shopping list row
type ShoppingItemModel struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID  `gorm:"type:char(36);not null;index:idx_shopping_user_week"`
	WeekStart     time.Time  `gorm:"not null;index:idx_shopping_user_week"`
	IngredientID  uuid.UUID  `gorm:"type:char(36);not null"`
	Quantity      float64    `gorm:"not null"`
	Unit          string     `gorm:"type:varchar(20);not null"`
	Checked       bool       `gorm:"default:false"`
	ManuallyAdded bool       `gorm:"default:false"`
	PreparationID *uuid.UUID `gorm:"type:char(36);index"` // nil for the unused pool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GenerationLogModel is the audit row of one generation run
type GenerationLogModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Start     time.Time `gorm:"column:range_start;not null"`
	End       time.Time `gorm:"column:range_end;not null"`
	Unfilled  SlotList  `gorm:"type:json"`
	CreatedAt time.Time `gorm:"index"`
}

// WeeklyStatsModel is one user's confirmation rollup for one week
type WeeklyStatsModel struct {
	UserID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	WeekStart    time.Time `gorm:"primaryKey"`
	Planned      int
	ConfirmedYes int
	ConfirmedNo  int
	Unset        int
	ComputedAt   time.Time
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&IngredientModel{},
		&RecipeModel{},
		&RecipeIngredientModel{},
		&RecipeVoteModel{},
		&PrepPlanModel{},
		&PlanGeneratorModel{},
		&PlanConsumerModel{},
		&ScheduleDayModel{},
		&PreparationModel{},
		&MealModel{},
		&ShoppingItemModel{},
		&GenerationLogModel{},
		&WeeklyStatsModel{},
	}
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	return scanJSON(value, s, func() { *s = StringSlice{} })
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// IntSlice custom type for handling int slices in JSON
type IntSlice []int

// Scan implements the sql.Scanner interface
func (s *IntSlice) Scan(value interface{}) error {
	return scanJSON(value, s, func() { *s = IntSlice{} })
}

// Value implements the driver.Valuer interface
func (s IntSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// SlotJSON is the stored form of an unfilled slot
type SlotJSON struct {
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
}

// SlotList custom type for handling unfilled slots in JSON
type SlotList []SlotJSON

// Scan implements the sql.Scanner interface
func (s *SlotList) Scan(value interface{}) error {
	return scanJSON(value, s, func() { *s = SlotList{} })
}

// Value implements the driver.Valuer interface
func (s SlotList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func scanJSON(value interface{}, dst interface{}, empty func()) error {
	switch v := value.(type) {
	case nil:
		empty()
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dst)
	}
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeIngredientModel
func (r *RecipeIngredientModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanGeneratorModel
func (g *PlanGeneratorModel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanConsumerModel
func (c *PlanConsumerModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (UserModel) TableName() string {
	return "users"
}

func (IngredientModel) TableName() string {
	return "ingredients"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}

func (RecipeVoteModel) TableName() string {
	return "recipe_votes"
}

func (PrepPlanModel) TableName() string {
	return "prep_plans"
}

func (PlanGeneratorModel) TableName() string {
	return "prep_plan_generators"
}

func (PlanConsumerModel) TableName() string {
	return "prep_plan_consumers"
}

func (ScheduleDayModel) TableName() string {
	return "schedule_days"
}

func (PreparationModel) TableName() string {
	return "preparations"
}

func (MealModel) TableName() string {
	return "meals"
}

func (ShoppingItemModel) TableName() string {
	return "shopping_list_items"
}

func (GenerationLogModel) TableName() string {
	return "generation_logs"
}

func (WeeklyStatsModel) TableName() string {
	return "weekly_stats"
}
