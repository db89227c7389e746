package models

import "time"

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

type Meal struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Date        time.Time `gorm:"type:date;not null;index" json:"date"`
	MealType    MealType  `gorm:"size:20;not null" json:"meal_type"`
	Title       string    `gorm:"size:150;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   uint64    `json:"created_by"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MealInput struct {
	Date        time.Time `json:"date" binding:"required"`
	MealType    MealType  `json:"meal_type" binding:"required,oneof=breakfast lunch dinner snack"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
}

type ShortageStatus string

const (
	ShortagePending  ShortageStatus = "pending"
	ShortageResolved ShortageStatus = "resolved"
)

// Shortage is an item someone noticed is running out at home.
type Shortage struct {
	ID         uint64         `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Quantity   string         `gorm:"size:50" json:"quantity"`
	Notes      string         `gorm:"type:text" json:"notes"`
	ProductID  *uint64        `json:"product_id"`
	ReportedBy uint64         `gorm:"not null" json:"reported_by"`
	Status     ShortageStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ResolvedBy *uint64        `json:"resolved_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	Reporter *User `gorm:"foreignKey:ReportedBy" json:"reporter,omitempty"`
}

type ShortageInput struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  string  `json:"quantity"`
	Notes     string  `json:"notes"`
	ProductID *uint64 `json:"product_id"`
}
