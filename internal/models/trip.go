package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripPending   TripStatus = "pending"
	TripApproved  TripStatus = "approved"
	TripRejected  TripStatus = "rejected"
	TripStarted   TripStatus = "started"
	TripWaiting   TripStatus = "waiting"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

func (s TripStatus) Terminal() bool {
	return s == TripRejected || s == TripCompleted || s == TripCancelled
}

type Trip struct {
	ID                uint64     `gorm:"primaryKey" json:"id"`
	CreatedBy         uint64     `gorm:"not null;index" json:"created_by"`
	ApprovedBy        *uint64    `json:"approved_by"`
	AssignedDriver    *uint64    `gorm:"index" json:"assigned_driver"`
	VehicleID         *uint64    `json:"vehicle_id"`
	Location          string     `gorm:"size:255" json:"location"`
	Purpose           string     `gorm:"size:255" json:"purpose"`
	Notes             string     `gorm:"type:text" json:"notes"`
	IsPersonal        bool       `gorm:"default:false" json:"is_personal"`
	DepartureTime     time.Time  `gorm:"not null;index" json:"departure_time"`
	EstimatedDuration int        `gorm:"not null;default:30" json:"estimated_duration"` // minutes
	Status            TripStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	StartedAt         *time.Time `json:"started_at"`
	WaitingStartedAt  *time.Time `json:"waiting_started_at"`
	WaitingDuration   int64      `gorm:"not null;default:0" json:"waiting_duration"` // seconds, only grows
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Creator *User    `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Driver  *User    `gorm:"foreignKey:AssignedDriver" json:"driver,omitempty"`
}

// Window returns the scheduled [departure, departure+duration) interval.
func (t Trip) Window() TimeWindow {
	return NewTimeWindow(t.DepartureTime, t.EstimatedDuration)
}

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeWindow(start time.Time, minutes int) TimeWindow {
	return TimeWindow{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// Overlaps uses half-open intervals: touching windows do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

type Vehicle struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	PlateNumber string    `gorm:"size:30;uniqueIndex" json:"plate_number"`
	Model       string    `gorm:"size:100" json:"model"`
	Year        int       `json:"year"`
	Mileage     int       `json:"mileage"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Technician struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Specialty string    `gorm:"size:100" json:"specialty"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SparePart struct {
	ID           uint64          `gorm:"primaryKey" json:"id"`
	VehicleID    uint64          `gorm:"not null;index" json:"vehicle_id"`
	TechnicianID *uint64         `json:"technician_id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	PartNumber   string          `gorm:"size:50" json:"part_number"`
	Quantity     int             `gorm:"default:1" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	InstalledAt  *time.Time      `json:"installed_at"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Vehicle    *Vehicle    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Technician *Technician `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

type CreateTripInput struct {
	Location          string    `json:"location"`
	Purpose           string    `json:"purpose"`
	Notes             string    `json:"notes"`
	IsPersonal        bool      `json:"is_personal"`
	VehicleID         *uint64   `json:"vehicle_id"`
	AssignedDriver    *uint64   `json:"assigned_driver"`
	DepartureTime     time.Time `json:"departure_time" binding:"required"` // Format: 2025-11-20T08:00:00Z
	EstimatedDuration int       `json:"estimated_duration" binding:"required,min=1,max=1440"`
}

type UpdateTripInput struct {
	Location          *string    `json:"location"`
	Purpose           *string    `json:"purpose"`
	Notes             *string    `json:"notes"`
	VehicleID         *uint64    `json:"vehicle_id"`
	AssignedDriver    *uint64    `json:"assigned_driver"`
	DepartureTime     *time.Time `json:"departure_time"`
	EstimatedDuration *int       `json:"estimated_duration" binding:"omitempty,min=1,max=1440"`
}

type UpdateTripStatusInput struct {
	Status TripStatus `json:"status" binding:"required,oneof=approved rejected started waiting completed cancelled"`
}

type VehicleInput struct {
	Name        string `json:"name" binding:"required"`
	PlateNumber string `json:"plate_number" binding:"required"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Mileage     int    `json:"mileage"`
}

type TechnicianInput struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
	Notes     string `json:"notes"`
}

type SparePartInput struct {
	VehicleID    uint64          `json:"vehicle_id" binding:"required"`
	TechnicianID *uint64         `json:"technician_id"`
	Name         string          `json:"name" binding:"required"`
	PartNumber   string          `json:"part_number"`
	Quantity     int             `json:"quantity" binding:"omitempty,min=1"`
	Price        decimal.Decimal `json:"price"`
	InstalledAt  *time.Time      `json:"installed_at"`
	Notes        string          `json:"notes"`
}
