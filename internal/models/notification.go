package models

import "time"

// Section groups notifications for the dashboard badges.
type Section string

const (
	SectionHome         Section = "home"
	SectionGroceries    Section = "groceries"
	SectionLogistics    Section = "logistics"
	SectionHousekeeping Section = "housekeeping"
)

var Sections = []Section{SectionHome, SectionGroceries, SectionLogistics, SectionHousekeeping}

func (s Section) Valid() bool {
	for _, v := range Sections {
		if v == s {
			return true
		}
	}
	return false
}

type Notification struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_notif_user_section" json:"user_id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Section   Section   `gorm:"size:20;not null;index:idx_notif_user_section" json:"section"`
	URL       string    `gorm:"size:255" json:"url"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// PushSubscription mirrors the browser PushSubscription JSON.
type PushSubscription struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Endpoint  string    `gorm:"size:500;uniqueIndex;not null" json:"endpoint"`
	P256dh    string    `gorm:"size:255;not null" json:"p256dh"`
	Auth      string    `gorm:"size:255;not null" json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

type PushSubscribeInput struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

type PushUnsubscribeInput struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// All returns every model for AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Vehicle{},
		&Technician{},
		&Trip{},
		&SparePart{},
		&Room{},
		&HousekeepingTask{},
		&LaundryRequest{},
		&Meal{},
		&Shortage{},
		&Notification{},
		&PushSubscription{},
	}
}
