package models

import "time"

type Room struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Floor     string    `gorm:"size:30" json:"floor"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskFrequency string

const (
	FrequencyOnce   TaskFrequency = "once"
	FrequencyDaily  TaskFrequency = "daily"
	FrequencyWeekly TaskFrequency = "weekly"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// WeekStart is the first day of the household week.
const WeekStart = time.Saturday

type HousekeepingTask struct {
	ID          uint64        `gorm:"primaryKey" json:"id"`
	RoomID      uint64        `gorm:"not null;index" json:"room_id"`
	Title       string        `gorm:"size:150;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	AssignedTo  *uint64       `gorm:"index" json:"assigned_to"`
	Frequency   TaskFrequency `gorm:"size:10;not null;default:once" json:"frequency"`
	Status      TaskStatus    `gorm:"size:20;not null;default:pending" json:"status"`
	DueDate     *time.Time    `json:"due_date"`
	CompletedAt *time.Time    `json:"completed_at"`
	CompletedBy *uint64       `json:"completed_by"`
	IsActive    bool          `gorm:"default:true" json:"is_active"`
	CreatedBy   uint64        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Room     *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Assignee *User `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

// IsDue reports whether the task needs doing at now. Recurring tasks become due
// again once their last completion falls before the current day or week.
func (t HousekeepingTask) IsDue(now time.Time) bool {
	if t.CompletedAt == nil {
		return true
	}
	switch t.Frequency {
	case FrequencyDaily:
		return t.CompletedAt.Before(startOfDay(now))
	case FrequencyWeekly:
		return t.CompletedAt.Before(startOfWeek(now))
	default:
		return t.Status != TaskCompleted
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

type LaundryStatus string

const (
	LaundryPending    LaundryStatus = "pending"
	LaundryInProgress LaundryStatus = "in_progress"
	LaundryCompleted  LaundryStatus = "completed"
)

type LaundryRequest struct {
	ID          uint64        `gorm:"primaryKey" json:"id"`
	RequestedBy uint64        `gorm:"not null;index" json:"requested_by"`
	RoomID      *uint64       `json:"room_id"`
	Items       string        `gorm:"type:text;not null" json:"items"`
	Notes       string        `gorm:"type:text" json:"notes"`
	PickupDate  time.Time     `json:"pickup_date"`
	Status      LaundryStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	CompletedAt *time.Time    `json:"completed_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Room      *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Requester *User `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
}

type RoomInput struct {
	Name  string `json:"name" binding:"required"`
	Floor string `json:"floor"`
}

type TaskInput struct {
	RoomID      uint64        `json:"room_id" binding:"required"`
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	AssignedTo  *uint64       `json:"assigned_to"`
	Frequency   TaskFrequency `json:"frequency" binding:"omitempty,oneof=once daily weekly"`
	DueDate     *time.Time    `json:"due_date"`
}

type UpdateTaskInput struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	AssignedTo  *uint64        `json:"assigned_to"`
	Frequency   *TaskFrequency `json:"frequency" binding:"omitempty,oneof=once daily weekly"`
	DueDate     *time.Time     `json:"due_date"`
}

type LaundryInput struct {
	RoomID     *uint64   `json:"room_id"`
	Items      string    `json:"items" binding:"required"`
	Notes      string    `json:"notes"`
	PickupDate time.Time `json:"pickup_date" binding:"required"`
}

type LaundryStatusInput struct {
	Status LaundryStatus `json:"status" binding:"required,oneof=in_progress completed"`
}
