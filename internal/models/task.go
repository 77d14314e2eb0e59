package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimestampPrecision is the finest time resolution every supported store keeps.
const TimestampPrecision = time.Millisecond

// Timestamp normalizes t to UTC at store precision, so a value written to the
// store reads back unchanged.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the three known statuses. Any status may
// move to any other; there is no transition guard.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `gorm:"primarykey;type:varchar(36)" json:"id"`
	OwnerID     string       `gorm:"type:varchar(128);not null;index:idx_tasks_owner_created,priority:1" json:"ownerId"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	CreatedAt   time.Time    `gorm:"index:idx_tasks_owner_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// BeforeCreate assigns the store-generated identifier.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
