package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts exactly "1", "2" or "3".
func ParsePriority(raw string) (Priority, bool) {
	switch raw {
	case "1":
		return PriorityHigh, true
	case "2":
		return PriorityMedium, true
	case "3":
		return PriorityLow, true
	}
	return 0, false
}

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	}
	return "Priority(" + strconv.Itoa(int(p)) + ")"
}

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text;not null"`
	DueDate     time.Time `gorm:"not null;index"`
	Priority    Priority  `gorm:"not null;default:2"`
	IsCompleted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Priority == 0 {
		t.Priority = PriorityMedium
	}
	return nil
}

// IsOverdue reports whether an incomplete task is past its due date at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted && t.DueDate.Before(now)
}
