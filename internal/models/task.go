package models

import (
	"strings"
	"time"
)

// TaskType classifies the work a task represents.
type TaskType string

const (
	TaskTypeClean       TaskType = "clean"
	TaskTypeMaintenance TaskType = "maintenance"
	TaskTypeCheckin     TaskType = "checkin"
	TaskTypeCheckout    TaskType = "checkout"
	TaskTypeRefill      TaskType = "refill"
	TaskTypeMessage     TaskType = "message"
	TaskTypeCustom      TaskType = "custom"
)

// TaskTypes lists every accepted TaskType in display order.
var TaskTypes = []TaskType{
	TaskTypeClean,
	TaskTypeMaintenance,
	TaskTypeCheckin,
	TaskTypeCheckout,
	TaskTypeRefill,
	TaskTypeMessage,
	TaskTypeCustom,
}

// Valid reports whether t is one of TaskTypes.
func (t TaskType) Valid() bool {
	for _, v := range TaskTypes {
		if t == v {
			return true
		}
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// DateLayout is the calendar-date format used for due dates on the wire.
const DateLayout = "2006-01-02"

// Task is a unit of work owned by a user and grouped under a listing.
type Task struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ListingID string     `json:"listingId"`
	Title     string     `json:"title"`
	Type      TaskType   `json:"type"`
	Status    TaskStatus `json:"status"`
	Notes     *string    `json:"notes"`
	DueDate   *Date      `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Date is a calendar date without a time-of-day component.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts the formats understood by ParseDate.
func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TaskPriority ranks an extracted draft.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskDraft is a task proposed by the extraction pipeline. It is not persisted.
type TaskDraft struct {
	Title    string       `json:"title"`
	Type     TaskType     `json:"type"`
	DueDate  *string      `json:"dueDate"`
	Priority TaskPriority `json:"priority"`
	Notes    string       `json:"notes"`
}
