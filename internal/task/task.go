// Package task defines the task record and its field types.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority represents a task urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns all priority levels in ascending urgency order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// ParsePriority parses a priority name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "urgent":
		return PriorityUrgent, nil
	default:
		return "", fmt.Errorf("invalid priority %q, must be one of: low, medium, high, urgent", s)
	}
}

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Label returns the display name for the priority.
func (p Priority) Label() string {
	if p == "" {
		return "?"
	}
	return strings.ToUpper(string(p[0])) + string(p[1:])
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
// It marshals to an ISO-8601 date string.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO-8601 date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DefaultCategory is used when a task is created without a category.
const DefaultCategory = "General"

// Task represents a single tracked task.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *Date      `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == 0
}

// Overdue reports whether the task is pending and its due date has passed.
// Tasks without a due date are never overdue.
func (t *Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(DateOf(now))
}

// CompletedToday reports whether the task was completed on now's calendar day.
func (t *Task) CompletedToday(now time.Time) bool {
	if !t.Completed || t.CompletedAt == nil {
		return false
	}
	return DateOf(t.CompletedAt.Local()) == DateOf(now)
}

// ValidationError represents an invalid task field with context.
type ValidationError struct {
	Field string // field name, optionally prefixed with a record path
	Err   error  // underlying error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the task's invariants. The path prefixes field names in
// returned errors, e.g. "tasks[3]".
func (t *Task) Validate(path string) *ValidationError {
	if path != "" {
		path += "."
	}

	if t.ID <= 0 {
		return &ValidationError{
			Field: path + "id",
			Err:   fmt.Errorf("must be a positive integer, got %d", t.ID),
		}
	}

	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{
			Field: path + "title",
			Err:   fmt.Errorf("must not be empty"),
		}
	}

	if !t.Priority.Valid() {
		return &ValidationError{
			Field: path + "priority",
			Err:   fmt.Errorf("invalid priority %q, must be one of: low, medium, high, urgent", t.Priority),
		}
	}

	if t.Category == "" {
		return &ValidationError{
			Field: path + "category",
			Err:   fmt.Errorf("must not be empty"),
		}
	}

	if t.CreatedAt.IsZero() {
		return &ValidationError{
			Field: path + "created_at",
			Err:   fmt.Errorf("missing required field"),
		}
	}

	// completed_at is present iff completed is true
	if t.Completed && t.CompletedAt == nil {
		return &ValidationError{
			Field: path + "completed_at",
			Err:   fmt.Errorf("missing for completed task"),
		}
	}
	if !t.Completed && t.CompletedAt != nil {
		return &ValidationError{
			Field: path + "completed_at",
			Err:   fmt.Errorf("set on pending task"),
		}
	}

	return nil
}
