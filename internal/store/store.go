// Package store holds the in-memory task collection and its mutations.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/taskdeck/internal/task"
)

// ErrNotFound is returned for operations on an id absent from the store.
var ErrNotFound = errors.New("task not found")

// Filter selects which tasks List returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter parses a filter name, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "pending":
		return FilterPending, nil
	case "completed":
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("invalid filter %q, must be one of: all, pending, completed", s)
	}
}

// Saver persists a snapshot of the store after each mutation.
type Saver func(tasks []task.Task, nextID int) error

// Store is an ordered collection of tasks keyed by id.
// Insertion order is preserved for listing. Ids are assigned from a
// monotonic counter and never reused, even after deletes.
type Store struct {
	tasks  []task.Task
	nextID int
	saver  Saver
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSaver sets the persistence hook called after every mutation.
func WithSaver(s Saver) Option {
	return func(st *Store) {
		st.saver = s
	}
}

// WithClock overrides the time source. Useful for testing.
func WithClock(now func() time.Time) Option {
	return func(st *Store) {
		st.now = now
	}
}

// New creates a store seeded with existing tasks and an id counter.
// nextID is clamped so it can never collide with a seeded task.
func New(tasks []task.Task, nextID int, opts ...Option) *Store {
	st := &Store{
		tasks:  append([]task.Task(nil), tasks...),
		nextID: nextID,
		now:    time.Now,
	}
	if st.nextID < 1 {
		st.nextID = 1
	}
	for _, t := range st.tasks {
		if t.ID >= st.nextID {
			st.nextID = t.ID + 1
		}
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Len returns the number of tasks in the store.
func (s *Store) Len() int {
	return len(s.tasks)
}

// NextID returns the id the next added task will receive.
func (s *Store) NextID() int {
	return s.nextID
}

// Tasks returns a copy of all tasks in insertion order.
func (s *Store) Tasks() []task.Task {
	return append([]task.Task(nil), s.tasks...)
}

// Add validates and appends a new task, assigns it the next id, and persists.
func (s *Store) Add(title, description string, pri task.Priority, category string, due *task.Date) (task.Task, error) {
	if strings.TrimSpace(title) == "" {
		return task.Task{}, &task.ValidationError{
			Field: "title",
			Err:   fmt.Errorf("must not be empty"),
		}
	}
	if !pri.Valid() {
		return task.Task{}, &task.ValidationError{
			Field: "priority",
			Err:   fmt.Errorf("invalid priority %q", pri),
		}
	}
	if strings.TrimSpace(category) == "" {
		category = task.DefaultCategory
	}

	t := task.Task{
		ID:          s.nextID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    pri,
		Category:    strings.TrimSpace(category),
		DueDate:     due,
		CreatedAt:   s.now().UTC(),
	}

	s.tasks = append(s.tasks, t)
	s.nextID++

	if err := s.persist(); err != nil {
		return t, err
	}
	return t, nil
}

// Update describes a partial task edit. Nil fields are left unchanged.
type Update struct {
	Title       *string
	Description *string
	Priority    *task.Priority
	Category    *string
	DueDate     *task.Date
	ClearDue    bool
}

// Update applies the provided field changes to the task with the given id
// and persists. Fields left nil in upd keep their current values.
func (s *Store) Update(id int, upd Update) (task.Task, error) {
	i := s.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("update task %d: %w", id, ErrNotFound)
	}

	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return task.Task{}, &task.ValidationError{
			Field: "title",
			Err:   fmt.Errorf("must not be empty"),
		}
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return task.Task{}, &task.ValidationError{
			Field: "priority",
			Err:   fmt.Errorf("invalid priority %q", *upd.Priority),
		}
	}

	t := &s.tasks[i]
	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		t.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Category != nil {
		category := strings.TrimSpace(*upd.Category)
		if category == "" {
			category = task.DefaultCategory
		}
		t.Category = category
	}
	if upd.ClearDue {
		t.DueDate = nil
	} else if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}

	if err := s.persist(); err != nil {
		return *t, err
	}
	return *t, nil
}

// ToggleComplete flips the task's completed flag, stamping completed_at on
// completion and clearing it on reopen, then persists.
func (s *Store) ToggleComplete(id int) (task.Task, error) {
	i := s.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("toggle task %d: %w", id, ErrNotFound)
	}

	t := &s.tasks[i]
	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
	} else {
		now := s.now().UTC()
		t.Completed = true
		t.CompletedAt = &now
	}

	if err := s.persist(); err != nil {
		return *t, err
	}
	return *t, nil
}

// Delete removes the task with the given id and persists.
func (s *Store) Delete(id int) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.persist()
}

// Get returns the task with the given id.
func (s *Store) Get(id int) (task.Task, error) {
	i := s.index(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	return s.tasks[i], nil
}

// List returns tasks matching the filter, in insertion order.
func (s *Store) List(filter Filter) []task.Task {
	var out []task.Task
	for _, t := range s.tasks {
		switch filter {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// GroupByCategory groups tasks by category, preserving insertion order
// within each group.
func GroupByCategory(tasks []task.Task) map[string][]task.Task {
	groups := make(map[string][]task.Task)
	for _, t := range tasks {
		groups[t.Category] = append(groups[t.Category], t)
	}
	return groups
}

// SortedCategories returns the group keys in alphabetical order.
func SortedCategories(groups map[string][]task.Task) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// index returns the position of the task with the given id, or -1.
func (s *Store) index(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// persist calls the saver hook, if any. The in-memory state is already
// mutated when this runs; a save failure is surfaced to the caller while
// the store remains the source of truth until a later save succeeds.
func (s *Store) persist() error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver(s.Tasks(), s.nextID); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}
