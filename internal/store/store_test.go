package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nibzard/taskdeck/internal/task"
)

func fixedClock() func() time.Time {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestAddThenGet(t *testing.T) {
	st := New(nil, 1, WithClock(fixedClock()))

	due := task.Date{Year: 2024, Month: time.July, Day: 1}
	added, err := st.Add("Buy milk", "two liters", task.PriorityLow, "Personal", &due)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := st.Get(added.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("ID: got %d, want 1", got.ID)
	}
	if got.Title != "Buy milk" || got.Description != "two liters" {
		t.Errorf("fields: got %q / %q", got.Title, got.Description)
	}
	if got.Priority != task.PriorityLow || got.Category != "Personal" {
		t.Errorf("fields: got %q / %q", got.Priority, got.Category)
	}
	if got.DueDate == nil || *got.DueDate != due {
		t.Errorf("DueDate: got %v, want %v", got.DueDate, due)
	}
	if got.Completed {
		t.Error("new task must not be completed")
	}
	if got.CompletedAt != nil {
		t.Error("new task must not have completed_at")
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestAddValidation(t *testing.T) {
	st := New(nil, 1)

	var verr *task.ValidationError
	if _, err := st.Add("   ", "", task.PriorityLow, "", nil); !errors.As(err, &verr) {
		t.Errorf("empty title: got %v, want ValidationError", err)
	}
	if _, err := st.Add("ok", "", "critical", "", nil); !errors.As(err, &verr) {
		t.Errorf("bad priority: got %v, want ValidationError", err)
	}
	if st.Len() != 0 {
		t.Errorf("store mutated on invalid input: %d tasks", st.Len())
	}
}

func TestAddDefaultsCategory(t *testing.T) {
	st := New(nil, 1)
	added, err := st.Add("ok", "", task.PriorityMedium, "  ", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.Category != task.DefaultCategory {
		t.Errorf("Category: got %q, want %q", added.Category, task.DefaultCategory)
	}
}

func TestToggleCompleteTwice(t *testing.T) {
	st := New(nil, 1, WithClock(fixedClock()))
	added, err := st.Add("t", "", task.PriorityLow, "", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	done, err := st.ToggleComplete(added.ID)
	if err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Errorf("first toggle: completed=%v completed_at=%v", done.Completed, done.CompletedAt)
	}

	back, err := st.ToggleComplete(added.ID)
	if err != nil {
		t.Fatalf("second ToggleComplete failed: %v", err)
	}
	if back.Completed {
		t.Error("second toggle must reopen the task")
	}
	if back.CompletedAt != nil {
		t.Error("second toggle must clear completed_at")
	}
}

func TestToggleCompleteNotFound(t *testing.T) {
	st := New(nil, 1)
	if _, err := st.ToggleComplete(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteThenGet(t *testing.T) {
	st := New(nil, 1)
	added, err := st.Add("t", "", task.PriorityLow, "", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := st.Delete(added.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.Get(added.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := st.Delete(added.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	st := New(nil, 1)
	first, _ := st.Add("a", "", task.PriorityLow, "", nil)
	if err := st.Delete(first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	second, _ := st.Add("b", "", task.PriorityLow, "", nil)
	if second.ID == first.ID {
		t.Errorf("id %d reused after delete", first.ID)
	}
}

func TestUpdatePartial(t *testing.T) {
	st := New(nil, 1)
	added, _ := st.Add("old title", "old description", task.PriorityLow, "Work", nil)

	title := "new title"
	pri := task.PriorityUrgent
	got, err := st.Update(added.ID, Update{Title: &title, Priority: &pri})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got.Title != "new title" {
		t.Errorf("Title: got %q", got.Title)
	}
	if got.Priority != task.PriorityUrgent {
		t.Errorf("Priority: got %q", got.Priority)
	}
	// untouched fields keep their values
	if got.Description != "old description" {
		t.Errorf("Description changed: got %q", got.Description)
	}
	if got.Category != "Work" {
		t.Errorf("Category changed: got %q", got.Category)
	}
}

func TestUpdateDueDate(t *testing.T) {
	st := New(nil, 1)
	due := task.Date{Year: 2024, Month: time.July, Day: 1}
	added, _ := st.Add("t", "", task.PriorityLow, "", &due)

	later := task.Date{Year: 2024, Month: time.August, Day: 2}
	got, err := st.Update(added.ID, Update{DueDate: &later})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.DueDate == nil || *got.DueDate != later {
		t.Errorf("DueDate: got %v, want %v", got.DueDate, later)
	}

	got, err = st.Update(added.ID, Update{ClearDue: true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate not cleared: %v", got.DueDate)
	}
}

func TestUpdateValidation(t *testing.T) {
	st := New(nil, 1)
	added, _ := st.Add("t", "", task.PriorityLow, "", nil)

	empty := " "
	var verr *task.ValidationError
	if _, err := st.Update(added.ID, Update{Title: &empty}); !errors.As(err, &verr) {
		t.Errorf("empty title: got %v, want ValidationError", err)
	}

	if _, err := st.Update(99, Update{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestListFilter(t *testing.T) {
	st := New(nil, 1)
	a, _ := st.Add("a", "", task.PriorityLow, "", nil)
	st.Add("b", "", task.PriorityLow, "", nil)
	if _, err := st.ToggleComplete(a.ID); err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}

	if got := len(st.List(FilterAll)); got != 2 {
		t.Errorf("all: got %d, want 2", got)
	}
	pending := st.List(FilterPending)
	if len(pending) != 1 || pending[0].Title != "b" {
		t.Errorf("pending: got %v", pending)
	}
	completed := st.List(FilterCompleted)
	if len(completed) != 1 || completed[0].Title != "a" {
		t.Errorf("completed: got %v", completed)
	}
}

func TestListInsertionOrder(t *testing.T) {
	st := New(nil, 1)
	for _, title := range []string{"first", "second", "third"} {
		if _, err := st.Add(title, "", task.PriorityLow, "", nil); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	got := st.List(FilterAll)
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].Title, want)
		}
	}
}

func TestGroupByCategory(t *testing.T) {
	st := New(nil, 1)
	st.Add("a", "", task.PriorityLow, "Work", nil)
	st.Add("b", "", task.PriorityLow, "Personal", nil)
	st.Add("c", "", task.PriorityLow, "Work", nil)

	groups := GroupByCategory(st.List(FilterAll))
	if len(groups["Work"]) != 2 || len(groups["Personal"]) != 1 {
		t.Errorf("groups: got %v", groups)
	}
	if groups["Work"][0].Title != "a" || groups["Work"][1].Title != "c" {
		t.Error("insertion order not preserved within group")
	}

	keys := SortedCategories(groups)
	if len(keys) != 2 || keys[0] != "Personal" || keys[1] != "Work" {
		t.Errorf("SortedCategories: got %v", keys)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Pending", FilterPending, false},
		{" completed ", FilterCompleted, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFilter(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFilter(%q): got %q, %v", tt.input, got, err)
		}
	}
}

func TestSaverCalledOnMutations(t *testing.T) {
	calls := 0
	var lastTasks []task.Task
	saver := func(tasks []task.Task, nextID int) error {
		calls++
		lastTasks = tasks
		return nil
	}

	st := New(nil, 1, WithSaver(saver))
	added, _ := st.Add("a", "", task.PriorityLow, "", nil)
	st.ToggleComplete(added.ID)
	title := "b"
	st.Update(added.ID, Update{Title: &title})
	st.Delete(added.ID)

	if calls != 4 {
		t.Errorf("saver calls: got %d, want 4", calls)
	}
	if len(lastTasks) != 0 {
		t.Errorf("final snapshot: got %d tasks, want 0", len(lastTasks))
	}

	// reads must not persist
	st.List(FilterAll)
	st.Tasks()
	if calls != 4 {
		t.Errorf("saver called on read: %d calls", calls)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	saveErr := fmt.Errorf("disk full")
	st := New(nil, 1, WithSaver(func([]task.Task, int) error { return saveErr }))

	added, err := st.Add("a", "", task.PriorityLow, "", nil)
	if !errors.Is(err, saveErr) {
		t.Errorf("Add: got %v, want wrapped save error", err)
	}
	// the in-memory store stays the source of truth
	if _, err := st.Get(added.ID); err != nil {
		t.Errorf("task lost after failed save: %v", err)
	}
}

func TestNewClampsNextID(t *testing.T) {
	seed := []task.Task{
		{ID: 7, Title: "x", Priority: task.PriorityLow, Category: "c", CreatedAt: time.Now()},
	}
	st := New(seed, 3)
	if st.NextID() != 8 {
		t.Errorf("NextID: got %d, want 8", st.NextID())
	}

	added, _ := st.Add("y", "", task.PriorityLow, "", nil)
	if added.ID != 8 {
		t.Errorf("assigned id: got %d, want 8", added.ID)
	}
}
