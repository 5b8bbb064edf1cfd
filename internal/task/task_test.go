package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"Medium", PriorityMedium, false},
		{"  HIGH  ", PriorityHigh, false},
		{"urgent", PriorityUrgent, false},
		{"", "", true},
		{"critical", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePriority(%q): expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriority(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPriorityLabel(t *testing.T) {
	if got := PriorityUrgent.Label(); got != "Urgent" {
		t.Errorf("Label: got %q, want Urgent", got)
	}
	if got := Priority("").Label(); got != "?" {
		t.Errorf("Label on empty priority: got %q, want ?", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.Year != 2024 || d.Month != time.February || d.Day != 29 {
		t.Errorf("ParseDate: got %v", d)
	}

	for _, bad := range []string{"", "2024-13-01", "02/01/2024", "tomorrow"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q): expected error", bad)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 5}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"2024-03-05"` {
		t.Errorf("Marshal: got %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != d {
		t.Errorf("round trip: got %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"not-a-date"`), &back); err == nil {
		t.Error("Unmarshal of invalid date: expected error")
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := Date{Year: 2024, Month: time.June, Day: 14}
	today := Date{Year: 2024, Month: time.June, Day: 15}
	tomorrow := Date{Year: 2024, Month: time.June, Day: 16}

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{}, false},
		{"due yesterday", Task{DueDate: &yesterday}, true},
		{"due today", Task{DueDate: &today}, false},
		{"due tomorrow", Task{DueDate: &tomorrow}, false},
		{"completed overdue", Task{DueDate: &yesterday, Completed: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Overdue(now); got != tt.want {
				t.Errorf("Overdue: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletedToday(t *testing.T) {
	now := time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	dayBefore := time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"pending", Task{}, false},
		{"completed today", Task{Completed: true, CompletedAt: &sameDay}, true},
		{"completed yesterday", Task{Completed: true, CompletedAt: &dayBefore}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.CompletedToday(now); got != tt.want {
				t.Errorf("CompletedToday: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	now := time.Now().UTC()
	valid := Task{
		ID:        1,
		Title:     "Test",
		Priority:  PriorityLow,
		Category:  DefaultCategory,
		CreatedAt: now,
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr bool
	}{
		{"valid", func(*Task) {}, false},
		{"zero id", func(tk *Task) { tk.ID = 0 }, true},
		{"empty title", func(tk *Task) { tk.Title = "  " }, true},
		{"bad priority", func(tk *Task) { tk.Priority = "critical" }, true},
		{"empty category", func(tk *Task) { tk.Category = "" }, true},
		{"zero created_at", func(tk *Task) { tk.CreatedAt = time.Time{} }, true},
		{"completed without completed_at", func(tk *Task) { tk.Completed = true }, true},
		{"pending with completed_at", func(tk *Task) { tk.CompletedAt = &now }, true},
		{"completed with completed_at", func(tk *Task) {
			tk.Completed = true
			tk.CompletedAt = &now
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := valid
			tt.mutate(&tk)
			err := tk.Validate("tasks[0]")
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	tk := Task{ID: 1, Priority: PriorityLow, Category: "x", CreatedAt: time.Now()}
	err := tk.Validate("")
	if err == nil {
		t.Fatal("expected error for empty title")
	}
	if err.Field != "title" {
		t.Errorf("Field: got %q, want title", err.Field)
	}
	if err.Unwrap() == nil {
		t.Error("Unwrap returned nil")
	}
}
