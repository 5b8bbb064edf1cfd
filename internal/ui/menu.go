// Package ui provides the interactive menu and terminal interfaces.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskdeck/internal/config"
	"github.com/nibzard/taskdeck/internal/stats"
	"github.com/nibzard/taskdeck/internal/store"
	"github.com/nibzard/taskdeck/internal/task"
)

// Menu is the interactive text menu loop. All input parsing and
// validation happens here; malformed input aborts the action with a
// message and the store is never mutated.
type Menu struct {
	in     *bufio.Scanner
	out    io.Writer
	store  *store.Store
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time
}

// NewMenu creates a menu reading from in and writing to out.
func NewMenu(in io.Reader, out io.Writer, st *store.Store, cfg *config.Config, logger *log.Logger) *Menu {
	return &Menu{
		in:     bufio.NewScanner(in),
		out:    out,
		store:  st,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes the menu loop until the user quits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, titleStyle.Render("taskdeck"))
	fmt.Fprintln(m.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, ok := m.readLine("Choose an option (1-9): ")
		if !ok {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			m.addTask()
		case "2":
			m.listTasks(store.FilterAll)
		case "3":
			m.listTasks(store.FilterPending)
		case "4":
			m.listTasks(store.FilterCompleted)
		case "5":
			m.toggleComplete()
		case "6":
			m.editTask()
		case "7":
			m.deleteTask()
		case "8":
			m.showStatistics()
		case "9", "q", "quit", "exit":
			fmt.Fprintln(m.out, "Bye.")
			return nil
		default:
			fmt.Fprintln(m.out, errorStyle.Render("Invalid choice, select 1-9."))
		}
		fmt.Fprintln(m.out)
	}
}

func (m *Menu) printMenu() {
	fmt.Fprintln(m.out, headerStyle.Render("Menu"))
	fmt.Fprintln(m.out, "  1. Add task")
	fmt.Fprintln(m.out, "  2. View all tasks")
	fmt.Fprintln(m.out, "  3. View pending tasks")
	fmt.Fprintln(m.out, "  4. View completed tasks")
	fmt.Fprintln(m.out, "  5. Toggle complete")
	fmt.Fprintln(m.out, "  6. Edit task")
	fmt.Fprintln(m.out, "  7. Delete task")
	fmt.Fprintln(m.out, "  8. Statistics")
	fmt.Fprintln(m.out, "  9. Quit")
}

// addTask prompts for the fields of a new task and adds it.
func (m *Menu) addTask() {
	fmt.Fprintln(m.out, headerStyle.Render("Add task"))

	title, ok := m.readLine("Title: ")
	if !ok {
		return
	}
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(m.out, errorStyle.Render("Title must not be empty."))
		return
	}

	description, ok := m.readLine("Description (optional): ")
	if !ok {
		return
	}

	pri := m.readPriority(task.PriorityMedium)

	categoryPrompt := fmt.Sprintf("Category (default: %s): ", m.cfg.DefaultCategory)
	category, ok := m.readLine(categoryPrompt)
	if !ok {
		return
	}
	if strings.TrimSpace(category) == "" {
		category = m.cfg.DefaultCategory
	}

	var due *task.Date
	if input, ok := m.readLine("Due date (YYYY-MM-DD, optional): "); ok && strings.TrimSpace(input) != "" {
		d, err := task.ParseDate(input)
		if err != nil {
			// Match the classic behavior: a bad date skips the due
			// date instead of aborting the whole add.
			fmt.Fprintln(m.out, warnStyle.Render("Invalid date format, skipping due date."))
		} else {
			due = &d
		}
	}

	t, err := m.store.Add(title, description, pri, category, due)
	if err != nil {
		m.reportError(err)
		return
	}
	fmt.Fprintf(m.out, "Added task %d: %s\n", t.ID, t.Title)
}

// listTasks prints tasks matching the filter, grouped by category.
func (m *Menu) listTasks(filter store.Filter) {
	tasks := m.store.List(filter)
	if len(tasks) == 0 {
		fmt.Fprintln(m.out, "No tasks found.")
		return
	}

	fmt.Fprintln(m.out, headerStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks))))

	groups := store.GroupByCategory(tasks)
	for _, category := range store.SortedCategories(groups) {
		fmt.Fprintln(m.out, categoryStyle.Render(category))
		for _, t := range groups[category] {
			m.printTask(t)
		}
		fmt.Fprintln(m.out)
	}
}

// printTask prints a single task with its details.
func (m *Menu) printTask(t task.Task) {
	fmt.Fprintf(m.out, "  %s %s %3d. %s%s\n",
		checkbox(t.Completed),
		priorityBadge(t.Priority),
		t.ID,
		t.Title,
		dueInfo(&t, m.now()),
	)
	if t.Description != "" {
		fmt.Fprintf(m.out, "           %s\n", t.Description)
	}
	if t.Completed && t.CompletedAt != nil {
		fmt.Fprintf(m.out, "           completed %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
}

// toggleComplete prompts for a task id and flips its completed state.
func (m *Menu) toggleComplete() {
	m.listTasks(store.FilterAll)
	if m.store.Len() == 0 {
		return
	}

	id, ok := m.readID("Task id to toggle: ")
	if !ok {
		return
	}

	t, err := m.store.ToggleComplete(id)
	if err != nil {
		m.reportError(err)
		return
	}
	if t.Completed {
		fmt.Fprintf(m.out, "Task %d completed.\n", t.ID)
	} else {
		fmt.Fprintf(m.out, "Task %d reopened.\n", t.ID)
	}
}

// editTask prompts for a task id and new field values. Empty input keeps
// the current value; for the due date, "-" clears it.
func (m *Menu) editTask() {
	m.listTasks(store.FilterAll)
	if m.store.Len() == 0 {
		return
	}

	id, ok := m.readID("Task id to edit: ")
	if !ok {
		return
	}
	current, err := m.store.Get(id)
	if err != nil {
		m.reportError(err)
		return
	}

	fmt.Fprintf(m.out, "Editing task %d. Press Enter to keep the current value.\n", current.ID)

	var upd store.Update

	if input, ok := m.readLine(fmt.Sprintf("Title (%s): ", current.Title)); ok && strings.TrimSpace(input) != "" {
		title := strings.TrimSpace(input)
		upd.Title = &title
	}
	if input, ok := m.readLine(fmt.Sprintf("Description (%s): ", current.Description)); ok && strings.TrimSpace(input) != "" {
		description := strings.TrimSpace(input)
		upd.Description = &description
	}

	m.printPriorities(current.Priority)
	if input, ok := m.readLine("Select priority (1-4, Enter to keep): "); ok && strings.TrimSpace(input) != "" {
		if pri, err := priorityFromChoice(input); err != nil {
			fmt.Fprintln(m.out, warnStyle.Render("Invalid priority, keeping current."))
		} else {
			upd.Priority = &pri
		}
	}

	if input, ok := m.readLine(fmt.Sprintf("Category (%s): ", current.Category)); ok && strings.TrimSpace(input) != "" {
		category := strings.TrimSpace(input)
		upd.Category = &category
	}

	duePrompt := "Due date (YYYY-MM-DD, '-' to clear, Enter to keep): "
	if input, ok := m.readLine(duePrompt); ok && strings.TrimSpace(input) != "" {
		if strings.TrimSpace(input) == "-" {
			upd.ClearDue = true
		} else if d, err := task.ParseDate(input); err != nil {
			fmt.Fprintln(m.out, warnStyle.Render("Invalid date format, keeping current."))
		} else {
			upd.DueDate = &d
		}
	}

	t, err := m.store.Update(id, upd)
	if err != nil {
		m.reportError(err)
		return
	}
	fmt.Fprintf(m.out, "Updated task %d: %s\n", t.ID, t.Title)
}

// deleteTask prompts for a task id, confirms, and deletes it.
func (m *Menu) deleteTask() {
	m.listTasks(store.FilterAll)
	if m.store.Len() == 0 {
		return
	}

	id, ok := m.readID("Task id to delete: ")
	if !ok {
		return
	}
	t, err := m.store.Get(id)
	if err != nil {
		m.reportError(err)
		return
	}

	if m.cfg.ConfirmDeletes {
		confirm, ok := m.readLine(fmt.Sprintf("Delete %q? (y/N): ", t.Title))
		if !ok || strings.ToLower(strings.TrimSpace(confirm)) != "y" {
			fmt.Fprintln(m.out, "Cancelled.")
			return
		}
	}

	if err := m.store.Delete(id); err != nil {
		m.reportError(err)
		return
	}
	fmt.Fprintf(m.out, "Deleted task %d: %s\n", t.ID, t.Title)
}

// showStatistics prints aggregate counts for the current store.
func (m *Menu) showStatistics() {
	summary := stats.Collect(m.store.Tasks())
	WriteStatistics(m.out, summary)
}

// WriteStatistics renders a stats summary. Shared with the stats command.
func WriteStatistics(w io.Writer, s stats.Summary) {
	fmt.Fprintln(w, headerStyle.Render("Statistics"))
	if s.Total == 0 {
		fmt.Fprintln(w, "No tasks to analyze.")
		return
	}

	fmt.Fprintf(w, "  Total:     %d\n", s.Total)
	fmt.Fprintf(w, "  Completed: %d\n", s.Completed)
	fmt.Fprintf(w, "  Pending:   %d\n", s.Pending)
	fmt.Fprintf(w, "  Rate:      %.1f%%\n", s.CompletionRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  By priority:")
	for _, p := range task.Priorities() {
		if count := s.ByPriority[p]; count > 0 {
			fmt.Fprintf(w, "    %s %d\n", priorityBadge(p), count)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  By category:")
	categories := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(w, "    %s: %d\n", c, s.ByCategory[c])
	}
}

// readPriority prints the priority levels and reads a selection,
// falling back to def on empty or invalid input.
func (m *Menu) readPriority(def task.Priority) task.Priority {
	m.printPriorities(def)
	input, ok := m.readLine(fmt.Sprintf("Select priority (1-4, default %s): ", def.Label()))
	if !ok || strings.TrimSpace(input) == "" {
		return def
	}
	pri, err := priorityFromChoice(input)
	if err != nil {
		fmt.Fprintf(m.out, "%s\n", warnStyle.Render(fmt.Sprintf("Invalid priority, using %s.", def.Label())))
		return def
	}
	return pri
}

func (m *Menu) printPriorities(current task.Priority) {
	fmt.Fprintln(m.out, "Priority levels:")
	for i, p := range task.Priorities() {
		marker := ""
		if p == current {
			marker = "  (current)"
		}
		fmt.Fprintf(m.out, "  %d. %s%s\n", i+1, priorityBadge(p), marker)
	}
}

// priorityFromChoice maps a 1-based menu selection to a priority.
func priorityFromChoice(input string) (task.Priority, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("invalid priority selection %q", input)
	}
	levels := task.Priorities()
	if n < 1 || n > len(levels) {
		return "", fmt.Errorf("priority selection out of range: %d", n)
	}
	return levels[n-1], nil
}

// readID reads and parses a task id.
func (m *Menu) readID(prompt string) (int, bool) {
	input, ok := m.readLine(prompt)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		fmt.Fprintln(m.out, errorStyle.Render("Enter a numeric task id."))
		return 0, false
	}
	return id, true
}

// readLine prints a prompt and reads one line. The second return value is
// false when input has ended.
func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

// reportError prints a user-facing message for a failed store operation.
// Save failures leave the in-memory store as the source of truth, so they
// are reported without discarding the change.
func (m *Menu) reportError(err error) {
	var verr *task.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(m.out, errorStyle.Render("Task not found."))
	case errors.As(err, &verr):
		fmt.Fprintln(m.out, errorStyle.Render("Invalid input: "+verr.Error()))
	default:
		m.logger.Error("operation failed", "err", err)
		fmt.Fprintln(m.out, errorStyle.Render("Could not save tasks; changes are kept in memory. Fix the problem and try again."))
	}
}

// dueInfo formats the due date suffix for a task line.
func dueInfo(t *task.Task, now time.Time) string {
	if t.DueDate == nil {
		return ""
	}
	if t.Overdue(now) {
		return overdueStyle.Render(fmt.Sprintf("  due %s (overdue)", t.DueDate))
	}
	return fmt.Sprintf("  due %s", t.DueDate)
}

func checkbox(completed bool) string {
	if completed {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}
