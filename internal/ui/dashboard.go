package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskdeck/internal/config"
	"github.com/nibzard/taskdeck/internal/stats"
	"github.com/nibzard/taskdeck/internal/storage"
	"github.com/nibzard/taskdeck/internal/task"
)

// dashFilter selects which tasks the dashboard shows.
type dashFilter string

const (
	dashAll       dashFilter = ""
	dashPending   dashFilter = "pending"
	dashCompleted dashFilter = "completed"
)

// RunDashboard starts the read-only dashboard over the backing file.
// It reloads the file on every tick, so edits from a menu session in
// another terminal show up live.
func RunDashboard(ctx context.Context, cfg *config.Config) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("dashboard requires a TTY")
	}

	model := newDashModel(cfg)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type dashModel struct {
	cfg          *config.Config
	loadErr      error
	tasks        []task.Task
	tickInterval time.Duration
	filter       dashFilter
	showHelp     bool
}

type tickMsg time.Time

func newDashModel(cfg *config.Config) *dashModel {
	return &dashModel{
		cfg:          cfg,
		tickInterval: time.Second,
	}
}

func (m *dashModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
			return m, nil
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "1":
			m.filter = dashPending
			return m, nil
		case "2":
			m.filter = dashCompleted
			return m, nil
		case "0":
			m.filter = dashAll
			return m, nil
		}
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}

	return m, nil
}

func (m *dashModel) View() string {
	var b strings.Builder
	title := "taskdeck dashboard"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	if m.showHelp {
		writeDashHelp(&b)
		writeDashFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.filter != dashAll {
		b.WriteString(fmt.Sprintf("Filter: %s (0 to clear)\n\n", m.filter))
	}

	if m.loadErr != nil {
		b.WriteString("Error loading task file:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeDashFooter(&b, m.tickInterval)
		return b.String()
	}

	tasks := m.filtered()
	summary := stats.Collect(tasks)
	now := time.Now()

	writeDashOverview(&b, summary, countOverdue(tasks, now))
	writeDashUpcoming(&b, tasks, now)
	writeDashRecent(&b, tasks)
	b.WriteString(fmt.Sprintf("Task file: %s\n\n", m.cfg.DataFile))
	writeDashFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *dashModel) refresh() {
	f, err := storage.Load(m.cfg.DataFile, storage.Options{SchemaPath: m.cfg.SchemaFile})
	if err != nil {
		m.loadErr = err
		m.tasks = nil
		return
	}
	m.loadErr = nil
	m.tasks = f.Tasks
}

func (m *dashModel) filtered() []task.Task {
	if m.filter == dashAll {
		return m.tasks
	}
	var out []task.Task
	for _, t := range m.tasks {
		if (m.filter == dashCompleted) == t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func countOverdue(tasks []task.Task, now time.Time) int {
	n := 0
	for i := range tasks {
		if tasks[i].Overdue(now) {
			n++
		}
	}
	return n
}

func writeDashOverview(b *strings.Builder, s stats.Summary, overdue int) {
	b.WriteString("Overview\n\n")
	b.WriteString(fmt.Sprintf("  Total: %d  Pending: %d  Completed: %d  Overdue: %d\n",
		s.Total, s.Pending, s.Completed, overdue))
	b.WriteString(fmt.Sprintf("  Completion rate: %.1f%%\n\n", s.CompletionRate*100))
}

// writeDashUpcoming lists the next pending tasks with due dates, soonest first.
func writeDashUpcoming(b *strings.Builder, tasks []task.Task, now time.Time) {
	b.WriteString("Next Due\n\n")

	var due []task.Task
	for _, t := range tasks {
		if !t.Completed && t.DueDate != nil {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		b.WriteString("  No pending tasks with a due date.\n\n")
		return
	}

	sort.Slice(due, func(i, j int) bool {
		if *due[i].DueDate != *due[j].DueDate {
			return due[i].DueDate.Before(*due[j].DueDate)
		}
		return due[i].ID < due[j].ID
	})

	for i, t := range due {
		if i >= 5 {
			break
		}
		marker := ""
		if t.Overdue(now) {
			marker = "  OVERDUE"
		}
		b.WriteString(fmt.Sprintf("  %3d. [%s] %s  due %s%s\n", t.ID, t.Priority.Label(), t.Title, t.DueDate, marker))
	}
	b.WriteString("\n")
}

// writeDashRecent lists the most recently completed tasks.
func writeDashRecent(b *strings.Builder, tasks []task.Task) {
	b.WriteString("Recently Completed\n\n")

	var done []task.Task
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			done = append(done, t)
		}
	}
	if len(done) == 0 {
		b.WriteString("  No completed tasks yet.\n\n")
		return
	}

	sort.Slice(done, func(i, j int) bool {
		return done[i].CompletedAt.After(*done[j].CompletedAt)
	})

	for i, t := range done {
		if i >= 5 {
			break
		}
		b.WriteString(fmt.Sprintf("  %3d. %s  (%s)\n", t.ID, t.Title, t.CompletedAt.Local().Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")
}

func writeDashHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Refresh data\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Show pending only\n")
	b.WriteString("  2            Show completed only\n")
	b.WriteString("  0            Clear filter\n\n")
}

func writeDashFooter(b *strings.Builder, interval time.Duration) {
	b.WriteString(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s\n", interval))
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
