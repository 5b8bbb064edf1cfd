package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskdeck/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		task.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	}
)

// priorityBadge renders a colored priority label.
func priorityBadge(p task.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return p.Label()
	}
	return style.Render(p.Label())
}
