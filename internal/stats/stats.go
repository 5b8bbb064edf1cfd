// Package stats computes aggregate counts over a task snapshot.
package stats

import (
	"github.com/nibzard/taskdeck/internal/task"
)

// Summary holds aggregate counts for a set of tasks.
type Summary struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate float64 // Completed/Total, 0 when Total is 0
	ByPriority     map[task.Priority]int
	ByCategory     map[string]int
}

// Collect computes a Summary over the given tasks. It never mutates its
// input and has no side effects.
func Collect(tasks []task.Task) Summary {
	s := Summary{
		ByPriority: make(map[task.Priority]int),
		ByCategory: make(map[string]int),
	}

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		s.ByPriority[t.Priority]++
		s.ByCategory[t.Category]++
	}

	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}

	return s
}
