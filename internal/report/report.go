package report

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"

	"github.com/mvreilly/daydeck/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	blockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// statusGlyphs maps each status to its list marker.
var statusGlyphs = map[task.Status]string{
	task.StatusNotStarted: "[ ]",
	task.StatusInProgress: "[~]",
	task.StatusCompleted:  "[x]",
	task.StatusBlocked:    "[!]",
	task.StatusCancelled:  "[-]",
}

// FilterTasks returns the tasks whose category or any tag matches the
// doublestar pattern. An empty pattern matches everything. An invalid
// pattern is an error so typos fail loudly instead of filtering silently.
func FilterTasks(tasks []task.Task, pattern string) ([]task.Task, error) {
	if pattern == "" {
		return tasks, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}
	var out []task.Task
	for _, t := range tasks {
		if matchesPattern(t, pattern) {
			out = append(out, t)
		}
	}
	return out, nil
}

func matchesPattern(t task.Task, pattern string) bool {
	if ok, _ := doublestar.Match(pattern, string(t.Category)); ok {
		return true
	}
	for _, tag := range t.Tags {
		if ok, _ := doublestar.Match(pattern, tag); ok {
			return true
		}
	}
	return false
}

// Day renders one day document: a header line, per-bucket task lists, and
// the derived summary.
func Day(date string, tasks []task.Task) string {
	var b strings.Builder

	summary := task.SummaryOf(tasks)
	b.WriteString(headerStyle.Render(date) + "  " + dimStyle.Render(summary.String()) + "\n")

	if len(tasks) == 0 {
		b.WriteString(dimStyle.Render("  no tasks") + "\n")
		return b.String()
	}

	for _, block := range task.TimeBlocks() {
		var lines []string
		for _, t := range tasks {
			if t.TimeBlock == block {
				lines = append(lines, taskLine(t))
			}
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(blockStyle.Render(strings.ToUpper(string(block))) + "\n")
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
	}

	// Tasks without a time block go last.
	var unscheduled []string
	for _, t := range tasks {
		if t.TimeBlock == "" {
			unscheduled = append(unscheduled, taskLine(t))
		}
	}
	if len(unscheduled) > 0 {
		b.WriteString(blockStyle.Render("UNSCHEDULED") + "\n")
		for _, line := range unscheduled {
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func taskLine(t task.Task) string {
	glyph := statusGlyphs[t.Status]
	if glyph == "" {
		glyph = "[?]"
	}
	line := fmt.Sprintf("  %s %s %s", glyph, t.Priority, t.Title)
	if t.Status == task.StatusCompleted {
		line = doneStyle.Render(line)
	} else if t.Status == task.StatusBlocked {
		line = warnStyle.Render(line)
	}
	if t.Progress > 0 && t.Status != task.StatusCompleted {
		line += dimStyle.Render(fmt.Sprintf("  %d%%", t.Progress))
	}
	if len(t.Subtasks) > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		line += dimStyle.Render(fmt.Sprintf("  (%d/%d)", done, len(t.Subtasks)))
	}
	return line
}

// History renders an N-day table: date, completed/total, estimated vs
// actual minutes.
func History(docs []task.DayDocument) string {
	if len(docs) == 0 {
		return dimStyle.Render("no history") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-10s %-10s %-10s %s", "DATE", "DONE", "EST", "ACTUAL", "COMPLETION")) + "\n")
	for _, doc := range docs {
		s := doc.Summary
		b.WriteString(fmt.Sprintf("%-12s %-10s %-10s %-10s %.1f%%\n",
			doc.Date,
			fmt.Sprintf("%d/%d", s.CompletedTasks, s.TotalTasks),
			fmt.Sprintf("%dm", s.TotalEstimatedMinutes),
			fmt.Sprintf("%dm", s.TotalActualMinutes),
			s.CompletionPercentage,
		))
	}
	return b.String()
}
