package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// levelStyle colours a bar with its level colour. Read records render faint.
func levelStyle(level model.Level, opacity float64) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(timeline.ColorForLevel(level)))
	if opacity < 1 {
		s = s.Faint(true)
	}
	return s
}

// levelRank orders levels when bars overlap in one cell; higher wins
func levelRank(level model.Level) int {
	switch level {
	case model.LevelError:
		return 4
	case model.LevelWarning:
		return 3
	case model.LevelInfo:
		return 2
	case model.LevelDebug:
		return 1
	}
	return 0
}
