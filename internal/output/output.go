// Package output provides styled terminal output helpers (success, error,
// warning, severity/status formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/marcus/driftsync/internal/models"
)

var (
	// Styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	statusStyles = map[models.OperationStatus]lipgloss.Style{
		models.OperationPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.OperationRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.OperationCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.OperationPartial:   lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.OperationFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Title prints a bold heading
func Title(format string, args ...interface{}) {
	fmt.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

// Subtle prints de-emphasized detail text
func Subtle(format string, args ...interface{}) {
	fmt.Println(subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeExpired       = "expired"
	ErrCodeAlreadyUndone = "already_undone"
	ErrCodeDatabaseError = "database_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	fmt.Printf(`{"error":{"code":"%s","message":"%s"}}`, code, message)
	fmt.Println()
}

// FormatSeverity formats a severity with color
func FormatSeverity(s models.Severity) string {
	style, ok := severityStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatStatus formats an operation status with color
func FormatStatus(s models.OperationStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatWhen renders a timestamp as a humanized relative time
func FormatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatChangeTypes joins change labels for a one-line listing
func FormatChangeTypes(changes []string) string {
	return strings.Join(changes, ", ")
}
