package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Name    string     // Step description
	Status  StepStatus // Current status
	Message string     // Optional note (e.g., "attempt 3", "1.2s")
}

// Steps is the step list of a write command: read, send, confirm.
type Steps struct {
	Steps []Step
}

// NewSteps creates a step list with every step pending
func NewSteps(names ...string) *Steps {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	return &Steps{Steps: steps}
}

// Update sets a step's status and note. Step numbers are 1-based;
// out-of-range numbers are ignored.
func (s *Steps) Update(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(s.Steps) {
		return
	}
	s.Steps[stepNumber-1].Status = status
	s.Steps[stepNumber-1].Message = message
}

// Start marks a step as running
func (s *Steps) Start(stepNumber int, message string) { s.Update(stepNumber, StepRunning, message) }

// Complete marks a step as complete
func (s *Steps) Complete(stepNumber int, message string) { s.Update(stepNumber, StepComplete, message) }

// Fail marks a step as failed
func (s *Steps) Fail(stepNumber int, message string) { s.Update(stepNumber, StepFailed, message) }

// Done reports whether every step completed
func (s *Steps) Done() bool {
	for _, step := range s.Steps {
		if step.Status != StepComplete {
			return false
		}
	}
	return true
}

// Render returns the styled step list
func (s *Steps) Render() string {
	lines := make([]string, 0, len(s.Steps))
	for i, step := range s.Steps {
		lines = append(lines, s.renderLine(i+1, step))
	}
	return strings.Join(lines, "\n")
}

// RenderLine renders a single step, for printing progress incrementally
func (s *Steps) RenderLine(stepNumber int) string {
	if stepNumber < 1 || stepNumber > len(s.Steps) {
		return ""
	}
	return s.renderLine(stepNumber, s.Steps[stepNumber-1])
}

func (s *Steps) renderLine(n int, step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  [%d/%d] ", n, len(s.Steps)))
	b.WriteString(style.Render(step.Name))

	// Align markers in one column
	padding := 30 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (s *Steps) String() string {
	return s.Render()
}
