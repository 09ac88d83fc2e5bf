package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/haanna/anna/pkg/anna"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way commands output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// WithWidth overrides the detected terminal width
func (p *Printer) WithWidth(width int) *Printer {
	p.width = ClampWidth(width)
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintGatewayError prints err with the troubleshooting advice for its kind
func (p *Printer) PrintGatewayError(title string, err error) {
	p.PrintError(title, errors.New(anna.ShortMessage(err)), HintLines(anna.TroubleshootingHint(err)))
}

// PrintStep prints the current line of a step list
func (p *Printer) PrintStep(steps *Steps, stepNumber int) {
	p.Println(steps.RenderLine(stepNumber))
}

// PrintStatus prints a status card followed by the preset table
func (p *Printer) PrintStatus(title string, s *anna.Status) {
	p.Println(RenderStatusCard(title, s, p.width))
	p.Newline()
	p.Println(RenderPresetTable(s))
}
