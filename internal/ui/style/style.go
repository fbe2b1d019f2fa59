// Package style holds the colours and icons shared by the logger and the
// result printer.
package style

import "github.com/charmbracelet/lipgloss"

// Colours.
var (
	// Iris marks task names.
	Iris = lipgloss.Color("#8B5CF6")
	// Slate is used for secondary text such as durations and parameter types.
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	// Tilde prefixes debug messages.
	Tilde = "~"
	// Dot prefixes a compiled task's parameter listing.
	Dot = "●"
)
