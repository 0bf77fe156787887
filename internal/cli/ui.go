package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphopt/pkg/ir"
	"github.com/matzehuels/graphopt/pkg/optimizer"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, shrinkage
	colorYellow = lipgloss.Color("220") // Amber - warnings, growth
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleShrink = lipgloss.NewStyle().Foreground(colorGreen)
	styleGrow   = lipgloss.NewStyle().Foreground(colorYellow)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSkipped = "-"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(20)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Optimizer Output
// =============================================================================

// printRunStats prints node counts and cache status on a single line.
func printRunStats(w io.Writer, before, after int, cached bool) {
	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}
	sep := StyleDim.Render(" · ")
	fmt.Fprintln(w, "  "+
		StyleDim.Render(fmt.Sprintf("%d %s %d nodes", before, iconArrow, after))+sep+
		statusStyle.Render(status))
}

// formatDeltas renders deltas like [optimizer.FormatDeltas], coloring
// shrinkage green and growth amber.
func formatDeltas(deltas []optimizer.Delta) string {
	if len(deltas) == 0 {
		return StyleDim.Render("no change")
	}
	parts := make([]string, len(deltas))
	for i, d := range deltas {
		style := styleShrink
		if d.Change() > 0 {
			style = styleGrow
		}
		parts[i] = style.Render(d.String())
	}
	return strings.Join(parts, StyleDim.Render(", "))
}

// printReport prints one line per pass attempt followed by the overall
// change.
func printReport(w io.Writer, report *optimizer.Report) {
	nameStyle := lipgloss.NewStyle().Width(20)
	for _, p := range report.Passes {
		elapsed := StyleDim.Render(fmt.Sprintf("(%s)", p.Duration.Round(time.Microsecond)))
		if p.Error != "" {
			fmt.Fprintf(w, "  %s %s %s %s\n",
				styleIconError.Render(iconError), nameStyle.Render(p.Name), elapsed, StyleWarning.Render(p.Error))
			continue
		}
		icon := styleIconSuccess.Render(iconSuccess)
		if len(p.Deltas) == 0 {
			icon = StyleDim.Render(iconSkipped)
		}
		fmt.Fprintf(w, "  %s %s %s %s\n", icon, nameStyle.Render(p.Name), elapsed, formatDeltas(p.Deltas))
	}
	fmt.Fprintln(w, StyleTitle.Render("After optimization:")+" "+formatDeltas(report.Deltas))
}

// printStatistics prints an op → count table in op order.
func printStatistics(w io.Writer, stats ir.Statistics) {
	for _, op := range stats.Ops() {
		printKeyValue(w, op, StyleNumber.Render(fmt.Sprint(stats[op])))
	}
}
