package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/drawbridge/pkg/dispatch"
	"github.com/matzehuels/drawbridge/pkg/history"
)

// output receives all user-facing status lines. Tests replace it.
var output io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
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

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
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

	styleAdded   = lipgloss.NewStyle().Foreground(colorGreen)
	styleRemoved = lipgloss.NewStyle().Foreground(colorRed)
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
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(output, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(output, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(output, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(output, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(output, "  "+StyleDim.Render(msg))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(output, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printPlain prints text without decoration.
func printPlain(s string) {
	fmt.Fprintln(output, s)
}

// =============================================================================
// Reports
// =============================================================================

// printReport prints what a command changed.
func printReport(r *dispatch.Report) {
	switch r.Command {
	case "open", "close":
		printFirewalls(r)
	default:
		printInstances(r)
	}
	printDetail("%s in %s", r.Command, r.Duration().Round(time.Millisecond))
}

func printFirewalls(r *dispatch.Report) {
	if len(r.Firewalls) == 0 {
		printWarning("No tagged firewalls matched%s", describeTargets(r.Targets))
		return
	}
	for _, fw := range r.Firewalls {
		if !fw.Changed() {
			printInfo("%s %s", StyleValue.Render(fw.Name), StyleDim.Render("already up to date"))
			continue
		}
		printSuccess("%s %s", StyleValue.Render(fw.Name),
			StyleDim.Render(fmt.Sprintf("+%d -%d rules", len(fw.Added), len(fw.Removed))))
		for _, rule := range fw.Added {
			fmt.Fprintln(output, "  "+styleAdded.Render("+ "+rule.String()))
		}
		for _, rule := range fw.Removed {
			fmt.Fprintln(output, "  "+styleRemoved.Render("- "+rule.String()))
		}
	}
}

func printInstances(r *dispatch.Report) {
	if len(r.Instances) == 0 {
		printWarning("No tagged instances matched%s", describeTargets(r.Targets))
		return
	}
	for _, inst := range r.Instances {
		if inst.Running {
			printSuccess("%s running %s", StyleValue.Render(inst.Name), StyleDim.Render(string(inst.InstanceType)))
			if !inst.Target.IsZero() {
				printDetail("%s %s", iconArrow, inst.Target)
			}
			if inst.FQDN != "" {
				printDetail("bound %s in %s", inst.FQDN, inst.Zone)
			}
			continue
		}
		printSuccess("%s stopped", StyleValue.Render(inst.Name))
		if inst.FQDN != "" {
			printDetail("unbound %s in %s", inst.FQDN, inst.Zone)
		}
	}
}

func describeTargets(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return ": " + strings.Join(names, ", ")
}

// =============================================================================
// History
// =============================================================================

// printRuns prints recorded runs, one per line.
func printRuns(runs []history.Run) {
	if len(runs) == 0 {
		printInfo("No runs recorded")
		return
	}
	when := lipgloss.NewStyle().Foreground(colorGray).Width(20)
	command := lipgloss.NewStyle().Foreground(colorCyan).Width(7)
	for _, run := range runs {
		status := StyleSuccess.Render(iconSuccess)
		if run.Status != history.StatusOK {
			status = StyleError.Render(iconError)
		}
		line := status + " " +
			when.Render(run.Started.Local().Format("2006-01-02 15:04:05")) +
			command.Render(run.Command) + " " +
			StyleValue.Render(run.Summary) +
			StyleDim.Render(fmt.Sprintf(" (%s)", run.Duration.Round(time.Millisecond)))
		fmt.Fprintln(output, line)
		if len(run.Targets) > 0 {
			printDetail("targets: %s", strings.Join(run.Targets, ", "))
		}
		if run.Error != "" {
			printDetail("error: %s", run.Error)
		}
	}
}
