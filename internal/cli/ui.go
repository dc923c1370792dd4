package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/scenegraph/pkg/story/check"
)

// stdout receives all status output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette and Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

// Scene graph styles shared by the report and the inspector.
var (
	styleStart  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCycle  = lipgloss.NewStyle().Foreground(colorRed)
	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleLabel  = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCmd    = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Status Output
// =============================================================================

func status(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintln(stdout, style.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	status(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status(iconError, styleIconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(iconWarning, StyleWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line below a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCmd.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// printStats prints scene and choice counts and whether the layout came
// from the cache, e.g. "  3 scenes · 2 choices · cached".
func printStats(scenes, choices int, cached bool) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d scenes", scenes)),
		StyleDim.Render(fmt.Sprintf("%d choices", choices)),
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// =============================================================================
// Check Report
// =============================================================================

// printReport prints the outcome of a scenario check: the verdict, the
// cycle path if any, the start scene and every warning.
func printReport(input string, r check.Report) {
	if r.OK() {
		printSuccess("%s has no cycles", input)
	} else {
		printError("%s contains a cycle", input)
		fmt.Fprintln(stdout, "  "+cyclePath(r.Cycle))
	}
	printKeyValue("Scenes", fmt.Sprintf("%d", r.Scenes))
	switch len(r.StartScenes) {
	case 0:
		printKeyValue("Start", StyleWarning.Render("none"))
	default:
		printKeyValue("Start", styleStart.Render(r.StartScenes[0]))
	}
	if len(r.Dangling) > 0 {
		printKeyValue("Dangling", fmt.Sprintf("%d choices", len(r.Dangling)))
	}
	if len(r.Unreachable) > 0 {
		printKeyValue("Unreachable", strings.Join(r.Unreachable, ", "))
	}
	for _, w := range r.Warnings() {
		printWarning("%s", w)
	}
}

// cyclePath renders a closed cycle with the repeated scene highlighted.
func cyclePath(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if i == 0 || i == len(ids)-1 {
			parts[i] = styleCycle.Render(id)
		} else {
			parts[i] = id
		}
	}
	return strings.Join(parts, StyleDim.Render(" "+iconArrow+" "))
}
