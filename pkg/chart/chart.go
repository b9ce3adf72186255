package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sherine-k/roundabout/pkg/ring"
	"github.com/sherine-k/roundabout/pkg/scenario"
	"github.com/sherine-k/roundabout/pkg/simulation"
)

const (
	chartWidth  = 80
	chartHeight = 20
)

// Generator generates ASCII charts
type Generator struct {
	width  int
	height int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width:  chartWidth,
		height: chartHeight,
	}
}

func (g *Generator) header(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")
}

// GenerateRingView lists every vehicle with its colour, heading, speed and
// the distance to the vehicle in front of it.
func (g *Generator) GenerateRingView(snap simulation.Snapshot, stopDuration time.Duration) string {
	var sb strings.Builder
	g.header(&sb, fmt.Sprintf("Roundabout at %s (tick %d)", FormatDuration(snap.Elapsed), snap.Tick))

	if snap.Frozen != simulation.NoVehicle {
		sb.WriteString(fmt.Sprintf("Emergency stop: vehicle %d %s (%s)\n\n",
			snap.Frozen+1, ColorFor(snap.Frozen), FormatSeconds(stopDuration, 1)))
	}

	gaps := snap.Gaps()
	sb.WriteString(fmt.Sprintf("%-8s %-8s %8s %10s %10s\n", "Vehicle", "Color", "Angle", "Speed", "Gap"))
	for i, v := range snap.Vehicles {
		marker := ""
		if i == snap.Frozen {
			marker = "  STOP"
		} else if v.Stopped() {
			marker = "  waiting"
		}
		sb.WriteString(fmt.Sprintf("%-8d %-8s %7.1f° %10.4f %10s%s\n",
			i+1,
			ColorFor(i),
			ring.Normalize(v.Position)*180/math.Pi,
			v.Speed,
			FormatGap(gaps[i]),
			marker))
	}
	sb.WriteString("\n")

	return sb.String()
}

// GenerateStoppedChart generates an ASCII chart showing how many vehicles
// were standing still over time.
func (g *Generator) GenerateStoppedChart(timePoints []scenario.TimePoint, vehicles int) string {
	if len(timePoints) == 0 {
		return "No data to display"
	}

	var sb strings.Builder
	g.header(&sb, "Stopped Vehicles Over Time")

	rows := min(vehicles, g.height)
	scale := float64(vehicles) / float64(rows)
	plotWidth := g.width - 6

	column := func(x int) scenario.TimePoint {
		idx := 0
		if plotWidth > 1 {
			idx = int(float64(x) / float64(plotWidth-1) * float64(len(timePoints)-1))
		}
		return timePoints[min(idx, len(timePoints)-1)]
	}

	for row := rows; row >= 1; row-- {
		sb.WriteString(fmt.Sprintf("%3d |", int(math.Ceil(float64(row)*scale))))
		for x := 0; x < plotWidth; x++ {
			tp := column(x)
			level := float64(row) * scale
			switch {
			case tp.Frozen != simulation.NoVehicle && row == 1:
				sb.WriteString("!")
			case float64(tp.Stopped) >= level:
				sb.WriteString("█")
			default:
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// X-axis
	sb.WriteString("    +")
	sb.WriteString(strings.Repeat("-", plotWidth))
	sb.WriteString("\n")

	// X-axis labels at regular intervals of simulated time
	total := timePoints[len(timePoints)-1].Elapsed - timePoints[0].Elapsed
	labelLine := []rune(strings.Repeat(" ", plotWidth))
	step := labelStep(total)
	for mark := time.Duration(0); mark <= total; mark += step {
		position := 0
		if total > 0 {
			position = int(float64(mark) / float64(total) * float64(plotWidth-1))
		}
		label := FormatDuration(mark)
		position = min(position, plotWidth-len(label))
		for i, ch := range label {
			labelLine[position+i] = ch
		}
	}
	sb.WriteString("     ")
	sb.WriteString(string(labelLine))
	sb.WriteString("\n")

	// Legend
	sb.WriteString("\n")
	sb.WriteString("Legend:\n")
	sb.WriteString(fmt.Sprintf("  Rows: number of stopped vehicles (of %d)\n", vehicles))
	sb.WriteString("    █ - Stopped vehicles\n")
	sb.WriteString("    ! - Emergency stop active\n")
	sb.WriteString("\n")

	return sb.String()
}

// labelStep picks a marker interval giving at most about six labels.
func labelStep(total time.Duration) time.Duration {
	steps := []time.Duration{
		time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second,
		time.Minute, 5 * time.Minute, 10 * time.Minute, 30 * time.Minute, time.Hour,
	}
	step, found := lo.Find(steps, func(s time.Duration) bool { return total/s <= 6 })
	if !found {
		return total
	}
	return step
}

// GenerateStatsTable renders the stop records, most stops first.
func (g *Generator) GenerateStatsTable(records []simulation.StopRecord) string {
	var sb strings.Builder
	g.header(&sb, "Emergency Stop Records")

	sb.WriteString(fmt.Sprintf("%-20s %12s %8s\n", "Vehicle", "Total time", "Stops"))
	if len(records) == 0 {
		sb.WriteString("No records yet\n\n")
		return sb.String()
	}

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%-20s %12s %8d\n",
			fmt.Sprintf("Vehicle %d %s", r.Vehicle+1, ColorFor(r.Vehicle)),
			FormatSeconds(r.TotalDuration, 2),
			r.Count))
	}
	sb.WriteString("\n")

	return sb.String()
}

// GenerateEventSummary generates a summary of events
func (g *Generator) GenerateEventSummary(events []simulation.Event) string {
	var sb strings.Builder
	g.header(&sb, "Event Summary")

	// Group events by type
	eventsByType := lo.CountValuesBy(events, func(e simulation.Event) simulation.EventType {
		return e.Type
	})

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(events)))
	sb.WriteString(fmt.Sprintf("  - Stops Started: %d\n", eventsByType[simulation.EventTypeStopStarted]))
	sb.WriteString(fmt.Sprintf("  - Stops Completed: %d\n", eventsByType[simulation.EventTypeStopCompleted]))
	sb.WriteString(fmt.Sprintf("  - Stops Rejected: %d\n", eventsByType[simulation.EventTypeStopRejected]))
	sb.WriteString(fmt.Sprintf("  - Reconfigurations: %d\n", eventsByType[simulation.EventTypeReconfigured]))
	sb.WriteString(fmt.Sprintf("  - Reconfigurations Rejected: %d\n", eventsByType[simulation.EventTypeReconfigureRejected]))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateWarnings generates a list of warnings
func (g *Generator) GenerateWarnings(warnings []simulation.Event) string {
	var sb strings.Builder
	g.header(&sb, "Warnings")

	if len(warnings) == 0 {
		sb.WriteString("No warnings!\n")
		return sb.String()
	}

	for _, warning := range warnings {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", FormatDuration(warning.Elapsed), warning.Message))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Warnings: %d\n", len(warnings)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of events
func (g *Generator) GenerateDetailedTimeline(events []simulation.Event, limit int) string {
	var sb strings.Builder

	title := "Detailed Timeline"
	if limit > 0 && limit < len(events) {
		title += fmt.Sprintf(" (showing first %d events)", limit)
	}
	g.header(&sb, title)

	displayCount := len(events)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for _, event := range events[:displayCount] {
		typeIcon := " "
		switch event.Type {
		case simulation.EventTypeStopStarted:
			typeIcon = "+"
		case simulation.EventTypeStopCompleted:
			typeIcon = "-"
		case simulation.EventTypeStopRejected, simulation.EventTypeReconfigureRejected:
			typeIcon = "!"
		case simulation.EventTypeReconfigured:
			typeIcon = "C"
		}

		sb.WriteString(fmt.Sprintf("[%8s] %s [%d] %s\n",
			FormatDuration(event.Elapsed),
			typeIcon,
			event.Stopped,
			event.Message))
	}

	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(events)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatGap prints a distance in metres with one decimal.
func FormatGap(metres float64) string {
	return fmt.Sprintf("%.1fm", metres)
}

// FormatSeconds prints d as seconds with the given number of decimals.
func FormatSeconds(d time.Duration, decimals int) string {
	return fmt.Sprintf("%.*fs", decimals, d.Seconds())
}
