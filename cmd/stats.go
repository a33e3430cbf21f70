package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/domain"
)

var (
	statsPeriod string
	statsWeeks  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a dashboard of session statistics",
	Long: `Display totals, completion and distraction-free rates, streaks, your
best day and hour, and a heatmap of completed sessions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}

		now := time.Now()
		filter, label, err := periodFilter(statsPeriod, now)
		if err != nil {
			return err
		}

		stats, err := app.analytics.Stats(ctx, app.user.ID, filter)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		heat, err := recentHeatmap(ctx, now, statsWeeks)
		if err != nil {
			return fmt.Errorf("failed to get heatmap: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{
				"period":  statsPeriod,
				"stats":   stats,
				"heatmap": heat,
			})
		}

		fmt.Fprintln(out)
		renderDashboard(out, label, stats)
		renderHeatmap(out, heat, now, statsWeeks)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "all", "Time period: week, month, year or all")
	statsCmd.Flags().IntVar(&statsWeeks, "weeks", 12, "Weeks of history in the heatmap")
}

// periodFilter maps a period name to session bounds ending now.
func periodFilter(period string, now time.Time) (domain.SessionFilter, string, error) {
	switch period {
	case "week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(now.Year(), now.Month(), now.Day()-(weekday-1), 0, 0, 0, 0, now.Location())
		return domain.SessionFilter{From: start}, fmt.Sprintf("Week of %s", start.Format("Jan 2")), nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return domain.SessionFilter{From: start}, now.Format("January 2006"), nil
	case "year":
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return domain.SessionFilter{From: start}, now.Format("2006"), nil
	case "all", "":
		return domain.SessionFilter{}, "All time", nil
	}
	return domain.SessionFilter{}, "", &domain.ValidationError{Field: "period", Reason: "must be week, month, year or all"}
}

// recentHeatmap merges the yearly heatmaps covering the last weeks.
func recentHeatmap(ctx context.Context, now time.Time, weeks int) (map[string]int, error) {
	start := now.UTC().AddDate(0, 0, -7*weeks)
	merged := make(map[string]int)
	for year := start.Year(); year <= now.UTC().Year(); year++ {
		days, err := app.analytics.Heatmap(ctx, app.user.ID, year)
		if err != nil {
			return nil, err
		}
		for day, n := range days {
			merged[day] = n
		}
	}
	return merged, nil
}

func renderDashboard(w io.Writer, label string, stats domain.SessionStats) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barColor := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C6FE0"))

	// Header
	fmt.Fprintf(w, "  %s\n", titleStyle.Render(label))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(w, "  Total: %s sessions, %s focused\n\n",
		valueStyle.Render(fmt.Sprintf("%d", stats.TotalSessions)),
		valueStyle.Render(formatHours(stats.TotalHours)),
	)

	if stats.TotalSessions == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No sessions in this period."))
		return
	}

	rates := []struct {
		label string
		value float64
	}{
		{"Completed", stats.CompletionRate},
		{"Distraction-free", stats.DistractionFreeRate},
	}
	for _, r := range rates {
		fmt.Fprintf(w, "  %s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%-17s", r.label)),
			barColor.Render(buildBar(int(math.Round(r.value/100*30)))),
			valueStyle.Render(fmt.Sprintf("%.0f%%", r.value)),
		)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s %s   %s %s\n",
		dimStyle.Render("Current streak:"), valueStyle.Render(pluralDays(stats.CurrentStreak)),
		dimStyle.Render("Longest:"), valueStyle.Render(pluralDays(stats.LongestStreak)),
	)
	if stats.BestDay != "" {
		fmt.Fprintf(w, "  %s %s   %s %s\n",
			dimStyle.Render("Best day:"), valueStyle.Render(stats.BestDay),
			dimStyle.Render("Best hour:"), valueStyle.Render(fmt.Sprintf("%02d:00", stats.BestHour)),
		)
	}
	fmt.Fprintln(w)
}

// heatLevels shades days from no sessions to four or more.
var heatLevels = []string{"#2D333B", "#3B3470", "#5B4FB0", "#7C6FE0", "#A78BFA"}

// renderHeatmap draws one row per weekday, Monday first, oldest week on
// the left.
func renderHeatmap(w io.Writer, days map[string]int, now time.Time, weeks int) {
	if weeks <= 0 {
		return
	}
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	utc := now.UTC()
	today := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(today.Weekday()+6) % 7
	monday := today.AddDate(0, 0, -offset-7*(weeks-1))

	fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("Completed sessions, last %d weeks", weeks)))
	weekdays := []string{"Mon", "   ", "Wed", "   ", "Fri", "   ", "Sun"}
	for row := 0; row < 7; row++ {
		var line strings.Builder
		for col := 0; col < weeks; col++ {
			day := monday.AddDate(0, 0, col*7+row)
			if day.After(today) {
				line.WriteString("  ")
				continue
			}
			level := days[day.Format("2006-01-02")]
			if level >= len(heatLevels) {
				level = len(heatLevels) - 1
			}
			line.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(heatLevels[level])).Render("■ "))
		}
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(weekdays[row]), line.String())
	}
	fmt.Fprintln(w)
}

func buildBar(width int) string {
	if width < 0 {
		width = 0
	}
	return strings.Repeat("█", width)
}

func formatHours(h float64) string {
	if h < 1 {
		return fmt.Sprintf("%.0fm", h*60)
	}
	return fmt.Sprintf("%.1fh", h)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
