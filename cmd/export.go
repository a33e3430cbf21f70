package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xvierd/focusflow/internal/domain"
)

var (
	exportFormat string
	exportPeriod string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history",
	Long:  "Export your session history as markdown, CSV or YAML.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return runExport(cmd.Context(), w)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Output format: md, csv or yaml")
	exportCmd.Flags().StringVar(&exportPeriod, "period", "week", "Time period: week, month, year or all")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

// exportRecord is one session with its task and distractions resolved.
type exportRecord struct {
	ID           string   `yaml:"id"`
	Type         string   `yaml:"type"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end,omitempty"`
	Minutes      int      `yaml:"minutes"`
	Completed    bool     `yaml:"completed"`
	Task         string   `yaml:"task,omitempty"`
	GitBranch    string   `yaml:"git_branch,omitempty"`
	GitCommit    string   `yaml:"git_commit,omitempty"`
	Distractions []string `yaml:"distractions,omitempty"`
}

func runExport(ctx context.Context, w io.Writer) error {
	if _, err := localState(ctx); err != nil {
		return err
	}

	filter, _, err := periodFilter(exportPeriod, time.Now())
	if err != nil {
		return err
	}
	sessions, err := app.gateway.ListSessions(ctx, app.user.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to fetch sessions: %w", err)
	}

	records, err := buildExportRecords(ctx, sessions)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "csv":
		return exportCSV(w, records)
	case "yaml", "yml":
		return exportYAML(w, records)
	case "md", "markdown":
		return exportMarkdown(w, records)
	}
	return &domain.ValidationError{Field: "format", Reason: "must be md, csv or yaml"}
}

func buildExportRecords(ctx context.Context, sessions []*domain.Session) ([]exportRecord, error) {
	titles := make(map[string]string)
	records := make([]exportRecord, 0, len(sessions))

	for _, s := range sessions {
		rec := exportRecord{
			ID:        s.ID,
			Type:      string(s.Type),
			Start:     s.StartTime.Local().Format(time.RFC3339),
			Minutes:   s.Duration,
			Completed: s.Completed,
			GitBranch: s.GitBranch,
			GitCommit: s.GitCommit,
		}
		if s.EndTime != nil {
			rec.End = s.EndTime.Local().Format(time.RFC3339)
		}
		if s.TaskID != nil {
			title, ok := titles[*s.TaskID]
			if !ok {
				// Deleted tasks export without a title.
				if task, err := app.tasks.GetTask(ctx, app.user.ID, *s.TaskID); err == nil {
					title = task.Title
				}
				titles[*s.TaskID] = title
			}
			rec.Task = title
		}
		if s.Distractions > 0 {
			list, err := app.distractions.ListDistractions(ctx, app.user.ID, s.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch distractions: %w", err)
			}
			for _, d := range list {
				rec.Distractions = append(rec.Distractions, d.Description)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func exportMarkdown(w io.Writer, records []exportRecord) error {
	fmt.Fprintf(w, "# FocusFlow Session Export\n\n")
	fmt.Fprintf(w, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04"))

	for _, r := range records {
		status := "completed"
		if !r.Completed {
			status = "stopped early"
		}
		if r.End == "" {
			status = "in progress"
		}
		fmt.Fprintf(w, "## %s (%s)\n", r.Start, r.Type)
		fmt.Fprintf(w, "- Duration: %dm, %s\n", r.Minutes, status)
		if r.Task != "" {
			fmt.Fprintf(w, "- Task: %s\n", r.Task)
		}
		if r.GitBranch != "" {
			fmt.Fprintf(w, "- Git: %s @ %s\n", r.GitBranch, r.GitCommit)
		}
		if len(r.Distractions) > 0 {
			fmt.Fprintf(w, "- Distractions (%d):\n", len(r.Distractions))
			for _, d := range r.Distractions {
				fmt.Fprintf(w, "  - %s\n", d)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func exportCSV(w io.Writer, records []exportRecord) error {
	cw := csv.NewWriter(w)

	_ = cw.Write([]string{
		"id", "type", "start", "end", "duration_min", "completed",
		"task", "git_branch", "git_commit", "distraction_count",
	})
	for _, r := range records {
		_ = cw.Write([]string{
			r.ID,
			r.Type,
			r.Start,
			r.End,
			strconv.Itoa(r.Minutes),
			strconv.FormatBool(r.Completed),
			r.Task,
			r.GitBranch,
			r.GitCommit,
			strconv.Itoa(len(r.Distractions)),
		})
	}
	cw.Flush()
	return cw.Error()
}

func exportYAML(w io.Writer, records []exportRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"sessions": records}); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
