package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/services"
)

var (
	distractCategory string
	distractSession  string
	distractList     bool
)

// distractCmd logs an interruption against the running focus session.
var distractCmd = &cobra.Command{
	Use:   "distract [description]",
	Short: "Log a distraction",
	Long: `Log what pulled you away during the active focus session, or list the
distractions of a session with --list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := localState(ctx); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if distractList {
			sessionID := distractSession
			if sessionID == "" {
				active, err := app.gateway.GetActiveSession(ctx, app.user.ID)
				if err != nil {
					return err
				}
				if active == nil {
					return domain.ErrNoActiveSession
				}
				sessionID = active.ID
			}
			list, err := app.distractions.ListDistractions(ctx, app.user.ID, sessionID)
			if err != nil {
				return fmt.Errorf("failed to list distractions: %w", err)
			}
			if jsonOutput {
				if list == nil {
					list = []*domain.Distraction{}
				}
				return printJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No distractions logged.")
				return nil
			}
			for _, d := range list {
				fmt.Fprintf(out, "%s  %s\n", d.Timestamp.Local().Format("15:04"), d.Description)
			}
			return nil
		}

		d, err := app.distractions.LogDistraction(ctx, app.user.ID, services.LogDistractionRequest{
			SessionID:   distractSession,
			Category:    domain.DistractionCategory(distractCategory),
			Description: strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("failed to log distraction: %w", err)
		}
		if jsonOutput {
			return printJSON(out, d)
		}
		fmt.Fprintf(out, "📝 Distraction logged: %s\n", d.Description)
		return nil
	},
}

func init() {
	distractCmd.Flags().StringVarP(&distractCategory, "category", "c", "", "Category: phone, email, colleague, thought, noise or other")
	distractCmd.Flags().StringVar(&distractSession, "session", "", "Session ID (default: the active session)")
	distractCmd.Flags().BoolVarP(&distractList, "list", "l", false, "List distractions instead of logging one")
}
