package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2molaf/jarvfjallet/internal/output"
	"github.com/2molaf/jarvfjallet/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status <identifier>...",
	Short: "Show a user's assigned games with classified status",
	Long: `Show all games assigned to a user with their classification.

Pass every identifier variant the user may be stored under — typically
the Discord user ID and the display name, since historical imports
recorded either.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun(args)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(identifiers []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	assignments, err := status.StatusFor(context.Background(), s, identifiers, time.Now().UTC())
	if err != nil {
		return err
	}

	if len(assignments) == 0 {
		ui.Info("No assigned games found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Game", "Developer", "Status", "Assigned", "Review"})
	for _, a := range assignments {
		assigned := "-"
		if a.Game.AssignedAt != nil {
			assigned = a.Game.AssignedAt.Format("2006-01-02")
		}
		review := "-"
		if a.Game.ReviewURL != "" {
			review = a.Game.ReviewURL
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", a.Game.ID),
			output.Cyan(a.Game.Name),
			a.Game.DevName,
			output.CategoryColor(string(a.Category)),
			assigned,
			review,
		})
	}
	_ = table.Render()
	return nil
}
