package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show game pool statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun()
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsUser, "user", "", "Also show the grant history for this user ID")
	rootCmd.AddCommand(statsCmd)
}

func statsRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}

	table := ui.Table([]string{"Total", "Available", "Assigned", "Completed"})
	_ = table.Append([]string{
		fmt.Sprintf("%d", stats.Total),
		fmt.Sprintf("%d", stats.Unassigned),
		fmt.Sprintf("%d", stats.Assigned),
		fmt.Sprintf("%d", stats.Completed),
	})
	_ = table.Render()

	if statsUser == "" {
		return nil
	}

	assignments, err := s.ListAssignments(ctx, statsUser, 10)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		ui.Info("No grants recorded for %s.", statsUser)
		return nil
	}

	fmt.Fprintln(ui.Out)
	grants := ui.Table([]string{"Granted", "Game", "Status", "Review"})
	for _, a := range assignments {
		review := "-"
		if a.ReviewURL != "" {
			review = a.ReviewURL
		}
		_ = grants.Append([]string{
			a.AssignedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", a.GameID),
			string(a.Status),
			review,
		})
	}
	_ = grants.Render()
	return nil
}
