package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2molaf/jarvfjallet/internal/bgg"
	"github.com/2molaf/jarvfjallet/internal/output"
)

var searchExact bool

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search BoardGameGeek for a board game",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return searchRun(strings.Join(args, " "))
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchExact, "exact", false, "Match the title exactly")
	rootCmd.AddCommand(searchCmd)
}

func searchRun(query string) error {
	client := bgg.NewClient()
	results, err := client.Search(context.Background(), query, searchExact)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		ui.Info("No board games found for %q.", query)
		return nil
	}

	table := ui.Table([]string{"BGG ID", "Name", "Year"})
	for _, r := range results {
		year := "-"
		if r.Year != 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", r.ID),
			output.Cyan(r.Name),
			year,
		})
	}
	_ = table.Render()
	return nil
}
