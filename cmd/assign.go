package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2molaf/jarvfjallet/internal/assign"
	"github.com/2molaf/jarvfjallet/internal/store"
)

var assignUsername string

var assignCmd = &cobra.Command{
	Use:   "assign <user-id>",
	Short: "Assign a random unassigned game to a user",
	Long: `Assign a random unassigned game to a user, the same operation the
/hit slash command performs. Useful for manual grants and testing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignRun(args[0])
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignUsername, "username", "", "Display name to record alongside the user ID")
	rootCmd.AddCommand(assignCmd)
}

func assignRun(userID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	engine := assign.New(s, assign.WithMaxRetries(viper.GetInt("assign.max_retries")))
	game, err := engine.Assign(context.Background(), userID, assignUsername)
	switch {
	case errors.Is(err, store.ErrEmptyPool):
		ui.Warning("No unassigned games remain.")
		return nil
	case errors.Is(err, assign.ErrContention):
		ui.Warning("Assignment contention; try again.")
		return nil
	case err != nil:
		return err
	}

	ui.Success("Assigned game %d (%s) to %s", game.ID, game.Name, userID)
	ui.VerboseLog("url: %s", game.GameURL)
	return nil
}
