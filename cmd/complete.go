package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/2molaf/jarvfjallet/internal/store"
)

var completeCmd = &cobra.Command{
	Use:   "complete <game-id> <review-url>",
	Short: "Record a completed review for an assigned game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid game id %q", args[0])
		}
		return completeRun(id, args[1])
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}

func completeRun(gameID int64, url string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	err = s.RecordCompletion(context.Background(), gameID, url, time.Now().UTC())
	switch {
	case errors.Is(err, store.ErrInvalidState):
		ui.Error("Game %d is not assigned to anyone; nothing to complete.", gameID)
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("game %d does not exist", gameID)
	case err != nil:
		return err
	}

	ui.Success("Review recorded for game %d", gameID)
	return nil
}
