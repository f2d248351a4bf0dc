package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2molaf/jarvfjallet/internal/importer"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import the legacy game data file",
	Long: `Import games from the legacy itch JSON dump.

Without --force the import only runs when the database is empty, the
same guard the bot applies at startup. With --force every record in the
file is re-imported, replacing existing rows that match on game id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("data_file")
		if len(args) == 1 {
			path = args[0]
		}
		return importRun(path)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Import even when the database already has games")
	rootCmd.AddCommand(importCmd)
}

func importRun(path string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var res *importer.Result
	if importForce {
		res, err = importer.Import(ctx, s, path, log)
	} else {
		res, err = importer.ImportIfEmpty(ctx, s, path, log)
	}
	if err != nil {
		return err
	}

	if res.Skipped {
		ui.Info("Database already populated; nothing imported (use --force to re-import).")
		return nil
	}
	ui.Success("Imported %d games (%d failed)", res.Imported, res.Failed)
	return nil
}
