package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2molaf/jarvfjallet/internal/assign"
	"github.com/2molaf/jarvfjallet/internal/bgg"
	"github.com/2molaf/jarvfjallet/internal/bot"
	"github.com/2molaf/jarvfjallet/internal/health"
	"github.com/2molaf/jarvfjallet/internal/importer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Discord bot",
	Long: `Run the Discord bot with its health endpoints.

On startup the legacy game data file is imported if the database is
empty, then the bot connects to Discord and serves slash commands until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveRun() error {
	// Deployment convention: secrets arrive via a .env file or the
	// environment, never the config file.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	token := viper.GetString("discord.token")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("discord token not set (DISCORD_TOKEN env var or discord.token in config)")
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Populate the store from the legacy dump on first run only.
	if _, err := importer.ImportIfEmpty(ctx, s, viper.GetString("data_file"), log); err != nil {
		return fmt.Errorf("legacy import: %w", err)
	}

	engine := assign.New(s, assign.WithMaxRetries(viper.GetInt("assign.max_retries")))
	bggClient := bgg.NewClient()

	b, err := bot.New(bot.Config{
		Token:   token,
		GuildID: viper.GetString("discord.guild_id"),
	}, s, engine, bggClient, log)
	if err != nil {
		return err
	}

	healthSrv := health.NewServer(s, b.Status, log)
	go func() {
		if err := healthSrv.Serve(ctx, viper.GetString("health.addr")); err != nil {
			log.Error("health server failed", "error", err)
		}
	}()

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}
