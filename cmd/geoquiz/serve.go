package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/api"
	"github.com/susu3304/geoquiz/internal/bot"
	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser quiz and its JSON API",
	Long:  "Serves the map page, the game API and /metrics on WEB_BIND. When DISCORD_TOKEN is set the Discord bot runs alongside and shares the metrics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rec := metrics.New()
		games, modes, err := newRegistry(game.WithObserver(rec))
		if err != nil {
			return err
		}

		if cfg.DiscordToken != "" {
			discordBot, err := bot.New(cfg.DiscordToken, games, modes, cfg.IdleTimeout)
			if err != nil {
				return err
			}
			if err := discordBot.Start(); err != nil {
				return err
			}
			defer discordBot.Stop()
		}

		if err := api.New(cfg, games, modes, rec).Run(ctx); err != nil {
			return eris.Wrap(err, "serve")
		}
		zap.L().Info("shutting down")
		return nil
	},
}

func init() { rootCmd.AddCommand(serveCmd) }
