package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/bot"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the quiz as a Discord bot",
	Long:  "Registers /quiz in every guild the bot is in and runs one game per channel. Needs DISCORD_TOKEN.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireDiscord(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		games, modes, err := newRegistry()
		if err != nil {
			return err
		}

		discordBot, err := bot.New(cfg.DiscordToken, games, modes, cfg.IdleTimeout)
		if err != nil {
			return err
		}
		if err := discordBot.Start(); err != nil {
			return err
		}
		defer discordBot.Stop()

		<-ctx.Done()
		zap.L().Info("shutting down")
		return nil
	},
}

func init() { rootCmd.AddCommand(botCmd) }
