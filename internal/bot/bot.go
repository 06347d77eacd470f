package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/commands"
	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geourl"
)

type Bot struct {
	session *discordgo.Session
	quiz    *commands.Quiz
	reaper  *idleReaper
}

// New wires the /quiz command to games, one game per channel. A zero idle
// disables closing abandoned games.
func New(token string, games *game.Registry, modes game.Modes, idle time.Duration) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		quiz:    commands.NewQuiz(games, modes, geourl.NewClient()),
	}
	if idle > 0 {
		bot.reaper = newIdleReaper(session, games, idle)
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.reaper.start()
	zap.L().Info("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.reaper.stop()
	return b.session.Close()
}
