package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/commands"
	"github.com/susu3304/geoquiz/internal/game"
)

// idleReaper periodically closes games nobody touched for a while and posts
// their final standings to the channel.
type idleReaper struct {
	games    *game.Registry
	session  channelSender
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	ticker   *time.Ticker
}

// Minimal session interface for sending channel messages.
type channelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newIdleReaper(session channelSender, games *game.Registry, idle time.Duration) *idleReaper {
	return &idleReaper{
		games:    games,
		session:  session,
		idle:     idle,
		interval: time.Minute,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

func (w *idleReaper) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *idleReaper) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *idleReaper) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *idleReaper) tick(ctx context.Context) {
	for _, s := range w.games.Sweep(game.OwnerDiscord, w.now().Add(-w.idle)) {
		msg := fmt.Sprintf("⌛ The game in this channel was closed after %s without activity.\n%s",
			w.idle, commands.FormatLeaderboard(s.Leaderboard(), s.Settings().Mode, true))
		if err := w.sendWithRetry(ctx, s.ID(), msg); err != nil {
			zap.L().Warn("reaper: failed to announce closed game", zap.String("channel", s.ID()), zap.Error(err))
			continue
		}
		zap.L().Info("reaper: closed idle game", zap.String("channel", s.ID()))
	}
}

func (w *idleReaper) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.IntN(500)) * time.Millisecond)
	}
	return lastErr
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
