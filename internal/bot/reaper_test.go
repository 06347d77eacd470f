package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/places"
)

type sentMessage struct {
	channelID string
	content   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	errs []error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channelID, content})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newGames(t *testing.T, channels ...string) *game.Registry {
	t.Helper()
	reg := game.NewRegistry(places.Default())
	for _, ch := range channels {
		_, err := reg.Create(ch, game.Settings{
			Players:    []string{"u1"},
			Rounds:     3,
			Difficulty: places.Simple,
			Mode:       game.ModeClassic,
			Owner:      game.OwnerDiscord,
		})
		require.NoError(t, err)
	}
	return reg
}

func TestIdleReaperClosesStaleGames(t *testing.T) {
	games := newGames(t, "chan-1", "chan-2")
	sender := &fakeSender{}
	w := newIdleReaper(sender, games, 30*time.Minute)

	w.tick(context.Background())
	assert.Empty(t, sender.sent)
	assert.Equal(t, 2, games.Len())

	w.now = func() time.Time { return time.Now().Add(time.Hour) }
	w.tick(context.Background())

	assert.Equal(t, 0, games.Len())
	require.Len(t, sender.sent, 2)
	channels := []string{sender.sent[0].channelID, sender.sent[1].channelID}
	assert.ElementsMatch(t, []string{"chan-1", "chan-2"}, channels)
	assert.Contains(t, sender.sent[0].content, "closed after 30m0s without activity")
	assert.Contains(t, sender.sent[0].content, "🏆 **Final standings**")
	assert.Contains(t, sender.sent[0].content, "<@u1>: **0 pts**")
}

func TestIdleReaperSkipsWebGames(t *testing.T) {
	games := newGames(t, "chan-1")
	_, err := games.Create("web-1", game.Settings{
		Players:    []string{"alice"},
		Rounds:     3,
		Difficulty: places.Simple,
		Mode:       game.ModeClassic,
		Owner:      game.OwnerWeb,
	})
	require.NoError(t, err)

	sender := &fakeSender{}
	w := newIdleReaper(sender, games, 30*time.Minute)
	w.now = func() time.Time { return time.Now().Add(time.Hour) }
	w.tick(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "chan-1", sender.sent[0].channelID)
	assert.Equal(t, 1, games.Len())
	web, err := games.Get("web-1")
	require.NoError(t, err)
	assert.False(t, web.Finished())
}

func TestSendWithRetry(t *testing.T) {
	t.Run("retries a timeout once", func(t *testing.T) {
		sender := &fakeSender{errs: []error{timeoutErr{}}}
		w := newIdleReaper(sender, newGames(t), time.Minute)
		require.NoError(t, w.sendWithRetry(context.Background(), "chan", "hi"))
		assert.Len(t, sender.sent, 2)
	})

	t.Run("gives up after two timeouts", func(t *testing.T) {
		sender := &fakeSender{errs: []error{timeoutErr{}, timeoutErr{}}}
		w := newIdleReaper(sender, newGames(t), time.Minute)
		assert.ErrorIs(t, w.sendWithRetry(context.Background(), "chan", "hi"), timeoutErr{})
		assert.Len(t, sender.sent, 2)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		boom := errors.New("missing access")
		sender := &fakeSender{errs: []error{boom}}
		w := newIdleReaper(sender, newGames(t), time.Minute)
		assert.ErrorIs(t, w.sendWithRetry(context.Background(), "chan", "hi"), boom)
		assert.Len(t, sender.sent, 1)
	})
}

func TestIdleReaperNilSafe(t *testing.T) {
	var w *idleReaper
	w.start()
	w.stop()
}
