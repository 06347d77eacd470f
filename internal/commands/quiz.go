package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/geourl"
	"github.com/susu3304/geoquiz/internal/places"
)

// Expander turns a "lat,lng" pair or a maps link into a coordinate.
type Expander interface {
	Expand(ctx context.Context, input string) (geo.Coordinate, string, error)
}

// Quiz runs one game per channel. Players are Discord user IDs.
type Quiz struct {
	games    *game.Registry
	modes    game.Modes
	expander Expander
}

func NewQuiz(games *game.Registry, modes game.Modes, expander Expander) *Quiz {
	return &Quiz{games: games, modes: modes, expander: expander}
}

func (q *Quiz) ModeNames() []string { return q.modes.Names() }

type StartOptions struct {
	Difficulty string
	Mode       string
	// Rounds is nil when the option was left out.
	Rounds *int64
	// Players are user IDs in turn order, the invoker first.
	Players []string
}

func (q *Quiz) Start(channelID string, opts StartOptions) (string, error) {
	difficulty := places.Simple
	if opts.Difficulty != "" {
		d, err := places.ParseDifficulty(opts.Difficulty)
		if err != nil {
			return "", err
		}
		difficulty = d
	}
	mode, err := q.modes.Parse(opts.Mode)
	if err != nil {
		return "", err
	}
	rounds := game.DefaultRounds
	if opts.Rounds != nil {
		rounds = int(*opts.Rounds)
	}

	sess, err := q.games.Create(channelID, game.Settings{
		Players:    opts.Players,
		Rounds:     rounds,
		Difficulty: difficulty,
		Mode:       mode,
		Owner:      game.OwnerDiscord,
	})
	if err != nil {
		return "", err
	}

	zap.L().Info("quiz started",
		zap.String("channel", channelID),
		zap.Int("players", len(opts.Players)),
		zap.String("mode", mode.Name),
		zap.String("difficulty", string(difficulty)),
		zap.Int("rounds", rounds),
	)
	return "✅ New game: **" + mode.Name + "** mode, **" + string(difficulty) + "** cities.\n" + FormatTurn(sess.Current()), nil
}

func (q *Quiz) Guess(ctx context.Context, channelID, userID, location string) (string, error) {
	sess, err := q.games.Get(channelID)
	if err != nil {
		return "", err
	}
	// Fail fast before a possibly slow link expansion.
	if t := sess.Current(); t.Phase == game.PhaseAwaitingGuess && t.Player != userID {
		return "", game.ErrNotYourTurn
	}

	coord, _, err := q.expander.Expand(ctx, location)
	if err != nil {
		return "", err
	}
	res, err := sess.SubmitGuess(userID, coord)
	if err != nil {
		return "", err
	}

	msg := FormatResult(res, sess.Settings().Mode) + "\nUse `/quiz next` to continue."
	return msg, nil
}

func (q *Quiz) Next(channelID string) (string, error) {
	sess, err := q.games.Get(channelID)
	if err != nil {
		return "", err
	}
	turn, err := sess.Next()
	if err != nil {
		return "", err
	}
	if turn.Phase == game.PhaseFinished {
		return FormatTurn(turn) + "\n" + FormatLeaderboard(sess.Leaderboard(), sess.Settings().Mode, true), nil
	}
	return FormatTurn(turn), nil
}

func (q *Quiz) Board(channelID string) (string, error) {
	sess, err := q.games.Get(channelID)
	if err != nil {
		return "", err
	}
	return FormatLeaderboard(sess.Leaderboard(), sess.Settings().Mode, sess.Finished()), nil
}

func (q *Quiz) Stop(channelID string) (string, error) {
	sess, err := q.games.Get(channelID)
	if err != nil {
		return "", err
	}
	sess.Finish()
	if err := q.games.Delete(channelID); err != nil {
		return "", err
	}
	zap.L().Info("quiz stopped", zap.String("channel", channelID))
	return "✅ Game stopped.\n" + FormatLeaderboard(sess.Leaderboard(), sess.Settings().Mode, true), nil
}

// describeError turns game errors into something a player can act on.
func describeError(err error) string {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return "There is no game in this channel. Start one with `/quiz start`."
	case errors.Is(err, game.ErrSessionExists):
		return "A game is already running in this channel. Use `/quiz stop` first."
	case errors.Is(err, game.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, game.ErrResultPending):
		return "This city has been answered already. Use `/quiz next`."
	case errors.Is(err, game.ErrNoResult):
		return "Nobody has answered this city yet."
	case errors.Is(err, game.ErrGameOver):
		return "The game is over. Start a new one with `/quiz start`."
	case errors.Is(err, geourl.ErrNoCoordinates):
		return "Could not find coordinates in that. Send `lat,lng` or a Google Maps link."
	case errors.Is(err, game.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrOutOfRange):
		return "Those coordinates are out of range."
	case errors.Is(err, game.ErrInvalidSettings),
		errors.Is(err, game.ErrUnknownMode),
		errors.Is(err, places.ErrUnknownDifficulty):
		return "Cannot start that game: " + err.Error()
	}
	zap.L().Warn("quiz command failed", zap.Error(err))
	return "Something went wrong, please try again."
}

// HandleQuiz dispatches the /quiz subcommands.
func HandleQuiz(s *discordgo.Session, i *discordgo.InteractionCreate, q *Quiz) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondText(s, i, "No subcommand given.")
		return
	}

	sub := data.Options[0]
	channelID := i.ChannelID
	userID := invokerID(i)

	var msg string
	var err error
	switch sub.Name {
	case "start":
		opts := StartOptions{
			Players: []string{userID},
			Rounds:  getIntOption(sub.Options, "rounds"),
		}
		if v := getStringOption(sub.Options, "difficulty"); v != nil {
			opts.Difficulty = *v
		}
		if v := getStringOption(sub.Options, "mode"); v != nil {
			opts.Mode = *v
		}
		for _, name := range extraPlayers {
			if id := getUserID(sub.Options, name); id != "" {
				opts.Players = append(opts.Players, id)
			}
		}
		msg, err = q.Start(channelID, opts)

	case "guess":
		location := getStringOption(sub.Options, "location")
		if location == nil || strings.TrimSpace(*location) == "" {
			respondText(s, i, "A location is required.")
			return
		}
		// Short links are expanded over the network, which can outlast the
		// three seconds Discord waits for a reply.
		if err := deferResponse(s, i); err != nil {
			zap.L().Warn("failed to defer response", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		msg, err = q.Guess(ctx, channelID, userID, *location)
		if err != nil {
			msg = describeError(err)
		}
		editResponse(s, i, msg)
		return

	case "next":
		msg, err = q.Next(channelID)
	case "board":
		msg, err = q.Board(channelID)
	case "stop":
		msg, err = q.Stop(channelID)
	default:
		msg = "Unknown subcommand."
	}

	if err != nil {
		msg = describeError(err)
	}
	respondText(s, i, msg)
}
