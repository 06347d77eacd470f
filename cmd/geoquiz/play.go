package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/geourl"
	"github.com/susu3304/geoquiz/internal/places"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long:  "Plays a game on one device. Each turn answer with lat,lng or a Google Maps link, or type quit.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f := cmd.Flags()
		players, _ := f.GetStringSlice("players")
		rounds, _ := f.GetInt("rounds")
		difficulty, _ := f.GetString("difficulty")
		modeName, _ := f.GetString("mode")

		games, modes, err := newRegistry()
		if err != nil {
			return err
		}
		d, err := places.ParseDifficulty(difficulty)
		if err != nil {
			return err
		}
		mode, err := modes.Parse(modeName)
		if err != nil {
			return err
		}
		sess, err := games.Create(uuid.NewString(), game.Settings{
			Players:    players,
			Rounds:     rounds,
			Difficulty: d,
			Mode:       mode,
			Owner:      game.OwnerTerminal,
		})
		if err != nil {
			return err
		}
		return runPlay(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess, geourl.NewClient())
	},
}

func init() {
	f := playCmd.Flags()
	f.StringSlice("players", []string{"Player 1"}, "player names in turn order")
	f.Int("rounds", game.DefaultRounds, "rounds to play, 0 for endless")
	f.String("difficulty", string(places.Simple), "simple, medium or hard")
	f.String("mode", game.ModeClassic.Name, "classic, compact, distance or custom")
	rootCmd.AddCommand(playCmd)
}

type expander interface {
	Expand(ctx context.Context, input string) (geo.Coordinate, string, error)
}

// runPlay drives sess from lines read on in until the game ends, the input
// runs out, or a player types quit.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, sess *game.Session, exp expander) error {
	scanner := bufio.NewScanner(in)
	mode := sess.Settings().Mode
	unit := "points"
	if mode.DistanceAsScore {
		unit = "km"
	}

	for !sess.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		turn := sess.Current()
		if turn.Rounds > 0 {
			fmt.Fprintf(out, "\nRound %d/%d  %s, where is %s?\n> ", turn.Round, turn.Rounds, turn.Player, turn.Place)
		} else {
			fmt.Fprintf(out, "\nRound %d  %s, where is %s?\n> ", turn.Round, turn.Player, turn.Place)
		}
		if !scanner.Scan() {
			sess.Finish()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "q" {
			sess.Finish()
			break
		}

		c, _, err := exp.Expand(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "Cannot read that (%v). Try lat,lng or a Google Maps link.\n", err)
			continue
		}
		res, err := sess.SubmitGuess("", c)
		if err != nil {
			fmt.Fprintf(out, "Guess rejected: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s  %s was at %s, %s away. +%d %s (total %d)\n",
			res.Outcome.Label(), res.Place.Name, res.Place.Location, geo.FormatDistance(res.Outcome.DistanceKm), res.Awarded, unit, res.Total)

		if _, err := sess.Next(); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "\nFinal standings:")
	if !mode.HigherIsBetter {
		fmt.Fprintln(out, "(lowest wins)")
	}
	for _, s := range sess.Leaderboard() {
		fmt.Fprintf(out, "%d. %s  %d %s\n", s.Rank, s.Player, s.Score, unit)
	}
	return scanner.Err()
}
