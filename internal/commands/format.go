package commands

import (
	"fmt"
	"strings"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/geourl"
)

func mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return "▫️"
}

func unit(mode game.Mode) string {
	if mode.DistanceAsScore {
		return "km"
	}
	return "pts"
}

// FormatTurn asks the current player for the current city.
func FormatTurn(t game.Turn) string {
	if t.Phase == game.PhaseFinished {
		return "🏁 The game is over."
	}
	round := fmt.Sprintf("Round %d", t.Round)
	if t.Rounds > 0 {
		round = fmt.Sprintf("Round %d/%d", t.Round, t.Rounds)
	}
	return fmt.Sprintf("🗺️ **%s** · %s, where is **%s**?\nAnswer with `/quiz guess` and a `lat,lng` pair or a Google Maps link.",
		round, mention(t.Player), t.Place)
}

// FormatResult reports one scored guess and where the city really is.
func FormatResult(r game.Result, mode game.Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Outcome.Label())
	fmt.Fprintf(&b, "%s was **%s** from **%s**.\n", mention(r.Player), geo.FormatDistance(r.Outcome.DistanceKm), r.Place.Name)
	fmt.Fprintf(&b, "📍 %s\n", geourl.MapsURL(r.Place.Location))
	fmt.Fprintf(&b, "+%d %s (total %d %s)", r.Awarded, unit(mode), r.Total, unit(mode))
	return b.String()
}

// FormatLeaderboard lists standings with medals for the top three.
func FormatLeaderboard(standings []game.Standing, mode game.Mode, finished bool) string {
	title := "📊 **Scores**"
	if finished {
		title = "🏆 **Final standings**"
	}
	if len(standings) == 0 {
		return title + "\nNobody is playing."
	}

	var b strings.Builder
	b.WriteString(title)
	if !mode.HigherIsBetter {
		b.WriteString(" (lowest wins)")
	}
	for _, s := range standings {
		fmt.Fprintf(&b, "\n%s %d. %s: **%d %s** (%d guesses)", medal(s.Rank), s.Rank, mention(s.Player), s.Score, unit(mode), s.Guesses)
	}
	return b.String()
}
