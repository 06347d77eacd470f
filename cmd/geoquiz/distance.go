package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/geo"
	"github.com/susu3304/geoquiz/internal/geourl"
	"github.com/susu3304/geoquiz/internal/scoring"
)

var distanceCmd = &cobra.Command{
	Use:   "distance <lat,lng> <lat,lng>",
	Short: "Score the distance between two points",
	Long:  "Prints the great-circle distance between two points and the tier it falls in. Points may be lat,lng pairs or Google Maps links. With TIER_FILE set, --table custom scores with that table.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _ := cmd.Flags().GetString("table")
		modes, err := loadModes(cfg.TierFile)
		if err != nil {
			return err
		}
		return runDistance(cmd.OutOrStdout(), args[0], args[1], table, modes)
	},
}

func init() {
	distanceCmd.Flags().String("table", scoring.Points.Name(), "tier table to score with (points, compact, or custom from TIER_FILE)")
	rootCmd.AddCommand(distanceCmd)
}

func runDistance(out io.Writer, from, to, tableName string, modes game.Modes) error {
	table, err := modes.Table(tableName)
	if err != nil {
		return err
	}
	a, err := geourl.Parse(from)
	if err != nil {
		return err
	}
	b, err := geourl.Parse(to)
	if err != nil {
		return err
	}

	o := scoring.ScoreForDistance(geo.DistanceKm(a, b), table)
	_, err = fmt.Fprintf(out, "%s  %d points  %s\n", geo.FormatDistance(o.DistanceKm), o.Points(), o.Label())
	return err
}
