package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/constants"
	"github.com/nvandessel/ratingsim/internal/experiment"
)

func newDuelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Show how a small per-point edge grows over a long match",
		Long: `Simulate matches made of many independent points. A match is won by
taking more than half of its points, so a slight per-point advantage turns
into a much larger match win rate as matches get longer.

Examples:
  ratingsim duel
  ratingsim duel --point-win-rate 0.52 --points 201 --matches 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			pointWinRate, _ := cmd.Flags().GetFloat64("point-win-rate")
			matches, _ := cmd.Flags().GetInt("matches")
			points, _ := cmd.Flags().GetInt("points")

			seed, err := seedFlag(cmd)
			if err != nil {
				return err
			}

			report, err := experiment.SimulateDuel(rand.New(rand.NewSource(seed)), pointWinRate, matches, points)
			if err != nil {
				return fmt.Errorf("duel failed: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"report": report,
					"seed":   seed,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Duel: %d matches of %d points at %.1f%% per point (seed %d)\n",
				report.Matches, report.PointsPerMatch, 100*report.PointWinRate, seed)
			fmt.Fprintf(w, "  match wins:     %d\n", report.MatchWins)
			fmt.Fprintf(w, "  match win rate: %.4f\n", report.MatchWinRate)
			return nil
		},
	}

	cmd.Flags().Float64("point-win-rate", constants.DefaultPointWinRate, "Probability of winning a single point")
	cmd.Flags().Int("matches", constants.DefaultDuelMatches, "Number of matches")
	cmd.Flags().Int("points", constants.DefaultPointsPerMatch, "Points per match")
	cmd.Flags().Int64("seed", 0, "Seed for a reproducible duel (0 draws a random seed)")

	return cmd
}
