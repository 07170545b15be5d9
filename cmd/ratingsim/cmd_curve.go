package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/experiment"
	"github.com/nvandessel/ratingsim/internal/rating"
)

func newCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Tabulate the expected win rate against the rating difference",
		Long: `Print the Elo expected win rate for a range of rating differences.

With --win-rate, print instead the rating difference that corresponds to a
given expected win rate.

Examples:
  ratingsim curve --from -800 --to 800 --step 100
  ratingsim curve --win-rate 0.536`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			from, _ := cmd.Flags().GetFloat64("from")
			to, _ := cmd.Flags().GetFloat64("to")
			step, _ := cmd.Flags().GetFloat64("step")
			w := cmd.OutOrStdout()

			if cmd.Flags().Changed("win-rate") {
				winRate, _ := cmd.Flags().GetFloat64("win-rate")
				gap, err := experiment.RatingGapFor(rating.Default, winRate)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, map[string]float64{
						"win_rate":     winRate,
						"rating_delta": gap,
					})
				}
				fmt.Fprintf(w, "A win rate of %.4f is expected %.1f rating points above the opponent\n", winRate, gap)
				return nil
			}

			points, err := experiment.WinRateCurve(rating.Default, from, to, step)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"points": points,
					"count":  len(points),
				})
			}

			fmt.Fprintf(w, "%10s %10s\n", "DELTA", "WIN RATE")
			for _, p := range points {
				fmt.Fprintf(w, "%10.1f %10.4f\n", p.RatingDelta, p.WinRate)
			}
			return nil
		},
	}

	cmd.Flags().Float64("from", -800, "First rating difference")
	cmd.Flags().Float64("to", 800, "Last rating difference")
	cmd.Flags().Float64("step", 100, "Increment between rating differences")
	cmd.Flags().Float64("win-rate", 0, "Print the rating difference for this expected win rate instead")

	return cmd
}
