package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/experiment"
	"github.com/nvandessel/ratingsim/internal/simulation"
)

func newTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Estimate the win rate of the team-composition model",
		Long: `Estimate how often the player's team wins when any player may sabotage
their own side. The player is never a saboteur, so the player's team has one
fewer potential saboteur than the opponents; the team with fewer saboteurs
wins and ties go to a coin flip.

With the defaults (4 teammates vs 5 opponents, 10% chance) the player's team
wins about 53.6% of matches, the forced win rate of elo-hell mode.

Examples:
  ratingsim teams
  ratingsim teams --trials 100000 --interference 0.2 --seed 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			teams := cfg.ToTeams()
			trials := cfg.Teams.Trials
			if cmd.Flags().Changed("own") {
				teams.OwnSize, _ = cmd.Flags().GetInt("own")
			}
			if cmd.Flags().Changed("opponents") {
				teams.OpponentSize, _ = cmd.Flags().GetInt("opponents")
			}
			if cmd.Flags().Changed("interference") {
				teams.InterferenceChance, _ = cmd.Flags().GetFloat64("interference")
			}
			if cmd.Flags().Changed("trials") {
				trials, _ = cmd.Flags().GetInt("trials")
			}

			seed, err := seedFlag(cmd)
			if err != nil {
				return err
			}

			report, err := experiment.EstimateTeamWinRate(cmd.Context(), rand.New(rand.NewSource(seed)), trials, teams)
			if err != nil {
				return fmt.Errorf("team estimate failed: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"report": report,
					"seed":   seed,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Team model: %d teammates + player vs %d opponents, interference %.1f%% (seed %d)\n",
				teams.OwnSize, teams.OpponentSize, 100*teams.InterferenceChance, seed)
			fmt.Fprintf(w, "  trials:     %d\n", report.Trials)
			fmt.Fprintf(w, "  wins:       %d\n", report.Wins)
			fmt.Fprintf(w, "  losses:     %d\n", report.Losses)
			fmt.Fprintf(w, "  coin flips: %d\n", report.CoinFlips)
			fmt.Fprintf(w, "  win rate:   %.4f\n", report.WinRate)
			return nil
		},
	}

	cmd.Flags().Int("own", 0, "Teammates of the player, the player excluded (default from config: 4)")
	cmd.Flags().Int("opponents", 0, "Size of the opposing team (default from config: 5)")
	cmd.Flags().Float64("interference", 0, "Chance that a player sabotages their team (default from config: 0.1)")
	cmd.Flags().Int("trials", 0, "Number of simulated matches (default from config: 1000000)")
	cmd.Flags().Int64("seed", 0, "Seed for a reproducible estimate (0 draws a random seed)")

	return cmd
}

// seedFlag returns --seed, or a fresh random seed when it is unset or zero.
func seedFlag(cmd *cobra.Command) (int64, error) {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed != 0 {
		return seed, nil
	}
	return simulation.NewSeed()
}
