package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/config"
	"github.com/nvandessel/ratingsim/internal/logging"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/simulation"
	"github.com/nvandessel/ratingsim/internal/store"
	"github.com/nvandessel/ratingsim/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one rating simulation",
		Long: `Run one rating simulation and print the final rating of every agent.

Flags override the simulation section of the config file. Switching --mode
starts from that mode's defaults; elo-hell defaults to a single agent rated
1200 with K-factors 50 and 25.

Examples:
  ratingsim run --agents 10 --games 200 --seed 42
  ratingsim run --mode elo-hell --games 100000 --json
  ratingsim run --seed 7 --save --trace --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")
			trace, _ := cmd.Flags().GetBool("trace")
			showHistory, _ := cmd.Flags().GetBool("history")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			simCfg, err := simulationFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			shutdown, err := setupTelemetry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdownTelemetry(shutdown, logger)

			opts := []simulation.Option{simulation.WithLogger(logger)}
			if trace {
				ml := openMatchLogger(cfg, logger)
				defer ml.Close()
				opts = append(opts, simulation.WithMatchLogger(ml))
			}

			driver, err := simulation.New(simCfg, opts...)
			if err != nil {
				return fmt.Errorf("invalid simulation config: %w", err)
			}
			res, err := driver.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			savedID := ""
			if save {
				ids, err := saveResults(cmd.Context(), cfg, res)
				if err != nil {
					return err
				}
				savedID = ids[0]
			}

			if jsonOut {
				return writeJSON(cmd, runOutput{
					Result:     res,
					MeanRating: res.MeanRating(),
					Agents:     res.Snapshots(),
					SavedRunID: savedID,
				})
			}
			printRun(cmd.OutOrStdout(), res, savedID, showHistory)
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Bool("save", false, "Archive the run in the results store")
	cmd.Flags().Bool("trace", false, "Write every match to matches.jsonl in the trace directory")
	cmd.Flags().Bool("history", false, "Print the full rating history of every agent")

	return cmd
}

// runOutput is the JSON shape of `ratingsim run`.
type runOutput struct {
	Result     *simulation.Result `json:"result"`
	MeanRating float64            `json:"mean_rating"`
	Agents     []models.Snapshot  `json:"agents"`
	SavedRunID string             `json:"saved_run_id,omitempty"`
}

// addSimulationFlags registers the flags that override the simulation config.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Simulation mode: standard or elo-hell")
	cmd.Flags().Int("agents", 0, "Number of agents")
	cmd.Flags().Int("games", 0, "Requested games per agent, placement included")
	cmd.Flags().Int("placement", 0, "Requested placement games per agent")
	cmd.Flags().Float64("min-skill", 0, "Skill of the weakest agent")
	cmd.Flags().Float64("skill-step", 0, "Skill increment between consecutive agents")
	cmd.Flags().Float64("starting-rating", 0, "Initial rating of every agent")
	cmd.Flags().Float64("placement-k", 0, "K-factor during placement")
	cmd.Flags().Float64("steady-k", 0, "K-factor after placement")
	cmd.Flags().Float64("win-rate", 0, "Forced win rate of elo-hell mode")
	cmd.Flags().Int64("seed", 0, "Seed for a reproducible run (0 draws a random seed)")
}

// simulationFromFlags builds the engine configuration from the config file
// and the flags that were explicitly set.
func simulationFromFlags(cmd *cobra.Command, cfg *config.Config) (simulation.Config, error) {
	sim := cfg.ToSimulation()
	flags := cmd.Flags()

	if flags.Changed("mode") {
		name, _ := flags.GetString("mode")
		mode, err := simulation.ParseMode(name)
		if err != nil {
			return simulation.Config{}, err
		}
		if mode != sim.Mode {
			seed := sim.Seed
			sim = simulation.DefaultConfig()
			if mode == simulation.ModeEloHell {
				sim = simulation.DefaultEloHellConfig()
			}
			sim.Seed = seed
		}
	}

	intFlags := map[string]*int{
		"agents":    &sim.AgentCount,
		"games":     &sim.TotalGames,
		"placement": &sim.PlacementGames,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	floatFlags := map[string]*float64{
		"min-skill":       &sim.MinSkill,
		"skill-step":      &sim.SkillStep,
		"starting-rating": &sim.StartingRating,
		"placement-k":     &sim.PlacementKFactor,
		"steady-k":        &sim.SteadyKFactor,
		"win-rate":        &sim.ForcedWinRate,
	}
	for name, dst := range floatFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetFloat64(name)
		}
	}

	// A shorter run than the configured placement implies a shorter placement.
	if flags.Changed("games") && !flags.Changed("placement") && sim.PlacementGames > sim.TotalGames {
		sim.PlacementGames = sim.TotalGames
	}

	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		if seed == 0 {
			sim.Seed = nil
		} else {
			sim = sim.WithSeed(seed)
		}
	}
	return sim, nil
}

// setupTelemetry starts span export when the config enables it.
func setupTelemetry(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	return shutdown, nil
}

func shutdownTelemetry(shutdown func(context.Context) error, logger *slog.Logger) {
	if err := shutdown(context.Background()); err != nil {
		logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// openMatchLogger opens the match trace. Tracing needs at least debug level,
// so an info-level config is raised to debug for the trace file only.
func openMatchLogger(cfg *config.Config, logger *slog.Logger) *logging.MatchLogger {
	level := cfg.Logging.Level
	if logging.ParseLevel(level) >= slog.LevelInfo {
		level = "debug"
	}
	ml := logging.NewMatchLogger(cfg.Logging.TraceDir, level)
	if ml == nil {
		logger.Warn("match trace disabled: cannot open trace file", "dir", cfg.Logging.TraceDir)
	} else {
		logger.Info("tracing matches", "file", filepath.Join(cfg.Logging.TraceDir, logging.MatchFile))
	}
	return ml
}

// saveResults archives each result and returns the run IDs in order.
func saveResults(ctx context.Context, cfg *config.Config, results ...*simulation.Result) ([]string, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	defer st.Close()

	ids := make([]string, len(results))
	for i, res := range results {
		id, err := st.SaveRun(ctx, res)
		if err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		ids[i] = id
	}
	return ids, nil
}

func printRun(w io.Writer, res *simulation.Result, savedID string, showHistory bool) {
	fmt.Fprintf(w, "Run %s (%s, seed %d)\n", res.ID, res.Mode, res.Seed)
	fmt.Fprintf(w, "  placement: %d games/agent at K=%g", res.Plan.Placement.GamesPerAgent, res.Plan.Placement.KFactor)
	if res.Mode == simulation.ModeStandard {
		fmt.Fprintf(w, " (%d journeys)", res.Plan.Placement.Journeys)
	}
	fmt.Fprintf(w, "\n  steady:    %d games/agent at K=%g", res.Plan.Steady.GamesPerAgent, res.Plan.Steady.KFactor)
	if res.Mode == simulation.ModeStandard {
		fmt.Fprintf(w, " (%d journeys)", res.Plan.Steady.Journeys)
	}
	fmt.Fprintf(w, "\n  matches:   %d in %v\n\n", res.Matches, res.Duration.Round(time.Microsecond))

	fmt.Fprintf(w, "%-8s %8s %10s %7s %7s %7s\n", "AGENT", "SKILL", "RATING", "WINS", "LOSSES", "DRAWS")
	for _, a := range res.Agents {
		rec := a.Record()
		fmt.Fprintf(w, "%-8s %8.2f %10.2f %7d %7d %7d\n", a.Name, a.Skill, a.Rating(), rec.Wins, rec.Losses, rec.Draws)
	}
	fmt.Fprintf(w, "\nMean rating: %.2f\n", res.MeanRating())

	if showHistory {
		fmt.Fprintln(w)
		for _, a := range res.Agents {
			points := make([]string, 0, len(a.History()))
			for _, r := range a.History() {
				points = append(points, fmt.Sprintf("%.2f", r))
			}
			fmt.Fprintf(w, "%s: %s\n", a.Name, strings.Join(points, " "))
		}
	}

	if savedID != "" {
		fmt.Fprintf(w, "\nSaved as run %s\n", savedID)
	}
}
