package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/simulation"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run replicated simulations in parallel",
		Long: `Run the same simulation with consecutive seeds and summarize the spread
of final ratings across replicates.

Each replicate is independent and reproducible on its own: replicate i uses
seed base-seed+i.

Examples:
  ratingsim batch --replicates 50 --base-seed 1000
  ratingsim batch --mode elo-hell --games 10000 --replicates 20 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			replicates, _ := cmd.Flags().GetInt("replicates")
			workers, _ := cmd.Flags().GetInt("workers")
			baseSeed, _ := cmd.Flags().GetInt64("base-seed")
			save, _ := cmd.Flags().GetBool("save")

			if replicates <= 0 {
				return fmt.Errorf("replicates must be positive, got %d", replicates)
			}

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

			if !cmd.Flags().Changed("base-seed") {
				if simCfg.Seed != nil {
					baseSeed = *simCfg.Seed
				} else if baseSeed, err = simulation.NewSeed(); err != nil {
					return err
				}
			}

			results, err := simulation.RunBatch(cmd.Context(), simulation.Replicates(simCfg, replicates, baseSeed), workers,
				simulation.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("batch failed: %w", err)
			}

			out := summarizeBatch(results, baseSeed)
			if save {
				if out.RunIDs, err = saveResults(cmd.Context(), cfg, results...); err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, out)
			}
			printBatch(cmd.OutOrStdout(), out)
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Int("replicates", 10, "Number of independent runs")
	cmd.Flags().Int("workers", 0, "Maximum concurrent runs (0 uses GOMAXPROCS)")
	cmd.Flags().Int64("base-seed", 0, "Seed of the first replicate (default: config seed or random)")
	cmd.Flags().Bool("save", false, "Archive every replicate in the results store")

	return cmd
}

// batchOutput summarizes a batch of replicated runs.
type batchOutput struct {
	Mode       simulation.Mode `json:"mode"`
	Replicates int             `json:"replicates"`
	BaseSeed   int64           `json:"base_seed"`
	Plan       simulation.Plan `json:"plan"`
	Agents     []agentSpread   `json:"agents"`
	RunIDs     []string        `json:"run_ids,omitempty"`
}

// agentSpread is the distribution of one agent's final rating across replicates.
type agentSpread struct {
	Name        string  `json:"name"`
	Skill       float64 `json:"skill"`
	Mean        float64 `json:"mean_final_rating"`
	StdDev      float64 `json:"stddev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	MeanWinRate float64 `json:"mean_win_rate"`
}

// summarizeBatch aggregates per-agent final ratings. Every replicate shares
// one configuration, so agents line up by index.
func summarizeBatch(results []*simulation.Result, baseSeed int64) batchOutput {
	out := batchOutput{Replicates: len(results), BaseSeed: baseSeed}
	if len(results) == 0 {
		return out
	}
	out.Mode = results[0].Mode
	out.Plan = results[0].Plan

	n := float64(len(results))
	for i, a := range results[0].Agents {
		spread := agentSpread{Name: a.Name, Skill: a.Skill, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum, sumSq, winRate float64
		for _, res := range results {
			r := res.Agents[i].Rating()
			sum += r
			sumSq += r * r
			spread.Min = math.Min(spread.Min, r)
			spread.Max = math.Max(spread.Max, r)
			winRate += res.Agents[i].Record().WinRate()
		}
		spread.Mean = sum / n
		spread.StdDev = math.Sqrt(math.Max(0, sumSq/n-spread.Mean*spread.Mean))
		spread.MeanWinRate = winRate / n
		out.Agents = append(out.Agents, spread)
	}
	return out
}

func printBatch(w io.Writer, out batchOutput) {
	fmt.Fprintf(w, "Batch of %d %s runs, seeds %d..%d\n\n", out.Replicates, out.Mode, out.BaseSeed, out.BaseSeed+int64(out.Replicates)-1)
	fmt.Fprintf(w, "%-8s %8s %10s %8s %10s %10s %8s\n", "AGENT", "SKILL", "MEAN", "STDDEV", "MIN", "MAX", "WIN%")
	for _, a := range out.Agents {
		fmt.Fprintf(w, "%-8s %8.2f %10.2f %8.2f %10.2f %10.2f %7.1f%%\n",
			a.Name, a.Skill, a.Mean, a.StdDev, a.Min, a.Max, 100*a.MeanWinRate)
	}
	if len(out.RunIDs) > 0 {
		fmt.Fprintf(w, "\nSaved %d runs\n", len(out.RunIDs))
	}
}
