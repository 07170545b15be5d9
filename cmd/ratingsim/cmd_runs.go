package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ratingsim/internal/config"
	"github.com/nvandessel/ratingsim/internal/export"
	"github.com/nvandessel/ratingsim/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived simulation runs",
		Long: `List, show, delete, export and import runs saved with --save.

The archive lives at store.path (default ~/.ratingsim/runs.db). Exports are
gzip-compressed JSON files with a checksummed header line.

Examples:
  ratingsim runs list --limit 5
  ratingsim runs show 3f2a... --history --json
  ratingsim runs delete 3f2a...
  ratingsim runs export --out runs.json.gz
  ratingsim runs import runs.json.gz`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
		newRunsExportCmd(),
		newRunsImportCmd(),
	)

	return cmd
}

// openStore opens the results archive named by the config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	return st, nil
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				if runs == nil {
					runs = []store.Run{}
				}
				return writeJSON(cmd, map[string]any{
					"runs":  runs,
					"count": len(runs),
					"path":  st.Path(),
				})
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintf(w, "No runs archived in %s\n", st.Path())
				return nil
			}
			fmt.Fprintf(w, "%-36s  %-8s  %20s  %6s  %7s  %8s  %s\n", "ID", "MODE", "SEED", "AGENTS", "GAMES", "MATCHES", "STARTED")
			for _, r := range runs {
				fmt.Fprintf(w, "%-36s  %-8s  %20d  %6d  %7d  %8d  %s\n",
					r.ID, r.Mode, r.Seed, r.AgentCount, r.TotalGames, r.Matches, r.StartedAt)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs (0 for all)")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show an archived run and its agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			showHistory, _ := cmd.Flags().GetBool("history")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			agents, err := st.LoadAgents(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if !showHistory {
				for i := range agents {
					agents[i].RatingHistory = nil
				}
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"run":    run,
					"agents": agents,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run %s (%s, seed %d)\n", run.ID, run.Mode, run.Seed)
			fmt.Fprintf(w, "  started:  %s (%d ms)\n", run.StartedAt, run.DurationMS)
			fmt.Fprintf(w, "  journeys: %d placement, %d steady\n", run.PlacementJourneys, run.SteadyJourneys)
			fmt.Fprintf(w, "  matches:  %d\n", run.Matches)
			fmt.Fprintf(w, "  mean:     %.2f\n\n", run.MeanRating)

			fmt.Fprintf(w, "%-8s %8s %10s %7s %7s %7s\n", "AGENT", "SKILL", "RATING", "WINS", "LOSSES", "DRAWS")
			for _, a := range agents {
				fmt.Fprintf(w, "%-8s %8.2f %10.2f %7d %7d %7d\n",
					a.Name, a.Skill, a.FinalRating, a.Record.Wins, a.Record.Losses, a.Record.Draws)
			}
			if showHistory {
				fmt.Fprintln(w)
				for _, a := range agents {
					points := make([]string, len(a.RatingHistory))
					for i, r := range a.RatingHistory {
						points[i] = fmt.Sprintf("%.2f", r)
					}
					fmt.Fprintf(w, "%s: %s\n", a.Name, strings.Join(points, " "))
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("history", false, "Include the full rating history of every agent")

	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, map[string]string{
					"status": "deleted",
					"id":     args[0],
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

func newRunsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id...]",
		Short: "Export archived runs to a file",
		Long: `Write the given runs, or every archived run, to an export file.

Without --out the file is created in ~/.ratingsim/exports/ with a timestamped
name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out, _ := cmd.Flags().GetString("out")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if out == "" {
				out = export.GeneratePath(export.Dir(config.Dir()), time.Now())
			}
			a, err := export.Export(cmd.Context(), st, args, out)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"path": out,
					"runs": len(a.Runs),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d runs to %s\n", len(a.Runs), out)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Export file (default: timestamped file in ~/.ratingsim/exports/)")

	return cmd
}

func newRunsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import runs from an export file",
		Long: `Archive every run of an export file. Runs that are already archived
are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := export.Import(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d runs (%d already archived)\n", result.Imported, result.Skipped)
			return nil
		},
	}
}
