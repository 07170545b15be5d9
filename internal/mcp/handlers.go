package mcp

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/ratingsim/internal/constants"
	"github.com/nvandessel/ratingsim/internal/experiment"
	"github.com/nvandessel/ratingsim/internal/export"
	"github.com/nvandessel/ratingsim/internal/pathutil"
	"github.com/nvandessel/ratingsim/internal/ratelimit"
	"github.com/nvandessel/ratingsim/internal/rating"
	"github.com/nvandessel/ratingsim/internal/simulation"
	"github.com/nvandessel/ratingsim/internal/store"
)

const (
	// defaultListLimit is the number of runs list_runs returns when no limit is given.
	defaultListLimit = 20

	// maxExports is the number of export files kept in the exports directory.
	maxExports = 20
)

// registerTools registers the ratingsim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "simulate_ratings",
		Description: "Run an Elo rating simulation (standard round-robin or elo-hell) and return final ratings and rating histories",
	}, s.handleSimulateRatings)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "team_win_rate",
		Description: "Estimate by Monte Carlo how often a team wins when every player may sabotage their side",
	}, s.handleTeamWinRate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "expected_score",
		Description: "Compute the Elo expected score between two ratings",
	}, s.handleExpectedScore)

	if s.store != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "list_runs",
			Description: "List simulation runs archived in the results store, most recent first",
		}, s.handleListRuns)

		if s.exportDir != "" {
			sdk.AddTool(s.server, &sdk.Tool{
				Name:        "export_runs",
				Description: "Export archived runs to a checksummed file in the exports directory",
			}, s.handleExportRuns)

			sdk.AddTool(s.server, &sdk.Tool{
				Name:        "import_runs",
				Description: "Import runs from an export file in the exports directory; already archived runs are skipped",
			}, s.handleImportRuns)
		}
	}
}

// simulationConfig builds the engine configuration of a simulate_ratings call
// from the mode defaults and the supplied overrides.
func simulationConfig(args SimulateInput) (simulation.Config, error) {
	mode, err := simulation.ParseMode(args.Mode)
	if err != nil {
		return simulation.Config{}, err
	}

	cfg := simulation.DefaultConfig()
	if mode == simulation.ModeEloHell {
		cfg = simulation.DefaultEloHellConfig()
	}
	setInt(&cfg.AgentCount, args.AgentCount)
	setInt(&cfg.TotalGames, args.TotalGames)
	setInt(&cfg.PlacementGames, args.PlacementGames)
	setFloat(&cfg.MinSkill, args.MinSkill)
	setFloat(&cfg.SkillStep, args.SkillStep)
	setFloat(&cfg.StartingRating, args.StartingRating)
	setFloat(&cfg.PlacementKFactor, args.PlacementKFactor)
	setFloat(&cfg.SteadyKFactor, args.SteadyKFactor)
	setFloat(&cfg.ForcedWinRate, args.ForcedWinRate)
	cfg.Seed = args.Seed

	// A total below the default placement count implies a shorter placement.
	if args.TotalGames != nil && args.PlacementGames == nil && cfg.PlacementGames > cfg.TotalGames {
		cfg.PlacementGames = cfg.TotalGames
	}

	if err := cfg.Validate(); err != nil {
		return simulation.Config{}, err
	}
	if cfg.TotalGames > constants.MaxToolTotalGames {
		return simulation.Config{}, fmt.Errorf("total_games %d exceeds the tool limit of %d", cfg.TotalGames, constants.MaxToolTotalGames)
	}
	if cfg.AgentCount > constants.MaxToolAgentCount {
		return simulation.Config{}, fmt.Errorf("agent_count %d exceeds the tool limit of %d", cfg.AgentCount, constants.MaxToolAgentCount)
	}

	plan, err := cfg.Plan()
	if err != nil {
		return simulation.Config{}, err
	}
	entries := int64(cfg.AgentCount) * int64(plan.Placement.GamesPerAgent+plan.Steady.GamesPerAgent+1)
	if entries > constants.MaxToolRatingEntries {
		return simulation.Config{}, fmt.Errorf("%d agents playing %d games each exceeds the tool limit of %d rating updates",
			cfg.AgentCount, plan.Placement.GamesPerAgent+plan.Steady.GamesPerAgent, constants.MaxToolRatingEntries)
	}
	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// handleSimulateRatings implements the simulate_ratings tool.
func (s *Server) handleSimulateRatings(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]any{"mode": args.Mode, "save": args.Save}
		if args.AgentCount != nil {
			params["agent_count"] = *args.AgentCount
		}
		if args.TotalGames != nil {
			params["total_games"] = *args.TotalGames
		}
		if args.Seed != nil {
			params["seed"] = *args.Seed
		}
		s.auditTool("simulate_ratings", start, retErr, params)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "simulate_ratings"); err != nil {
		return nil, SimulateOutput{}, err
	}

	cfg, err := simulationConfig(args)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("invalid simulation config: %w", err)
	}
	if args.Save && s.store == nil {
		return nil, SimulateOutput{}, fmt.Errorf("save requested but no results store is configured")
	}

	driver, err := simulation.New(cfg, simulation.WithLogger(s.logger))
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	res, err := driver.Run(ctx)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("simulation failed: %w", err)
	}

	out := SimulateOutput{
		RunID:      res.ID,
		Mode:       string(res.Mode),
		Seed:       res.Seed,
		Plan:       res.Plan,
		Matches:    res.Matches,
		MeanRating: res.MeanRating(),
		Agents:     make([]AgentSummary, len(res.Agents)),
	}
	for i, a := range res.Agents {
		history := a.History()
		rec := a.Record()
		out.Agents[i] = AgentSummary{
			Name:          a.Name,
			Skill:         a.Skill,
			FinalRating:   a.Rating(),
			Wins:          rec.Wins,
			Losses:        rec.Losses,
			Draws:         rec.Draws,
			History:       downsample(history, constants.MaxHistoryPoints),
			HistoryLength: len(history),
		}
	}

	if args.Save {
		id, err := s.store.SaveRun(ctx, res)
		if err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("failed to save run: %w", err)
		}
		out.RunID = id
		out.Saved = true
	}
	return nil, out, nil
}

// downsample returns at most limit points of history, evenly spaced, always
// keeping the first and last entries.
func downsample(history []float64, limit int) []float64 {
	n := len(history)
	if n <= limit || limit < 2 {
		return history
	}
	out := make([]float64, limit)
	for i := range out {
		idx := int(math.Round(float64(i) * float64(n-1) / float64(limit-1)))
		out[i] = history[idx]
	}
	return out
}

// handleTeamWinRate implements the team_win_rate tool.
func (s *Server) handleTeamWinRate(ctx context.Context, req *sdk.CallToolRequest, args TeamWinRateInput) (_ *sdk.CallToolResult, _ TeamWinRateOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]any{"trials": args.Trials}
		if args.OwnSize != nil {
			params["own_size"] = *args.OwnSize
		}
		if args.OpponentSize != nil {
			params["opponent_size"] = *args.OpponentSize
		}
		if args.Seed != nil {
			params["seed"] = *args.Seed
		}
		s.auditTool("team_win_rate", start, retErr, params)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "team_win_rate"); err != nil {
		return nil, TeamWinRateOutput{}, err
	}

	cfg := experiment.DefaultTeamConfig()
	setInt(&cfg.OwnSize, args.OwnSize)
	setInt(&cfg.OpponentSize, args.OpponentSize)
	setFloat(&cfg.InterferenceChance, args.InterferenceChance)

	trials := args.Trials
	if trials == 0 {
		trials = constants.DefaultTeamTrials
	}
	if trials > constants.MaxToolTeamTrials {
		return nil, TeamWinRateOutput{}, fmt.Errorf("trials %d exceeds the tool limit of %d", trials, constants.MaxToolTeamTrials)
	}

	seed, err := seedOrRandom(args.Seed)
	if err != nil {
		return nil, TeamWinRateOutput{}, err
	}

	report, err := experiment.EstimateTeamWinRate(ctx, rand.New(rand.NewSource(seed)), trials, cfg)
	if err != nil {
		return nil, TeamWinRateOutput{}, fmt.Errorf("team estimate failed: %w", err)
	}
	return nil, TeamWinRateOutput{Report: report, Seed: seed}, nil
}

func seedOrRandom(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return simulation.NewSeed()
}

// handleExpectedScore implements the expected_score tool.
func (s *Server) handleExpectedScore(ctx context.Context, req *sdk.CallToolRequest, args ExpectedScoreInput) (_ *sdk.CallToolResult, _ ExpectedScoreOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("expected_score", start, retErr, map[string]any{
			"rating_delta": args.Rating - args.OpponentRating,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "expected_score"); err != nil {
		return nil, ExpectedScoreOutput{}, err
	}

	if math.IsNaN(args.Rating) || math.IsInf(args.Rating, 0) ||
		math.IsNaN(args.OpponentRating) || math.IsInf(args.OpponentRating, 0) {
		return nil, ExpectedScoreOutput{}, fmt.Errorf("ratings must be finite")
	}

	return nil, ExpectedScoreOutput{
		Expected:         rating.Default.Expected(args.Rating, args.OpponentRating),
		OpponentExpected: rating.Default.Expected(args.OpponentRating, args.Rating),
		RatingDelta:      args.Rating - args.OpponentRating,
	}, nil
}

// handleListRuns implements the list_runs tool.
func (s *Server) handleListRuns(ctx context.Context, req *sdk.CallToolRequest, args ListRunsInput) (_ *sdk.CallToolResult, _ ListRunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("list_runs", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "list_runs"); err != nil {
		return nil, ListRunsOutput{}, err
	}

	if s.store == nil {
		return nil, ListRunsOutput{}, fmt.Errorf("no results store is configured")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return nil, ListRunsOutput{Runs: runs, Count: len(runs)}, nil
}

// handleExportRuns implements the export_runs tool.
func (s *Server) handleExportRuns(ctx context.Context, req *sdk.CallToolRequest, args ExportRunsInput) (_ *sdk.CallToolResult, _ ExportRunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("export_runs", start, retErr, map[string]any{"run_count": len(args.RunIDs)})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "export_runs"); err != nil {
		return nil, ExportRunsOutput{}, err
	}
	if s.store == nil || s.exportDir == "" {
		return nil, ExportRunsOutput{}, fmt.Errorf("exports are not configured")
	}

	path := export.GeneratePath(s.exportDir, time.Now())
	a, err := export.Export(ctx, s.store, args.RunIDs, path, s.exportDir)
	if err != nil {
		return nil, ExportRunsOutput{}, err
	}
	if err := export.Rotate(s.exportDir, maxExports); err != nil {
		s.logger.Warn("export rotation failed", "error", err)
	}
	return nil, ExportRunsOutput{Path: path, Runs: len(a.Runs)}, nil
}

// handleImportRuns implements the import_runs tool.
func (s *Server) handleImportRuns(ctx context.Context, req *sdk.CallToolRequest, args ImportRunsInput) (_ *sdk.CallToolResult, _ ImportRunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("import_runs", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "import_runs"); err != nil {
		return nil, ImportRunsOutput{}, err
	}
	if s.store == nil || s.exportDir == "" {
		return nil, ImportRunsOutput{}, fmt.Errorf("exports are not configured")
	}
	path, err := pathutil.Within(s.exportDir, args.Path)
	if err != nil {
		return nil, ImportRunsOutput{}, fmt.Errorf("import path rejected: %w", err)
	}
	result, err := export.Import(ctx, s.store, path, s.exportDir)
	if err != nil {
		return nil, ImportRunsOutput{}, err
	}
	return nil, ImportRunsOutput{Imported: result.Imported, Skipped: result.Skipped, IDs: result.IDs}, nil
}
