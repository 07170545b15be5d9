package mcp

import (
	"github.com/nvandessel/ratingsim/internal/experiment"
	"github.com/nvandessel/ratingsim/internal/simulation"
	"github.com/nvandessel/ratingsim/internal/store"
)

// SimulateInput defines the input for the simulate_ratings tool. Omitted
// fields take the defaults of the selected mode.
type SimulateInput struct {
	Mode             string   `json:"mode,omitempty" jsonschema:"simulation mode: standard (default) or elo-hell"`
	AgentCount       *int     `json:"agent_count,omitempty" jsonschema:"number of agents (at least 2 in standard mode, 1 in elo-hell)"`
	TotalGames       *int     `json:"total_games,omitempty" jsonschema:"requested games per agent, placement included"`
	PlacementGames   *int     `json:"placement_games,omitempty" jsonschema:"requested placement games per agent"`
	MinSkill         *float64 `json:"min_skill,omitempty" jsonschema:"skill of the weakest agent (positive)"`
	SkillStep        *float64 `json:"skill_step,omitempty" jsonschema:"skill increment between consecutive agents"`
	StartingRating   *float64 `json:"starting_rating,omitempty" jsonschema:"initial rating of every agent"`
	PlacementKFactor *float64 `json:"placement_k_factor,omitempty" jsonschema:"K-factor during placement"`
	SteadyKFactor    *float64 `json:"steady_k_factor,omitempty" jsonschema:"K-factor after placement"`
	ForcedWinRate    *float64 `json:"forced_win_rate,omitempty" jsonschema:"fixed win probability in elo-hell mode, in (0, 1)"`
	Seed             *int64   `json:"seed,omitempty" jsonschema:"seed for a reproducible run; random when omitted"`
	Save             bool     `json:"save,omitempty" jsonschema:"archive the run in the results store"`
}

// SimulateOutput defines the output for the simulate_ratings tool.
type SimulateOutput struct {
	RunID      string          `json:"run_id" jsonschema:"run identifier"`
	Mode       string          `json:"mode" jsonschema:"simulation mode that was played"`
	Seed       int64           `json:"seed" jsonschema:"seed used; pass it back to replay the run"`
	Plan       simulation.Plan `json:"plan" jsonschema:"journeys and games per agent of each phase"`
	Matches    int             `json:"matches" jsonschema:"number of rating updates applied"`
	MeanRating float64         `json:"mean_rating" jsonschema:"mean final rating of the population"`
	Agents     []AgentSummary  `json:"agents" jsonschema:"final state of every agent in creation order"`
	Saved      bool            `json:"saved" jsonschema:"whether the run was archived"`
}

// AgentSummary is the tool view of one agent. History is downsampled when
// longer than the tool output limit; HistoryLength is always the full length.
type AgentSummary struct {
	Name          string    `json:"name"`
	Skill         float64   `json:"skill"`
	FinalRating   float64   `json:"final_rating"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	Draws         int       `json:"draws"`
	History       []float64 `json:"history"`
	HistoryLength int       `json:"history_length"`
}

// TeamWinRateInput defines the input for the team_win_rate tool.
type TeamWinRateInput struct {
	OwnSize            *int     `json:"own_size,omitempty" jsonschema:"teammates of the player, the player excluded (default 4)"`
	OpponentSize       *int     `json:"opponent_size,omitempty" jsonschema:"size of the opposing team (default 5)"`
	InterferenceChance *float64 `json:"interference_chance,omitempty" jsonschema:"probability that a player sabotages their team (default 0.1)"`
	Trials             int      `json:"trials,omitempty" jsonschema:"number of simulated team matches (default 1000000)"`
	Seed               *int64   `json:"seed,omitempty" jsonschema:"seed for a reproducible estimate; random when omitted"`
}

// TeamWinRateOutput defines the output for the team_win_rate tool.
type TeamWinRateOutput struct {
	Report experiment.TeamReport `json:"report" jsonschema:"win, loss and coin-flip counts of the estimate"`
	Seed   int64                 `json:"seed" jsonschema:"seed used"`
}

// ExpectedScoreInput defines the input for the expected_score tool.
type ExpectedScoreInput struct {
	Rating         float64 `json:"rating" jsonschema:"rating of the player"`
	OpponentRating float64 `json:"opponent_rating" jsonschema:"rating of the opponent"`
}

// ExpectedScoreOutput defines the output for the expected_score tool.
type ExpectedScoreOutput struct {
	Expected         float64 `json:"expected" jsonschema:"expected score of the player"`
	OpponentExpected float64 `json:"opponent_expected" jsonschema:"expected score of the opponent"`
	RatingDelta      float64 `json:"rating_delta" jsonschema:"player rating minus opponent rating"`
}

// ListRunsInput defines the input for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs, most recent first (default 20)"`
}

// ListRunsOutput defines the output for the list_runs tool.
type ListRunsOutput struct {
	Runs  []store.Run `json:"runs" jsonschema:"archived runs"`
	Count int         `json:"count" jsonschema:"number of runs returned"`
}

// ExportRunsInput defines the input for the export_runs tool.
type ExportRunsInput struct {
	RunIDs []string `json:"run_ids,omitempty" jsonschema:"IDs of the runs to export; every archived run when empty"`
}

// ExportRunsOutput defines the output for the export_runs tool.
type ExportRunsOutput struct {
	Path string `json:"path" jsonschema:"export file written in the exports directory"`
	Runs int    `json:"runs" jsonschema:"number of runs exported"`
}

// ImportRunsInput defines the input for the import_runs tool.
type ImportRunsInput struct {
	Path string `json:"path" jsonschema:"export file to import, absolute or relative to the exports directory"`
}

// ImportRunsOutput defines the output for the import_runs tool.
type ImportRunsOutput struct {
	Imported int      `json:"imported" jsonschema:"number of runs archived"`
	Skipped  int      `json:"skipped" jsonschema:"number of runs already archived"`
	IDs      []string `json:"ids" jsonschema:"IDs of the imported runs"`
}
