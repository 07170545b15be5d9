// Package store archives finished simulation runs in SQLite.
//
// The archive is write-once from the engine's point of view: runs are saved
// after they complete and read back only for export and inspection. A new
// simulation never starts from archived state.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/simulation"
)

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunExists is returned when an imported run is already archived.
	ErrRunExists = errors.New("run already archived")
)

// Store is a SQLite results archive. It is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	db   *sqlx.DB
	path string
}

// Run is the summary row of an archived run.
type Run struct {
	ID                string             `db:"id" json:"id"`
	Mode              string             `db:"mode" json:"mode"`
	Seed              int64              `db:"seed" json:"seed"`
	AgentCount        int                `db:"agent_count" json:"agent_count"`
	TotalGames        int                `db:"total_games" json:"total_games"`
	PlacementGames    int                `db:"placement_games" json:"placement_games"`
	PlacementJourneys int                `db:"placement_journeys" json:"placement_journeys"`
	SteadyJourneys    int                `db:"steady_journeys" json:"steady_journeys"`
	Matches           int                `db:"matches" json:"matches"`
	MeanRating        float64            `db:"mean_rating" json:"mean_rating"`
	ConfigJSON        string             `db:"config_json" json:"-"`
	StartedAt         string             `db:"started_at" json:"started_at"`
	DurationMS        int64              `db:"duration_ms" json:"duration_ms"`
	Config            *simulation.Config `db:"-" json:"config,omitempty"`
}

// agentRow is the database shape of one archived agent.
type agentRow struct {
	RunID       string  `db:"run_id"`
	Position    int     `db:"position"`
	Name        string  `db:"name"`
	Skill       float64 `db:"skill"`
	FinalRating float64 `db:"final_rating"`
	Wins        int     `db:"wins"`
	Losses      int     `db:"losses"`
	Draws       int     `db:"draws"`
	HistoryJSON string  `db:"history_json"`
}

// Open opens or creates the archive at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun archives a finished run and its agents in one transaction and
// returns the run ID. The result's own ID is kept when it is a valid UUID.
func (s *Store) SaveRun(ctx context.Context, res *simulation.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("save run: nil result")
	}
	id := res.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	run := Run{
		ID:                id,
		Mode:              string(res.Mode),
		Seed:              res.Seed,
		AgentCount:        len(res.Agents),
		TotalGames:        res.Config.TotalGames,
		PlacementGames:    res.Config.PlacementGames,
		PlacementJourneys: res.Plan.Placement.Journeys,
		SteadyJourneys:    res.Plan.Steady.Journeys,
		Matches:           res.Matches,
		MeanRating:        res.MeanRating(),
		ConfigJSON:        string(cfgJSON),
		StartedAt:         res.StartedAt.UTC().Format(time.RFC3339Nano),
		DurationMS:        res.Duration.Milliseconds(),
	}
	if err := s.insert(ctx, run, res.Snapshots()); err != nil {
		return "", err
	}
	return id, nil
}

// ImportRun archives a run read back from an export. The run keeps its ID;
// ErrRunExists is returned when that ID is already archived.
func (s *Store) ImportRun(ctx context.Context, run Run, agents []models.Snapshot) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	if run.Config == nil {
		return fmt.Errorf("import run %s: missing config", run.ID)
	}
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	run.ConfigJSON = string(cfgJSON)
	run.AgentCount = len(agents)

	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to check run %s: %w", run.ID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}
	return s.insert(ctx, run, agents)
}

// insert writes a run row and its agent rows in one transaction.
func (s *Store) insert(ctx context.Context, run Run, agents []models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO runs
		(id, mode, seed, agent_count, total_games, placement_games, placement_journeys,
		 steady_journeys, matches, mean_rating, config_json, started_at, duration_ms)
		VALUES (:id, :mode, :seed, :agent_count, :total_games, :placement_games, :placement_journeys,
		 :steady_journeys, :matches, :mean_rating, :config_json, :started_at, :duration_ms)`, run); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for i, a := range agents {
		history, err := json.Marshal(a.RatingHistory)
		if err != nil {
			return fmt.Errorf("failed to marshal history of %s: %w", a.Name, err)
		}
		row := agentRow{
			RunID:       run.ID,
			Position:    i,
			Name:        a.Name,
			Skill:       a.Skill,
			FinalRating: a.FinalRating,
			Wins:        a.Record.Wins,
			Losses:      a.Record.Losses,
			Draws:       a.Record.Draws,
			HistoryJSON: string(history),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO agents
			(run_id, position, name, skill, final_rating, wins, losses, draws, history_json)
			VALUES (:run_id, :position, :name, :skill, :final_rating, :wins, :losses, :draws, :history_json)`, row); err != nil {
			return fmt.Errorf("failed to insert agent %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, mode, seed, agent_count, total_games, placement_games, placement_journeys,
		steady_journeys, matches, mean_rating, config_json, started_at, duration_ms
		FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the summary of one run with its decoded configuration.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}

	var run Run
	err := s.db.GetContext(ctx, &run, `SELECT id, mode, seed, agent_count, total_games, placement_games,
		placement_journeys, steady_journeys, matches, mean_rating, config_json, started_at, duration_ms
		FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var cfg simulation.Config
	if err := json.Unmarshal([]byte(run.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config of run %s: %w", id, err)
	}
	run.Config = &cfg
	return &run, nil
}

// LoadAgents returns the archived agents of a run in their original order.
func (s *Store) LoadAgents(ctx context.Context, runID string) ([]models.Snapshot, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var rows []agentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT run_id, position, name, skill, final_rating,
		wins, losses, draws, history_json FROM agents WHERE run_id = ? ORDER BY position`, runID); err != nil {
		return nil, fmt.Errorf("failed to load agents of run %s: %w", runID, err)
	}

	out := make([]models.Snapshot, len(rows))
	for i, r := range rows {
		var history []float64
		if err := json.Unmarshal([]byte(r.HistoryJSON), &history); err != nil {
			return nil, fmt.Errorf("failed to decode history of %s: %w", r.Name, err)
		}
		out[i] = models.Snapshot{
			Name:          r.Name,
			Skill:         r.Skill,
			FinalRating:   r.FinalRating,
			Record:        models.Record{Wins: r.Wins, Losses: r.Losses, Draws: r.Draws},
			RatingHistory: history,
		}
	}
	return out, nil
}

// DeleteRun removes a run and its agents.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
