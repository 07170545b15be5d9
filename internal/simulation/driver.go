package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/ratingsim/internal/logging"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/outcome"
	"github.com/nvandessel/ratingsim/internal/rating"
	"github.com/nvandessel/ratingsim/internal/schedule"
)

const tracerName = "github.com/nvandessel/ratingsim/internal/simulation"

// cancelCheckInterval is how many elo-hell games are played between two
// context checks.
const cancelCheckInterval = 1024

// Driver runs one simulation from a validated Config.
type Driver struct {
	cfg      Config
	mode     Mode
	formula  rating.Elo
	logger   *slog.Logger
	matches  *logging.MatchLogger
	observer schedule.Observer
	tracer   trace.Tracer
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the operational logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMatchLogger writes every match to a JSONL trace.
func WithMatchLogger(ml *logging.MatchLogger) Option {
	return func(d *Driver) {
		d.matches = ml
	}
}

// WithObserver registers a callback invoked after every match.
func WithObserver(o schedule.Observer) Option {
	return func(d *Driver) {
		d.observer = o
	}
}

// WithFormula replaces the default 400-divider Elo formula.
func WithFormula(f rating.Elo) Option {
	return func(d *Driver) {
		d.formula = f
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(d *Driver) {
		if t != nil {
			d.tracer = t
		}
	}
}

// New validates cfg and returns a driver for it. No agent exists until Run.
func New(cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParseMode(string(cfg.Mode))
	cfg.Mode = mode

	d := &Driver{
		cfg:     cfg,
		mode:    mode,
		formula: rating.Default,
		logger:  logging.Discard(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.formula.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the validated configuration.
func (d *Driver) Config() Config {
	return d.cfg
}

// Result is the outcome of one run.
type Result struct {
	// ID uniquely identifies the run in logs and archives.
	ID string `json:"id"`

	Mode Mode  `json:"mode"`
	Seed int64 `json:"seed"`

	// Config is the configuration the run was played with, Seed filled in.
	Config Config `json:"config"`

	// Plan holds the journeys and games actually played per phase.
	Plan Plan `json:"plan"`

	// Agents are in creation order, P1 first.
	Agents []*models.Agent `json:"-"`

	// Matches is the total number of matches played.
	Matches int `json:"matches"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Snapshots returns the exported state of every agent in order.
func (r *Result) Snapshots() []models.Snapshot {
	out := make([]models.Snapshot, len(r.Agents))
	for i, a := range r.Agents {
		out[i] = a.Snapshot()
	}
	return out
}

// MeanRating returns the average current rating of the population.
func (r *Result) MeanRating() float64 {
	if len(r.Agents) == 0 {
		return 0
	}
	var sum float64
	for _, a := range r.Agents {
		sum += a.Rating()
	}
	return sum / float64(len(r.Agents))
}

// Agent returns the agent with the given name, or nil.
func (r *Result) Agent(name string) *models.Agent {
	for _, a := range r.Agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Run plays the whole simulation and returns every agent with its history.
// The context is checked between journeys in standard mode and periodically
// between games in elo-hell mode.
func (d *Driver) Run(ctx context.Context) (res *Result, err error) {
	seed, err := resolveSeed(d.cfg.Seed)
	if err != nil {
		return nil, err
	}
	cfg := d.cfg.WithSeed(seed)

	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}

	res = &Result{
		ID:        uuid.NewString(),
		Mode:      d.mode,
		Seed:      seed,
		Config:    cfg,
		Plan:      plan,
		StartedAt: time.Now().UTC(),
	}

	ctx, span := d.tracer.Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.String("run.id", res.ID),
		attribute.String("run.mode", string(d.mode)),
		attribute.Int64("run.seed", seed),
		attribute.Int("run.agents", cfg.AgentCount),
		attribute.Int("run.total_games", cfg.TotalGames),
		attribute.Int("run.placement_games", cfg.PlacementGames),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("run.matches", res.Matches))
		}
		span.End()
	}()

	agents, err := d.createAgents(cfg)
	if err != nil {
		return nil, err
	}
	res.Agents = agents

	d.logger.Info("simulation started",
		"run", res.ID, "mode", d.mode, "seed", seed,
		"agents", cfg.AgentCount, "total_games", cfg.TotalGames, "placement_games", cfg.PlacementGames)
	d.matches.Log(map[string]any{"event": "run_start", "run": res.ID, "mode": string(d.mode), "seed": seed})

	src := rand.New(rand.NewSource(seed))
	switch d.mode {
	case ModeEloHell:
		err = d.runEloHell(ctx, res, src)
	default:
		err = d.runStandard(ctx, res, src)
	}
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(res.StartedAt)
	d.logger.Info("simulation finished",
		"run", res.ID, "matches", res.Matches, "mean_rating", res.MeanRating(), "duration", res.Duration)
	d.matches.Log(map[string]any{"event": "run_end", "run": res.ID, "matches": res.Matches})
	return res, nil
}

// createAgents builds P1..Pn with linearly increasing skill.
func (d *Driver) createAgents(cfg Config) ([]*models.Agent, error) {
	agents := make([]*models.Agent, cfg.AgentCount)
	for i := range agents {
		a, err := models.NewAgent(fmt.Sprintf("P%d", i+1), cfg.Skill(i), cfg.StartingRating, cfg.PlacementKFactor)
		if err != nil {
			return nil, fmt.Errorf("create agent %d: %w", i+1, err)
		}
		agents[i] = a
	}
	return agents, nil
}

func (d *Driver) runStandard(ctx context.Context, res *Result, src *rand.Rand) error {
	sched, err := schedule.New(res.Agents, outcome.NewSkillBased(src), d.formula)
	if err != nil {
		return err
	}
	observe := d.observe(res)

	if err := d.phase(ctx, res, models.PhasePlacement, res.Plan.Placement, func(ctx context.Context) error {
		return sched.PlayJourneys(ctx, models.PhasePlacement, res.Plan.Placement.Journeys, observe)
	}); err != nil {
		return err
	}

	if err := d.resetKFactors(res.Agents); err != nil {
		return err
	}

	return d.phase(ctx, res, models.PhaseSteady, res.Plan.Steady, func(ctx context.Context) error {
		return sched.PlayJourneys(ctx, models.PhaseSteady, res.Plan.Steady.Journeys, observe)
	})
}

func (d *Driver) runEloHell(ctx context.Context, res *Result, src *rand.Rand) error {
	gen, err := outcome.NewForced(src, res.Config.ForcedWinRate)
	if err != nil {
		return err
	}
	observe := d.observe(res)

	play := func(phase models.Phase, games int) func(context.Context) error {
		return func(ctx context.Context) error {
			for _, a := range res.Agents {
				for g := 0; g < games; g++ {
					if g%cancelCheckInterval == 0 {
						if err := ctx.Err(); err != nil {
							return fmt.Errorf("%s game %d of %s: %w", phase, g, a.Name, err)
						}
					}
					m, err := d.playShadow(a, gen, phase, g, res.Matches)
					if err != nil {
						return fmt.Errorf("%s game %d of %s: %w", phase, g, a.Name, err)
					}
					observe(m)
				}
			}
			return nil
		}
	}

	if err := d.phase(ctx, res, models.PhasePlacement, res.Plan.Placement,
		play(models.PhasePlacement, res.Plan.Placement.GamesPerAgent)); err != nil {
		return err
	}
	if err := d.resetKFactors(res.Agents); err != nil {
		return err
	}
	return d.phase(ctx, res, models.PhaseSteady, res.Plan.Steady,
		play(models.PhaseSteady, res.Plan.Steady.GamesPerAgent))
}

// playShadow plays a against a fresh opponent holding a's current rating,
// so the expected score is exactly 0.5. Only a's rating is kept.
func (d *Driver) playShadow(a *models.Agent, gen outcome.Generator, phase models.Phase, game, seq int) (models.Match, error) {
	shadow := models.NewShadow(a)
	k := a.KFactor()
	expected := d.formula.Expected(a.Rating(), shadow.Rating())
	score := gen.Play(a, shadow)

	delta, err := d.formula.Update(a, shadow, score, k)
	if err != nil {
		return models.Match{}, err
	}
	return models.Match{
		Sequence:       seq,
		Phase:          phase,
		Journey:        game,
		Player:         a.Name,
		Opponent:       shadow.Name,
		Score:          score,
		Expected:       expected,
		K:              k,
		Delta:          delta,
		PlayerRating:   a.Rating(),
		OpponentRating: shadow.Rating(),
	}, nil
}

// phase wraps one phase in a span and phase-transition logs.
func (d *Driver) phase(ctx context.Context, res *Result, phase models.Phase, plan PhasePlan, play func(context.Context) error) error {
	ctx, span := d.tracer.Start(ctx, "simulation.phase", trace.WithAttributes(
		attribute.String("run.id", res.ID),
		attribute.String("phase", string(phase)),
		attribute.Int("phase.journeys", plan.Journeys),
		attribute.Int("phase.games_per_agent", plan.GamesPerAgent),
		attribute.Float64("phase.k_factor", plan.KFactor),
	))
	defer span.End()

	before := res.Matches
	d.logger.Info("phase started",
		"run", res.ID, "phase", phase, "journeys", plan.Journeys,
		"games_per_agent", plan.GamesPerAgent, "k_factor", plan.KFactor)
	d.matches.Log(map[string]any{"event": "phase_start", "run": res.ID, "phase": string(phase)})

	if err := play(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("phase.matches", res.Matches-before))
	d.logger.Info("phase finished",
		"run", res.ID, "phase", phase, "matches", res.Matches-before, "mean_rating", res.MeanRating())
	d.matches.Log(map[string]any{"event": "phase_end", "run": res.ID, "phase": string(phase), "matches": res.Matches - before})
	return nil
}

// resetKFactors moves every agent to the steady-state K-factor.
func (d *Driver) resetKFactors(agents []*models.Agent) error {
	for _, a := range agents {
		if err := a.SetKFactor(d.cfg.SteadyKFactor); err != nil {
			return err
		}
	}
	d.logger.Debug("k-factor reset", "k_factor", d.cfg.SteadyKFactor, "agents", len(agents))
	return nil
}

// observe returns the per-match hook: counting, logging, tracing and the
// caller's observer.
func (d *Driver) observe(res *Result) schedule.Observer {
	traceEnabled := d.logger.Enabled(context.Background(), logging.LevelTrace)
	debugEnabled := d.logger.Enabled(context.Background(), slog.LevelDebug)
	perJourney := schedule.MatchesPerJourney(len(res.Agents))

	return func(m models.Match) {
		res.Matches++
		if traceEnabled {
			d.logger.Log(context.Background(), logging.LevelTrace, "match",
				"run", res.ID, "seq", m.Sequence, "phase", m.Phase, "player", m.Player, "opponent", m.Opponent,
				"score", float64(m.Score), "expected", m.Expected, "delta", m.Delta)
		}
		if debugEnabled && d.mode == ModeStandard && perJourney > 0 && res.Matches%perJourney == 0 {
			d.logger.Debug("journey finished", "run", res.ID, "phase", m.Phase, "journey", m.Journey)
		}
		d.matches.LogMatch(res.ID, m)
		if d.observer != nil {
			d.observer(m)
		}
	}
}
