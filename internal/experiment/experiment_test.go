package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/rating"
)

// scripted replays fixed draws, ignoring n.
type scripted struct {
	draws []int
	i     int
}

func (s *scripted) Intn(int) int {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		own, opp    int
		coin        int
		want        models.Score
		wantFlipped bool
	}{
		{"fewer inters wins", 0, 1, 0, models.Win, false},
		{"more inters loses", 2, 1, 1, models.Loss, false},
		{"tie won on heads", 1, 1, 1, models.Win, true},
		{"tie lost on tails", 0, 0, 0, models.Loss, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scripted{draws: []int{tt.coin}}
			got, flipped := decide(src, tt.own, tt.opp)
			if got != tt.want || flipped != tt.wantFlipped {
				t.Errorf("decide(%d, %d) = %v, %v; want %v, %v", tt.own, tt.opp, got, flipped, tt.want, tt.wantFlipped)
			}
			if !flipped && src.i != 0 {
				t.Error("coin flipped for a decided match")
			}
		})
	}
}

func TestDrawTeam(t *testing.T) {
	// Draws below 1000 mark an inter at p = 0.1.
	src := &scripted{draws: []int{999, 1000, 0, 10000}}
	team, err := DrawTeam(src, "T", 4, 0.1)
	if err != nil {
		t.Fatalf("DrawTeam: %v", err)
	}
	want := []bool{true, false, true, false}
	for i, a := range team {
		if a.IsInter() != want[i] {
			t.Errorf("%s inter = %v, want %v", a.Name, a.IsInter(), want[i])
		}
	}
	if team[0].Name != "T1" || team[3].Name != "T4" {
		t.Errorf("names = %s..%s", team[0].Name, team[3].Name)
	}
	if CountInters(team) != 2 {
		t.Errorf("CountInters = %d, want 2", CountInters(team))
	}
}

func TestTeamMatch(t *testing.T) {
	src := &scripted{draws: []int{0, 5000, 5000, 0, 0}}
	own, _ := DrawTeam(src, "A", 2, 0.1) // inter, clean
	opp, _ := DrawTeam(src, "B", 3, 0.1) // clean, inter, inter
	score, flipped := TeamMatch(src, own, opp)
	if score != models.Win || flipped {
		t.Errorf("TeamMatch = %v, %v; want win without coin flip", score, flipped)
	}
}

func TestSimulateTeamMatch_NoInterference(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	wins := 0
	for i := 0; i < 2000; i++ {
		if SimulateTeamMatch(src, 4, 5, 0) == models.Win {
			wins++
		}
	}
	// Every match is a tie decided by the coin.
	if wins < 900 || wins > 1100 {
		t.Errorf("wins = %d of 2000, want about half", wins)
	}
}

func TestEstimateTeamWinRate_Default(t *testing.T) {
	report, err := EstimateTeamWinRate(context.Background(), rand.New(rand.NewSource(42)), 200000, DefaultTeamConfig())
	if err != nil {
		t.Fatalf("EstimateTeamWinRate: %v", err)
	}
	if math.Abs(report.WinRate-0.536) > 0.01 {
		t.Errorf("win rate = %.4f, want 0.536 ± 0.01", report.WinRate)
	}
	if report.Wins+report.Losses != report.Trials {
		t.Errorf("wins %d + losses %d != trials %d", report.Wins, report.Losses, report.Trials)
	}
	if report.CoinFlips == 0 || report.CoinFlips >= report.Trials {
		t.Errorf("coin flips = %d, want some but not all", report.CoinFlips)
	}
}

func TestEstimateTeamWinRate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		trials   int
		cfg      TeamConfig
		wantCode apperrors.Code
	}{
		{"zero trials", 0, DefaultTeamConfig(), apperrors.CodeInvalidTrials},
		{"negative team", 10, TeamConfig{OwnSize: -1, OpponentSize: 5, InterferenceChance: 0.1}, apperrors.CodeInvalidAgentCount},
		{"empty teams", 10, TeamConfig{InterferenceChance: 0.1}, apperrors.CodeInvalidAgentCount},
		{"probability above one", 10, TeamConfig{OwnSize: 4, OpponentSize: 5, InterferenceChance: 1.5}, apperrors.CodeInvalidWinRate},
		{"NaN probability", 10, TeamConfig{OwnSize: 4, OpponentSize: 5, InterferenceChance: math.NaN()}, apperrors.CodeInvalidWinRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateTeamWinRate(context.Background(), rand.New(rand.NewSource(1)), tt.trials, tt.cfg)
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestEstimateTeamWinRate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EstimateTeamWinRate(ctx, rand.New(rand.NewSource(1)), 10, DefaultTeamConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSimulateDuel(t *testing.T) {
	tests := []struct {
		name   string
		draws  []int
		points int
		want   int
	}{
		{"all points won", []int{0}, 3, 2},
		{"all points lost", []int{10000}, 3, 0},
		{"two of three", []int{0, 0, 9999}, 3, 2},
		{"even split is a loss", []int{0, 9999}, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := SimulateDuel(&scripted{draws: tt.draws}, 0.51, 2, tt.points)
			if err != nil {
				t.Fatalf("SimulateDuel: %v", err)
			}
			if report.MatchWins != tt.want {
				t.Errorf("match wins = %d, want %d", report.MatchWins, tt.want)
			}
		})
	}
}

func TestSimulateDuel_LongMatchesAmplifyEdge(t *testing.T) {
	src := rand.New(rand.NewSource(11))
	short, err := SimulateDuel(src, 0.51, 400, 11)
	if err != nil {
		t.Fatalf("SimulateDuel: %v", err)
	}
	long, err := SimulateDuel(src, 0.51, 400, 2001)
	if err != nil {
		t.Fatalf("SimulateDuel: %v", err)
	}
	if long.MatchWinRate <= short.MatchWinRate {
		t.Errorf("long matches win %.3f, short %.3f; longer matches should favour the stronger player more",
			long.MatchWinRate, short.MatchWinRate)
	}
}

func TestSimulateDuel_Errors(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	if _, err := SimulateDuel(src, 1.2, 10, 11); apperrors.CodeOf(err) != apperrors.CodeInvalidWinRate {
		t.Errorf("bad rate: %v", err)
	}
	if _, err := SimulateDuel(src, 0.5, 0, 11); apperrors.CodeOf(err) != apperrors.CodeInvalidTrials {
		t.Errorf("zero matches: %v", err)
	}
	if _, err := SimulateDuel(src, 0.5, 10, 0); apperrors.CodeOf(err) != apperrors.CodeInvalidGames {
		t.Errorf("zero points: %v", err)
	}
}

func TestWinRateCurve(t *testing.T) {
	points, err := WinRateCurve(rating.Default, 0, 500, 25)
	if err != nil {
		t.Fatalf("WinRateCurve: %v", err)
	}
	if len(points) != 21 {
		t.Fatalf("len = %d, want 21", len(points))
	}
	if points[0].WinRate != 0.5 {
		t.Errorf("win rate at 0 = %v, want 0.5", points[0].WinRate)
	}
	if last := points[len(points)-1]; last.RatingDelta != 500 {
		t.Errorf("last delta = %v, want 500", last.RatingDelta)
	}
	for i := 1; i < len(points); i++ {
		if points[i].WinRate <= points[i-1].WinRate {
			t.Errorf("curve not increasing at %v", points[i].RatingDelta)
		}
	}
	// 400 points is 10-to-1 odds.
	if got := points[16].WinRate; math.Abs(got-10.0/11.0) > 1e-12 {
		t.Errorf("win rate at 400 = %v, want %v", got, 10.0/11.0)
	}
}

func TestWinRateCurve_Errors(t *testing.T) {
	tests := []struct {
		name           string
		from, to, step float64
	}{
		{"zero step", 0, 10, 0},
		{"reversed range", 10, 0, 1},
		{"NaN bound", math.NaN(), 10, 1},
		{"too many points", 0, 1e9, 1},
		{"range overflows int", 0, 1e300, 1},
		{"span overflows float", -math.MaxFloat64, math.MaxFloat64, 1},
		{"tiny step", 0, 1, 1e-300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WinRateCurve(rating.Default, tt.from, tt.to, tt.step)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidRating {
				t.Errorf("code = %s, want %s", code, apperrors.CodeInvalidRating)
			}
		})
	}
}

func TestRatingGapFor(t *testing.T) {
	gap, err := RatingGapFor(rating.Default, 0.536)
	if err != nil {
		t.Fatalf("RatingGapFor: %v", err)
	}
	if back := rating.Default.ExpectedWinRate(gap); math.Abs(back-0.536) > 1e-12 {
		t.Errorf("round trip = %v, want 0.536", back)
	}
	if _, err := RatingGapFor(rating.Default, 1); err == nil {
		t.Error("expected error for win rate 1")
	}
}
