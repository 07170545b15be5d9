// Package constants provides named constants used throughout the ratingsim codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Rating formula constants
const (
	// EloDivider is the rating difference at which the stronger player is
	// expected to win ten times as often as the weaker one.
	EloDivider = 400.0

	// DefaultStartingRating is the rating every agent starts with in standard mode.
	DefaultStartingRating = 1500.0

	// EloHellStartingRating is the starting rating used by the elo-hell defaults.
	EloHellStartingRating = 1200.0
)

// K-factor constants.
// Placement K is large so fresh ratings move quickly; afterwards it is halved.
const (
	// DefaultPlacementKFactor is the K-factor during the placement phase.
	DefaultPlacementKFactor = 40.0

	// DefaultSteadyKFactor is the K-factor once placement is over.
	DefaultSteadyKFactor = 20.0

	// EloHellSteadyKFactor is the steady-state K-factor of the elo-hell defaults.
	EloHellSteadyKFactor = 25.0

	// EloHellPlacementKFactor is the placement K-factor of the elo-hell defaults.
	EloHellPlacementKFactor = 2 * EloHellSteadyKFactor
)

// Outcome generation constants
const (
	// DrawPrecision is the number of buckets of the uniform draw; a draw is an
	// integer in [0, DrawPrecision], giving a probability granularity of 1e-4.
	DrawPrecision = 10000
)

// Population defaults
const (
	// DefaultAgentCount is the number of agents created when none is configured.
	DefaultAgentCount = 10

	// DefaultTotalGames is the requested number of games per agent.
	DefaultTotalGames = 200

	// DefaultPlacementGames is the requested number of placement games per agent.
	DefaultPlacementGames = 20

	// DefaultMinSkill is the skill of the weakest agent.
	DefaultMinSkill = 10.0

	// DefaultSkillStep is the skill increment between consecutive agents.
	DefaultSkillStep = 1.0
)

// Team-composition model constants.
// With these values the smaller team wins about 53.6% of its matches, which is
// where DefaultForcedWinRate comes from.
const (
	// DefaultOwnTeamSize is the number of teammates, the player excluded.
	DefaultOwnTeamSize = 4

	// DefaultOpponentTeamSize is the size of the opposing team.
	DefaultOpponentTeamSize = 5

	// DefaultInterfereProbability is the chance that any one player sabotages their team.
	DefaultInterfereProbability = 0.1

	// DefaultForcedWinRate is the elo-hell win rate implied by the team model.
	DefaultForcedWinRate = 0.536

	// DefaultTeamTrials is the number of team matches simulated by default.
	DefaultTeamTrials = 1000000
)

// Point-duel constants
const (
	// DefaultPointWinRate is the probability of winning a single point.
	DefaultPointWinRate = 0.51

	// DefaultDuelMatches is the number of matches simulated per duel report.
	DefaultDuelMatches = 100

	// DefaultPointsPerMatch is the number of points played in each match.
	// Odd so a match cannot be drawn.
	DefaultPointsPerMatch = 101
)

// Tool output limits
const (
	// MaxHistoryPoints bounds the rating history points returned by the MCP tools.
	MaxHistoryPoints = 500

	// MaxToolTotalGames bounds the total games a single MCP simulate call may request.
	MaxToolTotalGames = 100000

	// MaxToolAgentCount bounds the population of a single MCP simulate call.
	MaxToolAgentCount = 1000

	// MaxToolRatingEntries bounds the rating history entries, summed over all
	// agents, that a single MCP simulate call may produce.
	MaxToolRatingEntries = 10000000

	// MaxToolTeamTrials bounds the trials of a single MCP team estimate.
	MaxToolTeamTrials = 10000000
)
