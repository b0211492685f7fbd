// Package rating implements the ELO arithmetic for head-to-head matches.
// Everything here is pure: no I/O, no clocks, safe for concurrent use.
package rating

import "math"

// StartingELO is assigned to every newly registered player.
const StartingELO = 800

// FloorELO is the lowest rating a player may hold; updates clamp to it.
const FloorELO = 1

// Policy selects how the K-factor is derived for a player.
type Policy int

const (
	// TieredK scales K down as the player gains experience, so fresh
	// ratings converge quickly and established ones stay put.
	TieredK Policy = iota
	// FixedK applies the same K to everyone regardless of experience.
	FixedK
)

// Config carries the tunable parts of the model.
type Config struct {
	Policy Policy
	K      int // used only under FixedK
}

// DefaultConfig is the tiered policy the ladder runs with.
var DefaultConfig = Config{Policy: TieredK}

// DefaultFixedK is the constant used when FixedK is selected without an
// explicit K value.
const DefaultFixedK = 32

// ExpectedScore returns the logistic win probability of a player rated a
// against a player rated b. ExpectedScore(a,b)+ExpectedScore(b,a) == 1.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// KFactor returns the learning rate for a player under the configured policy.
func (c Config) KFactor(gamesPlayed int) int {
	if c.Policy == FixedK {
		if c.K > 0 {
			return c.K
		}
		return DefaultFixedK
	}

	switch {
	case gamesPlayed < 5:
		return 40 // high K-factor for new players
	case gamesPlayed < 10:
		return 32
	case gamesPlayed < 20:
		return 20
	default:
		return 15 // established players move slowly
	}
}

// MarginMultiplier amplifies the update for blowout results. It never drops
// below 1, so close games fall back to the plain K-based delta: anything
// tighter than 10-0 clamps at 1.
func MarginMultiplier(scoreWinner, scoreLoser int) float64 {
	return math.Max(float64(scoreWinner-scoreLoser)/10, 1)
}

// Result holds both players' ratings after a match.
type Result struct {
	Winner int
	Loser  int
}

// ApplyResult computes the post-match ratings for a decided game. Deltas are
// rounded half-away-from-zero (math.Round) before being applied, and each
// final rating is clamped to FloorELO.
func (c Config) ApplyResult(winnerELO, loserELO, winnerGames, loserGames, scoreW, scoreL int) Result {
	expectedW := ExpectedScore(winnerELO, loserELO)
	expectedL := ExpectedScore(loserELO, winnerELO)

	m := MarginMultiplier(scoreW, scoreL)
	kw := float64(c.KFactor(winnerGames))
	kl := float64(c.KFactor(loserGames))

	newWinner := winnerELO + int(math.Round(kw*m*(1-expectedW)))
	newLoser := loserELO + int(math.Round(kl*m*(0-expectedL)))

	return Result{
		Winner: max(newWinner, FloorELO),
		Loser:  max(newLoser, FloorELO),
	}
}
