package rating

import (
	"math"
	"testing"
)

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{{800, 800}, {800, 1200}, {1, 2500}, {950, 820}, {1400, 1399}}

	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("expectations for %d vs %d sum to %f, want 1", p[0], p[1], sum)
		}
	}
}

func TestExpectedScoreEqualRatings(t *testing.T) {
	if e := ExpectedScore(800, 800); math.Abs(e-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 for equal ratings, got %f", e)
	}
}

func TestKFactorTiers(t *testing.T) {
	cfg := Config{Policy: TieredK}
	cases := []struct {
		games int
		want  int
	}{
		{0, 40}, {4, 40}, {5, 32}, {9, 32}, {10, 20}, {19, 20}, {20, 15}, {100, 15},
	}

	for _, tc := range cases {
		if got := cfg.KFactor(tc.games); got != tc.want {
			t.Errorf("KFactor(%d) = %d, want %d", tc.games, got, tc.want)
		}
	}
}

func TestKFactorFixed(t *testing.T) {
	cfg := Config{Policy: FixedK, K: 24}
	for _, games := range []int{0, 5, 50} {
		if got := cfg.KFactor(games); got != 24 {
			t.Errorf("fixed KFactor(%d) = %d, want 24", games, got)
		}
	}

	// zero K falls back to the default constant
	if got := (Config{Policy: FixedK}).KFactor(3); got != DefaultFixedK {
		t.Errorf("fixed KFactor without K = %d, want %d", got, DefaultFixedK)
	}
}

func TestMarginMultiplierClampsAtOne(t *testing.T) {
	for _, scores := range [][2]int{{10, 9}, {10, 5}, {10, 1}, {10, 0}} {
		m := MarginMultiplier(scores[0], scores[1])
		if m < 1 {
			t.Errorf("multiplier for %d-%d is %f, must never drop below 1", scores[0], scores[1], m)
		}
	}

	if m := MarginMultiplier(10, 0); math.Abs(m-1) > 1e-9 {
		t.Errorf("10-0 multiplier = %f, want exactly 1", m)
	}
}

func TestMarginMonotonicity(t *testing.T) {
	cfg := DefaultConfig
	prev := -1
	for loserScore := 9; loserScore >= 0; loserScore-- {
		res := cfg.ApplyResult(900, 900, 10, 10, 10, loserScore)
		gain := res.Winner - 900
		if gain < prev {
			t.Fatalf("gain dropped from %d to %d when margin widened to 10-%d", prev, gain, loserScore)
		}
		prev = gain
	}
}

func TestTieredKMonotonicity(t *testing.T) {
	cfg := DefaultConfig
	rookie := cfg.ApplyResult(900, 900, 3, 10, 10, 4)
	veteran := cfg.ApplyResult(900, 900, 25, 10, 10, 4)

	if rookie.Winner-900 < veteran.Winner-900 {
		t.Fatalf("rookie gained %d, veteran %d; new players must gain at least as much",
			rookie.Winner-900, veteran.Winner-900)
	}
}

func TestApplyResultEvenMatch(t *testing.T) {
	// two fresh players at the starting rating, 10-0: K=40, multiplier 1,
	// expectation 0.5 either way
	res := DefaultConfig.ApplyResult(StartingELO, StartingELO, 0, 0, 10, 0)

	if res.Winner != 820 {
		t.Errorf("winner rating = %d, want 820", res.Winner)
	}
	if res.Loser != 780 {
		t.Errorf("loser rating = %d, want 780", res.Loser)
	}
}

func TestApplyResultFloor(t *testing.T) {
	res := DefaultConfig.ApplyResult(2000, 3, 0, 0, 10, 0)
	if res.Loser < FloorELO {
		t.Fatalf("loser rating %d fell below the floor", res.Loser)
	}
	if res.Winner < FloorELO {
		t.Fatalf("winner rating %d fell below the floor", res.Winner)
	}
}

func TestApplyResultRounding(t *testing.T) {
	// 900 vs 800 gives expectation ~0.640; the 0-game winner's delta is
	// 40*0.360=14.4 which must round down, the loser's -25.6 away from zero
	res := DefaultConfig.ApplyResult(900, 800, 0, 0, 10, 3)

	eW := ExpectedScore(900, 800)
	wantWinner := 900 + int(math.Round(40*(1-eW)))
	wantLoser := 800 + int(math.Round(40*(0-(1-eW))))

	if res.Winner != wantWinner {
		t.Errorf("winner rating = %d, want %d", res.Winner, wantWinner)
	}
	if res.Loser != wantLoser {
		t.Errorf("loser rating = %d, want %d", res.Loser, wantLoser)
	}
}
