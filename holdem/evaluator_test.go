package holdem

import (
	"testing"

	"github.com/htvnhe/fhe-poker/card"
)

func mustCards(t *testing.T, strs ...string) card.CardList {
	t.Helper()
	out := make(card.CardList, 0, len(strs))
	for _, s := range strs {
		c, err := card.Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		out = append(out, c)
	}
	return out
}

func TestEvalBestOf7_HandTypes(t *testing.T) {
	cases := []struct {
		name     string
		cards    []string
		handType byte
	}{
		{"royal flush", []string{"As", "Ks", "Qs", "Js", "Ts", "2d", "3c"}, HandRoyalFlush},
		{"straight flush", []string{"9h", "8h", "7h", "6h", "5h", "Ad", "Ac"}, HandStraightFlush},
		{"four of a kind", []string{"7s", "7h", "7c", "7d", "Kd", "2c", "3h"}, HandFourOfKind},
		{"full house", []string{"Ts", "Th", "Tc", "4d", "4c", "9h", "2s"}, HandFullHouse},
		{"flush", []string{"Ad", "Jd", "8d", "6d", "2d", "Ks", "Kh"}, HandFlush},
		{"straight", []string{"9s", "8d", "7h", "6c", "5s", "Ah", "Ad"}, HandStraight},
		{"wheel straight", []string{"As", "2d", "3h", "4c", "5s", "Kh", "Jd"}, HandStraight},
		{"three of a kind", []string{"Qs", "Qh", "Qc", "9d", "5c", "3h", "2s"}, HandThreeOfKind},
		{"two pair", []string{"Js", "Jh", "8c", "8d", "Ac", "4h", "2s"}, HandTwoPair},
		{"one pair", []string{"As", "Ah", "9c", "7d", "5c", "3h", "2s"}, HandOnePair},
		{"high card", []string{"As", "Jh", "9c", "7d", "5c", "3h", "2s"}, HandHighCard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := EvalBestOf7(mustCards(t, tc.cards...))
			if res == nil {
				t.Fatal("eval returned nil")
			}
			if res.HandType != tc.handType {
				t.Fatalf("hand type = %d, want %d", res.HandType, tc.handType)
			}
		})
	}
}

func TestEvalBestOf7_Ordering(t *testing.T) {
	pairAces := EvalBestOf7(mustCards(t, "As", "Ah", "9c", "7d", "5c", "3h", "2s"))
	pairKings := EvalBestOf7(mustCards(t, "Ks", "Kh", "9c", "7d", "5c", "3h", "2s"))
	if pairAces.Score <= pairKings.Score {
		t.Fatalf("pair of aces (%d) should beat pair of kings (%d)", pairAces.Score, pairKings.Score)
	}

	flush := EvalBestOf7(mustCards(t, "Ad", "Jd", "8d", "6d", "2d", "Ks", "Kh"))
	straight := EvalBestOf7(mustCards(t, "9s", "8d", "7h", "6c", "5s", "Ah", "Kd"))
	if flush.Score <= straight.Score {
		t.Fatalf("flush (%d) should beat straight (%d)", flush.Score, straight.Score)
	}

	// wheel is the lowest straight
	wheel := EvalBestOf7(mustCards(t, "As", "2d", "3h", "4c", "5s", "9h", "Jd"))
	sixHigh := EvalBestOf7(mustCards(t, "2s", "3d", "4h", "5c", "6s", "9h", "Jd"))
	if wheel.Score >= sixHigh.Score {
		t.Fatalf("wheel (%d) should lose to six-high straight (%d)", wheel.Score, sixHigh.Score)
	}
}

func TestEvalBestOf7_EqualBoardsSplit(t *testing.T) {
	// Both players play the board: identical scores.
	a := EvalBestOf7(mustCards(t, "2s", "3d", "As", "Ks", "Qs", "Js", "Ts"))
	b := EvalBestOf7(mustCards(t, "4h", "5c", "As", "Ks", "Qs", "Js", "Ts"))
	if a.Score != b.Score {
		t.Fatalf("expected equal scores, got %d vs %d", a.Score, b.Score)
	}
}

func TestEvalBestOf7_BestIndexSelectsFive(t *testing.T) {
	res := EvalBestOf7(mustCards(t, "As", "Ah", "Ac", "Ad", "Kd", "2c", "3h"))
	seen := map[int]bool{}
	for _, i := range res.BestIndex {
		if i < 0 || i > 6 {
			t.Fatalf("best index out of range: %d", i)
		}
		if seen[i] {
			t.Fatalf("duplicate best index: %d", i)
		}
		seen[i] = true
	}
}
