package card

import (
	"math/rand"
	"testing"
)

func TestCardEncoding(t *testing.T) {
	cases := []struct {
		card Card
		suit Suit
		rank byte
	}{
		{1, Spade, 1},    // As
		{13, Spade, 13},  // Ks
		{14, Heart, 1},   // Ah
		{26, Heart, 13},  // Kh
		{27, Club, 1},    // Ac
		{40, Diamond, 1}, // Ad
		{52, Diamond, 13},
	}
	for _, c := range cases {
		if c.card.Suit() != c.suit {
			t.Fatalf("card %d: suit %v, want %v", c.card, c.card.Suit(), c.suit)
		}
		if c.card.Rank() != c.rank {
			t.Fatalf("card %d: rank %d, want %d", c.card, c.card.Rank(), c.rank)
		}
	}
}

func TestMakeParseRoundTrip(t *testing.T) {
	for c := CardMin; c <= CardMax; c++ {
		made, err := Make(c.Suit(), c.Rank())
		if err != nil {
			t.Fatalf("Make(%v, %d) err: %v", c.Suit(), c.Rank(), err)
		}
		if made != c {
			t.Fatalf("Make round trip: got %d, want %d", made, c)
		}
	}

	parsed, err := Parse("Td")
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Suit() != Diamond || parsed.Rank() != 10 {
		t.Fatalf("Parse(Td) = %v", parsed)
	}
	if _, err := Parse("Xz"); err == nil {
		t.Fatal("expected error for bad card string")
	}
}

func TestHandRealVal_AceHigh(t *testing.T) {
	ace, _ := Make(Club, 1)
	if ace.HandRealVal() != 14 {
		t.Fatalf("ace real val = %d, want 14", ace.HandRealVal())
	}
	king, _ := Make(Club, 13)
	if king.HandRealVal() != 13 {
		t.Fatalf("king real val = %d, want 13", king.HandRealVal())
	}
}

// 洗牌结果必须是 1..52 的排列（无重复无缺失）。
func TestShuffledDeck_IsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		deck := ShuffledDeck(rng)
		if len(deck) != 52 {
			t.Fatalf("deck size %d", len(deck))
		}
		seen := make(map[Card]bool, 52)
		for _, c := range deck {
			if !c.Valid() {
				t.Fatalf("invalid card %d in deck", c)
			}
			if seen[c] {
				t.Fatalf("duplicate card %d in deck", c)
			}
			seen[c] = true
		}
	}
}

func TestPopCards(t *testing.T) {
	deck := NewDeck()
	first, ok := deck.PopCards(3)
	if !ok || len(first) != 3 {
		t.Fatalf("PopCards(3) failed")
	}
	if first[0] != 1 || first[2] != 3 {
		t.Fatalf("expected front-of-deck consumption, got %v", first)
	}
	if deck.Count() != 49 {
		t.Fatalf("deck count %d, want 49", deck.Count())
	}
	if _, ok := deck.PopCards(50); ok {
		t.Fatal("expected underflow to fail")
	}
}
