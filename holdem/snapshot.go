package holdem

import "github.com/htvnhe/fhe-poker/card"

type PlayerSnapshot struct {
	Seat      int
	Name      string
	Bot       bool
	Stack     int64
	Bet       int64
	Folded    bool
	AllIn     bool
	HoleCards []card.Card
}

type Snapshot struct {
	HandCount int
	Phase     Phase

	Pot        int64
	CurBet     int64
	ActiveSeat int

	SmallBlind int64
	BigBlind   int64

	CommunityCards []card.Card
	Players        []PlayerSnapshot
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		HandCount:      g.handCount,
		Phase:          g.phase,
		Pot:            g.pot,
		CurBet:         g.curBet,
		ActiveSeat:     g.activeSeat,
		SmallBlind:     g.cfg.SmallBlind,
		BigBlind:       g.cfg.BigBlind,
		CommunityCards: append([]card.Card{}, g.community...),
	}

	for seat := 0; seat < g.cfg.MaxPlayers; seat++ {
		p := g.players[seat]
		if p == nil {
			continue
		}
		s.Players = append(s.Players, PlayerSnapshot{
			Seat:      p.Seat,
			Name:      p.Name,
			Bot:       p.Bot,
			Stack:     p.stack,
			Bet:       p.bet,
			Folded:    p.folded,
			AllIn:     p.AllIn(),
			HoleCards: append([]card.Card{}, p.holeCards...),
		})
	}
	return s
}

// LastResult returns the settlement of the most recently finished hand, or nil.
func (g *Game) LastResult() *HandResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastResult
}
