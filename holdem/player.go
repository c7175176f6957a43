package holdem

import "github.com/htvnhe/fhe-poker/card"

type Player struct {
	Seat int
	Name string
	Bot  bool

	stack int64
	bet   int64

	folded bool

	holeCards card.CardList
	evalRes   *bestHandResult
}

func (p *Player) Stack() int64 { return p.stack }
func (p *Player) Bet() int64   { return p.bet }
func (p *Player) Folded() bool { return p.folded }
func (p *Player) AllIn() bool  { return p.stack == 0 && !p.folded && len(p.holeCards) == 2 }

func (p *Player) HoleCards() card.CardList { return p.holeCards }

func (p *Player) ResetForNewHand() {
	p.bet = 0
	p.folded = false
	p.holeCards = make(card.CardList, 0, 2)
	p.evalRes = nil
}

func (p *Player) addHoleCard(cards ...card.Card) {
	p.holeCards = append(p.holeCards, cards...)
}

// placeBet 扣减筹码并记入本轮下注，返回实际扣减额（不足时封顶 = all-in）。
func (p *Player) placeBet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.stack {
		amount = p.stack
	}
	p.stack -= amount
	p.bet += amount
	return amount
}

func (p *Player) resetBet()            { p.bet = 0 }
func (p *Player) addStack(amount int64) { p.stack += amount }
func (p *Player) setFolded(v bool)     { p.folded = v }

func (p *Player) setEvalResult(r *bestHandResult) { p.evalRes = r }
