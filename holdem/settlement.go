package holdem

import (
	"sort"

	"github.com/htvnhe/fhe-poker/card"
)

type ShowdownPlayerResult struct {
	Seat          int
	HandType      byte
	HandScore     uint32
	HoleCards     []card.Card // 2 张手牌
	BestFiveCards []card.Card // 5 张最佳牌
	IsWinner      bool
	WinAmount     int64
}

type HandResult struct {
	Pot           int64
	Winners       []int
	WinAmounts    []int64
	PlayerResults []ShowdownPlayerResult
	// NoShowdown 表示因其他人全弃牌提前结束
	NoShowdown bool
}

// finishSingleLocked 只剩一个未弃牌玩家：整池归其所有，无需摊牌。
func (g *Game) finishSingleLocked() (*HandResult, error) {
	var winner *Player
	for _, p := range g.players {
		if p != nil && !p.folded && len(p.holeCards) == 2 {
			winner = p
			break
		}
	}
	if winner == nil {
		return nil, ErrInvalidState("no winner in single-player finish")
	}

	winner.addStack(g.pot)
	res := &HandResult{
		Pot:        g.pot,
		Winners:    []int{winner.Seat},
		WinAmounts: []int64{g.pot},
		PlayerResults: []ShowdownPlayerResult{{
			Seat:      winner.Seat,
			HoleCards: append([]card.Card{}, winner.holeCards...),
			IsWinner:  true,
			WinAmount: g.pot,
		}},
		NoShowdown: true,
	}
	g.lastResult = res
	g.phase = PhaseFinished
	g.activeSeat = InvalidSeat
	return res, nil
}

// showdownLocked 摊牌裁决。公共牌此时必须已发满 5 张。
func (g *Game) showdownLocked() (*HandResult, error) {
	g.phase = PhaseShowdown
	if len(g.community) != 5 {
		return nil, ErrInvalidState("need 5 community cards at showdown")
	}

	contenders := make([]*Player, 0, g.cfg.MaxPlayers)
	for seat := 0; seat < g.cfg.MaxPlayers; seat++ {
		p := g.players[seat]
		if p == nil || p.folded || len(p.holeCards) != 2 {
			continue
		}
		contenders = append(contenders, p)
	}
	if len(contenders) == 0 {
		return nil, ErrInvalidState("no contenders at showdown")
	}

	var winners []*Player
	results := make([]ShowdownPlayerResult, 0, len(contenders))

	switch g.cfg.Showdown {
	case ShowdownRandom:
		// demo 桌的占位裁决：未弃牌玩家中随机取一名
		winners = []*Player{contenders[g.rng.Intn(len(contenders))]}
		for _, p := range contenders {
			results = append(results, ShowdownPlayerResult{
				Seat:      p.Seat,
				HoleCards: append([]card.Card{}, p.holeCards...),
			})
		}

	default:
		var bestScore uint32
		for _, p := range contenders {
			all := make(card.CardList, 0, 7)
			all = append(all, p.holeCards...)
			all = append(all, g.community...)
			eval := EvalBestOf7(all)
			if eval == nil {
				return nil, ErrInvalidState("eval failed")
			}
			p.setEvalResult(eval)

			bestFive := make([]card.Card, 0, 5)
			for _, i := range eval.BestIndex {
				bestFive = append(bestFive, all[i])
			}
			results = append(results, ShowdownPlayerResult{
				Seat:          p.Seat,
				HandType:      eval.HandType,
				HandScore:     eval.Score,
				HoleCards:     append([]card.Card{}, p.holeCards...),
				BestFiveCards: bestFive,
			})

			if eval.Score > bestScore {
				bestScore = eval.Score
				winners = []*Player{p}
			} else if eval.Score == bestScore {
				winners = append(winners, p)
			}
		}
	}

	sort.Slice(winners, func(i, j int) bool { return winners[i].Seat < winners[j].Seat })

	// 平分彩池，零头给最小座位号
	share := g.pot / int64(len(winners))
	remainder := g.pot % int64(len(winners))

	res := &HandResult{
		Pot: g.pot,
	}
	for i, w := range winners {
		amt := share
		if i == 0 {
			amt += remainder
		}
		w.addStack(amt)
		res.Winners = append(res.Winners, w.Seat)
		res.WinAmounts = append(res.WinAmounts, amt)
		for ri := range results {
			if results[ri].Seat == w.Seat {
				results[ri].IsWinner = true
				results[ri].WinAmount = amt
			}
		}
	}
	res.PlayerResults = results

	g.lastResult = res
	g.phase = PhaseFinished
	g.activeSeat = InvalidSeat
	return res, nil
}
