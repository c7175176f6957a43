package holdem

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/htvnhe/fhe-poker/card"
)

// Game 单桌本地回合引擎：洗牌、发牌、盲注、四条街下注、摊牌分池。
// 所有状态变更只发生在持锁的动作入口里；非当前行动座位的请求一律拒绝且不落状态。
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	players []*Player // seat-indexed, nil = empty seat

	phase     Phase
	handCount int

	deck      card.CardList
	community card.CardList

	pot        int64 // 本手全部已入池筹码，手内单调不减
	curBet     int64 // 本轮需跟注到的总额
	activeSeat int

	lastResult *HandResult
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
		players:    make([]*Player, cfg.MaxPlayers),
		phase:      PhaseWaiting,
		activeSeat: InvalidSeat,
	}, nil
}

// Join seats a player with an initial stack.
func (g *Game) Join(seat int, name string, stack int64, bot bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if stack <= 0 {
		return fmt.Errorf("stack must be > 0")
	}
	if g.players[seat] != nil {
		return fmt.Errorf("seat %d already occupied", seat)
	}
	g.players[seat] = &Player{
		Seat:  seat,
		Name:  name,
		Bot:   bot,
		stack: stack,
	}
	return nil
}

// Leave removes a player between hands.
func (g *Game) Leave(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if g.players[seat] == nil {
		return fmt.Errorf("seat %d is empty", seat)
	}
	if g.phase.Betting() || g.phase == PhaseShowdown {
		return ErrHandInProgress
	}
	g.players[seat] = nil
	return nil
}

func (g *Game) Player(seat int) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= g.cfg.MaxPlayers {
		return nil
	}
	return g.players[seat]
}

// StartHand 开新一手：清位重置、洗牌发牌、下盲注。
// Finished 状态重开时把打光的座位补回默认买入。
func (g *Game) StartHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase.Betting() || g.phase == PhaseShowdown {
		return ErrHandInProgress
	}

	seats := make([]int, 0, g.cfg.MaxPlayers)
	for seat, p := range g.players {
		if p == nil {
			continue
		}
		if p.stack == 0 {
			p.stack = g.cfg.StartingStack
		}
		p.ResetForNewHand()
		seats = append(seats, seat)
	}
	if len(seats) < g.cfg.MinPlayers {
		return fmt.Errorf("not enough players: %d < %d", len(seats), g.cfg.MinPlayers)
	}

	g.handCount++
	g.lastResult = nil
	g.pot = 0
	g.curBet = 0
	g.community = nil

	// 每手重新洗牌，不复用牌堆
	g.deck = card.ShuffledDeck(g.rng)

	// 轮转发牌：按座位序两圈，每圈一张
	for pass := 0; pass < 2; pass++ {
		for _, seat := range seats {
			cards, ok := g.deck.PopCards(1)
			if !ok {
				return ErrInvalidState("deck underflow")
			}
			g.players[seat].addHoleCard(cards...)
		}
	}

	// 固定座位盲注：列表第 1 位小盲、第 2 位大盲
	n := len(seats)
	sbSeat := seats[1%n]
	bbSeat := seats[2%n]
	g.pot += g.players[sbSeat].placeBet(g.cfg.SmallBlind)
	g.pot += g.players[bbSeat].placeBet(g.cfg.BigBlind)
	g.curBet = g.cfg.BigBlind

	// 枪口位 = 大盲下一位
	g.phase = PhasePreflop
	g.activeSeat = g.findNextActiveLocked(bbSeat)
	if g.activeSeat == InvalidSeat {
		// 盲注即全下的退化局：直接跑马摊牌
		_, err := g.runOutLocked()
		return err
	}
	return nil
}

// LegalActions is a pure projection of current state.
func (g *Game) LegalActions(seat int) []ActionType {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.phase.Betting() || seat != g.activeSeat {
		return nil
	}
	p := g.players[seat]
	if p == nil {
		return nil
	}

	acts := []ActionType{ActionFold}
	if g.curBet == p.bet {
		acts = append(acts, ActionCheck)
	} else {
		acts = append(acts, ActionCall)
	}
	if p.stack >= g.curBet+g.cfg.raiseIncrement()-p.bet {
		acts = append(acts, ActionRaise)
	}
	return acts
}

// Act applies an action for the current player.
// handEnd != nil 表示本手已结束并返回结算结果。
func (g *Game) Act(seat int, action ActionType) (handEnd *HandResult, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseFinished {
		return nil, ErrHandEnded
	}
	if !g.phase.Betting() {
		return nil, ErrNotBetting
	}
	if seat != g.activeSeat {
		return nil, ErrOutOfTurn
	}
	p := g.players[seat]
	if p == nil {
		return nil, ErrInvalidState("no player at active seat")
	}

	switch action {
	case ActionFold:
		p.setFolded(true)

	case ActionCheck:
		if g.curBet != p.bet {
			return nil, ErrCannotCheck
		}

	case ActionCall:
		if g.curBet <= p.bet {
			return nil, ErrNothingToCall
		}
		// 筹码不足时封顶付出，即 all-in
		g.pot += p.placeBet(g.curBet - p.bet)

	case ActionRaise:
		target := g.curBet + g.cfg.raiseIncrement()
		delta := target - p.bet
		if p.stack < delta {
			return nil, ErrInsufficient
		}
		g.pot += p.placeBet(delta)
		// 抬高 curBet 即重开本轮：其他玩家的下注不再匹配
		g.curBet = target

	default:
		return nil, fmt.Errorf("unknown action %d", action)
	}

	// 只剩一个未弃牌玩家：立即结束本手
	if g.nonFoldedCountLocked() == 1 {
		return g.finishSingleLocked()
	}

	if g.roundCompleteLocked() {
		return g.advanceStreetLocked()
	}

	next := g.findNextActiveLocked(g.activeSeat)
	if next == InvalidSeat {
		// 没有可行动座位只可能是全员 all-in：跑马摊牌
		return g.runOutLocked()
	}
	g.activeSeat = next
	return nil, nil
}

// findNextActiveLocked 从 from 顺时针找下一个未弃牌且有筹码的座位；找不到返回 InvalidSeat。
func (g *Game) findNextActiveLocked(from int) int {
	n := g.cfg.MaxPlayers
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		p := g.players[seat]
		if p == nil || p.folded || p.stack == 0 || len(p.holeCards) != 2 {
			continue
		}
		if seat == from {
			break
		}
		return seat
	}
	return InvalidSeat
}

func (g *Game) firstActiveLocked() int {
	return g.findNextActiveLocked(g.cfg.MaxPlayers - 1)
}

func (g *Game) nonFoldedCountLocked() int {
	count := 0
	for _, p := range g.players {
		if p != nil && !p.folded && len(p.holeCards) == 2 {
			count++
		}
	}
	return count
}

func (g *Game) actionableCountLocked() int {
	count := 0
	for _, p := range g.players {
		if p != nil && !p.folded && p.stack > 0 && len(p.holeCards) == 2 {
			count++
		}
	}
	return count
}

// roundCompleteLocked 本轮结束判定：所有未弃牌且非 all-in 的玩家下注额
// 都等于当前最高注。没有可表态玩家时视为结束（全员 all-in）。
// 只在某个动作之后评估，因此每条街至少有一次行动。
func (g *Game) roundCompleteLocked() bool {
	for _, p := range g.players {
		if p == nil || p.folded || p.stack == 0 || len(p.holeCards) != 2 {
			continue
		}
		if p.bet != g.curBet {
			return false
		}
	}
	return true
}

func (g *Game) resetRoundLocked() {
	for _, p := range g.players {
		if p == nil {
			continue
		}
		p.resetBet()
	}
	g.curBet = 0
}

// advanceStreetLocked 推进到下一条街；可行动人数不足 2 时持续发完公共牌直接摊牌。
func (g *Game) advanceStreetLocked() (*HandResult, error) {
	g.resetRoundLocked()

	for {
		if g.phase == PhaseRiver {
			return g.showdownLocked()
		}
		g.phase++

		deal := 0
		switch g.phase {
		case PhaseFlop:
			deal = 3
		case PhaseTurn, PhaseRiver:
			deal = 1
		}
		cards, ok := g.deck.PopCards(deal)
		if !ok {
			return nil, ErrInvalidState("deck underflow")
		}
		g.community.Add(cards...)

		if g.actionableCountLocked() >= 2 {
			g.activeSeat = g.firstActiveLocked()
			return nil, nil
		}
		// all-in 跑马：无人可行动，继续发牌
	}
}

func (g *Game) runOutLocked() (*HandResult, error) {
	g.resetRoundLocked()
	for g.phase != PhaseRiver {
		g.phase++
		deal := 0
		switch g.phase {
		case PhaseFlop:
			deal = 3
		case PhaseTurn, PhaseRiver:
			deal = 1
		}
		cards, ok := g.deck.PopCards(deal)
		if !ok {
			return nil, ErrInvalidState("deck underflow")
		}
		g.community.Add(cards...)
	}
	return g.showdownLocked()
}
