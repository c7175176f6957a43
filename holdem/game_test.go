package holdem

import (
	"testing"
)

func newTestGame(t *testing.T, players int, stacks ...int64) *Game {
	t.Helper()
	g, err := NewGame(Config{
		MaxPlayers:    6,
		MinPlayers:    2,
		SmallBlind:    10,
		BigBlind:      20,
		StartingStack: 1000,
		Seed:          1,
	})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	for seat := 0; seat < players; seat++ {
		stack := int64(1000)
		if seat < len(stacks) {
			stack = stacks[seat]
		}
		if err := g.Join(seat, "", stack, false); err != nil {
			t.Fatalf("Join seat %d err: %v", seat, err)
		}
	}
	return g
}

func chipTotal(g *Game) int64 {
	snap := g.Snapshot()
	total := snap.Pot
	for _, p := range snap.Players {
		total += p.Stack
	}
	return total
}

// 覆盖规格示例：3 人桌 10/20 起始 1000。
func TestExampleScenario_BlindsCallsAndFlop(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatalf("StartHand err: %v", err)
	}

	snap := g.Snapshot()
	if snap.Phase != PhasePreflop {
		t.Fatalf("phase = %v, want preflop", snap.Phase)
	}
	if snap.Players[1].Stack != 990 || snap.Players[1].Bet != 10 {
		t.Fatalf("sb seat1: stack=%d bet=%d", snap.Players[1].Stack, snap.Players[1].Bet)
	}
	if snap.Players[2].Stack != 980 || snap.Players[2].Bet != 20 {
		t.Fatalf("bb seat2: stack=%d bet=%d", snap.Players[2].Stack, snap.Players[2].Bet)
	}
	if snap.Pot != 30 || snap.CurBet != 20 {
		t.Fatalf("pot=%d curBet=%d", snap.Pot, snap.CurBet)
	}
	if snap.ActiveSeat != 0 {
		t.Fatalf("active seat = %d, want 0 (under the gun)", snap.ActiveSeat)
	}
	for _, p := range snap.Players {
		if len(p.HoleCards) != 2 {
			t.Fatalf("seat %d has %d hole cards", p.Seat, len(p.HoleCards))
		}
	}

	// Seat0 calls.
	if _, err := g.Act(0, ActionCall); err != nil {
		t.Fatalf("seat0 call err: %v", err)
	}
	snap = g.Snapshot()
	if snap.Players[0].Stack != 980 || snap.Players[0].Bet != 20 || snap.Pot != 50 {
		t.Fatalf("after seat0 call: stack=%d bet=%d pot=%d",
			snap.Players[0].Stack, snap.Players[0].Bet, snap.Pot)
	}

	// Seat1 completes the small blind; all matched, flop is dealt.
	if _, err := g.Act(1, ActionCall); err != nil {
		t.Fatalf("seat1 call err: %v", err)
	}
	snap = g.Snapshot()
	if snap.Phase != PhaseFlop {
		t.Fatalf("phase = %v, want flop", snap.Phase)
	}
	if len(snap.CommunityCards) != 3 {
		t.Fatalf("community = %d cards, want 3", len(snap.CommunityCards))
	}
	if snap.Pot != 60 {
		t.Fatalf("pot = %d, want 60", snap.Pot)
	}
	for _, p := range snap.Players {
		if p.Bet != 0 {
			t.Fatalf("seat %d bet not reset: %d", p.Seat, p.Bet)
		}
	}
	if snap.CurBet != 0 {
		t.Fatalf("table curBet not reset: %d", snap.CurBet)
	}
}

func TestTurnLegality_OutOfTurnNeverMutates(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	before := g.Snapshot()
	total := chipTotal(g)

	// Seat1 is not under the gun.
	for _, a := range []ActionType{ActionFold, ActionCheck, ActionCall, ActionRaise} {
		if _, err := g.Act(1, a); err != ErrOutOfTurn {
			t.Fatalf("action %v out of turn: err=%v, want ErrOutOfTurn", a, err)
		}
	}

	after := g.Snapshot()
	if after.Pot != before.Pot || after.Phase != before.Phase || chipTotal(g) != total {
		t.Fatal("out-of-turn action mutated state")
	}
	for i := range after.Players {
		if after.Players[i].Stack != before.Players[i].Stack {
			t.Fatalf("seat %d stack mutated", i)
		}
	}
}

func TestValidation_CheckFacingBetRejected(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	// Seat0 faces the big blind.
	if _, err := g.Act(0, ActionCheck); err != ErrCannotCheck {
		t.Fatalf("check facing bet: err=%v, want ErrCannotCheck", err)
	}
	if _, err := g.Act(0, ActionCall); err != nil {
		t.Fatalf("call after rejected check err: %v", err)
	}
}

func TestAllIn_ShortCallCapsAtStack(t *testing.T) {
	// Seat0 has only 15 chips facing a 20 call.
	g := newTestGame(t, 3, 15, 1000, 1000)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Act(0, ActionCall); err != nil {
		t.Fatalf("short call err: %v", err)
	}
	snap := g.Snapshot()
	if snap.Players[0].Stack != 0 {
		t.Fatalf("stack = %d, want 0 (all-in)", snap.Players[0].Stack)
	}
	if snap.Players[0].Bet != 15 {
		t.Fatalf("bet = %d, want 15 (capped at stack, not table curBet)", snap.Players[0].Bet)
	}
	if !snap.Players[0].AllIn {
		t.Fatal("expected all-in flag")
	}
}

func TestRaise_InsufficientChipsRejected(t *testing.T) {
	// Raise requires curBet + 2*BB - bet = 20+40-0 = 60; seat0 has 50.
	g := newTestGame(t, 3, 50, 1000, 1000)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Act(0, ActionRaise); err != ErrInsufficient {
		t.Fatalf("raise err=%v, want ErrInsufficient", err)
	}
	// State untouched: call is still legal.
	if _, err := g.Act(0, ActionCall); err != nil {
		t.Fatal(err)
	}
}

func TestRaise_ReopensRound(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Act(0, ActionCall); err != nil {
		t.Fatal(err)
	}
	// Seat1 raises to 20+40=60; round must not close even though seat0 matched 20 before.
	if _, err := g.Act(1, ActionRaise); err != nil {
		t.Fatal(err)
	}
	snap := g.Snapshot()
	if snap.Phase != PhasePreflop {
		t.Fatalf("phase advanced early: %v", snap.Phase)
	}
	if snap.CurBet != 60 {
		t.Fatalf("curBet = %d, want 60", snap.CurBet)
	}
	if snap.ActiveSeat != 2 {
		t.Fatalf("active seat = %d, want 2", snap.ActiveSeat)
	}
}

// 规格性质：下注 [20,20,0] 且零注者的同轮对手之一已弃牌，
// 在落后者补齐或弃牌前回合不结束。
func TestBettingRoundClosure(t *testing.T) {
	g := newTestGame(t, 4)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}

	g.mu.Lock()
	g.curBet = 20
	g.players[0].bet = 20
	g.players[1].bet = 20
	g.players[2].bet = 0
	g.players[3].setFolded(true)
	complete := g.roundCompleteLocked()
	g.mu.Unlock()
	if complete {
		t.Fatal("round complete with a lagging active player")
	}

	g.mu.Lock()
	g.players[2].bet = 20
	complete = g.roundCompleteLocked()
	g.mu.Unlock()
	if !complete {
		t.Fatal("round not complete after lagging player matched")
	}

	g.mu.Lock()
	g.players[2].bet = 0
	g.players[2].setFolded(true)
	complete = g.roundCompleteLocked()
	g.mu.Unlock()
	if !complete {
		t.Fatal("round not complete after lagging player folded")
	}
}

func TestFoldToSingle_AwardsPotImmediately(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Act(0, ActionFold); err != nil {
		t.Fatal(err)
	}
	res, err := g.Act(1, ActionFold)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || !res.NoShowdown {
		t.Fatal("expected immediate no-showdown finish")
	}
	if len(res.Winners) != 1 || res.Winners[0] != 2 {
		t.Fatalf("winners = %v, want [2]", res.Winners)
	}
	// BB wins SB's 10 back plus keeps its 20.
	snap := g.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %v, want finished", snap.Phase)
	}
	if snap.Players[2].Stack != 1010 {
		t.Fatalf("winner stack = %d, want 1010", snap.Players[2].Stack)
	}
}

func TestChipConservation_AcrossFullHand(t *testing.T) {
	g := newTestGame(t, 4)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	for hand := 0; hand < 5; hand++ {
		// 重开可能补满打光的座位，总量以每手开局为准
		total := chipTotal(g)
		for step := 0; ; step++ {
			if step >= 100 {
				t.Fatal("hand did not converge")
			}
			snap := g.Snapshot()
			if snap.Phase == PhaseFinished {
				break
			}
			seat := snap.ActiveSeat
			if seat == InvalidSeat {
				t.Fatal("no active seat in betting phase")
			}
			acts := g.LegalActions(seat)
			if len(acts) == 0 {
				t.Fatalf("no legal actions for active seat %d", seat)
			}
			// 混一点加注和弃牌进去
			act := acts[len(acts)-1]
			if step%7 == 0 {
				act = ActionFold
			}
			if _, err := g.Act(seat, act); err != nil {
				t.Fatalf("hand %d step %d act %v err: %v", hand, step, act, err)
			}
			// 手内守恒：结算前 stacks+pot 恒等于初始总量
			if g.Snapshot().Phase != PhaseFinished && chipTotal(g) != total {
				t.Fatalf("chips not conserved mid-hand: %d != %d", chipTotal(g), total)
			}
		}
		// 结算后彩池已派发：仅 stacks 之和等于初始总量
		var stacks int64
		for _, p := range g.Snapshot().Players {
			stacks += p.Stack
		}
		if stacks != total {
			t.Fatalf("chips not conserved after settlement: %d != %d", stacks, total)
		}
		if err := g.StartHand(); err != nil {
			t.Fatalf("restart err: %v", err)
		}
	}
}

func TestPhaseSequencing_CommunityCardCounts(t *testing.T) {
	g := newTestGame(t, 3)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}

	wantCounts := map[Phase]int{
		PhasePreflop: 0,
		PhaseFlop:    3,
		PhaseTurn:    4,
		PhaseRiver:   5,
	}
	var prev []string

	for i := 0; i < 100; i++ {
		snap := g.Snapshot()
		if snap.Phase == PhaseFinished {
			break
		}
		if want, ok := wantCounts[snap.Phase]; ok {
			if len(snap.CommunityCards) != want {
				t.Fatalf("phase %v: %d community cards, want %d",
					snap.Phase, len(snap.CommunityCards), want)
			}
		}
		// 已发公共牌不得被移除或重排
		for j, c := range snap.CommunityCards {
			if j < len(prev) && prev[j] != c.String() {
				t.Fatalf("community card %d changed from %s to %s", j, prev[j], c)
			}
		}
		prev = prev[:0]
		for _, c := range snap.CommunityCards {
			prev = append(prev, c.String())
		}

		if _, err := g.Act(snap.ActiveSeat, g.LegalActions(snap.ActiveSeat)[1]); err != nil {
			t.Fatal(err)
		}
	}
	if g.Snapshot().Phase != PhaseFinished {
		t.Fatal("hand did not finish")
	}
}

func TestRestart_RefillsBustedStacks(t *testing.T) {
	g := newTestGame(t, 2, 15, 1000)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	// Run the hand out; seat0's 15 chips are at risk.
	for i := 0; i < 20; i++ {
		snap := g.Snapshot()
		if snap.Phase == PhaseFinished {
			break
		}
		acts := g.LegalActions(snap.ActiveSeat)
		if _, err := g.Act(snap.ActiveSeat, acts[1]); err != nil {
			t.Fatal(err)
		}
	}
	if g.Snapshot().Phase != PhaseFinished {
		t.Fatal("hand did not finish")
	}

	if err := g.StartHand(); err != nil {
		t.Fatalf("restart err: %v", err)
	}
	for _, p := range g.Snapshot().Players {
		if p.Stack+p.Bet <= 0 {
			t.Fatalf("seat %d not refilled: stack=%d", p.Seat, p.Stack)
		}
	}
}

func TestHeadsUp_BlindSeats(t *testing.T) {
	g := newTestGame(t, 2)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	snap := g.Snapshot()
	// 固定座位盲注：两人桌上 seats[1]=1 小盲、seats[2%2]=0 大盲
	if snap.Players[1].Bet != 10 {
		t.Fatalf("seat1 bet = %d, want small blind 10", snap.Players[1].Bet)
	}
	if snap.Players[0].Bet != 20 {
		t.Fatalf("seat0 bet = %d, want big blind 20", snap.Players[0].Bet)
	}
	if snap.ActiveSeat != 1 {
		t.Fatalf("active seat = %d, want 1", snap.ActiveSeat)
	}
}
