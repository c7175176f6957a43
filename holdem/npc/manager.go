package npc

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/htvnhe/fhe-poker/holdem"
)

const defaultThinkDelay = 800 * time.Millisecond

// Instance represents an active NPC seated at a table.
type Instance struct {
	Seat       int
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Manager schedules NPC decisions against a single Game with cancellable
// think timers. A pending timer is cancelled whenever the relevant game
// state changes (new hand, detach) so stale decisions never mutate state.
type Manager struct {
	mu sync.Mutex

	game      *holdem.Game
	rng       *rand.Rand
	instances map[int]*Instance // keyed by seat
	timers    map[int]*time.Timer
	handGen   uint64 // bumps on reset; late timers check it before acting
}

func NewManager(game *holdem.Game, seed int64) *Manager {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		game:      game,
		rng:       rand.New(rand.NewSource(seed)),
		instances: make(map[int]*Instance),
		timers:    make(map[int]*time.Timer),
	}
}

// Attach seats a brain at the given seat.
func (m *Manager) Attach(seat int, brain BrainDecider, thinkDelay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if thinkDelay <= 0 {
		thinkDelay = defaultThinkDelay
	}
	m.instances[seat] = &Instance{Seat: seat, Brain: brain, ThinkDelay: thinkDelay}
}

// Detach removes the NPC and cancels any pending think timer.
func (m *Manager) Detach(seat int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, seat)
	m.cancelTimerLocked(seat)
}

// Reset cancels all pending timers; call when a hand is discarded or restarted.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handGen++
	for seat := range m.timers {
		m.cancelTimerLocked(seat)
	}
}

// Poke schedules a decision if it's an attached NPC's turn. Safe to call
// after every state change; double scheduling for the same seat is a no-op
// until the pending timer fires or is cancelled.
func (m *Manager) Poke() {
	snap := m.game.Snapshot()
	if !snap.Phase.Betting() || snap.ActiveSeat == holdem.InvalidSeat {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[snap.ActiveSeat]
	if !ok {
		return
	}
	if _, pending := m.timers[inst.Seat]; pending {
		return
	}

	gen := m.handGen
	seat := inst.Seat
	m.timers[seat] = time.AfterFunc(inst.ThinkDelay, func() {
		m.fire(seat, gen)
	})
}

func (m *Manager) fire(seat int, gen uint64) {
	m.mu.Lock()
	delete(m.timers, seat)
	if gen != m.handGen {
		m.mu.Unlock()
		return
	}
	inst, ok := m.instances[seat]
	m.mu.Unlock()
	if !ok {
		return
	}

	snap := m.game.Snapshot()
	if snap.ActiveSeat != seat || !snap.Phase.Betting() {
		return
	}

	view := GameView{
		Phase:        snap.Phase,
		Community:    snap.CommunityCards,
		Pot:          snap.Pot,
		CurrentBet:   snap.CurBet,
		LegalActions: m.game.LegalActions(seat),
	}
	for _, p := range snap.Players {
		if p.Seat == seat {
			view.HoleCards = p.HoleCards
			view.MyBet = p.Bet
			view.MyStack = p.Stack
		}
	}

	decision := inst.Brain.Decide(view)
	if _, err := m.game.Act(seat, decision.Action); err != nil {
		log.Printf("[NPC] seat %d action %v rejected: %v", seat, decision.Action, err)
		return
	}
	// 下一个行动者也可能是 NPC
	m.Poke()
}

// Rand exposes the manager's seeded rng for brain construction.
func (m *Manager) Rand() *rand.Rand { return m.rng }

func (m *Manager) cancelTimerLocked(seat int) {
	if t, ok := m.timers[seat]; ok {
		t.Stop()
		delete(m.timers, seat)
	}
}
