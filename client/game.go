// Package client is the remote-authoritative side of the UI: it never
// computes game state itself, it polls the ledger, derives whose turn
// it is and which actions are legal, and submits actions as sealed or
// plain requests. Hole cards arrive as ciphertext handles and are
// decrypted locally through the encryption adapter; the plaintexts
// stay in this process until the player explicitly reveals.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/htvnhe/fhe-poker/card"
	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/holdem"
	"github.com/htvnhe/fhe-poker/ledger"
	"github.com/htvnhe/fhe-poker/wallet"
)

const (
	defaultGamePoll    = time.Second
	defaultLobbyPoll   = 5 * time.Second
	defaultRepollDelay = 500 * time.Millisecond
)

var (
	ErrNotYourTurn  = errors.New("client: not your turn")
	ErrNotSeated    = errors.New("client: not seated at this table")
	ErrNoHoleCards  = errors.New("client: hole cards not decrypted yet")
	ErrNotShowdown  = errors.New("client: hand not at showdown yet")
	ErrSeatMismatch = errors.New("client: seated at a different table")
)

// State is the reconciled view of one table, rebuilt from the last
// successful poll of each field. A failed sub-fetch leaves its field at
// the previous value rather than blanking it.
type State struct {
	TableID ledger.TableID
	Phase   holdem.Phase

	Pot        uint64
	CurBet     uint64
	SmallBlind uint64
	BigBlind   uint64

	Addresses []wallet.Address
	Bets      []uint64
	Folded    []bool

	Community []card.Card // fixed 5 slots, 0 = undealt

	MySeat       int
	MyTurn       bool
	CurrentActor int

	HoleHandles []fhe.Handle
	// HoleCards are the locally decrypted values. Never sent anywhere
	// except through an explicit Reveal.
	HoleCards []card.Card

	WinnerSeat int
	Revealed   []bool
}

// GameClient drives one table for one wallet.
type GameClient struct {
	ldg      ledger.Ledger
	sealer   fhe.Sealer
	dec      fhe.Decryptor
	signer   fhe.Signer
	contract wallet.Address
	tableID  ledger.TableID

	pollEvery   time.Duration
	repollDelay time.Duration

	mu             sync.Mutex
	st             State
	gen            uint64 // bumped on Close; stale async results are dropped
	pendingDecrypt bool
	decrypting     bool
	onUpdate       func(State)

	pollNow chan struct{}
	ticking sync.Mutex // serializes ticks; a tick never overlaps the previous one
	closed  bool
}

// Options override the polling cadence, mainly for tests.
type Options struct {
	PollInterval time.Duration
	RepollDelay  time.Duration
}

func NewGameClient(ldg ledger.Ledger, sealer fhe.Sealer, dec fhe.Decryptor, signer fhe.Signer, contract wallet.Address, tableID ledger.TableID, opts Options) *GameClient {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultGamePoll
	}
	if opts.RepollDelay <= 0 {
		opts.RepollDelay = defaultRepollDelay
	}
	return &GameClient{
		ldg:         ldg,
		sealer:      sealer,
		dec:         dec,
		signer:      signer,
		contract:    contract,
		tableID:     tableID,
		pollEvery:   opts.PollInterval,
		repollDelay: opts.RepollDelay,
		st: State{
			TableID:      tableID,
			MySeat:       ledger.NoSeat,
			CurrentActor: ledger.NoSeat,
			WinnerSeat:   ledger.NoSeat,
		},
		pollNow: make(chan struct{}, 1),
	}
}

// OnUpdate registers the push callback invoked after every applied
// tick. Called without the client lock held.
func (c *GameClient) OnUpdate(fn func(State)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Run polls until ctx is done. Ticks are serialized: the timer firing
// while a tick is still in flight does not start a second one.
func (c *GameClient) Run(ctx context.Context) {
	t := time.NewTicker(c.pollEvery)
	defer t.Stop()
	c.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick(ctx)
		case <-c.pollNow:
			c.Tick(ctx)
		}
	}
}

// Close discards the client: in-flight decrypt results are dropped and
// cached secrets cleared.
func (c *GameClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
	c.clearSecretsLocked()
}

// Snapshot returns a copy of the current state.
func (c *GameClient) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyStateLocked()
}

func (c *GameClient) copyStateLocked() State {
	s := c.st
	s.Addresses = append([]wallet.Address{}, c.st.Addresses...)
	s.Bets = append([]uint64{}, c.st.Bets...)
	s.Folded = append([]bool{}, c.st.Folded...)
	s.Community = append([]card.Card{}, c.st.Community...)
	s.HoleHandles = append([]fhe.Handle{}, c.st.HoleHandles...)
	s.HoleCards = append([]card.Card{}, c.st.HoleCards...)
	s.Revealed = append([]bool{}, c.st.Revealed...)
	return s
}

func (c *GameClient) clearSecretsLocked() {
	c.st.HoleCards = nil
	c.st.HoleHandles = nil
	c.pendingDecrypt = false
	c.decrypting = false
}

// Tick performs one reconciliation pass. Every sub-fetch failure is
// isolated: the field keeps its last known value and the rest of the
// pass continues.
func (c *GameClient) Tick(ctx context.Context) {
	c.ticking.Lock()
	defer c.ticking.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	prevPhase := c.st.Phase
	prevHandles := append([]fhe.Handle{}, c.st.HoleHandles...)
	c.mu.Unlock()

	var (
		ts         ledger.TableState
		tsOK       bool
		seat       = ledger.NoSeat
		seatOK     bool
		board      []card.Card
		handles    []fhe.Handle
		handleOK   bool
		winner     = ledger.NoSeat
		winnerOK   bool
		revealed   []bool
		revealedOK []bool
	)

	if v, err := c.ldg.TableState(ctx, c.tableID); err != nil {
		log.Printf("[GameClient] table %d state: %v", c.tableID, err)
	} else {
		ts, tsOK = v, true
	}
	addr := c.signer.Address()
	if v, err := c.ldg.PlayerIndex(ctx, c.tableID, addr); err != nil {
		log.Printf("[GameClient] table %d seat: %v", c.tableID, err)
	} else {
		seat, seatOK = v, true
	}
	if v, err := c.ldg.CommunityCards(ctx, c.tableID); err != nil {
		log.Printf("[GameClient] table %d board: %v", c.tableID, err)
	} else {
		board = v
	}
	if v, err := c.ldg.PlayerCards(ctx, c.tableID, addr); err == nil {
		handles, handleOK = v, true
	}
	if tsOK && (ts.Phase == holdem.PhaseShowdown || ts.Phase == holdem.PhaseFinished) {
		if s, _, err := c.ldg.Winner(ctx, c.tableID); err == nil {
			winner, winnerOK = s, true
		} else {
			log.Printf("[GameClient] table %d winner: %v", c.tableID, err)
		}
		revealed = make([]bool, len(ts.Addresses))
		revealedOK = make([]bool, len(ts.Addresses))
		for i := range revealed {
			if ok, err := c.ldg.HasRevealed(ctx, c.tableID, i); err == nil {
				revealed[i], revealedOK[i] = ok, true
			}
		}
	}

	c.mu.Lock()
	if c.gen != gen || c.closed {
		c.mu.Unlock()
		return
	}
	if tsOK {
		c.st.Phase = ts.Phase
		c.st.Pot = ts.Pot
		c.st.CurBet = ts.CurBet
		c.st.SmallBlind = ts.SmallBlind
		c.st.BigBlind = ts.BigBlind
		c.st.Addresses = ts.Addresses
		c.st.Bets = ts.Bets
		c.st.Folded = ts.Folded
		if ts.Phase == holdem.PhaseShowdown || ts.Phase == holdem.PhaseFinished {
			// 只有成功的子读才覆盖；失败的保留上一次的值
			if winnerOK {
				c.st.WinnerSeat = winner
			}
			if len(c.st.Revealed) != len(revealed) {
				c.st.Revealed = make([]bool, len(revealed))
			}
			for i := range revealed {
				if revealedOK[i] {
					c.st.Revealed[i] = revealed[i]
				}
			}
		} else {
			c.st.WinnerSeat = ledger.NoSeat
			c.st.Revealed = nil
		}
		// Back to Waiting means the hand is gone: per-hand secrets with it.
		if prevPhase != holdem.PhaseWaiting && ts.Phase == holdem.PhaseWaiting {
			c.clearSecretsLocked()
			prevHandles = nil
		}
	}
	if seatOK {
		c.st.MySeat = seat
	}
	if board != nil {
		c.st.Community = board
	}
	if handleOK {
		c.applyHandlesLocked(prevHandles, handles)
	}
	if tsOK {
		c.st.CurrentActor = ts.CurrentActor
		c.st.MyTurn = c.st.MySeat != ledger.NoSeat && c.st.MySeat == ts.CurrentActor
	}
	c.maybeDecryptLocked(ctx, gen)
	fn := c.onUpdate
	out := c.copyStateLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(out)
	}
}

// applyHandlesLocked implements the reveal protocol's first step: a
// transition from "no cards" to "has cards", or a handle change (new
// hand), clears all previous decryption state and marks a pending
// batched decrypt.
func (c *GameClient) applyHandlesLocked(prev, cur []fhe.Handle) {
	if handlesEqual(prev, cur) {
		c.st.HoleHandles = cur
		return
	}
	c.st.HoleCards = nil
	c.pendingDecrypt = len(cur) > 0
	c.st.HoleHandles = cur
}

func handlesEqual(a, b []fhe.Handle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// maybeDecryptLocked launches the batched hole-card decrypt when the
// preconditions hold: pending work, a wallet, and no request already
// in flight. Failure clears the in-flight flag so the next tick
// retries; it never wedges.
func (c *GameClient) maybeDecryptLocked(ctx context.Context, gen uint64) {
	if !c.pendingDecrypt || c.decrypting || c.signer == nil || len(c.st.HoleHandles) == 0 {
		return
	}
	c.decrypting = true
	handles := append([]fhe.Handle{}, c.st.HoleHandles...)

	go func() {
		got, err := c.dec.RequestDecryption(ctx, handles, c.contract, c.signer)

		c.mu.Lock()
		defer c.mu.Unlock()
		// The request is no longer in flight whatever the outcome;
		// leaving the flag set would block every later decrypt.
		c.decrypting = false
		if c.gen != gen || !handlesEqual(handles, c.st.HoleHandles) {
			return // superseded; never apply a stale hand's plaintexts
		}
		if err != nil {
			log.Printf("[GameClient] table %d decrypt: %v", c.tableID, err)
			return // pendingDecrypt stays set, next tick retries
		}
		cards := make([]card.Card, 0, len(handles))
		for _, h := range handles {
			cards = append(cards, card.Card(got[h]))
		}
		c.st.HoleCards = cards
		c.pendingDecrypt = false
	}()
}

// requireTurn is the local pre-check; the ledger remains authoritative.
func (c *GameClient) requireTurn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.MySeat == ledger.NoSeat {
		return ErrNotSeated
	}
	if !c.st.MyTurn {
		return ErrNotYourTurn
	}
	return nil
}

// scheduleRepoll forces a poll shortly after a submission to shrink
// the stale-state window.
func (c *GameClient) scheduleRepoll() {
	time.AfterFunc(c.repollDelay, func() {
		select {
		case c.pollNow <- struct{}{}:
		default:
		}
	})
}

// Start asks the ledger to begin a hand at this table.
func (c *GameClient) Start(ctx context.Context) error {
	if err := c.ldg.StartGame(ctx, c.tableID, c.signer.Address()); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

func (c *GameClient) Fold(ctx context.Context) error {
	if err := c.requireTurn(); err != nil {
		return err
	}
	if err := c.ldg.Fold(ctx, c.tableID, c.signer.Address()); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

func (c *GameClient) Check(ctx context.Context) error {
	if err := c.requireTurn(); err != nil {
		return err
	}
	if err := c.ldg.Check(ctx, c.tableID, c.signer.Address()); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

func (c *GameClient) Call(ctx context.Context) error {
	if err := c.requireTurn(); err != nil {
		return err
	}
	if err := c.ldg.Call(ctx, c.tableID, c.signer.Address()); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

// RaiseAmount is the table-wide amount a raise right now would set.
func (c *GameClient) RaiseAmount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.CurBet + 2*c.st.BigBlind
}

// Raise seals the raise amount and submits it. The plaintext hint
// travels alongside the envelope per the ledger's bet contract.
func (c *GameClient) Raise(ctx context.Context) error {
	if err := c.requireTurn(); err != nil {
		return err
	}
	amount := c.RaiseAmount()
	env, err := c.sealer.SealAmount(ctx, amount, c.contract, c.signer.Address())
	if err != nil {
		return fmt.Errorf("seal raise: %w", err)
	}
	if err := c.ldg.Bet(ctx, c.tableID, c.signer.Address(), amount, env); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

// Reveal submits the locally decrypted hole cards back to the ledger.
// It is an explicit user action, valid only once the hand has reached
// showdown; the client never reveals on its own.
func (c *GameClient) Reveal(ctx context.Context) error {
	c.mu.Lock()
	phase := c.st.Phase
	cards := append([]card.Card{}, c.st.HoleCards...)
	c.mu.Unlock()
	if phase != holdem.PhaseShowdown && phase != holdem.PhaseFinished {
		return ErrNotShowdown
	}
	if len(cards) != 2 {
		return ErrNoHoleCards
	}
	if err := c.ldg.RevealCards(ctx, c.tableID, c.signer.Address(), uint8(cards[0]), uint8(cards[1])); err != nil {
		return err
	}
	c.scheduleRepoll()
	return nil
}

// Leave exits the table and discards all cached secrets.
func (c *GameClient) Leave(ctx context.Context) error {
	err := c.ldg.LeaveTable(ctx, c.tableID, c.signer.Address())
	c.Close()
	return err
}
