package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"

	"github.com/htvnhe/fhe-poker/card"
	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/holdem"
	"github.com/htvnhe/fhe-poker/wallet"
)

const (
	devnetMaxPlayers = 6
	devnetMinPlayers = 2
	// buy-in refill multiple applied when a finished table restarts
	devnetRefillBigBlinds = 100
)

// Devnet is an in-process stand-in for the authoritative contract: one
// local round engine per table, hole cards sealed through the oracle so
// readers only ever see handles, reveals verified against the dealt
// cards. It exists for local play and tests; nothing here is a real
// chain.
type Devnet struct {
	oracle   *fhe.LocalOracle
	contract wallet.Address

	mu       sync.Mutex
	tables   map[TableID]*devTable
	byPlayer map[wallet.Address]TableID
	nextID   TableID
	seed     int64
}

type devTable struct {
	id   TableID
	cfg  holdem.Config
	game *holdem.Game

	addrs    []wallet.Address // seat-indexed, "" = vacant
	handles  map[wallet.Address][]fhe.Handle
	revealed []bool
	winner   int
}

var _ Ledger = (*Devnet)(nil)

// NewDevnet 以随机合约地址和时间种子启动
func NewDevnet(oracle *fhe.LocalOracle) *Devnet {
	return NewDevnetSeeded(oracle, 0)
}

// NewDevnetSeeded pins the per-table engine seeds for deterministic
// tests. seed==0 falls back to time-based shuffling.
func NewDevnetSeeded(oracle *fhe.LocalOracle, seed int64) *Devnet {
	var buf [20]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("ledger: devnet address: " + err.Error())
	}
	return &Devnet{
		oracle:   oracle,
		contract: wallet.Address("0x" + hex.EncodeToString(buf[:])),
		tables:   make(map[TableID]*devTable),
		byPlayer: make(map[wallet.Address]TableID),
		seed:     seed,
	}
}

// Contract is the address envelopes must be sealed against.
func (d *Devnet) Contract() wallet.Address { return d.contract }

// Oracle exposes the sealing backend tables share.
func (d *Devnet) Oracle() *fhe.LocalOracle { return d.oracle }

func (d *Devnet) table(id TableID) (*devTable, error) {
	t, ok := d.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoTable, id)
	}
	return t, nil
}

func (d *Devnet) seatOf(t *devTable, addr wallet.Address) (int, error) {
	for seat, a := range t.addrs {
		if a == addr && a != "" {
			return seat, nil
		}
	}
	return NoSeat, fmt.Errorf("%w: %s at table %d", ErrNotSeated, addr, t.id)
}

// --- Writer ---

func (d *Devnet) CreateTable(ctx context.Context, caller wallet.Address, smallBlind, bigBlind uint64) (TableID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := holdem.Config{
		MaxPlayers:    devnetMaxPlayers,
		MinPlayers:    devnetMinPlayers,
		SmallBlind:    int64(smallBlind),
		BigBlind:      int64(bigBlind),
		StartingStack: int64(bigBlind) * devnetRefillBigBlinds,
	}
	if d.seed != 0 {
		cfg.Seed = d.seed + int64(d.nextID)
	}
	g, err := holdem.NewGame(cfg)
	if err != nil {
		return 0, err
	}

	d.nextID++
	t := &devTable{
		id:       d.nextID,
		cfg:      cfg,
		game:     g,
		addrs:    make([]wallet.Address, cfg.MaxPlayers),
		handles:  make(map[wallet.Address][]fhe.Handle),
		revealed: make([]bool, cfg.MaxPlayers),
		winner:   NoSeat,
	}
	d.tables[t.id] = t
	log.Printf("[Devnet] table %d created by %s (blinds %d/%d)", t.id, caller, smallBlind, bigBlind)
	return t.id, nil
}

func (d *Devnet) JoinTable(ctx context.Context, id TableID, caller wallet.Address, buyIn fhe.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	if _, seated := d.byPlayer[caller]; seated {
		return fmt.Errorf("%w: %s", ErrAlreadySeated, caller)
	}

	seat := NoSeat
	for i, a := range t.addrs {
		if a == "" {
			seat = i
			break
		}
	}
	if seat == NoSeat {
		return fmt.Errorf("%w: table %d", ErrTableFull, id)
	}

	stack, err := d.oracle.Unseal(buyIn, d.contract, caller)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if err := t.game.Join(seat, string(caller), int64(stack), false); err != nil {
		return err
	}
	t.addrs[seat] = caller
	d.byPlayer[caller] = id
	log.Printf("[Devnet] table %d: %s seated at %d", id, caller, seat)
	return nil
}

func (d *Devnet) StartGame(ctx context.Context, id TableID, caller wallet.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	if _, err := d.seatOf(t, caller); err != nil {
		return err
	}
	if err := t.game.StartHand(); err != nil {
		return err
	}

	// 新手牌:旧句柄作废、亮牌状态清零
	t.handles = make(map[wallet.Address][]fhe.Handle)
	for i := range t.revealed {
		t.revealed[i] = false
	}
	t.winner = NoSeat

	for seat, addr := range t.addrs {
		if addr == "" {
			continue
		}
		p := t.game.Player(seat)
		if p == nil {
			continue
		}
		hs := make([]fhe.Handle, 0, 2)
		for _, c := range p.HoleCards() {
			hs = append(hs, d.oracle.Mint(uint64(c)))
		}
		t.handles[addr] = hs
	}

	// Blind-forced all-ins can settle the hand inside StartHand.
	d.recordSettlementLocked(t)
	return nil
}

func (d *Devnet) act(id TableID, caller wallet.Address, action holdem.ActionType) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	seat, err := d.seatOf(t, caller)
	if err != nil {
		return err
	}
	if _, err := t.game.Act(seat, action); err != nil {
		return err
	}
	d.recordSettlementLocked(t)
	return nil
}

func (d *Devnet) recordSettlementLocked(t *devTable) {
	if t.game.Snapshot().Phase != holdem.PhaseFinished {
		return
	}
	if res := t.game.LastResult(); res != nil && len(res.Winners) > 0 {
		t.winner = res.Winners[0]
	}
}

func (d *Devnet) Fold(ctx context.Context, id TableID, caller wallet.Address) error {
	return d.act(id, caller, holdem.ActionFold)
}

func (d *Devnet) Check(ctx context.Context, id TableID, caller wallet.Address) error {
	return d.act(id, caller, holdem.ActionCheck)
}

func (d *Devnet) Call(ctx context.Context, id TableID, caller wallet.Address) error {
	return d.act(id, caller, holdem.ActionCall)
}

// Bet performs the fixed-increment raise. hint must equal the new
// table-wide amount to match, and the envelope must open to hint.
func (d *Devnet) Bet(ctx context.Context, id TableID, caller wallet.Address, hint uint64, amount fhe.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	seat, err := d.seatOf(t, caller)
	if err != nil {
		return err
	}

	plain, err := d.oracle.Unseal(amount, d.contract, caller)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if plain != hint {
		return fmt.Errorf("%w: sealed %d, hint %d", ErrAmountMismatch, plain, hint)
	}

	snap := t.game.Snapshot()
	inc := t.cfg.RaiseIncrement
	if inc == 0 {
		inc = 2 * t.cfg.BigBlind
	}
	if want := snap.CurBet + inc; int64(hint) != want {
		return fmt.Errorf("%w: raise must be to %d, got %d", ErrAmountMismatch, want, hint)
	}

	if _, err := t.game.Act(seat, holdem.ActionRaise); err != nil {
		return err
	}
	d.recordSettlementLocked(t)
	return nil
}

func (d *Devnet) RevealCards(ctx context.Context, id TableID, caller wallet.Address, card1, card2 uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	seat, err := d.seatOf(t, caller)
	if err != nil {
		return err
	}
	p := t.game.Player(seat)
	if p == nil || len(p.HoleCards()) != 2 {
		return holdem.ErrInvalidState("no hole cards to reveal")
	}
	dealt := p.HoleCards()
	a, b := card.Card(card1), card.Card(card2)
	if !(a == dealt[0] && b == dealt[1]) && !(a == dealt[1] && b == dealt[0]) {
		return ErrRevealMismatch
	}
	t.revealed[seat] = true
	log.Printf("[Devnet] table %d: seat %d revealed", id, seat)
	return nil
}

func (d *Devnet) LeaveTable(ctx context.Context, id TableID, caller wallet.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return err
	}
	seat, err := d.seatOf(t, caller)
	if err != nil {
		return err
	}
	if err := t.game.Leave(seat); err != nil {
		return err
	}
	t.addrs[seat] = ""
	delete(t.handles, caller)
	delete(d.byPlayer, caller)
	return nil
}

// --- Reader ---

func (d *Devnet) TableCount(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tables), nil
}

func (d *Devnet) TableInfo(ctx context.Context, id TableID) (TableInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return TableInfo{}, err
	}
	return d.infoLocked(t), nil
}

func (d *Devnet) infoLocked(t *devTable) TableInfo {
	snap := t.game.Snapshot()
	count := 0
	for _, a := range t.addrs {
		if a != "" {
			count++
		}
	}
	actor := snap.ActiveSeat
	if actor == holdem.InvalidSeat {
		actor = NoSeat
	}
	return TableInfo{
		ID:           t.id,
		Phase:        snap.Phase,
		PlayerCount:  count,
		MaxPlayers:   t.cfg.MaxPlayers,
		DealerIndex:  0, // fixed-seat convention: seat 0 deals
		CurrentActor: actor,
		SmallBlind:   uint64(snap.SmallBlind),
		BigBlind:     uint64(snap.BigBlind),
	}
}

func (d *Devnet) TableState(ctx context.Context, id TableID) (TableState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return TableState{}, err
	}
	snap := t.game.Snapshot()
	st := TableState{
		TableInfo: d.infoLocked(t),
		Pot:       uint64(snap.Pot),
		CurBet:    uint64(snap.CurBet),
		Addresses: append([]wallet.Address{}, t.addrs...),
		Bets:      make([]uint64, t.cfg.MaxPlayers),
		Folded:    make([]bool, t.cfg.MaxPlayers),
		InHand:    make([]bool, t.cfg.MaxPlayers),
	}
	for _, p := range snap.Players {
		st.Bets[p.Seat] = uint64(p.Bet)
		st.Folded[p.Seat] = p.Folded
		st.InHand[p.Seat] = len(p.HoleCards) == 2
	}
	return st, nil
}

func (d *Devnet) PlayerIndex(ctx context.Context, id TableID, addr wallet.Address) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return NoSeat, err
	}
	seat, err := d.seatOf(t, addr)
	if err != nil {
		return NoSeat, nil // unseated is a normal answer, not an error
	}
	return seat, nil
}

func (d *Devnet) PlayerTable(ctx context.Context, addr wallet.Address) (TableID, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byPlayer[addr]
	return id, ok, nil
}

func (d *Devnet) PlayerCards(ctx context.Context, id TableID, addr wallet.Address) ([]fhe.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return nil, err
	}
	if _, err := d.seatOf(t, addr); err != nil {
		return nil, err
	}
	return append([]fhe.Handle{}, t.handles[addr]...), nil
}

func (d *Devnet) CommunityCards(ctx context.Context, id TableID) ([]card.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return nil, err
	}
	board := make([]card.Card, 5) // 0 = undealt slot
	copy(board, t.game.Snapshot().CommunityCards)
	return board, nil
}

func (d *Devnet) Winner(ctx context.Context, id TableID) (int, wallet.Address, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return NoSeat, "", err
	}
	if t.winner == NoSeat {
		return NoSeat, "", nil
	}
	return t.winner, t.addrs[t.winner], nil
}

func (d *Devnet) HasRevealed(ctx context.Context, id TableID, seat int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(id)
	if err != nil {
		return false, err
	}
	if seat < 0 || seat >= len(t.revealed) {
		return false, nil
	}
	return t.revealed[seat], nil
}
