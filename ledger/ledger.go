// Package ledger defines the external contract surface the game client
// talks to: read views over table and player state, and the action
// writes that mutate it. Amounts cross this boundary either in
// plaintext (blinds, pots, bets already public on the table) or as
// sealed envelopes (buy-ins, raise amounts).
package ledger

import (
	"context"
	"errors"

	"github.com/htvnhe/fhe-poker/card"
	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/holdem"
	"github.com/htvnhe/fhe-poker/wallet"
)

type TableID uint64

// NoSeat 表示该地址未入座
const NoSeat = -1

var (
	ErrNoTable        = errors.New("ledger: no such table")
	ErrNotSeated      = errors.New("ledger: address not seated at table")
	ErrAlreadySeated  = errors.New("ledger: address already seated")
	ErrTableFull      = errors.New("ledger: table full")
	ErrBadEnvelope    = errors.New("ledger: sealed envelope rejected")
	ErrAmountMismatch = errors.New("ledger: sealed amount does not match hint")
	ErrRevealMismatch = errors.New("ledger: revealed cards do not match dealt cards")
)

// TableInfo is the public header of one table.
type TableInfo struct {
	ID           TableID
	Phase        holdem.Phase
	PlayerCount  int
	MaxPlayers   int
	DealerIndex  int
	CurrentActor int // NoSeat when no one is to act
	SmallBlind   uint64
	BigBlind     uint64
}

// TableState is TableInfo plus the per-seat arrays. Slices are indexed
// by seat up to MaxPlayers; vacant seats carry an empty address.
type TableState struct {
	TableInfo
	Pot       uint64
	CurBet    uint64
	Addresses []wallet.Address
	Bets      []uint64
	Folded    []bool
	InHand    []bool // seat has hole cards this hand
}

// Reader is the polled view of the ledger.
type Reader interface {
	TableCount(ctx context.Context) (int, error)
	TableInfo(ctx context.Context, id TableID) (TableInfo, error)
	// TableState 含每座位明细
	TableState(ctx context.Context, id TableID) (TableState, error)
	// PlayerIndex resolves addr's seat at the table, NoSeat if unseated.
	PlayerIndex(ctx context.Context, id TableID, addr wallet.Address) (int, error)
	// PlayerTable resolves the table addr is seated at, if any.
	PlayerTable(ctx context.Context, addr wallet.Address) (TableID, bool, error)
	// PlayerCards returns addr's sealed hole-card handles (empty until dealt).
	PlayerCards(ctx context.Context, id TableID, addr wallet.Address) ([]fhe.Handle, error)
	// CommunityCards returns the 5 board slots; 0 marks an undealt slot.
	CommunityCards(ctx context.Context, id TableID) ([]card.Card, error)
	// Winner returns the winning seat once settled, NoSeat otherwise.
	Winner(ctx context.Context, id TableID) (int, wallet.Address, error)
	HasRevealed(ctx context.Context, id TableID, seat int) (bool, error)
}

// Writer is the action surface. The caller address stands in for the
// transaction sender.
type Writer interface {
	CreateTable(ctx context.Context, caller wallet.Address, smallBlind, bigBlind uint64) (TableID, error)
	// JoinTable seats caller with a sealed buy-in.
	JoinTable(ctx context.Context, id TableID, caller wallet.Address, buyIn fhe.Envelope) error
	StartGame(ctx context.Context, id TableID, caller wallet.Address) error
	Fold(ctx context.Context, id TableID, caller wallet.Address) error
	Check(ctx context.Context, id TableID, caller wallet.Address) error
	Call(ctx context.Context, id TableID, caller wallet.Address) error
	// Bet raises by a sealed amount; hint is the plaintext the envelope
	// must open to.
	Bet(ctx context.Context, id TableID, caller wallet.Address, hint uint64, amount fhe.Envelope) error
	// RevealCards submits caller's decrypted hole cards for verification.
	RevealCards(ctx context.Context, id TableID, caller wallet.Address, card1, card2 uint8) error
	LeaveTable(ctx context.Context, id TableID, caller wallet.Address) error
}

// Ledger is the full surface a client needs.
type Ledger interface {
	Reader
	Writer
}
