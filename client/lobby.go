package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/ledger"
	"github.com/htvnhe/fhe-poker/wallet"
)

// LobbyClient maintains the table listing and handles create/join/enter
// flows. The listing refreshes on a slower cadence than in-game state.
type LobbyClient struct {
	ldg      ledger.Ledger
	sealer   fhe.Sealer
	dec      fhe.Decryptor
	signer   fhe.Signer
	contract wallet.Address

	pollEvery time.Duration
	gameOpts  Options

	mu     sync.Mutex
	tables []ledger.TableInfo
}

func NewLobbyClient(ldg ledger.Ledger, sealer fhe.Sealer, dec fhe.Decryptor, signer fhe.Signer, contract wallet.Address, opts Options) *LobbyClient {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultLobbyPoll
	}
	return &LobbyClient{
		ldg:       ldg,
		sealer:    sealer,
		dec:       dec,
		signer:    signer,
		contract:  contract,
		pollEvery: interval,
		gameOpts:  Options{RepollDelay: opts.RepollDelay},
	}
}

// Run refreshes the listing until ctx is done.
func (l *LobbyClient) Run(ctx context.Context) {
	t := time.NewTicker(l.pollEvery)
	defer t.Stop()
	l.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Refresh(ctx)
		}
	}
}

// Refresh re-reads the table listing. Per-table failures are skipped so
// one broken read does not blank the whole lobby.
func (l *LobbyClient) Refresh(ctx context.Context) {
	count, err := l.ldg.TableCount(ctx)
	if err != nil {
		log.Printf("[Lobby] table count: %v", err)
		return
	}
	tables := make([]ledger.TableInfo, 0, count)
	for id := ledger.TableID(1); int(id) <= count; id++ {
		info, err := l.ldg.TableInfo(ctx, id)
		if err != nil {
			log.Printf("[Lobby] table %d: %v", id, err)
			continue
		}
		tables = append(tables, info)
	}
	l.mu.Lock()
	l.tables = tables
	l.mu.Unlock()
}

// Tables returns the last refreshed listing.
func (l *LobbyClient) Tables() []ledger.TableInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.TableInfo{}, l.tables...)
}

func (l *LobbyClient) CreateTable(ctx context.Context, smallBlind, bigBlind uint64) (ledger.TableID, error) {
	return l.ldg.CreateTable(ctx, l.signer.Address(), smallBlind, bigBlind)
}

// Join seals the buy-in and seats the wallet at the table.
func (l *LobbyClient) Join(ctx context.Context, id ledger.TableID, buyIn uint64) error {
	env, err := l.sealer.SealAmount(ctx, buyIn, l.contract, l.signer.Address())
	if err != nil {
		return fmt.Errorf("seal buy-in: %w", err)
	}
	return l.ldg.JoinTable(ctx, id, l.signer.Address(), env)
}

// Enter hands out a GameClient for id after verifying the wallet really
// is seated there. A wallet found seated at a different table blocks
// entry instead of guessing.
func (l *LobbyClient) Enter(ctx context.Context, id ledger.TableID) (*GameClient, error) {
	seatedAt, seated, err := l.ldg.PlayerTable(ctx, l.signer.Address())
	if err != nil {
		return nil, err
	}
	if !seated {
		return nil, ErrNotSeated
	}
	if seatedAt != id {
		return nil, fmt.Errorf("%w: seated at table %d, entering %d", ErrSeatMismatch, seatedAt, id)
	}
	return NewGameClient(l.ldg, l.sealer, l.dec, l.signer, l.contract, id, l.gameOpts), nil
}
