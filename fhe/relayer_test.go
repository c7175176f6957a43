package fhe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/htvnhe/fhe-poker/wallet"
)

const testChainID = 31337

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.Generate(testChainID)
	if err != nil {
		t.Fatalf("generate wallet: %v", err)
	}
	return w
}

// countingTransport wraps LocalOracle and counts bootstrap/decrypt
// calls; bootstrap can be made to fail a set number of times.
type countingTransport struct {
	*LocalOracle
	bootstraps   atomic.Int32
	decrypts     atomic.Int32
	failBoots    int32
	bootstrapErr error
}

func (c *countingTransport) Bootstrap(ctx context.Context) error {
	n := c.bootstraps.Add(1)
	if n <= c.failBoots {
		if c.bootstrapErr != nil {
			return c.bootstrapErr
		}
		return errors.New("bootstrap refused")
	}
	return c.LocalOracle.Bootstrap(ctx)
}

func (c *countingTransport) Decrypt(ctx context.Context, req DecryptionRequest) (map[Handle]uint64, error) {
	c.decrypts.Add(1)
	return c.LocalOracle.Decrypt(ctx, req)
}

func TestInit_MemoizedAndIdempotent(t *testing.T) {
	tr := &countingTransport{LocalOracle: NewLocalOracle()}
	r := NewRelayer(tr, Config{ChainID: testChainID})
	w := newTestWallet(t)

	for i := 0; i < 5; i++ {
		if err := r.Init(context.Background(), w); err != nil {
			t.Fatalf("init %d: %v", i, err)
		}
	}
	if got := tr.bootstraps.Load(); got != 1 {
		t.Fatalf("bootstrap ran %d times, want 1", got)
	}
	if !r.Ready() {
		t.Fatal("adapter not ready after init")
	}
}

func TestInit_RequiresWalletAndChain(t *testing.T) {
	r := NewRelayer(NewLocalOracle(), Config{ChainID: testChainID})

	if err := r.Init(context.Background(), nil); !errors.Is(err, ErrWalletAbsent) {
		t.Fatalf("nil signer: got %v, want ErrWalletAbsent", err)
	}

	other, err := wallet.Generate(testChainID + 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(context.Background(), other); !errors.Is(err, ErrWrongChain) {
		t.Fatalf("wrong chain: got %v, want ErrWrongChain", err)
	}
	if r.Ready() {
		t.Fatal("adapter became ready despite rejected init")
	}
}

func TestInit_RetriesThenSucceeds(t *testing.T) {
	tr := &countingTransport{LocalOracle: NewLocalOracle(), failBoots: 2}
	r := NewRelayer(tr, Config{ChainID: testChainID})
	if err := r.Init(context.Background(), newTestWallet(t)); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := tr.bootstraps.Load(); got != 3 {
		t.Fatalf("bootstrap ran %d times, want 3", got)
	}
}

func TestInit_ExhaustedAttemptsResets(t *testing.T) {
	tr := &countingTransport{LocalOracle: NewLocalOracle(), failBoots: 99}
	r := NewRelayer(tr, Config{ChainID: testChainID, InitAttempts: 3})
	if err := r.Init(context.Background(), newTestWallet(t)); err == nil {
		t.Fatal("init succeeded with failing transport")
	}
	if r.Ready() {
		t.Fatal("adapter ready after failed init")
	}
	// A later init with a healed transport works.
	tr.failBoots = 0
	tr.bootstraps.Store(0)
	if err := r.Init(context.Background(), newTestWallet(t)); err != nil {
		t.Fatalf("init after heal: %v", err)
	}
}

// hangingTransport blocks Bootstrap until the init ceiling cancels it.
type hangingTransport struct{ *LocalOracle }

func (h *hangingTransport) Bootstrap(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestInit_CeilingTimesOut(t *testing.T) {
	tr := &hangingTransport{NewLocalOracle()}
	r := NewRelayer(tr, Config{ChainID: testChainID, InitCeiling: 20 * time.Millisecond})
	start := time.Now()
	err := r.Init(context.Background(), newTestWallet(t))
	if !errors.Is(err, ErrInitTimeout) {
		t.Fatalf("got %v, want ErrInitTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("init hung for %v despite ceiling", elapsed)
	}
	if r.Ready() {
		t.Fatal("adapter ready after ceiling overrun")
	}
}

func TestSeal_RequiresInit(t *testing.T) {
	r := NewRelayer(NewLocalOracle(), Config{ChainID: testChainID})
	_, err := r.SealAmount(context.Background(), 100, "0xc0", "0xu0")
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
}

func TestDecryption_BatchedAndCached(t *testing.T) {
	oracle := NewLocalOracle()
	tr := &countingTransport{LocalOracle: oracle}
	r := NewRelayer(tr, Config{ChainID: testChainID})
	w := newTestWallet(t)
	if err := r.Init(context.Background(), w); err != nil {
		t.Fatal(err)
	}

	contract := wallet.Address("0x00000000000000000000000000000000000000aa")
	h1 := oracle.Mint(14)
	h2 := oracle.Mint(37)

	got, err := r.RequestDecryption(context.Background(), []Handle{h1, h2}, contract, w)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got[h1] != 14 || got[h2] != 37 {
		t.Fatalf("wrong plaintexts: %v", got)
	}
	if n := tr.decrypts.Load(); n != 1 {
		t.Fatalf("two handles took %d requests, want 1 batch", n)
	}

	// Second request is served entirely from cache.
	got, err = r.RequestDecryption(context.Background(), []Handle{h1, h2}, contract, w)
	if err != nil {
		t.Fatal(err)
	}
	if got[h1] != 14 || got[h2] != 37 {
		t.Fatalf("cache returned wrong plaintexts: %v", got)
	}
	if n := tr.decrypts.Load(); n != 1 {
		t.Fatalf("cached request still hit transport (%d calls)", n)
	}
}

func TestDecryption_ResetDropsCache(t *testing.T) {
	oracle := NewLocalOracle()
	tr := &countingTransport{LocalOracle: oracle}
	r := NewRelayer(tr, Config{ChainID: testChainID})
	w := newTestWallet(t)
	if err := r.Init(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	contract := wallet.Address("0x00000000000000000000000000000000000000aa")
	h := oracle.Mint(7)

	if _, err := r.RequestDecryption(context.Background(), []Handle{h}, contract, w); err != nil {
		t.Fatal(err)
	}
	r.Reset()
	if r.Ready() {
		t.Fatal("ready after reset")
	}
	if _, err := r.RequestDecryption(context.Background(), []Handle{h}, contract, w); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized after reset", err)
	}
	if err := r.Init(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RequestDecryption(context.Background(), []Handle{h}, contract, w); err != nil {
		t.Fatal(err)
	}
	if n := tr.decrypts.Load(); n != 2 {
		t.Fatalf("post-reset request should hit transport again, got %d calls", n)
	}
}

func TestDecryption_UnknownHandle(t *testing.T) {
	r := NewRelayer(NewLocalOracle(), Config{ChainID: testChainID})
	w := newTestWallet(t)
	if err := r.Init(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	_, err := r.RequestDecryption(context.Background(), []Handle{"0xdeadbeef"}, "0xc0", w)
	if !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("got %v, want ErrUnknownHandle", err)
	}
}
