package fhe

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/htvnhe/fhe-poker/wallet"
)

const (
	defaultInitCeiling    = 30 * time.Second
	defaultInitAttempts   = 3
	defaultRequestTimeout = 15 * time.Second
	defaultCacheSize      = 256
)

// Config tunes the adapter lifecycle. Zero values take the defaults
// above.
type Config struct {
	// ChainID the wallet must be connected to before init may proceed.
	ChainID uint64
	// InitCeiling bounds one full init cycle, retries included.
	InitCeiling time.Duration
	// InitAttempts bounds bootstrap retries within the ceiling.
	InitAttempts int
	// RequestTimeout bounds a single decryption round trip.
	RequestTimeout time.Duration
	// ValidityDays for issued decryption authorizations.
	ValidityDays int
	// CacheSize caps the decrypted-plaintext cache.
	CacheSize int
}

func (c *Config) fill() {
	if c.InitCeiling <= 0 {
		c.InitCeiling = defaultInitCeiling
	}
	if c.InitAttempts <= 0 {
		c.InitAttempts = defaultInitAttempts
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.ValidityDays <= 0 {
		c.ValidityDays = DefaultValidityDays
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
}

// Relayer wraps a Transport with the lifecycle the UI depends on:
// idempotent memoized init, a hard ceiling on how long init may take,
// and a cache so repeated reveals of the same handle never hit the
// network twice.
//
// Relayer 实现 Sealer 和 Decryptor
type Relayer struct {
	cfg       Config
	transport Transport

	mu    sync.Mutex
	ready bool
	cache *lru.Cache[Handle, uint64]
}

var _ Sealer = (*Relayer)(nil)
var _ Decryptor = (*Relayer)(nil)

func NewRelayer(transport Transport, cfg Config) *Relayer {
	cfg.fill()
	cache, err := lru.New[Handle, uint64](cfg.CacheSize)
	if err != nil {
		// 只会因为 size<=0 失败,fill 已兜底
		panic("fhe: lru: " + err.Error())
	}
	return &Relayer{cfg: cfg, transport: transport, cache: cache}
}

// Init bootstraps the transport. It is memoized: once a bootstrap has
// succeeded, further calls return nil without touching the transport.
// Concurrent callers serialize; only one bootstrap runs. On ceiling
// overrun the adapter resets to uninitialized so a later call can try
// again cleanly.
func (r *Relayer) Init(ctx context.Context, signer Signer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if signer == nil || !signer.Address().Valid() {
		return ErrWalletAbsent
	}
	if signer.ChainID() != r.cfg.ChainID {
		return fmt.Errorf("%w: have %d want %d", ErrWrongChain, signer.ChainID(), r.cfg.ChainID)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.InitCeiling)
	defer cancel()

	var last error
	for attempt := 1; attempt <= r.cfg.InitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			r.ready = false
			return fmt.Errorf("%w after %d attempts: %v", ErrInitTimeout, attempt-1, last)
		}
		if err := r.transport.Bootstrap(ctx); err != nil {
			last = err
			log.Printf("[FHE] bootstrap attempt %d/%d: %v", attempt, r.cfg.InitAttempts, err)
			continue
		}
		r.ready = true
		return nil
	}
	r.ready = false
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInitTimeout, last)
	}
	return fmt.Errorf("fhe: bootstrap failed after %d attempts: %w", r.cfg.InitAttempts, last)
}

// Ready reports whether Init has completed.
func (r *Relayer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Reset drops the initialized state and the plaintext cache. The next
// Init runs a fresh bootstrap.
func (r *Relayer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
	r.cache.Purge()
}

// Dispose is Reset for shutdown paths; the adapter may be Init'd again
// afterwards.
func (r *Relayer) Dispose() { r.Reset() }

func (r *Relayer) SealAmount(ctx context.Context, value uint64, contract, user wallet.Address) (Envelope, error) {
	if !r.Ready() {
		return Envelope{}, ErrNotInitialized
	}
	return r.transport.Seal(ctx, value, 64, contract, user)
}

func (r *Relayer) SealCard(ctx context.Context, value uint8, contract, user wallet.Address) (Envelope, error) {
	if !r.Ready() {
		return Envelope{}, ErrNotInitialized
	}
	return r.transport.Seal(ctx, uint64(value), 8, contract, user)
}

// RequestDecryption resolves handles, serving cached plaintexts where
// possible and batching the rest into one signed request. A fresh
// ephemeral keypair is generated per request and bound into the signed
// authorization.
func (r *Relayer) RequestDecryption(ctx context.Context, handles []Handle, contract wallet.Address, signer Signer) (map[Handle]uint64, error) {
	if !r.Ready() {
		return nil, ErrNotInitialized
	}
	if signer == nil {
		return nil, ErrWalletAbsent
	}

	out := make(map[Handle]uint64, len(handles))
	var missing []Handle
	r.mu.Lock()
	for _, h := range handles {
		if v, ok := r.cache.Get(h); ok {
			out[h] = v
		} else {
			missing = append(missing, h)
		}
	}
	r.mu.Unlock()
	if len(missing) == 0 {
		return out, nil
	}

	eph, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("fhe: ephemeral key: %w", err)
	}
	auth := Authorization{
		PublicKey:    eph.PubKey().SerializeCompressed(),
		Contracts:    []wallet.Address{contract},
		IssuedAt:     time.Now().UTC(),
		ValidityDays: r.cfg.ValidityDays,
	}
	sig, err := signer.SignDigest(auth.Digest())
	if err != nil {
		return nil, fmt.Errorf("fhe: sign authorization: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	got, err := r.transport.Decrypt(ctx, DecryptionRequest{
		Handles:   missing,
		Contract:  contract,
		Requestor: signer.Address(),
		Auth:      auth,
		Signature: sig,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for h, v := range got {
		r.cache.Add(h, v)
		out[h] = v
	}
	r.mu.Unlock()
	return out, nil
}
