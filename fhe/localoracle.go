package fhe

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/htvnhe/fhe-poker/wallet"
)

// LocalOracle is an in-process Transport for devnet and tests. It seals
// values with nacl/secretbox under a key derived per (contract, user)
// and keeps the plaintext of every handle it ever minted, so it can
// play both roles of the real system: the encryption service and the
// decryption oracle.
//
// 不提供任何链上安全性,只用于本地联调
type LocalOracle struct {
	secret [32]byte

	mu     sync.Mutex
	values map[Handle]uint64
	// now is swappable so tests can age authorizations.
	now func() time.Time
}

var _ Transport = (*LocalOracle)(nil)

func NewLocalOracle() *LocalOracle {
	o := &LocalOracle{values: make(map[Handle]uint64), now: time.Now}
	if _, err := rand.Read(o.secret[:]); err != nil {
		panic("fhe: oracle secret: " + err.Error())
	}
	return o
}

// Bootstrap 本地实现无需任何准备
func (o *LocalOracle) Bootstrap(ctx context.Context) error { return nil }

func (o *LocalOracle) key(contract, user wallet.Address) [32]byte {
	return wallet.Keccak256(o.secret[:], []byte(contract), []byte(user))
}

func (o *LocalOracle) Seal(ctx context.Context, value uint64, bits int, contract, user wallet.Address) (Envelope, error) {
	if bits < 64 && value >= uint64(1)<<bits {
		return Envelope{}, fmt.Errorf("%w: %d does not fit in %d bits", ErrValueRange, value, bits)
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return Envelope{}, err
	}
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)
	key := o.key(contract, user)
	ct := secretbox.Seal(nonce[:], plain[:], &nonce, &key)

	h := HandleOf(ct)
	o.mu.Lock()
	o.values[h] = value
	o.mu.Unlock()

	proof := wallet.Keccak256(ct, []byte(user))
	return Envelope{Ciphertext: ct, Proof: proof[:]}, nil
}

// Unseal opens an envelope directly. Only the devnet ledger uses this;
// the real ledger computes on ciphertexts it cannot open.
func (o *LocalOracle) Unseal(env Envelope, contract, user wallet.Address) (uint64, error) {
	if len(env.Ciphertext) < 24 {
		return 0, fmt.Errorf("fhe: envelope too short")
	}
	var nonce [24]byte
	copy(nonce[:], env.Ciphertext[:24])
	key := o.key(contract, user)
	plain, ok := secretbox.Open(nil, env.Ciphertext[24:], &nonce, &key)
	if !ok || len(plain) != 8 {
		return 0, fmt.Errorf("fhe: envelope does not open for (%s,%s)", contract, user)
	}
	return binary.BigEndian.Uint64(plain), nil
}

func (o *LocalOracle) Decrypt(ctx context.Context, req DecryptionRequest) (map[Handle]uint64, error) {
	if !req.Auth.ValidAt(o.now()) {
		return nil, ErrAuthExpired
	}
	if !req.Auth.Covers(req.Contract) {
		return nil, fmt.Errorf("%w: contract %s not authorized", ErrBadSignature, req.Contract)
	}
	if !wallet.VerifyDigest(req.Requestor, req.Auth.Digest(), req.Signature) {
		return nil, ErrBadSignature
	}

	out := make(map[Handle]uint64, len(req.Handles))
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, h := range req.Handles {
		v, ok := o.values[h]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
		}
		out[h] = v
	}
	return out, nil
}

// Mint stores a plaintext under a fresh synthetic handle without a
// ciphertext round trip. The devnet ledger uses it for values it
// produces itself, like dealt cards.
func (o *LocalOracle) Mint(value uint64) Handle {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("fhe: mint: " + err.Error())
	}
	h := Handle("0x" + hex.EncodeToString(buf[:]))
	o.mu.Lock()
	o.values[h] = value
	o.mu.Unlock()
	return h
}

// HandleOf derives the handle the ledger assigns to a ciphertext.
func HandleOf(ciphertext []byte) Handle {
	sum := wallet.Keccak256(ciphertext)
	return Handle("0x" + hex.EncodeToString(sum[:]))
}
