package fhe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/htvnhe/fhe-poker/wallet"
)

// DefaultValidityDays 解密授权默认有效期
const DefaultValidityDays = 10

// Signer is the slice of the wallet the adapter needs: an on-chain
// identity that can sign authorization digests.
type Signer interface {
	Address() wallet.Address
	ChainID() uint64
	SignDigest(digest [32]byte) ([]byte, error)
}

// Sealer encrypts plaintext integers against a (contract, user) pair so
// the ledger can verify the envelope was produced for that pairing.
type Sealer interface {
	// SealAmount 加密 64 位筹码数额
	SealAmount(ctx context.Context, value uint64, contract, user wallet.Address) (Envelope, error)
	// SealCard 加密单张牌的 8 位编码
	SealCard(ctx context.Context, value uint8, contract, user wallet.Address) (Envelope, error)
}

// Decryptor resolves ciphertext handles to plaintexts. Implementations
// batch all handles of one call into a single signed request.
type Decryptor interface {
	RequestDecryption(ctx context.Context, handles []Handle, contract wallet.Address, signer Signer) (map[Handle]uint64, error)
}

// Authorization is the time-boxed grant a user signs to let the
// decryption backend open handles held by the listed contracts. The
// signed digest binds an ephemeral request keypair so the grant cannot
// be replayed under a different session.
type Authorization struct {
	PublicKey    []byte           `json:"publicKey"`
	Contracts    []wallet.Address `json:"contracts"`
	IssuedAt     time.Time        `json:"issuedAt"`
	ValidityDays int              `json:"validityDays"`
}

// Digest keccak 哈希授权的规范 JSON 编码
func (a Authorization) Digest() [32]byte {
	// Field order is fixed by the struct, so encoding/json is canonical here.
	raw, err := json.Marshal(a)
	if err != nil {
		// 只含可编码类型，不可能失败
		panic("fhe: authorization marshal: " + err.Error())
	}
	return wallet.Keccak256(raw)
}

// ValidAt reports whether the grant window covers t.
func (a Authorization) ValidAt(t time.Time) bool {
	if t.Before(a.IssuedAt) {
		return false
	}
	days := a.ValidityDays
	if days <= 0 {
		days = DefaultValidityDays
	}
	return t.Before(a.IssuedAt.Add(time.Duration(days) * 24 * time.Hour))
}

// Covers reports whether contract is among the authorized contracts.
func (a Authorization) Covers(contract wallet.Address) bool {
	for _, c := range a.Contracts {
		if c == contract {
			return true
		}
	}
	return false
}

// DecryptionRequest is one batched, signed decryption call as handed to
// the transport.
type DecryptionRequest struct {
	Handles   []Handle
	Contract  wallet.Address
	Requestor wallet.Address
	Auth      Authorization
	Signature []byte
}

// Transport is the concrete encryption backend: a relayer SDK in
// production, LocalOracle in tests and devnet.
type Transport interface {
	// Bootstrap performs the one-time runtime setup (key material,
	// network handshake). Called under the adapter's init ceiling.
	Bootstrap(ctx context.Context) error
	// Seal encrypts value at the given bit width for (contract, user).
	Seal(ctx context.Context, value uint64, bits int, contract, user wallet.Address) (Envelope, error)
	// Decrypt resolves the request's handles after verifying its
	// authorization.
	Decrypt(ctx context.Context, req DecryptionRequest) (map[Handle]uint64, error)
}
