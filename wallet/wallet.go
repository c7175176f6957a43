// Package wallet holds the signing identity used for ledger actions and
// decryption authorizations: a secp256k1 key with a keccak-derived address.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Address is a 0x-prefixed lowercase hex encoding of the low 20 bytes of
// keccak256(uncompressed pubkey).
type Address string

const ZeroAddress Address = ""

var ErrNoKey = errors.New("wallet: no private key")

type Wallet struct {
	priv    *secp256k1.PrivateKey
	chainID uint64
}

// Generate creates a fresh wallet bound to the given chain.
func Generate(chainID uint64) (*Wallet, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	return &Wallet{priv: priv, chainID: chainID}, nil
}

// FromHex restores a wallet from a hex-encoded private key.
func FromHex(keyHex string, chainID uint64) (*Wallet, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: decode key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("wallet: key must be 32 bytes, got %d", len(raw))
	}
	return &Wallet{priv: secp256k1.PrivKeyFromBytes(raw), chainID: chainID}, nil
}

func (w *Wallet) ChainID() uint64 { return w.chainID }

func (w *Wallet) Address() Address {
	return PubKeyAddress(w.priv.PubKey())
}

// PublicKey returns the compressed public key bytes.
func (w *Wallet) PublicKey() []byte {
	return w.priv.PubKey().SerializeCompressed()
}

// SignDigest produces a 65-byte compact recoverable signature over a
// 32-byte digest.
func (w *Wallet) SignDigest(digest [32]byte) ([]byte, error) {
	if w == nil || w.priv == nil {
		return nil, ErrNoKey
	}
	return secpecdsa.SignCompact(w.priv, digest[:], true), nil
}

// RecoverAddress recovers the signer address from a compact signature.
func RecoverAddress(digest [32]byte, sig []byte) (Address, error) {
	pub, _, err := secpecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return ZeroAddress, fmt.Errorf("wallet: recover: %w", err)
	}
	return PubKeyAddress(pub), nil
}

// VerifyDigest reports whether sig over digest was produced by addr's key.
func VerifyDigest(addr Address, digest [32]byte, sig []byte) bool {
	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	return recovered == addr
}

func PubKeyAddress(pub *secp256k1.PublicKey) Address {
	raw := pub.SerializeUncompressed()
	sum := Keccak256(raw[1:]) // drop the 0x04 prefix
	return Address("0x" + hex.EncodeToString(sum[12:]))
}

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Valid reports whether a is a well-formed address string.
func (a Address) Valid() bool {
	if len(a) != 42 || !strings.HasPrefix(string(a), "0x") {
		return false
	}
	_, err := hex.DecodeString(string(a[2:]))
	return err == nil
}
