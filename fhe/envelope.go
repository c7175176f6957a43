// Package fhe is the client-side surface of the encrypted-value backend:
// sealing plaintext integers into ciphertext envelopes and requesting
// authorized decryptions of ciphertext handles. The cryptography itself
// lives behind the Transport; nothing here inspects ciphertexts.
package fhe

import "errors"

// Handle is an opaque reference to a ciphertext stored by the external
// ledger. It is only ever dereferenced through an authorized decryption
// request.
type Handle string

// Envelope is a sealed value: ciphertext plus correctness proof. It is
// produced by the encryption adapter and consumed only by the ledger.
type Envelope struct {
	Ciphertext []byte
	Proof      []byte
}

func (e Envelope) Empty() bool {
	return len(e.Ciphertext) == 0
}

var (
	ErrNotInitialized = errors.New("fhe: adapter not initialized")
	ErrWalletAbsent   = errors.New("fhe: no wallet available")
	ErrWrongChain     = errors.New("fhe: wallet on unexpected chain")
	ErrInitTimeout    = errors.New("fhe: adapter initialization timed out")
	ErrAuthExpired    = errors.New("fhe: decryption authorization expired")
	ErrBadSignature   = errors.New("fhe: authorization signature invalid")
	ErrUnknownHandle  = errors.New("fhe: unknown ciphertext handle")
	ErrValueRange     = errors.New("fhe: value out of range for requested width")
)
