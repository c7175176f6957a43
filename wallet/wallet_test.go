package wallet

import (
	"strings"
	"testing"
)

func TestGenerateAndAddress(t *testing.T) {
	w, err := Generate(31337)
	if err != nil {
		t.Fatal(err)
	}
	addr := w.Address()
	if !addr.Valid() {
		t.Fatalf("invalid address: %q", addr)
	}
	if w.ChainID() != 31337 {
		t.Fatalf("chain id = %d", w.ChainID())
	}
	// address is stable across calls
	if addr != w.Address() {
		t.Fatal("address not stable")
	}
}

func TestFromHex_RoundTrip(t *testing.T) {
	const keyHex = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	a, err := FromHex(keyHex, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromHex(strings.TrimPrefix(keyHex, "0x"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if a.Address() != b.Address() {
		t.Fatal("prefix handling changed derived address")
	}

	if _, err := FromHex("zz", 1); err == nil {
		t.Fatal("expected error for bad hex")
	}
	if _, err := FromHex("abcd", 1); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestSignVerifyRecover(t *testing.T) {
	w, err := Generate(1)
	if err != nil {
		t.Fatal(err)
	}
	digest := Keccak256([]byte("authorize decryption"))

	sig, err := w.SignDigest(digest)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyDigest(w.Address(), digest, sig) {
		t.Fatal("signature did not verify")
	}

	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		t.Fatal(err)
	}
	if recovered != w.Address() {
		t.Fatalf("recovered %s, want %s", recovered, w.Address())
	}

	// tampered digest must not verify
	other := Keccak256([]byte("something else"))
	if VerifyDigest(w.Address(), other, sig) {
		t.Fatal("signature verified against wrong digest")
	}

	// another wallet's address must not verify
	w2, _ := Generate(1)
	if VerifyDigest(w2.Address(), digest, sig) {
		t.Fatal("signature verified against wrong address")
	}
}

func TestKeccak256_Concatenation(t *testing.T) {
	a := Keccak256([]byte("ab"), []byte("cd"))
	b := Keccak256([]byte("abcd"))
	if a != b {
		t.Fatal("keccak over split input differs from joined input")
	}
	if a == Keccak256([]byte("abce")) {
		t.Fatal("distinct inputs collided")
	}
}
