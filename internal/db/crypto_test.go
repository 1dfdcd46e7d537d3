// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt failed: %v", err)
	}
	aead, err := newAEAD(deriveKey("masterpass", salt))
	if err != nil {
		t.Fatalf("newAEAD failed: %v", err)
	}

	sealed, err := seal(aead, []byte("plaintext secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	got, err := open(aead, sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(got) != "plaintext secret" {
		t.Errorf("round trip = %q", got)
	}

	// Nonces are random, so sealing twice never repeats ciphertext.
	sealed2, err := seal(aead, []byte("plaintext secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if sealed == sealed2 {
		t.Errorf("sealing must not be deterministic")
	}
}

func TestOpen_RejectsWrongKeyAndTamper(t *testing.T) {
	salt, _ := newSalt()
	aead, err := newAEAD(deriveKey("masterpass", salt))
	if err != nil {
		t.Fatalf("newAEAD failed: %v", err)
	}
	sealed, err := seal(aead, []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}

	other, err := newAEAD(deriveKey("wrongpass", salt))
	if err != nil {
		t.Fatalf("newAEAD failed: %v", err)
	}
	if _, err := open(other, sealed); err == nil {
		t.Errorf("wrong key must not open")
	}

	if _, err := open(aead, "not base64 !!!"); err == nil {
		t.Errorf("garbage input must not open")
	}
}

func TestDeriveKey_IsDeterministicPerSalt(t *testing.T) {
	salt, _ := newSalt()
	a := deriveKey("masterpass", salt)
	b := deriveKey("masterpass", salt)
	if string(a) != string(b) {
		t.Errorf("same password and salt must derive the same key")
	}

	salt2, _ := newSalt()
	c := deriveKey("masterpass", salt2)
	if string(a) == string(c) {
		t.Errorf("different salts must derive different keys")
	}
}
