// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for deriving the vault key from the master password.
// Chosen per the argon2 package recommendations for interactive login.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
	kdfKeyLen  = 32
	saltLen    = 16
)

// verifierPlaintext is the known value sealed under the derived key at setup
// time. Master verification succeeds iff the stored verifier opens with the
// candidate's derived key.
var verifierPlaintext = []byte("vaultik-master-verifier-v1")

var errCiphertextTooShort = errors.New("ciphertext too short")

// deriveKey stretches the master password into an AES-256 key.
func deriveKey(master string, salt []byte) []byte {
	return argon2.IDKey([]byte(master), salt, kdfTime, kdfMemory, kdfThreads, kdfKeyLen)
}

// newAEAD builds the AES-GCM cipher for a derived key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return aead, nil
}

// seal encrypts plaintext and encodes nonce||ciphertext as base64, the
// on-disk format for both the verifier and per-record secrets.
func seal(aead cipher.AEAD, plaintext []byte) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// open decodes and decrypts a seal() value.
func open(aead cipher.AEAD, encoded string) ([]byte, error) {
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(combined) < aead.NonceSize() {
		return nil, errCiphertextTooShort
	}
	nonce, ciphertext := combined[:aead.NonceSize()], combined[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// newSalt returns a fresh KDF salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

func encodeSalt(salt []byte) string {
	return base64.StdEncoding.EncodeToString(salt)
}

func decodeSalt(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// newToken returns a fresh session token.
func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
