// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"crypto/rand"
	"math/big"
)

// passwordCharset is the alphabet for generated passwords.
const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

// DefaultGeneratedLength is the length of a generated password.
const DefaultGeneratedLength = 16

// GeneratePassword returns a random password of n characters drawn from the
// charset with crypto/rand. n <= 0 uses the default length.
func GeneratePassword(n int) string {
	if n <= 0 {
		n = DefaultGeneratedLength
	}
	max := big.NewInt(int64(len(passwordCharset)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform RNG is broken;
			// there is no sensible fallback for a password generator.
			panic(err)
		}
		out[i] = passwordCharset[idx.Int64()]
	}
	return string(out)
}
