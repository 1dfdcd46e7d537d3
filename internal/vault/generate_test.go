// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	pw := GeneratePassword(DefaultGeneratedLength)
	if len(pw) != DefaultGeneratedLength {
		t.Fatalf("length = %d, want %d", len(pw), DefaultGeneratedLength)
	}
	for _, r := range pw {
		if !strings.ContainsRune(passwordCharset, r) {
			t.Fatalf("generated password contains %q outside the charset", r)
		}
	}

	// Two draws colliding would mean a broken RNG.
	if GeneratePassword(DefaultGeneratedLength) == pw {
		t.Fatalf("consecutive generated passwords must differ")
	}
}
