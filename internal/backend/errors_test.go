// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package backend

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindBackend},
		{"plain backend error", errors.New("disk I/O error"), KindBackend},
		{"sentinel", ErrSessionExpired, KindSessionExpired},
		{"wrapped sentinel", fmt.Errorf("get: %w", ErrSessionExpired), KindSessionExpired},
		{"free-text marker", errors.New("Session expired. Please log in again."), KindSessionExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify("op", tc.err)
			if tc.err == nil {
				if got != nil {
					t.Fatalf("Classify(nil) = %v, want nil", got)
				}
				return
			}
			if KindOf(got) != tc.want {
				t.Errorf("kind = %v, want %v", KindOf(got), tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Errorf("classified error must wrap the original")
			}
		})
	}
}

func TestClassify_IsIdempotent(t *testing.T) {
	inner := NewValidation("add_password", errors.New("missing title"))
	got := Classify("outer_op", inner)
	if got != inner {
		t.Fatalf("re-classification must return the original error")
	}
	if KindOf(got) != KindValidation {
		t.Errorf("kind = %v, want KindValidation", KindOf(got))
	}
}

func TestIsSessionExpired(t *testing.T) {
	if IsSessionExpired(nil) {
		t.Errorf("nil is not expired")
	}
	if IsSessionExpired(errors.New("other")) {
		t.Errorf("unclassified errors are not expired")
	}
	if !IsSessionExpired(Classify("op", ErrSessionExpired)) {
		t.Errorf("classified sentinel must report expired")
	}
}
