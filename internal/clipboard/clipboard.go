// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package clipboard enforces the exposure policy for decrypted secrets on
// the system clipboard: a secret may sit there for a bounded window, after
// which it is overwritten unconditionally. The system clipboard is a single
// global resource, so this policy is its sole writer; at most one pending
// clear timer exists and a new exposure supersedes the previous one.
package clipboard

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/logging"
)

// DefaultClearAfter is the exposure window for a copied secret.
const DefaultClearAfter = 30 * time.Second

// Copier abstracts the host clipboard so tests can observe writes.
type Copier interface {
	Write(text string) error
}

// SystemCopier writes to the real system clipboard.
type SystemCopier struct{}

func (SystemCopier) Write(text string) error { return clipboard.WriteAll(text) }

// notifier is the slice of the notification channel the policy needs.
type notifier interface {
	Success(msg string)
	Error(msg string)
}

// Policy owns the clipboard exposure window and its single clear timer.
type Policy struct {
	mu       sync.Mutex
	copier   Copier
	delay    time.Duration
	notifier notifier
	timer    *time.Timer
	gen      uint64
}

// New returns a Policy writing through copier and clearing after delay.
func New(copier Copier, delay time.Duration, n notifier) *Policy {
	if delay <= 0 {
		delay = DefaultClearAfter
	}
	return &Policy{copier: copier, delay: delay, notifier: n}
}

// ExposeSecret writes value to the clipboard and arms the auto-clear timer.
// A prior pending clear is cancelled: the fresh window applies to the new
// value only. Write failures are non-fatal; they are surfaced through the
// notification channel and leave any previous exposure untouched.
func (p *Policy) ExposeSecret(value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.copier.Write(value); err != nil {
		if p.notifier != nil {
			p.notifier.Error(i18n.T("notify.clipboard_failed"))
		}
		return err
	}

	p.stopTimerLocked()
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen != gen {
			// A newer exposure owns the clipboard now.
			return
		}
		p.timer = nil
		if err := p.copier.Write(""); err != nil {
			logging.Errorf("clipboard auto-clear failed: %v", err)
		}
	})

	if p.notifier != nil {
		p.notifier.Success(i18n.T("notify.copied"))
	}
	return nil
}

// Cancel stops any pending clear without touching clipboard contents.
func (p *Policy) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.stopTimerLocked()
}

// CancelAndClear stops any pending clear and overwrites the clipboard now.
// Used on logout and forced lock so a secret never outlives its session.
func (p *Policy) CancelAndClear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	had := p.timer != nil
	p.stopTimerLocked()
	if had {
		if err := p.copier.Write(""); err != nil {
			logging.Errorf("clipboard clear on lock failed: %v", err)
		}
	}
}

// PendingClear reports whether a clear timer is currently armed.
func (p *Policy) PendingClear() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *Policy) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
