// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package session owns the authentication lifecycle of the vault: first-run
// setup, unlock, logout and expiry detection. The controller is the single
// choke point between the UI and the secure backend; no cache or clipboard
// operation runs while the state is not Unlocked. State changes are observed
// through a subscription rather than ambient globals.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/logging"
)

// State is the authentication state of the vault. Exactly one is active at
// a time and transitions happen only through Controller operations.
type State int

const (
	// StateUninitialized means no master credential has ever been set.
	StateUninitialized State = iota
	// StateLocked means a credential exists but the session is not verified.
	StateLocked
	// StateUnlocked means the session is verified and data access is allowed.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// DefaultLivenessInterval is how often an unlocked session is revalidated
// against the backend.
const DefaultLivenessInterval = 5 * time.Minute

// Refresher is the slice of the credential cache the controller drives:
// a full reload after unlocking, and a purge on lockdown.
type Refresher interface {
	Refresh(ctx context.Context) error
	Purge()
}

// notifier is the slice of the notification channel the controller needs.
type notifier interface {
	Success(msg string)
	Error(msg string)
}

// clipboardGuard is the teardown hook for a pending clipboard exposure.
type clipboardGuard interface {
	CancelAndClear()
}

// Controller is the authentication state machine.
type Controller struct {
	gw       backend.Gateway
	notifier notifier

	mu       sync.Mutex
	state    State
	stopPoll chan struct{}

	refresher Refresher
	clip      clipboardGuard
	interval  time.Duration

	subMu sync.Mutex
	subs  []chan State
}

// Option configures a Controller.
type Option func(*Controller)

// WithLivenessInterval overrides the revalidation interval. Zero disables
// the poll entirely; tests use short intervals.
func WithLivenessInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithClipboardGuard wires the clipboard policy teardown into lockdown.
func WithClipboardGuard(g clipboardGuard) Option {
	return func(c *Controller) { c.clip = g }
}

// New creates a Controller over gw. The initial state is Locked until
// CheckStatus has spoken to the backend.
func New(gw backend.Gateway, n notifier, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		notifier: n,
		state:    StateLocked,
		interval: DefaultLivenessInterval,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetRefresher wires the credential cache. Must be called before the first
// operation; split from New because cache and controller reference each other.
func (c *Controller) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

// State returns the current authentication state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel receiving every state transition. Slow
// subscribers drop updates rather than block the controller.
func (c *Controller) Subscribe() <-chan State {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	ch := make(chan State, 8)
	c.subs = append(c.subs, ch)
	return ch
}

// CheckStatus queries the backend for the authentication status and aligns
// local state with it. On failure the state is left untouched (fail-safe:
// stay locked) and a generic error is surfaced. If the backend reports an
// authenticated session the cache is refreshed before returning.
func (c *Controller) CheckStatus(ctx context.Context) error {
	status, err := c.gw.CheckAuthStatus(ctx)
	if err != nil {
		c.notifier.Error(i18n.T("notify.status_check_failed"))
		return backend.Classify("check_auth_status", err)
	}

	c.mu.Lock()
	wasUnlocked := c.state == StateUnlocked
	c.mu.Unlock()

	if wasUnlocked && !status.IsAuthenticated {
		// The backend invalidated a session we believed in: uniform expiry
		// handling, same as a "Session expired" error from any operation.
		c.lockdown(true)
		return nil
	}

	var next State
	switch {
	case status.IsAuthenticated:
		next = StateUnlocked
	case status.NeedsSetup:
		next = StateUninitialized
	default:
		next = StateLocked
	}
	c.transition(next)
	// Refresh only on the transition into Unlocked. A steady-state liveness
	// probe must stay passive: the refresh is a session-scoped backend call
	// and would count as activity, keeping an idle session alive forever.
	if next == StateUnlocked && !wasUnlocked {
		return c.refresh(ctx)
	}
	return nil
}

// Setup establishes the master credential on first run. Candidate and
// confirmation are validated locally; violations never reach the backend.
func (c *Controller) Setup(ctx context.Context, candidate, confirmation string) error {
	if candidate != confirmation {
		c.notifier.Error(i18n.T("setup.mismatch"))
		return backend.NewValidation("setup_master_password", errMismatch)
	}
	if len(candidate) < 8 {
		c.notifier.Error(i18n.T("setup.too_short"))
		return backend.NewValidation("setup_master_password", errTooShort)
	}

	if err := c.gw.SetupMasterPassword(ctx, candidate); err != nil {
		err = backend.Classify("setup_master_password", err)
		c.notifier.Error(i18n.T("setup.failed", err))
		return err
	}

	c.transition(StateUnlocked)
	c.notifier.Success(i18n.T("setup.success"))
	return c.refresh(ctx)
}

// Unlock verifies the candidate master credential. A false verification
// result (wrong credential) is a handled outcome, not an error: the state
// stays Locked and the user is told. Only a failing backend call returns an
// error.
func (c *Controller) Unlock(ctx context.Context, candidate string) error {
	if candidate == "" {
		c.notifier.Error(i18n.T("unlock.empty"))
		return backend.NewValidation("authenticate", errEmptyCandidate)
	}

	ok, err := c.gw.Authenticate(ctx, candidate)
	if err != nil {
		err = backend.Classify("authenticate", err)
		c.notifier.Error(i18n.T("unlock.failed", err))
		return err
	}
	if !ok {
		c.notifier.Error(i18n.T("unlock.incorrect"))
		return nil
	}

	c.transition(StateUnlocked)
	c.notifier.Success(i18n.T("unlock.welcome"))
	return c.refresh(ctx)
}

// Logout ends the session. The backend call is advisory: whatever its
// outcome, local policy locks the vault, purges the cache and clears any
// clipboard exposure. Logout must be unconditionally safe.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.gw.Logout(ctx); err != nil {
		logging.Debugf("backend logout failed (ignored): %v", err)
	}
	c.lockdown(false)
	c.notifier.Success(i18n.T("logout.success"))
	return nil
}

// ForceLock is the uniform reaction to backend-declared session expiry,
// regardless of which operation detected it. The cache is purged, the
// clipboard cleared, and the user is told to re-authenticate.
func (c *Controller) ForceLock() {
	c.lockdown(true)
}

// lockdown transitions to Locked and tears down session-scoped resources.
func (c *Controller) lockdown(expired bool) {
	c.transition(StateLocked)
	c.mu.Lock()
	r := c.refresher
	clip := c.clip
	c.mu.Unlock()
	if r != nil {
		r.Purge()
	}
	if clip != nil {
		clip.CancelAndClear()
	}
	if expired {
		c.notifier.Error(i18n.T("notify.session_expired"))
	}
}

// transition applies a state change and manages the liveness poll.
func (c *Controller) transition(next State) {
	c.mu.Lock()
	changed := c.setStateLocked(next)
	c.mu.Unlock()
	if changed {
		c.publish(next)
	}
}

// setStateLocked mutates the state and starts/stops the liveness poll.
// The poll runs only while Unlocked and stops the moment the state leaves it.
func (c *Controller) setStateLocked(next State) bool {
	if c.state == next {
		return false
	}
	prev := c.state
	c.state = next

	if next == StateUnlocked && c.interval > 0 && c.stopPoll == nil {
		stop := make(chan struct{})
		c.stopPoll = stop
		go c.pollLiveness(stop)
	}
	if prev == StateUnlocked && c.stopPoll != nil {
		close(c.stopPoll)
		c.stopPoll = nil
	}
	return true
}

// pollLiveness revalidates the session on a fixed interval while Unlocked.
func (c *Controller) pollLiveness(stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.CheckStatus(context.Background()); err != nil {
				logging.Debugf("session liveness check failed: %v", err)
			}
		}
	}
}

func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	r := c.refresher
	c.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Refresh(ctx)
}

func (c *Controller) publish(s State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
