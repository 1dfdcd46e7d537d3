// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package notify implements the transient status signal shown to the user.
// Exactly one notification is visible at a time; emitting a new one
// supersedes the previous, and each expires on its own deadline (errors
// dwell longer than successes so failures are not missed). Business logic
// emits here uniformly and never touches the UI directly.
package notify

import (
	"sync"
	"time"
)

// Kind is the severity of a notification.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

// Notification is one user-facing status message. The zero value means
// "nothing visible" and is what subscribers receive when a message expires.
type Notification struct {
	Message string
	Kind    Kind
}

// Visible reports whether the notification carries a message.
func (n Notification) Visible() bool { return n.Message != "" }

const (
	defaultSuccessTTL = 3 * time.Second
	defaultErrorTTL   = 5 * time.Second
)

// Center owns the single visible notification and its expiry timer.
// Last writer wins: emitting cancels the pending expiry of the previous
// message and starts a fresh one.
type Center struct {
	mu         sync.Mutex
	current    Notification
	timer      *time.Timer
	gen        uint64 // guards against a stale timer clearing a newer message
	successTTL time.Duration
	errorTTL   time.Duration
	subs       []chan Notification
}

// New returns a Center with the default dwell times (3s success, 5s error).
func New() *Center {
	return &Center{successTTL: defaultSuccessTTL, errorTTL: defaultErrorTTL}
}

// NewWithTTL returns a Center with explicit dwell times; used by tests.
func NewWithTTL(success, failure time.Duration) *Center {
	return &Center{successTTL: success, errorTTL: failure}
}

// Success emits a success notification, superseding any visible one.
func (c *Center) Success(msg string) { c.emit(Notification{Message: msg, Kind: KindSuccess}) }

// Error emits an error notification, superseding any visible one.
func (c *Center) Error(msg string) { c.emit(Notification{Message: msg, Kind: KindError}) }

// Current returns the currently visible notification, if any.
func (c *Center) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.current.Visible()
}

// Subscribe returns a channel that receives every visible notification and a
// zero Notification when one expires or is dismissed. Slow subscribers drop
// updates rather than block emitters.
func (c *Center) Subscribe() <-chan Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Notification, 8)
	c.subs = append(c.subs, ch)
	return ch
}

// Dismiss clears the visible notification immediately.
func (c *Center) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Center) emit(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	gen := c.gen
	c.current = n
	c.publishLocked(n)

	ttl := c.successTTL
	if n.Kind == KindError {
		ttl = c.errorTTL
	}
	c.timer = time.AfterFunc(ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			// Superseded while the timer was in flight.
			return
		}
		c.clearLocked()
	})
}

func (c *Center) clearLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.current = Notification{}
	c.publishLocked(Notification{})
}

func (c *Center) publishLocked(n Notification) {
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
