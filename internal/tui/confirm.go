// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

// confirmRequest carries a destructive-action prompt into the running
// program. The requesting goroutine blocks on reply until the user answers
// the modal.
type confirmRequest struct {
	message string
	reply   chan bool
}

// programConfirmer satisfies vault.Confirmer by routing prompts through the
// Bubble Tea message loop. ConfirmDestructive is called from inside a
// tea.Cmd goroutine, never from Update, so blocking here is safe.
type programConfirmer struct {
	send func(msg any)
}

func (c *programConfirmer) ConfirmDestructive(message string) bool {
	if c.send == nil {
		return false
	}
	req := confirmRequest{message: message, reply: make(chan bool, 1)}
	c.send(confirmRequestMsg{req: req})
	return <-req.reply
}
