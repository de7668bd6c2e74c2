// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// CommandDispatchedQueue carries one message per relayed gate command.
const CommandDispatchedQueue = "gate.command.dispatched"

// CommandDispatchedEvent is published after a command reached the relay.  It
// carries enough for audit consumers to log the command without reading the
// downstream store.
type CommandDispatchedEvent struct {
	Key         string `json:"key"`
	GateID      string `json:"gate_id"`
	Action      string `json:"action"`
	By          string `json:"by"`
	Role        string `json:"role"`
	Note        string `json:"note,omitempty"`
	IssuedAtMs  int64  `json:"issued_at_ms"`
	PublishedAt string `json:"published_at"`
}

// NewCommandDispatchedEvent converts a relayed command.
func NewCommandDispatchedEvent(cmd model.GateCommand, at time.Time) CommandDispatchedEvent {
	return CommandDispatchedEvent{
		Key:         cmd.Key,
		GateID:      cmd.GateID,
		Action:      string(cmd.Action),
		By:          cmd.By,
		Role:        string(cmd.Role),
		Note:        cmd.Note,
		IssuedAtMs:  cmd.TS,
		PublishedAt: at.UTC().Format(time.RFC3339),
	}
}
