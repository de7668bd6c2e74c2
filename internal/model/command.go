package model

// Action is a gate instruction.
type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// Valid reports whether a is a known gate action.
func (a Action) Valid() bool {
	return a == ActionOpen || a == ActionClose
}

// GateCommand is the canonical record relayed to gate devices.  It is built
// once per request and never mutated afterwards; Key is filled from the
// downstream store when the command has been appended.
type GateCommand struct {
	GateID string `json:"gateId"`
	Action Action `json:"action"`
	By     string `json:"by"`
	Role   Role   `json:"role"`
	Note   string `json:"note"`
	TS     int64  `json:"ts"` // unix milliseconds
	Key    string `json:"key,omitempty"`
}

// WithKey returns a copy of c carrying the downstream key.
func (c GateCommand) WithKey(key string) GateCommand {
	c.Key = key
	return c
}
