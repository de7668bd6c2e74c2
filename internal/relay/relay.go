// Package relay owns the process-wide handle to the downstream real-time
// store that gate devices read commands from.  The handle is opened lazily
// on first use and is in exactly one of three states: Unconfigured, Ready or
// FailedInit.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// ErrNoCommand is returned by Last when a gate has no command yet.
var ErrNoCommand = errors.New("relay: no command for gate")

// State describes the downstream handle.
type State int

const (
	Unconfigured State = iota
	Ready
	FailedInit
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case FailedInit:
		return "failed_init"
	}
	return "unconfigured"
}

// Store is an append-only command log plus a per-gate last-command slot.
type Store interface {
	// Append adds cmd to the gate's log and returns the key assigned by the store.
	Append(ctx context.Context, gateID string, cmd model.GateCommand) (string, error)
	// SetLast overwrites the gate's last-command slot with cmd.
	SetLast(ctx context.Context, gateID string, cmd model.GateCommand) error
	// Last reads the gate's last-command slot.
	Last(ctx context.Context, gateID string) (model.GateCommand, error)
	Close() error
}

// Opener connects to a backend.  It is called at most once per Handle.
type Opener func(ctx context.Context) (Store, error)

// initTimeout bounds Opener so a slow backend cannot hold the first request.
const initTimeout = 10 * time.Second

// Handle lazily opens a Store and remembers the outcome.
type Handle struct {
	name string
	open Opener

	once  sync.Once
	mu    sync.Mutex
	store Store
	state State
	err   error
}

// NewHandle returns a handle that opens its store with open on first use.
// A nil open yields a permanently Unconfigured handle.
func NewHandle(name string, open Opener) *Handle {
	return &Handle{name: name, open: open}
}

// Disabled returns an Unconfigured handle.
func Disabled() *Handle {
	return NewHandle("", nil)
}

// Backend names the configured backend, empty when unconfigured.
func (h *Handle) Backend() string { return h.name }

// Acquire opens the store on first call and returns it with the handle
// state.  The error is the initialisation failure when the state is
// FailedInit.  The store is nil unless the state is Ready.
func (h *Handle) Acquire(ctx context.Context) (Store, State, error) {
	h.once.Do(func() {
		if h.open == nil {
			h.setState(nil, Unconfigured, nil)
			return
		}
		// Initialisation outlives the request that triggered it.
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), initTimeout)
		defer cancel()
		s, err := h.open(initCtx)
		if err != nil {
			h.setState(nil, FailedInit, err)
			return
		}
		h.setState(s, Ready, nil)
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store, h.state, h.err
}

func (h *Handle) setState(s Store, st State, err error) {
	h.mu.Lock()
	h.store, h.state, h.err = s, st, err
	h.mu.Unlock()
}

// Close tears down an open store.  Later Acquire calls report Unconfigured.
func (h *Handle) Close() error {
	h.once.Do(func() {})
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.store
	h.store, h.state, h.err = nil, Unconfigured, nil
	if s == nil {
		return nil
	}
	return s.Close()
}
