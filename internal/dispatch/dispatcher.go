// Package dispatch validates gate commands, binds them to the authenticated
// actor and relays them to the downstream store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/relay"
)

// Warnings returned in degraded mode.
const (
	WarningUnconfigured = "Relay not configured, command not pushed"
	WarningInitFailed   = "Relay unavailable, command not pushed"
)

// ErrDownstreamFailure means the relay was ready but a write failed or timed out.
var ErrDownstreamFailure = errors.New("downstream write failed")

// BadRequestError is a client input error.  Message is safe to return.
type BadRequestError struct{ Message string }

func (e *BadRequestError) Error() string { return e.Message }

func badRequest(msg string) error { return &BadRequestError{Message: msg} }

// Request is the client-supplied part of a command.
type Request struct {
	GateID string
	Action string
	Note   string
}

// Result is returned to the caller for every accepted command.
type Result struct {
	OK      bool              `json:"ok"`
	Warning string            `json:"warning,omitempty"`
	Command model.GateCommand `json:"command"`
	Key     string            `json:"key,omitempty"`
}

// Publisher announces relayed commands to other services.
type Publisher interface {
	PublishDispatched(ctx context.Context, cmd model.GateCommand) error
}

// Dispatcher is safe for concurrent use.  Commands for the same gate are not
// serialised: the last-command slot reflects some recent command under
// concurrent dispatch, not necessarily the newest.
type Dispatcher struct {
	relay     *relay.Handle
	publisher Publisher
	timeout   time.Duration
	clock     *Clock
	log       *zap.Logger
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher sets the event publisher used after a successful relay.
func WithPublisher(p Publisher) Option { return func(d *Dispatcher) { d.publisher = p } }

// WithTimeout bounds each downstream write.
func WithTimeout(t time.Duration) Option { return func(d *Dispatcher) { d.timeout = t } }

// WithClock replaces the timestamp source.
func WithClock(c *Clock) Option { return func(d *Dispatcher) { d.clock = c } }

func New(h *relay.Handle, log *zap.Logger, opts ...Option) *Dispatcher {
	if h == nil {
		h = relay.Disabled()
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{relay: h, timeout: 3 * time.Second, clock: NewClock(time.Now), log: log}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Validate checks req in the documented order: presence first, then the action.
func Validate(req Request) error {
	if strings.TrimSpace(req.GateID) == "" || req.Action == "" {
		return badRequest("Missing gate id or action")
	}
	if !model.Action(req.Action).Valid() {
		return badRequest("Invalid action")
	}
	return nil
}

// Dispatch validates req, builds the command for actor and relays it.  The
// returned error is a *BadRequestError or wraps ErrDownstreamFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, actor model.User) (Result, error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}
	cmd := model.GateCommand{
		GateID: req.GateID,
		Action: model.Action(req.Action),
		By:     actor.Actor(),
		Role:   actor.Role,
		Note:   req.Note,
		TS:     d.clock.NextMillis(),
	}
	log := d.log.With(zap.String("gate_id", cmd.GateID), zap.String("action", string(cmd.Action)), zap.String("by", cmd.By))

	store, state, initErr := d.relay.Acquire(ctx)
	switch state {
	case relay.Unconfigured:
		log.Warn("relay not configured, command not pushed")
		return Result{OK: true, Warning: WarningUnconfigured, Command: cmd}, nil
	case relay.FailedInit:
		log.Error("relay init failed, command not pushed", zap.Error(initErr))
		return Result{OK: true, Warning: WarningInitFailed, Command: cmd}, nil
	}

	key, err := d.append(ctx, store, cmd)
	if err != nil {
		log.Error("relay append failed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: append: %v", ErrDownstreamFailure, err)
	}
	cmd = cmd.WithKey(key)
	if err := d.setLast(ctx, store, cmd); err != nil {
		// The append already landed; only the convenience slot is stale.
		log.Error("relay last-command write failed", zap.String("key", key), zap.Error(err))
		return Result{}, fmt.Errorf("%w: last command: %v", ErrDownstreamFailure, err)
	}
	log.Info("command relayed", zap.String("key", key), zap.String("backend", d.relay.Backend()))

	d.publish(ctx, cmd)
	return Result{OK: true, Command: cmd, Key: key}, nil
}

// Last reads the last-command slot for gateID.  When the relay is not ready
// it returns a result carrying only the warning.  A gate with no command
// yields relay.ErrNoCommand.
func (d *Dispatcher) Last(ctx context.Context, gateID string) (Result, error) {
	if strings.TrimSpace(gateID) == "" {
		return Result{}, badRequest("Missing gate id")
	}
	store, state, _ := d.relay.Acquire(ctx)
	switch state {
	case relay.Unconfigured:
		return Result{OK: true, Warning: WarningUnconfigured}, nil
	case relay.FailedInit:
		return Result{OK: true, Warning: WarningInitFailed}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	cmd, err := store.Last(ctx, gateID)
	switch {
	case errors.Is(err, relay.ErrNoCommand):
		return Result{}, err
	case err != nil:
		d.log.Error("relay last-command read failed", zap.String("gate_id", gateID), zap.Error(err))
		return Result{}, fmt.Errorf("%w: read last: %v", ErrDownstreamFailure, err)
	}
	return Result{OK: true, Command: cmd, Key: cmd.Key}, nil
}

func (d *Dispatcher) append(ctx context.Context, s relay.Store, cmd model.GateCommand) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return s.Append(ctx, cmd.GateID, cmd)
}

func (d *Dispatcher) setLast(ctx context.Context, s relay.Store, cmd model.GateCommand) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return s.SetLast(ctx, cmd.GateID, cmd)
}

func (d *Dispatcher) publish(ctx context.Context, cmd model.GateCommand) {
	if d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := d.publisher.PublishDispatched(ctx, cmd); err != nil {
		d.log.Warn("publish dispatched event failed", zap.String("gate_id", cmd.GateID), zap.Error(err))
	}
}

// Clock hands out wall-clock milliseconds that strictly increase within the
// process, so two commands never share a timestamp.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewClock(now func() time.Time) *Clock { return &Clock{now: now} }

func (c *Clock) NextMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}
