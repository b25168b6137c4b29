package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/handlers"
	"github.com/stratuswap/stratus-bot/internal/flow"
)

// Dispatcher routes free-text replies to the handler registered for the
// user's current flow position. A step like awaiting_amount means different
// things in a withdrawal and a buy, so handlers are keyed by kind and step
// together.
type Dispatcher struct {
	machine      flow.Machine
	stepHandlers map[flow.Kind]map[flow.Step]handlers.Handler
	log          *slog.Logger
	mu           sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handler registry.
func NewDispatcher(machine flow.Machine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		machine:      machine,
		stepHandlers: make(map[flow.Kind]map[flow.Step]handlers.Handler),
		log:          log,
	}
}

// RegisterStepHandler registers a handler for one kind/step position.
func (d *Dispatcher) RegisterStepHandler(kind flow.Kind, step flow.Step, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stepHandlers[kind] == nil {
		d.stepHandlers[kind] = make(map[flow.Step]handlers.Handler)
	}
	d.stepHandlers[kind][step] = h
}

// Lookup returns the handler for the user's active session, or nil when no
// session exists or the position has no handler.
func (d *Dispatcher) Lookup(ctx context.Context, c telebot.Context) (handlers.Handler, error) {
	if c == nil || c.Sender() == nil {
		d.log.Warn("cannot dispatch without sender information")
		return nil, nil
	}

	session, err := d.machine.Session(ctx, c.Sender().ID)
	if err != nil {
		if errors.Is(err, flow.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	handler := d.getHandler(session.Kind, session.Step)
	if handler == nil {
		d.log.Info("no handler registered for flow position",
			"kind", session.Kind, "step", session.Step, "user_id", session.UserID)
	}

	return handler, nil
}

func (d *Dispatcher) getHandler(kind flow.Kind, step flow.Step) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	steps, ok := d.stepHandlers[kind]
	if !ok {
		return nil
	}

	return steps[step]
}
