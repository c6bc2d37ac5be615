package mediator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mediator is an in-process dispatch table built once at startup: exactly one
// handler per command name, zero or more per notification name. Registration
// and dispatch are separate phases; Freeze ends registration.

type CommandHandler func(ctx context.Context, cmd any) (any, error)

type NotificationHandler func(ctx context.Context, note any) error

var (
	ErrDuplicateCommand = errors.New("command handler already registered")
	ErrUnknownCommand   = errors.New("no handler registered for command")
	ErrFrozen           = errors.New("mediator registration is closed")
)

type Mediator struct {
	mu            sync.RWMutex
	frozen        bool
	commands      map[string]CommandHandler
	notifications map[string][]NotificationHandler
	logger        *logrus.Logger
}

func New(logger *logrus.Logger) *Mediator {
	return &Mediator{
		commands:      make(map[string]CommandHandler),
		notifications: make(map[string][]NotificationHandler),
		logger:        logger,
	}
}

func (m *Mediator) RegisterCommand(name string, h CommandHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return ErrFrozen
	}
	if _, exists := m.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	m.commands[name] = h
	return nil
}

func (m *Mediator) RegisterNotification(name string, h NotificationHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return ErrFrozen
	}
	m.notifications[name] = append(m.notifications[name], h)
	return nil
}

// Freeze closes registration. Dispatch after Freeze needs no locking discipline
// from callers beyond the read lock taken here.
func (m *Mediator) Freeze() {
	m.mu.Lock()
	m.frozen = true
	m.mu.Unlock()
}

// Send dispatches a command to its single handler. The handler owns the
// transaction lifecycle and returns a response value or a typed error.
func (m *Mediator) Send(ctx context.Context, name string, cmd any) (any, error) {
	m.mu.RLock()
	h, ok := m.commands[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, cmd)
}

// Publish runs every handler registered for the notification, in registration
// order. A handler failure does not stop the others; failures are joined and
// returned to the publisher, which decides whether the originating operation
// cares. Publish must only be called after the triggering transaction has
// committed.
func (m *Mediator) Publish(ctx context.Context, name string, note any) error {
	m.mu.RLock()
	handlers := m.notifications[name]
	m.mu.RUnlock()
	if len(handlers) == 0 {
		if m.logger != nil {
			m.logger.WithField("notification", name).Debug("no handlers registered")
		}
		return nil
	}
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, note); err != nil {
			if m.logger != nil {
				m.logger.WithError(err).WithField("notification", name).Error("notification handler failed")
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Commands returns the registered command names, sorted. Used by startup
// logging and tests.
func (m *Mediator) Commands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
