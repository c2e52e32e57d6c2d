package history

import (
	"log/slog"
)

// DefaultMaxSize is the default stack bound.
const DefaultMaxSize = 100

// Manager holds bounded undo and redo stacks.
type Manager struct {
	maxSize int
	undo    []Command
	redo    []Command
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a Manager. A maxSize below 1 uses DefaultMaxSize.
func New(maxSize int, opts ...Option) *Manager {
	if maxSize < 1 {
		maxSize = DefaultMaxSize
	}
	m := &Manager{
		maxSize: maxSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Push records an executed command and clears redo. The oldest command is
// evicted when the stack is full. Commands that changed nothing are dropped
// and Push returns false.
func (m *Manager) Push(cmd Command) bool {
	if cmd == nil {
		return false
	}
	if nc, ok := cmd.(noopChecker); ok && nc.IsNoop() {
		m.logger.Debug("history skip no-op", "command", cmd.Label())
		return false
	}

	m.undo = append(m.undo, cmd)
	if len(m.undo) > m.maxSize {
		m.undo[0] = nil
		m.undo = m.undo[1:]
	}
	m.redo = nil
	m.logger.Debug("history push", "command", cmd.Label(), "undo", len(m.undo))
	return true
}

// Undo reverts the newest command. It returns false with no error when there
// is nothing to undo. A command that fails stays on the undo stack.
func (m *Manager) Undo(t Target) (bool, error) {
	if len(m.undo) == 0 {
		return false, nil
	}
	cmd := m.undo[len(m.undo)-1]
	if err := cmd.Undo(t); err != nil {
		return false, err
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, cmd)
	m.logger.Debug("history undo", "command", cmd.Label())
	return true, nil
}

// Redo re-applies the newest undone command. It returns false with no error
// when there is nothing to redo.
func (m *Manager) Redo(t Target) (bool, error) {
	if len(m.redo) == 0 {
		return false, nil
	}
	cmd := m.redo[len(m.redo)-1]
	if err := cmd.Redo(t); err != nil {
		return false, err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, cmd)
	if len(m.undo) > m.maxSize {
		m.undo[0] = nil
		m.undo = m.undo[1:]
	}
	m.logger.Debug("history redo", "command", cmd.Label())
	return true, nil
}

// CanUndo reports whether Undo has anything to do.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo has anything to do.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// UndoLen returns the undo stack depth.
func (m *Manager) UndoLen() int { return len(m.undo) }

// RedoLen returns the redo stack depth.
func (m *Manager) RedoLen() int { return len(m.redo) }

// MaxSize returns the stack bound.
func (m *Manager) MaxSize() int { return m.maxSize }

// Labels returns the undo stack labels, oldest first.
func (m *Manager) Labels() []string {
	out := make([]string, len(m.undo))
	for i, c := range m.undo {
		out[i] = c.Label()
	}
	return out
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
}
