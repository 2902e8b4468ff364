// Package undo provides a linear undo/redo history of executed commands.
//
// The history is a single ordered list with a cursor. New commands enter
// through Perform, which executes the forward action first and records
// the pair only on success. Consecutive operations sharing a group id
// undo and redo atomically as one user-visible step.
package undo

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RedoFunc executes the forward action and returns a value, typically
// server-assigned ids, that the matching undo needs.
type RedoFunc func(ctx context.Context) (any, error)

// UndoFunc reverts the forward action. It receives the value returned by
// the most recent redo execution, never a client-side guess.
type UndoFunc func(ctx context.Context, value any) error

// Command is an invertible action stored in the history.
type Command interface {
	Redo(ctx context.Context) (any, error)
	Undo(ctx context.Context, value any) error
}

type funcCommand struct {
	redo RedoFunc
	undo UndoFunc
}

func (c funcCommand) Redo(ctx context.Context) (any, error) { return c.redo(ctx) }

func (c funcCommand) Undo(ctx context.Context, value any) error { return c.undo(ctx, value) }

// NewCommand wraps a redo/undo function pair as a Command.
func NewCommand(redo RedoFunc, undo UndoFunc) Command {
	return funcCommand{redo: redo, undo: undo}
}

// operation is one history entry: the command plus its bookkeeping.
type operation struct {
	checkpoint  int64
	command     Command
	description string
	groupID     string
	value       any
}

// Manager owns the operation list. All methods are safe for concurrent
// use; undo/redo sequences are mutually exclusive with each other and
// with registration.
type Manager struct {
	mu         sync.Mutex
	operations []operation
	index      int
	limit      int
	running    bool
	onChanged  func()
	log        zerolog.Logger
}

// New returns an empty history. A limit of zero means unbounded; a
// positive limit evicts the oldest entries once exceeded.
func New(limit int, log zerolog.Logger) *Manager {
	return &Manager{
		index: -1,
		limit: limit,
		log:   log,
	}
}

// OnChanged registers a callback invoked after every history change. Not
// safe to call concurrently with history operations.
func (m *Manager) OnChanged(fn func()) {
	m.onChanged = fn
}

// Perform executes the command's forward action and, on success, records
// it at the cursor. The redo's return value is threaded to the eventual
// undo. Operations sharing a non-empty groupID undo together.
func (m *Manager) Perform(ctx context.Context, cmd Command, description, groupID string) (any, error) {
	return m.perform(ctx, cmd, description, groupID, false)
}

// PerformDiscardable is Perform with checkpoint coalescing: the new entry
// reuses the previous entry's checkpoint instead of stamping the current
// time, so rapid successive edits share one time bucket.
func (m *Manager) PerformDiscardable(ctx context.Context, cmd Command, description, groupID string) (any, error) {
	return m.perform(ctx, cmd, description, groupID, true)
}

func (m *Manager) perform(ctx context.Context, cmd Command, description, groupID string, discardable bool) (any, error) {
	value, err := cmd.Redo(ctx)
	if err != nil {
		return nil, err
	}

	m.register(operation{
		command:     cmd,
		description: description,
		groupID:     groupID,
		value:       value,
	}, discardable)

	return value, nil
}

func (m *Manager) register(op operation, discardable bool) {
	m.mu.Lock()

	if m.running {
		m.mu.Unlock()
		m.log.Warn().
			Str("description", op.description).
			Msg("dropping operation registered during undo/redo")
		return
	}

	// A new edit discards the redo branch.
	m.operations = m.operations[:m.index+1]

	if discardable {
		op.checkpoint = 0
		if len(m.operations) > 0 {
			op.checkpoint = m.operations[len(m.operations)-1].checkpoint
		}
	} else {
		op.checkpoint = time.Now().UnixMilli()
	}

	m.operations = append(m.operations, op)

	if m.limit > 0 && len(m.operations) > m.limit {
		excess := len(m.operations) - m.limit
		m.operations = append([]operation{}, m.operations[excess:]...)
	}

	m.index = len(m.operations) - 1
	m.mu.Unlock()

	m.notify()
}

// Undo reverts the operation at the cursor, or the whole trailing run of
// operations sharing its group id. It stops at the first failing command,
// leaving the cursor on the operation that failed.
func (m *Manager) Undo(ctx context.Context) error {
	m.mu.Lock()
	if m.running || m.index < 0 {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	groupID := m.operations[m.index].groupID
	m.mu.Unlock()

	defer m.finish()

	for {
		m.mu.Lock()
		if m.index < 0 {
			m.mu.Unlock()
			return nil
		}
		op := m.operations[m.index]
		if op.groupID != groupID {
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		if err := op.command.Undo(ctx, op.value); err != nil {
			return err
		}

		m.mu.Lock()
		m.index--
		m.mu.Unlock()

		if groupID == "" {
			return nil
		}
	}
}

// Redo re-executes the operation after the cursor, or the whole run
// sharing its group id, storing each redo's fresh return value for the
// next undo.
func (m *Manager) Redo(ctx context.Context) error {
	m.mu.Lock()
	if m.running || m.index >= len(m.operations)-1 {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	groupID := m.operations[m.index+1].groupID
	m.mu.Unlock()

	defer m.finish()

	for {
		m.mu.Lock()
		if m.index >= len(m.operations)-1 {
			m.mu.Unlock()
			return nil
		}
		op := m.operations[m.index+1]
		if op.groupID != groupID {
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		value, err := op.command.Redo(ctx)
		if err != nil {
			return err
		}

		m.mu.Lock()
		m.index++
		m.operations[m.index].value = value
		m.mu.Unlock()

		if groupID == "" {
			return nil
		}
	}
}

func (m *Manager) finish() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	m.notify()
}

// Clear drops the whole history.
func (m *Manager) Clear() {
	m.mu.Lock()
	prevSize := len(m.operations)
	m.operations = nil
	m.index = -1
	m.mu.Unlock()

	if prevSize > 0 {
		m.notify()
	}
}

// CanUndo reports whether the cursor has an operation to revert.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.index != -1
}

// CanRedo reports whether an undone operation is available to re-execute.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.index < len(m.operations)-1
}

// UndoDescription returns the description of the operation Undo would
// revert next.
func (m *Manager) UndoDescription() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index < 0 {
		return "", false
	}

	return m.operations[m.index].description, true
}

// RedoDescription returns the description of the operation Redo would
// re-execute next.
func (m *Manager) RedoDescription() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index >= len(m.operations)-1 {
		return "", false
	}

	return m.operations[m.index+1].description, true
}

// CurrentCheckpoint returns the checkpoint timestamp of the operation at
// the cursor, or zero when nothing is undoable. Discardable operations
// share their predecessor's checkpoint.
func (m *Manager) CurrentCheckpoint() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index < 0 {
		return 0
	}

	return m.operations[m.index].checkpoint
}

func (m *Manager) notify() {
	if m.onChanged != nil {
		m.onChanged()
	}
}
