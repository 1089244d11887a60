package song

import (
	"errors"
	"sync"
)

const maxUndo = 256

var ErrNothingToUndo = errors.New("nothing to undo")

// History applies commands to a song and keeps bounded undo/redo stacks.
type History struct {
	mu        sync.Mutex
	song      *Song
	undoStack []Command
	redoStack []Command
}

func NewHistory(s *Song) *History {
	return &History{song: s}
}

// Do applies cmd and records it. A failed command is not recorded.
func (h *History) Do(cmd Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := cmd.Apply(h.song); err != nil {
		return err
	}
	h.undoStack = push(h.undoStack, cmd)
	h.redoStack = nil
	return nil
}

// Undo reverts the latest command and returns its name
func (h *History) Undo() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return "", ErrNothingToUndo
	}
	cmd := h.undoStack[len(h.undoStack)-1]
	if err := cmd.Revert(h.song); err != nil {
		return "", err
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = push(h.redoStack, cmd)
	return cmd.Name(), nil
}

// Redo re-applies the latest undone command
func (h *History) Redo() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redoStack) == 0 {
		return "", ErrNothingToUndo
	}
	cmd := h.redoStack[len(h.redoStack)-1]
	if err := cmd.Apply(h.song); err != nil {
		return "", err
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = push(h.undoStack, cmd)
	return cmd.Name(), nil
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// Reset forgets all history, e.g. after loading a project
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}

func push(stack []Command, cmd Command) []Command {
	if len(stack) >= maxUndo {
		copy(stack, stack[len(stack)-maxUndo+1:])
		stack = stack[:maxUndo-1]
	}
	return append(stack, cmd)
}
