// Package turn splits raw transcript text into ordered speaker turns.
package turn

import (
	"fmt"
	"strings"

	"convi-text-pipeline/internal/models"
)

// State represents the parser's position relative to an open turn.
type State int

const (
	// StateNoOpenTurn - No label seen yet; unlabelled lines are discarded.
	StateNoOpenTurn State = iota
	// StateOpenTurn - A labelled turn is accumulating continuation lines.
	StateOpenTurn
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNoOpenTurn:
		return "NO_OPEN_TURN"
	case StateOpenTurn:
		return "OPEN_TURN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Machine accumulates turns line by line.
//
// State transitions:
//
//	NO_OPEN_TURN ── Label() ──→ OPEN_TURN
//	OPEN_TURN    ── Label() ──→ OPEN_TURN (previous turn flushed)
//	OPEN_TURN    ── Continue() ──→ OPEN_TURN (line appended)
//	NO_OPEN_TURN ── Continue() ──→ NO_OPEN_TURN (line dropped)
//
// Finish flushes the open turn. A Machine is not safe for concurrent use;
// each parse owns one.
type Machine struct {
	state State
	label string
	lines []string
	turns []models.RawTurn
}

// NewMachine creates a machine in NO_OPEN_TURN state.
func NewMachine() *Machine {
	return &Machine{state: StateNoOpenTurn}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Label closes any open turn and opens a new one with the given remainder.
func (m *Machine) Label(label, remainder string) {
	m.flush()
	m.state = StateOpenTurn
	m.label = label
	m.lines = m.lines[:0]
	if remainder != "" {
		m.lines = append(m.lines, remainder)
	}
}

// Continue appends a continuation line to the open turn.
// Returns false when the line was dropped because no turn is open.
func (m *Machine) Continue(line string) bool {
	if m.state != StateOpenTurn {
		return false
	}
	m.lines = append(m.lines, line)
	return true
}

// Finish flushes the open turn and returns every turn in parse order.
func (m *Machine) Finish() []models.RawTurn {
	m.flush()
	m.state = StateNoOpenTurn
	return m.turns
}

func (m *Machine) flush() {
	if m.state != StateOpenTurn {
		return
	}
	m.turns = append(m.turns, models.RawTurn{
		Label: m.label,
		Text:  strings.TrimSpace(strings.Join(m.lines, " ")),
	})
}
