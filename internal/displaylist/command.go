// Package displaylist records expanded geometry and state changes into
// named lists and replays them.
//
// Recording happens through a batch.Assembler with a record target: each
// flush uploads the expanded vertices once into a private device buffer
// sized for exactly those vertices and appends a BindBuffer/Draw pair.
// Replay executes the commands verbatim, so a list is never classified or
// expanded again.
package displaylist

import (
	"fmt"

	"github.com/gogpu/gldirect/internal/primitive"
)

// Op identifies the type of a command.
type Op uint8

const (
	OpBindBuffer Op = iota // Bind a private buffer as the vertex source
	OpDraw                 // Draw from the bound buffer
	OpCallList             // Replay another list
	OpState                // Apply a recorded state change
)

var opNames = [...]string{
	OpBindBuffer: "BindBuffer",
	OpDraw:       "Draw",
	OpCallList:   "CallList",
	OpState:      "State",
}

// String returns the string representation of the op.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// StateChange is a recorded state-setting call. The package does not look
// inside it; the Executor applies it on replay.
type StateChange interface {
	Name() string
}

// Command is one recorded operation. Which fields are meaningful depends
// on Op.
type Command struct {
	Op Op

	// Buffer indexes the list's private buffers. OpBindBuffer only.
	Buffer int

	// Topology, First and Count describe the draw. OpDraw only.
	Topology primitive.Reduced
	First    int
	Count    int

	// List is the list to call. OpCallList only.
	List uint32

	// State is the recorded change. OpState only.
	State StateChange
}

// String returns a short description of the command.
func (c Command) String() string {
	switch c.Op {
	case OpBindBuffer:
		return fmt.Sprintf("BindBuffer(%d)", c.Buffer)
	case OpDraw:
		return fmt.Sprintf("Draw(%v, %d, %d)", c.Topology, c.First, c.Count)
	case OpCallList:
		return fmt.Sprintf("CallList(%d)", c.List)
	case OpState:
		return fmt.Sprintf("State(%s)", c.State.Name())
	default:
		return c.Op.String()
	}
}
