package types

import (
	"strings"
)

// NodeStatus follows the landlab numbering so meshes exported from there
// can be read without translation.
type NodeStatus uint8

const (
	Core NodeStatus = iota
	FixedValue
	FixedGradient
	Looped
	Closed
)

func (s NodeStatus) String() string {
	switch s {
	case Core:
		return "core"
	case FixedValue:
		return "fixed-value"
	case FixedGradient:
		return "fixed-gradient"
	case Looped:
		return "looped"
	case Closed:
		return "closed"
	}
	return "unknown"
}

func (s NodeStatus) IsBoundary() bool { return s != Core }

// StatusNameMap translates mesh file marker labels into node status.
var StatusNameMap = map[string]NodeStatus{
	"core":      Core,
	"interior":  Core,
	"fixed":     FixedValue,
	"dirichlet": FixedValue,
	"outlet":    FixedValue,
	"open":      FixedValue,
	"gradient":  FixedGradient,
	"neuman":    FixedGradient,
	"neumann":   FixedGradient,
	"periodic":  Looped,
	"closed":    Closed,
	"wall":      Closed,
}

// NewNodeStatus parses labels like "Wall-top" or "outlet_3"; only the
// leading word selects the status. Unknown labels are open boundaries.
func NewNodeStatus(label string) NodeStatus {
	word := strings.ToLower(strings.TrimSpace(label))
	if ind := strings.IndexAny(word, "-_ "); ind > 0 {
		word = word[:ind]
	}
	if s, ok := StatusNameMap[word]; ok {
		return s
	}
	return FixedValue
}

type LinkStatus uint8

const (
	Active LinkStatus = iota
	Inactive
)

func (s LinkStatus) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// BoundaryTag is the per-step flow classification of a node.
type BoundaryTag int8

const (
	Outflow  BoundaryTag = -1
	Interior BoundaryTag = 0
	Inflow   BoundaryTag = 1
	NoFlow   BoundaryTag = 2
)

func (b BoundaryTag) String() string {
	switch b {
	case Outflow:
		return "outflow"
	case Interior:
		return "interior"
	case Inflow:
		return "inflow"
	case NoFlow:
		return "closed"
	}
	return "unknown"
}
