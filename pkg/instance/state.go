package instance

import (
	"fmt"
)

type State int

const (
	StateUndefined = State(iota)
	StateUnclaimed
	StateOwned
	StateDeclined
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateUnclaimed:
		return "unclaimed"
	case StateOwned:
		return "owned"
	case StateDeclined:
		return "declined"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}
