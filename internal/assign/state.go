package assign

import (
	"fmt"
	"strings"
)

// State is the assignment of a step or property. States are ordered
// No < Partial < Yes.
type State int8

const (
	No State = iota
	Partial
	Yes
)

var stateNames = [...]string{No: "NO", Partial: "PARTIAL", Yes: "YES"}

// States lists every state in ascending order.
var States = []State{No, Partial, Yes}

func (s State) String() string {
	if s < No || s > Yes {
		return fmt.Sprintf("State(%d)", int8(s))
	}
	return stateNames[s]
}

func ParseState(text string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "YES":
		return Yes, nil
	case "PARTIAL":
		return Partial, nil
	case "NO":
		return No, nil
	}
	return No, fmt.Errorf("unknown assignment state %q", text)
}

func (s State) MarshalText() ([]byte, error) {
	if s < No || s > Yes {
		return nil, fmt.Errorf("invalid assignment state %d", int8(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
