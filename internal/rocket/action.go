package rocket

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/rocketrl/internal/dynamo"
)

// Action is a discrete command id accepted by Simulator.Step.
type Action int

const (
	NoOp Action = iota
	ToggleIgnition
	RotateRight
	RotateLeft
	NumActions
)

var actionNames = [NumActions]string{"noop", "ignite", "right", "left"}

func (a Action) Valid() bool {
	return a >= 0 && a < NumActions
}

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction accepts either an action name or its numeric id.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range actionNames {
		if s == name {
			return Action(i), nil
		}
	}
	if id, err := strconv.Atoi(s); err == nil && Action(id).Valid() {
		return Action(id), nil
	}
	return NoOp, dynamo.Errorf("parse action", dynamo.ErrInvalidArgument, "%q", s)
}
