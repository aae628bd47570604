package experiment

import (
	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/rocket"
)

// Record layout: state ‖ action ‖ reward ‖ next state ‖ done.
const (
	offState   = 0
	offAction  = rocket.SnapshotSize
	offReward  = offAction + 1
	offNext    = offReward + 1
	offDone    = offNext + rocket.SnapshotSize
	RecordSize = offDone + 1

	// RewardCol is the record column holding the reward.
	RewardCol = offReward
)

type Transition struct {
	State  rocket.Snapshot
	Action rocket.Action
	Reward float64
	Next   rocket.Snapshot
	Done   bool
}

// Encode writes t into dst, which must hold RecordSize values.
func (t Transition) Encode(dst []float64) {
	copy(dst[offState:offAction], t.State[:])
	dst[offAction] = float64(t.Action)
	dst[offReward] = t.Reward
	copy(dst[offNext:offDone], t.Next[:])
	dst[offDone] = 0
	if t.Done {
		dst[offDone] = 1
	}
}

func Decode(row []float64) (Transition, error) {
	if len(row) != RecordSize {
		return Transition{}, dynamo.Errorf("decode", dynamo.ErrShapeMismatch, "got %d values, want %d", len(row), RecordSize)
	}
	var t Transition
	copy(t.State[:], row[offState:offAction])
	t.Action = rocket.Action(row[offAction])
	t.Reward = row[offReward]
	copy(t.Next[:], row[offNext:offDone])
	t.Done = row[offDone] != 0
	return t, nil
}

func newTransition(prev rocket.Snapshot, a rocket.Action, res rocket.StepResult) Transition {
	return Transition{
		State:  prev,
		Action: a,
		Reward: res.Reward(),
		Next:   res.Snapshot(),
		Done:   !res.WithinBounds(),
	}
}
