package dynamo

import (
	"time"

	"golang.org/x/exp/rand"
)

// NewSource returns a PCG source for seed, or a wall-clock seeded one when
// seed is zero.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewSource(seed)
}
