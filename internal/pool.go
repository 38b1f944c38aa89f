package internal

import (
	"sync"

	"github.com/stridesim/stride/sim"
)

// FramePool recycles actor frames between steps. Frame counts track the actor
// population, so steady-state stepping allocates nothing.
var FramePool = sync.Pool{
	New: func() any {
		return &sim.ActorFrame{}
	},
}
