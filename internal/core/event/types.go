package event

import (
	"time"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
)

type EntityCreated struct {
	Entity ecs.Entity
}

type EntityDestroyed struct {
	Entity ecs.Entity
}

// SystemFailed is emitted by the runner when a system returns an error.
type SystemFailed struct {
	System string
	Tick   uint64
	Err    error
	At     time.Time
}
