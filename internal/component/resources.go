package component

import "time"

// Clock is the world's simulated time, advanced once per tick.
type Clock struct {
	Tick    uint64
	Elapsed time.Duration
	Delta   time.Duration
}

// Stats is written by the cleanup system.
type Stats struct {
	Destroyed int
	Spawned   int
}
