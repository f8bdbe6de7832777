package component

// Health is pure data, zero methods. All mutations happen in systems.
type Health struct {
	Current int
	Max     int
	Decay   int // points lost per tick
}

// Tag is a free-form label, mostly for scripts.
type Tag struct {
	Name string
}
