package component

// Position is a point in world units.
type Position struct {
	X float64
	Y float64
}

// Velocity is in world units per second.
type Velocity struct {
	DX float64
	DY float64
}

// Bounds keeps moving entities inside a rectangle; they bounce off its edges.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}
