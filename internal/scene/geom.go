package scene

// Rect is a layout rectangle in logical pixels, origin top-left, Y down.
type Rect struct {
	X, Y, W, H float64
}

// Size is a width/height pair used by intrinsic measurement.
type Size struct {
	W, H float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
