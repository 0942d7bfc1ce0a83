package gradient

import "math"

// Distance returns the Euclidean distance between two points, truncated toward zero.
// Truncation biases distances down and shifts exact segment boundaries; keep it.
func Distance(x1, y1, x2, y2 float64) int {
	dx := x1 - x2
	dy := y1 - y2
	return int(math.Sqrt(dx*dx + dy*dy))
}

// distancePoints is Distance for two grid points
func distancePoints(a, b Point) int {
	return Distance(float64(a.X), float64(a.Y), float64(b.X), float64(b.Y))
}

// Hypotenuse returns ceil(sqrt(2*size^2)), the diagonal span of the canvas
func Hypotenuse(size int) int {
	return int(math.Ceil(math.Sqrt(float64(2 * size * size))))
}

// MaxCornerDistance returns the distance from p to the corner picked by p's quadrant.
//
// The quadrant split is at size/2 on both axes:
//
//	top-left     -> (size-1, size-1)
//	top-right    -> (0, size-1)
//	bottom-left  -> (size-1, 0)
//	otherwise    -> (0, 0)
//
// Points on either midline fall through to (0, 0). This is a quadrant
// heuristic, not an exhaustive farthest-corner search.
func MaxCornerDistance(p Point, size int) int {
	half := size / 2
	last := size - 1

	var corner Point
	switch {
	case p.X < half && p.Y < half:
		corner = Point{last, last}
	case p.X > half && p.Y < half:
		corner = Point{0, last}
	case p.X < half && p.Y > half:
		corner = Point{last, 0}
	default:
		corner = Point{0, 0}
	}

	return distancePoints(corner, p)
}

// FindDivisors returns MaxCornerDistance for every origin
func FindDivisors(origins []Point, size int) []int {
	divisors := make([]int, len(origins))
	for i, o := range origins {
		divisors[i] = MaxCornerDistance(o, size)
	}
	return divisors
}

// Lerp interpolates from a to b by t/tMax and truncates toward zero.
// tMax must be positive; callers guarantee it.
func Lerp(a, b, t, tMax int) int {
	return int(float64(a) + float64(b-a)*(float64(t)/float64(tMax)))
}
