package gradient

// TraversalKind says whether a linear gradient runs from an edge or a corner
type TraversalKind int

const (
	// TraversalEdge spans the side length of the canvas
	TraversalEdge TraversalKind = iota
	// TraversalCorner spans the canvas diagonal
	TraversalCorner
)

// TraversalLength returns the distance a gradient of the given kind interpolates across
func TraversalLength(kind TraversalKind, size int) int {
	if kind == TraversalCorner {
		return Hypotenuse(size)
	}
	return size
}

// GenerateSwitchPoints returns floor(i*length/(n-1)) for i in [0, n).
// The first point is always 0 and the last is exactly length.
func GenerateSwitchPoints(length, n int) (SwitchPoints, error) {
	if n < 2 {
		return nil, precondition("generate switch points", ErrInvalidPaletteSize, "n=%d", n)
	}
	if length <= 0 {
		return nil, precondition("generate switch points", ErrDegenerateTraversal, "length=%d", length)
	}

	points := make(SwitchPoints, n)
	for i := range points {
		points[i] = i * length / (n - 1)
	}
	return points, nil
}

// Length returns the traversal length the points were generated for
func (sp SwitchPoints) Length() int {
	if len(sp) == 0 {
		return 0
	}
	return sp[len(sp)-1]
}

// segment returns the index of the largest switch point strictly below d, or 0.
// The result never exceeds len(sp)-2 so segment+1 is always a valid palette index.
func (sp SwitchPoints) segment(d int) int {
	position := 0
	for i := 0; i < len(sp)-1; i++ {
		if sp[i] < d {
			position = i
		}
	}
	return position
}

// colorAt interpolates the palette at distance d.
// Every segment is normalized by the width of the first segment, sp[1].
func (sp SwitchPoints) colorAt(palette Palette, d int) Color {
	pos := sp.segment(d)
	from, to := palette[pos], palette[pos+1]
	t := d - sp[pos]
	width := sp[1]

	return Color{
		R: channelValue(Lerp(int(from.R), int(to.R), t, width)),
		G: channelValue(Lerp(int(from.G), int(to.G), t, width)),
		B: channelValue(Lerp(int(from.B), int(to.B), t, width)),
	}
}

func (sp SwitchPoints) validate(op string, palette Palette) error {
	if len(palette) < MinPaletteSize || len(sp) != len(palette) {
		return precondition(op, ErrInvalidPaletteSize, "palette=%d switch points=%d", len(palette), len(sp))
	}
	if sp[1] <= 0 {
		return precondition(op, ErrDegenerateTraversal, "first segment has width %d", sp[1])
	}
	return nil
}
