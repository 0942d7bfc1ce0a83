package gradient

// Palette size bounds for linear gradients
const (
	MinPaletteSize = 2
	MaxPaletteSize = 4
)

// GeneratePalette draws n colors with every channel uniform in [0, 255].
// Colors are independent; duplicates are allowed.
func GeneratePalette(src Source, n int) (Palette, error) {
	if n < MinPaletteSize || n > MaxPaletteSize {
		return nil, precondition("generate palette", ErrInvalidPaletteSize, "n=%d, want %d..%d", n, MinPaletteSize, MaxPaletteSize)
	}

	palette := make(Palette, n)
	for i := range palette {
		palette[i] = Color{
			R: uint8(src.Intn(256)),
			G: uint8(src.Intn(256)),
			B: uint8(src.Intn(256)),
		}
	}
	return palette, nil
}

// GenerateOrigins draws count points uniformly from [0,size) x [0,size), with replacement.
func GenerateOrigins(src Source, count, size int) []Point {
	origins := make([]Point, count)
	for i := range origins {
		origins[i] = Point{X: src.Intn(size), Y: src.Intn(size)}
	}
	return origins
}
