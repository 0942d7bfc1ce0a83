package gradient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		want           int
	}{
		{"same point", 17, 42, 17, 42, 0},
		{"pythagorean triple", 0, 0, 3, 4, 5},
		{"truncates", 0, 0, 1, 1, 1},
		{"truncates not rounds", 0, 0, 2, 2, 2},
		{"half coordinates", -0.5, 0.5, 1, 2, 2},
		{"corner to corner", 0, 0, 1023, 1023, 1446},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Distance(tt.x1, tt.y1, tt.x2, tt.y2))
		})
	}
}

func TestHypotenuse(t *testing.T) {
	require.Equal(t, 1449, Hypotenuse(1024))
	require.Equal(t, 6, Hypotenuse(4))
	require.Equal(t, 12, Hypotenuse(8))
}

func TestMaxCornerDistance(t *testing.T) {
	const size = 1024

	tests := []struct {
		name string
		p    Point
		want int
	}{
		{"top-left uses bottom-right", Point{0, 0}, 1446},
		{"top-right uses bottom-left", Point{1000, 10}, 1423},
		{"bottom-left uses top-right", Point{10, 1000}, 1423},
		{"bottom-right uses top-left", Point{900, 900}, 1272},
		{"center uses top-left", Point{512, 512}, 724},
		{"vertical midline uses top-left", Point{512, 10}, 512},
		{"horizontal midline uses top-left", Point{10, 512}, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MaxCornerDistance(tt.p, size))
		})
	}
}

func TestMaxCornerDistanceQuadrantCorners(t *testing.T) {
	const size = 16
	corners := map[Point]bool{{0, 0}: true, {0, size - 1}: true, {size - 1, 0}: true, {size - 1, size - 1}: true}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := Point{x, y}
			got := MaxCornerDistance(p, size)

			matched := false
			for c := range corners {
				if distancePoints(c, p) == got {
					matched = true
					break
				}
			}
			require.Truef(t, matched, "distance %d for %v does not match any corner", got, p)
		}
	}
}

func TestFindDivisors(t *testing.T) {
	origins := []Point{{0, 0}, {1000, 10}, {512, 512}}
	require.Equal(t, []int{1446, 1423, 724}, FindDivisors(origins, 1024))
}

func TestLerp(t *testing.T) {
	for _, tMax := range []int{1, 3, 255, 1024, 1449} {
		for _, pair := range [][2]int{{0, 255}, {255, 0}, {17, 200}, {90, 90}} {
			a, b := pair[0], pair[1]
			require.Equal(t, a, Lerp(a, b, 0, tMax))
			require.Equal(t, b, Lerp(a, b, tMax, tMax))
		}
	}

	require.Equal(t, 127, Lerp(255, 0, 512, 1024))
	require.Equal(t, 85, Lerp(0, 255, 1, 3))
	require.Equal(t, 191, Lerp(0, 255, 3, 4))
}
