package gradient

import (
	"fmt"
	"strings"
)

// Algorithm identifies one of the gradient renderers the selector can pick.
type Algorithm int

const (
	AlgorithmLinear Algorithm = iota
	AlgorithmRadial
	AlgorithmChannelStrength
)

var algorithmNames = [...]string{
	AlgorithmLinear:          "linear",
	AlgorithmRadial:          "radial",
	AlgorithmChannelStrength: "channel_strength",
}

// Algorithms lists every algorithm in selection order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmLinear, AlgorithmRadial, AlgorithmChannelStrength}
}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// ParseAlgorithm maps user input to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return AlgorithmLinear, nil
	case "radial":
		return AlgorithmRadial, nil
	case "channel_strength", "channel-strength", "channels":
		return AlgorithmChannelStrength, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// EdgeOrigin is one of the eight named places a linear gradient starts from.
type EdgeOrigin int

const (
	OriginLeft EdgeOrigin = iota
	OriginRight
	OriginTop
	OriginBottom
	OriginTopLeft
	OriginTopRight
	OriginBottomLeft
	OriginBottomRight
)

var edgeOriginNames = [...]string{
	OriginLeft:        "left",
	OriginRight:       "right",
	OriginTop:         "top",
	OriginBottom:      "bottom",
	OriginTopLeft:     "top_left",
	OriginTopRight:    "top_right",
	OriginBottomLeft:  "bottom_left",
	OriginBottomRight: "bottom_right",
}

// EdgeOrigins lists all eight origins in draw order.
func EdgeOrigins() []EdgeOrigin {
	return []EdgeOrigin{
		OriginLeft, OriginRight, OriginTop, OriginBottom,
		OriginTopLeft, OriginTopRight, OriginBottomLeft, OriginBottomRight,
	}
}

func (o EdgeOrigin) String() string {
	if o < 0 || int(o) >= len(edgeOriginNames) {
		return fmt.Sprintf("origin(%d)", int(o))
	}
	return edgeOriginNames[o]
}

// ParseEdgeOrigin maps a name such as "top_right" to its EdgeOrigin.
func ParseEdgeOrigin(name string) (EdgeOrigin, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range edgeOriginNames {
		if n == name {
			return EdgeOrigin(i), nil
		}
	}
	return 0, fmt.Errorf("unknown edge origin: %s", name)
}

// IsCorner reports whether the gradient runs along the diagonal.
func (o EdgeOrigin) IsCorner() bool {
	return o >= OriginTopLeft
}

// Traversal returns the traversal kind for this origin.
func (o EdgeOrigin) Traversal() TraversalKind {
	if o.IsCorner() {
		return TraversalCorner
	}
	return TraversalEdge
}

// QuarterTurns is the counter-clockwise rotation applied after rendering.
// bottom_left and bottom_right both map to a half turn.
func (o EdgeOrigin) QuarterTurns() int {
	switch o {
	case OriginTop, OriginTopRight:
		return 1
	case OriginRight, OriginBottomRight, OriginBottomLeft:
		return 2
	case OriginBottom:
		return 3
	default:
		return 0
	}
}

// Normalization is the falloff policy of the channel-strength renderer.
type Normalization int

const (
	// NormalizeSize reaches zero at a distance of one side length.
	NormalizeSize Normalization = iota
	// NormalizeHypotenuse reaches zero at the canvas diagonal.
	NormalizeHypotenuse
	// NormalizeMeasured reaches zero at each origin's quadrant-derived far corner.
	NormalizeMeasured
)

var normalizationNames = [...]string{
	NormalizeSize:       "size",
	NormalizeHypotenuse: "hypotenuse",
	NormalizeMeasured:   "measured",
}

func (n Normalization) String() string {
	if n < 0 || int(n) >= len(normalizationNames) {
		return fmt.Sprintf("normalization(%d)", int(n))
	}
	return normalizationNames[n]
}

func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (o EdgeOrigin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *EdgeOrigin) UnmarshalText(text []byte) error {
	parsed, err := ParseEdgeOrigin(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (n Normalization) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Normalization) UnmarshalText(text []byte) error {
	for i, name := range normalizationNames {
		if name == string(text) {
			*n = Normalization(i)
			return nil
		}
	}
	return fmt.Errorf("unknown normalization: %s", text)
}
