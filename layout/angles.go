package layout

import (
	"math"
	"slices"

	"erd/core"
	"erd/geometry"
)

var entityStartAngles = map[core.EntityStyle][]float64{
	core.StyleEast:       {0},
	core.StyleNorth:      {math.Pi / 2},
	core.StyleSouth:      {-math.Pi / 2},
	core.StyleWest:       {math.Pi},
	core.StyleNorthEast:  {math.Pi / 4},
	core.StyleSouthEast:  {-math.Pi / 4},
	core.StyleEastWest:   {0, math.Pi},
	core.StyleNorthSouth: {math.Pi / 2, 3 * math.Pi / 2},
	core.StyleNorthWest:  {3 * math.Pi / 4},
	core.StyleSouthWest:  {5 * math.Pi / 4},
}

// StartAngles returns the fan centre of each side used by style. An empty
// style means East.
func StartAngles(style core.EntityStyle) ([]float64, bool) {
	if style == core.StyleDefault {
		style = core.StyleEast
	}
	a, ok := entityStartAngles[style]
	if !ok {
		return nil, false
	}
	return slices.Clone(a), true
}

// EntitySpacing is the angular gap between neighbouring attributes on one
// side of an entity.
func EntitySpacing(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n < 3:
		return math.Pi / (3 * float64(n))
	case n < 16:
		return math.Pi / 8
	default:
		return 2 * math.Pi / float64(n)
	}
}

// RelationSpacing is the angular gap between attributes in one quadrant of
// a relation.
func RelationSpacing(n int) float64 {
	return math.Pi / (2.5 * float64(n+1))
}

// Fan returns the angle of each of n attributes spread symmetrically around
// alpha, in attribute order. For even n the pairs straddle alpha at
// (0.5+i)*spacing; for odd n the middle attribute sits on alpha and the
// rest pair up at (i+1)*spacing. Earlier attributes get larger angles.
func Fan(n int, alpha, spacing float64) []float64 {
	angles := make([]float64, n)
	mid := n / 2
	if n%2 == 1 {
		angles[mid] = alpha
		for i := 0; i < mid; i++ {
			off := float64(i+1) * spacing
			angles[mid-i-1] = alpha + off
			angles[mid+i+1] = alpha - off
		}
		return angles
	}
	for i := 0; i < mid; i++ {
		off := (0.5 + float64(i)) * spacing
		angles[mid-i-1] = alpha + off
		angles[mid+i] = alpha - off
	}
	return angles
}

// Remap compresses angles near the diagonals and stretches them near the
// cardinal directions, with theta (the rectangle's corner angle) as the
// image of π/4. It maps [0, π/4] onto [0, theta] and [π/4, π/2] onto
// [theta, π/2] linearly and mirrors that in the other quadrants, so
// horizontal labels crowd less above and below the rectangle.
func Remap(theta, x float64) float64 {
	m1 := 4 * theta / math.Pi
	m2 := 2 - m1
	c2 := 2*theta - math.Pi/2

	var rv func(float64) float64
	rv = func(x float64) float64 {
		x = geometry.FullTurn(x)
		switch {
		case x <= math.Pi/4:
			return m1 * x
		case x <= math.Pi/2:
			return m2*x + c2
		case x <= math.Pi:
			return math.Pi - rv(math.Pi-x)
		case x <= 3*math.Pi/2:
			return math.Pi + rv(x-math.Pi)
		default:
			return 2*math.Pi - rv(2*math.Pi-x)
		}
	}
	return rv(x)
}

// PartitionKeys returns a new slice with key attributes first, each group
// in its original relative order.
func PartitionKeys(attrs []core.Attribute) []core.Attribute {
	out := make([]core.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.IsKey {
			out = append(out, a)
		}
	}
	for _, a := range attrs {
		if !a.IsKey {
			out = append(out, a)
		}
	}
	return out
}

// SplitSides divides attributes between the sides of a two-sided style:
// the first ⌈n/2⌉ go to the first side.
func SplitSides(attrs []core.Attribute, sides int) [][]core.Attribute {
	if sides != 2 {
		return [][]core.Attribute{slices.Clone(attrs)}
	}
	k := (len(attrs) + 1) / 2
	return [][]core.Attribute{slices.Clone(attrs[:k]), slices.Clone(attrs[k:])}
}

// SplitQuadrants spreads attributes over the four relation quadrants as
// evenly as possible, consuming from the front: quadrant i receives
// ⌈remaining/(4-i)⌉.
func SplitQuadrants(attrs []core.Attribute) [4][]core.Attribute {
	var out [4][]core.Attribute
	rest := attrs
	for i := 0; i < 4; i++ {
		k := (len(rest) + (4 - i) - 1) / (4 - i)
		out[i] = slices.Clone(rest[:k])
		rest = rest[k:]
	}
	return out
}
