// Package validation inspects a laid-out group for structural problems and
// crowded labels.
package validation

import (
	"fmt"
	"math"

	"erd/diagram"
	"erd/geometry"
)

// Kind classifies an issue.
type Kind string

const (
	KindEmptyGroup   Kind = "empty-group"
	KindMissingFrame Kind = "missing-frame"
	KindMissingShape Kind = "missing-shape"
	KindFrameSize    Kind = "frame-size"
	KindBadGeometry  Kind = "bad-geometry"
	KindLabelOverlap Kind = "label-overlap"
	KindLabelOnShape Kind = "label-on-shape"
)

// Severity of an issue. Errors mean the group breaks its invariants;
// warnings flag output that is valid but hard to read.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue is one finding. Index and Other are primitive positions in the
// group; Other is -1 when only one primitive is involved.
type Issue struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Index    int      `json:"index"`
	Other    int      `json:"other"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s at %d: %s", i.Severity, i.Kind, i.Index, i.Message)
}

// HasErrors reports whether any issue is an Error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == Error {
			return true
		}
	}
	return false
}

// Check validates g. An empty result means the group is well formed and no
// label collides with another label or with the main shape.
func Check(g diagram.Group) []Issue {
	if len(g) == 0 {
		return []Issue{{Kind: KindEmptyGroup, Severity: Error, Index: -1, Other: -1, Message: "group has no primitives"}}
	}

	var issues []Issue
	add := func(k Kind, s Severity, i, j int, format string, args ...any) {
		issues = append(issues, Issue{Kind: k, Severity: s, Index: i, Other: j, Message: fmt.Sprintf(format, args...)})
	}

	frame, ok := g[0].(diagram.Frame)
	if !ok {
		add(KindMissingFrame, Error, 0, -1, "first primitive is a %s", g[0].Kind())
	}

	var shape diagram.Primitive
	if len(g) > 1 {
		switch g[1].(type) {
		case diagram.Rect, diagram.Rhombus:
			shape = g[1]
		}
	}
	if shape == nil {
		add(KindMissingShape, Error, 1, -1, "no rectangle or rhombus after the frame")
	} else if ok {
		sb := shape.Bounds()
		if !near(sb.W, frame.W) || !near(sb.H, frame.H) || !near(sb.X, frame.X) || !near(sb.Y, frame.Y) {
			add(KindFrameSize, Error, 0, 1, "frame %v does not match shape %v", frame.Bounds(), sb)
		}
	}

	for i, p := range g {
		if !finite(p) {
			add(KindBadGeometry, Error, i, -1, "%s has a non-finite coordinate", p.Kind())
		}
	}

	var labels []int
	for i, p := range g {
		if p.Kind() == diagram.KindText {
			labels = append(labels, i)
		}
	}
	for a := 0; a < len(labels); a++ {
		ra := g[labels[a]].Bounds()
		for b := a + 1; b < len(labels); b++ {
			if ra.Intersects(g[labels[b]].Bounds()) {
				add(KindLabelOverlap, Warning, labels[a], labels[b], "%q overlaps %q",
					g[labels[a]].(diagram.Text).Content, g[labels[b]].(diagram.Text).Content)
			}
		}
		if shape != nil && overlapsShape(ra, shape) {
			add(KindLabelOnShape, Warning, labels[a], 1, "%q overlaps the %s", g[labels[a]].(diagram.Text).Content, shape.Kind())
		}
	}
	return issues
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func finite(p diagram.Primitive) bool {
	var pts []geometry.Vec2
	if l, ok := p.(diagram.Line); ok {
		pts = l.Points()
	} else {
		b := p.Bounds()
		pts = []geometry.Vec2{geometry.V(b.X, b.Y), geometry.V(b.W, b.H)}
	}
	for _, v := range pts {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return false
		}
	}
	return true
}

// overlapsShape tests a label box against the shape's true outline, so a
// label tucked into the corner beside a rhombus does not count.
func overlapsShape(r geometry.Rect, shape diagram.Primitive) bool {
	if !r.Intersects(shape.Bounds()) {
		return false
	}
	rh, ok := shape.(diagram.Rhombus)
	if !ok {
		return true
	}
	// separating axis test on the two rhombus edge normals; the box axes
	// were covered by the bounds check
	verts := rh.Vertices()
	corners := []geometry.Vec2{
		geometry.V(r.X, r.Y), geometry.V(r.X+r.W, r.Y),
		geometry.V(r.X, r.Y+r.H), geometry.V(r.X+r.W, r.Y+r.H),
	}
	for _, axis := range []geometry.Vec2{geometry.V(rh.H, rh.W), geometry.V(rh.H, -rh.W)} {
		minA, maxA := project(verts[:], axis)
		minB, maxB := project(corners, axis)
		if maxA <= minB || maxB <= minA {
			return false
		}
	}
	return true
}

func project(pts []geometry.Vec2, axis geometry.Vec2) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		d := p.X*axis.X + p.Y*axis.Y
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
