package diagram

import (
	"encoding/json"
	"fmt"

	"erd/geometry"
)

// Group is an ordered primitive list whose first element is a Frame. Every
// other primitive is positioned relative to the frame's origin.
type Group []Primitive

// NewGroup translates every primitive by (xoff, yoff) and prepends a Frame
// at the origin with the size of primitives[0] before translation. It
// returns nil for an empty list. The input slice is not modified.
func NewGroup(primitives []Primitive, xoff, yoff float64) Group {
	if len(primitives) == 0 {
		return nil
	}
	ref := primitives[0].Bounds()

	g := make(Group, 0, len(primitives)+1)
	g = append(g, Frame{W: ref.W, H: ref.H})
	for _, p := range primitives {
		g = append(g, p.Translate(xoff, yoff))
	}
	return g
}

// Frame returns the group's reference shape.
func (g Group) Frame() Frame {
	if len(g) == 0 {
		return Frame{}
	}
	if f, ok := g[0].(Frame); ok {
		return f
	}
	b := g[0].Bounds()
	return Frame{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

// Members returns the primitives after the frame.
func (g Group) Members() []Primitive {
	if len(g) == 0 {
		return nil
	}
	return g[1:]
}

// Bounds returns the box covering every primitive, frame included.
func (g Group) Bounds() geometry.Rect {
	if len(g) == 0 {
		return geometry.Rect{}
	}
	b := g[0].Bounds()
	for _, p := range g[1:] {
		b = b.Union(p.Bounds())
	}
	return b
}

// Translate returns a copy of the group moved by (dx, dy).
func (g Group) Translate(dx, dy float64) Group {
	out := make(Group, len(g))
	for i, p := range g {
		out[i] = p.Translate(dx, dy)
	}
	return out
}

// Count returns how many primitives of kind k the group holds.
func (g Group) Count(k Kind) int {
	n := 0
	for _, p := range g {
		if p.Kind() == k {
			n++
		}
	}
	return n
}

type wireVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireShape struct {
	Kind    Kind    `json:"kind"`
	Name    string  `json:"name,omitempty"`
	Content string  `json:"content,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

type wireLine struct {
	Kind           Kind      `json:"kind"`
	Start          wireVec   `json:"start"`
	End            wireVec   `json:"end"`
	StartCapFilled Cap       `json:"startCapFilled"`
	MidPoints      []wireVec `json:"midPoints"`
}

// MarshalJSON encodes the group as a list of objects tagged by "kind".
func (g Group) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(g))
	for _, p := range g {
		b, err := MarshalPrimitive(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

// MarshalPrimitive encodes a single primitive with its kind tag.
func MarshalPrimitive(p Primitive) ([]byte, error) {
	switch v := p.(type) {
	case Frame:
		return json.Marshal(wireShape{Kind: KindFrame, X: v.X, Y: v.Y, W: v.W, H: v.H})
	case Rect:
		return json.Marshal(wireShape{Kind: KindRect, Name: v.Name, X: v.X, Y: v.Y, W: v.W, H: v.H})
	case Rhombus:
		return json.Marshal(wireShape{Kind: KindRhombus, Name: v.Name, X: v.X, Y: v.Y, W: v.W, H: v.H})
	case Text:
		return json.Marshal(wireShape{Kind: KindText, Content: v.Content, X: v.X, Y: v.Y, W: v.Width, H: v.Height})
	case Line:
		mids := make([]wireVec, len(v.MidPoints))
		for i, m := range v.MidPoints {
			mids[i] = wireVec{m.X, m.Y}
		}
		return json.Marshal(wireLine{
			Kind:           KindLine,
			Start:          wireVec{v.Start.X, v.Start.Y},
			End:            wireVec{v.End.X, v.End.Y},
			StartCapFilled: v.StartCap,
			MidPoints:      mids,
		})
	default:
		return nil, fmt.Errorf("unknown primitive %T", p)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (g *Group) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*g = nil
		return nil
	}
	out := make(Group, 0, len(raw))
	for i, r := range raw {
		p, err := UnmarshalPrimitive(r)
		if err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
		out = append(out, p)
	}
	*g = out
	return nil
}

// UnmarshalPrimitive decodes one object written by MarshalPrimitive.
func UnmarshalPrimitive(b []byte) (Primitive, error) {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(b, &tag); err != nil {
		return nil, err
	}
	if tag.Kind == KindLine {
		var w wireLine
		if err := json.Unmarshal(b, &w); err != nil {
			return nil, err
		}
		l := Line{
			Start:    geometry.V(w.Start.X, w.Start.Y),
			End:      geometry.V(w.End.X, w.End.Y),
			StartCap: w.StartCapFilled,
		}
		if len(w.MidPoints) > 0 {
			l.MidPoints = make([]geometry.Vec2, len(w.MidPoints))
			for i, m := range w.MidPoints {
				l.MidPoints[i] = geometry.V(m.X, m.Y)
			}
		}
		return l, nil
	}

	var w wireShape
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case KindFrame:
		return Frame{X: w.X, Y: w.Y, W: w.W, H: w.H}, nil
	case KindRect:
		return Rect{Name: w.Name, X: w.X, Y: w.Y, W: w.W, H: w.H}, nil
	case KindRhombus:
		return Rhombus{Name: w.Name, X: w.X, Y: w.Y, W: w.W, H: w.H}, nil
	case KindText:
		return Text{Content: w.Content, X: w.X, Y: w.Y, Width: w.W, Height: w.H}, nil
	default:
		return nil, fmt.Errorf("unknown primitive kind %q", w.Kind)
	}
}
