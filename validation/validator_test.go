package validation

import (
	"math"
	"testing"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
	"erd/metrics"
	"erd/parser"
)

func rectGroup(extra ...diagram.Primitive) diagram.Group {
	prims := append([]diagram.Primitive{diagram.Rect{Name: "E", X: -50, Y: -25, W: 100, H: 50}}, extra...)
	return diagram.NewGroup(prims, 50, 25)
}

func kinds(issues []Issue) map[Kind]int {
	out := map[Kind]int{}
	for _, i := range issues {
		out[i.Kind]++
	}
	return out
}

func TestCheckCleanGroup(t *testing.T) {
	g := rectGroup(
		diagram.Line{Start: geometry.V(50, 0), End: geometry.V(75, 0), StartCap: diagram.CapFilled},
		diagram.Text{Content: "id", X: 80, Y: -10, Width: 12, Height: 20},
		diagram.Text{Content: "name", X: 80, Y: 20, Width: 24, Height: 20},
	)
	if issues := Check(g); len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestCheckEmptyGroup(t *testing.T) {
	issues := Check(nil)
	if len(issues) != 1 || issues[0].Kind != KindEmptyGroup || !HasErrors(issues) {
		t.Errorf("Check(nil) = %v", issues)
	}
}

func TestCheckLabelOverlap(t *testing.T) {
	g := rectGroup(
		diagram.Text{Content: "a", X: 80, Y: 0, Width: 30, Height: 20},
		diagram.Text{Content: "b", X: 100, Y: 10, Width: 30, Height: 20},
		diagram.Text{Content: "c", X: 80, Y: 20, Width: 30, Height: 20},
	)
	issues := Check(g)
	got := kinds(issues)
	if got[KindLabelOverlap] != 2 {
		t.Fatalf("want a/b and b/c overlaps, got %v", issues)
	}
	if HasErrors(issues) {
		t.Error("overlaps are warnings")
	}
	first := issues[0]
	if first.Index != 2 || first.Other != 3 {
		t.Errorf("first overlap between %d and %d, want 2 and 3", first.Index, first.Other)
	}
}

func TestCheckLabelOnRectangle(t *testing.T) {
	g := rectGroup(diagram.Text{Content: "inside", X: 0, Y: -10, Width: 30, Height: 20})
	if got := kinds(Check(g)); got[KindLabelOnShape] != 1 {
		t.Errorf("label inside the rectangle not reported: %v", got)
	}
}

func TestCheckLabelBesideRhombus(t *testing.T) {
	rh := diagram.Rhombus{Name: "R", W: 100, H: 50}
	corner := diagram.NewGroup([]diagram.Primitive{rh, diagram.Text{Content: "corner", X: 0, Y: 0, Width: 10, Height: 5}}, 0, 0)
	if issues := Check(corner); len(issues) != 0 {
		t.Errorf("label in the bounding-box corner is clear of the outline: %v", issues)
	}
	crossing := diagram.NewGroup([]diagram.Primitive{rh, diagram.Text{Content: "edge", X: 20, Y: 5, Width: 20, Height: 5}}, 0, 0)
	if got := kinds(Check(crossing)); got[KindLabelOnShape] != 1 {
		t.Errorf("label across the edge not reported: %v", got)
	}
}

func TestCheckStructure(t *testing.T) {
	tests := []struct {
		name string
		g    diagram.Group
		want Kind
	}{
		{"no frame", diagram.Group{diagram.Rect{W: 10, H: 10}}, KindMissingFrame},
		{"no shape", diagram.Group{diagram.Frame{W: 10, H: 10}, diagram.Text{Content: "x"}}, KindMissingShape},
		{"frame mismatch", diagram.Group{diagram.Frame{W: 10, H: 10}, diagram.Rect{W: 20, H: 10}}, KindFrameSize},
		{"nan line", rectGroup(diagram.Line{Start: geometry.V(math.NaN(), 0), End: geometry.V(1, 1)}), KindBadGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Check(tt.g)
			if kinds(issues)[tt.want] == 0 {
				t.Errorf("missing %s in %v", tt.want, issues)
			}
			if !HasErrors(issues) {
				t.Error("structural problems are errors")
			}
		})
	}
}

func TestCheckLaidOutDescriptions(t *testing.T) {
	face, err := metrics.Default().Face(metrics.DefaultFont, false, false)
	if err != nil {
		t.Fatal(err)
	}
	eng := layout.New(face, layout.DefaultConfig())
	for _, text := range []string{
		"entity Employee(id pk, firstName, lastName, email, hireDate, salary)W",
		"entity Order(orderId pk, lineNo pk, qty)NS",
		"relation Works_On(hours)[n 1n, s nm]",
	} {
		g, err := eng.Layout(parser.MustParse(text))
		if err != nil {
			t.Fatal(err)
		}
		if issues := Check(g); HasErrors(issues) {
			t.Errorf("%s: %v", text, issues)
		}
	}
}
