package canvas

import (
	"strings"
	"testing"

	"erd/diagram"
	"erd/geometry"
)

func TestMatrixCanvas_Creation(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"Small", 10, 5, false},
		{"Wide", 100, 1, false},
		{"Zero width", 0, 5, true},
		{"Negative height", 3, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewMatrixCanvas(tt.width, tt.height)
			if tt.wantErr {
				if err != ErrInvalidSize {
					t.Fatalf("err = %v, want ErrInvalidSize", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			w, h := c.Size()
			if w != tt.width || h != tt.height {
				t.Errorf("Size() = (%d, %d), want (%d, %d)", w, h, tt.width, tt.height)
			}
			if strings.TrimSpace(c.String()) != "" {
				t.Error("new canvas is not blank")
			}
		})
	}
}

func TestMatrixCanvas_SetMerges(t *testing.T) {
	c, _ := NewMatrixCanvas(5, 5)
	if err := c.Set(Point{9, 0}, 'x'); err != ErrOutOfBounds {
		t.Errorf("Set outside = %v", err)
	}
	c.Set(Point{2, 2}, '─')
	c.Set(Point{2, 2}, '│')
	if got := c.Get(Point{2, 2}); got != '┼' {
		t.Errorf("merged cell = %q, want ┼", got)
	}
	c.Set(Point{1, 1}, '-')
	c.Set(Point{1, 1}, '|')
	if got := c.Get(Point{1, 1}); got != '+' {
		t.Errorf("ascii merge = %q, want +", got)
	}
	if got := c.Get(Point{-1, 0}); got != ' ' {
		t.Errorf("Get outside = %q", got)
	}
}

func TestMatrixCanvas_DrawLine(t *testing.T) {
	c, _ := NewMatrixCanvas(4, 4)
	c.DrawLine(Point{0, 0}, Point{3, 3}, '\\')
	want := []string{`\`, ` \`, `  \`, `   \`}
	for i, line := range c.Lines() {
		if line != want[i] {
			t.Errorf("row %d = %q, want %q", i, line, want[i])
		}
	}
	c.Clear()
	c.DrawLine(Point{-2, 1}, Point{5, 1}, '-')
	if got := c.Lines()[1]; got != "----" {
		t.Errorf("clipped line = %q", got)
	}
}

func TestMatrixCanvas_DrawTextWide(t *testing.T) {
	c, _ := NewMatrixCanvas(6, 1)
	c.DrawText(0, 0, "日本語")
	if got := c.String(); got != "日本語" {
		t.Errorf("wide text = %q", got)
	}
	c.Clear()
	c.DrawText(3, 0, "日本")
	if got := c.String(); got != "   日" {
		t.Errorf("clipped wide text = %q", got)
	}
	if err := c.DrawText(0, 4, "x"); err != ErrOutOfBounds {
		t.Errorf("DrawText below canvas = %v", err)
	}
}

func TestRenderRectangle(t *testing.T) {
	g := diagram.NewGroup([]diagram.Primitive{diagram.Rect{Name: "Emp", W: 96, H: 48}}, 0, 0)
	c, err := Render(g, 6, 12, UnicodeStyle)
	if err != nil {
		t.Fatal(err)
	}
	lines := c.Lines()
	if len(lines) != 5 {
		t.Fatalf("got %d rows, want 5:\n%s", len(lines), c)
	}
	if want := "┌" + strings.Repeat("─", 15) + "┐"; lines[0] != want {
		t.Errorf("top = %q, want %q", lines[0], want)
	}
	if want := "└" + strings.Repeat("─", 15) + "┘"; lines[4] != want {
		t.Errorf("bottom = %q, want %q", lines[4], want)
	}
	if want := "│      Emp      │"; lines[2] != want {
		t.Errorf("middle = %q, want %q", lines[2], want)
	}
}

func TestRenderLineWithCap(t *testing.T) {
	prims := []diagram.Primitive{
		diagram.Line{Start: geometry.V(0, 0), End: geometry.V(60, 0), StartCap: diagram.CapHollow},
	}
	c, err := Render(prims, 6, 12, UnicodeStyle)
	if err != nil {
		t.Fatal(err)
	}
	if want := "○" + strings.Repeat("─", 10); c.String() != want {
		t.Errorf("line = %q, want %q", c.String(), want)
	}

	prims[0] = diagram.Line{Start: geometry.V(0, 0), End: geometry.V(0, 36), StartCap: diagram.CapFilled}
	c, _ = Render(prims, 6, 12, ASCIIStyle)
	if want := "*\n|\n|\n|"; c.String() != want {
		t.Errorf("vertical line = %q, want %q", c.String(), want)
	}
}

func TestRenderTextOverLine(t *testing.T) {
	prims := []diagram.Primitive{
		diagram.Line{Start: geometry.V(0, 10), End: geometry.V(60, 10)},
		diagram.Text{Content: "ab", X: 12, Y: 0, Width: 12, Height: 20},
	}
	c, err := Render(prims, 6, 12, ASCIIStyle)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Lines()[0]; got != "--ab-------" {
		t.Errorf("text over line = %q", got)
	}
}

func TestRenderNothing(t *testing.T) {
	if _, err := Render(nil, 6, 12, UnicodeStyle); err != ErrNothingToDraw {
		t.Errorf("err = %v", err)
	}
}

func TestSegmentChar(t *testing.T) {
	r := &Rasterizer{CellWidth: 1, CellHeight: 1, Style: ASCIIStyle}
	tests := []struct {
		d    geometry.Vec2
		want rune
	}{
		{geometry.V(10, 1), '-'},
		{geometry.V(-1, 10), '|'},
		{geometry.V(5, 5), '\\'},
		{geometry.V(-5, -5), '\\'},
		{geometry.V(5, -5), '/'},
	}
	for _, tt := range tests {
		if got := r.segmentChar(tt.d); got != tt.want {
			t.Errorf("segmentChar(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
