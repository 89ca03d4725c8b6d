// Package canvas rasterizes diagram primitives onto a character matrix.
package canvas

import (
	"errors"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Common errors
var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrInvalidSize = errors.New("invalid canvas size")
)

// wideContinuation fills the cell after a double-width rune.
const wideContinuation = '\x00'

// Point is a cell position. Origin is top-left, y grows downward.
type Point struct {
	X, Y int
}

// MatrixCanvas is a rune matrix with line and text drawing.
//
// MatrixCanvas is NOT thread-safe for writes. Reads (Get, Size, String) are
// safe as long as no writes happen at the same time.
type MatrixCanvas struct {
	matrix [][]rune
	width  int
	height int
	merger *CharacterMerger
}

// NewMatrixCanvas creates a blank canvas of the given size.
func NewMatrixCanvas(width, height int) (*MatrixCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	matrix := make([][]rune, height)
	for y := range matrix {
		matrix[y] = make([]rune, width)
		for x := range matrix[y] {
			matrix[y][x] = ' '
		}
	}
	return &MatrixCanvas{
		matrix: matrix,
		width:  width,
		height: height,
		merger: NewCharacterMerger(),
	}, nil
}

// Size returns the width and height of the canvas.
func (c *MatrixCanvas) Size() (width, height int) {
	return c.width, c.height
}

func (c *MatrixCanvas) inside(p Point) bool {
	return p.X >= 0 && p.X < c.width && p.Y >= 0 && p.Y < c.height
}

// Get returns the character at p, or a space outside the canvas.
func (c *MatrixCanvas) Get(p Point) rune {
	if !c.inside(p) {
		return ' '
	}
	return c.matrix[p.Y][p.X]
}

// Set merges char into the cell at p using the line-junction rules.
func (c *MatrixCanvas) Set(p Point, char rune) error {
	if !c.inside(p) {
		return ErrOutOfBounds
	}
	c.matrix[p.Y][p.X] = c.merger.Merge(c.matrix[p.Y][p.X], char)
	return nil
}

// Put overwrites the cell at p, ignoring positions off the canvas.
func (c *MatrixCanvas) Put(p Point, char rune) {
	if c.inside(p) {
		c.matrix[p.Y][p.X] = char
	}
}

// Clear resets the canvas to all spaces.
func (c *MatrixCanvas) Clear() {
	for y := range c.matrix {
		for x := range c.matrix[y] {
			c.matrix[y][x] = ' '
		}
	}
}

// Lines returns each row with trailing spaces removed.
func (c *MatrixCanvas) Lines() []string {
	out := make([]string, c.height)
	var sb strings.Builder
	for y, row := range c.matrix {
		sb.Reset()
		for _, r := range row {
			if r == wideContinuation {
				continue
			}
			sb.WriteRune(r)
		}
		out[y] = strings.TrimRight(sb.String(), " ")
	}
	return out
}

// String returns the canvas rows joined by newlines.
func (c *MatrixCanvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// DrawHorizontalLine draws from x1 to x2 inclusive, clipped to the canvas.
func (c *MatrixCanvas) DrawHorizontalLine(x1, y, x2 int, char rune) error {
	if y < 0 || y >= c.height {
		return ErrOutOfBounds
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	x1 = max(x1, 0)
	x2 = min(x2, c.width-1)
	for x := x1; x <= x2; x++ {
		c.matrix[y][x] = c.merger.Merge(c.matrix[y][x], char)
	}
	return nil
}

// DrawVerticalLine draws from y1 to y2 inclusive, clipped to the canvas.
func (c *MatrixCanvas) DrawVerticalLine(x, y1, y2 int, char rune) error {
	if x < 0 || x >= c.width {
		return ErrOutOfBounds
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	y1 = max(y1, 0)
	y2 = min(y2, c.height-1)
	for y := y1; y <= y2; y++ {
		c.matrix[y][x] = c.merger.Merge(c.matrix[y][x], char)
	}
	return nil
}

// DrawLine draws a line between two cells using Bresenham's algorithm.
// Cells off the canvas are skipped.
func (c *MatrixCanvas) DrawLine(p1, p2 Point, char rune) {
	dx := abs(p2.X - p1.X)
	dy := abs(p2.Y - p1.Y)
	x, y := p1.X, p1.Y

	xInc := 1
	if p1.X > p2.X {
		xInc = -1
	}
	yInc := 1
	if p1.Y > p2.Y {
		yInc = -1
	}

	if dx > dy {
		err := dx / 2
		for x != p2.X {
			c.Set(Point{x, y}, char)
			err -= dy
			if err < 0 {
				y += yInc
				err += dx
			}
			x += xInc
		}
	} else {
		err := dy / 2
		for y != p2.Y {
			c.Set(Point{x, y}, char)
			err -= dx
			if err < 0 {
				x += xInc
				err += dy
			}
			y += yInc
		}
	}
	c.Set(p2, char)
}

// DrawText writes text starting at (x, y), overwriting what is there.
// Double-width runes take two cells; zero-width runes are dropped.
func (c *MatrixCanvas) DrawText(x, y int, text string) error {
	if y < 0 || y >= c.height {
		return ErrOutOfBounds
	}
	cur := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if w == 2 && cur >= 0 && cur+1 >= c.width {
			break
		}
		if cur >= 0 && cur < c.width {
			c.matrix[y][cur] = r
			if w == 2 {
				c.matrix[y][cur+1] = wideContinuation
			}
		}
		cur += w
		if cur >= c.width {
			break
		}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
