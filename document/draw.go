package document

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"erd/core"
	"erd/diagram"
	"erd/geometry"
	"erd/parser"
)

// Host is the diagram surface Draw inserts into. *Document implements it.
type Host interface {
	VisibleBounds() geometry.Rect
	View() View
	GridSize() float64
	Insert(g diagram.Group, at geometry.Vec2) (string, error)
	Select(id string) error
}

// Layouter turns a description into a group. *layout.Engine implements it.
type Layouter interface {
	Layout(core.Description) (diagram.Group, error)
}

// gridMargin is how many grid cells new content keeps from existing content.
const gridMargin = 4

// InsertionPoint returns where the next group goes: level with the left edge
// of the visible content and below its bottom edge, a few grid cells away.
// bounds are in screen coordinates and the result is in model coordinates,
// rounded up to whole units.
func InsertionPoint(bounds geometry.Rect, v View, grid float64) geometry.Vec2 {
	s := v.scale()
	x := math.Max(0, bounds.X/s-v.TranslateX) + gridMargin*grid
	y := math.Max(0, (bounds.Y+bounds.H)/s-v.TranslateY) + gridMargin*grid
	return geometry.V(math.Ceil(x), math.Ceil(y))
}

// Draw lays out desc, inserts the group into h at the insertion point and
// selects it. It returns the new placement id.
func Draw(h Host, l Layouter, desc core.Description) (string, error) {
	g, err := l.Layout(desc)
	if err != nil {
		return "", fmt.Errorf("layout: %w", err)
	}
	at := InsertionPoint(h.VisibleBounds(), h.View(), h.GridSize())
	id, err := h.Insert(g, at)
	if err != nil {
		return "", fmt.Errorf("insert %q: %w", desc.Title(), err)
	}
	if err := h.Select(id); err != nil {
		return "", err
	}
	return id, nil
}

// DrawText parses a single description and draws it.
func DrawText(h Host, l Layouter, text string) (string, error) {
	desc, err := parser.Parse(text)
	if err != nil {
		return "", err
	}
	return Draw(h, l, desc)
}

// ReadScript draws every description in r. A description starts on a line
// whose first word is a keyword and runs until the next such line once its
// parentheses are closed, so attribute lists and styles may wrap. Blank
// lines and lines starting with # are skipped. It stops at the first
// failing description, reporting the line it starts on, and returns the ids
// drawn so far.
func ReadScript(r io.Reader, h Host, l Layouter) ([]string, error) {
	var (
		ids     []string
		pending []string
		start   int
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		text := strings.Join(pending, "\n")
		pending = pending[:0]
		id, err := DrawText(h, l, text)
		if err != nil {
			return fmt.Errorf("line %d: %w", start, err)
		}
		ids = append(ids, id)
		return nil
	}

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(pending) > 0 && !unclosed(pending) && startsDescription(line) {
			if err := flush(); err != nil {
				return ids, err
			}
		}
		if len(pending) == 0 {
			start = n
		}
		pending = append(pending, line)
	}
	if err := sc.Err(); err != nil {
		return ids, fmt.Errorf("read script: %w", err)
	}
	if err := flush(); err != nil {
		return ids, err
	}
	return ids, nil
}

func unclosed(lines []string) bool {
	open := 0
	for _, l := range lines {
		open += strings.Count(l, "(") - strings.Count(l, ")")
	}
	return open > 0
}

func startsDescription(line string) bool {
	word, _, _ := strings.Cut(line, " ")
	word, _, _ = strings.Cut(word, "\t")
	return parser.IsKeyword(word)
}
