// Package document is an in-memory diagram surface. It keeps placed groups
// in model coordinates together with the view transform a host applies when
// showing them.
package document

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"erd/diagram"
	"erd/geometry"
)

const DefaultGridSize = 10.0

var (
	ErrEmptyGroup       = errors.New("empty group")
	ErrUnknownPlacement = errors.New("unknown placement")
)

// View maps model coordinates to screen coordinates:
// screen = (model + translate) * scale.
type View struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

func (v View) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// ToScreen converts a model-space rectangle to screen space.
func (v View) ToScreen(r geometry.Rect) geometry.Rect {
	s := v.scale()
	return geometry.Rect{X: (r.X + v.TranslateX) * s, Y: (r.Y + v.TranslateY) * s, W: r.W * s, H: r.H * s}
}

// Placement is one inserted group. Group keeps the coordinates the layout
// engine produced; Offset moves it into the model.
type Placement struct {
	ID     string        `json:"id"`
	Title  string        `json:"title,omitempty"`
	Offset geometry.Vec2 `json:"offset"`
	Group  diagram.Group `json:"group"`
}

// Primitives returns the group moved to its model position.
func (p Placement) Primitives() diagram.Group {
	return p.Group.Translate(p.Offset.X, p.Offset.Y)
}

// Bounds returns the model-space box of the placed group.
func (p Placement) Bounds() geometry.Rect {
	return p.Group.Bounds().Translate(p.Offset.X, p.Offset.Y)
}

// Document is safe for concurrent use.
type Document struct {
	mu         sync.RWMutex
	view       View
	grid       float64
	placements []Placement
	selected   string
	entropy    io.Reader
	now        func() time.Time
}

type Option func(*Document)

func WithGridSize(size float64) Option {
	return func(d *Document) {
		if size > 0 {
			d.grid = size
		}
	}
}

func WithView(v View) Option {
	return func(d *Document) { d.view = v }
}

// WithClock sets the time source used for placement ids.
func WithClock(now func() time.Time) Option {
	return func(d *Document) { d.now = now }
}

// WithEntropy sets the randomness used for placement ids.
func WithEntropy(r io.Reader) Option {
	return func(d *Document) { d.entropy = r }
}

// New creates an empty document with unit scale and the default grid.
func New(opts ...Option) *Document {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	d := &Document{
		view:    View{Scale: 1},
		grid:    DefaultGridSize,
		entropy: ulid.Monotonic(src, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) newID() string {
	return ulid.MustNew(ulid.Timestamp(d.now()), d.entropy).String()
}

func (d *Document) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

func (d *Document) SetView(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view = v
}

// Pan shifts the view translation by (dx, dy) model units.
func (d *Document) Pan(dx, dy float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.TranslateX += dx
	d.view.TranslateY += dy
}

func (d *Document) GridSize() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.grid
}

// Bounds returns the model-space box around every placement, or an empty
// rectangle at the origin when nothing is placed.
func (d *Document) Bounds() geometry.Rect {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.boundsLocked()
}

func (d *Document) boundsLocked() geometry.Rect {
	if len(d.placements) == 0 {
		return geometry.Rect{}
	}
	b := d.placements[0].Bounds()
	for _, p := range d.placements[1:] {
		b = b.Union(p.Bounds())
	}
	return b
}

// VisibleBounds returns the content bounds in screen coordinates.
func (d *Document) VisibleBounds() geometry.Rect {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view.ToScreen(d.boundsLocked())
}

// Insert places g at model position at and returns the new placement id.
func (d *Document) Insert(g diagram.Group, at geometry.Vec2) (string, error) {
	if len(g) == 0 {
		return "", ErrEmptyGroup
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.newID()
	d.placements = append(d.placements, Placement{ID: id, Title: titleOf(g), Offset: at, Group: slices.Clone(g)})
	return id, nil
}

// titleOf returns the name of the first named shape in g.
func titleOf(g diagram.Group) string {
	for _, p := range g.Members() {
		switch s := p.(type) {
		case diagram.Rect:
			return s.Name
		case diagram.Rhombus:
			return s.Name
		}
	}
	return ""
}

// Select makes the placement with id the current selection.
func (d *Document) Select(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlacement, id)
	}
	d.selected = id
	return nil
}

// Selection returns the selected placement, if any.
func (d *Document) Selection() (Placement, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.indexLocked(d.selected)
	if i < 0 {
		return Placement{}, false
	}
	return d.placements[i], true
}

// Remove deletes a placement, clearing the selection if it pointed there.
func (d *Document) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlacement, id)
	}
	d.placements = slices.Delete(d.placements, i, i+1)
	if d.selected == id {
		d.selected = ""
	}
	return nil
}

func (d *Document) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(d.placements, func(p Placement) bool { return p.ID == id })
}

// Placements returns the placements in insertion order.
func (d *Document) Placements() []Placement {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.placements)
}

func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.placements)
}

// Snapshot is the serialisable state of a document.
type Snapshot struct {
	View       View        `json:"view"`
	GridSize   float64     `json:"gridSize"`
	Selected   string      `json:"selected,omitempty"`
	Placements []Placement `json:"placements"`
}

func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Snapshot{View: d.view, GridSize: d.grid, Selected: d.selected, Placements: slices.Clone(d.placements)}
	if s.Placements == nil {
		s.Placements = []Placement{}
	}
	return s
}
