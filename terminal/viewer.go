// Package terminal shows a document in a full-screen terminal and lets the
// user pan around it and draw new descriptions into it.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"erd/canvas"
	"erd/document"
	"erd/geometry"
)

const helpLine = "←↑↓→ pan  +/- zoom  0 reset  tab select  x delete  : draw  q quit"

type mode int

const (
	modeNormal mode = iota
	modeCommand
)

// Viewer draws a document onto a tcell screen. Each cell covers
// CellWidth × CellHeight screen units of the document's view.
type Viewer struct {
	screen     tcell.Screen
	doc        *document.Document
	layout     document.Layouter
	cellWidth  float64
	cellHeight float64
	style      canvas.Style
	logger     *slog.Logger

	mode   mode
	input  []rune
	status string
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithCellSize sets the screen units covered by one terminal cell.
func WithCellSize(w, h float64) Option {
	return func(v *Viewer) {
		if w > 0 && h > 0 {
			v.cellWidth, v.cellHeight = w, h
		}
	}
}

// WithStyle selects the line-drawing characters.
func WithStyle(s canvas.Style) Option {
	return func(v *Viewer) { v.style = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) { v.logger = l }
}

// New creates a viewer. The screen is initialised by Run.
func New(screen tcell.Screen, doc *document.Document, l document.Layouter, opts ...Option) *Viewer {
	v := &Viewer{
		screen:     screen,
		doc:        doc,
		layout:     l,
		cellWidth:  6,
		cellHeight: 12,
		style:      canvas.UnicodeStyle,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run initialises the screen and processes events until the user quits or
// ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	if err := v.screen.Init(); err != nil {
		return fmt.Errorf("failed to setup terminal: %w", err)
	}
	defer v.screen.Fini()

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	defer close(quit)
	go v.screen.ChannelEvents(events, quit)

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if v.Handle(ev) {
				return nil
			}
			v.Draw()
		}
	}
}

// Handle applies one event and reports whether the viewer should exit.
func (v *Viewer) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		if v.mode == modeCommand {
			v.handleCommandKey(ev)
			return false
		}
		return v.handleNormalKey(ev)
	}
	return false
}

func (v *Viewer) handleNormalKey(ev *tcell.EventKey) bool {
	s := scaleOf(v.doc.View())
	stepX, stepY := v.cellWidth/s, v.cellHeight/s

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyLeft:
		v.doc.Pan(stepX, 0)
	case tcell.KeyRight:
		v.doc.Pan(-stepX, 0)
	case tcell.KeyUp:
		v.doc.Pan(0, stepY)
	case tcell.KeyDown:
		v.doc.Pan(0, -stepY)
	case tcell.KeyTab:
		v.cycleSelection()
	case tcell.KeyDelete:
		v.removeSelection()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'h':
			v.doc.Pan(stepX, 0)
		case 'l':
			v.doc.Pan(-stepX, 0)
		case 'k':
			v.doc.Pan(0, stepY)
		case 'j':
			v.doc.Pan(0, -stepY)
		case '+', '=':
			v.zoom(1.25)
		case '-':
			v.zoom(0.8)
		case '0':
			v.doc.SetView(document.View{Scale: 1})
		case 'x':
			v.removeSelection()
		case ':':
			v.mode = modeCommand
			v.input = v.input[:0]
			v.status = ""
		}
	}
	return false
}

func (v *Viewer) handleCommandKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.mode = modeNormal
		v.input = v.input[:0]
	case tcell.KeyEnter:
		v.mode = modeNormal
		v.submit(string(v.input))
		v.input = v.input[:0]
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.input); n > 0 {
			v.input = v.input[:n-1]
		}
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
	}
}

func (v *Viewer) submit(text string) {
	if text == "" {
		return
	}
	id, err := document.DrawText(v.doc, v.layout, text)
	if err != nil {
		v.logger.Debug("draw failed", "input", text, "error", err)
		v.status = "error: " + err.Error()
		return
	}
	if p, ok := v.doc.Selection(); ok {
		v.status = fmt.Sprintf("inserted %s", p.Title)
	}
	v.logger.Debug("drawn", "id", id)
}

func (v *Viewer) zoom(factor float64) {
	view := v.doc.View()
	view.Scale = scaleOf(view) * factor
	v.doc.SetView(view)
}

func (v *Viewer) cycleSelection() {
	ps := v.doc.Placements()
	if len(ps) == 0 {
		return
	}
	next := 0
	if cur, ok := v.doc.Selection(); ok {
		for i, p := range ps {
			if p.ID == cur.ID {
				next = (i + 1) % len(ps)
				break
			}
		}
	}
	id := ps[next].ID
	if err := v.doc.Select(id); err != nil {
		v.logger.Debug("select failed", "id", id, "error", err)
		v.status = "error: " + err.Error()
		return
	}
	v.logger.Debug("selected", "id", id)
	v.status = ps[next].Title
}

func (v *Viewer) removeSelection() {
	p, ok := v.doc.Selection()
	if !ok {
		return
	}
	if err := v.doc.Remove(p.ID); err == nil {
		v.status = "removed " + p.Title
	}
}

// Draw paints the document and the status line, then shows the screen.
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	if w > 0 && h > 1 {
		v.drawDocument(w, h-1)
		v.drawStatus(w, h-1)
	}
	v.screen.Show()
}

// rasterizer maps model coordinates to terminal cells under the current view.
func (v *Viewer) rasterizer() *canvas.Rasterizer {
	view := v.doc.View()
	s := scaleOf(view)
	return &canvas.Rasterizer{
		CellWidth:  v.cellWidth / s,
		CellHeight: v.cellHeight / s,
		Origin:     geometry.V(-view.TranslateX, -view.TranslateY),
		Style:      v.style,
	}
}

func (v *Viewer) drawDocument(w, h int) {
	c, err := canvas.NewMatrixCanvas(w, h)
	if err != nil {
		return
	}
	r := v.rasterizer()
	for _, p := range v.doc.Placements() {
		r.Draw(c, p.Primitives())
	}

	normal := tcell.StyleDefault
	highlight := normal.Foreground(tcell.ColorYellow).Bold(true)
	var lo, hi canvas.Point
	sel, selected := v.doc.Selection()
	if selected {
		b := sel.Bounds()
		lo, hi = r.Cell(geometry.V(b.X, b.Y)), r.Cell(b.Max())
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ch := c.Get(canvas.Point{X: x, Y: y})
			if ch == 0 {
				continue
			}
			st := normal
			if selected && x >= lo.X && x <= hi.X && y >= lo.Y && y <= hi.Y {
				st = highlight
			}
			v.screen.SetContent(x, y, ch, nil, st)
		}
	}
}

func (v *Viewer) drawStatus(w, y int) {
	st := tcell.StyleDefault.Reverse(true)
	text := helpLine
	switch {
	case v.mode == modeCommand:
		text = ":" + string(v.input)
	case v.status != "":
		text = v.status
	}
	right := fmt.Sprintf(" %d ", v.doc.Len())
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, st)
	}
	x := 0
	for _, ch := range text {
		if x >= w-len(right) {
			break
		}
		v.screen.SetContent(x, y, ch, nil, st)
		x++
	}
	for i, ch := range right {
		v.screen.SetContent(w-len(right)+i, y, ch, nil, st)
	}
	if v.mode == modeCommand {
		v.screen.ShowCursor(min(len(v.input)+1, w-1), y)
	} else {
		v.screen.HideCursor()
	}
}

func scaleOf(view document.View) float64 {
	if view.Scale <= 0 {
		return 1
	}
	return view.Scale
}
