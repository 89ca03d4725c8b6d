// Package metrics measures rendered text width. Table fonts use a static
// per-character advance table; outline fonts are measured from the Go font
// family shipped with golang.org/x/image.
package metrics

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFont is used when Options.Font is empty.
	DefaultFont = "arial"
	// DefaultSize is used when Options.Size is zero.
	DefaultSize = 12.0
)

// ErrUnsupportedFont is returned for fonts missing from the registry.
var ErrUnsupportedFont = errors.New("font is not supported")

//go:embed widths.yaml
var widthsYAML []byte

// Options selects the font a string is measured in.
type Options struct {
	Font   string
	Size   float64
	Bold   bool
	Italic bool
}

func (o Options) withDefaults() Options {
	if o.Font == "" {
		o.Font = DefaultFont
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	o.Font = strings.ToLower(strings.TrimSpace(o.Font))
	return o
}

func (o Options) variant() int {
	v := 0
	if o.Bold {
		v++
	}
	if o.Italic {
		v += 2
	}
	return v
}

type table struct {
	widths   map[rune][4]float64
	fallback [4]float64
}

type tableFile struct {
	Fonts map[string]struct {
		Aliases  []string             `yaml:"aliases"`
		Fallback string               `yaml:"fallback"`
		Widths   map[string][]float64 `yaml:"widths"`
	} `yaml:"fonts"`
}

// outline holds the four TTF variants of an outline family.
type outline [4][]byte

type faceKey struct {
	font    string
	variant int
	size    float64
}

// Registry maps font names to measuring strategies. It is safe for
// concurrent use.
type Registry struct {
	tables   map[string]*table
	outlines map[string]outline
	names    []string

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded width table. It
// panics if the embedded table is malformed.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = NewRegistry(widthsYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("metrics: embedded width table: %v", defaultErr))
	}
	return defaultReg
}

// NewRegistry builds a registry from a YAML width table. The Go outline
// fonts are always registered as "go" and "go mono".
func NewRegistry(tableYAML []byte) (*Registry, error) {
	var file tableFile
	if err := yaml.Unmarshal(tableYAML, &file); err != nil {
		return nil, fmt.Errorf("parse width table: %w", err)
	}

	r := &Registry{
		tables: make(map[string]*table),
		outlines: map[string]outline{
			"go":      {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
			"go mono": {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
		},
		faces: make(map[faceKey]font.Face),
	}
	r.names = append(r.names, "go", "go mono")

	for name, def := range file.Fonts {
		t := &table{widths: make(map[rune][4]float64, len(def.Widths))}
		for ch, w := range def.Widths {
			runes := []rune(ch)
			if len(runes) != 1 {
				return nil, fmt.Errorf("font %s: key %q is not a single character", name, ch)
			}
			if len(w) != 4 {
				return nil, fmt.Errorf("font %s: character %q has %d widths, want 4", name, ch, len(w))
			}
			t.widths[runes[0]] = [4]float64{w[0], w[1], w[2], w[3]}
		}
		fb := []rune(def.Fallback)
		if len(fb) != 1 {
			return nil, fmt.Errorf("font %s: fallback must be one character", name)
		}
		var ok bool
		if t.fallback, ok = t.widths[fb[0]]; !ok {
			return nil, fmt.Errorf("font %s: fallback %q has no width", name, def.Fallback)
		}

		name = strings.ToLower(name)
		r.tables[name] = t
		r.names = append(r.names, name)
		for _, alias := range def.Aliases {
			r.tables[strings.ToLower(alias)] = t
			r.names = append(r.names, strings.ToLower(alias))
		}
	}
	sort.Strings(r.names)
	return r, nil
}

// Fonts lists every supported font name, aliases included.
func (r *Registry) Fonts() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Supports reports whether name is a registered font.
func (r *Registry) Supports(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := r.tables[name]; ok {
		return true
	}
	_, ok := r.outlines[name]
	return ok
}

// Width returns the rendered width of text in pixels. Control characters
// contribute nothing.
func (r *Registry) Width(text string, opts Options) (float64, error) {
	opts = opts.withDefaults()

	if t, ok := r.tables[opts.Font]; ok {
		v := opts.variant()
		total := 0.0
		for _, ch := range text {
			if ch < 0x20 {
				continue
			}
			w, ok := t.widths[ch]
			if !ok {
				w = t.fallback
			}
			total += w[v]
		}
		return total * opts.Size / 100, nil
	}

	if _, ok := r.outlines[opts.Font]; ok {
		clean := strings.Map(func(ch rune) rune {
			if ch < 0x20 {
				return -1
			}
			return ch
		}, text)
		return r.measureOutline(clean, opts)
	}

	return 0, fmt.Errorf("%w: %q (supported fonts are: %s)", ErrUnsupportedFont, opts.Font, strings.Join(r.names, ", "))
}

// measureOutline holds the registry lock for the whole measurement since
// opentype faces keep per-face scratch buffers.
func (r *Registry) measureOutline(text string, opts Options) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	face, err := r.face(opts)
	if err != nil {
		return 0, err
	}
	return float64(font.MeasureString(face, text)) / 64, nil
}

// face must be called with r.mu held.
func (r *Registry) face(opts Options) (font.Face, error) {
	key := faceKey{font: opts.Font, variant: opts.variant(), size: opts.Size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	parsed, err := opentype.Parse(r.outlines[opts.Font][key.variant])
	if err != nil {
		return nil, fmt.Errorf("parse %s font: %w", opts.Font, err)
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    opts.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s face: %w", opts.Font, err)
	}
	r.faces[key] = f
	return f, nil
}

// Width measures text with the default registry.
func Width(text string, opts Options) (float64, error) {
	return Default().Width(text, opts)
}

// Face is a font bound to a registry; the layout engine measures labels
// through it.
type Face struct {
	reg    *Registry
	font   string
	bold   bool
	italic bool
}

// Face returns a measurer for the given font. The font is validated once
// here so Width never fails afterwards.
func (r *Registry) Face(name string, bold, italic bool) (*Face, error) {
	opts := Options{Font: name, Bold: bold, Italic: italic}.withDefaults()
	if _, err := r.Width("x", opts); err != nil {
		return nil, err
	}
	return &Face{reg: r, font: opts.Font, bold: bold, italic: italic}, nil
}

// Name returns the font name the face measures with.
func (f *Face) Name() string {
	return f.font
}

// Width returns the width of text at the given size.
func (f *Face) Width(text string, size float64) float64 {
	w, _ := f.reg.Width(text, Options{Font: f.font, Size: size, Bold: f.bold, Italic: f.italic})
	return w
}
