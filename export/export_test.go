package export_test

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"image/png"
	"math"
	"strings"
	"testing"

	"erd/canvas"
	"erd/diagram"
	"erd/document"
	"erd/export"
	"erd/layout"
	"erd/metrics"
)

func sampleDocument(t *testing.T, lines ...string) *document.Document {
	t.Helper()
	face, err := metrics.Default().Face(metrics.DefaultFont, false, false)
	if err != nil {
		t.Fatal(err)
	}
	doc := document.New()
	eng := layout.New(face, layout.DefaultConfig())
	for _, l := range lines {
		if _, err := document.DrawText(doc, eng, l); err != nil {
			t.Fatalf("draw %q: %v", l, err)
		}
	}
	return doc
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"ascii", export.FormatASCII, false},
		{"text", export.FormatASCII, false},
		{"txt", export.FormatASCII, false},
		{"json", export.FormatJSON, false},
		{"svg", export.FormatSVG, false},
		{"drawio", export.FormatDrawIO, false},
		{"xml", export.FormatDrawIO, false},
		{"png", export.FormatPNG, false},
		{"mermaid", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewExporter(t *testing.T) {
	descriptions := export.FormatDescriptions()
	for _, format := range export.AvailableFormats() {
		t.Run(string(format), func(t *testing.T) {
			exporter, err := export.NewExporter(format)
			if err != nil {
				t.Fatalf("NewExporter(%v) returned error: %v", format, err)
			}
			if exporter.GetFileExtension() == "" || exporter.GetFormatName() == "" || exporter.ContentType() == "" {
				t.Errorf("%v exporter is missing metadata", format)
			}
			if descriptions[format] == "" {
				t.Errorf("%v has no description", format)
			}
		})
	}

	if _, err := export.NewExporter("invalid"); err == nil {
		t.Error("NewExporter with invalid format should return error")
	}
}

func TestExportersRejectEmptyDocuments(t *testing.T) {
	for _, format := range []export.Format{export.FormatASCII, export.FormatSVG, export.FormatDrawIO, export.FormatPNG} {
		exporter, _ := export.NewExporter(format)
		if _, err := exporter.Export(document.New()); err != export.ErrEmptyDocument {
			t.Errorf("%v: err = %v, want ErrEmptyDocument", format, err)
		}
		if _, err := exporter.Export(nil); err != export.ErrNilDocument {
			t.Errorf("%v: err = %v, want ErrNilDocument", format, err)
		}
	}
}

func TestASCIIExporter(t *testing.T) {
	doc := sampleDocument(t, "entity Employee(id pk, firstName, lastName)")
	exporter, _ := export.NewExporterWithOptions(export.FormatASCII, export.Options{Style: canvas.ASCIIStyle})
	out, err := exporter.Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	for _, want := range []string{"Employee", "id", "firstName", "lastName", "*", "o", "+---"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestJSONExporter(t *testing.T) {
	doc := sampleDocument(t, "relation Works_On(hours)[n 1n, s nm]")
	exporter := export.NewJSONExporter()
	out, err := exporter.Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	var snap struct {
		GridSize   float64 `json:"gridSize"`
		Selected   string  `json:"selected"`
		Placements []struct {
			ID    string            `json:"id"`
			Title string            `json:"title"`
			Group []json.RawMessage `json:"group"`
		} `json:"placements"`
	}
	if err := json.Unmarshal(out, &snap); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(snap.Placements) != 1 || snap.Placements[0].Title != "Works_On" || len(snap.Placements[0].Group) != 8 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.Selected != snap.Placements[0].ID {
		t.Error("selection not exported")
	}

	empty, err := exporter.Export(document.New())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(empty), `"placements": []`) {
		t.Errorf("empty document should export an empty list: %s", empty)
	}
}

func TestSVGExporter(t *testing.T) {
	doc := sampleDocument(t, "entity Employee(id pk, name)", "relation Works_On(hours)")
	exporter, _ := export.NewExporter(export.FormatSVG)
	out, err := exporter.Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "</svg>") {
		t.Fatalf("not an svg document:\n%s", s)
	}
	if n := strings.Count(s, "<g id="); n != 2 {
		t.Errorf("got %d placement groups, want 2", n)
	}
	for _, want := range []string{"Employee", "Works_On", "hours", "(1,N)", "<polygon", "<circle"} {
		if !strings.Contains(s, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if err := xml.Unmarshal(out, new(struct{})); err != nil {
		t.Errorf("svg is not well-formed xml: %v", err)
	}
}

func TestDrawIOExporter(t *testing.T) {
	doc := sampleDocument(t, "entity Employee(id pk, name)", "relation Works_On(hours)")
	out, err := export.NewDrawIOExporter().Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	var f struct {
		Cells []struct {
			ID     string `xml:"id,attr"`
			Parent string `xml:"parent,attr"`
			Edge   string `xml:"edge,attr"`
			Style  string `xml:"style,attr"`
		} `xml:"diagram>mxGraphModel>root>mxCell"`
	}
	if err := xml.Unmarshal(out, &f); err != nil {
		t.Fatalf("invalid xml: %v", err)
	}

	ps := doc.Placements()
	want := 2
	for _, p := range ps {
		want += len(p.Group)
	}
	if len(f.Cells) != want {
		t.Errorf("got %d cells, want %d", len(f.Cells), want)
	}

	children := map[string]int{}
	filled := 0
	for _, c := range f.Cells {
		children[c.Parent]++
		if strings.Contains(c.Style, "startFill=1") {
			filled++
		}
	}
	for _, p := range ps {
		if children[p.ID] != len(p.Group)-1 {
			t.Errorf("placement %s has %d children, want %d", p.Title, children[p.ID], len(p.Group)-1)
		}
	}
	if filled != 1 {
		t.Errorf("got %d filled caps, want 1", filled)
	}
}

func TestDrawIOCapAtSourcePoint(t *testing.T) {
	doc := sampleDocument(t, "entity Employee(id pk, name)")
	out, err := export.NewDrawIOExporter().Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	type point struct {
		X  float64 `xml:"x,attr"`
		Y  float64 `xml:"y,attr"`
		As string  `xml:"as,attr"`
	}
	var f struct {
		Cells []struct {
			Style  string  `xml:"style,attr"`
			Points []point `xml:"mxGeometry>mxPoint"`
		} `xml:"diagram>mxGraphModel>root>mxCell"`
	}
	if err := xml.Unmarshal(out, &f); err != nil {
		t.Fatalf("invalid xml: %v", err)
	}

	var key diagram.Line
	found := false
	for _, p := range doc.Placements()[0].Group.Members() {
		if l, ok := p.(diagram.Line); ok && l.StartCap == diagram.CapFilled {
			key, found = l, true
		}
	}
	if !found {
		t.Fatal("no filled key line in the layout")
	}

	for _, c := range f.Cells {
		if !strings.Contains(c.Style, "startFill=1") {
			continue
		}
		got := map[string]point{}
		for _, p := range c.Points {
			got[p.As] = p
		}
		if src := got["sourcePoint"]; src.X != key.Start.X || src.Y != key.Start.Y {
			t.Errorf("sourcePoint = (%v, %v), want line start %v", src.X, src.Y, key.Start)
		}
		if dst := got["targetPoint"]; dst.X != key.End.X || dst.Y != key.End.Y {
			t.Errorf("targetPoint = (%v, %v), want line end %v", dst.X, dst.Y, key.End)
		}
		return
	}
	t.Error("no cell carries the filled cap")
}

func TestPNGExporter(t *testing.T) {
	doc := sampleDocument(t, "entity Employee(id pk, name)")
	exporter, _ := export.NewExporterWithOptions(export.FormatPNG, export.Options{Scale: 2, Padding: 5})
	out, err := exporter.Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}

	b := doc.Bounds()
	wantW, wantH := int(math.Ceil((b.W+10)*2)), int(math.Ceil((b.H+10)*2))
	if got := img.Bounds(); got.Dx() != wantW || got.Dy() != wantH {
		t.Errorf("image is %dx%d, want %dx%d", got.Dx(), got.Dy(), wantW, wantH)
	}

	dark := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("image is blank")
	}
	if corner, _, _, _ := img.At(0, 0).RGBA(); corner < 0xf000 {
		t.Error("padding should stay white")
	}
}
