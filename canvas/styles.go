package canvas

// Style holds the characters used to rasterize primitives.
type Style struct {
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
	Horizontal  rune
	Vertical    rune
	Rising      rune // lower-left to upper-right
	Falling     rune // upper-left to lower-right
	FilledCap   rune
	HollowCap   rune
}

var (
	// UnicodeStyle draws with box-drawing characters.
	UnicodeStyle = Style{
		TopLeft:     '┌',
		TopRight:    '┐',
		BottomLeft:  '└',
		BottomRight: '┘',
		Horizontal:  '─',
		Vertical:    '│',
		Rising:      '╱',
		Falling:     '╲',
		FilledCap:   '●',
		HollowCap:   '○',
	}

	// ASCIIStyle sticks to 7-bit characters.
	ASCIIStyle = Style{
		TopLeft:     '+',
		TopRight:    '+',
		BottomLeft:  '+',
		BottomRight: '+',
		Horizontal:  '-',
		Vertical:    '|',
		Rising:      '/',
		Falling:     '\\',
		FilledCap:   '*',
		HollowCap:   'o',
	}
)

// ParseStyle returns the style for "unicode" or "ascii".
func ParseStyle(name string) (Style, bool) {
	switch name {
	case "unicode", "":
		return UnicodeStyle, true
	case "ascii":
		return ASCIIStyle, true
	}
	return Style{}, false
}
