// Package markdown finds ```erd code blocks in markdown documents and keeps a
// rendered copy of each one directly below it.
//
// A rendered copy looks like
//
//	<!-- erd:3f2a9c0b1d4e -->
//	```text
//	...
//	```
//
// where the marker carries a hash of the source block, so stale copies can be
// detected without rendering.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Lang is the info string that marks a block as erd source.
const Lang = "erd"

const (
	markerPrefix = "<!-- erd:"
	markerSuffix = " -->"
	hashLen      = 12
)

// Block is one ```erd block. Line numbers are 0-based and point at the
// fences.
type Block struct {
	Source    string
	StartLine int
	EndLine   int
	Indent    string
	Hash      string
	Output    *Output // nil when no rendered copy follows
}

// Output is the rendered copy after a block, from marker line to closing
// fence.
type Output struct {
	StartLine int
	EndLine   int
	Hash      string
}

// Fresh reports whether the block has a rendered copy matching its source.
func (b Block) Fresh() bool {
	return b.Output != nil && b.Output.Hash == b.Hash
}

// RenderFunc turns the source of one block into the text to show below it.
type RenderFunc func(source string) (string, error)

// Scanner splits markdown content into lines and locates erd blocks.
type Scanner struct {
	lines []string
}

// NewScanner creates a new markdown scanner
func NewScanner(content string) *Scanner {
	return &Scanner{lines: strings.Split(content, "\n")}
}

// Content returns the current markdown content
func (s *Scanner) Content() string {
	return strings.Join(s.lines, "\n")
}

// HashSource returns the short content hash used in markers.
func HashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])[:hashLen]
}

func fence(line string) (indent, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "```") {
		return "", "", false
	}
	return line[:len(line)-len(trimmed)], strings.TrimSpace(strings.TrimPrefix(trimmed, "```")), true
}

// closing returns the index of the first bare fence after start, or -1.
func (s *Scanner) closing(start int) int {
	for i := start + 1; i < len(s.lines); i++ {
		if _, info, ok := fence(s.lines[i]); ok && info == "" {
			return i
		}
	}
	return -1
}

// Blocks finds every ```erd block. Other fenced blocks are skipped whole, so
// fences quoted inside them are ignored. An unterminated block is dropped.
func (s *Scanner) Blocks() []Block {
	var blocks []Block
	for i := 0; i < len(s.lines); i++ {
		indent, info, ok := fence(s.lines[i])
		if !ok {
			continue
		}
		end := s.closing(i)
		if end < 0 {
			break
		}
		if !strings.EqualFold(info, Lang) {
			i = end
			continue
		}

		content := make([]string, 0, end-i-1)
		for _, line := range s.lines[i+1 : end] {
			content = append(content, strings.TrimPrefix(line, indent))
		}
		src := strings.Join(content, "\n")
		b := Block{Source: src, StartLine: i, EndLine: end, Indent: indent, Hash: HashSource(src)}
		if out := s.output(end); out != nil {
			b.Output = out
			end = out.EndLine
		}
		blocks = append(blocks, b)
		i = end
	}
	return blocks
}

// output looks for a rendered copy right after the fence at end, allowing
// one blank line in between.
func (s *Scanner) output(end int) *Output {
	j := end + 1
	if j < len(s.lines) && strings.TrimSpace(s.lines[j]) == "" {
		j++
	}
	if j >= len(s.lines) {
		return nil
	}
	marker := strings.TrimSpace(s.lines[j])
	if !strings.HasPrefix(marker, markerPrefix) || !strings.HasSuffix(marker, markerSuffix) {
		return nil
	}
	if j+1 >= len(s.lines) {
		return nil
	}
	if _, _, ok := fence(s.lines[j+1]); !ok {
		return nil
	}
	last := s.closing(j + 1)
	if last < 0 {
		return nil
	}
	hash := strings.TrimSuffix(strings.TrimPrefix(marker, markerPrefix), markerSuffix)
	return &Output{StartLine: j, EndLine: last, Hash: hash}
}

// Stale returns the blocks whose rendered copy is missing or out of date.
func (s *Scanner) Stale() []Block {
	var out []Block
	for _, b := range s.Blocks() {
		if !b.Fresh() {
			out = append(out, b)
		}
	}
	return out
}

// Update renders every stale block and writes the copy below it, replacing
// an old copy when there is one. It returns how many blocks were rendered.
// On error the content is left unchanged.
func (s *Scanner) Update(render RenderFunc) (int, error) {
	blocks := s.Blocks()
	lines := append([]string(nil), s.lines...)
	n := 0
	// bottom-up keeps earlier line numbers valid
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if b.Fresh() {
			continue
		}
		text, err := render(b.Source)
		if err != nil {
			return 0, fmt.Errorf("block at line %d: %w", b.StartLine+1, err)
		}
		generated := renderedLines(b, text)
		if b.Output != nil {
			lines = splice(lines, b.Output.StartLine, b.Output.EndLine+1, generated)
		} else {
			lines = splice(lines, b.EndLine+1, b.EndLine+1, append([]string{""}, generated...))
		}
		n++
	}
	s.lines = lines
	return n, nil
}

func renderedLines(b Block, text string) []string {
	text = strings.TrimRight(text, "\n")
	out := []string{b.Indent + markerPrefix + b.Hash + markerSuffix, b.Indent + "```text"}
	for _, line := range strings.Split(text, "\n") {
		out = append(out, b.Indent+line)
	}
	return append(out, b.Indent+"```")
}

// splice replaces lines[from:to] with repl.
func splice(lines []string, from, to int, repl []string) []string {
	out := make([]string, 0, len(lines)-(to-from)+len(repl))
	out = append(out, lines[:from]...)
	out = append(out, repl...)
	return append(out, lines[to:]...)
}

// FormatBlockInfo returns a one-line description of a block for listings.
func FormatBlockInfo(b Block, index int) string {
	preview := ""
	for _, line := range strings.Split(b.Source, "\n") {
		if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "#") {
			preview = t
			break
		}
	}
	if len(preview) > 50 {
		preview = preview[:47] + "..."
	}
	state := "stale"
	if b.Fresh() {
		state = "fresh"
	}
	return fmt.Sprintf("%d. line %d [%s] %s", index+1, b.StartLine+1, state, preview)
}
