// Package parser turns one description in the entity/relation mini-language
// into a core.Description. Line breaks inside a description are ignored.
//
//	entity|e <Name>(<attr>[ pk], ...)[<up to two of NESW>]
//	relation|r <Name>(<attr>, ...)[<dir> <card>, <dir> <card>]
package parser

import (
	"fmt"
	"sort"
	"strings"

	"erd/core"
)

type form int

const (
	entityForm form = iota
	relationForm
)

var keywords = map[string]form{
	"e":        entityForm,
	"entity":   entityForm,
	"r":        relationForm,
	"relation": relationForm,
}

// IsKeyword reports whether word opens a description.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

var whitespace = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// Parse parses a single description. Every failure is a *SyntaxError.
func Parse(text string) (core.Description, error) {
	text = whitespace.Replace(strings.TrimSpace(text))

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, syntaxErr(RuleKeyword, "empty input: expected 'entity' or 'relation'")
	}

	kind, ok := keywords[strings.ToLower(fields[0])]
	if !ok {
		return nil, syntaxErr(RuleKeyword, fmt.Sprintf("unknown keyword %q: expected entity, e, relation or r", fields[0]))
	}
	if kind == entityForm {
		e, err := parseEntity(text)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	r, err := parseRelation(text)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static samples.
func MustParse(text string) core.Description {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// sections splits "<kw> <name>(<body>)<tail>".
type sections struct {
	name string
	body string
	tail string
}

func split(text string, kind form) (sections, error) {
	parts := strings.Split(text, "(")
	if len(parts) != 2 {
		return sections{}, syntaxErr(RuleParenthesis, "expected exactly one '(' after the name")
	}

	head := strings.Fields(parts[0])
	// "relation r Name" repeats the keyword in its short form; tolerate it.
	if len(head) == 3 {
		if k, ok := keywords[strings.ToLower(head[1])]; ok && k == kind {
			head = []string{head[0], head[2]}
		}
	}
	switch {
	case len(head) < 2:
		return sections{}, syntaxErr(RuleHead, "missing name before '('")
	case len(head) > 2:
		return sections{}, syntaxErr(RuleHead, fmt.Sprintf("name %q must be a single word", strings.Join(head[1:], " ")))
	}

	rest := strings.Split(parts[1], ")")
	if len(rest) != 2 {
		return sections{}, syntaxErr(RuleParenthesis, "expected exactly one ')' closing the attribute list")
	}

	return sections{name: head[1], body: rest[0], tail: strings.TrimSpace(rest[1])}, nil
}

// attributeClauses splits the body on commas. A blank body means no
// attributes; a blank clause is an error.
func attributeClauses(body string) ([][]string, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var out [][]string
	for _, piece := range strings.Split(body, ",") {
		words := strings.Fields(piece)
		if len(words) == 0 {
			return nil, syntaxErr(RuleAttribute, "empty attribute in the attribute list")
		}
		out = append(out, words)
	}
	return out, nil
}

func parseEntity(text string) (*core.Entity, error) {
	s, err := split(text, entityForm)
	if err != nil {
		return nil, err
	}

	clauses, err := attributeClauses(s.body)
	if err != nil {
		return nil, err
	}
	attrs := make([]core.Attribute, 0, len(clauses))
	for _, words := range clauses {
		switch len(words) {
		case 1:
			attrs = append(attrs, core.Attribute{Name: words[0]})
		case 2:
			if !strings.EqualFold(words[1], "pk") {
				return nil, syntaxErr(RuleAttribute, fmt.Sprintf("attribute %q: expected 'pk' after the name, got %q", words[0], words[1]))
			}
			attrs = append(attrs, core.Attribute{Name: words[0], IsKey: true})
		default:
			return nil, syntaxErr(RuleAttribute, fmt.Sprintf("attribute %q: expected '<name>' or '<name> pk'", strings.Join(words, " ")))
		}
	}

	style, err := parseEntityStyle(s.tail)
	if err != nil {
		return nil, err
	}

	return &core.Entity{Name: s.name, Attributes: attrs, Style: style}, nil
}

func parseEntityStyle(tail string) (core.EntityStyle, error) {
	if tail == "" {
		return core.StyleDefault, nil
	}
	letters := []rune(strings.ToUpper(tail))
	if len(letters) > 2 {
		return "", syntaxErr(RuleStyle, fmt.Sprintf("style %q is too long: use at most two of N, E, S, W", tail))
	}

	seen := make(map[rune]bool, 2)
	var uniq []string
	for _, r := range letters {
		if !strings.ContainsRune("NESW", r) {
			return "", syntaxErr(RuleStyle, fmt.Sprintf("style %q: %q is not one of N, E, S, W", tail, r))
		}
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, string(r))
		}
	}
	sort.Strings(uniq)

	style := core.EntityStyle(strings.Join(uniq, ""))
	if !style.Valid() {
		return "", syntaxErr(RuleStyle, fmt.Sprintf("style %q has no layout", tail))
	}
	return style, nil
}

func parseRelation(text string) (*core.Relation, error) {
	s, err := split(text, relationForm)
	if err != nil {
		return nil, err
	}

	clauses, err := attributeClauses(s.body)
	if err != nil {
		return nil, err
	}
	attrs := make([]core.Attribute, 0, len(clauses))
	for _, words := range clauses {
		if len(words) != 1 {
			return nil, syntaxErr(RuleAttribute, fmt.Sprintf("relation attribute %q must be a single word", strings.Join(words, " ")))
		}
		attrs = append(attrs, core.Attribute{Name: words[0]})
	}

	style, err := parseConnectors(s.tail)
	if err != nil {
		return nil, err
	}

	return &core.Relation{Name: s.name, Attributes: attrs, Style: style}, nil
}

func parseConnectors(tail string) ([]core.Connector, error) {
	if tail == "" {
		return nil, nil
	}

	open, closed := strings.HasPrefix(tail, "["), strings.HasSuffix(tail, "]")
	if open != closed {
		return nil, syntaxErr(RuleConnector, fmt.Sprintf("unbalanced brackets in %q", tail))
	}
	if open {
		tail = tail[1 : len(tail)-1]
	}

	parts := strings.Split(tail, ",")
	if len(parts) != 2 {
		return nil, syntaxErr(RuleConnector, fmt.Sprintf("expected two connectors '<dir> <card>, <dir> <card>', got %d", len(parts)))
	}

	out := make([]core.Connector, 0, 2)
	for _, part := range parts {
		words := strings.Fields(part)
		if len(words) != 2 {
			return nil, syntaxErr(RuleConnector, fmt.Sprintf("connector %q must be '<direction> <cardinality>'", strings.TrimSpace(part)))
		}
		dir, err := core.ParseDirection(words[0])
		if err != nil {
			return nil, syntaxErr(RuleConnector, fmt.Sprintf("connector %q: direction must be one of N, E, S, W", strings.TrimSpace(part)))
		}
		card, err := core.ParseCardinality(words[1])
		if err != nil {
			return nil, syntaxErr(RuleConnector, fmt.Sprintf("connector %q: cardinality must be one of 1N, N1, 11, NN, 01, 10, 0N, N0, MN, NM", strings.TrimSpace(part)))
		}
		out = append(out, core.Connector{Direction: dir, Cardinality: card})
	}

	if out[0].Direction == out[1].Direction {
		return nil, syntaxErr(RuleConnector, "the two connectors must point in different directions")
	}
	return out, nil
}
