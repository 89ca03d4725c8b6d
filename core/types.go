// Package core contains the description types shared by the parser and the layout engine.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction represents a cardinal direction.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Letter returns the single-letter form used by the input language.
func (d Direction) Letter() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

// ParseDirection accepts a single letter N, E, S or W in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "N":
		return North, nil
	case "E":
		return East, nil
	case "S":
		return South, nil
	case "W":
		return West, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

// MarshalText encodes the direction as its letter.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.Letter()), nil
}

// UnmarshalText decodes a direction letter.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Cardinality is a two-character multiplicity code such as 1N or NM.
type Cardinality string

const (
	OneToMany  Cardinality = "1N"
	ManyToOne  Cardinality = "N1"
	OneToOne   Cardinality = "11"
	ManyToMany Cardinality = "NN"
	ZeroToOne  Cardinality = "01"
	OneToZero  Cardinality = "10"
	ZeroToMany Cardinality = "0N"
	ManyToZero Cardinality = "N0"
	MToN       Cardinality = "MN"
	NToM       Cardinality = "NM"
)

var cardinalities = map[Cardinality]bool{
	OneToMany: true, ManyToOne: true, OneToOne: true, ManyToMany: true, ZeroToOne: true,
	OneToZero: true, ZeroToMany: true, ManyToZero: true, MToN: true, NToM: true,
}

// ParseCardinality validates a cardinality token case-insensitively and
// returns it in upper case.
func ParseCardinality(s string) (Cardinality, error) {
	c := Cardinality(strings.ToUpper(s))
	if !cardinalities[c] {
		return "", fmt.Errorf("invalid cardinality %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the ten supported tokens.
func (c Cardinality) Valid() bool {
	return cardinalities[c]
}

// Label formats the cardinality the way it is printed next to a connector: (1,N).
func (c Cardinality) Label() string {
	if len(c) != 2 {
		return "(" + string(c) + ")"
	}
	return fmt.Sprintf("(%c,%c)", c[0], c[1])
}

// Attribute is a named field of an entity or relation.
type Attribute struct {
	Name  string `json:"name" yaml:"name"`
	IsKey bool   `json:"isKey" yaml:"isKey"`
}

// EntityStyle is the canonical (sorted, deduplicated) set of sides that
// attributes fan out from.
type EntityStyle string

const (
	StyleDefault    EntityStyle = ""
	StyleEast       EntityStyle = "E"
	StyleNorth      EntityStyle = "N"
	StyleSouth      EntityStyle = "S"
	StyleWest       EntityStyle = "W"
	StyleNorthEast  EntityStyle = "EN"
	StyleSouthEast  EntityStyle = "ES"
	StyleEastWest   EntityStyle = "EW"
	StyleNorthSouth EntityStyle = "NS"
	StyleNorthWest  EntityStyle = "NW"
	StyleSouthWest  EntityStyle = "SW"
)

var entityStyles = map[EntityStyle]bool{
	StyleDefault: true, StyleEast: true, StyleNorth: true, StyleSouth: true, StyleWest: true,
	StyleNorthEast: true, StyleSouthEast: true, StyleEastWest: true, StyleNorthSouth: true,
	StyleNorthWest: true, StyleSouthWest: true,
}

// Valid reports whether s has a defined layout.
func (s EntityStyle) Valid() bool {
	return entityStyles[s]
}

// Description is either an *Entity or a *Relation.
type Description interface {
	IsEntity() bool
	Title() string
}

// Entity describes a rectangle with attributes fanned around it.
type Entity struct {
	Name       string      `json:"name" yaml:"name"`
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
	Style      EntityStyle `json:"style" yaml:"style"`
}

// IsEntity always returns true.
func (e *Entity) IsEntity() bool { return true }

// Title returns the entity name.
func (e *Entity) Title() string { return e.Name }

// KeyCount returns how many attributes are flagged as key.
func (e *Entity) KeyCount() int {
	n := 0
	for _, a := range e.Attributes {
		if a.IsKey {
			n++
		}
	}
	return n
}

// MarshalJSON adds the isEntity discriminator.
func (e *Entity) MarshalJSON() ([]byte, error) {
	type plain Entity
	attrs := e.Attributes
	if attrs == nil {
		attrs = []Attribute{}
	}
	p := plain(*e)
	p.Attributes = attrs
	return json.Marshal(struct {
		IsEntity bool `json:"isEntity"`
		plain
	}{true, p})
}

// Connector is one directional cardinality connector of a relation.
type Connector struct {
	Direction   Direction
	Cardinality Cardinality
}

// MarshalJSON encodes the connector as a two-element array, e.g. ["N","1N"].
func (c Connector) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Direction.Letter(), string(c.Cardinality)})
}

// MarshalYAML uses the same two-element form as MarshalJSON.
func (c Connector) MarshalYAML() (any, error) {
	return []string{c.Direction.Letter(), string(c.Cardinality)}, nil
}

// UnmarshalJSON decodes a two-element array.
func (c *Connector) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	d, err := ParseDirection(pair[0])
	if err != nil {
		return err
	}
	card, err := ParseCardinality(pair[1])
	if err != nil {
		return err
	}
	*c = Connector{Direction: d, Cardinality: card}
	return nil
}

// DefaultConnectors is used when a relation carries no style.
func DefaultConnectors() []Connector {
	return []Connector{
		{Direction: North, Cardinality: OneToMany},
		{Direction: South, Cardinality: OneToMany},
	}
}

// Relation describes a rhombus with up to two cardinality connectors.
type Relation struct {
	Name       string      `json:"name" yaml:"name"`
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
	Style      []Connector `json:"style" yaml:"style"`
}

// IsEntity always returns false.
func (r *Relation) IsEntity() bool { return false }

// Title returns the relation name.
func (r *Relation) Title() string { return r.Name }

// MarshalJSON adds the isEntity discriminator.
func (r *Relation) MarshalJSON() ([]byte, error) {
	type plain Relation
	p := plain(*r)
	if p.Attributes == nil {
		p.Attributes = []Attribute{}
	}
	if p.Style == nil {
		p.Style = []Connector{}
	}
	return json.Marshal(struct {
		IsEntity bool `json:"isEntity"`
		plain
	}{false, p})
}

// UnmarshalDescription decodes a JSON description, dispatching on isEntity.
func UnmarshalDescription(data []byte) (Description, error) {
	var head struct {
		IsEntity *bool `json:"isEntity"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.IsEntity == nil {
		return nil, fmt.Errorf("description is missing the isEntity field")
	}
	if *head.IsEntity {
		var e Entity
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	}
	var r Relation
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
