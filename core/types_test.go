package core

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDirectionLetters(t *testing.T) {
	for _, d := range []Direction{North, East, South, West} {
		got, err := ParseDirection(strings.ToLower(d.Letter()))
		if err != nil {
			t.Fatalf("ParseDirection(%q): %v", d.Letter(), err)
		}
		if got != d {
			t.Errorf("ParseDirection(%q) = %v, want %v", d.Letter(), got, d)
		}
	}
	if _, err := ParseDirection("X"); err == nil {
		t.Error("expected error for X")
	}
}

func TestParseCardinality(t *testing.T) {
	valid := []string{"1n", "N1", "11", "nn", "01", "10", "0n", "n0", "mn", "NM"}
	for _, s := range valid {
		c, err := ParseCardinality(s)
		if err != nil {
			t.Errorf("ParseCardinality(%q): %v", s, err)
			continue
		}
		if string(c) != strings.ToUpper(s) {
			t.Errorf("ParseCardinality(%q) = %q, want upper case", s, c)
		}
	}
	for _, s := range []string{"", "1", "2N", "MM", "1NN"} {
		if _, err := ParseCardinality(s); err == nil {
			t.Errorf("ParseCardinality(%q) should fail", s)
		}
	}
	if got := OneToMany.Label(); got != "(1,N)" {
		t.Errorf("Label = %q, want (1,N)", got)
	}
}

func TestEntityStyleValid(t *testing.T) {
	for _, s := range []EntityStyle{"", "E", "N", "S", "W", "EN", "ES", "EW", "NS", "NW", "SW"} {
		if !s.Valid() {
			t.Errorf("style %q should be valid", s)
		}
	}
	for _, s := range []EntityStyle{"NE", "WE", "ENS", "X", "EE"} {
		if s.Valid() {
			t.Errorf("style %q should be invalid", s)
		}
	}
}

func TestEntityJSON(t *testing.T) {
	e := &Entity{
		Name:       "Employee",
		Attributes: []Attribute{{Name: "id", IsKey: true}, {Name: "email"}},
		Style:      StyleWest,
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"isEntity":true,"name":"Employee","attributes":[{"name":"id","isKey":true},{"name":"email","isKey":false}],"style":"W"}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}

	d, err := UnmarshalDescription(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, e) {
		t.Errorf("decoded %+v, want %+v", d, e)
	}
}

func TestRelationJSON(t *testing.T) {
	r := &Relation{
		Name:       "Works_On",
		Attributes: []Attribute{{Name: "hours"}},
		Style: []Connector{
			{Direction: North, Cardinality: OneToMany},
			{Direction: South, Cardinality: NToM},
		},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"style":[["N","1N"],["S","NM"]]`) {
		t.Errorf("unexpected style encoding: %s", data)
	}
	if !strings.Contains(string(data), `"isEntity":false`) {
		t.Errorf("missing discriminator: %s", data)
	}

	d, err := UnmarshalDescription(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, r) {
		t.Errorf("decoded %+v, want %+v", d, r)
	}
}

func TestUnmarshalDescriptionRequiresDiscriminator(t *testing.T) {
	if _, err := UnmarshalDescription([]byte(`{"name":"x"}`)); err == nil {
		t.Error("expected error without isEntity")
	}
	if _, err := UnmarshalDescription([]byte(`{"isEntity":false,"style":[["Q","1N"]]}`)); err == nil {
		t.Error("expected error for invalid connector direction")
	}
}

func TestKeyCount(t *testing.T) {
	e := &Entity{Attributes: []Attribute{{"a", true}, {"b", false}, {"c", true}}}
	if got := e.KeyCount(); got != 2 {
		t.Errorf("KeyCount = %d, want 2", got)
	}
}
