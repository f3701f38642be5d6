package table

import "strings"

type Kind uint8

const (
	Absent Kind = iota
	Text
	Pair
)

// Value is a single cell. The zero Value is absent. Values are comparable
// and can be used directly as map keys for equality joins.
type Value struct {
	Kind  Kind
	Text  string
	First string
	Last  string
}

func TextValue(s string) Value {
	return Value{Kind: Text, Text: s}
}

func PairValue(first, last string) Value {
	return Value{Kind: Pair, First: first, Last: last}
}

func (v Value) IsAbsent() bool {
	return v.Kind == Absent
}

// Missing reports whether the value carries nothing to match on: absent, or
// text that is blank.
func (v Value) Missing() bool {
	switch v.Kind {
	case Text:
		return strings.TrimSpace(v.Text) == ""
	case Pair:
		return false
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Text
	case Pair:
		return v.First + " " + v.Last
	default:
		return ""
	}
}
