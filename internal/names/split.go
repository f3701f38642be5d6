package names

import (
	"strings"

	"ndreport/internal/table"
)

// Split reduces a name to its first and last tokens. Single-token names
// (or names whose first and last tokens are equal) come back absent.
// A value that is already a pair is returned as is.
func Split(v table.Value) table.Value {
	switch v.Kind {
	case table.Pair:
		return v
	case table.Text:
		first, last, ok := SplitString(v.Text)
		if !ok {
			return table.Value{}
		}
		return table.PairValue(first, last)
	default:
		return table.Value{}
	}
}

func SplitString(name string) (first, last string, ok bool) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", "", false
	}
	first, last = fields[0], fields[len(fields)-1]
	if first == last {
		return "", "", false
	}
	return first, last, true
}
