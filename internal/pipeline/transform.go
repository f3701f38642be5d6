package pipeline

import (
	"fmt"

	"ndreport/internal/names"
	"ndreport/internal/table"
)

type OpKind int

const (
	OpNormalize OpKind = iota + 1
	OpSplit
)

// Op is one of the column operations a run applies: stop-word
// normalization or first/last splitting.
type Op struct {
	kind       OpKind
	normalizer *names.Normalizer
}

func NormalizeOp(n *names.Normalizer) Op {
	return Op{kind: OpNormalize, normalizer: n}
}

func SplitOp() Op {
	return Op{kind: OpSplit}
}

// Name is the prefix used for derived columns.
func (o Op) Name() string {
	switch o.kind {
	case OpNormalize:
		return "remove_stop_words"
	case OpSplit:
		return "split_name"
	default:
		return "unknown"
	}
}

func (o Op) apply(v table.Value) table.Value {
	switch o.kind {
	case OpNormalize:
		return o.normalizer.Normalize(v)
	case OpSplit:
		return names.Split(v)
	default:
		return v
	}
}

func DerivedName(op Op, column string) string {
	return op.Name() + "_" + column
}

func DerivedNames(op Op, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, DerivedName(op, c))
	}
	return out
}

// Apply runs op over every value of the named columns. With overwrite the
// column is rewritten in place, otherwise results go to DerivedName(op, col)
// and the source column is kept. No column is touched unless all of them
// exist.
func Apply(t *table.Table, columns []string, overwrite bool, op Op) error {
	if op.kind == OpNormalize && op.normalizer == nil {
		return fmt.Errorf("%s: no normalizer configured", op.Name())
	}
	if err := t.Require(columns...); err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}

	for _, col := range columns {
		src, _ := t.ColumnIndex(col)
		dst := src
		if !overwrite {
			dst = t.AddColumn(DerivedName(op, col))
		}
		for i := 0; i < t.Len(); i++ {
			t.Set(i, dst, op.apply(t.At(i, src)))
		}
	}
	return nil
}
