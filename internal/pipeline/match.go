package pipeline

import (
	"fmt"
	"slices"

	"ndreport/internal"
	"ndreport/internal/table"
)

// MatchSpec configures CrossMatch. Field order is precedence order: the
// outer loop walks OrphanFields, the inner loop CustomerFields.
type MatchSpec struct {
	OrphanFields   []string
	CustomerFields []string
	OutputFields   []string
	Keys           KeyColumns
}

type PairStat struct {
	OrphanField   string
	CustomerField string
	Matched       int
	// Ambiguous counts orphans that equalled more than one customer under
	// this pair. The first customer in roster order is kept.
	Ambiguous int
}

type MatchResult struct {
	Matched *table.Table
	Pairs   []PairStat
}

// source says where an output column is read from in a merged row.
type source struct {
	customer bool
	col      int
}

// CrossMatch joins orphans to customers on equality of every
// (orphan field, customer field) pair in turn. An orphan key matched by an
// earlier pair is never matched again, so the result holds at most one row
// per key, projected to OutputFields. Orphan columns shadow customer columns
// of the same name.
func CrossMatch(orphans, customers *table.Table, spec MatchSpec) (*MatchResult, error) {
	if err := orphans.Require(spec.OrphanFields...); err != nil {
		return nil, fmt.Errorf("orphan match fields: %w", err)
	}
	if err := customers.Require(spec.CustomerFields...); err != nil {
		return nil, fmt.Errorf("customer match fields: %w", err)
	}
	keyOf, err := spec.Keys.keyFunc(orphans)
	if err != nil {
		return nil, fmt.Errorf("orphan keys: %w", err)
	}

	sources := make([]source, 0, len(spec.OutputFields))
	for _, f := range spec.OutputFields {
		if idx, err := orphans.ColumnIndex(f); err == nil {
			sources = append(sources, source{col: idx})
			continue
		}
		idx, err := customers.ColumnIndex(f)
		if err != nil {
			return nil, fmt.Errorf("output field: %w", err)
		}
		sources = append(sources, source{customer: true, col: idx})
	}
	for _, k := range spec.Keys.Names() {
		if !slices.Contains(spec.OutputFields, k) {
			return nil, fmt.Errorf("output fields must include key column %s: %w", k, table.ErrUnknownColumn)
		}
	}

	out := table.New(spec.OutputFields...)
	matched := map[internal.Key]struct{}{}
	indexes := map[string]map[table.Value][]int{}
	pairs := make([]PairStat, 0, len(spec.OrphanFields)*len(spec.CustomerFields))

	for _, of := range spec.OrphanFields {
		ocol, _ := orphans.ColumnIndex(of)
		for _, cf := range spec.CustomerFields {
			idx, ok := indexes[cf]
			if !ok {
				idx = indexColumn(customers, cf)
				indexes[cf] = idx
			}

			stat := PairStat{OrphanField: of, CustomerField: cf}
			for i := 0; i < orphans.Len(); i++ {
				v := orphans.At(i, ocol)
				if v.Missing() {
					continue
				}
				candidates := idx[v]
				if len(candidates) == 0 {
					continue
				}
				key := keyOf(i)
				if _, done := matched[key]; done {
					continue
				}
				matched[key] = struct{}{}
				stat.Matched++
				if len(candidates) > 1 {
					stat.Ambiguous++
				}
				_ = out.AppendRow(mergeRow(orphans, i, customers, candidates[0], sources)...)
			}
			pairs = append(pairs, stat)
		}
	}

	return &MatchResult{Matched: out.Dedup(), Pairs: pairs}, nil
}

// Unmatched returns the orphan rows whose key is not present in matched.
func Unmatched(orphans, matched *table.Table, keys KeyColumns) (*table.Table, error) {
	done, err := keys.keySet(matched)
	if err != nil {
		return nil, fmt.Errorf("matched table: %w", err)
	}
	keyOf, err := keys.keyFunc(orphans)
	if err != nil {
		return nil, fmt.Errorf("orphan table: %w", err)
	}
	return orphans.Filter(func(row int) bool {
		_, ok := done[keyOf(row)]
		return !ok
	}), nil
}

// indexColumn maps every present value of column to the rows holding it,
// in row order.
func indexColumn(t *table.Table, column string) map[table.Value][]int {
	col, _ := t.ColumnIndex(column)
	idx := map[table.Value][]int{}
	for i := 0; i < t.Len(); i++ {
		v := t.At(i, col)
		if v.Missing() {
			continue
		}
		idx[v] = append(idx[v], i)
	}
	return idx
}

func mergeRow(orphans *table.Table, orow int, customers *table.Table, crow int, sources []source) []table.Value {
	values := make([]table.Value, len(sources))
	for j, s := range sources {
		if s.customer {
			values[j] = customers.At(crow, s.col)
		} else {
			values[j] = orphans.At(orow, s.col)
		}
	}
	return values
}
