package pipeline

import (
	"fmt"

	"ndreport/internal"
	"ndreport/internal/table"
)

// KeyColumns names the columns that together identify an account.
type KeyColumns struct {
	Number string
	Vendor string
}

var DefaultKeyColumns = KeyColumns{Number: "number", Vendor: "vendor_name"}

func (k KeyColumns) Names() []string {
	return []string{k.Number, k.Vendor}
}

// keyFunc returns an accessor for the identity key of each row of t.
func (k KeyColumns) keyFunc(t *table.Table) (func(row int) internal.Key, error) {
	num, err := t.ColumnIndex(k.Number)
	if err != nil {
		return nil, err
	}
	vendor, err := t.ColumnIndex(k.Vendor)
	if err != nil {
		return nil, err
	}
	return func(row int) internal.Key {
		return internal.Key{Number: t.At(row, num).String(), Vendor: t.At(row, vendor).String()}
	}, nil
}

func (k KeyColumns) keySet(t *table.Table) (map[internal.Key]struct{}, error) {
	keyOf, err := k.keyFunc(t)
	if err != nil {
		return nil, err
	}
	set := make(map[internal.Key]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		set[keyOf(i)] = struct{}{}
	}
	return set, nil
}

// FindOrphans returns the vendor rows whose key has no counterpart in the
// customer roster ("not disclosed" accounts). The result has the vendor
// schema; customer-only rows never appear.
func FindOrphans(customers, vendors *table.Table, keys KeyColumns) (*table.Table, error) {
	known, err := keys.keySet(customers)
	if err != nil {
		return nil, fmt.Errorf("customer table: %w", err)
	}
	keyOf, err := keys.keyFunc(vendors)
	if err != nil {
		return nil, fmt.Errorf("vendor table: %w", err)
	}

	return vendors.Filter(func(row int) bool {
		_, disclosed := known[keyOf(row)]
		return !disclosed
	}), nil
}
