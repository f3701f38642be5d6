package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndreport/internal"
	"ndreport/internal/table"
)

func TestFindOrphans(t *testing.T) {
	customers := mkTable(t, customerColumns,
		[]string{"1", "V1", "JSMITH", "JOHN", "SMITH", "J@X.COM", "", ""},
		[]string{"2", "V1", "MJONES", "MARY", "JONES", "M@X.COM", "", ""},
		[]string{"9", "V9", "ONLYCUST", "ANN", "LEE", "", "", ""},
	)
	vendors := mkTable(t, vendorColumns,
		[]string{"1", "V1", "", "", "JOHN SMITH", "", ""},
		[]string{"1", "V2", "", "", "JOHN SMITH", "", ""},
		[]string{"3", "V1", "", "", "PAT KELLY", "", ""},
		[]string{"3", "V1", "", "", "PAT KELLY", "", ""},
	)

	orphans, err := FindOrphans(customers, vendors, DefaultKeyColumns)
	require.NoError(t, err)
	assert.Equal(t, vendorColumns, orphans.Columns())
	assert.Equal(t, []internal.Key{
		{Number: "1", Vendor: "V2"},
		{Number: "3", Vendor: "V1"},
		{Number: "3", Vendor: "V1"},
	}, keysOf(t, orphans))

	// a vendor row is an orphan iff no customer shares its key
	customerKeys := map[internal.Key]bool{}
	for _, k := range keysOf(t, customers) {
		customerKeys[k] = true
	}
	orphanKeys := map[internal.Key]bool{}
	for _, k := range keysOf(t, orphans) {
		orphanKeys[k] = true
	}
	for _, k := range keysOf(t, vendors) {
		assert.Equal(t, !customerKeys[k], orphanKeys[k], k.String())
	}
	assert.Equal(t, 4, vendors.Len())
}

func TestFindOrphansMissingKeyColumn(t *testing.T) {
	customers := mkTable(t, []string{"number"}, []string{"1"})
	vendors := mkTable(t, vendorColumns)

	_, err := FindOrphans(customers, vendors, DefaultKeyColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
}

func TestFindOrphansEmpty(t *testing.T) {
	orphans, err := FindOrphans(mkTable(t, customerColumns), mkTable(t, vendorColumns), DefaultKeyColumns)
	require.NoError(t, err)
	assert.Equal(t, 0, orphans.Len())
	assert.Equal(t, vendorColumns, orphans.Columns())
}
