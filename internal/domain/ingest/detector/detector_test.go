package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/trackr/internal/domain/ingest/tabular"
)

func dataset(columns []string, rows ...[]string) *tabular.Dataset {
	return &tabular.Dataset{Columns: columns, Rows: rows}
}

func roleOf(t *testing.T, m Mapping, role Role) string {
	t.Helper()
	col, ok := m.ColumnFor(role)
	require.True(t, ok, "no column mapped to role %s", role)
	return col
}

func TestDetect_ExactHeaders(t *testing.T) {
	ds := dataset(
		[]string{"Date", "Amount", "Description"},
		[]string{"2024-01-15", "50.00", "Groceries"},
		[]string{"2024-01-16", "-20.00", "Coffee"},
	)

	mapping, err := Detect(ds, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Date", roleOf(t, mapping, RoleDate))
	assert.Equal(t, "Amount", roleOf(t, mapping, RoleAmount))
	assert.Equal(t, "Description", roleOf(t, mapping, RoleDescription))
}

func TestDetect_BankAliases(t *testing.T) {
	ds := dataset(
		[]string{"Trans Date", "Narration", "Debit"},
		[]string{"2024-01-15", "POS PURCHASE TESCO", "50.00"},
		[]string{"2024-01-16", "ATM WITHDRAWAL", "100.00"},
	)

	mapping, err := Detect(ds, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Trans Date", roleOf(t, mapping, RoleDate))
	assert.Equal(t, "Debit", roleOf(t, mapping, RoleAmount))
	assert.Equal(t, "Narration", roleOf(t, mapping, RoleDescription))
}

func TestDetect_DateLikeColumnNotClaimedAsAmount(t *testing.T) {
	// "Value Date" name-matches the amount alias "value" but holds ISO
	// dates, which must fail the amount content check so the real amount
	// column still wins.
	ds := dataset(
		[]string{"Booking Date", "Value Date", "Amount", "Description"},
		[]string{"2024-01-15", "2024-01-16", "50.00", "Groceries"},
		[]string{"2024-01-16", "2024-01-17", "-20.00", "Coffee"},
	)

	mapping, err := Detect(ds, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Booking Date", roleOf(t, mapping, RoleDate))
	assert.Equal(t, "Amount", roleOf(t, mapping, RoleAmount))
	assert.Equal(t, "Description", roleOf(t, mapping, RoleDescription))
}

func TestDetect_ContentFallbackWithoutHeaderMatch(t *testing.T) {
	ds := dataset(
		[]string{"Col1", "Col2", "Col3"},
		[]string{"2024-01-15", "50.00", "Groceries"},
		[]string{"2024-01-16", "-20.00", "Coffee"},
	)

	mapping, err := Detect(ds, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Col1", roleOf(t, mapping, RoleDate))
	assert.Equal(t, "Col2", roleOf(t, mapping, RoleAmount))
	assert.Equal(t, "Col3", roleOf(t, mapping, RoleDescription))
}

func TestDetect_Overrides(t *testing.T) {
	ds := dataset(
		[]string{"Posted", "Value", "Memo", "Reference"},
		[]string{"2024-01-15", "50.00", "Groceries", "ref-1"},
	)

	mapping, err := Detect(ds, Overrides{DescriptionColumn: "Reference"})
	require.NoError(t, err)

	assert.Equal(t, "Reference", roleOf(t, mapping, RoleDescription))
}

func TestDetect_OverrideForMissingColumnIgnored(t *testing.T) {
	ds := dataset(
		[]string{"Date", "Amount", "Description"},
		[]string{"2024-01-15", "50.00", "Groceries"},
	)

	mapping, err := Detect(ds, Overrides{DateColumn: "Nonexistent"})
	require.NoError(t, err)

	// Detection falls through to the alias match.
	assert.Equal(t, "Date", roleOf(t, mapping, RoleDate))
}

func TestDetect_NamedButInvalidContentRejected(t *testing.T) {
	// A column named like a date column whose values are not dates must not
	// claim the date role.
	ds := dataset(
		[]string{"Date", "Real Date", "Amount", "Description"},
		[]string{"n/a", "2024-01-15", "50.00", "Groceries"},
		[]string{"n/a", "2024-01-16", "-20.00", "Coffee"},
	)

	mapping, err := Detect(ds, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "Real Date", roleOf(t, mapping, RoleDate))
}

func TestDetect_FailureListsColumns(t *testing.T) {
	ds := dataset(
		[]string{"Foo", "Bar"},
		[]string{"a", "b"},
	)

	_, err := Detect(ds, Overrides{})
	require.Error(t, err)
	require.True(t, IsDetectionError(err))

	var de *DetectionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"Foo", "Bar"}, de.Columns)
}

func TestDetect_RolesLandOnDistinctColumns(t *testing.T) {
	// A single numeric column cannot serve as both amount and date.
	ds := dataset(
		[]string{"Amount", "Description"},
		[]string{"50.00", "Groceries"},
	)

	_, err := Detect(ds, Overrides{})
	require.Error(t, err)
	assert.True(t, IsDetectionError(err))
}
