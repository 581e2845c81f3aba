package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CSV(t *testing.T) {
	data := []byte("Date,Amount,Description\n2024-01-15,50.00,Groceries\n2024-01-16,-20.00,Coffee\n")

	ds, err := Load(data, "statement.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Amount", "Description"}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []string{"2024-01-15", "50.00", "Groceries"}, ds.Rows[0])
}

func TestLoad_CSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Amount\n2024-01-15,50.00\n")...)

	ds, err := Load(data, "statement.csv")
	require.NoError(t, err)
	assert.Equal(t, "Date", ds.Columns[0], "BOM must not leak into the first header")
}

func TestLoad_CSVLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid UTF-8 on its own.
	data := []byte("Date,Description\n2024-01-15,Caf\xe9 Lisboa\n")

	ds, err := Load(data, "statement.csv")
	require.NoError(t, err)
	assert.Equal(t, "Café Lisboa", ds.Rows[0][1])
}

func TestLoad_DelimiterSniffing(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "semicolon", data: "Date;Amount;Description\n2024-01-15;50.00;Groceries\n"},
		{name: "tab", data: "Date\tAmount\tDescription\n2024-01-15\t50.00\tGroceries\n"},
		{name: "pipe", data: "Date|Amount|Description\n2024-01-15|50.00|Groceries\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load([]byte(tt.data), "statement.csv")
			require.NoError(t, err)
			assert.Equal(t, []string{"Date", "Amount", "Description"}, ds.Columns)
			require.Len(t, ds.Rows, 1)
			assert.Equal(t, "Groceries", ds.Rows[0][2])
		})
	}
}

func TestLoad_RaggedRowsPaddedAndTruncated(t *testing.T) {
	data := []byte("A,B,C\n1,2\n1,2,3,4\n")

	ds, err := Load(data, "ragged.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", ""}, ds.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[1])
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load([]byte("Date,Amount\n2024-01-15,50.00\n"), "statement.pdf")
	require.ErrorIs(t, err, ErrUnsupportedOrEmpty)
}

func TestLoad_HeaderOnly(t *testing.T) {
	_, err := Load([]byte("Date,Amount,Description\n"), "statement.csv")
	require.ErrorIs(t, err, ErrUnsupportedOrEmpty)
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(nil, "statement.csv")
	require.ErrorIs(t, err, ErrUnsupportedOrEmpty)
}

func TestDataset_Column(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Date", "Amount"},
		Rows:    [][]string{{"2024-01-15", "50.00"}, {"2024-01-16", "20.00"}},
	}

	values, ok := ds.Column("Amount")
	require.True(t, ok)
	assert.Equal(t, []string{"50.00", "20.00"}, values)

	_, ok = ds.Column("Missing")
	assert.False(t, ok)
}

func TestNumericColumn(t *testing.T) {
	assert.True(t, NumericColumn([]string{"45292", "45293.5", ""}))
	assert.True(t, NumericColumn([]string{"1,500", "20"}))
	assert.False(t, NumericColumn([]string{"45292", "abc"}))
	assert.False(t, NumericColumn([]string{"", ""}))
}
