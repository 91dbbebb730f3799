package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_CSV(t *testing.T) {
	svc := NewDatasetService()
	data := `date,ticker,close,volume
2024-01-02,AAPL,185.64,82488700
2024-01-03,AAPL,184.25,58414500
2024-01-04,MSFT,,25000000
`
	p, err := svc.Profile("prices.CSV", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "prices.CSV", p.FileName)
	assert.Equal(t, "csv", p.Format)
	assert.Equal(t, 3, p.NumRows)
	assert.Equal(t, 4, p.NumColumns)
	assert.Equal(t, []string{"date", "ticker", "close", "volume"}, p.ColumnNames)
	assert.Equal(t, map[string]string{
		"date":   "date",
		"ticker": "string",
		"close":  "float",
		"volume": "int",
	}, p.ColumnTypes)
	assert.True(t, p.HasDates)
	assert.True(t, p.HasNumeric)
	assert.True(t, p.HasText)
}

func TestProfile_CSVSemicolon(t *testing.T) {
	svc := NewDatasetService()
	p, err := svc.Profile("eu.csv", strings.NewReader("id;amount\n1;2.5\n2;3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, p.ColumnNames)
	assert.Equal(t, "int", p.ColumnTypes["id"])
	assert.Equal(t, "float", p.ColumnTypes["amount"])
	assert.False(t, p.HasText)
}

func TestProfile_JSON(t *testing.T) {
	svc := NewDatasetService()
	data := `[
		{"user": "a", "score": 1, "joined": "2023-05-01"},
		{"user": "b", "score": 2.5, "joined": "2023-06-01", "active": true},
		{"user": "c", "score": null}
	]`
	p, err := svc.Profile("users.json", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "json", p.Format)
	assert.Equal(t, 3, p.NumRows)
	assert.Equal(t, []string{"joined", "score", "user", "active"}, p.ColumnNames)
	assert.Equal(t, "date", p.ColumnTypes["joined"])
	assert.Equal(t, "float", p.ColumnTypes["score"])
	assert.Equal(t, "string", p.ColumnTypes["user"])
	assert.Equal(t, "string", p.ColumnTypes["active"])
}

func TestProfile_Rejects(t *testing.T) {
	svc := NewDatasetService()

	_, err := svc.Profile("book.xlsx", strings.NewReader("PK"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "CSV")

	_, err = svc.Profile("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Profile("bad.json", strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)

	_, err = svc.Profile("empty.csv", strings.NewReader(""))
	assert.Error(t, err)
}
