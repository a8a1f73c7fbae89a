package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTableByColumnName(t *testing.T) {
	src := "\ufeffText, ID ,Extra\nhello,1,x\n\n  ,  ,\nworld,2\n"

	table, err := ReadTable(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "hello", table.Rows[0].Get("text"))
	assert.Equal(t, "1", table.Rows[0].Get("id"))
	assert.Equal(t, "2", table.Rows[1].Get("ID"))
	assert.Equal(t, "", table.Rows[1].Get("extra"), "ragged row")
	assert.Equal(t, "", table.Rows[0].Get("missing"))
	assert.True(t, table.Has("Extra"))
	assert.Equal(t, 2, table.Rows[0].Line)
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyTable)
}

func TestReadTableMalformedQuotes(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n\"unterminated,1\n"))
	require.Error(t, err)
}

func TestRowList(t *testing.T) {
	table, err := ReadTable(strings.NewReader("labels\nLeft| Centrist ||Right\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Left", "Centrist", "Right"}, table.Rows[0].List("labels"))
}
