package table

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/rterrors"
)

func TestFromColumns_PreservesOrderAndLength(t *testing.T) {
	tb, err := FromColumns(map[string][]Cell{
		"a": {NumCell(1), NumCell(2)},
		"b": {NumCell(3), NumCell(4)},
	}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, []string{"a", "b"}, tb.ColumnNames())
}

func TestFromColumns_LengthMismatch(t *testing.T) {
	_, err := FromColumns(map[string][]Cell{
		"a": {NumCell(1)},
		"b": {NumCell(1), NumCell(2)},
	}, []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, rterrors.ErrLengthMismatch)
}

func TestFromRows_ColumnOrderIsFirstAppearance(t *testing.T) {
	tb := FromRows([]Row{
		{"x": NumCell(1), "y": NumCell(2)},
		{"z": NumCell(3), "x": NumCell(4)},
	})
	assert.Equal(t, []string{"x", "y", "z"}, tb.ColumnNames())
}

func TestColumnNotFound(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{"a": {NumCell(1)}}, []string{"a"})
	_, err := tb.Column("nope")
	assert.ErrorIs(t, err, rterrors.ErrColumnNotFound)
}

func TestChainedProjectionAndSlice(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{
		"a": {NumCell(0), NumCell(1), NumCell(2), NumCell(3), NumCell(4), NumCell(5), NumCell(6)},
		"b": {NumCell(10), NumCell(11), NumCell(12), NumCell(13), NumCell(14), NumCell(15), NumCell(16)},
	}, []string{"a", "b"})

	sub, err := tb.Columns([]string{"a", "b"})
	require.NoError(t, err)
	sliced, err := sub.Slice(3, 6)
	require.NoError(t, err)
	col, err := sliced.Column("a")
	require.NoError(t, err)

	require.Len(t, col, 3)
	assert.Equal(t, 3.0, col[0].Num)
	assert.Equal(t, 4.0, col[1].Num)
	assert.Equal(t, 5.0, col[2].Num)
}

func TestHeadTail(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{"a": {NumCell(1), NumCell(2), NumCell(3)}}, []string{"a"})
	head, _ := tb.Head(2)
	assert.Equal(t, 2, head.Len())
	tail, _ := tb.Tail(2)
	assert.Equal(t, 2, tail.Len())
	col, _ := tail.Column("a")
	assert.Equal(t, 2.0, col[0].Num)
}

func TestSetColumn_AppendsOrRejectsMismatch(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{"a": {NumCell(1), NumCell(2)}}, []string{"a"})
	require.NoError(t, tb.SetColumn("b", []Cell{NumCell(9), NumCell(8)}))
	assert.Equal(t, []string{"a", "b"}, tb.ColumnNames())

	err := tb.SetColumn("c", []Cell{NumCell(1)})
	assert.ErrorIs(t, err, rterrors.ErrLengthMismatch)
}

func TestRename(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{"a": {NumCell(1)}}, []string{"a"})
	require.NoError(t, tb.Rename("a", "z"))
	assert.Equal(t, []string{"z"}, tb.ColumnNames())
	_, err := tb.Column("a")
	assert.ErrorIs(t, err, rterrors.ErrColumnNotFound)
}

func TestCSVRoundTrip_NumericColumns(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{
		"a": {NumCell(1.5), NumCell(2.25)},
		"b": {NumCell(100), NumCell(200)},
	}, []string{"a", "b"})

	var buf strings.Builder
	require.NoError(t, ToCSV(&buf, tb, true))

	path := t.TempDir() + "/roundtrip.csv"
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))

	reparsed, err := FromCSV(context.Background(), path)
	require.NoError(t, err)

	headOriginal, _ := tb.Head(tb.Len())
	headReparsed, _ := reparsed.Head(reparsed.Len())
	for _, name := range []string{"a", "b"} {
		want, _ := headOriginal.Column(name)
		got, _ := headReparsed.Column(name)
		require.Len(t, got, len(want))
		for i := range want {
			assert.InDelta(t, want[i].Num, got[i].Num, 1e-9)
		}
	}
}

func TestToCSV_QuoteStringsMode(t *testing.T) {
	tb, _ := FromColumns(map[string][]Cell{
		"name": {StrCell("alice"), StrCell("bob")},
		"age":  {NumCell(30), NumCell(25)},
	}, []string{"name", "age"})

	var buf strings.Builder
	require.NoError(t, ToCSV(&buf, tb, true))

	out := buf.String()
	assert.Contains(t, out, `"alice"`)
	assert.Contains(t, out, ",30\n")
	assert.NotContains(t, out, `"30"`)
}
