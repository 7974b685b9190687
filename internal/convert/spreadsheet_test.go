package convert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpreadsheetSidecarFillsMissingHeaders(t *testing.T) {
	rows := [][]string{
		{"Name", "", "Region"},
		{"Acme", "100", "West"},
	}
	sc := spreadsheetSidecar("Sheet1", rows)
	require.Equal(t, []string{"Name", "col_1", "Region"}, sc.Headers)
	require.Equal(t, 3, sc.ColumnCount)
	require.Equal(t, 1, sc.RowCount)
}

func TestSpreadsheetSidecarCapsSampleRowsAtFive(t *testing.T) {
	rows := [][]string{{"h"}}
	for i := 0; i < 30; i++ {
		rows = append(rows, []string{"v"})
	}
	sc := spreadsheetSidecar("Sheet1", rows)
	require.Equal(t, 30, sc.RowCount)
	require.Len(t, sc.SampleRows, maxSampleRows)
	require.Len(t, sc.RowLabels, maxRowLabels)
}

func TestGetSheetHintJoinsLabelsAndColumns(t *testing.T) {
	sc := sheetSidecar{
		Name:      "Budget",
		Headers:   []string{"month", "revenue", "cost"},
		RowLabels: []string{"Jan", "Feb", "Mar"},
		RowCount:  3,
	}
	hint := getSheetHint(sc)
	require.Equal(t, "Sheet: Budget, contains Jan, Feb, Mar data, columns: month/revenue/cost", hint)
}

func TestGetSheetHintTruncatesLongLabelsAndColumns(t *testing.T) {
	sc := sheetSidecar{
		Name:      "Big",
		Headers:   []string{"a", "b", "c", "d", "e", "f"},
		RowLabels: []string{"r1", "r2", "r3", "r4", "r5"},
		RowCount:  5,
	}
	hint := getSheetHint(sc)
	require.Contains(t, hint, "contains r1, r2, r3... (5 rows)")
	require.Contains(t, hint, "columns: a/b/c/d (+2 more)")
}
