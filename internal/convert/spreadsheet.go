package convert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetConverter extracts per-sheet markdown tables plus a JSON
// sidecar (headers, sample rows, row labels) per sheet, grounded on the
// teacher's rag/reader/excel_reader.go (excelize.OpenFile,
// GetSheetList/GetRows) combined with
// _examples/original_source/scripts/converters/xlsx_converter.py's
// output shape (combined full.md, per-sheet sheet_<name>.md/.json,
// sheet_info dict: name/headers/row_count/column_count/sample_rows
// (first 5)/row_labels (first column, first 20 rows)).
type SpreadsheetConverter struct{}

const (
	maxSampleRows = 5
	maxRowLabels  = 20
)

func (SpreadsheetConverter) Convert(path, outputDir string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening spreadsheet %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var fullMD strings.Builder
	var sections []Section

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		sidecar := spreadsheetSidecar(sheet, rows)
		sectionName := "sheet_" + sanitizeSheetName(sheet)

		md := sheetMarkdown(sidecar)
		if _, err := writeFile(outputDir, sectionName+".md", md); err != nil {
			return Result{}, err
		}

		sidecarJSON, err := json.MarshalIndent(sidecar, "", "  ")
		if err != nil {
			return Result{}, fmt.Errorf("marshaling sidecar for sheet %s: %w", sheet, err)
		}
		if _, err := writeFile(outputDir, sectionName+".json", string(sidecarJSON)); err != nil {
			return Result{}, err
		}

		fullMD.WriteString(md)
		fullMD.WriteString("\n\n")

		sections = append(sections, Section{
			Title:   sheet,
			Content: md,
			Extra: map[string]string{
				"rows":    fmt.Sprint(sidecar.RowCount),
				"columns": fmt.Sprint(sidecar.ColumnCount),
				"headers": strings.Join(sidecar.Headers, "|"),
				"hint":    getSheetHint(sidecar),
			},
		})
	}

	fullPath, err := writeFile(outputDir, "full.md", fullMD.String())
	if err != nil {
		return Result{}, err
	}

	return Result{OutputDir: outputDir, FullTextPath: fullPath, Sections: sections}, nil
}

func (SpreadsheetConverter) Sample(path string, maxChars int) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening spreadsheet %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		if b.Len() >= maxChars {
			break
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		b.WriteString("## " + sheet + "\n")
		b.WriteString(rowsToMarkdownTable(rows))
		b.WriteString("\n")
	}

	sample := b.String()
	if len(sample) > maxChars {
		sample = sample[:maxChars]
	}
	return sample, nil
}

// rowsToMarkdownTable renders raw spreadsheet rows as a markdown table,
// used by Sample for the strategist's raw content preview (the full
// Convert path renders sheetMarkdown from the sidecar instead).
func rowsToMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	header := rows[0]
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows[1:] {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func limitRows(rows [][]string, n int) [][]string {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// sheetSidecar is the per-sheet JSON info dict, mirroring
// xlsx_converter.py's sheet_info: name, headers (missing header cells
// named col_<i>), row_count/column_count (excluding the header row),
// sample_rows (first 5 data rows as header→value maps), and row_labels
// (first column of up to 20 data rows, for hint generation).
type sheetSidecar struct {
	Name        string              `json:"name"`
	Headers     []string            `json:"headers"`
	RowCount    int                 `json:"row_count"`
	ColumnCount int                 `json:"column_count"`
	SampleRows  []map[string]string `json:"sample_rows,omitempty"`
	RowLabels   []string            `json:"row_labels,omitempty"`
}

func spreadsheetSidecar(name string, rows [][]string) sheetSidecar {
	sc := sheetSidecar{Name: name, Headers: []string{}}
	if len(rows) == 0 {
		return sc
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		headers[i] = h
	}
	sc.Headers = headers
	sc.ColumnCount = len(headers)

	dataRows := rows[1:]
	sc.RowCount = len(dataRows)

	for _, row := range limitRows(dataRows, maxSampleRows) {
		sample := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				sample[h] = row[i]
			} else {
				sample[h] = ""
			}
		}
		sc.SampleRows = append(sc.SampleRows, sample)
	}

	for _, row := range limitRows(dataRows, maxRowLabels) {
		if len(row) > 0 {
			sc.RowLabels = append(sc.RowLabels, row[0])
		} else {
			sc.RowLabels = append(sc.RowLabels, "")
		}
	}

	return sc
}

// sheetMarkdown renders a sheet's sidecar as the "# Sheet: <name>"
// markdown table xlsx_converter.py's _build_sheet_markdown produces,
// over the sampled rows only (the sidecar, not the full data set).
func sheetMarkdown(sc sheetSidecar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sheet: %s\n\n", sc.Name)
	if len(sc.Headers) == 0 {
		b.WriteString("(empty sheet)\n")
		return b.String()
	}
	fmt.Fprintf(&b, "_Columns: %s_\n\n", strings.Join(sc.Headers, ", "))
	b.WriteString("| " + strings.Join(sc.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(sc.Headers)) + "\n")
	for _, row := range sc.SampleRows {
		cells := make([]string, len(sc.Headers))
		for i, h := range sc.Headers {
			cells[i] = row[h]
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if sc.RowCount > len(sc.SampleRows) {
		fmt.Fprintf(&b, "\n_(%d more rows)_\n", sc.RowCount-len(sc.SampleRows))
	}
	return b.String()
}

// getSheetHint produces the one-line "Sheet: <name>, contains <row
// label sample> data, columns: <h1>/<h2>/..." hint the schema tree
// builder surfaces next to each sheet node, mirroring
// xlsx_converter.py's get_sheet_hint.
func getSheetHint(sc sheetSidecar) string {
	parts := []string{"Sheet: " + sc.Name}

	if len(sc.RowLabels) > 0 {
		if len(sc.RowLabels) <= 4 {
			parts = append(parts, "contains "+strings.Join(sc.RowLabels, ", ")+" data")
		} else {
			parts = append(parts, fmt.Sprintf("contains %s... (%d rows)", strings.Join(sc.RowLabels[:3], ", "), sc.RowCount))
		}
	}

	if len(sc.Headers) > 0 {
		if len(sc.Headers) <= 5 {
			parts = append(parts, "columns: "+strings.Join(sc.Headers, "/"))
		} else {
			parts = append(parts, fmt.Sprintf("columns: %s (+%d more)", strings.Join(sc.Headers[:4], "/"), len(sc.Headers)-4))
		}
	}

	return strings.Join(parts, ", ")
}

func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return strings.ToLower(replacer.Replace(name))
}
