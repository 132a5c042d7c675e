package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"rftrank/internal"
)

// ReadTable reads an uploaded spreadsheet into row/column form.
// Supported formats: "xlsx", "csv", "html". The html path covers ".xls"
// exports that are really HTML tables, which several MES vendors produce.
func ReadTable(format string, blob []byte) (internal.RawTable, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "xlsx":
		return readXLSX(blob)
	case "csv":
		return readCSV(blob)
	case "html", "xls":
		return readHTMLTable(blob)
	default:
		return internal.RawTable{}, fmt.Errorf("unsupported table format: %s", format)
	}
}

// ReadTableFile reads a table from disk, picking the format from the
// extension. ".xls" is sniffed: HTML masquerading as xls starts with markup.
func ReadTableFile(path string) (internal.RawTable, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.RawTable{}, err
	}
	return ReadTable(FormatForFile(path, blob), blob)
}

// FormatForFile maps a filename (and, for .xls, the leading bytes) to a
// ReadTable format.
func FormatForFile(path string, blob []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "xlsx"
	case ".csv":
		return "csv"
	case ".html", ".htm":
		return "html"
	case ".xls":
		if looksLikeHTML(blob) {
			return "html"
		}
		return "xlsx"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

func looksLikeHTML(blob []byte) bool {
	head := bytes.TrimLeft(blob, " \t\r\n\uFEFF")
	return len(head) > 0 && head[0] == '<'
}

func readXLSX(blob []byte) (internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return internal.RawTable{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.RawTable{}, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return internal.RawTable{}, err
	}
	return tableFromRows(rows)
}

func readCSV(blob []byte) (internal.RawTable, error) {
	cr := csv.NewReader(bytes.NewReader(blob))
	cr.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return internal.RawTable{}, fmt.Errorf("csv read: %w", err)
		}
		rows = append(rows, append([]string(nil), rec...))
	}
	return tableFromRows(rows)
}

func readHTMLTable(blob []byte) (internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return internal.RawTable{}, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return internal.RawTable{}, fmt.Errorf("no <table> found in html input")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (internal.RawTable, error) {
	if len(rows) == 0 {
		return internal.RawTable{}, fmt.Errorf("table has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		header[i] = h
	}

	out := internal.RawTable{Columns: header, Rows: make([][]string, 0, len(rows)-1)}
	for _, rec := range rows[1:] {
		row := make([]string, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = rec[i]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
