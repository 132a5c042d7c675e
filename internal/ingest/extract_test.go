package ingest

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadTableXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Process order no.", "Throughput (kg/h)"},
		{"PO-1", 500},
		{"PO-2", 450.5},
	})

	table, err := ReadTable("xlsx", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "Process order no." {
		t.Fatalf("columns=%v", table.Columns)
	}
	if len(table.Rows) != 2 || table.Rows[0][0] != "PO-1" {
		t.Fatalf("rows=%v", table.Rows)
	}
}

func TestReadTableCSV(t *testing.T) {
	blob := []byte("Process order no.,Throughput (kg/h)\nPO-1,500\nPO-2,450.5\n")

	table, err := ReadTable("csv", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 || table.Rows[1][1] != "450.5" {
		t.Fatalf("rows=%v", table.Rows)
	}
}

func TestReadTableHTML(t *testing.T) {
	blob := []byte(`<html><body><table>
<tr><th>Process order no.</th><th>Throughput (kg/h)</th></tr>
<tr><td>PO-1</td><td>500</td></tr>
</table></body></html>`)

	table, err := ReadTable("html", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 || table.Rows[0][0] != "PO-1" {
		t.Fatalf("rows=%v", table.Rows)
	}
}

func TestFormatForFileSniffsHTMLAsXLS(t *testing.T) {
	if got := FormatForFile("export.xls", []byte("  <table><tr>")); got != "html" {
		t.Fatalf("got %q", got)
	}
	if got := FormatForFile("export.xls", []byte{0x50, 0x4b}); got != "xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := FormatForFile("export.csv", nil); got != "csv" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteCSVKeepsCanonicalHeaders(t *testing.T) {
	table := NormalizedTable{
		Columns: []string{"PO", "Throughput mill (kg/h)"},
		Rows:    [][]string{{"PO-1", "500"}},
	}

	buf := bytes.NewBuffer(nil)
	if err := WriteCSV(table, buf); err != nil {
		t.Fatal(err)
	}
	want := "PO,Throughput mill (kg/h)\nPO-1,500\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}
