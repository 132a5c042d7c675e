package ingest

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"rftrank/internal"
)

func TestExportRecommendationXLSX(t *testing.T) {
	res := internal.RankedResult{
		PO: "PO-2",
		Extrude: internal.StageResult{
			MachineNo: 1,
			Parameters: map[string]any{
				internal.ColHT1:    int64(70),
				internal.ColTorque: int64(55),
			},
		},
		Mill: internal.MillResult{
			MachineNo: internal.MachineNA,
			Parameters: map[string]any{
				internal.ColFeed: int64(90),
			},
			Throughput: 920,
		},
	}

	out := filepath.Join(t.TempDir(), "sub", "result.xlsx")
	if err := ExportRecommendationXLSX("ABC123", res, out); err != nil {
		t.Fatalf("ExportRecommendationXLSX: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open exported file: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		return v
	}

	if get("B1") != "ABC123" {
		t.Fatalf("B1=%q", get("B1"))
	}
	if get("B2") != "PO-2" {
		t.Fatalf("B2=%q", get("B2"))
	}
	if get("A4") != "Extrusion" {
		t.Fatalf("A4=%q", get("A4"))
	}
	if get("C4") != "1" {
		t.Fatalf("C4=%q", get("C4"))
	}
}

func TestRecordsTable(t *testing.T) {
	records := []internal.ProcessRecord{
		{
			PO:             "PO-1",
			Product:        "ABC123",
			Line:           internal.IntPtr(1),
			RFTExt:         internal.StringPtr(internal.RFTPass),
			ThroughputMill: internal.FloatPtr(850.5),
			HT1:            internal.FloatPtr(73),
		},
	}

	table := RecordsTable(records)
	if len(table.Columns) != 21 || len(table.Rows) != 1 {
		t.Fatalf("cols=%d rows=%d", len(table.Columns), len(table.Rows))
	}

	row := table.Rows[0]
	cell := func(name string) string { return row[table.Col(name)] }

	if cell(internal.ColPO) != "PO-1" || cell(internal.ColProduct) != "ABC123" {
		t.Fatalf("row=%v", row)
	}
	if cell(internal.ColLine) != "1" {
		t.Fatalf("line=%q", cell(internal.ColLine))
	}
	if cell(internal.ColRFTExt) != internal.RFTPass {
		t.Fatalf("rft ext=%q", cell(internal.ColRFTExt))
	}
	// Absent flag and absent numbers come out blank.
	if cell(internal.ColRFTMill) != "" || cell(internal.ColMill) != "" || cell(internal.ColTorque) != "" {
		t.Fatalf("row=%v", row)
	}
	if cell(internal.ColThroughputMill) != "850.5" {
		t.Fatalf("throughput=%q", cell(internal.ColThroughputMill))
	}
	if cell(internal.ColHT1) != "73" {
		t.Fatalf("ht1=%q", cell(internal.ColHT1))
	}
}
