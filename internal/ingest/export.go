package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rftrank/internal"
	"rftrank/internal/util"
)

// WriteCSV writes a normalized table with its canonical headers. Downstream
// merges key on the header bytes, so no renaming happens here.
func WriteCSV(t NormalizedTable, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRecommendationXLSX writes one ranked recommendation as a two-section
// sheet, one row per parameter.
func ExportRecommendationXLSX(product string, res internal.RankedResult, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(row, col int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(1, 1, "Product")
	set(1, 2, product)
	set(2, 1, "PO")
	set(2, 2, res.PO)

	r := 4
	set(r, 1, "Extrusion")
	set(r, 2, "Machine no.")
	set(r, 3, res.Extrude.MachineNo)
	r++
	for _, name := range internal.ExtrudeParamColumns {
		v, ok := res.Extrude.Parameters[name]
		if !ok {
			continue
		}
		set(r, 2, name)
		set(r, 3, v)
		r++
	}

	r++
	set(r, 1, "Milling")
	set(r, 2, "Machine no.")
	set(r, 3, res.Mill.MachineNo)
	r++
	for _, name := range internal.MillParamColumns {
		v, ok := res.Mill.Parameters[name]
		if !ok {
			continue
		}
		set(r, 2, name)
		set(r, 3, v)
		r++
	}
	set(r, 2, "Throughput (kg/h)")
	set(r, 3, res.Mill.Throughput)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// RecordsTable flattens canonical records back into tabular form with the
// full canonical header set, for diagnostics and CSV dumps of the store.
func RecordsTable(records []internal.ProcessRecord) NormalizedTable {
	cols := []string{
		internal.ColPO, internal.ColProduct, internal.ColLine, internal.ColMill,
		internal.ColRFTExt, internal.ColRFTMill,
		internal.ColThroughputExt, internal.ColThroughputMill,
		internal.ColDosing, internal.ColSideFeed,
		internal.ColHT1, internal.ColHT2, internal.ColHT3, internal.ColHT4, internal.ColHT5,
		internal.ColScrewSpeed, internal.ColTorque,
		internal.ColFeed, internal.ColSep, internal.ColRotor, internal.ColAirFlow,
	}

	out := NormalizedTable{Columns: cols, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		out.Rows = append(out.Rows, []string{
			rec.PO, rec.Product, intCell(rec.Line), intCell(rec.Mill),
			strCell(rec.RFTExt), strCell(rec.RFTMill),
			numCell(rec.ThroughputExt), numCell(rec.ThroughputMill),
			numCell(rec.Dosing), numCell(rec.SideFeed),
			numCell(rec.HT1), numCell(rec.HT2), numCell(rec.HT3), numCell(rec.HT4), numCell(rec.HT5),
			numCell(rec.ScrewSpeed), numCell(rec.Torque),
			numCell(rec.Feed), numCell(rec.Sep), numCell(rec.Rotor), numCell(rec.AirFlow),
		})
	}
	return out
}

func numCell(v *float64) string {
	if v == nil {
		return ""
	}
	return util.FormatNumber(*v)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func strCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
