package ingest

import (
	"errors"
	"testing"

	"rftrank/internal"
)

func mustNormalize(t *testing.T, source internal.SourceType, raw internal.RawTable) NormalizedTable {
	t.Helper()
	res, err := Normalize(source, raw, 2000)
	if err != nil {
		t.Fatal(err)
	}
	return res.Table
}

func throughputRaw(rows ...[]string) internal.RawTable {
	return internal.RawTable{Columns: []string{"Process order no.", "Throughput (kg/h)"}, Rows: rows}
}

func qualityRaw(rows ...[]string) internal.RawTable {
	return internal.RawTable{Columns: []string{"Process order no.", "Extrusion deviation", "Milling deviation"}, Rows: rows}
}

func stageAll(t *testing.T, m *Merger, params internal.RawTable, ext, mill, qual internal.RawTable) {
	t.Helper()
	m.Stage(mustNormalize(t, internal.SourceParameter, params))
	m.Stage(mustNormalize(t, internal.SourceExtrusion, ext))
	m.Stage(mustNormalize(t, internal.SourceMilling, mill))
	m.Stage(mustNormalize(t, internal.SourceQuality, qual))
}

func TestMergeRequiresAllTables(t *testing.T) {
	m := NewMerger()
	m.Stage(mustNormalize(t, internal.SourceParameter, paramRaw(paramRow("PO-1", "ABC123"))))

	_, err := m.Merge()
	var mergeErr internal.MergeError
	if !errors.As(err, &mergeErr) {
		t.Fatalf("want MergeError, got %v", err)
	}
	if len(mergeErr.Missing) != 3 {
		t.Fatalf("missing=%v", mergeErr.Missing)
	}
}

func TestMergeLeftJoin(t *testing.T) {
	m := NewMerger()
	stageAll(t, m,
		paramRaw(paramRow("PO-1", "ABC123"), paramRow("PO-2", "ABC123")),
		throughputRaw([]string{"PO-1", "450"}),
		throughputRaw([]string{"PO-1", "500"}),
		qualityRaw([]string{"PO-1", "", ""}),
	)

	records, err := m.Merge()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}

	// PO-1 has every side table.
	r1 := records[0]
	if r1.PO != "PO-1" || r1.ThroughputMill == nil || *r1.ThroughputMill != 500 {
		t.Fatalf("r1=%+v", r1)
	}
	if !r1.Passed() {
		t.Fatalf("r1 should pass both RFT checks")
	}

	// PO-2 exists only in the parameter table; the left join keeps it with
	// absent throughput and quality fields.
	r2 := records[1]
	if r2.PO != "PO-2" {
		t.Fatalf("r2=%+v", r2)
	}
	if r2.ThroughputMill != nil || r2.ThroughputExt != nil || r2.RFTExt != nil || r2.RFTMill != nil {
		t.Fatalf("r2 should have absent side fields: %+v", r2)
	}
}

func TestMergeDeduplicatesFirstWins(t *testing.T) {
	first := paramRow("PO-1", "ABC123")
	second := paramRow("PO-1", "XYZ999")

	m := NewMerger()
	stageAll(t, m,
		paramRaw(first, second),
		throughputRaw([]string{"PO-1", "450"}),
		throughputRaw([]string{"PO-1", "500"}),
		qualityRaw([]string{"PO-1", "", ""}),
	)

	records, err := m.Merge()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0].Product != "ABC123" {
		t.Fatalf("first occurrence must win, got %q", records[0].Product)
	}
}

func TestMergeCoercesNonNumericThroughputToAbsent(t *testing.T) {
	m := NewMerger()
	stageAll(t, m,
		paramRaw(paramRow("PO-1", "ABC123")),
		throughputRaw([]string{"PO-1", "no reading"}),
		throughputRaw([]string{"PO-1", "no reading"}),
		qualityRaw([]string{"PO-1", "", ""}),
	)

	records, err := m.Merge()
	if err != nil {
		t.Fatal(err)
	}
	if records[0].ThroughputMill != nil || records[0].ThroughputExt != nil {
		t.Fatalf("ungrammatical throughput must coerce to absent: %+v", records[0])
	}
}
