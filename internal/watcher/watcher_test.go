package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/ingest"
	"rftrank/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want internal.SourceType
		ok   bool
	}{
		{"rft_parameters.xlsx", internal.SourceParameter, true},
		{"PARAM 2026-08.xls", internal.SourceParameter, true},
		{"throughput_ext.csv", internal.SourceExtrusion, true},
		{"mill 2026.xlsx", internal.SourceMilling, true},
		{"quality-aug.csv", internal.SourceQuality, true},
		{"rft_overview.xlsx", internal.SourceQuality, true},
		{"notes.txt", "", false},
	}
	for _, tc := range tests {
		got, ok := classify(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("classify(%s) = %q,%v, want %q,%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSweepExistingAutoMerges(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"parameters.csv": "Process order no.,Material,Ext. line,Mill no.,Dosing (kg/h),Side feed (kg/h),Heat zone 1 (C),Heat zone 2 (C),Heat zone 3 (C),Heat zone 4 (C),Heat zone 5 (C),Screw speed (rpm),Torque (%),Mill feed (%),Separator (rpm),Rotor (rpm),Air flow (m3/h)\n" +
			"PO-1,ABC123,1,2,10,5,73,180,190,200,210,420,53,90,60,1200,800\n",
		"ext.csv":     "Process order no.,Throughput (kg/h)\nPO-1,450\n",
		"mill.csv":    "Process order no.,Throughput (kg/h)\nPO-1,850\n",
		"quality.csv": "Process order no.,Extrusion deviation,Milling deviation\nPO-1,,\n",
		"notes.txt":   "ignore me",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cfg := config.Config{
		WatchDir:            dir,
		WatchAutoMerge:      true,
		ThroughputCeilingKg: 2000,
	}
	st := store.New()
	merger := ingest.NewMerger()
	s := NewService(cfg, merger, st, nil)

	s.sweepExisting()

	if st.Count() != 1 {
		t.Fatalf("count=%d", st.Count())
	}
	got := st.FindByProduct("ABC123")
	if len(got) != 1 || !got[0].Passed() {
		t.Fatalf("got %+v", got)
	}

	// Staged tables were consumed by the merge.
	for source, staged := range merger.StagedSources() {
		if staged {
			t.Fatalf("%s still staged after auto-merge", source)
		}
	}
}

func TestSweepIgnoresBrokenFiles(t *testing.T) {
	dir := t.TempDir()

	// Classifiable name but wrong headers: logged and skipped, never fatal.
	if err := os.WriteFile(filepath.Join(dir, "mill.csv"), []byte("Order,Rate\nPO-1,850\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := config.Config{WatchDir: dir, WatchAutoMerge: true, ThroughputCeilingKg: 2000}
	merger := ingest.NewMerger()
	s := NewService(cfg, merger, store.New(), nil)

	s.sweepExisting()

	if _, staged := merger.StagedTable(internal.SourceMilling); staged {
		t.Fatalf("broken file was staged")
	}
}
