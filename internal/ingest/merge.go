package ingest

import (
	"sync"

	"rftrank/internal"
	"rftrank/internal/util"
)

// Merger stages the four normalized tables and combines them into canonical
// process records. Staging is in-memory; a table uploaded twice before merge
// replaces the earlier staged copy.
type Merger struct {
	mu     sync.Mutex
	staged map[internal.SourceType]NormalizedTable
}

func NewMerger() *Merger {
	return &Merger{staged: make(map[internal.SourceType]NormalizedTable)}
}

func (m *Merger) Stage(t NormalizedTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged[t.Source] = t
}

// StagedTable returns the staged table for a source type, if any.
func (m *Merger) StagedTable(source internal.SourceType) (NormalizedTable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.staged[source]
	return t, ok
}

// StagedSources lists which of the four tables are currently staged.
func (m *Merger) StagedSources() map[internal.SourceType]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[internal.SourceType]bool, 4)
	for _, s := range allSources {
		out[s] = false
	}
	for s := range m.staged {
		out[s] = true
	}
	return out
}

var allSources = []internal.SourceType{
	internal.SourceParameter, internal.SourceExtrusion,
	internal.SourceMilling, internal.SourceQuality,
}

// Merge left-joins the extrusion, milling and quality tables onto the
// parameter base by PO, then deduplicates keeping the first occurrence per
// PO. Every parameter row survives even when the side tables have no match.
func (m *Merger) Merge() ([]internal.ProcessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var missing []internal.SourceType
	for _, s := range allSources {
		if _, ok := m.staged[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return nil, internal.MergeError{Missing: missing}
	}

	base := m.staged[internal.SourceParameter]
	ext := indexByPO(m.staged[internal.SourceExtrusion])
	mill := indexByPO(m.staged[internal.SourceMilling])
	qual := indexByPO(m.staged[internal.SourceQuality])

	seen := make(map[string]struct{}, len(base.Rows))
	out := make([]internal.ProcessRecord, 0, len(base.Rows))

	for _, row := range base.Rows {
		rec := recordFromParams(base, row)
		if _, dup := seen[rec.PO]; dup {
			continue
		}
		seen[rec.PO] = struct{}{}

		if t, ok := ext.lookup(rec.PO); ok {
			rec.ThroughputExt = util.ParseNumber(t.cell(internal.ColThroughputExt))
		}
		if t, ok := mill.lookup(rec.PO); ok {
			rec.ThroughputMill = util.ParseNumber(t.cell(internal.ColThroughputMill))
		}
		if t, ok := qual.lookup(rec.PO); ok {
			rec.RFTExt = internal.StringPtr(t.cell(internal.ColRFTExt))
			rec.RFTMill = internal.StringPtr(t.cell(internal.ColRFTMill))
		}

		out = append(out, rec)
	}

	return out, nil
}

// Reset drops all staged tables.
func (m *Merger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = make(map[internal.SourceType]NormalizedTable)
}

type poIndex struct {
	table NormalizedTable
	rows  map[string][]string
}

type indexedRow struct {
	table NormalizedTable
	row   []string
}

func (r indexedRow) cell(col string) string {
	i := r.table.Col(col)
	if i < 0 || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

// indexByPO keeps the first row per PO, matching the first-occurrence dedupe
// used for the base table.
func indexByPO(t NormalizedTable) poIndex {
	poCol := t.Col(internal.ColPO)
	idx := poIndex{table: t, rows: make(map[string][]string, len(t.Rows))}
	for _, row := range t.Rows {
		po := row[poCol]
		if _, ok := idx.rows[po]; ok {
			continue
		}
		idx.rows[po] = row
	}
	return idx
}

func (ix poIndex) lookup(po string) (indexedRow, bool) {
	row, ok := ix.rows[po]
	if !ok {
		return indexedRow{}, false
	}
	return indexedRow{table: ix.table, row: row}, true
}

func recordFromParams(t NormalizedTable, row []string) internal.ProcessRecord {
	get := func(col string) string {
		i := t.Col(col)
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	return internal.ProcessRecord{
		PO:         get(internal.ColPO),
		Product:    get(internal.ColProduct),
		Line:       util.ParseInt(get(internal.ColLine)),
		Mill:       util.ParseInt(get(internal.ColMill)),
		Dosing:     util.ParseNumber(get(internal.ColDosing)),
		SideFeed:   util.ParseNumber(get(internal.ColSideFeed)),
		HT1:        util.ParseNumber(get(internal.ColHT1)),
		HT2:        util.ParseNumber(get(internal.ColHT2)),
		HT3:        util.ParseNumber(get(internal.ColHT3)),
		HT4:        util.ParseNumber(get(internal.ColHT4)),
		HT5:        util.ParseNumber(get(internal.ColHT5)),
		ScrewSpeed: util.ParseNumber(get(internal.ColScrewSpeed)),
		Torque:     util.ParseNumber(get(internal.ColTorque)),
		Feed:       util.ParseNumber(get(internal.ColFeed)),
		Sep:        util.ParseNumber(get(internal.ColSep)),
		Rotor:      util.ParseNumber(get(internal.ColRotor)),
		AirFlow:    util.ParseNumber(get(internal.ColAirFlow)),
	}
}
