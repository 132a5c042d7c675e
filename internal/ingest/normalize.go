package ingest

import (
	"fmt"
	"sort"
	"strings"

	"rftrank/internal"
	"rftrank/internal/util"
)

// NormalizedTable is a raw table with canonical column names and cleaned
// cells, ready to merge. Quality tables carry derived RFT sentinels instead
// of the source defect columns.
type NormalizedTable struct {
	Source  internal.SourceType
	Columns []string
	Rows    [][]string
}

// sourceMappings is the static source-header → canonical-name dictionary per
// table type. Every source header listed here is required.
var sourceMappings = map[internal.SourceType]map[string]string{
	internal.SourceParameter: {
		"Process order no.": internal.ColPO,
		"Material":          internal.ColProduct,
		"Ext. line":         internal.ColLine,
		"Mill no.":          internal.ColMill,
		"Dosing (kg/h)":     internal.ColDosing,
		"Side feed (kg/h)":  internal.ColSideFeed,
		"Heat zone 1 (C)":   internal.ColHT1,
		"Heat zone 2 (C)":   internal.ColHT2,
		"Heat zone 3 (C)":   internal.ColHT3,
		"Heat zone 4 (C)":   internal.ColHT4,
		"Heat zone 5 (C)":   internal.ColHT5,
		"Screw speed (rpm)": internal.ColScrewSpeed,
		"Torque (%)":        internal.ColTorque,
		"Mill feed (%)":     internal.ColFeed,
		"Separator (rpm)":   internal.ColSep,
		"Rotor (rpm)":       internal.ColRotor,
		"Air flow (m3/h)":   internal.ColAirFlow,
	},
	internal.SourceExtrusion: {
		"Process order no.": internal.ColPO,
		"Throughput (kg/h)": internal.ColThroughputExt,
	},
	internal.SourceMilling: {
		"Process order no.": internal.ColPO,
		"Throughput (kg/h)": internal.ColThroughputMill,
	},
	internal.SourceQuality: {
		"Process order no.":   internal.ColPO,
		"Extrusion deviation": internal.ColRFTExt,
		"Milling deviation":   internal.ColRFTMill,
	},
}

// canonicalOrder fixes the output column order per table type.
var canonicalOrder = map[internal.SourceType][]string{
	internal.SourceParameter: {
		internal.ColPO, internal.ColProduct, internal.ColLine, internal.ColMill,
		internal.ColDosing, internal.ColSideFeed,
		internal.ColHT1, internal.ColHT2, internal.ColHT3, internal.ColHT4, internal.ColHT5,
		internal.ColScrewSpeed, internal.ColTorque,
		internal.ColFeed, internal.ColSep, internal.ColRotor, internal.ColAirFlow,
	},
	internal.SourceExtrusion: {internal.ColPO, internal.ColThroughputExt},
	internal.SourceMilling:   {internal.ColPO, internal.ColThroughputMill},
	internal.SourceQuality:   {internal.ColPO, internal.ColRFTExt, internal.ColRFTMill},
}

// NormalizeResult reports what a normalization pass kept and why rows were
// dropped.
type NormalizeResult struct {
	Table   NormalizedTable
	Kept    int
	Dropped int
}

// Normalize maps a raw table's headers onto canonical names and cleans every
// cell. For quality tables the defect-indicator columns are inverted into RFT
// sentinels: a recorded deviation means the stage FAILED. For throughput
// tables, rows above ceilingKg are dropped as sensor/data-entry errors.
func Normalize(source internal.SourceType, raw internal.RawTable, ceilingKg float64) (NormalizeResult, error) {
	mapping, ok := sourceMappings[source]
	if !ok {
		return NormalizeResult{}, fmt.Errorf("unknown source type: %s", source)
	}

	srcIndex := make(map[string]int, len(raw.Columns))
	for i, h := range raw.Columns {
		srcIndex[strings.TrimSpace(h)] = i
	}

	var missing []string
	colFor := make(map[string]int, len(mapping)) // canonical name -> source index
	for srcName, canonical := range mapping {
		i, ok := srcIndex[srcName]
		if !ok {
			missing = append(missing, srcName)
			continue
		}
		colFor[canonical] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return NormalizeResult{}, internal.SchemaError{Source: source, Missing: missing}
	}

	order := canonicalOrder[source]
	out := NormalizedTable{Source: source, Columns: order}
	dropped := 0

	throughputCol := ""
	switch source {
	case internal.SourceExtrusion:
		throughputCol = internal.ColThroughputExt
	case internal.SourceMilling:
		throughputCol = internal.ColThroughputMill
	}

	for _, rec := range raw.Rows {
		row := make([]string, len(order))
		for t, canonical := range order {
			si := colFor[canonical]
			v := ""
			if si < len(rec) {
				v = strings.TrimSpace(rec[si])
			}
			if source == internal.SourceQuality && canonical != internal.ColPO {
				// Deviation recorded -> stage failed. Blank cell -> clean run.
				if v != "" {
					v = internal.RFTFail
				} else {
					v = internal.RFTPass
				}
			}
			row[t] = v
		}

		// Rows without a process order cannot join; skip them outright.
		if row[0] == "" {
			continue
		}

		if throughputCol != "" && ceilingKg > 0 {
			ti := indexOf(order, throughputCol)
			if tp := util.ParseNumber(row[ti]); tp != nil && *tp > ceilingKg {
				dropped++
				continue
			}
		}

		out.Rows = append(out.Rows, row)
	}

	return NormalizeResult{Table: out, Kept: len(out.Rows), Dropped: dropped}, nil
}

// Col returns the index of a canonical column, -1 if absent.
func (t NormalizedTable) Col(name string) int {
	return indexOf(t.Columns, name)
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
