package ranking

import (
	"strings"

	"rftrank/internal"
	"rftrank/internal/store"
)

// Engine ranks the historical runs of one product and turns the winner into
// a machine-parameter recommendation.
type Engine struct {
	store   *store.Store
	rounder Rounder
}

func NewEngine(st *store.Store, rounder Rounder) *Engine {
	return &Engine{store: st, rounder: rounder}
}

// Rank selects the best run for a product code.
//
// The ladder is: unknown product -> NotFoundError; no run passing both RFT
// checks -> NoPassingDataError; passing runs but none with a numeric mill
// throughput -> NoThroughputDataError (callers treat it as a warning, the
// product itself is known). Among eligible runs the one with maximal mill
// throughput wins; on ties the earliest row in table order.
func (e *Engine) Rank(productCode string) (internal.RankedResult, error) {
	code := strings.ToUpper(strings.TrimSpace(productCode))

	records := e.store.FindByProduct(code)
	if len(records) == 0 {
		return internal.RankedResult{}, internal.NotFoundError{Product: code}
	}

	passing := records[:0:0]
	for _, rec := range records {
		if rec.Passed() {
			passing = append(passing, rec)
		}
	}
	if len(passing) == 0 {
		return internal.RankedResult{}, internal.NoPassingDataError{Product: code}
	}

	var best *internal.ProcessRecord
	for i := range passing {
		rec := &passing[i]
		if rec.ThroughputMill == nil {
			continue
		}
		if best == nil || *rec.ThroughputMill > *best.ThroughputMill {
			best = rec
		}
	}
	if best == nil {
		return internal.RankedResult{}, internal.NoThroughputDataError{Product: code}
	}

	return internal.RankedResult{
		PO: best.PO,
		Extrude: internal.StageResult{
			MachineNo:  machineNo(best.Line),
			Parameters: e.rounder.Clean(best.ExtrudeParams()),
		},
		Mill: internal.MillResult{
			MachineNo:  machineNo(best.Mill),
			Parameters: e.rounder.Clean(best.MillParams()),
			Throughput: *best.ThroughputMill,
		},
	}, nil
}

// machineNo renders an equipment identifier, falling back to the "N/A"
// marker when the record has none. The field is number-or-sentinel by design
// of the downstream consumers.
func machineNo(id *int) any {
	if id == nil {
		return internal.MachineNA
	}
	return *id
}
