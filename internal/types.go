package internal

// SourceType identifies one of the four raw tables that feed the canonical store.
type SourceType string

const (
	SourceParameter SourceType = "parameter"
	SourceExtrusion SourceType = "extrusion"
	SourceMilling   SourceType = "milling"
	SourceQuality   SourceType = "quality"
)

// RFT pass/fail sentinels. A nil flag means the quality table had no row for
// the process order at all, which is distinct from an explicit fail.
const (
	RFTPass = "/"
	RFTFail = ""
)

// Canonical column names. These are byte-exact across all normalized tables;
// the merge join relies on ColPO being identical everywhere.
const (
	ColPO             = "PO"
	ColProduct        = "Product"
	ColLine           = "Line"
	ColMill           = "Mill"
	ColRFTExt         = "RFT-ext."
	ColRFTMill        = "RFT-Mill"
	ColThroughputExt  = "Throughput ext. (kg/h)"
	ColThroughputMill = "Throughput mill (kg/h)"
	ColDosing         = "Dosing"
	ColSideFeed       = "Side feed"
	ColHT1            = "HT1"
	ColHT2            = "HT2"
	ColHT3            = "HT3"
	ColHT4            = "HT4"
	ColHT5            = "HT5"
	ColScrewSpeed     = "Screw speed"
	ColTorque         = "Torque"
	ColFeed           = "Feed"
	ColSep            = "Sep."
	ColRotor          = "Rotor"
	ColAirFlow        = "Air flow"
)

// ExtrudeParamColumns and MillParamColumns fix the parameter sets and their
// output order for recommendations and CSV export.
var (
	ExtrudeParamColumns = []string{
		ColDosing, ColSideFeed, ColHT1, ColHT2, ColHT3, ColHT4, ColHT5,
		ColScrewSpeed, ColTorque,
	}
	MillParamColumns = []string{ColFeed, ColSep, ColRotor, ColAirFlow}
)

// RawTable is an uploaded table already read into row/column form, before
// column normalization. Cells are raw strings; "" means empty.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ProcessRecord is one row of the canonical table, keyed by PO.
// Optional numerics are nil when the source cell was empty or non-numeric.
type ProcessRecord struct {
	PO      string
	Product string
	Line    *int
	Mill    *int

	// RFT flags: nil = no quality row, RFTFail = defect recorded, RFTPass = clean.
	RFTExt  *string
	RFTMill *string

	ThroughputExt  *float64
	ThroughputMill *float64

	Dosing     *float64
	SideFeed   *float64
	HT1        *float64
	HT2        *float64
	HT3        *float64
	HT4        *float64
	HT5        *float64
	ScrewSpeed *float64
	Torque     *float64

	Feed    *float64
	Sep     *float64
	Rotor   *float64
	AirFlow *float64
}

// ExtrudeParams returns the extrusion-stage parameters keyed by canonical
// column name. Absent values are nil; the rounder drops them.
func (r ProcessRecord) ExtrudeParams() map[string]*float64 {
	return map[string]*float64{
		ColDosing:     r.Dosing,
		ColSideFeed:   r.SideFeed,
		ColHT1:        r.HT1,
		ColHT2:        r.HT2,
		ColHT3:        r.HT3,
		ColHT4:        r.HT4,
		ColHT5:        r.HT5,
		ColScrewSpeed: r.ScrewSpeed,
		ColTorque:     r.Torque,
	}
}

// MillParams returns the milling-stage parameters keyed by canonical column name.
func (r ProcessRecord) MillParams() map[string]*float64 {
	return map[string]*float64{
		ColFeed:    r.Feed,
		ColSep:     r.Sep,
		ColRotor:   r.Rotor,
		ColAirFlow: r.AirFlow,
	}
}

// Passed reports whether both RFT flags carry the pass sentinel.
func (r ProcessRecord) Passed() bool {
	return r.RFTExt != nil && *r.RFTExt == RFTPass &&
		r.RFTMill != nil && *r.RFTMill == RFTPass
}

// MachineNA is the machine-number fallback when a record carries no
// line/mill identifier.
const MachineNA = "N/A"

// StageResult is one stage of a recommendation. MachineNo is the equipment
// number, or MachineNA when the record has none.
type StageResult struct {
	MachineNo  any            `json:"Machine no."`
	Parameters map[string]any `json:"Parameters"`
}

// MillResult extends StageResult with the winning throughput.
type MillResult struct {
	MachineNo  any            `json:"Machine no."`
	Parameters map[string]any `json:"Parameters"`
	Throughput float64        `json:"Throughput"`
}

// RankedResult is the recommendation for one product code.
type RankedResult struct {
	PO      string      `json:"po"`
	Extrude StageResult `json:"extrude"`
	Mill    MillResult  `json:"mill"`
}

// ProductCode is one entry of the upstream product-list payload.
type ProductCode struct {
	Code string `json:"code"`
}

// ProductResolution is one entry of a batch ranking response. Exactly one of
// PO or Error is set.
type ProductResolution struct {
	Code  string `json:"code"`
	PO    string `json:"po,omitempty"`
	Error string `json:"error,omitempty"`
}

// ProductList is the wire shape shared by the upstream fetch and the batch
// ranking endpoints.
type ProductList struct {
	Product []ProductCode `json:"product"`
}

// ResolvedList is the batch ranking response body.
type ResolvedList struct {
	Product []ProductResolution `json:"product"`
}

func StringPtr(v string) *string  { return &v }
func FloatPtr(v float64) *float64 { return &v }
func IntPtr(v int) *int           { return &v }
