package ranking

import (
	"math"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/util"
)

// Rounder normalizes a stage's raw parameters into the recommendation
// payload. Heat zones and screw speed snap to the nearest multiple of 10;
// torque follows the configured policy; everything else passes through.
// Absent parameters are dropped, never emitted as nulls.
type Rounder struct {
	TorquePolicy string
}

func NewRounder(cfg config.Config) Rounder {
	return Rounder{TorquePolicy: cfg.TorqueRounding}
}

var nearest10Fields = map[string]bool{
	internal.ColHT1:        true,
	internal.ColHT2:        true,
	internal.ColHT3:        true,
	internal.ColHT4:        true,
	internal.ColHT5:        true,
	internal.ColScrewSpeed: true,
}

// Clean applies the rounding rules to one stage's parameter mapping and
// renders integer-valued floats as integers.
func (r Rounder) Clean(params map[string]*float64) map[string]any {
	out := make(map[string]any, len(params))
	for name, v := range params {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		out[name] = util.RenderNumber(r.round(name, *v))
	}
	return out
}

func (r Rounder) round(name string, v float64) float64 {
	switch {
	case nearest10Fields[name]:
		return math.Round(v/10) * 10
	case name == internal.ColTorque:
		if r.TorquePolicy == config.TorqueNearest5 {
			return math.Round(v/5) * 5
		}
		return roundTorqueDigit(v)
	default:
		return v
	}
}

// roundTorqueDigit snaps torque toward operator-friendly readings based on
// the last digit of the integer part:
//
//	3,4,6,7 -> nearest value ending in 5
//	1,2     -> down to the ten
//	8,9     -> up to the next ten
//	0,5     -> already clean; round to 2 decimals
func roundTorqueDigit(v float64) float64 {
	d := int(math.Abs(math.Trunc(v))) % 10
	tens := math.Floor(v/10) * 10
	switch d {
	case 3, 4, 6, 7:
		return tens + 5
	case 1, 2:
		return tens
	case 8, 9:
		return tens + 10
	default:
		return math.Round(v*100) / 100
	}
}
