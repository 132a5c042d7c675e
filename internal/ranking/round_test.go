package ranking

import (
	"testing"

	"rftrank/internal"
	"rftrank/internal/config"
)

func TestRoundNearest10(t *testing.T) {
	r := Rounder{TorquePolicy: config.TorqueDigit}

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{internal.ColHT1, 73, 70},
		{internal.ColHT3, 205, 210},
		{internal.ColHT5, 198.4, 200},
		{internal.ColScrewSpeed, 424, 420},
		{internal.ColScrewSpeed, 420, 420}, // fixed point
	}
	for _, tc := range tests {
		if got := r.round(tc.name, tc.in); got != tc.want {
			t.Errorf("round(%s, %v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestRoundTorqueDigit(t *testing.T) {
	r := Rounder{TorquePolicy: config.TorqueDigit}

	tests := []struct {
		in   float64
		want float64
	}{
		{53, 55},
		{54, 55},
		{56, 55},
		{57, 55},
		{51, 50},
		{52, 50},
		{58, 60},
		{59, 60},
		{50, 50},
		{55, 55},
		{55.126, 55.13}, // clean last digit, keep 2 decimals
	}
	for _, tc := range tests {
		if got := r.round(internal.ColTorque, tc.in); got != tc.want {
			t.Errorf("round(torque, %v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoundTorqueNearest5(t *testing.T) {
	r := Rounder{TorquePolicy: config.TorqueNearest5}

	tests := []struct {
		in   float64
		want float64
	}{
		{53, 55},
		{52, 50},
		{57.6, 60},
	}
	for _, tc := range tests {
		if got := r.round(internal.ColTorque, tc.in); got != tc.want {
			t.Errorf("round(torque, %v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoundPassThrough(t *testing.T) {
	r := Rounder{TorquePolicy: config.TorqueDigit}

	if got := r.round(internal.ColDosing, 12.34); got != 12.34 {
		t.Fatalf("dosing changed: %v", got)
	}
	if got := r.round(internal.ColFeed, 90.5); got != 90.5 {
		t.Fatalf("feed changed: %v", got)
	}
}

func TestCleanDropsAbsentAndRendersIntegers(t *testing.T) {
	r := Rounder{TorquePolicy: config.TorqueDigit}

	out := r.Clean(map[string]*float64{
		internal.ColHT1:    internal.FloatPtr(73),
		internal.ColTorque: internal.FloatPtr(53),
		internal.ColDosing: internal.FloatPtr(12.5),
		internal.ColHT2:    nil,
	})

	if _, ok := out[internal.ColHT2]; ok {
		t.Fatalf("nil parameter survived Clean")
	}
	if got := out[internal.ColHT1]; got != int64(70) {
		t.Fatalf("HT1=%v (%T)", got, got)
	}
	if got := out[internal.ColTorque]; got != int64(55) {
		t.Fatalf("torque=%v (%T)", got, got)
	}
	if got := out[internal.ColDosing]; got != 12.5 {
		t.Fatalf("dosing=%v (%T)", got, got)
	}
}
