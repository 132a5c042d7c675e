package util

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain integer", input: "420", want: 420},
		{name: "decimal dot", input: "73.5", want: 73.5},
		{name: "decimal comma", input: "73,5", want: 73.5},
		{name: "thousand space", input: "1 250", want: 1250},
		{name: "thousand dot", input: "1.250", want: 1250},
		{name: "padded", input: "  88  ", want: 88},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNumber(tc.input)
			if got == nil {
				t.Fatalf("parsed nil")
			}
			if *got != tc.want {
				t.Fatalf("got %v want %v", *got, tc.want)
			}
		})
	}
}

func TestParseNumberAbsent(t *testing.T) {
	for _, input := range []string{"", "   ", "n/a", "sensor fault", "-"} {
		if got := ParseNumber(input); got != nil {
			t.Fatalf("ParseNumber(%q) = %v, want nil", input, *got)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt("3.0"); got == nil || *got != 3 {
		t.Fatalf("got %v", got)
	}
	if got := ParseInt("3.5"); got != nil {
		t.Fatalf("fractional id parsed to %d", *got)
	}
	if got := ParseInt(""); got != nil {
		t.Fatalf("empty id parsed to %d", *got)
	}
}

func TestRenderNumber(t *testing.T) {
	if got := RenderNumber(500); got != int64(500) {
		t.Fatalf("got %v (%T)", got, got)
	}
	if got := RenderNumber(73.5); got != 73.5 {
		t.Fatalf("got %v (%T)", got, got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(500); got != "500" {
		t.Fatalf("got %q", got)
	}
	if got := FormatNumber(73.5); got != "73.5" {
		t.Fatalf("got %q", got)
	}
}
