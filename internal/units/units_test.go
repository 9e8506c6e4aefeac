package units

import "testing"

func TestRoundTrip(t *testing.T) {
	for _, sqm := range []float64{1, 465.8, 1000, 92903.04} {
		got := SqftToSqm(SqmToSqft(sqm))
		if diff(got, sqm) > 1e-9 {
			t.Fatalf("round trip drifted: got=%f want=%f", got, sqm)
		}
	}
}

func TestKnownValue(t *testing.T) {
	got := SqmToSqft(1000)
	if diff(got, 10763.9) > 1e-6 {
		t.Fatalf("unexpected conversion: got=%f want=10763.9", got)
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
