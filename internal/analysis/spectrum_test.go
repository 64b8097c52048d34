package analysis

import (
	"math"
	"testing"
)

func gaussDiff(n int, delay, width, scale float64) []float64 {
	s := make([]float64, n)
	for q := range s {
		e := (float64(q) - delay) / width
		s[q] = -2 * scale * e * math.Exp(-e*e)
	}
	return s
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {1500, 2048}, {4096, 4096},
	}
	for _, tt := range tests {
		if got := NextPow2(tt.in); got != tt.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAmplitudeSinusoid(t *testing.T) {
	n := 256
	k := 12
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Cos(2 * math.Pi * float64(k*i) / float64(n))
	}

	amp := Amplitude(signal, n)
	if len(amp) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(amp))
	}
	if math.Abs(amp[k]-float64(n)/2) > 1e-6 {
		t.Errorf("bin %d amplitude = %g, want %g", k, amp[k], float64(n)/2)
	}
	for i, v := range amp {
		if i != k && v > 1e-6 {
			t.Errorf("leakage in bin %d: %g", i, v)
		}
	}
}

func TestFrequencies(t *testing.T) {
	dt := 1e-3
	freqs := Frequencies(4, dt)
	want := []float64{0, 125, 250, 375}
	for i := range want {
		if math.Abs(freqs[i]-want[i]) > 1e-9 {
			t.Errorf("freqs[%d] = %g, want %g", i, freqs[i], want[i])
		}
	}
}

func TestFallAndScatteredCoefficient(t *testing.T) {
	dt := 1e-11
	inc := gaussDiff(1000, 80, 15, 1)
	ref := gaussDiff(1000, 500, 15, -0.4)

	spec := FallAndScattered(inc, ref, dt, 4096)
	if len(spec.Freqs) != 2048 || len(spec.Incident) != 2048 {
		t.Fatalf("unexpected spectrum size %d", len(spec.Freqs))
	}

	freqs, r := spec.Coefficient(0.5e9, 3e9)
	if len(freqs) == 0 {
		t.Fatal("empty band")
	}
	if freqs[0] < 0.5e9 || freqs[len(freqs)-1] > 3e9 {
		t.Errorf("band [%g, %g] outside request", freqs[0], freqs[len(freqs)-1])
	}
	for i, v := range r {
		if math.Abs(v-0.4) > 1e-6 {
			t.Fatalf("|R(%g)| = %g, want 0.4", freqs[i], v)
		}
	}
}

func TestSpectrumLimitAndDominant(t *testing.T) {
	dt := 1e-11
	spec := FallAndScattered(gaussDiff(1000, 80, 15, 1), nil, dt, 4096)

	limited := spec.Limit(5e9)
	last := limited.Freqs[len(limited.Freqs)-1]
	if last > 5e9 || last < 5e9-2*(spec.Freqs[1]) {
		t.Errorf("limit ends at %g", last)
	}
	if len(limited.Reflected) != len(limited.Freqs) {
		t.Error("limited spectra misaligned")
	}

	// derivative of exp(-(t/w)^2) peaks at 1/(pi*w*sqrt(2))
	want := 1 / (math.Pi * 15 * dt * math.Sqrt2)
	if got := spec.Dominant(); math.Abs(got-want)/want > 0.03 {
		t.Errorf("dominant frequency %g, want ~%g", got, want)
	}
}

func TestCoefficientEmptySpectrum(t *testing.T) {
	freqs, r := FallAndScattered(nil, nil, 1e-11, 0).Coefficient(1e9, 4e9)
	if freqs != nil || r != nil {
		t.Errorf("empty spectrum gave %v, %v", freqs, r)
	}
}
