package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Spectrum holds one-sided amplitude spectra on a shared frequency axis in Hz.
type Spectrum struct {
	Freqs     []float64
	Incident  []float64
	Reflected []float64
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Amplitude zero-pads signal to size samples and returns |FFT| for the
// size/2 non-negative frequency bins. size is raised to a power of two that fits signal.
func Amplitude(signal []float64, size int) []float64 {
	size = NextPow2(max(size, len(signal)))
	padded := make([]float64, size)
	copy(padded, signal)

	spec := fft.FFTReal(padded)
	amp := make([]float64, size/2)
	for i := range amp {
		amp[i] = cmplx.Abs(spec[i])
	}
	return amp
}

// Frequencies returns the bin frequencies for an n-bin one-sided spectrum of
// a 2n-point transform sampled every dt seconds.
func Frequencies(n int, dt float64) []float64 {
	freqs := make([]float64, n)
	if n > 1 {
		df := 1 / (2 * float64(n) * dt)
		floats.Span(freqs, 0, df*float64(n-1))
	}
	return freqs
}

// FallAndScattered computes incident and reflected spectra with a common padding.
func FallAndScattered(incident, reflected []float64, dt float64, size int) *Spectrum {
	size = NextPow2(max(size, len(incident), len(reflected)))
	inc := Amplitude(incident, size)
	ref := Amplitude(reflected, size)
	return &Spectrum{
		Freqs:     Frequencies(len(inc), dt),
		Incident:  inc,
		Reflected: ref,
	}
}

// Limit returns a view of the spectrum up to fmax.
func (s *Spectrum) Limit(fmax float64) *Spectrum {
	n := s.index(fmax) + 1
	if n > len(s.Freqs) {
		n = len(s.Freqs)
	}
	return &Spectrum{
		Freqs:     s.Freqs[:n],
		Incident:  s.Incident[:n],
		Reflected: s.Reflected[:n],
	}
}

// Coefficient returns |R(f)| = |Reflected|/|Incident| for fmin <= f <= fmax.
func (s *Spectrum) Coefficient(fmin, fmax float64) ([]float64, []float64) {
	if len(s.Freqs) == 0 {
		return nil, nil
	}
	lo, hi := s.index(fmin), s.index(fmax)
	if s.Freqs[lo] < fmin {
		lo++
	}
	if hi >= len(s.Freqs) {
		hi = len(s.Freqs) - 1
	}
	if lo > hi {
		return nil, nil
	}

	freqs := append([]float64(nil), s.Freqs[lo:hi+1]...)
	r := make([]float64, len(freqs))
	floats.DivTo(r, s.Reflected[lo:hi+1], s.Incident[lo:hi+1])
	return freqs, r
}

// Dominant returns the frequency of the strongest incident bin, skipping DC.
func (s *Spectrum) Dominant() float64 {
	if len(s.Incident) < 2 {
		return 0
	}
	return s.Freqs[1+floats.MaxIdx(s.Incident[1:])]
}

// index is the last bin with frequency <= f.
func (s *Spectrum) index(f float64) int {
	if len(s.Freqs) < 2 || f <= 0 {
		return 0
	}
	df := s.Freqs[1] - s.Freqs[0]
	i := int(f / df)
	if i >= len(s.Freqs) {
		return len(s.Freqs) - 1
	}
	return i
}
