package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ReflectionCoefficient is the normal-incidence amplitude reflection coefficient
// for a wave going from medium a into medium b.
func ReflectionCoefficient(epsA, epsB float64) float64 {
	na, nb := math.Sqrt(epsA), math.Sqrt(epsB)
	return (na - nb) / (na + nb)
}

// Window returns s[from:to] clipped to the slice bounds.
func Window(s []float64, from, to int) []float64 {
	from = max(0, min(from, len(s)))
	to = max(from, min(to, len(s)))
	return s[from:to]
}

// PeakToPeak is max(s) - min(s), 0 for an empty slice.
func PeakToPeak(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Max(s) - floats.Min(s)
}

// MaxAbs is the largest |s[i]|, 0 for an empty slice.
func MaxAbs(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return math.Max(floats.Max(s), -floats.Min(s))
}

// ArrivalStep is the index of the largest |s[i]|, -1 for an empty slice.
func ArrivalStep(s []float64) int {
	if len(s) == 0 {
		return -1
	}
	hi, lo := floats.MaxIdx(s), floats.MinIdx(s)
	if s[hi] >= -s[lo] {
		return hi
	}
	return lo
}

// Reflection is the measured amplitude ratio of a reflected pulse to the incident one.
func Reflection(incident, reflected []float64) float64 {
	inc := PeakToPeak(incident)
	if inc == 0 {
		return 0
	}
	return PeakToPeak(reflected) / inc
}
