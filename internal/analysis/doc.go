// Package analysis post-processes probe data recorded by the solver.
//
// The package covers what the lab needs after a run:
//
//   - [Amplitude]: one-sided FFT magnitude of a zero-padded signal
//   - [FallAndScattered]: incident and reflected spectra on a common axis
//   - [Spectrum.Coefficient]: |R(f)| inside a frequency band
//   - [PeakToPeak], [MaxAbs], [ArrivalStep]: time-domain pulse measurements
//   - [ReflectionCoefficient]: analytic normal-incidence reference
//
// # Reflection from a layered medium
//
// A probe placed between the left boundary and the source sits in the
// scattered-field region and records only the reflected wave. Its spectrum
// divided by the source spectrum gives the reflection coefficient:
//
//	inc := src.Sample(steps)
//	spec := analysis.FallAndScattered(inc, probe.E(), dt, analysis.NextPow2(4*steps))
//	freqs, r := spec.Coefficient(1e9, 4e9)
package analysis
