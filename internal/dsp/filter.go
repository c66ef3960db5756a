package dsp

import "math"

// FilterMode selects which tap of the state-variable filter is returned.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// Filter is a zero-delay-feedback state-variable filter (Andrew Simper's
// trapezoidal-integrator topology), offering simultaneous LP/HP/BP/Notch
// taps from two integrator states.
type Filter struct {
	sampleRate float64
	mode       FilterMode
	ic1, ic2   float64
}

// NewFilter creates a filter at the given sample rate.
func NewFilter(sampleRate float64) *Filter {
	return &Filter{sampleRate: sampleRate}
}

// SetMode selects the output tap.
func (f *Filter) SetMode(m FilterMode) { f.mode = m }

// Reset zeros the integrator state.
func (f *Filter) Reset() {
	f.ic1 = 0
	f.ic2 = 0
}

// Process runs one sample through the filter at the given cutoff (Hz) and
// resonance (0..1). Cutoff is clamped below Nyquist to keep the tan
// approximation (and thus the coefficients) from singularities.
func (f *Filter) Process(x, cutoff, resonance float64) float64 {
	nyquistGuard := f.sampleRate * 0.49
	if cutoff > nyquistGuard {
		cutoff = nyquistGuard
	}
	if cutoff < 1 {
		cutoff = 1
	}
	if resonance < 0 {
		resonance = 0
	}
	if resonance > 1 {
		resonance = 1
	}

	w := math.Pi * cutoff / f.sampleRate
	g := w + w*w*w/3 // first-two-term Taylor approximation of tan(w)
	k := 2 * (1 - 0.99*resonance)

	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := x - f.ic2
	v1 := a1*f.ic1 + a2*v3
	v2 := f.ic2 + a2*f.ic1 + a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	switch f.mode {
	case FilterHighpass:
		return x - k*v1 - v2
	case FilterBandpass:
		return v1
	case FilterNotch:
		return x - k*v1
	default:
		return v2
	}
}
