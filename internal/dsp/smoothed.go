package dsp

import "math"

// Smoothed is a one-pole target-follower used to de-click hot-swapped
// parameter updates (filter cutoff, resonance) across a control-rate
// boundary.
type Smoothed struct {
	sampleRate float64
	coeff      float64
	current    float64
	target     float64
}

// NewSmoothed creates a smoothed parameter starting at 0 with the given
// smoothing time in milliseconds.
func NewSmoothed(sampleRate, smoothMs float64) *Smoothed {
	s := &Smoothed{sampleRate: sampleRate}
	s.SetSmoothingTime(smoothMs)
	return s
}

// SetSmoothingTime reconfigures the one-pole coefficient for a new ramp
// time in milliseconds.
func (s *Smoothed) SetSmoothingTime(ms float64) {
	if ms <= 0 {
		s.coeff = 1
		return
	}
	s.coeff = 1 - math.Exp(-1/(ms*1e-3*s.sampleRate))
}

// SetTarget sets the value the parameter ramps toward.
func (s *Smoothed) SetTarget(v float64) { s.target = v }

// SetImmediate snaps both current and target to v, skipping the ramp.
func (s *Smoothed) SetImmediate(v float64) {
	s.current = v
	s.target = v
}

// Current returns the current (possibly mid-ramp) value.
func (s *Smoothed) Current() float64 { return s.current }

// Process advances the ramp by one sample and returns the new current
// value.
func (s *Smoothed) Process() float64 {
	s.current += s.coeff * (s.target - s.current)
	return s.current
}
