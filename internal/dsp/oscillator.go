// Package dsp implements the per-sample signal-generation components of a
// subtractive synth voice: oscillators, noise, the state-variable filter,
// envelopes, LFOs, parameter smoothing and the modulation matrix.
package dsp

import "math"

// Waveform selects an oscillator's output shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// Oscillator is a band-limited, anti-aliased audio-rate oscillator.
// Phase and increment are kept in double precision; PolyBLEP residuals
// correct the naive saw/square discontinuities and the triangle is a
// leaky integration of the square wave.
type Oscillator struct {
	sampleRate float64
	phase      float64 // [0, 1)
	inc        float64 // per-sample phase increment
	waveform   Waveform
	pulseWidth float64 // square duty cycle, (0, 1)

	triState float64 // leaky integrator state for the triangle wave
}

// NewOscillator creates an oscillator at the given sample rate.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		pulseWidth: 0.5,
	}
}

// SetWaveform selects the output waveform.
func (o *Oscillator) SetWaveform(w Waveform) { o.waveform = w }

// SetPulseWidth sets the square wave duty cycle, clamped to a safe range
// away from the degenerate 0/1 edges.
func (o *Oscillator) SetPulseWidth(pw float64) {
	o.pulseWidth = clamp(pw, 0.05, 0.95)
}

// SetFrequency recomputes the per-sample increment for a target frequency,
// clamping to Nyquist first so the increment can never alias past 0.5.
func (o *Oscillator) SetFrequency(freq float64) {
	nyquist := o.sampleRate * 0.5
	if freq > nyquist {
		freq = nyquist
	}
	if freq < 0 {
		freq = 0
	}
	o.inc = freq / o.sampleRate
}

// ResetPhase zeros the phase and any integrator state, used on NoteOn so
// every voice attacks from a consistent point in its cycle.
func (o *Oscillator) ResetPhase() {
	o.phase = 0
	o.triState = 0
}

// Reset zeros all oscillator state.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.triState = 0
}

// Process advances the oscillator by one sample and returns the output in
// [-1, 1].
func (o *Oscillator) Process() float64 {
	var out float64
	switch o.waveform {
	case WaveSine:
		out = math.Cos(2 * math.Pi * o.phase)
	case WaveSaw:
		out = 2*o.phase - 1
		out -= polyBLEP(o.phase, o.inc)
	case WaveSquare:
		if o.phase < o.pulseWidth {
			out = 1
		} else {
			out = -1
		}
		out += polyBLEP(o.phase, o.inc)
		out -= polyBLEP(math.Mod(o.phase-o.pulseWidth+1, 1), o.inc)
	case WaveTriangle:
		var sq float64
		if o.phase < 0.5 {
			sq = 1
		} else {
			sq = -1
		}
		sq += polyBLEP(o.phase, o.inc)
		sq -= polyBLEP(math.Mod(o.phase+0.5, 1), o.inc)
		// Leaky integration: gain 4*inc per step keeps amplitude roughly
		// pitch-independent, damping (1-inc) bleeds off DC drift.
		o.triState = o.triState*(1-o.inc) + 4*o.inc*sq
		out = o.triState
	}

	o.phase += o.inc
	for o.phase >= 1 {
		o.phase -= 1
	}
	for o.phase < 0 {
		o.phase += 1
	}
	return out
}

// polyBLEP returns the polynomial band-limited step residual for phase t
// with per-sample increment dt, used to smooth discontinuities at 0 and
// at a wrap boundary.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		tau := t / dt
		return tau + tau - tau*tau - 1
	}
	if t > 1-dt {
		tau := (t - 1) / dt
		return tau*tau + 2*tau + 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
