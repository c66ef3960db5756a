// Package preset holds the immutable parameter bundles consumed at voice
// trigger time. A preset is never mutated after it is added to a Library;
// how a preset is authored or persisted is a concern for the caller —
// callers build Preset values however they like and register them here.
package preset

import "github.com/polyvox/subsynth/internal/dsp"

// Preset is an immutable snapshot of voice parameters.
type Preset struct {
	Name string

	Osc1Level  float64
	Osc2Level  float64
	NoiseLevel float64

	Osc1Wave dsp.Waveform
	Osc2Wave dsp.Waveform

	Osc2Semitones int
	Osc2Detune    float64 // fractional semitones added to Osc2Semitones

	NoiseColor dsp.NoiseColor

	FilterCutoff        float64
	FilterResonance     float64
	FilterEnvAmount     float64 // signed Hz
	FilterMode          dsp.FilterMode
	VelocityToFilter    float64

	AmpAttack, AmpDecay, AmpSustain, AmpRelease       float64
	FilterAttack, FilterDecay, FilterSustain, FilterRelease float64

	LFO1Rate, LFO1Depth float64
	LFO1Wave            dsp.LFOWaveform
	LFO2Rate, LFO2Depth float64
	LFO2Wave            dsp.LFOWaveform

	LFO1ToFilter float64
	LFO1ToPitch  float64
	LFO1ToPWM    float64

	PulseWidth float64

	Priority int
	DefaultNote int
}

// Library is a catalog of presets, keyed by stable name; adding a preset
// under a name already present replaces the earlier entry. It is
// structurally shared between the control and audio threads; it must not
// be mutated once triggers referencing it may be in flight.
type Library struct {
	byName map[string]*Preset
}

// NewLibrary creates an empty preset catalog.
func NewLibrary() *Library {
	return &Library{byName: make(map[string]*Preset)}
}

// Add registers a preset. Presets are never mutated in place once added;
// callers that need to change a sound add a new preset under a new name.
func (l *Library) Add(p Preset) {
	cp := p
	l.byName[p.Name] = &cp
}

// Lookup resolves a preset by stable name. The bool is false if no preset
// with that name has been registered; the caller (the dispatcher) drops
// the trigger and records a diagnostic rather than consuming a voice.
func (l *Library) Lookup(name string) (*Preset, bool) {
	p, ok := l.byName[name]
	return p, ok
}
