// Package voice implements a single monophonic synth voice (component H)
// and the fixed-size voice pool with its priority/age stealing policy
// (component I).
package voice

import (
	"math"

	"github.com/polyvox/subsynth/internal/dsp"
	"github.com/polyvox/subsynth/internal/preset"
)

// controlRateInterval is the number of audio-rate samples between
// control-rate recomputations of oscillator increments and filter/smoother
// targets.
const controlRateInterval = 32

// minCutoff is the lower clamp for the modulated filter cutoff.
const minCutoff = 20.0

// Voice composes two oscillators, a noise source, a state-variable filter,
// two envelopes, two LFOs, a modulation matrix and two smoothed filter
// parameters into one monophonic signal chain.
type Voice struct {
	sampleRate float64

	osc1  *dsp.Oscillator
	osc2  *dsp.Oscillator
	noise *dsp.Noise
	filt  *dsp.Filter

	ampEnv    *dsp.Envelope
	filterEnv *dsp.Envelope

	lfo1 *dsp.LFO
	lfo2 *dsp.LFO

	matrix *dsp.Matrix

	cutoffSmooth *dsp.Smoothed
	resSmooth    *dsp.Smoothed

	// Preset-derived, value-only fields. configure() overwrites these
	// unconditionally even while the voice is active; only DSP *state*
	// (phase, envelope stage, filter integrators) is left untouched for a
	// live voice.
	osc1Level, osc2Level, noiseLevel float64
	osc2Semitones                    int
	osc2Detune                       float64
	baseCutoff, baseResonance        float64
	filterEnvAmount                  float64
	velocityToFilter                 float64
	lfo1ToFilter                     float64
	pulseWidthBase                   float64

	// Mutable per-note state.
	noteNumber  int
	baseFreq    float64
	velocity    float64
	gain        float64
	pan         float64
	active      bool
	ageStamp    uint32
	priority    int
	controlTick int
	currentLevel float64
	pitchBendSemis float64
}

// SetPitchBend sets a global pitch offset in semitones, sampled once per
// audio block by the mixer from an atomic control-thread scalar.
func (v *Voice) SetPitchBend(semitones float64) { v.pitchBendSemis = semitones }

// New creates an idle voice at the given sample rate.
func New(sampleRate float64) *Voice {
	v := &Voice{
		sampleRate:   sampleRate,
		osc1:         dsp.NewOscillator(sampleRate),
		osc2:         dsp.NewOscillator(sampleRate),
		noise:        dsp.NewNoise(dsp.NoiseWhite),
		filt:         dsp.NewFilter(sampleRate),
		ampEnv:       dsp.NewEnvelope(sampleRate),
		filterEnv:    dsp.NewEnvelope(sampleRate),
		lfo1:         dsp.NewLFO(sampleRate),
		lfo2:         dsp.NewLFO(sampleRate),
		matrix:       dsp.NewMatrix(),
		cutoffSmooth: dsp.NewSmoothed(sampleRate, 5),
		resSmooth:    dsp.NewSmoothed(sampleRate, 5),
	}
	return v
}

// IsActive reports whether the voice is currently producing (or releasing)
// sound.
func (v *Voice) IsActive() bool { return v.active }

// IsInRelease reports whether the amp envelope is in its release stage.
func (v *Voice) IsInRelease() bool { return v.ampEnv.IsInRelease() }

// CurrentLevel returns the most recent absolute output sample, used by the
// stealer's quietest-release tie-break.
func (v *Voice) CurrentLevel() float64 { return v.currentLevel }

// NoteOnTime returns the monotonic stamp recorded at the last NoteOn.
func (v *Voice) NoteOnTime() uint32 { return v.ageStamp }

// CurrentPriority returns the priority copied from the triggering preset.
func (v *Voice) CurrentPriority() int { return v.priority }

// NoteNumber returns the pitch last passed to NoteOn.
func (v *Voice) NoteNumber() int { return v.noteNumber }

// Configure applies an immutable preset to the voice. If the voice is
// inactive, DSP history (filter integrators, oscillator phase, smoothers)
// is reset first; preset values are always copied regardless of activity,
// so a live voice can have its preset hot-swapped without losing its
// current DSP state.
func (v *Voice) Configure(p *preset.Preset) {
	if !v.active {
		v.osc1.Reset()
		v.osc2.Reset()
		v.noise.Reset()
		v.filt.Reset()
		v.cutoffSmooth.SetImmediate(p.FilterCutoff)
		v.resSmooth.SetImmediate(p.FilterResonance)
	}

	v.osc1.SetWaveform(p.Osc1Wave)
	v.osc2.SetWaveform(p.Osc2Wave)
	v.osc1.SetPulseWidth(p.PulseWidth)
	v.osc2.SetPulseWidth(p.PulseWidth)
	v.noise.SetColor(p.NoiseColor)
	v.filt.SetMode(p.FilterMode)

	v.osc1Level = p.Osc1Level
	v.osc2Level = p.Osc2Level
	v.noiseLevel = p.NoiseLevel
	v.osc2Semitones = p.Osc2Semitones
	v.osc2Detune = p.Osc2Detune
	v.baseCutoff = p.FilterCutoff
	v.baseResonance = p.FilterResonance
	v.filterEnvAmount = p.FilterEnvAmount
	v.velocityToFilter = p.VelocityToFilter
	v.lfo1ToFilter = p.LFO1ToFilter
	v.pulseWidthBase = p.PulseWidth

	v.ampEnv.SetTimes(p.AmpAttack, p.AmpDecay, p.AmpSustain, p.AmpRelease)
	v.filterEnv.SetTimes(p.FilterAttack, p.FilterDecay, p.FilterSustain, p.FilterRelease)

	v.lfo1.SetFrequency(p.LFO1Rate)
	v.lfo1.SetWaveform(p.LFO1Wave)
	v.lfo2.SetFrequency(p.LFO2Rate)
	v.lfo2.SetWaveform(p.LFO2Wave)

	// LFO1's depth scales the raw [-1,1] LFO source before it reaches the
	// matrix's fixed pitch/PWM routes, since the matrix itself only ever
	// sums raw amounts.
	v.matrix.SetRouteAmount(dsp.RouteIdxLFO1ToPitch, p.LFO1ToPitch*p.LFO1Depth)
	v.matrix.SetRouteAmount(dsp.RouteIdxLFO1ToPWM, p.LFO1ToPWM*p.LFO1Depth)

	v.priority = p.Priority
}

// NoteOn starts the voice at the given pitch/velocity/spatial gain/pan,
// recording stamp as the voice's age for stealing purposes.
func (v *Voice) NoteOn(note int, velocity, gain, pan float64, stamp uint32) {
	v.noteNumber = note
	v.baseFreq = 440 * math.Pow(2, float64(note-69)/12)
	v.velocity = clamp01(velocity)
	v.gain = gain
	v.pan = pan
	v.ageStamp = stamp

	v.osc1.ResetPhase()
	v.osc2.ResetPhase()
	v.updateOscFrequencies(0, 0)

	v.ampEnv.NoteOn()
	v.filterEnv.NoteOn()
	v.matrix.SetSource(dsp.SrcVelocity, v.velocity)

	v.active = true
	v.controlTick = 0
}

// NoteOff releases both envelopes. Idempotent: calling it twice has the
// same effect as calling it once, since Envelope.NoteOff is itself a no-op
// once already in Release or Idle.
func (v *Voice) NoteOff() {
	v.ampEnv.NoteOff()
	v.filterEnv.NoteOff()
}

func (v *Voice) updateOscFrequencies(pitchSemis, osc2Semis float64) {
	freq1 := v.baseFreq * math.Pow(2, pitchSemis/12)
	v.osc1.SetFrequency(freq1)

	osc2Mul := math.Pow(2, (float64(v.osc2Semitones)+v.osc2Detune+osc2Semis)/12)
	v.osc2.SetFrequency(freq1 * osc2Mul)
}

// Process advances the voice by one sample and returns its mono output.
func (v *Voice) Process() float64 {
	lfo1Val := v.lfo1.Process()
	lfo2Val := v.lfo2.Process()
	filterEnvVal := v.filterEnv.Process()
	ampEnvVal := v.ampEnv.Process()

	v.matrix.SetSource(dsp.SrcLFO1, lfo1Val)
	v.matrix.SetSource(dsp.SrcLFO2, lfo2Val)
	v.matrix.SetSource(dsp.SrcFilterEnv, filterEnvVal)
	v.matrix.SetSource(dsp.SrcAmpEnv, ampEnvVal)

	v.controlTick++
	if v.controlTick >= controlRateInterval {
		v.controlTick = 0
		v.matrix.Process()

		v.updateOscFrequencies(v.matrix.Dest(dsp.DestPitch)+v.pitchBendSemis, v.matrix.Dest(dsp.DestOsc2Pitch))

		pw := clamp(v.pulseWidthBase+v.matrix.Dest(dsp.DestPWM), 0.05, 0.95)
		v.osc1.SetPulseWidth(pw)
		v.osc2.SetPulseWidth(pw)

		matrixCutoffMod := v.matrix.Dest(dsp.DestFilterCutoff)
		cutoff := v.baseCutoff + filterEnvVal*v.filterEnvAmount + matrixCutoffMod*v.lfo1ToFilter + v.velocity*v.velocityToFilter
		cutoff = clamp(cutoff, minCutoff, v.sampleRate*0.45)
		v.cutoffSmooth.SetTarget(cutoff)

		res := v.baseResonance + v.matrix.Dest(dsp.DestFilterRes)
		res = clamp(res, 0, 1)
		v.resSmooth.SetTarget(res)
	}

	sig := v.osc1.Process()*v.osc1Level + v.osc2.Process()*v.osc2Level + v.noise.Process()*v.noiseLevel

	cutoff := v.cutoffSmooth.Process()
	res := v.resSmooth.Process()
	sig = v.filt.Process(sig, cutoff, res)

	sig *= ampEnvVal * v.velocity * v.gain
	sig *= 1 + v.matrix.Dest(dsp.DestAmplitude)

	v.currentLevel = math.Abs(sig)
	if !v.ampEnv.IsActive() {
		v.active = false
	}
	return sig
}

// ProcessStereo renders one sample and pans it with constant-power law.
func (v *Voice) ProcessStereo() (float64, float64) {
	mono := v.Process()
	angle := v.pan * math.Pi / 2
	return mono * math.Cos(angle), mono * math.Sin(angle)
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

func clamp01(v float64) float64 { return clamp(v, 0, 1) }
