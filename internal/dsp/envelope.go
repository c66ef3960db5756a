package dsp

import "math"

// EnvState is a stage of the ADSR state machine.
type EnvState int

const (
	EnvIdle EnvState = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// instantCoeffThreshold is the stage time below which a stage is treated as
// instantaneous (coefficient 1, full jump in one sample).
const instantCoeffThreshold = 1e-4

// releaseFloor is the level below which Release is considered fully decayed.
const releaseFloor = 1e-3

// Envelope is a four-stage exponential ADSR. Level approaches each stage's
// target with a one-pole filter; the stage coefficient is derived from the
// stage's time constant so each stage takes approximately T seconds to
// reach its target.
type Envelope struct {
	sampleRate float64
	attack     float64
	decay      float64
	sustain    float64
	release    float64

	state EnvState
	level float64
}

// NewEnvelope creates an idle envelope at the given sample rate.
func NewEnvelope(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate}
}

// SetTimes configures the stage times (seconds) and sustain level (0..1).
func (e *Envelope) SetTimes(attack, decay, sustain, release float64) {
	e.attack = attack
	e.decay = decay
	e.sustain = sustain
	e.release = release
}

// NoteOn forces the envelope into Attack regardless of current state,
// producing a retrigger; level is not reset, so a retrigger from a
// non-zero level continues smoothly toward 1.
func (e *Envelope) NoteOn() {
	e.state = EnvAttack
}

// NoteOff forces Release from any non-idle state. The level at the moment
// of the switch is not re-anchored: release proceeds exponentially toward
// zero from wherever the level happened to be.
func (e *Envelope) NoteOff() {
	if e.state != EnvIdle {
		e.state = EnvRelease
	}
}

// IsActive reports whether the envelope is producing non-zero output.
func (e *Envelope) IsActive() bool { return e.state != EnvIdle }

// IsInRelease reports whether the envelope is in its release stage.
func (e *Envelope) IsInRelease() bool { return e.state == EnvRelease }

// Level returns the current envelope value without advancing it.
func (e *Envelope) Level() float64 { return e.level }

// stageCoeff returns the one-pole coefficient for a stage of duration T.
func (e *Envelope) stageCoeff(t float64) float64 {
	if t <= instantCoeffThreshold {
		return 1
	}
	return 1 - math.Exp(-5/(t*e.sampleRate))
}

// Process advances the envelope by one sample and returns the new level.
func (e *Envelope) Process() float64 {
	switch e.state {
	case EnvAttack:
		c := e.stageCoeff(e.attack)
		e.level += c * (1 - e.level)
		if e.level >= 0.999 {
			e.level = 1
			e.state = EnvDecay
		}
	case EnvDecay:
		c := e.stageCoeff(e.decay)
		e.level += c * (e.sustain - e.level)
		if math.Abs(e.level-e.sustain) < 1e-3 {
			e.level = e.sustain
			e.state = EnvSustain
		}
	case EnvSustain:
		e.level = e.sustain
	case EnvRelease:
		c := e.stageCoeff(e.release)
		e.level += c * (0 - e.level)
		if e.level < releaseFloor {
			e.level = 0
			e.state = EnvIdle
		}
	case EnvIdle:
		e.level = 0
	}
	return e.level
}
