package dsp

import (
	"math"
	"testing"
)

func TestOscillatorSineIsBoundedAndCorrectFrequency(t *testing.T) {
	sampleRate := 48000.0
	o := NewOscillator(sampleRate)
	o.SetWaveform(WaveSine)
	o.SetFrequency(440)

	zeroCrossings := 0
	prev := o.Process()
	for i := 1; i < int(sampleRate); i++ {
		v := o.Process()
		if math.Abs(v) > 1.0001 {
			t.Fatalf("sine sample out of range: %f", v)
		}
		if (prev < 0) != (v < 0) {
			zeroCrossings++
		}
		prev = v
	}
	// 440 Hz has ~880 zero crossings per second; allow generous slack.
	if zeroCrossings < 860 || zeroCrossings > 900 {
		t.Errorf("expected ~880 zero crossings for 440Hz sine, got %d", zeroCrossings)
	}
}

func TestOscillatorFrequencyClampedToNyquist(t *testing.T) {
	sampleRate := 44100.0
	o := NewOscillator(sampleRate)
	o.SetFrequency(sampleRate) // well above Nyquist
	if o.inc > 0.5 {
		t.Errorf("expected increment clamped to Nyquist (<=0.5), got %f", o.inc)
	}
}

func TestOscillatorSawBoundedAtHighFrequency(t *testing.T) {
	sampleRate := 48000.0
	o := NewOscillator(sampleRate)
	o.SetWaveform(WaveSaw)
	o.SetFrequency(sampleRate / 2.1) // near the Nyquist boundary
	var dcSum float64
	n := int(sampleRate)
	for i := 0; i < n; i++ {
		v := o.Process()
		if math.Abs(v) > 1.5 {
			t.Fatalf("saw sample unbounded: %f", v)
		}
		dcSum += v
	}
	if math.Abs(dcSum/float64(n)) > 0.2 {
		t.Errorf("expected roughly zero DC after 1s, got mean %f", dcSum/float64(n))
	}
}

func TestOscillatorSquarePulseWidth(t *testing.T) {
	o := NewOscillator(48000)
	o.SetWaveform(WaveSquare)
	o.SetPulseWidth(0.25)
	o.SetFrequency(100)
	high, low := 0, 0
	for i := 0; i < 480; i++ {
		v := o.Process()
		if v > 0 {
			high++
		} else {
			low++
		}
	}
	if high >= low {
		t.Errorf("expected narrower duty cycle to produce less high time, got high=%d low=%d", high, low)
	}
}

func TestOscillatorResetZeroesPhase(t *testing.T) {
	o := NewOscillator(48000)
	o.SetWaveform(WaveSaw)
	o.SetFrequency(220)
	for i := 0; i < 100; i++ {
		o.Process()
	}
	o.ResetPhase()
	if o.phase != 0 {
		t.Errorf("expected phase reset to 0, got %f", o.phase)
	}
}

func TestPolyBLEPZeroAwayFromDiscontinuity(t *testing.T) {
	if v := polyBLEP(0.5, 0.01); v != 0 {
		t.Errorf("expected zero residual mid-cycle, got %f", v)
	}
}
