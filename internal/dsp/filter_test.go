package dsp

import (
	"math"
	"testing"
)

func TestFilterLowpassAttenuatesHighFrequency(t *testing.T) {
	sampleRate := 48000.0
	f := NewFilter(sampleRate)
	f.SetMode(FilterLowpass)

	// Drive with a high-frequency oscillator through a low cutoff; output
	// RMS should be well below input RMS.
	osc := NewOscillator(sampleRate)
	osc.SetFrequency(8000)
	var inSum, outSum float64
	for i := 0; i < 4096; i++ {
		x := osc.Process()
		y := f.Process(x, 200, 0.3)
		inSum += x * x
		outSum += y * y
	}
	if outSum >= inSum*0.5 {
		t.Errorf("expected significant attenuation: in=%f out=%f", inSum, outSum)
	}
}

func TestFilterBoundedAtResonanceOneAndClampedCutoff(t *testing.T) {
	sampleRate := 44100.0
	f := NewFilter(sampleRate)
	f.SetMode(FilterBandpass)
	for i := 0; i < 20000; i++ {
		y := f.Process(1, sampleRate, 1) // cutoff above Nyquist guard, max resonance
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("filter produced NaN/Inf at resonance=1: %v", y)
		}
		if math.Abs(y) > 10 {
			t.Fatalf("filter output diverged: %f", y)
		}
	}
}

func TestFilterResetClearsIntegrators(t *testing.T) {
	f := NewFilter(48000)
	for i := 0; i < 100; i++ {
		f.Process(1, 1000, 0.5)
	}
	f.Reset()
	if f.ic1 != 0 || f.ic2 != 0 {
		t.Errorf("expected integrators cleared after reset")
	}
}

func TestFilterLowpassSettlesToUnityDCGain(t *testing.T) {
	f := NewFilter(48000)
	f.SetMode(FilterLowpass)
	var y float64
	for i := 0; i < 5000; i++ {
		y = f.Process(1, 500, 0)
	}
	if y < 0.9 || y > 1.1 {
		t.Errorf("expected lowpass to settle near unity DC gain, got %f", y)
	}
}
