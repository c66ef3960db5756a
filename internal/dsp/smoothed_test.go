package dsp

import (
	"math"
	"testing"
)

func TestSmoothedRampsMonotonicallyTowardTarget(t *testing.T) {
	s := NewSmoothed(48000, 20)
	s.SetImmediate(0)
	s.SetTarget(100)
	prev := 0.0
	// 20ms at 48kHz is a 960-sample time constant; 5000 samples is over
	// five time constants, leaving less than 1% of the step.
	for i := 0; i < 5000; i++ {
		v := s.Process()
		if v < prev {
			t.Fatalf("smoothed value decreased while ramping up: prev=%f now=%f", prev, v)
		}
		prev = v
	}
	if math.Abs(prev-100) > 1 {
		t.Errorf("expected to converge near 100 after 5000 samples at 20ms, got %f", prev)
	}
}

func TestSmoothedImmediateSkipsRamp(t *testing.T) {
	s := NewSmoothed(48000, 50)
	s.SetTarget(10)
	s.SetImmediate(10)
	if v := s.Process(); v != 10 {
		t.Errorf("expected immediate value to hold at target, got %f", v)
	}
}

func TestSmoothedZeroTimeIsInstant(t *testing.T) {
	s := NewSmoothed(48000, 0)
	s.SetImmediate(0)
	s.SetTarget(5)
	if v := s.Process(); v != 5 {
		t.Errorf("expected zero smoothing time to jump immediately, got %f", v)
	}
}
