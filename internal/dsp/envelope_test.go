package dsp

import "testing"

func TestEnvelopeLevelStaysInUnitRange(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0.01, 0.1, 0.6, 0.3)
	e.NoteOn()
	for i := 0; i < 48000; i++ {
		v := e.Process()
		if v < 0 || v > 1 {
			t.Fatalf("envelope level out of [0,1] at sample %d: %f", i, v)
		}
		if i == 24000 {
			e.NoteOff()
		}
	}
}

func TestEnvelopeAttackZeroIsNearUnityFirstSample(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0, 0.1, 0.6, 0.3)
	e.NoteOn()
	v := e.Process()
	if v < 0.99 {
		t.Errorf("expected first sample near 1 with attack=0, got %f", v)
	}
}

func TestEnvelopeReleaseIsMonotonicNonIncreasing(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0.001, 0.001, 0.8, 0.5)
	e.NoteOn()
	for i := 0; i < 200; i++ {
		e.Process()
	}
	e.NoteOff()
	prev := e.Level()
	for i := 0; i < 24000; i++ {
		v := e.Process()
		if v > prev+1e-9 {
			t.Fatalf("release level increased: prev=%f now=%f at sample %d", prev, v, i)
		}
		prev = v
	}
}

func TestEnvelopeNoteOffIdempotent(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0.01, 0.1, 0.6, 0.2)
	e.NoteOn()
	for i := 0; i < 100; i++ {
		e.Process()
	}
	e.NoteOff()
	afterFirst := e.state
	e.NoteOff()
	if e.state != afterFirst {
		t.Errorf("second NoteOff changed state from %v to %v", afterFirst, e.state)
	}
}

func TestEnvelopeBecomesIdleAfterRelease(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0.001, 0.001, 0.5, 0.05)
	e.NoteOn()
	for i := 0; i < 1000; i++ {
		e.Process()
	}
	e.NoteOff()
	active := true
	for i := 0; i < 48000 && active; i++ {
		e.Process()
		active = e.IsActive()
	}
	if e.IsActive() {
		t.Error("expected envelope to reach idle well within 1 second of a 50ms release")
	}
}

func TestEnvelopeNoteOnRetriggersFromAnyState(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetTimes(0.01, 0.1, 0.6, 0.2)
	e.NoteOn()
	for i := 0; i < 100; i++ {
		e.Process()
	}
	e.NoteOff()
	for i := 0; i < 100; i++ {
		e.Process()
	}
	e.NoteOn()
	if e.state != EnvAttack {
		t.Errorf("expected NoteOn to force Attack state, got %v", e.state)
	}
}
