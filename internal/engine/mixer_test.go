package engine

import (
	"math"
	"testing"

	"github.com/polyvox/subsynth/internal/dsp"
	"github.com/polyvox/subsynth/internal/preset"
	"github.com/polyvox/subsynth/internal/voice"
)

func newTestMixer(poolSize int) (*Mixer, *Dispatcher, *preset.Library) {
	lib := preset.NewLibrary()
	lib.Add(preset.Preset{
		Name:            "tone",
		Osc1Level:       1,
		Osc1Wave:        dsp.WaveSine,
		FilterCutoff:    20000,
		AmpAttack:       0.001,
		AmpDecay:        0.05,
		AmpSustain:      0.8,
		AmpRelease:      0.1,
		FilterAttack:    0.001,
		FilterDecay:     0.05,
		FilterSustain:   0.8,
		FilterRelease:   0.1,
		Priority:        5,
		DefaultNote:     69,
	})
	pool := voice.NewPool(poolSize, 48000)
	d := NewDispatcher(lib, pool, DefaultSpatial())
	m := NewMixer(pool, d, 48000, DefaultPolishConfig())
	return m, d, lib
}

func TestMixerOutputBoundedAfterSoftClip(t *testing.T) {
	m, d, _ := newTestMixer(8)
	for i := 0; i < 8; i++ {
		d.SubmitFire("tone", 60+i, 1, 1, 0.5, 0)
	}
	out := make([]float32, 512*2)
	for block := 0; block < 20; block++ {
		m.RenderStereo(out, 512)
		for _, s := range out {
			if math.Abs(float64(s)) > 1.0001 {
				t.Fatalf("sample exceeded unity after soft clip: %f", s)
			}
		}
	}
}

func TestMixerSilentWithNoActiveVoices(t *testing.T) {
	m, _, _ := newTestMixer(4)
	out := make([]float32, 256*2)
	m.RenderStereo(out, 256)
	for _, s := range out {
		if s != 0 {
			t.Fatalf("expected silence with no triggers, got %f", s)
		}
	}
}

func TestMixerMonoRenderAlsoBounded(t *testing.T) {
	m, d, _ := newTestMixer(4)
	d.SubmitFire("tone", 60, 1, 1, 0.5, 0)
	out := make([]float32, 512)
	for block := 0; block < 10; block++ {
		m.RenderMono(out, 512)
		for _, s := range out {
			if math.Abs(float64(s)) > 1.0001 {
				t.Fatalf("mono sample exceeded unity: %f", s)
			}
		}
	}
}

func TestSoftClipClampsExtremeValues(t *testing.T) {
	if v := softClip(100, 1); v != 1 {
		t.Errorf("expected clamp to 1 for large positive input, got %f", v)
	}
	if v := softClip(-100, 1); v != -1 {
		t.Errorf("expected clamp to -1 for large negative input, got %f", v)
	}
}

func TestSoftClipIsNearIdentityForSmallInput(t *testing.T) {
	v := softClip(0.01, 1)
	if math.Abs(v-0.01) > 1e-3 {
		t.Errorf("expected near-identity for small input, got %f", v)
	}
}

func TestMixerPolishStageIsOffByDefault(t *testing.T) {
	m, d, _ := newTestMixer(2)
	d.SubmitFire("tone", 60, 1, 1, 0.5, 0)
	without := make([]float32, 512*2)
	m.RenderStereo(without, 512)

	m2, d2, _ := newTestMixer(2)
	d2.SubmitFire("tone", 60, 1, 1, 0.5, 0)
	m2.SetPolishEnabled(true)
	with := make([]float32, 512*2)
	m2.RenderStereo(with, 512)

	same := true
	for i := range without {
		if without[i] != with[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected enabling the polish stage to audibly change output")
	}
}
