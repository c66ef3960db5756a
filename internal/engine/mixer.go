package engine

import (
	"math"
	"sync/atomic"

	"github.com/polyvox/subsynth/internal/effects"
	"github.com/polyvox/subsynth/internal/voice"
)

// activeVoiceRebuildInterval is the periodic cache-rebuild cadence; the
// cache is additionally rebuilt early whenever the pool's generation
// counter changes.
const activeVoiceRebuildInterval = 1024

// PolishConfig tunes the mixer's optional post-mix reverb+EQ stage.
// DefaultPolishConfig mirrors a medium room with a gentle wet mix,
// suitable for most ambient soundscape layers.
type PolishConfig struct {
	RoomSize   float32    // 0..1, reverb delay-line length
	Feedback   float32    // 0..1, reverb decay time
	Wet        float32    // 0..1, reverb wet/dry mix
	Crossovers [4]float64 // ascending Hz, EQ band splits
}

// DefaultPolishConfig returns a medium room with a gentle wet mix and
// the standard sub/low/mid/presence/air band split.
func DefaultPolishConfig() PolishConfig {
	return PolishConfig{
		RoomSize:   0.3,
		Feedback:   0.5,
		Wet:        0.25,
		Crossovers: effects.DefaultCrossovers,
	}
}

// Mixer owns the voice pool, drains the dispatcher once per block, sums
// active voices with energy-normalized gain and writes soft-clipped
// interleaved (or mono) output. It is the only component that touches the
// host audio callback boundary.
type Mixer struct {
	pool       *voice.Pool
	dispatcher *Dispatcher
	sampleRate float64

	masterVolume atomic.Uint64 // float64 bits, relaxed store/load
	headroom     atomic.Uint64 // float64 bits
	pitchBend    atomic.Uint64 // float64 bits, semitones

	activeCache      []int
	lastGeneration   uint64
	samplesSinceBuild int

	energyScale float64

	// Optional post-mix polish stage: a touch of reverb and 5-band EQ
	// applied to the summed signal before the final soft clip. Off by
	// default — most soundscape layers mix dry.
	polishEnabled bool
	polish        *effects.Chain
	eq            *effects.EQ5Band
}

// NewMixer creates a mixer over the given pool and dispatcher, with the
// post-mix polish stage configured per cfg.
func NewMixer(pool *voice.Pool, dispatcher *Dispatcher, sampleRate float64, cfg PolishConfig) *Mixer {
	m := &Mixer{
		pool:        pool,
		dispatcher:  dispatcher,
		sampleRate:  sampleRate,
		energyScale: 1 / math.Sqrt(float64(pool.Len())),
	}
	m.masterVolume.Store(math.Float64bits(1))
	m.headroom.Store(math.Float64bits(1))
	m.activeCache = make([]int, 0, pool.Len())
	m.samplesSinceBuild = activeVoiceRebuildInterval // force a build on first render
	m.eq = effects.NewEQ5BandCrossovers(int(sampleRate), cfg.Crossovers)
	reverb := effects.NewReverb(int(sampleRate), cfg.RoomSize, cfg.Feedback, cfg.Wet)
	m.polish = effects.NewChain(m.eq, reverb)
	return m
}

// SetPolishEnabled toggles the optional post-mix reverb+EQ stage.
func (m *Mixer) SetPolishEnabled(enabled bool) { m.polishEnabled = enabled }

// EQ returns the post-mix equalizer for gain tweaks (bands 0-4, low to
// high; 1.0 is unity). Effective only while polish is enabled.
func (m *Mixer) EQ() *effects.EQ5Band { return m.eq }

// SetMasterVolume sets the volume scalar, read once per block by the
// audio thread with relaxed semantics.
func (m *Mixer) SetMasterVolume(v float64) { m.masterVolume.Store(math.Float64bits(v)) }

// SetHeadroom sets the soft-clip headroom scalar.
func (m *Mixer) SetHeadroom(v float64) { m.headroom.Store(math.Float64bits(v)) }

// SetPitchBend sets the global pitch bend in semitones.
func (m *Mixer) SetPitchBend(semitones float64) { m.pitchBend.Store(math.Float64bits(semitones)) }

func (m *Mixer) masterVolumeValue() float64 { return math.Float64frombits(m.masterVolume.Load()) }
func (m *Mixer) headroomValue() float64     { return math.Float64frombits(m.headroom.Load()) }
func (m *Mixer) pitchBendValue() float64    { return math.Float64frombits(m.pitchBend.Load()) }

// rebuildCache performs a linear scan of the pool, keeping only active
// voice indices. It runs at most once per block.
func (m *Mixer) rebuildCache() {
	m.activeCache = m.activeCache[:0]
	for i := 0; i < m.pool.Len(); i++ {
		if m.pool.At(i).IsActive() {
			m.activeCache = append(m.activeCache, i)
		}
	}
	m.lastGeneration = m.pool.Generation()
	m.samplesSinceBuild = 0
}

// maybeRebuildCache rebuilds the active-voice cache whenever the pool's
// generation has moved, or the periodic interval has elapsed, whichever
// comes first.
func (m *Mixer) maybeRebuildCache(blockFrames int) {
	if m.pool.Generation() != m.lastGeneration || m.samplesSinceBuild >= activeVoiceRebuildInterval {
		m.rebuildCache()
		return
	}
	m.samplesSinceBuild += blockFrames
}

// RenderStereo fills out (interleaved L/R float32 in [-1,1]) for frames
// stereo frames. This is the pull-mode audio callback the host device
// calls.
func (m *Mixer) RenderStereo(out []float32, frames int) {
	m.dispatcher.Drain(frames, m.sampleRate)
	m.maybeRebuildCache(frames)

	vol := m.masterVolumeValue()
	headroom := m.headroomValue()
	bend := m.pitchBendValue()
	for _, idx := range m.activeCache {
		m.pool.At(idx).SetPitchBend(bend)
	}

	for frame := 0; frame < frames; frame++ {
		var l, r float64
		for _, idx := range m.activeCache {
			v := m.pool.At(idx)
			if !v.IsActive() {
				continue
			}
			vl, vr := v.ProcessStereo()
			l += vl
			r += vr
		}
		l *= vol * m.energyScale
		r *= vol * m.energyScale
		if m.polishEnabled {
			fl, fr := m.polish.Process(float32(l), float32(r))
			l, r = float64(fl), float64(fr)
		}
		l = softClip(l, headroom)
		r = softClip(r, headroom)
		out[frame*2] = float32(l)
		out[frame*2+1] = float32(r)
	}
}

// RenderMono fills out with frames mono samples, collapsing per-voice
// Process() output with the same energy scaling and soft clip as
// stereo.
func (m *Mixer) RenderMono(out []float32, frames int) {
	m.dispatcher.Drain(frames, m.sampleRate)
	m.maybeRebuildCache(frames)

	vol := m.masterVolumeValue()
	headroom := m.headroomValue()
	bend := m.pitchBendValue()
	for _, idx := range m.activeCache {
		m.pool.At(idx).SetPitchBend(bend)
	}

	for frame := 0; frame < frames; frame++ {
		var s float64
		for _, idx := range m.activeCache {
			v := m.pool.At(idx)
			if !v.IsActive() {
				continue
			}
			s += v.Process()
		}
		s *= vol * m.energyScale
		out[frame] = float32(softClip(s, headroom))
	}
}

// softClip approximates tanh(x*headroom) with a cheap rational polynomial,
// clamping directly to +-1 once |x| exceeds 3 (where the rational form's
// error from true tanh becomes visually/audibly negligible next to unity).
func softClip(x, headroom float64) float64 {
	x *= headroom
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	return x * (27 + x*x) / (27 + 9*x*x)
}
