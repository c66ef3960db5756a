// Package subsynth is the real-time polyphonic subtractive synthesis
// engine of a mobile soundscape application: two anti-aliased oscillators
// plus noise per voice, a resonant state-variable filter, dual ADSR
// envelopes, two LFOs and a small modulation matrix, drawn from a fixed
// voice pool and triggered through a lock-free command queue.
//
// Preset authoring, the MIDI/UI trigger source and host audio I/O are
// external collaborators (see internal/audio for the one pull-mode
// adapter this module ships) — Engine itself only ever renders from an
// in-memory preset.Library and a stream of submitted commands.
package subsynth

import (
	"errors"

	"github.com/polyvox/subsynth/internal/audio"
	"github.com/polyvox/subsynth/internal/effects"
	"github.com/polyvox/subsynth/internal/engine"
	"github.com/polyvox/subsynth/internal/preset"
	"github.com/polyvox/subsynth/internal/voice"
)

// Re-exported so callers don't need to import internal/preset or
// internal/engine directly for the common path.
type Preset = preset.Preset
type Library = preset.Library

// CommandHandle lets the submitting thread cancel a command already
// queued but not yet drained by the audio thread.
type CommandHandle = engine.CommandHandle

// NewLibrary creates an empty preset catalog.
func NewLibrary() *Library { return preset.NewLibrary() }

const defaultPoolSize = 32

// EngineOption configures New.
type EngineOption func(*engineConfig)

type engineConfig struct {
	poolSize int
	spatial  engine.SpatialDefaults
	polish   engine.PolishConfig
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		poolSize: defaultPoolSize,
		spatial:  engine.DefaultSpatial(),
		polish:   engine.DefaultPolishConfig(),
	}
}

// WithPoolSize sets the fixed voice pool size (16..128 comfortably covers a
// soundscape's worth of overlapping layers; any positive value is
// accepted).
func WithPoolSize(n int) EngineOption {
	return func(c *engineConfig) { c.poolSize = n }
}

// WithSpatialDefaults overrides the position-based spatialization
// rolloff/strength constants used by FireAtPosition.
func WithSpatialDefaults(d engine.SpatialDefaults) EngineOption {
	return func(c *engineConfig) { c.spatial = d }
}

// WithPolishConfig overrides the post-mix reverb+EQ stage's room size,
// decay, wet mix and EQ band splits. The stage itself stays disabled
// until SetPolishEnabled(true) is called.
func WithPolishConfig(p engine.PolishConfig) EngineOption {
	return func(c *engineConfig) { c.polish = p }
}

// Engine owns the voice pool, trigger dispatcher and master mixer for one
// fixed sample rate. Construction is the only operation that can fail
// (a zero sample rate or pool size); once built, every other operation is
// infallible or reports overflow, never an error.
type Engine struct {
	sampleRate float64
	pool       *voice.Pool
	library    *preset.Library
	dispatcher *engine.Dispatcher
	mixer      *engine.Mixer
}

// New creates an engine at sampleRate backed by library. The library is
// treated as an immutable catalog from this point on: adding presets to
// it after triggers referencing it are in flight is undefined.
func New(sampleRate int, library *preset.Library, opts ...EngineOption) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("subsynth: sample rate must be positive")
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.poolSize <= 0 {
		return nil, errors.New("subsynth: pool size must be positive")
	}

	pool := voice.NewPool(cfg.poolSize, float64(sampleRate))
	dispatcher := engine.NewDispatcher(library, pool, cfg.spatial)
	mixer := engine.NewMixer(pool, dispatcher, float64(sampleRate), cfg.polish)

	return &Engine{
		sampleRate: float64(sampleRate),
		pool:       pool,
		library:    library,
		dispatcher: dispatcher,
		mixer:      mixer,
	}, nil
}

// Fire submits a Fire command: trigger preset by name at pitch/velocity
// with precomputed gain/pan. autoOffSeconds > 0 schedules an automatic
// NoteOff that many seconds after the trigger drains. ok is false only on
// command-queue overflow; the caller may retry or drop.
func (e *Engine) Fire(presetName string, pitch int, velocity, gain, pan, autoOffSeconds float64) (CommandHandle, bool) {
	return e.dispatcher.SubmitFire(presetName, pitch, velocity, gain, pan, autoOffSeconds)
}

// FireAtPosition submits a Fire command whose gain/pan are derived from a
// 3D position by the spatialization hook instead of being supplied
// directly.
func (e *Engine) FireAtPosition(presetName string, pitch int, velocity, x, y, z, autoOffSeconds float64) (CommandHandle, bool) {
	return e.dispatcher.SubmitFireAtPosition(presetName, pitch, velocity, x, y, z, autoOffSeconds)
}

// SustainStart submits a SustainStart command under the given opaque key.
// A prior voice still held under the same key is released first.
func (e *Engine) SustainStart(key, presetName string, pitch int, velocity, gain, pan float64) (CommandHandle, bool) {
	return e.dispatcher.SubmitSustainStart(key, presetName, pitch, velocity, gain, pan)
}

// SustainRelease submits a SustainRelease command for key. A key with no
// held voice is a no-op.
func (e *Engine) SustainRelease(key string) (CommandHandle, bool) {
	return e.dispatcher.SubmitSustainRelease(key)
}

// AllOff submits an AllOff command: every active voice is released and
// the sustain/timed tables are cleared.
func (e *Engine) AllOff() (CommandHandle, bool) {
	return e.dispatcher.SubmitAllOff()
}

// SetMasterVolume sets the master volume scalar, sampled once per block
// by the audio thread.
func (e *Engine) SetMasterVolume(v float64) { e.mixer.SetMasterVolume(v) }

// SetHeadroom sets the soft-clip headroom scalar.
func (e *Engine) SetHeadroom(v float64) { e.mixer.SetHeadroom(v) }

// SetPitchBend sets the global pitch bend in semitones.
func (e *Engine) SetPitchBend(semitones float64) { e.mixer.SetPitchBend(semitones) }

// SetPolishEnabled toggles the optional post-mix reverb+EQ stage. Off by
// default.
func (e *Engine) SetPolishEnabled(enabled bool) { e.mixer.SetPolishEnabled(enabled) }

// PolishEQ returns the post-mix 5-band equalizer for gain tweaks.
func (e *Engine) PolishEQ() *effects.EQ5Band { return e.mixer.EQ() }

// DroppedTriggers returns the count of triggers dropped for referencing
// an unknown preset name.
func (e *Engine) DroppedTriggers() uint64 { return e.dispatcher.DroppedTriggers() }

// ActiveVoiceCount returns how many voices in the pool are currently
// sounding (including release tails).
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := 0; i < e.pool.Len(); i++ {
		if e.pool.At(i).IsActive() {
			n++
		}
	}
	return n
}

// PoolSize returns the fixed voice pool size.
func (e *Engine) PoolSize() int { return e.pool.Len() }

// SampleRate returns the sample rate the engine was constructed with.
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// Process implements audio.SampleSource: it renders len(dst)/2 stereo
// frames into dst, the pull-mode audio callback the host device calls.
// This is the one method ever called from a real-time audio thread; it
// never blocks, allocates or logs.
func (e *Engine) Process(dst []float32) {
	e.mixer.RenderStereo(dst, len(dst)/2)
}

// RenderStereo is the explicit form of the audio callback: writes frames
// stereo frames (2*frames samples) into dst.
func (e *Engine) RenderStereo(dst []float32, frames int) {
	e.mixer.RenderStereo(dst, frames)
}

// RenderMono writes frames mono samples into dst for hosts that mix down
// to a single channel.
func (e *Engine) RenderMono(dst []float32, frames int) {
	e.mixer.RenderMono(dst, frames)
}

// NewHostPlayer wraps the engine in a host-backed stereo audio player
// using the pull-mode adapter in internal/audio. This is the one piece of
// the module that talks to a real OS audio device; everything else is
// pure computation.
func (e *Engine) NewHostPlayer() (*audio.Player, error) {
	return audio.NewPlayer(int(e.sampleRate), e)
}
