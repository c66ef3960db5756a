package engine

import (
	"sync/atomic"

	"github.com/polyvox/subsynth/internal/preset"
	"github.com/polyvox/subsynth/internal/voice"
)

// commandQueueFactor sizes the SPSC queue relative to pool size: it
// should comfortably exceed the largest expected control-to-audio
// latency. Pool size is the best proxy we have for "notes in flight"
// without a real latency measurement, so the queue is sized generously
// at 4x.
const commandQueueFactor = 4

// SpatialDefaults holds the rolloff/strength constants for the position
// based spatialization hook.
type SpatialDefaults struct {
	Rolloff  float64
	Strength float64
}

// DefaultSpatial returns the recommended rolloff/strength defaults for a
// soundscape scene where most sources sit within a few meters of the
// listener.
func DefaultSpatial() SpatialDefaults {
	return SpatialDefaults{Rolloff: 0.1, Strength: 0.5}
}

// Dispatcher queues trigger commands from the control agent and, on the
// audio agent, resolves them into voice-pool mutations: preset lookup,
// stealing, configuration and NoteOn/NoteOff. Every field below except
// the command channel and the dropped-trigger counter is owned
// exclusively by the audio agent.
type Dispatcher struct {
	cmdCh chan Command

	library *preset.Library
	pool    *voice.Pool
	spatial SpatialDefaults

	sustain *sustainTable
	timed   *timedTable

	nextStamp    uint32
	sampleClock  uint64
	droppedTriggers atomic.Uint64
}

// NewDispatcher creates a dispatcher bound to the given preset library and
// voice pool. The queue capacity is commandQueueFactor * pool size.
func NewDispatcher(library *preset.Library, pool *voice.Pool, spatial SpatialDefaults) *Dispatcher {
	n := pool.Len()
	return &Dispatcher{
		cmdCh:   make(chan Command, n*commandQueueFactor),
		library: library,
		pool:    pool,
		spatial: spatial,
		sustain: newSustainTable(n),
		timed:   newTimedTable(n),
	}
}

// trySubmit is the single non-blocking enqueue path shared by every
// Submit* method: it never blocks, allocates on the hot path beyond the
// one atomic.Bool the caller gets back, and reports overflow rather than
// waiting.
func (d *Dispatcher) trySubmit(cmd Command) (CommandHandle, bool) {
	flag := newCancelFlag()
	cmd.cancelled = flag
	select {
	case d.cmdCh <- cmd:
		return CommandHandle{cancelled: flag}, true
	default:
		return CommandHandle{}, false
	}
}

// SubmitFire enqueues a Fire command. ok is false on queue overflow.
func (d *Dispatcher) SubmitFire(presetName string, pitch int, velocity, gain, pan, autoOffSeconds float64) (CommandHandle, bool) {
	return d.trySubmit(Command{
		Kind:           CmdFire,
		PresetName:     presetName,
		Pitch:          pitch,
		Velocity:       velocity,
		Gain:           gain,
		Pan:            pan,
		AutoOffSeconds: autoOffSeconds,
	})
}

// SubmitFireAtPosition enqueues a Fire command whose gain/pan are computed
// from a 3D position by the spatialization hook at drain time.
func (d *Dispatcher) SubmitFireAtPosition(presetName string, pitch int, velocity float64, x, y, z, autoOffSeconds float64) (CommandHandle, bool) {
	return d.trySubmit(Command{
		Kind:           CmdFire,
		PresetName:     presetName,
		Pitch:          pitch,
		Velocity:       velocity,
		UsePosition:    true,
		PosX:           x,
		PosY:           y,
		PosZ:           z,
		AutoOffSeconds: autoOffSeconds,
	})
}

// SubmitSustainStart enqueues a SustainStart command.
func (d *Dispatcher) SubmitSustainStart(key, presetName string, pitch int, velocity, gain, pan float64) (CommandHandle, bool) {
	return d.trySubmit(Command{
		Kind:       CmdSustainStart,
		PresetName: presetName,
		Pitch:      pitch,
		Velocity:   velocity,
		Gain:       gain,
		Pan:        pan,
		SustainKey: key,
	})
}

// SubmitSustainRelease enqueues a SustainRelease command.
func (d *Dispatcher) SubmitSustainRelease(key string) (CommandHandle, bool) {
	return d.trySubmit(Command{Kind: CmdSustainRelease, SustainKey: key})
}

// SubmitAllOff enqueues an AllOff command.
func (d *Dispatcher) SubmitAllOff() (CommandHandle, bool) {
	return d.trySubmit(Command{Kind: CmdAllOff})
}

// DroppedTriggers returns the number of triggers dropped for input
// validation reasons (unknown preset), queryable from the control thread
// without touching any audio-thread-only state.
func (d *Dispatcher) DroppedTriggers() uint64 {
	return d.droppedTriggers.Load()
}

// SustainCount returns the number of currently held sustain keys.
func (d *Dispatcher) SustainCount() int { return d.sustain.size() }

// TimedCount returns the number of pending scheduled auto-offs.
func (d *Dispatcher) TimedCount() int { return d.timed.size() }

// Drain runs entirely on the audio agent. It processes every command
// queued since the last call in submission order, then fires any
// scheduled auto-offs whose sample tick is at or before
// sampleClock+blockFrames. sampleRate is needed to convert
// AutoOffSeconds into a sample count.
func (d *Dispatcher) Drain(blockFrames int, sampleRate float64) {
	for {
		select {
		case cmd, ok := <-d.cmdCh:
			if !ok {
				return
			}
			if cmd.isCancelled() {
				continue
			}
			d.apply(cmd, sampleRate)
		default:
			goto afterQueue
		}
	}
afterQueue:
	end := d.sampleClock + uint64(blockFrames)
	d.timed.due(end, func(voiceIdx int) {
		d.pool.At(voiceIdx).NoteOff()
	})
	d.sampleClock = end
}

func (d *Dispatcher) apply(cmd Command, sampleRate float64) {
	switch cmd.Kind {
	case CmdFire:
		d.applyFire(cmd, sampleRate)
	case CmdSustainStart:
		if voiceIdx, ok := d.sustain.lookup(cmd.SustainKey); ok {
			// Sustain key collision: release the prior holder first.
			d.pool.At(voiceIdx).NoteOff()
		}
		if voiceIdx, ok := d.fireVoice(cmd, sampleRate); ok {
			d.sustain.insert(cmd.SustainKey, voiceIdx)
		}
	case CmdSustainRelease:
		if voiceIdx, ok := d.sustain.lookup(cmd.SustainKey); ok {
			d.pool.At(voiceIdx).NoteOff()
			d.sustain.remove(cmd.SustainKey)
		}
		// Key not present: releasing an already-released or unknown
		// sustain key is silently ignored.
	case CmdAllOff:
		for i := 0; i < d.pool.Len(); i++ {
			v := d.pool.At(i)
			if v.IsActive() {
				v.NoteOff()
			}
		}
		d.sustain.clear()
		d.timed.clear()
	}
}

func (d *Dispatcher) applyFire(cmd Command, sampleRate float64) {
	voiceIdx, ok := d.fireVoice(cmd, sampleRate)
	if !ok {
		return
	}
	if cmd.AutoOffSeconds > 0 {
		offset := uint64(cmd.AutoOffSeconds*sampleRate + 0.5)
		d.timed.schedule(voiceIdx, d.sampleClock+offset)
	}
}

// fireVoice resolves the preset, computes spatialization, steals a voice
// and triggers it. It returns false (consuming no voice) if the preset
// name is unknown.
func (d *Dispatcher) fireVoice(cmd Command, sampleRate float64) (int, bool) {
	p, ok := d.library.Lookup(cmd.PresetName)
	if !ok {
		d.droppedTriggers.Add(1)
		return 0, false
	}

	gain, pan := cmd.Gain, cmd.Pan
	if cmd.UsePosition {
		gain, pan = d.resolveSpatial(cmd.PosX, cmd.PosY, cmd.PosZ)
	}

	pitch := cmd.Pitch
	if pitch == 0 {
		pitch = p.DefaultNote
	}

	d.nextStamp++
	stamp := d.nextStamp

	voiceIdx := d.pool.Steal(p.Priority, stamp)
	d.pool.MarkActivated()
	v := d.pool.At(voiceIdx)
	v.Configure(p)
	v.NoteOn(pitch, cmd.Velocity, gain, pan, stamp)
	return voiceIdx, true
}

// resolveSpatial is the position-based spatialization hook: gain falls
// off with squared distance, pan follows listener-local x.
func (d *Dispatcher) resolveSpatial(x, y, z float64) (gain, pan float64) {
	distSq := x*x + y*y + z*z
	gain = 1 / (1 + distSq*d.spatial.Rolloff)
	pan = clamp01(0.5 + x*d.spatial.Strength)
	return gain, pan
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
