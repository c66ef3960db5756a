// Package audio adapts the engine's pull-mode audio callback to a host
// audio backend. The engine itself never blocks, allocates or takes
// contended locks inside Process; this package is the boundary where that
// discipline meets a real OS audio driver, via ebiten's oto-backed player.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource is anything that can fill an interleaved stereo float32
// buffer on demand — the shape of Mixer.RenderStereo. The engine never
// signals end-of-stream: a synth engine has no natural "finished" state,
// unlike a scored playback source.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader bridges a SampleSource to io.Reader, the shape ebiten's
// audio context wants. It holds the one allocation boundary in this
// package: the staging buffer grows (on the control/setup path) to fit
// the largest block requested and is never reallocated on the per-block
// hot path afterward.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

// NewStreamReader wraps source for use as an io.Reader.
func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

// Read fills p with interleaved little-endian float32 stereo samples
// pulled from the source.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		u := math.Float32bits(r.buf[i])
		binary.LittleEndian.PutUint32(p[i*4:], u)
	}
	return frames * 8, nil
}

// Close is a no-op; the underlying source outlives the reader.
func (r *StreamReader) Close() error { return nil }

// Player drives a SampleSource through the host's audio output.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer creates a host-backed player pulling stereo frames from
// source at sampleRate.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener
// actually hears right now, accounting for the host's own buffering).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Stop halts playback and releases the host player.
func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
