// Command synthdemo builds a small preset library, fires a handful of
// notes through the dispatcher and renders the result — either to a raw
// PCM dump on stdout or, with -play, through the host audio device.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/polyvox/subsynth"
	"github.com/polyvox/subsynth/internal/dsp"
)

func main() {
	sampleRate := flag.Int("rate", 48000, "sample rate in Hz")
	poolSize := flag.Int("pool", 16, "voice pool size")
	seconds := flag.Float64("seconds", 3, "seconds of audio to render")
	play := flag.Bool("play", false, "play through the host audio device instead of dumping PCM")
	flag.Parse()

	lib := subsynth.NewLibrary()
	lib.Add(subsynth.Preset{
		Name:          "pluck",
		Osc1Level:     1,
		Osc1Wave:      dsp.WaveSaw,
		FilterCutoff:  400,
		FilterResonance: 0.3,
		FilterEnvAmount: 6000,
		AmpAttack:  0.005,
		AmpDecay:   0.2,
		AmpSustain: 0.0,
		AmpRelease: 0.3,
		FilterAttack:  0.005,
		FilterDecay:   0.3,
		FilterSustain: 0.1,
		FilterRelease: 0.3,
		Priority:    5,
		DefaultNote: 60,
	})
	lib.Add(subsynth.Preset{
		Name:       "pad",
		Osc1Level:  0.6,
		Osc2Level:  0.6,
		Osc1Wave:   dsp.WaveSquare,
		Osc2Wave:   dsp.WaveSquare,
		Osc2Semitones: 7,
		Osc2Detune: 0.1,
		PulseWidth: 0.4,
		FilterCutoff: 1200,
		FilterResonance: 0.2,
		AmpAttack:  0.6,
		AmpDecay:   0.4,
		AmpSustain: 0.8,
		AmpRelease: 1.2,
		FilterAttack:  0.6,
		FilterDecay:   0.4,
		FilterSustain: 0.6,
		FilterRelease: 1.2,
		Priority:    3,
		DefaultNote: 48,
	})

	eng, err := subsynth.New(*sampleRate, lib, subsynth.WithPoolSize(*poolSize))
	if err != nil {
		log.Fatalf("synthdemo: %v", err)
	}

	if _, ok := eng.Fire("pluck", 64, 0.9, 1, 0.5, 0); !ok {
		log.Println("synthdemo: pluck trigger dropped (queue overflow)")
	}
	if _, ok := eng.SustainStart("chord", "pad", 48, 0.7, 0.8, 0.5); !ok {
		log.Println("synthdemo: pad sustain-start dropped (queue overflow)")
	}

	if *play {
		runLive(eng, *seconds)
		return
	}
	dumpPCM(eng, *sampleRate, *seconds)
}

// runLive drives the engine through the host audio device for the given
// duration, releasing the sustained pad halfway through.
func runLive(eng *subsynth.Engine, seconds float64) {
	player, err := eng.NewHostPlayer()
	if err != nil {
		log.Fatalf("synthdemo: host player: %v", err)
	}
	player.Play()
	defer player.Stop()

	half := time.Duration(seconds/2*1000) * time.Millisecond
	time.Sleep(half)
	eng.SustainRelease("chord")
	time.Sleep(time.Duration(seconds/2*1000) * time.Millisecond)
}

// dumpPCM renders seconds of stereo audio at sampleRate and writes it to
// stdout as interleaved little-endian float32 samples.
func dumpPCM(eng *subsynth.Engine, sampleRate int, seconds float64) {
	const blockFrames = 512
	totalFrames := int(seconds * float64(sampleRate))
	buf := make([]float32, blockFrames*2)
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	releaseAt := totalFrames / 2
	rendered := 0
	for rendered < totalFrames {
		frames := blockFrames
		if rendered+frames > totalFrames {
			frames = totalFrames - rendered
		}
		if rendered <= releaseAt && rendered+frames > releaseAt {
			eng.SustainRelease("chord")
		}
		eng.RenderStereo(buf, frames)
		if err := binary.Write(w, binary.LittleEndian, buf[:frames*2]); err != nil {
			log.Fatalf("synthdemo: write PCM: %v", err)
		}
		rendered += frames
	}
	fmt.Fprintf(os.Stderr, "synthdemo: rendered %d frames at %d Hz (%d active voices remaining)\n",
		totalFrames, sampleRate, eng.ActiveVoiceCount())
}
