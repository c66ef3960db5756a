package effects

import (
	"math"
	"sync/atomic"
)

// Reverb is a Schroeder-style reverb: four parallel comb filters feeding
// two allpass filters in series, giving ambient pads and drones a sense
// of enclosing space without the cost of a convolution reverb.
type Reverb struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
	wet     atomic.Uint32 // float32 bits, 0..1, adjustable live from the control thread
}

type combFilter struct {
	buf []float32
	pos int
	fb  float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// combRatios and allpassRatios scale the base delay length into the comb
// and allpass taps, chosen close-to-prime so the taps don't reinforce
// each other into an audible resonant peak.
var combRatios = [4]float64{1.0, 1.117, 1.271, 1.437}
var allpassRatios = [2]float64{0.347, 0.213}

// NewReverb creates a reverb effect.
// roomSize: 0..1 controls delay lengths (bigger room, longer tail).
// feedback: 0..1 controls decay time.
// wet: initial wet/dry mix, 0..1; adjustable afterward via SetWet.
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clampf(feedback, 0, 0.95)
	r := &Reverb{}
	r.SetWet(clampf(wet, 0, 1))
	for i := range r.combs {
		r.combs[i] = combFilter{
			buf: make([]float32, int(float64(base)*combRatios[i])),
			fb:  fb,
		}
	}
	for i := range r.allpass {
		r.allpass[i] = allpassFilter{
			buf: make([]float32, maxInt(int(float64(base)*allpassRatios[i]), 1)),
			fb:  0.5,
		}
	}
	return r
}

// SetWet adjusts the wet/dry mix live, without resetting the comb/allpass
// tails — used when a soundscape scene fades the ambience of a layer up
// or down.
func (r *Reverb) SetWet(wet float32) {
	r.wet.Store(math.Float32bits(clampf(wet, 0, 1)))
}

// Wet returns the current wet/dry mix.
func (r *Reverb) Wet() float32 {
	return math.Float32frombits(r.wet.Load())
}

func (r *Reverb) Process(inL, inR float32) (float32, float32) {
	mono := (inL + inR) * 0.5
	var out float32
	for i := range r.combs {
		out += r.combs[i].process(mono)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	wet := r.Wet()
	return inL*(1-wet) + out*wet, inR*(1-wet) + out*wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		for j := range r.combs[i].buf {
			r.combs[i].buf[j] = 0
		}
		r.combs[i].pos = 0
	}
	for i := range r.allpass {
		for j := range r.allpass[i].buf {
			r.allpass[i].buf[j] = 0
		}
		r.allpass[i].pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
