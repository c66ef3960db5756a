package voice

// Pool is a fixed-size array of voices allocated once at construction.
// There is no resize and no allocation once the pool is built: the audio
// thread only ever indexes into the existing slice.
type Pool struct {
	voices []Voice
	// generation is bumped by MarkActivated each time a voice is started,
	// letting the mixer detect that its active-voice cache needs an early
	// rebuild instead of waiting for the periodic interval. A voice that
	// deactivates at the end of its release does not bump it.
	generation uint64
}

// NewPool creates a pool of n voices at the given sample rate. n must be
// at least 1; construction with n <= 0 is refused by the caller (engine
// construction is the only operation allowed to fail).
func NewPool(n int, sampleRate float64) *Pool {
	p := &Pool{voices: make([]Voice, n)}
	for i := range p.voices {
		p.voices[i] = *New(sampleRate)
	}
	return p
}

// Len returns the pool's fixed size.
func (p *Pool) Len() int { return len(p.voices) }

// At returns a pointer to the voice at index i.
func (p *Pool) At(i int) *Voice { return &p.voices[i] }

// Generation returns the pool's current membership-change counter.
func (p *Pool) Generation() uint64 { return p.generation }

// MarkActivated bumps the generation counter; the dispatcher calls it
// each time it starts a voice, whether that voice was idle or stolen.
func (p *Pool) MarkActivated() { p.generation++ }

// Steal picks the voice to (re)use for a trigger at the given priority
// and monotonic stamp, in order of preference: an inactive voice, then
// the lowest-priority voice already releasing, then the oldest voice at
// or below the requesting priority, and finally the oldest voice overall
// as an unconditional last resort. It always returns a valid index —
// Steal can never fail.
func (p *Pool) Steal(requestingPriority int, now uint32) int {
	// 1. Any inactive voice.
	for i := range p.voices {
		if !p.voices[i].active {
			return i
		}
	}

	// 2. Among releasing voices with priority <= requesting, lowest
	// priority, tie-broken by smallest current level.
	if idx, ok := p.bestReleasing(requestingPriority); ok {
		return idx
	}

	// 3. Among all voices with priority <= requesting, oldest by
	// note-on time (modular age).
	if idx, ok := p.oldestEligible(requestingPriority, now); ok {
		return idx
	}

	// 4. Absolute last resort: oldest voice overall.
	return p.oldestOverall(now)
}

func (p *Pool) bestReleasing(requestingPriority int) (int, bool) {
	best := -1
	bestPriority := 0
	bestLevel := 0.0
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active || !v.IsInRelease() || v.priority > requestingPriority {
			continue
		}
		if best == -1 || v.priority < bestPriority || (v.priority == bestPriority && v.currentLevel < bestLevel) {
			best = i
			bestPriority = v.priority
			bestLevel = v.currentLevel
		}
	}
	return best, best != -1
}

func (p *Pool) oldestEligible(requestingPriority int, now uint32) (int, bool) {
	best := -1
	var bestAge uint32
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active || v.priority > requestingPriority {
			continue
		}
		age := now - v.ageStamp // modular (wraparound-safe) age difference
		if best == -1 || age > bestAge {
			best = i
			bestAge = age
		}
	}
	return best, best != -1
}

func (p *Pool) oldestOverall(now uint32) int {
	best := 0
	var bestAge uint32
	for i := range p.voices {
		age := now - p.voices[i].ageStamp
		if i == 0 || age > bestAge {
			best = i
			bestAge = age
		}
	}
	return best
}
