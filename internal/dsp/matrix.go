package dsp

// ModSource identifies a modulation matrix input.
type ModSource int

const (
	SrcVelocity ModSource = iota
	SrcLFO1
	SrcLFO2
	SrcFilterEnv
	SrcAmpEnv
	SrcModWheel
	SrcAftertouch
	numSources
)

// ModDest identifies a modulation matrix output.
type ModDest int

const (
	DestPitch ModDest = iota
	DestFilterCutoff
	DestFilterRes
	DestOsc2Pitch
	DestPWM
	DestAmplitude
	numDests
)

// maxRoutes bounds the matrix's fixed-capacity route table: no allocation
// happens inside the audio callback.
const maxRoutes = 32

// Fixed indices of the routes NewMatrix installs, in installation order.
// Voice.Configure uses these to retune the LFO1 routes per preset without
// growing the route table on every hot-swap.
const (
	RouteIdxFilterEnvToCutoff = 0
	RouteIdxVelocityToCutoff  = 1
	RouteIdxLFO1ToPitch       = 2
	RouteIdxLFO1ToPWM         = 3
)

// route is one fixed-slot entry in the modulation matrix.
type route struct {
	source      ModSource
	dest        ModDest
	amount      float64
	active      bool
}

// Matrix is a fixed source/destination modulation router. Up to 32 routes
// each scale a source by an amount and accumulate into a destination.
type Matrix struct {
	routes [maxRoutes]route
	nroutes int
	sources [numSources]float64
	dests   [numDests]float64
}

// NewMatrix creates a matrix with two default routes (FilterEnv ->
// FilterCutoff and Velocity -> FilterCutoff, both amount 1; the caller
// scales these further via filterEnvAmount/velocityToFilter at the voice
// level, since the matrix itself only sums raw amounts), plus two LFO1
// routes installed at amount 0 so a preset with no LFO1-to-pitch/PWM
// modulation is a no-op, and retuned in place by Voice.Configure rather
// than re-added on every preset hot-swap.
func NewMatrix() *Matrix {
	m := &Matrix{}
	m.AddRoute(SrcFilterEnv, DestFilterCutoff, 1)
	m.AddRoute(SrcVelocity, DestFilterCutoff, 1)
	m.AddRoute(SrcLFO1, DestPitch, 0)
	m.AddRoute(SrcLFO1, DestPWM, 0)
	return m
}

// SetRouteAmount retunes an existing route's scalar amount in place.
func (m *Matrix) SetRouteAmount(idx int, amount float64) {
	if idx < 0 || idx >= m.nroutes {
		return
	}
	m.routes[idx].amount = amount
}

// AddRoute installs an active route, returning its index, or -1 if the
// table is full.
func (m *Matrix) AddRoute(src ModSource, dest ModDest, amount float64) int {
	if m.nroutes >= maxRoutes {
		return -1
	}
	idx := m.nroutes
	m.routes[idx] = route{source: src, dest: dest, amount: amount, active: true}
	m.nroutes++
	return idx
}

// SetRouteActive toggles a route by index.
func (m *Matrix) SetRouteActive(idx int, active bool) {
	if idx < 0 || idx >= m.nroutes {
		return
	}
	m.routes[idx].active = active
}

// SetSource writes the current audio-rate value of a source into the
// matrix's source vector, read at the next control-rate Process call.
func (m *Matrix) SetSource(src ModSource, v float64) {
	m.sources[src] = v
}

// Dest reads the accumulated value of a destination from the last Process.
func (m *Matrix) Dest(d ModDest) float64 {
	return m.dests[d]
}

// Process zeros the destination accumulator, then sums source*amount for
// every active route into its destination.
func (m *Matrix) Process() {
	for i := range m.dests {
		m.dests[i] = 0
	}
	for i := 0; i < m.nroutes; i++ {
		r := m.routes[i]
		if !r.active {
			continue
		}
		m.dests[r.dest] += m.sources[r.source] * r.amount
	}
}
