package world

import (
	"math"
	"sort"
	"sync"

	"github.com/aquilax/go-perlin"
)

// Perlin parameters shared by every noise source.
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
)

// Raw octave sums stay well inside (-0.9, 0.9) and cluster around zero.
// Each source measures its own amplitude distribution at this many
// scattered points and maps samples through it, so |sample| is spread
// evenly over [0,1] and thresholds near 1 are reachable.
const (
	calibrationSamples = 4096
	calibrationSpan    = 256.0 // go-perlin's lattice period
)

// Salts separating the per-world noise streams.
const (
	saltTerrain uint64 = 0x7465727261696e00
	saltBiome   uint64 = 0x62696f6d65000000
	saltCave    uint64 = 0x6361766500000000
	saltCaveMix uint64 = 0x736b697000000000
	saltOre     uint64 = 0x6f72650000000000
)

// NoiseSource is a seeded Perlin field. It holds only tables built once,
// so concurrent sampling is safe.
type NoiseSource struct {
	seed int64
	p    *perlin.Perlin

	// sorted |raw| samples, built on first use
	amp2 func() []float64
	amp3 func() []float64
}

// NewNoiseSource builds a noise field for the given seed.
func NewNoiseSource(seed int64) *NoiseSource {
	n := &NoiseSource{
		seed: seed,
		p:    perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
	n.amp2 = sync.OnceValue(func() []float64 {
		return amplitudes(seed, func(x, _, z float64) float64 { return n.p.Noise2D(x, z) })
	})
	n.amp3 = sync.OnceValue(func() []float64 {
		return amplitudes(seed, n.p.Noise3D)
	})
	return n
}

// Seed returns the seed the source was built with.
func (n *NoiseSource) Seed() int64 {
	return n.seed
}

// Sample2D returns noise in [-1,1]. Integer lattice points give 0.
func (n *NoiseSource) Sample2D(x, z float64) float64 {
	return equalize(n.p.Noise2D(x, z), n.amp2())
}

// Sample3D returns noise in [-1,1].
func (n *NoiseSource) Sample3D(x, y, z float64) float64 {
	return equalize(n.p.Noise3D(x, y, z), n.amp3())
}

// amplitudes samples |noise| at scattered points and returns them sorted.
func amplitudes(seed int64, sample func(x, y, z float64) float64) []float64 {
	out := make([]float64, calibrationSamples)
	for i := range out {
		k := int64(i)
		x := unitFloat(hash3(k, 1, 0, seed)) * calibrationSpan
		y := unitFloat(hash3(k, 2, 0, seed)) * calibrationSpan
		z := unitFloat(hash3(k, 3, 0, seed)) * calibrationSpan
		out[i] = math.Abs(sample(x, y, z))
	}
	sort.Float64s(out)
	return out
}

// equalize maps v through the empirical distribution of |v|, keeping its
// sign. The mapping is continuous, monotone and odd, so 0 stays 0 and
// anything at or beyond the largest measured amplitude becomes ±1.
func equalize(v float64, amps []float64) float64 {
	a := math.Abs(v)
	n := len(amps)
	i := sort.SearchFloat64s(amps, a)
	var u float64
	switch {
	case i >= n:
		u = 1
	case i == 0:
		if amps[0] > 0 {
			u = a / amps[0] / float64(n)
		}
	default:
		lo, hi := amps[i-1], amps[i]
		t := 1.0
		if hi > lo {
			t = (a - lo) / (hi - lo)
		}
		u = (float64(i) + t) / float64(n)
	}
	return math.Copysign(u, v)
}

func splitmix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// deriveSeed decorrelates sub-streams of one world seed.
func deriveSeed(seed int64, salt uint64) int64 {
	return int64(splitmix64(uint64(seed) ^ salt))
}

func hash2(x, z int64, seed int64) uint64 {
	return splitmix64(uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0xC2B2AE3D27D4EB4F + uint64(seed))
}

func hash3(x, y, z int64, seed int64) uint64 {
	// separate multipliers per axis
	return splitmix64(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed))
}

// unitFloat maps a hash to [0,1).
func unitFloat(h uint64) float64 {
	return float64(h>>11) / float64(uint64(1)<<53)
}
