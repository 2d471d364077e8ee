package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runFilter feeds a generated signal through f and returns the output RMS
// over the second half (after the transient settles).
func runFilter(f *Biquad, freq float64, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		out := f.Apply(math.Sin(2 * math.Pi * freq * float64(i) / SampleRate))
		if i >= n/2 {
			sum += out * out
		}
	}
	return math.Sqrt(sum / float64(n/2))
}

func TestLowpassPassesLowBlocksHigh(t *testing.T) {
	const n = 8192

	f := NewBiquad()
	f.SetType(Lowpass)
	f.SetCutoff(1000)
	low := runFilter(&f, 100, n)

	f = NewBiquad()
	f.SetType(Lowpass)
	f.SetCutoff(1000)
	high := runFilter(&f, 15000, n)

	// Passband gain is 0.5 (the output scale), so a unit sine has RMS
	// near 0.5/sqrt(2).
	assert.InDelta(t, 0.5/math.Sqrt2, low, 0.02)
	assert.Less(t, high, low/10)
}

func TestHighpassPassesHighBlocksLow(t *testing.T) {
	const n = 8192

	f := NewBiquad()
	f.SetType(Highpass)
	f.SetCutoff(1000)
	high := runFilter(&f, 10000, n)

	f = NewBiquad()
	f.SetType(Highpass)
	f.SetCutoff(1000)
	low := runFilter(&f, 50, n)

	assert.InDelta(t, 0.5/math.Sqrt2, high, 0.02)
	assert.Less(t, low, high/10)
}

func TestBandpassCentersOnCutoff(t *testing.T) {
	const n = 8192
	rms := func(sig float64) float64 {
		f := NewBiquad()
		f.SetType(Bandpass)
		f.SetCutoff(2000)
		return runFilter(&f, sig, n)
	}
	center := rms(2000)
	below := rms(100)
	above := rms(18000)
	assert.Greater(t, center, 4*below)
	assert.Greater(t, center, 4*above)
}

func TestResonancePeaksNearCutoff(t *testing.T) {
	const n = 8192
	rms := func(q float64) float64 {
		f := NewBiquad()
		f.SetType(Lowpass)
		f.SetResonance(q)
		f.SetCutoff(2000)
		return runFilter(&f, 2000, n)
	}
	assert.Greater(t, rms(4), 2*rms(defaultQ))
}
