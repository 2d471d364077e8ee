package vis

import (
	"math/cmplx"

	"github.com/mras0/splay/pkg/synth"
)

// SpectrumAnalyzer turns a mono sample block into a magnitude spectrum. It
// reuses its scratch buffers across calls; one analyzer per consumer.
type SpectrumAnalyzer struct {
	temp     []complex128
	spectrum []float64
}

func NewSpectrumAnalyzer() *SpectrumAnalyzer {
	return &SpectrumAnalyzer{}
}

// Analyze computes the positive-frequency magnitude spectrum of data and
// the loudest non-DC frequency in Hz. The block is zero-padded to a power
// of two. The returned slice is valid until the next call.
func (a *SpectrumAnalyzer) Analyze(data []int16) (spectrum []float64, peakFreq float64) {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	if cap(a.temp) < n {
		a.temp = make([]complex128, n)
	}
	a.temp = a.temp[:n]
	for i := range a.temp {
		if i < len(data) {
			a.temp[i] = complex(float64(data[i])/32767.0, 0)
		} else {
			a.temp[i] = 0
		}
	}

	fft(a.temp, 1)

	// Negative frequencies mirror the positive half.
	half := n / 2
	if cap(a.spectrum) < half {
		a.spectrum = make([]float64, half)
	}
	a.spectrum = a.spectrum[:half]
	peak := 1
	for i := 0; i < half; i++ {
		a.spectrum[i] = cmplx.Abs(a.temp[i])
		if i > 0 && a.spectrum[i] > a.spectrum[peak] {
			peak = i
		}
	}
	if half < 2 {
		return a.spectrum, 0
	}
	return a.spectrum, float64(peak) * synth.SampleRate / float64(n)
}

// BestFitResample halves x by averaging neighbors until it fits maxSize,
// returning the shortened slice.
func BestFitResample(x []float64, maxSize int) []float64 {
	for len(x) > maxSize {
		half := len(x) / 2
		for i := 0; i < half; i++ {
			x[i] = 0.5 * (x[i*2] + x[i*2+1])
		}
		x = x[:half]
	}
	return x
}

// MonoMix folds an interleaved stereo block to mono.
func MonoMix(block []int16) []int16 {
	mono := make([]int16, len(block)/2)
	for i := range mono {
		mono[i] = int16((int(block[i*2]) + int(block[i*2+1])) / 2)
	}
	return mono
}
