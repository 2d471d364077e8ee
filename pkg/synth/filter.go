package synth

import (
	"fmt"
	"math"
)

// FilterType selects the biquad response shape.
type FilterType int

const (
	Lowpass FilterType = iota
	Bandpass
	Highpass
)

var filterTypeNames = [...]string{"lowpass", "bandpass", "highpass"}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterTypeNames) {
		return fmt.Sprintf("filtertype(%d)", int(t))
	}
	return filterTypeNames[t]
}

// defaultQ is the Butterworth quality factor, giving a maximally flat
// passband with no resonant peak.
const defaultQ = math.Sqrt2 / 2

// Biquad is a two-pole recursive filter with bilinear-transform-derived
// coefficients (see basicsynth.com). Lowpass and highpass take a quality
// factor for resonance; bandpass width follows from the cutoff alone.
type Biquad struct {
	typ  FilterType
	freq float64
	q    float64

	in1, in2   float64
	out1, out2 float64

	b0, b1, b2 float64
	a1, a2     float64
}

func NewBiquad() Biquad {
	return Biquad{q: defaultQ}
}

// SetType changes the response shape, recomputing coefficients.
func (f *Biquad) SetType(t FilterType) {
	f.typ = t
	f.update()
}

// SetCutoff changes the corner (or center) frequency in Hz.
func (f *Biquad) SetCutoff(freq float64) {
	f.freq = freq
	f.update()
}

// SetResonance changes the quality factor. Values above the default
// (1/sqrt 2) peak the response around the cutoff; only lowpass and highpass
// respond to it.
func (f *Biquad) SetResonance(q float64) {
	f.q = q
	f.update()
}

func (f *Biquad) update() {
	switch f.typ {
	case Lowpass:
		c := 1 / math.Tan(math.Pi/SampleRate*f.freq)
		c2 := c * c
		d := c2 + c/f.q + 1
		f.b0 = 1 / d
		f.b1 = 2 * f.b0
		f.b2 = f.b0
		f.a1 = 2 * (1 - c2) / d
		f.a2 = (c2 - c/f.q + 1) / d
	case Bandpass:
		c := 1 / math.Tan(math.Pi/SampleRate*f.freq)
		d := 1 + c
		f.b0 = 1 / d
		f.b1 = 0
		f.b2 = -f.b0
		f.a1 = -c * 2 * math.Cos(2*math.Pi*f.freq/SampleRate) / d
		f.a2 = (c - 1) / d
	case Highpass:
		c := math.Tan(math.Pi / SampleRate * f.freq)
		c2 := c * c
		d := c2 + c/f.q + 1
		f.b0 = 1 / d
		f.b1 = -2 * f.b0
		f.b2 = f.b0
		f.a1 = 2 * (c2 - 1) / d
		f.a2 = (1 - c/f.q + c2) / d
	}
}

// Apply runs one sample through the filter.
func (f *Biquad) Apply(in float64) float64 {
	out := f.b0*in + f.b1*f.in1 + f.b2*f.in2 - f.a1*f.out1 - f.a2*f.out2
	f.out2 = f.out1
	f.out1 = out
	f.in2 = f.in1
	f.in1 = in
	return 0.5 * out
}
