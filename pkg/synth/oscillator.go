package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the oscillator's output shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

var waveformNames = [...]string{"sine", "square", "triangle", "sawtooth"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform resolves a waveform name as used on the command line.
func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if strings.EqualFold(s, name) {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("synth: unknown waveform %q (want one of %s)",
		s, strings.Join(waveformNames[:], ", "))
}

// Oscillator is a phase-accumulator waveform generator. Phase advances by
// freq/SampleRate per sample and wraps modulo 1.
type Oscillator struct {
	wave  Waveform
	freq  float64
	phase float64
}

func NewOscillator() Oscillator {
	return Oscillator{wave: Sawtooth}
}

func (o *Oscillator) SetWaveform(w Waveform) { o.wave = w }
func (o *Oscillator) SetFreq(freq float64)   { o.freq = freq }

// ResetPhase rewinds the accumulator so a retriggered voice starts from a
// consistent point instead of an audible discontinuity.
func (o *Oscillator) ResetPhase() { o.phase = 0 }

// Sample produces the waveform value at the current phase, then advances.
func (o *Oscillator) Sample() float64 {
	var val float64
	switch o.wave {
	case Sine:
		val = math.Cos(2 * math.Pi * o.phase)
	case Square:
		if math.Cos(2*math.Pi*o.phase) < 0 {
			val = -1
		} else {
			val = 1
		}
	case Triangle:
		val = 2*math.Abs(2*(o.phase-math.Floor(o.phase+0.5))) - 1
	case Sawtooth:
		val = 2 * (o.phase - math.Floor(o.phase+0.5))
	}
	o.phase += o.freq / SampleRate
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return val
}
