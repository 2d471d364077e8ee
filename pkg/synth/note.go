// Package synth is a polyphonic subtractive synthesizer: per-voice
// oscillator, biquad filter and ADSR envelope, grouped into 16 MIDI channels
// with a fixed voice pool each.
package synth

import (
	"fmt"
	"math"
)

// SampleRate is the fixed output rate in frames per second.
const SampleRate = 44100

const notesPerOctave = 12

// Key numbers piano keys on an idealized 88-key keyboard. A0 is key 1 and
// A4 (440 Hz) is key 49; 0 means no key.
type Key uint8

const (
	KeyOff Key = 0
	KeyA0  Key = 1
	KeyA4  Key = 49
	KeyC8  Key = 88
)

// KeyFromMIDI maps a MIDI note number to a piano key. Notes outside the
// 88-key range (21..108) map to KeyOff.
func KeyFromMIDI(note uint8) Key {
	if note < 21 || note > 108 {
		return KeyOff
	}
	return Key(note - 20)
}

// Valid reports whether k names an actual piano key.
func (k Key) Valid() bool { return k >= KeyA0 && k <= KeyC8 }

// SemitoneScale returns the frequency ratio for a (possibly fractional)
// number of semitones.
func SemitoneScale(semitones float64) float64 {
	return math.Pow(2, semitones/notesPerOctave)
}

// Freq returns the key's equal-temperament frequency in Hz, anchored at
// A4 = 440 Hz.
func (k Key) Freq() float64 {
	return 440.0 * SemitoneScale(float64(k)-float64(KeyA4))
}

var noteNames = [notesPerOctave]string{
	"A-", "A#", "B-", "C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#",
}

// String renders the key like "A-4" or "C#2". Octaves count from A, so A4
// and the C above it share octave number 4.
func (k Key) String() string {
	if !k.Valid() {
		return "off"
	}
	val := int(k) - 1
	return fmt.Sprintf("%s%d", noteNames[val%notesPerOctave], val/notesPerOctave)
}
