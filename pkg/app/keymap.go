package app

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mras0/splay/pkg/synth"
)

// liveKeys lays a one-octave keyboard on the bottom letter row, offsets in
// semitones from A4. Z is the C below A4; S, D, G, H and J are the black
// keys between.
var liveKeys = []struct {
	key    ebiten.Key
	offset int
}{
	{ebiten.KeyZ, -9}, // C
	{ebiten.KeyS, -8}, // C#
	{ebiten.KeyX, -7}, // D
	{ebiten.KeyD, -6}, // D#
	{ebiten.KeyC, -5}, // E
	{ebiten.KeyV, -4}, // F
	{ebiten.KeyG, -3}, // F#
	{ebiten.KeyB, -2}, // G
	{ebiten.KeyH, -1}, // G#
	{ebiten.KeyN, 0},  // A
	{ebiten.KeyJ, 1},  // A#
	{ebiten.KeyM, 2},  // B
}

// liveNote converts a keyboard offset to the MIDI note number the
// synthesizer channel expects.
func liveNote(offset int) uint8 {
	return uint8(int(synth.KeyA4) + offset + 20)
}
