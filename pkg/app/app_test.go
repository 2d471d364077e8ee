package app

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestMIDI writes a short format-1 file: one quarter note then end of
// track.
func writeTestMIDI(t *testing.T) string {
	t.Helper()
	track := []byte{
		0x00, 0x90, 0x3C, 0x40,
		0x60, 0x90, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	}
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(96))
	buf.WriteString("MTrk")
	binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)

	path := filepath.Join(t.TempDir(), "test.mid")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRunHeadlessPlaysToCompletion(t *testing.T) {
	path := writeTestMIDI(t)
	err := New().Run([]string{"--headless", "--log-level", "error", path})
	assert.NoError(t, err)
}

func TestRunHeadlessTimeout(t *testing.T) {
	path := writeTestMIDI(t)
	err := New().Run([]string{"--headless", "--log-level", "error", "-t", "1", path})
	assert.NoError(t, err)
}

func TestRunMissingFile(t *testing.T) {
	err := New().Run([]string{"--headless", "--log-level", "error", "no-such-file.mid"})
	assert.Error(t, err)
}

func TestRunRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mid")
	require.NoError(t, os.WriteFile(path, []byte("not a midi file"), 0o644))
	err := New().Run([]string{"--headless", "--log-level", "error", path})
	assert.Error(t, err)
}

func TestRunBadWaveform(t *testing.T) {
	path := writeTestMIDI(t)
	err := New().Run([]string{"--headless", "--waveform", "noise", "--log-level", "error", path})
	assert.Error(t, err)
}

func TestLiveNoteMapping(t *testing.T) {
	// Z is the C below A4, which is MIDI note 60.
	assert.Equal(t, uint8(60), liveNote(-9))
	assert.Equal(t, uint8(69), liveNote(0)) // concert A
}
