package player

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mras0/splay/pkg/jobqueue"
)

// stubSource plays a fixed list of frames, then reports finished.
type stubSource struct {
	frames [][2]float64
	pos    int
}

func (s *stubSource) RenderFrame() (float64, float64) {
	if s.pos >= len(s.frames) {
		return 0, 0
	}
	f := s.frames[s.pos]
	s.pos++
	return f[0], f[1]
}

func (s *stubSource) Finished() bool { return s.pos >= len(s.frames) }

func readFrames(t *testing.T, s *Stream, frames int) ([]int16, error) {
	t.Helper()
	p := make([]byte, frames*bytesPerFrame)
	n, err := s.Read(p)
	if err != nil {
		return nil, err
	}
	out := make([]int16, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		out = append(out, int16(uint16(p[i])|uint16(p[i+1])<<8))
	}
	return out, nil
}

func TestStreamEncodesFrames(t *testing.T) {
	src := &stubSource{frames: [][2]float64{
		{0, 0},
		{0.5, -0.5},
		{1, -1},
	}}
	s := NewStream(src, nil)

	got, err := readFrames(t, s, 3)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 0, 16383, -16383, 32767, -32767}, got)
}

func TestStreamClampsOutOfRange(t *testing.T) {
	src := &stubSource{frames: [][2]float64{{2.5, -3.0}}}
	s := NewStream(src, nil)

	got, err := readFrames(t, s, 1)
	require.NoError(t, err)
	assert.Equal(t, []int16{32767, -32768}, got)
}

func TestStreamEOFAfterFinish(t *testing.T) {
	src := &stubSource{frames: [][2]float64{{0.1, 0.1}}}
	s := NewStream(src, nil)

	// The block during which the source finishes is still delivered whole.
	got, err := readFrames(t, s, 2)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.True(t, s.Finished())

	_, err = readFrames(t, s, 2)
	assert.Equal(t, io.EOF, err)
}

func TestStreamDrainsJobsOncePerRead(t *testing.T) {
	src := &stubSource{frames: make([][2]float64, 100)}
	var jobs jobqueue.Queue
	s := NewStream(src, &jobs)

	runs := 0
	jobs.Push(func() { runs++ })
	jobs.Push(func() { runs++ })

	_, err := readFrames(t, s, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, runs)

	// Nothing queued: the next read runs nothing.
	_, err = readFrames(t, s, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestStreamOnBlockTap(t *testing.T) {
	src := &stubSource{frames: make([][2]float64, 100)}
	s := NewStream(src, nil)

	var sizes []int
	s.SetOnBlock(func(block []int16) { sizes = append(sizes, len(block)) })

	_, err := readFrames(t, s, 8)
	require.NoError(t, err)
	_, err = readFrames(t, s, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 8}, sizes)
}
