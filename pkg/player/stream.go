package player

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/mras0/splay/pkg/jobqueue"
)

// bytesPerFrame is one interleaved stereo frame of 16-bit samples.
const bytesPerFrame = 4

// Stream adapts a Source to the io.Reader the audio context consumes:
// little-endian interleaved 16-bit stereo. Each Read is one render block; the
// job queue is drained exactly once at its start, so cross-thread requests
// never interleave with frame rendering.
type Stream struct {
	mu       sync.Mutex
	src      Source
	jobs     *jobqueue.Queue
	onBlock  func(block []int16)
	block    []int16
	finished bool
}

// NewStream wraps src. jobs may be nil when no other thread injects work.
func NewStream(src Source, jobs *jobqueue.Queue) *Stream {
	return &Stream{src: src, jobs: jobs}
}

// SetOnBlock registers a tap that receives each rendered block as
// interleaved int16 frames, for visualization. The slice is reused across
// blocks; the callback runs on the audio path and must copy out quickly.
func (s *Stream) SetOnBlock(fn func(block []int16)) {
	s.mu.Lock()
	s.onBlock = fn
	s.mu.Unlock()
}

// Finished reports whether the source has been fully drained.
func (s *Stream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func floatToInt16(v float64) int16 {
	scaled := v * 32767
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

// Read renders len(p)/4 frames. After the source reports Finished the
// current block is still returned in full; EOF comes on the following call,
// so the device plays the final tail out.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return 0, io.EOF
	}
	if s.jobs != nil {
		s.jobs.ExecuteAll()
	}

	frames := len(p) / bytesPerFrame
	if cap(s.block) < frames*2 {
		s.block = make([]int16, frames*2)
	}
	block := s.block[:frames*2]

	for i := 0; i < frames; i++ {
		l, r := s.src.RenderFrame()
		ls, rs := floatToInt16(l), floatToInt16(r)
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], uint16(ls))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], uint16(rs))
		block[i*2] = ls
		block[i*2+1] = rs
	}

	if s.onBlock != nil && frames > 0 {
		s.onBlock(block)
	}
	if s.src.Finished() {
		s.finished = true
	}
	return frames * bytesPerFrame, nil
}
