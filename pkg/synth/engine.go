package synth

import (
	"go.uber.org/zap"

	"github.com/mras0/splay/pkg/seq"
)

// NumChannels matches the 16 channels of the MIDI wire format.
const NumChannels = 16

// Engine owns one Channel per MIDI channel and mixes them into the output
// frame. Like its channels it is confined to the render path; other threads
// reach it through the job queue.
type Engine struct {
	log        *zap.SugaredLogger
	channels   [NumChannels]*Channel
	clipWarned bool
}

func NewEngine(log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{log: log}
	for i := range e.channels {
		e.channels[i] = NewChannel(log)
	}
	return e
}

// Channel returns the synthesizer for one MIDI channel (0-15).
func (e *Engine) Channel(i int) *Channel { return e.channels[i] }

// SetWaveform switches the oscillator shape on every channel.
func (e *Engine) SetWaveform(w Waveform) {
	for _, c := range e.channels {
		c.SetWaveform(w)
	}
}

// AttachTo binds every channel as the sequencer's sink for the matching
// MIDI channel.
func (e *Engine) AttachTo(s *seq.Sequencer) error {
	for i, c := range e.channels {
		if err := s.BindChannel(i, c); err != nil {
			return err
		}
	}
	return nil
}

// Quiet reports whether every channel has died out, release tails included.
func (e *Engine) Quiet() bool {
	for _, c := range e.channels {
		if !c.Quiet() {
			return false
		}
	}
	return true
}

// mixScale boosts the channel sum to a usable level. Dense files can clip;
// that is reported once rather than compressed away.
const mixScale = 50.0 / NumChannels

// RenderFrame mixes one stereo frame from all channels.
func (e *Engine) RenderFrame() (left, right float64) {
	for _, c := range e.channels {
		l, r := c.Sample()
		left += l
		right += r
	}
	left *= mixScale
	right *= mixScale
	if !e.clipWarned && (left < -1 || left > 1 || right < -1 || right > 1) {
		e.clipWarned = true
		e.log.Warnw("output clipping", "left", left, "right", right)
	}
	return left, right
}
