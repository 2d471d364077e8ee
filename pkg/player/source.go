// Package player streams rendered audio to the output device. A Source
// produces stereo frames; Stream packs them into the 16-bit interleaved
// format the audio context consumes and drains the job queue once per block.
package player

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"go.uber.org/zap"

	"github.com/mras0/splay/pkg/seq"
	"github.com/mras0/splay/pkg/synth"
)

// Source renders stereo sample frames, pulled one frame at a time by the
// stream. Finished reports that nothing audible remains.
type Source interface {
	RenderFrame() (left, right float64)
	Finished() bool
}

// sampleStep is the wall-clock time of one output frame.
const sampleStep = 1.0 / synth.SampleRate

// liveBoost raises the detached live channel over the file mix, which is
// scaled down for 16-channel headroom the keyboard does not need.
const liveBoost = 10.0

// SynthSource couples the sequencer to the built-in synthesizer: every frame
// advances playback time by one sample before mixing. A detached live
// channel carries keyboard-injected notes on top of the file mix; in edit
// mode the sequencer is paused and only live notes sound.
type SynthSource struct {
	seq    *seq.Sequencer
	engine *synth.Engine
	live   *synth.Channel
	edit   bool
}

func NewSynthSource(sequencer *seq.Sequencer, engine *synth.Engine) *SynthSource {
	return &SynthSource{seq: sequencer, engine: engine, live: synth.NewChannel(nil)}
}

// SetEditMode pauses or resumes the sequencer. Voices keep sounding either
// way, so held notes release naturally across the switch.
func (s *SynthSource) SetEditMode(on bool) { s.edit = on }

func (s *SynthSource) EditMode() bool { return s.edit }

// Engine exposes the synthesizer for live note injection via the job queue.
func (s *SynthSource) Engine() *synth.Engine { return s.engine }

// Live is the keyboard channel, independent of the 16 file channels. Only
// drive it through the job queue.
func (s *SynthSource) Live() *synth.Channel { return s.live }

func (s *SynthSource) RenderFrame() (left, right float64) {
	if !s.edit && !s.seq.Done() {
		// The step is far inside the sequencer's (0,1) window, so this
		// cannot fail.
		_ = s.seq.Advance(sampleStep)
	}
	left, right = s.engine.RenderFrame()
	ll, lr := s.live.Sample()
	return left + ll*liveBoost, right + lr*liveBoost
}

// Finished reports end of playback: the whole file dispatched and every
// release tail died out. Edit mode never finishes.
func (s *SynthSource) Finished() bool {
	return !s.edit && s.seq.Done() && s.engine.Quiet() && s.live.Quiet()
}

// soundFontBlock is the render granularity of the SoundFont synthesizer.
const soundFontBlock = 64

// SoundFontSource renders the MIDI file through a SoundFont (.sf2) with the
// meltysynth synthesizer instead of the built-in voices. The playback
// length comes from the caller, which already knows the file's tempo map.
type SoundFontSource struct {
	sequencer *meltysynth.MidiFileSequencer
	left      []float32
	right     []float32
	pos       int

	rendered    int64
	totalFrames int64
}

// releaseTail is extra render time past the nominal end of the file, so
// notes held to the last tick can fade out.
const releaseTail = time.Second

// NewSoundFontSource loads the SoundFont file and starts the meltysynth
// sequencer over the raw MIDI file bytes.
func NewSoundFontSource(sfPath string, midiData []byte, duration time.Duration, log *zap.SugaredLogger) (*SoundFontSource, error) {
	sfData, err := os.ReadFile(sfPath)
	if err != nil {
		return nil, fmt.Errorf("player: reading soundfont: %w", err)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(sfData))
	if err != nil {
		return nil, fmt.Errorf("player: parsing soundfont %s: %w", sfPath, err)
	}

	settings := meltysynth.NewSynthesizerSettings(synth.SampleRate)
	synthesizer, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("player: creating synthesizer: %w", err)
	}
	midiFile, err := meltysynth.NewMidiFile(bytes.NewReader(midiData))
	if err != nil {
		return nil, fmt.Errorf("player: parsing MIDI file for soundfont playback: %w", err)
	}

	sequencer := meltysynth.NewMidiFileSequencer(synthesizer)
	sequencer.Play(midiFile, false)

	log.Infow("soundfont playback", "soundfont", sfPath, "duration", duration)
	return &SoundFontSource{
		sequencer:   sequencer,
		left:        make([]float32, soundFontBlock),
		right:       make([]float32, soundFontBlock),
		pos:         soundFontBlock,
		totalFrames: int64((duration + releaseTail).Seconds() * synth.SampleRate),
	}, nil
}

func (s *SoundFontSource) RenderFrame() (left, right float64) {
	if s.pos >= soundFontBlock {
		s.sequencer.Render(s.left, s.right)
		s.pos = 0
	}
	left = float64(s.left[s.pos])
	right = float64(s.right[s.pos])
	s.pos++
	s.rendered++
	return left, right
}

func (s *SoundFontSource) Finished() bool {
	return s.rendered >= s.totalFrames
}
