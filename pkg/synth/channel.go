package synth

import "go.uber.org/zap"

// DefaultPolyphony is the voice pool size of each channel.
const DefaultPolyphony = 32

// MIDI controller numbers this synthesizer reacts to or knowingly ignores.
const (
	ccModulationWheel  = 1
	ccVolume           = 7
	ccPan              = 10
	ccDamperPedal      = 64
	ccSoundController5 = 74
	ccEffects1         = 91
	ccEffects5         = 95
	ccAllSoundOff      = 120
	ccResetControllers = 121
)

// pitchBendRange is the bend span in semitones at full deflection.
const pitchBendRange = 2.0

// Channel is one MIDI channel's synthesizer: a fixed pool of voices plus
// channel-wide volume, pan and pitch bend. It implements the sequencer's
// channel sink interface and must only be driven from the render path.
type Channel struct {
	log    *zap.SugaredLogger
	voices []voice

	volume  RampedValue
	pan     RampedValue
	bend    float64
	program uint8
}

// NewChannel builds a channel with the default polyphony.
func NewChannel(log *zap.SugaredLogger) *Channel {
	return newChannel(log, DefaultPolyphony)
}

func newChannel(log *zap.SugaredLogger, polyphony int) *Channel {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := &Channel{
		log:    log,
		voices: make([]voice, polyphony),
		volume: NewRampedValue(0.000001, 1.0, 1.0, 0.2),
		pan:    NewRampedValue(0.000001, 0.5, 1.0, 0.01),
		bend:   1,
	}
	for i := range c.voices {
		c.voices[i] = newVoice()
	}
	return c
}

// SetWaveform switches every voice's oscillator shape.
func (c *Channel) SetWaveform(w Waveform) {
	for i := range c.voices {
		c.voices[i].osc.SetWaveform(w)
	}
}

func (c *Channel) findKey(key Key) *voice {
	for i := range c.voices {
		if c.voices[i].key == key {
			return &c.voices[i]
		}
	}
	return nil
}

// allocate picks the voice for a fresh note: the first idle slot, or under
// full load the voice that has been sounding longest (ties to the lowest
// index). Allocation always succeeds.
func (c *Channel) allocate() *voice {
	var steal *voice
	for i := range c.voices {
		v := &c.voices[i]
		if !v.active() {
			return v
		}
		if steal == nil || v.samplesPlayed > steal.samplesPlayed {
			steal = v
		}
	}
	return steal
}

// NoteOn starts (or retriggers) a note. Velocity 0 is a note off.
func (c *Channel) NoteOn(note, velocity uint8) {
	if velocity == 0 {
		c.NoteOff(note, 0)
		return
	}
	key := KeyFromMIDI(note)
	if !key.Valid() {
		c.log.Debugw("note outside keyboard range", "note", note)
		return
	}
	v := c.findKey(key)
	if v == nil {
		v = c.allocate()
	}
	v.keyOn(key, velocity, key.Freq()*c.bend)
}

// NoteOff releases the voice bound to the note, if any.
func (c *Channel) NoteOff(note, velocity uint8) {
	if v := c.findKey(KeyFromMIDI(note)); v != nil && v.key != KeyOff {
		v.keyOff()
	}
}

func (c *Channel) PolyphonicPressure(note, pressure uint8) {
	c.log.Debugw("polyphonic pressure", "key", KeyFromMIDI(note).String(), "pressure", pressure)
}

func (c *Channel) ControllerChange(controller, value uint8) {
	switch controller {
	case ccVolume:
		c.volume.Set(float64(value) / 127.0)
	case ccPan:
		c.pan.Set(float64(value) / 127.0)
	case ccAllSoundOff:
		for i := range c.voices {
			c.voices[i].silence()
		}
	case ccResetControllers:
		c.volume.Set(1)
		c.pan.Set(0.5)
		c.PitchBend(0)
	case ccModulationWheel, ccDamperPedal, ccSoundController5:
		// Recognized but not implemented.
	default:
		if controller >= ccEffects1 && controller <= ccEffects5 {
			return
		}
		// Bank select, LSB controllers and the sound/portamento groups are
		// common in the wild and safe to drop silently.
		ignore := controller == 0 ||
			(controller >= 0x20 && controller <= 0x3F) ||
			(controller >= 0x60 && controller <= 0x77)
		if !ignore {
			c.log.Warnw("ignoring controller", "controller", controller, "value", value)
		}
	}
}

// ProgramChange records the selected program. There is a single built-in
// timbre, so the number only informs logging and inspection.
func (c *Channel) ProgramChange(program uint8) {
	c.program = program
	c.log.Debugw("program change", "program", program)
}

// Program returns the last program change received, 0 before any.
func (c *Channel) Program() uint8 { return c.program }

// PitchBend scales every sounding voice by up to pitchBendRange semitones.
// The value is the signed centered bend (-8192..8191).
func (c *Channel) PitchBend(value int) {
	c.bend = SemitoneScale(float64(value) / 8192.0 * pitchBendRange)
	for i := range c.voices {
		v := &c.voices[i]
		if v.key != KeyOff {
			v.osc.SetFreq(v.key.Freq() * c.bend)
		}
	}
}

// Quiet reports whether no voice is sounding, including release tails.
func (c *Channel) Quiet() bool {
	for i := range c.voices {
		if c.voices[i].active() {
			return false
		}
	}
	return true
}

// ActiveVoices counts the currently sounding voices.
func (c *Channel) ActiveVoices() int {
	n := 0
	for i := range c.voices {
		if c.voices[i].active() {
			n++
		}
	}
	return n
}

// Sample renders one stereo frame: voice sum, volume and polyphony scaling,
// then constant-sum panning. Both ramps step exactly once.
func (c *Channel) Sample() (left, right float64) {
	out := 0.0
	for i := range c.voices {
		out += c.voices[i].sample()
	}
	out *= c.volume.Step() * 10.0 / float64(len(c.voices))
	p := c.pan.Step()
	return out * (1 - p), out * p
}
