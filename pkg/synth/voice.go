package synth

// voiceCutoff is the fixed filter corner for every voice, high enough to
// pass the audible band while taming sawtooth aliasing.
const voiceCutoff = 15000.0

// voice is one slot in a channel's polyphony pool: oscillator into filter
// into envelope. Slots are recycled, never destroyed.
type voice struct {
	env    Envelope
	osc    Oscillator
	filter Biquad

	key           Key
	velocity      uint8
	samplesPlayed int
}

func newVoice() voice {
	v := voice{
		env:    NewEnvelope(),
		osc:    NewOscillator(),
		filter: NewBiquad(),
	}
	v.filter.SetType(Lowpass)
	v.filter.SetCutoff(voiceCutoff)
	return v
}

func (v *voice) keyOn(key Key, velocity uint8, freq float64) {
	v.key = key
	v.velocity = velocity
	v.osc.SetFreq(freq)
	v.samplesPlayed = 0
	v.env.KeyOn()
}

func (v *voice) keyOff() {
	v.env.KeyOff()
}

// silence cuts the voice immediately, with no release tail.
func (v *voice) silence() {
	v.env.Silence()
	v.osc.ResetPhase()
}

func (v *voice) active() bool {
	return v.key != KeyOff && !v.env.Idle()
}

// sample renders one sample. Inactive voices contribute exactly 0 and keep
// their phase reset so a retrigger starts clean.
func (v *voice) sample() float64 {
	v.samplesPlayed++
	if !v.active() {
		return 0
	}
	out := v.osc.Sample()
	out = v.filter.Apply(out)
	out = v.env.Apply(out)
	if v.env.Idle() {
		v.osc.ResetPhase()
	}
	return out
}
