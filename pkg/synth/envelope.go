package synth

import "math"

// Envelope levels and segment lengths shared by every voice.
const (
	envFloor   = 1.0 / 32767.0
	envPeak    = 0.9
	envSustain = 0.0001

	attackTime  = 0.2
	decayTime   = 0.8
	releaseTime = 0.1
)

type envState int

const (
	envIdle envState = iota
	envAttack
	envDecay
	envSustainHold
	envRelease
)

// expMultiplier computes the per-sample factor of an exponential ramp that
// moves a level from start to end over length seconds. Both levels must be
// positive; the envelope floor stands in for silence.
func expMultiplier(start, end, length float64) float64 {
	return 1 + (math.Log(end)-math.Log(start))/(length*SampleRate)
}

// Envelope is the per-voice ADSR amplitude state machine. It starts Idle
// and always returns to Idle after Release; KeyOn may re-enter Attack from
// any state, continuing from the current level.
type Envelope struct {
	state      envState
	level      float64
	multiplier float64
}

func NewEnvelope() Envelope {
	return Envelope{level: envFloor}
}

// KeyOn enters Attack from any state. A retrigger ramps up from the current
// level rather than snapping back to the floor.
func (e *Envelope) KeyOn() {
	e.state = envAttack
	e.multiplier = expMultiplier(envFloor, envPeak, attackTime)
}

// KeyOff enters Release. Calling it while Idle is a no-op.
func (e *Envelope) KeyOff() {
	if e.state != envIdle {
		e.state = envRelease
		e.multiplier = expMultiplier(envSustain, envFloor, releaseTime)
	}
}

// Idle reports whether the envelope has fully died out.
func (e *Envelope) Idle() bool { return e.state == envIdle }

// Silence forces the envelope straight to Idle without a release tail.
func (e *Envelope) Silence() {
	e.state = envIdle
	e.level = envFloor
}

// Apply advances the envelope one sample and scales in by the resulting
// level. An Idle envelope outputs exactly 0.
func (e *Envelope) Apply(in float64) float64 {
	switch e.state {
	case envIdle:
		e.level = envFloor
		return 0
	case envAttack:
		e.level *= e.multiplier
		if e.level >= envPeak {
			e.state = envDecay
			e.level = envPeak
			e.multiplier = expMultiplier(envPeak, envSustain, decayTime)
		}
	case envDecay:
		e.level *= e.multiplier
		if e.level <= envSustain {
			e.state = envSustainHold
			e.level = envSustain
		}
	case envSustainHold:
		e.level = envSustain
	case envRelease:
		e.level *= e.multiplier
		if e.level <= envFloor {
			e.level = envFloor
			e.state = envIdle
			return 0
		}
	}
	return in * e.level
}
