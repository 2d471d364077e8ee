package synth

import "math"

// RampedValue smooths a control parameter with an exponential slide toward
// its target, one step per sample. Up and down multipliers are fixed at
// construction from the full min-to-max slide time, so partial moves settle
// proportionally faster.
type RampedValue struct {
	value  float64
	target float64
	up     float64
	down   float64
}

func NewRampedValue(min, value, max, slideSeconds float64) RampedValue {
	return RampedValue{
		value:  value,
		target: value,
		up:     expMultiplier(min, max, slideSeconds),
		down:   expMultiplier(max, min, slideSeconds),
	}
}

// Set changes the target. The value itself only moves in Step.
func (r *RampedValue) Set(target float64) { r.target = target }

// Target returns the value the ramp is sliding toward.
func (r *RampedValue) Target() float64 { return r.target }

// Step advances the ramp one sample and returns the current value. It must
// be called exactly once per rendered sample, whether or not the target
// changed.
func (r *RampedValue) Step() float64 {
	switch {
	case r.target == r.value:
	case r.target < r.value:
		r.value = math.Max(r.value*r.down, r.target)
	default:
		r.value = math.Min(r.value*r.up, r.target)
	}
	return r.value
}
