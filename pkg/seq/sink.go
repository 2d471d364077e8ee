package seq

import "go.uber.org/zap"

// ChannelSink receives decoded channel-voice events for one MIDI channel.
// The sequencer owns up to 16 sinks, one per channel; the synthesizer
// implements this interface, and LogSink provides a diagnostic
// implementation. Keys, velocities and controller values are raw 7-bit MIDI
// data bytes; pitch bend is the signed centered value (-8192..8191).
//
// Sink methods are invoked from the render path and must not block.
type ChannelSink interface {
	NoteOn(key, velocity uint8)
	NoteOff(key, velocity uint8)
	PolyphonicPressure(key, pressure uint8)
	ControllerChange(controller, value uint8)
	ProgramChange(program uint8)
	PitchBend(value int)
}

// LogSink is a ChannelSink that logs every event it receives. Useful for
// inspecting a file's event stream without rendering audio.
type LogSink struct {
	Channel int
	Log     *zap.SugaredLogger
}

func (s *LogSink) NoteOn(key, velocity uint8) {
	s.Log.Infow("note on", "channel", s.Channel, "key", key, "velocity", velocity)
}

func (s *LogSink) NoteOff(key, velocity uint8) {
	s.Log.Infow("note off", "channel", s.Channel, "key", key, "velocity", velocity)
}

func (s *LogSink) PolyphonicPressure(key, pressure uint8) {
	s.Log.Infow("key pressure", "channel", s.Channel, "key", key, "pressure", pressure)
}

func (s *LogSink) ControllerChange(controller, value uint8) {
	s.Log.Infow("controller change", "channel", s.Channel, "controller", controller, "value", value)
}

func (s *LogSink) ProgramChange(program uint8) {
	s.Log.Infow("program change", "channel", s.Channel, "program", program)
}

func (s *LogSink) PitchBend(value int) {
	s.Log.Infow("pitch bend", "channel", s.Channel, "value", value)
}
