// Package seq schedules decoded MIDI events against a tick clock. The
// sequencer advances in wall-clock steps, converts them to ticks under the
// current tempo and dispatches due events to per-channel sinks.
package seq

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mras0/splay/pkg/smf"
)

const maxChannels = 16

// defaultTempo is the tempo assumed before any Set Tempo event,
// 500000 microseconds per quarter note (120 BPM).
const defaultTempo = 500000

// TempoState is the pair of values that determine the tick rate.
type TempoState struct {
	MicrosPerQuarter int
	TicksPerQuarter  int
}

// MicrosPerTick is the duration of one tick in whole microseconds. The
// truncation is deliberate and matches how the tick clock advances, so
// playback runs marginally fast when the division does not divide the tempo
// evenly.
func (t TempoState) MicrosPerTick() int {
	q := t.MicrosPerQuarter / t.TicksPerQuarter
	if q < 1 {
		q = 1
	}
	return q
}

// TempoEvent records one Set Tempo event found during the validation pass.
type TempoEvent struct {
	Tick             int64
	MicrosPerQuarter int
}

// trackState pairs a track cursor with the next event waiting to fire.
// wait counts remaining ticks before next is due.
type trackState struct {
	cursor *smf.Track
	next   smf.Event
	has    bool
	wait   int64
}

// Sequencer drives playback of a loaded file. It is not safe for concurrent
// use; in practice all calls happen on the audio render path.
type Sequencer struct {
	tracks []*trackState
	sinks  [maxChannels]ChannelSink
	log    *zap.SugaredLogger

	tempo            TempoState
	currentTick      int64
	microsToNextTick float64

	tempoMap   []TempoEvent
	totalTicks int64
	duration   time.Duration
}

// New fully decodes every track of the file once, so that any malformed
// event fails here rather than mid-playback, and collects the tempo map and
// total duration along the way. The cursors are then rewound for playback.
func New(file *smf.File, log *zap.SugaredLogger) (*Sequencer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Sequencer{
		log:   log,
		tempo: TempoState{MicrosPerQuarter: defaultTempo, TicksPerQuarter: int(file.Division)},
	}

	for _, tr := range file.Tracks {
		tr.Reset()
		var tick int64
		for !tr.Done() {
			ev, err := tr.Next()
			if err != nil {
				return nil, err
			}
			tick += int64(ev.Delta)
			if ev.Kind == smf.EventMeta && ev.MetaType == smf.MetaSetTempo {
				s.tempoMap = append(s.tempoMap, TempoEvent{Tick: tick, MicrosPerQuarter: ev.Tempo()})
			}
		}
		if tick > s.totalTicks {
			s.totalTicks = tick
		}
	}

	sort.SliceStable(s.tempoMap, func(i, j int) bool {
		return s.tempoMap[i].Tick < s.tempoMap[j].Tick
	})
	if len(s.tempoMap) == 0 || s.tempoMap[0].Tick > 0 {
		s.tempoMap = append([]TempoEvent{{Tick: 0, MicrosPerQuarter: defaultTempo}}, s.tempoMap...)
	}
	s.duration = s.computeDuration()

	for _, tr := range file.Tracks {
		tr.Reset()
		ts := &trackState{cursor: tr}
		s.advanceCursor(ts)
		s.tracks = append(s.tracks, ts)
	}

	log.Infow("sequencer ready",
		"tracks", len(s.tracks),
		"totalTicks", s.totalTicks,
		"duration", s.duration,
		"tempoChanges", len(s.tempoMap))
	return s, nil
}

// computeDuration walks the tempo map segment by segment. Every track has
// already been validated, so the map is sorted and starts at tick 0.
func (s *Sequencer) computeDuration() time.Duration {
	var micros float64
	div := float64(s.tempo.TicksPerQuarter)
	for i, te := range s.tempoMap {
		endTick := s.totalTicks
		if i+1 < len(s.tempoMap) {
			endTick = s.tempoMap[i+1].Tick
		}
		if endTick > te.Tick {
			micros += float64(endTick-te.Tick) / div * float64(te.MicrosPerQuarter)
		}
	}
	return time.Duration(micros) * time.Microsecond
}

// BindChannel attaches a sink to one of the 16 MIDI channels. A nil sink
// detaches; events for unbound channels are dropped.
func (s *Sequencer) BindChannel(channel int, sink ChannelSink) error {
	if channel < 0 || channel >= maxChannels {
		return fmt.Errorf("seq: channel %d out of range 0..%d", channel, maxChannels-1)
	}
	s.sinks[channel] = sink
	return nil
}

// Advance moves playback forward by deltaSeconds of wall-clock time,
// dispatching every event that falls due. The delta must lie strictly
// between 0 and 1 second; render callbacks always satisfy this.
func (s *Sequencer) Advance(deltaSeconds float64) error {
	if !(deltaSeconds > 0 && deltaSeconds < 1) {
		return fmt.Errorf("seq: advance by %v seconds outside (0, 1)", deltaSeconds)
	}
	s.microsToNextTick -= deltaSeconds * 1e6
	for s.microsToNextTick <= 0 {
		s.tick()
		s.currentTick++
		s.microsToNextTick += float64(s.tempo.MicrosPerTick())
	}
	return nil
}

// tick fires every event due at the current tick, visiting tracks in file
// order so same-tick events keep a deterministic dispatch order.
func (s *Sequencer) tick() {
	for _, ts := range s.tracks {
		for ts.has && ts.wait == 0 {
			s.dispatch(&ts.next)
			s.advanceCursor(ts)
		}
	}
	for _, ts := range s.tracks {
		if ts.has {
			ts.wait--
		}
	}
}

func (s *Sequencer) advanceCursor(ts *trackState) {
	if ts.cursor.Done() {
		ts.has = false
		return
	}
	ev, err := ts.cursor.Next()
	if err != nil {
		// Cannot happen after the validation pass in New.
		s.log.Errorw("decode error during playback", "track", ts.cursor.Index(), "error", err)
		ts.has = false
		return
	}
	ts.next = ev
	ts.has = true
	ts.wait = int64(ev.Delta)
}

func (s *Sequencer) dispatch(ev *smf.Event) {
	if ev.Kind == smf.EventMeta {
		s.dispatchMeta(ev)
		return
	}

	sink := s.sinks[ev.Channel()]
	if sink == nil {
		return
	}
	switch ev.Message() {
	case smf.MsgNoteOff:
		sink.NoteOff(ev.Data1, ev.Data2)
	case smf.MsgNoteOn:
		sink.NoteOn(ev.Data1, ev.Data2)
	case smf.MsgPolyPressure:
		sink.PolyphonicPressure(ev.Data1, ev.Data2)
	case smf.MsgController:
		sink.ControllerChange(ev.Data1, ev.Data2)
	case smf.MsgProgram:
		sink.ProgramChange(ev.Data1)
	case smf.MsgChannelPressure:
		// No per-voice meaning in this synthesizer.
		s.log.Debugw("ignoring channel pressure", "channel", ev.Channel(), "pressure", ev.Data1)
	case smf.MsgPitchBend:
		sink.PitchBend(ev.PitchBendValue())
	}
}

func (s *Sequencer) dispatchMeta(ev *smf.Event) {
	switch ev.MetaType {
	case smf.MetaSetTempo:
		s.tempo.MicrosPerQuarter = ev.Tempo()
		s.log.Debugw("tempo change", "tick", s.currentTick, "microsPerQuarter", s.tempo.MicrosPerQuarter)
	case smf.MetaText, smf.MetaCopyright, smf.MetaTrackName:
		s.log.Infow("meta text", "type", ev.MetaType, "text", ev.Text())
	case smf.MetaEndOfTrack:
		s.log.Debugw("end of track", "tick", s.currentTick)
	case smf.MetaTimeSignature, smf.MetaKeySignature:
		s.log.Debugw("meta event", "type", ev.MetaType, "payload", ev.Payload)
	default:
		s.log.Warnw("unrecognized meta event", "type", ev.MetaType, "payload", ev.Payload)
	}
}

// Done reports whether every track has been fully dispatched. Voices may
// still be releasing after this turns true.
func (s *Sequencer) Done() bool {
	for _, ts := range s.tracks {
		if ts.has {
			return false
		}
	}
	return true
}

// CurrentTick returns the number of ticks elapsed since playback started.
func (s *Sequencer) CurrentTick() int64 { return s.currentTick }

// Tempo returns the tempo in effect right now.
func (s *Sequencer) Tempo() TempoState { return s.tempo }

// TotalTicks returns the tick length of the longest track.
func (s *Sequencer) TotalTicks() int64 { return s.totalTicks }

// Duration returns the playback length computed from the tempo map.
func (s *Sequencer) Duration() time.Duration { return s.duration }

// TempoMap returns the Set Tempo events found at load, sorted by tick, with
// the default tempo prepended at tick 0 when the file does not set one.
func (s *Sequencer) TempoMap() []TempoEvent { return s.tempoMap }
