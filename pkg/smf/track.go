package smf

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
)

// Channel-voice message kinds (status byte with the channel nibble masked
// off).
const (
	MsgNoteOff         byte = 0x80
	MsgNoteOn          byte = 0x90
	MsgPolyPressure    byte = 0xA0
	MsgController      byte = 0xB0
	MsgProgram         byte = 0xC0
	MsgChannelPressure byte = 0xD0
	MsgPitchBend       byte = 0xE0
)

// Recognized meta event types. Everything else is skipped with a diagnostic.
const (
	MetaText          byte = 0x01
	MetaCopyright     byte = 0x02
	MetaTrackName     byte = 0x03
	MetaEndOfTrack    byte = 0x2F
	MetaSetTempo      byte = 0x51
	MetaTimeSignature byte = 0x58
	MetaKeySignature  byte = 0x59
)

// maxVarNum is the largest value a variable-length quantity may encode
// (4 bytes of 7 bits each).
const maxVarNum = 0x0FFFFFFF

// metaTextCap bounds how much of a meta payload is retained per event.
const metaTextCap = 15

// EventKind distinguishes channel-voice from meta events.
type EventKind int

const (
	EventChannel EventKind = iota
	EventMeta
)

// Event is one delta-time-stamped track event. Delta is relative to the
// previous event in the same track. For channel events Status carries the
// channel nibble and Data1/Data2 the (high-bit-clear) data bytes; for meta
// events MetaType and Payload are set instead.
type Event struct {
	Delta uint32
	Kind  EventKind

	Status byte
	Data1  byte
	Data2  byte

	MetaType byte
	Payload  []byte
}

// Message returns the channel-voice message kind (MsgNoteOn etc.).
func (e *Event) Message() byte { return e.Status & 0xF0 }

// Channel returns the MIDI channel (0-15) of a channel-voice event.
func (e *Event) Channel() uint8 { return e.Status & 0x0F }

// Tempo returns the microseconds-per-quarter-note value of a Set Tempo meta
// event. The payload length is validated during decoding.
func (e *Event) Tempo() int {
	return int(e.Payload[0])<<16 | int(e.Payload[1])<<8 | int(e.Payload[2])
}

// PitchBendValue returns the signed, centered pitch bend value
// (-8192..8191) of a pitch bend event.
func (e *Event) PitchBendValue() int {
	return (int(e.Data2)<<7 | int(e.Data1)) - 8192
}

// Text decodes the payload of a text-carrying meta event for display.
// Files exported by older Japanese sequencers store track names in
// Shift-JIS, so that is tried when the payload is not valid UTF-8.
func (e *Event) Text() string {
	if utf8.Valid(e.Payload) {
		return string(e.Payload)
	}
	if out, err := japanese.ShiftJIS.NewDecoder().Bytes(e.Payload); err == nil {
		return string(out)
	}
	return string(e.Payload)
}

// Track is a stateful cursor over one track chunk's payload. It produces a
// lazy, finite sequence of events; the only way to rewind is Reset, which
// restarts decoding from scratch. A Track is not safe for concurrent use.
type Track struct {
	index   int
	data    []byte
	opts    Options
	pos     int
	running byte
}

func newTrack(index int, data []byte, opts Options) *Track {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	return &Track{index: index, data: data, opts: opts}
}

// Index returns the track's position in the file.
func (t *Track) Index() int { return t.index }

// Len returns the track payload size in bytes.
func (t *Track) Len() int { return len(t.data) }

// Done reports whether the cursor has consumed the whole payload.
func (t *Track) Done() bool { return t.pos >= len(t.data) }

// Reset restarts decoding from the beginning of the track.
func (t *Track) Reset() {
	t.pos = 0
	t.running = 0
}

func (t *Track) errAt(kind ErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Track:   t.index,
		Offset:  t.pos,
		Message: fmt.Sprintf(format, args...),
	}
}

func (t *Track) byte() (byte, error) {
	if t.pos >= len(t.data) {
		return 0, t.errAt(ErrTruncatedStream, "unexpected end of track")
	}
	b := t.data[t.pos]
	t.pos++
	return b, nil
}

// varNum decodes a variable-length quantity: 7 bits per byte, most
// significant first, continuation flag in the top bit, at most 4 bytes.
func (t *Track) varNum() (uint32, error) {
	var result uint32
	for n := 0; n < 4; n++ {
		b, err := t.byte()
		if err != nil {
			return 0, err
		}
		result = result<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, t.errAt(ErrMalformedVLQ, "more than 4 continuation bytes (max value %#x)", maxVarNum)
}

// Next decodes the next event. Callers must check Done first; calling Next
// on an exhausted track is a truncated-stream error. In lenient mode,
// unsupported system events are skipped (their delta time still charged to
// the following event) instead of failing.
func (t *Track) Next() (Event, error) {
	var deltaAcc uint32
	for {
		delta, err := t.varNum()
		if err != nil {
			return Event{}, err
		}
		deltaAcc += delta

		if t.pos >= len(t.data) {
			return Event{}, t.errAt(ErrTruncatedStream, "delta time with no event")
		}
		b := t.data[t.pos]

		if b&0xF0 == 0xF0 {
			if b != 0xFF {
				if !t.opts.Lenient {
					return Event{}, t.errAt(ErrUnsupportedSystemEvent, "status %#02x", b)
				}
				if err := t.skipSystemEvent(b); err != nil {
					return Event{}, err
				}
				continue
			}
			ev, err := t.metaEvent(deltaAcc)
			if err != nil {
				return Event{}, err
			}
			return ev, nil
		}
		return t.channelEvent(deltaAcc, b)
	}
}

// skipSystemEvent consumes an unsupported 0xF* event in lenient mode.
// SysEx (0xF0/0xF7) carries a VLQ length prefix in SMF; the system-common
// messages have no payload in a file context.
func (t *Track) skipSystemEvent(status byte) error {
	t.pos++
	if status == 0xF0 || status == 0xF7 {
		length, err := t.varNum()
		if err != nil {
			return err
		}
		if t.pos+int(length) > len(t.data) {
			return t.errAt(ErrTruncatedStream, "system exclusive payload of %d bytes", length)
		}
		t.pos += int(length)
	}
	t.opts.Log.Warnw("skipping unsupported system event",
		"track", t.index, "status", fmt.Sprintf("%#02x", status))
	return nil
}

func (t *Track) metaEvent(delta uint32) (Event, error) {
	t.pos++ // 0xFF status
	metaType, err := t.byte()
	if err != nil {
		return Event{}, err
	}
	if metaType > 0x7F {
		return Event{}, t.errAt(ErrMalformedMeta, "meta type %#02x has high bit set", metaType)
	}
	length, err := t.varNum()
	if err != nil {
		return Event{}, err
	}
	if t.pos+int(length) > len(t.data) {
		return Event{}, t.errAt(ErrTruncatedStream, "meta payload of %d bytes", length)
	}
	payload := t.data[t.pos : t.pos+int(length)]
	t.pos += int(length)

	// Recognized types have fixed payload lengths.
	wantLen := -1
	switch metaType {
	case MetaEndOfTrack:
		wantLen = 0
	case MetaSetTempo:
		wantLen = 3
	case MetaTimeSignature:
		wantLen = 4
	case MetaKeySignature:
		wantLen = 2
	}
	if wantLen >= 0 && int(length) != wantLen {
		return Event{}, t.errAt(ErrMalformedMeta,
			"meta type %#02x: payload length %d, want %d", metaType, length, wantLen)
	}

	kept := payload
	if len(kept) > metaTextCap {
		kept = kept[:metaTextCap]
	}
	return Event{
		Delta:    delta,
		Kind:     EventMeta,
		MetaType: metaType,
		Payload:  append([]byte(nil), kept...),
	}, nil
}

func (t *Track) channelEvent(delta uint32, first byte) (Event, error) {
	if first&0x80 != 0 {
		t.running = first
		t.pos++
	}
	status := t.running
	if status < 0x80 || status > 0xEF {
		return Event{}, t.errAt(ErrInvalidRunningStatus, "status %#02x", status)
	}

	dataLen := 2
	switch status & 0xF0 {
	case MsgProgram, MsgChannelPressure:
		dataLen = 1
	}

	ev := Event{Delta: delta, Kind: EventChannel, Status: status}
	d1, err := t.byte()
	if err != nil {
		return Event{}, err
	}
	if d1&0x80 != 0 {
		return Event{}, t.errAt(ErrInvalidDataByte, "data byte %#02x", d1)
	}
	ev.Data1 = d1
	if dataLen == 2 {
		d2, err := t.byte()
		if err != nil {
			return Event{}, err
		}
		if d2&0x80 != 0 {
			return Event{}, t.errAt(ErrInvalidDataByte, "data byte %#02x", d2)
		}
		ev.Data2 = d2
	}
	return ev, nil
}
