package smf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal decode failures. Every kind aborts loading;
// there is no retry and no partial playback.
type ErrorKind int

const (
	// ErrMalformedHeader indicates a wrong chunk tag or header length.
	ErrMalformedHeader ErrorKind = iota
	// ErrUnsupportedFormat indicates a MIDI format other than 1.
	ErrUnsupportedFormat
	// ErrUnsupportedDivision indicates SMPTE time-code division (top bit set).
	ErrUnsupportedDivision
	// ErrTruncatedStream indicates EOF in the middle of a chunk or event.
	ErrTruncatedStream
	// ErrMalformedVLQ indicates a variable-length quantity longer than 4 bytes.
	ErrMalformedVLQ
	// ErrInvalidDataByte indicates a channel-message data byte with the high
	// bit set.
	ErrInvalidDataByte
	// ErrUnsupportedSystemEvent indicates a non-meta 0xF* status byte
	// (System Exclusive and friends). Downgraded to skip-and-log in lenient
	// mode.
	ErrUnsupportedSystemEvent
	// ErrMalformedMeta indicates a wrong payload length for a recognized
	// meta event type.
	ErrMalformedMeta
	// ErrInvalidRunningStatus indicates a data byte with no usable running
	// status (outside 0x80-0xEF).
	ErrInvalidRunningStatus
)

var errorKindNames = [...]string{
	ErrMalformedHeader:        "malformed header",
	ErrUnsupportedFormat:      "unsupported format",
	ErrUnsupportedDivision:    "unsupported division mode",
	ErrTruncatedStream:        "truncated stream",
	ErrMalformedVLQ:           "malformed variable-length quantity",
	ErrInvalidDataByte:        "invalid data byte",
	ErrUnsupportedSystemEvent: "unsupported system event",
	ErrMalformedMeta:          "malformed meta event",
	ErrInvalidRunningStatus:   "invalid running status",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

// DecodeError is a fatal load-time decode failure. Track is -1 for errors
// outside any track chunk; Offset is the byte position within the track
// payload (or the file, for header errors) at the time the error was
// detected.
type DecodeError struct {
	Kind    ErrorKind
	Track   int
	Offset  int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Track < 0 {
		return fmt.Sprintf("smf: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("smf: track %d offset %d: %s: %s", e.Track, e.Offset, e.Kind, e.Message)
}

// IsKind reports whether err is (or wraps) a DecodeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}
