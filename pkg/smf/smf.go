// Package smf decodes Standard MIDI Files (format 1 only).
//
// Load reads the header chunk and copies every track chunk's payload into an
// immutable buffer; event decoding is lazy through per-track cursors (see
// Track). All fatal conditions are *DecodeError values carrying the error
// taxonomy in ErrorKind; unrecognized meta events are the only recoverable
// condition and are surfaced to the consumer as ordinary events.
package smf

import (
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	headerTag    = "MThd"
	trackTag     = "MTrk"
	headerLength = 6
)

// Options control decoding behavior.
type Options struct {
	// Lenient downgrades UnsupportedSystemEvent to skip-and-log: System
	// Exclusive events (0xF0/0xF7) are skipped over their length prefix,
	// lone system-common status bytes are skipped outright. All other
	// fatal conditions stay fatal.
	Lenient bool
	// Log receives decode diagnostics. Defaults to a no-op logger.
	Log *zap.SugaredLogger
}

// File is a fully loaded Standard MIDI File. Track payloads are read once at
// load time and never mutated afterwards.
type File struct {
	Format   uint16
	Division uint16 // ticks per quarter note; top bit guaranteed clear
	Tracks   []*Track
}

type chunkHeader struct {
	tag    [4]byte
	length uint32
}

func readChunkHeader(r io.Reader) (chunkHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return chunkHeader{}, err
	}
	var h chunkHeader
	copy(h.tag[:], buf[:4])
	h.length = binary.BigEndian.Uint32(buf[4:])
	return h, nil
}

// Load decodes the chunk structure of a format-1 Standard MIDI File.
// The returned File owns a cursor per track; call Track.Next to decode
// events.
func Load(r io.Reader, opts Options) (*File, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}

	h, err := readChunkHeader(r)
	if err != nil {
		return nil, &DecodeError{Kind: ErrTruncatedStream, Track: -1, Message: "reading file header"}
	}
	if string(h.tag[:]) != headerTag || h.length != headerLength {
		return nil, &DecodeError{
			Kind:    ErrMalformedHeader,
			Track:   -1,
			Message: fmt.Sprintf("expected <%s %d>, got <%s %d>", headerTag, headerLength, h.tag, h.length),
		}
	}

	var payload [headerLength]byte
	if _, err := io.ReadFull(r, payload[:]); err != nil {
		return nil, &DecodeError{Kind: ErrTruncatedStream, Track: -1, Message: "reading header payload"}
	}
	format := binary.BigEndian.Uint16(payload[0:])
	trackCount := int16(binary.BigEndian.Uint16(payload[2:]))
	division := binary.BigEndian.Uint16(payload[4:])

	if format != 1 {
		return nil, &DecodeError{
			Kind:    ErrUnsupportedFormat,
			Track:   -1,
			Message: fmt.Sprintf("MIDI format %d (only format 1 is supported)", format),
		}
	}
	if division&0x8000 != 0 {
		return nil, &DecodeError{
			Kind:    ErrUnsupportedDivision,
			Track:   -1,
			Message: "SMPTE time-code division is not supported",
		}
	}
	if division == 0 || trackCount <= 0 {
		return nil, &DecodeError{
			Kind:    ErrMalformedHeader,
			Track:   -1,
			Message: fmt.Sprintf("division %d, track count %d", division, trackCount),
		}
	}

	f := &File{Format: format, Division: division}
	for i := 0; i < int(trackCount); i++ {
		th, err := readChunkHeader(r)
		if err != nil {
			return nil, &DecodeError{
				Kind:    ErrTruncatedStream,
				Track:   i,
				Message: fmt.Sprintf("reading track %d of %d", i, trackCount),
			}
		}
		if string(th.tag[:]) != trackTag {
			return nil, &DecodeError{
				Kind:    ErrMalformedHeader,
				Track:   i,
				Message: fmt.Sprintf("expected %s chunk, got <%s %d>", trackTag, th.tag, th.length),
			}
		}
		data := make([]byte, th.length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, &DecodeError{
				Kind:    ErrTruncatedStream,
				Track:   i,
				Message: fmt.Sprintf("track payload of %d bytes", th.length),
			}
		}
		f.Tracks = append(f.Tracks, newTrack(i, data, opts))
	}

	opts.Log.Infow("loaded MIDI file",
		"format", format, "tracks", trackCount, "division", division)
	return f, nil
}
