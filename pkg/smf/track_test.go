package smf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrack(data []byte, opts Options) *Track {
	return newTrack(0, data, opts)
}

func TestVarNum(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, 127},
		{[]byte{0x87, 0x68}, 1000},
		{[]byte{0xFF, 0x7F}, 16383},
		{[]byte{0xBD, 0x84, 0x40}, 1000000},
		{[]byte{0xFF, 0xFF, 0xFF, 0x7F}, 0x0FFFFFFF},
	}
	for _, tt := range tests {
		tr := testTrack(tt.in, Options{})
		got, err := tr.varNum()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input % x", tt.in)
	}
}

func TestVarNumErrors(t *testing.T) {
	// A 5th continuation byte is malformed.
	tr := testTrack([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}, Options{})
	_, err := tr.varNum()
	assert.True(t, IsKind(err, ErrMalformedVLQ), "err = %v", err)

	// Running out of bytes mid-quantity is a truncation.
	tr = testTrack([]byte{0xFF, 0xFF}, Options{})
	_, err = tr.varNum()
	assert.True(t, IsKind(err, ErrTruncatedStream), "err = %v", err)
}

func TestRunningStatus(t *testing.T) {
	// Two note-on events, the second without an explicit status byte.
	tr := testTrack([]byte{
		0x00, 0x90, 0x3C, 0x40,
		0x0A, 0x3E, 0x50,
	}, Options{})

	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ev.Delta)
	assert.Equal(t, MsgNoteOn, ev.Message())
	assert.Equal(t, uint8(0), ev.Channel())
	assert.Equal(t, byte(0x3C), ev.Data1)
	assert.Equal(t, byte(0x40), ev.Data2)

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), ev.Delta)
	assert.Equal(t, MsgNoteOn, ev.Message())
	assert.Equal(t, byte(0x3E), ev.Data1)
	assert.Equal(t, byte(0x50), ev.Data2)

	assert.True(t, tr.Done())
}

func TestOneDataByteMessages(t *testing.T) {
	tr := testTrack([]byte{
		0x00, 0xC5, 0x17, // program change, channel 5
		0x00, 0xD3, 0x22, // channel pressure, channel 3
	}, Options{})

	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MsgProgram, ev.Message())
	assert.Equal(t, uint8(5), ev.Channel())
	assert.Equal(t, byte(0x17), ev.Data1)

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MsgChannelPressure, ev.Message())
	assert.Equal(t, uint8(3), ev.Channel())
	assert.Equal(t, byte(0x22), ev.Data1)
}

func TestPitchBendValue(t *testing.T) {
	tests := []struct {
		lsb, msb byte
		want     int
	}{
		{0x00, 0x40, 0},     // center
		{0x00, 0x00, -8192}, // full down
		{0x7F, 0x7F, 8191},  // full up
	}
	for _, tt := range tests {
		tr := testTrack([]byte{0x00, 0xE0, tt.lsb, tt.msb}, Options{})
		ev, err := tr.Next()
		require.NoError(t, err)
		assert.Equal(t, MsgPitchBend, ev.Message())
		assert.Equal(t, tt.want, ev.PitchBendValue())
	}
}

func TestChannelEventErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind ErrorKind
	}{
		{"data byte with high bit", []byte{0x00, 0x90, 0xC0, 0x40}, ErrInvalidDataByte},
		{"second data byte with high bit", []byte{0x00, 0x90, 0x3C, 0xC0}, ErrInvalidDataByte},
		{"data byte with no running status", []byte{0x00, 0x3C, 0x40}, ErrInvalidRunningStatus},
		{"event cut short", []byte{0x00, 0x90, 0x3C}, ErrTruncatedStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testTrack(tt.data, Options{})
			_, err := tr.Next()
			assert.True(t, IsKind(err, tt.kind), "err = %v", err)
		})
	}
}

func TestMetaEvents(t *testing.T) {
	tr := testTrack([]byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // set tempo 500000
		0x00, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08, // time signature 4/4
		0x00, 0xFF, 0x59, 0x02, 0x00, 0x00, // key signature C major
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}, Options{})

	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, EventMeta, ev.Kind)
	assert.Equal(t, MetaSetTempo, ev.MetaType)
	assert.Equal(t, 500000, ev.Tempo())

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MetaTimeSignature, ev.MetaType)
	assert.Equal(t, []byte{0x04, 0x02, 0x18, 0x08}, ev.Payload)

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MetaKeySignature, ev.MetaType)

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MetaEndOfTrack, ev.MetaType)
	assert.Empty(t, ev.Payload)
	assert.True(t, tr.Done())
}

func TestMetaLengthValidation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"end of track with payload", []byte{0x00, 0xFF, 0x2F, 0x01, 0x00}},
		{"short tempo", []byte{0x00, 0xFF, 0x51, 0x02, 0x07, 0xA1}},
		{"long time signature", []byte{0x00, 0xFF, 0x58, 0x05, 1, 2, 3, 4, 5}},
		{"short key signature", []byte{0x00, 0xFF, 0x59, 0x01, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testTrack(tt.data, Options{})
			_, err := tr.Next()
			assert.True(t, IsKind(err, ErrMalformedMeta), "err = %v", err)
		})
	}
}

func TestUnknownMetaIsRecoverable(t *testing.T) {
	// Meta type 0x7E is unrecognized; the event is surfaced and decoding
	// continues.
	tr := testTrack([]byte{
		0x00, 0xFF, 0x7E, 0x02, 0xAA, 0xBB,
		0x05, 0x90, 0x3C, 0x40,
	}, Options{})

	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, EventMeta, ev.Kind)
	assert.Equal(t, byte(0x7E), ev.MetaType)
	assert.Equal(t, []byte{0xAA, 0xBB}, ev.Payload)

	ev, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MsgNoteOn, ev.Message())
	assert.Equal(t, uint32(5), ev.Delta)
}

func TestMetaPayloadCap(t *testing.T) {
	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = 'a'
	}
	data := append([]byte{0x00, 0xFF, 0x03, 40}, payload...)
	tr := testTrack(data, Options{})
	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Len(t, ev.Payload, metaTextCap)
	assert.True(t, tr.Done(), "full payload must be consumed even when capped")
}

func TestMetaTextShiftJIS(t *testing.T) {
	// "テスト" in Shift-JIS.
	sjis := []byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67}
	data := append([]byte{0x00, 0xFF, 0x03, byte(len(sjis))}, sjis...)
	tr := testTrack(data, Options{})
	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "テスト", ev.Text())
}

func TestSystemEventStrict(t *testing.T) {
	tr := testTrack([]byte{0x00, 0xF0, 0x02, 0x01, 0xF7}, Options{})
	_, err := tr.Next()
	assert.True(t, IsKind(err, ErrUnsupportedSystemEvent), "err = %v", err)
}

func TestSystemEventLenient(t *testing.T) {
	// A skipped SysEx charges its delta time to the following event.
	tr := testTrack([]byte{
		0x03, 0xF0, 0x02, 0x01, 0xF7,
		0x04, 0x90, 0x3C, 0x40,
	}, Options{Lenient: true})

	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, MsgNoteOn, ev.Message())
	assert.Equal(t, uint32(7), ev.Delta)
}

func TestReset(t *testing.T) {
	tr := testTrack([]byte{
		0x00, 0x90, 0x3C, 0x40,
		0x01, 0x3C, 0x00,
	}, Options{})
	for i := 0; i < 2; i++ {
		_, err := tr.Next()
		require.NoError(t, err)
	}
	require.True(t, tr.Done())

	tr.Reset()
	assert.False(t, tr.Done())
	ev, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, byte(0x3C), ev.Data1)
}
