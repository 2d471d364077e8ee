package seq

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mras0/splay/pkg/smf"
)

func emptyFileBytes(division uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, division)
	track := []byte{0x00, 0xFF, 0x2F, 0x00}
	buf.WriteString("MTrk")
	binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)
	return buf.Bytes()
}

// The tick count must track wall-clock time to within one tick quantum no
// matter how the elapsed time is sliced into advance calls.
func TestClockDriftProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("tick count stays within one quantum of elapsed time", prop.ForAll(
		func(deltas []float64) bool {
			f, err := smf.Load(bytes.NewReader(emptyFileBytes(96)), smf.Options{})
			if err != nil {
				return false
			}
			s, err := New(f, nil)
			if err != nil {
				return false
			}
			var elapsed float64
			for _, d := range deltas {
				if err := s.Advance(d); err != nil {
					return false
				}
				elapsed += d
			}
			quantum := float64(s.Tempo().MicrosPerTick())
			drift := float64(s.CurrentTick())*quantum - elapsed*1e6
			// The clock fires a tick the moment its deadline passes, so it
			// leads real time by at most one quantum (plus float noise).
			return drift > -1 && drift <= quantum+1
		},
		gen.SliceOf(gen.Float64Range(0.0001, 0.05)).SuchThat(func(ds []float64) bool {
			return len(ds) > 0
		}),
	))

	properties.Property("quarter notes map to division ticks at fixed tempo", prop.ForAll(
		func(quarters int) bool {
			// Division 100 divides the default tempo exactly, so N quarter
			// notes of wall time must land within one tick of N*100.
			f, err := smf.Load(bytes.NewReader(emptyFileBytes(100)), smf.Options{})
			if err != nil {
				return false
			}
			s, err := New(f, nil)
			if err != nil {
				return false
			}
			seconds := float64(quarters) * 0.5
			const step = 0.005
			steps := int(math.Round(seconds / step))
			for i := 0; i < steps; i++ {
				if err := s.Advance(step); err != nil {
					return false
				}
			}
			want := int64(quarters) * 100
			diff := s.CurrentTick() - want
			return diff >= -1 && diff <= 1
		},
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}
