package console

import (
	"encoding/binary"
	"math"
)

// DefaultNoiseGateThreshold is the RMS level of 16-bit samples below which a
// frame counts as background noise.
const DefaultNoiseGateThreshold = 500

// NoiseGate silences linear16 frames whose RMS level stays under Threshold.
// Silenced frames keep their length so recognition timing is unchanged.
type NoiseGate struct {
	Threshold float64
}

func NewNoiseGate() NoiseGate {
	return NoiseGate{Threshold: DefaultNoiseGateThreshold}
}

func (g NoiseGate) Process(frame []byte) []byte {
	if g.Threshold <= 0 || rms(frame) >= g.Threshold {
		return frame
	}
	return make([]byte, len(frame))
}

func rms(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(frame[2*i:])))
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(samples))
}
