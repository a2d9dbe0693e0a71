package console

import (
	"encoding/binary"
	"testing"
)

func linear16(samples ...int16) []byte {
	frame := make([]byte, 2*len(samples))
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(frame[2*i:], uint16(sample))
	}
	return frame
}

func TestNoiseGateSilencesQuietFrames(t *testing.T) {
	gate := NewNoiseGate()
	frame := linear16(10, -20, 30, -40)

	out := gate.Process(frame)
	if len(out) != len(frame) {
		t.Fatalf("expected frame length %d, got %d", len(frame), len(out))
	}
	for _, b := range out {
		if b != 0 {
			t.Fatalf("expected silence, got %v", out)
		}
	}
}

func TestNoiseGatePassesSpeech(t *testing.T) {
	gate := NewNoiseGate()
	frame := linear16(4000, -3000, 5000, -6000)

	out := gate.Process(frame)
	if string(out) != string(frame) {
		t.Fatalf("expected frame to pass through")
	}
}

func TestNoiseGateWithoutThresholdPassesEverything(t *testing.T) {
	frame := linear16(1, 1)
	if out := (NoiseGate{}).Process(frame); string(out) != string(frame) {
		t.Fatalf("expected frame to pass through")
	}
}
