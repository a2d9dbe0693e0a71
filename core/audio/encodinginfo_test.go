package audio

import (
	"testing"
	"time"
)

func TestBytesForLinear16(t *testing.T) {
	info := GetDefaultEncodingInfo()

	if got := info.BytesFor(100 * time.Millisecond); got != 3200 {
		t.Fatalf("expected 100ms of 16kHz linear16 to take 3200 bytes, got %d", got)
	}
}

func TestByteSize(t *testing.T) {
	testCases := []struct {
		format   Format
		expected int
	}{
		{format: EncodingLinear16, expected: 2},
		{format: EncodingMulaw, expected: 1},
		{format: EncodingALaw, expected: 1},
		{format: Format("opus"), expected: -1},
	}

	for _, testCase := range testCases {
		if got := testCase.format.ByteSize(); got != testCase.expected {
			t.Fatalf("expected %s sample size %d, got %d", testCase.format, testCase.expected, got)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(EncodingInfo{}).IsZero() {
		t.Fatalf("expected empty encoding info to be zero")
	}
	if GetDefaultEncodingInfo().IsZero() {
		t.Fatalf("expected default encoding info not to be zero")
	}
}
