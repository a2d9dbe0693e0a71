// Package audio describes the raw audio flowing between the local media
// devices and the speech engines.
package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = EncodingLinear16
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: DefaultFormat}
}

// EncodingInfo describes mono audio at a sample rate in a sample format.
type EncodingInfo struct {
	SampleRate int
	Format     Format
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// BytesFor returns the number of bytes holding d worth of audio.
func (e EncodingInfo) BytesFor(d time.Duration) int {
	return int(int64(e.SampleRate) * int64(e.Format.ByteSize()) * d.Milliseconds() / 1000)
}

// Format is a sample format as named by the speech APIs.
type Format string

func (f Format) Name() string {
	return string(f)
}

// ByteSize returns the size of one sample, -1 for unknown formats.
func (f Format) ByteSize() int {
	switch f {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    Format = "mulaw"
	EncodingALaw     Format = "alaw"
	EncodingLinear16 Format = "linear16"
)
