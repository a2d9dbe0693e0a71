// Package portaudio captures and plays audio on the default devices using
// PortAudio blocking streams.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-polyglot/core/audio"
)

const DefaultPlaybackSampleRate = 24000

type Client struct {
	framesPerBuffer int
	input           *portaudio.Stream
	output          *portaudio.Stream
	in              []int16
	out             []int16

	playback pcmQueue

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
	streamMu sync.Mutex
	started  bool
}

// NewClient opens a 16kHz capture stream and a 24kHz playback stream with
// framesPerBuffer frames per read and write.
func NewClient(framesPerBuffer int) (*Client, error) {
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("portaudio: frames per buffer must be positive")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c := &Client{
		framesPerBuffer: framesPerBuffer,
		in:              make([]int16, framesPerBuffer),
		out:             make([]int16, framesPerBuffer),
	}

	var err error
	if c.input, err = portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, framesPerBuffer, c.in); err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	if c.output, err = portaudio.OpenDefaultStream(0, 1, DefaultPlaybackSampleRate, framesPerBuffer, c.out); err != nil {
		c.input.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if err := c.output.Start(); err != nil {
		cancel()
		c.input.Close()
		c.output.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start playback stream: %w", err)
	}
	c.wg.Add(1)
	go c.play(ctx)

	return c, nil
}

// Stream starts capturing in the background and hands every buffer to
// onAudio until ctx is done or the client is closed.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if c.started {
		return nil
	}
	if err := c.input.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}
	c.started = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.input.Read(); err != nil {
				if c.isClosed() {
					return
				}
				logger.Warn("failed to read from capture stream", "error", err)
				continue
			}
			onAudio(int16ToPCM(c.in))
		}
	}()
	return nil
}

func (c *Client) play(ctx context.Context) {
	defer c.wg.Done()
	frame := make([]byte, c.framesPerBuffer*2)
	for {
		if !c.playback.next(ctx, frame) {
			return
		}
		pcmToInt16(frame, c.out)
		if err := c.output.Write(); err != nil && !c.isClosed() {
			logger.Warn("failed to write to playback stream", "error", err)
		}
	}
}

// SendAudio queues 16-bit mono PCM at 24kHz for playback.
func (c *Client) SendAudio(audio []byte) error {
	if c.isClosed() {
		return fmt.Errorf("portaudio client closed")
	}
	c.playback.write(audio)
	return nil
}

func (c *Client) ClearBuffer() {
	c.playback.clear()
}

func (c *Client) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

func (c *Client) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	c.cancel()
	c.playback.clear()
	_ = c.input.Stop()
	_ = c.output.Stop()
	c.wg.Wait()

	_ = c.input.Close()
	_ = c.output.Close()
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate portaudio: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: DefaultPlaybackSampleRate, Format: audio.EncodingLinear16}
}

func int16ToPCM(samples []int16) []byte {
	buffer := bytes.Buffer{}
	buffer.Grow(len(samples) * 2)
	_ = binary.Write(&buffer, binary.LittleEndian, samples)
	return buffer.Bytes()
}

func pcmToInt16(pcm []byte, samples []int16) {
	for i := range samples {
		if 2*i+1 >= len(pcm) {
			samples[i] = 0
			continue
		}
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
}
