// Package miniaudio captures microphone audio and plays speech through the
// default devices using miniaudio.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-polyglot/core/audio"
)

// DefaultPlaybackSampleRate matches the 24kHz PCM produced by the generation
// and synthesis engines.
const DefaultPlaybackSampleRate = 24000

type Option func(*Client)

func WithCaptureSampleRate(sampleRate int) Option {
	return func(c *Client) { c.captureClient.sampleRate = uint32(sampleRate) }
}

func WithPlaybackSampleRate(sampleRate int) Option {
	return func(c *Client) { c.playbackClient.sampleRate = uint32(sampleRate) }
}

type Client struct {
	// audioContext is only kept to uninitialize it
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient(opts ...Option) (*Client, error) {
	client := &Client{
		playbackClient: playbackClient{sampleRate: DefaultPlaybackSampleRate},
		captureClient:  captureClient{sampleRate: audio.DefaultSampleRate},
	}
	for _, opt := range opts {
		opt(client)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	client.audioContext = audioCtx

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return client, nil
}

// Stream starts capturing and hands every captured frame to onAudio.
func (c *Client) Stream(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) Close() error {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		if err := c.audioContext.Uninit(); err != nil {
			return fmt.Errorf("failed to uninitialize audio context: %w", err)
		}
		c.audioContext.Free()
		c.audioContext = nil
	}
	return nil
}

// EncodingInfo describes captured audio.
func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: int(c.captureClient.sampleRate), Format: audio.EncodingLinear16}
}

// PlaybackEncodingInfo describes the audio SendAudio expects.
func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: int(c.playbackClient.sampleRate), Format: audio.EncodingLinear16}
}
