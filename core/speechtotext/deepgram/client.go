package deepgram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-polyglot/core/speechtotext"
)

const (
	defaultEndpoint = "wss://api.deepgram.com/v1/listen"
	// defaultLanguage enables streaming code switching, results then carry
	// the detected languages.
	defaultLanguage = "multi"
)

var ErrMissingAPIKey = errors.New("deepgram: api key required")

// TranscriptionClient streams audio to Deepgram and reports finalized
// results together with the detected language.
type TranscriptionClient struct {
	apiKey   string
	model    string
	language string
	endpoint string
	dialer   *websocket.Dialer

	conn      *websocket.Conn
	connMu    sync.Mutex
	lastMsgTs time.Time

	subscribersMu    sync.RWMutex
	subscribers      map[int]func(speechtotext.FinalResult)
	nextSubscriberID int

	accumulatedTranscript string
	unendedSegment        bool
}

type ClientOption func(*TranscriptionClient)

// WithLanguage overrides the requested language, e.g. "hi" to disable code
// switching.
func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) { c.language = language }
}

// WithEndpoint overrides the listen websocket endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *TranscriptionClient) { c.endpoint = endpoint }
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *TranscriptionClient) { c.dialer = dialer }
}

func NewTranscriptionClient(apiKey, model string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		return nil, fmt.Errorf("deepgram: model required")
	}

	client := &TranscriptionClient{
		apiKey:      apiKey,
		model:       model,
		language:    defaultLanguage,
		endpoint:    defaultEndpoint,
		dialer:      websocket.DefaultDialer,
		subscribers: map[int]func(speechtotext.FinalResult){},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (s *TranscriptionClient) Model() string { return s.model }

// OnFinalResult registers callback for every finalized result. Results are
// delivered sequentially from the connection's read loop. The returned
// function removes the callback and is safe to call more than once.
func (s *TranscriptionClient) OnFinalResult(callback func(speechtotext.FinalResult)) (unsubscribe func()) {
	s.subscribersMu.Lock()
	defer s.subscribersMu.Unlock()

	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subscribers[id] = callback

	return func() {
		s.subscribersMu.Lock()
		defer s.subscribersMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *TranscriptionClient) publishFinalResult(result speechtotext.FinalResult) {
	s.subscribersMu.RLock()
	callbacks := make([]func(speechtotext.FinalResult), 0, len(s.subscribers))
	for _, callback := range s.subscribers {
		callbacks = append(callbacks, callback)
	}
	s.subscribersMu.RUnlock()

	for _, callback := range callbacks {
		callback(result)
	}
}

func (s *TranscriptionClient) Close(_ context.Context) error {
	if err := s.StopStream(); err != nil {
		return err
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close deepgram connection: %w", err)
	}
	return nil
}
