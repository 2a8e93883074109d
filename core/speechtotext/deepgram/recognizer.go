package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/sunday/core/audio"
	"github.com/koscakluka/sunday/core/speechtotext"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"

	// closeGracePeriod bounds how long a stopped attempt waits for the server
	// to flush its last results and close the socket.
	closeGracePeriod = 3 * time.Second
)

// AudioSource feeds microphone audio into a recognition attempt.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// Recognizer runs single-utterance recognition attempts against the Deepgram
// streaming listen endpoint. Each attempt owns one websocket and ends after
// its first finalized utterance, after Stop, or on error.
type Recognizer struct {
	source    AudioSource
	apiKey    string
	model     string
	listenURL string
	dialer    *websocket.Dialer

	mu     sync.Mutex
	active *attempt
}

type RecognizerOption func(*Recognizer)

func WithAPIKey(apiKey string) RecognizerOption {
	return func(r *Recognizer) { r.apiKey = apiKey }
}

func WithModel(model string) RecognizerOption {
	return func(r *Recognizer) { r.model = model }
}

func WithListenURL(listenURL string) RecognizerOption {
	return func(r *Recognizer) { r.listenURL = listenURL }
}

func WithDialer(dialer *websocket.Dialer) RecognizerOption {
	return func(r *Recognizer) { r.dialer = dialer }
}

// NewRecognizer creates a recognizer reading audio from source. The API key
// defaults to DEEPGRAM_API_KEY.
func NewRecognizer(source AudioSource, opts ...RecognizerOption) (*Recognizer, error) {
	if source == nil {
		return nil, fmt.Errorf("audio source is required")
	}

	r := &Recognizer{
		source:    source,
		apiKey:    os.Getenv("DEEPGRAM_API_KEY"),
		model:     defaultModel,
		listenURL: defaultListenURL,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	return r, nil
}

// Transcribe starts a new attempt and returns without waiting for the
// connection. Dial failures are reported through the attempt's failed
// callback. It returns speechtotext.ErrAttemptActive while the previous
// attempt has not terminated.
func (r *Recognizer) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.NewTranscriptionOptions(opts...)

	encoding, err := convertEncoding(r.source.EncodingInfo())
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	a := newAttempt(r, options)
	a.cancel = cancel

	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		cancel()
		return speechtotext.ErrAttemptActive
	}
	r.active = a
	r.mu.Unlock()

	go a.run(attemptCtx, connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),
		language:   options.Language,
	})

	return nil
}

// Stop asks the active attempt to finish. Results already spoken are still
// delivered before the attempt ends.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	a := r.active
	r.mu.Unlock()

	if a == nil {
		return nil
	}

	return a.requestClose()
}

// Close aborts any active attempt without waiting for pending results.
func (r *Recognizer) Close() {
	r.mu.Lock()
	a := r.active
	r.mu.Unlock()

	if a != nil {
		a.abort(speechtotext.ErrorCodeAborted)
	}
}

func (r *Recognizer) release(a *attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == a {
		r.active = nil
	}
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	language   string
}

func (r *Recognizer) connect(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", r.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}
