package deepgram

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/sunday/core/speechtotext"
)

// attempt is one websocket session of a Recognizer. Exactly one of the
// AttemptEnded or AttemptFailed callbacks is invoked, from finish.
type attempt struct {
	recognizer *Recognizer
	options    speechtotext.TranscriptionOptions

	conn   *websocket.Conn
	connMu sync.Mutex

	cancel       context.CancelFunc
	stopOnCancel func() bool

	mu            sync.Mutex
	segments      []string
	delivered     bool
	stopping      bool
	failCode      string
	noSpeechTimer *time.Timer

	finished sync.Once
}

func newAttempt(recognizer *Recognizer, options speechtotext.TranscriptionOptions) *attempt {
	return &attempt{recognizer: recognizer, options: options}
}

func (a *attempt) run(ctx context.Context, connOptions connectionOptions) {
	a.stopOnCancel = context.AfterFunc(ctx, func() { a.abort(speechtotext.ErrorCodeAborted) })

	conn, err := a.recognizer.connect(ctx, connOptions)
	if err != nil {
		logger.Warn("failed to open deepgram websocket", "error", err)
		a.finish(a.dialFailureCode())
		return
	}
	if code, done := a.attach(conn); done {
		a.finish(code)
		return
	}

	// Capture starts before the attempt is reported so that finish, which
	// stops capture, can never run ahead of it.
	if err := a.recognizer.source.StartCapture(ctx, a.sendAudio); err != nil {
		logger.Error("failed to start audio capture", "error", err)
		a.finish(speechtotext.ErrorCodeAudioCapture)
		return
	}

	a.options.AttemptStartedCallback()
	a.armNoSpeechTimer()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			a.finish(a.terminalCode(err))
			return
		}
		if msgType == websocket.TextMessage {
			a.processMessage(msg)
		}
	}
}

// attach installs the dialed connection. It reports done when the attempt
// was aborted or stopped while dialing, with the code to finish with.
func (a *attempt) attach(conn *websocket.Conn) (string, bool) {
	a.connMu.Lock()
	a.conn = conn
	a.connMu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.failCode != "":
		return a.failCode, true
	case a.stopping:
		return "", true
	}
	return "", false
}

func (a *attempt) dialFailureCode() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.failCode != "":
		return a.failCode
	case a.stopping:
		return ""
	}
	return speechtotext.ErrorCodeNetwork
}

func (a *attempt) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return
		}
		if !msgResp.IsFinal {
			return
		}
		if len(msgResp.Channel.Alternatives) > 0 {
			if transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); transcript != "" {
				a.appendSegment(transcript)
			}
		}
		if msgResp.SpeechFinal {
			a.deliver()
		}

	case api.TypeUtteranceEndResponse:
		a.deliver()

	case api.TypeSpeechStartedResponse:
		a.disarmNoSpeechTimer()
	}
}

func (a *attempt) appendSegment(segment string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments = append(a.segments, segment)
	if a.noSpeechTimer != nil {
		a.noSpeechTimer.Stop()
	}
}

// deliver reports the accumulated utterance once and then closes the
// attempt, so each attempt yields at most one result.
func (a *attempt) deliver() {
	a.mu.Lock()
	transcript := strings.Join(a.segments, " ")
	a.segments = nil
	if transcript == "" || a.delivered {
		a.mu.Unlock()
		return
	}
	a.delivered = true
	a.mu.Unlock()

	a.options.TranscriptionCallback(transcript)
	if err := a.requestClose(); err != nil {
		logger.Warn("failed to close deepgram stream after result", "error", err)
	}
}

func (a *attempt) requestClose() error {
	a.mu.Lock()
	if a.stopping {
		a.mu.Unlock()
		return nil
	}
	a.stopping = true
	a.mu.Unlock()

	time.AfterFunc(closeGracePeriod, a.closeConn)

	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn == nil {
		return nil
	}

	return a.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)})
}

func (a *attempt) abort(code string) {
	a.mu.Lock()
	if a.failCode == "" {
		a.failCode = code
	}
	a.mu.Unlock()

	a.closeConn()
	// Unblocks a dial that has not produced a connection yet.
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *attempt) closeConn() {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

func (a *attempt) terminalCode(err error) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failCode != "" {
		return a.failCode
	}
	if a.stopping || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return ""
	}

	logger.Warn("deepgram websocket closed unexpectedly", "error", err)
	return speechtotext.ErrorCodeNetwork
}

// finish releases the attempt and reports its terminal callback. An empty
// code means the attempt ended normally; any transcript still pending is
// delivered first.
func (a *attempt) finish(code string) {
	a.finished.Do(func() {
		a.mu.Lock()
		if a.noSpeechTimer != nil {
			a.noSpeechTimer.Stop()
		}
		pending := strings.Join(a.segments, " ")
		a.segments = nil
		delivered := a.delivered
		a.delivered = a.delivered || pending != ""
		a.mu.Unlock()

		if code == "" && pending != "" && !delivered {
			a.options.TranscriptionCallback(pending)
		}

		if err := a.recognizer.source.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
		a.closeConn()
		if a.stopOnCancel != nil {
			a.stopOnCancel()
		}
		if a.cancel != nil {
			a.cancel()
		}
		a.recognizer.release(a)

		if code == "" {
			a.options.AttemptEndedCallback()
		} else {
			a.options.AttemptFailedCallback(code)
		}
	})
}

func (a *attempt) sendAudio(audio []byte) {
	a.mu.Lock()
	stopping := a.stopping
	a.mu.Unlock()
	if stopping {
		return
	}

	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn == nil {
		return
	}
	if err := a.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Debug("failed to write audio to deepgram", "error", err)
	}
}

func (a *attempt) armNoSpeechTimer() {
	if a.options.NoSpeechTimeout <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.noSpeechTimer = time.AfterFunc(a.options.NoSpeechTimeout, func() {
		a.abort(speechtotext.ErrorCodeNoSpeech)
	})
}

func (a *attempt) disarmNoSpeechTimer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.noSpeechTimer != nil {
		a.noSpeechTimer.Stop()
	}
}
