package asr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	DefaultStreamURL = "wss://api.deepgram.com/v1/listen"

	writeWait     = 10 * time.Second
	audioChunkLen = 4096
)

// StreamOptions configures a live recognition stream.
type StreamOptions struct {
	URL        string
	APIKey     string
	Language   string
	Encoding   string
	SampleRate int

	// Audio is the capture source pumped to the socket. A nil Audio means
	// the server pushes results on its own (useful for tests).
	Audio io.Reader
}

// Stream is a Recognizer backed by a streaming recognition websocket. It is
// configured for continuous capture with interim results and keeps the full
// result history across restarts, so batch resume indexes stay monotonic for
// the life of the stream.
type Stream struct {
	opts   StreamOptions
	logger *log.Logger

	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	running bool

	history []Result
	interim string
}

func NewStream(opts StreamOptions, logger *log.Logger) *Stream {
	if opts.URL == "" {
		opts.URL = DefaultStreamURL
	}
	if opts.Language == "" {
		opts.Language = "kn-IN"
	}
	return &Stream{
		opts:   opts,
		logger: logger,
		events: make(chan Event, 32),
	}
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

// Start dials the recognition endpoint and begins the read and audio pumps.
// It may be called again after the stream ends to resume capture.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("recognition stream already started")
	}

	endpoint, err := s.endpoint()
	if err != nil {
		return fmt.Errorf("bad recognition endpoint: %w", err)
	}

	header := http.Header{}
	if s.opts.APIKey != "" {
		header.Set("Authorization", "Token "+s.opts.APIKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("failed to connect recognition stream: %w", err)
	}

	s.conn = conn
	s.running = true

	go s.readPump(conn)
	if s.opts.Audio != nil {
		go s.writePump(conn)
	}

	return nil
}

// Stop requests the end of capture. It reports false when the stream was
// already stopped.
func (s *Stream) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.running = false

	deadline := time.Now().Add(writeWait)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = s.conn.Close()
	return true
}

func (s *Stream) endpoint() (string, error) {
	u, err := url.Parse(s.opts.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("language", s.opts.Language)
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	if s.opts.Encoding != "" {
		q.Set("encoding", s.opts.Encoding)
	}
	if s.opts.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(s.opts.SampleRate))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type streamMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Description string `json:"description"`
}

func (s *Stream) readPump(conn *websocket.Conn) {
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			s.ended(conn)
			return
		}

		switch msg.Type {
		case "Error":
			s.events <- Event{Kind: EventError, Err: fmt.Errorf("recognition: %s", msg.Description)}
		default:
			s.result(msg)
		}
	}
}

// result converts one wire message into a batch event. An interim transcript
// occupies the position just past the finalized history and is replaced in
// place when a final transcript for the same stretch of speech arrives, so
// the batch's resume index always points at the first revised position.
func (s *Stream) result(msg streamMessage) {
	if len(msg.Channel.Alternatives) == 0 {
		return
	}
	text := strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	if text == "" {
		return
	}

	s.mu.Lock()
	resume := len(s.history)
	if msg.IsFinal {
		s.history = append(s.history, Result{Text: text, Final: true})
		s.interim = ""
	} else {
		s.interim = text
	}

	results := make([]Result, len(s.history), len(s.history)+1)
	copy(results, s.history)
	if s.interim != "" {
		results = append(results, Result{Text: s.interim})
	}
	s.mu.Unlock()

	s.logger.Debug("hear", "txt", text, "final", msg.IsFinal)
	s.events <- Event{Kind: EventResult, Batch: Batch{Results: results, ResumeIndex: resume}}
}

// ended fires the end event for a connection exactly once, whether the
// server closed the socket or Stop did.
func (s *Stream) ended(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.running = false
		s.interim = ""
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.events <- Event{Kind: EventEnd}
}

func (s *Stream) writePump(conn *websocket.Conn) {
	buf := make([]byte, audioChunkLen)
	for {
		n, err := s.opts.Audio.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Error("audio read failed", "error", err)
			}
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}
