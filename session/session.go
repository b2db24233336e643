// Package session orchestrates one capture-and-respond exchange: continuous
// speech capture with auto-restart, transcript accumulation with an
// auto-stop limit, translation of the transcript and of the composed reply,
// and spoken playback of the reply.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"dubashi.dev/asr"
	"dubashi.dev/transcript"
	"dubashi.dev/translate"
)

// Translator is the session-facing translation contract, satisfied by
// translate.Cascade.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (string, error)
}

// Speaker voices a string and reports completion once, satisfied by
// speech.Sequencer.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config carries the language pair and capture limits for a controller.
type Config struct {
	// SourceLang is the spoken language being captured and translated
	// from, as an ISO 639-1 code.
	SourceLang string
	// TargetLang is the language the user reads and replies in.
	TargetLang string

	Terminators   string
	SentenceLimit int
}

// Snapshot is the read-only session state a UI renders.
type Snapshot struct {
	State         State  `json:"state"`
	Committed     string `json:"committed"`
	Interim       string `json:"interim"`
	Preview       string `json:"preview"`
	Sentences     int    `json:"sentences"`
	SentenceLimit int    `json:"sentenceLimit"`
	Translation   string `json:"translation"`
	Reply         string `json:"reply"`
	Status        string `json:"status"`
}

// Controller owns the recognizer lifecycle and all session state. All
// mutation happens under its mutex; the recognizer's events are consumed by
// a single goroutine, and UI layers read snapshots and watch Updates.
type Controller struct {
	logger     *log.Logger
	rec        asr.Recognizer
	translator Translator
	speaker    Speaker
	cfg        Config

	mu           sync.Mutex
	state        State
	manualStop   bool
	reachedLimit bool
	generation   uint64
	startCtx     context.Context
	acc          *transcript.Accumulator
	translation  string
	reply        string
	status       string

	notify      chan struct{}
	consumeOnce sync.Once
}

func NewController(
	rec asr.Recognizer,
	translator Translator,
	speaker Speaker,
	cfg Config,
	logger *log.Logger,
) *Controller {
	if cfg.SourceLang == "" {
		cfg.SourceLang = "kn"
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = "en"
	}
	return &Controller{
		logger:     logger,
		rec:        rec,
		translator: translator,
		speaker:    speaker,
		cfg:        cfg,
		state:      StateIdle,
		acc:        transcript.NewAccumulator(cfg.Terminators, cfg.SentenceLimit),
		notify:     make(chan struct{}, 1),
	}
}

// Updates delivers a coalesced signal whenever session state changes.
func (c *Controller) Updates() <-chan struct{} { return c.notify }

func (c *Controller) changed() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:         c.state,
		Committed:     c.acc.Committed(),
		Interim:       c.acc.Interim(),
		Preview:       c.acc.Preview(),
		Sentences:     c.acc.Sentences(),
		SentenceLimit: c.acc.Limit(),
		Translation:   c.translation,
		Reply:         c.reply,
		Status:        c.status,
	}
}

// Start clears prior session state and begins listening. It fails without
// changing state when no recognizer is wired or the underlying start call
// fails (for example, microphone permission refused).
func (c *Controller) Start(ctx context.Context) error {
	if c.rec == nil {
		c.setStatus("speech recognition is not available")
		return asr.ErrNoRecognizer
	}

	c.mu.Lock()
	if !canStart(c.state) {
		c.mu.Unlock()
		return fmt.Errorf("already listening")
	}
	prev := c.state
	c.generation++
	c.acc.Reset()
	c.translation = ""
	c.reply = ""
	c.status = ""
	c.manualStop = false
	c.reachedLimit = false
	c.startCtx = ctx
	// Enter Listening before the recognizer starts: its first results can
	// arrive on the events channel before Start returns, and they must not
	// be dropped by the state check in handleResult.
	c.state = StateListening
	c.mu.Unlock()

	c.consumeOnce.Do(func() { go c.consume() })

	if err := c.rec.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = prev
		c.manualStop = true
		c.status = "could not start listening; check the microphone and try again"
		c.mu.Unlock()
		c.changed()
		return fmt.Errorf("failed to start recognizer: %w", err)
	}

	c.changed()
	return nil
}

// Stop ends the capture at the user's request.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return fmt.Errorf("not listening")
	}
	c.manualStop = true
	c.state = StateStopped
	c.mu.Unlock()

	c.rec.Stop()
	c.changed()
	return nil
}

// Reset returns the session to Idle from any state, discarding transcript
// and translation state. A translation still in flight when Reset runs is
// dropped when it resolves.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.manualStop = true
	c.reachedLimit = false
	c.generation++
	c.acc.Reset()
	c.translation = ""
	c.reply = ""
	c.status = ""
	c.state = StateIdle
	c.mu.Unlock()

	if c.rec != nil {
		c.rec.Stop()
	}
	c.changed()
}

// consume serializes all recognizer events onto one goroutine for the life
// of the controller.
func (c *Controller) consume() {
	for ev := range c.rec.Events() {
		switch ev.Kind {
		case asr.EventResult:
			c.handleResult(ev.Batch)
		case asr.EventError:
			c.handleError(ev.Err)
		case asr.EventEnd:
			c.handleEnd()
		}
	}
}

func (c *Controller) handleResult(batch asr.Batch) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}

	if stop := c.acc.Fold(batch); stop {
		c.reachedLimit = true
		c.state = StateLimited
		c.mu.Unlock()
		stopped := c.rec.Stop()
		c.logger.Info("sentence limit reached",
			"sentences", c.acc.Limit(), "stopped", stopped)
		c.changed()
		return
	}
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) handleError(err error) {
	c.mu.Lock()
	if c.state == StateListening {
		c.state = StateStopped
	}
	c.status = fmt.Sprintf("recognition error: %v", err)
	c.mu.Unlock()

	c.logger.Warn("recognition error", "error", err)
	c.changed()
}

// handleEnd applies the auto-restart rule: the platform recognizer tends to
// end after brief pauses, so a spontaneous end during an active capture
// resumes it. A failed restart is swallowed, since the recognizer may
// legitimately already be stopped.
func (c *Controller) handleEnd() {
	c.mu.Lock()
	restart := c.state == StateListening && !c.manualStop && !c.reachedLimit
	ctx := c.startCtx
	c.mu.Unlock()

	if !restart {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.rec.Start(ctx); err != nil {
		c.logger.Debug("auto-restart failed", "error", err)
	}
}

// TranslateTranscript translates the committed transcript into the target
// language and publishes it, unless the session was reset while the request
// was in flight.
func (c *Controller) TranslateTranscript(ctx context.Context) (string, error) {
	c.mu.Lock()
	text := c.acc.Committed()
	gen := c.generation
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		c.setStatus("nothing to translate yet")
		return "", fmt.Errorf("transcript is empty")
	}

	out, err := c.translate(ctx, translate.Request{
		Text:   text,
		Source: c.cfg.SourceLang,
		Target: c.cfg.TargetLang,
	}, gen, func(c *Controller, s string) { c.translation = s })
	return out, err
}

// TranslateReply translates the composed reply back into the spoken
// language and publishes it as the reply to speak.
func (c *Controller) TranslateReply(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		c.setStatus("type a reply first")
		return "", fmt.Errorf("reply is empty")
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	return c.translate(ctx, translate.Request{
		Text:   text,
		Source: c.cfg.TargetLang,
		Target: c.cfg.SourceLang,
	}, gen, func(c *Controller, s string) { c.reply = s })
}

// translate runs one cascade call and publishes the result through assign,
// dropping it if the session generation moved on (a Reset raced the
// request).
func (c *Controller) translate(
	ctx context.Context,
	req translate.Request,
	gen uint64,
	assign func(*Controller, string),
) (string, error) {
	if c.translator == nil {
		c.setStatus("translation failed, try again")
		return "", translate.ErrTranslationUnavailable
	}

	out, err := c.translator.Translate(ctx, req)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.logger.Debug("dropping stale translation result")
		return "", nil
	}
	if err != nil {
		c.status = "translation failed, try again"
		c.mu.Unlock()
		c.changed()
		return "", err
	}
	assign(c, out)
	c.status = ""
	c.mu.Unlock()
	c.changed()
	return out, nil
}

// SpeakReply voices the translated reply. A playback failure leaves the
// reply text in place so the user can still read or copy it.
func (c *Controller) SpeakReply(ctx context.Context) error {
	c.mu.Lock()
	text := c.reply
	c.mu.Unlock()

	if text == "" {
		c.setStatus("no reply to speak yet")
		return fmt.Errorf("reply is empty")
	}
	if c.speaker == nil {
		c.setStatus("speech synthesis is not available")
		return fmt.Errorf("no speaker wired")
	}

	if err := c.speaker.Speak(ctx, text); err != nil {
		c.setStatus("could not speak the reply; the text is still shown")
		return err
	}
	return nil
}

func (c *Controller) setStatus(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.changed()
}
