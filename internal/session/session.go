// Package session runs one interview practice session: greeting, questions,
// answer evaluation and interviewer responses.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/feedback"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/logging"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/speech"
	"github.com/rbright/rehearse/internal/transcript"
)

// ErrBlankAnswer rejects an answer with no text.
var ErrBlankAnswer = errors.New("answer is empty")

// Result is the complete outcome returned by one Run invocation.
type Result struct {
	State      fsm.State
	Mode       Mode
	Entries    []transcript.Entry
	Feedback   *feedback.Result
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Status is the snapshot served to the status command.
type Status struct {
	State          fsm.State         `json:"state"`
	Mode           Mode              `json:"mode"`
	Category       question.Category `json:"category"`
	QuestionIndex  int               `json:"question_index"`
	Question       string            `json:"question,omitempty"`
	QuestionDetail string            `json:"question_detail,omitempty"`
	Speaking       bool              `json:"speaking"`
	Listening      bool              `json:"listening"`
	Preview        string            `json:"preview,omitempty"`
	Entries        int               `json:"entries"`
}

// Timing holds the session delays.
type Timing struct {
	GreetingDelay time.Duration
	ResponseDelay time.Duration
	// ChainOnPlayback asks the first question as soon as the greeting
	// finishes playing, when that happens before GreetingDelay.
	ChainOnPlayback bool
}

// Deps are the collaborators a Controller drives. Nil fields get
// safe fallbacks.
type Deps struct {
	Logger     *slog.Logger
	Synth      speech.Synthesizer
	Recognizer speech.Recognizer
	Media      media.Capability
	Scheduler  Scheduler
	Now        func() time.Time
}

// pusher is implemented by recognizers that accept results over IPC.
type pusher interface {
	Push(speech.Result) error
}

// Controller owns the session state. Every transition runs on the Run
// goroutine; Handle only enqueues commands or reads snapshots.
type Controller struct {
	logger     *slog.Logger
	synth      speech.Synthesizer
	recognizer speech.Recognizer
	capture    media.Capability
	sched      Scheduler
	now        func() time.Time
	timing     Timing
	voice      speech.Options

	inbox   *mailbox
	stopped chan struct{}
	log     *transcript.Log

	mu       sync.RWMutex
	state    fsm.State
	plan     Plan
	index    int
	current  question.Question
	feedback *feedback.Result
	speaking bool
	preview  string

	// Owned by the Run goroutine.
	gen         uint64
	utterance   string
	greetingID  string
	response    string
	timers      []Timer
	handle      *media.Handle
	assembler   transcript.Assembler
	synthWarned bool
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(deps Deps, timing Timing, voice speech.Options) *Controller {
	if deps.Synth == nil {
		deps.Synth = speech.Unsupported{}
	}
	if deps.Recognizer == nil {
		deps.Recognizer = speech.NewPushRecognizer()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = realScheduler{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Controller{
		logger:     logging.OrDiscard(deps.Logger),
		synth:      deps.Synth,
		recognizer: deps.Recognizer,
		capture:    deps.Media,
		sched:      deps.Scheduler,
		now:        deps.Now,
		timing:     timing,
		voice:      voice,
		inbox:      newMailbox(),
		stopped:    make(chan struct{}),
		log:        transcript.NewLog(deps.Now),
		state:      fsm.StateIdle,
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status returns a point-in-time view of the session.
func (c *Controller) Status() Status {
	c.mu.RLock()
	status := Status{
		State:         c.state,
		Mode:          c.plan.Mode,
		Category:      c.plan.Category,
		QuestionIndex: c.index,
		Speaking:      c.speaking,
		Preview:       c.preview,
	}
	if fsm.Active(c.state) && c.current.ID != "" {
		status.Question = c.current.Text
		status.QuestionDetail = question.Describe(c.current)
	}
	c.mu.RUnlock()

	status.Listening = c.recognizer.Listening()
	status.Entries = c.log.Len()
	return status
}

// Transcript returns the ordered log snapshot.
func (c *Controller) Transcript() []transcript.Entry {
	return c.log.Entries()
}

// Feedback returns the current feedback, or nil before the first answer and
// after next.
func (c *Controller) Feedback() *feedback.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.feedback == nil {
		return nil
	}
	out := *c.feedback
	out.Suggestions = append([]string(nil), c.feedback.Suggestions...)
	return &out
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run starts a session from plan and processes events until the session is
// ended explicitly or ctx is cancelled. Run must be called once.
func (c *Controller) Run(ctx context.Context, plan Plan) Result {
	result := Result{StartedAt: c.now(), Mode: plan.Mode}
	defer close(c.stopped)

	c.synth.Notify(func(ev speech.PlaybackEvent) {
		c.inbox.put(playbackEvent{event: ev})
	})
	defer c.synth.Notify(nil)
	defer c.teardown()

	if err := c.start(ctx, plan); err != nil {
		result.Err = err
		return c.finish(result)
	}

	for {
		select {
		case <-ctx.Done():
			c.conclude()
			result.Err = ctx.Err()
			return c.finish(result)
		case <-c.inbox.ready:
			for _, ev := range c.inbox.drain() {
				if c.dispatch(ctx, ev) {
					return c.finish(result)
				}
			}
		}
	}
}

func (c *Controller) finish(result Result) Result {
	result.State = c.State()
	result.Entries = c.log.Entries()
	result.Feedback = c.Feedback()
	result.FinishedAt = c.now()
	return result
}

// dispatch applies one event. It reports true when the owner should exit.
func (c *Controller) dispatch(ctx context.Context, ev any) bool {
	switch ev := ev.(type) {
	case timerEvent:
		c.onTimer(ctx, ev)
	case recognizedEvent:
		c.onRecognized(ev)
	case playbackEvent:
		c.onPlayback(ctx, ev.event)
	case commandEvent:
		resp, exit := c.onCommand(ctx, ev.req)
		ev.reply <- resp
		return exit
	default:
		c.logger.Error("unknown session event", "type", fmt.Sprintf("%T", ev))
	}
	return false
}

// start resets every piece of session state and greets the subject.
func (c *Controller) start(ctx context.Context, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	first, _ := plan.Supplier.Question(0)

	c.cancelPending()
	c.log.Reset()
	c.assembler.Flush()
	c.response = ""

	if err := c.transition(fsm.EventStart); err != nil {
		return err
	}

	c.mu.Lock()
	c.plan = plan
	c.index = 0
	c.current = first
	c.feedback = nil
	c.preview = ""
	c.mu.Unlock()

	if err := c.acquireMedia(ctx); err != nil {
		_ = c.transition(fsm.EventEnd)
		return err
	}

	c.logger.Info("session started",
		"mode", string(plan.Mode),
		"category", string(plan.Category),
		"gen", c.gen,
	)

	c.greetingID = c.say(ctx, plan.greeting())
	c.schedule(c.timing.GreetingDelay, timerGreeting)
	return nil
}

func (c *Controller) acquireMedia(ctx context.Context) error {
	if c.capture == nil || c.handle != nil {
		return nil
	}
	handle, err := c.capture.Acquire(ctx, media.Constraints{Audio: true})
	switch {
	case err == nil:
		c.handle = handle
		return nil
	case errors.Is(err, media.ErrUnsupported):
		c.logger.Warn("microphone unavailable; continuing without capture", "error", err.Error())
		return nil
	default:
		return fmt.Errorf("acquire microphone: %w", err)
	}
}

func (c *Controller) onTimer(ctx context.Context, ev timerEvent) {
	if ev.gen != c.gen {
		c.logger.Debug("stale timer dropped", "gen", ev.gen, "current_gen", c.gen)
		return
	}
	switch ev.kind {
	case timerGreeting:
		c.askFirst(ctx)
	case timerResponse:
		c.respond(ctx)
	}
}

func (c *Controller) askFirst(ctx context.Context) {
	if c.State() != fsm.StateGreeting {
		return
	}
	c.mu.RLock()
	q := c.current
	c.mu.RUnlock()

	c.say(ctx, q.Text)
	// Results pushed from here on queue behind this event.
	c.listen(ctx)
	if err := c.transition(fsm.EventAsked); err != nil {
		c.logger.Error("ask first question", "error", err.Error())
	}
}

func (c *Controller) respond(ctx context.Context) {
	if c.State() != fsm.StateEvaluating {
		return
	}
	c.say(ctx, c.response)
	c.response = ""
	c.listen(ctx)
	if err := c.transition(fsm.EventResponded); err != nil {
		c.logger.Error("respond", "error", err.Error())
	}
}

func (c *Controller) onRecognized(ev recognizedEvent) {
	if ev.gen != c.gen || c.State() != fsm.StateAwaitingAnswer {
		c.logger.Debug("recognition result dropped", "state", string(c.State()))
		return
	}

	c.assembler.Add(transcript.Segment{Text: ev.result.Text, Final: ev.result.Final})
	if !ev.result.Final {
		c.mu.Lock()
		c.preview = c.assembler.Preview()
		c.mu.Unlock()
		return
	}

	answer := c.assembler.Flush()
	c.mu.Lock()
	c.preview = ""
	c.mu.Unlock()
	if answer == "" {
		return
	}
	c.evaluate(answer)
}

func (c *Controller) evaluate(answer string) {
	if err := c.transition(fsm.EventAnswered); err != nil {
		c.logger.Error("accept answer", "error", err.Error())
		return
	}
	c.recognizer.StopListening()

	c.mu.RLock()
	q := c.current
	c.mu.RUnlock()

	result := feedback.Evaluate(answer, q)
	note := ""
	if result.Correction != nil {
		note = *result.Correction
	}
	c.log.Append(transcript.SpeakerSubject, answer, note)

	c.mu.Lock()
	c.feedback = &result
	c.mu.Unlock()

	c.response = feedback.InterviewerResponse(answer, q, result)
	c.logger.Info("answer evaluated",
		"question", q.ID,
		"words", result.WordCount,
		"corrected", result.Correction != nil,
	)
	c.schedule(c.timing.ResponseDelay, timerResponse)
}

func (c *Controller) onPlayback(ctx context.Context, ev speech.PlaybackEvent) {
	if ev.UtteranceID != c.utterance {
		return
	}

	c.mu.Lock()
	c.speaking = ev.Kind == speech.PlaybackStarted
	c.mu.Unlock()

	if ev.Kind == speech.PlaybackFailed && !errors.Is(ev.Err, speech.ErrInterrupted) {
		c.logger.Warn("playback failed", "utterance", ev.UtteranceID, "error", errString(ev.Err))
	}
	if c.timing.ChainOnPlayback && ev.Kind != speech.PlaybackStarted && ev.UtteranceID == c.greetingID {
		c.askFirst(ctx)
	}
}

func (c *Controller) onCommand(ctx context.Context, req ipc.Request) (ipc.Response, bool) {
	switch req.Command {
	case "next":
		return c.next(ctx), false
	case "hint":
		return c.assist(ctx, "hint"), false
	case "sample":
		return c.assist(ctx, "sample answer"), false
	case "restart":
		c.mu.RLock()
		plan := c.plan
		c.mu.RUnlock()
		if fsm.Active(c.State()) {
			c.conclude()
		}
		if err := c.start(ctx, plan); err != nil {
			return c.fail(err.Error()), false
		}
		return c.ok("session restarted"), false
	case "end":
		c.conclude()
		return c.ok("session ended"), true
	default:
		return c.fail(fmt.Sprintf("unknown command: %s", req.Command)), false
	}
}

func (c *Controller) next(ctx context.Context) ipc.Response {
	state := c.State()
	if state != fsm.StateAwaitingAnswer {
		return c.fail(fmt.Sprintf("cannot move to the next question from state %s", state))
	}

	c.mu.Lock()
	c.feedback = nil
	supplier := c.plan.Supplier
	index := c.index + 1
	c.mu.Unlock()

	q, ok := supplier.Question(index)
	if !ok {
		c.say(ctx, closingText)
		c.recognizer.StopListening()
		c.cancelPending()
		if err := c.transition(fsm.EventExhausted); err != nil {
			return c.fail(err.Error())
		}
		c.releaseMedia()
		c.logger.Info("question sequence exhausted", "asked", index)
		return c.ok("interview complete")
	}

	c.mu.Lock()
	c.index = index
	c.current = q
	c.mu.Unlock()

	c.say(ctx, q.Text)
	c.listen(ctx)
	return c.ok("next question")
}

func (c *Controller) assist(ctx context.Context, kind string) ipc.Response {
	state := c.State()
	if state != fsm.StateAwaitingAnswer {
		return c.fail(fmt.Sprintf("cannot request a %s from state %s", kind, state))
	}

	c.mu.RLock()
	q := c.current
	c.mu.RUnlock()

	text := q.Hint
	if kind != "hint" {
		text = q.SampleAnswer
	}
	if strings.TrimSpace(text) == "" {
		return c.ok(fmt.Sprintf("no %s for this question", kind))
	}

	c.say(ctx, fmt.Sprintf("Here's a %s: %s", kind, text))
	return c.ok(kind + " given")
}

// conclude moves to concluded and stops everything in flight.
func (c *Controller) conclude() {
	c.recognizer.StopListening()
	c.synth.Stop()
	c.cancelPending()
	if err := c.transition(fsm.EventEnd); err != nil {
		c.logger.Error("end session", "error", err.Error())
	}

	c.mu.Lock()
	c.speaking = false
	c.preview = ""
	c.mu.Unlock()
	c.assembler.Flush()
	c.releaseMedia()
	c.logger.Info("session ended", "entries", c.log.Len())
}

// teardown runs however Run exits.
func (c *Controller) teardown() {
	c.recognizer.StopListening()
	c.cancelPending()
	c.releaseMedia()
}

func (c *Controller) releaseMedia() {
	if err := c.handle.Release(); err != nil {
		c.logger.Warn("release microphone", "error", err.Error())
	}
	c.handle = nil
}

// cancelPending invalidates every scheduled timer and recognizer callback of
// the current generation.
func (c *Controller) cancelPending() {
	c.gen++
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

func (c *Controller) schedule(d time.Duration, kind timerKind) {
	ev := timerEvent{gen: c.gen, kind: kind}
	c.timers = append(c.timers, c.sched.AfterFunc(d, func() {
		c.inbox.put(ev)
	}))
}

// say appends an interviewer entry and hands it to the synthesizer.
func (c *Controller) say(ctx context.Context, text string) string {
	entry := c.log.Append(transcript.SpeakerInterviewer, text, "")
	c.utterance = entry.ID

	c.mu.Lock()
	c.speaking = false
	c.mu.Unlock()

	if err := c.synth.Speak(ctx, speech.Utterance{ID: entry.ID, Text: text}, c.voice); err != nil {
		if !c.synthWarned {
			c.logger.Warn("speech synthesis unavailable; transcript only", "error", err.Error())
			c.synthWarned = true
		}
	}
	return entry.ID
}

func (c *Controller) listen(ctx context.Context) {
	gen := c.gen
	err := c.recognizer.StartListening(ctx, false, func(res speech.Result) {
		c.inbox.put(recognizedEvent{gen: gen, result: res})
	})
	if err != nil {
		c.logger.Warn("start listening", "error", err.Error())
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.ok("status").WithData(c.Status())
	case "transcript":
		return c.ok("transcript").WithData(c.Transcript())
	case "feedback":
		fb := c.Feedback()
		if fb == nil {
			return c.ok("no feedback yet")
		}
		return c.ok("feedback").WithData(fb)
	case "answer":
		return c.push(req.Text, true)
	case "interim":
		return c.push(req.Text, false)
	case "next", "hint", "sample", "restart", "end":
		return c.request(ctx, req)
	default:
		return c.fail(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// push feeds recognized text to the recognizer. The answer itself is
// processed asynchronously by the Run loop.
func (c *Controller) push(text string, final bool) ipc.Response {
	if strings.TrimSpace(text) == "" {
		return c.fail(ErrBlankAnswer.Error())
	}
	p, ok := c.recognizer.(pusher)
	if !ok {
		return c.fail("recognizer does not accept pushed text")
	}
	if err := p.Push(speech.Result{Text: text, Final: final}); err != nil {
		if errors.Is(err, speech.ErrNotListening) {
			return c.fail(fmt.Sprintf("not listening for an answer in state %s", c.State()))
		}
		return c.fail(err.Error())
	}
	if final {
		return c.ok("answer received")
	}
	return c.ok("interim received")
}

func (c *Controller) request(ctx context.Context, req ipc.Request) ipc.Response {
	reply := make(chan ipc.Response, 1)
	c.inbox.put(commandEvent{req: req, reply: reply})

	select {
	case resp := <-reply:
		return resp
	case <-ctx.Done():
		if resp, ok := tryReply(reply); ok {
			return resp
		}
		return c.fail(ctx.Err().Error())
	case <-c.stopped:
		if resp, ok := tryReply(reply); ok {
			return resp
		}
		return c.fail("session is not running")
	}
}

// tryReply picks up a reply that raced with shutdown.
func tryReply(reply <-chan ipc.Response) (ipc.Response, bool) {
	select {
	case resp := <-reply:
		return resp, true
	default:
		return ipc.Response{}, false
	}
}

func (c *Controller) ok(message string) ipc.Response {
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) fail(message string) ipc.Response {
	return ipc.Response{OK: false, State: string(c.State()), Error: message}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
