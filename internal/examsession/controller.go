// Package examsession drives one timed exam attempt: fetching the question set,
// tracking the examinee's answers and the countdown, and submitting for grading.
package examsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
)

// QuestionSupplier fetches the answer-hidden question set of an attempt.
type QuestionSupplier interface {
	FetchQuestions(ctx context.Context, req model.QuestionRequest) ([]model.QuestionForStudent, error)
}

// Grader submits answers for authoritative grading.
type Grader interface {
	SubmitExam(ctx context.Context, req model.SubmitExamRequest) (*model.SubmitExamResponse, error)
}

// Params identifies what is being examined and by whom.
type Params struct {
	SubjectID int
	ClassID   string
	Count     int
	StudentID int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock driving the countdown.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithListener registers a callback invoked after every transition, update and tick.
// It runs without the controller lock held and may call read methods.
func WithListener(fn func(Event)) Option {
	return func(c *Controller) { c.listener = fn }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log.With().Str("component", "exam_session").Logger() }
}

// Controller is the state machine of a single exam attempt.
// All mutations are serialized by mu.
type Controller struct {
	cfg      config.SessionConfig
	params   Params
	supplier QuestionSupplier
	grader   Grader
	clock    Clock
	listener func(Event)
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	started     bool
	baseCtx     context.Context
	fetchCancel context.CancelFunc
	questions   []model.QuestionForStudent
	index       int
	answers     model.AnswerMap
	remaining   int
	payload     *model.SubmitExamRequest
	inFlight    bool
	result      *model.SubmitExamResponse
	lastErr     error
	ticker      Ticker
	stopTicks   chan struct{}
	done        chan struct{}
}

// New returns a controller in the Loading state. Nothing happens until Start.
// A non-positive duration falls back to the default; one longer than
// config.MaxSessionDurationSeconds is capped.
func New(cfg config.SessionConfig, params Params, supplier QuestionSupplier, grader Grader, opts ...Option) *Controller {
	if cfg.SessionDurationSeconds <= 0 {
		cfg.SessionDurationSeconds = config.DefaultSessionDurationSeconds
	}
	cfg.SessionDurationSeconds = min(cfg.SessionDurationSeconds, config.MaxSessionDurationSeconds)
	c := &Controller{
		cfg:      cfg,
		params:   params,
		supplier: supplier,
		grader:   grader,
		clock:    RealClock{},
		log:      zerolog.Nop(),
		state:    StateLoading,
		answers:  make(model.AnswerMap),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches the question set and, when it is non-empty, activates the session
// and arms the countdown. A failed or empty fetch aborts the session. ctx bounds
// the fetch only; cancelling it later does not affect the attempt.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading || c.started {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.started = true
	c.baseCtx = ctx
	fetchCtx, cancel := context.WithCancel(ctx)
	c.fetchCancel = cancel
	c.mu.Unlock()

	questions, err := c.supplier.FetchQuestions(fetchCtx, model.QuestionRequest{
		Subject: c.params.SubjectID,
		Count:   c.params.Count,
		ClassID: c.params.ClassID,
	})
	cancel()

	c.mu.Lock()
	c.fetchCancel = nil
	if c.state != StateLoading {
		// Abandoned while the fetch was outstanding.
		c.mu.Unlock()
		return ErrAbandoned
	}

	switch {
	case err != nil:
		c.abortLocked(fmt.Errorf("%w: %w", ErrSupplyFailed, err))
	case len(questions) == 0:
		c.abortLocked(ErrNoQuestions)
	default:
		c.questions = questions
		c.index = 0
		c.answers = make(model.AnswerMap)
		c.remaining = c.cfg.SessionDurationSeconds
		c.state = StateActive
		c.armLocked()
	}
	ev := c.eventLocked(EventActivated)
	if c.state == StateAborted {
		ev.Type = EventAborted
	}
	c.mu.Unlock()

	if ev.Type == EventAborted {
		c.log.Warn().Err(ev.Err).Int("subject_id", c.params.SubjectID).Msg("Exam session aborted")
	} else {
		c.log.Info().Int("questions", ev.Snapshot.Total).Int("subject_id", c.params.SubjectID).Msg("Exam session active")
	}
	c.emit(ev)
	return ev.Err
}

// SelectOption records the option at slot i (0..3 for A..D) as the answer of the
// current question. Invalid slots, empty options and inactive sessions are ignored.
func (c *Controller) SelectOption(i int) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.index]
	text, ok := q.OptionAt(i)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.answers[q.ID] = text
	ev := c.eventLocked(EventUpdated)
	c.mu.Unlock()
	c.emit(ev)
}

// Next moves to the following question. At the last question it does nothing.
func (c *Controller) Next() {
	c.move(1)
}

// Previous moves to the preceding question. At the first question it does nothing.
func (c *Controller) Previous() {
	c.move(-1)
}

func (c *Controller) move(delta int) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	next := c.index + delta
	if next < 0 || next >= len(c.questions) {
		c.mu.Unlock()
		return
	}
	c.index = next
	ev := c.eventLocked(EventUpdated)
	c.mu.Unlock()
	c.emit(ev)
}

// Tick advances the countdown by one second. Reaching zero submits once,
// in the background, bounded by the submit timeout.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	tick := c.eventLocked(EventTick)
	if c.remaining > 0 {
		c.mu.Unlock()
		c.emit(tick)
		return
	}

	c.beginSubmitLocked()
	submitting := c.eventLocked(EventSubmitting)
	// Keep the Start context's values but not its deadline or cancellation;
	// only the submit timeout bounds the implicit submission.
	ctx := context.Background()
	if c.baseCtx != nil {
		ctx = context.WithoutCancel(c.baseCtx)
	}
	c.mu.Unlock()

	c.log.Info().Msg("Time is up, submitting")
	c.emit(tick)
	c.emit(submitting)
	go func() {
		_, _ = c.send(ctx)
	}()
}

// Submit freezes the answers and sends them for grading. On failure the session
// stays Submitting and Submit may be called again to retry the same payload.
func (c *Controller) Submit(ctx context.Context) (*model.SubmitExamResponse, error) {
	c.mu.Lock()
	switch c.state {
	case StateActive:
		c.beginSubmitLocked()
		ev := c.eventLocked(EventSubmitting)
		c.mu.Unlock()
		c.emit(ev)
	case StateSubmitting:
		if c.inFlight {
			c.mu.Unlock()
			return nil, ErrSubmissionInFlight
		}
		c.inFlight = true
		c.mu.Unlock()
	case StateCompleted:
		c.mu.Unlock()
		return nil, ErrAlreadyCompleted
	default:
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	return c.send(ctx)
}

// Abandon leaves the attempt. While Loading it cancels the outstanding fetch;
// while Active it stops the countdown. Other states cannot be abandoned.
func (c *Controller) Abandon() error {
	c.mu.Lock()
	switch c.state {
	case StateLoading:
		if c.fetchCancel != nil {
			c.fetchCancel()
		}
		c.questions = nil
	case StateActive:
		c.disarmLocked()
	default:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.abortLocked(ErrAbandoned)
	ev := c.eventLocked(EventAborted)
	c.mu.Unlock()

	c.log.Info().Msg("Exam session abandoned")
	c.emit(ev)
	return nil
}

// beginSubmitLocked moves Active to Submitting. The countdown is disarmed before
// any network call so a late tick cannot submit a second time.
func (c *Controller) beginSubmitLocked() {
	c.disarmLocked()
	c.state = StateSubmitting
	c.inFlight = true
	elapsed := c.cfg.SessionDurationSeconds - c.remaining
	c.payload = &model.SubmitExamRequest{
		Answers:   c.answers.Wire(),
		StudentID: c.params.StudentID,
		SubjectID: c.params.SubjectID,
		ClassID:   c.params.ClassID,
		TimeTaken: model.FormatClock(elapsed),
	}
}

func (c *Controller) send(ctx context.Context) (*model.SubmitExamResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := c.cfg.SubmitTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c.mu.Lock()
	payload := *c.payload
	c.mu.Unlock()

	resp, err := c.grader.SubmitExam(ctx, payload)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.lastErr = fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
		ev := c.eventLocked(EventSubmitFailed)
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("Exam submission failed")
		c.emit(ev)
		return nil, ev.Err
	}
	c.state = StateCompleted
	c.result = resp
	c.lastErr = nil
	c.closeDoneLocked()
	ev := c.eventLocked(EventCompleted)
	c.mu.Unlock()

	c.log.Info().Int("score", resp.Score).Int("total", resp.Total).Msg("Exam graded")
	c.emit(ev)
	return resp, nil
}

func (c *Controller) abortLocked(err error) {
	c.state = StateAborted
	c.lastErr = err
	c.closeDoneLocked()
}

func (c *Controller) closeDoneLocked() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Controller) armLocked() {
	t := c.clock.NewTicker(time.Second)
	stop := make(chan struct{})
	c.ticker = t
	c.stopTicks = stop
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-t.C():
				c.Tick()
			}
		}
	}()
}

func (c *Controller) disarmLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stopTicks)
	c.ticker = nil
	c.stopTicks = nil
}

func (c *Controller) eventLocked(t EventType) Event {
	snap := c.snapshotLocked()
	return Event{Type: t, Snapshot: snap, Err: snap.Err}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Index:     c.index,
		Total:     len(c.questions),
		Remaining: c.remaining,
		Answers:   c.answers.Clone(),
		Result:    c.result,
		Err:       c.lastErr,
	}
	if c.index < len(c.questions) {
		q := c.questions[c.index]
		s.Current = &q
		s.Selected = c.answers[q.ID]
	}
	return s
}

func (c *Controller) emit(ev Event) {
	if c.listener != nil {
		c.listener(ev)
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Answers returns a copy of the recorded answers.
func (c *Controller) Answers() model.AnswerMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Clone()
}

// Result returns the grading result once Completed, otherwise nil.
func (c *Controller) Result() *model.SubmitExamResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the error of the last failed fetch or submission.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Done is closed when the session reaches Completed or Aborted.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
