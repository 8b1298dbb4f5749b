package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"squeeze/internal/logging"
	"squeeze/internal/media/ffmpeg"
	"squeeze/internal/profiles"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// EventKind distinguishes session events.
type EventKind int

const (
	EventProgress EventKind = iota
	EventOutcome
)

// Event is published on Session.Events. Exactly one of Progress or Outcome
// is meaningful, selected by Kind.
type Event struct {
	Kind     EventKind
	Progress ProgressUpdate
	Outcome  JobOutcome
}

// Session is one running (or finished) encode job.
type Session struct {
	id         string
	profile    string
	spec       profiles.EncodeSpec
	sourcePath string
	destPath   string
	source     SourceMediaInfo
	startedAt  time.Time
	grace      time.Duration
	logger     *slog.Logger
	onFinish   func(*Session)

	mu              sync.Mutex
	state           State
	cancelRequested bool
	proc            ffmpeg.Process
	killTimer       *time.Timer
	outcome         JobOutcome
	last            ProgressUpdate

	events chan Event
	done   chan struct{}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Profile returns the display name of the profile the session was started with.
func (s *Session) Profile() string { return s.profile }

// Spec returns a copy of the resolved encode parameters.
func (s *Session) Spec() profiles.EncodeSpec { return s.spec }

// SourcePath returns the input file path.
func (s *Session) SourcePath() string { return s.sourcePath }

// DestPath returns the output file path (with extension applied).
func (s *Session) DestPath() string { return s.destPath }

// Source returns the media info supplied at start.
func (s *Session) Source() SourceMediaInfo { return s.source }

// StartedAt returns when the encoder was launched.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Events delivers progress updates followed by a single outcome event. The
// channel is closed once the outcome has been published.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed after the session reaches a terminal state and its events
// channel has been closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastProgress returns the most recent translated update.
func (s *Session) LastProgress() ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Outcome returns the terminal outcome once available.
func (s *Session) Outcome() (JobOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.state.Terminal()
}

// Wait blocks until the session finishes or ctx is done. It does not consume
// events.
func (s *Session) Wait(ctx context.Context) (JobOutcome, error) {
	select {
	case <-s.done:
		outcome, _ := s.Outcome()
		return outcome, nil
	case <-ctx.Done():
		return JobOutcome{}, ctx.Err()
	}
}

// Cancel asks the encoder to stop. It returns immediately; the Cancelled
// outcome (or whatever the encoder actually finished with) arrives on the
// events channel. Cancel is a no-op unless the session is running.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning || s.cancelRequested || s.proc == nil {
		return
	}
	proc := s.proc
	err := proc.Interrupt()
	if errors.Is(err, ffmpeg.ErrProcessDone) {
		return
	}
	s.cancelRequested = true
	if err != nil {
		logging.WarnWithContext(s.logger, "failed to interrupt encoder", "encode_interrupt_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "encoder will be killed after the grace period"),
		)
	}
	s.logger.Info("cancellation requested", logging.Duration("grace", s.grace))
	s.killTimer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		p := s.proc
		s.mu.Unlock()
		if p == nil {
			return
		}
		s.logger.Warn("encoder ignored interrupt; killing",
			logging.String(logging.FieldEventType, "encode_kill"),
			logging.Duration("grace", s.grace),
		)
		if err := p.Kill(); err != nil && !errors.Is(err, ffmpeg.ErrProcessDone) {
			s.logger.Error("failed to kill encoder", logging.Error(err))
		}
	})
}

func (s *Session) run() {
	var (
		pending    ProgressUpdate
		hasPending bool
		maxPercent = PercentUnknown
	)
	sampler := logging.NewProgressSampler(5, time.Minute)
	stats := s.proc.Statistics()
	for stats != nil {
		if hasPending {
			select {
			case s.events <- Event{Kind: EventProgress, Progress: pending}:
				hasPending = false
			default:
			}
		}
		// Only a subscriber that has let the buffer fill gets coalesced
		// updates: pending is overwritten by the next statistic.
		var out chan Event
		if hasPending {
			out = s.events
		}
		select {
		case stat, ok := <-stats:
			if !ok {
				stats = nil
				continue
			}
			update := Translate(stat, s.source.DurationSeconds)
			if update.Determinate() {
				if update.Percent < maxPercent {
					update.Percent = maxPercent
				}
				maxPercent = update.Percent
			}
			s.mu.Lock()
			s.last = update
			s.mu.Unlock()
			if sampler.Sample(update.Percent, update.Elapsed) {
				s.logger.Info("encode progress",
					logging.Float64("progress_percent", update.Percent),
					logging.Int64("frame", update.Frame),
					logging.Float64("speed", update.Speed),
					logging.Duration("progress_eta", update.ETA),
				)
			}
			pending, hasPending = update, true
		case out <- Event{Kind: EventProgress, Progress: pending}:
			hasPending = false
		}
	}

	exit := s.proc.Wait()
	if hasPending {
		select {
		case s.events <- Event{Kind: EventProgress, Progress: pending}:
		default:
		}
	}
	s.finish(exit)
}

func (s *Session) finish(exit ffmpeg.Exit) {
	s.mu.Lock()
	outcome := s.classify(exit)
	s.outcome = outcome
	switch outcome.Kind {
	case OutcomeSuccess:
		s.state = StateCompleted
	case OutcomeCancelled:
		s.state = StateCancelled
	default:
		s.state = StateFailed
	}
	s.proc = nil
	if s.killTimer != nil {
		s.killTimer.Stop()
	}
	s.mu.Unlock()

	s.logOutcome(outcome)
	if s.onFinish != nil {
		s.onFinish(s)
	}
	s.publishOutcome(outcome)
	close(s.events)
	close(s.done)
}

// publishOutcome always lands the outcome in the channel, evicting the
// oldest buffered progress if the subscriber is not keeping up.
func (s *Session) publishOutcome(outcome JobOutcome) {
	event := Event{Kind: EventOutcome, Outcome: outcome}
	for {
		select {
		case s.events <- event:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// classify must be called with s.mu held.
func (s *Session) classify(exit ffmpeg.Exit) JobOutcome {
	switch {
	case exit.Err != nil:
		return JobOutcome{Kind: OutcomeFailed, ExitCode: exit.Code, Reason: ReasonWaitError, Diagnostic: joinDiagnostic(exit.Diagnostic, exit.Err.Error())}
	case exit.Code == ffmpeg.ExitSuccess:
		info, err := os.Stat(s.destPath)
		if err != nil || info.IsDir() {
			diagnostic := exit.Diagnostic
			if err != nil {
				diagnostic = joinDiagnostic(diagnostic, err.Error())
			}
			return JobOutcome{Kind: OutcomeFailed, ExitCode: exit.Code, Reason: ReasonOutputMissing, Diagnostic: diagnostic}
		}
		return JobOutcome{Kind: OutcomeSuccess, OutputPath: s.destPath, SizeBytes: info.Size(), ExitCode: exit.Code}
	case exit.Code == ffmpeg.ExitInterrupted:
		return JobOutcome{Kind: OutcomeCancelled, ExitCode: exit.Code}
	case exit.Signaled() && s.cancelRequested:
		return JobOutcome{Kind: OutcomeCancelled, ExitCode: exit.Code}
	case exit.Signaled():
		return JobOutcome{Kind: OutcomeFailed, ExitCode: exit.Code, Reason: ReasonSignal, Diagnostic: exit.Diagnostic}
	default:
		return JobOutcome{Kind: OutcomeFailed, ExitCode: exit.Code, Reason: ReasonExitCode, Diagnostic: exit.Diagnostic}
	}
}

func (s *Session) logOutcome(outcome JobOutcome) {
	elapsed := time.Since(s.startedAt)
	switch outcome.Kind {
	case OutcomeSuccess:
		s.logger.Info("encode completed",
			logging.String("output", outcome.OutputPath),
			logging.Int64("size_bytes", outcome.SizeBytes),
			logging.Duration("elapsed", elapsed),
		)
	case OutcomeCancelled:
		s.logger.Info("encode cancelled",
			logging.Int("exit_code", outcome.ExitCode),
			logging.Duration("elapsed", elapsed),
		)
	default:
		logging.ErrorWithContext(s.logger, "encode failed", "encode_failed",
			logging.Int("exit_code", outcome.ExitCode),
			logging.String("reason", outcome.Reason),
			logging.String("diagnostic", lastLine(outcome.Diagnostic)),
			logging.String(logging.FieldErrorHint, "re-run with logging.level=debug and inspect the ffmpeg diagnostic"),
		)
	}
}

func joinDiagnostic(diagnostic, extra string) string {
	if diagnostic == "" {
		return extra
	}
	return diagnostic + "\n" + extra
}
