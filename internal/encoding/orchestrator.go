package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"squeeze/internal/logging"
	"squeeze/internal/media/ffmpeg"
	"squeeze/internal/profiles"
	"squeeze/internal/services"
)

var (
	// ErrAlreadyRunning is returned when Start is called while a session is active.
	ErrAlreadyRunning = errors.New("an encode session is already running")
	// ErrSourceUnreadable is returned when the source cannot be opened or the
	// encoder cannot be spawned.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrInvalidDestination is returned for an empty destination or one that
	// would overwrite the source.
	ErrInvalidDestination = errors.New("invalid destination")
)

const (
	defaultCancelGrace = 10 * time.Second
	defaultEventBuffer = 16
)

// Request describes one encode job.
type Request struct {
	// Profile is a catalog display name or key; empty selects profiles.Default.
	Profile    string
	Quality    *int
	Preset     *profiles.PresetSpeed
	SourcePath string
	// DestPath receives the profile extension when it lacks one.
	DestPath string
	Source   SourceMediaInfo
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCancelGrace sets how long an interrupted encoder may take to exit
// before it is killed.
func WithCancelGrace(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.grace = d
		}
	}
}

// WithEventBuffer sets the capacity of each session's event channel.
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithIDGenerator replaces the session ID source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Orchestrator starts and supervises encode sessions, one at a time.
type Orchestrator struct {
	launcher    ffmpeg.Launcher
	logger      *slog.Logger
	grace       time.Duration
	eventBuffer int
	newID       func() string

	mu     sync.Mutex
	active *Session
}

// NewOrchestrator builds an Orchestrator that spawns encoders with launcher.
func NewOrchestrator(launcher ffmpeg.Launcher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		launcher:    launcher,
		logger:      logging.NewComponentLogger(logger, "encoder"),
		grace:       defaultCancelGrace,
		eventBuffer: defaultEventBuffer,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Profiles returns the profile catalog in menu order.
func (o *Orchestrator) Profiles() []profiles.Profile {
	return profiles.All()
}

// Presets returns the preset speeds, fastest first.
func (o *Orchestrator) Presets() []profiles.PresetSpeed {
	return profiles.Presets()
}

// Active returns the running session, if any.
func (o *Orchestrator) Active() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Start validates req, launches the encoder, and returns the running session.
// Progress and the final outcome are delivered on Session.Events.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Session, error) {
	profile, err := o.lookupProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	spec, err := profiles.Resolve(profile, req.Quality, req.Preset)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, services.Wrap(services.ErrConflict, "encoding", "start",
			fmt.Sprintf("session %s is still running", o.active.ID()), ErrAlreadyRunning)
	}

	if err := checkSource(req.SourcePath); err != nil {
		return nil, err
	}
	dest, err := resolveDestination(req.SourcePath, req.DestPath, spec.Extension)
	if err != nil {
		return nil, err
	}

	id := o.newID()
	ctx = services.WithSessionID(ctx, id)
	ctx = services.WithProfile(ctx, profile.Name)
	logger := logging.WithContext(ctx, o.logger)

	args := ffmpeg.BuildArgs(spec, req.SourcePath, dest)
	proc, err := o.launcher.Launch(ctx, args)
	if err != nil {
		logging.ErrorWithContext(logger, "encoder launch failed", "encode_launch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `squeeze doctor` to verify the ffmpeg installation"),
		)
		return nil, services.Wrap(services.ErrExternalTool, "encoding", "launch encoder", "", errors.Join(ErrSourceUnreadable, err))
	}

	session := &Session{
		id:         id,
		profile:    profile.Name,
		spec:       spec,
		sourcePath: req.SourcePath,
		destPath:   dest,
		source:     req.Source,
		startedAt:  time.Now(),
		grace:      o.grace,
		logger:     logger,
		state:      StateRunning,
		proc:       proc,
		events:     make(chan Event, o.eventBuffer),
		done:       make(chan struct{}),
	}
	session.onFinish = o.release
	o.active = session

	logger.Info("encode started",
		logging.String("source", req.SourcePath),
		logging.String("output", dest),
		logging.String("codec", spec.Codec),
		logging.Int("width", spec.Width),
		logging.Int("quality", spec.Quality),
		logging.String("preset", spec.Preset.String()),
		logging.Float64("source_duration_seconds", req.Source.DurationSeconds),
	)
	go session.run()
	return session, nil
}

// Cancel requests cancellation of s. It is a no-op for nil or finished sessions.
func (o *Orchestrator) Cancel(s *Session) {
	if s == nil {
		return
	}
	s.Cancel()
}

func (o *Orchestrator) release(s *Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == s {
		o.active = nil
	}
}

func (o *Orchestrator) lookupProfile(name string) (profiles.Profile, error) {
	if strings.TrimSpace(name) == "" {
		return profiles.Default(), nil
	}
	return profiles.Lookup(name)
}

func checkSource(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "encoding", "open source", "source path is empty", ErrSourceUnreadable)
	}
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "encoding", "open source", path, errors.Join(ErrSourceUnreadable, err))
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrValidation, "encoding", "stat source", path, errors.Join(ErrSourceUnreadable, err))
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "encoding", "open source", path+" is a directory", ErrSourceUnreadable)
	}
	return nil
}

func resolveDestination(source, dest, ext string) (string, error) {
	if strings.TrimSpace(dest) == "" {
		return "", services.Wrap(services.ErrValidation, "encoding", "resolve destination", "destination path is empty", ErrInvalidDestination)
	}
	resolved := ffmpeg.OutputPath(dest, ext)
	srcAbs, err1 := filepath.Abs(source)
	dstAbs, err2 := filepath.Abs(resolved)
	if err1 == nil && err2 == nil && srcAbs == dstAbs {
		return "", services.Wrap(services.ErrValidation, "encoding", "resolve destination", "destination would overwrite the source", ErrInvalidDestination)
	}
	return resolved, nil
}
