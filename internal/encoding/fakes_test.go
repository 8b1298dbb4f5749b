package encoding_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"squeeze/internal/encoding"
	"squeeze/internal/media/ffmpeg"
)

type fakeProcess struct {
	stats     chan ffmpeg.Statistic
	done      chan struct{}
	doneOnce  sync.Once
	statsOnce sync.Once

	mu          sync.Mutex
	exit        ffmpeg.Exit
	interrupts  int
	kills       int
	onInterrupt func(*fakeProcess)
	onKill      func(*fakeProcess)
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{
		stats: make(chan ffmpeg.Statistic),
		done:  make(chan struct{}),
	}
}

func (p *fakeProcess) PID() int { return 0 }

func (p *fakeProcess) Statistics() <-chan ffmpeg.Statistic { return p.stats }

func (p *fakeProcess) Interrupt() error {
	p.mu.Lock()
	if p.exited() {
		p.mu.Unlock()
		return ffmpeg.ErrProcessDone
	}
	p.interrupts++
	hook := p.onInterrupt
	p.mu.Unlock()
	if hook != nil {
		go hook(p)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	if p.exited() {
		p.mu.Unlock()
		return ffmpeg.ErrProcessDone
	}
	p.kills++
	hook := p.onKill
	p.mu.Unlock()
	if hook != nil {
		go hook(p)
	}
	return nil
}

func (p *fakeProcess) Wait() ffmpeg.Exit {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exit
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Emit blocks until the session has received the statistic.
func (p *fakeProcess) Emit(t *testing.T, stat ffmpeg.Statistic) {
	t.Helper()
	select {
	case p.stats <- stat:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not consume statistic")
	}
}

// Finish closes the statistics stream and reports exit.
func (p *fakeProcess) Finish(exit ffmpeg.Exit) {
	p.Exit(exit)
	p.CloseStats()
}

// Exit marks the process as gone while its stdout may still be open.
func (p *fakeProcess) Exit(exit ffmpeg.Exit) {
	p.doneOnce.Do(func() {
		p.mu.Lock()
		p.exit = exit
		p.mu.Unlock()
		close(p.done)
	})
}

// CloseStats closes the statistics stream.
func (p *fakeProcess) CloseStats() {
	p.statsOnce.Do(func() { close(p.stats) })
}

func (p *fakeProcess) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupts, p.kills
}

type fakeLauncher struct {
	mu    sync.Mutex
	err   error
	procs []*fakeProcess
	args  [][]string
}

func (l *fakeLauncher) Launch(_ context.Context, args []string) (ffmpeg.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	proc := newFakeProcess()
	l.procs = append(l.procs, proc)
	l.args = append(l.args, append([]string(nil), args...))
	return proc, nil
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[len(l.procs)-1]
}

func (l *fakeLauncher) lastArgs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.args[len(l.args)-1]
}

type fixture struct {
	orch     *encoding.Orchestrator
	launcher *fakeLauncher
	dir      string
	source   string
}

func newFixture(t *testing.T, opts ...encoding.Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "in.mkv")
	if err := os.WriteFile(source, []byte("source"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	launcher := &fakeLauncher{}
	return &fixture{
		orch:     encoding.NewOrchestrator(launcher, nil, opts...),
		launcher: launcher,
		dir:      dir,
		source:   source,
	}
}

func (f *fixture) request(profile string, duration float64) encoding.Request {
	return encoding.Request{
		Profile:    profile,
		SourcePath: f.source,
		DestPath:   filepath.Join(f.dir, "out"),
		Source:     encoding.SourceMediaInfo{DurationSeconds: duration},
	}
}

func (f *fixture) start(t *testing.T, req encoding.Request) (*encoding.Session, *fakeProcess) {
	t.Helper()
	session, err := f.orch.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return session, f.launcher.last()
}

func writeOutput(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
}

func nextEvent(t *testing.T, s *encoding.Session) (encoding.Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		return ev, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session event")
		return encoding.Event{}, false
	}
}

// collectAll drains the event channel until it closes.
func collectAll(t *testing.T, s *encoding.Session) []encoding.Event {
	t.Helper()
	var events []encoding.Event
	for {
		ev, ok := nextEvent(t, s)
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func finalOutcome(t *testing.T, events []encoding.Event) encoding.JobOutcome {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}
	outcomes := 0
	for i, ev := range events {
		if ev.Kind == encoding.EventOutcome {
			outcomes++
			if i != len(events)-1 {
				t.Fatalf("outcome delivered before progress at index %d", i)
			}
		}
	}
	if outcomes != 1 {
		t.Fatalf("expected exactly one outcome, got %d", outcomes)
	}
	return events[len(events)-1].Outcome
}

var errLaunch = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")
