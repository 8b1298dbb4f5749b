package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"squeeze/internal/logging"
	"squeeze/internal/services"
)

// Exit codes with a fixed meaning for ffmpeg.
const (
	ExitSuccess = 0
	// ExitInterrupted is what ffmpeg returns after handling SIGINT.
	ExitInterrupted = 255
)

// DefaultDiagnosticLines is the stderr tail kept when a Runner does not set one.
const DefaultDiagnosticLines = 40

// ErrProcessDone is returned when signalling a process that already exited.
var ErrProcessDone = errors.New("ffmpeg process already exited")

// Exit describes how an encoder process ended.
type Exit struct {
	// Code is the process exit status, or -1 when it was terminated by a signal.
	Code int
	// Diagnostic is the tail of the process stderr.
	Diagnostic string
	// Err carries a wait failure that is not expressed by Code.
	Err error
}

// Signaled reports whether the process was terminated by a signal.
func (e Exit) Signaled() bool {
	return e.Code < 0
}

// Process is a running encoder.
type Process interface {
	// PID returns the OS process id (0 for in-memory fakes).
	PID() int
	// Statistics delivers parsed progress blocks and is closed when the
	// encoder closes its stdout.
	Statistics() <-chan Statistic
	// Interrupt asks the encoder to stop and finalize (SIGINT).
	Interrupt() error
	// Kill terminates the encoder's process group immediately.
	Kill() error
	// Wait blocks until the process exits. It may be called more than once.
	Wait() Exit
}

// Launcher starts encoder processes.
type Launcher interface {
	Launch(ctx context.Context, args []string) (Process, error)
}

// Runner launches the ffmpeg binary.
type Runner struct {
	Binary          string
	DiagnosticLines int
	Logger          *slog.Logger
}

// NewRunner returns a Runner for binary ("ffmpeg" when empty).
func NewRunner(binary string, diagnosticLines int, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if diagnosticLines <= 0 {
		diagnosticLines = DefaultDiagnosticLines
	}
	return &Runner{
		Binary:          binary,
		DiagnosticLines: diagnosticLines,
		Logger:          logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// Launch starts ffmpeg with ReportingArgs followed by args. The context only
// guards the launch itself; a started process is stopped through Interrupt
// or Kill so ffmpeg gets the chance to finalize its output.
func (r *Runner) Launch(ctx context.Context, args []string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithContext(ctx, logger)
	full := slices.Concat(ReportingArgs, args)
	cmd := exec.Command(r.Binary, full...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "stdout pipe", "", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "stderr pipe", "", err)
	}
	logger.Debug("launching ffmpeg",
		logging.String("binary", r.Binary),
		logging.String("command", strings.Join(full, " ")),
	)
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "start", fmt.Sprintf("launch %s", r.Binary), err)
	}

	lines := r.DiagnosticLines
	if lines <= 0 {
		lines = DefaultDiagnosticLines
	}
	p := &process{
		cmd:   cmd,
		stats: make(chan Statistic, 8),
		tail:  newTailBuffer(lines),
		done:  make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		defer close(p.stats)
		if err := ParseProgress(stdout, func(s Statistic) { p.stats <- s }); err != nil {
			logger.Debug("progress stream unreadable", logging.Error(err))
			_, _ = io.Copy(io.Discard, stdout)
		}
	}()
	go func() {
		defer readers.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 16*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			p.tail.Add(line)
		}
		_, _ = io.Copy(io.Discard, stderr)
	}()
	go func() {
		readers.Wait()
		p.exit = classifyWait(cmd.Wait())
		p.exit.Diagnostic = p.tail.String()
		close(p.done)
		logger.Debug("ffmpeg exited", logging.Int("exit_code", p.exit.Code))
	}()
	return p, nil
}

type process struct {
	cmd   *exec.Cmd
	stats chan Statistic
	tail  *tailBuffer
	done  chan struct{}
	exit  Exit
}

func (p *process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) Statistics() <-chan Statistic { return p.stats }

func (p *process) Interrupt() error {
	if p.exited() {
		return ErrProcessDone
	}
	return interruptGroup(p.cmd)
}

func (p *process) Kill() error {
	if p.exited() {
		return ErrProcessDone
	}
	return killGroup(p.cmd)
}

func (p *process) Wait() Exit {
	<-p.done
	return p.exit
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func classifyWait(err error) Exit {
	if err == nil {
		return Exit{Code: ExitSuccess}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Exit{Code: exitErr.ExitCode()}
	}
	return Exit{Code: -1, Err: err}
}
