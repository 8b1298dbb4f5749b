package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squeeze/internal/config"
	"squeeze/internal/encoding"
	"squeeze/internal/history"
	"squeeze/internal/logging"
	"squeeze/internal/media/ffmpeg"
	"squeeze/internal/media/ffprobe"
	"squeeze/internal/profiles"
	"squeeze/internal/scratch"
	"squeeze/internal/services"
)

var errEncodeCancelled = errors.New("encode cancelled")

type encodeOptions struct {
	profile    string
	quality    int
	hasQuality bool
	preset     string
	output     string
	timeout    time.Duration
	stage      bool
	asJSON     bool
}

type encodeResultJSON struct {
	SessionID      string  `json:"session_id"`
	Profile        string  `json:"profile"`
	Source         string  `json:"source"`
	Output         string  `json:"output,omitempty"`
	Outcome        string  `json:"outcome"`
	Reason         string  `json:"reason,omitempty"`
	ExitCode       int     `json:"exit_code"`
	SizeBytes      int64   `json:"size_bytes,omitempty"`
	Diagnostic     string  `json:"diagnostic,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	TimedOut       bool    `json:"timed_out,omitempty"`
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var opts encodeOptions
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a video with a profile",
		Long: "Encode a video with a profile from `squeeze profiles`.\n\n" +
			"Output is written into the scratch directory and moved into place once ffmpeg\n" +
			"succeeds. Ctrl-C stops the encoder and discards the partial output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasQuality = cmd.Flags().Changed("quality")
			return runEncode(cmd, ctx, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Profile name or key (default from encoder.default_profile)")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, fmt.Sprintf("CRF override (%d-%d)", profiles.MinQuality, profiles.MaxQuality))
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Speed preset override (see `squeeze presets`)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file or directory (default: next to the source)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Cancel the encode after this long (0 disables)")
	cmd.Flags().BoolVar(&opts.stage, "stage", false, "Copy the source into the scratch directory before encoding")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON instead of live progress")
	return cmd
}

func runEncode(cmd *cobra.Command, ctx *commandContext, sourceArg string, opts encodeOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	source, err := config.ExpandPath(sourceArg)
	if err != nil {
		return err
	}
	profileName := strings.TrimSpace(opts.profile)
	if profileName == "" {
		profileName = cfg.Encoder.DefaultProfile
	}
	profile, err := profiles.Lookup(profileName)
	if err != nil {
		return err
	}
	req := encoding.Request{Profile: profile.Name}
	if opts.hasQuality {
		quality := opts.quality
		req.Quality = &quality
	}
	if strings.TrimSpace(opts.preset) != "" {
		preset, err := profiles.ParsePreset(opts.preset)
		if err != nil {
			return err
		}
		req.Preset = &preset
	}
	if _, err := profiles.Resolve(profile, req.Quality, req.Preset); err != nil {
		return err
	}

	final, err := resolveFinalPath(source, opts.output, profile)
	if err != nil {
		return err
	}
	if err := checkOutsideScratch(cfg.Paths.ScratchDir, source, final); err != nil {
		return err
	}

	ws, err := scratch.Open(cfg.Paths.ScratchDir, logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	if _, err := ws.Reset(); err != nil {
		logging.WarnWithContext(logger, "scratch reset incomplete", "scratch_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale files remain in the scratch directory"),
		)
	}

	input := source
	if opts.stage {
		staged, err := ws.StageSource(source)
		if err != nil {
			return err
		}
		defer ws.Discard(staged)
		input = staged
	}
	req.SourcePath = input
	req.Source = probeSource(cmd.Context(), cfg.FFprobeBinary(), input, logger)

	temp, err := ws.CreateTempOutput(profile.Extension)
	if err != nil {
		return err
	}
	req.DestPath = temp

	orch := encoding.NewOrchestrator(
		ffmpeg.NewRunner(cfg.FFmpegBinary(), cfg.Encoder.DiagnosticLines, logger),
		logger,
		encoding.WithCancelGrace(cfg.CancelGrace()),
		encoding.WithEventBuffer(cfg.Encoder.EventBuffer),
	)

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := orch.Start(sigCtx, req)
	if err != nil {
		ws.Discard(temp)
		return err
	}

	var timedOut atomic.Bool
	if opts.timeout > 0 {
		timer := time.AfterFunc(opts.timeout, func() {
			timedOut.Store(true)
			orch.Cancel(session)
		})
		defer timer.Stop()
	}
	go func() {
		select {
		case <-sigCtx.Done():
			orch.Cancel(session)
		case <-session.Done():
		}
	}()

	out := cmd.OutOrStdout()
	var renderer progressRenderer
	if !opts.asJSON {
		spec := session.Spec()
		fmt.Fprintf(out, "Encoding %s with %s (crf %d, preset %s)\n",
			filepath.Base(source), profile.Name, spec.Quality, spec.Preset)
		progressOut := cmd.ErrOrStderr()
		renderer = newProgressRenderer(progressOut, isTerminal(progressOut), req.Source.DurationSeconds > 0)
	}
	for ev := range session.Events() {
		if ev.Kind == encoding.EventProgress && renderer != nil {
			renderer.Update(ev.Progress)
		}
	}
	if renderer != nil {
		renderer.Finish()
	}

	outcome, _ := session.Outcome()
	finishedAt := time.Now()

	var resultErr error
	switch outcome.Kind {
	case encoding.OutcomeSuccess:
		if err := ws.Promote(outcome.OutputPath, final); err != nil {
			ws.Discard(outcome.OutputPath)
			outcome = encoding.JobOutcome{
				Kind:       encoding.OutcomeFailed,
				ExitCode:   outcome.ExitCode,
				Reason:     encoding.ReasonPromoteFailed,
				Diagnostic: err.Error(),
			}
			resultErr = err
		} else {
			outcome.OutputPath = final
		}
	case encoding.OutcomeCancelled:
		ws.Discard(temp)
		if timedOut.Load() {
			resultErr = fmt.Errorf("encode timed out after %s", opts.timeout)
		} else {
			resultErr = errEncodeCancelled
		}
	default:
		ws.Discard(temp)
		resultErr = outcome.Err()
	}

	recordHistory(cmd.Context(), ctx, session, outcome, finishedAt, logger)

	if opts.asJSON {
		if err := writeJSON(cmd, encodeResultJSON{
			SessionID:      session.ID(),
			Profile:        profile.Name,
			Source:         source,
			Output:         outcome.OutputPath,
			Outcome:        outcome.Kind.String(),
			Reason:         outcome.Reason,
			ExitCode:       outcome.ExitCode,
			SizeBytes:      outcome.SizeBytes,
			Diagnostic:     outcome.Diagnostic,
			ElapsedSeconds: finishedAt.Sub(session.StartedAt()).Seconds(),
			TimedOut:       timedOut.Load(),
		}); err != nil {
			return err
		}
		return resultErr
	}

	if resultErr == nil {
		fmt.Fprintf(out, "Finished: %s (%s) in %s\n", final, humanize.Bytes(uint64(outcome.SizeBytes)),
			encoding.FormatClock(finishedAt.Sub(session.StartedAt())))
		return nil
	}
	if outcome.Kind == encoding.OutcomeFailed && outcome.Reason != encoding.ReasonPromoteFailed && outcome.Diagnostic != "" {
		printDiagnostic(cmd.ErrOrStderr(), outcome.Diagnostic)
	}
	return resultErr
}

// resolveFinalPath picks where the finished encode lands. Without --output,
// or when --output names a directory, the file is "<stem>-<profile key>.<ext>".
func resolveFinalPath(source, output string, profile profiles.Profile) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	defaultName := stem + "-" + strings.ToLower(profile.Key) + "." + profile.Extension

	var final string
	output = strings.TrimSpace(output)
	switch {
	case output == "":
		final = filepath.Join(filepath.Dir(source), defaultName)
	default:
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(expanded); err == nil && info.IsDir() {
			final = filepath.Join(expanded, defaultName)
		} else {
			final = ffmpeg.OutputPath(expanded, profile.Extension)
		}
	}

	srcAbs, err1 := filepath.Abs(source)
	dstAbs, err2 := filepath.Abs(final)
	if err1 == nil && err2 == nil && srcAbs == dstAbs {
		return "", services.Wrap(services.ErrValidation, "encode", "resolve output",
			"output would overwrite the source", encoding.ErrInvalidDestination)
	}
	return final, nil
}

// checkOutsideScratch rejects sources and outputs inside the scratch
// directory, which is cleared and reused by every encode.
func checkOutsideScratch(scratchDir, source, final string) error {
	if scratch.Contains(scratchDir, source) {
		return services.Wrap(services.ErrValidation, "encode", "check source",
			fmt.Sprintf("source %s is inside the scratch directory %s", source, scratchDir), nil)
	}
	if scratch.Contains(scratchDir, final) {
		return services.Wrap(services.ErrValidation, "encode", "check output",
			fmt.Sprintf("output %s is inside the scratch directory %s", final, scratchDir), nil)
	}
	return nil
}

// probeSource reads the source duration. A failed probe is not fatal: the
// encode still runs with indeterminate progress.
func probeSource(ctx context.Context, binary, path string, logger *slog.Logger) encoding.SourceMediaInfo {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	result, err := ffprobe.Inspect(probeCtx, binary, path)
	if err != nil {
		logging.WarnWithContext(logger, "source probe failed", "source_probe_failed",
			logging.String("source", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `squeeze doctor` to check ffprobe"),
			logging.String(logging.FieldImpact, "progress percentage and ETA unavailable"),
		)
		return encoding.SourceMediaInfo{}
	}
	return encoding.SourceInfoFromProbe(result)
}

func recordHistory(ctx context.Context, cc *commandContext, session *encoding.Session, outcome encoding.JobOutcome, finishedAt time.Time, logger *slog.Logger) {
	entry, ok := history.FromSession(session, finishedAt)
	if !ok {
		return
	}
	entry.Outcome = outcome.Kind.String()
	entry.Reason = outcome.Reason
	entry.Diagnostic = outcome.Diagnostic
	entry.SizeBytes = outcome.SizeBytes
	entry.OutputPath = ""
	if outcome.Kind == encoding.OutcomeSuccess {
		entry.OutputPath = outcome.OutputPath
	}
	store, err := cc.openHistory()
	if err == nil && store != nil {
		defer store.Close()
		_, err = store.Record(context.WithoutCancel(ctx), entry)
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to record encode history", "history_record_failed",
			logging.String(logging.FieldSessionID, session.ID()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job missing from `squeeze history`"),
		)
	}
}

func printDiagnostic(w io.Writer, diagnostic string) {
	fmt.Fprintln(w, "ffmpeg output (tail):")
	for line := range strings.SplitSeq(strings.TrimSpace(diagnostic), "\n") {
		fmt.Fprintln(w, "  "+line)
	}
}
