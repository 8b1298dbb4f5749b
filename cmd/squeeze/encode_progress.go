package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"squeeze/internal/encoding"
	"squeeze/internal/logging"
)

// progressRenderer draws encode progress for the terminal.
type progressRenderer interface {
	Update(encoding.ProgressUpdate)
	Finish()
}

func newProgressRenderer(out io.Writer, interactive, determinate bool) progressRenderer {
	if interactive {
		return newBarRenderer(out, determinate)
	}
	return &lineRenderer{out: out, sampler: logging.NewProgressSampler(5, time.Minute), printer: numberPrinter()}
}

func numberPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// barRenderer shows a live bar, or a spinner when the duration is unknown.
type barRenderer struct {
	bar     *progressbar.ProgressBar
	printer *message.Printer
}

func newBarRenderer(out io.Writer, determinate bool) *barRenderer {
	total := 100
	if !determinate {
		total = -1
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("encoding"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &barRenderer{bar: bar, printer: numberPrinter()}
}

func (r *barRenderer) Update(u encoding.ProgressUpdate) {
	r.bar.Describe(statusLine(r.printer, u))
	if u.Determinate() {
		_ = r.bar.Set(int(u.Percent))
		return
	}
	_ = r.bar.Add(1)
}

func (r *barRenderer) Finish() {
	_ = r.bar.Finish()
}

// lineRenderer prints one line per 5% step, or per elapsed minute when the
// duration is unknown.
type lineRenderer struct {
	out     io.Writer
	sampler *logging.ProgressSampler
	printer *message.Printer
}

func (r *lineRenderer) Update(u encoding.ProgressUpdate) {
	if !r.sampler.Sample(u.Percent, u.Elapsed) {
		return
	}
	if u.Determinate() {
		fmt.Fprintf(r.out, "%s | %s\n", u.Summary(), statusLine(r.printer, u))
		return
	}
	fmt.Fprintln(r.out, statusLine(r.printer, u))
}

func (r *lineRenderer) Finish() {}

// statusLine is ProgressUpdate.StatusLine with grouped frame counts.
func statusLine(p *message.Printer, u encoding.ProgressUpdate) string {
	return p.Sprintf("frame: %d, fps: %.2f, time: %s, speed: %.2f",
		u.Frame, u.FPS, encoding.FormatClock(u.Elapsed), u.Speed)
}
