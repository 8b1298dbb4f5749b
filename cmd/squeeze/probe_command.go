package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squeeze/internal/config"
	"squeeze/internal/encoding"
	"squeeze/internal/media/ffprobe"
)

const probeTimeout = 30 * time.Second

type probeJSON struct {
	Path            string  `json:"path"`
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"duration_seconds"`
	Duration        string  `json:"duration"`
	BitRate         int64   `json:"bit_rate"`
	SizeBytes       int64   `json:"size_bytes"`
	StreamCount     int     `json:"stream_count"`
	VideoStreams    int     `json:"video_streams"`
	AudioStreams    int     `json:"audio_streams"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var raw bool
	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show container format, duration, bitrate, and streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			probeCtx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			defer cancel()
			result, err := ffprobe.Inspect(probeCtx, cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err := out.Write(result.RawJSON())
				return err
			}
			info := encoding.SourceInfoFromProbe(result)
			if asJSON {
				return writeJSON(cmd, probeJSON{
					Path:            path,
					Format:          info.Format,
					DurationSeconds: info.DurationSeconds,
					Duration:        encoding.FormatClock(result.Duration()),
					BitRate:         info.BitRate,
					SizeBytes:       result.SizeBytes(),
					StreamCount:     info.StreamCount,
					VideoStreams:    result.VideoStreamCount(),
					AudioStreams:    result.AudioStreamCount(),
				})
			}

			summary := tableView{
				Title:   path,
				Headers: []string{"Field", "Value"},
				Rows: [][]string{
					{"Format", info.Format},
					{"Duration", encoding.FormatClock(result.Duration())},
					{"Bitrate", formatBitRate(info.BitRate)},
					{"Size", formatSize(result.SizeBytes())},
					{"Streams", strconv.Itoa(info.StreamCount)},
				},
			}
			fmt.Fprintln(out, summary.render())

			if len(result.Streams) > 0 {
				fmt.Fprintln(out, streamTable(result.Streams).render())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output a JSON summary")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the unmodified ffprobe JSON")
	return cmd
}

func streamTable(streams []ffprobe.Stream) tableView {
	rows := make([][]string, 0, len(streams))
	for _, s := range streams {
		detail := ""
		switch s.CodecType {
		case "video":
			detail = fmt.Sprintf("%dx%d", s.Width, s.Height)
			if fps := s.FramesPerSecond(); fps > 0 {
				detail += fmt.Sprintf(" @ %.3g fps", fps)
			}
		case "audio":
			if s.Channels > 0 {
				detail = fmt.Sprintf("%d ch", s.Channels)
			}
			if s.SampleRate != "" {
				detail += " " + s.SampleRate + " Hz"
			}
		}
		rows = append(rows, []string{strconv.Itoa(s.Index), s.CodecType, s.CodecName, strings.TrimSpace(detail)})
	}
	return tableView{
		Headers:      []string{"#", "Type", "Codec", "Detail"},
		Rows:         rows,
		RightAligned: []int{0},
	}
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(bytes))
}

func formatBitRate(bitsPerSecond int64) string {
	if bitsPerSecond <= 0 {
		return "unknown"
	}
	return humanize.SIWithDigits(float64(bitsPerSecond), 1, "bit/s")
}
