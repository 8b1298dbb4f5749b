package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"squeeze/internal/deps"
	"squeeze/internal/profiles"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg, ffprobe, and the profile encoders are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			fmt.Fprintf(out, "Config: %s\n", ctx.displayConfigPath())
			fmt.Fprintln(out, "Binaries")
			failed := false
			binaries := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
			for _, status := range binaries {
				failed = printDependency(out, status, colorize) || failed
			}

			fmt.Fprintln(out, "Encoders")
			for _, status := range deps.CheckEncoders(cmd.Context(), cfg.FFmpegBinary(), profileCodecs()) {
				failed = printDependency(out, status, colorize) || failed
			}

			if failed {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}

// printDependency reports whether a required dependency is unavailable.
func printDependency(out io.Writer, status deps.Status, colorize bool) bool {
	switch {
	case status.Available:
		message := status.Command
		if status.Version != "" {
			message = status.Version
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, message, colorize))
		return false
	case status.Optional:
		fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
		return false
	default:
		fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
		return true
	}
}

func profileCodecs() []string {
	var codecs []string
	for _, p := range profiles.All() {
		if !slices.Contains(codecs, p.Codec) {
			codecs = append(codecs, p.Codec)
		}
	}
	return codecs
}
