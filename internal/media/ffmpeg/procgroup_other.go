//go:build !unix

package ffmpeg

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func interruptGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessDone
	}
	// Interrupt is not deliverable on every platform; stop the encoder outright.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessDone
	}
	return cmd.Process.Kill()
}
