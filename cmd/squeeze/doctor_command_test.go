//go:build unix

package main

import (
	"testing"
)

const ffmpegDoctorStub = `case "$1" in
-version) echo "ffmpeg version 7.1 Copyright (c) the FFmpeg developers" ;;
-hide_banner) printf ' V....D libx264              libx264 H.264\n' ;;
esac
`

func TestDoctorReportsAvailableTools(t *testing.T) {
	env := setupCLITestEnv(t)
	env.stubFFmpeg(t, ffmpegDoctorStub)
	env.stubFFprobe(t, "echo 'ffprobe version 7.1'\n")

	out, _, err := runCLI(t, env.configPath, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK] ffmpeg version 7.1")
	requireContains(t, out, "[OK] ffprobe version 7.1")
	requireContains(t, out, "libx264:")
}

func TestDoctorFailsWhenEncoderMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.stubFFmpeg(t, "echo 'ffmpeg version 7.1'\n")
	env.stubFFprobe(t, "echo 'ffprobe version 7.1'\n")

	out, _, err := runCLI(t, env.configPath, "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail\n%s", out)
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, `ffmpeg lacks encoder "libx264"`)
}

func TestDoctorFailsWhenBinaryMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Encoder.FFprobeBinary = "definitely-not-ffprobe"
	env.writeConfig(t)
	env.stubFFmpeg(t, ffmpegDoctorStub)

	out, _, err := runCLI(t, env.configPath, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, `binary "definitely-not-ffprobe" not found`)
}
