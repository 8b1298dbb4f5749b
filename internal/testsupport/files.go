package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with size bytes of a repeating pattern. A
// size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ProgressBlock renders one ffmpeg -progress block for stub encoders.
func ProgressBlock(frame, outTimeUs int64, fps, speed string, final bool) string {
	marker := "continue"
	if final {
		marker = "end"
	}
	return fmt.Sprintf("frame=%d\nfps=%s\nout_time_us=%d\nspeed=%s\nprogress=%s\n",
		frame, fps, outTimeUs, speed, marker)
}
