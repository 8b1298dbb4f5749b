package profiles

import (
	"fmt"
	"strings"

	"squeeze/internal/services"
)

// PresetSpeed is an x264-style speed/efficiency tradeoff level.
type PresetSpeed int

// Preset speeds ordered fastest to slowest.
const (
	PresetUltrafast PresetSpeed = iota
	PresetSuperfast
	PresetVeryfast
	PresetFaster
	PresetFast
	PresetMedium
	PresetSlow
	PresetSlower
	PresetVeryslow
)

var presetNames = [...]string{
	PresetUltrafast: "ultrafast",
	PresetSuperfast: "superfast",
	PresetVeryfast:  "veryfast",
	PresetFaster:    "faster",
	PresetFast:      "fast",
	PresetMedium:    "medium",
	PresetSlow:      "slow",
	PresetSlower:    "slower",
	PresetVeryslow:  "veryslow",
}

// String returns the encoder-facing preset name.
func (p PresetSpeed) String() string {
	if !p.Valid() {
		return fmt.Sprintf("preset(%d)", int(p))
	}
	return presetNames[p]
}

// Valid reports whether p is one of the catalog presets.
func (p PresetSpeed) Valid() bool {
	return p >= PresetUltrafast && int(p) < len(presetNames)
}

// Presets returns every preset speed, fastest first.
func Presets() []PresetSpeed {
	out := make([]PresetSpeed, len(presetNames))
	for i := range presetNames {
		out[i] = PresetSpeed(i)
	}
	return out
}

// PresetNames returns the preset names, fastest first.
func PresetNames() []string {
	out := make([]string, len(presetNames))
	copy(out, presetNames[:])
	return out
}

// ParsePreset looks up a preset by its name (case-insensitive).
func ParsePreset(name string) (PresetSpeed, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range presetNames {
		if candidate == trimmed {
			return PresetSpeed(i), nil
		}
	}
	return 0, services.Wrap(
		services.ErrValidation,
		"profiles",
		"parse preset",
		fmt.Sprintf("unknown preset %q (valid: %s)", name, strings.Join(presetNames[:], ", ")),
		ErrInvalidPreset,
	)
}
