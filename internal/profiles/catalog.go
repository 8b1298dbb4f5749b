package profiles

import (
	"errors"
	"fmt"
	"strings"

	"squeeze/internal/services"
)

// KeepWidth is the Profile.Width sentinel meaning "leave the source width alone".
const KeepWidth = -1

// ErrNotFound is returned when a profile name is not in the catalog.
var ErrNotFound = errors.New("profile not found")

// Profile is a named bundle of encode parameters.
type Profile struct {
	// Key is the stable identifier (e.g. "H264_480p"); Name is the display name.
	Key       string
	Name      string
	Codec     string
	Extension string
	Width     int
	Quality   int
	Preset    PresetSpeed
}

// KeepsWidth reports whether the profile leaves the source width unchanged.
func (p Profile) KeepsWidth() bool {
	return p.Width == KeepWidth
}

var catalog = [...]Profile{
	{Key: "H264_REENCODE", Name: "H264 ReEncode (Default)", Quality: 24, Width: KeepWidth, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
	{Key: "H264_240p", Name: "H264 240p", Quality: 35, Width: 240, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
	{Key: "H264_360p", Name: "H264 360p", Quality: 30, Width: 360, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
	{Key: "H264_480p", Name: "H264 480p", Quality: 24, Width: 480, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
	{Key: "H264_720p", Name: "H264 720p", Quality: 24, Width: 720, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
	{Key: "H264_1080p", Name: "H264 1080p", Quality: 24, Width: 1080, Codec: "libx264", Extension: "mp4", Preset: PresetMedium},
}

// Default returns the profile selected when the caller names none.
func Default() Profile {
	return catalog[0]
}

// All returns a copy of the catalog in menu order.
func All() []Profile {
	out := make([]Profile, len(catalog))
	copy(out, catalog[:])
	return out
}

// Names returns profile display names in menu order.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p.Name)
	}
	return out
}

// Lookup finds a profile by display name (exact) or key (case-insensitive).
func Lookup(name string) (Profile, error) {
	trimmed := strings.TrimSpace(name)
	for _, p := range catalog {
		if p.Name == trimmed {
			return p, nil
		}
	}
	for _, p := range catalog {
		if strings.EqualFold(p.Key, trimmed) {
			return p, nil
		}
	}
	return Profile{}, services.Wrap(
		services.ErrNotFound,
		"profiles",
		"lookup",
		fmt.Sprintf("unknown profile %q", name),
		ErrNotFound,
	)
}
