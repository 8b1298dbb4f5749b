package profiles

import (
	"errors"
	"fmt"

	"squeeze/internal/services"
)

// Quality bounds follow the x264/x265 constant-rate-factor scale.
const (
	MinQuality = 0
	MaxQuality = 51
)

var (
	// ErrInvalidQuality is returned when a quality override falls outside [MinQuality, MaxQuality].
	ErrInvalidQuality = errors.New("invalid quality")
	// ErrInvalidPreset is returned for preset values outside the catalog.
	ErrInvalidPreset = errors.New("invalid preset")
)

// EncodeSpec is the fully resolved parameter set for one job. It is a value
// type; holders keep their own copy.
type EncodeSpec struct {
	Codec     string
	Extension string
	Width     int
	Quality   int
	Preset    PresetSpeed
}

// KeepsWidth reports whether the encode leaves the source width unchanged.
func (s EncodeSpec) KeepsWidth() bool {
	return s.Width == KeepWidth
}

// Resolve combines a profile with optional quality and preset overrides.
// Codec, extension, and width always come from the profile.
func Resolve(p Profile, quality *int, preset *PresetSpeed) (EncodeSpec, error) {
	spec := EncodeSpec{
		Codec:     p.Codec,
		Extension: p.Extension,
		Width:     p.Width,
		Quality:   p.Quality,
		Preset:    p.Preset,
	}
	if quality != nil {
		if *quality < MinQuality || *quality > MaxQuality {
			return EncodeSpec{}, services.Wrap(
				services.ErrValidation,
				"profiles",
				"resolve",
				fmt.Sprintf("quality %d outside %d-%d", *quality, MinQuality, MaxQuality),
				ErrInvalidQuality,
			)
		}
		spec.Quality = *quality
	}
	if preset != nil {
		if !preset.Valid() {
			return EncodeSpec{}, services.Wrap(
				services.ErrValidation,
				"profiles",
				"resolve",
				fmt.Sprintf("preset %d is not a catalog preset", int(*preset)),
				ErrInvalidPreset,
			)
		}
		spec.Preset = *preset
	}
	return spec, nil
}
