package logging

import "time"

const (
	defaultPercentStep = 5
	defaultElapsedStep = time.Minute
	unsampled          = -1
)

// ProgressSampler thins a progress stream down to one report per percent
// step. Updates without a percentage fall back to one report per elapsed
// interval of encode time.
type ProgressSampler struct {
	percentStep float64
	elapsedStep time.Duration
	lastPercent int
	lastElapsed int
}

// NewProgressSampler returns a sampler; non-positive steps use 5% and one
// minute.
func NewProgressSampler(percentStep float64, elapsedStep time.Duration) *ProgressSampler {
	if percentStep <= 0 {
		percentStep = defaultPercentStep
	}
	if elapsedStep <= 0 {
		elapsedStep = defaultElapsedStep
	}
	return &ProgressSampler{
		percentStep: percentStep,
		elapsedStep: elapsedStep,
		lastPercent: unsampled,
		lastElapsed: unsampled,
	}
}

// Sample reports whether the update should be shown. A negative percent
// means the duration is unknown. A nil sampler keeps everything.
func (s *ProgressSampler) Sample(percent float64, elapsed time.Duration) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		bucket := int(max(elapsed, 0) / s.elapsedStep)
		if bucket <= s.lastElapsed {
			return false
		}
		s.lastElapsed = bucket
		return true
	}
	bucket := int(min(percent, 100) / s.percentStep)
	if bucket <= s.lastPercent {
		return false
	}
	s.lastPercent = bucket
	return true
}
