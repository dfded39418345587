package scene

import "strings"

// SecondsPerWord is the empirical speech-rate constant shared with the
// planner prompts, so narration estimates stay consistent across components.
const SecondsPerWord = 0.7

// SafetyMargin leaves 5% headroom between the narration and the clip end.
const SafetyMargin = 0.95

// DurationViolation is an ephemeral record of one scene whose narration does
// not fit its clip. Produced fresh each validation pass; consumed only by the
// repair prompt formatter.
type DurationViolation struct {
	SceneIndex        int     `json:"scene_index"`
	EstimatedDuration float64 `json:"estimated_duration"`
	ClipDuration      float64 `json:"clip_duration"`
	Overage           float64 `json:"overage"`
}

// EstimateNarrationDuration estimates spoken duration from the whitespace
// word count.
func EstimateNarrationDuration(narration string) float64 {
	return float64(len(strings.Fields(narration))) * SecondsPerWord
}

// ResolveClipDuration picks the scene's explicit trim duration when present,
// falling back to the referenced clip's full duration. Returns false when no
// duration can be resolved.
func ResolveClipDuration(s *Scene, clips []Clip) (float64, bool) {
	if s.TrimDuration != nil && *s.TrimDuration > 0 {
		return *s.TrimDuration, true
	}
	clip, ok := FindClip(clips, s.ClipId)
	if !ok || clip.Duration <= 0 {
		return 0, false
	}
	return clip.Duration, true
}

// ValidateDurations is a pure pass over the plan: deterministic, no side
// effects, safe to call repeatedly. Scenes whose clip duration cannot be
// resolved are skipped; absence of information is not a violation.
func ValidateDurations(plan *Plan, clips []Clip) []DurationViolation {
	var violations []DurationViolation
	for i := range plan.Scenes {
		s := &plan.Scenes[i]
		clipDuration, ok := ResolveClipDuration(s, clips)
		if !ok {
			continue
		}
		estimated := EstimateNarrationDuration(s.Narration)
		maxAllowed := clipDuration * SafetyMargin
		if estimated > maxAllowed {
			violations = append(violations, DurationViolation{
				SceneIndex:        s.Index,
				EstimatedDuration: estimated,
				ClipDuration:      clipDuration,
				Overage:           estimated - maxAllowed,
			})
		}
	}
	return violations
}
