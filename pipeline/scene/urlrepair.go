package scene

import (
	"fmt"
	"strings"
)

// RepairClipReferences reconciles every scene's clip reference against the
// known clip set. Planners sometimes allude to a clip by url or by title
// instead of its exact id; this pass substitutes the corrected reference.
// It runs exactly once after duration convergence — it is a normalization
// repair, not a reason to re-invoke the LLM — and fails only when no
// plausible match exists.
func RepairClipReferences(plan *Plan, clips []Clip) error {
	for i := range plan.Scenes {
		s := &plan.Scenes[i]

		if _, ok := FindClip(clips, s.ClipId); ok {
			if s.ClipUrl == "" {
				clip, _ := FindClip(clips, s.ClipId)
				s.ClipUrl = clip.Url
			}
			continue
		}

		if clip := matchClip(clips, s); clip != nil {
			s.ClipId = clip.Id
			s.ClipUrl = clip.Url
			continue
		}

		return fmt.Errorf("scene %d references unknown clip %q and no plausible match exists", s.Index, s.ClipId)
	}
	return nil
}

// matchClip tries url equality first, then a normalized title match against
// whatever identifier the planner used.
func matchClip(clips []Clip, s *Scene) *Clip {
	if s.ClipUrl != "" {
		for i := range clips {
			if clips[i].Url == s.ClipUrl {
				return &clips[i]
			}
		}
	}

	needle := normalizeTitle(s.ClipId)
	if needle == "" {
		return nil
	}
	for i := range clips {
		title := normalizeTitle(clips[i].Title)
		if title == needle || strings.Contains(title, needle) || strings.Contains(needle, title) {
			return &clips[i]
		}
	}
	return nil
}

func normalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
