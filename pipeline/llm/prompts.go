package llm

import (
	"github.com/pkg/errors"
	"github.com/reelforge/reelforge/pipeline/scene"
)

const (
	PromptScriptSystem = "script-system"
	PromptScriptReview = "script-review"
	PromptScenePlan    = "scene-plan"
	PromptSceneRepair  = "scene-repair"
)

// promptTemplates is the registry of agent prompts keyed by name. A lookup
// miss is a fatal configuration fault of the pipeline, never retried.
var promptTemplates = map[string]string{
	PromptScriptSystem: `You write short-form vertical video narration scripts.
Write a punchy spoken-word script for the given topic in the requested output language.
Open with a hook in the first sentence. Keep sentences short. No scene directions,
no emoji, no hashtags, no markdown. Return only the script text.`,

	PromptScriptReview: `You review short-form video narration scripts.
Tighten the script you are given: remove filler, keep the hook, keep the language
it is written in. Return only the revised script text, nothing else.`,

	PromptScenePlan: `You split a narration script into scenes and match each scene to a video clip.
Use every sentence of the script exactly once, in order. For each scene pick the clip
whose content best matches the narration, and choose trim_start and trim_duration
within the clip's length. Narration must fit its clip: a scene's spoken duration is
roughly 0.7 seconds per word and must not exceed the clip (or trim) duration.
Respond with a single JSON object:
{"scenes":[{"index":0,"narration":"...","clip_id":"...","trim_start":0,"trim_duration":0,"reasoning":"..."}]}`,

	PromptSceneRepair: `You fix scene plans whose narration does not fit the assigned clips.
For each reported problem either shorten the narration, pick a longer clip, or widen
the trim window. Keep scenes that had no problem unchanged. Keep the script's meaning.
Respond with the full corrected plan as a single JSON object in the same schema as the
current plan.`,
}

// PromptTemplate returns the registered template for name.
func PromptTemplate(name string) (string, error) {
	tmpl, ok := promptTemplates[name]
	if !ok {
		return "", &scene.ContractFaultError{Err: errors.Errorf("prompt template not found: %s", name)}
	}
	return tmpl, nil
}
