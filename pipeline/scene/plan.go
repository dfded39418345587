package scene

import (
	"fmt"
	"strings"
)

// Clip is the resolved view of a library clip that the planner can draw on.
type Clip struct {
	Id       string   `json:"id"`
	Title    string   `json:"title"`
	Url      string   `json:"url"`
	Tags     []string `json:"tags"`
	Duration float64  `json:"duration"` // seconds
}

// Scene is one planned segment: narration over a (possibly trimmed) clip.
type Scene struct {
	Index        int      `json:"index"`
	Narration    string   `json:"narration"`
	ClipId       string   `json:"clip_id"`
	ClipUrl      string   `json:"clip_url,omitempty"`
	TrimStart    *float64 `json:"trim_start,omitempty"`
	TrimDuration *float64 `json:"trim_duration,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// Plan is an ordered scene sequence as produced by the LLM planner. Repair
// rounds replace the whole plan, never individual fields.
type Plan struct {
	Scenes []Scene `json:"scenes"`
}

// Validate enforces the planner's response schema: at least one scene, each
// with narration and a clip reference. Indexes are normalized to position.
func (p *Plan) Validate() error {
	if p == nil || len(p.Scenes) == 0 {
		return fmt.Errorf("scene plan has no scenes")
	}
	for i := range p.Scenes {
		if strings.TrimSpace(p.Scenes[i].Narration) == "" {
			return fmt.Errorf("scene %d has empty narration", i)
		}
		if p.Scenes[i].ClipId == "" && p.Scenes[i].ClipUrl == "" {
			return fmt.Errorf("scene %d has no clip reference", i)
		}
		p.Scenes[i].Index = i
	}
	return nil
}

// FindClip looks a clip up by id among the known clips.
func FindClip(clips []Clip, id string) (*Clip, bool) {
	for i := range clips {
		if clips[i].Id == id {
			return &clips[i], true
		}
	}
	return nil, false
}
