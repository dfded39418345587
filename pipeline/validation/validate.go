package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error codes surfaced to API consumers. Validation failures are expected
// input, never faults, so every applicable rule runs and errors accumulate.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeEmptyValue           = "EMPTY_VALUE"
	CodeValueTooLong         = "VALUE_TOO_LONG"
	CodeInvalidType          = "INVALID_TYPE"
	CodeTooFewItems          = "TOO_FEW_ITEMS"
	CodeTooManyItems         = "TOO_MANY_ITEMS"
	CodeInvalidItem          = "INVALID_ITEM"
	CodeInvalidValue         = "INVALID_VALUE"
	CodeUnsupportedLanguage  = "UNSUPPORTED_LANGUAGE"
)

const (
	MaxPromptLength = 2000
	MinClips        = 1
	MaxClips        = 10
)

var SupportedLanguages = map[string]bool{
	"en": true,
	"es": true,
	"fr": true,
	"de": true,
	"it": true,
	"pt": true,
	"nl": true,
	"ja": true,
	"ko": true,
	"zh": true,
}

var CaptionPlacements = map[string]bool{
	"top":    true,
	"center": true,
	"bottom": true,
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ClipRef is one entry of the request's selected clip list.
type ClipRef struct {
	Id    string   `json:"id"`
	Title string   `json:"title"`
	Url   string   `json:"url"`
	Tags  []string `json:"tags"`
}

type EditorialProfile struct {
	PersonaDescription string `json:"persona_description"`
	ToneOfVoice        string `json:"tone_of_voice"`
	Audience           string `json:"audience"`
	StyleNotes         string `json:"style_notes"`
}

type CaptionConfig struct {
	Enabled   bool   `json:"enabled"`
	Placement string `json:"placement"`
}

// Payload is the normalized generation request handed to the orchestrator.
type Payload struct {
	Prompt           string            `json:"prompt"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	SelectedClips    []ClipRef         `json:"selected_clips"`
	EditorialProfile *EditorialProfile `json:"editorial_profile,omitempty"`
	CaptionConfig    *CaptionConfig    `json:"caption_config,omitempty"`
	OutputLanguage   string            `json:"output_language"`
	VoiceId          string            `json:"voice_id,omitempty"`
}

// Validate checks an untyped request body against every rule and returns
// either a normalized payload or the full ordered error list. It never
// panics on malformed input; malformed input is the expected case.
func Validate(body map[string]any) (*Payload, []FieldError) {
	var errs []FieldError
	payload := &Payload{}

	// prompt
	if raw, ok := body["prompt"]; !ok || raw == nil {
		errs = append(errs, FieldError{Field: "prompt", Code: CodeRequiredFieldMissing, Message: "prompt is required"})
	} else if prompt, ok := raw.(string); !ok {
		errs = append(errs, FieldError{Field: "prompt", Code: CodeInvalidType, Message: "prompt must be a string", Value: raw})
	} else {
		trimmed := strings.TrimSpace(prompt)
		if trimmed == "" {
			errs = append(errs, FieldError{Field: "prompt", Code: CodeEmptyValue, Message: "prompt must not be empty"})
		} else if utf8.RuneCountInString(trimmed) > MaxPromptLength {
			errs = append(errs, FieldError{Field: "prompt", Code: CodeValueTooLong,
				Message: fmt.Sprintf("prompt must be at most %d characters", MaxPromptLength)})
		} else {
			payload.Prompt = trimmed
		}
	}

	// system prompt (optional)
	if raw, ok := body["system_prompt"]; ok && raw != nil {
		if systemPrompt, ok := raw.(string); !ok {
			errs = append(errs, FieldError{Field: "system_prompt", Code: CodeInvalidType, Message: "system_prompt must be a string", Value: raw})
		} else {
			trimmed := strings.TrimSpace(systemPrompt)
			if utf8.RuneCountInString(trimmed) > MaxPromptLength {
				errs = append(errs, FieldError{Field: "system_prompt", Code: CodeValueTooLong,
					Message: fmt.Sprintf("system_prompt must be at most %d characters", MaxPromptLength)})
			} else {
				payload.SystemPrompt = trimmed
			}
		}
	}

	// selected clips
	if raw, ok := body["selected_clips"]; !ok || raw == nil {
		errs = append(errs, FieldError{Field: "selected_clips", Code: CodeRequiredFieldMissing, Message: "selected_clips is required"})
	} else if list, ok := raw.([]any); !ok {
		errs = append(errs, FieldError{Field: "selected_clips", Code: CodeInvalidType, Message: "selected_clips must be an array", Value: raw})
	} else {
		clips, clipErrs := validateClips(list)
		errs = append(errs, clipErrs...)
		payload.SelectedClips = clips
	}

	// editorial profile (optional)
	if raw, ok := body["editorial_profile"]; ok && raw != nil {
		profile, ok := parseEditorialProfile(raw)
		if !ok {
			errs = append(errs, FieldError{Field: "editorial_profile", Code: CodeInvalidValue,
				Message: "editorial_profile must contain persona_description, tone_of_voice, audience and style_notes as text", Value: raw})
		} else {
			payload.EditorialProfile = profile
		}
	}

	// caption config (optional)
	if raw, ok := body["caption_config"]; ok && raw != nil {
		captions, captionErrs := validateCaptionConfig(raw)
		errs = append(errs, captionErrs...)
		payload.CaptionConfig = captions
	}

	// output language
	if raw, ok := body["output_language"]; !ok || raw == nil {
		errs = append(errs, FieldError{Field: "output_language", Code: CodeRequiredFieldMissing, Message: "output_language is required"})
	} else if language, ok := raw.(string); !ok {
		errs = append(errs, FieldError{Field: "output_language", Code: CodeInvalidType, Message: "output_language must be a string", Value: raw})
	} else if !SupportedLanguages[language] {
		errs = append(errs, FieldError{Field: "output_language", Code: CodeUnsupportedLanguage,
			Message: fmt.Sprintf("output language %q is not supported", language), Value: language})
	} else {
		payload.OutputLanguage = language
	}

	// voice (optional)
	if raw, ok := body["voice_id"]; ok && raw != nil {
		if voice, ok := raw.(string); !ok {
			errs = append(errs, FieldError{Field: "voice_id", Code: CodeInvalidType, Message: "voice_id must be a string", Value: raw})
		} else if strings.TrimSpace(voice) == "" {
			errs = append(errs, FieldError{Field: "voice_id", Code: CodeEmptyValue, Message: "voice_id must not be empty"})
		} else {
			payload.VoiceId = voice
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return payload, nil
}

// validateClips checks cardinality and every entry independently, so callers
// see per-index errors rather than a single whole-array failure.
func validateClips(list []any) ([]ClipRef, []FieldError) {
	var errs []FieldError
	if len(list) < MinClips {
		errs = append(errs, FieldError{Field: "selected_clips", Code: CodeTooFewItems,
			Message: fmt.Sprintf("at least %d clip is required", MinClips)})
	}
	if len(list) > MaxClips {
		errs = append(errs, FieldError{Field: "selected_clips", Code: CodeTooManyItems,
			Message: fmt.Sprintf("at most %d clips are allowed", MaxClips)})
	}

	clips := make([]ClipRef, 0, len(list))
	for i, raw := range list {
		clip, ok := parseClipRef(raw)
		if !ok {
			errs = append(errs, FieldError{Field: fmt.Sprintf("selected_clips[%d]", i), Code: CodeInvalidItem,
				Message: "clip must have an id, a non-empty title, a url and a tag list", Value: raw})
			continue
		}
		clips = append(clips, *clip)
	}
	return clips, errs
}

func parseClipRef(raw any) (*ClipRef, bool) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	id, _ := entry["id"].(string)
	title, _ := entry["title"].(string)
	url, _ := entry["url"].(string)
	rawTags, tagsPresent := entry["tags"].([]any)
	if id == "" || strings.TrimSpace(title) == "" || url == "" || !tagsPresent {
		return nil, false
	}
	tags := make([]string, 0, len(rawTags))
	for _, t := range rawTags {
		tag, ok := t.(string)
		if !ok {
			return nil, false
		}
		tags = append(tags, tag)
	}
	return &ClipRef{Id: id, Title: title, Url: url, Tags: tags}, true
}

func parseEditorialProfile(raw any) (*EditorialProfile, bool) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	persona, _ := entry["persona_description"].(string)
	tone, _ := entry["tone_of_voice"].(string)
	audience, _ := entry["audience"].(string)
	style, _ := entry["style_notes"].(string)
	if persona == "" || tone == "" || audience == "" || style == "" {
		return nil, false
	}
	return &EditorialProfile{
		PersonaDescription: persona,
		ToneOfVoice:        tone,
		Audience:           audience,
		StyleNotes:         style,
	}, true
}

func validateCaptionConfig(raw any) (*CaptionConfig, []FieldError) {
	var errs []FieldError
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, []FieldError{{Field: "caption_config", Code: CodeInvalidType, Message: "caption_config must be an object", Value: raw}}
	}
	enabled, ok := entry["enabled"].(bool)
	if !ok {
		errs = append(errs, FieldError{Field: "caption_config.enabled", Code: CodeInvalidValue,
			Message: "caption_config.enabled must be a boolean", Value: entry["enabled"]})
	}
	placement, _ := entry["placement"].(string)
	if !CaptionPlacements[placement] {
		errs = append(errs, FieldError{Field: "caption_config.placement", Code: CodeInvalidValue,
			Message: "caption_config.placement must be one of top, center, bottom", Value: entry["placement"]})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &CaptionConfig{Enabled: enabled, Placement: placement}, nil
}
