package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/pipeline/scene"
	"github.com/reelforge/reelforge/pipeline/validation"
)

// Completer is the structured-completion seam: given a system and user
// prompt it returns the model's text. JSON extraction and schema validation
// happen on top of it, so stubs in tests stay trivial.
type Completer interface {
	CompleteText(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// llmProxyURL is the LLM-specific proxy when set, else the shared outbound
// proxy.
func llmProxyURL() string {
	if config.LLMProxyURL != "" {
		return config.LLMProxyURL
	}
	return config.OutboundProxyURL
}

// NewCompleter picks the configured provider.
func NewCompleter() (Completer, error) {
	switch config.LLMProvider {
	case "openai":
		return NewOpenAIClient(config.LLMBaseURL, config.LLMApiKey, config.LLMModel)
	case "bedrock":
		return NewBedrockClient(config.AwsRegion, config.BedrockModelId)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.LLMProvider)
	}
}

// CompleteJSON runs a completion and decodes the first JSON object of the
// response into out. A response without a JSON object, or one that does not
// decode, is a contract fault of the provider, not a content fault.
func CompleteJSON(ctx context.Context, c Completer, systemPrompt string, userPrompt string, out any) error {
	text, err := c.CompleteText(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}
	objects := common.ExtractJSONObjects(text)
	if len(objects) == 0 {
		return &scene.ContractFaultError{Err: errors.Errorf("LLM response contains no JSON object: %.120s", text)}
	}
	if err := json.Unmarshal([]byte(objects[0]), out); err != nil {
		return &scene.ContractFaultError{Err: errors.Wrap(err, "LLM response is not schema-conformant")}
	}
	return nil
}

// GenerateScript produces the narration script for a generation request and
// runs one review/refine round over it.
func GenerateScript(ctx context.Context, c Completer, payload *validation.Payload) (string, error) {
	systemPrompt, err := PromptTemplate(PromptScriptSystem)
	if err != nil {
		return "", err
	}
	if payload.SystemPrompt != "" {
		systemPrompt = systemPrompt + "\n\n" + payload.SystemPrompt
	}

	userPrompt := fmt.Sprintf("Topic: %s\nOutput language: %s\n%s",
		payload.Prompt, payload.OutputLanguage, formatEditorialProfile(payload.EditorialProfile))
	script, err := c.CompleteText(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", errors.Wrap(err, "script generation failed")
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return "", errors.New("script generation returned empty text")
	}

	reviewPrompt, err := PromptTemplate(PromptScriptReview)
	if err != nil {
		return "", err
	}
	refined, err := c.CompleteText(ctx, reviewPrompt, script)
	if err != nil {
		return "", errors.Wrap(err, "script review failed")
	}
	refined = strings.TrimSpace(refined)
	if refined == "" {
		// keep the original draft rather than failing the pipeline on a
		// review that produced nothing
		return script, nil
	}
	return refined, nil
}

// GeneratePlan asks the model to split the script into scenes over the
// supplied clips.
func GeneratePlan(ctx context.Context, c Completer, script string, clips []scene.Clip) (*scene.Plan, error) {
	systemPrompt, err := PromptTemplate(PromptScenePlan)
	if err != nil {
		return nil, err
	}
	userPrompt := fmt.Sprintf("Script:\n%s\n\nAvailable clips:\n%s", script, formatClips(clips))

	var plan scene.Plan
	if err := CompleteJSON(ctx, c, systemPrompt, userPrompt, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, &scene.ContractFaultError{Err: errors.Wrap(err, "scene plan is not schema-conformant")}
	}
	return &plan, nil
}

// PlanRepairer implements scene.Replanner on top of a Completer.
type PlanRepairer struct {
	Completer Completer
}

func (r *PlanRepairer) Replan(ctx context.Context, req *scene.RepairRequest) (*scene.Plan, error) {
	systemPrompt, err := PromptTemplate(PromptSceneRepair)
	if err != nil {
		return nil, err
	}
	currentPlan, err := json.Marshal(req.Plan)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode current plan")
	}
	userPrompt := fmt.Sprintf("Original script:\n%s\n\nAvailable clips:\n%s\nDuration problems:\n%s\nCurrent plan:\n%s",
		req.Script, formatClips(req.Clips), req.Feedback, string(currentPlan))

	var plan scene.Plan
	if err := CompleteJSON(ctx, r.Completer, systemPrompt, userPrompt, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func formatClips(clips []scene.Clip) string {
	var b strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&b, "- id=%s title=%q duration=%.1fs tags=%s\n",
			clip.Id, clip.Title, clip.Duration, strings.Join(clip.Tags, ","))
	}
	return b.String()
}

func formatEditorialProfile(profile *validation.EditorialProfile) string {
	if profile == nil {
		return ""
	}
	return fmt.Sprintf("Persona: %s\nTone of voice: %s\nAudience: %s\nStyle notes: %s",
		profile.PersonaDescription, profile.ToneOfVoice, profile.Audience, profile.StyleNotes)
}
