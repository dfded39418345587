package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/pipeline/scene"
)

type fixedCompleter struct {
	response string
	err      error
}

func (c *fixedCompleter) CompleteText(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return c.response, c.err
}

func TestPromptTemplate(t *testing.T) {
	for _, name := range []string{PromptScriptSystem, PromptScriptReview, PromptScenePlan, PromptSceneRepair} {
		if _, err := PromptTemplate(name); err != nil {
			t.Errorf("PromptTemplate(%q) error = %v", name, err)
		}
	}
	_, err := PromptTemplate("no-such-template")
	if err == nil {
		t.Fatal("PromptTemplate() expected error for unknown name")
	}
	var fault *scene.ContractFaultError
	if !errors.As(err, &fault) {
		t.Errorf("PromptTemplate() error = %v, want a contract fault", err)
	}
}

func TestLLMProxyURL(t *testing.T) {
	origLLM, origOutbound := config.LLMProxyURL, config.OutboundProxyURL
	defer func() { config.LLMProxyURL, config.OutboundProxyURL = origLLM, origOutbound }()

	config.LLMProxyURL = ""
	config.OutboundProxyURL = "http://proxy:8080"
	if got := llmProxyURL(); got != "http://proxy:8080" {
		t.Errorf("llmProxyURL() = %q, want the shared outbound proxy", got)
	}

	config.LLMProxyURL = "socks5://llm-proxy:1080"
	if got := llmProxyURL(); got != "socks5://llm-proxy:1080" {
		t.Errorf("llmProxyURL() = %q, want the dedicated proxy", got)
	}
}

func TestCompleteJSON(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		c := &fixedCompleter{response: `{"scenes":[{"index":0,"narration":"n","clip_id":"c1"}]}`}
		var plan scene.Plan
		if err := CompleteJSON(context.Background(), c, "s", "u", &plan); err != nil {
			t.Fatalf("CompleteJSON() error = %v", err)
		}
		if len(plan.Scenes) != 1 || plan.Scenes[0].ClipId != "c1" {
			t.Errorf("plan = %+v", plan)
		}
	})

	t.Run("object wrapped in prose", func(t *testing.T) {
		c := &fixedCompleter{response: "Here is the plan you asked for:\n```json\n{\"scenes\":[{\"index\":0,\"narration\":\"n\",\"clip_id\":\"c1\"}]}\n```\nLet me know!"}
		var plan scene.Plan
		if err := CompleteJSON(context.Background(), c, "s", "u", &plan); err != nil {
			t.Fatalf("CompleteJSON() error = %v", err)
		}
		if len(plan.Scenes) != 1 {
			t.Errorf("plan = %+v", plan)
		}
	})

	t.Run("no json at all", func(t *testing.T) {
		c := &fixedCompleter{response: "I cannot help with that."}
		var plan scene.Plan
		err := CompleteJSON(context.Background(), c, "s", "u", &plan)
		if err == nil {
			t.Fatal("CompleteJSON() expected error for JSON-free response")
		}
		var fault *scene.ContractFaultError
		if !errors.As(err, &fault) {
			t.Errorf("CompleteJSON() error = %v, want a contract fault", err)
		}
	})

	t.Run("provider error passes through", func(t *testing.T) {
		c := &fixedCompleter{err: errors.New("rate limited")}
		var plan scene.Plan
		if err := CompleteJSON(context.Background(), c, "s", "u", &plan); err == nil {
			t.Error("CompleteJSON() expected provider error")
		}
	})
}

func TestGeneratePlanRejectsEmptyPlan(t *testing.T) {
	c := &fixedCompleter{response: `{"scenes":[]}`}
	if _, err := GeneratePlan(context.Background(), c, "script", nil); err == nil {
		t.Error("GeneratePlan() expected error for empty scene list")
	}
}

func TestCountTokenTextApproximation(t *testing.T) {
	// without an initialized encoder the count falls back to the character
	// approximation
	text := "some reasonably sized narration text"
	if got := CountTokenText(text); got <= 0 {
		t.Errorf("CountTokenText(%q) = %d, want > 0", text, got)
	}
	if CountTokenText("") != 0 {
		t.Error("CountTokenText of empty text should be 0")
	}
}
