package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/creatomate"
	"github.com/reelforge/reelforge/pipeline/scene"
	"github.com/reelforge/reelforge/pipeline/template"
	"github.com/reelforge/reelforge/pipeline/validation"
)

// memStore is an in-memory Store recording every transition.
type memStore struct {
	mu sync.Mutex

	created    []*model.GenerationRequest
	processing []string

	submitted         bool
	submittedScriptId string
	submittedRenderId string
	submittedScript   string
	failed            bool
	failureMessage    string
	terminalWriteWins bool

	scripts        map[string]*model.Script
	deletedScripts []string
	clips          []*model.Clip
	samples        []*model.TrainingSample
	usageCalls     int

	// persistence ops whose context carried no deadline
	unboundedOps []string
}

func (s *memStore) noteCtx(op string, ctx context.Context) {
	if _, ok := ctx.Deadline(); !ok {
		s.unboundedOps = append(s.unboundedOps, op)
	}
}

func newMemStore() *memStore {
	return &memStore{
		terminalWriteWins: true,
		scripts:           map[string]*model.Script{},
		clips: []*model.Clip{
			{Id: "c1", Title: "City", Url: "https://cdn.example.com/c1.mp4", Duration: 10},
		},
	}
}

func (s *memStore) CreateRequest(ctx context.Context, request *model.GenerationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("CreateRequest", ctx)
	s.created = append(s.created, request)
	return nil
}

func (s *memStore) MarkProcessing(ctx context.Context, id string, startedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("MarkProcessing", ctx)
	s.processing = append(s.processing, id)
	return nil
}

func (s *memStore) MarkSubmitted(ctx context.Context, id string, scriptId string, renderId string, scriptText string, renderTemplate string, completedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("MarkSubmitted", ctx)
	if !s.terminalWriteWins || s.failed {
		return false, nil
	}
	s.submitted = true
	s.submittedScriptId = scriptId
	s.submittedRenderId = renderId
	s.submittedScript = scriptText
	return true, nil
}

func (s *memStore) MarkFailed(ctx context.Context, id string, errorMessage string, completedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("MarkFailed", ctx)
	if !s.terminalWriteWins || s.submitted {
		return false, nil
	}
	s.failed = true
	s.failureMessage = errorMessage
	return true, nil
}

func (s *memStore) SaveScript(ctx context.Context, script *model.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("SaveScript", ctx)
	s.scripts[script.Id] = script
	return nil
}

func (s *memStore) DeleteScript(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("DeleteScript", ctx)
	s.deletedScripts = append(s.deletedScripts, id)
	delete(s.scripts, id)
	return nil
}

func (s *memStore) ClipsByIds(ctx context.Context, ids []string) ([]*model.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("ClipsByIds", ctx)
	return s.clips, nil
}

func (s *memStore) SaveTrainingSample(ctx context.Context, sample *model.TrainingSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("SaveTrainingSample", ctx)
	s.samples = append(s.samples, sample)
	return nil
}

func (s *memStore) RecordTokenUsage(ctx context.Context, userId int, requestId string, promptTokens int, completionTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteCtx("RecordTokenUsage", ctx)
	s.usageCalls++
}

// scriptedCompleter pops canned responses in call order.
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (c *scriptedCompleter) CompleteText(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("scriptedCompleter exhausted")
	}
	response := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return response, nil
}

type stubRenderer struct {
	renderId string
	err      error
	meta     *creatomate.Metadata
}

func (r *stubRenderer) Submit(ctx context.Context, tmpl *template.RenderTemplate, meta *creatomate.Metadata) (string, error) {
	r.meta = meta
	if r.err != nil {
		return "", r.err
	}
	return r.renderId, nil
}

const fittingPlanJSON = `{"scenes":[{"index":0,"narration":"short narration here","clip_id":"c1"}]}`

func testPayload() *validation.Payload {
	return &validation.Payload{
		Prompt: "A video about cities",
		SelectedClips: []validation.ClipRef{
			{Id: "c1", Title: "City", Url: "https://cdn.example.com/c1.mp4", Tags: []string{"city"}},
		},
		OutputLanguage: "en",
		VoiceId:        "voice-1",
	}
}

func testRequest() *model.GenerationRequest {
	return &model.GenerationRequest{Id: "req-1", UserId: 7, Status: model.RequestStatusQueued}
}

func TestRunSuccess(t *testing.T) {
	store := newMemStore()
	completer := &scriptedCompleter{responses: []string{"draft script", "refined script", fittingPlanJSON}}
	renderer := &stubRenderer{renderId: "render-1"}
	g := &Generator{Store: store, Completer: completer, Renderer: renderer}

	g.run(context.Background(), testRequest(), testPayload())

	if !store.submitted {
		t.Fatalf("request not submitted; failed=%v message=%q", store.failed, store.failureMessage)
	}
	if store.submittedRenderId != "render-1" {
		t.Errorf("render id = %q, want render-1", store.submittedRenderId)
	}
	if store.submittedScript != "refined script" {
		t.Errorf("script = %q, want the reviewed draft", store.submittedScript)
	}
	if len(store.scripts) != 1 {
		t.Errorf("expected one stored script, got %d", len(store.scripts))
	}
	if len(store.deletedScripts) != 0 {
		t.Errorf("success path must not delete scripts, got %v", store.deletedScripts)
	}
	if store.usageCalls != 1 {
		t.Errorf("usage recorded %d times, want 1", store.usageCalls)
	}
	if renderer.meta == nil || renderer.meta.RequestId != "req-1" || renderer.meta.UserId != 7 {
		t.Errorf("render metadata = %+v, want correlation ids", renderer.meta)
	}
	if len(store.unboundedOps) != 0 {
		t.Errorf("persistence ops without a deadline: %v", store.unboundedOps)
	}
}

func TestRunScriptStageFailure(t *testing.T) {
	store := newMemStore()
	completer := &scriptedCompleter{err: errors.New("provider unavailable")}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{renderId: "render-1"}}

	g.run(context.Background(), testRequest(), testPayload())

	if !store.failed {
		t.Fatal("request should be failed")
	}
	if store.submitted {
		t.Error("failed request must not also be submitted")
	}
	if len(store.scripts) != 0 || len(store.deletedScripts) != 0 {
		t.Error("script stage failure must not persist scripts")
	}
	if store.usageCalls != 0 {
		t.Error("no usage on failure")
	}
}

func TestRunRenderFailureCleansUpScript(t *testing.T) {
	store := newMemStore()
	completer := &scriptedCompleter{responses: []string{"draft", "refined", fittingPlanJSON}}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{err: errors.New("renderer down")}, CaptureTraining: true}

	g.run(context.Background(), testRequest(), testPayload())

	if !store.failed {
		t.Fatal("request should be failed")
	}
	if len(store.deletedScripts) != 1 {
		t.Errorf("orphaned script should be cleaned up, deleted=%v", store.deletedScripts)
	}
	if len(store.scripts) != 0 {
		t.Error("script row should be gone after cleanup")
	}

	// capture fires once the template validates, ahead of render
	// submission, so a renderer outage must not lose the sample
	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		captured := len(store.samples)
		store.mu.Unlock()
		if captured == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("captured %d training samples, want 1", captured)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunLosingTerminalWriteDiscardsResult(t *testing.T) {
	store := newMemStore()
	store.terminalWriteWins = false
	completer := &scriptedCompleter{responses: []string{"draft", "refined", fittingPlanJSON}}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{renderId: "render-1"}}

	g.run(context.Background(), testRequest(), testPayload())

	if store.submitted || store.failed {
		t.Error("losing writer must not set terminal state")
	}
	if len(store.deletedScripts) != 1 {
		t.Error("losing writer should clean up its script row")
	}
	if store.usageCalls != 0 {
		t.Error("losing writer must not record usage")
	}
}

func TestRunRepairBudgetExhaustion(t *testing.T) {
	// plan whose 20-word narration can never fit the 10s clip, and a
	// repairer that returns the same overflowing plan every round
	overflowing := `{"scenes":[{"index":0,"narration":"w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 w11 w12 w13 w14 w15 w16 w17 w18 w19 w20","clip_id":"c1"}]}`
	store := newMemStore()
	completer := &scriptedCompleter{responses: []string{"draft", "refined", overflowing}}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{renderId: "render-1"}}

	g.run(context.Background(), testRequest(), testPayload())

	if !store.failed {
		t.Fatal("request should fail after the repair budget")
	}
	if !strings.Contains(store.failureMessage, CodeRepairBudget) {
		t.Errorf("failure message %q should carry %s", store.failureMessage, CodeRepairBudget)
	}
}

func TestSubmitCreatesQueuedRequest(t *testing.T) {
	store := newMemStore()
	completer := &scriptedCompleter{responses: []string{"draft", "refined", fittingPlanJSON}}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{renderId: "render-1"}}

	result, err := g.Submit(context.Background(), 7, testPayload())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != model.RequestStatusQueued {
		t.Errorf("Status = %q, want queued", result.Status)
	}
	if result.RequestId == "" {
		t.Error("RequestId must be set")
	}
	if result.EstimatedCompletion <= time.Now().Unix() {
		t.Error("EstimatedCompletion should be in the future")
	}

	store.mu.Lock()
	created := len(store.created)
	var record *model.GenerationRequest
	if created > 0 {
		record = store.created[0]
	}
	store.mu.Unlock()
	if created != 1 {
		t.Fatalf("created %d records, want 1", created)
	}
	if record.Status != model.RequestStatusQueued || record.UserId != 7 {
		t.Errorf("record = %+v", record)
	}
	if record.Prompt != "A video about cities" {
		t.Errorf("Prompt = %q", record.Prompt)
	}

	// the background pipeline runs on its own goroutine; wait for a
	// terminal state before the test process exits
	deadline := time.After(5 * time.Second)
	for {
		store.mu.Lock()
		done := store.submitted || store.failed
		store.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pipeline never reached a terminal state")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestClassifyStageError(t *testing.T) {
	t.Run("deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		staged := classifyStageError(ctx, StageScript, errors.New("request aborted"))
		if staged.Code != CodeTimeout || !staged.Retryable {
			t.Errorf("staged = %+v, want retryable timeout", staged)
		}
		if staged.Stage != StageScript {
			t.Errorf("Stage = %q", staged.Stage)
		}
	})

	t.Run("plain dependency failure", func(t *testing.T) {
		staged := classifyStageError(context.Background(), StageRender, errors.New("502"))
		if staged.Code != CodeDependency || !staged.Retryable {
			t.Errorf("staged = %+v, want retryable dependency", staged)
		}
	})

	t.Run("contract fault", func(t *testing.T) {
		fault := &scene.ContractFaultError{Err: errors.New("prompt template not found: scene-plan")}
		staged := classifyStageError(context.Background(), StagePlan, fault)
		if staged.Code != CodeContractFault || staged.Retryable {
			t.Errorf("staged = %+v, want non-retryable contract fault", staged)
		}
	})
}

func TestRunContractFaultIsNotRetryable(t *testing.T) {
	// plan responses that never contain JSON break the provider contract:
	// the run must fail as a contract fault, not a dependency failure
	store := newMemStore()
	completer := &scriptedCompleter{responses: []string{"draft", "refined", "no json here"}}
	g := &Generator{Store: store, Completer: completer, Renderer: &stubRenderer{renderId: "render-1"}}

	g.run(context.Background(), testRequest(), testPayload())

	if !store.failed {
		t.Fatal("request should be failed")
	}
	if !strings.Contains(store.failureMessage, CodeContractFault) {
		t.Errorf("failure message %q should carry %s", store.failureMessage, CodeContractFault)
	}
}
