package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/creatomate"
	"github.com/reelforge/reelforge/pipeline/llm"
	"github.com/reelforge/reelforge/pipeline/scene"
	"github.com/reelforge/reelforge/pipeline/template"
	"github.com/reelforge/reelforge/pipeline/validation"
)

// Per-stage deadlines. A stage that overruns is abandoned: its context is
// canceled, the in-flight call unwinds, and the request fails with a timeout
// class error.
const (
	ScriptTimeout  = 60 * time.Second
	PlanTimeout    = 60 * time.Second
	RenderTimeout  = 120 * time.Second
	PersistTimeout = 30 * time.Second
)

// EstimatedCompletionOffset is what the submit response promises; it is an
// estimate for the client's polling cadence, not a deadline.
const EstimatedCompletionOffset = 3 * time.Minute

// Store is the persistence seam of the orchestrator. Every call runs under
// a PersistTimeout-capped context; implementations must honor it.
type Store interface {
	CreateRequest(ctx context.Context, request *model.GenerationRequest) error
	MarkProcessing(ctx context.Context, id string, startedAt int64) error
	MarkSubmitted(ctx context.Context, id string, scriptId string, renderId string, scriptText string, renderTemplate string, completedAt int64) (bool, error)
	MarkFailed(ctx context.Context, id string, errorMessage string, completedAt int64) (bool, error)
	SaveScript(ctx context.Context, script *model.Script) error
	DeleteScript(ctx context.Context, id string) error
	ClipsByIds(ctx context.Context, ids []string) ([]*model.Clip, error)
	SaveTrainingSample(ctx context.Context, sample *model.TrainingSample) error
	RecordTokenUsage(ctx context.Context, userId int, requestId string, promptTokens int, completionTokens int)
}

// withPersistTimeout caps one persistence operation.
func withPersistTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, PersistTimeout)
}

// Renderer submits a finished template for asynchronous rendering.
type Renderer interface {
	Submit(ctx context.Context, tmpl *template.RenderTemplate, meta *creatomate.Metadata) (string, error)
}

// Uploader stores training artifacts off-box.
type Uploader interface {
	UploadTrainingArtifact(ctx context.Context, id string, data []byte) (string, error)
}

// Generator runs the request pipeline: script, scene plan with duration
// repair, template assembly, render submission.
type Generator struct {
	Store     Store
	Completer llm.Completer
	Renderer  Renderer
	Uploader  Uploader

	// CaptureTraining enables fire-and-forget training-sample capture of
	// successful runs.
	CaptureTraining bool
}

// SubmitResult is the synchronous answer to a generation request.
type SubmitResult struct {
	RequestId           string `json:"request_id"`
	Status              string `json:"status"`
	EstimatedCompletion int64  `json:"estimated_completion"`
}

// Submit persists the queued request and starts the pipeline in the
// background. The incoming context only covers the enqueue; the pipeline
// runs on its own context so an early client disconnect cannot abort it.
func (g *Generator) Submit(ctx context.Context, userId int, payload *validation.Payload) (*SubmitResult, error) {
	request := &model.GenerationRequest{
		Id:        helper.GetUUID(),
		UserId:    userId,
		Status:    model.RequestStatusQueued,
		CreatedAt: helper.GetTimestamp(),
	}
	if err := copier.Copy(request, payload); err != nil {
		return nil, err
	}
	request.SelectedClips = mustJSON(payload.SelectedClips)
	if payload.CaptionConfig != nil {
		request.CaptionConfig = mustJSON(payload.CaptionConfig)
	}
	if payload.EditorialProfile != nil {
		request.EditorialProfile = mustJSON(payload.EditorialProfile)
	}

	createCtx, cancel := withPersistTimeout(ctx)
	err := g.Store.CreateRequest(createCtx, request)
	cancel()
	if err != nil {
		return nil, err
	}
	logger.Infof(ctx, "generation request %s queued for user %d", request.Id, userId)

	runCtx := context.WithValue(context.Background(), logger.RequestIdKey, request.Id)
	common.PipelineCtxGo(runCtx, func() {
		g.run(runCtx, request, payload)
	})

	return &SubmitResult{
		RequestId:           request.Id,
		Status:              model.RequestStatusQueued,
		EstimatedCompletion: time.Now().Add(EstimatedCompletionOffset).Unix(),
	}, nil
}

// run drives all stages and owns terminal-state writing. Every failure path
// funnels through fail(), and both terminal writers are guarded in the
// store, so exactly one terminal write sticks per request.
func (g *Generator) run(ctx context.Context, request *model.GenerationRequest, payload *validation.Payload) {
	markCtx, cancelMark := withPersistTimeout(ctx)
	err := g.Store.MarkProcessing(markCtx, request.Id, helper.GetTimestamp())
	cancelMark()
	if err != nil {
		// not in queued state anymore: a duplicate worker pickup, nothing to do
		logger.Warnf(ctx, "skipping generation request %s: %s", request.Id, err.Error())
		return
	}

	// stage 1: script
	script, promptTokens, err := g.runScriptStage(ctx, payload)
	if err != nil {
		g.fail(ctx, request, "", err)
		return
	}

	// stage 2: scene plan, duration repair, template
	clips := g.resolveClips(ctx, payload.SelectedClips)
	tmpl, plan, err := g.runPlanStage(ctx, script, clips, payload)
	if err != nil {
		g.fail(ctx, request, "", err)
		return
	}

	// stage 3: persist the script, then hand the template to the renderer
	scriptRecord := &model.Script{
		Id:        helper.GetUUID(),
		UserId:    request.UserId,
		RequestId: request.Id,
		Content:   script,
		Language:  payload.OutputLanguage,
		CreatedAt: helper.GetTimestamp(),
	}
	saveCtx, cancelSave := withPersistTimeout(ctx)
	err = g.Store.SaveScript(saveCtx, scriptRecord)
	cancelSave()
	if err != nil {
		g.fail(ctx, request, "", &StageError{Stage: StagePersist, Code: CodeDependency, Retryable: true, Err: err})
		return
	}

	templateJSON := mustJSON(tmpl)
	if g.CaptureTraining {
		g.captureTrainingSample(request, payload, script, templateJSON)
	}

	renderId, err := g.runRenderStage(ctx, request, tmpl)
	if err != nil {
		g.fail(ctx, request, scriptRecord.Id, err)
		return
	}

	// stage 4: terminal success write
	submitCtx, cancelSubmit := withPersistTimeout(ctx)
	won, err := g.Store.MarkSubmitted(submitCtx, request.Id, scriptRecord.Id, renderId, script, templateJSON, helper.GetTimestamp())
	cancelSubmit()
	if err != nil {
		g.fail(ctx, request, scriptRecord.Id, &StageError{Stage: StagePersist, Code: CodeDependency, Retryable: true, Err: err})
		return
	}
	if !won {
		// another writer reached a terminal state first; our render is an
		// orphan and the script record is no longer referenced
		logger.Warnf(ctx, "generation request %s already terminal, discarding render %s", request.Id, renderId)
		g.cleanupScript(ctx, scriptRecord.Id)
		return
	}
	logger.Infof(ctx, "generation request %s submitted, render %s pending", request.Id, renderId)

	completionTokens := llm.CountTokenText(script + mustJSON(plan))
	usageCtx, cancelUsage := withPersistTimeout(ctx)
	g.Store.RecordTokenUsage(usageCtx, request.UserId, request.Id, promptTokens, completionTokens)
	cancelUsage()
}

func (g *Generator) runScriptStage(ctx context.Context, payload *validation.Payload) (string, int, error) {
	stageCtx, cancel := context.WithTimeout(ctx, ScriptTimeout)
	defer cancel()
	script, err := llm.GenerateScript(stageCtx, g.Completer, payload)
	if err != nil {
		return "", 0, classifyStageError(stageCtx, StageScript, err)
	}
	return script, llm.CountTokenText(payload.Prompt + payload.SystemPrompt), nil
}

func (g *Generator) runPlanStage(ctx context.Context, script string, clips []scene.Clip, payload *validation.Payload) (*template.RenderTemplate, *scene.Plan, error) {
	stageCtx, cancel := context.WithTimeout(ctx, PlanTimeout)
	defer cancel()

	plan, err := llm.GeneratePlan(stageCtx, g.Completer, script, clips)
	if err != nil {
		return nil, nil, classifyStageError(stageCtx, StagePlan, err)
	}

	repairer := &llm.PlanRepairer{Completer: g.Completer}
	plan, err = scene.RepairLoop(stageCtx, plan, clips, script, repairer)
	if err != nil {
		return nil, nil, classifyStageError(stageCtx, StagePlan, err)
	}
	if err := scene.RepairClipReferences(plan, clips); err != nil {
		return nil, nil, &StageError{Stage: StagePlan, Code: CodeContractFault, Retryable: false, Err: err}
	}

	tmpl, err := template.Build(plan, clips, payload.CaptionConfig, payload.VoiceId)
	if err != nil {
		return nil, nil, &StageError{Stage: StagePlan, Code: CodeContractFault, Retryable: false, Err: err}
	}
	if err := template.ValidateStructure(tmpl); err != nil {
		return nil, nil, &StageError{Stage: StagePlan, Code: CodeTemplateInvalid, Retryable: false, Err: err}
	}
	return tmpl, plan, nil
}

func (g *Generator) runRenderStage(ctx context.Context, request *model.GenerationRequest, tmpl *template.RenderTemplate) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, RenderTimeout)
	defer cancel()
	renderId, err := g.Renderer.Submit(stageCtx, tmpl, &creatomate.Metadata{
		RequestId: request.Id,
		UserId:    request.UserId,
	})
	if err != nil {
		return "", classifyStageError(stageCtx, StageRender, err)
	}
	return renderId, nil
}

// resolveClips joins the request's clip references with the library to pick
// up real durations. A reference without a library row keeps duration 0 and
// is simply skipped by the duration validator.
func (g *Generator) resolveClips(ctx context.Context, refs []validation.ClipRef) []scene.Clip {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Id)
	}
	lookupCtx, cancel := withPersistTimeout(ctx)
	defer cancel()
	durations := map[string]float64{}
	if records, err := g.Store.ClipsByIds(lookupCtx, ids); err != nil {
		logger.Warnf(ctx, "clip duration lookup failed: %s", err.Error())
	} else {
		for _, record := range records {
			durations[record.Id] = record.Duration
		}
	}

	clips := make([]scene.Clip, 0, len(refs))
	for _, ref := range refs {
		clips = append(clips, scene.Clip{
			Id:       ref.Id,
			Title:    ref.Title,
			Url:      ref.Url,
			Tags:     ref.Tags,
			Duration: durations[ref.Id],
		})
	}
	return clips
}

// fail writes the terminal failure state and cleans up partial artifacts.
// Cleanup is best effort: a leaked script row is logged, never escalated.
func (g *Generator) fail(ctx context.Context, request *model.GenerationRequest, scriptId string, err error) {
	logger.Errorf(ctx, "generation request %s failed: %s", request.Id, err.Error())
	failCtx, cancel := withPersistTimeout(ctx)
	defer cancel()
	won, markErr := g.Store.MarkFailed(failCtx, request.Id, err.Error(), helper.GetTimestamp())
	if markErr != nil {
		logger.Errorf(ctx, "failed to mark generation request %s failed: %s", request.Id, markErr.Error())
		return
	}
	if !won {
		logger.Warnf(ctx, "generation request %s already terminal, failure discarded", request.Id)
	}
	if scriptId != "" {
		g.cleanupScript(ctx, scriptId)
	}
}

func (g *Generator) cleanupScript(ctx context.Context, scriptId string) {
	deleteCtx, cancel := withPersistTimeout(ctx)
	defer cancel()
	if err := g.Store.DeleteScript(deleteCtx, scriptId); err != nil {
		logger.Warnf(ctx, "failed to clean up script %s: %s", scriptId, err.Error())
	}
}

// captureTrainingSample records the run for later fine-tuning, in the
// database and, when configured, as an R2 artifact. Fired once the template
// passes structural validation, before render submission, so a renderer
// outage does not lose the sample. It runs off the request path and never
// affects the pipeline outcome.
func (g *Generator) captureTrainingSample(request *model.GenerationRequest, payload *validation.Payload, script string, templateJSON string) {
	captureCtx := context.WithValue(context.Background(), logger.RequestIdKey, request.Id)
	common.PipelineCtxGo(captureCtx, func() {
		sample := &model.TrainingSample{
			Id:        helper.GetUUID(),
			UserId:    request.UserId,
			RequestId: request.Id,
			Prompt:    payload.Prompt,
			Script:    script,
			Template:  templateJSON,
			CreatedAt: helper.GetTimestamp(),
		}

		if g.Uploader != nil {
			artifact := map[string]any{
				"request_id": request.Id,
				"payload":    payload,
				"script":     script,
				"template":   json.RawMessage(templateJSON),
			}
			uploadCtx, cancel := context.WithTimeout(captureCtx, PersistTimeout)
			defer cancel()
			key, err := g.Uploader.UploadTrainingArtifact(uploadCtx, sample.Id, []byte(mustJSON(artifact)))
			if err != nil {
				logger.Warnf(captureCtx, "training artifact upload failed: %s", err.Error())
			} else {
				sample.ArtifactKey = key
			}
		}

		insertCtx, cancelInsert := withPersistTimeout(captureCtx)
		defer cancelInsert()
		if err := g.Store.SaveTrainingSample(insertCtx, sample); err != nil {
			logger.Warnf(captureCtx, "training sample insert failed: %s", err.Error())
		}
	})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
