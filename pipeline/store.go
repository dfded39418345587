package pipeline

import (
	"context"

	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/storage"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/creatomate"
	"github.com/reelforge/reelforge/pipeline/llm"
)

// dbStore backs the Store seam with the database layer.
type dbStore struct{}

func (dbStore) CreateRequest(ctx context.Context, request *model.GenerationRequest) error {
	return request.Insert(ctx)
}

func (dbStore) MarkProcessing(ctx context.Context, id string, startedAt int64) error {
	return model.MarkRequestProcessing(ctx, id, startedAt)
}

func (dbStore) MarkSubmitted(ctx context.Context, id string, scriptId string, renderId string, scriptText string, renderTemplate string, completedAt int64) (bool, error) {
	return model.MarkRequestSubmitted(ctx, id, scriptId, renderId, scriptText, renderTemplate, completedAt)
}

func (dbStore) MarkFailed(ctx context.Context, id string, errorMessage string, completedAt int64) (bool, error) {
	return model.MarkRequestFailed(ctx, id, errorMessage, completedAt)
}

func (dbStore) SaveScript(ctx context.Context, script *model.Script) error {
	return script.Insert(ctx)
}

func (dbStore) DeleteScript(ctx context.Context, id string) error {
	return model.DeleteScriptById(ctx, id)
}

func (dbStore) ClipsByIds(ctx context.Context, ids []string) ([]*model.Clip, error) {
	return model.GetClipsByIds(ctx, ids)
}

func (dbStore) SaveTrainingSample(ctx context.Context, sample *model.TrainingSample) error {
	return sample.Insert(ctx)
}

func (dbStore) RecordTokenUsage(ctx context.Context, userId int, requestId string, promptTokens int, completionTokens int) {
	model.RecordUsageLog(ctx, userId, model.UsageTypeTokens, requestId, config.LLMModel,
		promptTokens, completionTokens, 0, "video generation")
}

// r2Uploader backs the Uploader seam with the R2 bucket; nil when capture is
// not configured.
type r2Uploader struct{}

func (r2Uploader) UploadTrainingArtifact(ctx context.Context, id string, data []byte) (string, error) {
	return storage.UploadTrainingArtifact(ctx, id, data)
}

// NewGenerator wires the production pipeline: database store, configured LLM
// provider, Creatomate renderer and, when R2 is configured, training capture.
func NewGenerator() (*Generator, error) {
	completer, err := llm.NewCompleter()
	if err != nil {
		return nil, err
	}
	renderer, err := creatomate.NewClient()
	if err != nil {
		return nil, err
	}
	generator := &Generator{
		Store:           dbStore{},
		Completer:       completer,
		Renderer:        renderer,
		CaptureTraining: storage.Enabled(),
	}
	if storage.Enabled() {
		generator.Uploader = r2Uploader{}
	}
	return generator, nil
}
