package common

import (
	"context"
	"math"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/reelforge/reelforge/common/logger"
)

var pipelineGoPool gopool.Pool

func init() {
	pipelineGoPool = gopool.NewPool("gopool.PipelinePool", math.MaxInt32, gopool.NewConfig())
	pipelineGoPool.SetPanicHandler(func(ctx context.Context, i interface{}) {
		logger.Errorf(ctx, "panic in gopool.PipelinePool: %v", i)
	})
}

// PipelineCtxGo runs f on the shared pipeline pool. Panics are recovered by
// the pool's panic handler so a crashing background job cannot take down the
// request-accepting path.
func PipelineCtxGo(ctx context.Context, f func()) {
	pipelineGoPool.CtxGo(ctx, f)
}
