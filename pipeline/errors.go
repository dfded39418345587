package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelforge/reelforge/pipeline/scene"
)

// Pipeline stages, in execution order.
const (
	StageScript  = "script_generation"
	StagePlan    = "scene_planning"
	StageRender  = "render_submission"
	StagePersist = "persistence"
)

// Failure classes. Retryable means retrying the whole request may succeed;
// contract and budget faults will fail the same way again.
const (
	CodeTimeout         = "STAGE_TIMEOUT"
	CodeCanceled        = "CANCELED"
	CodeRepairBudget    = "REPAIR_BUDGET_EXHAUSTED"
	CodeContractFault   = "PROVIDER_CONTRACT_FAULT"
	CodeDependency      = "DEPENDENCY_FAILED"
	CodeTemplateInvalid = "TEMPLATE_INVALID"
)

// StageError is the classified failure of one pipeline stage. Its message is
// what gets persisted on the request record, so it names the stage rather
// than leaking provider internals.
type StageError struct {
	Stage     string
	Code      string
	Retryable bool
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Code, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// classifyStageError wraps a raw stage failure with its class. Deadline
// expiry of the stage context always wins over whatever error the aborted
// call surfaced it as.
func classifyStageError(ctx context.Context, stage string, err error) *StageError {
	var staged *StageError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		staged = &StageError{Stage: stage, Code: CodeTimeout, Retryable: true, Err: err}
	case ctx.Err() == context.Canceled:
		staged = &StageError{Stage: stage, Code: CodeCanceled, Retryable: false, Err: err}
	default:
		code := CodeDependency
		retryable := true
		var budget *scene.BudgetExhaustedError
		var contract *scene.ContractFaultError
		if errors.As(err, &budget) {
			code = CodeRepairBudget
			retryable = false
		} else if errors.As(err, &contract) {
			code = CodeContractFault
			retryable = false
		}
		staged = &StageError{Stage: stage, Code: code, Retryable: retryable, Err: err}
	}
	return staged
}
