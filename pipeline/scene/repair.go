package scene

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/reelforge/reelforge/common/logger"
)

// MaxRepairAttempts bounds the duration-repair loop: 3 validation attempts,
// so at most 2 LLM repair rounds.
const MaxRepairAttempts = 3

// RepairRequest carries everything one LLM repair round needs.
type RepairRequest struct {
	Script     string
	Clips      []Clip
	Plan       *Plan
	Violations []DurationViolation
	Feedback   string
}

// Replanner produces a replacement plan from violation feedback. Any error it
// returns is treated as a contract fault (missing prompt template,
// non-conformant LLM output), fatal and never retried — distinct from the
// content-quality fault the loop itself handles.
type Replanner interface {
	Replan(ctx context.Context, req *RepairRequest) (*Plan, error)
}

// ContractFaultError marks a provider or configuration contract breach:
// structured output that does not match the schema, or a missing prompt
// template. Fatal and never retried, unlike dependency failures.
type ContractFaultError struct {
	Err error
}

func (e *ContractFaultError) Error() string {
	return e.Err.Error()
}

func (e *ContractFaultError) Unwrap() error {
	return e.Err
}

// BudgetExhaustedError marks a content-quality failure: the plan still
// violated after the full repair budget.
type BudgetExhaustedError struct {
	Attempts   int
	Violations int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("scene plan still has %d duration violation(s) after %d attempts", e.Violations, e.Attempts)
}

// RepairLoop runs the bounded validate-and-revise state machine described by
// the pipeline: validate, short-circuit on success, otherwise ask the
// replanner for a whole-plan revision and try again, up to MaxRepairAttempts
// validation passes.
func RepairLoop(ctx context.Context, plan *Plan, clips []Clip, script string, replanner Replanner) (*Plan, error) {
	current := plan
	for attempt := 1; attempt <= MaxRepairAttempts; attempt++ {
		violations := ValidateDurations(current, clips)
		if len(violations) == 0 {
			if attempt > 1 {
				logger.Info(ctx, fmt.Sprintf("scene plan converged on attempt %d", attempt))
			}
			return current, nil
		}
		if attempt == MaxRepairAttempts {
			return nil, &BudgetExhaustedError{Attempts: MaxRepairAttempts, Violations: len(violations)}
		}

		logger.Warn(ctx, fmt.Sprintf("scene plan attempt %d has %d duration violation(s), requesting repair", attempt, len(violations)))
		revised, err := replanner.Replan(ctx, &RepairRequest{
			Script:     script,
			Clips:      clips,
			Plan:       current,
			Violations: violations,
			Feedback:   FormatViolationFeedback(violations),
		})
		if err != nil {
			return nil, errors.Wrap(err, "scene plan repair failed")
		}
		if err := revised.Validate(); err != nil {
			return nil, &ContractFaultError{Err: errors.Wrap(err, "repaired scene plan is not schema-conformant")}
		}
		current = revised
	}
	// unreachable: the loop always returns from inside
	return current, nil
}

// FormatViolationFeedback renders the violation list for the repair prompt.
func FormatViolationFeedback(violations []DurationViolation) string {
	var b strings.Builder
	for _, v := range violations {
		fmt.Fprintf(&b, "- Scene %d: narration needs ~%.1fs but the clip only allows %.1fs (%.1fs over budget). Shorten the narration or pick a longer clip.\n",
			v.SceneIndex+1, v.EstimatedDuration, v.ClipDuration*SafetyMargin, v.Overage)
	}
	return b.String()
}
