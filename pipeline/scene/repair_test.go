package scene

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubReplanner returns canned plans in sequence and counts invocations.
type stubReplanner struct {
	plans []*Plan
	err   error
	calls int
}

func (s *stubReplanner) Replan(ctx context.Context, req *RepairRequest) (*Plan, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	plan := s.plans[0]
	if len(s.plans) > 1 {
		s.plans = s.plans[1:]
	}
	return plan, nil
}

func fittingPlan() *Plan {
	return &Plan{Scenes: []Scene{{Narration: "short narration here", ClipId: "c1"}}}
}

func overflowingPlan() *Plan {
	// 10 words * 0.7 = 7s > 5 * 0.95 = 4.75s
	return &Plan{Scenes: []Scene{{Narration: "one two three four five six seven eight nine ten", ClipId: "c1"}}}
}

var repairClips = []Clip{{Id: "c1", Title: "City", Url: "https://cdn.example.com/c1.mp4", Duration: 5}}

func TestRepairLoopCleanPlanSkipsReplanner(t *testing.T) {
	replanner := &stubReplanner{}
	plan, err := RepairLoop(context.Background(), fittingPlan(), repairClips, "script", replanner)
	if err != nil {
		t.Fatalf("RepairLoop() error = %v", err)
	}
	if plan == nil {
		t.Fatal("RepairLoop() returned nil plan")
	}
	if replanner.calls != 0 {
		t.Errorf("replanner called %d times for a clean plan, want 0", replanner.calls)
	}
}

func TestRepairLoopConvergesAfterRepair(t *testing.T) {
	replanner := &stubReplanner{plans: []*Plan{fittingPlan()}}
	plan, err := RepairLoop(context.Background(), overflowingPlan(), repairClips, "script", replanner)
	if err != nil {
		t.Fatalf("RepairLoop() error = %v", err)
	}
	if replanner.calls != 1 {
		t.Errorf("replanner called %d times, want 1", replanner.calls)
	}
	if len(ValidateDurations(plan, repairClips)) != 0 {
		t.Error("returned plan still has violations")
	}
}

func TestRepairLoopExhaustsBudget(t *testing.T) {
	// every repair round returns another violating plan
	replanner := &stubReplanner{plans: []*Plan{overflowingPlan()}}
	_, err := RepairLoop(context.Background(), overflowingPlan(), repairClips, "script", replanner)
	if err == nil {
		t.Fatal("RepairLoop() expected error, got nil")
	}
	var budget *BudgetExhaustedError
	if !errors.As(err, &budget) {
		t.Fatalf("RepairLoop() error = %v, want BudgetExhaustedError", err)
	}
	if budget.Attempts != MaxRepairAttempts {
		t.Errorf("Attempts = %d, want %d", budget.Attempts, MaxRepairAttempts)
	}
	// 3 validation attempts means exactly 2 repair rounds
	if replanner.calls != MaxRepairAttempts-1 {
		t.Errorf("replanner called %d times, want %d", replanner.calls, MaxRepairAttempts-1)
	}
}

func TestRepairLoopReplannerErrorIsFatal(t *testing.T) {
	replanner := &stubReplanner{err: errors.New("prompt template not found: scene-repair")}
	_, err := RepairLoop(context.Background(), overflowingPlan(), repairClips, "script", replanner)
	if err == nil {
		t.Fatal("RepairLoop() expected error, got nil")
	}
	var budget *BudgetExhaustedError
	if errors.As(err, &budget) {
		t.Error("contract fault must not be reported as budget exhaustion")
	}
	if replanner.calls != 1 {
		t.Errorf("replanner called %d times after fatal error, want 1", replanner.calls)
	}
}

func TestRepairLoopRejectsMalformedRevision(t *testing.T) {
	replanner := &stubReplanner{plans: []*Plan{{Scenes: []Scene{{Narration: "   ", ClipId: "c1"}}}}}
	_, err := RepairLoop(context.Background(), overflowingPlan(), repairClips, "script", replanner)
	if err == nil {
		t.Fatal("RepairLoop() expected error for malformed revision, got nil")
	}
	if !strings.Contains(err.Error(), "not schema-conformant") {
		t.Errorf("error = %v, want schema-conformance failure", err)
	}
	var fault *ContractFaultError
	if !errors.As(err, &fault) {
		t.Errorf("error = %v, want a contract fault", err)
	}
}

func TestFormatViolationFeedback(t *testing.T) {
	feedback := FormatViolationFeedback([]DurationViolation{
		{SceneIndex: 0, EstimatedDuration: 7, ClipDuration: 5, Overage: 2.25},
	})
	if !strings.Contains(feedback, "Scene 1") {
		t.Errorf("feedback should use 1-based scene numbers: %q", feedback)
	}
	if !strings.Contains(feedback, "7.0s") {
		t.Errorf("feedback should include the estimate: %q", feedback)
	}
}
