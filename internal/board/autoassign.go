package board

import (
	"context"
	"fmt"
	"time"

	"hotelops/internal/common"

	"go.uber.org/zap"
)

// AutoAssignStatus summarizes a bulk run.
type AutoAssignStatus string

const (
	AutoAssignAllSucceeded AutoAssignStatus = "all_succeeded"
	AutoAssignPartial      AutoAssignStatus = "partial"
	AutoAssignAllFailed    AutoAssignStatus = "all_failed"
	AutoAssignNothingToDo  AutoAssignStatus = "nothing_to_do"
)

type Assignment struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	HandlerID   string `json:"handler_id"`
	HandlerName string `json:"handler_name"`
}

type AssignFailure struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	HandlerID string `json:"handler_id,omitempty"`
	Reason    string `json:"reason"`
}

// AutoAssignResult aggregates one sequential sweep.
type AutoAssignResult struct {
	Success []Assignment     `json:"success"`
	Failed  []AssignFailure  `json:"failed"`
	Total   int              `json:"total"`
	Status  AutoAssignStatus `json:"status"`
	Outcome common.Outcome   `json:"outcome"`
}

// Eligible keeps tasks in the pending column that carry a server ranking.
// Workflow tasks awaiting assignment and tasks with only a local heuristic
// are left for a manager.
func Eligible(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Column() == ColumnPending && len(t.RecommendedStaff) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// AutoAssignAll assigns every eligible task to its top-ranked handler, one
// call at a time. A failed task is recorded and the sweep moves on.
func (e *Engine) AutoAssignAll(ctx context.Context, tasks []Task) AutoAssignResult {
	eligible := Eligible(tasks)
	result := AutoAssignResult{
		Success: []Assignment{},
		Failed:  []AssignFailure{},
		Total:   len(eligible),
	}
	if len(eligible) == 0 {
		result.Status = AutoAssignNothingToDo
		result.Outcome = common.NewOutcome(common.OutcomeNothingToDo, "No pending tasks with recommendations to assign")
		e.metrics.ObserveAutoAssign(string(result.Status), 0, 0)
		return result
	}

	start := time.Now()
	for _, t := range eligible {
		best := serverRanked(t)[0]
		if err := e.assign(ctx, t, best.HandlerID, "auto"); err != nil {
			result.Failed = append(result.Failed, AssignFailure{
				TaskID:    t.ID,
				Title:     t.Title,
				HandlerID: best.HandlerID,
				Reason:    err.Error(),
			})
			continue
		}
		result.Success = append(result.Success, Assignment{
			TaskID:      t.ID,
			Title:       t.Title,
			HandlerID:   best.HandlerID,
			HandlerName: best.Name,
		})
	}

	result.Status, result.Outcome = summarize(result)
	e.metrics.ObserveAutoAssign(string(result.Status), len(result.Success), len(result.Failed))
	e.log.Info("board.auto_assign.done",
		zap.Int("total", result.Total),
		zap.Int("succeeded", len(result.Success)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func summarize(r AutoAssignResult) (AutoAssignStatus, common.Outcome) {
	ok, failed := len(r.Success), len(r.Failed)
	switch {
	case failed == 0:
		return AutoAssignAllSucceeded, common.NewOutcome(common.OutcomeSuccess,
			fmt.Sprintf("Assigned all %d pending tasks", ok)).
			WithDetail("assigned", ok)
	case ok == 0:
		return AutoAssignAllFailed, common.NewOutcome(common.OutcomeFailure,
			fmt.Sprintf("Could not assign any of the %d pending tasks", failed)).
			WithHint("Check the failed tasks and assign them manually.").
			WithDetail("failed", failed)
	default:
		return AutoAssignPartial, common.NewOutcome(common.OutcomePartialSuccess,
			fmt.Sprintf("Assigned %d of %d pending tasks, %d failed", ok, r.Total, failed)).
			WithHint("Failed tasks are still pending and can be assigned manually.").
			WithDetail("assigned", ok).
			WithDetail("failed", failed)
	}
}
