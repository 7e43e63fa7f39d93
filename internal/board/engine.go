package board

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotelops/internal/common"

	"go.uber.org/zap"
)

// DefaultCancelReason is sent when a manager unassigns without giving a reason.
const DefaultCancelReason = "Cancelled by manager"

var (
	ErrMissingTaskID  = errors.New("task id is required")
	ErrMissingHandler = errors.New("choose a staff member to assign")
	ErrTaskNotFound   = errors.New("task not found")
)

// AssignError carries the backend's own message for a failed assignment.
type AssignError struct {
	TaskID string
	Err    error
}

func (e *AssignError) Error() string {
	return common.Message(e.Err)
}

func (e *AssignError) Unwrap() error {
	return e.Err
}

// Engine ranks handlers and submits single assignments to the task source.
type Engine struct {
	source       TaskSource
	roster       Roster
	metrics      Metrics
	log          *zap.Logger
	now          func() time.Time
	cancelReason string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithRoster(r Roster) EngineOption {
	return func(e *Engine) { e.roster = r }
}

func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCancelReason replaces DefaultCancelReason.
func WithCancelReason(reason string) EngineOption {
	return func(e *Engine) {
		if strings.TrimSpace(reason) != "" {
			e.cancelReason = reason
		}
	}
}

func NewEngine(source TaskSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:       source,
		metrics:      nopMetrics{},
		log:          zap.NewNop(),
		now:          time.Now,
		cancelReason: DefaultCancelReason,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign submits one assignment. There is no retry; the caller reloads the
// board on success.
func (e *Engine) Assign(ctx context.Context, t Task, handlerID string) error {
	return e.assign(ctx, t, handlerID, "manual")
}

func (e *Engine) assign(ctx context.Context, t Task, handlerID, mode string) error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingTaskID
	}
	if strings.TrimSpace(handlerID) == "" {
		return ErrMissingHandler
	}

	if err := e.source.AssignTask(ctx, t.ID, handlerID); err != nil {
		e.metrics.ObserveAssignment(mode, "failed")
		e.log.Warn("board.assign.failed",
			zap.String("task_id", t.ID),
			zap.String("staff_id", handlerID),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return &AssignError{TaskID: t.ID, Err: err}
	}
	e.metrics.ObserveAssignment(mode, "assigned")
	e.log.Info("board.assign.done",
		zap.String("task_id", t.ID),
		zap.String("staff_id", handlerID),
		zap.String("mode", mode),
	)
	return nil
}

// Unassign cancels the task's assignment with reason, or the default reason.
func (e *Engine) Unassign(ctx context.Context, t Task, reason string) error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingTaskID
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = e.cancelReason
	}
	if err := e.source.CancelTask(ctx, t.ID, reason); err != nil {
		e.metrics.ObserveAssignment("unassign", "failed")
		e.log.Warn("board.unassign.failed", zap.String("task_id", t.ID), zap.Error(err))
		return &AssignError{TaskID: t.ID, Err: err}
	}
	e.metrics.ObserveAssignment("unassign", "cancelled")
	e.log.Info("board.unassign.done", zap.String("task_id", t.ID), zap.String("reason", reason))
	return nil
}
