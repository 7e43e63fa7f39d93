package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotelops/internal/common"

	"go.uber.org/zap"
)

// Snapshot is the board as classified after one load.
type Snapshot struct {
	Filter   Filter            `json:"filter"`
	Columns  map[Column][]Task `json:"columns"`
	Counts   map[Column]int    `json:"counts"`
	Excluded int               `json:"excluded"`
	LoadedAt time.Time         `json:"loaded_at"`
}

// Tasks returns the visible tasks in column display order.
func (s Snapshot) Tasks() []Task {
	var out []Task
	for _, col := range Columns {
		out = append(out, s.Columns[col]...)
	}
	return out
}

// Find returns the visible task with id.
func (s Snapshot) Find(id string) (Task, bool) {
	for _, col := range Columns {
		for _, t := range s.Columns[col] {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Task{}, false
}

func classify(tasks []Task, f Filter, now time.Time) Snapshot {
	snap := Snapshot{
		Filter:   f,
		Columns:  make(map[Column][]Task, len(Columns)),
		Counts:   make(map[Column]int, len(Columns)),
		LoadedAt: now,
	}
	for _, col := range Columns {
		snap.Columns[col] = []Task{}
	}
	for _, t := range tasks {
		col := t.Column()
		if col == ColumnExcluded {
			snap.Excluded++
			continue
		}
		snap.Columns[col] = append(snap.Columns[col], t)
		snap.Counts[col]++
	}
	return snap
}

// Result is the outcome of a board mutation together with the reloaded board.
// Snapshot is nil when the reload after the mutation failed.
type Result struct {
	Outcome  common.Outcome `json:"outcome"`
	Snapshot *Snapshot      `json:"board,omitempty"`
}

// Board keeps the classified task list in sync with the source. Every
// mutation is followed by a full reload; local state is never patched.
// The board holds no filter; each call passes the caller's own.
type Board struct {
	mu      sync.Mutex
	source  TaskSource
	engine  *Engine
	metrics Metrics
	log     *zap.Logger
}

func NewBoard(source TaskSource, engine *Engine, log *zap.Logger) *Board {
	if engine == nil {
		engine = NewEngine(source)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Board{source: source, engine: engine, metrics: engine.metrics, log: log}
}

func (b *Board) Engine() *Engine {
	return b.engine
}

// Load lists tasks matching f and reclassifies them.
func (b *Board) Load(ctx context.Context, f Filter) (Snapshot, error) {
	start := time.Now()
	tasks, err := b.source.ListTasks(ctx, f)
	if err != nil {
		b.log.Error("board.load.failed", zap.Error(err))
		return Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	snap := classify(tasks, f, b.engine.now())
	b.metrics.ObserveBoardLoad(time.Since(start))
	b.log.Debug("board.load.done",
		zap.Int("tasks", len(tasks)),
		zap.Int("excluded", snap.Excluded),
	)
	return snap, nil
}

// find resolves taskID against an unfiltered listing.
func (b *Board) find(ctx context.Context, taskID string) (Task, error) {
	tasks, err := b.source.ListTasks(ctx, Filter{})
	if err != nil {
		return Task{}, fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		if t.ID == taskID && t.Column() != ColumnExcluded {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// Candidates ranks handlers for the task with taskID.
func (b *Board) Candidates(ctx context.Context, taskID string) ([]Candidate, error) {
	t, err := b.find(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return b.engine.RankCandidates(ctx, t)
}

// Assign gives the task to handlerID and reloads the board with view.
func (b *Board) Assign(ctx context.Context, taskID, handlerID string, view Filter) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	if taskID == "" {
		return Result{Outcome: OutcomeFor(ErrMissingTaskID, "")}
	}
	t, err := b.find(ctx, taskID)
	if err != nil {
		return Result{Outcome: OutcomeFor(err, "")}
	}
	if err := b.engine.Assign(ctx, t, handlerID); err != nil {
		return Result{Outcome: OutcomeFor(err, "")}
	}
	return b.afterMutation(ctx, view, OutcomeFor(nil, fmt.Sprintf("Assigned %q", t.Title)))
}

// Unassign cancels the task's assignment and reloads the board with view.
func (b *Board) Unassign(ctx context.Context, taskID, reason string, view Filter) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	if taskID == "" {
		return Result{Outcome: OutcomeFor(ErrMissingTaskID, "")}
	}
	t, err := b.find(ctx, taskID)
	if err != nil {
		return Result{Outcome: OutcomeFor(err, "")}
	}
	if err := b.engine.Unassign(ctx, t, reason); err != nil {
		return Result{Outcome: OutcomeFor(err, "")}
	}
	return b.afterMutation(ctx, view, OutcomeFor(nil, fmt.Sprintf("Cancelled %q", t.Title)))
}

// CreateTask adds a task through the source and reloads the board with view.
func (b *Board) CreateTask(ctx context.Context, nt NewTask, view Filter) (Task, Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	created, err := b.source.CreateTask(ctx, nt)
	if err != nil {
		b.log.Warn("board.create_task.failed", zap.Error(err))
		return Task{}, Result{Outcome: OutcomeFor(err, "")}
	}
	b.log.Info("board.create_task.done", zap.String("task_id", created.ID))
	return created, b.afterMutation(ctx, view, OutcomeFor(nil, fmt.Sprintf("Created %q", created.Title)))
}

// AutoAssign runs the bulk loop over a fresh listing matching f, then
// reloads once. Mutations are serialized.
func (b *Board) AutoAssign(ctx context.Context, f Filter) (AutoAssignResult, *Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before, err := b.Load(ctx, f)
	if err != nil {
		res := AutoAssignResult{Success: []Assignment{}, Failed: []AssignFailure{}, Status: AutoAssignAllFailed}
		res.Outcome = OutcomeFor(err, "")
		return res, nil
	}
	res := b.engine.AutoAssignAll(ctx, before.Tasks())
	if res.Status == AutoAssignNothingToDo {
		return res, &before
	}
	after := b.afterMutation(ctx, f, res.Outcome)
	return res, after.Snapshot
}

func (b *Board) afterMutation(ctx context.Context, view Filter, out common.Outcome) Result {
	snap, err := b.Load(ctx, view)
	if err != nil {
		return Result{Outcome: out.WithDetail("reload_error", common.Message(err))}
	}
	return Result{Outcome: out, Snapshot: &snap}
}

// OutcomeFor maps a board error to a notification. A nil error is a success.
func OutcomeFor(err error, successMessage string) common.Outcome {
	if err == nil {
		return common.NewOutcome(common.OutcomeSuccess, successMessage)
	}
	var assignErr *AssignError
	switch {
	case errors.Is(err, ErrMissingTaskID), errors.Is(err, ErrMissingHandler):
		return common.NewOutcome(common.OutcomeValidationError, err.Error())
	case errors.As(err, &assignErr):
		return common.NewOutcome(common.OutcomeFailure, assignErr.Error()).WithDetail("task_id", assignErr.TaskID)
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, common.ErrNotFound):
		return common.NewOutcome(common.OutcomeRejected, ErrTaskNotFound.Error())
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return common.NewOutcome(common.OutcomeValidationError, common.Message(err))
	}
	return common.NewOutcome(common.OutcomeFailure, common.Message(err))
}
