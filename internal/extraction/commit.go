package extraction

import (
	"context"
	"sort"
	"strconv"

	"hotelops/internal/common"

	"go.uber.org/zap"
)

// CommitFailure records a candidate that could not be saved.
type CommitFailure struct {
	Index  int       `json:"index"`
	Record Candidate `json:"record"`
	Reason string    `json:"reason"`
}

// CommitResult aggregates a best-effort batch save.
type CommitResult struct {
	Saved    int             `json:"saved"`
	Failed   int             `json:"failed"`
	SavedIDs []string        `json:"saved_ids"`
	Failures []CommitFailure `json:"failures"`
}

// Outcome maps the result to a notification.
func (r CommitResult) Outcome() common.Outcome {
	switch {
	case r.Saved > 0 && r.Failed == 0:
		return common.NewOutcome(common.OutcomeSuccess, pluralize(r.Saved, "menu item saved", "menu items saved")).
			WithDetail("saved", r.Saved)
	case r.Saved > 0:
		return common.NewOutcome(common.OutcomePartialSuccess, pluralize(r.Saved, "menu item saved", "menu items saved")+", "+
			pluralize(r.Failed, "failed", "failed")).
			WithHint("Failed items are kept so they can be fixed and saved again.").
			WithDetail("saved", r.Saved).
			WithDetail("failed", r.Failed)
	default:
		return common.NewOutcome(common.OutcomeFailure, "No menu items could be saved").
			WithDetail("failed", r.Failed)
	}
}

// Batcher saves selected candidates one record at a time.
type Batcher struct {
	sink        RecordSink
	invalidator CacheInvalidator
	metrics     Metrics
	log         *zap.Logger
}

// NewBatcher wires a batcher. invalidator and metrics may be nil.
func NewBatcher(sink RecordSink, invalidator CacheInvalidator, metrics Metrics, log *zap.Logger) *Batcher {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Batcher{sink: sink, invalidator: invalidator, metrics: metrics, log: log}
}

// Commit attempts every selected candidate in original order. A failure never
// stops the remaining saves.
func (b *Batcher) Commit(ctx context.Context, candidates []Candidate, selected []int) CommitResult {
	indices := append([]int(nil), selected...)
	sort.Ints(indices)

	result := CommitResult{SavedIDs: []string{}, Failures: []CommitFailure{}}
	for _, idx := range indices {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		record := candidates[idx]

		if !record.Committable() {
			result.Failed++
			result.Failures = append(result.Failures, CommitFailure{Index: idx, Record: record, Reason: "name is required"})
			continue
		}

		id, err := b.sink.CreateMenuItem(ctx, record)
		if err != nil {
			b.log.Warn("extraction.commit.record_failed",
				zap.Int("index", idx),
				zap.String("name", record.NameEnglish),
				zap.Error(err),
			)
			result.Failed++
			result.Failures = append(result.Failures, CommitFailure{Index: idx, Record: record, Reason: common.Message(err)})
			continue
		}
		result.Saved++
		result.SavedIDs = append(result.SavedIDs, id)
	}

	if result.Saved > 0 && b.invalidator != nil {
		b.invalidator.InvalidateMenu()
	}
	b.metrics.ObserveCommit(result.Saved, result.Failed)
	b.log.Info("extraction.commit.done",
		zap.Int("selected", len(indices)),
		zap.Int("saved", result.Saved),
		zap.Int("failed", result.Failed),
	)
	return result
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
