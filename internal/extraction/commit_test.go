package extraction

import (
	"context"
	"errors"
	"testing"

	"hotelops/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateMenu() { c.calls++ }

type recordingMetrics struct {
	saved, failed int
}

func (m *recordingMetrics) ObserveExtraction(string, string, int) {}
func (m *recordingMetrics) ObserveCommit(saved, failed int) {
	m.saved += saved
	m.failed += failed
}

func named(names ...string) []Candidate {
	out := make([]Candidate, 0, len(names))
	for _, n := range names {
		out = append(out, Candidate{NameEnglish: n, Price: 500, Category: "Rice", Ingredients: []string{}, DietaryTags: []string{}})
	}
	return out
}

func TestBatcher_PartialFailureContinues(t *testing.T) {
	sink := &fakeSink{fail: map[string]error{"Kottu": errors.New("duplicate item")}}
	inv := &countingInvalidator{}
	metrics := &recordingMetrics{}
	b := NewBatcher(sink, inv, metrics, nil)

	res := b.Commit(context.Background(), named("Hoppers", "Kottu", "Lamprais"), []int{2, 0, 1})

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"Hoppers", "Lamprais"}, sink.saved)
	assert.Equal(t, []string{"id-Hoppers", "id-Lamprais"}, res.SavedIDs)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, "Kottu", res.Failures[0].Record.NameEnglish)
	assert.Equal(t, "duplicate item", res.Failures[0].Reason)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 2, metrics.saved)
	assert.Equal(t, 1, metrics.failed)

	out := res.Outcome()
	assert.Equal(t, common.OutcomePartialSuccess, out.Kind)
	assert.NotEmpty(t, out.Hint)
}

func TestBatcher_AllFailedSkipsInvalidation(t *testing.T) {
	sink := &fakeSink{fail: map[string]error{"A": errors.New("down")}}
	inv := &countingInvalidator{}
	b := NewBatcher(sink, inv, nil, nil)

	res := b.Commit(context.Background(), named("A"), []int{0})
	assert.Equal(t, 0, res.Saved)
	assert.Equal(t, 0, inv.calls)
	assert.Equal(t, common.OutcomeFailure, res.Outcome().Kind)
}

func TestBatcher_NamelessRecordFailsWithoutCall(t *testing.T) {
	sink := &fakeSink{}
	b := NewBatcher(sink, nil, nil, nil)
	candidates := named("Tea")
	candidates = append(candidates, Candidate{Price: 10})

	res := b.Commit(context.Background(), candidates, []int{0, 1, 9, -1})
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"Tea"}, sink.saved)
	assert.Equal(t, "name is required", res.Failures[0].Reason)
}

func TestBatcher_AppErrorMessageIsReason(t *testing.T) {
	sink := &fakeSink{fail: map[string]error{
		"A": common.NewAppError("conflict", "an item with this name already exists", common.ErrConflict),
	}}
	b := NewBatcher(sink, nil, nil, nil)

	res := b.Commit(context.Background(), named("A", "B"), []int{0, 1})
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "an item with this name already exists", res.Failures[0].Reason)
	out := res.Outcome()
	assert.Equal(t, "1 menu item saved, 1 failed", out.Message)
}

func TestCommitResult_AllSaved(t *testing.T) {
	out := CommitResult{Saved: 3}.Outcome()
	assert.Equal(t, common.OutcomeSuccess, out.Kind)
	assert.Equal(t, "3 menu items saved", out.Message)
}
