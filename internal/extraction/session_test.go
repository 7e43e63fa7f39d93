package extraction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	mu      sync.Mutex
	results []*ExtractResult
	errs    []error
	calls   int
	urls    []string
	block   chan struct{}
	started chan struct{}
}

func (f *fakeExtractor) next() (*ExtractResult, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	var res *ExtractResult
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func (f *fakeExtractor) ExtractImage(ctx context.Context, in ImageInput) (*ExtractResult, error) {
	return f.next()
}

func (f *fakeExtractor) ExtractURL(ctx context.Context, url string) (*ExtractResult, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	return f.next()
}

func items(names ...string) *ExtractResult {
	res := &ExtractResult{Confidence: 90, DiagnosticText: "menu"}
	for _, n := range names {
		res.Items = append(res.Items, RawRecord{"name": n, "price": 100.0})
	}
	return res
}

type fakeSink struct {
	mu    sync.Mutex
	fail  map[string]error
	saved []string
}

func (s *fakeSink) CreateMenuItem(ctx context.Context, c Candidate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[c.NameEnglish]; err != nil {
		return "", err
	}
	s.saved = append(s.saved, c.NameEnglish)
	return "id-" + c.NameEnglish, nil
}

func newTestSession(ex Extractor) *Session {
	return NewSession("s1", ex, nil, Options{})
}

func reviewSession(t *testing.T, names ...string) (*Session, *fakeExtractor) {
	t.Helper()
	ex := &fakeExtractor{results: []*ExtractResult{items(names...)}}
	s := newTestSession(ex)
	require.NoError(t, s.SubmitURL(context.Background(), "https://example.com/menu"))
	require.Equal(t, StageReview, s.Stage())
	return s, ex
}

func TestSession_StageTransitions(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{results: []*ExtractResult{items("Hoppers", "Kottu")}}
	s := newTestSession(ex)

	err := s.SubmitURL(ctx, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "url", verr.Field)
	assert.Equal(t, StageInput, s.Stage())
	assert.Equal(t, 0, ex.calls)

	require.NoError(t, s.SubmitURL(ctx, "https://example.com/menu"))
	v := s.Snapshot()
	assert.Equal(t, StageReview, v.Stage)
	assert.Len(t, v.Candidates, 2)
	assert.Equal(t, []int{0, 1}, v.Selected)

	require.NoError(t, s.SelectNone())
	_, err = s.Commit(ctx, NewBatcher(&fakeSink{}, nil, nil, nil))
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Equal(t, StageReview, s.Stage())

	require.NoError(t, s.Toggle(0))
	sink := &fakeSink{}
	res, err := s.Commit(ctx, NewBatcher(sink, nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, StageComplete, s.Stage())
	assert.Equal(t, []string{"Hoppers"}, sink.saved)

	s.Reset()
	v = s.Snapshot()
	assert.Equal(t, StageInput, v.Stage)
	assert.Empty(t, v.Candidates)
	assert.Empty(t, v.Selected)
}

func TestSession_InvalidURLRejected(t *testing.T) {
	s := newTestSession(&fakeExtractor{})
	for _, raw := range []string{"not a url", "ftp://example.com/menu", "https://"} {
		err := s.SubmitURL(context.Background(), raw)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, StageInput, s.Stage())
	}
}

func TestSession_DeleteReindexesSelection(t *testing.T) {
	s, _ := reviewSession(t, "A", "B", "C", "D")
	require.NoError(t, s.SelectNone())
	require.NoError(t, s.Toggle(1))
	require.NoError(t, s.Toggle(3))

	require.NoError(t, s.Delete(1))

	v := s.Snapshot()
	names := []string{}
	for _, c := range v.Candidates {
		names = append(names, c.NameEnglish)
	}
	assert.Equal(t, []string{"A", "C", "D"}, names)
	assert.Equal(t, []int{2}, v.Selected)
}

func TestSession_DeleteShiftsHigherIndex(t *testing.T) {
	s, _ := reviewSession(t, "A", "B", "C", "D")
	require.NoError(t, s.SelectNone())
	require.NoError(t, s.Toggle(3))
	require.NoError(t, s.StartEdit(3))

	require.NoError(t, s.Delete(2))

	v := s.Snapshot()
	assert.Equal(t, []int{2}, v.Selected)
	require.NotNil(t, v.Editing)
	assert.Equal(t, 2, *v.Editing)
	assert.Equal(t, "D", v.Candidates[2].NameEnglish)
}

func TestSession_DeleteEditedClearsEdit(t *testing.T) {
	s, _ := reviewSession(t, "A", "B")
	require.NoError(t, s.StartEdit(1))
	require.NoError(t, s.Delete(1))
	assert.Nil(t, s.Snapshot().Editing)
	assert.ErrorIs(t, s.Delete(5), ErrIndexOutOfRange)
}

func TestSession_ToggleInvalidIndexIsNoop(t *testing.T) {
	s, _ := reviewSession(t, "A", "B")
	require.NoError(t, s.Toggle(7))
	require.NoError(t, s.Toggle(-1))
	assert.Equal(t, []int{0, 1}, s.Snapshot().Selected)

	require.NoError(t, s.Toggle(0))
	assert.Equal(t, []int{1}, s.Snapshot().Selected)
	require.NoError(t, s.SelectAll())
	assert.Equal(t, []int{0, 1}, s.Snapshot().Selected)
}

func TestSession_EditLifecycle(t *testing.T) {
	s, _ := reviewSession(t, "A", "B")

	require.NoError(t, s.StartEdit(0))
	require.NoError(t, s.StartEdit(1))
	assert.ErrorIs(t, s.SaveEdit(0, Patch{}), ErrNoEditInProgress)

	empty := "  "
	bad := PriceInput("-5")
	err := s.SaveEdit(1, Patch{NameEnglish: &empty, Price: &bad})
	var ferrs FieldErrors
	require.ErrorAs(t, err, &ferrs)
	fields := map[string]bool{}
	for _, fe := range ferrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name_english"])
	assert.True(t, fields["price"])
	v := s.Snapshot()
	require.NotNil(t, v.Editing)
	assert.Equal(t, 1, *v.Editing)
	assert.Equal(t, "B", v.Candidates[1].NameEnglish)

	name := "Butter Chicken"
	price := PriceInput("1450")
	require.NoError(t, s.SaveEdit(1, Patch{NameEnglish: &name, Price: &price}))
	v = s.Snapshot()
	assert.Nil(t, v.Editing)
	assert.Equal(t, "Butter Chicken", v.Candidates[1].NameEnglish)
	assert.Equal(t, 1450.0, v.Candidates[1].Price)
}

func TestSession_NoResultsDiagnosis(t *testing.T) {
	tests := []struct {
		name   string
		result *ExtractResult
		cause  NoResultsCause
	}{
		{"nothing read", &ExtractResult{}, CauseUnreadable},
		{"nil result", nil, CauseUnreadable},
		{"blurry", &ExtractResult{DiagnosticText: "r1ce c.rry", Confidence: 0.2}, CauseLowConfidence},
		{"not a menu", &ExtractResult{DiagnosticText: "Welcome to our hotel", Confidence: 95}, CauseNoMenuStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeExtractor{results: []*ExtractResult{tt.result}})
			err := s.SubmitImage(context.Background(), ImageInput{FileName: "menu.png", Data: pngBytes})
			var nr *NoResultsError
			require.ErrorAs(t, err, &nr)
			assert.Equal(t, tt.cause, nr.Cause)
			assert.NotEmpty(t, nr.Hint())
			assert.Equal(t, StageInput, s.Stage())
		})
	}
}

func TestSession_ServiceErrorRevertsToInput(t *testing.T) {
	ex := &fakeExtractor{errs: []error{&ServiceError{Category: ServiceServerError, StatusCode: 502}}}
	s := newTestSession(ex)

	err := s.SubmitURL(context.Background(), "https://example.com")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ServiceServerError, se.Category)
	v := s.Snapshot()
	assert.Equal(t, StageInput, v.Stage)
	assert.Empty(t, v.Candidates)
	assert.NotEmpty(t, v.LastError)

	ex2 := &fakeExtractor{errs: []error{context.DeadlineExceeded}}
	s2 := newTestSession(ex2)
	err = s2.SubmitURL(context.Background(), "https://example.com")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ServiceTimeout, se.Category)
}

func TestSession_RegenerateReplacesAndSelectsAll(t *testing.T) {
	ex := &fakeExtractor{results: []*ExtractResult{items("A", "B", "C"), items("X", "Y")}}
	s := newTestSession(ex)
	ctx := context.Background()
	require.NoError(t, s.SubmitURL(ctx, "https://example.com/menu"))
	require.NoError(t, s.SelectNone())

	require.NoError(t, s.Regenerate(ctx))
	v := s.Snapshot()
	assert.Equal(t, StageReview, v.Stage)
	assert.Len(t, v.Candidates, 2)
	assert.Equal(t, []int{0, 1}, v.Selected)
	assert.Equal(t, []string{"https://example.com/menu", "https://example.com/menu"}, ex.urls)
}

func TestSession_RegenerateFailureKeepsCandidates(t *testing.T) {
	ex := &fakeExtractor{
		results: []*ExtractResult{items("A", "B")},
		errs:    []error{nil, errors.New("boom")},
	}
	s := newTestSession(ex)
	ctx := context.Background()
	require.NoError(t, s.SubmitURL(ctx, "https://example.com/menu"))

	assert.Error(t, s.Regenerate(ctx))
	v := s.Snapshot()
	assert.Equal(t, StageReview, v.Stage)
	assert.Len(t, v.Candidates, 2)
}

func TestSession_CommitAllFailedStaysInReview(t *testing.T) {
	s, _ := reviewSession(t, "A", "B")
	sink := &fakeSink{fail: map[string]error{"A": errors.New("duplicate"), "B": errors.New("duplicate")}}

	res, err := s.Commit(context.Background(), NewBatcher(sink, nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.Equal(t, 2, res.Failed)
	v := s.Snapshot()
	assert.Equal(t, StageReview, v.Stage)
	assert.Len(t, v.Candidates, 2)
	assert.Equal(t, []int{0, 1}, v.Selected)
}

func TestSession_PartialCommitKeepsFailedForRetry(t *testing.T) {
	s, _ := reviewSession(t, "A", "B", "C")
	sink := &fakeSink{fail: map[string]error{"B": errors.New("duplicate name")}}

	res, err := s.Commit(context.Background(), NewBatcher(sink, nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)

	v := s.Snapshot()
	assert.Equal(t, StageComplete, v.Stage)
	require.Len(t, v.Candidates, 1)
	assert.Equal(t, "B", v.Candidates[0].NameEnglish)
	require.Len(t, v.Failures, 1)
	assert.Equal(t, "duplicate name", v.Failures[0].Reason)

	require.NoError(t, s.RetryFailed())
	v = s.Snapshot()
	assert.Equal(t, StageReview, v.Stage)
	assert.Equal(t, []int{0}, v.Selected)
}

func TestSession_StructuralOpsRejectedWhileBusy(t *testing.T) {
	ex := &fakeExtractor{
		results: []*ExtractResult{items("A", "B"), items("C")},
		block:   nil,
	}
	s := newTestSession(ex)
	ctx := context.Background()
	require.NoError(t, s.SubmitURL(ctx, "https://example.com/menu"))

	ex.block = make(chan struct{})
	ex.started = make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- s.Regenerate(ctx) }()
	<-ex.started

	assert.ErrorIs(t, s.Delete(0), ErrBusy)
	assert.ErrorIs(t, s.Regenerate(ctx), ErrBusy)
	_, err := s.Commit(ctx, NewBatcher(&fakeSink{}, nil, nil, nil))
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, s.Snapshot().Busy)

	close(ex.block)
	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Candidates, 1)
}

func TestSession_ResetDropsInFlightResponse(t *testing.T) {
	ex := &fakeExtractor{
		results: []*ExtractResult{items("A", "B")},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s := newTestSession(ex)
	done := make(chan error, 1)
	go func() { done <- s.SubmitURL(context.Background(), "https://example.com/menu") }()
	<-ex.started
	assert.Equal(t, StageProcessing, s.Stage())

	s.Reset()
	close(ex.block)

	assert.ErrorIs(t, <-done, ErrStale)
	v := s.Snapshot()
	assert.Equal(t, StageInput, v.Stage)
	assert.Empty(t, v.Candidates)
}

func TestSession_SubmitOutsideInputRejected(t *testing.T) {
	s, _ := reviewSession(t, "A")
	err := s.SubmitURL(context.Background(), "https://example.com")
	var stErr *StageError
	assert.ErrorAs(t, err, &stErr)
	assert.Equal(t, StageReview, s.Stage())
}
