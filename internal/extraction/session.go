package extraction

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLowConfidence is the percent below which an empty result is blamed on legibility.
const DefaultLowConfidence = 40

var (
	// ErrIndexOutOfRange is returned for edits and deletes of unknown rows.
	ErrIndexOutOfRange = errors.New("no candidate at that position")
	// ErrNothingToRetry is returned when a completed session has no failed records.
	ErrNothingToRetry = errors.New("there are no failed items to retry")
)

// Options tunes a session.
type Options struct {
	Limits        UploadLimits
	LowConfidence float64
	Metrics       Metrics
	Logger        *zap.Logger
}

// Session is one run of the extraction wizard. All methods are safe for
// concurrent use; extraction and commit calls run without holding the lock and
// their results are dropped if the session was reset or moved on meanwhile.
type Session struct {
	mu sync.Mutex

	id         string
	extractor  Extractor
	normalizer *Normalizer
	limits     UploadLimits
	lowConf    float64
	metrics    Metrics
	log        *zap.Logger
	now        func() time.Time

	stage      Stage
	mode       Mode
	image      *ImageInput
	imageType  string
	url        string
	candidates []Candidate
	selected   map[int]struct{}
	editing    *int
	failures   []CommitFailure
	busy       bool
	generation uint64
	lastError  string

	createdAt time.Time
	updatedAt time.Time
}

// NewSession starts a session in the input stage.
func NewSession(id string, extractor Extractor, normalizer *Normalizer, opts Options) *Session {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if opts.Limits.MaxBytes == 0 {
		opts.Limits.MaxBytes = DefaultMaxUploadBytes
	}
	if opts.LowConfidence <= 0 {
		opts.LowConfidence = DefaultLowConfidence
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	now := time.Now()
	return &Session{
		id:         id,
		extractor:  extractor,
		normalizer: normalizer,
		limits:     opts.Limits,
		lowConf:    opts.LowConfidence,
		metrics:    opts.Metrics,
		log:        opts.Logger.With(zap.String("session_id", id)),
		now:        time.Now,
		stage:      StageInput,
		selected:   make(map[int]struct{}),
		createdAt:  now,
		updatedAt:  now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// SubmitImage validates the upload and runs extraction on it.
func (s *Session) SubmitImage(ctx context.Context, in ImageInput) error {
	s.mu.Lock()
	if err := s.checkSubmittable(); err != nil {
		s.mu.Unlock()
		return err
	}
	mimeType, err := s.limits.ValidateImage(in)
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}
	s.mode = ModeImage
	s.image = &ImageInput{FileName: in.FileName, Data: in.Data}
	s.imageType = mimeType
	s.url = ""
	s.mu.Unlock()

	return s.runExtraction(ctx, "submit")
}

// SubmitURL validates the address and runs extraction on the page.
func (s *Session) SubmitURL(ctx context.Context, raw string) error {
	s.mu.Lock()
	if err := s.checkSubmittable(); err != nil {
		s.mu.Unlock()
		return err
	}
	u, err := ValidateURL(raw)
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}
	s.mode = ModeURL
	s.url = u
	s.image = nil
	s.imageType = ""
	s.mu.Unlock()

	return s.runExtraction(ctx, "submit")
}

func (s *Session) checkSubmittable() error {
	if s.busy || s.stage == StageProcessing {
		return ErrBusy
	}
	if s.stage != StageInput {
		return &StageError{Op: "submit", Stage: s.stage}
	}
	return nil
}

// runExtraction moves input -> processing -> review, or back to input on any failure.
func (s *Session) runExtraction(ctx context.Context, op string) error {
	s.mu.Lock()
	s.stage = StageProcessing
	s.busy = true
	s.lastError = ""
	s.generation++
	gen := s.generation
	mode, image, url := s.mode, s.image, s.url
	s.touch()
	s.mu.Unlock()

	start := time.Now()
	result, err := s.extract(ctx, mode, image, url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.stage != StageProcessing {
		s.log.Info("extraction.stale_response_dropped", zap.String("op", op))
		return ErrStale
	}
	s.busy = false
	defer s.touch()

	if err != nil {
		se := AsServiceError(err)
		s.stage = StageInput
		s.lastError = se.Error()
		s.metrics.ObserveExtraction(string(mode), "service_error", 0)
		s.log.Warn("extraction.failed",
			zap.String("mode", string(mode)),
			zap.String("category", string(se.Category)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return se
	}

	if result == nil || len(result.Items) == 0 {
		nr := &NoResultsError{Cause: s.diagnose(mode, result)}
		s.stage = StageInput
		s.lastError = nr.Error()
		s.metrics.ObserveExtraction(string(mode), "no_results", 0)
		s.log.Info("extraction.no_results", zap.String("cause", string(nr.Cause)))
		return nr
	}

	s.candidates = s.normalizeAll(result.Items)
	s.selectAllLocked()
	s.editing = nil
	s.failures = nil
	s.stage = StageReview
	s.metrics.ObserveExtraction(string(mode), "success", len(s.candidates))
	s.log.Info("extraction.done",
		zap.String("mode", string(mode)),
		zap.Int("items", len(s.candidates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Session) extract(ctx context.Context, mode Mode, image *ImageInput, url string) (*ExtractResult, error) {
	switch mode {
	case ModeImage:
		return s.extractor.ExtractImage(ctx, *image)
	case ModeURL:
		return s.extractor.ExtractURL(ctx, url)
	}
	return nil, &ValidationError{Field: "mode", Message: "choose an image or a URL"}
}

func (s *Session) normalizeAll(items []RawRecord) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, raw := range items {
		c := s.normalizer.Normalize(raw)
		if c.SourceImageRef == "" && s.mode == ModeImage && s.image != nil {
			c.SourceImageRef = s.image.FileName
		}
		out = append(out, c)
	}
	return out
}

func (s *Session) diagnose(mode Mode, result *ExtractResult) NoResultsCause {
	if result == nil || strings.TrimSpace(result.DiagnosticText) == "" {
		if mode == ModeURL {
			return CauseNoMenuStructure
		}
		return CauseUnreadable
	}
	conf := normalizeConfidence(result.Confidence)
	if conf > 0 && conf < s.lowConf {
		return CauseLowConfidence
	}
	return CauseNoMenuStructure
}

// Toggle flips index in the selection. Unknown indices are ignored.
func (s *Session) Toggle(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "change selection", Stage: s.stage}
	}
	if !s.validIndex(index) {
		return nil
	}
	if _, ok := s.selected[index]; ok {
		delete(s.selected, index)
	} else {
		s.selected[index] = struct{}{}
	}
	s.touch()
	return nil
}

func (s *Session) SelectAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "change selection", Stage: s.stage}
	}
	s.selectAllLocked()
	s.touch()
	return nil
}

func (s *Session) SelectNone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "change selection", Stage: s.stage}
	}
	s.selected = make(map[int]struct{})
	s.touch()
	return nil
}

func (s *Session) selectAllLocked() {
	s.selected = make(map[int]struct{}, len(s.candidates))
	for i := range s.candidates {
		s.selected[i] = struct{}{}
	}
}

// StartEdit opens index for editing; an edit already open is discarded.
func (s *Session) StartEdit(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "edit", Stage: s.stage}
	}
	if !s.validIndex(index) {
		return ErrIndexOutOfRange
	}
	i := index
	s.editing = &i
	s.touch()
	return nil
}

func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "cancel edit", Stage: s.stage}
	}
	s.editing = nil
	s.touch()
	return nil
}

// SaveEdit validates p and replaces the candidate being edited. On a
// validation failure the edit stays open and FieldErrors is returned.
func (s *Session) SaveEdit(index int, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "save edit", Stage: s.stage}
	}
	if s.editing == nil || *s.editing != index {
		return ErrNoEditInProgress
	}
	updated, err := p.Apply(s.candidates[index])
	if err != nil {
		return err
	}
	s.candidates[index] = updated
	s.editing = nil
	s.touch()
	return nil
}

// Delete removes the candidate at index and shifts later selection and edit
// positions down by one.
func (s *Session) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageReview {
		return &StageError{Op: "delete", Stage: s.stage}
	}
	if s.busy {
		return ErrBusy
	}
	if !s.validIndex(index) {
		return ErrIndexOutOfRange
	}

	s.candidates = append(s.candidates[:index:index], s.candidates[index+1:]...)

	shifted := make(map[int]struct{}, len(s.selected))
	for i := range s.selected {
		switch {
		case i < index:
			shifted[i] = struct{}{}
		case i > index:
			shifted[i-1] = struct{}{}
		}
	}
	s.selected = shifted

	if s.editing != nil {
		switch {
		case *s.editing == index:
			s.editing = nil
		case *s.editing > index:
			e := *s.editing - 1
			s.editing = &e
		}
	}
	s.touch()
	return nil
}

// Regenerate re-runs extraction on the same source. On success the candidate
// list is replaced and everything is selected; on failure the current list is kept.
func (s *Session) Regenerate(ctx context.Context) error {
	s.mu.Lock()
	if s.stage != StageReview {
		s.mu.Unlock()
		return &StageError{Op: "regenerate", Stage: s.stage}
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.generation++
	gen := s.generation
	mode, image, url := s.mode, s.image, s.url
	s.touch()
	s.mu.Unlock()

	result, err := s.extract(ctx, mode, image, url)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.stage != StageReview {
		return ErrStale
	}
	s.busy = false
	defer s.touch()

	if err != nil {
		se := AsServiceError(err)
		s.lastError = se.Error()
		s.metrics.ObserveExtraction(string(mode), "service_error", 0)
		return se
	}
	if result == nil || len(result.Items) == 0 {
		nr := &NoResultsError{Cause: s.diagnose(mode, result)}
		s.lastError = nr.Error()
		s.metrics.ObserveExtraction(string(mode), "no_results", 0)
		return nr
	}

	s.candidates = s.normalizeAll(result.Items)
	s.selectAllLocked()
	s.editing = nil
	s.lastError = ""
	s.metrics.ObserveExtraction(string(mode), "success", len(s.candidates))
	s.log.Info("extraction.regenerated", zap.Int("items", len(s.candidates)))
	return nil
}

// Commit saves the selected candidates through b. The session moves to
// complete when at least one record was saved, keeping only the failed
// records; when nothing was saved it stays in review untouched.
func (s *Session) Commit(ctx context.Context, b *Batcher) (CommitResult, error) {
	s.mu.Lock()
	if s.stage != StageReview {
		s.mu.Unlock()
		return CommitResult{}, &StageError{Op: "save", Stage: s.stage}
	}
	if s.busy {
		s.mu.Unlock()
		return CommitResult{}, ErrBusy
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return CommitResult{}, ErrNothingSelected
	}
	s.busy = true
	s.generation++
	gen := s.generation
	candidates := make([]Candidate, len(s.candidates))
	for i, c := range s.candidates {
		candidates[i] = c.clone()
	}
	selected := s.selectedSorted()
	s.touch()
	s.mu.Unlock()

	result := b.Commit(ctx, candidates, selected)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.stage != StageReview {
		return result, ErrStale
	}
	s.busy = false
	defer s.touch()

	if result.Saved == 0 {
		s.lastError = result.Outcome().Message
		return result, nil
	}

	s.failures = result.Failures
	s.candidates = make([]Candidate, 0, len(result.Failures))
	for i := range result.Failures {
		s.candidates = append(s.candidates, result.Failures[i].Record)
	}
	s.selectAllLocked()
	s.editing = nil
	s.stage = StageComplete
	s.lastError = ""
	return result, nil
}

// RetryFailed reopens review with only the records that failed to save.
func (s *Session) RetryFailed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageComplete {
		return &StageError{Op: "retry failed items", Stage: s.stage}
	}
	if len(s.candidates) == 0 {
		return ErrNothingToRetry
	}
	s.stage = StageReview
	s.failures = nil
	s.selectAllLocked()
	s.touch()
	return nil
}

// Reset returns to the input stage and discards everything, including any
// request still in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.stage = StageInput
	s.mode = ""
	s.image = nil
	s.imageType = ""
	s.url = ""
	s.candidates = nil
	s.selected = make(map[int]struct{})
	s.editing = nil
	s.failures = nil
	s.busy = false
	s.lastError = ""
	s.touch()
}

// View is a read-only copy of the session state.
type View struct {
	ID         string          `json:"id"`
	Stage      Stage           `json:"stage"`
	Mode       Mode            `json:"mode,omitempty"`
	FileName   string          `json:"file_name,omitempty"`
	ImageType  string          `json:"image_type,omitempty"`
	URL        string          `json:"url,omitempty"`
	Candidates []Candidate     `json:"candidates"`
	Selected   []int           `json:"selected"`
	Editing    *int            `json:"editing,omitempty"`
	Failures   []CommitFailure `json:"failures,omitempty"`
	Busy       bool            `json:"busy"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.id,
		Stage:      s.stage,
		Mode:       s.mode,
		ImageType:  s.imageType,
		URL:        s.url,
		Candidates: make([]Candidate, 0, len(s.candidates)),
		Selected:   s.selectedSorted(),
		Failures:   append([]CommitFailure(nil), s.failures...),
		Busy:       s.busy,
		LastError:  s.lastError,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.image != nil {
		v.FileName = s.image.FileName
	}
	for _, c := range s.candidates {
		v.Candidates = append(v.Candidates, c.clone())
	}
	if s.editing != nil {
		e := *s.editing
		v.Editing = &e
	}
	return v
}

func (s *Session) selectedSorted() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (s *Session) validIndex(i int) bool {
	return i >= 0 && i < len(s.candidates)
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}
