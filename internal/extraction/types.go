package extraction

import (
	"context"
	"strings"
)

// Mode is the kind of source the wizard extracts from.
type Mode string

const (
	ModeImage Mode = "image"
	ModeURL   Mode = "url"
)

// Stage is the wizard step a session is in.
type Stage string

const (
	StageInput      Stage = "input"
	StageProcessing Stage = "processing"
	StageReview     Stage = "review"
	StageComplete   Stage = "complete"
)

// UnnamedItem is shown for candidates the service returned without a name.
const UnnamedItem = "Unnamed Item"

// RawRecord is a single item as decoded from the extraction service JSON.
type RawRecord map[string]interface{}

// Candidate is a normalized menu item awaiting review.
type Candidate struct {
	NameEnglish    string   `json:"name_english"`
	NameLocal      string   `json:"name_local,omitempty"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Category       string   `json:"category"`
	Ingredients    []string `json:"ingredients"`
	DietaryTags    []string `json:"dietary_tags"`
	IsVegetarian   bool     `json:"is_vegetarian"`
	IsSpicy        bool     `json:"is_spicy"`
	Confidence     float64  `json:"confidence"`
	SourceImageRef string   `json:"source_image_ref,omitempty"`
}

// DisplayName returns the English name or the placeholder used for nameless items.
func (c Candidate) DisplayName() string {
	if name := strings.TrimSpace(c.NameEnglish); name != "" {
		return name
	}
	return UnnamedItem
}

// Committable reports whether the candidate carries a real name.
func (c Candidate) Committable() bool {
	return strings.TrimSpace(c.NameEnglish) != ""
}

func (c Candidate) clone() Candidate {
	out := c
	out.Ingredients = append([]string(nil), c.Ingredients...)
	out.DietaryTags = append([]string(nil), c.DietaryTags...)
	return out
}

// ImageInput is an uploaded menu photo.
type ImageInput struct {
	FileName string
	Data     []byte
}

// ExtractResult is what an extraction service returns for one source.
type ExtractResult struct {
	Items          []RawRecord `json:"items"`
	Confidence     float64     `json:"confidence"`
	DiagnosticText string      `json:"diagnostic_text,omitempty"`
	Source         string      `json:"source,omitempty"`
}

// Extractor turns an image or a web page into raw menu records.
type Extractor interface {
	ExtractImage(ctx context.Context, in ImageInput) (*ExtractResult, error)
	ExtractURL(ctx context.Context, url string) (*ExtractResult, error)
}

// RecordSink persists one committed candidate and returns its id.
type RecordSink interface {
	CreateMenuItem(ctx context.Context, c Candidate) (string, error)
}

// CacheInvalidator is told when menu listings are stale.
type CacheInvalidator interface {
	InvalidateMenu()
}

// Metrics receives extraction and commit observations.
type Metrics interface {
	ObserveExtraction(mode string, outcome string, items int)
	ObserveCommit(saved, failed int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveExtraction(string, string, int) {}
func (nopMetrics) ObserveCommit(int, int)                {}
