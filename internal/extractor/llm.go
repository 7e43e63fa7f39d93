package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotelops/internal/extraction"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const systemPrompt = `You read restaurant menus and return JSON only.
Return an object {"items": [...], "confidence": <0-100>, "diagnostic_text": "<the raw text you could read>"}.
Each item has: name_english, name_local (if another script is shown), description, price (number, no currency),
category, ingredients (array), dietary_tags (array), is_vegetarian (bool), is_spicy (bool), confidence (0-100).
If nothing on the input is a menu item, return an empty items array and still fill diagnostic_text.`

// Generator is the part of a langchaingo model the extractor needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LLMConfig selects an OpenAI-compatible endpoint.
type LLMConfig struct {
	Model     string
	BaseURL   string
	Token     string
	MaxTokens int
}

// NewOpenAIModel creates the langchaingo client for cfg.
func NewOpenAIModel(cfg LLMConfig) (*openai.LLM, error) {
	if cfg.Token == "" {
		return nil, errors.New("an API token is required for the llm extractor")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
	}
	return llm, nil
}

// LLM extracts menu items by prompting a multimodal model.
type LLM struct {
	model     Generator
	scraper   *Scraper
	maxTokens int
	log       *zap.Logger
}

func NewLLM(model Generator, scraper *Scraper, maxTokens int, log *zap.Logger) *LLM {
	if scraper == nil {
		scraper = NewScraper(nil)
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LLM{model: model, scraper: scraper, maxTokens: maxTokens, log: log.Named("extractor.llm")}
}

func (l *LLM) ExtractImage(ctx context.Context, in extraction.ImageInput) (*extraction.ExtractResult, error) {
	mime := mimetype.Detect(in.Data).String()
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Extract every dish from this menu photo."),
				llms.BinaryPart(mime, in.Data),
			},
		},
	}
	return l.generate(ctx, messages)
}

func (l *LLM) ExtractURL(ctx context.Context, pageURL string) (*extraction.ExtractResult, error) {
	page, err := l.scraper.Fetch(ctx, pageURL)
	if err != nil {
		return nil, pageError(err)
	}
	text := page.Text()
	if len(page.Lines) == 0 {
		l.log.Info("page has no menu-like text", zap.String("url", pageURL))
		return &extraction.ExtractResult{Source: pageURL, DiagnosticText: page.Title}, nil
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, "Extract every dish from this menu page text:\n\n"+text),
	}
	res, err := l.generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	res.Source = pageURL
	if res.DiagnosticText == "" {
		res.DiagnosticText = text
	}
	return res, nil
}

func (l *LLM) generate(ctx context.Context, messages []llms.MessageContent) (*extraction.ExtractResult, error) {
	resp, err := l.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(l.maxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		l.log.Warn("generate failed", zap.Error(err))
		se := extraction.AsServiceError(err)
		if se.Category == extraction.ServiceUnknown {
			se.Category = extraction.ServiceServerError
		}
		return nil, se
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &extraction.ServiceError{Category: extraction.ServiceServerError, Detail: "empty model response"}
	}

	content := resp.Choices[0].Content
	res, err := decodeResult([]byte(content))
	if err != nil {
		if errors.Is(err, errNoJSON) {
			// the model answered in prose; treat it as readable text with no items
			return &extraction.ExtractResult{DiagnosticText: strings.TrimSpace(content)}, nil
		}
		return nil, &extraction.ServiceError{Category: extraction.ServiceUnknown, Detail: "unreadable model output", Err: err}
	}
	return res, nil
}

func pageError(err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return &extraction.ServiceError{Category: extraction.CategorizeStatus(statusErr.status), StatusCode: statusErr.status, Detail: statusErr.Error(), Err: err}
	}
	return extraction.AsServiceError(err)
}
