package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"hotelops/internal/extraction"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a service response is read.
const maxResponseBytes = 8 << 20

// Remote calls an external extraction API over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewRemote wires a client for baseURL; client defaults to one with timeout.
func NewRemote(baseURL string, timeout time.Duration, client *http.Client, log *zap.Logger) *Remote {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Remote{baseURL: strings.TrimSuffix(baseURL, "/"), client: client, log: log.Named("extractor.remote")}
}

// ExtractImage posts the image as multipart field "image".
func (r *Remote) ExtractImage(ctx context.Context, in extraction.ImageInput) (*extraction.ExtractResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", in.FileName)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/extract/image", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return r.do(req)
}

// ExtractURL asks the service to read a menu page.
func (r *Remote) ExtractURL(ctx context.Context, pageURL string) (*extraction.ExtractResult, error) {
	payload, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/extract/url", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := r.do(req)
	if err != nil {
		return nil, err
	}
	if res.Source == "" {
		res.Source = pageURL
	}
	return res, nil
}

func (r *Remote) do(req *http.Request) (*extraction.ExtractResult, error) {
	req.Header.Set("Accept", "application/json")
	start := time.Now()

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, extraction.AsServiceError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, extraction.AsServiceError(err)
	}
	r.log.Debug("response",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &extraction.ServiceError{
			Category:   extraction.CategorizeStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	res, err := decodeResult(body)
	if err != nil {
		return nil, &extraction.ServiceError{Category: extraction.ServiceUnknown, StatusCode: resp.StatusCode, Detail: "unreadable response", Err: err}
	}
	return res, nil
}

// errorDetail pulls a message out of a JSON error body.
func errorDetail(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
