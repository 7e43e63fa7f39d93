// Package extractor holds the extraction service adapters: a remote HTTP API
// and an LLM-backed extractor.
package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hotelops/internal/extraction"
)

var errNoJSON = errors.New("response contains no JSON document")

// decodeResult reads an extraction payload. Both {"items": [...], ...} and a
// bare array of items are accepted, and markdown code fences are ignored.
func decodeResult(body []byte) (*extraction.ExtractResult, error) {
	doc, err := jsonDocument(body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	if doc[0] == '[' {
		var items []extraction.RawRecord
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return &extraction.ExtractResult{Items: items}, nil
	}

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	res := &extraction.ExtractResult{
		Items:          records(first(raw, "items", "menu_items", "menuItems", "data")),
		DiagnosticText: stringValue(first(raw, "diagnostic_text", "diagnosticText", "raw_text", "rawText", "text")),
		Source:         stringValue(first(raw, "source", "url")),
	}
	if n, ok := first(raw, "confidence", "overall_confidence").(json.Number); ok {
		res.Confidence, _ = n.Float64()
	}
	return res, nil
}

// jsonDocument trims surrounding prose and code fences down to the outermost JSON value.
func jsonDocument(body []byte) ([]byte, error) {
	text := strings.TrimSpace(string(body))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, errNoJSON
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return nil, errNoJSON
	}
	return []byte(text[start : end+1]), nil
}

func first(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func records(v interface{}) []extraction.RawRecord {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]extraction.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, extraction.RawRecord(m))
		}
	}
	return out
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
