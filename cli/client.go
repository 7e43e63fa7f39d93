package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient talks to the hotelops board and menu routes.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient reads HOTELOPS_API_URL and HOTELOPS_TOKEN from the environment.
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("HOTELOPS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &ApiClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    baseURL,
		Token:      os.Getenv("HOTELOPS_TOKEN"),
	}
}

// Outcome mirrors the server's notification payload.
type Outcome struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// IsError reports whether the outcome should be shown as a failure.
func (o Outcome) IsError() bool {
	switch o.Kind {
	case "success", "partial_success", "nothing_to_do", "":
		return false
	}
	return true
}

type StaffRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Department     string    `json:"department"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	IsWorkflowTask bool      `json:"is_workflow_task"`
	AssignedTo     *StaffRef `json:"assigned_to,omitempty"`
}

type Board struct {
	Columns  map[string][]Task `json:"columns"`
	Counts   map[string]int    `json:"counts"`
	Excluded int               `json:"excluded"`
}

type Candidate struct {
	HandlerID  string  `json:"handler_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	MatchScore float64 `json:"match_score"`
	Heuristic  bool    `json:"heuristic"`
}

type AutoAssignResult struct {
	Status  string  `json:"status"`
	Outcome Outcome `json:"outcome"`
	Failed  []struct {
		Title  string `json:"title"`
		Reason string `json:"reason"`
	} `json:"failed"`
}

type MenuItem struct {
	NameEnglish string  `json:"name_english"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

type boardResponse struct {
	Outcome Outcome `json:"outcome"`
	Board   *Board  `json:"board"`
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (c *ApiClient) GetBoard() (*Board, error) {
	var out boardResponse
	if err := c.do(http.MethodGet, "/api/v1/board", nil, &out); err != nil {
		return nil, err
	}
	if out.Board == nil {
		return nil, fmt.Errorf("%s", out.Outcome.Message)
	}
	return out.Board, nil
}

func (c *ApiClient) Candidates(taskID string) ([]Candidate, error) {
	var out struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := c.do(http.MethodGet, "/api/v1/board/"+taskID+"/candidates", nil, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

// Assign returns the outcome and the reloaded board.
func (c *ApiClient) Assign(taskID, staffID string) (Outcome, *Board, error) {
	var out boardResponse
	err := c.do(http.MethodPost, "/api/v1/board/"+taskID+"/assign", map[string]string{"staff_id": staffID}, &out)
	return out.Outcome, out.Board, err
}

func (c *ApiClient) Unassign(taskID string) (Outcome, *Board, error) {
	var out boardResponse
	err := c.do(http.MethodPost, "/api/v1/board/"+taskID+"/unassign", map[string]string{}, &out)
	return out.Outcome, out.Board, err
}

func (c *ApiClient) AutoAssign() (*AutoAssignResult, *Board, error) {
	var out struct {
		Result AutoAssignResult `json:"result"`
		Board  *Board           `json:"board"`
	}
	if err := c.do(http.MethodPost, "/api/v1/board/auto-assign", nil, &out); err != nil {
		return nil, nil, err
	}
	return &out.Result, out.Board, nil
}

func (c *ApiClient) MenuItems() ([]MenuItem, error) {
	var out struct {
		Items []MenuItem `json:"items"`
	}
	if err := c.do(http.MethodGet, "/api/v1/menu/items", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// do decodes the body even on error statuses: board routes carry an outcome
// there. Routes without one produce an error from the "error" field.
func (c *ApiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error   string   `json:"error"`
			Outcome *Outcome `json:"outcome"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			if envelope.Outcome != nil {
				return json.Unmarshal(data, out)
			}
			if envelope.Error != "" {
				return fmt.Errorf("%s", envelope.Error)
			}
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
