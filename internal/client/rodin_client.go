package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/makerforge/api/internal/config"
	"github.com/makerforge/api/internal/model"
)

// RodinClient handles communication with the Hyper3D Rodin text-to-3D API
type RodinClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	pollInterval time.Duration
	maxPolls     int
}

// NewRodinClient creates a new Rodin API client
func NewRodinClient(cfg *config.RodinConfig) *RodinClient {
	return &RodinClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     20,
	}
}

// Name returns the provider identifier
func (c *RodinClient) Name() model.MeshProviderName {
	return model.MeshProviderRodin
}

type rodinCreateRequest struct {
	Prompt string `json:"prompt"`
	Tier   string `json:"tier"`
}

type rodinCreateResponse struct {
	UUID string `json:"uuid"`
}

type rodinTaskResponse struct {
	UUID         string `json:"uuid"`
	Status       string `json:"status"` // pending, running, success, failed
	ModelURL     string `json:"model_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

// CreateTask starts a standard-tier generation and returns the task UUID
func (c *RodinClient) CreateTask(ctx context.Context, prompt string) (string, error) {
	reqBody := rodinCreateRequest{
		Prompt: prompt,
		Tier:   "standard",
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/v2/rodin", reqBody)
	if err != nil {
		return "", err
	}

	var createResp rodinCreateResponse
	if err := json.Unmarshal(respBody, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal create response: %w", err)
	}

	if createResp.UUID == "" {
		return "", fmt.Errorf("no task uuid in create response")
	}

	log.Printf("[Rodin API] → task created: %s", createResp.UUID)
	return createResp.UUID, nil
}

// GetTask fetches the current state of a generation task
func (c *RodinClient) GetTask(ctx context.Context, taskID string) (*MeshTask, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/v2/rodin/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	var taskResp rodinTaskResponse
	if err := json.Unmarshal(respBody, &taskResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task response: %w", err)
	}

	task := &MeshTask{
		TaskID:       taskResp.UUID,
		ModelURL:     taskResp.ModelURL,
		ThumbnailURL: taskResp.ThumbnailURL,
		Error:        taskResp.Error,
	}

	switch taskResp.Status {
	case "success":
		task.Status = TaskStatusSucceeded
		task.Progress = 100
	case "failed":
		task.Status = TaskStatusFailed
	case "running":
		task.Status = TaskStatusRunning
	default:
		task.Status = TaskStatusPending
	}

	return task, nil
}

// Poll waits for a task to reach a terminal state. Rodin does not report
// progress so an estimate derived from the poll count is used instead.
func (c *RodinClient) Poll(ctx context.Context, taskID string, onProgress func(int)) (*MeshTask, error) {
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			log.Printf("[Rodin API] poll error for %s: %v", taskID, err)
			continue
		}

		if onProgress != nil {
			estimated := (i + 1) * 5
			if estimated > 95 {
				estimated = 95
			}
			if task.Status == TaskStatusSucceeded {
				estimated = 100
			}
			onProgress(estimated)
		}

		switch task.Status {
		case TaskStatusSucceeded:
			log.Printf("[Rodin API] → task %s succeeded", taskID)
			return task, nil
		case TaskStatusFailed:
			return nil, fmt.Errorf("rodin task failed: %s", task.Error)
		}
	}

	return nil, fmt.Errorf("rodin task %s timed out after %d polls", taskID, c.maxPolls)
}

func (c *RodinClient) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("rodin API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *RodinClient) IsConfigured() bool {
	return c.apiKey != ""
}
