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

// MeshyClient handles communication with the Meshy text-to-3D API
type MeshyClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	// poll loop knobs, overridable in tests
	pollInterval time.Duration
	maxPolls     int
}

// NewMeshyClient creates a new Meshy API client
func NewMeshyClient(cfg *config.MeshyConfig) *MeshyClient {
	return &MeshyClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: 3 * time.Second,
		maxPolls:     40,
	}
}

// Name returns the provider identifier
func (c *MeshyClient) Name() model.MeshProviderName {
	return model.MeshProviderMeshy
}

type meshyCreateRequest struct {
	Mode           string `json:"mode"`
	Prompt         string `json:"prompt"`
	ArtStyle       string `json:"art_style"`
	NegativePrompt string `json:"negative_prompt"`
	AIModel        string `json:"ai_model"`
}

type meshyCreateResponse struct {
	Result string `json:"result"`
}

type meshyTaskResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"` // PENDING, IN_PROGRESS, SUCCEEDED, FAILED
	Progress  int    `json:"progress"`
	ModelURLs struct {
		GLB string `json:"glb"`
		FBX string `json:"fbx"`
		OBJ string `json:"obj"`
	} `json:"model_urls"`
	ThumbnailURL string `json:"thumbnail_url"`
	TaskError    struct {
		Message string `json:"message"`
	} `json:"task_error"`
}

// CreateTask starts a preview-mode text-to-3D generation and returns the task ID
func (c *MeshyClient) CreateTask(ctx context.Context, prompt string) (string, error) {
	reqBody := meshyCreateRequest{
		Mode:           "preview",
		Prompt:         prompt,
		ArtStyle:       "sculpture",
		NegativePrompt: "low quality, low poly, blurry, distorted",
		AIModel:        "meshy-4",
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v2/text-to-3d", reqBody)
	if err != nil {
		return "", err
	}

	var createResp meshyCreateResponse
	if err := json.Unmarshal(respBody, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal create response: %w", err)
	}

	if createResp.Result == "" {
		return "", fmt.Errorf("no task id in create response")
	}

	log.Printf("[Meshy API] → task created: %s", createResp.Result)
	return createResp.Result, nil
}

// GetTask fetches the current state of a generation task
func (c *MeshyClient) GetTask(ctx context.Context, taskID string) (*MeshTask, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v2/text-to-3d/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	var taskResp meshyTaskResponse
	if err := json.Unmarshal(respBody, &taskResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task response: %w", err)
	}

	task := &MeshTask{
		TaskID:       taskResp.ID,
		Progress:     taskResp.Progress,
		ModelURL:     taskResp.ModelURLs.GLB,
		ThumbnailURL: taskResp.ThumbnailURL,
		Error:        taskResp.TaskError.Message,
	}

	switch taskResp.Status {
	case "SUCCEEDED":
		task.Status = TaskStatusSucceeded
	case "FAILED":
		task.Status = TaskStatusFailed
	case "IN_PROGRESS":
		task.Status = TaskStatusRunning
	default:
		task.Status = TaskStatusPending
	}

	return task, nil
}

// Poll waits for a task to reach a terminal state, reporting progress along the way
func (c *MeshyClient) Poll(ctx context.Context, taskID string, onProgress func(int)) (*MeshTask, error) {
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			log.Printf("[Meshy API] poll error for %s: %v", taskID, err)
			continue
		}

		if onProgress != nil {
			onProgress(task.Progress)
		}

		switch task.Status {
		case TaskStatusSucceeded:
			log.Printf("[Meshy API] → task %s succeeded", taskID)
			return task, nil
		case TaskStatusFailed:
			return nil, fmt.Errorf("meshy task failed: %s", task.Error)
		}
	}

	return nil, fmt.Errorf("meshy task %s timed out after %d polls", taskID, c.maxPolls)
}

func (c *MeshyClient) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("meshy API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *MeshyClient) IsConfigured() bool {
	return c.apiKey != ""
}
