package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/makerforge/api/internal/model"
)

// MeshTask is the provider-neutral view of a text-to-3D generation task
type MeshTask struct {
	TaskID       string
	Status       string // one of the TaskStatus* constants
	Progress     int    // 0-100
	ModelURL     string
	ThumbnailURL string
	Error        string
}

// Normalized task statuses shared by all providers
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
)

// MeshProvider abstracts a text-to-3D generation backend
type MeshProvider interface {
	Name() model.MeshProviderName
	CreateTask(ctx context.Context, prompt string) (string, error)
	GetTask(ctx context.Context, taskID string) (*MeshTask, error)
	Poll(ctx context.Context, taskID string, onProgress func(int)) (*MeshTask, error)
	IsConfigured() bool
}

// DownloadAsset fetches a generated asset (model file or thumbnail) from
// the signed URL a provider returned.
func DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}

	return data, nil
}
