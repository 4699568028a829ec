package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/makerforge/api/internal/model"
)

const (
	TaskTypeGenerate = "generate:process"

	jobTTL     = 24 * time.Hour
	historyMax = 50
)

// ErrJobNotFound is returned when a job id has no record (or it expired)
var ErrJobNotFound = errors.New("job not found")

// GenerateService handles generation job management
type GenerateService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewGenerateService(redisClient *redis.Client, asynqClient *asynq.Client) *GenerateService {
	return &GenerateService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// StartGenerate queues a new generation job
func (s *GenerateService) StartGenerate(ctx context.Context, userID string, req *model.GenerateStartRequest) (*model.GenerateStartResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
	}

	payload := &model.GenerateJobPayload{
		UserID:  userID,
		Request: req.Request,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job.Payload = payloadBytes

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task := asynq.NewTask(TaskTypeGenerate, mustMarshalTaskPayload(jobID, payloadBytes))

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("generate"),
		asynq.MaxRetry(1),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.GenerateStartResponse{
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// TaskPayload is the envelope carried by queued generation tasks
type TaskPayload struct {
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

func mustMarshalTaskPayload(jobID string, payload []byte) []byte {
	data, _ := json.Marshal(TaskPayload{JobID: jobID, Payload: payload})
	return data
}

// GetStatus returns the current status of a generation job
func (s *GenerateService) GetStatus(ctx context.Context, jobID string) (*model.GenerateStatusResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.GenerateStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResult returns the result of a completed generation job
func (s *GenerateService) GetResult(ctx context.Context, jobID string) (*model.ArtifactResult, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded && job.Status != model.JobStatusFailed {
		return nil, fmt.Errorf("job not completed")
	}

	var result model.ArtifactResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// GetArtifact returns the raw artifact bytes for a completed job
func (s *GenerateService) GetArtifact(ctx context.Context, jobID string) ([]byte, *model.ArtifactResult, error) {
	result, err := s.GetResult(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	if !result.Success {
		return nil, nil, fmt.Errorf("job did not produce an artifact")
	}

	if result.Kind == model.ArtifactKindScad && result.Scad != nil {
		return []byte(result.Scad.Source), result, nil
	}

	data, err := s.redis.Get(ctx, artifactKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil, ErrJobNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	return data, result, nil
}

// SaveArtifact stores raw artifact bytes alongside the job (called by worker)
func (s *GenerateService) SaveArtifact(ctx context.Context, jobID string, data []byte) error {
	return s.redis.Set(ctx, artifactKey(jobID), data, jobTTL).Err()
}

// UpdateJobProgress updates job progress (called by worker)
func (s *GenerateService) UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// CompleteJob marks a job as completed (called by worker)
func (s *GenerateService) CompleteJob(ctx context.Context, jobID string, result *model.ArtifactResult) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Progress = 100
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// FailJob marks a job as failed (called by worker)
func (s *GenerateService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// AppendHistory records a finished request in the user's history list
func (s *GenerateService) AppendHistory(ctx context.Context, userID string, entry *model.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := historyKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, historyMax-1)
	pipe.Expire(ctx, key, jobTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// GetHistory returns the user's recent requests, newest first
func (s *GenerateService) GetHistory(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	items, err := s.redis.LRange(ctx, historyKey(userID), 0, historyMax-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ClearHistory removes the user's history
func (s *GenerateService) ClearHistory(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, historyKey(userID)).Err()
}

// Helper methods

func (s *GenerateService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func (s *GenerateService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

func artifactKey(jobID string) string {
	return fmt.Sprintf("artifact:%s", jobID)
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:%s", userID)
}
