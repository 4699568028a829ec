package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/service"
	"github.com/makerforge/api/internal/websocket"
)

// GenerateWorker processes model generation jobs
type GenerateWorker struct {
	generateService *service.GenerateService
	pipeline        *service.PipelineService
	storage         client.StorageClient
	hub             *websocket.Hub
}

// NewGenerateWorker creates a new generation worker. storage may be nil
// when object storage is not configured.
func NewGenerateWorker(generateService *service.GenerateService, pipeline *service.PipelineService, storage client.StorageClient, hub *websocket.Hub) *GenerateWorker {
	return &GenerateWorker{
		generateService: generateService,
		pipeline:        pipeline,
		storage:         storage,
		hub:             hub,
	}
}

// ProcessTask handles generation task processing
func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload service.TaskPayload
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting generation job: %s", jobID)

	var payload model.GenerateJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal generate payload: %w", err)
	}

	result, meshData := w.pipeline.Process(ctx, payload.Request, func(progress int, step string) {
		w.updateProgress(ctx, jobID, progress, step)
	})

	if len(meshData) > 0 {
		if err := w.generateService.SaveArtifact(ctx, jobID, meshData); err != nil {
			w.failJob(ctx, jobID, "Failed to store artifact")
			return err
		}
		if w.storage != nil && result.Mesh != nil {
			url, err := w.storage.UploadArtifact(ctx, jobID, model.ArtifactKindMesh, meshData)
			if err != nil {
				log.Printf("Artifact upload for job %s failed: %v", jobID, err)
			} else {
				result.Mesh.AssetURL = url
			}
		}
	}

	if !result.Success {
		w.failJob(ctx, jobID, result.Message)
		w.appendHistory(ctx, jobID, &payload, result)
		return nil
	}

	if err := w.generateService.CompleteJob(ctx, jobID, result); err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	w.appendHistory(ctx, jobID, &payload, result)
	w.hub.BroadcastComplete(jobID, result)
	log.Printf("Generation job %s completed", jobID)
	return nil
}

func (w *GenerateWorker) appendHistory(ctx context.Context, jobID string, payload *model.GenerateJobPayload, result *model.ArtifactResult) {
	entry := &model.HistoryEntry{
		JobID:     jobID,
		Request:   payload.Request,
		Result:    *result,
		CreatedAt: time.Now(),
	}
	if err := w.generateService.AppendHistory(ctx, payload.UserID, entry); err != nil {
		log.Printf("Failed to append history for job %s: %v", jobID, err)
	}
}

func (w *GenerateWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.generateService.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		log.Printf("Failed to update progress: %v", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *GenerateWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.generateService.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job as failed: %v", err)
	}
	w.hub.BroadcastError(jobID, "GENERATION_FAILED", errMsg)
}
