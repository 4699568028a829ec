package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerforge/api/internal/model"
)

func newTestGenerateService(t *testing.T) (*GenerateService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewGenerateService(rdb, nil), rdb
}

func seedJob(t *testing.T, rdb *redis.Client, job *model.Job) {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), "job:"+job.ID, data, time.Hour).Err())
}

func TestGetStatusNotFound(t *testing.T) {
	svc, _ := newTestGenerateService(t)

	_, err := svc.GetStatus(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetStatus(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now(),
	})

	status, err := svc.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, status.Status)
	assert.Equal(t, 0, status.Progress)
}

func TestUpdateJobProgressStartsJob(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now(),
	})

	require.NoError(t, svc.UpdateJobProgress(context.Background(), "job-1", 30, "generating code"))

	status, err := svc.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, status.Status)
	assert.Equal(t, 30, status.Progress)
	assert.Equal(t, "generating code", status.CurrentStep)
	assert.NotNil(t, status.StartedAt)
}

func TestCompleteJobAndGetResult(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})

	result := &model.ArtifactResult{
		Success:        true,
		Message:        "Model generated successfully",
		Classification: model.ClassificationFunctional,
		Kind:           model.ArtifactKindScad,
		Scad:           &model.ScadArtifact{Source: "cube([1,1,1]);", Compiled: true, Attempts: 1},
	}
	require.NoError(t, svc.CompleteJob(context.Background(), "job-1", result))

	status, err := svc.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, status.Status)
	assert.Equal(t, 100, status.Progress)

	got, err := svc.GetResult(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, result.Scad.Source, got.Scad.Source)
	assert.Equal(t, model.ClassificationFunctional, got.Classification)
}

func TestGetResultBeforeCompletion(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})

	_, err := svc.GetResult(context.Background(), "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not completed")
}

func TestFailJob(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})

	require.NoError(t, svc.FailJob(context.Background(), "job-1", "Mesh generation failed"))

	status, err := svc.GetStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "Mesh generation failed", *status.Error)
	assert.NotNil(t, status.CompletedAt)
}

func TestGetArtifactScadSource(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})
	require.NoError(t, svc.CompleteJob(context.Background(), "job-1", &model.ArtifactResult{
		Success: true,
		Kind:    model.ArtifactKindScad,
		Scad:    &model.ScadArtifact{Source: "cube([2,2,2]);", Compiled: true},
	}))

	data, result, err := svc.GetArtifact(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactKindScad, result.Kind)
	assert.Equal(t, "cube([2,2,2]);", string(data))
}

func TestGetArtifactMeshBytes(t *testing.T) {
	svc, rdb := newTestGenerateService(t)
	seedJob(t, rdb, &model.Job{
		ID:        "job-1",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})
	require.NoError(t, svc.SaveArtifact(context.Background(), "job-1", []byte("glb-bytes")))
	require.NoError(t, svc.CompleteJob(context.Background(), "job-1", &model.ArtifactResult{
		Success: true,
		Kind:    model.ArtifactKindMesh,
		Mesh:    &model.MeshArtifact{Provider: model.MeshProviderMeshy, Format: "glb", Size: 9},
	}))

	data, result, err := svc.GetArtifact(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactKindMesh, result.Kind)
	assert.Equal(t, []byte("glb-bytes"), data)
}

func TestHistoryLifecycle(t *testing.T) {
	svc, _ := newTestGenerateService(t)
	ctx := context.Background()

	entries, err := svc.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	first := &model.HistoryEntry{
		JobID:   "job-1",
		Request: "a funnel",
		Result:  model.ArtifactResult{Success: true, Kind: model.ArtifactKindScad},
	}
	second := &model.HistoryEntry{
		JobID:   "job-2",
		Request: "a cartoon bear",
		Result:  model.ArtifactResult{Success: true, Kind: model.ArtifactKindMesh},
	}
	require.NoError(t, svc.AppendHistory(ctx, "user-1", first))
	require.NoError(t, svc.AppendHistory(ctx, "user-1", second))

	entries, err = svc.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// newest first
	assert.Equal(t, "job-2", entries[0].JobID)
	assert.Equal(t, "job-1", entries[1].JobID)

	// isolated per user
	other, err := svc.GetHistory(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, svc.ClearHistory(ctx, "user-1"))
	entries, err = svc.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
