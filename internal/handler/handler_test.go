package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/config"
	"github.com/makerforge/api/internal/handler"
	"github.com/makerforge/api/internal/middleware"
	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/service"
	"github.com/makerforge/api/pkg/response"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	app   *fiber.App
	redis *redis.Client
	mr    *miniredis.Miniredis
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	v := validator.New()

	generateService := service.NewGenerateService(rdb, nil)
	catalogService := service.NewCatalogService(client.NewStorefrontClient(&config.StorefrontConfig{}))

	generateHandler := handler.NewGenerateHandler(generateService, v)
	previewHandler := handler.NewPreviewHandler(v)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	token, err := authMiddleware.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", authMiddleware.Authenticate())
	generate := api.Group("/generate")
	generate.Get("/status/:jobId", generateHandler.Status)
	generate.Post("/start", generateHandler.Start)
	generate.Get("/result/:jobId", generateHandler.Result)
	generate.Get("/artifact/:jobId", generateHandler.Artifact)
	generate.Get("/history", generateHandler.History)
	generate.Delete("/history", generateHandler.ClearHistory)
	api.Post("/preview/primitives", previewHandler.Primitives)
	api.Get("/catalog/products", catalogHandler.Products)

	return &testEnv{app: app, redis: rdb, mr: mr, token: token}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) seedJob(t *testing.T, job *model.Job) {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, e.redis.Set(context.Background(), "job:"+job.ID, data, 0).Err())
}

func decodeError(t *testing.T, resp *http.Response) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthNoAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingAuthHeader(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/generate/history", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, response.CodeUnauthorized, body.Error.Code)
}

func TestInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/generate/history", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/generate/start", model.GenerateStartRequest{Request: "no"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, response.CodeValidationError, body.Error.Code)

	details, ok := body.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "min", details["Request"])
}

func TestStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/generate/status/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, response.CodeNotFound, body.Error.Code)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedJob(t, &model.Job{
		ID:          "job-1",
		Type:        model.JobTypeGenerate,
		Status:      model.JobStatusRunning,
		Progress:    40,
		CurrentStep: "generating code",
		CreatedAt:   time.Now(),
	})

	resp := env.request(t, http.MethodGet, "/api/generate/status/job-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status model.GenerateStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "job-1", status.JobID)
	assert.Equal(t, model.JobStatusRunning, status.Status)
	assert.Equal(t, 40, status.Progress)
	assert.Equal(t, "generating code", status.CurrentStep)
}

func TestResultBeforeCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.seedJob(t, &model.Job{
		ID:        "job-2",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusRunning,
		CreatedAt: time.Now(),
	})

	resp := env.request(t, http.MethodGet, "/api/generate/result/job-2", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResult(t *testing.T) {
	env := newTestEnv(t)

	result := model.ArtifactResult{
		Success:        true,
		Message:        "Generated and verified parametric model",
		Classification: model.ClassificationFunctional,
		Kind:           model.ArtifactKindScad,
		Scad:           &model.ScadArtifact{Source: "cube([10,10,10]);", Compiled: true, Attempts: 1},
	}
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	env.seedJob(t, &model.Job{
		ID:        "job-3",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusSucceeded,
		Progress:  100,
		Result:    resultBytes,
		CreatedAt: time.Now(),
	})

	resp := env.request(t, http.MethodGet, "/api/generate/result/job-3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ArtifactResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Success)
	assert.Equal(t, model.ArtifactKindScad, got.Kind)
	require.NotNil(t, got.Scad)
	assert.Equal(t, "cube([10,10,10]);", got.Scad.Source)
}

func TestArtifactDownload(t *testing.T) {
	env := newTestEnv(t)

	result := model.ArtifactResult{
		Success:        true,
		Classification: model.ClassificationFunctional,
		Kind:           model.ArtifactKindScad,
		Scad:           &model.ScadArtifact{Source: "sphere(r=5);", Compiled: true},
	}
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	env.seedJob(t, &model.Job{
		ID:        "job-4",
		Type:      model.JobTypeGenerate,
		Status:    model.JobStatusSucceeded,
		Progress:  100,
		Result:    resultBytes,
		CreatedAt: time.Now(),
	})

	resp := env.request(t, http.MethodGet, "/api/generate/artifact/job-4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "model.scad")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "sphere(r=5);", string(data))
}

func TestHistoryEmpty(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/generate/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []model.HistoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Empty(t, entries)
}

func TestClearHistory(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodDelete, "/api/generate/history", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPreviewPrimitives(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/preview/primitives", model.PreviewRequest{
		Source: "translate([1, 2, 3]) cube([10, 20, 30]);",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview model.PreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))
	require.Len(t, preview.Shapes, 1)
	assert.Equal(t, model.PrimitiveCube, preview.Shapes[0].Type)
}

func TestPreviewValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/preview/primitives", model.PreviewRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogProducts(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/catalog/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog model.CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	require.Len(t, catalog.Products, 3)
	assert.Equal(t, "Custom Funnel", catalog.Products[0].Title)
}
