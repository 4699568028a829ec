package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerforge/api/internal/config"
)

func newRodinTestClient(url string) *RodinClient {
	c := NewRodinClient(&config.RodinConfig{APIKey: "test-key", BaseURL: url})
	c.pollInterval = time.Millisecond
	c.maxPolls = 6
	return c
}

func TestRodinCreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/rodin", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a cartoon dog", body["prompt"])
		assert.Equal(t, "standard", body["tier"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"uuid": "uuid-456"})
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)
	taskID, err := c.CreateTask(context.Background(), "a cartoon dog")
	require.NoError(t, err)
	assert.Equal(t, "uuid-456", taskID)
}

func TestRodinCreateTaskMissingUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)
	_, err := c.CreateTask(context.Background(), "a cartoon dog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no task uuid")
}

func TestRodinPollEstimatedProgress(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/rodin/uuid-456", r.URL.Path)

		resp := map[string]interface{}{"uuid": "uuid-456", "status": "running"}
		if polls.Add(1) >= 4 {
			resp["status"] = "success"
			resp["model_url"] = "https://cdn.example.com/model.glb"
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)

	var reported []int
	task, err := c.Poll(context.Background(), "uuid-456", func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusSucceeded, task.Status)
	assert.Equal(t, "https://cdn.example.com/model.glb", task.ModelURL)
	assert.Equal(t, []int{5, 10, 15, 100}, reported)
}

func TestRodinPollFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uuid":   "uuid-456",
			"status": "failed",
			"error":  "generation rejected",
		})
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)
	_, err := c.Poll(context.Background(), "uuid-456", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation rejected")
}

func TestRodinPollTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"uuid": "uuid-456", "status": "pending"})
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)
	_, err := c.Poll(context.Background(), "uuid-456", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out after 6 polls")
}

func TestRodinPollSurvivesTransientErrors(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uuid":      "uuid-456",
			"status":    "success",
			"model_url": "https://cdn.example.com/model.glb",
		})
	}))
	defer srv.Close()

	c := newRodinTestClient(srv.URL)
	task, err := c.Poll(context.Background(), "uuid-456", nil)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusSucceeded, task.Status)
}

func TestRodinIsConfigured(t *testing.T) {
	assert.True(t, NewRodinClient(&config.RodinConfig{APIKey: "k"}).IsConfigured())
	assert.False(t, NewRodinClient(&config.RodinConfig{}).IsConfigured())
}
