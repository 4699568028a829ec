package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/model"
)

// fakeLLM scripts ChatCompleter replies for tests
type fakeLLM struct {
	configured bool
	replies    []string
	err        error

	calls       int
	visionCalls int
	lastSystem  string
	lastUser    string
	visionReply string
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeLLM) CompleteWithImage(ctx context.Context, prompt, imageBase64, mediaType string, maxTokens int) (string, error) {
	f.visionCalls++
	if f.err != nil {
		return "", f.err
	}
	if f.visionReply == "" {
		return "YES", nil
	}
	return f.visionReply, nil
}

func (f *fakeLLM) IsConfigured() bool {
	return f.configured
}

// fakeCompiler scripts compile outcomes, one per call
type fakeCompiler struct {
	results []error
	calls   int
	sources []string
}

func (f *fakeCompiler) Compile(ctx context.Context, source string) error {
	f.sources = append(f.sources, source)
	if f.calls >= len(f.results) {
		f.calls++
		return nil
	}
	err := f.results[f.calls]
	f.calls++
	return err
}

// fakeMeshProvider scripts a provider's create/poll behavior
type fakeMeshProvider struct {
	name       model.MeshProviderName
	configured bool
	createErr  error
	pollErr    error
	task       *client.MeshTask

	createCalls int
	pollCalls   int
	lastPrompt  string
}

func (f *fakeMeshProvider) Name() model.MeshProviderName { return f.name }

func (f *fakeMeshProvider) CreateTask(ctx context.Context, prompt string) (string, error) {
	f.createCalls++
	f.lastPrompt = prompt
	if f.createErr != nil {
		return "", f.createErr
	}
	return fmt.Sprintf("task-%s-%d", f.name, f.createCalls), nil
}

func (f *fakeMeshProvider) GetTask(ctx context.Context, taskID string) (*client.MeshTask, error) {
	return f.task, nil
}

func (f *fakeMeshProvider) Poll(ctx context.Context, taskID string, onProgress func(int)) (*client.MeshTask, error) {
	f.pollCalls++
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.task, nil
}

func (f *fakeMeshProvider) IsConfigured() bool { return f.configured }
