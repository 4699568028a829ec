package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerforge/api/internal/config"
	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/scad"
)

func newPipeline(llm *fakeLLM, compiler *fakeCompiler, meshy, rodin *fakeMeshProvider) *PipelineService {
	classifier := NewClassifierService(llm)
	scadGen := NewScadGenService(llm, compiler, &config.OpenSCADConfig{
		MaxCorrectionAttempts: 5,
		BuildVolume:           config.BuildVolume{X: 256, Y: 256, Z: 256},
	})
	enhancer := NewEnhancerService(llm)
	mesh := NewMeshService(enhancer, llm, meshy, rodin)
	return NewPipelineService(classifier, enhancer, scadGen, mesh)
}

func TestProcessTemplateShortCircuit(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"FUNCTIONAL"}}
	compiler := &fakeCompiler{}
	pipeline := newPipeline(llm, compiler, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, data := pipeline.Process(context.Background(), "a funnel", nil)

	require.True(t, result.Success)
	assert.Nil(t, data)
	assert.Equal(t, model.ArtifactKindScad, result.Kind)
	require.NotNil(t, result.Scad)
	assert.Equal(t, scad.TemplateFunnel, result.Scad.Template)
	assert.False(t, result.Scad.Compiled)
	assert.Contains(t, result.Scad.Source, "difference()")
	// only the classification call reaches the model
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 0, compiler.calls)
}

func TestProcessBracketTemplate(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"FUNCTIONAL"}}
	pipeline := newPipeline(llm, &fakeCompiler{}, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, _ := pipeline.Process(context.Background(), "mounting bracket with holes", nil)

	require.True(t, result.Success)
	assert.Equal(t, model.ClassificationFunctional, result.Classification)
	assert.Equal(t, scad.TemplateBracket, result.Scad.Template)
	assert.Equal(t, 1, llm.calls)
}

func TestProcessFunctionalGeneration(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"FUNCTIONAL", "cube([24, 24, 8]);"}}
	compiler := &fakeCompiler{}
	pipeline := newPipeline(llm, compiler, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, data := pipeline.Process(context.Background(), "a gear with 24 teeth", nil)

	require.True(t, result.Success)
	assert.Nil(t, data)
	assert.Equal(t, model.ArtifactKindScad, result.Kind)
	assert.True(t, result.Scad.Compiled)
	assert.Equal(t, "cube([24, 24, 8]);", result.Scad.Source)
	assert.Equal(t, 2, llm.calls)
}

func TestProcessFunctionalEnhancesShortPrompt(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{
		"FUNCTIONAL",
		"a small decorative widget with rounded edges",
		"cube([12, 12, 4]);",
	}}
	pipeline := newPipeline(llm, &fakeCompiler{}, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, _ := pipeline.Process(context.Background(), "a widget", nil)

	require.True(t, result.Success)
	assert.Equal(t, "cube([12, 12, 4]);", result.Scad.Source)
	// classify, enhance, generate
	assert.Equal(t, 3, llm.calls)
	assert.Contains(t, llm.lastUser, "a small decorative widget with rounded edges")
}

func TestProcessUnknownRoutesToFunctional(t *testing.T) {
	// classification failure degrades to the parametric path
	llm := &fakeLLM{configured: true, replies: []string{"shrug", "cube([1, 1, 1]);"}}
	pipeline := newPipeline(llm, &fakeCompiler{}, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, _ := pipeline.Process(context.Background(), "a gizmo widget", nil)

	require.True(t, result.Success)
	assert.Equal(t, model.ClassificationUnknown, result.Classification)
	assert.Equal(t, model.ArtifactKindScad, result.Kind)
}

func TestProcessOrganicRoutesToMesh(t *testing.T) {
	assets := newAssetServer(t, []byte("glb-bytes"))
	llm := &fakeLLM{configured: true, replies: []string{"ORGANIC"}}
	meshy := &fakeMeshProvider{name: model.MeshProviderMeshy, configured: true, task: succeededTask(assets.URL)}
	pipeline := newPipeline(llm, &fakeCompiler{}, meshy, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, data := pipeline.Process(context.Background(), "a cartoon bear with a tiny hat", nil)

	require.True(t, result.Success)
	assert.Equal(t, model.ArtifactKindMesh, result.Kind)
	require.NotNil(t, result.Mesh)
	assert.Contains(t, result.Message, "Generated with Meshy.ai")
	assert.Equal(t, []byte("glb-bytes"), data)
	assert.Nil(t, result.Scad)
}

func TestProcessMeshFailureNeverRaises(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"ORGANIC"}}
	// neither provider configured
	pipeline := newPipeline(llm, &fakeCompiler{}, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, data := pipeline.Process(context.Background(), "a cartoon bear with a tiny hat", nil)

	assert.False(t, result.Success)
	assert.Nil(t, data)
	assert.Contains(t, result.Message, "no mesh provider configured")
}

func TestProcessGenerationFailureNeverRaises(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"FUNCTIONAL", "bad code"}}
	compiler := &fakeCompiler{results: []error{scad.ErrToolchainUnavailable}}
	pipeline := newPipeline(llm, compiler, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	result, _ := pipeline.Process(context.Background(), "a gizmo widget", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "openscad binary not available")
}

func TestProcessReportsProgress(t *testing.T) {
	llm := &fakeLLM{configured: true, replies: []string{"FUNCTIONAL"}}
	pipeline := newPipeline(llm, &fakeCompiler{}, &fakeMeshProvider{name: model.MeshProviderMeshy}, &fakeMeshProvider{name: model.MeshProviderRodin})

	var steps []string
	pipeline.Process(context.Background(), "a funnel", func(progress int, step string) {
		steps = append(steps, step)
	})

	assert.Equal(t, []string{"classifying", "matching templates"}, steps)
}
