package service

import (
	"context"
	"fmt"
	"log"

	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/scad"
)

// PipelineService sequences classification, template short-circuit and
// the generation backends into one uniform result
type PipelineService struct {
	classifier *ClassifierService
	enhancer   *EnhancerService
	scadGen    *ScadGenService
	mesh       *MeshService
}

func NewPipelineService(classifier *ClassifierService, enhancer *EnhancerService, scadGen *ScadGenService, mesh *MeshService) *PipelineService {
	return &PipelineService{
		classifier: classifier,
		enhancer:   enhancer,
		scadGen:    scadGen,
		mesh:       mesh,
	}
}

// Process runs one request through the full pipeline. It never returns an
// error: every failure is folded into a failed ArtifactResult. The second
// return value carries raw mesh bytes when a mesh was produced.
func (s *PipelineService) Process(ctx context.Context, request string, onProgress func(progress int, step string)) (*model.ArtifactResult, []byte) {
	progress := func(p int, step string) {
		if onProgress != nil {
			onProgress(p, step)
		}
	}

	progress(5, "classifying")
	classification := s.classifier.Classify(ctx, request)
	log.Printf("[Pipeline] classification: %s", classification)

	if classification == model.ClassificationOrganic {
		progress(10, "generating mesh")
		artifact, data, err := s.mesh.Generate(ctx, request, func(p int) {
			// mesh polling owns the 10-95 band
			scaled := 10 + p*85/100
			progress(scaled, "generating mesh")
		})
		if err != nil {
			return &model.ArtifactResult{
				Success:        false,
				Message:        fmt.Sprintf("Mesh generation failed: %v", err),
				Classification: classification,
				Kind:           model.ArtifactKindMesh,
			}, nil
		}

		return &model.ArtifactResult{
			Success:        true,
			Message:        fmt.Sprintf("Generated with %s (GLB format, convert to STL for printing)", artifact.Provider.DisplayName()),
			Classification: classification,
			Kind:           model.ArtifactKindMesh,
			Mesh:           artifact,
		}, data
	}

	// FUNCTIONAL and UNKNOWN both go through the parametric path
	progress(10, "matching templates")
	if source, name, ok := scad.MatchTemplate(request); ok {
		log.Printf("[Pipeline] template short-circuit: %s", name)
		return &model.ArtifactResult{
			Success:        true,
			Message:        fmt.Sprintf("Generated using reliable %s template", name),
			Classification: classification,
			Kind:           model.ArtifactKindScad,
			Scad: &model.ScadArtifact{
				Source:   source,
				Compiled: false,
				Template: name,
			},
		}, nil
	}

	progress(20, "generating code")
	prompt := s.enhancer.Enhance(ctx, request, "functional")
	artifact, err := s.scadGen.Generate(ctx, prompt)
	if err != nil {
		return &model.ArtifactResult{
			Success:        false,
			Message:        fmt.Sprintf("Code generation failed: %v", err),
			Classification: classification,
			Kind:           model.ArtifactKindScad,
		}, nil
	}

	return &model.ArtifactResult{
		Success:        true,
		Message:        "Model generated successfully",
		Classification: classification,
		Kind:           model.ArtifactKindScad,
		Scad:           artifact,
	}, nil
}
