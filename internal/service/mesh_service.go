package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/model"
)

// maxMeshAttempts caps provider submissions per request, covering one
// failover or one quality-check resubmission
const maxMeshAttempts = 2

// Keywords that route to the stylized-friendly provider
var stylizedKeywords = []string{"cartoon", "stylized", "simple", "cute", "toy"}

// MeshService generates mesh artifacts through external text-to-3D
// providers with bounded failover
type MeshService struct {
	enhancer *EnhancerService
	llm      client.ChatCompleter
	meshy    client.MeshProvider
	rodin    client.MeshProvider
}

func NewMeshService(enhancer *EnhancerService, llm client.ChatCompleter, meshy, rodin client.MeshProvider) *MeshService {
	return &MeshService{
		enhancer: enhancer,
		llm:      llm,
		meshy:    meshy,
		rodin:    rodin,
	}
}

// selectProviders returns the preferred provider followed by the fallback.
// Rodin handles stylized content better; Meshy is the default otherwise.
func (s *MeshService) selectProviders(prompt string) []client.MeshProvider {
	lower := strings.ToLower(prompt)

	stylized := false
	for _, kw := range stylizedKeywords {
		if strings.Contains(lower, kw) {
			stylized = true
			break
		}
	}

	var order []client.MeshProvider
	if stylized && s.rodin.IsConfigured() {
		order = append(order, s.rodin)
		if s.meshy.IsConfigured() {
			order = append(order, s.meshy)
		}
	} else {
		if s.meshy.IsConfigured() {
			order = append(order, s.meshy)
		}
		if s.rodin.IsConfigured() {
			order = append(order, s.rodin)
		}
	}
	return order
}

// Generate enhances the prompt, submits it to a provider and polls until
// the task finishes, failing over at most once. It returns the artifact
// metadata along with the downloaded model bytes.
func (s *MeshService) Generate(ctx context.Context, request string, onProgress func(int)) (*model.MeshArtifact, []byte, error) {
	prompt := s.enhancer.Enhance(ctx, request, "organic")
	if prompt != request {
		log.Printf("[Mesh] enhanced prompt: %q", prompt)
	}

	providers := s.selectProviders(prompt)
	if len(providers) == 0 {
		return nil, nil, fmt.Errorf("no mesh provider configured")
	}

	attempts := maxMeshAttempts
	if len(providers) < attempts {
		attempts = len(providers)
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		provider := providers[attempt]
		log.Printf("[Mesh] attempt %d via %s", attempt+1, provider.Name())

		artifact, data, err := s.generateOnce(ctx, provider, prompt, onProgress)
		if err != nil {
			lastErr = err
			log.Printf("[Mesh] %s attempt failed: %v", provider.Name(), err)
			continue
		}

		if s.passesQualityCheck(ctx, request, artifact.thumbnailURL) {
			return artifact.meshArtifact, data, nil
		}

		lastErr = fmt.Errorf("result rejected by quality check")
		log.Printf("[Mesh] %s result rejected by quality check", provider.Name())
	}

	return nil, nil, fmt.Errorf("mesh generation failed after %d attempts: %w", attempts, lastErr)
}

type meshOutcome struct {
	meshArtifact *model.MeshArtifact
	thumbnailURL string
}

func (s *MeshService) generateOnce(ctx context.Context, provider client.MeshProvider, prompt string, onProgress func(int)) (*meshOutcome, []byte, error) {
	taskID, err := provider.CreateTask(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	task, err := provider.Poll(ctx, taskID, onProgress)
	if err != nil {
		return nil, nil, err
	}

	if task.ModelURL == "" {
		return nil, nil, fmt.Errorf("no model file in completed task")
	}

	data, err := client.DownloadAsset(ctx, task.ModelURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download model: %w", err)
	}

	return &meshOutcome{
		meshArtifact: &model.MeshArtifact{
			Provider: provider.Name(),
			Format:   "glb",
			Size:     int64(len(data)),
		},
		thumbnailURL: task.ThumbnailURL,
	}, data, nil
}

// passesQualityCheck asks a vision model whether the result thumbnail
// matches the original request. Best effort: any failure along the way
// accepts the result rather than rejecting it.
func (s *MeshService) passesQualityCheck(ctx context.Context, request, thumbnailURL string) bool {
	if thumbnailURL == "" || !s.llm.IsConfigured() {
		return true
	}

	thumb, err := client.DownloadAsset(ctx, thumbnailURL)
	if err != nil {
		log.Printf("[Mesh] thumbnail fetch failed, skipping quality check: %v", err)
		return true
	}

	prompt := fmt.Sprintf(`Does this 3D model image match the request "%s"? Respond with ONLY one word: YES or NO`, request)

	reply, err := s.llm.CompleteWithImage(ctx, prompt, base64.StdEncoding.EncodeToString(thumb), "image/png", 10)
	if err != nil {
		log.Printf("[Mesh] quality check failed, accepting result: %v", err)
		return true
	}

	return !strings.Contains(strings.ToUpper(reply), "NO")
}
