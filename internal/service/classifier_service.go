package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/model"
)

// ClassifierService decides whether a request suits parametric CSG
// modeling or mesh-based generation
type ClassifierService struct {
	llm client.ChatCompleter
}

func NewClassifierService(llm client.ChatCompleter) *ClassifierService {
	return &ClassifierService{llm: llm}
}

const classificationPromptFmt = `You are a 3D modeling expert. Classify this request:

USER REQUEST: "%s"

Classify as either:
- FUNCTIONAL: Geometric, mechanical, mathematical parts (brackets, gears, funnels, boxes, connectors, mounts, etc.)
- ORGANIC: Curved, artistic, sculptural, nature-inspired shapes (figurines, statues, animals, faces, etc.)

Functional parts work well with OpenSCAD (programmatic/parametric modeling).
Organic parts need mesh-based modeling and are NOT suitable for OpenSCAD.

Respond with ONLY one word: FUNCTIONAL or ORGANIC`

// Classify returns the request's classification. Any failure, including an
// unconfigured model client, degrades to ClassificationUnknown rather than
// an error.
func (s *ClassifierService) Classify(ctx context.Context, request string) model.Classification {
	if !s.llm.IsConfigured() {
		return model.ClassificationUnknown
	}

	prompt := fmt.Sprintf(classificationPromptFmt, request)

	reply, err := s.llm.Complete(ctx, "", prompt, 10)
	if err != nil {
		log.Printf("[Classifier] error: %v", err)
		return model.ClassificationUnknown
	}

	upper := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(upper, "FUNCTIONAL"):
		return model.ClassificationFunctional
	case strings.Contains(upper, "ORGANIC"):
		return model.ClassificationOrganic
	default:
		return model.ClassificationUnknown
	}
}
