package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/makerforge/api/internal/client"
)

// shortPromptThreshold is the length below which a request is considered
// too vague to hand to a mesh provider directly
const shortPromptThreshold = 15

// EnhancerService expands short, vague prompts into richer physical
// descriptions before mesh generation
type EnhancerService struct {
	llm client.ChatCompleter
}

func NewEnhancerService(llm client.ChatCompleter) *EnhancerService {
	return &EnhancerService{llm: llm}
}

// Enhance rewrites a short prompt via the language model. Prompts at or
// above the threshold pass through unchanged. On any failure a generic
// suffix is appended instead.
func (s *EnhancerService) Enhance(ctx context.Context, prompt, typeHint string) string {
	if len(strings.TrimSpace(prompt)) >= shortPromptThreshold {
		return prompt
	}

	if !s.llm.IsConfigured() {
		return prompt + " detailed 3D printable model"
	}

	userPrompt := fmt.Sprintf(`Improve this 3D %s prompt to be clear but UNDER 50 words: "%s". Respond ONLY with the improved prompt.`, typeHint, prompt)

	reply, err := s.llm.Complete(ctx, "", userPrompt, 60)
	if err != nil {
		log.Printf("[Enhancer] error: %v", err)
		return prompt + " detailed 3D printable model"
	}

	enhanced := strings.Trim(strings.TrimSpace(reply), `"'`)
	if len(enhanced) > 200 {
		enhanced = enhanced[:200]
	}
	return enhanced
}
