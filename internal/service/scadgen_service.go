package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/makerforge/api/internal/client"
	"github.com/makerforge/api/internal/config"
	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/scad"
)

// Compiler validates generated source against the real toolchain
type Compiler interface {
	Compile(ctx context.Context, source string) error
}

// ScadGenService turns natural-language requests into compiling OpenSCAD
// source using a bounded generate-then-correct loop
type ScadGenService struct {
	llm      client.ChatCompleter
	compiler Compiler

	maxAttempts int
	buildVolume config.BuildVolume
}

func NewScadGenService(llm client.ChatCompleter, compiler Compiler, cfg *config.OpenSCADConfig) *ScadGenService {
	maxAttempts := cfg.MaxCorrectionAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ScadGenService{
		llm:         llm,
		compiler:    compiler,
		maxAttempts: maxAttempts,
		buildVolume: cfg.BuildVolume,
	}
}

const generationSystemFmt = `You are an expert OpenSCAD programmer specializing in 3D printable models.

BUILD VOLUME: %dmm x %dmm x %dmm

CRITICAL RULES:
1. Generate ONLY valid OpenSCAD code - no explanations, no markdown
2. Use $fn for smooth curves (minimum $fn=50 for visible surfaces)
3. All dimensions in millimeters
4. Ensure wall thickness >= 1.2mm for printability
5. Add support structures if overhangs exceed 45 degrees
6. Keep models within build volume
7. Use descriptive variable names and comments

RESPOND WITH OPENSCAD CODE ONLY.`

const correctionPromptFmt = `The OpenSCAD code you generated has a %s error.

ORIGINAL REQUEST: %s

FAILED CODE:
%s

ERROR MESSAGE:
%s

Fix the error and provide corrected OpenSCAD code. Respond with ONLY the corrected code, no explanations.`

var (
	openFenceRe  = regexp.MustCompile("```(?:openscad)?\n")
	closeFenceRe = regexp.MustCompile("```\\s*$")
)

// Generate produces OpenSCAD source for the request and verifies it with
// the compiler. Compile failures feed a correction prompt back to the
// model; the total number of model calls is capped at maxAttempts. A
// missing toolchain aborts immediately instead of burning attempts.
func (s *ScadGenService) Generate(ctx context.Context, request string) (*model.ScadArtifact, error) {
	if !s.llm.IsConfigured() {
		return nil, fmt.Errorf("language model client not configured")
	}

	system := fmt.Sprintf(generationSystemFmt, s.buildVolume.X, s.buildVolume.Y, s.buildVolume.Z)

	var source string
	var lastCompileErr *scad.CompileError

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var prompt string
		if attempt == 1 {
			prompt = fmt.Sprintf("Create this 3D model:\n\n%s", request)
		} else {
			category, excerpt := scad.Categorize(lastCompileErr.Error())
			log.Printf("[ScadGen] attempt %d: %s error: %.200s", attempt-1, category, excerpt)
			prompt = fmt.Sprintf(correctionPromptFmt, category, request, source, lastCompileErr.Error())
		}

		reply, err := s.llm.Complete(ctx, system, prompt, 4000)
		if err != nil {
			return nil, fmt.Errorf("generation failed on attempt %d: %w", attempt, err)
		}

		source = stripCodeFences(reply)

		compileErr := s.compiler.Compile(ctx, source)
		if compileErr == nil {
			return &model.ScadArtifact{
				Source:   source,
				Compiled: true,
				Attempts: attempt,
			}, nil
		}

		if errors.Is(compileErr, scad.ErrToolchainUnavailable) {
			return nil, compileErr
		}

		var ce *scad.CompileError
		if !errors.As(compileErr, &ce) {
			return nil, fmt.Errorf("compile failed: %w", compileErr)
		}
		lastCompileErr = ce
	}

	return nil, fmt.Errorf("failed to produce compiling code after %d attempts: %s",
		s.maxAttempts, lastCompileErr.Error())
}

// stripCodeFences removes markdown fences the model sometimes wraps its
// reply in despite instructions
func stripCodeFences(text string) string {
	code := openFenceRe.ReplaceAllString(text, "")
	code = closeFenceRe.ReplaceAllString(code, "")
	return strings.TrimSpace(code)
}
