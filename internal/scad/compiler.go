package scad

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/makerforge/api/internal/config"
)

// ErrToolchainUnavailable means the openscad binary could not be found.
// Callers treat this as fatal rather than retrying.
var ErrToolchainUnavailable = errors.New("openscad binary not available")

// CompileError carries the compiler's diagnostic output for a failed run
type CompileError struct {
	Output  string
	Timeout bool
}

func (e *CompileError) Error() string {
	if e.Timeout {
		return "openscad compilation timed out"
	}
	return fmt.Sprintf("openscad compilation failed: %s", e.Output)
}

// Runner invokes the openscad binary to validate generated source
type Runner struct {
	binary  string
	timeout time.Duration
}

// NewRunner creates a compiler runner from configuration
func NewRunner(cfg *config.OpenSCADConfig) *Runner {
	return &Runner{
		binary:  cfg.Binary,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Compile writes source to a temp file, runs the compiler against it and
// returns nil when the source renders cleanly. The produced geometry file
// is discarded, only the exit status and diagnostics matter here.
func (r *Runner) Compile(ctx context.Context, source string) error {
	dir, err := os.MkdirTemp("", "scad-compile-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "model.scad")
	outPath := filepath.Join(dir, "model.stl")

	if err := os.WriteFile(srcPath, []byte(source), 0o600); err != nil {
		return fmt.Errorf("failed to write source file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "-o", outPath, srcPath)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return ErrToolchainUnavailable
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return ErrToolchainUnavailable
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Printf("[OpenSCAD] compile timed out after %s", r.timeout)
		return &CompileError{Timeout: true}
	}

	diag := strings.TrimSpace(string(output))
	if diag == "" {
		diag = err.Error()
	}
	return &CompileError{Output: diag}
}
