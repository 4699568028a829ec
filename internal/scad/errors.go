package scad

import (
	"regexp"
	"strings"

	"github.com/makerforge/api/internal/model"
)

var undefinedNameRe = regexp.MustCompile(`(?i)unknown (?:module|function|variable) '?([A-Za-z_][A-Za-z0-9_]*)'?`)

// Categorize maps compiler diagnostics onto a coarse error category and
// extracts a short excerpt suitable for a correction prompt. Matching is
// ordered, the first hit wins.
func Categorize(output string) (model.ErrorCategory, string) {
	lower := strings.ToLower(output)
	excerpt := errorExcerpt(output)

	switch {
	case strings.Contains(lower, "syntax error") || strings.Contains(lower, "parser error"):
		return model.ErrorCategorySyntax, excerpt
	case undefinedNameRe.MatchString(output) || strings.Contains(lower, "unknown module") ||
		strings.Contains(lower, "unknown function") || strings.Contains(lower, "unknown variable"):
		return model.ErrorCategoryUndefined, excerpt
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "wrong number of"):
		return model.ErrorCategoryInvalidOp, excerpt
	case strings.Contains(lower, "cgal") || strings.Contains(lower, "geometry") ||
		strings.Contains(lower, "manifold"):
		return model.ErrorCategoryGeometry, excerpt
	case strings.Contains(lower, "error"):
		return model.ErrorCategoryCompilation, excerpt
	default:
		return model.ErrorCategoryUnknown, excerpt
	}
}

// errorExcerpt returns the first ERROR/WARNING line of the diagnostics, or
// a truncated head of the output when no such line exists.
func errorExcerpt(output string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "error") || strings.Contains(lower, "error:") {
			return trimmed
		}
	}

	trimmed := strings.TrimSpace(output)
	if len(trimmed) > 300 {
		return trimmed[:300]
	}
	return trimmed
}
