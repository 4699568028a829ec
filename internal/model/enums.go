package model

// Classification of a user request
type Classification string

const (
	ClassificationFunctional Classification = "functional"
	ClassificationOrganic    Classification = "organic"
	ClassificationUnknown    Classification = "unknown"
)

// Artifact kinds
type ArtifactKind string

const (
	ArtifactKindScad ArtifactKind = "scad"
	ArtifactKindMesh ArtifactKind = "mesh"
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Mesh providers
type MeshProviderName string

const (
	MeshProviderMeshy MeshProviderName = "meshy"
	MeshProviderRodin MeshProviderName = "rodin"
)

// DisplayName returns the provider's user-facing name
func (p MeshProviderName) DisplayName() string {
	switch p {
	case MeshProviderMeshy:
		return "Meshy.ai"
	case MeshProviderRodin:
		return "Rodin AI"
	default:
		return string(p)
	}
}

// ErrorCategory is a coarse classification of compiler error output.
// Advisory only: it is logged and included in correction prompts but
// never changes the retry strategy.
type ErrorCategory string

const (
	ErrorCategorySyntax      ErrorCategory = "syntax"
	ErrorCategoryUndefined   ErrorCategory = "undefined"
	ErrorCategoryInvalidOp   ErrorCategory = "invalid_op"
	ErrorCategoryGeometry    ErrorCategory = "geometry"
	ErrorCategoryCompilation ErrorCategory = "compilation"
	ErrorCategoryUnknown     ErrorCategory = "unknown"
)
