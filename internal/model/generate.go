package model

import "time"

// GenerateStartRequest starts a model generation job
type GenerateStartRequest struct {
	Request string `json:"request" validate:"required,min=3,max=500"`
}

// GenerateStartResponse is the accepted-job reply
type GenerateStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateStatusResponse reports job progress
type GenerateStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ArtifactResult is the uniform outcome of one generation request.
// Exactly one of Scad or Mesh is set, selected by Kind; callers never
// probe optional fields outside their variant.
type ArtifactResult struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Classification Classification `json:"classification"`
	Kind           ArtifactKind   `json:"artifactKind"`
	Scad           *ScadArtifact  `json:"scad,omitempty"`
	Mesh           *MeshArtifact  `json:"mesh,omitempty"`
}

// ScadArtifact is OpenSCAD source, optionally verified by the toolchain
type ScadArtifact struct {
	Source   string `json:"source"`
	Compiled bool   `json:"compiled"`
	Template string `json:"template,omitempty"` // set when a known-good template was used
	Attempts int    `json:"attempts,omitempty"` // model calls consumed by the correction loop
}

// MeshArtifact references a generated mesh asset. The binary lives in
// the artifact store; AssetURL is set when object storage is configured.
type MeshArtifact struct {
	Provider MeshProviderName `json:"provider"`
	Format   string           `json:"format"` // e.g. "glb"
	Size     int64            `json:"size"`
	AssetURL string           `json:"assetUrl,omitempty"`
}

// HistoryEntry pairs a request with its result
type HistoryEntry struct {
	JobID     string         `json:"jobId"`
	Request   string         `json:"request"`
	Result    ArtifactResult `json:"result"`
	CreatedAt time.Time      `json:"createdAt"`
}

// PreviewRequest asks for a primitive breakdown of OpenSCAD source
type PreviewRequest struct {
	Source string `json:"source" validate:"required"`
}

// PreviewResponse carries the extracted primitives
type PreviewResponse struct {
	Shapes []PrimitiveShape `json:"shapes"`
}
