package model

// Primitive shape types recognized by the preview extractor
const (
	PrimitiveCube   = "cube"
	PrimitiveCone   = "cone" // also covers straight cylinders (equal radii)
	PrimitiveSphere = "sphere"
)

// PrimitiveShape is one basic solid recovered from OpenSCAD source for
// preview rendering. It is derived, approximate and never authoritative:
// boolean operations are not reflected, so hollowed solids render as
// overlapping shapes.
type PrimitiveShape struct {
	Type         string     `json:"type"`
	Size         [3]float64 `json:"size,omitempty"`         // cube
	Height       float64    `json:"height,omitempty"`       // cone
	RadiusTop    float64    `json:"radiusTop,omitempty"`    // cone
	RadiusBottom float64    `json:"radiusBottom,omitempty"` // cone
	Radius       float64    `json:"radius,omitempty"`       // sphere
	Position     [3]float64 `json:"position"`
}
