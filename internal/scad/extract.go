package scad

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/makerforge/api/internal/model"
)

// Best-effort pattern matching over a handful of fixed call shapes, not a
// parser. Boolean operations are not recovered, so hollowed objects render
// as overlapping solids in the preview.
var (
	lineCommentRe  = regexp.MustCompile(`//.*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	translatedCubeRe = regexp.MustCompile(`translate\s*\(\s*\[([^\]]+)\]\s*\)[^c]*cube\s*\(\s*\[([^\]]+)\]`)
	cubeRe           = regexp.MustCompile(`cube\s*\(\s*\[([^\]]+)\]`)
	coneRe           = regexp.MustCompile(`cylinder\s*\([^)]*h\s*=\s*([\d.]+)[^)]*r1\s*=\s*([\d.]+)[^)]*r2\s*=\s*([\d.]+)`)
	cylinderRe       = regexp.MustCompile(`cylinder\s*\([^)]*h\s*=\s*([\d.]+)[^)]*r\s*=\s*([\d.]+)`)
	sphereRe         = regexp.MustCompile(`sphere\s*\([^)]*r\s*=\s*([\d.]+)`)
)

// Extract recovers a flat list of primitives from generated source for
// preview rendering. Unrecognized constructs are skipped. The result is
// never empty, a placeholder cube is returned when nothing matches.
func Extract(source string) []model.PrimitiveShape {
	code := lineCommentRe.ReplaceAllString(source, "")
	code = blockCommentRe.ReplaceAllString(code, "")

	var shapes []model.PrimitiveShape

	for _, m := range translatedCubeRe.FindAllStringSubmatch(code, -1) {
		pos, okPos := parseVec3(m[1])
		size, okSize := parseVec3(m[2])
		if okPos && okSize {
			shapes = append(shapes, model.PrimitiveShape{
				Type:     model.PrimitiveCube,
				Size:     size,
				Position: pos,
			})
		}
	}

	for _, m := range cubeRe.FindAllStringSubmatch(code, -1) {
		size, ok := parseVec3(m[1])
		if !ok || hasCubeOfSize(shapes, size) {
			continue
		}
		shapes = append(shapes, model.PrimitiveShape{
			Type: model.PrimitiveCube,
			Size: size,
		})
	}

	for _, m := range coneRe.FindAllStringSubmatch(code, -1) {
		h, err1 := strconv.ParseFloat(m[1], 64)
		r1, err2 := strconv.ParseFloat(m[2], 64)
		r2, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		shapes = append(shapes, model.PrimitiveShape{
			Type:         model.PrimitiveCone,
			Height:       h,
			RadiusTop:    r1,
			RadiusBottom: r2,
		})
	}

	for _, m := range cylinderRe.FindAllStringSubmatch(code, -1) {
		h, err1 := strconv.ParseFloat(m[1], 64)
		r, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		shapes = append(shapes, model.PrimitiveShape{
			Type:         model.PrimitiveCone,
			Height:       h,
			RadiusTop:    r,
			RadiusBottom: r,
		})
	}

	for _, m := range sphereRe.FindAllStringSubmatch(code, -1) {
		r, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		shapes = append(shapes, model.PrimitiveShape{
			Type:   model.PrimitiveSphere,
			Radius: r,
		})
	}

	if len(shapes) == 0 {
		return []model.PrimitiveShape{{
			Type: model.PrimitiveCube,
			Size: [3]float64{50, 50, 50},
		}}
	}
	return shapes
}

func parseVec3(s string) ([3]float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]float64{}, false
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [3]float64{}, false
		}
		v[i] = f
	}
	return v, true
}

func hasCubeOfSize(shapes []model.PrimitiveShape, size [3]float64) bool {
	for _, s := range shapes {
		if s.Type == model.PrimitiveCube && s.Size == size {
			return true
		}
	}
	return false
}
