package scad

import (
	"fmt"
	"strings"
)

// Template names reported back in generation results
const (
	TemplateFunnel  = "funnel"
	TemplateBracket = "bracket"
	TemplateBox     = "box"
)

// MatchTemplate looks for a known shape keyword in the request and returns
// pre-verified source for it. Keywords are checked in fixed priority order
// and the first match wins.
func MatchTemplate(request string) (source, name string, ok bool) {
	lower := strings.ToLower(request)

	if strings.Contains(lower, "funnel") {
		return Funnel(100, 20, 80, 2), TemplateFunnel, true
	}

	if strings.Contains(lower, "bracket") {
		return Bracket(50, 40, 5, 5), TemplateBracket, true
	}

	if strings.Contains(lower, "box") || strings.Contains(lower, "container") || strings.Contains(lower, "case") {
		hasLid := strings.Contains(lower, "lid") || strings.Contains(lower, "cover")
		return Box(100, 80, 60, 2, hasLid), TemplateBox, true
	}

	return "", "", false
}

// Funnel renders nested hollow cones with a spout extension
func Funnel(topDiameter, bottomDiameter, height, wallThickness float64) string {
	return fmt.Sprintf(`// Parametric Funnel
top_d = %g;
bottom_d = %g;
height = %g;
wall = %g;

difference() {
    // Outer cone
    cylinder(h=height, r1=top_d/2, r2=bottom_d/2, $fn=100);

    // Inner cone (hollowed out)
    translate([0, 0, wall])
        cylinder(h=height, r1=(top_d/2)-wall, r2=(bottom_d/2)-wall, $fn=100);
}

// Spout extension
translate([0, 0, -10])
    cylinder(h=10, r=bottom_d/2, $fn=50);
`, topDiameter, bottomDiameter, height, wallThickness)
}

// Bracket renders an L-bracket with mounting holes
func Bracket(width, height, thickness, holeDiameter float64) string {
	return fmt.Sprintf(`// L-Bracket with Mounting Holes
width = %g;
height = %g;
thick = %g;
hole_d = %g;

difference() {
    union() {
        // Vertical part
        cube([thick, width, height]);

        // Horizontal part
        cube([width, width, thick]);
    }

    // Mounting holes in vertical part
    translate([thick/2, width/2, height - 10])
        rotate([0, 90, 0])
        cylinder(h=thick*2, r=hole_d/2, center=true, $fn=30);

    // Mounting holes in horizontal part
    translate([width - 10, width/2, thick/2])
        cylinder(h=thick*2, r=hole_d/2, center=true, $fn=30);
}
`, width, height, thickness, holeDiameter)
}

// Box renders a hollow rectangular prism, optionally with a detached lid
// translated beside it for separate printing.
func Box(length, width, height, wallThickness float64, lid bool) string {
	lidCode := ""
	if lid {
		lidCode = fmt.Sprintf(`
// Lid (print separately)
translate([0, %g, 0])
difference() {
    cube([%g, %g, 5]);
    translate([%g, %g, -1])
        cube([%g, %g, 7]);
}
`, width+10, length, width, wallThickness, wallThickness, length-2*wallThickness, width-2*wallThickness)
	}

	return fmt.Sprintf(`// Parametric Box
length = %g;
width = %g;
height = %g;
wall = %g;

// Main box
difference() {
    cube([length, width, height]);
    translate([wall, wall, wall])
        cube([length - 2*wall, width - 2*wall, height]);
}
%s`, length, width, height, wallThickness, lidCode)
}
