package geo

import (
	"regexp"
	"strconv"
	"strings"
)

// Location is a named point extracted from briefing text.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var (
	// triplePattern matches "Name | lat | lon" fragments anywhere in the text.
	// The name capture runs up to the first pipe and never crosses a newline.
	triplePattern = regexp.MustCompile(`([^|\n]+)\|\s*(-?\d+\.?\d+)\s*\|\s*(-?\d+\.?\d+)`)

	// markupChars are markdown decorations stripped from captured names.
	markupChars = strings.NewReplacer("*", "", "-", "", "[", "", "]", "")

	coordSectionPattern = regexp.MustCompile(`(?mi)^\s*#{1,3}\s*COORDINATES.*$(?:\n(?:.*\|.*\|.*$))*`)
	tripleLinePattern   = regexp.MustCompile(`(?m)^[^\n|]+\|\s*-?\d+\.?\d*\s*\|\s*-?\d+\.?\d*\s*$`)
	blankRunPattern     = regexp.MustCompile(`\n{3,}`)
)

// PageBreakMarker separates the briefing body from the coordinate appendix
// in generated guides. Extract still scans the whole text.
const PageBreakMarker = "(---PAGE BREAK---)"

// Extract scans text for "Name | Lat | Lon" triples and returns one Location
// per valid occurrence, in source order. Malformed or out-of-range triples
// are skipped; duplicates are preserved. Never returns an error.
func Extract(text string) []Location {
	var locations []Location
	for _, m := range triplePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(markupChars.Replace(strings.TrimSpace(m[1])))
		if name == "" {
			continue
		}
		lat, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		locations = append(locations, Location{Name: name, Lat: lat, Lon: lon})
	}
	return locations
}

// StripCoordinateSection removes the COORDINATES appendix, bare coordinate
// lines, and the page-break marker, leaving only prose suitable for display
// or as chat context.
func StripCoordinateSection(text string) string {
	if idx := strings.Index(text, PageBreakMarker); idx >= 0 {
		text = text[:idx]
	}
	text = coordSectionPattern.ReplaceAllString(text, "")
	text = tripleLinePattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
