package extract

import (
	"regexp"
	"strings"
)

// Extractor recovers structured seismic fields from free-text bulletin posts.
// Extraction is a pure function of the input text: every field's absence is a
// valid outcome and no input can make it fail.
//
// It works in two phases. Phase A walks the text line by line, anchoring each
// line on at most one field keyword (date/time checked first, then magnitude,
// depth, location, intensity) and applying that field's line pattern. Phase B
// re-scans the whole text with looser multi-line patterns for any field still
// unset, recovering values whose anchor and value were split across lines.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

var (
	dateTimeAnchors  = []string{"date and time:", "date:", "occurred on"}
	magnitudeAnchors = []string{"magnitude"}
	depthAnchors     = []string{"depth"}
	locationAnchors  = []string{"location"}
	intensityAnchors = []string{"intensity", "reported intensity"}
)

var (
	dateTimeLine  = regexp.MustCompile(`(?i)(?:Date and Time:|Date:|Occurred on)?\s*([\d\w\s:.]+(?:AM|PM|UTC)?)`)
	magnitudeLine = regexp.MustCompile(`(?i)Magnitude\s*[=:]\s*([0-9.]+)`)
	depthLine     = regexp.MustCompile(`(?i)Depth\s*[=:]\s*([0-9]+\s*km)`)
	locationLine  = regexp.MustCompile(`(?i)Location\s*[=:]\s*(.*)`)
	intensityLine = regexp.MustCompile(`(?i)(?:Reported )?Intensity\s*[=:]\s*(.*)`)
)

// Whole-text cascades, first match wins. These are deliberately looser than
// the line patterns: separators vary (=, :, bare whitespace), keywords may be
// abbreviated (M, D, L) and values may sit on the line after their anchor.
var (
	dateTimeFull = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Date\s*and\s*Time\s*[=:]\s*(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?i)Date[=:]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Occurred on\s*([^\n]+)`),
	}
	magnitudeFull = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Magnitude\s*[=:]\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?i)\bM[=:]\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?i)\bM\s+(\d+\.?\d*)`),
		regexp.MustCompile(`(?i)Magnitude\s+(\d+\.?\d*)`),
	}
	depthFull = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Depth\s*[=:]\s*(\d+\s*km)`),
		regexp.MustCompile(`(?i)\bD[=:]\s*(\d+\s*km)`),
		regexp.MustCompile(`(?i)Depth\s+(\d+\s*km)`),
		regexp.MustCompile(`(?i)depth of\s+(\d+\s*km)`),
	}
	locationFull = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Location\s*[=:]\s*(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?i)\bL[=:]\s*([^\n]+)`),
	}
	intensityFull = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:Reported\s+)?Intensity\s*[=:]\s*(.*?)(?:\n|$)`),
	}
)

func (e *Extractor) Run(text string) Fields {
	var fields Fields

	for _, line := range strings.Split(text, "\n") {
		// A line anchors at most one field; the first matching anchor
		// wins and later lines overwrite earlier captures.
		switch {
		case containsAny(line, dateTimeAnchors):
			if v, ok := firstMatch([]*regexp.Regexp{dateTimeLine}, line); ok {
				v = normalizeDateTime(v)
				fields.DateTime = &v
			}
		case containsAny(line, magnitudeAnchors):
			if v, ok := firstMatch([]*regexp.Regexp{magnitudeLine}, line); ok {
				fields.Magnitude = &v
			}
		case containsAny(line, depthAnchors):
			if v, ok := firstMatch([]*regexp.Regexp{depthLine}, line); ok {
				fields.Depth = &v
			}
		case containsAny(line, locationAnchors):
			if v, ok := firstMatch([]*regexp.Regexp{locationLine}, line); ok {
				fields.Location = &v
			}
		case containsAny(line, intensityAnchors):
			if v, ok := firstMatch([]*regexp.Regexp{intensityLine}, line); ok {
				fields.Intensity = &v
			}
		}
	}

	if fields.DateTime == nil {
		if v, ok := firstMatch(dateTimeFull, text); ok {
			fields.DateTime = &v
		}
	}
	if fields.Magnitude == nil {
		if v, ok := firstMatch(magnitudeFull, text); ok {
			fields.Magnitude = &v
		}
	}
	if fields.Depth == nil {
		if v, ok := firstMatch(depthFull, text); ok {
			fields.Depth = &v
		}
	}
	if fields.Location == nil {
		if v, ok := firstMatch(locationFull, text); ok {
			fields.Location = &v
		}
	}
	if fields.Intensity == nil {
		if v, ok := firstMatch(intensityFull, text); ok {
			fields.Intensity = &v
		}
	}

	return fields
}

func containsAny(line string, anchors []string) bool {
	lower := strings.ToLower(line)
	for _, anchor := range anchors {
		if strings.Contains(lower, anchor) {
			return true
		}
	}
	return false
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// normalizeDateTime tidies a trailing am/pm/UTC marker. Captures that carry
// no recognizable marker are kept as-is; this step never rejects a value.
func normalizeDateTime(value string) string {
	lower := strings.ToLower(value)
	for _, marker := range []string{"am", "pm", "utc"} {
		if !strings.HasSuffix(lower, marker) {
			continue
		}
		prefix := value[:len(value)-len(marker)]
		// Marker glued to a word ("Guam") is not a time marker.
		if prefix != "" && isLetter(prefix[len(prefix)-1]) {
			continue
		}
		base := strings.TrimSpace(prefix)
		if base == "" {
			return value
		}
		return base + " " + strings.ToUpper(marker)
	}
	return value
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
