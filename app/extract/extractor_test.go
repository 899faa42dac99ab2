package extract

import (
	"strings"
	"testing"
)

func TestExtractor_Run_FullBulletin(t *testing.T) {
	extractor := NewExtractor()

	text := "Magnitude = 5.6\nDepth = 10 km\nLocation = 5 km N of TestCity\nDate and Time: March 5 2024 - 14:32 PM"

	fields := extractor.Run(text)

	if fields.Magnitude == nil || *fields.Magnitude != "5.6" {
		t.Errorf("Expected magnitude '5.6', got %v", fields.Magnitude)
	}
	if fields.Depth == nil || *fields.Depth != "10 km" {
		t.Errorf("Expected depth '10 km', got %v", fields.Depth)
	}
	if fields.Location == nil || *fields.Location != "5 km N of TestCity" {
		t.Errorf("Expected location '5 km N of TestCity', got %v", fields.Location)
	}
	if fields.DateTime == nil {
		t.Fatalf("Expected date/time to be set")
	}
	if !strings.Contains(*fields.DateTime, "March 5 2024") {
		t.Errorf("Expected date/time to contain 'March 5 2024', got %q", *fields.DateTime)
	}
	if fields.Intensity != nil {
		t.Errorf("Expected intensity to be absent, got %q", *fields.Intensity)
	}
}

func TestExtractor_Run_Idempotent(t *testing.T) {
	extractor := NewExtractor()

	text := "EARTHQUAKE\nMagnitude = 4.2\nDepth = 33 km\nLocation = 12 km SE of Davao\nReported Intensity: III"

	first := extractor.Run(text)
	second := extractor.Run(text)

	for _, pair := range []struct {
		name string
		a, b *string
	}{
		{"date_time", first.DateTime, second.DateTime},
		{"magnitude", first.Magnitude, second.Magnitude},
		{"depth", first.Depth, second.Depth},
		{"location", first.Location, second.Location},
		{"intensity", first.Intensity, second.Intensity},
	} {
		if (pair.a == nil) != (pair.b == nil) {
			t.Errorf("Field %s presence differs between runs", pair.name)
			continue
		}
		if pair.a != nil && *pair.a != *pair.b {
			t.Errorf("Field %s differs between runs: %q vs %q", pair.name, *pair.a, *pair.b)
		}
	}
}

func TestExtractor_Run_FallbackRecoversSplitAnchor(t *testing.T) {
	extractor := NewExtractor()

	// Anchor and value on separate lines: the line pattern cannot capture,
	// the whole-text fallback can.
	text := "Magnitude\n= 5.6\nLocation = offshore"

	fields := extractor.Run(text)

	if fields.Magnitude == nil || *fields.Magnitude != "5.6" {
		t.Errorf("Expected fallback to recover magnitude '5.6', got %v", fields.Magnitude)
	}
}

func TestExtractor_Run_IrregularSpacingSameLine(t *testing.T) {
	extractor := NewExtractor()

	// No whitespace around the separator and trailing junk glued to the
	// value: the line pattern still captures just the number.
	fields := extractor.Run("Magnitude:5.6extra")

	if fields.Magnitude == nil || *fields.Magnitude != "5.6" {
		t.Errorf("Expected magnitude '5.6', got %v", fields.Magnitude)
	}
}

func TestExtractor_Run_AbbreviatedKeywords(t *testing.T) {
	extractor := NewExtractor()

	text := "Earthquake alert! M=6.1 D: 25 km L: 10 km W of Surigao\nOccurred on 02 Jun 2024 08:15 UTC"

	fields := extractor.Run(text)

	if fields.Magnitude == nil || *fields.Magnitude != "6.1" {
		t.Errorf("Expected magnitude '6.1', got %v", fields.Magnitude)
	}
	if fields.Depth == nil || *fields.Depth != "25 km" {
		t.Errorf("Expected depth '25 km', got %v", fields.Depth)
	}
	if fields.Location == nil || !strings.Contains(*fields.Location, "Surigao") {
		t.Errorf("Expected location to mention Surigao, got %v", fields.Location)
	}
	if fields.DateTime == nil || !strings.Contains(*fields.DateTime, "02 Jun 2024") {
		t.Errorf("Expected date/time to contain '02 Jun 2024', got %v", fields.DateTime)
	}
}

func TestExtractor_Run_DepthOfPhrase(t *testing.T) {
	extractor := NewExtractor()

	fields := extractor.Run("A tremor struck at a depth of 18 km this morning.")

	if fields.Depth == nil || *fields.Depth != "18 km" {
		t.Errorf("Expected depth '18 km', got %v", fields.Depth)
	}
}

func TestExtractor_Run_NoFields(t *testing.T) {
	extractor := NewExtractor()

	fields := extractor.Run("Stay safe everyone, aftershocks are expected.")

	if !fields.CoreEmpty() {
		t.Errorf("Expected all core fields absent for non-bulletin text")
	}
	if fields.Intensity != nil {
		t.Errorf("Expected intensity absent, got %q", *fields.Intensity)
	}
}

func TestExtractor_Run_IntensityAloneIsCoreEmpty(t *testing.T) {
	extractor := NewExtractor()

	fields := extractor.Run("Reported Intensity: IV in Tagaytay")

	if fields.Intensity == nil {
		t.Fatalf("Expected intensity to be set")
	}
	if !fields.CoreEmpty() {
		t.Errorf("Intensity alone must not count as core data")
	}
}

func TestExtractor_Run_LineMatchesSingleField(t *testing.T) {
	extractor := NewExtractor()

	// The line carries both a location and an intensity anchor; priority
	// order means only the location capture runs for this line.
	fields := extractor.Run("Location = near the Intensity station")

	if fields.Location == nil {
		t.Fatalf("Expected location to be set")
	}
	if !strings.Contains(*fields.Location, "Intensity station") {
		t.Errorf("Expected location capture to span the full remainder, got %q", *fields.Location)
	}
}

func TestExtractor_Run_LaterLineOverwrites(t *testing.T) {
	extractor := NewExtractor()

	fields := extractor.Run("Magnitude = 4.0\nMagnitude = 4.1")

	if fields.Magnitude == nil || *fields.Magnitude != "4.1" {
		t.Errorf("Expected later line to overwrite, got %v", fields.Magnitude)
	}
}

func TestExtractor_Run_DateTimeMarkerNormalization(t *testing.T) {
	extractor := NewExtractor()

	fields := extractor.Run("Date and Time: 05 Mar 2024 02:32pm")

	if fields.DateTime == nil {
		t.Fatalf("Expected date/time to be set")
	}
	if !strings.HasSuffix(*fields.DateTime, "PM") {
		t.Errorf("Expected trailing marker to be normalized, got %q", *fields.DateTime)
	}
}

func TestFields_Value(t *testing.T) {
	magnitude := "5.0"
	fields := Fields{Magnitude: &magnitude}

	if fields.Value("magnitude") != "5.0" {
		t.Errorf("Expected '5.0', got %q", fields.Value("magnitude"))
	}
	if fields.Value("depth") != "" {
		t.Errorf("Expected empty value for absent field")
	}
	if fields.Value("bogus") != "" {
		t.Errorf("Expected empty value for unknown field name")
	}
}
