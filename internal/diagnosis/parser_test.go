package diagnosis

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func sampleRecord() Record {
	return Record{
		DiseaseName:    "Leaf Blight",
		ScientificName: "Alternaria alternata",
		Confidence:     87,
		Severity:       SeverityHigh,
		Description:    "Dark lesions spreading across the leaf surface.",
		Symptoms:       []string{"brown spots", "yellow halo", "wilting"},
		Causes:         []string{"fungal spores", "humid conditions"},
		Treatment:      []string{"remove affected leaves", "apply fungicide"},
		Prevention:     []string{"improve airflow", "avoid overhead watering"},
		AffectedParts:  []string{"leaves", "stems"},
		SpreadRate:     SpreadHigh,
	}
}

func sampleJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	return string(b)
}

func TestParse_Tier1_RoundTrip(t *testing.T) {
	want := sampleRecord()
	got, err := Parse(sampleJSON(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestParse_Tier2_FencedBlock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"tagged fence with prose", "Here you go:\n```json\n" + sampleJSON(t) + "\n```\nLet me know if you need more."},
		{"untagged fence", "```\n" + sampleJSON(t) + "\n```"},
		{"fence with leading whitespace", "Sure!\n\n```json\n  " + sampleJSON(t) + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.Confidence != 87 || got.Severity != SeverityHigh {
				t.Errorf("unexpected record: confidence=%d severity=%q", got.Confidence, got.Severity)
			}
		})
	}
}

func TestParse_Tier3_BraceSpan(t *testing.T) {
	raw := "The analysis suggests the following. " + sampleJSON(t) + " Hope that helps."
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(*got, sampleRecord()) {
		t.Errorf("tier 3 extraction mismatch: %+v", *got)
	}
}

func TestParse_SchemaViolationsRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"confidence above range", func(m map[string]any) { m["confidence"] = 150 }},
		{"confidence negative", func(m map[string]any) { m["confidence"] = -1 }},
		{"confidence fractional", func(m map[string]any) { m["confidence"] = 87.5 }},
		{"severity outside enum", func(m map[string]any) { m["severity"] = "extreme" }},
		{"spread rate outside enum", func(m map[string]any) { m["spreadRate"] = "rapid" }},
		{"missing symptoms", func(m map[string]any) { delete(m, "symptoms") }},
		{"missing treatment", func(m map[string]any) { delete(m, "treatment") }},
		{"empty disease name", func(m map[string]any) { m["diseaseName"] = "" }},
		{"confidence wrong type", func(m map[string]any) { m["confidence"] = "87" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]any
			if err := json.Unmarshal([]byte(sampleJSON(t)), &m); err != nil {
				t.Fatalf("unmarshal sample: %v", err)
			}
			tt.mutate(m)
			raw, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("marshal mutated: %v", err)
			}

			_, err = Parse(string(raw))
			if err == nil {
				t.Fatal("expected parse failure, got success")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Reason != ReasonUnrecognizedFormat {
				t.Errorf("expected reason %q, got %q", ReasonUnrecognizedFormat, perr.Reason)
			}
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"plain prose", "I could not identify a disease in this photo."},
		{"broken JSON everywhere", "```json\n{not json}\n``` and {also not json"},
		{"fenced garbage then no span", "```\nhello\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var perr *ParseError
			if !errors.As(err, &perr) || perr.Reason != ReasonUnrecognizedFormat {
				t.Errorf("expected unrecognized-format error, got %v", err)
			}
		})
	}
}

func TestParse_FencedPreferredOverBrokenWhole(t *testing.T) {
	// Whole-text parse fails because of the prose; the fenced interior is
	// the record
	raw := "Result {draft}:\n```json\n" + sampleJSON(t) + "\n```"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.DiseaseName != "Leaf Blight" {
		t.Errorf("expected fenced record, got %+v", got)
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	got, err := Parse(sampleJSON(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{"brown spots", "yellow halo", "wilting"}
	if !reflect.DeepEqual(got.Symptoms, want) {
		t.Errorf("symptom order not preserved: %v", got.Symptoms)
	}
}
