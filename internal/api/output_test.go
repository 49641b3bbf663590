package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sampleRow struct {
	JobID      string  `json:"job_id" yaml:"job_id"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, JSON, sampleRow{JobID: "job-1", Confidence: 0.85}); err != nil {
		t.Fatal(err)
	}

	var got sampleRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.JobID != "job-1" || got.Confidence != 0.85 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, YAML, sampleRow{JobID: "job-1", Confidence: 0.85}); err != nil {
		t.Fatal(err)
	}

	var got sampleRow
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got.JobID != "job-1" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Format("xml"), sampleRow{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	cases := []struct {
		in   string
		want Format
	}{
		{"json", JSON},
		{"yaml", YAML},
		{"nonsense", YAML},
	}
	for _, tc := range cases {
		SetOutputFormat(tc.in)
		if got := CurrentFormat(); got != tc.want {
			t.Errorf("SetOutputFormat(%q) -> %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEncodeFormatsDiffer(t *testing.T) {
	var asJSON, asYAML bytes.Buffer
	data := sampleRow{JobID: "job-1"}
	if err := Encode(&asJSON, JSON, data); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&asYAML, YAML, data); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(asJSON.String()), "{") {
		t.Errorf("json output looks wrong: %q", asJSON.String())
	}
	if strings.HasPrefix(strings.TrimSpace(asYAML.String()), "{") {
		t.Errorf("yaml output looks wrong: %q", asYAML.String())
	}
}
