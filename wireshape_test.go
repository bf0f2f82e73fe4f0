package dataclassio_test

import (
	"testing"
	"time"

	dcio "github.com/efroemling/dataclassio"
)

func TestCheckWire_PlainAcceptsJSONShapes(t *testing.T) {
	doc := map[string]any{
		"s": "str",
		"n": 3,
		"f": 1.5,
		"b": true,
		"l": []any{1, "two", nil},
		"m": map[string]any{"nested": []any{map[string]any{"deep": 1}}},
	}
	if err := dcio.CheckWire(doc, dcio.CodecPlain); err != nil {
		t.Fatalf("expected valid wire doc, got %v", err)
	}
}

func TestCheckWire_PlainRejectsRichValues(t *testing.T) {
	err := dcio.CheckWire(map[string]any{"t": time.Now()}, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeValueConstraint) {
		t.Fatalf("expected value_constraint, got %v", err)
	}
	if err := dcio.CheckWire(map[string]any{"t": time.Now().UTC()}, dcio.CodecRich); err != nil {
		t.Fatalf("rich codec should accept time.Time, got %v", err)
	}
	if err := dcio.CheckWire(map[string]any{"b": []byte{1}}, dcio.CodecRich); err != nil {
		t.Fatalf("rich codec should accept bytes, got %v", err)
	}
}

func TestCheckWire_ReportsOffenderPath(t *testing.T) {
	doc := map[string]any{"outer": []any{map[string]any{"bad": make(chan int)}}}
	err := dcio.CheckWire(doc, dcio.CodecPlain)
	iss, ok := dcio.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected issues, got %v", err)
	}
	if iss[0].Path != "/outer/0/bad" {
		t.Fatalf("expected offender path, got %q", iss[0].Path)
	}
}

func TestAnyField_RejectsUnencodableValue(t *testing.T) {
	type holder struct {
		X any `json:"x"`
	}
	_, err := dcio.ToWireValue(&holder{X: struct{ A int }{1}}, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeValueConstraint) {
		t.Fatalf("expected value_constraint for struct inside any, got %v", err)
	}
}
