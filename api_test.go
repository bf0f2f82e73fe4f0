package dataclassio_test

import (
	"strings"
	"testing"

	dcio "github.com/efroemling/dataclassio"
)

type noteDoc struct {
	Title string   `json:"title"`
	Count int      `json:"count"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags"`
}

func TestWireString_RoundTrip(t *testing.T) {
	in := &noteDoc{Title: "hello", Count: 3, Score: 0.75, Tags: []string{"a", "b"}}
	s, err := dcio.ToWireString(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(s, `"title":"hello"`) {
		t.Fatalf("unexpected JSON output: %s", s)
	}
	out, err := dcio.FromWireString[noteDoc](s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 3 || out.Score != 0.75 || out.Tags[1] != "b" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestWireString_ParsedIntsStayInts(t *testing.T) {
	// JSON numbers must keep their integer identity through parsing so that
	// int fields accept them and float fields still see them as ints.
	out, err := dcio.FromWireString[noteDoc](`{"title":"x","count":12,"score":2.5,"tags":[]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 12 {
		t.Fatalf("expected 12, got %d", out.Count)
	}

	_, err = dcio.FromWireString[noteDoc](`{"title":"x","count":12,"score":2,"tags":[]}`,
		dcio.DecodeOpt{Coerce: dcio.CoerceNone})
	if !dcio.HasCode(err, dcio.CodeInvalidType) {
		t.Fatalf("expected invalid_type for int-form score under CoerceNone, got %v", err)
	}
}

func TestWireString_ParseError(t *testing.T) {
	_, err := dcio.FromWireString[noteDoc](`{"title": `)
	if !dcio.HasCode(err, dcio.CodeParseError) {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestWireYAML_RoundTrip(t *testing.T) {
	in := &noteDoc{Title: "hello", Count: 3, Score: 0.75, Tags: []string{"a"}}
	b, err := dcio.ToWireYAML(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := dcio.FromWireYAML[noteDoc](b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Title != "hello" || out.Count != 3 || out.Score != 0.75 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestWireYAML_ParseError(t *testing.T) {
	_, err := dcio.FromWireYAML[noteDoc]([]byte("\t: nope"))
	if !dcio.HasCode(err, dcio.CodeParseError) {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestFromWireValue_RejectsNonStructTarget(t *testing.T) {
	_, err := dcio.FromWireValue[int](map[string]any{}, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeInvalidType) {
		t.Fatalf("expected invalid_type for non-struct target, got %v", err)
	}
}
