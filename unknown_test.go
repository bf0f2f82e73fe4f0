package dataclassio_test

import (
	"reflect"
	"testing"

	dcio "github.com/efroemling/dataclassio"
)

type profileV2 struct {
	dcio.ExtraFields
	Name string `json:"name"`
}

type profileV1 struct {
	Name string `json:"name"`
}

func TestUnknown_PassthroughPreservesAttrs(t *testing.T) {
	wire := map[string]any{
		"name":   "zoe",
		"theme":  "dark",
		"badges": []any{"og", 7},
	}
	out, err := dcio.FromWireValue[profileV2](wire, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := out.UnknownAttrs()
	if got["theme"] != "dark" {
		t.Fatalf("expected preserved theme, got %v", got)
	}

	// The preserved attrs ride along on re-encode.
	rewire, err := dcio.ToWireValue(out, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if rewire["theme"] != "dark" || !reflect.DeepEqual(rewire["badges"], []any{"og", 7}) {
		t.Fatalf("expected unknown attrs re-emitted, got %v", rewire)
	}
	if rewire["name"] != "zoe" {
		t.Fatalf("expected declared field kept, got %v", rewire)
	}
}

func TestUnknown_PassthroughWithoutSideTableFails(t *testing.T) {
	wire := map[string]any{"name": "zoe", "theme": "dark"}
	_, err := dcio.FromWireValue[profileV1](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeUnknownKey) {
		t.Fatalf("expected unknown_key without a side table, got %v", err)
	}
}

func TestUnknown_StripDiscards(t *testing.T) {
	wire := map[string]any{"name": "zoe", "theme": "dark"}
	out, err := dcio.FromWireValue[profileV1](wire, dcio.CodecPlain, dcio.DecodeOpt{Unknown: dcio.UnknownStrip})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != "zoe" {
		t.Fatalf("expected declared fields decoded, got %+v", out)
	}

	out2, err := dcio.FromWireValue[profileV2](wire, dcio.CodecPlain, dcio.DecodeOpt{Unknown: dcio.UnknownStrip})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out2.UnknownAttrs()) != 0 {
		t.Fatalf("expected stripped attrs, got %v", out2.UnknownAttrs())
	}
}

func TestUnknown_StrictRejects(t *testing.T) {
	wire := map[string]any{"name": "zoe", "theme": "dark"}
	_, err := dcio.FromWireValue[profileV2](wire, dcio.CodecPlain, dcio.DecodeOpt{Unknown: dcio.UnknownStrict})
	if !dcio.HasCode(err, dcio.CodeUnknownKey) {
		t.Fatalf("expected unknown_key under strict policy, got %v", err)
	}
}

func TestUnknown_MalformedValueRejectedAtDecode(t *testing.T) {
	wire := map[string]any{"name": "zoe", "blob": func() {}}
	_, err := dcio.FromWireValue[profileV2](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeValueConstraint) {
		t.Fatalf("expected value_constraint for unencodable unknown value, got %v", err)
	}
}
