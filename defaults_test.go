package dataclassio_test

import (
	"testing"

	dcio "github.com/efroemling/dataclassio"
)

type tunerConfig struct {
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Gain    float64  `json:"gain"`
	Labels  []string `json:"labels"`
	Verbose bool     `json:"verbose"`
}

func (tunerConfig) FieldAttrs() map[string]dcio.FieldAttrs {
	return map[string]dcio.FieldAttrs{
		"Port":    {Default: 4242},
		"Gain":    {SoftDefault: 0.0, OmitIfDefault: true},
		"Labels":  {DefaultFactory: func() any { return []string{} }},
		"Verbose": {Default: false, OmitIfDefault: true},
	}
}

func TestDefaults_FillMissingOnDecode(t *testing.T) {
	out, err := dcio.FromWireValue[tunerConfig](map[string]any{"host": "radio.local"}, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Port != 4242 {
		t.Fatalf("expected default port 4242, got %d", out.Port)
	}
	if out.Gain != 0.0 {
		t.Fatalf("expected soft default gain 0, got %v", out.Gain)
	}
	if out.Labels == nil || len(out.Labels) != 0 {
		t.Fatalf("expected factory-made empty labels, got %#v", out.Labels)
	}
}

func TestDefaults_OmitIfDefaultSuppressesOutput(t *testing.T) {
	wire, err := dcio.ToWireValue(&tunerConfig{Host: "a", Port: 99, Gain: 0.0, Labels: []string{}}, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, present := wire["gain"]; present {
		t.Fatalf("expected gain omitted at its default, wire=%v", wire)
	}
	if _, present := wire["verbose"]; present {
		t.Fatalf("expected verbose omitted at its default, wire=%v", wire)
	}
	// Non-default values always serialize.
	if wire["port"] != 99 {
		t.Fatalf("expected explicit port kept, wire=%v", wire)
	}

	// The suppressed value comes back on decode.
	out, err := dcio.FromWireValue[tunerConfig](wire, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Gain != 0.0 || out.Verbose != false {
		t.Fatalf("expected defaults restored, got %+v", out)
	}
}

func TestDefaults_NonDefaultGainSerializes(t *testing.T) {
	wire, err := dcio.ToWireValue(&tunerConfig{Host: "a", Gain: 1.5, Labels: []string{}}, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire["gain"] != 1.5 {
		t.Fatalf("expected gain on the wire, got %v", wire)
	}
}

type badOmitConfig struct {
	N int `json:"n"`
}

func (badOmitConfig) FieldAttrs() map[string]dcio.FieldAttrs {
	return map[string]dcio.FieldAttrs{"N": {OmitIfDefault: true}}
}

func TestDefaults_OmitWithoutDefaultIsSchemaError(t *testing.T) {
	err := dcio.Prepare(badOmitConfig{})
	if !dcio.HasCode(err, dcio.CodeSchemaError) {
		t.Fatalf("expected schema_error, got %v", err)
	}
}
