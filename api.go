package dataclassio

import (
	"fmt"
	"reflect"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ToWireValue encodes a prepared record instance into a wire tree under the
// given codec. The result contains only codec-representable values and can be
// handed to any JSON encoder (plain codec) or a rich-value sink such as a
// document database client (rich codec).
func ToWireValue(v any, c Codec, opt ...EncodeOpt) (map[string]any, error) {
	return encodeRecord(v, c, pickEncodeOpt(opt))
}

// Validate runs a full encode pass over v and reports issues without
// materializing output. Useful as a cheap pre-flight before handing an
// instance to code that cannot tolerate encode failures.
func Validate(v any, c Codec, opt ...EncodeOpt) error {
	_, err := encodeRecord(v, c, pickEncodeOpt(opt))
	return err
}

// ToWireString encodes v under the plain codec and renders the result as a
// JSON document.
func ToWireString(v any, opt ...EncodeOpt) (string, error) {
	wire, err := encodeRecord(v, CodecPlain, pickEncodeOpt(opt))
	if err != nil {
		return "", err
	}
	b, err := gojson.Marshal(wire)
	if err != nil {
		return "", singleIssue("/", CodeParseError, "marshal: "+err.Error())
	}
	return string(b), nil
}

// ToWireYAML encodes v under the plain codec and renders the result as YAML.
func ToWireYAML(v any, opt ...EncodeOpt) ([]byte, error) {
	wire, err := encodeRecord(v, CodecPlain, pickEncodeOpt(opt))
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(wire)
	if err != nil {
		return nil, singleIssue("/", CodeParseError, "marshal: "+err.Error())
	}
	return b, nil
}

// FromWireValue decodes a wire tree into a freshly allocated T under the
// given codec.
func FromWireValue[T any](wire map[string]any, c Codec, opt ...DecodeOpt) (*T, error) {
	out := new(T)
	rv := reflect.ValueOf(out).Elem()
	if rv.Kind() != reflect.Struct {
		return nil, Issues{Issue{Path: "/", Code: CodeInvalidType,
			Message: issueText(CodeInvalidType, "decode targets must be struct types"), Hint: fmt.Sprintf("%T", *out)}}
	}
	if err := decodeRecord(wire, rv, c, pickDecodeOpt(opt)); err != nil {
		return nil, err
	}
	return out, nil
}

// FromWireString parses a JSON document and decodes it under the plain codec.
func FromWireString[T any](s string, opt ...DecodeOpt) (*T, error) {
	var wire map[string]any
	dec := gojson.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return nil, singleIssue("/", CodeParseError, "invalid JSON document: "+err.Error())
	}
	return FromWireValue[T](wire, CodecPlain, opt...)
}

// FromWireYAML parses a YAML document and decodes it under the plain codec.
func FromWireYAML[T any](b []byte, opt ...DecodeOpt) (*T, error) {
	var wire map[string]any
	if err := yaml.Unmarshal(b, &wire); err != nil {
		return nil, singleIssue("/", CodeParseError, "invalid YAML document: "+err.Error())
	}
	return FromWireValue[T](wire, CodecPlain, opt...)
}

// Options apply last-wins, matching the variadic option convention used
// across this package.
func pickEncodeOpt(opts []EncodeOpt) EncodeOpt {
	var o EncodeOpt
	for _, e := range opts {
		o = e
	}
	return o
}

func pickDecodeOpt(opts []DecodeOpt) DecodeOpt {
	var o DecodeOpt
	for _, e := range opts {
		o = e
	}
	return o
}
