// Package dataclassio provides:
//
// - Reflection-driven encode/decode/validate between Go structs and a
//   restricted wire value model (Plain: JSON shapes only; Rich: additionally
//   raw bytes and native timestamps)
// - A stable error model via Issues (JSON Pointer, code, message)
// - Forward-compatible round trips: unknown wire attributes are preserved on
//   decoded instances and re-emitted verbatim on encode
// - Polymorphic record families dispatched by an explicit type-tag key
//
// Design policy:
// - Keep public APIs in the root package; put detail helpers under internal/.
// - Place the JSON Schema export model under jsonschema/ and the CLI under
//   cmd/dataclassio.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	dataclassio.MustPrepare(Player{}) // at startup, surfaces schema errors
//
//	wire, err := dataclassio.ToWireValue(p, dataclassio.CodecPlain)
//	s, err := dataclassio.ToWireString(p)
//	p2, err := dataclassio.FromWireValue[Player](wire, dataclassio.CodecPlain)
package dataclassio
