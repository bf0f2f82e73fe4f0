package dataclassio

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Codec selects which wire value-shape rule set governs a call.
type Codec int

const (
	// CodecPlain allows only JSON-compatible shapes: null, bool, int, float,
	// string, list, string-keyed map.
	CodecPlain Codec = iota
	// CodecRich additionally allows raw []byte and native time.Time values to
	// pass through unconverted, including inside Any-typed data.
	CodecRich
)

func (c Codec) String() string {
	switch c {
	case CodecPlain:
		return "plain"
	case CodecRich:
		return "rich"
	}
	return "unknown"
}

// CoerceMode controls numeric coercion while decoding.
type CoerceMode int

const (
	// CoerceIntToFloat accepts a wire int where a float field is declared.
	// This is the default. Bool is never coerced in either direction.
	CoerceIntToFloat CoerceMode = iota
	// CoerceNone requires exact numeric kinds.
	CoerceNone
)

// UnknownPolicy controls handling of wire keys with no matching field.
type UnknownPolicy int

const (
	// UnknownPassthrough preserves unknown attributes on the decoded instance
	// (via an embedded ExtraFields) so a later encode round-trips them.
	// This is the default.
	UnknownPassthrough UnknownPolicy = iota
	// UnknownStrip silently drops unknown attributes.
	UnknownStrip
	// UnknownStrict fails the decode on the first unknown attribute.
	UnknownStrict
)

// EncodeOpt carries options for ToWireValue/ToWireString/Validate.
type EncodeOpt struct {
	// Coerce is accepted for signature symmetry with DecodeOpt; encoding of
	// statically typed records never needs the int->float coercion decision.
	Coerce CoerceMode
}

// DecodeOpt carries options for FromWireValue/FromWireString.
type DecodeOpt struct {
	Coerce  CoerceMode
	Unknown UnknownPolicy
	// Lossy permits fallback substitution for unrecognized enum values and
	// polymorphic type tags, where the schema declares a fallback.
	Lossy bool
}

// Set is an unordered collection of ordered comparable values. It encodes as
// a sorted wire list so two equal sets always produce identical output.
type Set[T constraints.Ordered] map[T]struct{}

// NewSet builds a Set from the given values.
func NewSet[T constraints.Ordered](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Contains reports membership of v.
func (s Set[T]) Contains(v T) bool { _, ok := s[v]; return ok }

// Values returns the members in ascending order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (Set[T]) dataclassSet() {}

// setMarker identifies Set instantiations during schema preparation.
type setMarker interface{ dataclassSet() }

// Tuple2 is a fixed-arity heterogeneous pair. Its wire form is a 2-element
// list. Tuple3 and Tuple4 extend the pattern.
type Tuple2[A, B any] struct {
	First  A
	Second B
}

func (Tuple2[A, B]) tupleArity() int { return 2 }

type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func (Tuple3[A, B, C]) tupleArity() int { return 3 }

type Tuple4[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

func (Tuple4[A, B, C, D]) tupleArity() int { return 4 }

type tupleMarker interface{ tupleArity() int }

// Enum marks a named string- or int-backed type as an enumeration. All
// members must be values of the implementing type and share one underlying
// kind; anything else is a prepare-time schema error.
//
//	type Color string
//	const (
//		ColorRed  Color = "red"
//		ColorBlue Color = "blue"
//	)
//	func (Color) EnumMembers() []any { return []any{ColorRed, ColorBlue} }
type Enum interface {
	EnumMembers() []any
}

// ExtraFields is embedded into a record to opt in to unknown-attribute
// preservation and lossy enum-fallback decoding. The engine stores wire keys
// that match no declared field here and re-emits them verbatim on encode.
type ExtraFields struct {
	unknown          map[string]any
	enumFallbackUsed bool
}

// UnknownAttrs returns the preserved unknown wire attributes, or nil.
func (e *ExtraFields) UnknownAttrs() map[string]any { return e.unknown }

// SetUnknownAttrs replaces the preserved unknown wire attributes.
func (e *ExtraFields) SetUnknownAttrs(m map[string]any) { e.unknown = m }

// EnumFallbackUsed reports whether a lossy decode substituted an enum
// fallback into this record. Such records refuse to encode.
func (e *ExtraFields) EnumFallbackUsed() bool { return e.enumFallbackUsed }

func (e *ExtraFields) markEnumFallback() { e.enumFallbackUsed = true }
