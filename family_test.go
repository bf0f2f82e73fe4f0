package dataclassio_test

import (
	"testing"

	dcio "github.com/efroemling/dataclassio"
)

// Shape is a polymorphic family: concrete variants registered under string
// tags, plus a fallback used for tags this build does not know.
type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64 `json:"radius"`
}

func (c Circle) Area() float64 { return 3.14159 * c.Radius * c.Radius }

type Rect struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Area() float64 { return r.W * r.H }

type UnknownShape struct{}

func (UnknownShape) Area() float64 { return 0 }

var shapeFamily = func() *dcio.Family {
	f := dcio.NewFamily[Shape]()
	dcio.AddVariant[Shape, Circle](f, "circle")
	dcio.AddVariant[Shape, Rect](f, "rect")
	f.UnknownFallback(func() any { return UnknownShape{} })
	return f
}()

type drawing struct {
	Title string  `json:"title"`
	Main  Shape   `json:"main"`
	Rest  []Shape `json:"rest"`
}

func TestFamily_TaggedRoundTrip(t *testing.T) {
	in := &drawing{
		Title: "blueprint",
		Main:  Circle{Radius: 2},
		Rest:  []Shape{Rect{W: 3, H: 4}, Circle{Radius: 1}},
	}
	wire, err := dcio.ToWireValue(in, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	main := wire["main"].(map[string]any)
	if main[dcio.DefaultTypeKey] != "circle" {
		t.Fatalf("expected circle tag, got %v", main)
	}
	if main["radius"] != 2.0 {
		t.Fatalf("expected radius alongside tag, got %v", main)
	}

	out, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c, ok := out.Main.(Circle); !ok || c.Radius != 2 {
		t.Fatalf("expected Circle{2}, got %#v", out.Main)
	}
	if r, ok := out.Rest[0].(Rect); !ok || r.W != 3 {
		t.Fatalf("expected Rect{3,4}, got %#v", out.Rest[0])
	}
}

func TestFamily_MissingTag(t *testing.T) {
	wire := map[string]any{
		"title": "x",
		"main":  map[string]any{"radius": 2.0},
		"rest":  []any{},
	}
	_, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeDiscriminatorMissing) {
		t.Fatalf("expected discriminator_missing, got %v", err)
	}
}

func TestFamily_UnknownTagStrictVsLossy(t *testing.T) {
	wire := map[string]any{
		"title": "x",
		"main":  map[string]any{dcio.DefaultTypeKey: "blob", "wobble": 1},
		"rest":  []any{},
	}
	_, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeDiscriminatorUnknown) {
		t.Fatalf("expected discriminator_unknown, got %v", err)
	}

	out, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain, dcio.DecodeOpt{Lossy: true})
	if err != nil {
		t.Fatalf("lossy decode: %v", err)
	}
	if _, ok := out.Main.(UnknownShape); !ok {
		t.Fatalf("expected fallback shape, got %#v", out.Main)
	}
}

func TestFamily_UnknownTagInsideList(t *testing.T) {
	wire := map[string]any{
		"title": "x",
		"main":  map[string]any{dcio.DefaultTypeKey: "rect", "w": 1.0, "h": 1.0},
		"rest":  []any{map[string]any{dcio.DefaultTypeKey: "hexagon"}},
	}
	_, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeDiscriminatorUnknown) {
		t.Fatalf("expected discriminator_unknown inside list, got %v", err)
	}

	out, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain, dcio.DecodeOpt{Lossy: true})
	if err != nil {
		t.Fatalf("lossy decode: %v", err)
	}
	if _, ok := out.Rest[0].(UnknownShape); !ok {
		t.Fatalf("expected fallback inside list, got %#v", out.Rest[0])
	}
}

func TestFamily_ConcreteTypeDecodesWithoutTag(t *testing.T) {
	out, err := dcio.FromWireValue[Rect](map[string]any{"w": 3.0, "h": 4.0}, dcio.CodecPlain)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.W != 3 || out.H != 4 {
		t.Fatalf("expected Rect{3,4}, got %+v", out)
	}
}

func TestFamily_EncodeRejectsUnregisteredVariant(t *testing.T) {
	_, err := dcio.ToWireValue(&drawing{Title: "x", Main: UnknownShape{}, Rest: []Shape{}}, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeSchemaError) {
		t.Fatalf("expected schema_error for unregistered variant, got %v", err)
	}
}

// ReservedShape claims the discriminator key as an ordinary field, which
// must fail loudly rather than silently collide.
type ReservedShape struct {
	Clash string `json:"_dciotype"`
}

func (ReservedShape) Area() float64 { return 0 }

func TestFamily_ReservedKeyCollision(t *testing.T) {
	wire := map[string]any{
		"title": "x",
		"main":  map[string]any{dcio.DefaultTypeKey: "reserved", "_dciotype2": 1},
		"rest":  []any{},
	}
	dcio.AddVariant[Shape, ReservedShape](shapeFamily, "reserved")
	_, err := dcio.FromWireValue[drawing](wire, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeReservedKeyCollision) {
		t.Fatalf("expected reserved_key_collision, got %v", err)
	}

	_, err = dcio.ToWireValue(&drawing{Title: "x", Main: ReservedShape{Clash: "boom"}, Rest: []Shape{}}, dcio.CodecPlain)
	if !dcio.HasCode(err, dcio.CodeReservedKeyCollision) {
		t.Fatalf("expected reserved_key_collision on encode, got %v", err)
	}
}
