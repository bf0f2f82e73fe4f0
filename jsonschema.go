package dataclassio

import (
	"reflect"

	"github.com/efroemling/dataclassio/jsonschema"
)

// JSONSchema exports the plain-codec wire shape of a record type as a JSON
// Schema document. The projection is structural: timestamps and durations
// appear as their integer-array wire forms (or numbers under FloatTimes),
// bytes as base64 strings, sets as unique-item arrays.
func JSONSchema(v any) (*jsonschema.Schema, error) {
	rt, err := recordTypeOf(v)
	if err != nil {
		return nil, err
	}
	sd, err := prepared(rt, true)
	if err != nil {
		return nil, err
	}
	g := &schemaGen{seen: map[reflect.Type]bool{}}
	return g.record(sd), nil
}

type schemaGen struct {
	seen map[reflect.Type]bool
}

func (g *schemaGen) record(sd *schemaData) *jsonschema.Schema {
	if g.seen[sd.rt] {
		// Recursive records flatten to a bare object; full $ref support is a
		// possible extension.
		return &jsonschema.Schema{Type: "object"}
	}
	g.seen[sd.rt] = true
	defer delete(g.seen, sd.rt)

	out := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
	for _, fd := range sd.fields {
		fs := g.value(fd.desc, &fd.attrs)
		if fd.attrs.Default != nil {
			fs.Default = fd.attrs.Default
		}
		out.Properties[fd.storage] = fs
		if !fd.attrs.hasDefault() && !fd.attrs.hasSoftDefault() {
			out.Required = append(out.Required, fd.storage)
		}
	}
	if sd.extraIdx < 0 {
		out.AdditionalProperties = false
	}
	return out
}

func (g *schemaGen) value(d *typeDesc, attrs *FieldAttrs) *jsonschema.Schema {
	switch d.kind {
	case kindInt:
		return &jsonschema.Schema{Type: "integer"}
	case kindFloat:
		return &jsonschema.Schema{Type: "number"}
	case kindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case kindString:
		return &jsonschema.Schema{Type: "string"}
	case kindOptional:
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			g.value(d.elem, attrs),
			{Type: "null"},
		}}
	case kindList:
		return &jsonschema.Schema{Type: "array", Items: g.value(d.elem, nil)}
	case kindSet:
		return &jsonschema.Schema{Type: "array", Items: g.value(d.elem, nil), UniqueItems: true}
	case kindTuple:
		n := len(d.items)
		items := make([]*jsonschema.Schema, n)
		for i, it := range d.items {
			items[i] = g.value(it, nil)
		}
		return &jsonschema.Schema{Type: "array", PrefixItems: items, MinItems: &n, MaxItems: &n}
	case kindMap:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: g.value(d.val, nil)}
	case kindRecord:
		return g.record(d.record)
	case kindEnum:
		return g.enum(d)
	case kindTimestamp:
		if attrs != nil && attrs.FloatTimes {
			return &jsonschema.Schema{Type: "number", Format: "epoch-seconds"}
		}
		return intArray(7)
	case kindDuration:
		if attrs != nil && attrs.FloatTimes {
			return &jsonschema.Schema{Type: "number", Format: "seconds"}
		}
		return intArray(3)
	case kindBytes:
		return &jsonschema.Schema{Type: "string", ContentEncoding: "base64"}
	case kindAny:
		return &jsonschema.Schema{}
	case kindMulti:
		return g.multi(d)
	}
	return &jsonschema.Schema{}
}

func (g *schemaGen) enum(d *typeDesc) *jsonschema.Schema {
	out := &jsonschema.Schema{}
	if d.enum.intValued {
		out.Type = "integer"
		for k := range d.enum.byInt {
			out.Enum = append(out.Enum, k)
		}
	} else {
		out.Type = "string"
		for k := range d.enum.byString {
			out.Enum = append(out.Enum, k)
		}
	}
	sortWire(out.Enum)
	return out
}

// multi emits a oneOf over the statically registered variants. Variants
// reachable only through a lazy Resolver cannot be enumerated and are not
// represented.
func (g *schemaGen) multi(d *typeDesc) *jsonschema.Schema {
	out := &jsonschema.Schema{}
	for _, vt := range d.family.variantTypes() {
		st := vt
		if st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		sd, err := prepared(st, false)
		if err != nil {
			continue
		}
		vs := g.record(sd)
		tag, _ := d.family.tagFor(vt)
		ts := &jsonschema.Schema{Enum: []any{tag}}
		if _, isInt := tag.(int); isInt {
			ts.Type = "integer"
		} else {
			ts.Type = "string"
		}
		vs.Properties[d.family.Key()] = ts
		vs.Required = append(vs.Required, d.family.Key())
		out.OneOf = append(out.OneOf, vs)
	}
	if len(out.OneOf) == 0 {
		out.Type = "object"
	}
	return out
}

func intArray(n int) *jsonschema.Schema {
	items := make([]*jsonschema.Schema, n)
	for i := range items {
		items[i] = &jsonschema.Schema{Type: "integer"}
	}
	return &jsonschema.Schema{Type: "array", PrefixItems: items, MinItems: &n, MaxItems: &n}
}
