package dataclassio

import (
	"fmt"
	"reflect"
	"time"
)

// descKind enumerates the closed set of supported field type shapes.
type descKind int

const (
	kindInt descKind = iota
	kindFloat
	kindBool
	kindString
	kindOptional
	kindList
	kindSet
	kindTuple
	kindMap
	kindRecord
	kindEnum
	kindTimestamp
	kindDuration
	kindBytes
	kindAny
	kindMulti
)

// typeDesc is the live Type Descriptor for one reachable field type. It is
// built once at prepare time and read-only afterwards.
type typeDesc struct {
	kind descKind
	rt   reflect.Type // the concrete Go type this node resolves

	elem   *typeDesc   // Optional/List/Set element
	items  []*typeDesc // tuple positions
	key    *typeDesc   // map key (string, int or enum)
	val    *typeDesc   // map value
	record *schemaData // nested record
	enum   *enumInfo
	family *Family
}

// enumInfo carries the member tables of a string- or int-valued enum.
type enumInfo struct {
	rt        reflect.Type
	intValued bool
	byString  map[string]reflect.Value
	byInt     map[int]reflect.Value
}

func (e *enumInfo) lookupString(s string) (reflect.Value, bool) {
	v, ok := e.byString[s]
	return v, ok
}

func (e *enumInfo) lookupInt(i int) (reflect.Value, bool) {
	v, ok := e.byInt[i]
	return v, ok
}

// underlying returns the wire value for a member (string, or int).
func (e *enumInfo) underlying(rv reflect.Value) any {
	if e.intValued {
		return int(rv.Int())
	}
	return rv.String()
}

// fieldData is the prepared view of one record field.
type fieldData struct {
	name    string // Go field name
	index   int    // struct field index
	storage string // wire key
	desc    *typeDesc
	attrs   FieldAttrs

	// Static defaults pre-converted to the field type. Factory-based defaults
	// convert on use.
	def     reflect.Value
	softDef reflect.Value
}

// defaultValue materializes the field's own default, if any.
func (f *fieldData) defaultValue() (reflect.Value, bool, error) {
	if f.softDef.IsValid() || f.attrs.SoftDefaultFactory != nil {
		return reflect.Value{}, false, nil // caller asks softDefaultValue first
	}
	return f.staticOrFactory(f.def, f.attrs.DefaultFactory)
}

// softDefaultValue materializes the decode-only soft default, if any.
func (f *fieldData) softDefaultValue() (reflect.Value, bool, error) {
	return f.staticOrFactory(f.softDef, f.attrs.SoftDefaultFactory)
}

// omitComparand returns the value OmitIfDefault compares against: the soft
// default when declared, else the field default.
func (f *fieldData) omitComparand() (reflect.Value, bool, error) {
	if v, ok, err := f.softDefaultValue(); ok || err != nil {
		return v, ok, err
	}
	return f.staticOrFactory(f.def, f.attrs.DefaultFactory)
}

func (f *fieldData) staticOrFactory(static reflect.Value, factory func() any) (reflect.Value, bool, error) {
	if static.IsValid() {
		return static, true, nil
	}
	if factory == nil {
		return reflect.Value{}, false, nil
	}
	v, err := convertDefault(factory(), f.desc.rt)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("field %s: default factory: %w", f.name, err)
	}
	return v, true, nil
}

// schemaData is the memoized per-record-type schema. Entries are never
// mutated after publication to the cache, so concurrent reads are safe.
type schemaData struct {
	rt        reflect.Type
	fields    []*fieldData
	byStorage map[string]*fieldData
	extraIdx  int // struct index of the embedded ExtraFields; -1 when absent
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	durationType    = reflect.TypeOf(time.Duration(0))
	anyType         = reflect.TypeOf((*any)(nil)).Elem()
	enumIfaceType   = reflect.TypeOf((*Enum)(nil)).Elem()
	setMarkerType   = reflect.TypeOf((*setMarker)(nil)).Elem()
	tupleMarkerType = reflect.TypeOf((*tupleMarker)(nil)).Elem()
	extraFieldsType = reflect.TypeOf(ExtraFields{})
)

// convertDefault adapts a caller-supplied default to the field's type.
// Assignable values pass through; numeric and string literals convert to
// named kinds. Nil is accepted only for nil-able fields.
func convertDefault(raw any, ft reflect.Type) (reflect.Value, error) {
	if raw == nil {
		switch ft.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(ft), nil
		}
		return reflect.Value{}, fmt.Errorf("nil default for non-nilable type %s", ft)
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(ft) {
		return rv, nil
	}
	switch {
	case isIntKind(ft.Kind()) && isIntKind(rv.Kind()):
		return rv.Convert(ft), nil
	case ft.Kind() == reflect.Float64 && (isIntKind(rv.Kind()) || rv.Kind() == reflect.Float64):
		return rv.Convert(ft), nil
	case ft.Kind() == reflect.String && rv.Kind() == reflect.String:
		return rv.Convert(ft), nil
	}
	return reflect.Value{}, fmt.Errorf("default value %T is not assignable to %s", raw, ft)
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}
