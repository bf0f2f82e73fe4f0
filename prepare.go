package dataclassio

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// maxPrepareDepth bounds type nesting during preparation. Legitimate
// recursive records terminate through the visiting table; the guard catches
// runaway wrapper nesting.
const maxPrepareDepth = 64

var (
	schemaCache = xsync.NewMap[reflect.Type, *schemaData]()
	prepareMu   sync.Mutex
	lazyWarned  = xsync.NewMap[reflect.Type, struct{}]()
)

// Prepare derives and caches schema data for the given record type (an
// instance, a pointer, or a reflect.Type may be passed). It is idempotent
// and safe for concurrent use. Call it at process startup for every record
// type you encode or decode, so schema errors surface eagerly.
func Prepare(v any) error {
	rt, err := recordTypeOf(v)
	if err != nil {
		return err
	}
	_, err = prepared(rt, true)
	return err
}

// MustPrepare is Prepare, panicking on schema errors. Intended for init-time
// registration of known-good record types.
func MustPrepare(v any) {
	if err := Prepare(v); err != nil {
		panic(err)
	}
}

// prepared returns the memoized schema for rt, building it on first use.
// Reads are lock-free after publication; the populate path is serialized so
// racing callers prepare a type exactly once.
func prepared(rt reflect.Type, explicit bool) (*schemaData, error) {
	if sd, ok := schemaCache.Load(rt); ok {
		return sd, nil
	}
	if !explicit {
		if _, warned := lazyWarned.LoadOrStore(rt, struct{}{}); !warned {
			slog.Warn("dataclassio: schema prepared implicitly; call Prepare at startup to surface schema errors eagerly",
				"type", rt.String())
		}
	}
	prepareMu.Lock()
	defer prepareMu.Unlock()
	if sd, ok := schemaCache.Load(rt); ok {
		return sd, nil
	}
	st := &prepState{visiting: map[reflect.Type]*schemaData{}}
	sd, err := st.record(rt, 0)
	if err != nil {
		return nil, err
	}
	// Publish every record reached in this traversal; entries are immutable
	// from here on.
	for t, s := range st.visiting {
		schemaCache.Store(t, s)
	}
	return sd, nil
}

type prepState struct {
	visiting map[reflect.Type]*schemaData
}

func schemaErr(rt reflect.Type, field, msg string) Issues {
	hint := rt.String()
	if field != "" {
		hint += "." + field
	}
	return Issues{Issue{Path: "/", Code: CodeSchemaError, Message: issueText(CodeSchemaError, msg), Hint: hint}}
}

// record builds (or revisits) the schema for one record struct type.
func (st *prepState) record(rt reflect.Type, depth int) (*schemaData, error) {
	if sd, ok := schemaCache.Load(rt); ok {
		return sd, nil
	}
	if sd, ok := st.visiting[rt]; ok {
		// Recursive record reference; fields fill in before publication.
		return sd, nil
	}
	if depth > maxPrepareDepth {
		return nil, Issues{Issue{Path: "/", Code: CodeMaxDepth,
			Message: issueText(CodeMaxDepth, "while preparing schema"), Hint: rt.String()}}
	}
	sd := &schemaData{rt: rt, byStorage: map[string]*fieldData{}, extraIdx: -1}
	st.visiting[rt] = sd

	var attrsMap map[string]FieldAttrs
	if ap, ok := reflect.New(rt).Elem().Interface().(HasFieldAttrs); ok {
		attrsMap = ap.FieldAttrs()
	}
	consumed := map[string]bool{}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous {
			if sf.Type == extraFieldsType {
				sd.extraIdx = i
				continue
			}
			return nil, schemaErr(rt, sf.Name, "embedded fields other than dataclassio.ExtraFields are not supported")
		}
		if !sf.IsExported() {
			continue
		}
		tagName, fromTag := resolveStructKey(sf)
		if tagName == "-" {
			if _, ok := attrsMap[sf.Name]; ok {
				return nil, schemaErr(rt, sf.Name, "field is disabled via struct tag and cannot carry FieldAttrs")
			}
			continue
		}
		var attrs FieldAttrs
		if a, ok := attrsMap[sf.Name]; ok {
			attrs = a
			consumed[sf.Name] = true
		}
		if attrs.Storage != "" && fromTag {
			return nil, schemaErr(rt, sf.Name, "storage name set by both struct tag and FieldAttrs; use exactly one")
		}
		storage := sf.Name
		if tagName != "" {
			storage = tagName
		}
		if attrs.Storage != "" {
			storage = attrs.Storage
		}
		if _, dup := sd.byStorage[storage]; dup {
			return nil, schemaErr(rt, sf.Name, fmt.Sprintf("storage name %q collides with another field", storage))
		}

		desc, err := st.resolveType(sf.Type, rt, sf.Name, depth+1)
		if err != nil {
			return nil, err
		}
		fd := &fieldData{name: sf.Name, index: i, storage: storage, desc: desc, attrs: attrs}
		if err := st.checkAttrs(rt, sd, fd); err != nil {
			return nil, err
		}
		sd.fields = append(sd.fields, fd)
		sd.byStorage[storage] = fd
	}

	for name := range attrsMap {
		if !consumed[name] {
			return nil, schemaErr(rt, name, "FieldAttrs names a field that does not exist on the struct")
		}
	}
	return sd, nil
}

// checkAttrs validates one field's attribute block against its resolved
// descriptor and pre-converts static defaults.
func (st *prepState) checkAttrs(rt reflect.Type, sd *schemaData, fd *fieldData) error {
	a := &fd.attrs
	core := fd.desc
	if core.kind == kindOptional {
		core = core.elem
	}

	if a.OmitIfDefault && !a.hasDefault() && !a.hasSoftDefault() {
		return schemaErr(rt, fd.name, "OmitIfDefault requires a default, default factory, or soft default")
	}
	if (a.WholeDays || a.WholeHours) && core.kind != kindTimestamp {
		return schemaErr(rt, fd.name, "WholeDays/WholeHours apply only to timestamp fields")
	}
	if a.FloatTimes && core.kind != kindTimestamp && core.kind != kindDuration {
		return schemaErr(rt, fd.name, "FloatTimes applies only to timestamp and duration fields")
	}
	if a.EnumFallback != nil {
		if core.kind != kindEnum {
			return schemaErr(rt, fd.name, "EnumFallback applies only to enum fields")
		}
		if reflect.TypeOf(a.EnumFallback) != core.enum.rt {
			return schemaErr(rt, fd.name, fmt.Sprintf("EnumFallback value %T does not match enum type %s",
				a.EnumFallback, core.enum.rt))
		}
		fb := reflect.ValueOf(a.EnumFallback)
		if !enumHasMember(core.enum, fb) {
			return schemaErr(rt, fd.name, "EnumFallback value is not a registered enum member")
		}
		if sd.extraIdx < 0 {
			return schemaErr(rt, fd.name, "EnumFallback requires the record to embed dataclassio.ExtraFields")
		}
	}
	if a.Default != nil {
		v, err := convertDefault(a.Default, fd.desc.rt)
		if err != nil {
			return schemaErr(rt, fd.name, err.Error())
		}
		fd.def = v
	}
	if a.SoftDefault != nil {
		v, err := convertDefault(a.SoftDefault, fd.desc.rt)
		if err != nil {
			return schemaErr(rt, fd.name, err.Error())
		}
		fd.softDef = v
	}
	return nil
}

func enumHasMember(e *enumInfo, rv reflect.Value) bool {
	if e.intValued {
		_, ok := e.byInt[int(rv.Int())]
		return ok
	}
	_, ok := e.byString[rv.String()]
	return ok
}

// resolveType maps a Go type onto the closed descriptor set, recursively
// preparing nested records. Unsupported shapes fail here, front-loading
// schema mistakes away from per-instance encode/decode time.
func (st *prepState) resolveType(ft reflect.Type, owner reflect.Type, field string, depth int) (*typeDesc, error) {
	if depth > maxPrepareDepth {
		return nil, Issues{Issue{Path: "/", Code: CodeMaxDepth,
			Message: issueText(CodeMaxDepth, "while preparing schema"), Hint: owner.String() + "." + field}}
	}
	switch {
	case ft == timeType:
		return &typeDesc{kind: kindTimestamp, rt: ft}, nil
	case ft == durationType:
		return &typeDesc{kind: kindDuration, rt: ft}, nil
	}
	if ft.Implements(enumIfaceType) && ft.Kind() != reflect.Pointer {
		info, err := buildEnumInfo(ft, owner, field)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindEnum, rt: ft, enum: info}, nil
	}
	if ft.Implements(tupleMarkerType) && ft.Kind() == reflect.Struct {
		d := &typeDesc{kind: kindTuple, rt: ft}
		for i := 0; i < ft.NumField(); i++ {
			it, err := st.resolveType(ft.Field(i).Type, owner, field, depth+1)
			if err != nil {
				return nil, err
			}
			d.items = append(d.items, it)
		}
		if len(d.items) == 0 {
			return nil, schemaErr(owner, field, "tuples require at least one element")
		}
		return d, nil
	}
	if ft.Implements(setMarkerType) && ft.Kind() == reflect.Map {
		elem, err := st.resolveType(ft.Key(), owner, field, depth+1)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindSet, rt: ft, elem: elem}, nil
	}

	switch ft.Kind() {
	case reflect.Pointer:
		if ft.Elem().Kind() == reflect.Pointer {
			return nil, schemaErr(owner, field, "multi-level pointers are not supported")
		}
		elem, err := st.resolveType(ft.Elem(), owner, field, depth+1)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindOptional, rt: ft, elem: elem}, nil

	case reflect.Interface:
		if ft == anyType {
			return &typeDesc{kind: kindAny, rt: ft}, nil
		}
		if fam, ok := familyFor(ft); ok {
			return &typeDesc{kind: kindMulti, rt: ft, family: fam}, nil
		}
		return nil, schemaErr(owner, field,
			fmt.Sprintf("interface %s is not registered as a polymorphic family", ft))

	case reflect.Slice:
		if ft.Elem().Kind() == reflect.Uint8 {
			return &typeDesc{kind: kindBytes, rt: ft}, nil
		}
		elem, err := st.resolveType(ft.Elem(), owner, field, depth+1)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindList, rt: ft, elem: elem}, nil

	case reflect.Map:
		key, err := st.resolveType(ft.Key(), owner, field, depth+1)
		if err != nil {
			return nil, err
		}
		switch key.kind {
		case kindString, kindInt, kindEnum:
		default:
			return nil, schemaErr(owner, field,
				fmt.Sprintf("map keys must be string, int, or enum typed; got %s", ft.Key()))
		}
		val, err := st.resolveType(ft.Elem(), owner, field, depth+1)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindMap, rt: ft, key: key, val: val}, nil

	case reflect.Struct:
		rec, err := st.record(ft, depth+1)
		if err != nil {
			return nil, err
		}
		return &typeDesc{kind: kindRecord, rt: ft, record: rec}, nil

	case reflect.Bool:
		return &typeDesc{kind: kindBool, rt: ft}, nil
	case reflect.String:
		return &typeDesc{kind: kindString, rt: ft}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &typeDesc{kind: kindInt, rt: ft}, nil
	case reflect.Float64:
		return &typeDesc{kind: kindFloat, rt: ft}, nil
	case reflect.Float32:
		return nil, schemaErr(owner, field, "float32 fields are not supported; use float64")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil, schemaErr(owner, field, "unsigned integer fields are not supported; use a signed type")
	}
	return nil, schemaErr(owner, field, fmt.Sprintf("unsupported field type %s", ft))
}

// buildEnumInfo validates member uniformity: every member must be a value of
// the enum type itself, all sharing one underlying kind (string or int).
func buildEnumInfo(ft reflect.Type, owner reflect.Type, field string) (*enumInfo, error) {
	members := reflect.New(ft).Elem().Interface().(Enum).EnumMembers()
	if len(members) == 0 {
		return nil, schemaErr(owner, field, fmt.Sprintf("enum %s declares no members", ft))
	}
	info := &enumInfo{rt: ft}
	switch {
	case ft.Kind() == reflect.String:
		info.byString = make(map[string]reflect.Value, len(members))
	case isIntKind(ft.Kind()):
		info.intValued = true
		info.byInt = make(map[int]reflect.Value, len(members))
	default:
		return nil, schemaErr(owner, field,
			fmt.Sprintf("enum %s must be string- or int-valued, got %s", ft, ft.Kind()))
	}
	for _, m := range members {
		mv := reflect.ValueOf(m)
		if mv.Type() != ft {
			return nil, schemaErr(owner, field,
				fmt.Sprintf("enum %s member %v has mismatched type %T", ft, m, m))
		}
		if info.intValued {
			info.byInt[int(mv.Int())] = mv
		} else {
			info.byString[mv.String()] = mv
		}
	}
	return info, nil
}

// instanceSchema normalizes an instance (value or pointer) to an addressable
// struct value plus its prepared schema. Used by the encode entry points.
func instanceSchema(v any) (reflect.Value, *schemaData, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, nil, singleIssue("/", CodeInvalidType, "nil record instance")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, nil, Issues{Issue{Path: "/", Code: CodeInvalidType,
			Message: issueText(CodeInvalidType, "record instances must be structs"), Hint: fmt.Sprintf("%T", v)}}
	}
	sd, err := prepared(rv.Type(), false)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, sd, nil
}
