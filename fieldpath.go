package dataclassio

import (
	"reflect"
	"strings"
)

const maxFieldPathDepth = 32

// FieldPath resolves the dotted storage path of a field selected by pointer,
// e.g.
//
//	FieldPath(func(a *Account) *string { return &a.Profile.DisplayName })
//
// returns "profile.display_name", segments joined with "." using each field's
// storage name. Renaming or removing the Go field becomes a compile error at
// every call site, so stored queries built from these paths cannot silently
// drift from the schema. Panics on a nil selector or one that does not
// address a (possibly nested, non-pointer) field of T; this is a programmer
// error, not an input error.
func FieldPath[T any, F any](selector func(*T) *F) string {
	if selector == nil {
		panic("dataclassio.FieldPath: selector must not be nil")
	}
	var zero T
	target := reflect.ValueOf(selector(&zero)).Pointer()
	targetType := reflect.TypeOf((*F)(nil)).Elem()
	root := reflect.ValueOf(&zero).Elem()
	if root.Kind() != reflect.Struct {
		panic("dataclassio.FieldPath: T must be a struct type")
	}
	segs, ok := findStoragePath(root, target, targetType, 0)
	if !ok {
		panic("dataclassio.FieldPath: selector must address a nested struct field (non-pointer)")
	}
	return strings.Join(segs, ".")
}

// findStoragePath walks struct fields by address, resolving each hop to its
// storage name. The target's type is matched as well as its address, so a
// struct and its first field (which share an address) never collide.
func findStoragePath(v reflect.Value, target uintptr, targetType reflect.Type, depth int) ([]string, bool) {
	if depth > maxFieldPathDepth {
		return nil, false
	}
	rt := v.Type()
	var sd *schemaData
	if s, err := prepared(rt, false); err == nil {
		sd = s
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		fv := v.Field(i)
		if !fv.CanAddr() {
			continue
		}
		if fv.Addr().Pointer() == target && sf.Type == targetType {
			name, ok := storageNameFor(sd, sf)
			if !ok {
				return nil, false
			}
			return []string{name}, true
		}
		if fv.Kind() == reflect.Struct && sf.Type != timeType {
			if rest, ok := findStoragePath(fv, target, targetType, depth+1); ok {
				name, ok := storageNameFor(sd, sf)
				if !ok {
					return nil, false
				}
				return append([]string{name}, rest...), true
			}
		}
	}
	return nil, false
}

func storageNameFor(sd *schemaData, sf reflect.StructField) (string, bool) {
	if sd != nil {
		for _, fd := range sd.fields {
			if fd.name == sf.Name {
				return fd.storage, true
			}
		}
		return "", false
	}
	name, _ := resolveStructKey(sf)
	if name == "-" {
		return "", false
	}
	if name == "" {
		return sf.Name, true
	}
	return name, true
}
