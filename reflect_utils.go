package dataclassio

import (
	"reflect"
	"strings"
)

// resolveStructKey applies the repository-wide rule to resolve a struct
// field's wire storage key from tags.
// Priority: dcio:"name" > json tag name > none; "-" disables the field.
// fromTag reports whether a tag supplied the name (used to detect conflicts
// with FieldAttrs.Storage).
func resolveStructKey(sf reflect.StructField) (name string, fromTag bool) {
	if dt := sf.Tag.Get("dcio"); dt != "" {
		if i := strings.IndexByte(dt, ','); i >= 0 {
			dt = dt[:i]
		}
		return dt, true
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-", true
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt, true
		}
	}
	return "", false
}

// recordTypeOf normalizes an instance, pointer, or reflect.Type to the
// underlying record struct type.
func recordTypeOf(v any) (reflect.Type, error) {
	var rt reflect.Type
	switch t := v.(type) {
	case reflect.Type:
		rt = t
	default:
		rt = reflect.TypeOf(v)
	}
	if rt == nil {
		return nil, singleIssue("/", CodeSchemaError, "nil is not a record type")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, Issues{Issue{Path: "/", Code: CodeSchemaError,
			Message: issueText(CodeSchemaError, "record types must be structs"), Hint: rt.String()}}
	}
	return rt, nil
}

// ptrPath renders a JSON Pointer for an accumulated path; the empty
// accumulator means the document root.
func ptrPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
