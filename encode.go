package dataclassio

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/efroemling/dataclassio/internal/timeconv"
)

// encoder walks a prepared record instance and emits its wire tree. One
// encoder serves a single ToWireValue or Validate call.
type encoder struct {
	codec Codec
}

func encodeRecord(v any, c Codec, _ EncodeOpt) (map[string]any, error) {
	rv, sd, err := instanceSchema(v)
	if err != nil {
		return nil, err
	}
	e := &encoder{codec: c}
	out, iss := e.record(rv, sd, "")
	if iss != nil {
		return nil, iss
	}
	return out, nil
}

func (e *encoder) record(rv reflect.Value, sd *schemaData, p string) (map[string]any, Issues) {
	out := map[string]any{}
	if sd.extraIdx >= 0 {
		ef := rv.Field(sd.extraIdx).Interface().(ExtraFields)
		if ef.enumFallbackUsed {
			return nil, Issues{Issue{Path: ptrPath(p), Code: CodeEncodeForbidden,
				Message: issueText(CodeEncodeForbidden, "record holds enum fallback substitutions"),
				Hint:    sd.rt.String()}}
		}
		for k, uv := range ef.unknown {
			if iss := checkWireValue(uv, e.codec, p+"/"+k, 0); iss != nil {
				return nil, iss
			}
			out[k] = uv
		}
	}
	for _, fd := range sd.fields {
		fv := rv.Field(fd.index)
		if fd.attrs.OmitIfDefault {
			cmp, ok, err := fd.omitComparand()
			if err != nil {
				return nil, singleIssue(ptrPath(p+"/"+fd.storage), CodeSchemaError, err.Error())
			}
			if ok && reflect.DeepEqual(fv.Interface(), cmp.Interface()) {
				continue
			}
		}
		wv, iss := e.value(fv, fd.desc, &fd.attrs, p+"/"+fd.storage)
		if iss != nil {
			return nil, iss
		}
		out[fd.storage] = wv
	}
	return out, nil
}

// value encodes one typed value. attrs is non-nil only for a field's
// immediate value (and through an Optional wrapper); container elements
// carry no attributes.
func (e *encoder) value(rv reflect.Value, d *typeDesc, attrs *FieldAttrs, p string) (any, Issues) {
	switch d.kind {
	case kindInt:
		return int(rv.Int()), nil
	case kindFloat:
		return rv.Float(), nil
	case kindBool:
		return rv.Bool(), nil
	case kindString:
		return rv.String(), nil

	case kindOptional:
		if rv.IsNil() {
			return nil, nil
		}
		return e.value(rv.Elem(), d.elem, attrs, p)

	case kindList:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			wv, iss := e.value(rv.Index(i), d.elem, nil, fmt.Sprintf("%s/%d", p, i))
			if iss != nil {
				return nil, iss
			}
			out[i] = wv
		}
		return out, nil

	case kindSet:
		out := make([]any, 0, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			wv, iss := e.value(it.Key(), d.elem, nil, p)
			if iss != nil {
				return nil, iss
			}
			out = append(out, wv)
		}
		sortWire(out)
		return out, nil

	case kindTuple:
		out := make([]any, len(d.items))
		for i, it := range d.items {
			wv, iss := e.value(rv.Field(i), it, nil, fmt.Sprintf("%s/%d", p, i))
			if iss != nil {
				return nil, iss
			}
			out[i] = wv
		}
		return out, nil

	case kindMap:
		out := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			mk, iss := e.mapKey(it.Key(), d.key, p)
			if iss != nil {
				return nil, iss
			}
			wv, iss := e.value(it.Value(), d.val, nil, p+"/"+mk)
			if iss != nil {
				return nil, iss
			}
			out[mk] = wv
		}
		return out, nil

	case kindRecord:
		return e.record(rv, d.record, p)

	case kindEnum:
		if !enumHasMember(d.enum, rv) {
			return nil, Issues{Issue{Path: ptrPath(p), Code: CodeInvalidEnum,
				Message: issueText(CodeInvalidEnum, fmt.Sprintf("value %v is not a member of enum %s", rv.Interface(), d.enum.rt))}}
		}
		return d.enum.underlying(rv), nil

	case kindTimestamp:
		t := rv.Interface().(time.Time)
		if iss := e.checkTimestamp(t, attrs, p); iss != nil {
			return nil, iss
		}
		if e.codec == CodecRich {
			return t, nil
		}
		if attrs != nil && attrs.FloatTimes {
			return timeconv.TimestampEpoch(t), nil
		}
		return timeconv.TimestampParts(t), nil

	case kindDuration:
		dur := time.Duration(rv.Int())
		if attrs != nil && attrs.FloatTimes {
			return timeconv.DurationSeconds(dur), nil
		}
		return timeconv.DurationParts(dur), nil

	case kindBytes:
		b := rv.Bytes()
		if e.codec == CodecRich {
			return append([]byte(nil), b...), nil
		}
		return base64.StdEncoding.EncodeToString(b), nil

	case kindAny:
		v := rv.Interface()
		if iss := checkWireValue(v, e.codec, p, 0); iss != nil {
			return nil, iss
		}
		return v, nil

	case kindMulti:
		return e.multi(rv, d, p)
	}
	return nil, singleIssue(ptrPath(p), CodeSchemaError,
		fmt.Sprintf("unhandled descriptor kind for %s", d.rt))
}

func (e *encoder) mapKey(kv reflect.Value, kd *typeDesc, p string) (string, Issues) {
	switch kd.kind {
	case kindString:
		return kv.String(), nil
	case kindInt:
		return strconv.Itoa(int(kv.Int())), nil
	case kindEnum:
		if !enumHasMember(kd.enum, kv) {
			return "", Issues{Issue{Path: ptrPath(p), Code: CodeInvalidEnum,
				Message: issueText(CodeInvalidEnum, fmt.Sprintf("map key %v is not a member of enum %s", kv.Interface(), kd.enum.rt))}}
		}
		if kd.enum.intValued {
			return strconv.Itoa(int(kv.Int())), nil
		}
		return kv.String(), nil
	}
	return "", singleIssue(ptrPath(p), CodeSchemaError, "unsupported map key kind")
}

func (e *encoder) checkTimestamp(t time.Time, attrs *FieldAttrs, p string) Issues {
	if err := timeconv.CheckUTC(t); err != nil {
		return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
	}
	if attrs == nil {
		return nil
	}
	if attrs.WholeDays {
		if err := timeconv.CheckWholeDays(t); err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
		}
	}
	if attrs.WholeHours {
		if err := timeconv.CheckWholeHours(t); err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
		}
	}
	return nil
}

// multi encodes a polymorphic interface value: the concrete variant's record
// map plus the family's discriminator entry.
func (e *encoder) multi(rv reflect.Value, d *typeDesc, p string) (any, Issues) {
	if rv.IsNil() {
		return nil, singleIssue(ptrPath(p), CodeInvalidType,
			"nil polymorphic value; wrap the field in a pointer if absence is expected")
	}
	concrete := rv.Elem()
	tag, ok := d.family.tagFor(concrete.Type())
	if !ok {
		return nil, Issues{Issue{Path: ptrPath(p), Code: CodeSchemaError,
			Message: issueText(CodeSchemaError, fmt.Sprintf("type %s is not registered as a variant of %s",
				concrete.Type(), d.family.iface))}}
	}
	if concrete.Kind() == reflect.Pointer {
		if concrete.IsNil() {
			return nil, singleIssue(ptrPath(p), CodeInvalidType, "nil variant pointer")
		}
		concrete = concrete.Elem()
	}
	sd, err := prepared(concrete.Type(), false)
	if err != nil {
		return nil, wrapIssues(err, p)
	}
	out, iss := e.record(concrete, sd, p)
	if iss != nil {
		return nil, iss
	}
	if _, exists := out[d.family.Key()]; exists {
		return nil, Issues{Issue{Path: ptrPath(p), Code: CodeReservedKeyCollision,
			Message: issueText(CodeReservedKeyCollision, fmt.Sprintf("record emits storage key %q reserved for the type discriminator",
				d.family.Key()))}}
	}
	out[d.family.Key()] = tag
	return out, nil
}

// sortWire orders already-encoded set members for deterministic output.
// Set members are homogeneous, so one type probe suffices.
func sortWire(vals []any) {
	if len(vals) < 2 {
		return
	}
	switch vals[0].(type) {
	case int:
		sort.Slice(vals, func(i, j int) bool { return vals[i].(int) < vals[j].(int) })
	case float64:
		sort.Slice(vals, func(i, j int) bool { return vals[i].(float64) < vals[j].(float64) })
	case string:
		sort.Slice(vals, func(i, j int) bool { return vals[i].(string) < vals[j].(string) })
	}
}
