package dataclassio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/efroemling/dataclassio/internal/timeconv"
)

// decoder rebuilds a typed record instance from a wire tree. One decoder
// serves a single FromWireValue call; touched tracks enum fallback
// substitutions within the record scope currently being decoded.
type decoder struct {
	codec   Codec
	coerce  CoerceMode
	unknown UnknownPolicy
	lossy   bool
	touched bool
}

func decodeRecord(wire map[string]any, rv reflect.Value, c Codec, opt DecodeOpt) error {
	sd, err := prepared(rv.Type(), false)
	if err != nil {
		return err
	}
	d := &decoder{codec: c, coerce: opt.Coerce, unknown: opt.Unknown, lossy: opt.Lossy}
	if iss := d.record(wire, rv, sd, ""); iss != nil {
		return iss
	}
	return nil
}

func (d *decoder) record(w map[string]any, rv reflect.Value, sd *schemaData, p string) Issues {
	outerTouched := d.touched
	d.touched = false

	var unknown map[string]any
	for k, raw := range w {
		if _, known := sd.byStorage[k]; known {
			continue
		}
		switch d.unknown {
		case UnknownStrict:
			return Issues{Issue{Path: ptrPath(p + "/" + k), Code: CodeUnknownKey,
				Message: issueText(CodeUnknownKey, fmt.Sprintf("unknown attribute %q for %s", k, sd.rt))}}
		case UnknownStrip:
			continue
		case UnknownPassthrough:
			if sd.extraIdx < 0 {
				return Issues{Issue{Path: ptrPath(p + "/" + k), Code: CodeUnknownKey,
					Message: issueText(CodeUnknownKey, fmt.Sprintf("unknown attribute %q for %s", k, sd.rt)),
					Hint:    "embed dataclassio.ExtraFields to preserve unknown attributes, or decode with UnknownStrip"}}
			}
			if iss := checkWireValue(raw, d.codec, p+"/"+k, 0); iss != nil {
				return iss
			}
			if unknown == nil {
				unknown = map[string]any{}
			}
			unknown[k] = raw
		}
	}

	for _, fd := range sd.fields {
		fv := rv.Field(fd.index)
		raw, present := w[fd.storage]
		if !present {
			dv, ok, err := fd.softDefaultValue()
			if !ok && err == nil {
				dv, ok, err = fd.defaultValue()
			}
			if err != nil {
				return singleIssue(ptrPath(p+"/"+fd.storage), CodeSchemaError, err.Error())
			}
			if !ok {
				return Issues{Issue{Path: ptrPath(p + "/" + fd.storage), Code: CodeRequired,
					Message: issueText(CodeRequired, fmt.Sprintf("attribute %q", fd.storage)),
					Hint:    sd.rt.String() + "." + fd.name}}
			}
			fv.Set(dv)
			continue
		}
		if iss := d.value(raw, fd.desc, &fd.attrs, fv, p+"/"+fd.storage); iss != nil {
			return iss
		}
	}

	if sd.extraIdx >= 0 {
		ef := rv.Field(sd.extraIdx).Addr().Interface().(*ExtraFields)
		if unknown != nil {
			ef.SetUnknownAttrs(unknown)
		}
		if d.touched {
			ef.markEnumFallback()
		}
	}
	d.touched = outerTouched
	return nil
}

// value decodes one wire value into the settable destination. attrs follows
// the same propagation rule as on encode: field level and through Optional.
func (d *decoder) value(raw any, desc *typeDesc, attrs *FieldAttrs, dst reflect.Value, p string) Issues {
	switch desc.kind {
	case kindInt:
		n, ok := wireInt(raw)
		if !ok {
			return typeIssue(p, "int", raw)
		}
		if dst.OverflowInt(n) {
			return singleIssue(ptrPath(p), CodeValueConstraint,
				fmt.Sprintf("value %d overflows %s", n, desc.rt))
		}
		dst.SetInt(n)
		return nil

	case kindFloat:
		f, isInt, ok := wireFloat(raw)
		if !ok {
			return typeIssue(p, "float", raw)
		}
		if isInt && d.coerce != CoerceIntToFloat {
			return Issues{Issue{Path: ptrPath(p), Code: CodeInvalidType,
				Message: issueText(CodeInvalidType, "got an int where a float is required"),
				Hint:    "decode with CoerceIntToFloat to accept ints in float fields"}}
		}
		dst.SetFloat(f)
		return nil

	case kindBool:
		b, ok := raw.(bool)
		if !ok {
			return typeIssue(p, "bool", raw)
		}
		dst.SetBool(b)
		return nil

	case kindString:
		s, ok := raw.(string)
		if !ok {
			return typeIssue(p, "string", raw)
		}
		dst.SetString(s)
		return nil

	case kindOptional:
		if raw == nil {
			dst.SetZero()
			return nil
		}
		nv := reflect.New(desc.elem.rt)
		if iss := d.value(raw, desc.elem, attrs, nv.Elem(), p); iss != nil {
			return iss
		}
		dst.Set(nv)
		return nil

	case kindList:
		arr, ok := raw.([]any)
		if !ok {
			return typeIssue(p, "list", raw)
		}
		out := reflect.MakeSlice(desc.rt, len(arr), len(arr))
		for i, e := range arr {
			if iss := d.value(e, desc.elem, nil, out.Index(i), fmt.Sprintf("%s/%d", p, i)); iss != nil {
				return iss
			}
		}
		dst.Set(out)
		return nil

	case kindSet:
		arr, ok := raw.([]any)
		if !ok {
			return typeIssue(p, "set", raw)
		}
		out := reflect.MakeMapWithSize(desc.rt, len(arr))
		present := reflect.Zero(desc.rt.Elem())
		for i, e := range arr {
			kv := reflect.New(desc.rt.Key()).Elem()
			if iss := d.value(e, desc.elem, nil, kv, fmt.Sprintf("%s/%d", p, i)); iss != nil {
				return iss
			}
			out.SetMapIndex(kv, present)
		}
		dst.Set(out)
		return nil

	case kindTuple:
		arr, ok := raw.([]any)
		if !ok {
			return typeIssue(p, "tuple", raw)
		}
		if len(arr) != len(desc.items) {
			return Issues{Issue{Path: ptrPath(p), Code: CodeValueConstraint,
				Message: issueText(CodeValueConstraint, fmt.Sprintf("tuple requires exactly %d elements, got %d", len(desc.items), len(arr)))}}
		}
		out := reflect.New(desc.rt).Elem()
		for i, it := range desc.items {
			if iss := d.value(arr[i], it, nil, out.Field(i), fmt.Sprintf("%s/%d", p, i)); iss != nil {
				return iss
			}
		}
		dst.Set(out)
		return nil

	case kindMap:
		m, ok := raw.(map[string]any)
		if !ok {
			return typeIssue(p, "map", raw)
		}
		out := reflect.MakeMapWithSize(desc.rt, len(m))
		for k, e := range m {
			kv, iss := d.mapKey(k, desc.key, p)
			if iss != nil {
				return iss
			}
			ev := reflect.New(desc.rt.Elem()).Elem()
			if iss := d.value(e, desc.val, nil, ev, p+"/"+k); iss != nil {
				return iss
			}
			out.SetMapIndex(kv, ev)
		}
		dst.Set(out)
		return nil

	case kindRecord:
		m, ok := raw.(map[string]any)
		if !ok {
			return typeIssue(p, "record", raw)
		}
		return d.record(m, dst, desc.record, p)

	case kindEnum:
		return d.enum(raw, desc, attrs, dst, p)

	case kindTimestamp:
		return d.timestamp(raw, attrs, dst, p)

	case kindDuration:
		return d.duration(raw, attrs, dst, p)

	case kindBytes:
		if d.codec == CodecRich {
			b, ok := raw.([]byte)
			if !ok {
				return typeIssue(p, "bytes", raw)
			}
			dst.SetBytes(append([]byte(nil), b...))
			return nil
		}
		s, ok := raw.(string)
		if !ok {
			return typeIssue(p, "base64 string", raw)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, "malformed base64 data: "+err.Error())
		}
		dst.SetBytes(b)
		return nil

	case kindAny:
		if iss := checkWireValue(raw, d.codec, p, 0); iss != nil {
			return iss
		}
		if raw == nil {
			dst.SetZero()
			return nil
		}
		dst.Set(reflect.ValueOf(raw))
		return nil

	case kindMulti:
		return d.multi(raw, desc, dst, p)
	}
	return singleIssue(ptrPath(p), CodeSchemaError,
		fmt.Sprintf("unhandled descriptor kind for %s", desc.rt))
}

func (d *decoder) mapKey(k string, kd *typeDesc, p string) (reflect.Value, Issues) {
	switch kd.kind {
	case kindString:
		return reflect.ValueOf(k).Convert(kd.rt), nil
	case kindInt:
		n, err := strconv.Atoi(k)
		if err != nil {
			return reflect.Value{}, singleIssue(ptrPath(p), CodeInvalidType,
				fmt.Sprintf("map key %q is not an integer", k))
		}
		kv := reflect.New(kd.rt).Elem()
		if kv.OverflowInt(int64(n)) {
			return reflect.Value{}, singleIssue(ptrPath(p), CodeValueConstraint,
				fmt.Sprintf("map key %d overflows %s", n, kd.rt))
		}
		kv.SetInt(int64(n))
		return kv, nil
	case kindEnum:
		// Enum fallback never applies to map keys; a bad key is always fatal.
		if kd.enum.intValued {
			n, err := strconv.Atoi(k)
			if err == nil {
				if mv, ok := kd.enum.lookupInt(n); ok {
					return mv, nil
				}
			}
		} else if mv, ok := kd.enum.lookupString(k); ok {
			return mv, nil
		}
		return reflect.Value{}, Issues{Issue{Path: ptrPath(p), Code: CodeInvalidEnum,
			Message: issueText(CodeInvalidEnum, fmt.Sprintf("map key %q is not a member of enum %s", k, kd.enum.rt))}}
	}
	return reflect.Value{}, singleIssue(ptrPath(p), CodeSchemaError, "unsupported map key kind")
}

func (d *decoder) enum(raw any, desc *typeDesc, attrs *FieldAttrs, dst reflect.Value, p string) Issues {
	var mv reflect.Value
	var found bool
	if desc.enum.intValued {
		if n, ok := wireInt(raw); ok {
			mv, found = desc.enum.lookupInt(int(n))
		} else {
			return typeIssue(p, "int enum value", raw)
		}
	} else {
		if s, ok := raw.(string); ok {
			mv, found = desc.enum.lookupString(s)
		} else {
			return typeIssue(p, "string enum value", raw)
		}
	}
	if !found {
		if d.lossy && attrs != nil && attrs.EnumFallback != nil {
			dst.Set(reflect.ValueOf(attrs.EnumFallback))
			d.touched = true
			return nil
		}
		return Issues{Issue{Path: ptrPath(p), Code: CodeInvalidEnum,
			Message: issueText(CodeInvalidEnum, fmt.Sprintf("value %v is not a member of enum %s", raw, desc.enum.rt))}}
	}
	dst.Set(mv)
	return nil
}

func (d *decoder) timestamp(raw any, attrs *FieldAttrs, dst reflect.Value, p string) Issues {
	var t time.Time
	switch {
	case d.codec == CodecRich:
		tv, ok := raw.(time.Time)
		if !ok {
			return typeIssue(p, "time.Time", raw)
		}
		t = tv
	case attrs != nil && attrs.FloatTimes:
		secs, _, ok := wireFloat(raw)
		if !ok {
			return typeIssue(p, "float epoch seconds", raw)
		}
		t = timeconv.TimestampFromEpoch(secs)
	default:
		parts, ok := wireIntSlice(raw)
		if !ok {
			return typeIssue(p, "timestamp array", raw)
		}
		tv, err := timeconv.TimestampFromParts(parts)
		if err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
		}
		t = tv
	}
	if err := timeconv.CheckUTC(t); err != nil {
		return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
	}
	if attrs != nil && attrs.WholeDays {
		if err := timeconv.CheckWholeDays(t); err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
		}
	}
	if attrs != nil && attrs.WholeHours {
		if err := timeconv.CheckWholeHours(t); err != nil {
			return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
		}
	}
	dst.Set(reflect.ValueOf(t))
	return nil
}

func (d *decoder) duration(raw any, attrs *FieldAttrs, dst reflect.Value, p string) Issues {
	if attrs != nil && attrs.FloatTimes {
		secs, _, ok := wireFloat(raw)
		if !ok {
			return typeIssue(p, "float seconds", raw)
		}
		dst.SetInt(int64(timeconv.DurationFromSeconds(secs)))
		return nil
	}
	parts, ok := wireIntSlice(raw)
	if !ok {
		return typeIssue(p, "duration array", raw)
	}
	dur, err := timeconv.DurationFromParts(parts)
	if err != nil {
		return singleIssue(ptrPath(p), CodeValueConstraint, err.Error())
	}
	dst.SetInt(int64(dur))
	return nil
}

// multi decodes a polymorphic value: read the family's tag entry, resolve
// the concrete variant, and decode the remaining keys as its record.
func (d *decoder) multi(raw any, desc *typeDesc, dst reflect.Value, p string) Issues {
	m, ok := raw.(map[string]any)
	if !ok {
		return typeIssue(p, "polymorphic record", raw)
	}
	fam := desc.family
	rawTag, ok := m[fam.Key()]
	if !ok {
		return Issues{Issue{Path: ptrPath(p), Code: CodeDiscriminatorMissing,
			Message: issueText(CodeDiscriminatorMissing, fmt.Sprintf("tag %q for family %s", fam.Key(), fam.iface))}}
	}
	tag, ok := normalizeTag(rawTag)
	if !ok {
		return Issues{Issue{Path: ptrPath(p), Code: CodeInvalidType,
			Message: issueText(CodeInvalidType, fmt.Sprintf("type tag must be a string or int, got %T", rawTag))}}
	}
	vt, ok := fam.resolveTag(tag)
	if !ok {
		if d.lossy {
			if fb := fam.unknownFallback(); fb != nil {
				dst.Set(reflect.ValueOf(fb()))
				return nil
			}
		}
		return Issues{Issue{Path: ptrPath(p), Code: CodeDiscriminatorUnknown,
			Message: issueText(CodeDiscriminatorUnknown, fmt.Sprintf("tag %v for family %s", tag, fam.iface)),
			Hint:    "register the variant or decode with Lossy and an UnknownFallback"}}
	}

	st := vt
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	sd, err := prepared(st, false)
	if err != nil {
		return wrapIssues(err, p)
	}
	if _, claimed := sd.byStorage[fam.Key()]; claimed {
		return Issues{Issue{Path: ptrPath(p), Code: CodeReservedKeyCollision,
			Message: issueText(CodeReservedKeyCollision, fmt.Sprintf("variant %s declares storage key %q reserved for the type discriminator",
				st, fam.Key()))}}
	}

	body := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k == fam.Key() {
			continue
		}
		body[k] = v
	}
	pv := reflect.New(st)
	if iss := d.record(body, pv.Elem(), sd, p); iss != nil {
		return iss
	}
	if vt.Kind() == reflect.Pointer {
		dst.Set(pv)
	} else {
		dst.Set(pv.Elem())
	}
	return nil
}

func typeIssue(p, want string, got any) Issues {
	return Issues{Issue{Path: ptrPath(p), Code: CodeInvalidType,
		Message: issueText(CodeInvalidType, fmt.Sprintf("expected %s", want)),
		Hint:    fmt.Sprintf("got %T", got)}}
}

// wireInt accepts the integer forms a wire tree may carry: Go ints from
// hand-built maps and json.Number from parsed documents.
func wireInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// wireFloat accepts the numeric forms a float field may see. isInt reports
// that the value was integral on the wire, which callers gate behind the
// coercion mode.
func wireFloat(raw any) (f float64, isInt, ok bool) {
	switch v := raw.(type) {
	case float64:
		return v, false, true
	case int:
		return float64(v), true, true
	case int64:
		return float64(v), true, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return float64(n), true, true
		}
		fv, err := v.Float64()
		if err != nil {
			return 0, false, false
		}
		return fv, false, true
	}
	return 0, false, false
}

func wireIntSlice(raw any) ([]int, bool) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(arr))
	for i, e := range arr {
		n, ok := wireInt(e)
		if !ok {
			return nil, false
		}
		out[i] = int(n)
	}
	return out, true
}
