package dataclassio

// FieldAttrs is the per-field configuration block. All fields are optional;
// the zero value means "no overrides". Attach attrs to a record by
// implementing HasFieldAttrs, keyed by the Go field name.
type FieldAttrs struct {
	// Storage overrides the wire key. A schema error if the field also
	// carries a dcio/json tag override: exactly one source may name a field.
	Storage string

	// OmitIfDefault skips the field on encode when its value equals the
	// applicable default (SoftDefault wins over Default for the comparison).
	// Requires at least one default source; checked at prepare time.
	OmitIfDefault bool

	// Default and DefaultFactory stand in for a constructor default: a field
	// with neither is required on decode. The factory form exists for mutable
	// defaults such as fresh maps or slices.
	Default        any
	DefaultFactory func() any

	// SoftDefault and SoftDefaultFactory apply during decode only, when the
	// wire value omits the field entirely. They take precedence over
	// Default/DefaultFactory.
	SoftDefault        any
	SoftDefaultFactory func() any

	// WholeDays/WholeHours reject timestamp values carrying sub-day/sub-hour
	// components, on both encode and decode.
	WholeDays  bool
	WholeHours bool

	// FloatTimes encodes timestamps/durations as a single float of seconds
	// instead of the 7-int (timestamp) or 3-int (duration) component arrays.
	FloatTimes bool

	// EnumFallback substitutes for unrecognized enum wire values during lossy
	// decode. Must be a member of the field's enum type; the record must
	// embed ExtraFields so the substitution can poison later encodes.
	EnumFallback any
}

// HasFieldAttrs exposes rich per-field configuration for a record type. The
// map is keyed by Go struct field name; naming a nonexistent field is a
// prepare-time schema error.
type HasFieldAttrs interface {
	FieldAttrs() map[string]FieldAttrs
}

func (a *FieldAttrs) hasDefault() bool {
	return a.Default != nil || a.DefaultFactory != nil
}

func (a *FieldAttrs) hasSoftDefault() bool {
	return a.SoftDefault != nil || a.SoftDefaultFactory != nil
}
