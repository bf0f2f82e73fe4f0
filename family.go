package dataclassio

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// DefaultTypeKey is the reserved wire key under which a polymorphic family
// stores its type tag, unless overridden via Family.StorageKey.
const DefaultTypeKey = "_dciotype"

// Family describes one polymorphic record family: an abstract interface type
// whose concrete encoding/decoding is selected by a tag value stored
// alongside the ordinary fields. Variants may be registered up front with
// AddVariant or resolved lazily through a Resolver; the two may be combined.
type Family struct {
	iface reflect.Type
	key   string

	mu        sync.RWMutex
	typeByTag map[any]reflect.Type
	tagByType map[reflect.Type]any
	resolver  func(tag any) (reflect.Type, bool)
	fallback  func() any
}

var familyRegistry = xsync.NewMap[reflect.Type, *Family]()

// NewFamily registers interface type I as a polymorphic family and returns
// it for configuration. Registration is global and one-shot; registering the
// same interface twice panics (programmer error at init time, matching the
// registry semantics of the other init-time helpers in this package).
func NewFamily[I any]() *Family {
	rt := reflect.TypeOf((*I)(nil)).Elem()
	if rt.Kind() != reflect.Interface {
		panic(fmt.Sprintf("dataclassio.NewFamily: %s is not an interface type", rt))
	}
	f := &Family{
		iface:     rt,
		key:       DefaultTypeKey,
		typeByTag: map[any]reflect.Type{},
		tagByType: map[reflect.Type]any{},
	}
	if _, loaded := familyRegistry.LoadOrStore(rt, f); loaded {
		panic(fmt.Sprintf("dataclassio.NewFamily: family already registered for %s", rt))
	}
	return f
}

// StorageKey overrides the reserved wire key used for this family's tag.
// It applies to every member of the family.
func (f *Family) StorageKey(k string) *Family {
	if k == "" {
		panic("dataclassio: family storage key must not be empty")
	}
	f.mu.Lock()
	f.key = k
	f.mu.Unlock()
	return f
}

// Resolver installs a lazy tag-to-type lookup consulted when no statically
// registered variant matches. Resolved types are memoized into the family.
func (f *Family) Resolver(fn func(tag any) (reflect.Type, bool)) *Family {
	f.mu.Lock()
	f.resolver = fn
	f.mu.Unlock()
	return f
}

// UnknownFallback installs a factory returning a placeholder instance used
// during lossy decode when a tag is unrecognized. The returned value must
// implement the family's interface.
func (f *Family) UnknownFallback(fn func() any) *Family {
	f.mu.Lock()
	f.fallback = fn
	f.mu.Unlock()
	return f
}

// Key returns the wire key carrying the family's type tag.
func (f *Family) Key() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.key
}

// AddVariant registers concrete type V under the given tag (string or int).
// V is expected to implement the family interface I.
func AddVariant[I any, V any](f *Family, tag any) {
	nt, ok := normalizeTag(tag)
	if !ok {
		panic(fmt.Sprintf("dataclassio.AddVariant: tag must be string- or int-valued, got %T", tag))
	}
	vt := reflect.TypeOf((*V)(nil)).Elem()
	st := vt
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		panic(fmt.Sprintf("dataclassio.AddVariant: %s is not a record type", vt))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.typeByTag[nt]; dup {
		panic(fmt.Sprintf("dataclassio.AddVariant: duplicate tag %v in family %s", tag, f.iface))
	}
	if _, dup := f.tagByType[vt]; dup {
		panic(fmt.Sprintf("dataclassio.AddVariant: %s already registered in family %s", vt, f.iface))
	}
	f.typeByTag[nt] = vt
	f.tagByType[vt] = nt
}

// resolveTag maps a normalized tag to its concrete type, consulting the lazy
// resolver when the static table misses.
func (f *Family) resolveTag(tag any) (reflect.Type, bool) {
	f.mu.RLock()
	t, ok := f.typeByTag[tag]
	res := f.resolver
	f.mu.RUnlock()
	if ok {
		return t, true
	}
	if res == nil {
		return nil, false
	}
	t, ok = res(tag)
	if !ok || t == nil {
		return nil, false
	}
	f.mu.Lock()
	f.typeByTag[tag] = t
	f.tagByType[t] = tag
	f.mu.Unlock()
	return t, true
}

// tagFor returns the tag registered for concrete type vt.
func (f *Family) tagFor(vt reflect.Type) (any, bool) {
	f.mu.RLock()
	tag, ok := f.tagByType[vt]
	f.mu.RUnlock()
	if ok {
		return tag, true
	}
	// A value variant registered as a pointer type, or vice versa.
	if vt.Kind() == reflect.Pointer {
		f.mu.RLock()
		tag, ok = f.tagByType[vt.Elem()]
		f.mu.RUnlock()
	}
	return tag, ok
}

// variantTypes lists the statically registered concrete types in a stable
// order (sorted by type name). Resolver-only variants are not included.
func (f *Family) variantTypes() []reflect.Type {
	f.mu.RLock()
	out := make([]reflect.Type, 0, len(f.tagByType))
	for vt := range f.tagByType {
		out = append(out, vt)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (f *Family) unknownFallback() func() any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fallback
}

func familyFor(iface reflect.Type) (*Family, bool) {
	return familyRegistry.Load(iface)
}

// normalizeTag collapses the int flavors (and decoded wire numbers) so a tag
// compares equal regardless of how it arrived.
func normalizeTag(tag any) (any, bool) {
	switch t := tag.(type) {
	case string:
		return t, true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, false
		}
		return int(n), true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	default:
		rv := reflect.ValueOf(tag)
		switch rv.Kind() {
		case reflect.String:
			return rv.String(), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return int(rv.Int()), true
		}
	}
	return nil, false
}
