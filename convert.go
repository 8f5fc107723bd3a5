package calico

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

// Struct tags understood by the converter.
const (
	tagMask   = "export.mask"
	tagHash   = "export.hash"
	tagRedact = "export.redact"
)

func init() {
	sentinel.Tag(tagMask)
	sentinel.Tag(tagHash)
	sentinel.Tag(tagRedact)
}

var (
	valueType      = reflect.TypeOf(Value{})
	valuerType     = reflect.TypeOf((*Valuer)(nil)).Elem()
	textMarshaler  = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	defaultConvert = NewConverter()
)

// scanned holds sentinel metadata for types passed to Register.
var scanned sync.Map // reflect.Type -> sentinel.Metadata

// Register scans T with sentinel, along with the struct types it refers to
// in the same module, and checks its export tags. ValueOf plans registered
// types from the scanned metadata.
func Register[T any]() error {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct", ErrInvalidArgument, rt)
	}

	meta, err := sentinel.TryScan[T]()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	scanned.Store(rt, meta)
	planCache.Delete(rt)

	_, err = structPlans(rt)
	return err
}

// Convert registers T on first use and converts v with the package default
// converter.
func Convert[T any](v T) (Value, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if _, ok := scanned.Load(rt); !ok && rt.Kind() == reflect.Struct {
		if err := Register[T](); err != nil {
			return Value{}, err
		}
	}
	return defaultConvert.ValueOf(v)
}

// ValueOf converts a Go value to a Value using the package default converter.
func ValueOf(v any) (Value, error) {
	return defaultConvert.ValueOf(v)
}

// Converter turns native Go values into Values, applying the export.mask,
// export.hash and export.redact struct tags to string fields on the way.
//
// Converters are safe for concurrent use. SetHasher and SetMasker may be
// called at any time.
type Converter struct {
	mu      sync.RWMutex
	hashers map[HashAlgo]Hasher
	maskers map[MaskType]Masker
}

// NewConverter creates a Converter with the builtin hashers and maskers.
func NewConverter() *Converter {
	return &Converter{
		hashers: builtinHashers(),
		maskers: builtinMaskers(),
	}
}

// SetHasher registers a hasher for the given algorithm.
// Returns the converter for chaining.
func (c *Converter) SetHasher(algo HashAlgo, h Hasher) *Converter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashers[algo] = h
	return c
}

// SetMasker registers a masker for the given type.
// Returns the converter for chaining.
func (c *Converter) SetMasker(mt MaskType, m Masker) *Converter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maskers[mt] = m
	return c
}

// ValueOf converts v. Supported inputs are nil, booleans, numbers, strings,
// byte slices (base64 text), slices, arrays, maps with string or integer keys
// (emitted in sorted key order), structs, pointers, Valuer implementers,
// encoding.TextMarshaler implementers and Value itself.
//
// Struct fields are named by their json tag and honor omitempty and "-".
// A pointer, map or slice that contains itself fails with a
// CircularReferenceError.
func (c *Converter) ValueOf(v any) (Value, error) {
	w := walker{c: c, active: make(map[visitKey]struct{})}
	out, err := w.convert(reflect.ValueOf(v), nil)
	if err != nil {
		return Value{}, err
	}
	if err := CheckCycles(out); err != nil {
		return Value{}, err
	}
	return out, nil
}

// visitKey identifies a reference-like Go value on the walk stack.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type walker struct {
	c      *Converter
	active map[visitKey]struct{}
}

func (w *walker) enter(rv reflect.Value, path valuePath) (visitKey, error) {
	key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if _, seen := w.active[key]; seen {
		return key, &CircularReferenceError{Path: path.String()}
	}
	w.active[key] = struct{}{}
	return key, nil
}

func (w *walker) convert(rv reflect.Value, path valuePath) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	rt := rv.Type()
	if rt == valueType {
		return rv.Interface().(Value), nil
	}
	if rt.Implements(valuerType) {
		if rt.Kind() == reflect.Pointer && rv.IsNil() {
			return Null(), nil
		}
		return rv.Interface().(Valuer).CalicoValue()
	}
	if rv.CanAddr() && reflect.PointerTo(rt).Implements(valuerType) {
		return rv.Addr().Interface().(Valuer).CalicoValue()
	}
	if rt.Kind() != reflect.Pointer && rt.Implements(textMarshaler) {
		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return Value{}, newCodecError(ErrSerialization, err)
		}
		return String(string(text)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return w.convert(rv.Elem(), path)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		key, err := w.enter(rv, path)
		if err != nil {
			return Value{}, err
		}
		defer delete(w.active, key)
		return w.convert(rv.Elem(), path)
	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if rt.Elem().Kind() == reflect.Uint8 {
			return String(base64.StdEncoding.EncodeToString(rv.Bytes())), nil
		}
		key, err := w.enter(rv, path)
		if err != nil {
			return Value{}, err
		}
		defer delete(w.active, key)
		return w.sequence(rv, path)
	case reflect.Array:
		return w.sequence(rv, path)
	case reflect.Map:
		if rv.IsNil() {
			return Null(), nil
		}
		key, err := w.enter(rv, path)
		if err != nil {
			return Value{}, err
		}
		defer delete(w.active, key)
		return w.mapping(rv, path)
	case reflect.Struct:
		return w.structure(rv, path)
	default:
		return Value{}, &TypeMismatchError{Index: -1, Want: "a JSON-compatible Go value", Got: rt.String()}
	}
}

func (w *walker) sequence(rv reflect.Value, path valuePath) (Value, error) {
	seq := NewSequence()
	for i := 0; i < rv.Len(); i++ {
		item, err := w.convert(rv.Index(i), path.Index(i))
		if err != nil {
			return Value{}, err
		}
		seq.Append(item)
	}
	return seq.Value(), nil
}

func (w *walker) mapping(rv reflect.Value, path valuePath) (Value, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.key, b.key) })

	m := NewMapping()
	for _, e := range entries {
		val, err := w.convert(e.val, path.Key(e.key))
		if err != nil {
			return Value{}, err
		}
		m.Set(e.key, val)
	}
	return m.Value(), nil
}

func mapKey(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return "", newCodecError(ErrSerialization, err)
		}
		return string(text), nil
	}
	return "", &TypeMismatchError{Index: -1, Want: "a string map key", Got: k.Type().String()}
}

func (w *walker) structure(rv reflect.Value, path valuePath) (Value, error) {
	plans, err := structPlans(rv.Type())
	if err != nil {
		return Value{}, err
	}

	m := NewMapping()
	for _, fp := range plans {
		fv, ok := fieldByIndex(rv, fp.index)
		if !ok {
			continue
		}
		if fp.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if fp.transformed() {
			val, err := w.c.transform(fp, fv)
			if err != nil {
				return Value{}, err
			}
			m.Set(fp.key, val)
			continue
		}
		val, err := w.convert(fv, path.Key(fp.key))
		if err != nil {
			return Value{}, err
		}
		m.Set(fp.key, val)
	}
	return m.Value(), nil
}

// fieldByIndex walks embedded pointers, reporting false on a nil one.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// transform applies a field's export tag. Redaction wins over hashing, and
// hashing over masking. A nil string pointer stays null.
func (c *Converter) transform(fp fieldPlan, fv reflect.Value) (Value, error) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return Null(), nil
		}
		fv = fv.Elem()
	}
	s := fv.String()

	if fp.hasRedact {
		return String(fp.redact), nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if fp.hash != "" {
		h, ok := c.hashers[fp.hash]
		if !ok {
			return Value{}, newConfigError(ErrMissingHasher, string(fp.hash), fp.name)
		}
		out, err := h.Hash([]byte(s))
		if err != nil {
			return Value{}, fmt.Errorf("%w: field %s: %w", ErrHash, fp.name, err)
		}
		return String(out), nil
	}

	m, ok := c.maskers[fp.mask]
	if !ok {
		return Value{}, newConfigError(ErrMissingMasker, string(fp.mask), fp.name)
	}
	return String(m.Mask(s)), nil
}

// fieldPlan describes how one exported struct field becomes a mapping entry.
type fieldPlan struct {
	index     []int  // reflect access path, through embedded structs
	name      string // Go field name for error messages
	key       string // mapping key
	omitEmpty bool

	mask      MaskType
	hash      HashAlgo
	redact    string
	hasRedact bool
}

func (fp fieldPlan) transformed() bool {
	return fp.hasRedact || fp.hash != "" || fp.mask != ""
}

type planResult struct {
	plans []fieldPlan
	err   error
}

var planCache sync.Map // reflect.Type -> planResult

// structPlans returns the cached field plans for rt, building them on first use.
func structPlans(rt reflect.Type) ([]fieldPlan, error) {
	if cached, ok := planCache.Load(rt); ok {
		r := cached.(planResult)
		return r.plans, r.err
	}
	plans, err := buildPlans(rt, nil, "", map[reflect.Type]bool{})
	actual, _ := planCache.LoadOrStore(rt, planResult{plans: plans, err: err})
	r := actual.(planResult)
	return r.plans, r.err
}

func buildPlans(rt reflect.Type, parentIndex []int, prefix string, seen map[reflect.Type]bool) ([]fieldPlan, error) {
	if seen[rt] {
		return nil, nil
	}
	seen[rt] = true
	defer delete(seen, rt)

	meta := structMetadata(rt)
	var plans []fieldPlan
	for _, field := range meta.Fields {
		sf := rt.FieldByIndex(field.Index)
		index := append(append([]int{}, parentIndex...), field.Index...)
		name := field.Name
		if prefix != "" {
			name = prefix + "." + field.Name
		}

		jsonName, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if jsonName == "-" && opts == "" {
			continue
		}

		if sf.Anonymous && jsonName == "" {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && (sf.IsExported() || et == sf.Type) {
				nested, err := buildPlans(et, index, name, seen)
				if err != nil {
					return nil, err
				}
				plans = append(plans, nested...)
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		fp := fieldPlan{
			index:     index,
			name:      name,
			key:       jsonName,
			omitEmpty: hasOption(opts, "omitempty"),
		}
		if fp.key == "" {
			fp.key = field.Name
		}
		if err := fp.applyTags(field, sf.Type); err != nil {
			return nil, err
		}
		plans = append(plans, fp)
	}
	return dedupe(plans), nil
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

// dedupe keeps the shallowest field for each key, as embedding does in Go.
func dedupe(plans []fieldPlan) []fieldPlan {
	out := plans[:0]
	pos := make(map[string]int, len(plans))
	for _, fp := range plans {
		if i, ok := pos[fp.key]; ok {
			if len(fp.index) < len(out[i].index) {
				out[i] = fp
			}
			continue
		}
		pos[fp.key] = len(out)
		out = append(out, fp)
	}
	return out
}

func (fp *fieldPlan) applyTags(field sentinel.FieldMetadata, ft reflect.Type) error {
	mask, hasMask := field.Tags[tagMask]
	hash, hasHash := field.Tags[tagHash]
	redact, hasRedact := field.Tags[tagRedact]
	if !hasMask && !hasHash && !hasRedact {
		return nil
	}

	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft.Kind() != reflect.String {
		return newConfigError(ErrInvalidTag, ft.String(), fp.name)
	}

	if hasMask {
		if mask == "" {
			return newConfigError(ErrInvalidTag, tagMask, fp.name)
		}
		fp.mask = MaskType(mask)
	}
	if hasHash {
		if hash == "" {
			return newConfigError(ErrInvalidTag, tagHash, fp.name)
		}
		fp.hash = HashAlgo(hash)
	}
	fp.redact, fp.hasRedact = redact, hasRedact
	return nil
}

// structMetadata returns the field metadata for rt. Types scanned through
// Register use sentinel's metadata; types never registered, such as those
// reached only through interfaces or maps, are scanned reflectively.
func structMetadata(rt reflect.Type) sentinel.Metadata {
	if cached, ok := scanned.Load(rt); ok {
		return withEmbedded(rt, cached.(sentinel.Metadata))
	}
	if rt.Name() != "" {
		if meta, ok := sentinel.Lookup(rt.Name()); ok && meta.PackageName == rt.PkgPath() {
			return withEmbedded(rt, meta)
		}
	}
	return reflectMetadata(rt)
}

// withEmbedded completes sentinel metadata for field planning. Sentinel
// skips unexported fields, but an unexported embedded struct still promotes
// its exported fields. Sentinel also drops empty tag values, and an empty
// export.redact means "replace with nothing".
func withEmbedded(rt reflect.Type, meta sentinel.Metadata) sentinel.Metadata {
	byIndex := make(map[int]sentinel.FieldMetadata, len(meta.Fields))
	for _, fm := range meta.Fields {
		byIndex[fm.Index[0]] = fm
	}

	out := meta
	out.Fields = make([]sentinel.FieldMetadata, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fm, ok := byIndex[i]
		switch {
		case ok:
			tags := make(map[string]string, len(fm.Tags))
			for k, v := range fm.Tags {
				tags[k] = v
			}
			for k, v := range exportTags(sf.Tag) {
				if _, set := tags[k]; !set {
					tags[k] = v
				}
			}
			fm.Tags = tags
		case sf.Anonymous:
			fm = fieldMetadata(sf)
		default:
			continue
		}
		out.Fields = append(out.Fields, fm)
	}
	return out
}

// reflectMetadata builds the metadata sentinel would for a type it has not
// scanned, keeping unexported embedded structs.
func reflectMetadata(rt reflect.Type) sentinel.Metadata {
	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		meta.Fields = append(meta.Fields, fieldMetadata(sf))
	}
	return meta
}

func fieldMetadata(sf reflect.StructField) sentinel.FieldMetadata {
	fm := sentinel.FieldMetadata{
		Name:        sf.Name,
		Type:        sf.Type.String(),
		ReflectType: sf.Type,
		Index:       sf.Index,
		Tags:        exportTags(sf.Tag),
	}
	switch sf.Type.Kind() {
	case reflect.Struct:
		fm.Kind = sentinel.KindStruct
	case reflect.Pointer:
		fm.Kind = sentinel.KindPointer
	case reflect.Slice, reflect.Array:
		fm.Kind = sentinel.KindSlice
	case reflect.Map:
		fm.Kind = sentinel.KindMap
	case reflect.Interface:
		fm.Kind = sentinel.KindInterface
	default:
		fm.Kind = sentinel.KindScalar
	}
	return fm
}

func exportTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, name := range []string{tagMask, tagHash, tagRedact} {
		if val, ok := tag.Lookup(name); ok {
			tags[name] = val
		}
	}
	return tags
}
