package keygen

import (
	"encoding/hex"
	"math"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"time"
)

// encoder writes a canonical, whitespace-free, deterministically ordered
// text form of a value tree. The buffer is hashed, never stored, so the
// format only has to be stable and unambiguous - not parseable JSON.
type encoder struct {
	buf []byte
}

func (e *encoder) writeString(s string) {
	e.buf = strconv.AppendQuote(e.buf, s)
}

func (e *encoder) encodeList(vs []any, path string) error {
	e.buf = append(e.buf, '[')
	for i, v := range vs {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.encodeValue(v, path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, ']')
	return nil
}

// encodeKwargs emits named arguments sorted by name so that map iteration
// order can never leak into the key.
func (e *encoder) encodeKwargs(kwargs map[string]any) error {
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	e.buf = append(e.buf, '{')
	for i, name := range names {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.writeString(name)
		e.buf = append(e.buf, ':')
		if err := e.encodeValue(kwargs[name], "kwargs["+name+"]"); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

func (e *encoder) encodeValue(v any, path string) error {
	if v == nil {
		e.buf = append(e.buf, "null"...)
		return nil
	}

	// Opt-in representations take precedence over kind-based encoding.
	switch t := v.(type) {
	case Keyable:
		repr, err := t.CacheKey()
		if err != nil {
			return &UnencodableTypeError{Path: path, Type: reflect.TypeOf(v)}
		}
		// Re-validate: the custom representation must itself encode.
		return e.encodeValue(repr, path+".CacheKey()")
	case Described:
		e.encodeDescriptor(t.CacheDescriptor())
		return nil
	case time.Time:
		e.writeString(t.UTC().Format(time.RFC3339Nano))
		return nil
	case []byte:
		// The leading marker keeps byte slices distinct from a string
		// caller happening to pass the same hex text: string encodings
		// always start with a quote.
		e.buf = append(e.buf, 'b')
		e.writeString(hex.EncodeToString(t))
		return nil
	case error:
		// Errors in a call signature are almost certainly a caller bug.
		return &UnencodableTypeError{Path: path, Type: reflect.TypeOf(v)}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		e.buf = strconv.AppendBool(e.buf, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf = strconv.AppendInt(e.buf, rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf = strconv.AppendUint(e.buf, rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &UnencodableTypeError{Path: path, Type: rv.Type()}
		}
		e.buf = strconv.AppendFloat(e.buf, f, 'g', -1, 64)
	case reflect.String:
		e.writeString(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			e.buf = append(e.buf, "null"...)
			return nil
		}
		e.buf = append(e.buf, '[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			p := path + "[" + strconv.Itoa(i) + "]"
			if err := e.encodeValue(rv.Index(i).Interface(), p); err != nil {
				return err
			}
		}
		e.buf = append(e.buf, ']')
	case reflect.Map:
		return e.encodeMap(rv, path)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			e.buf = append(e.buf, "null"...)
			return nil
		}
		return e.encodeValue(rv.Elem().Interface(), path)
	case reflect.Func:
		if rv.IsNil() {
			e.buf = append(e.buf, "null"...)
			return nil
		}
		fn := runtime.FuncForPC(rv.Pointer())
		if fn == nil {
			return &UnencodableTypeError{Path: path, Type: rv.Type()}
		}
		e.writeString(fn.Name())
	default:
		// Structs (other than opt-in types above), channels, complex
		// numbers and unsafe pointers have no stable representation.
		return &UnencodableTypeError{Path: path, Type: rv.Type()}
	}
	return nil
}

// encodeMap emits map entries sorted by their encoded key. Maps with
// empty-struct elements are treated as sets and reduced to a sorted list
// of their members. Bool-valued maps are NOT sets: their values carry
// meaning (flag maps), so they encode as regular maps.
func (e *encoder) encodeMap(rv reflect.Value, path string) error {
	if rv.IsNil() {
		e.buf = append(e.buf, "null"...)
		return nil
	}

	elemType := rv.Type().Elem()
	isSet := elemType.Kind() == reflect.Struct && elemType.NumField() == 0

	type entry struct {
		encKey string
		mapKey reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		var ke encoder
		if err := ke.encodeValue(iter.Key().Interface(), path+"(key)"); err != nil {
			return err
		}
		entries = append(entries, entry{encKey: string(ke.buf), mapKey: iter.Key()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].encKey < entries[j].encKey })

	if isSet {
		e.buf = append(e.buf, '[')
		for i, en := range entries {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.buf = append(e.buf, en.encKey...)
		}
		e.buf = append(e.buf, ']')
		return nil
	}

	e.buf = append(e.buf, '{')
	for i, en := range entries {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = append(e.buf, en.encKey...)
		e.buf = append(e.buf, ':')
		p := path + "[" + en.encKey + "]"
		if err := e.encodeValue(rv.MapIndex(en.mapKey).Interface(), p); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

func (e *encoder) encodeDescriptor(d Descriptor) {
	fields := make([]string, len(d.Fields))
	copy(fields, d.Fields)
	sort.Strings(fields)

	e.buf = append(e.buf, '{')
	e.writeString("__type__")
	e.buf = append(e.buf, ':')
	e.writeString(d.Kind)
	e.buf = append(e.buf, ',')
	e.writeString("dims")
	e.buf = append(e.buf, ':', '[')
	for i, n := range d.Dims {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = strconv.AppendInt(e.buf, int64(n), 10)
	}
	e.buf = append(e.buf, ']', ',')
	e.writeString("elem")
	e.buf = append(e.buf, ':')
	e.writeString(d.Elem)
	e.buf = append(e.buf, ',')
	e.writeString("fields")
	e.buf = append(e.buf, ':', '[')
	for i, f := range fields {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.writeString(f)
	}
	e.buf = append(e.buf, ']', '}')
}
