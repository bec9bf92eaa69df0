// Package keygen turns call signatures into stable, hashable cache keys.
//
// A signature is an optional subject (usually a fully-qualified function
// name), ordered positional arguments and named arguments. The same logical
// signature always hashes to the same key: named arguments are sorted by
// name, set-shaped maps are reduced to sorted element lists, and map entries
// are emitted in sorted key order. Positional order is significant.
//
// Values that cannot be encoded deterministically are a hard error
// (ErrUnencodable) rather than a silent fallback - a wrong key corrupts
// caching correctness without any visible failure.
package keygen

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
)

// ErrUnencodable reports a value that has no deterministic key
// representation. Returned (wrapped in *UnencodableTypeError) by Generate.
var ErrUnencodable = errors.New("keygen: unencodable type")

// UnencodableTypeError identifies the offending value and where in the
// signature it was found (e.g. "args[2].Prices" or "kwargs[asof]").
type UnencodableTypeError struct {
	Path string
	Type reflect.Type
}

func (e *UnencodableTypeError) Error() string {
	return fmt.Sprintf("keygen: value at %s has unencodable type %s", e.Path, e.Type)
}

func (e *UnencodableTypeError) Unwrap() error { return ErrUnencodable }

// Keyable lets a type supply its own canonical key representation instead
// of being rejected. The returned value is re-validated: it must itself be
// encodable (primitives, slices, maps, or further Keyable values).
type Keyable interface {
	CacheKey() (any, error)
}

// Descriptor is the reduced representation of a large structured value
// (tabular data, matrices). Keys are derived from shape and schema, never
// from full payloads, so key generation stays O(schema), not O(data).
type Descriptor struct {
	Kind   string   // e.g. "frame", "series", "matrix"
	Dims   []int    // row/column counts or array shape
	Fields []string // column/field names; sorted before encoding
	Elem   string   // element type name
}

// Described marks a type whose key contribution is its Descriptor.
type Described interface {
	CacheDescriptor() Descriptor
}

// Generate builds the cache key for one call signature. subject may be
// empty. kwargs iteration order never affects the result; args order does.
func Generate(subject string, args []any, kwargs map[string]any) (string, error) {
	var e encoder
	e.writeString(subject)
	e.buf = append(e.buf, '|')
	if err := e.encodeList(args, "args"); err != nil {
		return "", err
	}
	e.buf = append(e.buf, '|')
	if err := e.encodeKwargs(kwargs); err != nil {
		return "", err
	}
	sum := sha256.Sum256(e.buf)
	return hex.EncodeToString(sum[:]), nil
}
