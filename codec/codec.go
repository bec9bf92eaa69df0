// Package codec serializes memoized values to the bytes the cache tiers
// store. Typed memoization (memograph.Wrap) encodes every computed result
// through a Codec before it reaches the tiered store and decodes on hit.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
