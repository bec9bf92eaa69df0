package codec

import "fmt"

// Limit wraps another codec to cap the payload size accepted at Decode
// time; Encode is forwarded unchanged. Protects against oversized or
// foreign values coming back from a shared remote tier. MaxDecode <= 0
// disables the cap.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
