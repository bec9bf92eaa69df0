package memograph

import (
	"context"
	"time"

	"github.com/unkn0wn-root/memograph/codec"
)

// WrapOptions tune a wrapped function; they map onto DoOptions for every
// call made through the wrapper.
type WrapOptions struct {
	TTL             time.Duration
	DisableTracking bool
}

// Wrap memoizes a typed function through c. Each invocation builds a Call
// from subject and the arguments, encodes the result with cd and runs it
// through Do, so wrapped calls get coalescing, tiering and dependency
// tracking without touching []byte themselves.
//
// Zero values encode to non-nil bytes under most codecs and are cached
// like any other result. Only a codec producing a nil payload (e.g.
// codec.Bytes passing a nil slice through) skips the store; the caller
// then gets the zero V.
func Wrap[V any](c Cache, subject string, cd codec.Codec[V], fn func(ctx context.Context, args ...any) (V, error), opt WrapOptions) func(ctx context.Context, args ...any) (V, error) {
	return func(ctx context.Context, args ...any) (V, error) {
		var zero V
		raw, err := c.Do(ctx, Call{Subject: subject, Args: args}, DoOptions{
			TTL:             opt.TTL,
			DisableTracking: opt.DisableTracking,
		}, func(cctx context.Context) ([]byte, error) {
			v, err := fn(cctx, args...)
			if err != nil {
				return nil, err
			}
			return cd.Encode(v)
		})
		if err != nil {
			return zero, err
		}
		if raw == nil {
			return zero, nil
		}
		return cd.Decode(raw)
	}
}
