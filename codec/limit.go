package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is matched by errors returned from Limit.Decode.
var ErrTooLarge = errors.New("codec: payload too large")

// Limit wraps another codec and refuses payloads larger than MaxDecode bytes
// before Inner sees them. Encode is forwarded unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Wrapping UnalignedSlice bounds the element count of values read from a
// shared or untrusted store without touching the zero-copy path.
type Limit[V any] struct {
	Inner     Codec[V] // must be set
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
