package codec

import (
	"fmt"

	"github.com/unkn0wn-root/zerocas/internal/layout"
)

// UnalignedSlice is a zero-copy Codec for []T where T is plain data with no
// alignment requirement (bytes, byte arrays, plain.* numbers and structs made
// of those). Stored values are N elements packed back to back with no header;
// the element count is implied by the value length.
//
// Encode returns a view of the slice's own memory and Decode returns a slice
// aliasing the input bytes. Neither copies, so the caller must not mutate or
// release the underlying buffer while a derived slice is in use.
//
// The zero value is NOT ready to use. Construct with NewUnalignedSlice or
// MustUnalignedSlice.
type UnalignedSlice[T any] struct {
	l layout.Layout
}

var _ Codec[[]byte] = UnalignedSlice[byte]{}

// NewUnalignedSlice verifies T and returns a codec for it. It fails with a
// *TypeError matching ErrUnsupportedType or ErrZeroSize.
func NewUnalignedSlice[T any]() (UnalignedSlice[T], error) {
	l, err := layout.Of[T]()
	if err != nil {
		return UnalignedSlice[T]{}, err
	}
	return UnalignedSlice[T]{l: l}, nil
}

// MustUnalignedSlice is like NewUnalignedSlice but panics on error.
// Handy for package-level variables.
func MustUnalignedSlice[T any]() UnalignedSlice[T] {
	c, err := NewUnalignedSlice[T]()
	if err != nil {
		panic(err)
	}
	return c
}

// ElemSize returns size_of(T), or 0 for an unconstructed codec.
func (c UnalignedSlice[T]) ElemSize() int { return c.l.Size }

// AsBytes returns the bytes backing s. It never fails for a constructed codec
// and returns nil otherwise.
func (c UnalignedSlice[T]) AsBytes(s []T) []byte {
	if c.l.Size == 0 {
		return nil
	}
	return layout.Bytes(s)
}

// Encode implements Codec. The error is non-nil only for an unconstructed codec.
func (c UnalignedSlice[T]) Encode(s []T) ([]byte, error) {
	if c.l.Size == 0 {
		return nil, ErrUnsupportedType
	}
	return layout.Bytes(s), nil
}

// DecodeOK reinterprets b as []T. It reports false when len(b) is not a whole
// number of elements. An empty b decodes to an empty slice.
func (c UnalignedSlice[T]) DecodeOK(b []byte) ([]T, bool) {
	if c.l.Size == 0 {
		return nil, false
	}
	return layout.Slice[T](b)
}

// Decode implements Codec. Failures are *LayoutMismatchError values matching
// ErrLayoutMismatch.
func (c UnalignedSlice[T]) Decode(b []byte) ([]T, error) {
	if c.l.Size == 0 {
		return nil, ErrUnsupportedType
	}
	out, ok := layout.Slice[T](b)
	if !ok {
		return nil, &LayoutMismatchError{Type: c.l.Type.String(), Len: len(b), ElemSize: c.l.Size}
	}
	return out, nil
}

// Count returns how many elements b holds, or an error if it holds a partial one.
func (c UnalignedSlice[T]) Count(b []byte) (int, error) {
	if c.l.Size == 0 {
		return 0, ErrUnsupportedType
	}
	if len(b)%c.l.Size != 0 {
		return 0, &LayoutMismatchError{Type: c.l.Type.String(), Len: len(b), ElemSize: c.l.Size}
	}
	return len(b) / c.l.Size, nil
}

func (c UnalignedSlice[T]) String() string {
	if c.l.Type == nil {
		return "UnalignedSlice[<invalid>]"
	}
	return fmt.Sprintf("UnalignedSlice[%s]", c.l.Type)
}
