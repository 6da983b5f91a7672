package codec

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/zerocas/internal/layout"
)

var (
	// ErrLayoutMismatch reports a stored value whose length is not a whole
	// number of elements. Truncated, corrupt and wrong-type values all look alike.
	ErrLayoutMismatch = errors.New("codec: layout mismatch")
	// ErrUnsupportedType reports an element type that cannot be reinterpreted
	// from bytes, or a codec that was never constructed.
	ErrUnsupportedType = layout.ErrUnsupported
	// ErrZeroSize reports a zero-sized element type.
	ErrZeroSize = layout.ErrZeroSize
	// ErrViewReleased is returned by View accessors after Release.
	ErrViewReleased = errors.New("codec: view released")
)

// TypeError is returned by NewUnalignedSlice for element types it refuses.
type TypeError = layout.TypeError

// LayoutMismatchError describes a failed decode.
type LayoutMismatchError struct {
	Type     string // element type
	Len      int    // payload length in bytes
	ElemSize int
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("codec: layout mismatch: %d bytes is not a multiple of %s (size %d)",
		e.Len, e.Type, e.ElemSize)
}

func (e *LayoutMismatchError) Is(target error) bool { return target == ErrLayoutMismatch }
