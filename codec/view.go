package codec

import (
	"fmt"
	"sync/atomic"
)

// View is a decoded []T bound to the buffer it aliases. Once Release is called
// the view drops its reference and every accessor fails with ErrViewReleased,
// so a view cannot be used past the point where its buffer is given back.
//
// Slices already obtained from Elems are not revoked; do not retain them past
// Release.
type View[T any] struct {
	s atomic.Pointer[viewState[T]]
}

type viewState[T any] struct {
	buf   []byte
	elems []T
}

// View decodes b and wraps the result.
func (c UnalignedSlice[T]) View(b []byte) (*View[T], error) {
	elems, err := c.Decode(b)
	if err != nil {
		return nil, err
	}
	v := &View[T]{}
	v.s.Store(&viewState[T]{buf: b[:len(b):len(b)], elems: elems})
	return v, nil
}

// Elems returns the decoded elements.
func (v *View[T]) Elems() ([]T, error) {
	s := v.s.Load()
	if s == nil {
		return nil, ErrViewReleased
	}
	return s.elems, nil
}

// Bytes returns the aliased buffer.
func (v *View[T]) Bytes() ([]byte, error) {
	s := v.s.Load()
	if s == nil {
		return nil, ErrViewReleased
	}
	return s.buf, nil
}

// Len returns the element count, 0 after Release.
func (v *View[T]) Len() int {
	s := v.s.Load()
	if s == nil {
		return 0
	}
	return len(s.elems)
}

// At returns element i.
func (v *View[T]) At(i int) (T, error) {
	var zero T
	s := v.s.Load()
	if s == nil {
		return zero, ErrViewReleased
	}
	if i < 0 || i >= len(s.elems) {
		return zero, fmt.Errorf("codec: index %d out of range [0:%d]", i, len(s.elems))
	}
	return s.elems[i], nil
}

// Released reports whether Release has been called.
func (v *View[T]) Released() bool { return v.s.Load() == nil }

// Release invalidates the view. Safe to call more than once and concurrently
// with the accessors.
func (v *View[T]) Release() { v.s.Store(nil) }

// With decodes b, passes the elements to fn and releases the view when fn
// returns. fn must not retain the slice.
func With[T any](c UnalignedSlice[T], b []byte, fn func([]T) error) error {
	v, err := c.View(b)
	if err != nil {
		return err
	}
	defer v.Release()
	elems, err := v.Elems()
	if err != nil {
		return err
	}
	return fn(elems)
}
