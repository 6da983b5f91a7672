// Package layout verifies that a Go type can be reinterpreted from arbitrary
// bytes and performs the zero-copy conversions between []T and []byte.
//
// A type is admitted when every bit pattern of its memory is a legal value and
// it has no alignment requirement, so it may start at any byte offset. In Go
// that means: uint8/int8, arrays of admitted types, and structs made only of
// admitted types. Verification is done once per type and cached.
package layout

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

var (
	// ErrUnsupported is returned for types that cannot be reinterpreted from bytes.
	ErrUnsupported = errors.New("layout: unsupported element type")
	// ErrZeroSize is returned for zero-sized element types.
	ErrZeroSize = errors.New("layout: zero-sized element type")
)

// Layout describes an admitted element type.
type Layout struct {
	Type reflect.Type
	Size int
}

// TypeError reports why a type was refused.
type TypeError struct {
	Type   reflect.Type
	Path   string // field/element path to the offending part, "" for the type itself
	Reason string
	kind   error
}

func (e *TypeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("layout: %v: %s: %s", e.Type, e.Path, e.Reason)
	}
	return fmt.Sprintf("layout: %v: %s", e.Type, e.Reason)
}

func (e *TypeError) Unwrap() error { return e.kind }

type entry struct {
	l   Layout
	err error
}

var cache sync.Map // reflect.Type -> entry

// Of returns the layout of T, verifying it on first use.
func Of[T any]() (Layout, error) {
	return OfType(reflect.TypeOf((*T)(nil)).Elem())
}

// OfType is Of for a runtime type.
func OfType(t reflect.Type) (Layout, error) {
	if v, ok := cache.Load(t); ok {
		e := v.(entry)
		return e.l, e.err
	}
	e := entry{}
	e.err = verify(t)
	if e.err == nil {
		e.l = Layout{Type: t, Size: int(t.Size())}
	}
	cache.Store(t, e)
	return e.l, e.err
}

func verify(t reflect.Type) error {
	if t.Size() == 0 {
		return &TypeError{Type: t, Reason: "element size is zero", kind: ErrZeroSize}
	}
	if err := plain(t, t, ""); err != nil {
		return err
	}
	if t.Align() != 1 {
		return &TypeError{Type: t, Reason: fmt.Sprintf("requires %d-byte alignment", t.Align()), kind: ErrUnsupported}
	}
	return nil
}

// plain walks t and refuses anything that is not byte-representable and
// alignment-free.
func plain(root, t reflect.Type, path string) error {
	refuse := func(reason string) error {
		return &TypeError{Type: root, Path: path, Reason: reason, kind: ErrUnsupported}
	}
	switch t.Kind() {
	case reflect.Uint8, reflect.Int8:
		return nil
	case reflect.Array:
		return plain(root, t.Elem(), path+"[]")
	case reflect.Struct:
		var sum uintptr
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			p := f.Name
			if path != "" {
				p = path + "." + f.Name
			}
			if err := plain(root, f.Type, p); err != nil {
				return err
			}
			sum += f.Type.Size()
		}
		if sum != t.Size() {
			return refuse("struct has padding")
		}
		return nil
	case reflect.Bool:
		return refuse("bool has invalid bit patterns")
	case reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return refuse(fmt.Sprintf("%s requires %d-byte alignment", t.Kind(), t.Align()))
	default:
		return refuse(fmt.Sprintf("%s holds pointers", t.Kind()))
	}
}

// Bytes reinterprets s as its raw bytes. T must have been admitted by Of.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return []byte{}
	}
	var zero T
	n := len(s) * int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), n)
}

// Slice reinterprets b as a []T of len(b)/size_of(T) elements. It reports
// false when len(b) is not a whole multiple of the element size. T must have
// been admitted by Of.
func Slice[T any](b []byte) ([]T, bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := len(b) / size
	if n == 0 {
		return []T{}, true
	}
	out := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
	if debug {
		assertAliases(b, out, size)
	}
	return out, true
}

func assertAliases[T any](b []byte, out []T, size int) {
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	got := uintptr(unsafe.Pointer(unsafe.SliceData(out)))
	if got != start {
		panic(fmt.Sprintf("layout: decoded slice starts at %#x, buffer at %#x", got, start))
	}
	if len(out)*size > len(b) {
		panic(fmt.Sprintf("layout: decoded %d bytes out of a %d byte buffer", len(out)*size, len(b)))
	}
}
