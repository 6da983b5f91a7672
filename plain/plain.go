// Package plain provides alignment-free numeric element types for
// codec.UnalignedSlice.
//
// Go's built-in multi-byte numbers require natural alignment and cannot be
// reinterpreted from an arbitrary offset inside a stored value. The types here
// are byte arrays holding a little-endian encoding, so any byte pattern is a
// valid value and they may start at any address. The byte order belongs to the
// element type; the codec never converts.
package plain

import (
	"encoding/binary"
	"math"
)

// Uint16 is a little-endian uint16 with no alignment requirement.
type Uint16 [2]byte

// Uint32 is a little-endian uint32 with no alignment requirement.
type Uint32 [4]byte

// Uint64 is a little-endian uint64 with no alignment requirement.
type Uint64 [8]byte

// Int16 is a little-endian int16 with no alignment requirement.
type Int16 [2]byte

// Int32 is a little-endian int32 with no alignment requirement.
type Int32 [4]byte

// Int64 is a little-endian int64 with no alignment requirement.
type Int64 [8]byte

// Float32 is a little-endian IEEE-754 float32 with no alignment requirement.
type Float32 [4]byte

// Float64 is a little-endian IEEE-754 float64 with no alignment requirement.
type Float64 [8]byte

var le = binary.LittleEndian

func U16(v uint16) (o Uint16) { le.PutUint16(o[:], v); return }
func U32(v uint32) (o Uint32) { le.PutUint32(o[:], v); return }
func U64(v uint64) (o Uint64) { le.PutUint64(o[:], v); return }
func I16(v int16) (o Int16)   { le.PutUint16(o[:], uint16(v)); return }
func I32(v int32) (o Int32)   { le.PutUint32(o[:], uint32(v)); return }
func I64(v int64) (o Int64)   { le.PutUint64(o[:], uint64(v)); return }

func F32(v float32) (o Float32) { le.PutUint32(o[:], math.Float32bits(v)); return }
func F64(v float64) (o Float64) { le.PutUint64(o[:], math.Float64bits(v)); return }

func (x Uint16) Get() uint16   { return le.Uint16(x[:]) }
func (x Uint32) Get() uint32   { return le.Uint32(x[:]) }
func (x Uint64) Get() uint64   { return le.Uint64(x[:]) }
func (x Int16) Get() int16     { return int16(le.Uint16(x[:])) }
func (x Int32) Get() int32     { return int32(le.Uint32(x[:])) }
func (x Int64) Get() int64     { return int64(le.Uint64(x[:])) }
func (x Float32) Get() float32 { return math.Float32frombits(le.Uint32(x[:])) }
func (x Float64) Get() float64 { return math.Float64frombits(le.Uint64(x[:])) }

func (x *Uint16) Set(v uint16)   { *x = U16(v) }
func (x *Uint32) Set(v uint32)   { *x = U32(v) }
func (x *Uint64) Set(v uint64)   { *x = U64(v) }
func (x *Int16) Set(v int16)     { *x = I16(v) }
func (x *Int32) Set(v int32)     { *x = I32(v) }
func (x *Int64) Set(v int64)     { *x = I64(v) }
func (x *Float32) Set(v float32) { *x = F32(v) }
func (x *Float64) Set(v float64) { *x = F64(v) }

// Uint32s converts native values to plain elements. The result is a new slice.
func Uint32s(vs ...uint32) []Uint32 {
	out := make([]Uint32, len(vs))
	for i, v := range vs {
		out[i] = U32(v)
	}
	return out
}

// Uint64s converts native values to plain elements. The result is a new slice.
func Uint64s(vs ...uint64) []Uint64 {
	out := make([]Uint64, len(vs))
	for i, v := range vs {
		out[i] = U64(v)
	}
	return out
}

// Float64s converts native values to plain elements. The result is a new slice.
func Float64s(vs ...float64) []Float64 {
	out := make([]Float64, len(vs))
	for i, v := range vs {
		out[i] = F64(v)
	}
	return out
}
