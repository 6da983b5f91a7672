// Package wire frames cache entries. Decoders are strict (exact length, no
// trailing bytes) and return payloads as subslices of their input, so a
// zero-copy codec sees the provider's bytes directly.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version    byte = 1
	kindSingle byte = 1
	kindBulk   byte = 2

	singleHeader = 4 + 1 + 1 + 8 + 4
	bulkHeader   = 4 + 1 + 1 + 4
	itemFixed    = 2 + 8 + 4

	// PayloadOffset is where a single entry's payload starts. It is not a
	// multiple of any alignment wider than 2 bytes.
	PayloadOffset = singleHeader
)

var (
	ErrCorrupt = errors.New("zerocas: corrupt entry")
	ErrKeyLen  = errors.New("zerocas: bulk key length out of range")
	magic4     = [...]byte{'C', 'A', 'S', 'C'}
	be         = binary.BigEndian
)

func header(b []byte, kind byte) bool {
	return bytes.Equal(b[:4], magic4[:]) && b[4] == version && b[5] == kind
}

// EncodeSingle frames one payload:
//
//	magic(4) | ver(1) | kind(1=single) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeSingle(gen uint64, payload []byte) []byte {
	out := make([]byte, 0, singleHeader+len(payload))
	out = append(out, magic4[:]...)
	out = append(out, version, kindSingle)
	out = be.AppendUint64(out, gen)
	out = be.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

// DecodeSingle returns the generation and a payload aliasing b.
func DecodeSingle(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < singleHeader || !header(b, kindSingle) {
		return 0, nil, ErrCorrupt
	}
	gen = be.Uint64(b[6:14])
	vlen := int(be.Uint32(b[14:18]))
	if vlen != len(b)-singleHeader {
		return 0, nil, ErrCorrupt
	}
	return gen, b[singleHeader:len(b):len(b)], nil
}

// BulkItem is one member of a bulk entry.
type BulkItem struct {
	Key     string
	Gen     uint64
	Payload []byte
}

// EncodeBulk frames a set of members:
//
//	magic(4) | ver(1) | kind(1=bulk) | n(u32 be)
//	{ keyLen(u16 be) | key | gen(u64 be) | vlen(u32 be) | payload } * n
func EncodeBulk(items []BulkItem) ([]byte, error) {
	total := bulkHeader
	for _, it := range items {
		if l := len(it.Key); l == 0 || l > 0xFFFF {
			return nil, fmt.Errorf("%w: %d", ErrKeyLen, l)
		}
		total += itemFixed + len(it.Key) + len(it.Payload)
	}

	out := make([]byte, 0, total)
	out = append(out, magic4[:]...)
	out = append(out, version, kindBulk)
	out = be.AppendUint32(out, uint32(len(items)))
	for _, it := range items {
		out = be.AppendUint16(out, uint16(len(it.Key)))
		out = append(out, it.Key...)
		out = be.AppendUint64(out, it.Gen)
		out = be.AppendUint32(out, uint32(len(it.Payload)))
		out = append(out, it.Payload...)
	}
	return out, nil
}

// DecodeBulk parses a bulk entry. Payloads alias b; keys are copied.
func DecodeBulk(b []byte) ([]BulkItem, error) {
	if len(b) < bulkHeader || !header(b, kindBulk) {
		return nil, ErrCorrupt
	}
	n := int(be.Uint32(b[6:10]))
	off := bulkHeader

	// every item needs at least itemFixed+1 bytes; bound n before allocating
	if n > (len(b)-off)/(itemFixed+1) {
		return nil, ErrCorrupt
	}

	items := make([]BulkItem, 0, n)
	for i := 0; i < n; i++ {
		if len(b)-off < 2 {
			return nil, ErrCorrupt
		}
		klen := int(be.Uint16(b[off:]))
		off += 2
		if klen == 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}
		key := string(b[off : off+klen])
		off += klen

		if len(b)-off < 12 {
			return nil, ErrCorrupt
		}
		gen := be.Uint64(b[off:])
		off += 8
		vlen := int(be.Uint32(b[off:]))
		off += 4
		if vlen > len(b)-off {
			return nil, ErrCorrupt
		}
		end := off + vlen
		items = append(items, BulkItem{Key: key, Gen: gen, Payload: b[off:end:end]})
		off = end
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
