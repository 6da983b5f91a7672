package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
	"unsafe"

	"github.com/unkn0wn-root/zerocas/codec"
	"github.com/unkn0wn-root/zerocas/plain"
)

func mustDecodeSingle(t *testing.T, b []byte) (uint64, []byte) {
	t.Helper()
	gen, p, err := DecodeSingle(b)
	if err != nil {
		t.Fatalf("DecodeSingle error: %v", err)
	}
	return gen, p
}

func mustDecodeBulk(t *testing.T, b []byte) []BulkItem {
	t.Helper()
	it, err := DecodeBulk(b)
	if err != nil {
		t.Fatalf("DecodeBulk error: %v", err)
	}
	return it
}

func mustEncodeBulk(t *testing.T, items []BulkItem) []byte {
	t.Helper()
	b, err := EncodeBulk(items)
	if err != nil {
		t.Fatalf("EncodeBulk error: %v", err)
	}
	return b
}

func clone(b []byte) []byte { return append([]byte(nil), b...) }

func TestSingleRoundTrip(t *testing.T) {
	cases := []struct {
		gen     uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := EncodeSingle(tc.gen, tc.payload)
		if len(enc) != PayloadOffset+len(tc.payload) {
			t.Fatalf("frame len=%d want %d", len(enc), PayloadOffset+len(tc.payload))
		}
		gen, p := mustDecodeSingle(t, enc)
		if gen != tc.gen {
			t.Fatalf("gen mismatch: got %d want %d", gen, tc.gen)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestSingleCorrupt(t *testing.T) {
	enc := EncodeSingle(1, []byte("abc"))

	cases := map[string]func() []byte{
		"empty":     func() []byte { return nil },
		"short":     func() []byte { return enc[:PayloadOffset-1] },
		"truncated": func() []byte { return enc[:len(enc)-1] },
		"trailing":  func() []byte { return append(clone(enc), 0xDE, 0xAD) },
		"magic":     func() []byte { b := clone(enc); b[0] = 'X'; return b },
		"version":   func() []byte { b := clone(enc); b[4] = version + 1; return b },
		"kind":      func() []byte { b := clone(enc); b[5] = kindBulk; return b },
		"vlen": func() []byte {
			b := clone(enc)
			binary.BigEndian.PutUint32(b[14:18], uint32(len("abc")+1))
			return b
		},
	}
	for name, mk := range cases {
		if _, _, err := DecodeSingle(mk()); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestSingleZeroCopyPayload(t *testing.T) {
	enc := EncodeSingle(1, []byte("Z"))
	_, p := mustDecodeSingle(t, enc)
	p[0] = 'Q'
	_, p2 := mustDecodeSingle(t, enc)
	if p2[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
	if cap(p) != len(p) {
		t.Fatalf("payload capacity must end at the frame: cap=%d len=%d", cap(p), len(p))
	}
}

// The payload sits at an offset no wide scalar can be aligned to, which is
// what UnalignedSlice element types are for.
func TestSinglePayloadFeedsUnalignedSlice(t *testing.T) {
	c := codec.MustUnalignedSlice[plain.Uint64]()
	in := plain.Uint64s(1, 1<<40, math.MaxUint64)

	enc := EncodeSingle(3, c.AsBytes(in))
	_, p := mustDecodeSingle(t, enc)

	out, err := c.Decode(p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 3 || out[1].Get() != 1<<40 || out[2].Get() != math.MaxUint64 {
		t.Fatalf("unexpected decode %v", out)
	}
	if unsafe.Pointer(&out[0]) != unsafe.Pointer(&enc[PayloadOffset]) {
		t.Fatalf("decoded slice does not alias the frame")
	}
}

func TestBulkRoundTrip(t *testing.T) {
	cases := [][]BulkItem{
		nil,
		{{Key: "a", Gen: 1, Payload: []byte("x")}},
		{
			{Key: "a", Gen: 1, Payload: []byte("x")},
			{Key: "b", Gen: 2, Payload: nil},
			{Key: "c", Gen: 3, Payload: []byte{9, 8, 7}},
		},
		// duplicates allowed; decoder preserves both
		{
			{Key: "dup", Gen: 1, Payload: []byte("old")},
			{Key: "dup", Gen: 2, Payload: []byte("new")},
		},
	}
	for _, items := range cases {
		got := mustDecodeBulk(t, mustEncodeBulk(t, items))
		if len(got) != len(items) {
			t.Fatalf("len mismatch: got %d want %d", len(got), len(items))
		}
		for i := range items {
			if got[i].Key != items[i].Key || got[i].Gen != items[i].Gen || !bytes.Equal(got[i].Payload, items[i].Payload) {
				t.Fatalf("item %d mismatch: got=%+v want=%+v", i, got[i], items[i])
			}
		}
	}
}

func TestBulkKeyLengthValidation(t *testing.T) {
	if _, err := EncodeBulk([]BulkItem{{Key: "", Gen: 1, Payload: []byte("x")}}); err == nil {
		t.Fatalf("expected error on empty key")
	}
	if _, err := EncodeBulk([]BulkItem{{Key: strings.Repeat("a", 0x10000), Gen: 1}}); err == nil {
		t.Fatalf("expected error on key length > 0xFFFF")
	}
	if _, err := EncodeBulk([]BulkItem{{Key: strings.Repeat("b", 0xFFFF), Gen: 1}}); err != nil {
		t.Fatalf("boundary key length should succeed: %v", err)
	}
}

func bulkHeaderWithN(n uint32) []byte {
	b := append([]byte{}, magic4[:]...)
	b = append(b, version, kindBulk)
	return binary.BigEndian.AppendUint32(b, n)
}

func TestBulkCorrupt(t *testing.T) {
	enc := mustEncodeBulk(t, []BulkItem{{Key: "k", Gen: 9, Payload: []byte("xyz")}})
	// header 10 bytes, then klen(2) "k"(1) gen(8) vlen(4) payload
	const vlenAt = 10 + 2 + 1 + 8

	cases := map[string]func() []byte{
		"trailing":  func() []byte { return append(clone(enc), 0xBE, 0xEF) },
		"truncated": func() []byte { return enc[:len(enc)-1] },
		"magic":     func() []byte { b := clone(enc); b[0] = 'X'; return b },
		"version":   func() []byte { b := clone(enc); b[4] = version + 1; return b },
		"kind":      func() []byte { b := clone(enc); b[5] = kindSingle; return b },
		"vlen": func() []byte {
			b := clone(enc)
			binary.BigEndian.PutUint32(b[vlenAt:vlenAt+4], uint32(len("xyz")+1))
			return b
		},
		"klen": func() []byte {
			b := clone(enc)
			binary.BigEndian.PutUint16(b[10:12], 5)
			return b
		},
		"zero klen": func() []byte {
			b := clone(enc)
			binary.BigEndian.PutUint16(b[10:12], 0)
			return b
		},
		"bogus n":       func() []byte { return bulkHeaderWithN(^uint32(0)) },
		"n without body": func() []byte { return bulkHeaderWithN(1) },
	}
	for name, mk := range cases {
		if _, err := DecodeBulk(mk()); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestBulkZeroCopyPayloadSlices(t *testing.T) {
	enc := mustEncodeBulk(t, []BulkItem{
		{Key: "a", Gen: 1, Payload: []byte("X")},
		{Key: "b", Gen: 2, Payload: []byte("Y")},
	})
	got := mustDecodeBulk(t, enc)
	if len(got) != 2 || len(got[0].Payload) != 1 {
		t.Fatalf("unexpected decoded items")
	}
	if cap(got[0].Payload) != 1 {
		t.Fatalf("payload capacity leaks into the next item: %d", cap(got[0].Payload))
	}

	got[0].Payload[0] = 'Q'
	if got2 := mustDecodeBulk(t, enc); got2[0].Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy payload subslices into enc buffer")
	}
}
