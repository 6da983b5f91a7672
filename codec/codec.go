// Package codec converts cache values to and from the bytes a provider stores.
//
// UnalignedSlice is the zero-copy codec: it reinterprets a stored value as a
// []T of plain, alignment-free elements without allocating. The remaining
// codecs (JSON, CBOR, Msgpack, Protobuf) copy and are meant for values that are
// not plain data.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
