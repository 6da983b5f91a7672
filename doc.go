// Package zerocas implements a provider-agnostic cache with compare-and-swap (CAS)
// safety via per-key generations, built around a zero-copy codec for slices of
// plain data.
//
// Components:
//   - Provider: byte store with TTL (Ristretto, BigCache, Redis).
//   - Codec[V]: (de)serializes V <-> []byte. codec.UnalignedSlice[T] stores a
//     []T as its raw bytes and decodes by reinterpreting the stored bytes in
//     place, with no allocation. Element types come from package plain or are
//     byte arrays / structs of those.
//   - GenStore: generation counter per logical key. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Keys:
//
//	single:<ns>:<key>  - single entries
//	bulk:<ns>:<hash>   - set-shaped entries (xxhash over sorted keys)
//
// CAS pattern:
//
//	obs := cache.SnapshotGen(k) // before DB read
//	v   := readFromDB(k)
//	_   = cache.SetWithGen(ctx, k, v, obs, 0) // write iff current gen == obs
//
// Zero-copy read path: provider bytes -> frame -> []T. A stored value whose
// length is not a whole number of elements is deleted on read and reported to
// Hooks.SelfHealSingle with reason "layout_mismatch".
package zerocas
