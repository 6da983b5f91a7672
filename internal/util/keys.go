package util

import (
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SortedUnique returns a sorted copy of keys with duplicates removed.
func SortedUnique(keys []string) []string {
	s := slices.Clone(keys)
	slices.Sort(s)
	return slices.Compact(s)
}

// BulkKeySorted returns prefix + ":" + 16 hex chars of an xxhash64 over the
// members. sortedKeys must already be sorted and de-duplicated.
func BulkKeySorted(prefix string, sortedKeys []string) string {
	d := xxhash.New()
	for _, k := range sortedKeys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0}) // separator: {"ab"} and {"a","b"} must differ
	}
	sum := d.Sum64()

	out := make([]byte, 0, len(prefix)+1+16)
	out = append(out, prefix...)
	out = append(out, ':')
	hex := strconv.AppendUint(nil, sum, 16)
	for i := len(hex); i < 16; i++ {
		out = append(out, '0')
	}
	return string(append(out, hex...))
}

// BulkKey is BulkKeySorted for keys in any order, possibly with duplicates.
func BulkKey(prefix string, keys []string) string {
	return BulkKeySorted(prefix, SortedUnique(keys))
}
