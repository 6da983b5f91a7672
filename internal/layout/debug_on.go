//go:build zerocasdebug

package layout

// Built with -tags zerocasdebug: every decode asserts that the result aliases
// the input buffer.
const debug = true
