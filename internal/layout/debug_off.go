//go:build !zerocasdebug

package layout

const debug = false
