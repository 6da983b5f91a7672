package sloghook

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHooks(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSelfHeal_LevelByReason(t *testing.T) {
	h, buf := newTestHooks(Options{})
	h.SelfHealSingle("single:series:a", "gen_mismatch")
	h.SelfHealSingle("single:series:a", "layout_mismatch")

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "layout_mismatch", recs[1]["reason"])
}

func TestRedact_DefaultHidesKey(t *testing.T) {
	h, buf := newTestHooks(Options{})
	h.GenBumpError("single:users:secret@example.com", errors.New("down"))

	out := buf.String()
	assert.NotContains(t, out, "secret@example.com")
	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, h.redact("single:users:secret@example.com"), recs[0]["key"])
}

func TestRedact_Custom(t *testing.T) {
	h, buf := newTestHooks(Options{Redact: func(string) string { return "x" }})
	h.ProviderSetRejected("single:users:a", false)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0]["key"])
	assert.Equal(t, false, recs[0]["is_bulk"])
}

func TestSampling(t *testing.T) {
	h, buf := newTestHooks(Options{BulkRejectEvery: 3})
	for i := 0; i < 9; i++ {
		h.BulkRejected("series", 2, "invalid_or_stale")
	}
	assert.Len(t, records(t, buf), 3)
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	assert.NotPanics(t, func() {
		h.SelfHealSingle("k", "corrupt")
		h.BulkRejected("ns", 1, "decode_error")
		h.ProviderSetRejected("k", true)
		h.GenSnapshotError(1, errors.New("x"))
		h.GenBumpError("k", errors.New("x"))
		h.InvalidateOutage("k", errors.New("a"), errors.New("b"))
		h.LocalGenWithBulk()
	})
}
