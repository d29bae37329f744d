package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestKeysAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	h := New(newLogger(&buf), Options{})
	h.KeyTruncated("S.F", "app:user:secret-email", 1)

	out := buf.String()
	assert.Contains(t, out, "cacheaspect.key_truncated")
	assert.Contains(t, out, "expr_index=1")
	assert.NotContains(t, out, "secret-email")
}

func TestHitSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(newLogger(&buf), Options{HitEvery: 3, Redact: func(string) string { return "k" }})
	for i := 0; i < 9; i++ {
		h.CacheHit("S.F", "key")
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "cacheaspect.hit"))
}

func TestFailedAndNilLogger(t *testing.T) {
	var buf bytes.Buffer
	New(newLogger(&buf), Options{}).Failed("S.F", "store", errors.New("boom"))
	assert.Contains(t, buf.String(), "stage=store")
	assert.Contains(t, buf.String(), "err=boom")

	assert.NotPanics(t, func() { New(nil, Options{}).Failed("S.F", "load", errors.New("x")) })
}
