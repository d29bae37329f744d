package slog

import (
	"bytes"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/cacheaspect"
)

func TestFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, nil))}

	l.Info("cacheaspect: stored", cacheaspect.Fields{"ttl": "1m0s", "key": "k", "method": "S.F"})

	out := buf.String()
	assert.Contains(t, out, `msg="cacheaspect: stored" key=k method=S.F ttl=1m0s`)
}
