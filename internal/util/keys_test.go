package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactStableAndShort(t *testing.T) {
	a := Redact("app:user:_42")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Redact("app:user:_42"))
	assert.NotEqual(t, a, Redact("app:user:_43"))
}
