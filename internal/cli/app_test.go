package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := New().WithOutput(&out, &errOut)
	err := app.ExecuteWithArgs(context.Background(), args)
	return strings.TrimSpace(out.String()), err
}

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Setenv("CACHEASPECT_BACKEND", "redis")
	t.Setenv("CACHEASPECT_REDIS_ADDR", mr.Addr())
	return mr
}

func TestKeyCommand(t *testing.T) {
	t.Setenv("CACHEASPECT_CACHE_PREFIX", "app")

	out, err := run(t, "key", "--prefix", "user:", "--expr", "#id", "--arg", "id=42")
	require.NoError(t, err)
	assert.Equal(t, "app:user:_42", out)

	out, err = run(t, "key", "--expr", "#a", "--expr", "#b", "--expr", "#c",
		"--arg", "a=x", "--arg", "b=", "--arg", "c=z")
	require.NoError(t, err)
	assert.Equal(t, "app:_x", out)
}

func TestKeyCommandBadArg(t *testing.T) {
	_, err := run(t, "key", "--expr", "#a", "--arg", "novalue")
	assert.Error(t, err)
}

func TestCounterGetEvict(t *testing.T) {
	mr := withRedis(t)

	out, err := run(t, "incr", "hits")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	out, err = run(t, "incr", "hits", "--by", "4")
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	out, err = run(t, "decr", "hits", "--by", "2")
	require.NoError(t, err)
	assert.Equal(t, "3", out)

	out, err = run(t, "get", "hits")
	require.NoError(t, err)
	assert.Equal(t, "3", out)

	out, err = run(t, "evict", "hits")
	require.NoError(t, err)
	assert.Equal(t, "evicted hits", out)
	assert.False(t, mr.Exists("hits"))

	_, err = run(t, "get", "hits")
	assert.ErrorContains(t, err, "not found")
}

func TestBloomCommands(t *testing.T) {
	withRedis(t)

	out, err := run(t, "bloom", "create", "seen", "--insertions", "1000", "--fpp", "0.01")
	require.NoError(t, err)
	assert.Equal(t, "size=9586 hashes=7", out)

	out, err = run(t, "bloom", "add", "seen", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice true", out)

	out, err = run(t, "bloom", "test", "seen", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice true", out)
}

func TestBloomTestInitialisesMissingFilter(t *testing.T) {
	mr := withRedis(t)

	out, err := run(t, "bloom", "test", "ghost", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob false", out)
	assert.True(t, mr.Exists("{ghost}:config"))
}
