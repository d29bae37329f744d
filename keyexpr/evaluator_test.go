package keyexpr

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID     int
	Region string
	Tags   map[string]string
}

type opaque struct{ n int }

func TestEvaluateVariableReference(t *testing.T) {
	got, err := Evaluate([]string{"id"}, []any{42}, "#id")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	// bare identifiers work too
	got, err = Evaluate([]string{"id"}, []any{42}, "id")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestEvaluatePathAccessAndConcat(t *testing.T) {
	acc := account{ID: 9, Region: "eu", Tags: map[string]string{"tier": "gold"}}
	names := []string{"acc", "kind"}
	values := []any{acc, "full"}

	cases := map[string]string{
		"#acc.Region":                   "eu",
		"#acc.Region + ':' + #kind":     "eu:full",
		"#acc.Tags['tier']":             "gold",
		"'literal'":                     "literal",
		"#acc.ID > 5 ? 'big' : 'small'": "big",
		"'#notavar' + #kind":            "#notavarfull",
		"\"#also\" + '-' + #acc.Region": "#also-eu",
	}
	for in, want := range cases {
		got, err := Evaluate(names, values, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ev := New()
	b, err := Bind([]string{"a", "b"}, []any{"x", 3})
	require.NoError(t, err)

	first, err := ev.Evaluate("svc.Find", b, "#a + '_' + string(#b)")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ev.Evaluate("svc.Find", b, "#a + '_' + string(#b)")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "x_3", first)
}

func TestEvaluateCompilesOncePerMethodAndTypes(t *testing.T) {
	ev := New()
	for i := 0; i < 5; i++ {
		b, _ := Bind([]string{"id"}, []any{i})
		_, err := ev.Evaluate("svc.Get", b, "#id")
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(1), ev.Compiled())

	b, _ := Bind([]string{"id"}, []any{"str"})
	_, err := ev.Evaluate("svc.Get", b, "#id")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Compiled(), "new argument type compiles a new program")

	b, _ = Bind([]string{"id"}, []any{1})
	_, err = ev.Evaluate("svc.Other", b, "#id")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ev.Compiled())
}

func TestEvaluateErrors(t *testing.T) {
	cases := []struct {
		name   string
		names  []string
		values []any
		expr   string
	}{
		{"syntax", []string{"id"}, []any{1}, "#id +"},
		{"undeclared", []string{"id"}, []any{1}, "#other"},
		{"missing names", nil, []any{1}, "#id"},
		{"not coercible", []string{"v"}, []any{opaque{n: 1}}, "#v"},
		{"empty", []string{"id"}, []any{1}, "  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.names, tc.values, tc.expr)
			require.Error(t, err)
			var ee *EvaluationError
			assert.True(t, errors.As(err, &ee), "want EvaluationError, got %T", err)
			assert.Equal(t, tc.expr, ee.Expression)
		})
	}
}

func TestEvaluateLiteralWithoutNames(t *testing.T) {
	got, err := Evaluate(nil, []any{1, 2}, "'fixed'")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
}

func TestBind(t *testing.T) {
	b, err := Bind([]string{"a", "b"}, []any{1, "two"})
	require.NoError(t, err)
	assert.Equal(t, Binding{"a": 1, "b": "two"}, b)

	_, err = Bind([]string{"a"}, []any{1, 2})
	var be *BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Names)
	assert.Equal(t, 2, be.Values)

	b, err = Bind(nil, []any{1})
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"#id":               "id",
		"#user.name + '#x'": "user.name + '#x'",
		"'it\\'s #a' + #b":  "'it\\'s #a' + b",
		"# 1":               "# 1",
		"no markers":        "no markers",
		"`#raw` + #_under":  "`#raw` + _under",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize(in), in)
	}
}

func TestEvaluatorConcurrentUse(t *testing.T) {
	ev := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := Bind([]string{"id"}, []any{i})
			got, err := ev.Evaluate("svc.Get", b, "#id")
			assert.NoError(t, err)
			assert.NotEmpty(t, got)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, uint64(1), ev.Compiled())
}
