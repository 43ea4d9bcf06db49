package typeexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseString_Primitives(t *testing.T) {
	cases := map[string]cty.Type{
		"string": cty.String,
		"number": cty.Number,
		"bool":   cty.Bool,
		"any":    cty.DynamicPseudoType,
	}
	for src, want := range cases {
		got, err := ParseString(src)
		require.NoError(t, err, "parsing %q", src)
		assert.True(t, want.Equals(got), "parsing %q: got %s", src, got.FriendlyName())
	}
}

func TestParseString_Collections(t *testing.T) {
	cases := map[string]cty.Type{
		"list(string)":       cty.List(cty.String),
		"map(number)":        cty.Map(cty.Number),
		"set(bool)":          cty.Set(cty.Bool),
		"list(list(string))": cty.List(cty.List(cty.String)),
	}
	for src, want := range cases {
		got, err := ParseString(src)
		require.NoError(t, err, "parsing %q", src)
		assert.True(t, want.Equals(got), "parsing %q: got %s", src, got.FriendlyName())
	}
}

func TestParseString_Object(t *testing.T) {
	got, err := ParseString(`object({ name = string, size = number })`)
	require.NoError(t, err)
	want := cty.Object(map[string]cty.Type{"name": cty.String, "size": cty.Number})
	assert.True(t, want.Equals(got))
}

func TestParseString_Errors(t *testing.T) {
	for _, src := range []string{
		"wibble",
		"list(any)",
		"list(string, number)",
		"object(string)",
		"tuple([string])",
	} {
		_, err := ParseString(src)
		assert.Error(t, err, "expected %q to be rejected", src)
	}
}
