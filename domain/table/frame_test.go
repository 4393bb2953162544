package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueCoercion(t *testing.T) {
	n, ok := Numeric(3.5).AsNumeric()
	require.True(t, ok)
	assert.Equal(t, 3.5, n)

	n, ok = String(" 42 ").AsNumeric()
	require.True(t, ok)
	assert.Equal(t, 42.0, n)

	_, ok = String("abc").AsNumeric()
	assert.False(t, ok)

	n, ok = Boolean(true).AsNumeric()
	require.True(t, ok)
	assert.Equal(t, 1.0, n)

	v, ok := Missing().AsNumeric()
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestValueLabel(t *testing.T) {
	assert.Equal(t, "3", Numeric(3).Label())
	assert.Equal(t, "3.5", Numeric(3.5).Label())
	assert.Equal(t, "Black", String("Black").Label())
	assert.Equal(t, "true", Boolean(true).Label())
}

func TestParse(t *testing.T) {
	assert.Equal(t, TypeNumeric, Parse("1.25").Type)
	assert.Equal(t, TypeString, Parse("hello").Type)
	assert.True(t, Parse("  ").IsMissing())
	assert.True(t, String("").IsMissing())
}

func TestFrameAppendAndSelect(t *testing.T) {
	f, err := NewFrame([]string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, f.AppendRow([]Value{Numeric(1), String("x")}))
	require.NoError(t, f.AppendRow([]Value{Numeric(2), String("y")}))
	require.NoError(t, f.AppendRow([]Value{Numeric(3), String("z")}))
	assert.Equal(t, 3, f.Len())

	err = f.AppendRow([]Value{Numeric(1)})
	assert.Error(t, err)

	sub := f.Select([]int{0, 2})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, "z", sub.Value("b", 1).Label())

	_, err = f.Column("nope")
	assert.Error(t, err)
}

func TestFrameDuplicateColumn(t *testing.T) {
	_, err := NewFrame([]string{"a", "a"})
	assert.Error(t, err)
}

func TestFrameWithColumn(t *testing.T) {
	f, err := NewFrame([]string{"a"})
	require.NoError(t, err)
	require.NoError(t, f.AppendRow([]Value{Numeric(1)}))

	out, err := f.WithColumn("b", []Value{String("x")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Columns())
	assert.Equal(t, "x", out.Value("b", 0).Label())

	_, err = f.WithColumn("a", []Value{String("x")})
	assert.Error(t, err)

	_, err = f.WithColumn("c", []Value{String("x"), String("y")})
	assert.Error(t, err)
}
