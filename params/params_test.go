package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndSet(t *testing.T) {
	tbl := New()
	i, err := tbl.Create("RATE", Int32)
	require.NoError(t, err)
	j, err := tbl.Create("RATE", Int32)
	require.NoError(t, err)
	assert.Equal(t, i, j, "creating twice returns the same index")

	_, err = tbl.Create("RATE", Float64)
	assert.True(t, errors.Is(err, ErrKind))

	require.NoError(t, tbl.SetInt("RATE", 1000))
	v, err := tbl.Int("RATE")
	require.NoError(t, err)
	assert.Equal(t, int32(1000), v)

	_, err = tbl.Float("RATE")
	assert.True(t, errors.Is(err, ErrKind))
	_, err = tbl.Int("NOPE")
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestStatusKeepsValue(t *testing.T) {
	tbl := New()
	tbl.Create("ACQ_TIME", Float64)
	tbl.SetFloat("ACQ_TIME", 0.001)
	require.NoError(t, tbl.SetStatus("ACQ_TIME", errors.New("vendor said no")))
	v, err := tbl.Get("ACQ_TIME")
	require.NoError(t, err)
	assert.Equal(t, 0.001, v.Float)
	assert.Equal(t, "vendor said no", v.Status)

	tbl.SetFloat("ACQ_TIME", 0.002)
	v, _ = tbl.Get("ACQ_TIME")
	assert.Empty(t, v.Status, "a successful write clears the status")
}

func TestSubscribeOnlyOnChange(t *testing.T) {
	tbl := New()
	tbl.Create("MODEL", String)
	var seen []string
	tbl.Subscribe(func(v Value) { seen = append(seen, v.Str) })
	tbl.SetString("MODEL", "SA-Z")
	tbl.SetString("MODEL", "SA-Z")
	tbl.SetString("MODEL", "Nova")
	assert.Equal(t, []string{"SA-Z", "Nova"}, seen)
}

func TestEnum(t *testing.T) {
	tbl := New()
	tbl.Create("TRIGGER_MODE", Int32)
	_, ok := tbl.Enum("TRIGGER_MODE")
	assert.False(t, ok)

	err := tbl.SetEnum("TRIGGER_MODE", []string{"Start", "End"}, []int32{0})
	assert.Error(t, err)

	require.NoError(t, tbl.SetEnum("TRIGGER_MODE", []string{"Start", "End"}, []int32{0, 2}))
	e, ok := tbl.Enum("TRIGGER_MODE")
	require.True(t, ok)
	assert.Equal(t, []int32{0, 2}, e.Values)
}

func TestListSorted(t *testing.T) {
	tbl := New()
	tbl.Create("b", Int32)
	tbl.Create("a", String)
	l := tbl.List()
	require.Len(t, l, 2)
	assert.Equal(t, "a", l[0].Name)
}
