package ndarray

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocRecycles(t *testing.T) {
	p := NewPool(2, 0)
	a, err := p.Alloc([]int{4, 2}, UInt16)
	require.NoError(t, err)
	assert.Len(t, a.Data, 16)
	b, err := p.Alloc([]int{4, 2}, UInt16)
	require.NoError(t, err)

	_, err = p.Alloc([]int{4, 2}, UInt16)
	assert.True(t, errors.Is(err, ErrPoolExhausted), "third buffer exceeds MaxBuffers")

	a.Release()
	c, err := p.Alloc([]int{2, 2}, UInt8)
	require.NoError(t, err, "released buffer is reused")
	assert.Len(t, c.Data, 4)
	buffers, free, _ := p.Stats()
	assert.Equal(t, 2, buffers)
	assert.Equal(t, 0, free)
	b.Release()
	c.Release()
}

func TestAllocMemoryLimit(t *testing.T) {
	p := NewPool(0, 100)
	a, err := p.Alloc([]int{10, 5}, UInt8)
	require.NoError(t, err)
	a.Release()
	// the free 50 byte buffer is too small; it is dropped to make room
	b, err := p.Alloc([]int{10, 10}, UInt8)
	require.NoError(t, err)
	_, _, mem := p.Stats()
	assert.Equal(t, 100, mem)
	_, err = p.Alloc([]int{1, 1}, UInt8)
	assert.True(t, errors.Is(err, ErrPoolExhausted))
	b.Release()
}

func TestAllocBadDims(t *testing.T) {
	_, err := NewPool(0, 0).Alloc([]int{0, 3}, UInt8)
	assert.Error(t, err)
}

func TestElementAccess(t *testing.T) {
	a := &Array{Dims: []int{2, 1}, DataType: UInt16, Data: []byte{0x34, 0x12, 0xff, 0x0f}}
	assert.Equal(t, []uint16{0x1234, 0x0fff}, a.Uint16())
	assert.Equal(t, 2, a.Width())
	assert.Equal(t, 1, a.Height())
}

func TestChecksum(t *testing.T) {
	a := &Array{Data: []byte("123456789")}
	// the CRC-32 check value
	assert.Equal(t, uint32(0xCBF43926), a.Checksum())
}

func TestAttributes(t *testing.T) {
	a := &Array{}
	a.SetAttribute("IRIG", "irig time", 1)
	a.SetAttribute("IRIG", "irig time", 2)
	assert.Len(t, a.Attributes, 1)
	attr, ok := a.Attribute("IRIG")
	require.True(t, ok)
	assert.Equal(t, 2, attr.Value)
}

func TestPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewPublisher(log.New(&buf, "", 0))
	var order []string
	pub.Attach("a", PluginFunc(func(*Array) error { order = append(order, "a"); return nil }))
	pub.Attach("b", PluginFunc(func(*Array) error { order = append(order, "b"); return errors.New("disk full") }))
	pub.Attach("c", PluginFunc(func(*Array) error { order = append(order, "c"); return nil }))
	pub.Detach("c")

	p := NewPool(1, 0)
	a, err := p.Alloc([]int{1, 1}, UInt8)
	require.NoError(t, err)
	pub.Publish(a)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.True(t, strings.Contains(buf.String(), "disk full"))

	_, free, _ := p.Stats()
	assert.Equal(t, 0, free, "publisher does not drop the caller's reference")
	a.Release()
	_, free, _ = p.Stats()
	assert.Equal(t, 1, free)
}
