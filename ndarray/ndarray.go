// Package ndarray contains frame buffers, a bounded pool to allocate them
// from, and a publisher which hands each frame to a list of plugins.
package ndarray

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snksoft/crc"
)

// ErrPoolExhausted is returned by Alloc when the buffer or memory limit is reached
var ErrPoolExhausted = errors.New("ndarray: pool exhausted")

// crcTable is the table used for frame checksums
var crcTable = crc.NewTable(crc.CRC32)

// DataType is the element type of an array
type DataType int

const (
	// UInt8 is one byte per pixel
	UInt8 DataType = iota

	// UInt16 is two bytes per pixel, little endian
	UInt16
)

// Size is the number of bytes per element
func (d DataType) Size() int {
	if d == UInt8 {
		return 1
	}
	return 2
}

func (d DataType) String() string {
	switch d {
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// Attribute is a named value attached to an array, e.g. an IRIG timestamp
type Attribute struct {
	Name        string
	Description string
	Value       interface{}
}

// Array is a frame.  Dims is (width, height) for a 2D image.
type Array struct {
	Dims       []int
	DataType   DataType
	Data       []byte
	UniqueID   int
	TimeStamp  time.Time
	Attributes []Attribute

	pool *Pool
	refs int32
}

// Width is the size of the first dimension
func (a *Array) Width() int {
	if len(a.Dims) == 0 {
		return 0
	}
	return a.Dims[0]
}

// Height is the size of the second dimension, 1 for a 1D array
func (a *Array) Height() int {
	if len(a.Dims) < 2 {
		return 1
	}
	return a.Dims[1]
}

// NumElements is the product of the dimensions
func (a *Array) NumElements() int {
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

// At returns element i as a uint16
func (a *Array) At(i int) uint16 {
	if a.DataType == UInt8 {
		return uint16(a.Data[i])
	}
	return binary.LittleEndian.Uint16(a.Data[2*i:])
}

// Uint16 returns a copy of the data widened to uint16
func (a *Array) Uint16() []uint16 {
	n := a.NumElements()
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = a.At(i)
	}
	return out
}

// Float64 returns a copy of the data as float64
func (a *Array) Float64() []float64 {
	n := a.NumElements()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(a.At(i))
	}
	return out
}

// SetAttribute adds or replaces an attribute
func (a *Array) SetAttribute(name, description string, value interface{}) {
	for i := range a.Attributes {
		if a.Attributes[i].Name == name {
			a.Attributes[i].Description = description
			a.Attributes[i].Value = value
			return
		}
	}
	a.Attributes = append(a.Attributes, Attribute{Name: name, Description: description, Value: value})
}

// Attribute looks up an attribute by name
func (a *Array) Attribute(name string) (Attribute, bool) {
	for _, attr := range a.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Checksum is the CRC-32 of the pixel data
func (a *Array) Checksum() uint32 {
	return crcTable.CRC32(crcTable.UpdateCrc(crcTable.InitCrc(), a.Data))
}

// Reserve adds a reference.  Each Reserve must be paired with a Release.
func (a *Array) Reserve() {
	atomic.AddInt32(&a.refs, 1)
}

// Release drops a reference; the buffer returns to its pool at zero
func (a *Array) Release() {
	if atomic.AddInt32(&a.refs, -1) == 0 && a.pool != nil {
		a.pool.put(a.Data)
		a.Data = nil
	}
}

// Pool hands out arrays and recycles their buffers.  Zero limits mean
// unbounded.  It is safe for concurrent use.
type Pool struct {
	mu sync.Mutex

	// MaxBuffers is the maximum number of buffers ever live at once
	MaxBuffers int

	// MaxMemory is the maximum number of bytes held by the pool
	MaxMemory int

	free    [][]byte
	buffers int
	memory  int
}

// NewPool returns a pool with the given limits
func NewPool(maxBuffers, maxMemory int) *Pool {
	return &Pool{MaxBuffers: maxBuffers, MaxMemory: maxMemory}
}

// Alloc returns an array with one reference, backed by a buffer large enough
// for dims of type dt
func (p *Pool) Alloc(dims []int, dt DataType) (*Array, error) {
	n := dt.Size()
	for _, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("ndarray: invalid dimensions %v", dims)
		}
		n *= d
	}
	buf, err := p.get(n)
	if err != nil {
		return nil, err
	}
	return &Array{
		Dims:     append([]int(nil), dims...),
		DataType: dt,
		Data:     buf[:n],
		pool:     p,
		refs:     1,
	}, nil
}

func (p *Pool) get(n int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range p.free {
		if cap(b) >= n {
			p.free = append(p.free[:i], p.free[i+1:]...)
			return b, nil
		}
	}
	// no free buffer is large enough; drop the small ones before allocating
	for len(p.free) > 0 && p.full(n) {
		p.memory -= cap(p.free[0])
		p.buffers--
		p.free = p.free[1:]
	}
	if p.full(n) {
		return nil, fmt.Errorf("%w: %d buffers, %d bytes in use", ErrPoolExhausted, p.buffers, p.memory)
	}
	p.buffers++
	p.memory += n
	return make([]byte, n), nil
}

// full reports if allocating n more bytes would break a limit.  Must hold the lock.
func (p *Pool) full(n int) bool {
	if p.MaxBuffers > 0 && p.buffers >= p.MaxBuffers {
		return true
	}
	return p.MaxMemory > 0 && p.memory+n > p.MaxMemory
}

func (p *Pool) put(b []byte) {
	if b == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, b[:cap(b)])
}

// Stats returns the number of buffers, how many are free, and the bytes held
func (p *Pool) Stats() (buffers, free, memory int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers, len(p.free), p.memory
}
