// Package zmqpub publishes frames on a ZeroMQ PUB socket.
//
// Each frame is a two part message.  The first part is a JSON header, the
// second is the raw pixel buffer, little endian.  Load the data in python
// with np.frombuffer(buf, dtype=header["dtype"]).reshape(header["dims"][::-1]).
package zmqpub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/nasa-jpl/photron/ndarray"
)

// Header describes the data part of a message
type Header struct {
	UniqueID   int                    `json:"uniqueID"`
	Dims       []int                  `json:"dims"`
	DType      string                 `json:"dtype"`
	TimeStamp  time.Time              `json:"timestamp"`
	Checksum   uint32                 `json:"crc32"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// dtypes are numpy names of the data types
var dtypes = map[ndarray.DataType]string{
	ndarray.UInt8:  "<u1",
	ndarray.UInt16: "<u2",
}

// NewHeader returns the header describing a frame
func NewHeader(a *ndarray.Array) Header {
	h := Header{
		UniqueID:  a.UniqueID,
		Dims:      append([]int(nil), a.Dims...),
		DType:     dtypes[a.DataType],
		TimeStamp: a.TimeStamp,
		Checksum:  a.Checksum(),
	}
	if len(a.Attributes) > 0 {
		h.Attributes = make(map[string]interface{}, len(a.Attributes))
		for _, attr := range a.Attributes {
			h.Attributes[attr.Name] = attr.Value
		}
	}
	return h
}

// Publisher sends frames to subscribers
type Publisher struct {
	mu     sync.Mutex
	ctx    *zmq4.Context
	socket *zmq4.Socket
	Topic  string
}

// New binds a PUB socket to endpoint, e.g. tcp://*:8001
func New(endpoint string) (*Publisher, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, err
	}
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		ctx.Term()
		return nil, err
	}
	// frames queued for slow subscribers are dropped at Close
	if err = socket.SetLinger(0); err != nil {
		socket.Close()
		ctx.Term()
		return nil, err
	}
	err = socket.Bind(endpoint)
	if err != nil {
		socket.Close()
		ctx.Term()
		return nil, fmt.Errorf("zmqpub: could not bind %s: %w", endpoint, err)
	}
	return &Publisher{ctx: ctx, socket: socket}, nil
}

// Process implements ndarray.Plugin
func (p *Publisher) Process(a *ndarray.Array) error {
	hdr, err := json.Marshal(NewHeader(a))
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return nil
	}
	if p.Topic != "" {
		if _, err = p.socket.Send(p.Topic, zmq4.SNDMORE); err != nil {
			return err
		}
	}
	if _, err = p.socket.SendBytes(hdr, zmq4.SNDMORE); err != nil {
		return err
	}
	_, err = p.socket.SendBytes(a.Data, 0)
	return err
}

// Close closes the socket and its context
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return nil
	}
	err := p.socket.Close()
	p.socket = nil
	if err2 := p.ctx.Term(); err == nil {
		err = err2
	}
	return err
}
