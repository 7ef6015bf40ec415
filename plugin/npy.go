package plugin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nasa-jpl/photron/imgrec"
	"github.com/nasa-jpl/photron/ndarray"
)

// npyUnits is the alignment of the magic, length and header dict together
const npyUnits = 64

// npyMagic is the magic string and version 1.0 of the format
var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0}

// WriteNPY writes a frame as a height x width array of its own dtype.
// The pixel data is already little endian, so it follows the header as is.
func WriteNPY(w io.Writer, a *ndarray.Array) error {
	descr, ok := dtypes[a.DataType]
	if !ok {
		return fmt.Errorf("no npy dtype for data type %d", a.DataType)
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }",
		descr, a.Height(), a.Width())

	// pad with spaces and one newline to a multiple of npyUnits
	pre := len(npyMagic) + 2
	total := (pre + len(dict) + 1 + npyUnits - 1) / npyUnits * npyUnits
	hdr := make([]byte, 0, total)
	hdr = append(hdr, npyMagic...)
	hdr = binary.LittleEndian.AppendUint16(hdr, uint16(total-pre))
	hdr = append(hdr, dict...)
	hdr = append(hdr, bytes.Repeat([]byte{' '}, total-len(hdr)-1)...)
	hdr = append(hdr, '\n')
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	n := a.NumElements() * a.DataType.Size()
	_, err := w.Write(a.Data[:n])
	return err
}

// dtypes are the numpy names of the data types
var dtypes = map[ndarray.DataType]string{
	ndarray.UInt8:  "|u1",
	ndarray.UInt16: "<u2",
}

// NPYWriter writes each frame to its own .npy file while its recorder is
// enabled
type NPYWriter struct {
	Rec *imgrec.Recorder
}

// NewNPYWriter returns an NPY writer saving under root
func NewNPYWriter(root, prefix string) *NPYWriter {
	return &NPYWriter{Rec: &imgrec.Recorder{Root: root, Prefix: prefix, Ext: ".npy"}}
}

// Process implements ndarray.Plugin
func (n *NPYWriter) Process(a *ndarray.Array) error {
	if !n.Rec.Active() {
		return nil
	}
	// the recorder appends on every Write, so the file goes out in one piece
	buf := &bytes.Buffer{}
	if err := WriteNPY(buf, a); err != nil {
		return fmt.Errorf("npy writer: %w", err)
	}
	n.Rec.Incr()
	if _, err := n.Rec.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("npy writer: %w", err)
	}
	return nil
}
