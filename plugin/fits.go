// Package plugin contains the frame consumers attached to a camera's
// publisher: file writers, statistics, and a latest-frame viewer.
package plugin

import (
	"fmt"
	"io"
	"time"

	"github.com/astrogo/fitsio"

	"github.com/nasa-jpl/photron/imgrec"
	"github.com/nasa-jpl/photron/ndarray"
)

// attrKeys maps frame attributes to FITS keywords
var attrKeys = map[string]string{
	"Frame":        "FRAMENO",
	"TriggerFrame": "TRIGFRM",
	"RecordRate":   "RECRATE",
	"SessionID":    "SESSION",
	"IRIGTime":     "IRIGTIME",
}

// cardValue converts an attribute value to something fitsio can encode
func cardValue(v interface{}) interface{} {
	switch v := v.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case uint16:
		return int(v)
	case float32:
		return float64(v)
	case float64, string, bool:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Cards returns the header cards describing a frame: its ID, timestamp,
// checksum and attributes
func Cards(a *ndarray.Array) []fitsio.Card {
	cards := []fitsio.Card{
		{Name: "FRAMEID", Value: a.UniqueID, Comment: "unique ID of the frame"},
		{Name: "DATE-OBS", Value: a.TimeStamp.UTC().Format(time.RFC3339Nano), Comment: "time the frame was read"},
		{Name: "DATACRC", Value: int(a.Checksum()), Comment: "CRC-32 of the pixel data"},
	}
	for _, attr := range a.Attributes {
		key, ok := attrKeys[attr.Name]
		if !ok {
			continue
		}
		cards = append(cards, fitsio.Card{Name: key, Value: cardValue(attr.Value), Comment: attr.Description})
	}
	return cards
}

// WriteFits streams a single frame as a FITS file to w.  16-bit data is
// stored as signed with BZERO 32768; 8-bit data is stored as is.
func WriteFits(w io.Writer, metadata []fitsio.Card, a *ndarray.Array) error {
	width, height := a.Width(), a.Height()
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{width, height}
	n := width * height

	if a.DataType == ndarray.UInt8 {
		im := fitsio.NewImage(8, dims)
		defer im.Close()
		if err = im.Header().Append(metadata...); err != nil {
			return err
		}
		buf := make([]byte, n)
		copy(buf, a.Data[:n])
		if err = im.Write(buf); err != nil {
			return err
		}
		return fits.Write(im)
	}

	metadata = append(metadata, fitsio.Card{Name: "BZERO", Value: 32768}, fitsio.Card{Name: "BSCALE", Value: 1.0})
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err = im.Header().Append(metadata...); err != nil {
		return err
	}
	ints := make([]int16, n)
	for idx := 0; idx < n; idx++ {
		ints[idx] = int16(int32(a.At(idx)) - 32768)
	}
	if err = im.Write(ints); err != nil {
		return err
	}
	return fits.Write(im)
}

// FITSWriter writes each frame to its own FITS file while its recorder is
// enabled
type FITSWriter struct {
	Rec *imgrec.Recorder
}

// NewFITSWriter returns a FITS writer saving under root
func NewFITSWriter(root, prefix string) *FITSWriter {
	return &FITSWriter{Rec: &imgrec.Recorder{Root: root, Prefix: prefix, Ext: ".fits"}}
}

// Process implements ndarray.Plugin
func (f *FITSWriter) Process(a *ndarray.Array) error {
	if !f.Rec.Active() {
		return nil
	}
	f.Rec.Incr()
	if err := WriteFits(f.Rec, Cards(a), a); err != nil {
		return fmt.Errorf("fits writer: %w", err)
	}
	return nil
}
