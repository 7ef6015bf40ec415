package plugin

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/params"
)

// frame returns a w x h 16-bit array holding vals
func frame(t *testing.T, w, h int, vals ...uint16) *ndarray.Array {
	t.Helper()
	a, err := ndarray.NewPool(0, 0).Alloc([]int{w, h}, ndarray.UInt16)
	require.NoError(t, err)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(a.Data[2*i:], v)
	}
	a.UniqueID = 7
	a.TimeStamp = time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	return a
}

func TestCards(t *testing.T) {
	a := frame(t, 2, 2, 1, 2, 3, 4)
	a.SetAttribute("Frame", "frame number", int32(-3))
	a.SetAttribute("SessionID", "session", "abc")
	a.SetAttribute("Ignored", "not mapped", 1)
	cards := Cards(a)
	byName := map[string]interface{}{}
	for _, c := range cards {
		byName[c.Name] = c.Value
	}
	assert.Equal(t, 7, byName["FRAMEID"])
	assert.Equal(t, "2026-03-03T12:00:00Z", byName["DATE-OBS"])
	assert.Equal(t, int(a.Checksum()), byName["DATACRC"])
	assert.Equal(t, -3, byName["FRAMENO"])
	assert.Equal(t, "abc", byName["SESSION"])
	assert.Len(t, cards, 5)
}

func TestWriteFits(t *testing.T) {
	a := frame(t, 3, 2, 0, 1, 2, 3, 4, 5)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFits(buf, Cards(a), a))

	f, err := fitsio.Open(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	hdr := f.HDU(0).Header()
	assert.Equal(t, 16, hdr.Bitpix())
	assert.Equal(t, []int{3, 2}, hdr.Axes())
	require.NotNil(t, hdr.Get("BZERO"))
	assert.EqualValues(t, 32768, hdr.Get("BZERO").Value)
	require.NotNil(t, hdr.Get("FRAMEID"))
	assert.EqualValues(t, 7, hdr.Get("FRAMEID").Value)
}

func TestWriteFits8Bit(t *testing.T) {
	a, err := ndarray.NewPool(0, 0).Alloc([]int{2, 2}, ndarray.UInt8)
	require.NoError(t, err)
	copy(a.Data, []byte{1, 2, 3, 255})
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFits(buf, nil, a))

	f, err := fitsio.Open(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	hdr := f.HDU(0).Header()
	assert.Equal(t, 8, hdr.Bitpix())
	assert.Nil(t, hdr.Get("BZERO"))
}

func countFiles(t *testing.T, root, ext string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "*", "*"+ext))
	require.NoError(t, err)
	return len(matches)
}

func TestFITSWriter(t *testing.T) {
	root := t.TempDir()
	fw := NewFITSWriter(root, "cam")
	a := frame(t, 2, 2, 1, 2, 3, 4)

	require.NoError(t, fw.Process(a))
	assert.Equal(t, 0, countFiles(t, root, ".fits"), "disabled writer made a file")

	fw.Rec.SetEnabled(true)
	require.NoError(t, fw.Process(a))
	require.NoError(t, fw.Process(a))
	assert.Equal(t, 2, countFiles(t, root, ".fits"))
}

func TestNPYWriter(t *testing.T) {
	root := t.TempDir()
	nw := NewNPYWriter(root, "cam")
	nw.Rec.SetEnabled(true)
	a := frame(t, 3, 2, 0, 1, 2, 3, 4, 4095)
	require.NoError(t, nw.Process(a))

	matches, err := filepath.Glob(filepath.Join(root, "*", "*.npy"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	fid, err := os.Open(matches[0])
	require.NoError(t, err)
	defer fid.Close()
	r, err := npyio.NewReader(fid)
	require.NoError(t, err)
	assert.Equal(t, "<u2", r.Header.Descr.Type)
	assert.Equal(t, []int{2, 3}, r.Header.Descr.Shape)
	data := make([]uint16, 6)
	require.NoError(t, r.Read(&data))
	assert.Equal(t, []uint16{0, 1, 2, 3, 4, 4095}, data)

	fi, err := fid.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(128+6*2), fi.Size(), "integer pixels after the padded header")
}

func TestWriteNPY8Bit(t *testing.T) {
	a, err := ndarray.NewPool(0, 0).Alloc([]int{4, 1}, ndarray.UInt8)
	require.NoError(t, err)
	copy(a.Data, []byte{1, 2, 3, 255})
	buf := &bytes.Buffer{}
	require.NoError(t, WriteNPY(buf, a))
	out := buf.Bytes()
	require.Len(t, out, 128+4)
	assert.Equal(t, "\x93NUMPY", string(out[:6]))
	assert.Equal(t, uint16(128-10), binary.LittleEndian.Uint16(out[8:10]))
	assert.Contains(t, string(out[10:128]), "'descr': '|u1'")
	assert.Contains(t, string(out[10:128]), "'shape': (1, 4)")
	assert.Equal(t, byte('\n'), out[127])
	assert.Equal(t, []byte{1, 2, 3, 255}, out[128:])
}

func TestStats(t *testing.T) {
	tbl := params.New()
	s, err := NewStats(tbl)
	require.NoError(t, err)
	_, n := s.Last()
	assert.Equal(t, 0, n)

	require.NoError(t, s.Process(frame(t, 2, 2, 1, 2, 3, 4)))
	r, n := s.Last()
	assert.Equal(t, 1, n)
	assert.Equal(t, 7, r.UniqueID)
	assert.InDelta(t, 2.5, r.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), r.Sigma, 1e-12)
	assert.Equal(t, 1.0, r.Min)
	assert.Equal(t, 4.0, r.Max)

	mean, err := tbl.Float(ParamStatsMean)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, mean, 1e-12)
	id, err := tbl.Int(ParamStatsFrame)
	require.NoError(t, err)
	assert.Equal(t, int32(7), id)
}

func TestStatsWithoutTable(t *testing.T) {
	s, err := NewStats(nil)
	require.NoError(t, err)
	require.NoError(t, s.Process(frame(t, 2, 1, 9, 9)))
	r, _ := s.Last()
	assert.Equal(t, 9.0, r.Mean)
	assert.Equal(t, 0.0, r.Sigma)
}

func TestViewerCopiesFrame(t *testing.T) {
	v := NewViewer(0)
	_, err := v.Latest()
	assert.ErrorIs(t, err, ErrNoFrame)

	a := frame(t, 2, 1, 10, 20)
	require.NoError(t, v.Process(a))
	a.Release()

	got, err := v.Latest()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got.Dims)
	assert.Equal(t, uint16(20), got.At(1))
}

func TestViewerThrottles(t *testing.T) {
	v := NewViewer(0.001)
	first := frame(t, 1, 1, 1)
	second := frame(t, 1, 1, 2)
	second.UniqueID = 8
	require.NoError(t, v.Process(first))
	require.NoError(t, v.Process(second))
	got, err := v.Latest()
	require.NoError(t, err)
	assert.Equal(t, 7, got.UniqueID)
}

func TestEncodePNG(t *testing.T) {
	a := frame(t, 2, 1, 1, 4095)
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, a, 12, "png"))
	img, err := png.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(16), r)
	r, _, _, _ = img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xFFF0), r)

	assert.Error(t, Encode(buf, a, 12, "bmp"))
}
