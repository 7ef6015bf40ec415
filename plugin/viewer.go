package plugin

import (
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nasa-jpl/photron/ndarray"
)

// ErrNoFrame is returned by the viewer before it has seen a frame
var ErrNoFrame = errors.New("viewer: no frame yet")

// Viewer keeps a copy of the latest frame, taking at most MaxFPS frames per
// second from the publisher
type Viewer struct {
	mu     sync.Mutex
	limit  *rate.Limiter
	latest *ndarray.Array
}

// NewViewer returns a viewer.  maxFPS <= 0 keeps every frame.
func NewViewer(maxFPS float64) *Viewer {
	lim := rate.NewLimiter(rate.Inf, 1)
	if maxFPS > 0 {
		lim = rate.NewLimiter(rate.Limit(maxFPS), 1)
	}
	return &Viewer{limit: lim}
}

// Process implements ndarray.Plugin
func (v *Viewer) Process(a *ndarray.Array) error {
	if !v.limit.Allow() {
		return nil
	}
	cp := &ndarray.Array{
		Dims:       append([]int(nil), a.Dims...),
		DataType:   a.DataType,
		Data:       append([]byte(nil), a.Data...),
		UniqueID:   a.UniqueID,
		TimeStamp:  a.TimeStamp,
		Attributes: append([]ndarray.Attribute(nil), a.Attributes...),
	}
	v.mu.Lock()
	v.latest = cp
	v.mu.Unlock()
	return nil
}

// Latest returns the latest frame.  The array is not pooled and must not be
// modified.
func (v *Viewer) Latest() (*ndarray.Array, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.latest == nil {
		return nil, ErrNoFrame
	}
	return v.latest, nil
}

// ToImage converts a frame to a grayscale image.  16-bit data is shifted up
// by the unused bits so a 12-bit camera fills the display range.
func ToImage(a *ndarray.Array, bits int) image.Image {
	w, h := a.Width(), a.Height()
	rect := image.Rect(0, 0, w, h)
	if a.DataType == ndarray.UInt8 {
		img := image.NewGray(rect)
		copy(img.Pix, a.Data[:w*h])
		return img
	}
	shift := uint(0)
	if bits > 0 && bits < 16 {
		shift = uint(16 - bits)
	}
	img := image.NewGray16(rect)
	for i := 0; i < w*h; i++ {
		px := a.At(i) << shift
		img.Pix[2*i] = uint8(px >> 8)
		img.Pix[2*i+1] = uint8(px)
	}
	return img
}

// Encode writes the frame to w as "jpg" or "png"
func Encode(w io.Writer, a *ndarray.Array, bits int, format string) error {
	img := ToImage(a, bits)
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg", "":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	}
	return errors.New("viewer: unknown image format " + format)
}
