package photron

import (
	"fmt"
	"math"
	"sort"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/pdc"
)

// resolution is the current geometry and the geometries valid at the current rate
type resolution struct {
	width, height uint32

	// list is the packed resolution list from the camera
	list []uint32

	// validWidths is every width in list, ascending
	validWidths []uint32

	// validHeights is every height paired with width in list, ascending
	validHeights []uint32
}

// updateResolution reads the current resolution and its list.  Must hold the lock.
func (c *Camera) updateResolution() error {
	w, h, err := c.sdk.Resolution(c.devNo, c.childNo)
	if err != nil {
		return c.fail("get resolution", err)
	}
	list, err := c.sdk.ResolutionList(c.devNo, c.childNo)
	if err != nil {
		return c.fail("get resolution list", err)
	}
	c.res = resolution{width: w, height: h, list: list}
	c.res.validWidths, c.res.validHeights = parseResolutionList(list, w)
	return nil
}

// parseResolutionList returns the unique widths in list and the heights
// available at width, both ascending
func parseResolutionList(list []uint32, width uint32) (widths, heights []uint32) {
	seen := map[uint32]bool{}
	for _, r := range list {
		w, h := pdc.UnpackResolution(r)
		if !seen[w] {
			seen[w] = true
			widths = append(widths, w)
		}
		if w == width {
			heights = append(heights, h)
		}
	}
	sort.Slice(widths, func(i, j int) bool { return widths[i] < widths[j] })
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return widths, heights
}

// heightsAt returns the heights paired with width in list, ascending
func heightsAt(list []uint32, width uint32) []uint32 {
	_, h := parseResolutionList(list, width)
	return h
}

// contains returns true if v is in list
func contains(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// stepTowards picks a value from the ascending list in the direction of the
// change from cur to req.  Asking for more gives the smallest value at or
// above req, or the largest if none is.  Asking for less gives the largest
// value at or below req, or the smallest if none is.
func stepTowards(list []uint32, req, cur uint32) (uint32, error) {
	if len(list) == 0 {
		return 0, fmt.Errorf("%w: no valid values", ErrInvalidValue)
	}
	if contains(list, req) {
		return req, nil
	}
	if req > cur {
		for _, v := range list {
			if v >= req {
				return v, nil
			}
		}
		return list[len(list)-1], nil
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] <= req {
			return list[i], nil
		}
	}
	return list[0], nil
}

// nearest picks the value from list closest to req.  Ties go to the larger value.
func nearest(list []uint32, req float64) (uint32, error) {
	if len(list) == 0 {
		return 0, fmt.Errorf("%w: no valid values", ErrInvalidValue)
	}
	best := list[0]
	bestDist := math.Inf(1)
	for _, v := range list {
		d := math.Abs(float64(v) - req)
		if d < bestDist || (d == bestDist && v > best) {
			best, bestDist = v, d
		}
	}
	return best, nil
}

// setValidWidth resolves a requested width and sets the geometry.  The
// height is kept if it is valid at the new width.  Must hold the lock.
func (c *Camera) setValidWidth(req int32) error {
	if req <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidValue, req)
	}
	w, err := stepTowards(c.res.validWidths, uint32(req), c.res.width)
	if err != nil {
		return err
	}
	heights := heightsAt(c.res.list, w)
	h := c.res.height
	if !contains(heights, h) {
		if h, err = stepTowards(heights, h, h); err != nil {
			return err
		}
	}
	return c.setGeometry(w, h)
}

// setValidHeight resolves a requested height at the current width and sets
// the geometry.  Must hold the lock.
func (c *Camera) setValidHeight(req int32) error {
	if req <= 0 {
		return fmt.Errorf("%w: height %d", ErrInvalidValue, req)
	}
	h, err := stepTowards(c.res.validHeights, uint32(req), c.res.height)
	if err != nil {
		return err
	}
	return c.setGeometry(c.res.width, h)
}

// setGeometry sends a resolution to the camera and refreshes what depends
// on it.  Must hold the lock.
func (c *Camera) setGeometry(w, h uint32) error {
	if err := c.sdk.SetResolution(c.devNo, c.childNo, w, h); err != nil {
		return c.fail(fmt.Sprintf("set resolution %dx%d", w, h), err)
	}
	if err := c.updateResolution(); err != nil {
		return err
	}
	if err := c.readParameters(); err != nil {
		return err
	}
	c.getGeometry()
	return nil
}

// getGeometry mirrors the cached geometry into the size parameters.  Must hold the lock.
func (c *Camera) getGeometry() {
	w, h := int32(c.res.width), int32(c.res.height)
	c.params.SetInt(ParamSizeX, w)
	c.params.SetInt(ParamSizeY, h)
	c.params.SetInt(ParamMinX, 0)
	c.params.SetInt(ParamMinY, 0)
	c.params.SetInt(ParamArraySizeX, w)
	c.params.SetInt(ParamArraySizeY, h)
	c.params.SetInt(ParamArraySize, w*h*int32(c.dataType().Size()))
}

// dataType is the type of transferred pixels.  Must hold the lock.
func (c *Camera) dataType() ndarray.DataType {
	if c.bitSel == pdc.BitSel16 {
		return ndarray.UInt16
	}
	return ndarray.UInt8
}

// transferDepth is the bit depth passed to the image calls.  Must hold the lock.
func (c *Camera) transferDepth() uint32 {
	if c.bitSel == pdc.BitSel16 {
		return 16
	}
	return 8
}
