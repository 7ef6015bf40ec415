package photron

import (
	"time"

	"github.com/nasa-jpl/photron/pdc"
)

// irigTime converts an IRIG timecode to a time.  IRIG carries no year, so
// it is taken from ref.  A day of year more than half a year from ref's
// belongs to the neighboring year.
func irigTime(info pdc.IRIGInfo, ref time.Time) time.Time {
	ref = ref.UTC()
	year := ref.Year()
	diff := int(info.DayOfYear) - ref.YearDay()
	switch {
	case diff > 183:
		year--
	case diff < -183:
		year++
	}
	t := time.Date(year, time.January, 1, int(info.Hour), int(info.Minute), int(info.Second),
		int(info.Microsecond)*int(time.Microsecond), time.UTC)
	return t.AddDate(0, 0, int(info.DayOfYear)-1)
}

// irigReference is the time used to resolve IRIG years: the middle of the
// call that turned IRIG on, or now if it was never turned on here.  Must
// hold the lock.
func (c *Camera) irigReference() time.Time {
	if c.preIRIGStart.IsZero() {
		return time.Now()
	}
	return c.preIRIGStart.Add(c.postIRIGStart.Sub(c.preIRIGStart) / 2)
}

// mirrorIRIG copies a frame's timecode into the MEM_IRIG parameters.  Must hold the lock.
func (c *Camera) mirrorIRIG(info pdc.IRIGInfo) {
	p := c.params
	p.SetInt(ParamMemIRIGDay, int32(info.DayOfYear))
	p.SetInt(ParamMemIRIGHour, int32(info.Hour))
	p.SetInt(ParamMemIRIGMin, int32(info.Minute))
	p.SetInt(ParamMemIRIGSec, int32(info.Second))
	p.SetInt(ParamMemIRIGUsec, int32(info.Microsecond))
	sigEx := int32(0)
	if info.SignalExists {
		sigEx = 1
	}
	p.SetInt(ParamMemIRIGSigEx, sigEx)
}
