package photron

import (
	"fmt"
	"time"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/pdc"
)

// settings are the values readParameters refreshes from the camera
type settings struct {
	status          pdc.Status
	maxFrames       uint32
	blocks          uint32
	rate            uint32
	rateList        []uint32
	shutter         uint32
	shutterList     []uint32
	trigger         pdc.TriggerSettings
	triggerModeList []uint32
	irig            uint32
	syncPriority    uint32
	extIn           [pdc.ExtIOMaxPort]uint32
	extOut          [pdc.ExtIOMaxPort]uint32
	bitDepth        uint32
	varChannel      uint32
}

// readParameters refreshes the settings cache and mirrors it into the
// parameters.  Nothing is mirrored unless every read succeeds.  Must hold the lock.
func (c *Camera) readParameters() error {
	var (
		s   settings
		err error
		dev = c.devNo
		ch  = c.childNo
	)
	if s.status, err = c.sdk.Status(dev); err != nil {
		return c.fail("get status", err)
	}
	if s.maxFrames, s.blocks, err = c.sdk.MaxFrames(dev, ch); err != nil {
		return c.fail("get max frames", err)
	}
	if s.rate, err = c.sdk.RecordRate(dev, ch); err != nil {
		return c.fail("get record rate", err)
	}
	if s.rateList, err = c.sdk.RecordRateList(dev, ch); err != nil {
		return c.fail("get record rate list", err)
	}
	if c.info.functions[pdc.FunctionShutterFps] {
		if s.shutter, err = c.sdk.ShutterSpeedFps(dev, ch); err != nil {
			return c.fail("get shutter speed", err)
		}
		if s.shutterList, err = c.sdk.ShutterSpeedFpsList(dev, ch); err != nil {
			return c.fail("get shutter speed list", err)
		}
	}
	if s.trigger, err = c.sdk.TriggerMode(dev); err != nil {
		return c.fail("get trigger mode", err)
	}
	if s.triggerModeList, err = c.sdk.TriggerModeList(dev); err != nil {
		return c.fail("get trigger mode list", err)
	}
	if c.info.functions[pdc.FunctionIRIG] {
		if s.irig, err = c.sdk.IRIG(dev); err != nil {
			return c.fail("get IRIG", err)
		}
	}
	if c.info.functions[pdc.FunctionSyncPriority] {
		if s.syncPriority, err = c.sdk.SyncPriority(dev); err != nil {
			return c.fail("get sync priority", err)
		}
	}
	for port := uint32(1); port <= c.info.inPorts; port++ {
		if s.extIn[port-1], err = c.sdk.ExternalInMode(dev, port); err != nil {
			return c.fail(fmt.Sprintf("get external in mode of port %d", port), err)
		}
	}
	for port := uint32(1); port <= c.info.outPorts; port++ {
		if s.extOut[port-1], err = c.sdk.ExternalOutMode(dev, port); err != nil {
			return c.fail(fmt.Sprintf("get external out mode of port %d", port), err)
		}
	}
	if s.bitDepth, err = c.sdk.BitDepth(dev, ch); err != nil {
		return c.fail("get bit depth", err)
	}
	if c.info.functions[pdc.FunctionVariable] {
		if s.varChannel, err = c.sdk.VariableChannel(dev, ch); err != nil {
			return c.fail("get variable channel", err)
		}
	}
	c.set = s

	p := c.params
	p.SetInt(ParamPhotronStatus, int32(s.status))
	p.SetInt(ParamMaxFrames, int32(s.maxFrames))
	p.SetInt(ParamRecordRate, int32(s.rate))
	exposure := s.shutter
	if exposure == 0 {
		exposure = s.rate
	}
	if exposure != 0 {
		p.SetFloat(ParamAcquireTime, 1/float64(exposure))
	}
	p.SetInt(ParamTriggerMode, int32(trigModeToEPICS(s.trigger.Mode)))
	p.SetInt(ParamAfterFrames, int32(s.trigger.AFrames))
	p.SetInt(ParamRandomFrames, int32(s.trigger.RFrames))
	p.SetInt(ParamRecCount, int32(s.trigger.RCount))
	p.SetInt(ParamIRIG, int32(s.irig))
	p.SetInt(ParamSyncPriority, int32(s.syncPriority))
	for port := 1; port <= pdc.ExtIOMaxPort; port++ {
		p.SetInt(ExtInParam(port), int32(s.extIn[port-1]))
		p.SetInt(ExtOutParam(port), int32(s.extOut[port-1]))
	}
	p.SetInt(ParamPixelBits, int32(s.bitDepth))
	p.SetInt(ParamVarChannel, int32(s.varChannel))
	p.SetInt(Param8BitSel, int32(c.bitSel))
	p.SetInt(ParamDataType, int32(c.dataType()))
	return nil
}

// setRecordRate sets the record rate nearest to req.  The resolution list
// depends on the rate, so the geometry is refreshed.  Must hold the lock.
func (c *Camera) setRecordRate(req int32) error {
	rate, err := nearest(c.set.rateList, float64(req))
	if err != nil {
		return err
	}
	if err := c.sdk.SetRecordRate(c.devNo, c.childNo, rate); err != nil {
		return c.fail(fmt.Sprintf("set record rate %d", rate), err)
	}
	if err := c.updateResolution(); err != nil {
		return err
	}
	if err := c.readParameters(); err != nil {
		return err
	}
	c.getGeometry()
	return c.createDynamicEnums()
}

// setShutterFps sets the shutter speed nearest 1/exposure.  Must hold the lock.
func (c *Camera) setShutterFps(exposure float64) error {
	if !c.info.functions[pdc.FunctionShutterFps] {
		return ErrNotSupported
	}
	if exposure <= 0 {
		return fmt.Errorf("%w: exposure %g", ErrInvalidValue, exposure)
	}
	fps, err := nearest(c.set.shutterList, 1/exposure)
	if err != nil {
		return err
	}
	if err := c.sdk.SetShutterSpeedFps(c.devNo, c.childNo, fps); err != nil {
		return c.fail(fmt.Sprintf("set shutter speed 1/%d", fps), err)
	}
	return c.readParameters()
}

// setStatus moves the camera to live (0) or playback (1).  Must hold the lock.
func (c *Camera) setStatus(v int32) error {
	var st pdc.Status
	switch v {
	case 0:
		st = pdc.StatusLive
	case 1:
		st = pdc.StatusPlayback
	default:
		return fmt.Errorf("%w: status %d", ErrInvalidValue, v)
	}
	return c.changeStatus(st)
}

// changeStatus sends a status to the camera.  Must hold the lock.
func (c *Camera) changeStatus(st pdc.Status) error {
	if err := c.sdk.SetStatus(c.devNo, st); err != nil {
		return c.fail("set status "+st.String(), err)
	}
	return c.readParameters()
}

// setTransferOption selects 16 bit or one of the 8 bit transfers.  Must hold the lock.
func (c *Camera) setTransferOption(bitSel int32) error {
	if bitSel < 0 || uint32(bitSel) > pdc.BitSelLower8 {
		return fmt.Errorf("%w: 8 bit select %d", ErrInvalidValue, bitSel)
	}
	if !c.info.functions[pdc.FunctionTransferOpt] && uint32(bitSel) != pdc.BitSel16 {
		return ErrNotSupported
	}
	if c.info.functions[pdc.FunctionTransferOpt] {
		if err := c.sdk.SetTransferOption(c.devNo, c.childNo, uint32(bitSel)); err != nil {
			return c.fail(fmt.Sprintf("set transfer option %d", bitSel), err)
		}
	}
	prev := c.bitSel
	c.bitSel = uint32(bitSel)
	if err := c.readParameters(); err != nil {
		c.bitSel = prev
		if c.info.functions[pdc.FunctionTransferOpt] {
			if err2 := c.sdk.SetTransferOption(c.devNo, c.childNo, prev); err2 != nil {
				c.msg.Printf("could not restore transfer option %d: %v", prev, err2)
			}
		}
		return err
	}
	c.getGeometry()
	return nil
}

// setPixelFormat maps a data type onto the transfer option.  Must hold the lock.
func (c *Camera) setPixelFormat(dt int32) error {
	switch ndarray.DataType(dt) {
	case ndarray.UInt8:
		if c.bitSel != pdc.BitSel16 {
			return nil
		}
		return c.setTransferOption(int32(pdc.BitSelUpper8))
	case ndarray.UInt16:
		return c.setTransferOption(int32(pdc.BitSel16))
	}
	return fmt.Errorf("%w: data type %d", ErrInvalidValue, dt)
}

// setIRIG turns IRIG timestamping on or off.  The time around the call that
// turns it on is kept to resolve the year of IRIG timestamps.  Must hold the lock.
func (c *Camera) setIRIG(v int32) error {
	if !c.info.functions[pdc.FunctionIRIG] {
		return ErrNotSupported
	}
	if v != 0 && v != 1 {
		return fmt.Errorf("%w: IRIG %d", ErrInvalidValue, v)
	}
	pre := time.Now()
	if err := c.sdk.SetIRIG(c.devNo, uint32(v)); err != nil {
		return c.fail("set IRIG", err)
	}
	if v == 1 {
		c.preIRIGStart = pre
		c.postIRIGStart = time.Now()
	}
	return c.readParameters()
}

// setSyncPriority sets master or slave.  Must hold the lock.
func (c *Camera) setSyncPriority(v int32) error {
	if !c.info.functions[pdc.FunctionSyncPriority] {
		return ErrNotSupported
	}
	if v < 0 || !contains(c.info.syncPriorityList, uint32(v)) {
		return fmt.Errorf("%w: sync priority %d", ErrInvalidValue, v)
	}
	if err := c.sdk.SetSyncPriority(c.devNo, uint32(v)); err != nil {
		return c.fail("set sync priority", err)
	}
	return c.readParameters()
}

// setExternalInMode sets the signal of input port (1-based).  Must hold the lock.
func (c *Camera) setExternalInMode(port int, v int32) error {
	if port < 1 || uint32(port) > c.info.inPorts {
		return fmt.Errorf("%w: camera has %d input ports", ErrNotSupported, c.info.inPorts)
	}
	if v < 0 || !contains(c.info.extInModeList[port-1], uint32(v)) {
		return fmt.Errorf("%w: input port %d signal %d", ErrInvalidValue, port, v)
	}
	if err := c.sdk.SetExternalInMode(c.devNo, uint32(port), uint32(v)); err != nil {
		return c.fail(fmt.Sprintf("set external in mode of port %d", port), err)
	}
	return c.readParameters()
}

// setExternalOutMode sets the signal of output port (1-based).  Must hold the lock.
func (c *Camera) setExternalOutMode(port int, v int32) error {
	if port < 1 || uint32(port) > c.info.outPorts {
		return fmt.Errorf("%w: camera has %d output ports", ErrNotSupported, c.info.outPorts)
	}
	if v < 0 || !contains(c.info.extOutModeList[port-1], uint32(v)) {
		return fmt.Errorf("%w: output port %d signal %d", ErrInvalidValue, port, v)
	}
	if err := c.sdk.SetExternalOutMode(c.devNo, uint32(port), uint32(v)); err != nil {
		return c.fail(fmt.Sprintf("set external out mode of port %d", port), err)
	}
	return c.readParameters()
}
