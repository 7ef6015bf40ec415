package photron

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nasa-jpl/photron/params"
	"github.com/nasa-jpl/photron/pdc"
)

// deviceParams need a connected camera to be written
var deviceParams = map[string]bool{
	ParamAcquire: true, ParamSizeX: true, ParamSizeY: true, ParamDataType: true,
	ParamTriggerMode: true, ParamPhotronStatus: true, Param8BitSel: true,
	ParamRecordRate: true, ParamAfterFrames: true, ParamRandomFrames: true,
	ParamRecCount: true, ParamSoftTrig: true, ParamRecReady: true,
	ParamEndless: true, ParamLive: true, ParamPlayback: true, ParamReadMem: true,
	ParamIRIG: true, ParamSyncPriority: true, ParamPlaybackPlay: true,
	ParamVarChannel: true, ParamVarApply: true, ParamAcquireTime: true,
}

// lookupWritable checks a write of name as kind is allowed
func (c *Camera) lookupWritable(name string, kind params.Kind) error {
	k, err := c.params.KindOf(name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	if k != kind {
		return fmt.Errorf("%w: %s is %s", params.ErrKind, name, k)
	}
	if readOnly[name] {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if (deviceParams[name] || extPort(name) != 0) && !c.connected {
		return ErrNotConnected
	}
	return nil
}

// extPort returns the port of an external I/O parameter name, 0 if it is not one
func extPort(name string) int {
	var rest string
	switch {
	case strings.HasPrefix(name, "PHOTRON_EXT_IN_"):
		rest = strings.TrimPrefix(name, "PHOTRON_EXT_IN_")
	case strings.HasPrefix(name, "PHOTRON_EXT_OUT_"):
		rest = strings.TrimPrefix(name, "PHOTRON_EXT_OUT_")
	default:
		return 0
	}
	port, err := strconv.Atoi(strings.TrimSuffix(rest, "_SIG"))
	if err != nil {
		return 0
	}
	return port
}

// WriteInt32 writes an integer parameter.  Device backed parameters are
// validated and sent to the camera, and take the value the camera reports
// back.  A failed write leaves the value unchanged and records the error
// as the parameter status.
func (c *Camera) WriteInt32(name string, value int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lookupWritable(name, params.Int32); err != nil {
		c.msg.Printf("write %s=%d: %v", name, value, err)
		return err
	}
	if err := c.writeInt32(name, value); err != nil {
		c.params.SetStatus(name, err)
		c.msg.Printf("write %s=%d: %v", name, value, err)
		return err
	}
	return nil
}

// writeInt32 dispatches a write.  Must hold the lock.
func (c *Camera) writeInt32(name string, value int32) error {
	p := c.params
	switch name {
	case ParamAcquire:
		if value != 0 {
			return c.startAcquire()
		}
		return c.stopAcquire()
	case ParamSizeX:
		return c.setValidWidth(value)
	case ParamSizeY:
		return c.setValidHeight(value)
	case ParamDataType:
		return c.setPixelFormat(value)
	case ParamPhotronStatus:
		return c.setStatus(value)
	case Param8BitSel:
		return c.setTransferOption(value)
	case ParamRecordRate:
		return c.setRecordRate(value)
	case ParamTriggerMode:
		api, err := trigModeToAPI(int(value))
		if err != nil {
			return err
		}
		t := c.set.trigger
		t.Mode = api
		return c.setTriggerMode(t)
	case ParamAfterFrames, ParamRandomFrames, ParamRecCount:
		if value < 0 {
			return fmt.Errorf("%w: %s %d", ErrInvalidValue, name, value)
		}
		t := c.set.trigger
		switch name {
		case ParamAfterFrames:
			t.AFrames = uint32(value)
		case ParamRandomFrames:
			t.RFrames = uint32(value)
		default:
			t.RCount = uint32(value)
		}
		return c.setTriggerMode(t)
	case ParamSoftTrig:
		return c.button(name, value, c.softwareTrigger)
	case ParamRecReady:
		return c.button(name, value, func() error { return c.changeStatus(pdc.StatusRecReady) })
	case ParamEndless:
		return c.button(name, value, func() error { return c.changeStatus(pdc.StatusEndless) })
	case ParamLive:
		return c.button(name, value, func() error { return c.changeStatus(pdc.StatusLive) })
	case ParamPlayback:
		return c.button(name, value, func() error { return c.changeStatus(pdc.StatusPlayback) })
	case ParamReadMem:
		return c.button(name, value, c.readMem)
	case ParamIRIG:
		return c.setIRIG(value)
	case ParamSyncPriority:
		return c.setSyncPriority(value)
	case ParamPlaybackPlay:
		return c.setPlaybackPlay(value)
	case ParamPlaybackFirst, ParamPlaybackLast:
		if value < 0 {
			return fmt.Errorf("%w: %s %d", ErrInvalidValue, name, value)
		}
		return p.SetInt(name, value)
	case ParamVarChannel:
		return c.setVariableChannel(value)
	case ParamVarEditChannel:
		if err := c.loadVariableChannel(value); err != nil {
			return err
		}
		return p.SetInt(name, value)
	case ParamVarApply:
		return c.button(name, value, c.applyVariableChannel)
	case ParamAcquireMode:
		if value != AcquireModeLive && value != AcquireModeRecord {
			return fmt.Errorf("%w: acquire mode %d", ErrInvalidValue, value)
		}
		return p.SetInt(name, value)
	case ParamImageMode:
		if value < ImageModeSingle || value > ImageModeContinuous {
			return fmt.Errorf("%w: image mode %d", ErrInvalidValue, value)
		}
		return p.SetInt(name, value)
	case ParamNumImages:
		if value < 1 {
			return fmt.Errorf("%w: number of images %d", ErrInvalidValue, value)
		}
		return p.SetInt(name, value)
	}
	if port := extPort(name); port != 0 {
		if strings.HasPrefix(name, "PHOTRON_EXT_IN_") {
			return c.setExternalInMode(port, value)
		}
		return c.setExternalOutMode(port, value)
	}
	return p.SetInt(name, value)
}

// button runs fcn for a nonzero write to a command parameter, which then reads back 0
func (c *Camera) button(name string, value int32, fcn func() error) error {
	if value == 0 {
		return c.params.SetInt(name, 0)
	}
	c.params.SetInt(name, 1)
	err := fcn()
	c.params.SetInt(name, 0)
	return err
}

// WriteFloat64 writes a float parameter.  ACQ_TIME sets the shutter speed.
func (c *Camera) WriteFloat64(name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lookupWritable(name, params.Float64); err != nil {
		c.msg.Printf("write %s=%g: %v", name, value, err)
		return err
	}
	var err error
	switch name {
	case ParamAcquireTime:
		err = c.setShutterFps(value)
	case ParamAcquirePeriod:
		if value < 0 {
			err = fmt.Errorf("%w: acquire period %g", ErrInvalidValue, value)
		} else {
			err = c.params.SetFloat(name, value)
		}
	default:
		err = c.params.SetFloat(name, value)
	}
	if err != nil {
		c.params.SetStatus(name, err)
		c.msg.Printf("write %s=%g: %v", name, value, err)
	}
	return err
}

// WriteString writes a string parameter
func (c *Camera) WriteString(name string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lookupWritable(name, params.String); err != nil {
		return err
	}
	return c.params.SetString(name, value)
}

// ReadEnum returns the choices of an enum parameter
func (c *Camera) ReadEnum(name string) (params.Enum, error) {
	if !c.params.Has(name) {
		return params.Enum{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	e, ok := c.params.Enum(name)
	if !ok {
		return params.Enum{}, fmt.Errorf("%w: %s is not an enum", ErrInvalidValue, name)
	}
	return e, nil
}

// startAcquire starts live streaming or arms a recording, depending on
// the acquire mode.  Must hold the lock.
func (c *Camera) startAcquire() error {
	mode, _ := c.params.Int(ParamAcquireMode)
	drain(c.stopLive)
	drain(c.stopRec)
	c.abort.Store(false)
	if mode == AcquireModeRecord {
		if err := c.changeStatus(pdc.StatusRecReady); err != nil {
			return err
		}
		if needsEndless(c.set.trigger.Mode) {
			if err := c.changeStatus(pdc.StatusEndless); err != nil {
				return err
			}
		}
		c.params.SetInt(ParamAcquire, 1)
		c.params.SetInt(ParamStatus, StatusWaiting)
		c.params.SetString(ParamStatusMessage, "Waiting for trigger")
		signal(c.startRec)
		return nil
	}
	if c.set.status != pdc.StatusLive {
		if err := c.changeStatus(pdc.StatusLive); err != nil {
			return err
		}
	}
	c.params.SetInt(ParamNumImagesCounter, 0)
	c.params.SetInt(ParamAcquire, 1)
	c.params.SetInt(ParamStatus, StatusAcquire)
	c.params.SetString(ParamStatusMessage, "Acquiring")
	signal(c.startLive)
	return nil
}

// stopAcquire stops streaming or an armed recording.  Must hold the lock.
func (c *Camera) stopAcquire() error {
	c.abortAcquisition()
	var err error
	if c.set.status.Recording() {
		err = c.changeStatus(pdc.StatusLive)
	}
	c.params.SetInt(ParamAcquire, 0)
	c.params.SetInt(ParamStatus, StatusIdle)
	c.params.SetString(ParamStatusMessage, "Stopped")
	return err
}

// abortAcquisition tells every worker to stop
func (c *Camera) abortAcquisition() {
	c.abort.Store(true)
	signal(c.stopLive)
	signal(c.stopRec)
	signal(c.stopPB)
}

// setPlaybackPlay starts (1) or stops (0) looping over the playback range.
// Must hold the lock.
func (c *Camera) setPlaybackPlay(v int32) error {
	if v == 0 {
		signal(c.stopPB)
		return c.params.SetInt(ParamPlaybackPlay, 0)
	}
	if err := c.enterMemory(); err != nil {
		return err
	}
	drain(c.stopPB)
	c.abort.Store(false)
	c.params.SetInt(ParamPlaybackPlay, 1)
	signal(c.startPB)
	return nil
}
