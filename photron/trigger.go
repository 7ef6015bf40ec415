package photron

import (
	"fmt"
	"strconv"

	"github.com/nasa-jpl/photron/pdc"
)

// TriggerModeNames are the strings of the TRIGGER_MODE enum.  The index of
// each is its parameter value.
var TriggerModeNames = []string{
	"Start",
	"Center",
	"End",
	"Random",
	"Manual",
	"Random reset",
	"Random center",
	"Random manual",
	"Two-stage 1/2",
	"Two-stage 1/4",
	"Two-stage 1/8",
	"Reset",
	"Recon cmd",
	"Random loop",
}

// trigModeToEPICS converts an API trigger mode to its enum index.  The
// two-stage ratio in the low bits gets its own index.
func trigModeToEPICS(api uint32) int {
	mode := int(api >> 24)
	switch {
	case mode == 8:
		return 8 + int(api&0xF)
	case mode > 8:
		return mode + 2
	}
	return mode
}

// trigModeToAPI converts an enum index to an API trigger mode
func trigModeToAPI(index int) (uint32, error) {
	switch {
	case index < 0 || index >= len(TriggerModeNames):
		return 0, fmt.Errorf("%w: trigger mode %d", ErrInvalidValue, index)
	case index < 8:
		return uint32(index) << 24, nil
	case index <= 10:
		return 8<<24 | uint32(index-8), nil
	}
	return uint32(index-2) << 24, nil
}

// triggerName returns the name of an enum index
func triggerName(index int) string {
	if index < 0 || index >= len(TriggerModeNames) {
		return fmt.Sprintf("Mode %d", index)
	}
	return TriggerModeNames[index]
}

// needsEndless returns true for trigger modes that record before the
// trigger, which the camera does in endless mode
func needsEndless(api uint32) bool {
	switch api & 0xFF000000 {
	case pdc.TriggerCenter, pdc.TriggerEnd, pdc.TriggerRandomCenter,
		pdc.TriggerTwoStageHalf, pdc.TriggerRandomLoop:
		return true
	}
	return false
}

// setTriggerMode sends trigger settings to the camera.  Must hold the lock.
func (c *Camera) setTriggerMode(t pdc.TriggerSettings) error {
	idx := trigModeToEPICS(t.Mode)
	valid := false
	for _, m := range c.triggerModes {
		if m == idx {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: trigger mode %s not supported", ErrInvalidValue, triggerName(idx))
	}
	if err := c.sdk.SetTriggerMode(c.devNo, t); err != nil {
		return c.fail("set trigger mode "+triggerName(idx), err)
	}
	return c.readParameters()
}

// softwareTrigger issues a trigger.  Must hold the lock.
func (c *Camera) softwareTrigger() error {
	if err := c.sdk.TriggerIn(c.devNo); err != nil {
		return c.fail("trigger", err)
	}
	return nil
}

func (c *Camera) setEnum(name string, strs []string, vals []int32) error {
	if err := c.params.SetEnum(name, strs, vals); err != nil {
		return fmt.Errorf("photron: could not set enum %s: %w", name, err)
	}
	return nil
}

// createStaticEnums sets the enums which do not depend on the camera
func (c *Camera) createStaticEnums() error {
	statuses := []pdc.Status{
		pdc.StatusLive, pdc.StatusPlayback, pdc.StatusRecReady, pdc.StatusEndless,
		pdc.StatusRec, pdc.StatusSave, pdc.StatusLoad, pdc.StatusPause,
	}
	var (
		strs []string
		vals []int32
	)
	for _, s := range statuses {
		strs = append(strs, s.String())
		vals = append(vals, int32(s))
	}
	var trigVals []int32
	for i := range TriggerModeNames {
		trigVals = append(trigVals, int32(i))
	}
	varStrs := []string{"Off"}
	varVals := []int32{0}
	for ch := 1; ch <= pdc.MaxVariableChannels; ch++ {
		varStrs = append(varStrs, strconv.Itoa(ch))
		varVals = append(varVals, int32(ch))
	}
	enums := []struct {
		name string
		strs []string
		vals []int32
	}{
		{ParamPhotronStatus, strs, vals},
		{ParamTriggerMode, TriggerModeNames, trigVals},
		{ParamAcquireMode, []string{"Live", "Record"}, []int32{AcquireModeLive, AcquireModeRecord}},
		{Param8BitSel, []string{"16 bit", "Upper 8", "Lower 8"}, []int32{0, 1, 2}},
		{ParamImageMode, []string{"Single", "Multiple", "Continuous"}, []int32{ImageModeSingle, ImageModeMultiple, ImageModeContinuous}},
		{ParamDataType, []string{"UInt8", "UInt16"}, []int32{0, 1}},
		{ParamIRIG, []string{"Off", "On"}, []int32{0, 1}},
		{ParamSyncPriority, []string{"Master", "Slave"}, []int32{int32(pdc.SyncPriorityMaster), int32(pdc.SyncPrioritySlave)}},
		{ParamVarChannel, varStrs, varVals},
		{ParamStatus, []string{"Idle", "Acquire", "Readout", "Correct", "Saving", "Aborting",
			"Error", "Waiting", "Initializing", "Disconnected", "Aborted"},
			[]int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	for _, e := range enums {
		if err := c.setEnum(e.name, e.strs, e.vals); err != nil {
			return err
		}
	}
	return nil
}

// createDynamicEnums sets the enums built from the lists the camera
// reports.  Must hold the lock.
func (c *Camera) createDynamicEnums() error {
	var (
		strs []string
		vals []int32
	)
	c.triggerModes = c.triggerModes[:0]
	for i, name := range TriggerModeNames {
		api, _ := trigModeToAPI(i)
		if contains(c.set.triggerModeList, api&0xFF000000) {
			c.triggerModes = append(c.triggerModes, i)
			strs = append(strs, name)
			vals = append(vals, int32(i))
		}
	}
	if err := c.setEnum(ParamTriggerMode, strs, vals); err != nil {
		return err
	}

	strs, vals = nil, nil
	for _, r := range c.set.rateList {
		strs = append(strs, fmt.Sprintf("%d fps", r))
		vals = append(vals, int32(r))
	}
	if err := c.setEnum(ParamRecordRate, strs, vals); err != nil {
		return err
	}

	if len(c.info.syncPriorityList) > 0 {
		strs, vals = nil, nil
		for _, v := range c.info.syncPriorityList {
			if v == pdc.SyncPrioritySlave {
				strs = append(strs, "Slave")
			} else {
				strs = append(strs, "Master")
			}
			vals = append(vals, int32(v))
		}
		if err := c.setEnum(ParamSyncPriority, strs, vals); err != nil {
			return err
		}
	}

	for port := 1; port <= int(c.info.inPorts); port++ {
		strs, vals = signalEnum(c.info.extInModeList[port-1], pdc.ExtInSignalNames)
		if err := c.setEnum(ExtInParam(port), strs, vals); err != nil {
			return err
		}
	}
	for port := 1; port <= int(c.info.outPorts); port++ {
		strs, vals = signalEnum(c.info.extOutModeList[port-1], pdc.ExtOutSignalNames)
		if err := c.setEnum(ExtOutParam(port), strs, vals); err != nil {
			return err
		}
	}
	return nil
}

func signalEnum(list []uint32, names map[uint32]string) ([]string, []int32) {
	strs := make([]string, 0, len(list))
	vals := make([]int32, 0, len(list))
	for _, v := range list {
		n, ok := names[v]
		if !ok {
			n = fmt.Sprintf("Code 0x%02x", v)
		}
		strs = append(strs, n)
		vals = append(vals, int32(v))
	}
	return strs, vals
}
