//go:build pdc
// +build pdc

package pdc

/*
#cgo CFLAGS: -I/usr/local/include/photron -DUNICODE
#cgo LDFLAGS: -L/usr/local/lib -lPDCLIB
#include <stdlib.h>
#include <wchar.h>
#include <PDCLIB.h>

*/
import "C"
import (
	"net"
	"unsafe"

	cwch "github.com/lordadamson/cgo.wchar"
)

// Library is the PDC SDK backed by the vendor shared library.
// It has no state; the library holds it.
type Library struct{}

var _ SDK = Library{}

func ul(v uint32) C.ulong { return C.ulong(v) }

func check(ret C.ulong, code C.ulong) error {
	return Check(uint32(ret), uint32(code))
}

// Init calls PDC_Init
func (Library) Init() error {
	var code C.ulong
	return check(C.PDC_Init(&code), code)
}

// ipToUlong packs a dotted quad the way PDC_DetectDevice expects
func ipToUlong(ip string) uint32 {
	p := net.ParseIP(ip).To4()
	if p == nil {
		return 0
	}
	return uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3])
}

func ulongToIP(v uint32) string {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String()
}

// DetectDevice calls PDC_DetectDevice over gigabit ethernet
func (Library) DetectDevice(ip string, autoDetect bool) ([]DetectInfo, error) {
	var (
		code   C.ulong
		info   C.PDC_DETECT_NUM_INFO
		ipAddr = C.ulong(ipToUlong(ip))
		param  C.ulong
	)
	if autoDetect {
		param = C.PDC_DETECT_AUTO
	} else {
		param = C.PDC_DETECT_NORMAL
	}
	ret := C.PDC_DetectDevice(C.PDC_INTTYPE_G_ETHER, &ipAddr, 1, param, &info, &code)
	if err := check(ret, code); err != nil {
		return nil, err
	}
	out := make([]DetectInfo, int(info.m_nDeviceNum))
	for i := range out {
		d := info.m_DetectInfo[i]
		out[i] = DetectInfo{
			DeviceCode:    uint32(d.m_nDeviceCode),
			InterfaceCode: uint32(d.m_nInterfaceCode),
			IPAddress:     ulongToIP(uint32(d.m_nTmpDeviceNo)),
		}
	}
	return out, nil
}

// OpenDevice calls PDC_OpenDevice
func (Library) OpenDevice(info DetectInfo) (uint32, error) {
	var (
		code C.ulong
		dev  C.ulong
		d    C.PDC_DETECT_INFO
	)
	d.m_nDeviceCode = ul(info.DeviceCode)
	d.m_nInterfaceCode = ul(info.InterfaceCode)
	d.m_nTmpDeviceNo = ul(ipToUlong(info.IPAddress))
	err := check(C.PDC_OpenDevice(&d, &dev, &code), code)
	return uint32(dev), err
}

// CloseDevice calls PDC_CloseDevice
func (Library) CloseDevice(dev uint32) error {
	var code C.ulong
	return check(C.PDC_CloseDevice(ul(dev), &code), code)
}

// DeviceCode calls PDC_GetDeviceCode
func (Library) DeviceCode(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetDeviceCode(ul(dev), &out, &code), code)
	return uint32(out), err
}

// DeviceName calls PDC_GetDeviceName.  The library writes a TCHAR string.
func (Library) DeviceName(dev uint32) (string, error) {
	var code C.ulong
	buf := cwch.NewWcharString(MaxStringLength)
	ret := C.PDC_GetDeviceName(ul(dev), 0, (*C.TCHAR)(buf.Pointer()), &code)
	if err := check(ret, code); err != nil {
		return "", err
	}
	return buf.GoString()
}

// DeviceID calls PDC_GetDeviceID
func (Library) DeviceID(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetDeviceID(ul(dev), &out, &code), code)
	return uint32(out), err
}

// ProductID calls PDC_GetProductID
func (Library) ProductID(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetProductID(ul(dev), &out, &code), code)
	return uint32(out), err
}

// LotID calls PDC_GetLotID
func (Library) LotID(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetLotID(ul(dev), &out, &code), code)
	return uint32(out), err
}

// IndividualID calls PDC_GetIndividualID
func (Library) IndividualID(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetIndividualID(ul(dev), &out, &code), code)
	return uint32(out), err
}

// Version calls PDC_GetVersion
func (Library) Version(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetVersion(ul(dev), &out, &code), code)
	return uint32(out), err
}

// MaxChildDeviceCount calls PDC_GetMaxChildDeviceCount
func (Library) MaxChildDeviceCount(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetMaxChildDeviceCount(ul(dev), &out, &code), code)
	return uint32(out), err
}

// ChildDeviceCount calls PDC_GetChildDeviceCount
func (Library) ChildDeviceCount(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetChildDeviceCount(ul(dev), &out, &code), code)
	return uint32(out), err
}

// IsFunction calls PDC_IsFunction
func (Library) IsFunction(dev, child uint32, fn Function) (bool, error) {
	var code C.ulong
	var flag C.char
	err := check(C.PDC_IsFunction(ul(dev), ul(child), ul(uint32(fn)), &flag, &code), code)
	return flag == C.PDC_EXIST_SUPPORTED, err
}

// MaxResolution calls PDC_GetMaxResolution
func (Library) MaxResolution(dev, child uint32) (uint32, uint32, error) {
	var code, w, h C.ulong
	err := check(C.PDC_GetMaxResolution(ul(dev), ul(child), &w, &h, &code), code)
	return uint32(w), uint32(h), err
}

// MaxBitDepth calls PDC_GetMaxBitDepth
func (Library) MaxBitDepth(dev, child uint32) (uint32, error) {
	var code C.ulong
	var mono, r, g, b C.char
	err := check(C.PDC_GetMaxBitDepth(ul(dev), ul(child), &mono, &r, &g, &b, &code), code)
	return uint32(mono), err
}

// ExternalCount calls PDC_GetExternalCount
func (Library) ExternalCount(dev uint32) (uint32, uint32, error) {
	var code, in, out C.ulong
	err := check(C.PDC_GetExternalCount(ul(dev), &in, &out, &code), code)
	return uint32(in), uint32(out), err
}

// Status calls PDC_GetStatus
func (Library) Status(dev uint32) (Status, error) {
	var code, out C.ulong
	err := check(C.PDC_GetStatus(ul(dev), &out, &code), code)
	return Status(out), err
}

// SetStatus calls PDC_SetStatus
func (Library) SetStatus(dev uint32, s Status) error {
	var code C.ulong
	return check(C.PDC_SetStatus(ul(dev), ul(uint32(s)), &code), code)
}

// RecordRate calls PDC_GetRecordRate
func (Library) RecordRate(dev, child uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetRecordRate(ul(dev), ul(child), &out, &code), code)
	return uint32(out), err
}

// SetRecordRate calls PDC_SetRecordRate
func (Library) SetRecordRate(dev, child, rate uint32) error {
	var code C.ulong
	return check(C.PDC_SetRecordRate(ul(dev), ul(child), ul(rate), &code), code)
}

// list runs a PDC list getter into a fixed size array and trims it
func list(f func(size *C.ulong, buf *C.ulong, code *C.ulong) C.ulong) ([]uint32, error) {
	var (
		code C.ulong
		size C.ulong
		buf  [MaxListNumber]C.ulong
	)
	if err := check(f(&size, &buf[0], &code), code); err != nil {
		return nil, err
	}
	n := int(size)
	if n > MaxListNumber {
		n = MaxListNumber
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = uint32(buf[i])
	}
	return out, nil
}

// RecordRateList calls PDC_GetRecordRateList
func (Library) RecordRateList(dev, child uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetRecordRateList(ul(dev), ul(child), size, buf, code)
	})
}

// Resolution calls PDC_GetResolution
func (Library) Resolution(dev, child uint32) (uint32, uint32, error) {
	var code, w, h C.ulong
	err := check(C.PDC_GetResolution(ul(dev), ul(child), &w, &h, &code), code)
	return uint32(w), uint32(h), err
}

// SetResolution calls PDC_SetResolution
func (Library) SetResolution(dev, child, width, height uint32) error {
	var code C.ulong
	return check(C.PDC_SetResolution(ul(dev), ul(child), ul(width), ul(height), &code), code)
}

// ResolutionList calls PDC_GetResolutionList
func (Library) ResolutionList(dev, child uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetResolutionList(ul(dev), ul(child), size, buf, code)
	})
}

// ShutterSpeedFps calls PDC_GetShutterSpeedFps
func (Library) ShutterSpeedFps(dev, child uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetShutterSpeedFps(ul(dev), ul(child), &out, &code), code)
	return uint32(out), err
}

// SetShutterSpeedFps calls PDC_SetShutterSpeedFps
func (Library) SetShutterSpeedFps(dev, child, fps uint32) error {
	var code C.ulong
	return check(C.PDC_SetShutterSpeedFps(ul(dev), ul(child), ul(fps), &code), code)
}

// ShutterSpeedFpsList calls PDC_GetShutterSpeedFpsList
func (Library) ShutterSpeedFpsList(dev, child uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetShutterSpeedFpsList(ul(dev), ul(child), size, buf, code)
	})
}

// MaxFrames calls PDC_GetMaxFrames
func (Library) MaxFrames(dev, child uint32) (uint32, uint32, error) {
	var code, frames, blocks C.ulong
	err := check(C.PDC_GetMaxFrames(ul(dev), ul(child), &frames, &blocks, &code), code)
	return uint32(frames), uint32(blocks), err
}

// TriggerMode calls PDC_GetTriggerMode
func (Library) TriggerMode(dev uint32) (TriggerSettings, error) {
	var code, mode, af, rf, rc C.ulong
	err := check(C.PDC_GetTriggerMode(ul(dev), &mode, &af, &rf, &rc, &code), code)
	return TriggerSettings{Mode: uint32(mode), AFrames: uint32(af), RFrames: uint32(rf), RCount: uint32(rc)}, err
}

// SetTriggerMode calls PDC_SetTriggerMode
func (Library) SetTriggerMode(dev uint32, t TriggerSettings) error {
	var code C.ulong
	return check(C.PDC_SetTriggerMode(ul(dev), ul(t.Mode), ul(t.AFrames), ul(t.RFrames), ul(t.RCount), &code), code)
}

// TriggerModeList calls PDC_GetTriggerModeList
func (Library) TriggerModeList(dev uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetTriggerModeList(ul(dev), size, buf, code)
	})
}

// TriggerIn calls PDC_TriggerIn
func (Library) TriggerIn(dev uint32) error {
	var code C.ulong
	return check(C.PDC_TriggerIn(ul(dev), &code), code)
}

// IRIG calls PDC_GetIRIG
func (Library) IRIG(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetIRIG(ul(dev), &out, &code), code)
	return uint32(out), err
}

// SetIRIG calls PDC_SetIRIG
func (Library) SetIRIG(dev, mode uint32) error {
	var code C.ulong
	return check(C.PDC_SetIRIG(ul(dev), ul(mode), &code), code)
}

// SyncPriority calls PDC_GetSyncPriority
func (Library) SyncPriority(dev uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetSyncPriority(ul(dev), &out, &code), code)
	return uint32(out), err
}

// SetSyncPriority calls PDC_SetSyncPriority
func (Library) SetSyncPriority(dev, mode uint32) error {
	var code C.ulong
	return check(C.PDC_SetSyncPriority(ul(dev), ul(mode), &code), code)
}

// SyncPriorityList calls PDC_GetSyncPriorityList
func (Library) SyncPriorityList(dev uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetSyncPriorityList(ul(dev), size, buf, code)
	})
}

// ExternalInMode calls PDC_GetExternalInMode
func (Library) ExternalInMode(dev, port uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetExternalInMode(ul(dev), ul(port), &out, &code), code)
	return uint32(out), err
}

// SetExternalInMode calls PDC_SetExternalInMode
func (Library) SetExternalInMode(dev, port, mode uint32) error {
	var code C.ulong
	return check(C.PDC_SetExternalInMode(ul(dev), ul(port), ul(mode), &code), code)
}

// ExternalInModeList calls PDC_GetExternalInModeList
func (Library) ExternalInModeList(dev, port uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetExternalInModeList(ul(dev), ul(port), size, buf, code)
	})
}

// ExternalOutMode calls PDC_GetExternalOutMode
func (Library) ExternalOutMode(dev, port uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetExternalOutMode(ul(dev), ul(port), &out, &code), code)
	return uint32(out), err
}

// SetExternalOutMode calls PDC_SetExternalOutMode
func (Library) SetExternalOutMode(dev, port, mode uint32) error {
	var code C.ulong
	return check(C.PDC_SetExternalOutMode(ul(dev), ul(port), ul(mode), &code), code)
}

// ExternalOutModeList calls PDC_GetExternalOutModeList
func (Library) ExternalOutModeList(dev, port uint32) ([]uint32, error) {
	return list(func(size, buf, code *C.ulong) C.ulong {
		return C.PDC_GetExternalOutModeList(ul(dev), ul(port), size, buf, code)
	})
}

// BitDepth calls PDC_GetBitDepth
func (Library) BitDepth(dev, child uint32) (uint32, error) {
	var code C.ulong
	var depth C.char
	err := check(C.PDC_GetBitDepth(ul(dev), ul(child), &depth, &code), code)
	return uint32(depth), err
}

// SetTransferOption calls PDC_SetTransferOption with bayer and interleave off
func (Library) SetTransferOption(dev, child, bitSel uint32) error {
	var code C.ulong
	return check(C.PDC_SetTransferOption(ul(dev), ul(child), ul(bitSel), C.PDC_FUNCTION_OFF, C.PDC_FUNCTION_OFF, &code), code)
}

// LiveImage calls PDC_GetLiveImageData.  buf must hold a whole frame.
func (Library) LiveImage(dev, child, bitDepth uint32, buf []byte) error {
	if len(buf) == 0 {
		return ErrAllocateFailed
	}
	var code C.ulong
	ret := C.PDC_GetLiveImageData(ul(dev), ul(child), ul(bitDepth), unsafe.Pointer(&buf[0]), &code)
	return check(ret, code)
}

// MemFrameInfo calls PDC_GetMemFrameInfo
func (Library) MemFrameInfo(dev, child uint32) (FrameInfo, error) {
	var (
		code C.ulong
		fi   C.PDC_FRAME_INFO
	)
	if err := check(C.PDC_GetMemFrameInfo(ul(dev), ul(child), &fi, &code), code); err != nil {
		return FrameInfo{}, err
	}
	info := FrameInfo{
		Start:             int32(fi.m_nStart),
		End:               int32(fi.m_nEnd),
		Trigger:           int32(fi.m_nTrigger),
		TwoStageLowToHigh: uint32(fi.m_nTwoStageLowToHigh),
		TwoStageHighToLow: uint32(fi.m_nTwoStageHighToLow),
		TwoStageTiming:    uint32(fi.m_nTwoStageTiming),
		Recorded:          uint32(fi.m_nRecordedFrames),
	}
	for i := 0; i < int(fi.m_nEventCount); i++ {
		info.Events = append(info.Events, int32(fi.m_nEvent[i]))
	}
	return info, nil
}

// MemResolution calls PDC_GetMemResolution
func (Library) MemResolution(dev, child uint32) (uint32, uint32, error) {
	var code, w, h C.ulong
	err := check(C.PDC_GetMemResolution(ul(dev), ul(child), &w, &h, &code), code)
	return uint32(w), uint32(h), err
}

// MemRecordRate calls PDC_GetMemRecordRate
func (Library) MemRecordRate(dev, child uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetMemRecordRate(ul(dev), ul(child), &out, &code), code)
	return uint32(out), err
}

// MemImage calls PDC_GetMemImageData.  buf must hold a whole frame at the
// resolution of the recording.
func (l Library) MemImage(dev, child uint32, frame int32, bitDepth uint32, buf []byte) error {
	w, h, err := l.MemResolution(dev, child)
	if err != nil {
		return err
	}
	if len(buf) == 0 || len(buf) < FrameBytes(w, h, bitDepth) {
		return ErrAllocateFailed
	}
	var code C.ulong
	ret := C.PDC_GetMemImageData(ul(dev), ul(child), C.long(frame), ul(bitDepth), unsafe.Pointer(&buf[0]), &code)
	return check(ret, code)
}

// MemIRIG calls PDC_GetMemIRIGData
func (Library) MemIRIG(dev, child uint32, frame int32) (IRIGInfo, error) {
	var (
		code C.ulong
		ii   C.PDC_IRIG_INFO
	)
	if err := check(C.PDC_GetMemIRIGData(ul(dev), ul(child), C.long(frame), &ii, &code), code); err != nil {
		return IRIGInfo{}, err
	}
	return IRIGInfo{
		DayOfYear:    uint32(ii.m_nDayOfYear),
		Hour:         uint32(ii.m_nHour),
		Minute:       uint32(ii.m_nMinute),
		Second:       uint32(ii.m_nSecond),
		Microsecond:  uint32(ii.m_nMicroSecond),
		SignalExists: ii.m_ExistSignal != 0,
	}, nil
}

// VariableChannel calls PDC_GetVariableChannel
func (Library) VariableChannel(dev, child uint32) (uint32, error) {
	var code, out C.ulong
	err := check(C.PDC_GetVariableChannel(ul(dev), ul(child), &out, &code), code)
	return uint32(out), err
}

// SetVariableChannel calls PDC_SetVariableChannel
func (Library) SetVariableChannel(dev, child, channel uint32) error {
	var code C.ulong
	return check(C.PDC_SetVariableChannel(ul(dev), ul(child), ul(channel), &code), code)
}

// VariableChannelInfo calls PDC_GetVariableChannelInfo
func (Library) VariableChannelInfo(dev, channel uint32) (ChannelInfo, error) {
	var code, rate, w, h, x, y C.ulong
	err := check(C.PDC_GetVariableChannelInfo(ul(dev), ul(channel), &rate, &w, &h, &x, &y, &code), code)
	return ChannelInfo{Rate: uint32(rate), Width: uint32(w), Height: uint32(h), XPos: uint32(x), YPos: uint32(y)}, err
}

// SetVariableChannelInfo calls PDC_SetVariableChannelInfo
func (Library) SetVariableChannelInfo(dev, channel uint32, info ChannelInfo) error {
	var code C.ulong
	ret := C.PDC_SetVariableChannelInfo(ul(dev), ul(channel), ul(info.Rate), ul(info.Width), ul(info.Height), ul(info.XPos), ul(info.YPos), &code)
	return check(ret, code)
}
