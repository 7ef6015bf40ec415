/*Package pdc describes the Photron Device Control (PDC) SDK as seen from Go.

The PDC library is a closed vendor C library.  This package does not wrap it
directly in the core; instead it defines the SDK interface, which mirrors the
PDC_* function surface one method per call, along with the constants and error
codes the library uses.  Two implementations are provided:

 - Library, a cgo binding to PDCLIB, built only with the pdc build tag
 - Simulator, an in-memory camera used for testing and for mock servers

All methods return a Go error.  A failing vendor call produces an Error whose
value is the vendor error code.
*/
package pdc

import "fmt"

const (
	// MaxListNumber is PDC_MAX_LIST_NUMBER, the largest list the SDK returns
	MaxListNumber = 256

	// MaxStringLength is PDC_MAX_STRING_LENGTH
	MaxStringLength = 256

	// ExtIOMaxPort is PDC_EXTIO_MAX_PORT, the number of external I/O ports
	ExtIOMaxPort = 4

	// MaxVariableChannels is the number of variable channel slots on a device.
	// channel 0 means variable channels are off.
	MaxVariableChannels = 20

	// MaxFunction is one past the highest function index used by IsFunction
	MaxFunction = 98

	// ChildNo is the only child device number used by this driver
	ChildNo = 1

	// WRAPVER is the PDC wrapper code version.
	// Increment this when pkg pdc is updated.
	WRAPVER = 2
)

// Status is a PDC device status
type Status uint32

const (
	// StatusLive is PDC_STATUS_LIVE, images are streamed and not recorded
	StatusLive Status = 0x00

	// StatusPlayback is PDC_STATUS_PLAYBACK, recorded memory can be read
	StatusPlayback Status = 0x01

	// StatusRecReady is PDC_STATUS_RECREADY, waiting for a trigger
	StatusRecReady Status = 0x02

	// StatusEndless is PDC_STATUS_ENDLESS, recording into a ring until triggered
	StatusEndless Status = 0x04

	// StatusRec is PDC_STATUS_REC, recording
	StatusRec Status = 0x08

	// StatusSave is PDC_STATUS_SAVE
	StatusSave Status = 0x10

	// StatusLoad is PDC_STATUS_LOAD
	StatusLoad Status = 0x20

	// StatusPause is PDC_STATUS_PAUSE
	StatusPause Status = 0x40
)

var statusNames = map[Status]string{
	StatusLive:     "Live",
	StatusPlayback: "Playback",
	StatusRecReady: "RecReady",
	StatusEndless:  "Endless",
	StatusRec:      "Rec",
	StatusSave:     "Save",
	StatusLoad:     "Load",
	StatusPause:    "Pause",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(0x%02x)", uint32(s))
}

// Recording returns true if the status is one of the recording states
func (s Status) Recording() bool {
	return s == StatusRecReady || s == StatusEndless || s == StatusRec
}

// trigger modes.  The mode is held in the upper byte,
// the two-stage ratio in the low bits.
const (
	TriggerStart           uint32 = 0x00000000
	TriggerCenter          uint32 = 0x01000000
	TriggerEnd             uint32 = 0x02000000
	TriggerRandom          uint32 = 0x03000000
	TriggerManual          uint32 = 0x04000000
	TriggerRandomReset     uint32 = 0x05000000
	TriggerRandomCenter    uint32 = 0x06000000
	TriggerRandomManual    uint32 = 0x07000000
	TriggerTwoStageHalf    uint32 = 0x08000000
	TriggerTwoStageQuarter uint32 = 0x08000001
	TriggerTwoStageEighth  uint32 = 0x08000002
	TriggerReset           uint32 = 0x09000000
	TriggerReconCmd        uint32 = 0x0A000000
	TriggerRandomLoop      uint32 = 0x0B000000
)

// TriggerSettings is the set of values PDC_GetTriggerMode returns
type TriggerSettings struct {
	// Mode is one of the Trigger* API values
	Mode uint32

	// AFrames is the number of frames recorded after the trigger
	AFrames uint32

	// RFrames is the number of frames recorded per random trigger
	RFrames uint32

	// RCount is the number of random recordings
	RCount uint32
}

// external I/O signal codes
const (
	ExtInNone          uint32 = 0x00
	ExtInTrigPos       uint32 = 0x01
	ExtInTrigNeg       uint32 = 0x02
	ExtInSyncPos       uint32 = 0x03
	ExtInSyncNeg       uint32 = 0x04
	ExtInEventPos      uint32 = 0x05
	ExtInEventNeg      uint32 = 0x06
	ExtInReadyPos      uint32 = 0x07
	ExtInReadyNeg      uint32 = 0x08
	ExtInIRIG          uint32 = 0x0A
	ExtOutNone         uint32 = 0x00
	ExtOutRecPos       uint32 = 0x01
	ExtOutRecNeg       uint32 = 0x02
	ExtOutTrigPos      uint32 = 0x03
	ExtOutTrigNeg      uint32 = 0x04
	ExtOutReadyPos     uint32 = 0x05
	ExtOutReadyNeg     uint32 = 0x06
	ExtOutIRIGResetPos uint32 = 0x07
	ExtOutIRIGResetNeg uint32 = 0x08
	ExtOutExposePos    uint32 = 0x0B
	ExtOutExposeNeg    uint32 = 0x0C
)

// ExtSignalNames maps external I/O codes to the names used in enums
var (
	ExtInSignalNames = map[uint32]string{
		ExtInNone:     "None",
		ExtInTrigPos:  "Trig (+)",
		ExtInTrigNeg:  "Trig (-)",
		ExtInSyncPos:  "Sync (+)",
		ExtInSyncNeg:  "Sync (-)",
		ExtInEventPos: "Event (+)",
		ExtInEventNeg: "Event (-)",
		ExtInReadyPos: "Ready (+)",
		ExtInReadyNeg: "Ready (-)",
		ExtInIRIG:     "IRIG",
	}

	ExtOutSignalNames = map[uint32]string{
		ExtOutNone:         "None",
		ExtOutRecPos:       "Rec (+)",
		ExtOutRecNeg:       "Rec (-)",
		ExtOutTrigPos:      "Trig (+)",
		ExtOutTrigNeg:      "Trig (-)",
		ExtOutReadyPos:     "Ready (+)",
		ExtOutReadyNeg:     "Ready (-)",
		ExtOutIRIGResetPos: "IRIG reset (+)",
		ExtOutIRIGResetNeg: "IRIG reset (-)",
		ExtOutExposePos:    "Expose (+)",
		ExtOutExposeNeg:    "Expose (-)",
	}
)

// sync priority codes
const (
	SyncPriorityMaster uint32 = 0
	SyncPrioritySlave  uint32 = 1
)

// transfer options for 8 bit selection
const (
	// BitSel16 transfers the full pixel depth
	BitSel16 uint32 = 0

	// BitSelUpper8 transfers the upper 8 bits of each pixel
	BitSelUpper8 uint32 = 1

	// BitSelLower8 transfers the lower 8 bits of each pixel
	BitSelLower8 uint32 = 2
)

// Function is an index into the function availability list
type Function uint32

// function indices used by the driver
const (
	FunctionIRIG         Function = 33
	FunctionSyncPriority Function = 52
	FunctionVariable     Function = 62
	FunctionShutterFps   Function = 64
	FunctionTransferOpt  Function = 71
	FunctionEndless      Function = 80
)

// interface codes for DetectDevice
const (
	InterfaceGigE uint32 = 0x02
)

// DetectInfo identifies a device found by DetectDevice
type DetectInfo struct {
	// DeviceCode is the model code of the device
	DeviceCode uint32

	// InterfaceCode is how the device is attached
	InterfaceCode uint32

	// IPAddress is the dotted quad of the device
	IPAddress string
}

// FrameInfo is PDC_FRAME_INFO, the extent of a recording in camera memory
type FrameInfo struct {
	// Start is the first frame number in memory
	Start int32

	// End is the last frame number in memory
	End int32

	// Trigger is the frame number the trigger occurred on
	Trigger int32

	TwoStageLowToHigh uint32
	TwoStageHighToLow uint32
	TwoStageTiming    uint32

	// Events holds frame numbers of event inputs
	Events []int32

	// Recorded is the number of frames recorded
	Recorded uint32
}

// IRIGInfo is PDC_IRIG_INFO, the IRIG timecode of one recorded frame
type IRIGInfo struct {
	DayOfYear   uint32
	Hour        uint32
	Minute      uint32
	Second      uint32
	Microsecond uint32

	// SignalExists is true when the IRIG signal was present for the frame
	SignalExists bool
}

// ChannelInfo describes one variable channel
type ChannelInfo struct {
	Rate   uint32
	Width  uint32
	Height uint32
	XPos   uint32
	YPos   uint32
}

// SDK is the PDC function surface used by the driver.  dev is the device
// number from OpenDevice and child the child device number.
type SDK interface {
	// library and connection
	Init() error
	DetectDevice(ip string, autoDetect bool) ([]DetectInfo, error)
	OpenDevice(info DetectInfo) (uint32, error)
	CloseDevice(dev uint32) error

	// identification and capabilities
	DeviceCode(dev uint32) (uint32, error)
	DeviceName(dev uint32) (string, error)
	DeviceID(dev uint32) (uint32, error)
	ProductID(dev uint32) (uint32, error)
	LotID(dev uint32) (uint32, error)
	IndividualID(dev uint32) (uint32, error)
	Version(dev uint32) (uint32, error)
	MaxChildDeviceCount(dev uint32) (uint32, error)
	ChildDeviceCount(dev uint32) (uint32, error)
	IsFunction(dev, child uint32, fn Function) (bool, error)
	MaxResolution(dev, child uint32) (uint32, uint32, error)
	MaxBitDepth(dev, child uint32) (uint32, error)
	ExternalCount(dev uint32) (uint32, uint32, error)

	// status
	Status(dev uint32) (Status, error)
	SetStatus(dev uint32, s Status) error

	// rate, geometry, exposure
	RecordRate(dev, child uint32) (uint32, error)
	SetRecordRate(dev, child, rate uint32) error
	RecordRateList(dev, child uint32) ([]uint32, error)
	Resolution(dev, child uint32) (uint32, uint32, error)
	SetResolution(dev, child, width, height uint32) error
	ResolutionList(dev, child uint32) ([]uint32, error)
	ShutterSpeedFps(dev, child uint32) (uint32, error)
	SetShutterSpeedFps(dev, child, fps uint32) error
	ShutterSpeedFpsList(dev, child uint32) ([]uint32, error)
	MaxFrames(dev, child uint32) (uint32, uint32, error)

	// triggering
	TriggerMode(dev uint32) (TriggerSettings, error)
	SetTriggerMode(dev uint32, t TriggerSettings) error
	TriggerModeList(dev uint32) ([]uint32, error)
	TriggerIn(dev uint32) error

	// timing and I/O
	IRIG(dev uint32) (uint32, error)
	SetIRIG(dev, mode uint32) error
	SyncPriority(dev uint32) (uint32, error)
	SetSyncPriority(dev, mode uint32) error
	SyncPriorityList(dev uint32) ([]uint32, error)
	ExternalInMode(dev, port uint32) (uint32, error)
	SetExternalInMode(dev, port, mode uint32) error
	ExternalInModeList(dev, port uint32) ([]uint32, error)
	ExternalOutMode(dev, port uint32) (uint32, error)
	SetExternalOutMode(dev, port, mode uint32) error
	ExternalOutModeList(dev, port uint32) ([]uint32, error)

	// transfer
	BitDepth(dev, child uint32) (uint32, error)
	SetTransferOption(dev, child, bitSel uint32) error
	LiveImage(dev, child, bitDepth uint32, buf []byte) error
	MemFrameInfo(dev, child uint32) (FrameInfo, error)
	MemResolution(dev, child uint32) (uint32, uint32, error)
	MemRecordRate(dev, child uint32) (uint32, error)
	MemImage(dev, child uint32, frame int32, bitDepth uint32, buf []byte) error
	MemIRIG(dev, child uint32, frame int32) (IRIGInfo, error)

	// variable channels
	VariableChannel(dev, child uint32) (uint32, error)
	SetVariableChannel(dev, child, channel uint32) error
	VariableChannelInfo(dev, channel uint32) (ChannelInfo, error)
	SetVariableChannelInfo(dev, channel uint32, info ChannelInfo) error
}

// PackResolution packs a width and height into a resolution list entry
func PackResolution(width, height uint32) uint32 {
	return width<<16 | height&0xFFFF
}

// UnpackResolution splits a resolution list entry into width and height
func UnpackResolution(v uint32) (uint32, uint32) {
	return v >> 16, v & 0xFFFF
}

// FrameBytes is the size of a frame transferred at bitDepth.  Depths above 8
// bits take two bytes per pixel.
func FrameBytes(width, height, bitDepth uint32) int {
	bpp := 2
	if bitDepth <= 8 {
		bpp = 1
	}
	return int(width) * int(height) * bpp
}
