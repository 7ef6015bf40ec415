package photron

import (
	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/params"
)

// detector parameters common to every camera driver
const (
	ParamManufacturer     = "MANUFACTURER"
	ParamModel            = "MODEL"
	ParamSerialNumber     = "SERIAL_NUMBER"
	ParamFirmwareVersion  = "FIRMWARE_VERSION"
	ParamSDKVersion       = "SDK_VERSION"
	ParamDriverVersion    = "DRIVER_VERSION"
	ParamConnected        = "CONNECTED"
	ParamMaxSizeX         = "MAX_SIZE_X"
	ParamMaxSizeY         = "MAX_SIZE_Y"
	ParamSizeX            = "SIZE_X"
	ParamSizeY            = "SIZE_Y"
	ParamMinX             = "MIN_X"
	ParamMinY             = "MIN_Y"
	ParamArraySizeX       = "ARRAY_SIZE_X"
	ParamArraySizeY       = "ARRAY_SIZE_Y"
	ParamArraySize        = "ARRAY_SIZE"
	ParamDataType         = "DATA_TYPE"
	ParamAcquire          = "ACQUIRE"
	ParamAcquireTime      = "ACQ_TIME"
	ParamAcquirePeriod    = "ACQ_PERIOD"
	ParamStatus           = "STATUS"
	ParamStatusMessage    = "STATUS_MESSAGE"
	ParamTriggerMode      = "TRIGGER_MODE"
	ParamImageMode        = "IMAGE_MODE"
	ParamNumImages        = "NUM_IMAGES"
	ParamNumImagesCounter = "NUM_IMAGES_COUNTER"
	ParamArrayCounter     = "ARRAY_COUNTER"
	ParamArrayCallbacks   = "ARRAY_CALLBACKS"
)

// Photron specific parameters
const (
	ParamPhotronStatus   = "PHOTRON_STATUS"
	ParamAcquireMode     = "PHOTRON_ACQUIRE_MODE"
	ParamMaxFrames       = "PHOTRON_MAX_FRAMES"
	Param8BitSel         = "PHOTRON_8_BIT_SEL"
	ParamRecordRate      = "PHOTRON_REC_RATE"
	ParamAfterFrames     = "PHOTRON_AFTER_FRAMES"
	ParamRandomFrames    = "PHOTRON_RANDOM_FRAMES"
	ParamRecCount        = "PHOTRON_REC_COUNT"
	ParamSoftTrig        = "PHOTRON_SOFT_TRIG"
	ParamRecReady        = "PHOTRON_REC_READY"
	ParamEndless         = "PHOTRON_ENDLESS"
	ParamLive            = "PHOTRON_LIVE"
	ParamPlayback        = "PHOTRON_PLAYBACK"
	ParamReadMem         = "PHOTRON_READ_MEM"
	ParamIRIG            = "PHOTRON_IRIG"
	ParamMemIRIGDay      = "PHOTRON_MEM_IRIG_DAY"
	ParamMemIRIGHour     = "PHOTRON_MEM_IRIG_HOUR"
	ParamMemIRIGMin      = "PHOTRON_MEM_IRIG_MIN"
	ParamMemIRIGSec      = "PHOTRON_MEM_IRIG_SEC"
	ParamMemIRIGUsec     = "PHOTRON_MEM_IRIG_USEC"
	ParamMemIRIGSigEx    = "PHOTRON_MEM_IRIG_SIGEX"
	ParamSyncPriority    = "PHOTRON_SYNC_PRIORITY"
	ParamPixelBits       = "PHOTRON_PIXEL_BITS"
	ParamFrameStart      = "PHOTRON_FRAME_START"
	ParamFrameEnd        = "PHOTRON_FRAME_END"
	ParamTriggerFrame    = "PHOTRON_TRIGGER_FRAME"
	ParamRecordedFrames  = "PHOTRON_RECORDED_FRAMES"
	ParamPlaybackFirst   = "PHOTRON_PB_FIRST"
	ParamPlaybackLast    = "PHOTRON_PB_LAST"
	ParamPlaybackPlay    = "PHOTRON_PB_PLAY"
	ParamVarChannel      = "PHOTRON_VAR_CHAN"
	ParamVarEditChannel  = "PHOTRON_VAR_EDIT"
	ParamVarRate         = "PHOTRON_VAR_REC_RATE"
	ParamVarWidth        = "PHOTRON_VAR_XSIZE"
	ParamVarHeight       = "PHOTRON_VAR_YSIZE"
	ParamVarXPos         = "PHOTRON_VAR_XPOS"
	ParamVarYPos         = "PHOTRON_VAR_YPOS"
	ParamVarApply        = "PHOTRON_VAR_APPLY"
	ParamSessionID       = "PHOTRON_SESSION_ID"
	ParamMemoryFrameRate = "PHOTRON_MEM_RATE"
)

// ExtInParam returns the name of the signal parameter of input port (1-based)
func ExtInParam(port int) string {
	return "PHOTRON_EXT_IN_" + string(rune('0'+port)) + "_SIG"
}

// ExtOutParam returns the name of the signal parameter of output port (1-based)
func ExtOutParam(port int) string {
	return "PHOTRON_EXT_OUT_" + string(rune('0'+port)) + "_SIG"
}

// detector status values, as held in STATUS
const (
	StatusIdle = iota
	StatusAcquire
	StatusReadout
	StatusCorrect
	StatusSaving
	StatusAborting
	StatusError
	StatusWaiting
	StatusInitializing
	StatusDisconnected
	StatusAborted
)

// image modes, as held in IMAGE_MODE
const (
	ImageModeSingle = iota
	ImageModeMultiple
	ImageModeContinuous
)

// acquire modes, as held in PHOTRON_ACQUIRE_MODE
const (
	AcquireModeLive = iota
	AcquireModeRecord
)

var intParams = []string{
	ParamConnected, ParamMaxSizeX, ParamMaxSizeY, ParamSizeX, ParamSizeY,
	ParamMinX, ParamMinY, ParamArraySizeX, ParamArraySizeY, ParamArraySize,
	ParamDataType, ParamAcquire, ParamStatus, ParamTriggerMode, ParamImageMode,
	ParamNumImages, ParamNumImagesCounter, ParamArrayCounter, ParamArrayCallbacks,

	ParamPhotronStatus, ParamAcquireMode, ParamMaxFrames, Param8BitSel,
	ParamRecordRate, ParamAfterFrames, ParamRandomFrames, ParamRecCount,
	ParamSoftTrig, ParamRecReady, ParamEndless, ParamLive, ParamPlayback,
	ParamReadMem, ParamIRIG, ParamMemIRIGDay, ParamMemIRIGHour, ParamMemIRIGMin,
	ParamMemIRIGSec, ParamMemIRIGUsec, ParamMemIRIGSigEx, ParamSyncPriority,
	ParamPixelBits, ParamFrameStart, ParamFrameEnd, ParamTriggerFrame,
	ParamRecordedFrames, ParamPlaybackFirst, ParamPlaybackLast, ParamPlaybackPlay,
	ParamVarChannel, ParamVarEditChannel, ParamVarRate, ParamVarWidth,
	ParamVarHeight, ParamVarXPos, ParamVarYPos, ParamVarApply, ParamMemoryFrameRate,
}

var floatParams = []string{
	ParamAcquireTime, ParamAcquirePeriod,
}

var stringParams = []string{
	ParamManufacturer, ParamModel, ParamSerialNumber, ParamFirmwareVersion,
	ParamSDKVersion, ParamDriverVersion, ParamStatusMessage, ParamSessionID,
}

// readOnly parameters are mirrored from the camera and never written by clients
var readOnly = map[string]bool{
	ParamManufacturer: true, ParamModel: true, ParamSerialNumber: true,
	ParamFirmwareVersion: true, ParamSDKVersion: true, ParamDriverVersion: true,
	ParamConnected: true, ParamMaxSizeX: true, ParamMaxSizeY: true,
	ParamArraySizeX: true, ParamArraySizeY: true, ParamArraySize: true,
	ParamStatus: true, ParamNumImagesCounter: true, ParamMaxFrames: true,
	ParamPixelBits: true, ParamMemIRIGDay: true, ParamMemIRIGHour: true,
	ParamMemIRIGMin: true, ParamMemIRIGSec: true, ParamMemIRIGUsec: true,
	ParamMemIRIGSigEx: true, ParamFrameStart: true, ParamFrameEnd: true,
	ParamTriggerFrame: true, ParamRecordedFrames: true, ParamSessionID: true,
	ParamMemoryFrameRate: true,
}

// createParams fills t with every parameter the driver uses and sets defaults
func createParams(t *params.Table) error {
	for _, n := range intParams {
		if _, err := t.Create(n, params.Int32); err != nil {
			return err
		}
	}
	for port := 1; port <= 4; port++ {
		if _, err := t.Create(ExtInParam(port), params.Int32); err != nil {
			return err
		}
		if _, err := t.Create(ExtOutParam(port), params.Int32); err != nil {
			return err
		}
	}
	for _, n := range floatParams {
		if _, err := t.Create(n, params.Float64); err != nil {
			return err
		}
	}
	for _, n := range stringParams {
		if _, err := t.Create(n, params.String); err != nil {
			return err
		}
	}
	t.SetString(ParamManufacturer, "Photron")
	t.SetString(ParamDriverVersion, DriverVersion)
	t.SetInt(ParamStatus, StatusDisconnected)
	t.SetInt(ParamImageMode, ImageModeContinuous)
	t.SetInt(ParamNumImages, 1)
	t.SetInt(ParamArrayCallbacks, 1)
	t.SetInt(ParamDataType, int32(ndarray.UInt16))
	t.SetFloat(ParamAcquirePeriod, 0.1)
	return nil
}
