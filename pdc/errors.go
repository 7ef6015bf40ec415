package pdc

import "fmt"

// return values of every PDC_* call
const (
	Failed    uint32 = 0
	Succeeded uint32 = 1
)

// error codes the driver inspects directly
const (
	ErrNoError          Error = 1
	ErrUninitialized    Error = 2
	ErrIllegalDevNo     Error = 3
	ErrIllegalChildNo   Error = 4
	ErrIllegalValue     Error = 5
	ErrAllocateFailed   Error = 6
	ErrInitialized      Error = 7
	ErrNoDevice         Error = 8
	ErrTimeout          Error = 9
	ErrFunctionFailed   Error = 10
	ErrNotSupported     Error = 12
	ErrSendError        Error = 15
	ErrReceiveError     Error = 16
	ErrCloseError       Error = 17
	ErrNotLive          Error = 28
	ErrNotPlayback      Error = 29
	ErrNotRecReady      Error = 30
	ErrUnsupportedTrans Error = 40
)

// ErrCodes is a map of error codes to their names in PDCERROR.h
var ErrCodes = map[Error]string{
	1:  "PDC_ERROR_NOERROR",
	2:  "PDC_ERROR_UNINITIALIZE",
	3:  "PDC_ERROR_ILLEGAL_DEV_NO",
	4:  "PDC_ERROR_ILLEGAL_CHILD_NO",
	5:  "PDC_ERROR_ILLEGAL_VALUE",
	6:  "PDC_ERROR_ALLOCATE_FAILED",
	7:  "PDC_ERROR_INITIALIZED",
	8:  "PDC_ERROR_NO_DEVICE",
	9:  "PDC_ERROR_TIMEOUT",
	10: "PDC_ERROR_FUNCTION_FAILED",
	11: "PDC_ERROR_FILE_OPEN_ERROR",
	12: "PDC_ERROR_NOT_SUPPORTED",
	13: "PDC_ERROR_DRAW_FAILED",
	14: "PDC_ERROR_DATA_ERROR",
	15: "PDC_ERROR_SEND_ERROR",
	16: "PDC_ERROR_RECEIVE_ERROR",
	17: "PDC_ERROR_CLOSE_ERROR",
	// no 18-27
	28: "PDC_ERROR_NOT_LIVE",
	29: "PDC_ERROR_NOT_PLAYBACK",
	30: "PDC_ERROR_NOT_RECREADY",
	// no 31-39
	40: "PDC_ERROR_UNSUPPORTED_TRANSFER",
}

// Error is a PDC error code with nice formatting
type Error uint32

func (e Error) Error() string {
	if s, ok := ErrCodes[e]; ok {
		return fmt.Sprintf("%d - %s", uint32(e), s)
	}
	return fmt.Sprintf("%d - UNKNOWN_ERROR_CODE", uint32(e))
}

// Check returns nil if ret is Succeeded, otherwise the error code as an error
func Check(ret, code uint32) error {
	if ret == Succeeded {
		return nil
	}
	if code == uint32(ErrNoError) {
		// a failed call that did not set the code
		return ErrFunctionFailed
	}
	return Error(code)
}
