/*Package camera describes a standard set of interfaces for control of cameras

The Minimal type contains connection and reporting, while ParamDriver holds
the parameter table of a driver in the areaDetector style.  A Detector is both.
*/
package camera

import (
	"io"

	"github.com/nasa-jpl/photron/params"
)

// Minimal describes a minimal camera interface with only the basics.
type Minimal interface {
	// Connect opens the camera.  Connecting an open camera reopens it.
	Connect() error

	// Disconnect stops any acquisition and closes the camera.  Cached
	// values are kept so they can be restored on the next Connect
	Disconnect() error

	// Connected returns true if the camera is open
	Connected() bool

	// Report writes a human readable description of the camera.  Higher
	// details print more.
	Report(w io.Writer, details int)
}

// ParamDriver describes a driver whose settings are named parameters
type ParamDriver interface {
	// Params returns the driver's parameter table.  Writes through the
	// table skip the driver; use the Write methods instead.
	Params() *params.Table

	// WriteInt32 validates and applies an integer parameter
	WriteInt32(name string, value int32) error

	// WriteFloat64 validates and applies a float parameter
	WriteFloat64(name string, value float64) error

	// WriteString validates and applies a string parameter
	WriteString(name string, value string) error

	// ReadEnum returns the choices of an enum parameter
	ReadEnum(name string) (params.Enum, error)
}

// Detector is a camera driven through a parameter table
type Detector interface {
	Minimal
	ParamDriver
}
