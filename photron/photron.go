/*Package photron exposes a Photron high speed camera as a detector.

A Camera sits between the PDC SDK and a parameter table.  It connects to one
camera by IP address, caches the lists of valid settings the camera reports,
mirrors every setting into named parameters, validates writes against the
cached lists before forwarding them to the SDK, and runs three workers which
copy frames into pooled arrays and publish them to plugins:

 - live: reads live images at the acquire period
 - record watch: polls the camera status while a triggered recording runs
 - playback: loops over a range of recorded frames in camera memory

A single lock serializes the parameter writes and the device handle.  Workers
release it only around the blocking SDK call or the publish.
*/
package photron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nasa-jpl/photron/camera"
	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/params"
	"github.com/nasa-jpl/photron/pdc"
	"golang.org/x/sync/errgroup"
)

// DriverVersion is the version of this driver, mirrored into DRIVER_VERSION
const DriverVersion = "2.1.0"

var (
	// ErrNotConnected is returned when an operation needs the camera and it is not connected
	ErrNotConnected = errors.New("photron: camera not connected")

	// ErrInvalidValue is returned when a write is outside the allowed values
	ErrInvalidValue = errors.New("photron: invalid value")

	// ErrReadOnly is returned when a read only parameter is written
	ErrReadOnly = errors.New("photron: parameter is read only")

	// ErrUnknownParam is returned when a parameter does not exist
	ErrUnknownParam = errors.New("photron: unknown parameter")

	// ErrNotSupported is returned when the camera lacks the function a write needs
	ErrNotSupported = errors.New("photron: function not supported by this camera")
)

// Config holds the arguments used to create a Camera
type Config struct {
	// PortName identifies the camera in the registry and in log messages
	PortName string `yaml:"PortName"`

	// IPAddress is the dotted quad of the camera
	IPAddress string `yaml:"IPAddress"`

	// AutoDetect searches the network instead of using IPAddress
	AutoDetect bool `yaml:"AutoDetect"`

	// MaxBuffers limits the number of frame buffers.  0 is unlimited.
	MaxBuffers int `yaml:"MaxBuffers"`

	// MaxMemory limits the bytes of frame buffers.  0 is unlimited.
	MaxMemory int `yaml:"MaxMemory"`

	// Priority and StackSize are accepted for compatibility with existing
	// startup scripts and shown by Report.  The Go runtime schedules the
	// workers.
	Priority  int `yaml:"Priority"`
	StackSize int `yaml:"StackSize"`

	// StatusPoll is the interval the record watch polls the camera status at
	StatusPoll time.Duration `yaml:"StatusPoll"`
}

// deviceInfo holds what getCameraInfo learns.  It does not change while connected.
type deviceInfo struct {
	functions        map[pdc.Function]bool
	deviceCode       uint32
	deviceName       string
	deviceID         uint32
	productID        uint32
	lotID            uint32
	individualID     uint32
	version          uint32 // 1/100 units
	maxChildDevCount uint32
	childDevCount    uint32
	sensorWidth      uint32
	sensorHeight     uint32
	sensorBits       uint32
	inPorts          uint32
	outPorts         uint32
	extInModeList    [pdc.ExtIOMaxPort][]uint32
	extOutModeList   [pdc.ExtIOMaxPort][]uint32
	syncPriorityList []uint32
}

var _ camera.Detector = (*Camera)(nil)

// Camera is a Photron camera behind the PDC SDK
type Camera struct {
	cfg Config
	sdk pdc.SDK
	msg *log.Logger

	params *params.Table
	pool   *ndarray.Pool
	pub    *ndarray.Publisher

	// mu is the coarse lock over the device handle, caches, and param writes
	mu sync.Mutex

	connected bool
	devNo     uint32
	childNo   uint32

	info deviceInfo
	res  resolution
	set  settings

	// bitSel is the transfer option, which the SDK cannot read back
	bitSel uint32

	// memory is the extent of the recording in camera memory, made at
	// memWidth x memHeight and memRate fps
	memory    pdc.FrameInfo
	memWidth  uint32
	memHeight uint32
	memRate   uint32

	// triggerModes is the list of trigger mode indices the camera supports
	triggerModes []int

	// preIRIGStart and postIRIGStart bracket the call that turned IRIG on
	preIRIGStart  time.Time
	postIRIGStart time.Time

	abort     atomic.Bool
	startLive chan struct{}
	stopLive  chan struct{}
	startRec  chan struct{}
	stopRec   chan struct{}
	startPB   chan struct{}
	stopPB    chan struct{}

	cancel    context.CancelFunc
	group     *errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// New creates a camera, its parameter table and buffer pool, and starts its
// workers.  It does not connect; call Connect.  A nil logger logs to stdout.
func New(sdk pdc.SDK, cfg Config, msg *log.Logger) (*Camera, error) {
	if sdk == nil {
		return nil, fmt.Errorf("photron: nil SDK")
	}
	if cfg.StatusPoll <= 0 {
		cfg.StatusPoll = 100 * time.Millisecond
	}
	if cfg.MaxBuffers < 0 {
		cfg.MaxBuffers = 0
	}
	if cfg.MaxMemory < 0 {
		cfg.MaxMemory = 0
	}
	if msg == nil {
		msg = log.New(os.Stdout, "photron "+cfg.PortName+": ", log.LstdFlags)
	}
	c := &Camera{
		cfg:       cfg,
		sdk:       sdk,
		msg:       msg,
		params:    params.New(),
		pool:      ndarray.NewPool(cfg.MaxBuffers, cfg.MaxMemory),
		pub:       ndarray.NewPublisher(msg),
		childNo:   pdc.ChildNo,
		startLive: make(chan struct{}, 1),
		stopLive:  make(chan struct{}, 1),
		startRec:  make(chan struct{}, 1),
		stopRec:   make(chan struct{}, 1),
		startPB:   make(chan struct{}, 1),
		stopPB:    make(chan struct{}, 1),
	}
	if err := createParams(c.params); err != nil {
		return nil, fmt.Errorf("photron: could not create parameters: %w", err)
	}
	if err := c.createStaticEnums(); err != nil {
		return nil, fmt.Errorf("photron: could not create enums: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)
	c.cancel = cancel
	c.group = grp
	grp.Go(func() error { return c.liveTask(ctx) })
	grp.Go(func() error { return c.recTask(ctx) })
	grp.Go(func() error { return c.playbackTask(ctx) })
	return c, nil
}

// Close disconnects the camera and stops the workers.  It is safe to call
// more than once.
func (c *Camera) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		var err error
		if c.connected {
			err = c.disconnectCamera()
		}
		c.mu.Unlock()
		c.cancel()
		werr := c.group.Wait()
		if err == nil {
			err = werr
		}
		c.closeErr = err
	})
	return c.closeErr
}

// PortName returns the name the camera was configured with
func (c *Camera) PortName() string {
	return c.cfg.PortName
}

// Config returns the configuration the camera was created with
func (c *Camera) Config() Config {
	return c.cfg
}

// Params returns the parameter table
func (c *Camera) Params() *params.Table {
	return c.params
}

// Publisher returns the publisher frames are sent to.  Attach plugins to it.
func (c *Camera) Publisher() *ndarray.Publisher {
	return c.pub
}

// Connected returns true if the camera is connected
func (c *Camera) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect connects to the camera and fills the caches.  Connecting an
// already connected camera reconnects it.
func (c *Camera) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		if err := c.disconnectCamera(); err != nil {
			return err
		}
	}
	return c.connectCamera()
}

// Disconnect stops acquisition and closes the device.  Parameter values are kept.
func (c *Camera) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	return c.disconnectCamera()
}

// fail wraps err from a vendor call and logs it
func (c *Camera) fail(what string, err error) error {
	err = fmt.Errorf("photron: could not %s: %w", what, err)
	c.msg.Println(err)
	return err
}

// connectCamera must be called with the lock held
func (c *Camera) connectCamera() error {
	c.params.SetInt(ParamStatus, StatusInitializing)
	found, err := c.sdk.DetectDevice(c.cfg.IPAddress, c.cfg.AutoDetect)
	if err != nil {
		c.params.SetInt(ParamStatus, StatusDisconnected)
		return c.fail("detect camera at "+c.cfg.IPAddress, err)
	}
	if len(found) == 0 {
		c.params.SetInt(ParamStatus, StatusDisconnected)
		return c.fail("detect camera at "+c.cfg.IPAddress, pdc.ErrNoDevice)
	}
	dev, err := c.sdk.OpenDevice(found[0])
	if err != nil {
		c.params.SetInt(ParamStatus, StatusDisconnected)
		return c.fail("open device", err)
	}
	c.devNo = dev
	c.childNo = pdc.ChildNo

	err = c.getCameraInfo()
	if err == nil {
		err = c.updateResolution()
	}
	if err == nil {
		err = c.readParameters()
	}
	if err == nil {
		err = c.createDynamicEnums()
	}
	if err != nil {
		c.sdk.CloseDevice(dev)
		c.info = deviceInfo{}
		c.res = resolution{}
		c.set = settings{}
		c.triggerModes = nil
		c.params.SetInt(ParamStatus, StatusDisconnected)
		c.params.SetString(ParamStatusMessage, err.Error())
		return err
	}
	c.getGeometry()
	c.memory = pdc.FrameInfo{}
	c.memWidth, c.memHeight, c.memRate = 0, 0, 0
	c.connected = true
	c.params.SetInt(ParamConnected, 1)
	c.params.SetInt(ParamStatus, StatusIdle)
	c.params.SetString(ParamStatusMessage, "Connected")
	c.msg.Printf("connected to %s (device %d) at %s", c.info.deviceName, c.devNo, found[0].IPAddress)
	return nil
}

// disconnectCamera must be called with the lock held
func (c *Camera) disconnectCamera() error {
	c.abortAcquisition()
	err := c.sdk.CloseDevice(c.devNo)
	c.connected = false
	c.params.SetInt(ParamConnected, 0)
	c.params.SetInt(ParamAcquire, 0)
	c.params.SetInt(ParamPlaybackPlay, 0)
	c.params.SetInt(ParamStatus, StatusDisconnected)
	c.params.SetString(ParamStatusMessage, "Disconnected")
	if err != nil {
		return c.fail("close device", err)
	}
	c.msg.Printf("disconnected device %d", c.devNo)
	return nil
}

// getCameraInfo reads identification and capabilities.  Must hold the lock.
func (c *Camera) getCameraInfo() error {
	var (
		info deviceInfo
		err  error
		dev  = c.devNo
	)
	info.functions = map[pdc.Function]bool{}
	for fn := pdc.Function(2); fn < pdc.MaxFunction; fn++ {
		ok, err := c.sdk.IsFunction(dev, c.childNo, fn)
		if err != nil {
			return c.fail(fmt.Sprintf("query function %d", fn), err)
		}
		info.functions[fn] = ok
	}
	if info.deviceCode, err = c.sdk.DeviceCode(dev); err != nil {
		return c.fail("get device code", err)
	}
	if info.deviceName, err = c.sdk.DeviceName(dev); err != nil {
		return c.fail("get device name", err)
	}
	if info.deviceID, err = c.sdk.DeviceID(dev); err != nil {
		return c.fail("get device ID", err)
	}
	if info.productID, err = c.sdk.ProductID(dev); err != nil {
		return c.fail("get product ID", err)
	}
	if info.lotID, err = c.sdk.LotID(dev); err != nil {
		return c.fail("get lot ID", err)
	}
	if info.individualID, err = c.sdk.IndividualID(dev); err != nil {
		return c.fail("get individual ID", err)
	}
	if info.version, err = c.sdk.Version(dev); err != nil {
		return c.fail("get version", err)
	}
	if info.maxChildDevCount, err = c.sdk.MaxChildDeviceCount(dev); err != nil {
		return c.fail("get max child device count", err)
	}
	if info.childDevCount, err = c.sdk.ChildDeviceCount(dev); err != nil {
		return c.fail("get child device count", err)
	}
	if info.sensorWidth, info.sensorHeight, err = c.sdk.MaxResolution(dev, c.childNo); err != nil {
		return c.fail("get max resolution", err)
	}
	if info.sensorBits, err = c.sdk.MaxBitDepth(dev, c.childNo); err != nil {
		return c.fail("get max bit depth", err)
	}
	if info.inPorts, info.outPorts, err = c.sdk.ExternalCount(dev); err != nil {
		return c.fail("get external port count", err)
	}
	if info.inPorts > pdc.ExtIOMaxPort {
		info.inPorts = pdc.ExtIOMaxPort
	}
	if info.outPorts > pdc.ExtIOMaxPort {
		info.outPorts = pdc.ExtIOMaxPort
	}
	for port := uint32(1); port <= info.inPorts; port++ {
		if info.extInModeList[port-1], err = c.sdk.ExternalInModeList(dev, port); err != nil {
			return c.fail(fmt.Sprintf("get external in mode list of port %d", port), err)
		}
	}
	for port := uint32(1); port <= info.outPorts; port++ {
		if info.extOutModeList[port-1], err = c.sdk.ExternalOutModeList(dev, port); err != nil {
			return c.fail(fmt.Sprintf("get external out mode list of port %d", port), err)
		}
	}
	if info.functions[pdc.FunctionSyncPriority] {
		if info.syncPriorityList, err = c.sdk.SyncPriorityList(dev); err != nil {
			return c.fail("get sync priority list", err)
		}
	}
	c.info = info

	c.params.SetString(ParamModel, info.deviceName)
	c.params.SetString(ParamSerialNumber, fmt.Sprintf("%d", info.individualID))
	c.params.SetString(ParamFirmwareVersion, fmt.Sprintf("%.2f", float64(info.version)/100))
	c.params.SetString(ParamSDKVersion, fmt.Sprintf("PDC wrapper %d", pdc.WRAPVER))
	c.params.SetInt(ParamMaxSizeX, int32(info.sensorWidth))
	c.params.SetInt(ParamMaxSizeY, int32(info.sensorHeight))
	return nil
}

// requireConnected returns ErrNotConnected if the camera is not connected.
// Must hold the lock.
func (c *Camera) requireConnected() error {
	if !c.connected {
		return ErrNotConnected
	}
	return nil
}

// signal does a non-blocking send of an event
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// drain empties a pending event
func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
