package pdc

import (
	"sync"
	"time"
)

// Simulator is an in-memory PDC device.  It implements SDK with vendor-like
// lists and a recording state machine, enough to exercise a driver without
// hardware.  It is safe for concurrent use.
//
// Recording: SetStatus(StatusRecReady or StatusEndless) arms the camera;
// TriggerIn moves it to StatusRec; the recording completes RecordPolls calls
// to Status later, at which point memory holds the recorded frames and the
// status returns to StatusLive.
type Simulator struct {
	sync.Mutex

	// IP is the address the simulated device answers to
	IP string

	// Name is the device name
	Name string

	// RecordPolls is how many calls to Status a recording lasts
	RecordPolls int

	// IRIGBase is the IRIG time of memory frame zero
	IRIGBase time.Time

	// PixelRate is the max pixels per second, which bounds the resolution
	// list at a given record rate
	PixelRate uint64

	// MemoryPixels is the size of camera memory in pixels
	MemoryPixels uint64

	initialized bool
	open        bool
	devNo       uint32

	status      Status
	pollsLeft   int
	rate        uint32
	rates       []uint32
	resolutions []uint32 // full list, filtered by rate on read
	width       uint32
	height      uint32
	shutter     uint32
	trigger     TriggerSettings
	triggers    []uint32
	irig        uint32
	syncPri     uint32
	extIn       [ExtIOMaxPort]uint32
	extOut      [ExtIOMaxPort]uint32
	bitSel      uint32
	varChan     uint32
	channels    [MaxVariableChannels + 1]ChannelInfo

	memory    FrameInfo
	memRate   uint32
	memWidth  uint32
	memHeight uint32

	liveCounter uint16

	faults map[string]Error

	// Calls counts calls per operation name
	Calls map[string]int
}

// NewSimulator returns a simulated 1024x1024 camera answering at ip
func NewSimulator(ip string) *Simulator {
	s := &Simulator{
		IP:           ip,
		Name:         "FASTCAM SIM",
		RecordPolls:  2,
		IRIGBase:     time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC),
		PixelRate:    1024 * 1024 * 2000,
		MemoryPixels: 1024 * 1024 * 512,
		status:       StatusLive,
		rates:        []uint32{50, 60, 125, 250, 500, 1000, 2000, 4000, 8000, 16000},
		resolutions: []uint32{
			PackResolution(1024, 1024),
			PackResolution(1024, 512),
			PackResolution(512, 512),
			PackResolution(512, 256),
			PackResolution(256, 256),
			PackResolution(256, 128),
			PackResolution(128, 128),
			PackResolution(128, 64),
		},
		triggers: []uint32{
			TriggerStart, TriggerCenter, TriggerEnd, TriggerManual,
			TriggerRandom, TriggerRandomReset, TriggerTwoStageHalf,
		},
		faults: map[string]Error{},
		Calls:  map[string]int{},
	}
	s.rate = 1000
	s.width, s.height = 1024, 1024
	s.shutter = s.rate
	s.trigger = TriggerSettings{Mode: TriggerStart, AFrames: 16, RFrames: 1, RCount: 1}
	s.extIn[0] = ExtInTrigPos
	s.extOut[0] = ExtOutRecPos
	for i := 1; i <= MaxVariableChannels; i++ {
		s.channels[i] = ChannelInfo{Rate: 1000, Width: 1024, Height: 1024}
	}
	return s
}

// FailNext makes the next call to op fail with code.  op is the method name,
// e.g. "SetRecordRate".
func (s *Simulator) FailNext(op string, code Error) {
	s.Lock()
	defer s.Unlock()
	s.faults[op] = code
}

// call counts the call and returns a pending fault, if any.  Must hold the lock.
func (s *Simulator) call(op string) error {
	s.Calls[op]++
	if code, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return code
	}
	return nil
}

// check is call plus device validation.  Must hold the lock.
func (s *Simulator) check(op string, dev uint32) error {
	if err := s.call(op); err != nil {
		return err
	}
	if !s.initialized {
		return ErrUninitialized
	}
	if !s.open || dev != s.devNo {
		return ErrIllegalDevNo
	}
	return nil
}

func (s *Simulator) checkChild(op string, dev, child uint32) error {
	if err := s.check(op, dev); err != nil {
		return err
	}
	if child != ChildNo {
		return ErrIllegalChildNo
	}
	return nil
}

// Init initializes the library
func (s *Simulator) Init() error {
	s.Lock()
	defer s.Unlock()
	if err := s.call("Init"); err != nil {
		return err
	}
	if s.initialized {
		return ErrInitialized
	}
	s.initialized = true
	return nil
}

// DetectDevice finds the simulated device if ip matches, or always when autoDetect
func (s *Simulator) DetectDevice(ip string, autoDetect bool) ([]DetectInfo, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.call("DetectDevice"); err != nil {
		return nil, err
	}
	if !s.initialized {
		return nil, ErrUninitialized
	}
	if !autoDetect && ip != s.IP {
		return nil, ErrNoDevice
	}
	return []DetectInfo{{DeviceCode: 0x4A, InterfaceCode: InterfaceGigE, IPAddress: s.IP}}, nil
}

// OpenDevice opens the device
func (s *Simulator) OpenDevice(info DetectInfo) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.call("OpenDevice"); err != nil {
		return 0, err
	}
	if !s.initialized {
		return 0, ErrUninitialized
	}
	if info.IPAddress != s.IP {
		return 0, ErrNoDevice
	}
	s.devNo++
	s.open = true
	return s.devNo, nil
}

// CloseDevice closes the device
func (s *Simulator) CloseDevice(dev uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("CloseDevice", dev); err != nil {
		return err
	}
	s.open = false
	return nil
}

// DeviceCode returns the model code
func (s *Simulator) DeviceCode(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 0x4A, s.check("DeviceCode", dev)
}

// DeviceName returns the model name
func (s *Simulator) DeviceName(dev uint32) (string, error) {
	s.Lock()
	defer s.Unlock()
	return s.Name, s.check("DeviceName", dev)
}

// DeviceID returns the device ID
func (s *Simulator) DeviceID(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 7, s.check("DeviceID", dev)
}

// ProductID returns the product ID
func (s *Simulator) ProductID(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 1021, s.check("ProductID", dev)
}

// LotID returns the lot ID
func (s *Simulator) LotID(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 3, s.check("LotID", dev)
}

// IndividualID returns the serial number
func (s *Simulator) IndividualID(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 4242, s.check("IndividualID", dev)
}

// Version returns the firmware version in 1/100 units
func (s *Simulator) Version(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 312, s.check("Version", dev)
}

// MaxChildDeviceCount returns 1
func (s *Simulator) MaxChildDeviceCount(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 1, s.check("MaxChildDeviceCount", dev)
}

// ChildDeviceCount returns 1
func (s *Simulator) ChildDeviceCount(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 1, s.check("ChildDeviceCount", dev)
}

// IsFunction reports every function the simulator implements as available
func (s *Simulator) IsFunction(dev, child uint32, fn Function) (bool, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("IsFunction", dev, child); err != nil {
		return false, err
	}
	switch fn {
	case FunctionIRIG, FunctionSyncPriority, FunctionVariable,
		FunctionShutterFps, FunctionTransferOpt, FunctionEndless:
		return true, nil
	}
	return false, nil
}

// MaxResolution returns the sensor size
func (s *Simulator) MaxResolution(dev, child uint32) (uint32, uint32, error) {
	s.Lock()
	defer s.Unlock()
	w, h := UnpackResolution(s.resolutions[0])
	return w, h, s.checkChild("MaxResolution", dev, child)
}

// MaxBitDepth returns 12
func (s *Simulator) MaxBitDepth(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 12, s.checkChild("MaxBitDepth", dev, child)
}

// ExternalCount returns the number of external in and out ports
func (s *Simulator) ExternalCount(dev uint32) (uint32, uint32, error) {
	s.Lock()
	defer s.Unlock()
	return 3, 4, s.check("ExternalCount", dev)
}

// Status returns the status, advancing a recording in progress
func (s *Simulator) Status(dev uint32) (Status, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.check("Status", dev); err != nil {
		return 0, err
	}
	if s.status == StatusRec {
		s.pollsLeft--
		if s.pollsLeft <= 0 {
			s.finishRecording()
		}
	}
	return s.status, nil
}

// finishRecording fills memory with a recording.  Must hold the lock.
func (s *Simulator) finishRecording() {
	limit := s.maxFrames()
	n := s.trigger.AFrames
	if n == 0 || n > limit {
		n = limit
	}
	info := FrameInfo{Start: 0, End: int32(n) - 1, Recorded: n}
	switch s.trigger.Mode {
	case TriggerEnd:
		info.Trigger = info.End
	case TriggerCenter:
		info.Trigger = info.End / 2
	default:
		info.Trigger = info.Start
	}
	s.memory = info
	s.memRate = s.rate
	s.memWidth, s.memHeight = s.width, s.height
	s.status = StatusLive
}

// SetStatus changes the status.  StatusRec cannot be set directly.
func (s *Simulator) SetStatus(dev uint32, st Status) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("SetStatus", dev); err != nil {
		return err
	}
	switch st {
	case StatusLive, StatusPlayback, StatusRecReady, StatusEndless:
		s.status = st
		return nil
	}
	return ErrIllegalValue
}

// RecordRate returns the record rate
func (s *Simulator) RecordRate(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.rate, s.checkChild("RecordRate", dev, child)
}

// SetRecordRate sets the record rate, which must be in the list.
// the resolution is reduced if it no longer fits.
func (s *Simulator) SetRecordRate(dev, child, rate uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("SetRecordRate", dev, child); err != nil {
		return err
	}
	if !contains(s.rates, rate) {
		return ErrIllegalValue
	}
	s.rate = rate
	if !contains(s.resolutionList(), PackResolution(s.width, s.height)) {
		s.width, s.height = UnpackResolution(s.resolutionList()[0])
	}
	if s.shutter < rate {
		s.shutter = rate
	}
	return nil
}

// RecordRateList returns the ascending list of record rates
func (s *Simulator) RecordRateList(dev, child uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("RecordRateList", dev, child); err != nil {
		return nil, err
	}
	return append([]uint32(nil), s.rates...), nil
}

// resolutionList is the list of resolutions that fit in the pixel rate.
// Must hold the lock.
func (s *Simulator) resolutionList() []uint32 {
	out := []uint32{}
	for _, r := range s.resolutions {
		w, h := UnpackResolution(r)
		if uint64(w)*uint64(h)*uint64(s.rate) <= s.PixelRate {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, s.resolutions[len(s.resolutions)-1])
	}
	return out
}

// Resolution returns the current width and height
func (s *Simulator) Resolution(dev, child uint32) (uint32, uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.width, s.height, s.checkChild("Resolution", dev, child)
}

// SetResolution sets the width and height, which must be in the list
func (s *Simulator) SetResolution(dev, child, width, height uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("SetResolution", dev, child); err != nil {
		return err
	}
	if !contains(s.resolutionList(), PackResolution(width, height)) {
		return ErrIllegalValue
	}
	s.width, s.height = width, height
	return nil
}

// ResolutionList returns the resolutions valid at the current record rate,
// largest first
func (s *Simulator) ResolutionList(dev, child uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("ResolutionList", dev, child); err != nil {
		return nil, err
	}
	return s.resolutionList(), nil
}

// ShutterSpeedFps returns the shutter speed as 1/exposure
func (s *Simulator) ShutterSpeedFps(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.shutter, s.checkChild("ShutterSpeedFps", dev, child)
}

// SetShutterSpeedFps sets the shutter speed, which must be in the list
func (s *Simulator) SetShutterSpeedFps(dev, child, fps uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("SetShutterSpeedFps", dev, child); err != nil {
		return err
	}
	if !contains(s.shutterList(), fps) {
		return ErrIllegalValue
	}
	s.shutter = fps
	return nil
}

// shutterList is doublings of the record rate.  Must hold the lock.
func (s *Simulator) shutterList() []uint32 {
	out := []uint32{}
	for f := s.rate; f <= 1000000; f *= 2 {
		out = append(out, f)
	}
	return out
}

// ShutterSpeedFpsList returns the valid shutter speeds, ascending
func (s *Simulator) ShutterSpeedFpsList(dev, child uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("ShutterSpeedFpsList", dev, child); err != nil {
		return nil, err
	}
	return s.shutterList(), nil
}

// maxFrames is the number of frames that fit in memory.  Must hold the lock.
func (s *Simulator) maxFrames() uint32 {
	return uint32(s.MemoryPixels / (uint64(s.width) * uint64(s.height)))
}

// MaxFrames returns the number of frames memory holds and the partition count
func (s *Simulator) MaxFrames(dev, child uint32) (uint32, uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.maxFrames(), 1, s.checkChild("MaxFrames", dev, child)
}

// TriggerMode returns the trigger settings
func (s *Simulator) TriggerMode(dev uint32) (TriggerSettings, error) {
	s.Lock()
	defer s.Unlock()
	return s.trigger, s.check("TriggerMode", dev)
}

// SetTriggerMode sets the trigger settings.  Two-stage modes are accepted
// when the base two-stage mode is in the list.
func (s *Simulator) SetTriggerMode(dev uint32, t TriggerSettings) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("SetTriggerMode", dev); err != nil {
		return err
	}
	if !contains(s.triggers, t.Mode&0xFF000000) {
		return ErrIllegalValue
	}
	s.trigger = t
	return nil
}

// TriggerModeList returns the available trigger modes
func (s *Simulator) TriggerModeList(dev uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.check("TriggerModeList", dev); err != nil {
		return nil, err
	}
	return append([]uint32(nil), s.triggers...), nil
}

// TriggerIn issues a software trigger
func (s *Simulator) TriggerIn(dev uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("TriggerIn", dev); err != nil {
		return err
	}
	if s.status == StatusRecReady || s.status == StatusEndless {
		s.status = StatusRec
		s.pollsLeft = s.RecordPolls
	}
	return nil
}

// IRIG returns 1 if IRIG is on
func (s *Simulator) IRIG(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.irig, s.check("IRIG", dev)
}

// SetIRIG turns IRIG on (1) or off (0)
func (s *Simulator) SetIRIG(dev, mode uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("SetIRIG", dev); err != nil {
		return err
	}
	if mode > 1 {
		return ErrIllegalValue
	}
	s.irig = mode
	return nil
}

// SyncPriority returns the sync priority
func (s *Simulator) SyncPriority(dev uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.syncPri, s.check("SyncPriority", dev)
}

// SetSyncPriority sets the sync priority
func (s *Simulator) SetSyncPriority(dev, mode uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("SetSyncPriority", dev); err != nil {
		return err
	}
	if mode != SyncPriorityMaster && mode != SyncPrioritySlave {
		return ErrIllegalValue
	}
	s.syncPri = mode
	return nil
}

// SyncPriorityList returns the sync priority options
func (s *Simulator) SyncPriorityList(dev uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	return []uint32{SyncPriorityMaster, SyncPrioritySlave}, s.check("SyncPriorityList", dev)
}

func (s *Simulator) checkPort(op string, dev, port, nports uint32) error {
	if err := s.check(op, dev); err != nil {
		return err
	}
	if port < 1 || port > nports {
		return ErrIllegalValue
	}
	return nil
}

var (
	simExtInList  = []uint32{ExtInNone, ExtInTrigPos, ExtInTrigNeg, ExtInSyncPos, ExtInSyncNeg, ExtInIRIG}
	simExtOutList = []uint32{ExtOutNone, ExtOutRecPos, ExtOutRecNeg, ExtOutTrigPos, ExtOutTrigNeg, ExtOutExposePos}
)

// ExternalInMode returns the signal on input port (1-based)
func (s *Simulator) ExternalInMode(dev, port uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("ExternalInMode", dev, port, 3); err != nil {
		return 0, err
	}
	return s.extIn[port-1], nil
}

// SetExternalInMode sets the signal on input port (1-based)
func (s *Simulator) SetExternalInMode(dev, port, mode uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("SetExternalInMode", dev, port, 3); err != nil {
		return err
	}
	if !contains(simExtInList, mode) {
		return ErrIllegalValue
	}
	s.extIn[port-1] = mode
	return nil
}

// ExternalInModeList returns the valid signals for input port (1-based)
func (s *Simulator) ExternalInModeList(dev, port uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("ExternalInModeList", dev, port, 3); err != nil {
		return nil, err
	}
	return append([]uint32(nil), simExtInList...), nil
}

// ExternalOutMode returns the signal on output port (1-based)
func (s *Simulator) ExternalOutMode(dev, port uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("ExternalOutMode", dev, port, 4); err != nil {
		return 0, err
	}
	return s.extOut[port-1], nil
}

// SetExternalOutMode sets the signal on output port (1-based)
func (s *Simulator) SetExternalOutMode(dev, port, mode uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("SetExternalOutMode", dev, port, 4); err != nil {
		return err
	}
	if !contains(simExtOutList, mode) {
		return ErrIllegalValue
	}
	s.extOut[port-1] = mode
	return nil
}

// ExternalOutModeList returns the valid signals for output port (1-based)
func (s *Simulator) ExternalOutModeList(dev, port uint32) ([]uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkPort("ExternalOutModeList", dev, port, 4); err != nil {
		return nil, err
	}
	return append([]uint32(nil), simExtOutList...), nil
}

// BitDepth returns the transferred bit depth, 8 when an 8 bit selection is active
func (s *Simulator) BitDepth(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("BitDepth", dev, child); err != nil {
		return 0, err
	}
	if s.bitSel == BitSel16 {
		return 12, nil
	}
	return 8, nil
}

// SetTransferOption sets the 8 bit selection
func (s *Simulator) SetTransferOption(dev, child, bitSel uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("SetTransferOption", dev, child); err != nil {
		return err
	}
	if bitSel > BitSelLower8 {
		return ErrIllegalValue
	}
	s.bitSel = bitSel
	return nil
}

// fill writes a ramp offset by seed into buf.  Must hold the lock.
func (s *Simulator) fill(buf []byte, width, height, bitDepth uint32, seed uint16) error {
	bpp := uint32(2)
	if bitDepth <= 8 {
		bpp = 1
	}
	if len(buf) < FrameBytes(width, height, bitDepth) {
		return ErrAllocateFailed
	}
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			v := uint16(x+y) + seed
			i := y*width + x
			if bpp == 1 {
				buf[i] = byte(v)
			} else {
				buf[2*i] = byte(v)
				buf[2*i+1] = byte(v >> 8 & 0x0F)
			}
		}
	}
	return nil
}

// LiveImage copies a live frame into buf.  The camera must be live.
func (s *Simulator) LiveImage(dev, child, bitDepth uint32, buf []byte) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("LiveImage", dev, child); err != nil {
		return err
	}
	if s.status != StatusLive && s.status != StatusRecReady && s.status != StatusEndless {
		return ErrNotLive
	}
	s.liveCounter++
	return s.fill(buf, s.width, s.height, bitDepth, s.liveCounter)
}

// MemFrameInfo returns the extent of the last recording
func (s *Simulator) MemFrameInfo(dev, child uint32) (FrameInfo, error) {
	s.Lock()
	defer s.Unlock()
	return s.memory, s.checkChild("MemFrameInfo", dev, child)
}

// MemResolution returns the width and height the last recording was made at
func (s *Simulator) MemResolution(dev, child uint32) (uint32, uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.memWidth, s.memHeight, s.checkChild("MemResolution", dev, child)
}

// MemRecordRate returns the record rate of the last recording
func (s *Simulator) MemRecordRate(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.memRate, s.checkChild("MemRecordRate", dev, child)
}

func (s *Simulator) checkFrame(frame int32) error {
	if s.memory.Recorded == 0 || frame < s.memory.Start || frame > s.memory.End {
		return ErrIllegalValue
	}
	if s.status != StatusPlayback {
		return ErrNotPlayback
	}
	return nil
}

// MemImage copies recorded frame into buf.  The camera must be in playback.
func (s *Simulator) MemImage(dev, child uint32, frame int32, bitDepth uint32, buf []byte) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("MemImage", dev, child); err != nil {
		return err
	}
	if err := s.checkFrame(frame); err != nil {
		return err
	}
	return s.fill(buf, s.memWidth, s.memHeight, bitDepth, uint16(frame-s.memory.Start))
}

// MemIRIG returns the IRIG time of recorded frame.  The camera must be in playback.
func (s *Simulator) MemIRIG(dev, child uint32, frame int32) (IRIGInfo, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("MemIRIG", dev, child); err != nil {
		return IRIGInfo{}, err
	}
	if err := s.checkFrame(frame); err != nil {
		return IRIGInfo{}, err
	}
	if s.irig == 0 {
		return IRIGInfo{}, nil
	}
	dt := time.Duration(frame-s.memory.Start) * time.Second / time.Duration(s.memRate)
	t := s.IRIGBase.Add(dt)
	return IRIGInfo{
		DayOfYear:    uint32(t.YearDay()),
		Hour:         uint32(t.Hour()),
		Minute:       uint32(t.Minute()),
		Second:       uint32(t.Second()),
		Microsecond:  uint32(t.Nanosecond() / 1000),
		SignalExists: true,
	}, nil
}

// VariableChannel returns the selected variable channel, 0 if off
func (s *Simulator) VariableChannel(dev, child uint32) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	return s.varChan, s.checkChild("VariableChannel", dev, child)
}

// SetVariableChannel selects a variable channel, applying its rate and geometry
func (s *Simulator) SetVariableChannel(dev, child, channel uint32) error {
	s.Lock()
	defer s.Unlock()
	if err := s.checkChild("SetVariableChannel", dev, child); err != nil {
		return err
	}
	if channel > MaxVariableChannels {
		return ErrIllegalValue
	}
	s.varChan = channel
	if channel != 0 {
		c := s.channels[channel]
		s.rate, s.width, s.height = c.Rate, c.Width, c.Height
	}
	return nil
}

// VariableChannelInfo returns the settings of a variable channel
func (s *Simulator) VariableChannelInfo(dev, channel uint32) (ChannelInfo, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.check("VariableChannelInfo", dev); err != nil {
		return ChannelInfo{}, err
	}
	if channel < 1 || channel > MaxVariableChannels {
		return ChannelInfo{}, ErrIllegalValue
	}
	return s.channels[channel], nil
}

// SetVariableChannelInfo sets the settings of a variable channel.  The
// geometry must fit the sensor and be a multiple of 8 (width) and 4 (height).
func (s *Simulator) SetVariableChannelInfo(dev, channel uint32, info ChannelInfo) error {
	s.Lock()
	defer s.Unlock()
	if err := s.check("SetVariableChannelInfo", dev); err != nil {
		return err
	}
	if channel < 1 || channel > MaxVariableChannels {
		return ErrIllegalValue
	}
	mw, mh := UnpackResolution(s.resolutions[0])
	if info.Width == 0 || info.Height == 0 || info.Width%8 != 0 || info.Height%4 != 0 ||
		info.XPos+info.Width > mw || info.YPos+info.Height > mh || info.Rate == 0 {
		return ErrIllegalValue
	}
	s.channels[channel] = info
	return nil
}

func contains(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
