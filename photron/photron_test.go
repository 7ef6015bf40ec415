package photron

import (
	"bytes"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/pdc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIP = "192.168.0.10"

func newTestCamera(t *testing.T) (*Camera, *pdc.Simulator) {
	t.Helper()
	sim := pdc.NewSimulator(testIP)
	require.NoError(t, sim.Init())
	cfg := Config{PortName: "PHOTRON1", IPAddress: testIP, StatusPoll: time.Millisecond}
	cam, err := New(sim, cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { cam.Close() })
	return cam, sim
}

func connectedCamera(t *testing.T) (*Camera, *pdc.Simulator) {
	t.Helper()
	cam, sim := newTestCamera(t)
	require.NoError(t, cam.Connect())
	return cam, sim
}

func intParam(t *testing.T, cam *Camera, name string) int32 {
	t.Helper()
	v, err := cam.Params().Int(name)
	require.NoError(t, err)
	return v
}

// smallFrames shrinks the geometry to 128x64 to keep frame copies fast
func smallFrames(t *testing.T, cam *Camera) {
	t.Helper()
	require.NoError(t, cam.WriteInt32(ParamSizeX, 128))
	require.NoError(t, cam.WriteInt32(ParamSizeY, 64))
}

func TestStepTowards(t *testing.T) {
	list := []uint32{128, 256, 512, 1024}
	cases := []struct {
		req, cur, want uint32
	}{
		{256, 1024, 256},
		{300, 256, 512},
		{300, 512, 256},
		{2000, 1024, 1024},
		{50, 128, 128},
		{700, 128, 1024},
	}
	for _, c := range cases {
		got, err := stepTowards(list, c.req, c.cur)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "req %d from %d", c.req, c.cur)
	}
	_, err := stepTowards(nil, 1, 1)
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestNearestTiesUp(t *testing.T) {
	list := []uint32{50, 60, 125}
	for req, want := range map[float64]uint32{55: 60, 100: 125, 0: 50, 1e6: 125, 60: 60} {
		got, err := nearest(list, req)
		require.NoError(t, err)
		assert.Equal(t, want, got, "req %g", req)
	}
}

func TestParseResolutionList(t *testing.T) {
	list := []uint32{
		pdc.PackResolution(1024, 1024),
		pdc.PackResolution(1024, 512),
		pdc.PackResolution(512, 512),
		pdc.PackResolution(512, 256),
	}
	widths, heights := parseResolutionList(list, 1024)
	assert.Equal(t, []uint32{512, 1024}, widths)
	assert.Equal(t, []uint32{512, 1024}, heights)
}

func TestTriggerModeRoundTrip(t *testing.T) {
	for i := range TriggerModeNames {
		api, err := trigModeToAPI(i)
		require.NoError(t, err)
		assert.Equal(t, i, trigModeToEPICS(api), TriggerModeNames[i])
	}
	api, _ := trigModeToAPI(9)
	assert.Equal(t, pdc.TriggerTwoStageQuarter, api)
	assert.Equal(t, 13, trigModeToEPICS(pdc.TriggerRandomLoop))
	assert.Equal(t, 11, trigModeToEPICS(pdc.TriggerReset))
	_, err := trigModeToAPI(len(TriggerModeNames))
	assert.Error(t, err)
	_, err = trigModeToAPI(-1)
	assert.Error(t, err)
}

func TestIRIGTime(t *testing.T) {
	ref := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	info := pdc.IRIGInfo{DayOfYear: 62, Hour: 12, Minute: 30, Second: 15, Microsecond: 250, SignalExists: true}
	want := time.Date(2026, time.March, 3, 12, 30, 15, 250000, time.UTC)
	assert.Equal(t, want, irigTime(info, ref))

	// recorded late in December, read early in January
	ref = time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC)
	info = pdc.IRIGInfo{DayOfYear: 364}
	assert.Equal(t, time.Date(2026, time.December, 30, 0, 0, 0, 0, time.UTC), irigTime(info, ref))

	// IRIG turned on in December, frame recorded in January
	ref = time.Date(2026, time.December, 30, 0, 0, 0, 0, time.UTC)
	info = pdc.IRIGInfo{DayOfYear: 2}
	assert.Equal(t, time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC), irigTime(info, ref))
}

func TestWritesBeforeConnect(t *testing.T) {
	cam, _ := newTestCamera(t)
	assert.True(t, errors.Is(cam.WriteInt32(ParamRecordRate, 500), ErrNotConnected))
	assert.True(t, errors.Is(cam.WriteInt32(ExtInParam(1), 1), ErrNotConnected))
	assert.True(t, errors.Is(cam.WriteInt32("NOT_A_PARAM", 1), ErrUnknownParam))
	assert.True(t, errors.Is(cam.WriteInt32(ParamMaxSizeX, 10), ErrReadOnly))
	assert.True(t, errors.Is(cam.WriteFloat64(ParamAcquireTime, 0.001), ErrNotConnected))

	require.NoError(t, cam.WriteInt32(ParamImageMode, ImageModeMultiple))
	assert.Equal(t, int32(ImageModeMultiple), intParam(t, cam, ParamImageMode))
	assert.Equal(t, int32(StatusDisconnected), intParam(t, cam, ParamStatus))
	assert.False(t, cam.Connected())
}

func TestConnectFillsCaches(t *testing.T) {
	cam, _ := connectedCamera(t)
	p := cam.Params()
	model, _ := p.Str(ParamModel)
	serial, _ := p.Str(ParamSerialNumber)
	fw, _ := p.Str(ParamFirmwareVersion)
	assert.Equal(t, "FASTCAM SIM", model)
	assert.Equal(t, "4242", serial)
	assert.Equal(t, "3.12", fw)
	assert.Equal(t, int32(1), intParam(t, cam, ParamConnected))
	assert.Equal(t, int32(StatusIdle), intParam(t, cam, ParamStatus))
	assert.Equal(t, int32(1024), intParam(t, cam, ParamMaxSizeX))
	assert.Equal(t, int32(1024), intParam(t, cam, ParamSizeX))
	assert.Equal(t, int32(1024*1024*2), intParam(t, cam, ParamArraySize))
	assert.Equal(t, int32(1000), intParam(t, cam, ParamRecordRate))
	assert.Equal(t, int32(12), intParam(t, cam, ParamPixelBits))
	assert.Equal(t, int32(pdc.ExtInTrigPos), intParam(t, cam, ExtInParam(1)))

	e, err := cam.ReadEnum(ParamTriggerMode)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 8, 9, 10}, e.Values)
	assert.Equal(t, "Two-stage 1/4", e.Strings[7])

	e, err = cam.ReadEnum(ParamRecordRate)
	require.NoError(t, err)
	assert.Equal(t, "50 fps", e.Strings[0])

	_, err = cam.ReadEnum(ExtInParam(4))
	assert.Error(t, err, "the camera has 3 input ports")
	_, err = cam.ReadEnum("NOT_A_PARAM")
	assert.True(t, errors.Is(err, ErrUnknownParam))
}

func TestConnectWrongAddress(t *testing.T) {
	sim := pdc.NewSimulator(testIP)
	require.NoError(t, sim.Init())
	cam, err := New(sim, Config{PortName: "P", IPAddress: "10.0.0.1"}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer cam.Close()
	err = cam.Connect()
	assert.True(t, errors.Is(err, pdc.ErrNoDevice))
	assert.False(t, cam.Connected())
	assert.Equal(t, int32(StatusDisconnected), intParam(t, cam, ParamStatus))
}

func TestDisconnectKeepsValues(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamRecordRate, 2000))
	require.NoError(t, cam.Disconnect())
	assert.Equal(t, int32(0), intParam(t, cam, ParamConnected))
	assert.Equal(t, int32(2000), intParam(t, cam, ParamRecordRate))
	assert.True(t, errors.Is(cam.WriteInt32(ParamRecordRate, 500), ErrNotConnected))
	require.NoError(t, cam.Connect())
	assert.Equal(t, int32(2000), intParam(t, cam, ParamRecordRate))
}

func TestRecordRateLimitsGeometry(t *testing.T) {
	cam, _ := connectedCamera(t)
	// 3000 is halfway between 2000 and 4000
	require.NoError(t, cam.WriteInt32(ParamRecordRate, 3000))
	assert.Equal(t, int32(4000), intParam(t, cam, ParamRecordRate))
	assert.Equal(t, int32(1024), intParam(t, cam, ParamSizeX))
	assert.Equal(t, int32(512), intParam(t, cam, ParamSizeY))
}

func TestFailedWriteKeepsValue(t *testing.T) {
	cam, sim := connectedCamera(t)
	sim.FailNext("SetRecordRate", pdc.ErrTimeout)
	err := cam.WriteInt32(ParamRecordRate, 2000)
	assert.True(t, errors.Is(err, pdc.ErrTimeout))
	assert.Equal(t, int32(1000), intParam(t, cam, ParamRecordRate))
	v, err := cam.Params().Get(ParamRecordRate)
	require.NoError(t, err)
	assert.Contains(t, v.Status, "PDC_ERROR_TIMEOUT")

	// the next good write clears the status
	require.NoError(t, cam.WriteInt32(ParamRecordRate, 2000))
	v, _ = cam.Params().Get(ParamRecordRate)
	assert.Equal(t, "", v.Status)
}

func TestGeometryRounding(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamSizeX, 300))
	assert.Equal(t, int32(256), intParam(t, cam, ParamSizeX), "asking for less rounds down")
	assert.Equal(t, int32(256), intParam(t, cam, ParamSizeY), "height follows the width")

	require.NoError(t, cam.WriteInt32(ParamSizeY, 200))
	assert.Equal(t, int32(128), intParam(t, cam, ParamSizeY))

	require.NoError(t, cam.WriteInt32(ParamSizeX, 300))
	assert.Equal(t, int32(512), intParam(t, cam, ParamSizeX), "asking for more rounds up")
	assert.Equal(t, int32(256), intParam(t, cam, ParamSizeY))
	assert.Equal(t, int32(512*256*2), intParam(t, cam, ParamArraySize))

	assert.True(t, errors.Is(cam.WriteInt32(ParamSizeX, 0), ErrInvalidValue))
}

func TestShutterAndAcquireTime(t *testing.T) {
	cam, _ := connectedCamera(t)
	f, _ := cam.Params().Float(ParamAcquireTime)
	assert.InDelta(t, 1e-3, f, 1e-12)
	require.NoError(t, cam.WriteFloat64(ParamAcquireTime, 1/3000.))
	f, _ = cam.Params().Float(ParamAcquireTime)
	assert.InDelta(t, 1/4000., f, 1e-12)
	assert.True(t, errors.Is(cam.WriteFloat64(ParamAcquireTime, 0), ErrInvalidValue))
}

func TestEightBitSelect(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamDataType, int32(ndarray.UInt8)))
	assert.Equal(t, int32(pdc.BitSelUpper8), intParam(t, cam, Param8BitSel))
	assert.Equal(t, int32(8), intParam(t, cam, ParamPixelBits))
	assert.Equal(t, int32(1024*1024), intParam(t, cam, ParamArraySize))

	require.NoError(t, cam.WriteInt32(Param8BitSel, int32(pdc.BitSelLower8)))
	assert.Equal(t, int32(ndarray.UInt8), intParam(t, cam, ParamDataType))

	require.NoError(t, cam.WriteInt32(ParamDataType, int32(ndarray.UInt16)))
	assert.Equal(t, int32(pdc.BitSel16), intParam(t, cam, Param8BitSel))
	assert.Equal(t, int32(12), intParam(t, cam, ParamPixelBits))
	assert.True(t, errors.Is(cam.WriteInt32(Param8BitSel, 3), ErrInvalidValue))
}

func TestTransferOptionRefreshFailure(t *testing.T) {
	cam, sim := connectedCamera(t)
	sim.FailNext("MaxFrames", pdc.ErrTimeout)
	err := cam.WriteInt32(Param8BitSel, int32(pdc.BitSelUpper8))
	assert.True(t, errors.Is(err, pdc.ErrTimeout))
	assert.Equal(t, int32(pdc.BitSel16), intParam(t, cam, Param8BitSel))
	assert.Equal(t, int32(ndarray.UInt16), intParam(t, cam, ParamDataType))
	cam.mu.Lock()
	assert.Equal(t, pdc.BitSel16, cam.bitSel)
	depth, err := sim.BitDepth(cam.devNo, cam.childNo)
	cam.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(12), depth, "the camera is put back to 16 bit transfers")
}

func TestTriggerWrites(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamTriggerMode, 9))
	assert.Equal(t, int32(9), intParam(t, cam, ParamTriggerMode))
	require.NoError(t, cam.WriteInt32(ParamAfterFrames, 8))
	assert.Equal(t, int32(8), intParam(t, cam, ParamAfterFrames))
	assert.Equal(t, int32(9), intParam(t, cam, ParamTriggerMode), "mode is kept")

	err := cam.WriteInt32(ParamTriggerMode, 11)
	assert.True(t, errors.Is(err, ErrInvalidValue), "reset is not in the camera's list")
	assert.Equal(t, int32(9), intParam(t, cam, ParamTriggerMode))
}

func TestExternalIO(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ExtInParam(2), int32(pdc.ExtInIRIG)))
	assert.Equal(t, int32(pdc.ExtInIRIG), intParam(t, cam, ExtInParam(2)))
	assert.True(t, errors.Is(cam.WriteInt32(ExtInParam(1), int32(pdc.ExtInReadyPos)), ErrInvalidValue))
	assert.True(t, errors.Is(cam.WriteInt32(ExtInParam(4), 0), ErrNotSupported))
	require.NoError(t, cam.WriteInt32(ExtOutParam(4), int32(pdc.ExtOutExposePos)))
	assert.Equal(t, int32(pdc.ExtOutExposePos), intParam(t, cam, ExtOutParam(4)))
}

func TestStatusWrites(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamPhotronStatus, 1))
	assert.Equal(t, int32(pdc.StatusPlayback), intParam(t, cam, ParamPhotronStatus))
	assert.True(t, errors.Is(cam.WriteInt32(ParamPhotronStatus, 2), ErrInvalidValue))
	require.NoError(t, cam.WriteInt32(ParamRecReady, 1))
	assert.Equal(t, int32(pdc.StatusRecReady), intParam(t, cam, ParamPhotronStatus))
	assert.Equal(t, int32(0), intParam(t, cam, ParamRecReady), "command parameters read back 0")
	require.NoError(t, cam.WriteInt32(ParamLive, 1))
	assert.Equal(t, int32(pdc.StatusLive), intParam(t, cam, ParamPhotronStatus))
}

func TestVariableChannels(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamVarEditChannel, 3))
	assert.Equal(t, int32(1024), intParam(t, cam, ParamVarWidth))

	require.NoError(t, cam.WriteInt32(ParamVarRate, 2000))
	require.NoError(t, cam.WriteInt32(ParamVarWidth, 512))
	require.NoError(t, cam.WriteInt32(ParamVarHeight, 256))
	require.NoError(t, cam.WriteInt32(ParamVarApply, 1))

	require.NoError(t, cam.WriteInt32(ParamVarChannel, 3))
	assert.Equal(t, int32(3), intParam(t, cam, ParamVarChannel))
	assert.Equal(t, int32(2000), intParam(t, cam, ParamRecordRate))
	assert.Equal(t, int32(512), intParam(t, cam, ParamSizeX))
	assert.Equal(t, int32(256), intParam(t, cam, ParamSizeY))

	require.NoError(t, cam.WriteInt32(ParamVarWidth, 500))
	err := cam.WriteInt32(ParamVarApply, 1)
	assert.True(t, errors.Is(err, pdc.ErrIllegalValue), "width must be a multiple of 8")
}

// frameLog records what plugins saw, since buffers are recycled after publish
type frameLog struct {
	mu     sync.Mutex
	frames []seenFrame
	count  atomic.Int32
}

type seenFrame struct {
	id       int
	first    uint16
	dims     []int
	stamp    time.Time
	frameNo  interface{}
	session  interface{}
	rate     interface{}
	hasIRIG  bool
	dataType ndarray.DataType
}

func (l *frameLog) Process(a *ndarray.Array) error {
	f := seenFrame{id: a.UniqueID, first: a.At(0), dims: append([]int(nil), a.Dims...), stamp: a.TimeStamp, dataType: a.DataType}
	if attr, ok := a.Attribute("Frame"); ok {
		f.frameNo = attr.Value
	}
	if attr, ok := a.Attribute("SessionID"); ok {
		f.session = attr.Value
	}
	if attr, ok := a.Attribute("RecordRate"); ok {
		f.rate = attr.Value
	}
	_, f.hasIRIG = a.Attribute("IRIGTime")
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
	l.count.Add(1)
	return nil
}

func (l *frameLog) seen() []seenFrame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]seenFrame(nil), l.frames...)
}

func TestLiveAcquisition(t *testing.T) {
	cam, _ := connectedCamera(t)
	smallFrames(t, cam)
	frames := &frameLog{}
	cam.Publisher().Attach("log", frames)
	require.NoError(t, cam.WriteInt32(ParamImageMode, ImageModeMultiple))
	require.NoError(t, cam.WriteInt32(ParamNumImages, 3))
	require.NoError(t, cam.WriteFloat64(ParamAcquirePeriod, 0.001))

	require.NoError(t, cam.WriteInt32(ParamAcquire, 1))
	require.Eventually(t, func() bool {
		acq, _ := cam.Params().Int(ParamAcquire)
		return acq == 0 && frames.count.Load() == 3
	}, 5*time.Second, time.Millisecond)

	seen := frames.seen()
	assert.Equal(t, []int{128, 64}, seen[0].dims)
	assert.Equal(t, ndarray.UInt16, seen[0].dataType)
	assert.Equal(t, []int{1, 2, 3}, []int{seen[0].id, seen[1].id, seen[2].id})
	assert.Equal(t, int32(3), intParam(t, cam, ParamNumImagesCounter))
	assert.Equal(t, int32(StatusIdle), intParam(t, cam, ParamStatus))
}

func TestLiveStop(t *testing.T) {
	cam, _ := connectedCamera(t)
	smallFrames(t, cam)
	frames := &frameLog{}
	cam.Publisher().Attach("log", frames)
	require.NoError(t, cam.WriteFloat64(ParamAcquirePeriod, 0.001))
	require.NoError(t, cam.WriteInt32(ParamAcquire, 1))
	require.Eventually(t, func() bool { return frames.count.Load() >= 2 }, 5*time.Second, time.Millisecond)
	require.NoError(t, cam.WriteInt32(ParamAcquire, 0))
	assert.Equal(t, int32(StatusIdle), intParam(t, cam, ParamStatus))
}

// record arms a recording, triggers it, and waits for it to finish
func record(t *testing.T, cam *Camera) {
	t.Helper()
	require.NoError(t, cam.WriteInt32(ParamAcquireMode, AcquireModeRecord))
	require.NoError(t, cam.WriteInt32(ParamAcquire, 1))
	assert.Equal(t, int32(StatusWaiting), intParam(t, cam, ParamStatus))
	require.NoError(t, cam.WriteInt32(ParamSoftTrig, 1))
	require.Eventually(t, func() bool {
		acq, _ := cam.Params().Int(ParamAcquire)
		return acq == 0
	}, 5*time.Second, time.Millisecond)
}

func TestRecordAndReadMemory(t *testing.T) {
	cam, _ := connectedCamera(t)
	smallFrames(t, cam)
	require.NoError(t, cam.WriteInt32(ParamIRIG, 1))
	base := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	cam.mu.Lock()
	cam.preIRIGStart, cam.postIRIGStart = base, base
	cam.mu.Unlock()

	record(t, cam)
	assert.Equal(t, int32(StatusIdle), intParam(t, cam, ParamStatus))
	assert.Equal(t, int32(16), intParam(t, cam, ParamRecordedFrames))
	assert.Equal(t, int32(0), intParam(t, cam, ParamPlaybackFirst))
	assert.Equal(t, int32(15), intParam(t, cam, ParamPlaybackLast))
	assert.Equal(t, int32(1000), intParam(t, cam, ParamMemoryFrameRate))

	frames := &frameLog{}
	cam.Publisher().Attach("log", frames)
	require.NoError(t, cam.WriteInt32(ParamPlaybackFirst, 2))
	require.NoError(t, cam.WriteInt32(ParamPlaybackLast, 5))
	require.NoError(t, cam.WriteInt32(ParamReadMem, 1))

	seen := frames.seen()
	require.Len(t, seen, 4)
	session, _ := cam.Params().Str(ParamSessionID)
	assert.NotEmpty(t, session)
	for i, f := range seen {
		frame := int32(i + 2)
		assert.Equal(t, frame, f.frameNo)
		assert.Equal(t, session, f.session)
		assert.Equal(t, uint16(frame), f.first, "simulated frames start at their frame number")
		assert.True(t, f.hasIRIG)
		assert.Equal(t, base.Add(time.Duration(frame)*time.Millisecond), f.stamp)
	}
	assert.Equal(t, int32(62), intParam(t, cam, ParamMemIRIGDay))
	assert.Equal(t, int32(5000), intParam(t, cam, ParamMemIRIGUsec))
	assert.Equal(t, int32(1), intParam(t, cam, ParamMemIRIGSigEx))
	assert.Equal(t, int32(pdc.StatusPlayback), intParam(t, cam, ParamPhotronStatus))

	// a second read is a new session
	require.NoError(t, cam.WriteInt32(ParamReadMem, 1))
	next, _ := cam.Params().Str(ParamSessionID)
	assert.NotEqual(t, session, next)
}

func TestReadMemoryWithoutRecording(t *testing.T) {
	cam, _ := connectedCamera(t)
	err := cam.WriteInt32(ParamReadMem, 1)
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestReadMemoryAtRecordedGeometry(t *testing.T) {
	cases := []struct {
		name         string
		recW, recH   int32
		liveW, liveH int32
	}{
		{"grown after recording", 128, 64, 1024, 1024},
		{"shrunk after recording", 1024, 1024, 128, 64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cam, _ := connectedCamera(t)
			require.NoError(t, cam.WriteInt32(ParamSizeX, tc.recW))
			require.NoError(t, cam.WriteInt32(ParamSizeY, tc.recH))
			record(t, cam)
			require.NoError(t, cam.WriteInt32(ParamSizeX, tc.liveW))
			require.NoError(t, cam.WriteInt32(ParamSizeY, tc.liveH))
			require.Equal(t, tc.liveW, intParam(t, cam, ParamSizeX))
			require.Equal(t, tc.liveH, intParam(t, cam, ParamSizeY))

			frames := &frameLog{}
			cam.Publisher().Attach("log", frames)
			require.NoError(t, cam.WriteInt32(ParamPlaybackLast, 1))
			require.NoError(t, cam.WriteInt32(ParamReadMem, 1))
			seen := frames.seen()
			require.Len(t, seen, 2)
			for _, f := range seen {
				assert.Equal(t, []int{int(tc.recW), int(tc.recH)}, f.dims)
			}
		})
	}
}

func TestReadMemoryFromEarlierSession(t *testing.T) {
	cam, sim := connectedCamera(t)
	smallFrames(t, cam)
	record(t, cam)
	require.NoError(t, cam.Disconnect())

	cfg := Config{PortName: "PHOTRON2", IPAddress: testIP, StatusPoll: time.Millisecond}
	fresh, err := New(sim, cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { fresh.Close() })
	require.NoError(t, fresh.Connect())
	require.NoError(t, fresh.WriteInt32(ParamRecordRate, 2000))
	require.Equal(t, int32(2000), intParam(t, fresh, ParamRecordRate))

	frames := &frameLog{}
	fresh.Publisher().Attach("log", frames)
	require.NoError(t, fresh.WriteInt32(ParamReadMem, 1))
	seen := frames.seen()
	require.Len(t, seen, 16, "the whole recording is read")
	assert.Equal(t, int32(0), intParam(t, fresh, ParamPlaybackFirst))
	assert.Equal(t, int32(15), intParam(t, fresh, ParamPlaybackLast))
	assert.Equal(t, int32(1000), intParam(t, fresh, ParamMemoryFrameRate))
	for _, f := range seen {
		assert.Equal(t, uint32(1000), f.rate)
		assert.Equal(t, []int{128, 64}, f.dims)
	}

	// a narrowed range survives rereads of the same recording
	require.NoError(t, fresh.WriteInt32(ParamPlaybackFirst, 4))
	require.NoError(t, fresh.WriteInt32(ParamPlaybackLast, 6))
	require.NoError(t, fresh.WriteInt32(ParamReadMem, 1))
	assert.Len(t, frames.seen(), 19)
}

func TestStopArmedRecording(t *testing.T) {
	cam, _ := connectedCamera(t)
	require.NoError(t, cam.WriteInt32(ParamAcquireMode, AcquireModeRecord))
	require.NoError(t, cam.WriteInt32(ParamTriggerMode, 2))
	require.NoError(t, cam.WriteInt32(ParamAcquire, 1))
	assert.Equal(t, int32(pdc.StatusEndless), intParam(t, cam, ParamPhotronStatus), "end trigger records before the trigger")
	require.NoError(t, cam.WriteInt32(ParamAcquire, 0))
	assert.Equal(t, int32(pdc.StatusLive), intParam(t, cam, ParamPhotronStatus))
	assert.Equal(t, int32(StatusIdle), intParam(t, cam, ParamStatus))
}

func TestPlaybackLoop(t *testing.T) {
	cam, _ := connectedCamera(t)
	smallFrames(t, cam)
	record(t, cam)
	require.NoError(t, cam.WriteInt32(ParamPlaybackFirst, 1))
	require.NoError(t, cam.WriteInt32(ParamPlaybackLast, 3))
	require.NoError(t, cam.WriteFloat64(ParamAcquirePeriod, 0.001))
	frames := &frameLog{}
	cam.Publisher().Attach("log", frames)

	require.NoError(t, cam.WriteInt32(ParamPlaybackPlay, 1))
	require.Eventually(t, func() bool { return frames.count.Load() >= 5 }, 5*time.Second, time.Millisecond)
	require.NoError(t, cam.WriteInt32(ParamPlaybackPlay, 0))

	seen := frames.seen()
	want := []int32{1, 2, 3, 1, 2}
	for i, w := range want {
		assert.Equal(t, w, seen[i].frameNo, "frame %d", i)
	}
}

func TestRegistry(t *testing.T) {
	sim := pdc.NewSimulator(testIP)
	reg := NewRegistry(sim)
	require.NoError(t, reg.Init())
	require.NoError(t, reg.Init())
	sim.Lock()
	assert.Equal(t, 1, sim.Calls["Init"])
	sim.Unlock()

	msg := log.New(io.Discard, "", 0)
	cam, err := reg.Add(Config{PortName: "PHOTRON1", IPAddress: testIP}, msg, true)
	require.NoError(t, err)
	assert.True(t, cam.Connected())
	_, err = reg.Add(Config{PortName: "PHOTRON1", IPAddress: testIP}, msg, false)
	assert.Error(t, err)

	got, ok := reg.Get("PHOTRON1")
	require.True(t, ok)
	assert.Same(t, cam, got)
	assert.Equal(t, []string{"PHOTRON1"}, reg.Names())

	require.NoError(t, reg.Shutdown())
	assert.False(t, cam.Connected())
	assert.Empty(t, reg.Names())
	assert.NoError(t, cam.Close(), "closing twice is harmless")
}

func TestReport(t *testing.T) {
	cam, _ := connectedCamera(t)
	var buf bytes.Buffer
	cam.Report(&buf, 0)
	assert.Contains(t, buf.String(), "PHOTRON1")
	assert.NotContains(t, buf.String(), "FASTCAM SIM")
	buf.Reset()
	cam.Report(&buf, 2)
	assert.Contains(t, buf.String(), "FASTCAM SIM")
	assert.Contains(t, buf.String(), "Functions available")
}
