package photron

import (
	"context"
	"fmt"
	"time"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/pdc"
	"github.com/oklog/ulid/v2"
)

// wait sleeps for d, returning false early if ctx is done or stop fires
func wait(ctx context.Context, stop chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-stop:
			return false
		default:
			return true
		}
	}
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	case <-tmr.C:
		return true
	}
}

// period is the acquire period as a duration
func (c *Camera) period() time.Duration {
	f, _ := c.params.Float(ParamAcquirePeriod)
	return time.Duration(f * float64(time.Second))
}

// liveTask streams live frames each time acquisition starts in live mode
func (c *Camera) liveTask(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.startLive:
		}
		c.liveLoop(ctx)
	}
}

func (c *Camera) liveLoop(ctx context.Context) {
	failed := false
	for !c.abort.Load() {
		start := time.Now()
		c.mu.Lock()
		if !c.connected {
			c.mu.Unlock()
			return
		}
		arr, err := c.readImage()
		if err != nil {
			c.params.SetInt(ParamStatus, StatusError)
			c.params.SetString(ParamStatusMessage, err.Error())
			c.mu.Unlock()
			failed = true
			break
		}
		done := c.countFrame(arr)
		callbacks, _ := c.params.Int(ParamArrayCallbacks)
		c.mu.Unlock()

		if callbacks != 0 {
			c.pub.Publish(arr)
		}
		arr.Release()
		if done {
			break
		}
		if !wait(ctx, c.stopLive, c.period()-time.Since(start)) {
			break
		}
	}
	c.mu.Lock()
	if !failed {
		c.params.SetInt(ParamStatus, StatusIdle)
		c.params.SetString(ParamStatusMessage, "Done")
	}
	c.params.SetInt(ParamAcquire, 0)
	c.mu.Unlock()
}

// countFrame numbers arr and returns true when the image mode says to stop.
// Must hold the lock.
func (c *Camera) countFrame(arr *ndarray.Array) bool {
	p := c.params
	counter, _ := p.Int(ParamArrayCounter)
	counter++
	p.SetInt(ParamArrayCounter, counter)
	arr.UniqueID = int(counter)
	n, _ := p.Int(ParamNumImagesCounter)
	n++
	p.SetInt(ParamNumImagesCounter, n)
	mode, _ := p.Int(ParamImageMode)
	num, _ := p.Int(ParamNumImages)
	return mode == ImageModeSingle || (mode == ImageModeMultiple && n >= num)
}

// alloc takes a frame buffer of width x height.  Must hold the lock.
func (c *Camera) alloc(width, height uint32) (*ndarray.Array, error) {
	arr, err := c.pool.Alloc([]int{int(width), int(height)}, c.dataType())
	if err != nil {
		return nil, fmt.Errorf("photron: could not allocate frame: %w", err)
	}
	return arr, nil
}

// readImage reads one live frame.  Must hold the lock, which is released
// during the transfer.
func (c *Camera) readImage() (*ndarray.Array, error) {
	arr, err := c.alloc(c.res.width, c.res.height)
	if err != nil {
		return nil, err
	}
	dev, child, depth := c.devNo, c.childNo, c.transferDepth()
	c.mu.Unlock()
	err = c.sdk.LiveImage(dev, child, depth, arr.Data)
	c.mu.Lock()
	if err != nil {
		arr.Release()
		return nil, c.fail("read live image", err)
	}
	arr.TimeStamp = time.Now()
	return arr, nil
}

// recTask watches each armed recording until it completes
func (c *Camera) recTask(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.startRec:
		}
		c.watchRecording(ctx)
	}
}

func (c *Camera) watchRecording(ctx context.Context) {
	tkr := time.NewTicker(c.cfg.StatusPoll)
	defer tkr.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopRec:
			return
		case <-tkr.C:
		}
		if c.abort.Load() {
			return
		}
		c.mu.Lock()
		if !c.connected {
			c.mu.Unlock()
			return
		}
		dev := c.devNo
		c.mu.Unlock()
		st, err := c.sdk.Status(dev)
		c.mu.Lock()
		if c.abort.Load() {
			c.mu.Unlock()
			return
		}
		if err != nil {
			err = c.fail("poll status", err)
			c.params.SetInt(ParamAcquire, 0)
			c.params.SetInt(ParamStatus, StatusError)
			c.params.SetString(ParamStatusMessage, err.Error())
			c.mu.Unlock()
			return
		}
		c.set.status = st
		c.params.SetInt(ParamPhotronStatus, int32(st))
		if st == pdc.StatusRec {
			c.params.SetInt(ParamStatus, StatusAcquire)
			c.params.SetString(ParamStatusMessage, "Recording")
		}
		if !st.Recording() {
			c.recordingDone()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

// recordingDone picks up the extent of a finished recording and resets the
// playback range to all of it.  Must hold the lock.
func (c *Camera) recordingDone() {
	defer func() {
		c.params.SetInt(ParamAcquire, 0)
	}()
	info, err := c.sdk.MemFrameInfo(c.devNo, c.childNo)
	if err == nil {
		err = c.mirrorMemory(info)
	} else {
		err = c.fail("get memory frame info", err)
	}
	if err != nil {
		c.params.SetInt(ParamStatus, StatusError)
		c.params.SetString(ParamStatusMessage, err.Error())
		return
	}
	c.params.SetInt(ParamPlaybackFirst, info.Start)
	c.params.SetInt(ParamPlaybackLast, info.End)
	if err := c.readParameters(); err != nil {
		c.params.SetInt(ParamStatus, StatusError)
		c.params.SetString(ParamStatusMessage, err.Error())
		return
	}
	c.params.SetInt(ParamStatus, StatusIdle)
	c.params.SetString(ParamStatusMessage, fmt.Sprintf("Recorded %d frames", info.Recorded))
	c.msg.Printf("recording complete, frames %d to %d, trigger at %d", info.Start, info.End, info.Trigger)
}

// mirrorMemory caches and mirrors the extent of camera memory, with the
// geometry and rate it was recorded at.  A new extent resets the playback
// range to all of it.  Must hold the lock.
func (c *Camera) mirrorMemory(info pdc.FrameInfo) error {
	var w, h, rate uint32
	if info.Recorded > 0 {
		var err error
		if w, h, err = c.sdk.MemResolution(c.devNo, c.childNo); err != nil {
			return c.fail("get memory resolution", err)
		}
		if rate, err = c.sdk.MemRecordRate(c.devNo, c.childNo); err != nil {
			return c.fail("get memory record rate", err)
		}
	}
	p := c.params
	if info.Start != c.memory.Start || info.End != c.memory.End || info.Recorded != c.memory.Recorded {
		p.SetInt(ParamPlaybackFirst, info.Start)
		p.SetInt(ParamPlaybackLast, info.End)
	}
	c.memory = info
	c.memWidth, c.memHeight, c.memRate = w, h, rate
	p.SetInt(ParamFrameStart, info.Start)
	p.SetInt(ParamFrameEnd, info.End)
	p.SetInt(ParamTriggerFrame, info.Trigger)
	p.SetInt(ParamRecordedFrames, int32(info.Recorded))
	p.SetInt(ParamMemoryFrameRate, int32(rate))
	return nil
}

// playbackRange returns PB_FIRST and PB_LAST clamped to camera memory.
// Must hold the lock.
func (c *Camera) playbackRange() (int32, int32) {
	first, _ := c.params.Int(ParamPlaybackFirst)
	last, _ := c.params.Int(ParamPlaybackLast)
	if first < c.memory.Start || first > c.memory.End {
		first = c.memory.Start
	}
	if last < first || last > c.memory.End {
		last = c.memory.End
	}
	return first, last
}

// enterMemory puts the camera in playback and mirrors the recording in its
// memory, which must hold frames.  Must hold the lock.
func (c *Camera) enterMemory() error {
	info, err := c.sdk.MemFrameInfo(c.devNo, c.childNo)
	if err != nil {
		return c.fail("get memory frame info", err)
	}
	if info.Recorded == 0 {
		c.mirrorMemory(info)
		return fmt.Errorf("%w: no recorded frames in camera memory", ErrInvalidValue)
	}
	if c.set.status != pdc.StatusPlayback {
		if err := c.changeStatus(pdc.StatusPlayback); err != nil {
			return err
		}
	}
	return c.mirrorMemory(info)
}

// readMem reads the playback range from camera memory once, publishing
// every frame.  The frames of one read share a session ID.  Must hold the
// lock, which is released during each transfer and publish.
func (c *Camera) readMem() error {
	if err := c.enterMemory(); err != nil {
		return err
	}
	first, last := c.playbackRange()
	session := ulid.Make().String()
	c.params.SetString(ParamSessionID, session)
	c.params.SetInt(ParamStatus, StatusReadout)
	c.params.SetString(ParamStatusMessage, fmt.Sprintf("Reading frames %d to %d", first, last))
	c.abort.Store(false)
	for frame := first; frame <= last; frame++ {
		if c.abort.Load() || !c.connected {
			c.params.SetInt(ParamStatus, StatusAborted)
			c.params.SetString(ParamStatusMessage, "Read aborted")
			return nil
		}
		arr, err := c.readMemFrame(frame, session)
		if err != nil {
			c.params.SetInt(ParamStatus, StatusError)
			c.params.SetString(ParamStatusMessage, err.Error())
			return err
		}
		c.countFrame(arr)
		c.mu.Unlock()
		c.pub.Publish(arr)
		c.mu.Lock()
		arr.Release()
	}
	c.params.SetInt(ParamStatus, StatusIdle)
	c.params.SetString(ParamStatusMessage, fmt.Sprintf("Read %d frames", last-first+1))
	return nil
}

// readMemFrame reads one recorded frame and its IRIG timecode.  Must hold
// the lock, which is released during the transfer.
func (c *Camera) readMemFrame(frame int32, session string) (*ndarray.Array, error) {
	arr, err := c.alloc(c.memWidth, c.memHeight)
	if err != nil {
		return nil, err
	}
	dev, child, depth := c.devNo, c.childNo, c.transferDepth()
	irigOn := c.set.irig == 1
	c.mu.Unlock()
	err = c.sdk.MemImage(dev, child, frame, depth, arr.Data)
	var irig pdc.IRIGInfo
	if err == nil && irigOn {
		irig, err = c.sdk.MemIRIG(dev, child, frame)
	}
	c.mu.Lock()
	if err != nil {
		arr.Release()
		return nil, c.fail(fmt.Sprintf("read memory frame %d", frame), err)
	}
	arr.TimeStamp = time.Now()
	if irigOn {
		c.mirrorIRIG(irig)
		if irig.SignalExists {
			arr.TimeStamp = irigTime(irig, c.irigReference())
			arr.SetAttribute("IRIGTime", "IRIG timestamp of the frame", arr.TimeStamp)
		}
	}
	arr.SetAttribute("Frame", "frame number in camera memory", frame)
	arr.SetAttribute("TriggerFrame", "frame number of the trigger", c.memory.Trigger)
	arr.SetAttribute("RecordRate", "record rate of the frame, fps", c.memRate)
	arr.SetAttribute("SessionID", "ID shared by the frames of one memory read", session)
	return arr, nil
}

// playbackTask loops over the playback range each time playback starts
func (c *Camera) playbackTask(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.startPB:
		}
		c.playbackLoop(ctx)
	}
}

func (c *Camera) playbackLoop(ctx context.Context) {
	session := ulid.Make().String()
	c.mu.Lock()
	frame, _ := c.playbackRange()
	c.params.SetString(ParamSessionID, session)
	c.mu.Unlock()
	for !c.abort.Load() {
		start := time.Now()
		c.mu.Lock()
		if !c.connected {
			c.mu.Unlock()
			return
		}
		first, last := c.playbackRange()
		if frame < first || frame > last {
			frame = first
		}
		arr, err := c.readMemFrame(frame, session)
		if err != nil {
			c.params.SetInt(ParamStatus, StatusError)
			c.params.SetString(ParamStatusMessage, err.Error())
			c.mu.Unlock()
			break
		}
		c.countFrame(arr)
		c.mu.Unlock()
		c.pub.Publish(arr)
		arr.Release()
		frame++
		if !wait(ctx, c.stopPB, c.period()-time.Since(start)) {
			break
		}
	}
	c.mu.Lock()
	c.params.SetInt(ParamPlaybackPlay, 0)
	c.mu.Unlock()
}
