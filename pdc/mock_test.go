package pdc

import (
	"errors"
	"testing"
)

func openSim(t *testing.T) (*Simulator, uint32) {
	t.Helper()
	s := NewSimulator("192.168.0.10")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	found, err := s.DetectDevice("192.168.0.10", false)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.OpenDevice(found[0])
	if err != nil {
		t.Fatal(err)
	}
	return s, dev
}

func TestErrorFormatting(t *testing.T) {
	if got := ErrIllegalValue.Error(); got != "5 - PDC_ERROR_ILLEGAL_VALUE" {
		t.Errorf("expected vendor name in error string, got %q", got)
	}
	if got := Error(999).Error(); got != "999 - UNKNOWN_ERROR_CODE" {
		t.Errorf("expected unknown code formatting, got %q", got)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(Succeeded, 0); err != nil {
		t.Errorf("expected nil on success, got %v", err)
	}
	if err := Check(Failed, uint32(ErrTimeout)); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
	if err := Check(Failed, uint32(ErrNoError)); !errors.Is(err, ErrFunctionFailed) {
		t.Errorf("expected function failed for a failure without a code, got %v", err)
	}
}

func TestResolutionPacking(t *testing.T) {
	w, h := UnpackResolution(PackResolution(1024, 512))
	if w != 1024 || h != 512 {
		t.Errorf("expected 1024x512, got %dx%d", w, h)
	}
}

func TestDoubleInitFails(t *testing.T) {
	s := NewSimulator("10.0.0.1")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); !errors.Is(err, ErrInitialized) {
		t.Errorf("expected ErrInitialized, got %v", err)
	}
}

func TestDetectWrongIP(t *testing.T) {
	s := NewSimulator("10.0.0.1")
	s.Init()
	if _, err := s.DetectDevice("10.0.0.2", false); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
	if found, err := s.DetectDevice("", true); err != nil || len(found) != 1 {
		t.Errorf("expected auto detect to find the device, got %v %v", found, err)
	}
}

func TestRecordingStateMachine(t *testing.T) {
	s, dev := openSim(t)
	if err := s.SetStatus(dev, StatusRec); !errors.Is(err, ErrIllegalValue) {
		t.Fatalf("expected Rec to be rejected, got %v", err)
	}
	if err := s.SetStatus(dev, StatusRecReady); err != nil {
		t.Fatal(err)
	}
	if err := s.TriggerIn(dev); err != nil {
		t.Fatal(err)
	}
	st, _ := s.Status(dev)
	if st != StatusRec {
		t.Fatalf("expected Rec after trigger, got %v", st)
	}
	st, _ = s.Status(dev)
	if st != StatusLive {
		t.Fatalf("expected recording to finish, got %v", st)
	}
	info, err := s.MemFrameInfo(dev, ChildNo)
	if err != nil {
		t.Fatal(err)
	}
	if info.Recorded != 16 || info.End != 15 {
		t.Errorf("expected 16 frames recorded, got %+v", info)
	}
	buf := make([]byte, 1024*1024*2)
	if err := s.MemImage(dev, ChildNo, 0, 16, buf); !errors.Is(err, ErrNotPlayback) {
		t.Errorf("expected memory reads outside playback to fail, got %v", err)
	}
	s.SetStatus(dev, StatusPlayback)
	if err := s.MemImage(dev, ChildNo, 3, 16, buf); err != nil {
		t.Errorf("expected memory read to succeed, got %v", err)
	}
	if buf[0] != 3 {
		t.Errorf("expected frame 3 seed in first pixel, got %d", buf[0])
	}
}

func TestRateLimitsResolution(t *testing.T) {
	s, dev := openSim(t)
	if err := s.SetRecordRate(dev, ChildNo, 8000); err != nil {
		t.Fatal(err)
	}
	w, h, _ := s.Resolution(dev, ChildNo)
	if uint64(w)*uint64(h)*8000 > s.PixelRate {
		t.Errorf("expected resolution to shrink to fit the pixel rate, got %dx%d", w, h)
	}
	list, _ := s.ResolutionList(dev, ChildNo)
	if list[0] == PackResolution(1024, 1024) {
		t.Error("expected full frame to be absent at 8000 fps")
	}
}

func TestFailNextIsConsumed(t *testing.T) {
	s, dev := openSim(t)
	s.FailNext("RecordRate", ErrTimeout)
	if _, err := s.RecordRate(dev, ChildNo); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if _, err := s.RecordRate(dev, ChildNo); err != nil {
		t.Errorf("expected fault to be consumed, got %v", err)
	}
}

func TestVariableChannelValidation(t *testing.T) {
	s, dev := openSim(t)
	bad := ChannelInfo{Rate: 1000, Width: 1001, Height: 512}
	if err := s.SetVariableChannelInfo(dev, 1, bad); !errors.Is(err, ErrIllegalValue) {
		t.Errorf("expected width not a multiple of 8 to fail, got %v", err)
	}
	good := ChannelInfo{Rate: 2000, Width: 512, Height: 256, XPos: 8, YPos: 4}
	if err := s.SetVariableChannelInfo(dev, 1, good); err != nil {
		t.Fatal(err)
	}
	if err := s.SetVariableChannel(dev, ChildNo, 1); err != nil {
		t.Fatal(err)
	}
	w, h, _ := s.Resolution(dev, ChildNo)
	rate, _ := s.RecordRate(dev, ChildNo)
	if w != 512 || h != 256 || rate != 2000 {
		t.Errorf("expected channel settings to apply, got %dx%d @ %d", w, h, rate)
	}
}

func TestMemoryKeepsRecordedGeometry(t *testing.T) {
	s, dev := openSim(t)
	s.SetStatus(dev, StatusRecReady)
	s.TriggerIn(dev)
	s.Status(dev)
	s.Status(dev)
	if err := s.SetResolution(dev, ChildNo, 128, 64); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRecordRate(dev, ChildNo, 2000); err != nil {
		t.Fatal(err)
	}
	w, h, err := s.MemResolution(dev, ChildNo)
	if err != nil || w != 1024 || h != 1024 {
		t.Errorf("expected the recording to stay 1024x1024, got %dx%d (%v)", w, h, err)
	}
	rate, err := s.MemRecordRate(dev, ChildNo)
	if err != nil || rate != 1000 {
		t.Errorf("expected the recording to stay at 1000 fps, got %d (%v)", rate, err)
	}
	s.SetStatus(dev, StatusPlayback)
	short := make([]byte, FrameBytes(128, 64, 12))
	if err := s.MemImage(dev, ChildNo, 0, 12, short); !errors.Is(err, ErrAllocateFailed) {
		t.Errorf("expected a buffer sized for the live geometry to be rejected, got %v", err)
	}
}

func TestFrameBytes(t *testing.T) {
	if n := FrameBytes(128, 64, 8); n != 128*64 {
		t.Errorf("8 bit frames are one byte per pixel, got %d", n)
	}
	if n := FrameBytes(128, 64, 12); n != 128*64*2 {
		t.Errorf("12 bit frames are two bytes per pixel, got %d", n)
	}
}
