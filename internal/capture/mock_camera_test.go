package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_ReadFrame_NotOpen(t *testing.T) {
	c := NewMockCamera(nil, false)

	if _, err := c.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	c := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)
	if err := c.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 2; i++ {
		f, err := c.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	// Sequence exhausted without looping.
	if _, err := c.ReadFrame(); err == nil {
		t.Error("ReadFrame() past the sequence should fail when not looping")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	c := NewMockCamera([]*gocv.Mat{&frame}, true)
	if err := c.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 5; i++ {
		f, err := c.ReadFrame()
		if err != nil {
			t.Fatalf("looping ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_ReadAveraged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	// Average of a black and a white frame is mid-gray.
	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	c := NewMockCamera([]*gocv.Mat{&black, &white}, false)
	if err := c.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	avg, err := c.ReadAveraged(2)
	if err != nil {
		t.Fatalf("ReadAveraged() error = %v", err)
	}
	defer avg.Close()

	if avg.Rows() != 480 || avg.Cols() != 640 {
		t.Errorf("averaged frame is %dx%d, want 640x480", avg.Cols(), avg.Rows())
	}

	mean := avg.Mean()
	if mean.Val1 < 100 || mean.Val1 > 155 {
		t.Errorf("averaged mean = %f, want mid-gray around 127", mean.Val1)
	}
}

func TestMockCamera_ReadAveraged_InvalidCount(t *testing.T) {
	c := NewMockCamera(nil, false)
	c.Open()
	defer c.Close()

	if _, err := c.ReadAveraged(0); err == nil {
		t.Error("ReadAveraged(0) should fail")
	}
}

func TestMockCamera_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	c := NewMockCamera([]*gocv.Mat{&frame}, false)
	c.Open()
	defer c.Close()

	f, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f.Close()

	c.Reset()

	f, err = c.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after Reset error = %v", err)
	}
	f.Close()
}
