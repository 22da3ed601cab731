// Package capture provides camera frame acquisition using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 10
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for frame source implementations.
type Camera interface {
	Open() error
	Close() error

	// ReadFrame captures a single frame. The caller owns the returned Mat.
	ReadFrame() (*gocv.Mat, error)

	// ReadAveraged captures count frames and returns their mean,
	// reducing sensor noise for calibration input.
	ReadAveraged(count int) (*gocv.Mat, error)

	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera with the given device ID.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open opens the camera for capturing frames at full HD, the
// resolution the detection pipeline is tuned for.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readFrameLocked()
}

func (c *cameraImpl) readFrameLocked() (*gocv.Mat, error) {
	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// ReadAveraged captures count frames and averages them pixelwise. The
// caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadAveraged(count int) (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if count <= 0 {
		return nil, fmt.Errorf("averaged capture needs a positive frame count, got %d", count)
	}

	frames := make([]*gocv.Mat, 0, count)
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()

	for i := 0; i < count; i++ {
		frame, err := c.readFrameLocked()
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	return averageFrames(frames)
}

// averageFrames returns the pixelwise mean of the given frames.
func averageFrames(frames []*gocv.Mat) (*gocv.Mat, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to average")
	}

	// Accumulate in 32-bit float to avoid clipping, then convert back.
	acc := gocv.NewMat()
	defer acc.Close()
	frames[0].ConvertTo(&acc, gocv.MatTypeCV32FC3)

	conv := gocv.NewMat()
	defer conv.Close()
	for _, frame := range frames[1:] {
		frame.ConvertTo(&conv, gocv.MatTypeCV32FC3)
		gocv.Add(acc, conv, &acc)
	}

	acc.DivideFloat(float32(len(frames)))

	out := gocv.NewMat()
	acc.ConvertTo(&out, gocv.MatTypeCV8UC3)
	return &out, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
