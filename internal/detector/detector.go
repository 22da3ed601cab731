// Package detector implements the arrow detection core: target
// calibration, frame differencing against a reference image, candidate
// filtering with tip localization, scoring, and duplicate rejection.
package detector

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/jhendrix/echo/internal/session"
	"github.com/jhendrix/echo/internal/target"
)

// Config holds the tunable parameters of the detection pipeline.
type Config struct {
	// DiffThreshold is the per-pixel intensity delta (0-255) above which
	// a pixel counts as changed against the reference frame.
	DiffThreshold float32

	// MinArrowArea and MaxArrowArea bound the contour area in pixels.
	// The lower bound rejects noise specks, the upper bound frame-wide
	// lighting changes.
	MinArrowArea float64
	MaxArrowArea float64

	// MinAspectRatio is the minimum bounding-box elongation for a
	// candidate. Arrow shafts are elongated; near-circular blobs are
	// filtered out. This is a heuristic, not a guaranteed detector.
	MinAspectRatio float64

	// MinArrowDistanceCM is the minimum spacing between accepted arrows.
	MinArrowDistanceCM float64

	// Cooldown is the minimum time between accepted detections. It
	// should exceed the worst-case single-cycle processing time.
	Cooldown time.Duration

	// BlurKernelSize is the Gaussian blur kernel used before circle
	// detection. Must be odd; even values are bumped up.
	BlurKernelSize int

	// MorphKernelSize and MorphIterations control the close/open pass
	// that suppresses speckle noise in the change mask.
	MorphKernelSize int
	MorphIterations int

	// Hough circle transform parameters for calibration.
	HoughDP        float64
	HoughMinDist   float64
	HoughParam1    float64
	HoughParam2    float64
	HoughMinRadius int
	HoughMaxRadius int

	// DebugDir, when set, receives JPEG overlays of calibrations and
	// detections. Off the critical path; write failures are only logged.
	DebugDir string
}

// DefaultConfig returns the detection parameters tuned for a 1080p
// camera a few meters from the target.
func DefaultConfig() Config {
	return Config{
		DiffThreshold:      25,
		MinArrowArea:       100,
		MaxArrowArea:       50000,
		MinAspectRatio:     2.0,
		MinArrowDistanceCM: 3.0,
		Cooldown:           time.Second,
		BlurKernelSize:     5,
		MorphKernelSize:    3,
		MorphIterations:    2,
		HoughDP:            1.2,
		HoughMinDist:       100,
		HoughParam1:        50,
		HoughParam2:        30,
		HoughMinRadius:     50,
		HoughMaxRadius:     800,
	}
}

// Status is a read-only snapshot of the detector state.
type Status struct {
	Calibrated    bool    `json:"calibrated"`
	TargetProfile string  `json:"target_profile"`
	ArrowCount    int     `json:"arrow_count"`
	CenterX       int     `json:"center_x"`
	CenterY       int     `json:"center_y"`
	RadiusPx      int     `json:"radius_px"`
	PixelsPerCM   float64 `json:"pixels_per_cm"`
	SessionID     string  `json:"session_id"`
}

// ArrowDetector converts frames of a calibrated target into scored
// arrow records. All mutating operations (Calibrate, Detect, Reset,
// Reconfigure) are serialized by a single lock; read-only operations
// take the read side and return copies.
type ArrowDetector struct {
	mu      sync.RWMutex
	cfg     Config
	profile target.Profile

	calibrated  bool
	center      image.Point
	radiusPx    int
	pixelsPerCM float64
	reference   gocv.Mat

	sess *session.Session

	now func() time.Time
}

// New creates an uncalibrated detector for the given target profile.
func New(profile target.Profile, cfg Config) *ArrowDetector {
	if cfg.BlurKernelSize%2 == 0 {
		cfg.BlurKernelSize++
	}
	now := time.Now
	return &ArrowDetector{
		cfg:     cfg,
		profile: profile,
		sess:    session.New(cfg.MinArrowDistanceCM, now()),
		now:     now,
	}
}

// Calibrated reports whether the detector holds a valid calibration.
func (d *ArrowDetector) Calibrated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calibrated
}

// Profile returns the active target profile.
func (d *ArrowDetector) Profile() target.Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.profile
}

// Status returns a consistent snapshot of the detector state.
func (d *ArrowDetector) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Status{
		Calibrated:    d.calibrated,
		TargetProfile: d.profile.Name,
		ArrowCount:    d.sess.Len(),
		CenterX:       d.center.X,
		CenterY:       d.center.Y,
		RadiusPx:      d.radiusPx,
		PixelsPerCM:   d.pixelsPerCM,
		SessionID:     d.sess.ID(),
	}
}

// Arrows returns the accepted arrows in acceptance order.
func (d *ArrowDetector) Arrows() []session.Arrow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sess.Arrows()
}

// Statistics computes summary metrics over the current session.
func (d *ArrowDetector) Statistics() session.Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sess.Statistics()
}

// SessionID returns the identifier of the current session.
func (d *ArrowDetector) SessionID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sess.ID()
}

// Reset starts a fresh session. Calibration is untouched; arrow IDs
// restart at 1.
func (d *ArrowDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sess = session.New(d.cfg.MinArrowDistanceCM, d.now())
}

// Reconfigure swaps the target profile, drops the calibration, and
// starts a fresh session as one atomic transition. The detector must be
// recalibrated before the next Detect.
func (d *ArrowDetector) Reconfigure(profile target.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.calibrated {
		d.reference.Close()
	}
	d.profile = profile
	d.calibrated = false
	d.center = image.Point{}
	d.radiusPx = 0
	d.pixelsPerCM = 0
	d.sess = session.New(d.cfg.MinArrowDistanceCM, d.now())
	return nil
}

// Close releases the reference frame. The detector is unusable after.
func (d *ArrowDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calibrated {
		d.reference.Close()
		d.calibrated = false
	}
}

// grayscale converts a frame to single-channel grayscale. Frames from
// the camera are BGR; already-gray frames are copied through.
func grayscale(frame *gocv.Mat, dst *gocv.Mat) {
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, dst, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(dst)
	}
}
