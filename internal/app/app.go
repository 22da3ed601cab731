// Package app wires the camera, the arrow detector, and the session
// store into one owned service with an explicit lifecycle.
package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jhendrix/echo/internal/capture"
	"github.com/jhendrix/echo/internal/detector"
	"github.com/jhendrix/echo/internal/session"
	"github.com/jhendrix/echo/internal/store"
	"github.com/jhendrix/echo/internal/target"
)

// Defaults for the application configuration.
const (
	// DefaultPollInterval is the period of the auto-detect loop.
	DefaultPollInterval = 2 * time.Second
	// DefaultCalibrationFrames is how many frames are averaged into the
	// calibration input.
	DefaultCalibrationFrames = 10
	// DefaultMaxSessions bounds how many finished sessions the store keeps.
	DefaultMaxSessions = 100
	// stopTimeout bounds how long Stop waits for the poller to exit.
	stopTimeout = 3 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	CameraID int
	// Camera overrides the frame source. Nil means the device camera
	// identified by CameraID.
	Camera            capture.Camera
	TargetProfile     string
	PollInterval      time.Duration
	CalibrationFrames int
	MaxSessions       int
	Detector          detector.Config
}

// App owns the camera, detector, and store. HTTP handlers and the
// poller both operate through it; the detector's internal lock is the
// serialization point for session and calibration state.
type App struct {
	config   Config
	camera   capture.Camera
	detector *detector.ArrowDetector

	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
	pollerDone chan struct{}

	listeners []func(detector.Detection)
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.TargetProfile == "" {
		config.TargetProfile = target.DefaultProfileName
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.CalibrationFrames <= 0 {
		config.CalibrationFrames = DefaultCalibrationFrames
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}

	profile, err := target.Lookup(config.TargetProfile)
	if err != nil {
		return nil, err
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}

	return &App{
		config:   config,
		camera:   camera,
		detector: detector.New(profile, config.Detector),
	}, nil
}

// Detector returns the arrow detector instance.
func (a *App) Detector() *detector.ArrowDetector {
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// SetEnabled enables or disables the auto-detect loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether auto-detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnDetection registers a listener invoked after each cycle that
// accepts at least one arrow.
func (a *App) OnDetection(fn func(detector.Detection)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Start opens the camera, records the session, and starts the poller.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}

	a.recordSessionStart()

	a.stopCh = make(chan struct{})
	a.pollerDone = make(chan struct{})
	go a.runPoller(a.stopCh, a.pollerDone)

	log.Println("Detection service started")
	return nil
}

// Stop halts the poller and releases resources. The poller is joined
// with a bounded timeout rather than an unbounded wait.
func (a *App) Stop() {
	a.mu.Lock()

	var done chan struct{}
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
		done = a.pollerDone
		a.pollerDone = nil
	}
	a.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(stopTimeout):
			log.Println("Timed out waiting for poller to stop")
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.detector.Close()

	a.recordSessionEnd()

	log.Println("Detection service stopped")
}

// Calibrate captures an averaged frame and calibrates the detector.
// A non-empty targetProfile different from the active one triggers a
// reconfigure first, which clears the session.
func (a *App) Calibrate(targetProfile string) (detector.Calibration, error) {
	if targetProfile != "" && targetProfile != a.detector.Profile().Name {
		if err := a.Reconfigure(targetProfile); err != nil {
			return detector.Calibration{}, err
		}
	}

	frame, err := a.camera.ReadAveraged(a.config.CalibrationFrames)
	if err != nil {
		return detector.Calibration{}, fmt.Errorf("failed to capture calibration frame: %w", err)
	}
	defer frame.Close()

	return a.detector.Calibrate(frame)
}

// DetectOnce captures a frame, runs one detect cycle, persists any
// accepted arrows, and notifies listeners.
func (a *App) DetectOnce() (detector.Detection, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return detector.Detection{}, fmt.Errorf("failed to capture frame: %w", err)
	}
	defer frame.Close()

	det, err := a.detector.Detect(frame)
	if err != nil {
		return detector.Detection{}, err
	}

	if len(det.Accepted) > 0 {
		a.persistArrows(det.Accepted)
		a.notify(det)
	}

	return det, nil
}

// Reset clears the current session, keeping the calibration. The old
// session is closed in the store and a fresh one recorded.
func (a *App) Reset() {
	a.recordSessionEnd()
	a.detector.Reset()
	a.recordSessionStart()
}

// Reconfigure swaps the target profile, dropping calibration and
// session in one transition.
func (a *App) Reconfigure(targetProfile string) error {
	profile, err := target.Lookup(targetProfile)
	if err != nil {
		return err
	}

	a.recordSessionEnd()
	if err := a.detector.Reconfigure(profile); err != nil {
		return err
	}
	a.recordSessionStart()

	log.Printf("Reconfigured for %s target", targetProfile)
	return nil
}

// notify fans a detection out to the registered listeners.
func (a *App) notify(det detector.Detection) {
	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(det)
	}
}

// recordSessionStart writes the current session to the store and prunes
// old ones. Store failures are logged, never fatal: persistence is an
// audit trail, not part of the detection contract.
func (a *App) recordSessionStart() {
	if a.config.Store == nil {
		return
	}

	repo := a.config.Store.Sessions()
	if err := repo.Create(a.detector.SessionID(), a.detector.Profile().Name, time.Now()); err != nil {
		log.Printf("Failed to record session start: %v", err)
		return
	}
	if err := repo.Prune(a.config.MaxSessions); err != nil {
		log.Printf("Failed to prune sessions: %v", err)
	}
}

// recordSessionEnd marks the current session finished in the store.
func (a *App) recordSessionEnd() {
	if a.config.Store == nil {
		return
	}

	if err := a.config.Store.Sessions().Finish(a.detector.SessionID(), time.Now()); err != nil {
		log.Printf("Failed to record session end: %v", err)
	}
}

// persistArrows appends accepted arrows to the store.
func (a *App) persistArrows(arrows []session.Arrow) {
	if a.config.Store == nil {
		return
	}

	if err := a.config.Store.Sessions().SaveArrows(a.detector.SessionID(), arrows); err != nil {
		log.Printf("Failed to persist arrows: %v", err)
	}
}
