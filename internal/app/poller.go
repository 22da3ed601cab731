package app

import (
	"errors"
	"log"
	"time"

	"github.com/jhendrix/echo/internal/detector"
)

// runPoller is the auto-detect loop. Each tick runs one detect cycle
// against the shared detector when auto-detection is enabled and the
// detector is calibrated. The stop signal is checked at tick
// boundaries; an in-flight cycle always runs to completion.
func (a *App) runPoller(stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() || !a.detector.Calibrated() {
				continue
			}

			det, err := a.DetectOnce()
			if err != nil {
				// The cooldown gate trips routinely between shots;
				// only real failures are worth logging.
				if !errors.Is(err, detector.ErrCooldownActive) {
					log.Printf("Auto-detect cycle failed: %v", err)
				}
				continue
			}

			if len(det.Accepted) > 0 {
				log.Printf("Auto-detected %d new arrow(s), %d total", len(det.Accepted), det.Total)
			}
		}
	}
}
