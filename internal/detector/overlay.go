package detector

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/jhendrix/echo/internal/session"
)

// Overlay colors. Frames are BGR.
var (
	overlayGreen = color.RGBA{G: 255}
	overlayBlue  = color.RGBA{B: 255}
	overlayRed   = color.RGBA{R: 255}
)

// DrawTarget draws the calibrated boundary circle and center marker.
func DrawTarget(img *gocv.Mat, center image.Point, radiusPx int) {
	gocv.Circle(img, center, radiusPx, overlayGreen, 2)
	gocv.Circle(img, center, 5, overlayGreen, -1)
}

// DrawArrows draws a numbered marker at each arrow's landing point.
func DrawArrows(img *gocv.Mat, arrows []session.Arrow) {
	for _, a := range arrows {
		pos := image.Pt(a.PixelX, a.PixelY)
		gocv.Circle(img, pos, 6, overlayBlue, -1)
		gocv.PutText(img, fmt.Sprintf("%d", a.ID),
			image.Pt(pos.X+10, pos.Y), gocv.FontHersheySimplex, 0.6, overlayBlue, 2)
	}
}

// writeCalibrationDebug dumps the calibration overlay. Called with the
// detector lock held; failures are logged, never surfaced.
func (d *ArrowDetector) writeCalibrationDebug(frame *gocv.Mat) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("debug image write failed: %v", r)
		}
	}()

	overlay := frame.Clone()
	defer overlay.Close()

	DrawTarget(&overlay, d.center, d.radiusPx)

	path := filepath.Join(d.cfg.DebugDir,
		fmt.Sprintf("calibration_%d.jpg", d.now().Unix()))
	if ok := gocv.IMWrite(path, overlay); !ok {
		log.Printf("failed to write debug image %s", path)
	}
}

// writeDetectionDebug dumps the detection overlay with all session
// arrows marked and the newly accepted ones highlighted.
func (d *ArrowDetector) writeDetectionDebug(frame *gocv.Mat, accepted []session.Arrow) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("debug image write failed: %v", r)
		}
	}()

	overlay := frame.Clone()
	defer overlay.Close()

	DrawTarget(&overlay, d.center, d.radiusPx)
	DrawArrows(&overlay, d.sess.Arrows())
	for _, a := range accepted {
		gocv.Circle(&overlay, image.Pt(a.PixelX, a.PixelY), 12, overlayRed, 3)
	}

	path := filepath.Join(d.cfg.DebugDir,
		fmt.Sprintf("detection_%d.jpg", d.now().Unix()))
	if ok := gocv.IMWrite(path, overlay); !ok {
		log.Printf("failed to write debug image %s", path)
	}
}
