package detector

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// Calibration describes a successful calibration result.
type Calibration struct {
	CenterX      int     `json:"center_x"`
	CenterY      int     `json:"center_y"`
	RadiusPx     int     `json:"radius_px"`
	PixelsPerCM  float64 `json:"pixels_per_cm"`
	CirclesFound int     `json:"circles_found"`
}

// Calibrate derives the target geometry from a reference image of an
// empty target and stores its grayscale as the differencing baseline.
//
// The image is blurred and run through a circular Hough transform; the
// largest detected circle is taken as the target's outer boundary. This
// heuristic can latch onto other circular objects in cluttered
// backgrounds; keep the camera view clear of them.
//
// On failure the previous calibration (or uncalibrated state) is kept.
func (d *ArrowDetector) Calibrate(frame *gocv.Mat) (cal Calibration, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer recoverProcessing("calibrate", &err)

	gray := gocv.NewMat()
	defer gray.Close()
	grayscale(frame, &gray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := d.cfg.BlurKernelSize
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		d.cfg.HoughDP, d.cfg.HoughMinDist,
		d.cfg.HoughParam1, d.cfg.HoughParam2,
		d.cfg.HoughMinRadius, d.cfg.HoughMaxRadius)

	found := 0
	if !circles.Empty() {
		found = circles.Cols()
	}
	if found == 0 {
		return Calibration{}, ErrNoTargetFound
	}

	// The largest circle is assumed to be the outer boundary.
	var best gocv.Vecf
	for i := 0; i < found; i++ {
		v := circles.GetVecfAt(0, i)
		if best == nil || v[2] > best[2] {
			best = v
		}
	}

	center := image.Pt(int(best[0]), int(best[1]))
	radius := int(best[2])
	pixelsPerCM := float64(radius) * 2 / d.profile.DiameterCM

	if d.calibrated {
		d.reference.Close()
	}
	d.reference = gray.Clone()
	d.center = center
	d.radiusPx = radius
	d.pixelsPerCM = pixelsPerCM
	d.calibrated = true

	log.Printf("calibrated: center=(%d,%d) radius=%dpx scale=%.2fpx/cm circles=%d",
		center.X, center.Y, radius, pixelsPerCM, found)

	if d.cfg.DebugDir != "" {
		d.writeCalibrationDebug(frame)
	}

	return Calibration{
		CenterX:      center.X,
		CenterY:      center.Y,
		RadiusPx:     radius,
		PixelsPerCM:  pixelsPerCM,
		CirclesFound: found,
	}, nil
}
