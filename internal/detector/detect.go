package detector

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/jhendrix/echo/internal/session"
)

// Detection is the outcome of one detect cycle.
type Detection struct {
	Accepted []session.Arrow `json:"new_arrows"`
	Total    int             `json:"total_arrows"`
}

// Detect compares the frame against the calibrated reference and
// records any new arrow hits.
//
// The cooldown gate is checked before any image work: a call landing
// inside the window since the last accepted detection returns
// ErrCooldownActive untouched. A cycle that accepts at least one arrow
// re-arms the window; an empty cycle does not. A cycle that fails with
// a ProcessingError leaves the session unchanged.
func (d *ArrowDetector) Detect(frame *gocv.Mat) (det Detection, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.calibrated {
		return Detection{}, ErrNotCalibrated
	}

	now := d.now()
	if d.sess.InCooldown(now, d.cfg.Cooldown) {
		return Detection{}, ErrCooldownActive
	}

	defer recoverProcessing("detect", &err)

	gray := gocv.NewMat()
	defer gray.Close()
	grayscale(frame, &gray)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(d.reference, gray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, d.cfg.DiffThreshold, 255, gocv.ThresholdBinary)

	// Close bridges small gaps in the arrow shaft, open removes speckle.
	kernel := gocv.GetStructuringElement(gocv.MorphRect,
		image.Pt(d.cfg.MorphKernelSize, d.cfg.MorphKernelSize))
	defer kernel.Close()
	gocv.MorphologyExWithParams(mask, &mask, gocv.MorphClose, kernel,
		d.cfg.MorphIterations, gocv.BorderConstant)
	gocv.MorphologyExWithParams(mask, &mask, gocv.MorphOpen, kernel,
		d.cfg.MorphIterations, gocv.BorderConstant)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var candidates []session.Candidate
	for i := 0; i < contours.Size(); i++ {
		if cand, ok := d.localize(contours.At(i)); ok {
			candidates = append(candidates, cand)
		}
	}

	// Candidates are committed only after all image work has finished,
	// so a processing failure returns with the session untouched.
	var accepted []session.Arrow
	for _, cand := range candidates {
		if arrow, ok := d.sess.Accept(cand, now); ok {
			accepted = append(accepted, arrow)
		}
	}

	if len(accepted) > 0 {
		d.sess.Touch(now)
		if d.cfg.DebugDir != "" {
			d.writeDetectionDebug(frame, accepted)
		}
	}

	return Detection{Accepted: accepted, Total: d.sess.Len()}, nil
}

// localize filters one candidate contour and extracts its landing
// point. Filters run in order, rejecting early: area bound, bounding-box
// elongation, then tip extraction. The tip is the contour point nearest
// the calibrated center.
func (d *ArrowDetector) localize(contour gocv.PointVector) (session.Candidate, bool) {
	area := gocv.ContourArea(contour)
	if area < d.cfg.MinArrowArea || area > d.cfg.MaxArrowArea {
		return session.Candidate{}, false
	}

	rect := gocv.BoundingRect(contour)
	w, h := rect.Dx(), rect.Dy()
	aspect := float64(max(w, h)) / float64(max(min(w, h), 1))
	if aspect < d.cfg.MinAspectRatio {
		return session.Candidate{}, false
	}

	points := contour.ToPoints()
	if len(points) == 0 {
		return session.Candidate{}, false
	}

	tip := points[0]
	bestSq := math.Inf(1)
	for _, p := range points {
		dx := float64(p.X - d.center.X)
		dy := float64(p.Y - d.center.Y)
		if sq := dx*dx + dy*dy; sq < bestSq {
			bestSq = sq
			tip = p
		}
	}

	xCM := float64(tip.X-d.center.X) / d.pixelsPerCM
	yCM := float64(tip.Y-d.center.Y) / d.pixelsPerCM
	distanceCM := math.Hypot(xCM, yCM)

	angleDeg := math.Atan2(yCM, xCM) * 180 / math.Pi
	if angleDeg < 0 {
		angleDeg += 360
	}

	return session.Candidate{
		XCM:        xCM,
		YCM:        yCM,
		DistanceCM: distanceCM,
		AngleDeg:   angleDeg,
		Score:      d.profile.Score(distanceCM),
		PixelX:     tip.X,
		PixelY:     tip.Y,
	}, true
}
