// Package testdata builds synthetic camera frames for tests. Frames are
// drawn rather than loaded so no binary assets are checked in.
package testdata

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var (
	ringInk  = color.RGBA{R: 40, G: 40, B: 40}
	shaftInk = color.RGBA{R: 20, G: 20, B: 20}
)

// NewTargetFrame returns a BGR frame showing an empty target face: a
// light background with concentric rings and a strong outer boundary at
// the given radius. The caller owns the returned Mat.
func NewTargetFrame(width, height int, center image.Point, radius int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(255, 255, 255, 0))

	// Outer boundary drawn thick so the circle transform locks onto it.
	gocv.Circle(&frame, center, radius, ringInk, 4)
	for _, frac := range []float64{0.8, 0.6, 0.4, 0.2} {
		gocv.Circle(&frame, center, int(float64(radius)*frac), ringInk, 2)
	}
	gocv.Circle(&frame, center, 4, ringInk, -1)

	return frame
}

// NewBlankFrame returns a featureless BGR frame. Useful for exercising
// calibration failure: no circles to detect.
func NewBlankFrame(width, height int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(255, 255, 255, 0))
	return frame
}

// AddArrow draws an arrow shaft onto the frame. The shaft starts at tip
// and extends lengthPx away at angleDeg (0 = along +x). Keep the angle
// near an axis: the localizer's aspect-ratio filter works on bounding
// boxes, and a diagonal shaft has a near-square one.
func AddArrow(frame *gocv.Mat, tip image.Point, angleDeg float64, lengthPx, thicknessPx int) {
	rad := angleDeg * math.Pi / 180
	tail := image.Pt(
		tip.X+int(float64(lengthPx)*math.Cos(rad)),
		tip.Y+int(float64(lengthPx)*math.Sin(rad)),
	)
	gocv.Line(frame, tip, tail, shaftInk, thicknessPx)
}
