package detector

import (
	"errors"
	"fmt"
)

// ErrNotCalibrated is returned by Detect before a successful calibration.
var ErrNotCalibrated = errors.New("detector is not calibrated")

// ErrCooldownActive is returned by Detect when the cooldown window since
// the last accepted detection has not elapsed.
var ErrCooldownActive = errors.New("detection cooldown active")

// ErrNoTargetFound is returned by Calibrate when no circles are detected
// in the reference image.
var ErrNoTargetFound = errors.New("no target detected")

// ProcessingError wraps an unexpected failure inside an image-processing
// primitive. The detector state is unchanged when one is returned.
type ProcessingError struct {
	Op     string
	Detail string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: image processing failed: %s", e.Op, e.Detail)
}

// recoverProcessing converts a panic out of the OpenCV bindings into a
// ProcessingError at the operation boundary.
func recoverProcessing(op string, err *error) {
	if r := recover(); r != nil {
		*err = &ProcessingError{Op: op, Detail: fmt.Sprint(r)}
	}
}
