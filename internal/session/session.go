// Package session holds the arrow records accepted during a detection
// session and enforces the acceptance rules between them.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Arrow is an accepted arrow-hit record. IDs are sequential within a
// session, starting at 1. Records are immutable after acceptance.
type Arrow struct {
	ID         int       `json:"id"`
	XCM        float64   `json:"x_cm"`
	YCM        float64   `json:"y_cm"`
	DistanceCM float64   `json:"distance_cm"`
	AngleDeg   float64   `json:"angle_deg"`
	Score      int       `json:"score"`
	Timestamp  time.Time `json:"timestamp"`
	PixelX     int       `json:"pixel_x"`
	PixelY     int       `json:"pixel_y"`
}

// Candidate is a provisional arrow produced by the localizer. It has no
// ID or timestamp until the session accepts it.
type Candidate struct {
	XCM        float64
	YCM        float64
	DistanceCM float64
	AngleDeg   float64
	Score      int
	PixelX     int
	PixelY     int
}

// Session is the ordered sequence of accepted arrows. It is not safe for
// concurrent use; the detector serializes access to it.
type Session struct {
	id           string
	startedAt    time.Time
	arrows       []Arrow
	lastAccepted time.Time
	minSpacingCM float64
}

// New creates an empty session. minSpacingCM is the minimum distance in
// centimeters between any two accepted arrows.
func New(minSpacingCM float64, now time.Time) *Session {
	return &Session{
		id:           uuid.New().String(),
		startedAt:    now,
		minSpacingCM: minSpacingCM,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Len returns the number of accepted arrows.
func (s *Session) Len() int {
	return len(s.arrows)
}

// Arrows returns a copy of the accepted arrows in acceptance order.
func (s *Session) Arrows() []Arrow {
	out := make([]Arrow, len(s.arrows))
	copy(out, s.arrows)
	return out
}

// InCooldown reports whether the cooldown window is still armed: an
// arrow was accepted less than window ago.
func (s *Session) InCooldown(now time.Time, window time.Duration) bool {
	if s.lastAccepted.IsZero() {
		return false
	}
	return now.Sub(s.lastAccepted) < window
}

// LastAccepted returns the time of the last accepted detection, or the
// zero time if nothing has been accepted yet.
func (s *Session) LastAccepted() time.Time {
	return s.lastAccepted
}

// Accept adds a candidate if it is at least the minimum spacing away
// from every arrow already in the session. It returns the completed
// record and whether it was accepted. Accept does not touch the
// cooldown timer; callers arm it with Touch once a detection cycle
// accepts at least one candidate.
func (s *Session) Accept(c Candidate, now time.Time) (Arrow, bool) {
	for _, a := range s.arrows {
		dx := c.XCM - a.XCM
		dy := c.YCM - a.YCM
		if math.Hypot(dx, dy) < s.minSpacingCM {
			return Arrow{}, false
		}
	}

	arrow := Arrow{
		ID:         len(s.arrows) + 1,
		XCM:        c.XCM,
		YCM:        c.YCM,
		DistanceCM: c.DistanceCM,
		AngleDeg:   c.AngleDeg,
		Score:      c.Score,
		Timestamp:  now,
		PixelX:     c.PixelX,
		PixelY:     c.PixelY,
	}
	s.arrows = append(s.arrows, arrow)
	return arrow, true
}

// Touch re-arms the cooldown window after a cycle that accepted at
// least one arrow.
func (s *Session) Touch(now time.Time) {
	s.lastAccepted = now
}
