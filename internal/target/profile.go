// Package target defines archery target face profiles and ring scoring.
package target

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown target profile")

// Ring is a scoring band on a target face. An arrow landing within
// RadiusCM of the center (and outside all smaller rings) scores Score.
type Ring struct {
	Score    int
	RadiusCM float64
}

// Profile describes the physical geometry of a target face.
// Rings must be ordered ascending by RadiusCM (descending by score).
// A Profile is immutable once constructed.
type Profile struct {
	Name       string
	DiameterCM float64
	Rings      []Ring
}

// Builtin target faces per World Archery dimensions.
var profiles = map[string]Profile{
	"80cm": {
		Name:       "80cm",
		DiameterCM: 80,
		Rings: []Ring{
			{Score: 10, RadiusCM: 4.0},
			{Score: 9, RadiusCM: 8.0},
			{Score: 8, RadiusCM: 16.0},
			{Score: 7, RadiusCM: 24.0},
			{Score: 6, RadiusCM: 32.0},
			{Score: 5, RadiusCM: 40.0},
		},
	},
	"122cm": {
		Name:       "122cm",
		DiameterCM: 122,
		Rings: []Ring{
			{Score: 10, RadiusCM: 6.1},
			{Score: 9, RadiusCM: 12.2},
			{Score: 8, RadiusCM: 24.4},
			{Score: 7, RadiusCM: 36.6},
			{Score: 6, RadiusCM: 48.8},
			{Score: 5, RadiusCM: 61.0},
		},
	},
}

// DefaultProfileName is the target face assumed when none is requested.
const DefaultProfileName = "122cm"

// Lookup returns the builtin profile with the given name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score maps a radial distance from the target center to a ring score.
// The first ring whose radius covers the distance wins; a distance
// beyond the outermost ring is a miss and scores 0.
func (p Profile) Score(distanceCM float64) int {
	for _, ring := range p.Rings {
		if distanceCM <= ring.RadiusCM {
			return ring.Score
		}
	}
	return 0
}

// Validate checks that the profile geometry is usable: a positive
// diameter and ring radii strictly increasing.
func (p Profile) Validate() error {
	if p.DiameterCM <= 0 {
		return fmt.Errorf("profile %q: diameter must be positive", p.Name)
	}
	if len(p.Rings) == 0 {
		return fmt.Errorf("profile %q: no rings defined", p.Name)
	}
	prev := 0.0
	for i, ring := range p.Rings {
		if ring.RadiusCM <= prev {
			return fmt.Errorf("profile %q: ring %d radius %.1f not strictly increasing", p.Name, i, ring.RadiusCM)
		}
		prev = ring.RadiusCM
	}
	return nil
}
