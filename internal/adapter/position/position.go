// Package position provides the device position sources. A server has no
// GPS, so the fix is either a configured fixed coordinate or unavailable.
package position

import (
	"context"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// Static reports a fixed coordinate. Implements domain.Locator.
type Static struct {
	coord domain.Coordinate
}

// NewStatic creates a Static locator at the given coordinate.
func NewStatic(lat, lon float64) *Static {
	return &Static{coord: domain.Coordinate{Lat: lat, Lon: lon}}
}

// CurrentPosition returns the configured coordinate.
func (s *Static) CurrentPosition(context.Context) (domain.Coordinate, error) {
	return s.coord, nil
}

// Unavailable always fails with domain.ErrGeolocationUnavailable.
type Unavailable struct{}

// CurrentPosition reports that no position source exists.
func (Unavailable) CurrentPosition(context.Context) (domain.Coordinate, error) {
	return domain.Coordinate{}, domain.ErrGeolocationUnavailable
}
