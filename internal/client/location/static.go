package location

import (
	"context"
	"time"
)

// StaticPlatform reports a fixed position. It stands in for a device when
// thriftctl runs headless.
type StaticPlatform struct {
	Position       Coordinates
	Accuracy       float64
	Disabled       bool
	DenyForeground bool
	DenyBackground bool
	Now            func() time.Time
}

func NewStaticPlatform(lat, lon float64) *StaticPlatform {
	return &StaticPlatform{Position: Coordinates{Latitude: lat, Longitude: lon}, Accuracy: 10}
}

func (s *StaticPlatform) ServicesEnabled(context.Context) (bool, error) {
	return !s.Disabled, nil
}

func (s *StaticPlatform) RequestForegroundPermission(context.Context) (bool, error) {
	return !s.DenyForeground, nil
}

func (s *StaticPlatform) RequestBackgroundPermission(context.Context) (bool, error) {
	return !s.DenyBackground, nil
}

func (s *StaticPlatform) CurrentPosition(context.Context) (*Position, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return &Position{Coordinates: s.Position, Accuracy: s.Accuracy, Timestamp: now()}, nil
}
