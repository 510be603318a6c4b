package location

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

const AddressNotFound = "Address not found"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a device fix. Accuracy is in meters.
type Position struct {
	Coordinates
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type Address struct {
	Street   string
	District string
	City     string
	Region   string
	Country  string
}

// Format joins the non-empty components with ", ".
func (a Address) Format() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.District, a.City, a.Region, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Platform is the device side of location: service state, permissions and fixes.
type Platform interface {
	ServicesEnabled(ctx context.Context) (bool, error)
	RequestForegroundPermission(ctx context.Context) (bool, error)
	RequestBackgroundPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (*Position, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, text string) ([]Coordinates, error)
	Reverse(ctx context.Context, lat, lon float64) ([]Address, error)
}

type Provider struct {
	platform Platform
	geocoder Geocoder
}

func NewProvider(platform Platform, geocoder Geocoder) *Provider {
	return &Provider{platform: platform, geocoder: geocoder}
}

// CurrentLocation fails with ErrServicesDisabled, ErrPermissionDenied or
// ErrLookupFailed.
func (p *Provider) CurrentLocation(ctx context.Context) (*Coordinates, error) {
	enabled, err := p.platform.ServicesEnabled(ctx)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLookupFailed, "check location services: %v", err)
	}
	if !enabled {
		return nil, common.ErrServicesDisabled
	}

	granted, err := p.platform.RequestForegroundPermission(ctx)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLookupFailed, "request permission: %v", err)
	}
	if !granted {
		return nil, common.ErrPermissionDenied
	}

	pos, err := p.platform.CurrentPosition(ctx)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLookupFailed, "current position: %v", err)
	}
	return &pos.Coordinates, nil
}

// ReverseGeocode always returns a displayable string. When the lookup
// fails the error is returned alongside AddressNotFound.
func (p *Provider) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	addrs, err := p.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		logger.Log.WithError(err).Warn("reverse geocoding failed")
		return AddressNotFound, errors.Wrapf(common.ErrLookupFailed, "reverse geocode: %v", err)
	}
	if len(addrs) == 0 {
		return AddressNotFound, nil
	}
	formatted := addrs[0].Format()
	if formatted == "" {
		return AddressNotFound, nil
	}
	return formatted, nil
}

// GeocodeAddress returns nil without an error when nothing matches.
func (p *Provider) GeocodeAddress(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	matches, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLookupFailed, "geocode %q: %v", address, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
