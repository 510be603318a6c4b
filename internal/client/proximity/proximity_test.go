package proximity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"

	"thriftstore/internal/client/api"
	"thriftstore/internal/client/location"
)

var (
	liberty  = location.Coordinates{Latitude: 31.5204, Longitude: 74.3587}
	township = location.Coordinates{Latitude: 31.4722, Longitude: 74.2662}
	nearby   = location.Coordinates{Latitude: 31.5300, Longitude: 74.3500}
)

type fakeGeocoder struct {
	coords map[string]*location.Coordinates
	errs   map[string]error
	calls  []string
}

func (f *fakeGeocoder) GeocodeAddress(_ context.Context, address string) (*location.Coordinates, error) {
	f.calls = append(f.calls, address)
	if err := f.errs[address]; err != nil {
		return nil, err
	}
	return f.coords[address], nil
}

func TestDistance(t *testing.T) {
	d := Distance(liberty, township)

	assert.InDelta(t, 10.28, d, 0.05)
	assert.Greater(t, d, NearbyKm)
	assert.False(t, IsNearby(d))
	assert.Zero(t, Distance(liberty, liberty))
	assert.True(t, IsNearby(Distance(liberty, liberty)))
}

func TestDistance_Symmetric(t *testing.T) {
	points := []location.Coordinates{
		liberty, township, nearby,
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 51.5074, Longitude: -0.1278},
		{Latitude: 0, Longitude: 179.9},
		{Latitude: 0, Longitude: -179.9},
	}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
		}
	}
}

func TestMatcher_Match(t *testing.T) {
	geo := &fakeGeocoder{
		coords: map[string]*location.Coordinates{
			"Here":     &liberty,
			"Close by": &nearby,
			"Township": &township,
		},
		errs: map[string]error{"Broken": errors.New("quota exceeded")},
	}
	sellers := []Seller{
		{ID: 1, Address: "Here", Items: []Item{{Name: "Lamp"}, {Name: "Chair"}}},
		{ID: 2, Address: "Close by", Items: []Item{{Name: "Table"}}},
		{ID: 3, Address: "Township", Items: []Item{{Name: "lamp"}}},
		{ID: 4, Address: "Broken", Items: []Item{{Name: "Lamp"}}},
		{ID: 5, Address: "Unknown", Items: []Item{{Name: "Lamp"}}},
		{ID: 6, Address: "Close by", Items: []Item{{Name: " LAMP "}}},
	}

	m := NewMatcher(geo, ratelimit.NewUnlimited())
	got, err := m.Match(context.Background(), liberty, []string{"lamp", "sofa"}, sellers)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].Seller.ID)
	assert.Equal(t, []Item{{Name: "Lamp"}}, got[0].Items)
	assert.Zero(t, got[0].DistanceKm)
	assert.Equal(t, uint(6), got[1].Seller.ID)

	assert.Equal(t, []string{"Here", "Township", "Broken", "Unknown", "Close by"}, geo.calls)
}

func TestMatcher_NoIntersectionNoGeocoding(t *testing.T) {
	geo := &fakeGeocoder{}
	m := NewMatcher(geo, ratelimit.NewUnlimited())

	got, err := m.Match(context.Background(), liberty, []string{"sofa"}, []Seller{
		{ID: 1, Address: "Here", Items: []Item{{Name: "Lamp"}}},
	})

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Empty(t, geo.calls)
}

func TestMatcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMatcher(&fakeGeocoder{}, ratelimit.NewUnlimited()).Match(ctx, liberty, []string{"lamp"}, []Seller{
		{ID: 1, Address: "Here", Items: []Item{{Name: "Lamp"}}},
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSellersFromListings(t *testing.T) {
	sellers := SellersFromListings([]api.Listing{
		{ID: 1, UserID: 9, Name: "Lamp", Location: "Gulberg"},
		{ID: 2, UserID: 9, Name: "Chair", Location: "Gulberg"},
		{ID: 3, UserID: 9, Name: "Desk", Location: "DHA"},
		{ID: 4, UserID: 7, Name: "Sofa", Location: "Gulberg"},
		{ID: 5, UserID: 7, Name: "Rug", Location: " "},
	})

	require.Len(t, sellers, 3)
	assert.Equal(t, Seller{ID: 9, Address: "Gulberg", Items: []Item{{"Lamp", 1}, {"Chair", 2}}}, sellers[0])
	assert.Equal(t, "DHA", sellers[1].Address)
	assert.Equal(t, uint(7), sellers[2].ID)
}

func TestBuildNotifications(t *testing.T) {
	got := BuildNotifications([]Match{
		{Seller: Seller{ID: 2}, Items: []Item{{"Lamp", 4}}, DistanceKm: 3.2},
		{Seller: Seller{ID: 1, Name: "Bilal"}, Items: []Item{{"Chair", 1}, {"Desk", 0}}, DistanceKm: 0.5},
	})

	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].SellerID)
	assert.Equal(t, "Bilal is 0.5 km away", got[0].Header)
	assert.Equal(t, "Has items from your wishlist: Chair, Desk", got[0].Content)
	assert.Equal(t, []uint{1}, got[0].ListingIDs)
	assert.Equal(t, "Seller #2 is 3.2 km away", got[1].Header)
	assert.Equal(t, []uint{1, 4}, ListingIDs(got))
}
