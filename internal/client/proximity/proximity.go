package proximity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"thriftstore/internal/client/api"
	"thriftstore/internal/client/location"
	"thriftstore/internal/logger"
)

const (
	EarthRadiusKm = 6371.0
	NearbyKm      = 5.0
)

// Distance is the haversine great-circle distance in kilometers.
func Distance(a, b location.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func IsNearby(km float64) bool {
	return km <= NearbyKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Item is a catalog entry. ListingID is zero for sellers that did not come
// from the listings API.
type Item struct {
	Name      string
	ListingID uint
}

type Seller struct {
	ID      uint
	Name    string
	Address string
	Items   []Item
}

// Match is a nearby seller with only the items that are on the wishlist.
type Match struct {
	Seller     Seller
	Items      []Item
	DistanceKm float64
}

// AddressGeocoder is satisfied by *location.Provider.
type AddressGeocoder interface {
	GeocodeAddress(ctx context.Context, address string) (*location.Coordinates, error)
}

// Matcher geocodes candidate sellers one at a time, spaced by the limiter.
type Matcher struct {
	geocoder AddressGeocoder
	limiter  ratelimit.Limiter
}

// NewMatcher paces geocode calls with limiter. Nil means one call per second.
func NewMatcher(geocoder AddressGeocoder, limiter ratelimit.Limiter) *Matcher {
	if limiter == nil {
		limiter = ratelimit.New(1, ratelimit.WithoutSlack)
	}
	return &Matcher{geocoder: geocoder, limiter: limiter}
}

// Match returns sellers within NearbyKm of user that stock a wishlist item.
// A seller whose address cannot be geocoded is left out; the run continues.
func (m *Matcher) Match(ctx context.Context, user location.Coordinates, wishlist []string, sellers []Seller) ([]Match, error) {
	wanted := make(map[string]struct{}, len(wishlist))
	for _, w := range wishlist {
		if k := normalize(w); k != "" {
			wanted[k] = struct{}{}
		}
	}

	matches := []Match{}
	for _, seller := range sellers {
		items := intersect(wanted, seller.Items)
		if len(items) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return matches, err
		}

		m.limiter.Take()
		coords, err := m.geocoder.GeocodeAddress(ctx, seller.Address)
		entry := logger.Log.WithFields(logrus.Fields{"seller_id": seller.ID, "address": seller.Address})
		if err != nil {
			entry.WithError(err).Warn("skipping seller, geocoding failed")
			continue
		}
		if coords == nil {
			entry.Debug("skipping seller, address not found")
			continue
		}

		km := Distance(user, *coords)
		if !IsNearby(km) {
			continue
		}
		matches = append(matches, Match{Seller: seller, Items: items, DistanceKm: km})
	}
	return matches, nil
}

func intersect(wanted map[string]struct{}, items []Item) []Item {
	var out []Item
	for _, it := range items {
		if _, ok := wanted[normalize(it.Name)]; ok {
			out = append(out, it)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SellersFromListings groups listings by owner. Each listing's location is
// used as the seller's address, so one owner with listings in two places
// becomes two sellers.
func SellersFromListings(listings []api.Listing) []Seller {
	type key struct {
		userID  uint
		address string
	}
	index := map[key]int{}
	var sellers []Seller

	for _, l := range listings {
		addr := strings.TrimSpace(l.Location)
		if addr == "" {
			continue
		}
		k := key{l.UserID, addr}
		i, ok := index[k]
		if !ok {
			i = len(sellers)
			index[k] = i
			sellers = append(sellers, Seller{ID: l.UserID, Address: addr})
		}
		sellers[i].Items = append(sellers[i].Items, Item{Name: l.Name, ListingID: l.ID})
	}
	return sellers
}

// Notification is one entry of the nearby-items feed.
type Notification struct {
	SellerID   uint
	Header     string
	Content    string
	ListingIDs []uint
	DistanceKm float64
}

// BuildNotifications orders matches nearest first and renders one entry per
// seller.
func BuildNotifications(matches []Match) []Notification {
	sorted := append([]Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DistanceKm < sorted[j].DistanceKm })

	out := make([]Notification, 0, len(sorted))
	for _, m := range sorted {
		names := make([]string, 0, len(m.Items))
		var ids []uint
		for _, it := range m.Items {
			names = append(names, it.Name)
			if it.ListingID != 0 {
				ids = append(ids, it.ListingID)
			}
		}
		seller := m.Seller.Name
		if seller == "" {
			seller = fmt.Sprintf("Seller #%d", m.Seller.ID)
		}
		out = append(out, Notification{
			SellerID:   m.Seller.ID,
			Header:     fmt.Sprintf("%s is %.1f km away", seller, m.DistanceKm),
			Content:    "Has items from your wishlist: " + strings.Join(names, ", "),
			ListingIDs: ids,
			DistanceKm: m.DistanceKm,
		})
	}
	return out
}

// ListingIDs flattens the listing ids of every notification.
func ListingIDs(notifications []Notification) []uint {
	var ids []uint
	for _, n := range notifications {
		ids = append(ids, n.ListingIDs...)
	}
	return ids
}
