package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/ratelimit"
)

const userAgent = "thriftctl/1.0"

// NominatimGeocoder talks to an OpenStreetMap Nominatim compatible service.
// Requests are spaced by the limiter so one process stays inside the public
// instance's one-request-per-second policy.
type NominatimGeocoder struct {
	baseURL string
	http    *http.Client
	limiter ratelimit.Limiter
}

func NewNominatimGeocoder(baseURL string, httpClient *http.Client, interval time.Duration) *NominatimGeocoder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limiter := ratelimit.NewUnlimited()
	if interval > 0 {
		limiter = ratelimit.New(1, ratelimit.Per(interval), ratelimit.WithoutSlack)
	}
	return &NominatimGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: limiter,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	Error   string `json:"error"`
	Address struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		District    string `json:"city_district"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
	} `json:"address"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, text string) ([]Coordinates, error) {
	q := url.Values{"q": {text}, "format": {"jsonv2"}, "limit": {"1"}}
	var results []searchResult
	if err := g.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}

	out := make([]Coordinates, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse latitude %q", r.Lat)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse longitude %q", r.Lon)
		}
		out = append(out, Coordinates{Latitude: lat, Longitude: lon})
	}
	return out, nil
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) ([]Address, error) {
	q := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"jsonv2"},
	}
	var result reverseResult
	if err := g.get(ctx, "/reverse", q, &result); err != nil {
		return nil, err
	}
	// Nominatim answers 200 with an error field when nothing is there.
	if result.Error != "" {
		return []Address{}, nil
	}

	a := result.Address
	street := strings.TrimSpace(strings.Join([]string{a.HouseNumber, a.Road}, " "))
	return []Address{{
		Street:   street,
		District: firstNonEmpty(a.Suburb, a.District),
		City:     firstNonEmpty(a.City, a.Town, a.Village),
		Region:   a.State,
		Country:  a.Country,
	}}, nil
}

func (g *NominatimGeocoder) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	g.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "build geocoder request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "geocoder request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode geocoder response")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
