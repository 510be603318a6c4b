package location

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocoder_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Query().Get("q") {
		case "Gulberg, Lahore":
			io.WriteString(w, `[{"lat":"31.5204","lon":"74.3587"}]`)
		default:
			io.WriteString(w, `[]`)
		}
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, srv.Client(), 0)

	got, err := g.Geocode(context.Background(), "Gulberg, Lahore")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 31.5204, got[0].Latitude, 1e-9)
	assert.InDelta(t, 74.3587, got[0].Longitude, 1e-9)

	got, err = g.Geocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNominatimGeocoder_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		if r.URL.Query().Get("lat") == "0" {
			io.WriteString(w, `{"error":"Unable to geocode"}`)
			return
		}
		io.WriteString(w, `{"address":{"road":"Main Boulevard","suburb":"Gulberg","city":"Lahore","state":"Punjab","country":"Pakistan"}}`)
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, srv.Client(), 0)

	got, err := g.Reverse(context.Background(), 31.5204, 74.3587)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Main Boulevard, Gulberg, Lahore, Punjab, Pakistan", got[0].Format())

	got, err = g.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNominatimGeocoder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, srv.Client(), 0).Geocode(context.Background(), "x")

	assert.Error(t, err)
}

func TestNominatimGeocoder_PacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, srv.Client(), 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := g.Geocode(context.Background(), "x")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
