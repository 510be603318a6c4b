package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftstore/internal/client/session"
	"thriftstore/internal/common"
	"thriftstore/internal/config"
)

// fakeAPI serves the subset of the REST API the commands use.
type fakeAPI struct {
	mu         sync.Mutex
	level      int
	location   string
	notified   []uint
	expireAuth bool
}

func (f *fakeAPI) router(t *testing.T) http.Handler {
	r := mux.NewRouter()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			expired := f.expireAuth
			f.mu.Unlock()
			if expired || req.Header.Get("Authorization") != "Bearer jwt" {
				common.WriteErrorMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}
			h(w, req)
		}
	}

	r.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "secret1" {
			common.WriteErrorMessage(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		common.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"token": "jwt",
			"user": map[string]interface{}{
				"id": 4, "name": "Ayesha", "email": body["email"], "phone": "+923001234567",
				"access_level": f.level, "location": f.location,
			},
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/updateLocation/{userId}", authed(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "4", mux.Vars(req)["userId"])
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		f.level, f.location = 2, body["location"]
		f.mu.Unlock()
		common.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]interface{}{"id": 4, "access_level": 2, "location": body["location"]},
		})
	})).Methods(http.MethodPut)

	r.HandleFunc("/api/conversations", authed(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `[]`)
	})).Methods(http.MethodGet)

	r.HandleFunc("/api/wishlist", authed(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `{"wishlist":{"products":["Lamp","Sofa"]}}`)
	})).Methods(http.MethodGet)

	r.HandleFunc("/listings", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `{"listings":[
			{"id":1,"user_id":9,"name":"lamp","location":"Gulberg","price":1500},
			{"id":2,"user_id":9,"name":"Chair","location":"Gulberg","price":900},
			{"id":3,"user_id":7,"name":"Sofa","location":"Township","price":20000},
			{"id":4,"user_id":4,"name":"Lamp","location":"Gulberg","price":10}
		]}`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/notifications", authed(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ListingIDs []uint `json:"listing_ids"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		f.notified = body.ListingIDs
		f.mu.Unlock()
		common.WriteJSON(w, http.StatusAccepted, map[string]int{"accepted": len(body.ListingIDs)})
	})).Methods(http.MethodPost)

	return r
}

func geocoderServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "Gulberg":
			io.WriteString(w, `[{"lat":"31.5300","lon":"74.3500"}]`)
		case "Township":
			io.WriteString(w, `[{"lat":"31.4722","lon":"74.2662"}]`)
		default:
			io.WriteString(w, `[]`)
		}
	}))
}

type harness struct {
	t      *testing.T
	cfg    config.ClientConfig
	server *fakeAPI
}

func newHarness(t *testing.T) *harness {
	f := &fakeAPI{level: 1}
	api := httptest.NewServer(f.router(t))
	geo := geocoderServer()
	t.Cleanup(api.Close)
	t.Cleanup(geo.Close)

	return &harness{
		t:      t,
		server: f,
		cfg: config.ClientConfig{
			APIURL:      api.URL,
			GeocoderURL: geo.URL,
			SessionPath: filepath.Join(t.TempDir(), "session.json"),
			AckTimeout:  time.Second,
		},
	}
}

func (h *harness) run(args ...string) (string, string, int) {
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), h.cfg, args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (h *harness) session() *session.Session {
	s, err := session.NewFileStore(h.cfg.SessionPath).Load(context.Background())
	require.NoError(h.t, err)
	return s
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged in as Ayesha (buyer)")

	s := h.session()
	assert.Equal(t, "jwt", s.Token)
	assert.Equal(t, uint(4), s.UserID)
	assert.Equal(t, common.AccessLevelBuyer, s.AccessLevel)

	out, _, code = h.run("whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "#4 Ayesha")
	assert.Contains(t, out, "(not set)")

	_, _, code = h.run("logout")
	require.Equal(t, 0, code)
	_, errOut, code := h.run("whoami")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "thriftctl login")
}

func TestExecuteReleasesResourcesOnFailure(t *testing.T) {
	h := newHarness(t)
	root, a := newRoot(h.cfg)
	closed := 0
	a.closers = append(a.closers, func() error {
		closed++
		return nil
	})

	var out, errOut bytes.Buffer
	code := execute(context.Background(), root, a, []string{"whoami"}, &out, &errOut)

	assert.Equal(t, 2, code)
	assert.Equal(t, 1, closed)
	assert.Empty(t, a.closers)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("login", "--email", "a@b.com", "--password", "nope")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid email or password")
}

func TestSignupValidation(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("signup", "--name", "A", "--email", "a@b.com", "--phone", "+923001234567",
		"--password", "secret1", "--confirm-password", "secret2")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "passwords do not match")
}

func TestSetLocationPromotesToSeller(t *testing.T) {
	h := newHarness(t)
	_, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
	require.Equal(t, 0, code)

	out, _, code := h.run("set-location", "Gulberg,", "Lahore")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Access level 2 (seller)")
	s := h.session()
	assert.Equal(t, "Gulberg, Lahore", s.Location)
	assert.Equal(t, common.AccessLevelSeller, s.AccessLevel)
	assert.Equal(t, common.RoleSeller, s.Role)
}

func TestExpiredSessionClearsToken(t *testing.T) {
	h := newHarness(t)
	_, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
	require.Equal(t, 0, code)
	h.server.mu.Lock()
	h.server.expireAuth = true
	h.server.mu.Unlock()

	_, errOut, code := h.run("chats")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "session has expired")
	assert.Empty(t, h.session().Token)
	assert.Equal(t, uint(4), h.session().UserID)
}

func TestChatsEmpty(t *testing.T) {
	h := newHarness(t)
	_, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
	require.Equal(t, 0, code)

	out, _, code := h.run("chats")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "No conversations yet")
}

func TestListings(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run("listings")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Chair")
	assert.Contains(t, out, "Township")
}

func TestNearbyNotify(t *testing.T) {
	h := newHarness(t)
	_, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
	require.Equal(t, 0, code)

	out, errOut, code := h.run("nearby", "--lat", "31.5204", "--lon", "74.3587", "--notify")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Seller #9 is 1.3 km away")
	assert.Contains(t, out, "Has items from your wishlist: lamp")
	assert.NotContains(t, out, "Seller #7")
	assert.NotContains(t, out, "Seller #4")
	assert.Contains(t, out, "Saved 1 notifications")

	h.server.mu.Lock()
	assert.Equal(t, []uint{1}, h.server.notified)
	h.server.mu.Unlock()
}

func TestNearbyPacesGeocodingByFlag(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		atLeast  time.Duration
		atMost   time.Duration
	}{
		{name: "unpaced", interval: "0s", atMost: 800 * time.Millisecond},
		{name: "paced", interval: "400ms", atLeast: 350 * time.Millisecond, atMost: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, _, code := h.run("login", "--email", "a@b.com", "--password", "secret1")
			require.Equal(t, 0, code)

			start := time.Now()
			_, errOut, code := h.run("nearby", "--lat", "31.5204", "--lon", "74.3587", "--geocode-interval", tt.interval)
			elapsed := time.Since(start)

			require.Equal(t, 0, code, errOut)
			assert.GreaterOrEqual(t, elapsed, tt.atLeast)
			assert.Less(t, elapsed, tt.atMost)
		})
	}
}
