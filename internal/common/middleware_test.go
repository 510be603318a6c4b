package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(tokens *TokenManager) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))
	api.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			WriteErrorMessage(w, http.StatusInternalServerError, "missing user")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]uint{"id": id})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	router := newProtectedRouter(tokens)

	token, err := tokens.Generate(42, "ali@example.com")
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"id":42}`, rr.Body.String())
			}
		})
	}
}

func TestTokenManager_RejectsOtherSecretAndExpired(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).Generate(1, "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Validate(token)
	assert.Error(t, err)

	expired := &TokenManager{secret: []byte("one"), ttl: -time.Minute}
	token, err = expired.Generate(1, "a@b.c")
	require.NoError(t, err)
	_, err = expired.Validate(token)
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(NewValidationError("x", "bad")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrapped: %w", NewValidationError("x", "bad"))))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(ErrAuthExpired))
	assert.Equal(t, http.StatusForbidden, StatusFor(fmt.Errorf("listing 3: %w", ErrForbidden)))
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, CheckPassword("secret1", hash))
	assert.Error(t, CheckPassword("secret2", hash))
}
