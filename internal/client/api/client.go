package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for protected routes. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StatusError is a non-2xx response the client has no dedicated error for.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient returns a client for the API at baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/login", false, body, &out)
	if errors.Is(err, common.ErrAuthExpired) {
		return nil, common.ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, form SignupForm) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/signup", false, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	var out struct {
		Listings []Listing `json:"listings"`
	}
	if err := c.do(ctx, http.MethodGet, "/listings", false, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Listings), nil
}

func (c *Client) UserListings(ctx context.Context, userID uint) ([]Listing, error) {
	var out struct {
		Listings []Listing `json:"listings"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/user/%d", userID), false, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Listings), nil
}

func (c *Client) CreateListing(ctx context.Context, in ListingInput) (*Listing, error) {
	return c.writeListing(ctx, http.MethodPost, "/listings", in)
}

func (c *Client) UpdateListing(ctx context.Context, id uint, in ListingInput) (*Listing, error) {
	return c.writeListing(ctx, http.MethodPut, fmt.Sprintf("/listings/%d", id), in)
}

func (c *Client) DeleteListing(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/listings/%d", id), true, nil, nil)
}

func (c *Client) writeListing(ctx context.Context, method, path string, in ListingInput) (*Listing, error) {
	var out struct {
		Listing *Listing `json:"listing"`
	}
	if err := c.do(ctx, method, path, true, in, &out); err != nil {
		return nil, err
	}
	if out.Listing == nil {
		return nil, errors.New("response did not include the listing")
	}
	return out.Listing, nil
}

func (c *Client) UpdateLocation(ctx context.Context, userID uint, location string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	body := map[string]string{"location": location}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/updateLocation/%d", userID), true, body, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("response did not include the user")
	}
	return out.User, nil
}

// UserProfile fetches userID's profile, or the caller's when userID is 0.
func (c *Client) UserProfile(ctx context.Context, userID uint) (*User, error) {
	path := "/api/getUserProfile"
	if userID != 0 {
		path += "?" + url.Values{"user_id": {fmt.Sprint(userID)}}.Encode()
	}
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, common.ErrNotFound
	}
	return out.User, nil
}

func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations", true, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) StartConversation(ctx context.Context, sellerID uint) (*Conversation, error) {
	var out Conversation
	body := map[string]uint{"seller_id": sellerID}
	if err := c.do(ctx, http.MethodPost, "/api/conversations", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Messages(ctx context.Context, conversationID uint) ([]Message, error) {
	var out []Message
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/messages/%d", conversationID), true, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) Wishlist(ctx context.Context) (*Wishlist, error) {
	var out struct {
		Wishlist *Wishlist `json:"wishlist"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", true, nil, &out); err != nil {
		return nil, err
	}
	if out.Wishlist == nil {
		return &Wishlist{Products: []string{}, ItemDescriptions: []string{}, Keywords: []string{}}, nil
	}
	return out.Wishlist, nil
}

func (c *Client) SaveWishlist(ctx context.Context, in WishlistInput) (*Wishlist, error) {
	var out struct {
		Wishlist *Wishlist `json:"wishlist"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/wishlist", true, in, &out); err != nil {
		return nil, err
	}
	return out.Wishlist, nil
}

// RecordNotifications reports proximity matches and returns how many the
// server accepted.
func (c *Client) RecordNotifications(ctx context.Context, listingIDs []uint) (int, error) {
	var out struct {
		Accepted int `json:"accepted"`
	}
	body := map[string][]uint{"listing_ids": listingIDs}
	if err := c.do(ctx, http.MethodPost, "/api/notifications", true, body, &out); err != nil {
		return 0, err
	}
	return out.Accepted, nil
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return errors.Wrap(err, "load token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"method": method, "path": path}).Warn("api request failed")
		return errors.Wrapf(common.ErrNetworkFailure, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return common.ErrAuthExpired
	case http.StatusNotFound:
		return errors.Wrap(common.ErrNotFound, payload.Error)
	case http.StatusBadRequest:
		return common.NewValidationError("", payload.Error)
	case http.StatusForbidden:
		return errors.Wrap(common.ErrForbidden, payload.Error)
	case http.StatusConflict:
		return errors.Wrap(common.ErrConflict, payload.Error)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: payload.Error}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
