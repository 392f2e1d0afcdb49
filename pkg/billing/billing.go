// Package billing obtains redirect URLs from the payment backend. Payment
// processing happens entirely behind those URLs.
package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tb0hdan/adapta-history/pkg/api"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

const (
	PathCheckoutSession = "/create-checkout-session"
	PathPortalSession   = "/create-portal-session"
)

var ErrNoRedirect = errors.New("billing backend returned no url")

type sessionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type sessionResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// CheckoutURL returns where to send user to subscribe.
func (c *Client) CheckoutURL(ctx context.Context, user *auth.User) (string, error) {
	return c.session(ctx, PathCheckoutSession, user)
}

// PortalURL returns where to send user to manage an existing subscription.
func (c *Client) PortalURL(ctx context.Context, user *auth.User) (string, error) {
	return c.session(ctx, PathPortalSession, user)
}

func (c *Client) session(ctx context.Context, path string, user *auth.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", types.ErrNotAuthenticated
	}

	var resp sessionResponse
	if err := api.PostJSON(ctx, c.http, c.baseURL+path, "", sessionRequest{UserID: user.ID, Email: user.Email}, &resp); err != nil {
		return "", fmt.Errorf("billing request failed: %w", err)
	}
	if resp.URL == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoRedirect, resp.Error)
		}
		return "", ErrNoRedirect
	}
	return resp.URL, nil
}
