package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"ridedesk/internal/domain/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		UserID int64  `json:"userId"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	} `json:"user"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.Call(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return out, err
	}
	c.Token = out.Token
	return out, nil
}

func (c *Client) ListRideTickets(ctx context.Context, search string) ([]models.RideTicket, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var out []models.RideTicket
	err := c.Call(ctx, http.MethodGet, withQuery("/api/ride-tickets", q), nil, &out)
	return out, err
}

func (c *Client) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var out []models.Vendor
	err := c.Call(ctx, http.MethodGet, "/api/vendors", nil, &out)
	return out, err
}

func (c *Client) ListCities(ctx context.Context) ([]models.City, error) {
	var out []models.City
	err := c.Call(ctx, http.MethodGet, "/api/cities", nil, &out)
	return out, err
}
