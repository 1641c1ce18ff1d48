// Package client is a Go client for the FoodShare API. Calls that need an
// account take the caller's *Session explicitly; the client keeps no login
// state of its own.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/models"
	"foodshare-api/service"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration. BaseURL is the server root, without /api.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/api",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Session identifies the signed-in account.
type Session struct {
	Token  string
	UserID string
	Role   models.UserRole
	Name   string
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []apperror.FieldError
}

// Error lists field errors as "field: message" when the server sent any.
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Field + ": " + f.Message
		}
		return strings.Join(parts, ", ")
	}
	if e.Message != "" {
		return e.Message
	}
	return "API request failed: " + http.StatusText(e.Status)
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Errors  []apperror.FieldError `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, s *Session, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Auth
// =============================================================================

func newSession(s service.Session) (*Session, error) {
	if s.User == nil || s.Token == "" {
		return nil, fmt.Errorf("session response is missing the token or user")
	}
	return &Session{Token: s.Token, UserID: s.User.ID, Role: s.User.Role, Name: s.User.Name}, nil
}

func (c *Client) Register(ctx context.Context, in service.RegisterInput) (*Session, error) {
	var out service.Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return newSession(out)
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out service.Session
	in := service.LoginInput{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return newSession(out)
}

func (c *Client) Me(ctx context.Context, s *Session) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, s *Session, in service.ProfileInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", s, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Donations
// =============================================================================

func (c *Client) ListDonations(ctx context.Context, s *Session, q service.DonationQuery) ([]models.Donation, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.FoodType != "" {
		v.Set("food_type", q.FoodType)
	}
	if q.DonorID != "" {
		v.Set("donor_id", q.DonorID)
	}
	path := "/donations"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []models.Donation
	if err := c.do(ctx, http.MethodGet, path, s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AvailableDonations(ctx context.Context, s *Session) ([]models.Donation, error) {
	var out []models.Donation
	if err := c.do(ctx, http.MethodGet, "/donations/available", s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyDonations(ctx context.Context, s *Session) ([]models.Donation, error) {
	var out []models.Donation
	if err := c.do(ctx, http.MethodGet, "/donations/my-donations/list", s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDonation(ctx context.Context, s *Session, id string) (*models.Donation, error) {
	var out models.Donation
	if err := c.do(ctx, http.MethodGet, "/donations/"+url.PathEscape(id), s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDonation(ctx context.Context, s *Session, in service.DonationInput) (*models.Donation, error) {
	var out models.Donation
	if err := c.do(ctx, http.MethodPost, "/donations", s, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDonation(ctx context.Context, s *Session, id string, in service.DonationUpdate) (*models.Donation, error) {
	var out models.Donation
	if err := c.do(ctx, http.MethodPut, "/donations/"+url.PathEscape(id), s, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDonation(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/donations/"+url.PathEscape(id), s, nil, nil)
}

// =============================================================================
// Claims
// =============================================================================

func (c *Client) Claim(ctx context.Context, s *Session, donationID string) (*service.ClaimDetail, error) {
	var out service.ClaimDetail
	if err := c.do(ctx, http.MethodPost, "/claims/claim/"+url.PathEscape(donationID), s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyClaims(ctx context.Context, s *Session) ([]service.ClaimDetail, error) {
	var out []service.ClaimDetail
	if err := c.do(ctx, http.MethodGet, "/claims/my-claims", s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetClaim(ctx context.Context, s *Session, id string) (*service.ClaimDetail, error) {
	var out service.ClaimDetail
	if err := c.do(ctx, http.MethodGet, "/claims/"+url.PathEscape(id), s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClaimStatus(ctx context.Context, s *Session, id string, status models.ClaimStatus) (*service.ClaimDetail, error) {
	var out service.ClaimDetail
	in := service.ClaimStatusInput{Status: status}
	if err := c.do(ctx, http.MethodPut, "/claims/"+url.PathEscape(id)+"/status", s, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Pickups
// =============================================================================

func (c *Client) AvailablePickups(ctx context.Context, s *Session) ([]service.PickupDetail, error) {
	var out []service.PickupDetail
	if err := c.do(ctx, http.MethodGet, "/pickups/available", s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyPickups(ctx context.Context, s *Session) ([]service.PickupDetail, error) {
	var out []service.PickupDetail
	if err := c.do(ctx, http.MethodGet, "/pickups/my-pickups/list", s, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AcceptPickup(ctx context.Context, s *Session, id string) (*models.Pickup, error) {
	var out models.Pickup
	if err := c.do(ctx, http.MethodPost, "/pickups/"+url.PathEscape(id)+"/accept", s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePickupStatus(ctx context.Context, s *Session, id string, status models.PickupStatus) (*models.Pickup, error) {
	var out models.Pickup
	in := service.PickupStatusInput{Status: status}
	if err := c.do(ctx, http.MethodPut, "/pickups/"+url.PathEscape(id)+"/status", s, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Notifications
// =============================================================================

func (c *Client) Notifications(ctx context.Context, s *Session) (*service.NotificationList, error) {
	var out service.NotificationList
	if err := c.do(ctx, http.MethodGet, "/notifications", s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkRead(ctx context.Context, s *Session, id string) (*models.Notification, error) {
	var out models.Notification
	if err := c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAllRead returns how many notifications changed.
func (c *Client) MarkAllRead(ctx context.Context, s *Session) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPut, "/notifications/read-all", s, nil, &out)
	return out.Updated, err
}

// =============================================================================
// Admin
// =============================================================================

func (c *Client) Stats(ctx context.Context, s *Session) (*service.Stats, error) {
	var out service.Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Users(ctx context.Context, s *Session, q service.UserQuery) (*service.UserPage, error) {
	v := url.Values{}
	if q.Role != "" {
		v.Set("role", string(q.Role))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/admin/users"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out service.UserPage
	if err := c.do(ctx, http.MethodGet, path, s, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
