package dashboard

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

	"parkwatch/internal/domain"
)

// API is the slice of the REST surface the dashboard reads and mutates.
type API interface {
	Alerts(ctx context.Context, adminID string, unreadOnly bool) ([]domain.Alert, error)
	PatchAlert(ctx context.Context, alertIdx int64, p domain.AlertPatch) error
	Summary(ctx context.Context, parkingIdx string) (domain.Summary, error)
	ParkingStatus(ctx context.Context, parkingIdx string) ([]domain.ParkingSpace, error)
	ParkingLots(ctx context.Context, district string) ([]domain.ParkingLot, error)
	ParkingLogs(ctx context.Context, parkingIdx string, page int64) (domain.ParkingLogPage, error)
	Violations(ctx context.Context, page, limit int64) (domain.ViolationPage, error)
}

// APIError is a non-2xx response. Message is the server's {"message"} text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type LoginResult struct {
	AdminID   string `json:"admin_id"`
	AdminName string `json:"adminName"`
	Role      string `json:"role"`
	Token     string `json:"token"`
}

// Client talks to the parkwatch REST API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

var _ API = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Login authenticates and keeps the returned token for later requests.
func (c *Client) Login(ctx context.Context, adminID, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil,
		map[string]string{"admin_id": adminID, "password": password}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token
	return out, nil
}

func (c *Client) Alerts(ctx context.Context, adminID string, unreadOnly bool) ([]domain.Alert, error) {
	q := url.Values{"admin_id": {adminID}, "status": {"all"}}
	if unreadOnly {
		q.Set("status", "unread")
	}
	var out []domain.Alert
	err := c.do(ctx, http.MethodGet, "/api/alerts", q, nil, &out)
	return out, err
}

func (c *Client) PatchAlert(ctx context.Context, alertIdx int64, p domain.AlertPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/alerts/"+strconv.FormatInt(alertIdx, 10), nil, p, nil)
}

func (c *Client) Summary(ctx context.Context, parkingIdx string) (domain.Summary, error) {
	var out domain.Summary
	err := c.do(ctx, http.MethodGet, "/api/dashboard/summary", parkingQuery(parkingIdx), nil, &out)
	return out, err
}

func (c *Client) ParkingStatus(ctx context.Context, parkingIdx string) ([]domain.ParkingSpace, error) {
	var out []domain.ParkingSpace
	err := c.do(ctx, http.MethodGet, "/api/dashboard/parking-status", parkingQuery(parkingIdx), nil, &out)
	return out, err
}

func (c *Client) ParkingLots(ctx context.Context, district string) ([]domain.ParkingLot, error) {
	q := url.Values{}
	if district != "" {
		q.Set("district", district)
	}
	var out []domain.ParkingLot
	err := c.do(ctx, http.MethodGet, "/api/parking", q, nil, &out)
	return out, err
}

func (c *Client) ParkingLogs(ctx context.Context, parkingIdx string, page int64) (domain.ParkingLogPage, error) {
	q := parkingQuery(parkingIdx)
	q.Set("page", strconv.FormatInt(max(page, 1), 10))
	var out domain.ParkingLogPage
	err := c.do(ctx, http.MethodGet, "/api/parking-logs", q, nil, &out)
	return out, err
}

func (c *Client) Violations(ctx context.Context, page, limit int64) (domain.ViolationPage, error) {
	q := url.Values{
		"page":  {strconv.FormatInt(max(page, 1), 10)},
		"limit": {strconv.FormatInt(max(limit, 1), 10)},
	}
	var out domain.ViolationPage
	err := c.do(ctx, http.MethodGet, "/api/violations", q, nil, &out)
	return out, err
}

func parkingQuery(parkingIdx string) url.Values {
	q := url.Values{}
	if parkingIdx != "" {
		q.Set("parking_idx", parkingIdx)
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
