// Package salon provides a REST client for the EasySalon business API,
// covering the catalog endpoints (branches, services, products, packages)
// and appointment booking.
package salon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

const (
	defaultBaseURL = "https://eoa.easysalon.vn/api/v1"
	defaultTimeout = 15 * time.Second

	// The API paginates everything; we always ask for a single huge page.
	defaultRowsPerPage = 99999
)

// Client is an EasySalon API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool // When true, CreateBooking logs but doesn't actually book
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithDryRun enables dry-run mode: CreateBooking will log the request
// but return a fake confirmation without calling the API.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// NewClient creates a new EasySalon API client.
func NewClient(apiKey string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info describes the salon business.
type Info struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
}

// Branch is a salon location. Open hours may be null in the API and fall
// back to defaults when slots are generated.
type Branch struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Mobile       string `json:"mobile"`
	OpenHourFrom string `json:"openHourFrom"`
	OpenHourTo   string `json:"openHourTo"`
}

// Service is a bookable treatment.
type Service struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	// Time is the duration in minutes.
	Time int `json:"time"`
}

// Product is a retail item sold by the salon.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Package is a bundle of services sold together.
type Package struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ServiceStaff pairs a service with an optional staff member for booking.
type ServiceStaff struct {
	ServiceID int64 `json:"serviceId"`
}

// BookingDetail is one line item of a booking.
type BookingDetail struct {
	ServiceStaffs []ServiceStaff `json:"serviceStaffs"`
}

// CreateBookingRequest is the POST /booking payload.
type CreateBookingRequest struct {
	CustomerMobile string          `json:"customerMobile"`
	CustomerName   string          `json:"customerName"`
	TotalCustomer  int             `json:"totalCustomer"`
	BranchID       int64           `json:"branchId"`
	BookingDetails []BookingDetail `json:"bookingDetails"`
	BookingDate    string          `json:"bookingDate"` // YYYY-MM-DD
	BookingTime    string          `json:"bookingTime"` // HH:MM
}

// BookingResponse is the API's reply to a booking request.
type BookingResponse struct {
	ID          int64  `json:"id"`
	BookingCode string `json:"bookingCode"`
	Message     string `json:"message"`
}

// BookingRecord is an existing booking as returned by the booking search
// endpoint.
type BookingRecord struct {
	ID             int64  `json:"id"`
	BookingCode    string `json:"bookingCode"`
	CustomerName   string `json:"customerName"`
	CustomerMobile string `json:"customerMobile"`
	BranchName     string `json:"branchName"`
	BookingDate    string `json:"bookingDate"`
	BookingTime    string `json:"bookingTime"`
	TotalCustomer  int    `json:"totalCustomer"`
	Status         string `json:"status"`
}

// GetInfo fetches the salon business profile.
func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.get(ctx, "info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListBranches returns all salon branches. An empty list is not an error.
func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	var branches []Branch
	if err := c.get(ctx, "branchs", &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// ListServices returns all bookable services. An empty list is not an error.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.get(ctx, "services", &services); err != nil {
		return nil, err
	}
	return services, nil
}

// ListProducts returns the salon's retail products.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListPackages returns the salon's service packages.
func (c *Client) ListPackages(ctx context.Context) ([]Package, error) {
	var packages []Package
	if err := c.get(ctx, "packages", &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// SearchBookings looks up existing bookings matching a free-text query
// (booking code or customer mobile). An empty list is not an error.
func (c *Client) SearchBookings(ctx context.Context, query string) ([]BookingRecord, error) {
	var records []BookingRecord
	q := url.Values{}
	q.Set("q", query)
	if err := c.getQuery(ctx, "booking", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateBooking submits an appointment booking.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResponse, error) {
	if c.dryRun {
		c.logger.Info("salon: dry-run booking",
			"customer", req.CustomerName,
			"branch_id", req.BranchID,
			"date", req.BookingDate,
			"time", req.BookingTime,
		)
		return &BookingResponse{ID: 0, BookingCode: "DRY-RUN"}, nil
	}

	var resp BookingResponse
	if err := c.post(ctx, "booking", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// envelope is the API's standard response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	return c.getQuery(ctx, endpoint, nil, out)
}

func (c *Client) getQuery(ctx context.Context, endpoint string, extra url.Values, out interface{}) error {
	q := url.Values{}
	q.Set("rowPerPage", strconv.Itoa(defaultRowsPerPage))
	for key, values := range extra {
		for _, v := range values {
			q.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode()), nil)
	if err != nil {
		return fmt.Errorf("salon: failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("salon: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, endpoint), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("salon: failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("salon: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("salon: failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("salon: invalid response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("salon: API error (status %d): %s", resp.StatusCode, msg)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("salon: failed to decode response data: %w", err)
		}
	}
	return nil
}
