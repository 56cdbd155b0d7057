package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jamshid-zayniyev/warehouse-admin/config"
	"github.com/jamshid-zayniyev/warehouse-admin/models"
)

// BackendClient is the subset of the warehouse REST backend the console uses.
// Every call carries the caller's bearer token.
type BackendClient interface {
	// ListSupplierRequests returns the raw supplier requests created on day
	ListSupplierRequests(ctx context.Context, token string, day models.Day) ([]models.SupplierRequest, error)

	GetUser(ctx context.Context, token string, id uint) (*models.User, error)
	GetProduct(ctx context.Context, token string, id uint) (*models.Product, error)
	GetOrder(ctx context.Context, token string, id uint) (*models.Order, error)

	// ListSuppliers returns every user with the supplier role
	ListSuppliers(ctx context.Context, token string) ([]models.User, error)

	// Execute sends a planned supplier-request command
	Execute(ctx context.Context, token string, cmd Command) error

	// Forward relays an arbitrary request and returns the backend's raw response
	Forward(ctx context.Context, token string, req ForwardRequest) (*ForwardResponse, error)
}

// BackendError is returned when the backend answers with a non-2xx status
type BackendError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.StatusCode == http.StatusNotFound
}

// ForwardRequest is a request relayed verbatim to the backend
type ForwardRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        io.Reader
}

// ForwardResponse is the backend's answer to a relayed request
type ForwardResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// HTTPBackendClient talks to the backend over HTTP
type HTTPBackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPBackendClient creates a backend client from configuration
func NewHTTPBackendClient(cfg *config.Config) *HTTPBackendClient {
	return &HTTPBackendClient{
		baseURL: strings.TrimRight(cfg.BackendURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.BackendTimeout,
		},
	}
}

// ListSupplierRequests fetches GET /supplier/supplier-requests/{yyyy}/{mm}/{dd}/
func (c *HTTPBackendClient) ListSupplierRequests(ctx context.Context, token string, day models.Day) ([]models.SupplierRequest, error) {
	var out []models.SupplierRequest
	if err := c.doJSON(ctx, token, http.MethodGet, "/supplier/supplier-requests/"+day.Path()+"/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.SupplierRequest{}
	}
	return out, nil
}

// GetUser fetches GET /user/{id}/
func (c *HTTPBackendClient) GetUser(ctx context.Context, token string, id uint) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, token, http.MethodGet, fmt.Sprintf("/user/%d/", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProduct fetches GET /product/{id}/
func (c *HTTPBackendClient) GetProduct(ctx context.Context, token string, id uint) (*models.Product, error) {
	var product models.Product
	if err := c.doJSON(ctx, token, http.MethodGet, fmt.Sprintf("/product/%d/", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetOrder fetches GET /order/{id}/
func (c *HTTPBackendClient) GetOrder(ctx context.Context, token string, id uint) (*models.Order, error) {
	var order models.Order
	if err := c.doJSON(ctx, token, http.MethodGet, fmt.Sprintf("/order/%d/", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListSuppliers fetches GET /user/supplier/
func (c *HTTPBackendClient) ListSuppliers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	if err := c.doJSON(ctx, token, http.MethodGet, "/user/supplier/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute POSTs the command payload to its endpoint. The response body is ignored.
func (c *HTTPBackendClient) Execute(ctx context.Context, token string, cmd Command) error {
	return c.doJSON(ctx, token, http.MethodPost, cmd.Path, cmd.Payload, nil)
}

// Forward relays the request and returns the backend response. Non-2xx answers
// are returned as a *BackendError.
func (c *HTTPBackendClient) Forward(ctx context.Context, token string, fr ForwardRequest) (*ForwardResponse, error) {
	target := c.baseURL + fr.Path
	if fr.RawQuery != "" {
		target += "?" + fr.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, fr.Method, target, fr.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if fr.ContentType != "" {
		req.Header.Set("Content-Type", fr.ContentType)
	}
	setAuthorization(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend %s %s: %w", fr.Method, fr.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Method: fr.Method, Path: fr.Path, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	return &ForwardResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// doJSON sends payload (if any) as JSON and decodes a 2xx response into out (if non-nil)
func (c *HTTPBackendClient) doJSON(ctx context.Context, token, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuthorization(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &BackendError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response for %s %s: %w", method, path, err)
	}
	return nil
}

func setAuthorization(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
