package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/repo"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the library API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("library api: %d %s", e.Status, e.Message)
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	Role      db.Role   `json:"role"`
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LibraryClient talks to the library HTTP API
type LibraryClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

// ClientOption configures a LibraryClient
type ClientOption func(*LibraryClient)

// WithToken sets the bearer token sent with every request
func WithToken(token string) ClientOption {
	return func(c *LibraryClient) {
		c.token = token
	}
}

// NewLibraryClient creates a client for the API rooted at baseURL
func NewLibraryClient(baseURL string, log *zap.Logger, opts ...ClientOption) *LibraryClient {
	c := &LibraryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token and keeps it on the client
func (c *LibraryClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// ListRentRequests fetches the joined ledger. An empty ledger yields an
// empty slice.
func (c *LibraryClient) ListRentRequests(ctx context.Context) ([]repo.JoinedRental, error) {
	var resp struct {
		RentDetails []repo.JoinedRental `json:"rentDetails"`
	}
	if err := c.do(ctx, http.MethodGet, "/book/getRentRequest", nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return []repo.JoinedRental{}, nil
		}
		return nil, err
	}
	return resp.RentDetails, nil
}

// RequestRent submits a rental request
func (c *LibraryClient) RequestRent(ctx context.Context, userID, bookID string) (*db.RentalRequest, error) {
	var resp struct {
		Rent db.RentalRequest `json:"rent"`
	}
	body := map[string]string{"userId": userID, "bookId": bookID}
	if err := c.do(ctx, http.MethodPost, "/book/requestRents", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Rent, nil
}

// Review accepts or rejects a pending request; it needs an Admin token
func (c *LibraryClient) Review(ctx context.Context, id, action string) (*db.RentalRequest, error) {
	var resp struct {
		Rent db.RentalRequest `json:"rent"`
	}
	body := map[string]string{"action": action}
	if err := c.do(ctx, http.MethodPost, "/book/rentRequest/"+id+"/review", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Rent, nil
}

func (c *LibraryClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Library API unreachable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
