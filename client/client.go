package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/orionchat/registry"
)

const (
	defaultTimeout = 3 * time.Second
	userAgent      = "orion-registry-client/1.0"
)

// Client talks to a registry node. Identity lookups are cached in-process;
// prekey bundles are never cached because fetching one may consume a one-time
// prekey on the server.
type Client struct {
	client *http.Client
	cache  *cache.Cache
	base   string
	token  string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client: &httpClient,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
		base:   baseURL,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// SetToken attaches a bearer token to subsequent requests. Login calls this
// automatically.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) request(ctx context.Context, method, path string, body any, response any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	return nil
}

func (c *Client) Register(ctx context.Context, req registry.RegisterRequest) (registry.RegisterResponse, error) {
	var resp registry.RegisterResponse
	err := c.request(ctx, http.MethodPost, "/api/v1/register", req, &resp)
	if err != nil {
		return registry.RegisterResponse{}, fmt.Errorf("failed to register: %v", err)
	}
	return resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (registry.LoginResponse, error) {
	var resp registry.LoginResponse
	err := c.request(ctx, http.MethodPost, "/api/v1/login", registry.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return registry.LoginResponse{}, fmt.Errorf("failed to login: %v", err)
	}
	c.token = resp.Token
	return resp, nil
}

func (c *Client) UploadIdentity(ctx context.Context, upload registry.IdentityUpload) error {
	err := c.request(ctx, http.MethodPost, "/api/v1/keys/identity", upload, nil)
	if err != nil {
		return fmt.Errorf("failed to upload identity: %v", err)
	}
	c.cache.Delete("identity:" + upload.UserID)
	return nil
}

// IdentityResult pairs an identity record with its displayable fingerprint.
type IdentityResult struct {
	Identity    registry.Identity `json:"identity"`
	Fingerprint string            `json:"fingerprint"`
}

func (c *Client) GetIdentity(ctx context.Context, userID string) (IdentityResult, error) {
	cacheKey := "identity:" + userID
	x, found := c.cache.Get(cacheKey)
	if found {
		return x.(IdentityResult), nil
	}

	var result IdentityResult
	err := c.request(ctx, http.MethodGet, "/api/v1/keys/identity/"+url.PathEscape(userID), nil, &result)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("failed to get identity: %v", err)
	}

	c.cache.Set(cacheKey, result, cache.DefaultExpiration)

	return result, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, userID string) error {
	err := c.request(ctx, http.MethodDelete, "/api/v1/keys/identity/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %v", err)
	}
	c.cache.Delete("identity:" + userID)
	return nil
}

func (c *Client) UploadPreKeys(ctx context.Context, upload registry.PreKeyUpload) error {
	err := c.request(ctx, http.MethodPost, "/api/v1/keys/prekeys", upload, nil)
	if err != nil {
		return fmt.Errorf("failed to upload prekeys: %v", err)
	}
	return nil
}

func (c *Client) GetBundle(ctx context.Context, userID string) (registry.PreKeyBundle, error) {
	var bundle registry.PreKeyBundle
	err := c.request(ctx, http.MethodGet, "/api/v1/keys/bundle/"+url.PathEscape(userID), nil, &bundle)
	if err != nil {
		return registry.PreKeyBundle{}, fmt.Errorf("failed to get bundle: %v", err)
	}
	return bundle, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]registry.User, error) {
	var users []registry.User
	err := c.request(ctx, http.MethodGet, "/api/v1/users", nil, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %v", err)
	}
	return users, nil
}

func (c *Client) SearchUsers(ctx context.Context, q string) ([]registry.User, error) {
	var users []registry.User
	err := c.request(ctx, http.MethodGet, "/api/v1/users/search?q="+url.QueryEscape(q), nil, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	return users, nil
}
