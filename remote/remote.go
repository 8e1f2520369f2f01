// Package remote implements the client-side HTTP transport for the
// keywarden verification API. It satisfies client.Verifier and
// client.BlobStore; only base64-encoded tags and sealed blobs ever
// appear in request bodies.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/vault"
)

// Client talks to a keywarden verification server.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option customises the transport.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to install
// custom TLS configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a transport against the given base URL (including any
// path prefix, e.g. "https://host:8465/api/v1").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token obtained at login. An empty token
// clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// apiError carries a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", errResp.Error, storage.ErrNotFound)
		}
		return &apiError{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// client.Verifier
// ---------------------------------------------------------------------------

type paramsPayload struct {
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

func (c *Client) Register(ctx context.Context, username string, params kdf.Params, authTag []byte) error {
	body := struct {
		Username string        `json:"username"`
		Params   paramsPayload `json:"params"`
		AuthTag  string        `json:"auth_tag"`
	}{
		Username: username,
		Params: paramsPayload{
			Salt:       base64.StdEncoding.EncodeToString(params.Salt),
			Iterations: params.Iterations,
		},
		AuthTag: base64.StdEncoding.EncodeToString(authTag),
	}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil)
}

func (c *Client) DerivationParams(ctx context.Context, username string) (kdf.Params, error) {
	var resp struct {
		Params paramsPayload `json:"params"`
	}
	path := "/auth/params?username=" + url.QueryEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return kdf.Params{}, err
	}
	salt, err := base64.StdEncoding.DecodeString(resp.Params.Salt)
	if err != nil {
		return kdf.Params{}, fmt.Errorf("decoding salt: %w", err)
	}
	return kdf.Params{Salt: salt, Iterations: resp.Params.Iterations}, nil
}

func (c *Client) Login(ctx context.Context, username string, authTag []byte) (string, error) {
	body := struct {
		Username string `json:"username"`
		AuthTag  string `json:"auth_tag"`
	}{
		Username: username,
		AuthTag:  base64.StdEncoding.EncodeToString(authTag),
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ---------------------------------------------------------------------------
// client.BlobStore
// ---------------------------------------------------------------------------

type blobPayload struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

func (c *Client) PutBlob(ctx context.Context, blobID string, blob *vault.EncryptedBlob) error {
	body := blobPayload{
		Ciphertext: base64.StdEncoding.EncodeToString(blob.Ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(blob.Nonce),
	}
	return c.do(ctx, http.MethodPut, "/blobs/"+url.PathEscape(blobID), body, nil)
}

func (c *Client) GetBlob(ctx context.Context, blobID string) (*vault.EncryptedBlob, error) {
	var resp blobPayload
	if err := c.do(ctx, http.MethodGet, "/blobs/"+url.PathEscape(blobID), nil, &resp); err != nil {
		return nil, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(resp.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(resp.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	return &vault.EncryptedBlob{Ciphertext: ciphertext, Nonce: nonce}, nil
}

func (c *Client) DeleteBlob(ctx context.Context, blobID string) error {
	return c.do(ctx, http.MethodDelete, "/blobs/"+url.PathEscape(blobID), nil, nil)
}

func (c *Client) ListBlobs(ctx context.Context) ([]string, error) {
	var resp struct {
		BlobIDs []string `json:"blob_ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/blobs/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.BlobIDs, nil
}
