// Package client provides a small Go SDK for talking to either a shard or
// the router directly — both expose the same /kv surface, so one client
// type serves both.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to one base URL (a shard or the router). It does not
// implement any routing or replication logic itself — that lives server
// side.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. A zero timeout falls back to 10s — never call
// across the network without a bound.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PutResponse is the reply to a successful PUT.
type PutResponse struct {
	Ok     bool `json:"ok"`
	Acks   int  `json:"acks"`
	Quorum int  `json:"quorum"`
}

// GetResponse is the reply to a GET.
type GetResponse struct {
	Found bool            `json:"found"`
	Value json.RawMessage `json:"value"`
	Ts    int64           `json:"ts"`
}

// DeleteResponse is the reply to a DELETE.
type DeleteResponse struct {
	Ok     bool `json:"ok"`
	Acks   int  `json:"acks"`
	Quorum int  `json:"quorum"`
}

// PutString stores a raw string value for key.
func (c *Client) PutString(ctx context.Context, key, value string) (*PutResponse, error) {
	return c.put(ctx, key, []byte(value), "text/plain")
}

// PutJSON stores a structured JSON document for key. doc is marshaled with
// encoding/json before being sent.
func (c *Client) PutJSON(ctx context.Context, key string, doc any) (*PutResponse, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return c.put(ctx, key, body, "application/json")
}

func (c *Client) put(ctx context.Context, key string, body []byte, contentType string) (*PutResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.kvURL(key), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PUT request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result PutResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// Get retrieves the value stored for key. ErrNotFound is returned if the
// key has no record.
func (c *Client) Get(ctx context.Context, key string) (*GetResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.kvURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result GetResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) (*DeleteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.kvURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DELETE request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result DeleteResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

func (c *Client) kvURL(key string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + "/kv?key=" + url.QueryEscape(key)
	}
	u.Path += "/kv"
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = fmt.Errorf("key not found")

// APIError carries the HTTP status and error message from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
