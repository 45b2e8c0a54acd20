package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Supabase PostgREST and Storage APIs with the
// service-role key. Ownership checks happen server side (RLS); mutations are
// additionally filtered by user_id so a mismatch updates zero rows.
type Client struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTP       *http.Client
}

// StatusError carries the HTTP status and raw body of a failed PostgREST call.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase: status %d body: %s", e.Status, e.Body)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	return c.HTTP
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// rest issues one PostgREST request. Body may be nil; out may be nil when the
// response body is not needed. Query params are passed unencoded PostgREST
// syntax (e.g. "id" -> "eq.<uuid>").
func (c *Client) rest(ctx context.Context, method, table string, params map[string]string, body interface{}, prefer string, out interface{}) error {
	if c.BaseURL == "" || c.ServiceKey == "" {
		return fmt.Errorf("supabase: SUPABASE_URL or SUPABASE_SERVICE_KEY is not set")
	}

	u := c.base() + "/rest/v1/" + table
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	// Match supabase-js: both apikey and Authorization Bearer (same key).
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("supabase response decode: %w", err)
		}
	}
	return nil
}

// PublicImageURL resolves a storage path to a publicly fetchable URL.
// Absolute http(s) references pass through untouched.
func (c *Client) PublicImageURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	bucket := c.Bucket
	if bucket == "" {
		bucket = "listing-images"
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.base(), bucket, strings.TrimLeft(path, "/"))
}

// Ping checks PostgREST reachability (used by the health endpoint).
func (c *Client) Ping(ctx context.Context) error {
	if c.BaseURL == "" || c.ServiceKey == "" {
		return fmt.Errorf("supabase: not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}
