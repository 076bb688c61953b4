// Package client talks to an astrobase server over HTTP.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/myuser/astrobase/internal/server"
)

type Client struct {
	endpoint string
	client   *http.Client
}

// New returns a client for endpoint, given either as host:port or as a URL.
func New(endpoint string) *Client {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Get(key string) (server.Output, error) {
	return c.call("/get", server.Key{Key: key})
}

func (c *Client) Insert(key, value string) (server.Output, error) {
	return c.call("/insert", server.Pair{Key: key, Value: value})
}

func (c *Client) Delete(key string) (server.Output, error) {
	return c.call("/delete", server.Key{Key: key})
}

func (c *Client) Update(key, value string) (server.Output, error) {
	return c.call("/update", server.Pair{Key: key, Value: value})
}

// Execute runs one SQL statement on the server.
func (c *Client) Execute(stmt string) (server.Output, error) {
	resp, err := c.client.Post(c.endpoint+"/execute", "text/plain", strings.NewReader(stmt))
	if err != nil {
		return server.Output{}, err
	}
	return readOutput(resp)
}

// Metrics fetches the server counters.
func (c *Client) Metrics() (map[string]int64, error) {
	resp, err := c.client.Get(c.endpoint + "/metrics")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics: unexpected status %s", resp.Status)
	}
	var snapshot map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return snapshot, nil
}

func (c *Client) call(path string, body any) (server.Output, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return server.Output{}, err
	}
	resp, err := c.client.Post(c.endpoint+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return server.Output{}, err
	}
	return readOutput(resp)
}

// readOutput decodes the Output of any response. Record-level failures come
// back as ok=false with a nil error; a body that is not an Output is an error.
func readOutput(resp *http.Response) (server.Output, error) {
	defer resp.Body.Close()
	var out server.Output
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return server.Output{}, fmt.Errorf("%s %s: %s: %w", resp.Request.Method, resp.Request.URL.Path, resp.Status, err)
	}
	return out, nil
}
