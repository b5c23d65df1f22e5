// Package practicum talks to the Yandex.Practicum homework-statuses API.
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hwbot/pkg/logx"
)

// maxBody caps how much of a response we are willing to read. The real
// feed is tiny; anything bigger is garbage.
const maxBody = 1 << 20

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client fetches homework statuses. One request per Fetch call, no
// internal retries; the retry policy belongs to the watcher.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("practicum endpoint is empty")
	}
	if cfg.Token == "" {
		return nil, errors.New("practicum token is empty")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}, nil
}

// Fetch requests statuses changed since fromDate (seconds since epoch) and
// returns the raw decoded body. Failures are typed: *TransportError,
// *StatusError, or *DecodeError.
func (c *Client) Fetch(ctx context.Context, fromDate int64) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	q := url.Values{}
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	c.log.Debug("statuses fetched", logx.Int64("from_date", fromDate), logx.Int("bytes", len(raw)))
	return raw, nil
}
