// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package profile is the HTTP client for the remote user profile document.
// Only the interests field is read or written; everything else in the
// document belongs to other services.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelfeed/internal/breaker"
	"github.com/tomtom215/reelfeed/internal/logging"
)

// ErrUnavailable wraps every failure talking to the profile service.
var ErrUnavailable = errors.New("profile: service unavailable")

// maxDocumentBytes bounds the profile document read from the service.
const maxDocumentBytes = 1 << 20

// Config configures the client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client reads and merges the interests field of /profiles/{user}.
type Client struct {
	base    string
	client  *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]string]
	logger  zerolog.Logger
}

type document struct {
	Interests []string `json:"interests"`
}

// NewClient builds a client. A nil httpClient gets a plain http.Client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("profile: invalid base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		timeout: cfg.Timeout,
		cb: breaker.New[[]string](breaker.Config{
			Name:             "profile-api",
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerTimeout,
		}),
		logger: logging.Component("profile"),
	}, nil
}

// LoadInterests returns the stored interests. A missing profile is an empty
// list, not an error.
func (c *Client) LoadInterests(ctx context.Context, userID string) ([]string, error) {
	list, err := breaker.Execute(c.cb, func() ([]string, error) {
		return c.get(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return list, nil
}

// MergeInterests replaces the interests field and leaves the rest of the
// profile untouched.
func (c *Client) MergeInterests(ctx context.Context, userID string, interests []string) error {
	_, err := breaker.Execute(c.cb, func() ([]string, error) {
		return nil, c.patch(ctx, userID, interests)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) endpoint(userID string) string {
	return c.base + "/profiles/" + url.PathEscape(userID)
}

func (c *Client) get(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(userID), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return []string{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("get profile: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if doc.Interests == nil {
		return []string{}, nil
	}
	return doc.Interests, nil
}

func (c *Client) patch(ctx context.Context, userID string, interests []string) error {
	if interests == nil {
		interests = []string{}
	}
	payload, err := json.Marshal(document{Interests: interests})
	if err != nil {
		return fmt.Errorf("encode interests: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint(userID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/merge-patch+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("patch profile: status %d", resp.StatusCode)
	}
	c.logger.Debug().Str("user_id", userID).Int("count", len(interests)).Msg("profile interests merged")
	return nil
}
