// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package mediacache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelfeed/internal/breaker"
	"github.com/tomtom215/reelfeed/internal/logging"
	"github.com/tomtom215/reelfeed/internal/metrics"
	"github.com/tomtom215/reelfeed/internal/models"
)

// ErrNotCached is the soft failure returned when no fetch mode succeeded.
var ErrNotCached = errors.New("mediacache: could not fetch")

// Fetch modes, also used as metric labels.
const (
	ModeStandard = "standard"
	ModeOpaque   = "opaque"
	ModeFailed   = "failed"
	ModeRejected = "rejected"
)

// FetcherConfig configures origin fetches.
type FetcherConfig struct {
	// RangeBytes bounds every stored body. Video requests ask for exactly
	// this many leading bytes.
	RangeBytes int64

	// Timeout applies to each individual request.
	Timeout time.Duration

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Fetcher retrieves the leading bytes of a URL from its origin.
//
// Requests never carry credentials: the client has no cookie jar and no
// authorization headers are set. A failed standard request falls back to an
// opaque request whose status and headers are ignored.
type Fetcher struct {
	client     *http.Client
	cb         *gobreaker.CircuitBreaker[*models.CacheEntry]
	rangeBytes int64
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewFetcher builds a fetcher. A nil client gets a plain http.Client.
func NewFetcher(cfg FetcherConfig, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.RangeBytes <= 0 {
		cfg.RangeBytes = 2 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Fetcher{
		client:     client,
		rangeBytes: cfg.RangeBytes,
		timeout:    cfg.Timeout,
		cb: breaker.New[*models.CacheEntry](breaker.Config{
			Name:             "media-origin",
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerTimeout,
		}),
		logger: logging.Component("mediacache"),
	}
}

// Fetch runs the fallback chain for url. The returned entry has no Seq or
// StoredAt; the store assigns those. On failure the error wraps ErrNotCached.
func (f *Fetcher) Fetch(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	entry, err := breaker.Execute(f.cb, func() (*models.CacheEntry, error) {
		e, err := f.fetchChain(ctx, bucket, url)
		if err != nil && ctx.Err() != nil {
			// Cancellation says nothing about origin health.
			return nil, nil
		}
		return e, err
	})

	switch {
	case err == nil && entry == nil:
		return nil, fmt.Errorf("%w: %w", ErrNotCached, ctx.Err())
	case err == nil:
		mode := ModeStandard
		if entry.Opaque {
			mode = ModeOpaque
		}
		metrics.RecordCacheFetch(string(bucket), mode)
		return entry, nil
	case breaker.IsRejected(err):
		metrics.RecordCacheFetch(string(bucket), ModeRejected)
		return nil, fmt.Errorf("%w: %w", ErrNotCached, err)
	default:
		metrics.RecordCacheFetch(string(bucket), ModeFailed)
		return nil, err
	}
}

func (f *Fetcher) fetchChain(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	entry, stdErr := f.fetchStandard(ctx, bucket, url)
	if stdErr == nil {
		return entry, nil
	}
	f.logger.Debug().Err(stdErr).Str("url", url).Msg("standard fetch failed, trying opaque")

	entry, opqErr := f.fetchOpaque(ctx, bucket, url)
	if opqErr == nil {
		return entry, nil
	}
	f.logger.Debug().Err(opqErr).Str("url", url).Msg("opaque fetch failed")

	return nil, fmt.Errorf("%w: standard: %v; opaque: %v", ErrNotCached, stdErr, opqErr)
}

// fetchStandard issues a credential-free GET, ranged for video, and accepts
// only 2xx responses.
func (f *Fetcher) fetchStandard(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if bucket == models.BucketVideo {
		req.Header.Set("Range", "bytes=0-"+strconv.FormatInt(f.rangeBytes-1, 10))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.rangeBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, truncated, err := f.readPrefix(resp.Body)
	if err != nil {
		return nil, err
	}

	entry := &models.CacheEntry{
		URL:    url,
		Bucket: bucket,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}
	if truncated {
		// The origin sent more than the prefix, usually by ignoring Range.
		// Store what was kept as the partial response it is.
		entry.Truncated = true
		entry.Status = http.StatusPartialContent
		entry.Header.Set("Content-Range", prefixRange(len(body), resourceSize(resp)))
		entry.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	return entry, nil
}

// fetchOpaque issues a plain GET and stores whatever comes back, without
// looking at the status or headers.
func (f *Fetcher) fetchOpaque(ctx context.Context, bucket models.Bucket, url string) (*models.CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, truncated, err := f.readPrefix(resp.Body)
	if err != nil {
		return nil, err
	}

	return &models.CacheEntry{
		URL:       url,
		Bucket:    bucket,
		Body:      body,
		Opaque:    true,
		Truncated: truncated,
	}, nil
}

// readPrefix reads at most rangeBytes and reports whether more followed.
func (f *Fetcher) readPrefix(r io.Reader) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.rangeBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.rangeBytes {
		return body[:f.rangeBytes], true, nil
	}
	return body, false, nil
}

// resourceSize returns the full length of the resource, or -1 when the
// response does not say.
func resourceSize(resp *http.Response) int64 {
	if resp.StatusCode == http.StatusPartialContent {
		cr := resp.Header.Get("Content-Range")
		if i := strings.LastIndexByte(cr, '/'); i >= 0 {
			if n, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
				return n
			}
		}
		return -1
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return -1
}

// prefixRange formats the Content-Range of the first n bytes of a resource.
func prefixRange(n int, size int64) string {
	total := "*"
	if size > 0 {
		total = strconv.FormatInt(size, 10)
	}
	return fmt.Sprintf("bytes 0-%d/%s", n-1, total)
}
