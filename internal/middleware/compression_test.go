// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func largeBody() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat("feed data ", 200)))
	})
}

func TestCompression_WithGzipAccept(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()

	Compression(largeBody()).ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gr.Close()
	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != strings.Repeat("feed data ", 200) {
		t.Error("decompressed body does not match")
	}
}

func TestCompression_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header map[string]string
	}{
		{"no accept-encoding", http.MethodGet, nil},
		{"websocket upgrade", http.MethodGet, map[string]string{"Accept-Encoding": "gzip", "Upgrade": "websocket"}},
		{"head request", http.MethodHead, map[string]string{"Accept-Encoding": "gzip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/feed", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			Compression(largeBody()).ServeHTTP(rec, req)

			if rec.Header().Get("Content-Encoding") != "" {
				t.Errorf("Content-Encoding = %q, want none", rec.Header().Get("Content-Encoding"))
			}
		})
	}
}

func TestGzipResponseWriter_ImplicitHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Length", "10")
	w := &gzipResponseWriter{Writer: io.Discard, ResponseWriter: rec}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !w.wroteHeader {
		t.Error("Write did not send the header")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("Content-Length should be dropped for compressed bodies")
	}
	if w.Unwrap() != rec {
		t.Error("Unwrap should return the underlying writer")
	}
}
