// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// profileServer keeps one document per user and applies merge patches.
type profileServer struct {
	mu    sync.Mutex
	docs  map[string]map[string]any
	fail  bool
	calls int
}

func (p *profileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		http.Error(w, "down", http.StatusServiceUnavailable)
		return
	}
	user := r.URL.Path[len("/profiles/"):]
	switch r.Method {
	case http.MethodGet:
		doc, ok := p.docs[user]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	case http.MethodPatch:
		body, _ := io.ReadAll(r.Body)
		var patch map[string]any
		if err := json.Unmarshal(body, &patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, ok := p.docs[user]
		if !ok {
			doc = map[string]any{}
			p.docs[user] = doc
		}
		for k, v := range patch {
			doc[k] = v
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (p *profileServer) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *profileServer) field(user, key string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docs[user][key]
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		BaseURL:         srv.URL + "/",
		Timeout:         time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoadMissingProfileIsEmpty(t *testing.T) {
	c := newTestClient(t, &profileServer{docs: map[string]map[string]any{}})

	got, err := c.LoadInterests(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty list", got)
	}
}

func TestMergeKeepsOtherFields(t *testing.T) {
	srv := &profileServer{docs: map[string]map[string]any{
		"u1": {"display_name": "Sam", "interests": []any{"old"}},
	}}
	c := newTestClient(t, srv)
	ctx := context.Background()

	if err := c.MergeInterests(ctx, "u1", []string{"music", "travel"}); err != nil {
		t.Fatal(err)
	}
	got, err := c.LoadInterests(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"music", "travel"}) {
		t.Errorf("interests = %v", got)
	}
	if srv.field("u1", "display_name") != "Sam" {
		t.Error("merge must not drop unrelated profile fields")
	}
}

func TestServerErrorsTripBreaker(t *testing.T) {
	srv := &profileServer{docs: map[string]map[string]any{}, fail: true}
	c := newTestClient(t, srv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.LoadInterests(ctx, "u1"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	callsBefore := srv.callCount()

	err := c.MergeInterests(ctx, "u1", []string{"a"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if srv.callCount() != callsBefore {
		t.Error("open breaker should fail fast without contacting the server")
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://x", "not a url", "http://"} {
		if _, err := NewClient(Config{BaseURL: raw}, nil); err == nil {
			t.Errorf("NewClient(%q) should fail", raw)
		}
	}
}
