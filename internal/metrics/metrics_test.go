// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRank(t *testing.T) {
	before := testutil.ToFloat64(RankTotal.WithLabelValues("refresh"))

	RecordRank("refresh", 12, 2*time.Millisecond)

	if got := testutil.ToFloat64(RankTotal.WithLabelValues("refresh")); got != before+1 {
		t.Errorf("RankTotal = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(RankedItems); got != 12 {
		t.Errorf("RankedItems = %v, want 12", got)
	}
}

func TestRecordPrefetch(t *testing.T) {
	before := testutil.ToFloat64(PrefetchResults.WithLabelValues("video", "fetched"))
	RecordPrefetch("video", "fetched")
	RecordPrefetch("video", "fetched")
	if got := testutil.ToFloat64(PrefetchResults.WithLabelValues("video", "fetched")); got != before+2 {
		t.Errorf("PrefetchResults = %v, want %v", got, before+2)
	}
}

func TestRecordEvictionIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CacheEvictions.WithLabelValues("image"))
	RecordEviction("image", 0)
	RecordEviction("image", 5)
	if got := testutil.ToFloat64(CacheEvictions.WithLabelValues("image")); got != before+5 {
		t.Errorf("CacheEvictions = %v, want %v", got, before+5)
	}
}

func TestSetCacheEntries(t *testing.T) {
	SetCacheEntries("video", 17)
	if got := testutil.ToFloat64(CacheEntries.WithLabelValues("video")); got != 17 {
		t.Errorf("CacheEntries = %v, want 17", got)
	}
}

func TestRecordInterestMirror(t *testing.T) {
	okBefore := testutil.ToFloat64(InterestMirror.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(InterestMirror.WithLabelValues("failure"))

	RecordInterestMirror(nil)
	RecordInterestMirror(errors.New("unreachable"))

	if got := testutil.ToFloat64(InterestMirror.WithLabelValues("success")); got != okBefore+1 {
		t.Errorf("success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(InterestMirror.WithLabelValues("failure")); got != failBefore+1 {
		t.Errorf("failure = %v, want %v", got, failBefore+1)
	}
}

func TestRecordEventConsumed(t *testing.T) {
	before := testutil.ToFloat64(EventsConsumed.WithLabelValues("feed.boost", "failure"))
	RecordEventConsumed("feed.boost", errors.New("bad payload"))
	if got := testutil.ToFloat64(EventsConsumed.WithLabelValues("feed.boost", "failure")); got != before+1 {
		t.Errorf("EventsConsumed = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200"))
	RecordAPIRequest("GET", "/api/v1/feed", "200", 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200")); got != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", got, before+1)
	}
}
