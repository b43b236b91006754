package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		baseURL:   srv.URL,
		apiKeyHdr: "X-API-Key",
		http:      srv.Client(),
	}
}

func TestReverseParsesDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("lat") != "24.7136" || r.URL.Query().Get("lon") != "46.6753" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"display_name":"King Fahd Rd, Riyadh","name_ar":"طريق الملك فهد"}`))
	}))
	defer srv.Close()

	place, err := testClient(srv).Reverse(context.Background(), 24.7136, 46.6753)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if place.NameEn != "King Fahd Rd, Riyadh" {
		t.Errorf("NameEn = %q", place.NameEn)
	}
	if place.NameAr != "طريق الملك فهد" {
		t.Errorf("NameAr = %q", place.NameAr)
	}
}

func TestReverseFallsBackToAddressParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"road":"Olaya St","city":"Riyadh"}}`))
	}))
	defer srv.Close()

	place, err := testClient(srv).Reverse(context.Background(), 24.7, 46.7)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if place.NameEn != "Olaya St, Riyadh" {
		t.Errorf("NameEn = %q", place.NameEn)
	}
	// no arabic name in the payload, degrade to the english one
	if place.NameAr != place.NameEn {
		t.Errorf("NameAr = %q, want fallback to NameEn", place.NameAr)
	}
}

func TestReverseErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := testClient(srv).Reverse(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestReverseEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).Reverse(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error when no place name resolves")
	}
}

func TestCachedClientHitsBackendOncePerCell(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"display_name":"Somewhere"}`))
	}))
	defer srv.Close()

	cached := NewCachedClient(testClient(srv))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cached.Reverse(ctx, 24.71361, 46.67529); err != nil {
			t.Fatalf("Reverse: %v", err)
		}
	}
	// within ~110m the coordinates collapse to one cache cell
	if _, err := cached.Reverse(ctx, 24.71370, 46.67520); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("backend called %d times, want 1", got)
	}

	// a different cell misses
	if _, err := cached.Reverse(ctx, 24.8, 46.8); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("backend called %d times, want 2", got)
	}
}

func TestCachedClientExpires(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"display_name":"Somewhere"}`))
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cached := NewCachedClient(testClient(srv))
	cached.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := cached.Reverse(ctx, 24.7, 46.7); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if _, err := cached.Reverse(ctx, 24.7, 46.7); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("backend called %d times before expiry, want 1", got)
	}

	now = now.Add(cacheExpiry + time.Minute)
	if _, err := cached.Reverse(ctx, 24.7, 46.7); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("backend called %d times after expiry, want 2", got)
	}
}
