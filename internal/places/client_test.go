package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/place/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "ramen tokyo" {
			t.Errorf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "ChIJ123",
				"name": "Ichiran",
				"formatted_address": "Tokyo, Japan",
				"rating": 4.5,
				"types": ["restaurant"],
				"geometry": {"location": {"lat": 35.6, "lng": 139.7}},
				"photos": [{"photo_reference": "ref-1"}]
			}]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	results, err := client.Search(context.Background(), "ramen tokyo")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.PlaceID != "ChIJ123" || got.Name != "Ichiran" || got.PhotoRef != "ref-1" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Lat != 35.6 || got.Lng != 139.7 {
		t.Fatalf("unexpected coordinates %+v", got)
	}
}

func TestSearchZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	results, err := client.Search(context.Background(), "nothing here")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "NOT_FOUND"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Details(context.Background(), "missing"); err != ErrPlaceNotFound {
		t.Fatalf("expected ErrPlaceNotFound, got %v", err)
	}
}

func TestPhotoReturnsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("photoreference"); got != "ref-1" {
			t.Errorf("unexpected photoreference %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	data, contentType, err := client.Photo(context.Background(), "ref-1", 400)
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected body %q", data)
	}
}
