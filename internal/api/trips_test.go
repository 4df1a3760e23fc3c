package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

func TestTripLifecycle(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	owner := seedUser(t, gdb, models.RoleTraveler)
	friend := seedUser(t, gdb, models.RoleTraveler)
	ownerToken := tokenFor(t, owner)
	friendToken := tokenFor(t, friend)

	// Create a 4-day trip; days are generated from the date range.
	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips", ownerToken, map[string]any{
		"name":        "Lisbon Long Weekend",
		"destination": "Lisbon",
		"start_date":  "2026-05-01",
		"end_date":    "2026-05-04",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create trip: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var trip models.Trip
	decodeBody(t, rr, &trip)
	if trip.InviteCode == "" {
		t.Fatal("expected an invite code on the created trip")
	}

	var dayCount int64
	if err := gdb.Model(&models.TripDay{}).Where("trip_id = ?", trip.ID).Count(&dayCount).Error; err != nil {
		t.Fatalf("count days: %v", err)
	}
	if dayCount != 4 {
		t.Fatalf("expected 4 generated days, got %d", dayCount)
	}

	// A non-member cannot see the trip.
	rr = doJSON(t, h, http.MethodGet, "/api/v1/trips/"+trip.ID, friendToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-member get: expected 403, got %d", rr.Code)
	}

	// Joining by invite code grants editor access.
	rr = doJSON(t, h, http.MethodPost, "/api/v1/trips/join", friendToken, map[string]any{
		"invite_code": trip.InviteCode,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("join: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/trips/"+trip.ID, friendToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("member get: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Joining twice conflicts.
	rr = doJSON(t, h, http.MethodPost, "/api/v1/trips/join", friendToken, map[string]any{
		"invite_code": trip.InviteCode,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("re-join: expected 409, got %d", rr.Code)
	}
}

func TestWishlistVoteTally(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	owner := seedUser(t, gdb, models.RoleTraveler)
	friend := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, owner, 2)
	if err := gdb.Create(&models.TripMember{
		ID:     uuid.NewString(),
		TripID: trip.ID,
		UserID: friend.ID,
		Role:   models.TripRoleEditor,
	}).Error; err != nil {
		t.Fatalf("add member: %v", err)
	}
	item := seedWishlistItem(t, gdb, trip, "morning", 60)

	votePath := fmt.Sprintf("/api/v1/trips/%s/wishlist/%s/vote", trip.ID, item.ID)
	for _, tc := range []struct {
		token string
		value int
	}{
		{tokenFor(t, owner), 1},
		{tokenFor(t, friend), -1},
	} {
		rr := doJSON(t, h, http.MethodPost, votePath, tc.token, map[string]any{"value": tc.value})
		if rr.Code != http.StatusOK && rr.Code != http.StatusCreated {
			t.Fatalf("vote %d: unexpected status %d body=%s", tc.value, rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/trips/%s/wishlist", trip.ID), tokenFor(t, owner), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var items []struct {
		ID        string `json:"ID"`
		Score     int    `json:"score"`
		VoteCount int    `json:"vote_count"`
	}
	decodeBody(t, rr, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Score != 0 || items[0].VoteCount != 2 {
		t.Fatalf("expected score 0 from 2 votes, got score=%d count=%d", items[0].Score, items[0].VoteCount)
	}

	// Re-voting updates in place instead of stacking.
	rr = doJSON(t, h, http.MethodPost, votePath, tokenFor(t, friend), map[string]any{"value": 1})
	if rr.Code != http.StatusOK && rr.Code != http.StatusCreated {
		t.Fatalf("re-vote: unexpected status %d", rr.Code)
	}
	var total int64
	if err := gdb.Model(&models.Vote{}).Where("wishlist_item_id = ?", item.ID).Count(&total).Error; err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 vote rows after upsert, got %d", total)
	}
}
