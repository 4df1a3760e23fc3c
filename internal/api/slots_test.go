package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

func seedActivity(t *testing.T, gdb *gorm.DB, trip models.Trip, dayIndex int, start string, duration int) models.Activity {
	t.Helper()
	var day models.TripDay
	if err := gdb.Where("trip_id = ? AND day_index = ?", trip.ID, dayIndex).First(&day).Error; err != nil {
		t.Fatalf("find day %d: %v", dayIndex, err)
	}
	act := models.Activity{
		ID:              uuid.NewString(),
		TripID:          trip.ID,
		TripDayID:       day.ID,
		Title:           "Booked",
		StartTime:       start,
		DurationMinutes: duration,
		CreatedBy:       trip.OwnerID,
	}
	if err := gdb.Create(&act).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	return act
}

type slotResult struct {
	Found bool `json:"found"`
	Slot  struct {
		DayIndex int    `json:"day_index"`
		Date     string `json:"date"`
		Start    string `json:"start"`
		End      string `json:"end"`
	} `json:"slot"`
}

func TestSlotsFirst_EmptyItinerary(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 3)
	token := tokenFor(t, user)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 60})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res slotResult
	decodeBody(t, rr, &res)
	if !res.Found {
		t.Fatal("expected a slot on an empty itinerary")
	}
	if res.Slot.DayIndex != 0 || res.Slot.Start != "08:00" || res.Slot.End != "09:00" {
		t.Fatalf("expected day 0 08:00-09:00, got day %d %s-%s", res.Slot.DayIndex, res.Slot.Start, res.Slot.End)
	}
	if res.Slot.Date != "2026-04-01" {
		t.Fatalf("expected date 2026-04-01, got %s", res.Slot.Date)
	}
}

func TestSlotsFirst_SkipsBookedTime(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 2)
	token := tokenFor(t, user)

	// 08:00-10:00 is taken, so the first morning hour free is 10:00.
	seedActivity(t, gdb, trip, 0, "08:00", 120)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 60})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res slotResult
	decodeBody(t, rr, &res)
	if !res.Found || res.Slot.DayIndex != 0 || res.Slot.Start != "10:00" {
		t.Fatalf("expected day 0 10:00, got found=%v day %d %s", res.Found, res.Slot.DayIndex, res.Slot.Start)
	}
}

func TestSlotsFirst_RollsToNextDay(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 2)
	token := tokenFor(t, user)

	// Day 0 mornings fully booked.
	seedActivity(t, gdb, trip, 0, "08:00", 240)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 60})

	var res slotResult
	decodeBody(t, rr, &res)
	if !res.Found || res.Slot.DayIndex != 1 || res.Slot.Start != "08:00" {
		t.Fatalf("expected day 1 08:00, got found=%v day %d %s", res.Found, res.Slot.DayIndex, res.Slot.Start)
	}
}

func TestSlotsFirst_AfternoonFallbackWindow(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 1)
	token := tokenFor(t, user)

	// The core afternoon window 13:00-17:00 is full; the wider fallback
	// window still has 12:00-13:00 free.
	seedActivity(t, gdb, trip, 0, "13:00", 240)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "afternoon", "duration_minutes": 60})

	var res slotResult
	decodeBody(t, rr, &res)
	if !res.Found || res.Slot.Start != "12:00" || res.Slot.End != "13:00" {
		t.Fatalf("expected 12:00-13:00 via fallback window, got found=%v %s-%s", res.Found, res.Slot.Start, res.Slot.End)
	}
}

func TestSlotsFirst_NoSlotIsNotAnError(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 1)
	token := tokenFor(t, user)

	// Morning window is 4 hours; a 5 hour request can never fit.
	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 300})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res slotResult
	decodeBody(t, rr, &res)
	if res.Found {
		t.Fatalf("expected no slot, got %+v", res.Slot)
	}
}

func TestSlotsFirst_RejectsNonPositiveDuration(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 1)
	token := tokenFor(t, user)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 0})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSlotsFirst_RawBodyFlow(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 3)
	token := tokenFor(t, user)

	// Supplied days and bookings take precedence over the itinerary.
	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", token,
		map[string]any{
			"timeframe":        "anytime",
			"duration_minutes": 90,
			"days": []map[string]any{
				{"day_index": 0, "date": "2026-06-10"},
			},
			"bookings": []map[string]any{
				{"day_index": 0, "start": "08:00", "duration_minutes": 120},
			},
		})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res slotResult
	decodeBody(t, rr, &res)
	if !res.Found || res.Slot.Start != "10:00" || res.Slot.Date != "2026-06-10" {
		t.Fatalf("expected 10:00 on 2026-06-10, got found=%v %s %s", res.Found, res.Slot.Start, res.Slot.Date)
	}
}

func TestSlotsAvailable_ReturnsMultiple(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 1)
	token := tokenFor(t, user)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/available", token,
		map[string]any{"timeframe": "morning", "duration_minutes": 60, "max_results": 3})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res struct {
		Slots []struct {
			Start string `json:"start"`
		} `json:"slots"`
	}
	decodeBody(t, rr, &res)
	if len(res.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(res.Slots))
	}
	want := []string{"08:00", "08:30", "09:00"}
	for i, s := range res.Slots {
		if s.Start != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], s.Start)
		}
	}
}

func TestSlotsFirst_RequiresMembership(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	owner := seedUser(t, gdb, models.RoleTraveler)
	stranger := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, owner, 1)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/trips/"+trip.ID+"/slots/first", tokenFor(t, stranger),
		map[string]any{"timeframe": "morning"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func seedWishlistItem(t *testing.T, gdb *gorm.DB, trip models.Trip, timeframe string, duration int) models.WishlistItem {
	t.Helper()
	item := models.WishlistItem{
		ID:              uuid.NewString(),
		TripID:          trip.ID,
		Title:           "Fushimi Inari",
		Timeframe:       timeframe,
		DurationMinutes: duration,
		CreatedBy:       trip.OwnerID,
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("seed wishlist item: %v", err)
	}
	return item
}

func TestWishlistPromote_CreatesActivityAtSlot(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 2)
	token := tokenFor(t, user)
	item := seedWishlistItem(t, gdb, trip, "evening", 90)

	path := fmt.Sprintf("/api/v1/trips/%s/wishlist/%s/promote", trip.ID, item.ID)
	rr := doJSON(t, h, http.MethodPost, path, token, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res struct {
		Activity models.Activity `json:"activity"`
		Slot     struct {
			DayIndex int    `json:"day_index"`
			Start    string `json:"start"`
		} `json:"slot"`
	}
	decodeBody(t, rr, &res)
	if res.Slot.DayIndex != 0 || res.Slot.Start != "18:00" {
		t.Fatalf("expected day 0 18:00, got day %d %s", res.Slot.DayIndex, res.Slot.Start)
	}
	if res.Activity.StartTime != "18:00" || res.Activity.DurationMinutes != 90 {
		t.Fatalf("activity not scheduled at slot: %+v", res.Activity)
	}

	var stored models.WishlistItem
	if err := gdb.First(&stored, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if !stored.Promoted || stored.ActivityID != res.Activity.ID {
		t.Fatalf("item not flagged promoted: promoted=%v activity_id=%s", stored.Promoted, stored.ActivityID)
	}
}

func TestWishlistPromote_NoSlotReturnsDays(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 2)
	token := tokenFor(t, user)
	item := seedWishlistItem(t, gdb, trip, "morning", 300)

	path := fmt.Sprintf("/api/v1/trips/%s/wishlist/%s/promote", trip.ID, item.ID)
	rr := doJSON(t, h, http.MethodPost, path, token, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	var res struct {
		Error string           `json:"error"`
		Days  []models.TripDay `json:"days"`
	}
	decodeBody(t, rr, &res)
	if res.Error != "no_slot_available" {
		t.Fatalf("expected no_slot_available, got %s", res.Error)
	}
	if len(res.Days) != 2 {
		t.Fatalf("expected the trip's 2 days in the response, got %d", len(res.Days))
	}

	var stored models.WishlistItem
	if err := gdb.First(&stored, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if stored.Promoted {
		t.Fatal("item must stay unpromoted when no slot fits")
	}
}

func TestWishlistPromote_AlreadyPromoted(t *testing.T) {
	_, h, gdb := newTestAPI(t)
	user := seedUser(t, gdb, models.RoleTraveler)
	trip := seedTrip(t, gdb, user, 1)
	token := tokenFor(t, user)
	item := seedWishlistItem(t, gdb, trip, "anytime", 60)
	if err := gdb.Model(&item).Update("promoted", true).Error; err != nil {
		t.Fatalf("mark promoted: %v", err)
	}

	path := fmt.Sprintf("/api/v1/trips/%s/wishlist/%s/promote", trip.ID, item.ID)
	rr := doJSON(t, h, http.MethodPost, path, token, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}
