package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/db"
	"github.com/wayfarerhq/wayfarer/internal/eventbus"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

var testSecret = []byte("test-secret")

func newTestAPI(t *testing.T) (*API, http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := New(gdb, testSecret, nil, nil, nil, nil, nil, eventbus.NewMemoryBus(), nil, zerolog.Nop())

	r := chi.NewRouter()
	a.Routes(r)
	return a, r, gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, role models.RoleName) models.User {
	t.Helper()
	user := models.User{
		ID:          uuid.NewString(),
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test User",
		Role:        role,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := auth.Issue(testSecret, auth.Claims{
		UserID: user.ID,
		Roles:  []string{string(user.Role)},
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// seedTrip creates a trip with its member and day rows directly.
func seedTrip(t *testing.T, gdb *gorm.DB, owner models.User, dayCount int) models.Trip {
	t.Helper()
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	trip := models.Trip{
		ID:          uuid.NewString(),
		Name:        "Kyoto Spring",
		Destination: "Kyoto",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, dayCount-1),
		OwnerID:     owner.ID,
		InviteCode:  uuid.NewString()[:8],
	}
	if err := gdb.Create(&trip).Error; err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	member := models.TripMember{
		ID:     uuid.NewString(),
		TripID: trip.ID,
		UserID: owner.ID,
		Role:   models.TripRoleOwner,
	}
	if err := gdb.Create(&member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	for i := 0; i < dayCount; i++ {
		day := models.TripDay{
			ID:       uuid.NewString(),
			TripID:   trip.ID,
			DayIndex: i,
			Date:     start.AddDate(0, 0, i),
		}
		if err := gdb.Create(&day).Error; err != nil {
			t.Fatalf("seed day: %v", err)
		}
	}
	return trip
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}
