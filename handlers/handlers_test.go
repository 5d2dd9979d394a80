package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snapbook/apperr"
	bookingRepo "snapbook/database/repository/booking"
	deviceRepo "snapbook/database/repository/device"
	photoRepo "snapbook/database/repository/photo"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/handlers"
	"snapbook/middleware"
	"snapbook/models"
	"snapbook/routes"
	"snapbook/services/availability"
	"snapbook/services/booking"
	"snapbook/services/events"
	"snapbook/services/moderation"
	"snapbook/services/storage"
	"snapbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noReconcile struct{}

func (noReconcile) ScheduleReconcile(context.Context, string) error { return nil }

type fixedGeocoder struct{}

func (fixedGeocoder) ReadableAddress(_ context.Context, p models.GeoPoint) (string, error) {
	if p.Lat() == 0 && p.Lng() == 0 {
		return "", apperr.ErrNotFound
	}
	return "1 Market St", nil
}

type server struct {
	t      *testing.T
	router *gin.Engine
	jwt    *utils.JWTManager
	tokens *deviceRepo.MemoryTokenRepo
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	bookings := bookingRepo.NewMemoryBookingRepo()
	bus := events.NewBus(logger)
	availabilitySvc := availability.NewAvailabilityService(photographerRepo.NewMemoryStatusRepo(), bookings, bus, logger)
	bookingSvc := booking.NewBookingService(bookings, availabilitySvc, noReconcile{}, bus, logger)
	bookingSvc.RetryBackoff = time.Millisecond
	store := storage.StaticURLs{BaseURL: "https://files.test"}
	moderationSvc := moderation.NewModerationService(photoRepo.NewMemoryPhotoRepo(), bookings, store, store, bus, logger)

	jwt, err := utils.NewJWTManager("test-secret")
	require.NoError(t, err)
	tokens := deviceRepo.NewMemoryTokenRepo()

	hb := &handlers.HandlerBundle{
		JWT:          jwt,
		RateLimiter:  middleware.NewRateLimiter(10000),
		Booking:      handlers.NewBookingHandler(bookingSvc, logger),
		Photographer: handlers.NewPhotographerHandler(availabilitySvc, logger),
		Photo:        handlers.NewPhotoHandler(moderationSvc, store, bookings, logger),
		Geocode:      handlers.NewGeocodeHandler(fixedGeocoder{}, logger),
		Device:       handlers.NewDeviceHandler(tokens, logger),
	}
	r := gin.New()
	routes.RegisterRoutes(r, hb, logger)
	return &server{t: t, router: r, jwt: jwt, tokens: tokens}
}

func (s *server) do(actor models.Actor, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		token, err := s.jwt.GenerateToken(actor, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

var (
	client       = models.Actor{ID: "c1", Role: models.RoleClient}
	photographer = models.Actor{ID: "p1", Role: models.RolePhotographer}
	admin        = models.Actor{ID: "a1", Role: models.RoleAdmin}
)

func field(t *testing.T, body map[string]any, obj, key string) any {
	t.Helper()
	inner, ok := body[obj].(map[string]any)
	require.True(t, ok, "missing %q in %v", obj, body)
	return inner[key]
}

func (s *server) goLive() {
	w, body := s.do(photographer, http.MethodPost, "/api/photographers/me/live", gin.H{"lat": -1.29, "lng": 36.82})
	require.Equal(s.t, http.StatusOK, w.Code, body)
	assert.Equal(s.t, "available", field(s.t, body, "status", "availability"))
}

func (s *server) createBooking() string {
	w, body := s.do(client, http.MethodPost, "/api/bookings", gin.H{
		"photographerId": "p1",
		"package":        "portrait",
		"price":          15000,
		"numberOfPhotos": 20,
		"location":       models.NewGeoPoint(-1.29, 36.82),
	})
	require.Equal(s.t, http.StatusCreated, w.Code, body)
	return field(s.t, body, "booking", "id").(string)
}

func TestRequiresAuthentication(t *testing.T) {
	s := newServer(t)
	w, body := s.do(models.Actor{}, http.MethodGet, "/api/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", body["code"])
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	s.goLive()
	id := s.createBooking()

	w, body := s.do(photographer, http.MethodGet, "/api/photographers/me/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", field(t, body, "status", "availability"))

	// Second booking while pending is refused as a precondition.
	w, body = s.do(models.Actor{ID: "c2", Role: models.RoleClient}, http.MethodPost, "/api/bookings", gin.H{
		"photographerId": "p1", "package": "portrait", "price": 1, "numberOfPhotos": 1,
		"location": models.NewGeoPoint(0, 1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "photographer_unavailable", body["code"])
	assert.Equal(t, "precondition", body["experience"])

	w, _ = s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Accepting twice is a stale-state conflict.
	w, body = s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "refresh", body["experience"])

	w, body = s.do(client, http.MethodPost, "/api/bookings/"+id+"/complete", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not_permitted", body["experience"])

	w, body = s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", field(t, body, "booking", "status"))

	w, body = s.do(client, http.MethodPost, "/api/bookings/"+id+"/rating", gin.H{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "out_of_range", body["code"])

	w, body = s.do(client, http.MethodPost, "/api/bookings/"+id+"/rating", gin.H{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "out_of_range", body["code"])

	w, body = s.do(client, http.MethodPost, "/api/bookings/"+id+"/rating", gin.H{"rating": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, field(t, body, "booking", "rating"))

	w, body = s.do(client, http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, body = s.do(photographer, http.MethodGet, "/api/photographers/me/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "available", field(t, body, "status", "availability"))
}

func TestCreateBookingRequiresClientRole(t *testing.T) {
	s := newServer(t)
	s.goLive()
	w, _ := s.do(photographer, http.MethodPost, "/api/bookings", gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusHidesLocationFromOthers(t *testing.T) {
	s := newServer(t)
	s.goLive()

	_, body := s.do(client, http.MethodGet, "/api/photographers/p1/status", nil)
	assert.Nil(t, field(t, body, "status", "location"))

	_, body = s.do(admin, http.MethodGet, "/api/photographers/p1/status", nil)
	assert.NotNil(t, field(t, body, "status", "location"))
}

func TestPhotoModerationOverHTTP(t *testing.T) {
	s := newServer(t)
	s.goLive()
	id := s.createBooking()

	// Uploads are refused until the booking is completed.
	w, body := s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/photos", gin.H{"fileRef": "shots/1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "booking_not_completed", body["code"])

	s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/accept", nil)
	s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/complete", nil)

	var photoIDs []string
	for _, ref := range []string{"shots/1", "shots/2"} {
		w, body = s.do(photographer, http.MethodPost, "/api/bookings/"+id+"/photos", gin.H{"fileRef": ref})
		require.Equal(t, http.StatusCreated, w.Code, body)
		photoIDs = append(photoIDs, field(t, body, "photo", "id").(string))
	}

	// The client sees nothing until a photo is approved.
	_, body = s.do(client, http.MethodGet, "/api/photos?bookingId="+id, nil)
	assert.EqualValues(t, 0, body["count"])

	w, body = s.do(photographer, http.MethodPost, "/api/photos/bulk/approve", gin.H{"photoIds": append(photoIDs, "missing")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["failed"])
	results := body["results"].([]any)
	require.Len(t, results, 3)
	assert.Equal(t, "not_found", results[2].(map[string]any)["code"])

	_, body = s.do(client, http.MethodGet, "/api/photos?bookingId="+id, nil)
	assert.EqualValues(t, 2, body["count"])

	w, body = s.do(client, http.MethodGet, "/api/photos/"+photoIDs[0]+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://files.test/shots%2F1", body["url"])

	w, _ = s.do(client, http.MethodPost, "/api/photos/"+photoIDs[0]+"/reject", gin.H{"reason": "blurry"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.do(photographer, http.MethodPost, "/api/photos/"+photoIDs[0]+"/enhance", gin.H{"settings": gin.H{"autoImprove": true}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, field(t, body, "photo", "isEnhanced"))

	w, _ = s.do(photographer, http.MethodPut, "/api/photos/"+photoIDs[1]+"/file", gin.H{"fileRef": "shots/2b"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.do(admin, http.MethodPut, "/api/photos/"+photoIDs[1]+"/file", gin.H{"fileRef": "shots/2b"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", field(t, body, "photo", "status"))
}

func TestAdminReconcile(t *testing.T) {
	s := newServer(t)
	s.goLive()

	w, _ := s.do(photographer, http.MethodPost, "/api/admin/photographers/p1/reconcile", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(admin, http.MethodPost, "/api/admin/photographers/p1/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["repaired"])

	w, body = s.do(admin, http.MethodPost, "/api/admin/photographers/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["checked"])
}

func TestGeocodeAndDeviceToken(t *testing.T) {
	s := newServer(t)

	w, body := s.do(client, http.MethodGet, "/api/geocode?lat=-1.29&lng=36.82", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1 Market St", body["address"])

	w, _ = s.do(client, http.MethodGet, "/api/geocode?lat=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(client, http.MethodGet, "/api/geocode?lat=0&lng=0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(client, http.MethodPut, "/api/devices/token", gin.H{"fcmToken": "tok-1", "deviceId": "d1"})
	require.Equal(t, http.StatusOK, w.Code)
	tok, err := s.tokens.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.FCMToken)
	assert.Equal(t, models.RoleClient, tok.Role)
}

func TestHealthWithoutMonitor(t *testing.T) {
	s := newServer(t)
	w, body := s.do(models.Actor{}, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
