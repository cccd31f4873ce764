package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository/memory"
	"github.com/Tonkaw007/Pabu/internal/service"
	"github.com/Tonkaw007/Pabu/pkg/ws"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	hub := ws.NewHub(logger)

	authSvc := service.NewAuthService(logger, store,
		auth.NewPasswordHasher(bcrypt.MinCost, 4),
		tokens,
		func(username string) bool { return username == "admin" },
	)
	bookingSvc := service.NewBookingService(logger, store, pricing.DefaultRateTable(), hub)

	h := NewHandler(logger, authSvc, bookingSvc, hub)
	return &testServer{t: t, router: NewRouter(logger, h, tokens, RouterConfig{CORSOrigins: []string{"*"}})}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

func (s *testServer) expect(want int, method, path, token string, body interface{}) map[string]interface{} {
	s.t.Helper()
	code, out := s.do(method, path, token, body)
	if code != want {
		s.t.Fatalf("%s %s: status %d, want %d: %v", method, path, code, want, out)
	}
	return out
}

func (s *testServer) login(identifier, password string) string {
	s.t.Helper()
	out := s.expect(http.StatusOK, http.MethodPost, "/login", "", gin.H{"identifier": identifier, "password": password})
	token, _ := out["token"].(string)
	if token == "" {
		s.t.Fatalf("login returned no token: %v", out)
	}
	return token
}

func intField(out map[string]interface{}, key string) int64 {
	v, _ := out[key].(float64)
	return int64(v)
}

func TestBookingScenario(t *testing.T) {
	s := newTestServer(t)

	s.expect(http.StatusCreated, http.MethodPost, "/register", "", gin.H{
		"username": "admin", "phone": "0800000000", "email": "admin@x.com", "password": "secret", "car_plate": "ADM001",
	})
	adminToken := s.login("admin", "secret")

	out := s.expect(http.StatusCreated, http.MethodPost, "/register", "", gin.H{
		"username": "alice", "phone": "0812345678", "email": "a@x.com", "password": "pw", "car_plate": "1กข1234",
	})
	if out["message"] != "User registered successfully" || intField(out, "user_id") == 0 {
		t.Fatalf("unexpected register response: %v", out)
	}
	aliceID := intField(out, "user_id")

	out = s.expect(http.StatusBadRequest, http.MethodPost, "/register", "", gin.H{
		"username": "alice2", "phone": "0899999999", "email": "a@x.com", "password": "pw", "car_plate": "1กข5678",
	})
	if out["message"] != "User already exists" || out["code"] != service.CodeUserExists {
		t.Fatalf("unexpected duplicate response: %v", out)
	}

	aliceToken := s.login("a@x.com", "pw")

	out = s.expect(http.StatusOK, http.MethodGet, "/users/"+strconv.FormatInt(aliceID, 10), aliceToken, nil)
	user, _ := out["user"].(map[string]interface{})
	for _, key := range []string{"user_id", "username", "phone", "email", "car_plate", "role"} {
		if _, ok := user[key]; !ok {
			t.Fatalf("user response missing %s: %v", key, user)
		}
	}
	if len(user) != 6 {
		t.Fatalf("user response exposes extra fields: %v", user)
	}

	out = s.expect(http.StatusCreated, http.MethodPost, "/parking_slots", adminToken, gin.H{
		"slot_number": "A01", "floor": 1, "status": "available",
	})
	slotID := intField(out, "slot_id")
	if slotID == 0 {
		t.Fatalf("missing slot_id: %v", out)
	}

	out = s.expect(http.StatusCreated, http.MethodPost, "/reservations", aliceToken, gin.H{
		"slot_id":      slotID,
		"start_time":   "2030-01-01T10:00:00Z",
		"end_time":     "2030-01-01T12:00:00Z",
		"booking_type": "hourly",
		"status":       "pending",
	})
	resID := intField(out, "reservation_id")
	if resID == 0 || out["total_price"] != float64(100) {
		t.Fatalf("unexpected reservation response: %v", out)
	}

	out = s.expect(http.StatusOK, http.MethodGet, "/reservations/"+strconv.FormatInt(resID, 10), aliceToken, nil)
	res, _ := out["reservation"].(map[string]interface{})
	if res["slot_number"] != "A01" || res["floor"] != float64(1) || res["status"] != "pending" {
		t.Fatalf("reservation not denormalized: %v", res)
	}

	out = s.expect(http.StatusCreated, http.MethodPost, "/payments", aliceToken, gin.H{
		"reservation_id":        resID,
		"amount":                100,
		"bank_reference_number": "RES-FRESH0001",
	})
	payID := intField(out, "payment_id")
	if payID == 0 || out["bank_reference_number"] != "RES-FRESH0001" {
		t.Fatalf("unexpected payment response: %v", out)
	}

	out = s.expect(http.StatusOK, http.MethodPut, "/payments/"+strconv.FormatInt(payID, 10), aliceToken, gin.H{"payment_status": "verified"})
	if out["message"] != "Payment status updated successfully" {
		t.Fatalf("unexpected payment update response: %v", out)
	}
	s.expect(http.StatusNotFound, http.MethodPut, "/payments/999999", aliceToken, gin.H{"payment_status": "verified"})

	out = s.expect(http.StatusOK, http.MethodGet, "/reservations/"+strconv.FormatInt(resID, 10), aliceToken, nil)
	res, _ = out["reservation"].(map[string]interface{})
	if res["status"] != "confirmed" {
		t.Fatalf("verified payment did not confirm reservation: %v", res)
	}

	out = s.expect(http.StatusCreated, http.MethodPost, "/barrier-control", aliceToken, gin.H{
		"reservation_id": resID, "action": "open",
	})
	if intField(out, "control_id") == 0 {
		t.Fatalf("missing control_id: %v", out)
	}
	out = s.expect(http.StatusOK, http.MethodGet, "/barrier-control/"+strconv.FormatInt(resID, 10), aliceToken, nil)
	if list, _ := out["barrier_controls"].([]interface{}); len(list) != 1 {
		t.Fatalf("expected one barrier control, got %v", out)
	}
}

func TestAuthorizationPolicy(t *testing.T) {
	s := newTestServer(t)
	s.expect(http.StatusCreated, http.MethodPost, "/register", "", gin.H{
		"username": "bob", "phone": "0811111111", "email": "b@x.com", "password": "pw", "car_plate": "BOB001",
	})
	bobToken := s.login("0811111111", "pw")

	out := s.expect(http.StatusUnauthorized, http.MethodGet, "/reservations", "", nil)
	if out["code"] != "unauthorized" || out["request_id"] == "" {
		t.Fatalf("unexpected 401 body: %v", out)
	}

	s.expect(http.StatusForbidden, http.MethodPost, "/parking_slots", bobToken, gin.H{
		"slot_number": "B01", "floor": 2,
	})
	s.expect(http.StatusForbidden, http.MethodGet, "/users/999", bobToken, nil)
	s.expect(http.StatusOK, http.MethodGet, "/parking_slots", "", nil)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	s.expect(http.StatusCreated, http.MethodPost, "/register", "", gin.H{
		"username": "admin", "phone": "0800000000", "email": "admin@x.com", "password": "secret", "car_plate": "ADM001",
	})
	adminToken := s.login("admin@x.com", "secret")

	out := s.expect(http.StatusBadRequest, http.MethodPost, "/login", "", gin.H{"identifier": "admin", "password": "wrong"})
	if out["message"] != "Invalid credentials" {
		t.Fatalf("unexpected login failure body: %v", out)
	}

	out = s.expect(http.StatusBadRequest, http.MethodGet, "/parking_slots/abc", "", nil)
	if out["message"] != "Invalid slot ID" {
		t.Fatalf("unexpected invalid id body: %v", out)
	}
	s.expect(http.StatusNotFound, http.MethodGet, "/parking_slots/42", "", nil)
	s.expect(http.StatusBadRequest, http.MethodGet, "/parking_slots?floor=x", "", nil)

	s.expect(http.StatusBadRequest, http.MethodPost, "/parking_slots", adminToken, gin.H{"slot_number": "A01"})
	s.expect(http.StatusCreated, http.MethodPost, "/parking_slots", adminToken, gin.H{"slot_number": "A01", "floor": 1})
	out = s.expect(http.StatusConflict, http.MethodPost, "/parking_slots", adminToken, gin.H{"slot_number": "A01", "floor": 1})
	if out["code"] != service.CodeDuplicate {
		t.Fatalf("unexpected duplicate slot body: %v", out)
	}

	s.expect(http.StatusBadRequest, http.MethodPut, "/parking_slots/1", adminToken, gin.H{"status": "broken"})
	s.expect(http.StatusNotFound, http.MethodPut, "/parking_slots/77", adminToken, gin.H{"status": "reserved"})

	s.expect(http.StatusNotFound, http.MethodPost, "/reservations", adminToken, gin.H{
		"slot_id": 99, "start_time": "2030-01-01T10:00:00Z", "end_time": "2030-01-01T11:00:00Z", "booking_type": "hourly",
	})
	s.expect(http.StatusBadRequest, http.MethodPost, "/reservations", adminToken, gin.H{
		"slot_id": 1, "start_time": "tomorrow", "end_time": "2030-01-01T11:00:00Z", "booking_type": "hourly",
	})
	out = s.expect(http.StatusOK, http.MethodGet, "/reservations", adminToken, nil)
	if list, _ := out["reservations"].([]interface{}); len(list) != 0 {
		t.Fatalf("failed reservations must not insert rows: %v", out)
	}

	s.expect(http.StatusBadRequest, http.MethodPut, "/notifications/1", adminToken, gin.H{"is_read": "yes"})

	code, out := s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("unexpected health response: %d %v", code, out)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	valid := func() gin.H {
		return gin.H{"username": "carol", "phone": "0822222222", "email": "c@x.com", "password": "pw", "car_plate": "CAR001"}
	}

	cases := []struct {
		name    string
		mutate  func(gin.H)
		message string
	}{
		{"missing username", func(b gin.H) { delete(b, "username") }, "Missing required fields"},
		{"missing car plate", func(b gin.H) { delete(b, "car_plate") }, "Missing required fields"},
		{"bad email", func(b gin.H) { b["email"] = "not-an-email" }, "Invalid email address"},
		{"long password", func(b gin.H) { b["password"] = strings.Repeat("p", 73) }, "Password must be at most 72 bytes"},
	}
	for _, tc := range cases {
		body := valid()
		tc.mutate(body)
		out := s.expect(http.StatusBadRequest, http.MethodPost, "/register", "", body)
		if out["message"] != tc.message || out["code"] != service.CodeValidation {
			t.Fatalf("%s: unexpected body %v", tc.name, out)
		}
	}

	out := s.expect(http.StatusBadRequest, http.MethodPost, "/register", "", nil)
	if out["message"] != "Missing required fields" {
		t.Fatalf("empty body: unexpected body %v", out)
	}
	s.expect(http.StatusCreated, http.MethodPost, "/register", "", valid())
}

func TestEnumBindingValidation(t *testing.T) {
	s := newTestServer(t)
	s.expect(http.StatusCreated, http.MethodPost, "/register", "", gin.H{
		"username": "admin", "phone": "0800000000", "email": "admin@x.com", "password": "secret", "car_plate": "ADM001",
	})
	token := s.login("admin", "secret")

	out := s.expect(http.StatusBadRequest, http.MethodPost, "/reservations", token, gin.H{
		"slot_id": 1, "start_time": "2030-01-01T10:00:00Z", "end_time": "2030-01-01T11:00:00Z", "booking_type": "weekly",
	})
	if out["message"] != "Invalid booking_type" || out["code"] != service.CodeValidation {
		t.Fatalf("unexpected booking_type body: %v", out)
	}

	out = s.expect(http.StatusBadRequest, http.MethodPost, "/barrier-control", token, gin.H{"reservation_id": 1, "action": "lift"})
	if out["message"] != "Invalid action" {
		t.Fatalf("unexpected action body: %v", out)
	}

	out = s.expect(http.StatusBadRequest, http.MethodPut, "/payments/1", token, gin.H{})
	if out["message"] != "Missing required fields" {
		t.Fatalf("unexpected payment status body: %v", out)
	}
}
