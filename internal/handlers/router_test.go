package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/farmkit/agrorent/internal/booking"
	"github.com/farmkit/agrorent/internal/config"
	"github.com/farmkit/agrorent/internal/database/dbtest"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/listing"
	"github.com/farmkit/agrorent/internal/machine"
	"github.com/farmkit/agrorent/internal/middleware"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/services/dashboard"
	"github.com/farmkit/agrorent/internal/websocket"
)

type testServer struct {
	router      *Router
	farmerToken string
	adminToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.New(t)
	broker := identity.NewBroker()
	t.Cleanup(broker.Close)

	provider := identity.NewProvider(db, broker, identity.Options{Secret: "test-secret"})
	cfg := &config.Config{
		NodeEnv:  "test",
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Locale:   config.LocaleConfig{DefaultLanguage: "en"},
		Payment:  config.PaymentConfig{UPIID: "agrorent@upi", Payee: "AgroRent", CurrencySymbol: "Rs."},
	}
	router := NewRouter(cfg, Services{
		DB:       db,
		Identity: provider,
		Bookings: booking.NewEngine(db, nil),
		Machines: machine.NewCatalog(db),
		Listings: listing.NewMarket(db),
		Stats:    dashboard.NewService(db),
		Hub:      websocket.NewHub(provider, broker, provider.Profiles()),
	})

	ctx := context.Background()
	if _, err := provider.ProvisionAdmin(ctx, "admin@agrorent.in", "admin-pass", "Admin"); err != nil {
		t.Fatalf("ProvisionAdmin failed: %v", err)
	}
	admin, err := provider.SignIn(ctx, "admin@agrorent.in", "admin-pass")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	ts := &testServer{router: router, adminToken: admin.AccessToken}

	rec := ts.do(t, "POST", "/auth/register", "", RegisterRequest{
		Email:    "ravi@example.com",
		Password: "farmer-pass",
		FullName: "Ravi Kumar",
		Location: "Mandya",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		Session identity.Session `json:"session"`
	}
	decode(t, rec, &reg)
	ts.farmerToken = reg.Session.AccessToken
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Decode failed: %v (%s)", err, rec.Body.String())
	}
}

func (ts *testServer) createMachine(t *testing.T, name string, price float64) string {
	t.Helper()
	rec := ts.do(t, "POST", "/api/admin/machines", ts.adminToken, machine.Input{
		Name:        name,
		Location:    "Mandya",
		PricePerDay: price,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create machine failed: %d %s", rec.Code, rec.Body.String())
	}
	var m struct {
		ID string `json:"id"`
	}
	decode(t, rec, &m)
	return m.ID
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	machineID := ts.createMachine(t, "Tractor", 500)

	rec := ts.do(t, "GET", "/api/machines/"+machineID+"/quote?from=2030-05-01&to=2030-05-03", ts.farmerToken, nil)
	var est booking.Estimate
	decode(t, rec, &est)
	if est.Days != 3 || est.Total != 1500 {
		t.Errorf("Expected 3 days for 1500, got %+v", est)
	}

	rec = ts.do(t, "POST", "/api/bookings", ts.farmerToken, CreateBookingRequest{
		MachineID:     machineID,
		FromDate:      "2030-05-01",
		ToDate:        "2030-05-03",
		PaymentMethod: "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create booking failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID          string  `json:"id"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"total_amount"`
	}
	decode(t, rec, &created)
	if created.Status != "Pending" || created.TotalAmount != 1500 {
		t.Errorf("Expected Pending booking of 1500, got %+v", created)
	}

	rec = ts.do(t, "GET", "/api/admin/bookings?status=Pending", ts.adminToken, nil)
	var pending []booking.View
	decode(t, rec, &pending)
	if len(pending) != 1 || pending[0].FarmerName != "Ravi Kumar" || pending[0].MachineName != "Tractor" {
		t.Fatalf("Expected one named pending booking, got %+v", pending)
	}

	rec = ts.do(t, "POST", "/api/admin/bookings/"+created.ID+"/decision", ts.adminToken, DecisionRequest{Decision: "Approved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Approve failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, "POST", "/api/admin/bookings/"+created.ID+"/decision", ts.adminToken, DecisionRequest{Decision: "Rejected"})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a second decision, got %d", rec.Code)
	}

	rec = ts.do(t, "GET", "/api/bookings/mine?status=Approved", ts.farmerToken, nil)
	var mine []booking.View
	decode(t, rec, &mine)
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("Expected the approved booking in the farmer's list, got %+v", mine)
	}

	rec = ts.do(t, "GET", "/api/bookings/"+created.ID+"/receipt.pdf", ts.farmerToken, nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("Expected a PDF receipt, got %d", rec.Code)
	}

	rec = ts.do(t, "GET", "/api/admin/bookings/export.xlsx", ts.adminToken, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "spreadsheetml") {
		t.Errorf("Expected a spreadsheet export, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestRoleEnforcement(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous farmer route", "GET", "/api/bookings/mine", "", http.StatusUnauthorized},
		{"anonymous member route", "GET", "/api/machines", "", http.StatusUnauthorized},
		{"farmer on admin route", "GET", "/api/admin/bookings", ts.farmerToken, http.StatusForbidden},
		{"admin creating a booking", "POST", "/api/bookings", ts.adminToken, http.StatusForbidden},
		{"garbage token", "GET", "/api/machines", "not-a-token", http.StatusUnauthorized},
		{"farmer catalogue", "GET", "/api/machines", ts.farmerToken, http.StatusOK},
		{"admin stats", "GET", "/api/admin/stats", ts.adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGuardEndpoint(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		token    string
		role     string
		wantCode int
		wantDest string
	}{
		{"anonymous", "", "farmer", http.StatusOK, "/login"},
		{"farmer on admin page", ts.farmerToken, "admin", http.StatusOK, "/unauthorized"},
		{"farmer on farmer page", ts.farmerToken, "farmer", http.StatusOK, ""},
		{"unknown role", ts.farmerToken, "owner", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "GET", "/api/guard?role="+tt.role, tt.token, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
			if rec.Code != http.StatusOK {
				return
			}
			var d struct {
				Status      string `json:"status"`
				Destination string `json:"destination"`
			}
			decode(t, rec, &d)
			if d.Destination != tt.wantDest {
				t.Errorf("Expected destination %q, got %q", tt.wantDest, d.Destination)
			}
		})
	}
}

func TestPagesRedirect(t *testing.T) {
	ts := newTestServer(t)

	page := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: token})
		}
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := page("/farmer", ""); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("Expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if rec := page("/admin", ts.farmerToken); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/unauthorized" {
		t.Errorf("Expected redirect to /unauthorized, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	rec := page("/farmer", ts.farmerToken)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected the farmer page, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := page("/login", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected the login page to be public, got %d", rec.Code)
	}
}

func TestErrorsAreLocalized(t *testing.T) {
	ts := newTestServer(t)
	machineID := ts.createMachine(t, "Harvester", 1200)

	rec := ts.do(t, "POST", "/api/bookings?lang=hi", ts.farmerToken, CreateBookingRequest{
		MachineID:     machineID,
		PaymentMethod: "cash",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["code"] != "error.booking.dates_required" {
		t.Errorf("Expected dates_required code, got %q", body["code"])
	}
	if body["error"] != "कृपया दोनों तिथियां चुनें" {
		t.Errorf("Expected the Hindi message, got %q", body["error"])
	}
	if rec.Header().Get("Content-Language") != "hi" {
		t.Errorf("Expected Content-Language hi, got %q", rec.Header().Get("Content-Language"))
	}
}

func TestListingsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/listings", ts.farmerToken, listing.Input{
		Name:     "Basmati Rice",
		Type:     models.ListingCrop,
		Price:    "60/kg",
		Quantity: "500 kg",
		Location: "Mandya",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Add listing failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = ts.do(t, "GET", "/api/listings?q=basmati", ts.adminToken, nil)
	var found []struct {
		ID string `json:"id"`
	}
	decode(t, rec, &found)
	if len(found) != 1 || found[0].ID != created.ID {
		t.Errorf("Expected to find the listing, got %+v", found)
	}

	rec = ts.do(t, "GET", "/api/listings/mine", ts.farmerToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected /listings/mine to route to the farmer handler, got %d", rec.Code)
	}

	if rec := ts.do(t, "DELETE", "/api/listings/"+created.ID, ts.farmerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("Remove failed: %d %s", rec.Code, rec.Body.String())
	}
	if rec := ts.do(t, "DELETE", "/api/listings/"+created.ID, ts.farmerToken, nil); rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 removing twice, got %d", rec.Code)
	}
}

func TestUpdateProfileOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"full_name": "Ravi K", "location": "Hassan", "role": "admin"}
	rec := ts.do(t, "PATCH", "/auth/profile", ts.farmerToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Update failed: %d %s", rec.Code, rec.Body.String())
	}
	var profile models.Profile
	decode(t, rec, &profile)
	if profile.DisplayName() != "Ravi K" || profile.Role != models.RoleFarmer {
		t.Errorf("Expected renamed farmer, got %+v", profile)
	}

	if rec := ts.do(t, "GET", "/api/admin/stats", ts.farmerToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("A role field in the body must not grant admin, got %d", rec.Code)
	}
	if rec := ts.do(t, "PATCH", "/auth/profile", "", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a session, got %d", rec.Code)
	}
}
