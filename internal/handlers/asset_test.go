package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
	"github.com/crucial707/trade-tracker/internal/repo"
)

func createAsset(t *testing.T, h *AssetHandler, owner int, body map[string]any) models.AssetView {
	t.Helper()
	req := asUser(requestWithChiURLParams("POST", "/assets", mustJSON(t, body), nil), owner, models.RoleForeman)
	rr := httptest.NewRecorder()
	h.CreateAsset(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateAsset status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var a models.AssetView
	if err := json.NewDecoder(rr.Body).Decode(&a); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	return a
}

func TestAssetHandler_CreateAsset(t *testing.T) {
	e, _, _ := newTestEngine(t, access.OwnerScoped{})
	h := &AssetHandler{Engine: e}

	a := createAsset(t, h, 4, map[string]any{"name": "Cordless Drill", "serial_number": "SN-100", "location": "Shop"})
	if a.OwnerID != 4 || a.Name != "Cordless Drill" || a.Serial() != "SN-100" {
		t.Errorf("unexpected asset: %+v", a)
	}
	if !a.Available || a.Tier != "healthy" || a.Category != models.DefaultCategory || a.QRCode == "" {
		t.Errorf("unexpected defaults: %+v", a)
	}
}

func TestAssetHandler_CreateAsset_Validation(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}

	req := asUser(requestWithChiURLParams("POST", "/assets", []byte(`{"description":"no name"}`), nil), 1, models.RoleTechnician)
	rr := httptest.NewRecorder()
	h.CreateAsset(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Fields["name"] != "required" || body.Kind != "validation" {
		t.Errorf("unexpected body: %+v", body)
	}

	req = asUser(requestWithChiURLParams("POST", "/assets", []byte(`{bad json`), nil), 1, models.RoleTechnician)
	rr = httptest.NewRecorder()
	h.CreateAsset(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status: got %d, want 400", rr.Code)
	}
}

func TestAssetHandler_CreateAsset_Unauthenticated(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}

	req := requestWithChiURLParams("POST", "/assets", []byte(`{"name":"Saw"}`), nil)
	rr := httptest.NewRecorder()
	h.CreateAsset(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestAssetHandler_CheckoutCheckin(t *testing.T) {
	e, _, clk := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}
	a := createAsset(t, h, 1, map[string]any{"name": "Drill"})
	params := map[string]string{"id": "1"}

	// Empty body uses the default location.
	req := asUser(requestWithChiURLParams("POST", "/assets/1/checkout", nil, params), 1, models.RoleTechnician)
	rr := httptest.NewRecorder()
	h.Checkout(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Checkout status: got %d: %s", rr.Code, rr.Body.String())
	}
	var out models.AssetView
	json.NewDecoder(rr.Body).Decode(&out)
	if out.ID != a.ID || out.Available || out.Location != lifecycle.DefaultCheckoutLocation {
		t.Errorf("unexpected asset after checkout: %+v", out)
	}

	// Second checkout conflicts and is marked retryable.
	req = asUser(requestWithChiURLParams("POST", "/assets/1/checkout", []byte(`{"location":"Site B"}`), params), 1, models.RoleTechnician)
	rr = httptest.NewRecorder()
	h.Checkout(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("second Checkout status: got %d, want 409", rr.Code)
	}
	if body := decodeError(t, rr); body.Error != "asset is already checked out" || !body.Retryable {
		t.Errorf("unexpected conflict body: %+v", body)
	}

	clk.now = clk.now.Add(10 * 24 * time.Hour)
	req = requestWithChiURLParams("GET", "/assets/1", nil, params)
	rr = httptest.NewRecorder()
	h.GetAsset(rr, req)
	json.NewDecoder(rr.Body).Decode(&out)
	if out.Tier != "attention" {
		t.Errorf("tier after 10 days: got %q, want attention", out.Tier)
	}

	req = asUser(requestWithChiURLParams("POST", "/assets/1/checkin", []byte(`{"location":"Yard"}`), params), 1, models.RoleTechnician)
	rr = httptest.NewRecorder()
	h.Checkin(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Checkin status: got %d", rr.Code)
	}
	json.NewDecoder(rr.Body).Decode(&out)
	if !out.Available || out.CheckoutAt != nil || out.Location != "Yard" || out.Tier != "healthy" {
		t.Errorf("unexpected asset after checkin: %+v", out)
	}

	req = requestWithChiURLParams("GET", "/assets/1/history", nil, params)
	rr = httptest.NewRecorder()
	h.CheckoutHistory(rr, req)
	var logs []models.CheckoutLog
	json.NewDecoder(rr.Body).Decode(&logs)
	if len(logs) != 1 || logs[0].Open() {
		t.Errorf("unexpected history: %+v", logs)
	}

	req = requestWithChiURLParams("GET", "/assets/1/audit-logs", nil, params)
	rr = httptest.NewRecorder()
	h.AuditTrail(rr, req)
	var entries []models.AuditEntry
	json.NewDecoder(rr.Body).Decode(&entries)
	if len(entries) != 3 || entries[0].Action != models.ActionCheckin {
		t.Errorf("unexpected audit trail: %+v", entries)
	}
}

func TestAssetHandler_UpdateSerial_Duplicate(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}
	createAsset(t, h, 1, map[string]any{"name": "Drill", "serial_number": "SN-1"})
	createAsset(t, h, 1, map[string]any{"name": "Saw"})

	req := asUser(requestWithChiURLParams("PUT", "/assets/2/serial", []byte(`{"serial_number":"SN-1"}`), map[string]string{"id": "2"}), 1, models.RoleTechnician)
	rr := httptest.NewRecorder()
	h.UpdateSerial(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if body := decodeError(t, rr); body.Error != "serial_number already exists" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAssetHandler_UpdateAsset(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}
	createAsset(t, h, 1, map[string]any{"name": "Drill"})

	req := asUser(requestWithChiURLParams("PATCH", "/assets/1", []byte(`{"name":"Hammer Drill","location":"Van 2"}`), map[string]string{"id": "1"}), 1, models.RoleTechnician)
	rr := httptest.NewRecorder()
	h.UpdateAsset(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body.String())
	}
	var out models.AssetView
	json.NewDecoder(rr.Body).Decode(&out)
	if out.Name != "Hammer Drill" || out.Location != "Van 2" {
		t.Errorf("unexpected asset: %+v", out)
	}
}

func TestAssetHandler_DeleteAsset(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}
	createAsset(t, h, 1, map[string]any{"name": "Drill"})
	params := map[string]string{"id": "1"}

	req := asUser(requestWithChiURLParams("DELETE", "/assets/1", nil, params), 2, models.RoleTechnician)
	rr := httptest.NewRecorder()
	h.DeleteAsset(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: got %d, want 403", rr.Code)
	}

	req = asUser(requestWithChiURLParams("DELETE", "/assets/1", nil, params), 1, models.RoleTechnician)
	rr = httptest.NewRecorder()
	h.DeleteAsset(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("owner delete: got %d", rr.Code)
	}
	var res lifecycle.DeleteResult
	json.NewDecoder(rr.Body).Decode(&res)
	if res.AssetID != 1 || res.AuditEntries != 1 || res.CheckoutLogs != 0 {
		t.Errorf("unexpected delete result: %+v", res)
	}

	req = requestWithChiURLParams("GET", "/assets/1", nil, params)
	rr = httptest.NewRecorder()
	h.GetAsset(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("GetAsset after delete: got %d, want 404", rr.Code)
	}
}

func TestAssetHandler_ListAssets(t *testing.T) {
	e, _, clk := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}
	createAsset(t, h, 1, map[string]any{"name": "Drill", "category": "power"})
	createAsset(t, h, 1, map[string]any{"name": "Ladder", "category": "access"})
	if _, err := e.Checkout(context.Background(), 1, access.Caller{ID: 1}, "Site A"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	clk.now = clk.now.Add(31 * 24 * time.Hour)

	req := httptest.NewRequest("GET", "/assets?tier=overdue", nil)
	rr := httptest.NewRecorder()
	h.ListAssets(rr, req)
	var list []models.AssetView
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 || list[0].Name != "Drill" || list[0].Tier != "overdue" {
		t.Errorf("unexpected overdue list: %+v", list)
	}

	req = httptest.NewRequest("GET", "/assets?available=true&category=access", nil)
	rr = httptest.NewRecorder()
	h.ListAssets(rr, req)
	list = nil
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 || list[0].Name != "Ladder" {
		t.Errorf("unexpected filtered list: %+v", list)
	}

	for _, q := range []string{"tier=late", "available=maybe", "owner_id=-1"} {
		rr = httptest.NewRecorder()
		h.ListAssets(rr, httptest.NewRequest("GET", "/assets?"+q, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, rr.Code)
		}
	}
}

func TestAssetHandler_GetAsset_InvalidID(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	h := &AssetHandler{Engine: e}

	req := requestWithChiURLParams("GET", "/assets/abc", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetAsset(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetAsset invalid id: got %d, want 400", rr.Code)
	}
}

func TestAssetHandler_GetAsset_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	out := time.Now().Add(-8 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "name", "category", "description", "serial_number",
			"qr_code", "location", "available", "checkout_at", "created_at", "updated_at",
		}).AddRow(1, 2, "Generator", "power", "", "GEN-9", "qr-1", "Site C", false, out, out, out))

	h := &AssetHandler{Engine: lifecycle.New(repo.NewStore(db), nil)}
	req := requestWithChiURLParams("GET", "/assets/1", nil, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.GetAsset(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GetAsset status: got %d, want 200", rr.Code)
	}
	var a models.AssetView
	if err := json.NewDecoder(rr.Body).Decode(&a); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if a.Serial() != "GEN-9" || a.Tier != "attention" {
		t.Errorf("unexpected asset: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
