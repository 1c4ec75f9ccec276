package materials

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/trade-tracker/internal/models"
)

func TestAdjust_ReportsReorder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/materials/3/adjust" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		if body["delta"] != -10 {
			t.Errorf("delta = %d, want -10", body["delta"])
		}
		json.NewEncoder(w).Encode(models.ViewOf(models.Material{ID: 3, Name: "Wire Nuts", Unit: "box", Quantity: 0, MinStock: 5}))
	}))
	defer srv.Close()
	t.Setenv("TRADE_TRACKER_API_URL", srv.URL)
	t.Setenv("TRADE_TRACKER_TOKEN", "tok")

	cmd := adjustCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"3", "--", "-10"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !strings.Contains(buf.String(), "Wire Nuts: 0 box") || !strings.Contains(buf.String(), "reorder") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestList_Reorder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("reorder") != "true" {
			t.Errorf("expected reorder filter, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]models.MaterialView{models.ViewOf(models.Material{ID: 1, Name: "Tape", Quantity: 2, MinStock: 5})})
	}))
	defer srv.Close()
	t.Setenv("TRADE_TRACKER_API_URL", srv.URL)
	t.Setenv("TRADE_TRACKER_TOKEN", "tok")

	cmd := listCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--reorder"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "Tape") || !strings.Contains(buf.String(), "REORDER") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestUpdate_SendsOnlyChangedFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/materials/4" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 1 || body["min_stock"] != float64(12) {
			t.Errorf("unexpected body: %v", body)
		}
		json.NewEncoder(w).Encode(models.ViewOf(models.Material{ID: 4, Name: "Wire", Unit: "spool", Quantity: 3, MinStock: 12}))
	}))
	defer srv.Close()
	t.Setenv("TRADE_TRACKER_API_URL", srv.URL)
	t.Setenv("TRADE_TRACKER_TOKEN", "tok")

	cmd := updateCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"4", "--min-stock", "12"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(buf.String(), "(min 12)") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestUpdate_RequiresAFlag(t *testing.T) {
	cmd := updateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"4"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when no field is set")
	}
}
