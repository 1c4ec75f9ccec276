package assets

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/crucial707/trade-tracker/internal/models"
)

// setupServer points the CLI at h and supplies a token via the environment.
func setupServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("TRADE_TRACKER_API_URL", srv.URL)
	t.Setenv("TRADE_TRACKER_TOKEN", "test-token")
}

// run executes cmd with args and returns what it printed.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestListAssets_TableOutput(t *testing.T) {
	assets := []models.AssetView{
		{Asset: models.Asset{ID: 1, Name: "asset-1", Available: true}, Tier: "healthy"},
		{Asset: models.Asset{ID: 2, Name: "asset-2"}, Tier: "overdue"},
	}

	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing token")
		}
		_ = json.NewEncoder(w).Encode(assets)
	})

	out, err := run(t, listAssetsCmd())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "asset-1") || !strings.Contains(out, "overdue") {
		t.Fatalf("expected asset names in output, got: %s", out)
	}
}

func TestListAssets_JSONAndFilters(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tier") != "overdue" || r.URL.Query().Get("category") != "power" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]models.AssetView{{Asset: models.Asset{ID: 1, Name: "asset-1"}}})
	})

	out, err := run(t, listAssetsCmd(), "--json", "--tier", "overdue", "--category", "power")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"name": "asset-1"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestCheckout_SendsLocation(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/assets/7/checkout" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(models.AssetView{Asset: models.Asset{ID: 7, Location: body["location"]}})
	})

	out, err := run(t, checkoutCmd(), "7", "--location", "Site A")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !strings.Contains(out, "Asset 7 checked out at Site A") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCheckout_Conflict(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"asset is already checked out","kind":"conflict"}`))
	})

	_, err := run(t, checkoutCmd(), "7")
	if err == nil || !strings.Contains(err.Error(), "already checked out") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestDelete_PrintsCounts(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"asset_id":5,"checkout_logs_deleted":3,"audit_entries_deleted":5}`))
	})

	out, err := run(t, deleteAssetCmd(), "5")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "3 checkout logs, 5 audit entries") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestInvalidID(t *testing.T) {
	t.Setenv("TRADE_TRACKER_TOKEN", "test-token")
	if _, err := run(t, getAssetCmd(), "abc"); err == nil {
		t.Fatal("expected error for invalid id")
	}
}
