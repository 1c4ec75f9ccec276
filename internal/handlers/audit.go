package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/trade-tracker/internal/export"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/middleware"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Engine   *lifecycle.Engine
	Exporter *export.Exporter
}

// ListAudit returns recent audit log entries across all assets, newest first.
// Query: limit (default 50), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	entries, err := h.Engine.RecentAudit(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Export writes the audit trail to the configured sink. Query: max (default all).
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		JSONError(w, "audit export is not configured", http.StatusNotFound)
		return
	}
	maxEntries := 0
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			JSONValidationError(w, "validation failed", map[string]string{"max": "must be a non-negative integer"}, http.StatusBadRequest)
			return
		}
		maxEntries = n
	}
	res, err := h.Exporter.Export(r.Context(), middleware.CallerFrom(r.Context()), maxEntries)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
