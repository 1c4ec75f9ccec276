package handlers

import (
	"net/http"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
)

// ReportHandler serves the tier report.
type ReportHandler struct {
	Engine *lifecycle.Engine
}

func (h *ReportHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Engine.Report(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
