package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/middleware"
	"github.com/crucial707/trade-tracker/internal/status"
)

type AssetHandler struct {
	Engine *lifecycle.Engine
}

//
// ==========================
// Create Asset
// ==========================
//

func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name         string  `json:"name" validate:"required,max=255"`
		Category     string  `json:"category" validate:"max=100"`
		Description  string  `json:"description" validate:"max=1000"`
		SerialNumber *string `json:"serial_number" validate:"omitempty,max=100"`
		Location     string  `json:"location" validate:"max=255"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}

	asset, err := h.Engine.CreateAsset(r.Context(), middleware.CallerFrom(r.Context()), lifecycle.CreateAssetInput{
		Name:         input.Name,
		Category:     input.Category,
		Description:  input.Description,
		SerialNumber: input.SerialNumber,
		Location:     input.Location,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

//
// ==========================
// List Assets
// ==========================
//

// ListAssets supports available, category, owner_id, name (substring) and
// tier filters plus limit/offset.
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)
	f := lifecycle.AssetFilter{
		Category: q.Get("category"),
		Name:     q.Get("name"),
		Limit:    limit,
		Offset:   offset,
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			JSONValidationError(w, "validation failed", map[string]string{"available": "must be true or false"}, http.StatusBadRequest)
			return
		}
		f.Available = &b
	}
	if v := q.Get("owner_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			JSONValidationError(w, "validation failed", map[string]string{"owner_id": "must be a positive integer"}, http.StatusBadRequest)
			return
		}
		f.OwnerID = id
	}
	var tier status.Tier
	if v := q.Get("tier"); v != "" {
		t, err := status.Parse(v)
		if err != nil {
			JSONValidationError(w, "validation failed", map[string]string{"tier": "must be healthy, attention or overdue"}, http.StatusBadRequest)
			return
		}
		tier = t
	}

	assets, err := h.Engine.ListAssets(r.Context(), f, tier)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

//
// ==========================
// Get Asset By ID
// ==========================
//

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	asset, err := h.Engine.GetAsset(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

//
// ==========================
// Update Asset
// ==========================
//

func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	var input struct {
		Name        *string `json:"name" validate:"omitempty,max=255"`
		Category    *string `json:"category" validate:"omitempty,max=100"`
		Description *string `json:"description" validate:"omitempty,max=1000"`
		Location    *string `json:"location" validate:"omitempty,max=255"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}

	asset, err := h.Engine.UpdateAsset(r.Context(), id, middleware.CallerFrom(r.Context()), lifecycle.UpdateAssetInput{
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Location:    input.Location,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

//
// ==========================
// Delete Asset
// ==========================
//

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	res, err := h.Engine.DeleteAsset(r.Context(), id, middleware.CallerFrom(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

//
// ==========================
// Checkout / Checkin
// ==========================
//

type locationInput struct {
	Location string `json:"location" validate:"max=255"`
}

func (h *AssetHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	var input locationInput
	if !decodeBody(w, r, &input, true) {
		return
	}
	asset, err := h.Engine.Checkout(r.Context(), id, middleware.CallerFrom(r.Context()), input.Location)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *AssetHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	var input locationInput
	if !decodeBody(w, r, &input, true) {
		return
	}
	asset, err := h.Engine.Checkin(r.Context(), id, middleware.CallerFrom(r.Context()), input.Location)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

//
// ==========================
// Serial Number
// ==========================
//

func (h *AssetHandler) UpdateSerial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	var input struct {
		SerialNumber string `json:"serial_number" validate:"required,max=100"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	asset, err := h.Engine.UpdateSerial(r.Context(), id, middleware.CallerFrom(r.Context()), input.SerialNumber)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

//
// ==========================
// History
// ==========================
//

func (h *AssetHandler) CheckoutHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	logs, err := h.Engine.CheckoutHistory(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AssetHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}
	limit, offset := pagination(r)
	entries, err := h.Engine.AuditTrail(r.Context(), id, limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
