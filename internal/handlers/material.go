package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/middleware"
)

// MaterialHandler serves consumable stock endpoints.
type MaterialHandler struct {
	Engine *lifecycle.Engine
}

func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required,max=255"`
		Unit     string `json:"unit" validate:"max=50"`
		Quantity *int   `json:"quantity"`
		MinStock *int   `json:"min_stock"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	m, err := h.Engine.CreateMaterial(r.Context(), middleware.CallerFrom(r.Context()), lifecycle.CreateMaterialInput{
		Name:     input.Name,
		Unit:     input.Unit,
		Quantity: input.Quantity,
		MinStock: input.MinStock,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMaterials returns all materials; reorder=true keeps only those at or
// below min stock.
func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	reorder := false
	if v := r.URL.Query().Get("reorder"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			JSONValidationError(w, "validation failed", map[string]string{"reorder": "must be true or false"}, http.StatusBadRequest)
			return
		}
		reorder = b
	}
	ms, err := h.Engine.ListMaterials(r.Context(), reorder)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "material")
	if !ok {
		return
	}
	m, err := h.Engine.GetMaterial(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMaterial edits name, unit and min_stock. Quantity changes go
// through AdjustMaterial.
func (h *MaterialHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "material")
	if !ok {
		return
	}
	var input struct {
		Name     *string `json:"name" validate:"omitempty,max=255"`
		Unit     *string `json:"unit" validate:"omitempty,max=50"`
		MinStock *int    `json:"min_stock"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	m, err := h.Engine.UpdateMaterial(r.Context(), id, middleware.CallerFrom(r.Context()), lifecycle.UpdateMaterialInput{
		Name:     input.Name,
		Unit:     input.Unit,
		MinStock: input.MinStock,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// AdjustMaterial applies a signed delta. The quantity never drops below zero.
func (h *MaterialHandler) AdjustMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "material")
	if !ok {
		return
	}
	var input struct {
		Delta *int `json:"delta" validate:"required"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	m, err := h.Engine.AdjustMaterial(r.Context(), id, middleware.CallerFrom(r.Context()), *input.Delta)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "material")
	if !ok {
		return
	}
	if err := h.Engine.DeleteMaterial(r.Context(), id, middleware.CallerFrom(r.Context())); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
