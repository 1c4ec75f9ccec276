package models

import (
	"math"
	"time"
)

// Material defaults, matching what the field crews used before this service.
const (
	DefaultMaterialUnit     = "box"
	DefaultMaterialMinStock = 5
)

// MaxQuantity is the largest quantity or min_stock the materials table holds.
const MaxQuantity = math.MaxInt32

// Material is a consumable tracked by quantity. It has no checkout lifecycle.
type Material struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  int       `json:"quantity"`
	MinStock  int       `json:"min_stock"`
	CreatedAt time.Time `json:"created_at"`
}

// NeedsReorder reports whether stock is at or below the threshold.
func (m Material) NeedsReorder() bool {
	return m.Quantity <= m.MinStock
}

// Adjusted returns the quantity after applying delta, clamped to
// [0, MaxQuantity]. It never overflows.
func (m Material) Adjusted(delta int) int {
	switch {
	case delta > 0 && m.Quantity > MaxQuantity-delta:
		return MaxQuantity
	case delta < 0 && m.Quantity+delta < 0:
		return 0
	}
	return m.Quantity + delta
}

// MaterialView is the outbound representation with the derived reorder flag.
type MaterialView struct {
	Material
	NeedsReorder bool `json:"needs_reorder"`
}

// ViewOf builds the outbound view of m.
func ViewOf(m Material) MaterialView {
	return MaterialView{Material: m, NeedsReorder: m.NeedsReorder()}
}
