package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/metrics"
	"github.com/crucial707/trade-tracker/internal/models"
)

// Metric labels for material commands that share a guard operation.
const (
	opCreateMaterial access.Operation = "create_material"
	opUpdateMaterial access.Operation = "update_material"
	opDeleteMaterial access.Operation = "delete_material"
)

var errQuantityRange = apperr.Validation(fmt.Sprintf("quantity and min_stock must be between 0 and %d", models.MaxQuantity))

func inRange(n int) bool {
	return n >= 0 && n <= models.MaxQuantity
}

// CreateMaterialInput is the create payload. Nil numbers take the defaults.
type CreateMaterialInput struct {
	Name     string
	Unit     string
	Quantity *int
	MinStock *int
}

func lockMaterial(ctx context.Context, tx Tx, id int) (models.Material, error) {
	m, err := tx.LockMaterial(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return m, apperr.NotFound(msgMaterialNotFound)
	}
	return m, err
}

// CreateMaterial adds a consumable owned by the caller.
func (e *Engine) CreateMaterial(ctx context.Context, c access.Caller, in CreateMaterialInput) (models.MaterialView, error) {
	if err := access.Check(e.guard, c, 0, access.OpCreate); err != nil {
		metrics.RecordOperation(string(opCreateMaterial), string(apperr.KindOf(err)))
		return models.MaterialView{}, err
	}
	name, err := validName(in.Name)
	if err != nil {
		metrics.RecordOperation(string(opCreateMaterial), string(apperr.KindValidation))
		return models.MaterialView{}, err
	}
	m := models.Material{
		OwnerID:   c.ID,
		Name:      name,
		Unit:      orDefault(in.Unit, models.DefaultMaterialUnit),
		MinStock:  models.DefaultMaterialMinStock,
		CreatedAt: e.now(),
	}
	if in.Quantity != nil {
		m.Quantity = *in.Quantity
	}
	if in.MinStock != nil {
		m.MinStock = *in.MinStock
	}
	if !inRange(m.Quantity) || !inRange(m.MinStock) {
		metrics.RecordOperation(string(opCreateMaterial), string(apperr.KindValidation))
		return models.MaterialView{}, errQuantityRange
	}

	err = e.run(ctx, opCreateMaterial, func(tx Tx) error {
		created, err := tx.InsertMaterial(ctx, m)
		if err != nil {
			return err
		}
		m = created
		return nil
	})
	if err != nil {
		return models.MaterialView{}, err
	}
	return models.ViewOf(m), nil
}

// AdjustMaterial adds delta to the quantity under the material's row lock.
// Removing more than is on hand leaves zero; adding past MaxQuantity stops there.
func (e *Engine) AdjustMaterial(ctx context.Context, materialID int, c access.Caller, delta int) (models.MaterialView, error) {
	if delta < -models.MaxQuantity || delta > models.MaxQuantity {
		metrics.RecordOperation(string(access.OpAdjustMaterial), string(apperr.KindValidation))
		return models.MaterialView{}, apperr.Validation(fmt.Sprintf("delta must be between -%d and %d", models.MaxQuantity, models.MaxQuantity))
	}
	var m models.Material
	err := e.run(ctx, access.OpAdjustMaterial, func(tx Tx) error {
		var err error
		if m, err = lockMaterial(ctx, tx, materialID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, m.OwnerID, access.OpAdjustMaterial); err != nil {
			return err
		}
		q := m.Adjusted(delta)
		if q == m.Quantity {
			return nil
		}
		if q != m.Quantity+delta {
			e.log.Warn("material adjustment clamped", "material_id", m.ID, "quantity", m.Quantity, "delta", delta, "result", q)
		}
		m.Quantity = q
		return tx.UpdateMaterial(ctx, m)
	})
	if err != nil {
		return models.MaterialView{}, err
	}
	return models.ViewOf(m), nil
}

// UpdateMaterialInput edits a material's descriptive fields. Nil leaves a
// field unchanged. Quantity only moves through AdjustMaterial.
type UpdateMaterialInput struct {
	Name     *string
	Unit     *string
	MinStock *int
}

// UpdateMaterial edits name, unit and reorder threshold under the row lock.
func (e *Engine) UpdateMaterial(ctx context.Context, materialID int, c access.Caller, in UpdateMaterialInput) (models.MaterialView, error) {
	var name string
	if in.Name != nil {
		n, err := validName(*in.Name)
		if err != nil {
			metrics.RecordOperation(string(opUpdateMaterial), string(apperr.KindValidation))
			return models.MaterialView{}, err
		}
		name = n
	}
	if in.MinStock != nil && !inRange(*in.MinStock) {
		metrics.RecordOperation(string(opUpdateMaterial), string(apperr.KindValidation))
		return models.MaterialView{}, errQuantityRange
	}

	var m models.Material
	err := e.run(ctx, opUpdateMaterial, func(tx Tx) error {
		var err error
		if m, err = lockMaterial(ctx, tx, materialID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, m.OwnerID, access.OpUpdate); err != nil {
			return err
		}
		updated := m
		if in.Name != nil {
			updated.Name = name
		}
		if in.Unit != nil {
			updated.Unit = orDefault(*in.Unit, models.DefaultMaterialUnit)
		}
		if in.MinStock != nil {
			updated.MinStock = *in.MinStock
		}
		if updated == m {
			return nil
		}
		if err := tx.UpdateMaterial(ctx, updated); err != nil {
			return err
		}
		m = updated
		return nil
	})
	if err != nil {
		return models.MaterialView{}, err
	}
	return models.ViewOf(m), nil
}

// DeleteMaterial removes a material.
func (e *Engine) DeleteMaterial(ctx context.Context, materialID int, c access.Caller) error {
	return e.run(ctx, opDeleteMaterial, func(tx Tx) error {
		m, err := lockMaterial(ctx, tx, materialID)
		if err != nil {
			return err
		}
		if err := access.Check(e.guard, c, m.OwnerID, access.OpDelete); err != nil {
			return err
		}
		return tx.DeleteMaterial(ctx, m.ID)
	})
}

// GetMaterial returns one material view.
func (e *Engine) GetMaterial(ctx context.Context, id int) (models.MaterialView, error) {
	m, err := e.store.GetMaterial(ctx, id)
	if err != nil {
		return models.MaterialView{}, e.readError(err, msgMaterialNotFound)
	}
	return models.ViewOf(m), nil
}

// ListMaterials returns every material. When reorderOnly is set only those at
// or below their minimum stock are returned.
func (e *Engine) ListMaterials(ctx context.Context, reorderOnly bool) ([]models.MaterialView, error) {
	ms, err := e.store.ListMaterials(ctx)
	if err != nil {
		return nil, e.readError(err, "")
	}
	out := make([]models.MaterialView, 0, len(ms))
	for _, m := range ms {
		if reorderOnly && !m.NeedsReorder() {
			continue
		}
		out = append(out, models.ViewOf(m))
	}
	return out, nil
}

func (e *Engine) readError(err error, notFound string) error {
	if errors.Is(err, ErrNoRecord) {
		if notFound == "" {
			notFound = "record not found"
		}
		return apperr.NotFound(notFound)
	}
	e.log.Error("lifecycle read failed", "error", err)
	return apperr.Internal(err)
}
