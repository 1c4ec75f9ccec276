package memstore

import (
	"context"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
)

// tx mutates a private state copy owned by one WithTx call.
type tx struct {
	st *state
}

func (t *tx) LockAsset(_ context.Context, id int) (models.Asset, error) {
	a, ok := t.st.assets[id]
	if !ok {
		return models.Asset{}, lifecycle.ErrNoRecord
	}
	return a, nil
}

func (t *tx) SerialTaken(_ context.Context, serial string, excludeID int) (bool, error) {
	for _, a := range t.st.assets {
		if a.ID != excludeID && a.SerialNumber != nil && *a.SerialNumber == serial {
			return true, nil
		}
	}
	return false, nil
}

// serialConflict mirrors the storage-level unique constraint.
func (t *tx) serialConflict(a models.Asset) bool {
	if a.SerialNumber == nil {
		return false
	}
	taken, _ := t.SerialTaken(context.Background(), *a.SerialNumber, a.ID)
	return taken
}

func (t *tx) InsertAsset(_ context.Context, a models.Asset) (models.Asset, error) {
	if t.serialConflict(a) {
		return models.Asset{}, lifecycle.ErrSerialTaken
	}
	t.st.nextAsset++
	a.ID = t.st.nextAsset
	t.st.assets[a.ID] = a
	return a, nil
}

func (t *tx) UpdateAsset(_ context.Context, a models.Asset) error {
	if _, ok := t.st.assets[a.ID]; !ok {
		return lifecycle.ErrNoRecord
	}
	if t.serialConflict(a) {
		return lifecycle.ErrSerialTaken
	}
	t.st.assets[a.ID] = a
	return nil
}

// DeleteAsset refuses to orphan logs, like the foreign keys in Postgres.
func (t *tx) DeleteAsset(_ context.Context, id int) error {
	if _, ok := t.st.assets[id]; !ok {
		return lifecycle.ErrNoRecord
	}
	for _, l := range t.st.logs {
		if l.AssetID == id {
			return errForeignKey
		}
	}
	for _, e := range t.st.audit {
		if e.AssetID == id {
			return errForeignKey
		}
	}
	delete(t.st.assets, id)
	return nil
}

func (t *tx) OpenCheckout(_ context.Context, l models.CheckoutLog) (models.CheckoutLog, error) {
	if _, ok := t.st.assets[l.AssetID]; !ok {
		return models.CheckoutLog{}, errForeignKey
	}
	for _, existing := range t.st.logs {
		if existing.AssetID == l.AssetID && existing.Open() {
			return models.CheckoutLog{}, lifecycle.ErrOpenCheckoutExists
		}
	}
	t.st.nextLog++
	l.ID = t.st.nextLog
	t.st.logs[l.ID] = l
	return l, nil
}

func (t *tx) FindOpenCheckout(_ context.Context, assetID int) (*models.CheckoutLog, error) {
	for _, l := range t.st.logs {
		if l.AssetID == assetID && l.Open() {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

func (t *tx) CloseCheckout(_ context.Context, l models.CheckoutLog) error {
	existing, ok := t.st.logs[l.ID]
	if !ok {
		return lifecycle.ErrNoRecord
	}
	existing.CheckinTime = l.CheckinTime
	existing.LocationCheckin = l.LocationCheckin
	t.st.logs[l.ID] = existing
	return nil
}

func (t *tx) DeleteCheckoutLogs(_ context.Context, assetID int) (int, error) {
	n := 0
	for id, l := range t.st.logs {
		if l.AssetID == assetID {
			delete(t.st.logs, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) AppendAudit(_ context.Context, e models.AuditEntry) (models.AuditEntry, error) {
	if _, ok := t.st.assets[e.AssetID]; !ok {
		return models.AuditEntry{}, errForeignKey
	}
	t.st.nextAudit++
	e.ID = t.st.nextAudit
	t.st.audit = append(t.st.audit, e)
	return e, nil
}

func (t *tx) DeleteAuditEntries(_ context.Context, assetID int) (int, error) {
	kept := make([]models.AuditEntry, 0, len(t.st.audit))
	for _, e := range t.st.audit {
		if e.AssetID != assetID {
			kept = append(kept, e)
		}
	}
	n := len(t.st.audit) - len(kept)
	t.st.audit = kept
	return n, nil
}

func (t *tx) InsertMaterial(_ context.Context, m models.Material) (models.Material, error) {
	t.st.nextMaterial++
	m.ID = t.st.nextMaterial
	t.st.materials[m.ID] = m
	return m, nil
}

func (t *tx) LockMaterial(_ context.Context, id int) (models.Material, error) {
	m, ok := t.st.materials[id]
	if !ok {
		return models.Material{}, lifecycle.ErrNoRecord
	}
	return m, nil
}

// UpdateMaterial replaces the stored row. The range check mirrors the
// column type and CHECK constraints in Postgres.
func (t *tx) UpdateMaterial(_ context.Context, m models.Material) error {
	existing, ok := t.st.materials[m.ID]
	if !ok {
		return lifecycle.ErrNoRecord
	}
	if m.Quantity < 0 || m.Quantity > models.MaxQuantity || m.MinStock < 0 || m.MinStock > models.MaxQuantity {
		return lifecycle.ErrOutOfRange
	}
	m.OwnerID, m.CreatedAt = existing.OwnerID, existing.CreatedAt
	t.st.materials[m.ID] = m
	return nil
}

func (t *tx) DeleteMaterial(_ context.Context, id int) error {
	if _, ok := t.st.materials[id]; !ok {
		return lifecycle.ErrNoRecord
	}
	delete(t.st.materials, id)
	return nil
}
