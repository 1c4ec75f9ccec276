package lifecycle

import (
	"context"
	"time"

	"github.com/crucial707/trade-tracker/internal/models"
	"github.com/crucial707/trade-tracker/internal/status"
)

const reportPageSize = 500

// GetAsset returns the asset with its tier computed as of now.
func (e *Engine) GetAsset(ctx context.Context, id int) (models.AssetView, error) {
	a, err := e.store.GetAsset(ctx, id)
	if err != nil {
		return models.AssetView{}, e.readError(err, msgAssetNotFound)
	}
	return e.View(a), nil
}

// ListAssets returns assets matching f. When tier is set, only assets
// currently in that tier are returned; the filter is applied after
// classification because tiers are never stored.
func (e *Engine) ListAssets(ctx context.Context, f AssetFilter, tier status.Tier) ([]models.AssetView, error) {
	as, err := e.store.ListAssets(ctx, f)
	if err != nil {
		return nil, e.readError(err, "")
	}
	out := make([]models.AssetView, 0, len(as))
	for _, a := range as {
		v := e.View(a)
		if tier != "" && v.Tier != string(tier) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// CheckoutHistory returns the asset's checkout logs, newest first.
func (e *Engine) CheckoutHistory(ctx context.Context, assetID int) ([]models.CheckoutLog, error) {
	if _, err := e.store.GetAsset(ctx, assetID); err != nil {
		return nil, e.readError(err, msgAssetNotFound)
	}
	logs, err := e.store.CheckoutLogs(ctx, assetID)
	if err != nil {
		return nil, e.readError(err, "")
	}
	return logs, nil
}

// AuditTrail returns the asset's audit entries, newest first.
func (e *Engine) AuditTrail(ctx context.Context, assetID, limit, offset int) ([]models.AuditEntry, error) {
	if _, err := e.store.GetAsset(ctx, assetID); err != nil {
		return nil, e.readError(err, msgAssetNotFound)
	}
	entries, err := e.store.AuditTrail(ctx, assetID, limit, offset)
	if err != nil {
		return nil, e.readError(err, "")
	}
	return entries, nil
}

// RecentAudit returns audit entries across all assets, newest first.
func (e *Engine) RecentAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	entries, err := e.store.RecentAudit(ctx, limit, offset)
	if err != nil {
		return nil, e.readError(err, "")
	}
	return entries, nil
}

// AuditBefore returns up to limit entries older than beforeID, newest first.
func (e *Engine) AuditBefore(ctx context.Context, beforeID, limit int) ([]models.AuditEntry, error) {
	entries, err := e.store.AuditBefore(ctx, beforeID, limit)
	if err != nil {
		return nil, e.readError(err, "")
	}
	return entries, nil
}

// TierReport summarizes every asset by tier and lists the overdue ones.
type TierReport struct {
	GeneratedAt      time.Time             `json:"generated_at"`
	Counts           map[string]int        `json:"counts"`
	Overdue          []models.AssetView    `json:"overdue"`
	ReorderMaterials []models.MaterialView `json:"reorder_materials"`
}

// Report walks all assets page by page, keyed on id so assets created or
// deleted mid-walk are neither skipped nor counted twice, and classifies
// each one.
func (e *Engine) Report(ctx context.Context) (TierReport, error) {
	r := TierReport{
		GeneratedAt: e.now(),
		Counts:      make(map[string]int, len(status.All)),
		Overdue:     []models.AssetView{},
	}
	for _, t := range status.All {
		r.Counts[string(t)] = 0
	}
	for after := 0; ; {
		page, err := e.ListAssets(ctx, AssetFilter{AfterID: after, Limit: reportPageSize}, "")
		if err != nil {
			return TierReport{}, err
		}
		for _, v := range page {
			r.Counts[v.Tier]++
			if v.Tier == string(status.Overdue) {
				r.Overdue = append(r.Overdue, v)
			}
		}
		if len(page) < reportPageSize {
			break
		}
		after = page[len(page)-1].ID
	}
	reorder, err := e.ListMaterials(ctx, true)
	if err != nil {
		return TierReport{}, err
	}
	r.ReorderMaterials = reorder
	return r, nil
}
