// Package lifecycle runs asset and material commands against an entity store.
// Every command is one transaction: access check, uniqueness check, state
// transition and audit entry commit together or not at all.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/metrics"
	"github.com/crucial707/trade-tracker/internal/models"
	"github.com/crucial707/trade-tracker/internal/status"
)

// Locations used when a checkout or checkin does not name one.
const (
	DefaultCheckoutLocation = "unknown"
	DefaultCheckinLocation  = "warehouse"
)

const (
	msgAssetNotFound    = "asset not found"
	msgMaterialNotFound = "material not found"
	msgAlreadyOut       = "asset is already checked out"
	msgWriteConflict    = "asset was modified concurrently, retry"
	maxNameLen          = 255
)

// Engine executes lifecycle commands.
type Engine struct {
	store Store
	guard access.Guard
	now   func() time.Time
	log   *slog.Logger
	newQR func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for anomalies and internal failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithQRGenerator overrides how new assets get their QR identifier.
func WithQRGenerator(fn func() string) Option {
	return func(e *Engine) { e.newQR = fn }
}

// New returns an engine over store. A nil guard means owner-scoped access.
func New(store Store, guard access.Guard, opts ...Option) *Engine {
	if guard == nil {
		guard = access.OwnerScoped{}
	}
	e := &Engine{
		store: store,
		guard: guard,
		now:   func() time.Time { return time.Now().UTC() },
		log:   slog.Default(),
		newQR: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Guard returns the access policy in use.
func (e *Engine) Guard() access.Guard { return e.guard }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }

// run executes fn in one transaction and converts whatever comes back into
// an apperr. It also counts the command.
func (e *Engine) run(ctx context.Context, op access.Operation, fn func(tx Tx) error) error {
	err := e.translate(op, e.store.WithTx(ctx, fn))
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	metrics.RecordOperation(string(op), result)
	return err
}

func (e *Engine) translate(op access.Operation, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, ErrSerialTaken):
		return apperr.Validation(msgSerialExists)
	case errors.Is(err, ErrOpenCheckoutExists):
		return apperr.Conflict(msgAlreadyOut)
	case errors.Is(err, ErrWriteConflict):
		return apperr.Conflict(msgWriteConflict)
	case errors.Is(err, ErrOutOfRange):
		return apperr.Validation("value out of range")
	case errors.Is(err, ErrNoRecord):
		return apperr.NotFound("record not found")
	}
	e.log.Error("lifecycle command failed", "op", op, "error", err)
	return apperr.Internal(err)
}

func lockAsset(ctx context.Context, tx Tx, id int) (models.Asset, error) {
	a, err := tx.LockAsset(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return a, apperr.NotFound(msgAssetNotFound)
	}
	return a, err
}

// View attaches the current tier to a.
func (e *Engine) View(a models.Asset) models.AssetView {
	return models.AssetView{
		Asset: a,
		Tier:  string(status.Classify(a.Available, a.CheckoutAt, e.now())),
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if len(name) > maxNameLen {
		return "", apperr.Validation(fmt.Sprintf("name must be at most %d characters", maxNameLen))
	}
	return name, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// CreateAssetInput is the create command payload.
type CreateAssetInput struct {
	Name         string
	Category     string
	Description  string
	SerialNumber *string
	Location     string
}

// CreateAsset adds a new available asset owned by the caller.
func (e *Engine) CreateAsset(ctx context.Context, c access.Caller, in CreateAssetInput) (models.AssetView, error) {
	if err := access.Check(e.guard, c, 0, access.OpCreate); err != nil {
		metrics.RecordOperation(string(access.OpCreate), string(apperr.KindOf(err)))
		return models.AssetView{}, err
	}
	name, err := validName(in.Name)
	if err != nil {
		metrics.RecordOperation(string(access.OpCreate), string(apperr.KindValidation))
		return models.AssetView{}, err
	}

	now := e.now()
	a := models.Asset{
		OwnerID:      c.ID,
		Name:         name,
		Category:     orDefault(in.Category, models.DefaultCategory),
		Description:  strings.TrimSpace(in.Description),
		SerialNumber: normalizeSerial(in.SerialNumber),
		QRCode:       e.newQR(),
		Location:     strings.TrimSpace(in.Location),
		Available:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = e.run(ctx, access.OpCreate, func(tx Tx) error {
		if a.SerialNumber != nil {
			if err := checkSerial(ctx, tx, *a.SerialNumber, 0); err != nil {
				return err
			}
		}
		created, err := tx.InsertAsset(ctx, a)
		if err != nil {
			return err
		}
		a = created
		return e.record(ctx, tx, models.AuditEntry{
			AssetID:  a.ID,
			UserID:   c.ID,
			Action:   models.ActionCreate,
			Details:  fmt.Sprintf("created %q", a.Name),
			Location: a.Location,
		})
	})
	if err != nil {
		return models.AssetView{}, err
	}
	return e.View(a), nil
}

// Checkout marks the asset as out and opens a checkout log.
// Checking out an asset that is already out is a conflict.
func (e *Engine) Checkout(ctx context.Context, assetID int, c access.Caller, location string) (models.AssetView, error) {
	location = orDefault(location, DefaultCheckoutLocation)
	var a models.Asset
	err := e.run(ctx, access.OpCheckout, func(tx Tx) error {
		var err error
		if a, err = lockAsset(ctx, tx, assetID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, a.OwnerID, access.OpCheckout); err != nil {
			return err
		}
		if !a.Available {
			return apperr.Conflict(msgAlreadyOut)
		}

		now := e.now()
		a.Available = false
		a.CheckoutAt = &now
		a.Location = location
		a.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
		if _, err := tx.OpenCheckout(ctx, models.CheckoutLog{
			AssetID:          a.ID,
			UserID:           c.ID,
			CheckoutTime:     now,
			LocationCheckout: location,
		}); err != nil {
			return err
		}
		return e.record(ctx, tx, models.AuditEntry{
			AssetID:  a.ID,
			UserID:   c.ID,
			Action:   models.ActionCheckout,
			Details:  fmt.Sprintf("checked out to %s", location),
			Location: location,
		})
	})
	if err != nil {
		return models.AssetView{}, err
	}
	return e.View(a), nil
}

// Checkin returns the asset and closes its open checkout log. A missing open
// log does not block the checkin; it is recorded as a warn-level audit entry.
func (e *Engine) Checkin(ctx context.Context, assetID int, c access.Caller, location string) (models.AssetView, error) {
	location = orDefault(location, DefaultCheckinLocation)
	var a models.Asset
	err := e.run(ctx, access.OpCheckin, func(tx Tx) error {
		var err error
		if a, err = lockAsset(ctx, tx, assetID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, a.OwnerID, access.OpCheckin); err != nil {
			return err
		}

		now := e.now()
		entry := models.AuditEntry{
			AssetID:  a.ID,
			UserID:   c.ID,
			Action:   models.ActionCheckin,
			Details:  fmt.Sprintf("checked in at %s", location),
			Location: location,
		}
		open, err := tx.FindOpenCheckout(ctx, a.ID)
		if err != nil {
			return err
		}
		if open == nil {
			entry.Level = models.LevelWarn
			entry.Details = fmt.Sprintf("checked in at %s with no open checkout log (available=%t)", location, a.Available)
			e.log.Warn("checkin without open checkout log", "asset_id", a.ID, "user_id", c.ID, "available", a.Available)
		} else {
			open.CheckinTime = &now
			open.LocationCheckin = &location
			if err := tx.CloseCheckout(ctx, *open); err != nil {
				return err
			}
		}

		a.Available = true
		a.CheckoutAt = nil
		a.Location = location
		a.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
		return e.record(ctx, tx, entry)
	})
	if err != nil {
		return models.AssetView{}, err
	}
	return e.View(a), nil
}

// UpdateSerial replaces the asset's serial number. The new serial must be
// non-empty and unused by any other asset.
func (e *Engine) UpdateSerial(ctx context.Context, assetID int, c access.Caller, serial string) (models.AssetView, error) {
	s := normalizeSerial(&serial)
	if s == nil {
		metrics.RecordOperation(string(access.OpUpdateSerial), string(apperr.KindValidation))
		return models.AssetView{}, apperr.Validation("serial_number is required")
	}
	var a models.Asset
	err := e.run(ctx, access.OpUpdateSerial, func(tx Tx) error {
		var err error
		if a, err = lockAsset(ctx, tx, assetID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, a.OwnerID, access.OpUpdateSerial); err != nil {
			return err
		}
		if err := checkSerial(ctx, tx, *s, a.ID); err != nil {
			return err
		}

		old := a.Serial()
		a.SerialNumber = s
		a.UpdatedAt = e.now()
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
		return e.record(ctx, tx, models.AuditEntry{
			AssetID:  a.ID,
			UserID:   c.ID,
			Action:   models.ActionSerialUpdate,
			Details:  fmt.Sprintf("serial %q -> %q", old, *s),
			Location: a.Location,
		})
	})
	if err != nil {
		return models.AssetView{}, err
	}
	return e.View(a), nil
}

// UpdateAssetInput carries optional field edits. Nil fields are left alone.
type UpdateAssetInput struct {
	Name        *string
	Category    *string
	Description *string
	Location    *string
}

// UpdateAsset edits descriptive fields. Availability and serial are only
// changed by their own commands.
func (e *Engine) UpdateAsset(ctx context.Context, assetID int, c access.Caller, in UpdateAssetInput) (models.AssetView, error) {
	var name string
	if in.Name != nil {
		n, err := validName(*in.Name)
		if err != nil {
			metrics.RecordOperation(string(access.OpUpdate), string(apperr.KindValidation))
			return models.AssetView{}, err
		}
		name = n
	}
	var a models.Asset
	err := e.run(ctx, access.OpUpdate, func(tx Tx) error {
		var err error
		if a, err = lockAsset(ctx, tx, assetID); err != nil {
			return err
		}
		if err := access.Check(e.guard, c, a.OwnerID, access.OpUpdate); err != nil {
			return err
		}

		var changed []string
		if in.Name != nil && name != a.Name {
			a.Name = name
			changed = append(changed, "name")
		}
		if in.Category != nil {
			if cat := orDefault(*in.Category, models.DefaultCategory); cat != a.Category {
				a.Category = cat
				changed = append(changed, "category")
			}
		}
		if in.Description != nil && strings.TrimSpace(*in.Description) != a.Description {
			a.Description = strings.TrimSpace(*in.Description)
			changed = append(changed, "description")
		}
		if in.Location != nil && strings.TrimSpace(*in.Location) != a.Location {
			a.Location = strings.TrimSpace(*in.Location)
			changed = append(changed, "location")
		}
		if len(changed) == 0 {
			return nil
		}

		a.UpdatedAt = e.now()
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
		return e.record(ctx, tx, models.AuditEntry{
			AssetID:  a.ID,
			UserID:   c.ID,
			Action:   models.ActionUpdate,
			Details:  "updated " + strings.Join(changed, ", "),
			Location: a.Location,
		})
	})
	if err != nil {
		return models.AssetView{}, err
	}
	return e.View(a), nil
}

// DeleteResult reports what a delete removed.
type DeleteResult struct {
	AssetID      int `json:"asset_id"`
	CheckoutLogs int `json:"checkout_logs_deleted"`
	AuditEntries int `json:"audit_entries_deleted"`
}

// DeleteAsset removes the asset and all of its checkout logs and audit
// entries in one transaction.
func (e *Engine) DeleteAsset(ctx context.Context, assetID int, c access.Caller) (DeleteResult, error) {
	res := DeleteResult{AssetID: assetID}
	err := e.run(ctx, access.OpDelete, func(tx Tx) error {
		a, err := lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if err := access.Check(e.guard, c, a.OwnerID, access.OpDelete); err != nil {
			return err
		}
		if res.CheckoutLogs, err = tx.DeleteCheckoutLogs(ctx, a.ID); err != nil {
			return err
		}
		if res.AuditEntries, err = tx.DeleteAuditEntries(ctx, a.ID); err != nil {
			return err
		}
		return tx.DeleteAsset(ctx, a.ID)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	e.log.Info("asset deleted",
		"asset_id", assetID,
		"user_id", c.ID,
		"checkout_logs", res.CheckoutLogs,
		"audit_entries", res.AuditEntries,
	)
	return res, nil
}
