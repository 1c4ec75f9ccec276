package lifecycle

import (
	"context"
	"errors"

	"github.com/crucial707/trade-tracker/internal/models"
)

// Sentinel errors returned by Store implementations. The engine translates
// them into apperr kinds.
var (
	ErrNoRecord           = errors.New("record not found")
	ErrSerialTaken        = errors.New("serial number already in use")
	ErrOpenCheckoutExists = errors.New("asset already has an open checkout")
	ErrWriteConflict      = errors.New("concurrent write conflict")
	ErrOutOfRange         = errors.New("value out of range")
)

// AssetFilter narrows ListAssets. Zero values mean "no filter".
type AssetFilter struct {
	Available *bool
	Category  string
	OwnerID   int
	Name      string // case-insensitive substring
	AfterID   int    // keyset cursor: only ids greater than this
	Limit     int
	Offset    int
}

// Reader is the snapshot side of the entity store. Reads never take the
// per-asset write lock.
type Reader interface {
	GetAsset(ctx context.Context, id int) (models.Asset, error)
	ListAssets(ctx context.Context, f AssetFilter) ([]models.Asset, error)
	CheckoutLogs(ctx context.Context, assetID int) ([]models.CheckoutLog, error)
	AuditTrail(ctx context.Context, assetID, limit, offset int) ([]models.AuditEntry, error)
	RecentAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error)
	// AuditBefore pages the whole trail by id, newest first. beforeID 0
	// starts at the newest entry.
	AuditBefore(ctx context.Context, beforeID, limit int) ([]models.AuditEntry, error)
	GetMaterial(ctx context.Context, id int) (models.Material, error)
	ListMaterials(ctx context.Context) ([]models.Material, error)
}

// Store is the entity store the engine runs against. WithTx runs fn in one
// transaction: fn returning nil commits, anything else rolls back in full.
type Store interface {
	Reader
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side, valid only inside WithTx.
//
// LockAsset and LockMaterial hold the row for the rest of the transaction so
// concurrent writers on the same entity serialize.
type Tx interface {
	LockAsset(ctx context.Context, id int) (models.Asset, error)
	SerialTaken(ctx context.Context, serial string, excludeID int) (bool, error)
	InsertAsset(ctx context.Context, a models.Asset) (models.Asset, error)
	UpdateAsset(ctx context.Context, a models.Asset) error
	DeleteAsset(ctx context.Context, id int) error

	OpenCheckout(ctx context.Context, l models.CheckoutLog) (models.CheckoutLog, error)
	FindOpenCheckout(ctx context.Context, assetID int) (*models.CheckoutLog, error)
	CloseCheckout(ctx context.Context, l models.CheckoutLog) error
	DeleteCheckoutLogs(ctx context.Context, assetID int) (int, error)

	AppendAudit(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error)
	DeleteAuditEntries(ctx context.Context, assetID int) (int, error)

	InsertMaterial(ctx context.Context, m models.Material) (models.Material, error)
	LockMaterial(ctx context.Context, id int) (models.Material, error)
	UpdateMaterial(ctx context.Context, m models.Material) error
	DeleteMaterial(ctx context.Context, id int) error
}
