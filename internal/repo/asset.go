package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
)

var pg = goqu.Dialect("postgres")

const assetColumns = `id, owner_id, name, category, description, serial_number, qr_code, location, available, checkout_at, created_at, updated_at`

var assetSelect = []any{
	"id", "owner_id", "name", "category", "description", "serial_number",
	"qr_code", "location", "available", "checkout_at", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (models.Asset, error) {
	var (
		a       models.Asset
		serial  sql.NullString
		checked sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Name,
		&a.Category,
		&a.Description,
		&serial,
		&a.QRCode,
		&a.Location,
		&a.Available,
		&checked,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return models.Asset{}, err
	}
	if serial.Valid {
		a.SerialNumber = &serial.String
	}
	if checked.Valid {
		t := checked.Time
		a.CheckoutAt = &t
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// ========================
// READS
// ========================

func (s *Store) GetAsset(ctx context.Context, id int) (models.Asset, error) {
	a, err := scanAsset(s.DB.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		return models.Asset{}, mapError(err)
	}
	return a, nil
}

// ListAssets builds its WHERE clause with goqu since every filter is optional.
func (s *Store) ListAssets(ctx context.Context, f lifecycle.AssetFilter) ([]models.Asset, error) {
	ds := pg.From("assets").Select(assetSelect...).Order(goqu.C("id").Asc())
	if f.Available != nil {
		ds = ds.Where(goqu.C("available").Eq(*f.Available))
	}
	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.OwnerID != 0 {
		ds = ds.Where(goqu.C("owner_id").Eq(f.OwnerID))
	}
	if f.Name != "" {
		ds = ds.Where(goqu.C("name").ILike("%" + f.Name + "%"))
	}
	if f.AfterID > 0 {
		ds = ds.Where(goqu.C("id").Gt(f.AfterID))
	}
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build asset query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ========================
// TRANSACTIONAL WRITES
// ========================

func (t *pgTx) LockAsset(ctx context.Context, id int) (models.Asset, error) {
	a, err := scanAsset(t.q.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.Asset{}, mapError(err)
	}
	return a, nil
}

func (t *pgTx) SerialTaken(ctx context.Context, serial string, excludeID int) (bool, error) {
	var taken bool
	err := t.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM assets WHERE serial_number = $1 AND id <> $2)`,
		serial, excludeID,
	).Scan(&taken)
	return taken, err
}

func (t *pgTx) InsertAsset(ctx context.Context, a models.Asset) (models.Asset, error) {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO assets (owner_id, name, category, description, serial_number, qr_code, location, available, checkout_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		a.OwnerID, a.Name, a.Category, a.Description, nullString(a.SerialNumber), a.QRCode,
		a.Location, a.Available, nullTime(a.CheckoutAt), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return models.Asset{}, mapError(err)
	}
	return a, nil
}

func (t *pgTx) UpdateAsset(ctx context.Context, a models.Asset) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE assets
		 SET name = $1, category = $2, description = $3, serial_number = $4, location = $5,
		     available = $6, checkout_at = $7, updated_at = $8
		 WHERE id = $9`,
		a.Name, a.Category, a.Description, nullString(a.SerialNumber), a.Location,
		a.Available, nullTime(a.CheckoutAt), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (t *pgTx) DeleteAsset(ctx context.Context, id int) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lifecycle.ErrNoRecord
	}
	return nil
}
