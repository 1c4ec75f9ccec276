package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/trade-tracker/internal/models"
)

const checkoutColumns = `id, asset_id, user_id, checkout_time, checkin_time, location_checkout, location_checkin`

func scanCheckout(row rowScanner) (models.CheckoutLog, error) {
	var (
		l       models.CheckoutLog
		in      sql.NullTime
		inPlace sql.NullString
	)
	if err := row.Scan(&l.ID, &l.AssetID, &l.UserID, &l.CheckoutTime, &in, &l.LocationCheckout, &inPlace); err != nil {
		return models.CheckoutLog{}, err
	}
	if in.Valid {
		t := in.Time
		l.CheckinTime = &t
	}
	if inPlace.Valid {
		l.LocationCheckin = &inPlace.String
	}
	return l, nil
}

// CheckoutLogs returns the asset's episodes, newest first.
func (s *Store) CheckoutLogs(ctx context.Context, assetID int) ([]models.CheckoutLog, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+checkoutColumns+` FROM checkout_logs WHERE asset_id = $1 ORDER BY checkout_time DESC, id DESC`,
		assetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.CheckoutLog{}
	for rows.Next() {
		l, err := scanCheckout(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// OpenCheckout inserts an open episode. The partial unique index on open
// logs rejects a second one for the same asset.
func (t *pgTx) OpenCheckout(ctx context.Context, l models.CheckoutLog) (models.CheckoutLog, error) {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO checkout_logs (asset_id, user_id, checkout_time, location_checkout)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		l.AssetID, l.UserID, l.CheckoutTime, l.LocationCheckout,
	).Scan(&l.ID)
	if err != nil {
		return models.CheckoutLog{}, mapError(err)
	}
	return l, nil
}

// FindOpenCheckout returns nil when the asset has no open episode.
func (t *pgTx) FindOpenCheckout(ctx context.Context, assetID int) (*models.CheckoutLog, error) {
	l, err := scanCheckout(t.q.QueryRowContext(ctx,
		`SELECT `+checkoutColumns+` FROM checkout_logs WHERE asset_id = $1 AND checkin_time IS NULL FOR UPDATE`,
		assetID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *pgTx) CloseCheckout(ctx context.Context, l models.CheckoutLog) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE checkout_logs SET checkin_time = $1, location_checkin = $2 WHERE id = $3 AND checkin_time IS NULL`,
		nullTime(l.CheckinTime), nullString(l.LocationCheckin), l.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (t *pgTx) DeleteCheckoutLogs(ctx context.Context, assetID int) (int, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM checkout_logs WHERE asset_id = $1`, assetID)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
