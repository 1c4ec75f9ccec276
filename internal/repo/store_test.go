package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
)

var assetRowColumns = []string{
	"id", "owner_id", "name", "category", "description", "serial_number",
	"qr_code", "location", "available", "checkout_at", "created_at", "updated_at",
}

func TestStore_WithTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + assetColumns + ` FROM assets WHERE id = $1 FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(assetRowColumns).
			AddRow(7, 1, "Drill", "equipment", "", nil, "qr-7", "Shop", true, nil, now, now))
	mock.ExpectExec(`UPDATE assets`).
		WithArgs("Drill", "equipment", "", sqlmock.AnyArg(), "Site A", false, sqlmock.AnyArg(), sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewStore(db)
	err = s.WithTx(context.Background(), func(tx lifecycle.Tx) error {
		a, err := tx.LockAsset(context.Background(), 7)
		if err != nil {
			return err
		}
		if a.SerialNumber != nil || a.CheckoutAt != nil {
			t.Errorf("expected NULL serial and checkout_at, got %+v", a)
		}
		a.Available = false
		a.CheckoutAt = &now
		a.Location = "Site A"
		return tx.UpdateAsset(context.Background(), a)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1 FOR UPDATE`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(assetRowColumns))
	mock.ExpectRollback()

	s := NewStore(db)
	err = s.WithTx(context.Background(), func(tx lifecycle.Tx) error {
		_, err := tx.LockAsset(context.Background(), 99)
		return err
	})
	if !errors.Is(err, lifecycle.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPgTx_OpenCheckout_UniqueIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO checkout_logs`).
		WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: constraintOpenCheckout, Message: "duplicate key"})

	tx := &pgTx{q: db}
	_, err = tx.OpenCheckout(context.Background(), models.CheckoutLog{AssetID: 1, UserID: 1, CheckoutTime: time.Now()})
	if !errors.Is(err, lifecycle.ErrOpenCheckoutExists) {
		t.Fatalf("expected ErrOpenCheckoutExists, got %v", err)
	}
}

func TestPgTx_FindOpenCheckout_None(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM checkout_logs WHERE asset_id = \$1 AND checkin_time IS NULL FOR UPDATE`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_id", "user_id", "checkout_time", "checkin_time", "location_checkout", "location_checkin"}))

	tx := &pgTx{q: db}
	l, err := tx.FindOpenCheckout(context.Background(), 3)
	if err != nil {
		t.Fatalf("FindOpenCheckout: %v", err)
	}
	if l != nil {
		t.Errorf("expected nil log, got %+v", l)
	}
}

func TestPgTx_DeleteCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM checkout_logs WHERE asset_id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM audit_logs WHERE asset_id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`DELETE FROM assets WHERE id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx := &pgTx{q: db}
	ctx := context.Background()
	logs, err := tx.DeleteCheckoutLogs(ctx, 5)
	if err != nil || logs != 3 {
		t.Fatalf("DeleteCheckoutLogs = %d, %v", logs, err)
	}
	entries, err := tx.DeleteAuditEntries(ctx, 5)
	if err != nil || entries != 5 {
		t.Fatalf("DeleteAuditEntries = %d, %v", entries, err)
	}
	if err := tx.DeleteAsset(ctx, 5); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_ListAssets_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "assets" WHERE .*"category" = \$1.*"name" ILIKE \$2.* ORDER BY "id" ASC LIMIT \$3`).
		WillReturnRows(sqlmock.NewRows(assetRowColumns).
			AddRow(1, 1, "Cordless Drill", "power", "", "SN-1", "qr-1", "Shop", false, now, now, now))

	s := NewStore(db)
	assets, err := s.ListAssets(context.Background(), lifecycle.AssetFilter{Category: "power", Name: "drill", Limit: 10})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 1 || assets[0].Serial() != "SN-1" || assets[0].CheckoutAt == nil {
		t.Errorf("unexpected assets: %+v", assets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_AuditTrail_NoLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM audit_logs WHERE asset_id = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(4, nil, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_id", "user_id", "action", "level", "details", "location", "created_at"}).
			AddRow(2, 4, 1, "checkin", "warn", "no open log", "Yard", now).
			AddRow(1, 4, 1, "create", "info", "", "", now))

	s := NewStore(db)
	entries, err := s.AuditTrail(context.Background(), 4, 0, 0)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(entries) != 2 || entries[0].Level != models.LevelWarn {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_ListAssets_AfterID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "assets" WHERE \("id" > \$1\) ORDER BY "id" ASC LIMIT \$2`).
		WillReturnRows(sqlmock.NewRows(assetRowColumns))

	s := NewStore(db)
	if _, err := s.ListAssets(context.Background(), lifecycle.AssetFilter{AfterID: 500, Limit: 500}); err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_AuditBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "asset_id", "user_id", "action", "level", "details", "location", "created_at"}
	now := time.Now()
	mock.ExpectQuery(`FROM audit_logs ORDER BY id DESC LIMIT \$1`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, 1, 1, "checkin", "info", "", "", now).
			AddRow(8, 1, 1, "checkout", "info", "", "", now))
	mock.ExpectQuery(`FROM audit_logs WHERE id < \$1 ORDER BY id DESC LIMIT \$2`).
		WithArgs(8, 2).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, 1, 1, "create", "info", "", "", now))

	s := NewStore(db)
	first, err := s.AuditBefore(context.Background(), 0, 2)
	if err != nil || len(first) != 2 {
		t.Fatalf("first page = %v, %v", first, err)
	}
	next, err := s.AuditBefore(context.Background(), first[1].ID, 2)
	if err != nil || len(next) != 1 || next[0].ID != 7 {
		t.Fatalf("next page = %v, %v", next, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPgTx_UpdateMaterial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE materials SET name = \$1, unit = \$2, quantity = \$3, min_stock = \$4 WHERE id = \$5`).
		WithArgs("Wire", "spool", 10, 20, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx := &pgTx{q: db}
	err = tx.UpdateMaterial(context.Background(), models.Material{ID: 3, Name: "Wire", Unit: "spool", Quantity: 10, MinStock: 20})
	if err != nil {
		t.Fatalf("UpdateMaterial: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"serial", &pq.Error{Code: codeUniqueViolation, Constraint: constraintSerial}, lifecycle.ErrSerialTaken},
		{"open checkout", &pq.Error{Code: codeUniqueViolation, Constraint: constraintOpenCheckout}, lifecycle.ErrOpenCheckoutExists},
		{"username", &pq.Error{Code: codeUniqueViolation, Constraint: constraintUsername}, ErrUsernameTaken},
		{"serialization", &pq.Error{Code: codeSerializationFailure}, lifecycle.ErrWriteConflict},
		{"deadlock", &pq.Error{Code: codeDeadlockDetected}, lifecycle.ErrWriteConflict},
		{"integer overflow", &pq.Error{Code: codeNumericOutOfRange}, lifecycle.ErrOutOfRange},
		{"check constraint", &pq.Error{Code: codeCheckViolation, Constraint: "materials_quantity_check"}, lifecycle.ErrOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapError(tc.in); !errors.Is(got, tc.want) {
				t.Errorf("mapError = %v, want %v", got, tc.want)
			}
		})
	}
	if mapError(nil) != nil {
		t.Error("mapError(nil) should be nil")
	}
}
