package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
)

// Postgres error codes we translate.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Constraint names from the migrations.
const (
	constraintSerial       = "assets_serial_number_key"
	constraintOpenCheckout = "checkout_logs_one_open_idx"
	constraintUsername     = "users_username_key"
)

// ErrUsernameTaken is returned when registering a duplicate username.
var ErrUsernameTaken = errors.New("username already exists")

// mapError converts driver errors into the lifecycle sentinels so the engine
// never has to know about pq.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.ErrNoRecord
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		switch pqErr.Constraint {
		case constraintSerial:
			return fmt.Errorf("%w: %s", lifecycle.ErrSerialTaken, pqErr.Message)
		case constraintOpenCheckout:
			return fmt.Errorf("%w: %s", lifecycle.ErrOpenCheckoutExists, pqErr.Message)
		case constraintUsername:
			return ErrUsernameTaken
		}
		return fmt.Errorf("%w: %s", lifecycle.ErrWriteConflict, pqErr.Message)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", lifecycle.ErrWriteConflict, pqErr.Message)
	case codeCheckViolation, codeNumericOutOfRange:
		return fmt.Errorf("%w: %s", lifecycle.ErrOutOfRange, pqErr.Message)
	case codeForeignKeyViolation:
		return fmt.Errorf("foreign key %s: %w", pqErr.Constraint, err)
	}
	return err
}
