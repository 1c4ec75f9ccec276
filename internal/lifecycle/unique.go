package lifecycle

import (
	"context"
	"strings"

	"github.com/crucial707/trade-tracker/internal/apperr"
)

const msgSerialExists = "serial_number already exists"

// checkSerial fails with a validation error when another asset already uses
// serial. excludeID is the asset being updated, or 0 on create.
func checkSerial(ctx context.Context, tx Tx, serial string, excludeID int) error {
	taken, err := tx.SerialTaken(ctx, serial, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Validation(msgSerialExists)
	}
	return nil
}

// normalizeSerial trims input; a blank serial means "no serial".
func normalizeSerial(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
