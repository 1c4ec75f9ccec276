package lifecycle

import (
	"context"
	"fmt"

	"github.com/crucial707/trade-tracker/internal/models"
)

// record appends one audit row inside tx. A failure here fails the whole
// command, so no state change commits without its entry.
func (e *Engine) record(ctx context.Context, tx Tx, entry models.AuditEntry) error {
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}
	entry.CreatedAt = e.now()
	if _, err := tx.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit %s for asset %d: %w", entry.Action, entry.AssetID, err)
	}
	return nil
}
