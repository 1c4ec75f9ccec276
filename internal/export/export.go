// Package export writes the audit trail out as JSON Lines, one entry per
// line, newest first, to a local directory or an S3 bucket.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/models"
)

const pageSize = 500

// Source is where audit entries come from. *lifecycle.Engine implements it.
type Source interface {
	AuditBefore(ctx context.Context, beforeID, limit int) ([]models.AuditEntry, error)
	Guard() access.Guard
	Now() time.Time
}

// Result describes a finished export.
type Result struct {
	Location string    `json:"location"`
	Entries  int       `json:"entries"`
	At       time.Time `json:"exported_at"`
}

type Exporter struct {
	src  Source
	sink Sink
}

func New(src Source, sink Sink) *Exporter {
	return &Exporter{src: src, sink: sink}
}

// Export writes up to maxEntries of the most recent audit entries (all of them
// when maxEntries <= 0). The caller must pass the export_audit access check.
func (x *Exporter) Export(ctx context.Context, c access.Caller, maxEntries int) (Result, error) {
	if err := access.Check(x.src.Guard(), c, 0, access.OpExportAudit); err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	n, before := 0, 0
	for {
		limit := pageSize
		if maxEntries > 0 && maxEntries-n < limit {
			limit = maxEntries - n
		}
		if limit == 0 {
			break
		}
		page, err := x.src.AuditBefore(ctx, before, limit)
		if err != nil {
			return Result{}, err
		}
		for _, e := range page {
			if err := enc.Encode(e); err != nil {
				return Result{}, apperr.Internal(fmt.Errorf("encode audit entry %d: %w", e.ID, err))
			}
		}
		n += len(page)
		if len(page) < limit {
			break
		}
		before = page[len(page)-1].ID
	}

	at := x.src.Now().UTC()
	name := "audit-" + at.Format("20060102T150405Z") + ".jsonl"
	loc, err := x.sink.Put(ctx, name, buf.Bytes())
	if err != nil {
		return Result{}, apperr.Internal(fmt.Errorf("write export %s: %w", name, err))
	}
	return Result{Location: loc, Entries: n, At: at}, nil
}
