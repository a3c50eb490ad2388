package table

import (
	"context"

	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/logging"
)

// SaveOps are the remote calls batch persistence is built from. Create
// returns the server-assigned identifier for a new record.
type SaveOps[T any] struct {
	Create func(ctx context.Context, rec *T) (string, error)
	Update func(ctx context.Context, serverID string, rec *T) error
}

// SaveResult is the aggregate outcome of a batch save. Per-row detail is
// deliberately not reported; failures are logged as they happen.
type SaveResult struct {
	Saved  int
	Failed int
}

// SaveAll iterates the full collection in order: rows carrying a ServerID
// are updated in place, the rest are created. Each call is independent; a
// failure on one row is logged and skipped, never aborting the batch. The
// caller should reload from the backend afterwards so server-assigned
// identifiers replace client-assigned ones.
func (t *Table[T]) SaveAll(ctx context.Context, ops SaveOps[T], logger *zap.Logger) SaveResult {
	var result SaveResult

	for _, row := range t.rows {
		if row.ServerID != "" {
			if err := ops.Update(ctx, row.ServerID, &row.Record); err != nil {
				result.Failed++
				logger.Warn("row update failed",
					zap.String("server_id", row.ServerID),
					zap.String("error", logging.SanitizeError(err)))
				continue
			}
			result.Saved++
			continue
		}

		serverID, err := ops.Create(ctx, &row.Record)
		if err != nil {
			result.Failed++
			logger.Warn("row create failed",
				zap.String("row_id", row.ID),
				zap.String("error", logging.SanitizeError(err)))
			continue
		}
		row.ServerID = serverID
		result.Saved++
	}

	return result
}
