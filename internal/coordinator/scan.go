package coordinator

import (
	"context"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// runScan lists every object under each configured prefix once and
// submits a CREATE event per key. Used both for the optional
// scan-on-startup pass and, when ReconcileReingestDrifted is set, as
// part of every reconciliation tick.
func (c *Coordinator) runScan(ctx context.Context) {
	prefixes := c.cfg.ScanPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}

	for _, prefix := range prefixes {
		c.scanPrefix(ctx, prefix)
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Coordinator) scanPrefix(ctx context.Context, prefix string) {
	cursor := ""
	for {
		if ctx.Err() != nil {
			return
		}

		objects, next, err := c.cfg.Store.List(ctx, prefix, cursor)
		if err != nil {
			c.logger.Error("scan: list objects failed", "prefix", prefix, "error", err)
			return
		}

		for _, obj := range objects {
			c.submit(domain.WorkEvent{
				Kind:       domain.EventKindCreate,
				StorageKey: obj.StorageKey,
				Origin:     domain.EventOriginScan,
			})
		}

		if next == "" {
			return
		}
		cursor = next
	}
}
