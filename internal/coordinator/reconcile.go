package coordinator

import (
	"context"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

const reconcileLockName = "reconcile"

// runReconcile ticks every ReconcileInterval and, when it wins the
// distributed lock, performs a GC sweep: any storage_key present in
// the index but absent from the object store gets a DELETE event.
// Modeled on a lock-gated scheduler tick, generalized from "poll due
// tasks" to "diff two key sets".
//
// Reconciliation never emits CREATE on its own: a key missing from the
// index but present in the store is indistinguishable from "currently
// being processed" and re-ingesting it here would race the pipeline.
// When ReconcileReingestDrifted is set, a full scan pass runs
// alongside the GC sweep as the opt-in stronger-consistency mode.
func (c *Coordinator) runReconcile(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reconcileOnce(ctx)
		}
	}
}

func (c *Coordinator) reconcileOnce(ctx context.Context) {
	acquired, err := c.cfg.Lock.Acquire(ctx, reconcileLockName, 2*c.cfg.ReconcileInterval)
	if err != nil {
		c.logger.Warn("reconcile: failed to acquire lock", "error", err)
		return
	}
	if !acquired {
		c.logger.Debug("reconcile: lock held by another instance, skipping tick")
		return
	}
	defer func() {
		if err := c.cfg.Lock.Release(ctx, reconcileLockName); err != nil {
			c.logger.Warn("reconcile: failed to release lock", "error", err)
		}
	}()

	stored, err := c.listStoredKeys(ctx)
	if err != nil {
		c.logger.Error("reconcile: listing object store failed", "error", err)
		return
	}

	indexed, err := c.listIndexedKeys(ctx)
	if err != nil {
		c.logger.Error("reconcile: listing index failed", "error", err)
		return
	}

	removed := 0
	for key := range indexed {
		if _, ok := stored[key]; ok {
			continue
		}
		c.submit(domain.WorkEvent{
			Kind:       domain.EventKindDelete,
			StorageKey: key,
			Origin:     domain.EventOriginReconcile,
		})
		removed++
	}
	c.logger.Info("reconcile: sweep complete", "indexed_keys", len(indexed), "stored_keys", len(stored), "gc_deletes", removed)

	if c.cfg.ReconcileReingestDrifted {
		c.runScan(ctx)
	}
}

func (c *Coordinator) listStoredKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	prefixes := c.cfg.ScanPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}

	for _, prefix := range prefixes {
		cursor := ""
		for {
			objects, next, err := c.cfg.Store.List(ctx, prefix, cursor)
			if err != nil {
				return nil, err
			}
			for _, obj := range objects {
				keys[obj.StorageKey] = struct{}{}
			}
			if next == "" {
				break
			}
			cursor = next
		}
	}

	return keys, nil
}

func (c *Coordinator) listIndexedKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	cursor := ""
	for {
		page, next, err := c.cfg.Index.ListStorageKeys(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, key := range page {
			keys[key] = struct{}{}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	return keys, nil
}
