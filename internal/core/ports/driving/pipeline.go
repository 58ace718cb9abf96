package driving

import (
	"context"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// Pipeline is the driving port onto the Ingestion Pipeline (component
// D): the only way anything outside the core hands it work.
type Pipeline interface {
	// Process runs one WorkEvent to a terminal outcome.
	Process(ctx context.Context, event domain.WorkEvent) domain.Result
}
