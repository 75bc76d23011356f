package evaluation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/metrics"
	"github.com/zen-systems/routegate/pkg/models"
)

// Importer loads feed batches into a Store.
type Importer struct {
	store  *Store
	logger *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(logger *zap.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewImporter creates an importer writing into store.
func NewImporter(store *Store, opts ...ImporterOption) *Importer {
	i := &Importer{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import fetches src and upserts every record. It fails only when the fetch
// itself fails; individual updates cannot fail.
func (i *Importer) Import(ctx context.Context, src Source) (int, error) {
	return i.apply(ctx, src, func(Record) bool { return true })
}

// Refresh re-imports only records for the given models and task types. An
// empty filter slice matches everything on that axis.
func (i *Importer) Refresh(ctx context.Context, src Source, modelIDs []string, taskTypes []models.TaskType) (int, error) {
	wantModel := make(map[string]bool, len(modelIDs))
	for _, id := range modelIDs {
		wantModel[id] = true
	}
	wantTask := make(map[models.TaskType]bool, len(taskTypes))
	for _, t := range taskTypes {
		wantTask[t] = true
	}

	return i.apply(ctx, src, func(r Record) bool {
		if len(wantModel) > 0 && !wantModel[r.ModelID] {
			return false
		}
		if len(wantTask) > 0 && !wantTask[r.TaskType] {
			return false
		}
		return true
	})
}

func (i *Importer) apply(ctx context.Context, src Source, keep func(Record) bool) (int, error) {
	records, err := src.Fetch(ctx)
	if err != nil {
		metrics.EvaluationImports.WithLabelValues(src.Name(), "error").Inc()
		i.logger.Warn("evaluation import failed",
			zap.String("source", src.Name()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("import evaluations from %s: %w", src.Name(), err)
	}

	applied := 0
	for _, r := range records {
		if !keep(r) {
			continue
		}
		i.store.Update(r.ModelID, r.TaskType, r.Score)
		applied++
	}

	metrics.EvaluationImports.WithLabelValues(src.Name(), "ok").Inc()
	i.logger.Info("evaluations imported",
		zap.String("source", src.Name()),
		zap.Int("applied", applied),
		zap.Int("stored", i.store.Len()),
	)
	return applied, nil
}
