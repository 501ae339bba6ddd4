// Package enrichment attaches descriptive metadata and publication counts to
// harvested identifiers.
package enrichment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/aurehal/internal/core/dedupe"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/logsink"
	"github.com/agenthands/aurehal/internal/observability"
)

const DefaultWorkers = 10

// Enricher builds one StructureRecord per identifier using a bounded pool of
// workers. The first failing lookup cancels the others and fails the call.
type Enricher struct {
	Referential driver.Referential
	Workers     int
	Metrics     *observability.Metrics
	tracer      trace.Tracer
}

func NewEnricher(ref driver.Referential, workers int, metrics *observability.Metrics) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Enricher{
		Referential: ref,
		Workers:     workers,
		Metrics:     metrics,
		tracer:      observability.Tracer("github.com/agenthands/aurehal/internal/core/enrichment"),
	}
}

// Enrich returns exactly one record per distinct identifier in ids, in input
// order. No records are returned when any lookup fails.
func (e *Enricher) Enrich(ctx context.Context, ids []model.ID) ([]model.StructureRecord, error) {
	unique := dedupe.IDs(ids)
	if len(unique) == 0 {
		return []model.StructureRecord{}, nil
	}

	tracer := e.tracer
	if tracer == nil {
		tracer = observability.Tracer("github.com/agenthands/aurehal/internal/core/enrichment")
	}
	ctx, span := tracer.Start(ctx, "enrichment.enrich",
		trace.WithAttributes(attribute.Int("enrichment.ids", len(unique))))
	defer span.End()

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// each task owns one slot, so no locking is needed at the join
	records := make([]model.StructureRecord, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range unique {
		i, id := i, id
		g.Go(func() error {
			e.Metrics.TaskStarted()
			defer e.Metrics.TaskDone()

			rec, err := e.enrichOne(gctx, id)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment aborted")
		logsink.FromContext(ctx).Error("enrichment aborted", "ids", len(unique), "error", err)
		return nil, fmt.Errorf("enrichment aborted: %w", err)
	}

	logsink.FromContext(ctx).Info("enrichment done", "records", len(records), "workers", workers)
	return records, nil
}

func (e *Enricher) enrichOne(ctx context.Context, id model.ID) (model.StructureRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.StructureRecord{}, err
	}

	desc, err := e.Referential.Describe(ctx, id)
	if err != nil {
		return model.StructureRecord{}, err
	}
	count, err := e.Referential.CountPublications(ctx, id)
	if err != nil {
		return model.StructureRecord{}, err
	}

	if desc == nil {
		logsink.FromContext(ctx).Warn("structure has no description", "id", id)
	}
	return model.NewStructureRecord(id, desc, count), nil
}
