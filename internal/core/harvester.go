package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agenthands/aurehal/internal/config"
	"github.com/agenthands/aurehal/internal/core/enrichment"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/core/traversal"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/logsink"
	"github.com/agenthands/aurehal/internal/observability"
)

var ErrInvalidRoot = errors.New("invalid root identifier")

// HarvestError is a failed harvest. It keeps the console lines collected
// before the failure so they can be shown next to the error.
type HarvestError struct {
	HarvestID string
	Root      model.ID
	Logs      []string
	Err       error
}

func (e *HarvestError) Error() string {
	return fmt.Sprintf("harvest %s of %s failed: %v", e.HarvestID, e.Root, e.Err)
}

func (e *HarvestError) Unwrap() error { return e.Err }

// Harvester runs one traversal followed by enrichment of every node found.
type Harvester struct {
	Crawler     *traversal.Crawler
	Enricher    *enrichment.Enricher
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	ConsoleSize int
	Timeout     time.Duration

	UUIDGenerator func() string
	Now           func() time.Time

	tracer trace.Tracer
}

func NewHarvester(ref driver.Referential, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{
		Crawler:       traversal.NewCrawler(ref),
		Enricher:      enrichment.NewEnricher(ref, cfg.Concurrency.Enrich, metrics),
		Metrics:       metrics,
		Logger:        logger,
		ConsoleSize:   cfg.Log.ConsoleSize,
		Timeout:       cfg.Server.HarvestTimeout.Duration,
		UUIDGenerator: func() string { return uuid.New().String() },
		Now:           time.Now,
		tracer:        observability.Tracer("github.com/agenthands/aurehal/internal/core"),
	}
}

// Harvest crawls from rawRoot in direction and enriches the result. A root
// with no relation in that direction is not an error: the harvest is marked
// empty and holds the root's own record.
func (h *Harvester) Harvest(ctx context.Context, rawRoot string, direction model.Direction) (*model.Harvest, error) {
	root := model.NewID(rawRoot)
	if root.IsZero() {
		return nil, fmt.Errorf("%w: root is required", ErrInvalidRoot)
	}
	if !root.IsNumeric() {
		return nil, fmt.Errorf("%w: %q is not a numeric structure id", ErrInvalidRoot, rawRoot)
	}

	harvestID := h.UUIDGenerator()
	started := h.Now()

	sink := logsink.NewSink(h.ConsoleSize)
	log := slog.New(logsink.NewHandler(sink, h.Logger.Handler())).With(
		"harvest_id", harvestID,
	)
	ctx = logsink.IntoContext(ctx, log)

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	tracer := h.tracer
	if tracer == nil {
		tracer = observability.Tracer("github.com/agenthands/aurehal/internal/core")
	}
	ctx, span := tracer.Start(ctx, "harvest", trace.WithAttributes(
		attribute.String("harvest.id", harvestID),
		attribute.String("harvest.root", root.String()),
		attribute.String("harvest.direction", string(direction)),
	))
	defer span.End()

	log.Info("harvest started", "root", root, "direction", direction)

	fail := func(err error) (*model.Harvest, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "harvest failed")
		h.Metrics.ObserveHarvest(string(direction), "error", 0, h.Now().Sub(started))
		log.Error("harvest failed", "error", err)
		return nil, &HarvestError{HarvestID: harvestID, Root: root, Logs: sink.Lines(), Err: err}
	}

	result, err := h.Crawler.Crawl(ctx, root, direction)
	if err != nil {
		return fail(err)
	}

	records, err := h.Enricher.Enrich(ctx, result.IDs())
	if err != nil {
		return fail(err)
	}

	status := model.HarvestOK
	if len(result.Edges) == 0 {
		status = model.HarvestEmpty
	}
	elapsed := h.Now().Sub(started)
	h.Metrics.ObserveHarvest(string(direction), string(status), len(result.Edges), elapsed)
	span.SetAttributes(attribute.String("harvest.status", string(status)))
	log.Info("harvest finished", "status", status, "edges", len(result.Edges), "records", len(records), "elapsed", elapsed)

	return &model.Harvest{
		ID:        harvestID,
		Root:      root,
		Direction: direction,
		Status:    status,
		Edges:     result.Edges,
		Records:   records,
		Logs:      sink.Lines(),
		StartedAt: started.UTC(),
		Duration:  elapsed,
	}, nil
}
