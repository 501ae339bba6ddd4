// Package traversal walks the referential hierarchy from a root structure.
package traversal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agenthands/aurehal/internal/core/dedupe"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/logsink"
	"github.com/agenthands/aurehal/internal/observability"
)

// Crawler discovers every structure reachable from a root in one direction.
// Each identifier is queried at most once, so the walk terminates on any
// finite referential, including ones with cycles or shared children.
type Crawler struct {
	Referential driver.Referential
	tracer      trace.Tracer
}

func NewCrawler(ref driver.Referential) *Crawler {
	return &Crawler{
		Referential: ref,
		tracer:      observability.Tracer("github.com/agenthands/aurehal/internal/core/traversal"),
	}
}

// neighbours returns the next identifiers to visit from id, and the edge
// linking id to each of them.
type neighbours func(ctx context.Context, id model.ID) ([]model.ID, error)
type edgeFor func(current, next model.ID) model.Edge

// Crawl dispatches on direction.
func (c *Crawler) Crawl(ctx context.Context, root model.ID, direction model.Direction) (model.TraversalResult, error) {
	switch direction {
	case model.Descendants:
		return c.Descendants(ctx, root)
	case model.Ancestors:
		return c.Ancestors(ctx, root)
	default:
		return model.TraversalResult{}, fmt.Errorf("%w: got %q", model.ErrInvalidDirection, direction)
	}
}

// Descendants emits {from: parent, to: child} for every structure below root.
func (c *Crawler) Descendants(ctx context.Context, root model.ID) (model.TraversalResult, error) {
	return c.walk(ctx, root, model.Descendants, c.Referential.FindChildren, func(current, child model.ID) model.Edge {
		return model.NewEdge(current, child)
	})
}

// Ancestors emits {from: parent, to: child} for every structure above root.
func (c *Crawler) Ancestors(ctx context.Context, root model.ID) (model.TraversalResult, error) {
	return c.walk(ctx, root, model.Ancestors, c.Referential.FindParents, func(current, parent model.ID) model.Edge {
		return model.NewEdge(parent, current)
	})
}

func (c *Crawler) walk(ctx context.Context, root model.ID, direction model.Direction, next neighbours, edge edgeFor) (model.TraversalResult, error) {
	log := logsink.FromContext(ctx)
	result := model.TraversalResult{Root: root, Direction: direction, Edges: []model.Edge{}}

	tracer := c.tracer
	if tracer == nil {
		tracer = observability.Tracer("github.com/agenthands/aurehal/internal/core/traversal")
	}
	ctx, span := tracer.Start(ctx, "traversal."+string(direction),
		trace.WithAttributes(attribute.String("traversal.root", root.String())))
	defer span.End()

	visited := map[model.ID]struct{}{root: {}}
	stack := []model.ID{root}
	var edges []model.Edge

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return model.TraversalResult{}, err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		found, err := next(ctx, current)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "traversal aborted")
			log.Error("traversal aborted", "direction", direction, "root", root, "at", current, "error", err)
			return model.TraversalResult{}, fmt.Errorf("traversal from %s aborted at %s: %w", root, current, err)
		}

		var unvisited []model.ID
		for _, n := range found {
			if n.IsZero() {
				continue
			}
			edges = append(edges, edge(current, n))
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			unvisited = append(unvisited, n)
		}

		// push in reverse so the first neighbour is expanded first
		for i := len(unvisited) - 1; i >= 0; i-- {
			stack = append(stack, unvisited[i])
		}
	}

	result.Edges = dedupe.Edges(edges)
	span.SetAttributes(
		attribute.Int("traversal.edges", len(result.Edges)),
		attribute.Int("traversal.visited", len(visited)),
	)
	log.Info("traversal done", "direction", direction, "root", root, "edges", len(result.Edges), "visited", len(visited))
	return result, nil
}
