package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/agenthands/aurehal/internal/core/common"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/logsink"
	"github.com/agenthands/aurehal/internal/observability"
)

type HALOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	ChildRows int
	// RequestsPerSecond caps outbound calls; zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
	Metrics           *observability.Metrics
}

// HALDriver queries the HAL structure referential and search API.
type HALDriver struct {
	client    *resty.Client
	limiter   *rate.Limiter
	childRows int
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

func NewHALDriver(opts HALOptions) *HALDriver {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ChildRows <= 0 {
		opts.ChildRows = DefaultChildRows
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &HALDriver{
		client:    client,
		limiter:   limiter,
		childRows: opts.ChildRows,
		metrics:   opts.Metrics,
		tracer:    observability.Tracer("github.com/agenthands/aurehal/internal/driver"),
	}
}

// Client exposes the underlying resty client.
func (d *HALDriver) Client() *resty.Client {
	return d.client
}

type solrEnvelope[D any] struct {
	Response *struct {
		NumFound *int `json:"numFound"`
		Docs     []D  `json:"docs"`
	} `json:"response"`
}

type childDoc struct {
	DocID model.ID `json:"docid"`
}

type parentDoc struct {
	Parents []model.ID `json:"parentDocid_i"`
}

func (d *HALDriver) FindChildren(ctx context.Context, id model.ID) ([]model.ID, error) {
	env, err := fetch[childDoc](ctx, d, OpFindChildren, id, StructurePath, childrenQuery(id.String(), d.childRows))
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, d.parseFailure(ctx, OpFindChildren, id, errors.New("missing response object"))
	}

	var children []model.ID
	for _, doc := range env.Response.Docs {
		if doc.DocID.IsZero() {
			return nil, d.parseFailure(ctx, OpFindChildren, id, errors.New("document without docid"))
		}
		children = append(children, doc.DocID)
	}
	d.observe(OpFindChildren, len(children) == 0)
	return children, nil
}

func (d *HALDriver) FindParents(ctx context.Context, id model.ID) ([]model.ID, error) {
	env, err := fetch[parentDoc](ctx, d, OpFindParents, id, StructurePath, parentsQuery(id.String()))
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, d.parseFailure(ctx, OpFindParents, id, errors.New("missing response object"))
	}
	if len(env.Response.Docs) == 0 {
		d.observe(OpFindParents, true)
		return nil, nil
	}

	var parents []model.ID
	for _, p := range env.Response.Docs[0].Parents {
		if !p.IsZero() {
			parents = append(parents, p)
		}
	}
	d.observe(OpFindParents, len(parents) == 0)
	return parents, nil
}

func (d *HALDriver) Describe(ctx context.Context, id model.ID) (*model.Description, error) {
	env, err := fetch[model.Description](ctx, d, OpDescribe, id, StructurePath, describeQuery(id.String()))
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, d.parseFailure(ctx, OpDescribe, id, errors.New("missing response object"))
	}
	if len(env.Response.Docs) == 0 {
		d.observe(OpDescribe, true)
		return nil, nil
	}

	desc := env.Response.Docs[0]
	d.observe(OpDescribe, false)
	return &desc, nil
}

func (d *HALDriver) CountPublications(ctx context.Context, id model.ID) (*int, error) {
	env, err := fetch[struct{}](ctx, d, OpCountPublications, id, SearchPath, countQuery(id.String()))
	if err != nil {
		return nil, err
	}
	// the search API answers without a response object when it has nothing
	if env.Response == nil {
		d.observe(OpCountPublications, true)
		return nil, nil
	}
	if env.Response.NumFound == nil {
		return nil, d.parseFailure(ctx, OpCountPublications, id, errors.New("response without numFound"))
	}

	n := *env.Response.NumFound
	d.observe(OpCountPublications, false)
	return &n, nil
}

func fetch[D any](ctx context.Context, d *HALDriver, op Operation, id model.ID, path string, params map[string]string) (solrEnvelope[D], error) {
	var zero solrEnvelope[D]
	log := logsink.FromContext(ctx)

	ctx, span := d.tracer.Start(ctx, "referential."+string(op),
		trace.WithAttributes(
			attribute.String("referential.operation", string(op)),
			attribute.String("referential.id", id.String()),
		))
	defer span.End()

	if !id.IsNumeric() {
		span.SetStatus(codes.Error, "invalid id")
		return zero, fmt.Errorf("%s %q: %w", op, id, ErrInvalidID)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		// The limiter refuses early when the wait would outlast the deadline.
		if ctx.Err() == nil {
			if _, ok := ctx.Deadline(); ok {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
		}
		return zero, &TransportError{Operation: op, ID: id, Err: err}
	}

	start := time.Now()
	req := d.client.R().SetContext(ctx).SetQueryParams(params)
	log.Debug("GET referential", "operation", op, "id", id, "path", path, "q", params["q"])

	resp, err := req.Get(path)
	elapsed := time.Since(start)
	if err != nil {
		d.recordFailure(op, "transport_error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		log.Warn("referential request failed", "operation", op, "id", id, "error", err)
		return zero, &TransportError{Operation: op, ID: id, Err: err}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		d.recordFailure(op, "transport_error", elapsed)
		span.SetStatus(codes.Error, resp.Status())
		log.Warn("referential returned an error status", "operation", op, "id", id, "status", resp.StatusCode())
		return zero, &TransportError{
			Operation:  op,
			ID:         id,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(common.Snippet(resp.Body())),
		}
	}

	env, err := common.ParseJSON[solrEnvelope[D]](resp.Body())
	if err != nil {
		d.recordFailure(op, "parse_error", elapsed)
		span.SetStatus(codes.Error, "parse")
		log.Warn("referential response could not be parsed", "operation", op, "id", id, "error", err)
		return zero, &ParseError{Operation: op, ID: id, Err: err}
	}

	if d.metrics != nil {
		d.metrics.ReferentialRequestSeconds.WithLabelValues(string(op)).Observe(elapsed.Seconds())
	}
	return env, nil
}

func (d *HALDriver) parseFailure(ctx context.Context, op Operation, id model.ID, err error) error {
	if d.metrics != nil {
		d.metrics.ReferentialRequestsTotal.WithLabelValues(string(op), "parse_error").Inc()
	}
	logsink.FromContext(ctx).Warn("referential response has an unexpected shape", "operation", op, "id", id, "error", err)
	return &ParseError{Operation: op, ID: id, Err: err}
}

func (d *HALDriver) recordFailure(op Operation, outcome string, elapsed time.Duration) {
	d.metrics.ObserveRequest(string(op), outcome, elapsed)
}

func (d *HALDriver) observe(op Operation, empty bool) {
	if d.metrics == nil {
		return
	}
	outcome := "ok"
	if empty {
		outcome = "empty"
	}
	d.metrics.ReferentialRequestsTotal.WithLabelValues(string(op), outcome).Inc()
}
