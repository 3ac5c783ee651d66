// Package dispatcher sends one dataset request and turns the reply into a
// QueryResult. It never returns an error: every failure becomes a message.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "gov-dash/internal/common/errors"
	govhttp "gov-dash/internal/common/http"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/metrics"
	"gov-dash/internal/models"
	"gov-dash/internal/opendata/cache"
	"gov-dash/internal/opendata/normalizer"
	"gov-dash/pkg/registry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultMaxBodyBytes caps how much of a response is read.
const DefaultMaxBodyBytes int64 = 32 << 20

// CredentialStore resolves the API key for a dataset.
type CredentialStore interface {
	Credential(datasetID string) (string, bool)
}

// StaticCredentials is a CredentialStore backed by a map.
type StaticCredentials map[string]string

func (s StaticCredentials) Credential(datasetID string) (string, bool) {
	key, ok := s[datasetID]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithCache enables the response cache.
func WithCache(c cache.ResponseCache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxBody = n
		}
	}
}

// WithTracer sets the tracer for outbound spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

type Dispatcher struct {
	registry    *registry.Registry
	credentials CredentialStore
	client      *govhttp.Client
	cache       cache.ResponseCache
	tracer      trace.Tracer
	logger      logger.Logger
	maxBody     int64
}

func New(reg *registry.Registry, creds CredentialStore, client *govhttp.Client, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    reg,
		credentials: creds,
		client:      client,
		tracer:      noop.NewTracerProvider().Tracer("dispatcher"),
		logger:      log.With(map[string]interface{}{"component": "dispatcher"}),
		maxBody:     DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch fetches datasetID with filters. format "" means csv. The credential
// is resolved before the descriptor, and neither failure touches the network.
func (d *Dispatcher) Dispatch(ctx context.Context, datasetID string, filters models.FilterSet, format string) *models.QueryResult {
	if format == "" {
		format = models.DefaultFormat
	}

	result := d.dispatch(ctx, datasetID, filters, format)
	result.DatasetID = datasetID
	used := filters
	used.Format = format
	result.Filters = &used
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, datasetID string, filters models.FilterSet, format string) *models.QueryResult {
	apiKey, ok := d.credentials.Credential(datasetID)
	if !ok {
		d.logger.Warn("credential missing", map[string]interface{}{"datasetId": datasetID})
		return models.NewErrorResult(apperrors.NewCredentialMissingError(datasetID))
	}

	desc, ok := d.registry.Lookup(datasetID)
	if !ok {
		d.logger.Warn("unknown dataset", map[string]interface{}{"datasetId": datasetID})
		return models.NewErrorResult(apperrors.NewUnknownDatasetError(datasetID))
	}

	params := BuildParams(desc, apiKey, filters, format)
	cacheKey := cache.Key(datasetID, params)

	if body, hit := d.cacheGet(ctx, cacheKey); hit {
		return d.toResult(desc, body, format)
	}

	body, stdErr := d.fetch(ctx, desc, params)
	if stdErr != nil {
		return models.NewErrorResult(stdErr)
	}

	result := d.toResult(desc, body, format)
	if result.Outcome == models.OutcomeOK {
		d.cacheSet(ctx, cacheKey, body)
	}
	return result
}

// BuildParams returns the query parameters for one request. Only filters the
// descriptor declares and that carry a non-empty value are sent.
func BuildParams(desc registry.DatasetDescriptor, apiKey string, filters models.FilterSet, format string) url.Values {
	params := url.Values{}
	params.Set("api-key", apiKey)
	params.Set("format", format)
	params.Set("offset", strconv.Itoa(filters.Offset))
	params.Set("limit", strconv.Itoa(filters.Limit))
	for _, name := range desc.Filters {
		if v := filters.Get(name); v != "" {
			params.Set(fmt.Sprintf("filters[%s]", name), v)
		}
	}
	return params
}

func (d *Dispatcher) fetch(ctx context.Context, desc registry.DatasetDescriptor, params url.Values) ([]byte, *apperrors.StandardError) {
	ctx, span := d.tracer.Start(ctx, "opendata.fetch", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("dataset.id", desc.ID),
			attribute.String("http.url", desc.Endpoint),
		))
	defer span.End()

	start := time.Now()
	resp, err := d.client.Get(ctx, desc.Endpoint+"?"+params.Encode())
	metrics.UpstreamDuration.WithLabelValues(desc.ID).Observe(time.Since(start).Seconds())

	if err != nil {
		cause := transportCause(err)
		span.RecordError(cause)
		span.SetStatus(codes.Error, "transport")
		metrics.UpstreamRequests.WithLabelValues(desc.ID, "error").Inc()
		d.logger.WithError(cause).Error("request failed", map[string]interface{}{"datasetId": desc.ID})

		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.NewUpstreamTimeoutError(desc.ID)
		}
		return nil, apperrors.NewUpstreamTransportError(desc.ID, cause)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	metrics.UpstreamRequests.WithLabelValues(desc.ID, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		d.logger.Warn("unexpected status", map[string]interface{}{
			"datasetId":  desc.ID,
			"statusCode": resp.StatusCode,
		})
		return nil, apperrors.NewUpstreamStatusError(desc.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBody+1))
	if err != nil {
		cause := transportCause(err)
		span.RecordError(cause)
		span.SetStatus(codes.Error, "read body")
		return nil, apperrors.NewUpstreamTransportError(desc.ID, cause)
	}
	if int64(len(body)) > d.maxBody {
		span.SetStatus(codes.Error, "body too large")
		d.logger.Warn("response too large", map[string]interface{}{
			"datasetId": desc.ID,
			"limit":     d.maxBody,
		})
		return nil, apperrors.NewPayloadParseError(payloadKind(params.Get("format")),
			fmt.Errorf("response exceeds %d bytes", d.maxBody))
	}

	d.logger.Debug("response received", map[string]interface{}{
		"datasetId": desc.ID,
		"bytes":     len(body),
		"duration":  time.Since(start).String(),
	})
	return body, nil
}

// transportCause drops the request URL, which carries the api-key, from a
// client error.
func transportCause(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func payloadKind(format string) string {
	if format == "json" {
		return "JSON"
	}
	return "CSV"
}

func (d *Dispatcher) toResult(desc registry.DatasetDescriptor, body []byte, format string) *models.QueryResult {
	tbl := normalizer.Normalize(body, format)
	if tbl.Message != "" {
		r := models.NewMessageResult(tbl.Outcome, tbl.Message)
		r.DatasetName = desc.Name
		return r
	}
	r := models.NewTableResult(tbl.Columns, tbl.Records)
	r.DatasetName = desc.Name
	return r
}

func (d *Dispatcher) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if d.cache == nil {
		return nil, false
	}
	body, hit, err := d.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		d.logger.Warn("cache read failed", map[string]interface{}{"error": err})
		return nil, false
	}
	if !hit {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return body, true
}

func (d *Dispatcher) cacheSet(ctx context.Context, key string, body []byte) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, key, body); err != nil {
		d.logger.Warn("cache write failed", map[string]interface{}{"error": err})
	}
}
