package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	govhttp "gov-dash/internal/common/http"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/models"
	"gov-dash/internal/opendata/cache"
	"gov-dash/pkg/registry"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const petroleumCSV = "_month_,year,products,quantity_000_metric_tonnes_,updated_date\nMarch,2022,LPG,2456.1,2022-04-10\n"

type upstream struct {
	server  *httptest.Server
	hits    int32
	queries chan url.Values
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	u := &upstream{queries: make(chan url.Values, 16)}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.hits, 1)
		u.queries <- r.URL.Query()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) count() int {
	return int(atomic.LoadInt32(&u.hits))
}

// registryAt points every built-in dataset at baseURL.
func registryAt(t *testing.T, baseURL string) *registry.Registry {
	catalog := registry.Builtin()
	for i := range catalog.Datasets {
		catalog.Datasets[i].Endpoint = baseURL + "/resource/" + catalog.Datasets[i].ID
	}
	reg, err := registry.New(catalog)
	require.NoError(t, err)
	return reg
}

func allCredentials() StaticCredentials {
	return StaticCredentials{
		"petroleum_consumption": "petro-key",
		"aviation_grievance":    "griev-key",
		"flight_schedule":       "flight-key",
		"aviation_faqs":         "faq-key",
		"airport_services":      "airport-key",
		"rail_schedule":         "rail-key",
	}
}

func newDispatcher(t *testing.T, reg *registry.Registry, creds CredentialStore, opts ...Option) *Dispatcher {
	return New(reg, creds, govhttp.NewClient(2*time.Second, 4), logger.NewTestLogger(t), opts...)
}

func petroleumFilters() models.FilterSet {
	fs := models.NewFilterSet(15)
	fs.Set("year", "2022")
	fs.Set("products", "LPG")
	return fs
}

func TestDispatch_Success(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

	res := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "")

	require.Equal(t, models.OutcomeOK, res.Outcome, res.Message)
	assert.Equal(t, models.KindTable, res.Kind)
	assert.Empty(t, res.Message)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "LPG", res.Records[0]["products"])
	assert.Equal(t, "petroleum_consumption", res.DatasetID)
	assert.Equal(t, "Monthly Consumption of Petroleum Products", res.DatasetName)
	require.NotNil(t, res.Filters)
	assert.Equal(t, "csv", res.Filters.Format)

	q := <-up.queries
	assert.Equal(t, url.Values{
		"api-key":           {"petro-key"},
		"format":            {"csv"},
		"offset":            {"0"},
		"limit":             {"15"},
		"filters[year]":     {"2022"},
		"filters[products]": {"LPG"},
	}, q)
}

func TestDispatch_OnlyDeclaredNonEmptyFiltersSent(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

	fs := models.NewFilterSet(15)
	fs.Set("year", "2022")
	fs.Set("origin", "Delhi")
	fs.Set("bogus", "x")
	fs.Set("products", "")

	d.Dispatch(context.Background(), "petroleum_consumption", fs, "csv")

	q := <-up.queries
	for key := range q {
		switch key {
		case "api-key", "format", "offset", "limit", "filters[year]":
		default:
			t.Errorf("unexpected parameter %q", key)
		}
	}
}

func TestDispatch_MissingCredentialSkipsNetwork(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	creds := allCredentials()
	delete(creds, "flight_schedule")
	creds["aviation_faqs"] = ""
	d := newDispatcher(t, registryAt(t, up.server.URL), creds)

	for _, id := range []string{"flight_schedule", "aviation_faqs"} {
		res := d.Dispatch(context.Background(), id, models.NewFilterSet(10), "csv")
		assert.Equal(t, "API key not found for the selected API.", res.Message)
		assert.Equal(t, models.OutcomeMissingCredential, res.Outcome)
		assert.Empty(t, res.Records)
	}
	assert.Equal(t, 0, up.count())
}

func TestDispatch_UnknownDataset(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

	res := d.Dispatch(context.Background(), "rail_schedule", models.NewFilterSet(10), "csv")
	assert.Equal(t, "Invalid API identifier.", res.Message)
	assert.Equal(t, models.OutcomeUnknownDataset, res.Outcome)

	// credential lookup comes first
	res = d.Dispatch(context.Background(), "bus_schedule", models.NewFilterSet(10), "csv")
	assert.Equal(t, "API key not found for the selected API.", res.Message)

	assert.Equal(t, 0, up.count())
}

func TestDispatch_NonOKStatusNoRetry(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		up := newUpstream(t, status, "boom")
		d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

		res := d.Dispatch(context.Background(), "aviation_grievance", models.NewFilterSet(10), "csv")
		assert.Equal(t, fmt.Sprintf("Request failed with status code %d.", status), res.Message)
		assert.Equal(t, models.OutcomeUpstreamStatus, res.Outcome)
		assert.Empty(t, res.Records)
		assert.Equal(t, 1, up.count())
	}
}

func TestDispatch_HeaderOnlyCSV(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "airline,flightNumber\n")
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

	res := d.Dispatch(context.Background(), "flight_schedule", models.NewFilterSet(10), "csv")
	assert.Equal(t, "No data found for the given filters.", res.Message)
	assert.Equal(t, models.OutcomeNoData, res.Outcome)
}

func TestDispatch_JSONFormat(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"records":[{"airport":"Chennai","email":"x@y.in"}]}`)
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials())

	res := d.Dispatch(context.Background(), "airport_services", models.NewFilterSet(10), "json")
	require.Equal(t, models.OutcomeOK, res.Outcome)
	assert.Equal(t, []string{"airport", "email"}, res.Columns)

	q := <-up.queries
	assert.Equal(t, "json", q.Get("format"))
}

func TestDispatch_TransportFailure(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	reg := registryAt(t, up.server.URL)
	up.server.Close()

	d := newDispatcher(t, reg, allCredentials())
	res := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")

	assert.Equal(t, models.OutcomeTransportFailed, res.Outcome)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Records)
}

func TestDispatch_TransportFailureHidesCredential(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	reg := registryAt(t, up.server.URL)
	up.server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	d := New(reg, allCredentials(), govhttp.NewClient(2*time.Second, 1),
		logger.NewZapAdapter(zap.New(core)), WithTracer(tp.Tracer("test")))

	res := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")
	require.Equal(t, models.OutcomeTransportFailed, res.Outcome)
	assert.Contains(t, res.Message, "Request failed: ")
	assert.Contains(t, res.Message, "connection refused")
	assert.NotContains(t, res.Message, "petro-key")
	assert.NotContains(t, res.Message, "api-key")

	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, "petro-key")
		for _, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), "petro-key")
		}
	}
	for _, span := range recorder.Ended() {
		for _, ev := range span.Events() {
			for _, kv := range ev.Attributes {
				assert.NotContains(t, kv.Value.Emit(), "petro-key")
			}
		}
	}
}

func TestDispatch_OversizedBodyIsParseFailure(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials(), WithMaxBodyBytes(int64(len(petroleumCSV)-1)))

	res := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")
	assert.Equal(t, models.OutcomeParseFailed, res.Outcome)
	assert.Equal(t, fmt.Sprintf("Failed to parse CSV data: response exceeds %d bytes", len(petroleumCSV)-1), res.Message)
	assert.Empty(t, res.Records)

	d = newDispatcher(t, registryAt(t, up.server.URL), allCredentials(), WithMaxBodyBytes(int64(len(petroleumCSV))))
	res = d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")
	assert.Equal(t, models.OutcomeOK, res.Outcome)
}

func TestDispatch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	d := New(registryAt(t, server.URL), allCredentials(), govhttp.NewClient(30*time.Millisecond, 1), logger.NewNoOpLogger())
	res := d.Dispatch(context.Background(), "aviation_grievance", models.NewFilterSet(10), "csv")

	assert.Equal(t, models.OutcomeTransportFailed, res.Outcome)
	assert.Equal(t, "Request timed out while contacting the data service.", res.Message)
}

func TestDispatch_CacheHitSkipsNetwork(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials(),
		WithCache(cache.NewRedisCache(client, time.Minute)))

	first := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")
	second := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")

	assert.Equal(t, 1, up.count())
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, models.OutcomeOK, second.Outcome)

	other := petroleumFilters()
	other.Set("year", "2023")
	d.Dispatch(context.Background(), "petroleum_consumption", other, "csv")
	assert.Equal(t, 2, up.count())
}

func TestDispatch_FailuresNotCached(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "a,b\n")
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials(),
		WithCache(cache.NewRedisCache(client, time.Minute)))

	d.Dispatch(context.Background(), "aviation_grievance", models.NewFilterSet(10), "csv")
	d.Dispatch(context.Background(), "aviation_grievance", models.NewFilterSet(10), "csv")

	assert.Equal(t, 2, up.count())
	assert.Empty(t, mr.Keys())
}

func TestDispatch_CacheErrorsIgnored(t *testing.T) {
	up := newUpstream(t, http.StatusOK, petroleumCSV)
	reg := registryAt(t, up.server.URL)
	client, mock := redismock.NewClientMock()

	desc, _ := reg.Lookup("petroleum_consumption")
	key := cache.Key("petroleum_consumption", BuildParams(desc, "petro-key", petroleumFilters(), "csv"))
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, []byte(petroleumCSV), time.Minute).SetErr(errors.New("connection refused"))

	d := newDispatcher(t, reg, allCredentials(), WithCache(cache.NewRedisCache(client, time.Minute)))
	res := d.Dispatch(context.Background(), "petroleum_consumption", petroleumFilters(), "csv")

	assert.Equal(t, models.OutcomeOK, res.Outcome)
	assert.Equal(t, 1, up.count())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_RecordsSpan(t *testing.T) {
	up := newUpstream(t, http.StatusNotFound, "")
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	d := newDispatcher(t, registryAt(t, up.server.URL), allCredentials(), WithTracer(tp.Tracer("test")))
	d.Dispatch(context.Background(), "aviation_faqs", models.NewFilterSet(10), "csv")

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "opendata.fetch", spans[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "aviation_faqs", attrs["dataset.id"])
	assert.Equal(t, int64(404), attrs["http.status_code"])
}

func TestBuildParams(t *testing.T) {
	desc, _ := registry.Default().Lookup("flight_schedule")
	fs := models.NewFilterSet(10)
	fs.Offset = 20
	fs.Set("airline", "Vistara")
	fs.Set("lastUpdated", "2024-01-01")

	params := BuildParams(desc, "k", fs, "csv")
	assert.Equal(t, "20", params.Get("offset"))
	assert.Equal(t, "Vistara", params.Get("filters[airline]"))
	assert.Empty(t, params.Get("filters[lastUpdated]"))
	assert.Len(t, params, 5)
}
