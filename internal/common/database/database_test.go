package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gov-dash/internal/common/config"
)

func TestPostgres_EnsureTableAndExec(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	pg := NewPostgresFromDB(db)

	mock.ExpectPing()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS query_log \(id UUID\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM query_log`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectClose()

	require.NoError(t, pg.Ping(context.Background()))
	require.NoError(t, pg.EnsureTable(context.Background(), "query_log", "id UUID"))

	res, err := pg.Exec(context.Background(), "DELETE FROM query_log")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Equal(t, int64(3), n)

	require.NoError(t, pg.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureTableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(assert.AnError)

	err = NewPostgresFromDB(db).EnsureTable(context.Background(), "query_log", "id UUID")
	assert.ErrorContains(t, err, "failed to create table query_log")
}

func TestNewPostgres_LazyConnect(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{Host: "127.0.0.1", Port: 1, Database: "x", User: "u", SSLMode: "disable", MaxConnections: 2, MaxIdle: 1})
	require.NoError(t, err)
	defer pg.Close()
	assert.Equal(t, 2, pg.DB.Stats().MaxOpenConnections)
}

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rdb.Ping(context.Background()))
}

func elasticServer(t *testing.T, status int) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestElasticsearch_PingAndIndex(t *testing.T) {
	server := elasticServer(t, http.StatusOK)

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)

	require.NoError(t, es.Ping(context.Background()))
	require.NoError(t, es.IndexDocument(context.Background(), "gov-dash-queries", "id-1", []byte(`{"query":"x"}`)))
}

func TestElasticsearch_ErrorStatus(t *testing.T) {
	server := elasticServer(t, http.StatusServiceUnavailable)

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	assert.Error(t, es.Ping(context.Background()))
}
