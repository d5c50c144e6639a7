package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clickhouse "github.com/fnscope/infra/packages/clickhouse/pkg"
	"github.com/fnscope/infra/packages/ingest/internal/cfg"
	"github.com/fnscope/infra/packages/shared/pkg/telemetry"
	"github.com/fnscope/infra/packages/shared/pkg/webhooks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeClickhouseStore struct {
	*clickhouse.NoopClient

	mu         sync.Mutex
	executions []clickhouse.FunctionExecutionRow
	logs       []clickhouse.ConsoleLogRow
	err        error
}

func (f *fakeClickhouseStore) InsertFunctionExecutions(_ context.Context, rows []clickhouse.FunctionExecutionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.executions = append(f.executions, rows...)

	return nil
}

func (f *fakeClickhouseStore) InsertConsoleLogs(_ context.Context, rows []clickhouse.ConsoleLogRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.logs = append(f.logs, rows...)

	return nil
}

func (f *fakeClickhouseStore) inserted() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.executions) + len(f.logs)
}

func newTestServer(t *testing.T, config cfg.Config, store clickhouse.Clickhouse) (*gin.Engine, *APIStore) {
	t.Helper()

	apiStore, err := NewAPIStore(telemetry.NewNoopClient(), store, config)
	require.NoError(t, err)

	r := gin.New()
	RegisterHandlers(r, apiStore)

	return r, apiStore
}

func batch(ts time.Time) string {
	deployment := `"convex":{"deployment_name":"d","deployment_type":"prod","project_name":"p","project_slug":"p"}`

	return fmt.Sprintf(`{"topic":"console","timestamp":%d,%s,"function":{"type":"query","path":"a:b","request_id":"r"},"log_level":"LOG","message":"hi","is_truncated":false}`+"\n"+
		`{"topic":"function_execution","timestamp":%d,%s,"function":{"type":"query","path":"a:b","request_id":"r"},"execution_time_ms":3,"status":"success","usage":{"database_read_bytes":0,"database_write_bytes":0,"database_read_documents":0,"file_storage_read_bytes":0,"file_storage_write_bytes":0,"vector_storage_read_bytes":0,"vector_storage_write_bytes":0,"memory_used_mb":0}}`+"\n"+
		`{"topic":"function_execution","timestamp":%d,"status":"success"}`+"\n",
		ts.UnixMilli(), deployment, ts.UnixMilli(), deployment, ts.UnixMilli())
}

func post(r http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(webhooks.SignatureHeader, signature)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Error {
	t.Helper()

	var apiErr Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))

	return apiErr
}

func TestPostIngest_Accepted(t *testing.T) {
	t.Parallel()

	store := &fakeClickhouseStore{NoopClient: clickhouse.NewNoopClient()}
	r, _ := newTestServer(t, cfg.Config{}, store)

	w := post(r, batch(time.Now()), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event ingested"}`, w.Body.String())
	assert.Len(t, store.executions, 1)
	assert.Len(t, store.logs, 1)
}

func TestPostIngest_Signature(t *testing.T) {
	t.Parallel()

	const secret = "s3cr3t"
	body := batch(time.Now())

	tests := []struct {
		name      string
		body      string
		signature string
		wantCode  int
	}{
		{name: "valid signature", body: body, signature: webhooks.Sign(secret, []byte(body)), wantCode: http.StatusOK},
		{name: "missing signature", body: body, wantCode: http.StatusUnauthorized},
		{name: "tampered body", body: strings.Replace(body, `"hi"`, `"bye"`, 1), signature: webhooks.Sign(secret, []byte(body)), wantCode: http.StatusUnauthorized},
		{name: "garbage signature", body: body, signature: "sha256=not-hex", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeClickhouseStore{NoopClient: clickhouse.NewNoopClient()}
			r, _ := newTestServer(t, cfg.Config{WebhookSecret: secret}, store)

			w := post(r, tt.body, tt.signature)
			require.Equal(t, tt.wantCode, w.Code)

			if tt.wantCode != http.StatusOK {
				assert.Equal(t, Error{Code: int32(tt.wantCode), Message: "Unauthorized"}, decodeError(t, w))
				assert.Zero(t, store.inserted())
			}
		})
	}
}

func TestPostIngest_Expired(t *testing.T) {
	t.Parallel()

	store := &fakeClickhouseStore{NoopClient: clickhouse.NewNoopClient()}
	r, _ := newTestServer(t, cfg.Config{MaxAllowedTimestampSkewSeconds: 300}, store)

	w := post(r, batch(time.Now().Add(-400*time.Second)), "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Request expired", decodeError(t, w).Message)
	assert.Zero(t, store.inserted())

	w = post(r, batch(time.Now().Add(-200*time.Second)), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, store.inserted())
}

func TestPostIngest_MalformedBatch(t *testing.T) {
	t.Parallel()

	store := &fakeClickhouseStore{NoopClient: clickhouse.NewNoopClient()}
	r, _ := newTestServer(t, cfg.Config{}, store)

	w := post(r, batch(time.Now())+"{not json}\n", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "line 4")
	assert.Zero(t, store.inserted())
}

func TestPostIngest_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeClickhouseStore{NoopClient: clickhouse.NewNoopClient(), err: errors.New("clickhouse unavailable")}
	r, _ := newTestServer(t, cfg.Config{}, store)

	w := post(r, batch(time.Now()), "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, Error{Code: http.StatusInternalServerError, Message: "Error ingesting events"}, decodeError(t, w))
}

func TestGetHealth(t *testing.T) {
	t.Parallel()

	r, apiStore := newTestServer(t, cfg.Config{}, clickhouse.NewNoopClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	apiStore.Healthy.Store(false)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetRoot(t *testing.T) {
	t.Parallel()

	r, _ := newTestServer(t, cfg.Config{}, clickhouse.NewNoopClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET /", w.Body.String())
}

func TestRejection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{err: webhooks.ErrExpired, code: http.StatusForbidden},
		{err: webhooks.ErrMissingSignature, code: http.StatusUnauthorized},
		{err: fmt.Errorf("%w: bad hex", webhooks.ErrInvalidSignature), code: http.StatusUnauthorized},
		{err: webhooks.ErrMalformedBody, code: http.StatusInternalServerError},
		{err: errors.New("other"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, _, _ := rejection(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
