package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		priority domain.TaskPriority
		number   string
		wantErr  bool
	}{
		{name: "separate args", args: []string{"high", "1"}, priority: domain.High, number: "1"},
		{name: "single helm arg", args: []string{"low worker-7"}, priority: domain.Low, number: "worker-7"},
		{name: "missing number", args: []string{"normal"}, wantErr: true},
		{name: "no args", args: nil, wantErr: true},
		{name: "unknown priority", args: []string{"urgent", "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priority, number, err := parseArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.priority, priority)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestHealthCheckerAPIs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storage := mocks.NewStorage()
	queue := mocks.NewQueue()
	locker := mocks.NewLocker()
	r := setUpHealthCheckerAPIs(storage, queue, locker)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("readiness before the connections are up", func(t *testing.T) {
		w := get("/readiness")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"not ready"}`, w.Body.String())
	})

	t.Run("readiness once every connection is up", func(t *testing.T) {
		postgresIsReady, rabbitIsReady, redisIsReady = true, true, true
		defer func() { postgresIsReady, rabbitIsReady, redisIsReady = false, false, false }()

		w := get("/readiness")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})

	t.Run("liveness", func(t *testing.T) {
		w := get("/liveness")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"up"}`, w.Body.String())
	})

	t.Run("liveness with redis down", func(t *testing.T) {
		locker.Err = errors.New("dial tcp: connection refused")
		defer func() { locker.Err = nil }()

		w := get("/liveness")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, get("/metrics").Code)
	})
}
