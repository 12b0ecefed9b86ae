package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adactor "github.com/berfenger/ezlogger2mqtt/internal/adapter/actor"
	coreactor "github.com/berfenger/ezlogger2mqtt/internal/core/actor"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	"github.com/berfenger/ezlogger2mqtt/internal/metrics"
	"github.com/berfenger/ezlogger2mqtt/internal/util"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnMaster(t *testing.T, reader ezlogger.Reader) (*actor.ActorSystem, *actor.PID) {
	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	as := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterOfPuppetsActor(cfg, func() *adactor.EZLoggerActor {
			poller := service.NewPollingService(reader, nil, false, logger)
			return adactor.NewEZLoggerActor(poller, service.RetryPolicy{MaxAttempts: 1}, time.Second, logger)
		}, nil, nil, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "master")
	require.NoError(t, err)
	return as, pid
}

func TestRoutes(t *testing.T) {

	assert := assert.New(t)

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	as, pid := spawnMaster(t, reader)
	defer as.Shutdown()

	m := metrics.New()
	cfg := util.LoadTestConfig()
	srv := NewServer(cfg, as.Root, pid, m.Handler())

	time.Sleep(300 * time.Millisecond)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("health_check: OK", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telemetry", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var frame ezlogger.TelemetryFrame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	assert.InDelta(231.0, frame.V1, 1e-9)
	assert.NotEmpty(rec.Header().Get("Last-Modified"))

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "go_goroutines")
}

func TestTelemetryNotFound(t *testing.T) {

	reader := &ezlogger.TestReader{Frame: ezlogger.TestFrame()}
	for i := 0; i < 5; i++ {
		reader.QueueError(ezlogger.ErrConnect)
	}
	as, pid := spawnMaster(t, reader)
	defer as.Shutdown()

	srv := NewServer(util.LoadTestConfig(), as.Root, pid, nil)

	time.Sleep(200 * time.Millisecond)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telemetry", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
