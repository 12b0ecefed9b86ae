package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/config"

	"github.com/asynkron/protoactor-go/actor"
)

type Server struct {
	port           uint
	httpLog        bool
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	metricsHandler http.Handler
	requestTimeout time.Duration
}

// NewServer builds the HTTP server. A nil metricsHandler disables /metrics.
func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, metricsHandler http.Handler) *http.Server {
	NewServer := &Server{
		port:           cfg.Port,
		rootContext:    rootContext,
		masterActor:    masterActor,
		httpLog:        cfg.HttpLog,
		metricsHandler: metricsHandler,
		requestTimeout: 10 * time.Second,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
