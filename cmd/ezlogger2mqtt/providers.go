package main

import (
	"fmt"

	adactor "github.com/berfenger/ezlogger2mqtt/internal/adapter/actor"
	"github.com/berfenger/ezlogger2mqtt/internal/adapter/influx"
	"github.com/berfenger/ezlogger2mqtt/internal/config"
	"github.com/berfenger/ezlogger2mqtt/internal/core/actor"
	"github.com/berfenger/ezlogger2mqtt/internal/core/port"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	"github.com/berfenger/ezlogger2mqtt/internal/correction"
	"github.com/berfenger/ezlogger2mqtt/internal/metrics"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

func retryPolicy(cfg *config.Config, logger *zap.Logger) service.RetryPolicy {
	return service.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay(),
		Logger:      logger,
	}
}

// newPoller wires client, correction cache and polling service. A non-nil m
// instruments both the client and the poller.
func newPoller(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (port.TelemetryPoller, error) {

	var instruments []ezlogger.Instrument
	if m != nil {
		instruments = append(instruments, m.Instrument())
	}
	client := ezlogger.NewClient(cfg.EZLogger.Host, cfg.EZLogger.Port, cfg.EZLogger.Timeout(), logger, instruments...)

	var corrector port.TelemetryCorrector
	if cfg.Correction.MaxItems > 0 {
		store, err := correction.OpenStore(cfg.Correction.Backend, cfg.Correction.Path)
		if err != nil {
			return nil, err
		}
		corrector = correction.NewCache(store, cfg.Correction.MaxItems, cfg.Correction.MaxAge(), logger)
	}

	var poller port.TelemetryPoller = service.NewPollingService(client, corrector, cfg.EZLogger.StrictChecksum, logger)
	if m != nil {
		poller = m.InstrumentPoller(poller)
	}
	return poller, nil
}

func ezloggerActorProvider(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (actor.EZLoggerActorProvider, error) {

	poller, err := newPoller(cfg, m, logger)
	if err != nil {
		return nil, err
	}
	retry := retryPolicy(cfg, logger)

	return func() *adactor.EZLoggerActor {
		return adactor.NewEZLoggerActor(poller, retry, cfg.EZLogger.Timeout(), logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	if !cfg.MQTT.Enable {
		return nil
	}
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func influxActorProvider(cfg *config.Config, logger *zap.Logger) actor.InfluxActorProvider {
	if !cfg.Influx.Enable {
		return nil
	}
	device := fmt.Sprintf("%s:%d", cfg.EZLogger.Host, cfg.EZLogger.Port)
	return func(es *eventstream.EventStream) *adactor.InfluxActor {
		return adactor.NewInfluxActor(influx.NewWriter(cfg.Influx, device, logger), es, logger)
	}
}
