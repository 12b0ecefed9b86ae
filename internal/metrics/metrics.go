package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/port"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ezlogger"

type Metrics struct {
	Registry *prometheus.Registry

	fetchDuration *prometheus.HistogramVec
	polls         *prometheus.CounterVec
	values        *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one request/response exchange with the device.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"fn"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll attempts by result and error kind.",
		}, []string{"result", "kind"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "telemetry_value",
			Help:      "Last corrected telemetry value by field.",
		}, []string{"field"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll.",
		}),
	}
	m.Registry.MustRegister(m.fetchDuration, m.polls, m.values, m.lastSuccess)
	m.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Instrument records device exchange timings.
func (m *Metrics) Instrument() ezlogger.Instrument {
	return ezlogger.Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			m.fetchDuration.WithLabelValues(fnName).Observe(readTime.Seconds())
		},
	}
}

func (m *Metrics) ObservePoll(frame *ezlogger.TelemetryFrame, err error, now time.Time) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.polls.WithLabelValues("error", ezlogger.ErrorKind(err)).Inc()
		return
	}
	m.polls.WithLabelValues("ok", "").Inc()
	m.lastSuccess.Set(float64(now.UnixNano()) / 1e9)
	if frame == nil {
		return
	}
	for field, value := range FrameFields(*frame) {
		m.values.WithLabelValues(field).Set(value)
	}
}

// InstrumentPoller counts every poll attempt of poller.
func (m *Metrics) InstrumentPoller(poller port.TelemetryPoller) port.TelemetryPoller {
	return &instrumentedPoller{poller: poller, metrics: m}
}

type instrumentedPoller struct {
	poller  port.TelemetryPoller
	metrics *Metrics
}

func (p *instrumentedPoller) Poll(ctx context.Context) (*ezlogger.TelemetryFrame, error) {
	frame, err := p.poller.Poll(ctx)
	p.metrics.ObservePoll(frame, err, time.Now())
	return frame, err
}

func (p *instrumentedPoller) Address() string {
	return p.poller.Address()
}

func FrameFields(frame ezlogger.TelemetryFrame) map[string]float64 {
	return map[string]float64{
		"v1":              frame.V1,
		"v2":              frame.V2,
		"v3":              frame.V3,
		"i1":              frame.I1,
		"i2":              frame.I2,
		"i3":              frame.I3,
		"p1":              frame.P1,
		"p2":              frame.P2,
		"p3":              frame.P3,
		"meters_power":    frame.MetersPower,
		"inverters_power": frame.InvertersPower,
	}
}
