package influx

import (
	"context"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/config"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

const MEASUREMENT = "ezlogger"

type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type Writer struct {
	client influxdb2.Client
	api    PointWriter
	device string
	logger *zap.Logger
}

func NewWriter(cfg config.InfluxConfig, device string, logger *zap.Logger) *Writer {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client: client,
		api:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		device: device,
		logger: logger.With(zap.String("component", "influx")),
	}
}

// NewWriterWithAPI writes through api instead of an InfluxDB client.
func NewWriterWithAPI(api PointWriter, device string, logger *zap.Logger) *Writer {
	return &Writer{
		api:    api,
		device: device,
		logger: logger.With(zap.String("component", "influx")),
	}
}

func (w *Writer) Write(ctx context.Context, frame ezlogger.TelemetryFrame, ts time.Time) error {
	point := TelemetryPoint(w.device, frame, ts)
	if err := w.api.WritePoint(ctx, point); err != nil {
		return err
	}
	w.logger.Debug("influx: point written", zap.Time("ts", ts))
	return nil
}

func (w *Writer) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

func TelemetryPoint(device string, frame ezlogger.TelemetryFrame, ts time.Time) *write.Point {
	return influxdb2.NewPointWithMeasurement(MEASUREMENT).
		AddTag("device", device).
		AddField("v1", frame.V1).
		AddField("v2", frame.V2).
		AddField("v3", frame.V3).
		AddField("i1", frame.I1).
		AddField("i2", frame.I2).
		AddField("i3", frame.I3).
		AddField("p1", frame.P1).
		AddField("p2", frame.P2).
		AddField("p3", frame.P3).
		AddField("meters_power", frame.MetersPower).
		AddField("inverters_power", frame.InvertersPower).
		SetTime(ts)
}
