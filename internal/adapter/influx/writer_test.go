package influx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAPI struct {
	points []*write.Point
	err    error
}

func (r *recordingAPI) WritePoint(ctx context.Context, point ...*write.Point) error {
	if r.err != nil {
		return r.err
	}
	r.points = append(r.points, point...)
	return nil
}

func TestTelemetryPoint(t *testing.T) {

	assert := assert.New(t)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	frame := ezlogger.TestFrame()
	p := TelemetryPoint("roof", frame, ts)

	assert.Equal(MEASUREMENT, p.Name())
	assert.Equal(ts, p.Time())
	require.Len(t, p.TagList(), 1)
	assert.Equal("device", p.TagList()[0].Key)
	assert.Equal("roof", p.TagList()[0].Value)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Len(fields, 11)
	assert.Equal(frame.V1, fields["v1"])
	assert.Equal(frame.MetersPower, fields["meters_power"])
	assert.Equal(frame.InvertersPower, fields["inverters_power"])
}

func TestWriterWrite(t *testing.T) {

	assert := assert.New(t)

	api := &recordingAPI{}
	w := NewWriterWithAPI(api, "roof", zap.NewNop())
	defer w.Close()

	assert.NoError(w.Write(context.Background(), ezlogger.TestFrame(), time.Now()))
	assert.Len(api.points, 1)

	api.err = errors.New("bucket not found")
	assert.Error(w.Write(context.Background(), ezlogger.TestFrame(), time.Now()))
	assert.Len(api.points, 1)
}
