package ezlogger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reader performs one request/response exchange with an EZLogger device.
type Reader interface {
	Fetch(ctx context.Context) (RawResponse, error)
	Address() string
}

type Instrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func DebugLoggerInstrumentation(logger *zap.Logger) Instrument {
	return Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("ezlogger timing", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func RecordTimer(name string, instrument []Instrument) func() {
	if len(instrument) == 0 {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			if instrument[i].RecordTime != nil {
				instrument[i].RecordTime(name, duration)
			}
		}
	}
}
