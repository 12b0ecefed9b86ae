package port

import (
	"context"
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"
)

type TelemetryCorrector interface {
	Enabled() bool
	Correct(frame ezlogger.TelemetryFrame, now time.Time) (ezlogger.TelemetryFrame, error)
}

// TelemetryPoller yields one decoded and corrected frame per call, or an error.
type TelemetryPoller interface {
	Poll(ctx context.Context) (*ezlogger.TelemetryFrame, error)
	Address() string
}
