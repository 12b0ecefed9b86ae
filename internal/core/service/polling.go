package service

import (
	"context"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/core/port"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"go.uber.org/zap"
)

// PollingService runs one fetch, decode and correct cycle per Poll. It never
// retries.
type PollingService struct {
	Reader         ezlogger.Reader
	Corrector      port.TelemetryCorrector
	StrictChecksum bool
	Logger         *zap.Logger
	Clock          func() time.Time
}

var _ port.TelemetryPoller = (*PollingService)(nil)

func NewPollingService(reader ezlogger.Reader, corrector port.TelemetryCorrector, strictChecksum bool, logger *zap.Logger) *PollingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollingService{
		Reader:         reader,
		Corrector:      corrector,
		StrictChecksum: strictChecksum,
		Logger:         logger.With(zap.String("component", "polling")),
		Clock:          time.Now,
	}
}

func (srv *PollingService) Address() string {
	return srv.Reader.Address()
}

func (srv *PollingService) Poll(ctx context.Context) (*ezlogger.TelemetryFrame, error) {
	raw, err := srv.Reader.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := ezlogger.VerifyChecksum(raw); err != nil {
		if srv.StrictChecksum {
			return nil, err
		}
		srv.Logger.Warn("polling: ignoring checksum mismatch", zap.Error(err))
	}

	frame, err := ezlogger.Decode(raw)
	if err != nil {
		return nil, err
	}

	if srv.Corrector != nil && srv.Corrector.Enabled() {
		corrected, err := srv.Corrector.Correct(*frame, srv.now())
		if err != nil {
			return nil, err
		}
		frame = &corrected
	}

	srv.Logger.Debug("polling: frame ready", zap.Any("frame", frame))
	return frame, nil
}

func (srv *PollingService) now() time.Time {
	if srv.Clock != nil {
		return srv.Clock()
	}
	return time.Now()
}
