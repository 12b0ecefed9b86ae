package correction

import (
	"time"

	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	"go.uber.org/zap"
)

const (
	DefaultMaxItems = 10
	DefaultMaxAge   = 1200 * time.Second
)

// Cache replaces spurious zero inverters power readings with the newest
// non-zero value seen in the recent history.
type Cache struct {
	store    Store
	maxItems int
	maxAge   time.Duration
	logger   *zap.Logger
}

// NewCache builds a correction cache. maxItems <= 0 disables correction and
// maxAge <= 0 disables expiry.
func NewCache(store Store, maxItems int, maxAge time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:    store,
		maxItems: maxItems,
		maxAge:   maxAge,
		logger:   logger.With(zap.String("component", "correction")),
	}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil && c.maxItems > 0
}

// Correct returns frame with InvertersPower substituted when it reads zero and
// the history holds a non-zero value. The original reading is always recorded.
func (c *Cache) Correct(frame ezlogger.TelemetryFrame, now time.Time) (ezlogger.TelemetryFrame, error) {
	if !c.Enabled() {
		return frame, nil
	}

	corrected := frame
	original := frame.InvertersPower
	err := c.store.Update(func(rec *Record) error {
		if c.maxAge > 0 && rec.LastUpdate != nil {
			if age := now.Sub(*rec.LastUpdate); age > c.maxAge {
				c.logger.Info("reinitializing cache",
					zap.Float64("cache_age_seconds", age.Seconds()),
					zap.Float64("max_age_seconds", c.maxAge.Seconds()))
				rec.History = nil
			}
		}

		if original == 0 {
			if value, ok := lastNonZero(rec.History); ok {
				corrected.InvertersPower = value
				c.logger.Info("zero inverters power replaced from cache", zap.Float64("value", value))
			}
		}

		rec.History = appendBounded(rec.History, original, c.maxItems)
		rec.LastUpdate = &now
		return nil
	})
	if err != nil {
		return frame, err
	}
	return corrected, nil
}

func lastNonZero(history []float64) (float64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] != 0 {
			return history[i], true
		}
	}
	return 0, false
}

func appendBounded(history []float64, value float64, maxItems int) []float64 {
	history = append(history, value)
	if len(history) > maxItems {
		history = history[len(history)-maxItems:]
	}
	return history
}
