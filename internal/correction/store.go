package correction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	BACKEND_BOLT   = "bolt"
	BACKEND_SQLITE = "sqlite"

	// CACHE_ID names the record (bucket or table) holding the correction state.
	CACHE_ID = "ezlogger_cache"

	KEY_HISTORY    = "inverters_power_list"
	KEY_CACHE_TIME = "cache_time"
)

var ErrStore = errors.New("correction: store error")

// Record is the persisted correction state. LastUpdate is nil until the first write.
type Record struct {
	History    []float64
	LastUpdate *time.Time
}

// Store gives transactional access to the single correction record.
// Update must persist the record only when fn returns nil.
type Store interface {
	Update(fn func(rec *Record) error) error
}

func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "", BACKEND_BOLT:
		return NewBoltStore(path), nil
	case BACKEND_SQLITE:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown correction backend %q", backend)
	}
}

// decodeRecord tolerates missing keys.
func decodeRecord(history, cacheTime []byte) (*Record, error) {
	rec := &Record{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &rec.History); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %w", ErrStore, KEY_HISTORY, err)
		}
	}
	if len(cacheTime) > 0 {
		var seconds float64
		if err := json.Unmarshal(cacheTime, &seconds); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %w", ErrStore, KEY_CACHE_TIME, err)
		}
		t := epochToTime(seconds)
		rec.LastUpdate = &t
	}
	return rec, nil
}

func encodeRecord(rec *Record) (history, cacheTime []byte, err error) {
	list := rec.History
	if list == nil {
		list = []float64{}
	}
	history, err = json.Marshal(list)
	if err != nil {
		return nil, nil, err
	}
	if rec.LastUpdate != nil {
		cacheTime, err = json.Marshal(timeToEpoch(*rec.LastUpdate))
		if err != nil {
			return nil, nil, err
		}
	}
	return history, cacheTime, nil
}

func timeToEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func epochToTime(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second))))
}
