package ezlogger

import (
	"context"
	"sync"
)

func CreateTestReader() (Reader, error) {
	return &TestReader{Frame: TestFrame()}, nil
}

// TestFrame is a plausible three phase reading.
func TestFrame() TelemetryFrame {
	return TelemetryFrame{
		V1:             231.0,
		V2:             229.4,
		V3:             232.7,
		I1:             5.12,
		I2:             4.98,
		I3:             5.03,
		P1:             1.182,
		P2:             1.141,
		P3:             1.170,
		MetersPower:    -0.245,
		InvertersPower: 3.738,
	}
}

// TestReader answers Fetch with the encoded Frame, or with the next queued
// error or frame when any are set.
type TestReader struct {
	Frame TelemetryFrame

	mu      sync.Mutex
	queue   []testReply
	fetches int
}

type testReply struct {
	frame *TelemetryFrame
	err   error
}

func (reader *TestReader) Address() string {
	return "test"
}

func (reader *TestReader) QueueError(err error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.queue = append(reader.queue, testReply{err: err})
}

func (reader *TestReader) QueueFrame(frame TelemetryFrame) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.queue = append(reader.queue, testReply{frame: &frame})
}

func (reader *TestReader) Fetches() int {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	return reader.fetches
}

func (reader *TestReader) Fetch(ctx context.Context) (RawResponse, error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.fetches++
	if len(reader.queue) > 0 {
		next := reader.queue[0]
		reader.queue = reader.queue[1:]
		if next.err != nil {
			return nil, next.err
		}
		return Encode(*next.frame), nil
	}
	return Encode(reader.Frame), nil
}
