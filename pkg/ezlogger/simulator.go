package ezlogger

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Simulator is a TCP server that answers the request command like a device.
type Simulator struct {
	listener net.Listener
	logger   *zap.Logger

	mu       sync.Mutex
	response func() RawResponse
	served   int

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewSimulator listens on address and answers every request with the encoded
// frame. Use ":0" to pick a free port.
func NewSimulator(address string, frame TelemetryFrame, logger *zap.Logger) (*Simulator, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulator{
		listener: l,
		logger:   logger.With(zap.String("component", "simulator")),
		closed:   make(chan struct{}),
	}
	s.SetFrame(frame)
	return s, nil
}

func (s *Simulator) Addr() *net.TCPAddr {
	return s.listener.Addr().(*net.TCPAddr)
}

func (s *Simulator) SetFrame(frame TelemetryFrame) {
	raw := Encode(frame)
	s.SetResponse(func() RawResponse { return raw })
}

// SetResponse replaces what the simulator writes back, raw bytes as given.
func (s *Simulator) SetResponse(fn func() RawResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = fn
}

func (s *Simulator) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

// Serve accepts connections until Close is called.
func (s *Simulator) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Simulator) Close() error {
	close(s.closed)
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Simulator) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(DefaultTimeout))

	req := make([]byte, len(RequestCommand))
	if _, err := io.ReadFull(conn, req); err != nil {
		s.logger.Debug("simulator: short request", zap.Error(err))
		return
	}
	if !bytes.Equal(req, RequestCommand) {
		s.logger.Warn("simulator: unknown request", zap.Binary("request", req))
		return
	}

	s.mu.Lock()
	resp := s.response()
	s.served++
	s.mu.Unlock()

	if err := writeAll(conn, resp); err != nil {
		s.logger.Debug("simulator: write failed", zap.Error(err))
	}
}
