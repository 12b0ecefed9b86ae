package ezlogger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Client talks to a device over a fresh TCP connection per Fetch.
type Client struct {
	address    string
	timeout    time.Duration
	logger     *zap.Logger
	instrument []Instrument
}

func NewClient(host string, port uint, timeout time.Duration, logger *zap.Logger, instrumentation ...Instrument) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		address:    net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10)),
		timeout:    timeout,
		logger:     logger.With(zap.String("component", "ezlogger_client")),
		instrument: instrumentation,
	}
}

func (c *Client) Address() string {
	return c.address
}

// Fetch sends the request command and returns the full response. The timeout
// covers connect, write and every read. The connection is always closed
// before returning.
func (c *Client) Fetch(ctx context.Context) (RawResponse, error) {
	defer RecordTimer("Fetch", c.instrument)()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", c.address)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: connecting to %s: %w", ErrTimeout, c.address, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, c.address, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %w", ErrConnect, err)
	}
	// unblock pending reads if the caller gives up
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeAll(conn, RequestCommand); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: sending request: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSend, err)
	}

	raw := make([]byte, FrameSize)
	if n, err := readFull(conn, raw[:HeaderSize]); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: reading header (%d of %d bytes): %w", ErrTimeout, n, HeaderSize, err)
		}
		return nil, fmt.Errorf("%w: connection closed before header complete (%d of %d bytes): %w", ErrProtocol, n, HeaderSize, err)
	}

	if size := int(raw[offsetDeclaredSize]); size != PayloadSize {
		return nil, fmt.Errorf("%w: unexpected payload size %d, expected %d", ErrProtocol, size, PayloadSize)
	}

	if n, err := readFull(conn, raw[HeaderSize:]); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: reading payload (%d of %d bytes): %w", ErrTimeout, n, PayloadSize, err)
		}
		return nil, fmt.Errorf("%w: connection closed before payload complete (%d of %d bytes): %w", ErrProtocol, n, PayloadSize, err)
	}

	c.logger.Debug("response received", zap.String("address", c.address), zap.Binary("raw", raw))
	return raw, nil
}

func writeAll(conn net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := conn.Write(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}

// readFull accumulates partial reads until buf is full. A read that returns
// no data ends the exchange.
func readFull(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if read == len(buf) {
			return read, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return read, io.ErrUnexpectedEOF
			}
			return read, err
		}
		if n == 0 {
			return read, io.ErrUnexpectedEOF
		}
	}
	return read, nil
}
