package ezlogger

import (
	"context"
	"errors"
	"net"
	"os"
)

var (
	ErrConnect  = errors.New("ezlogger: connect error")
	ErrTimeout  = errors.New("ezlogger: timeout")
	ErrSend     = errors.New("ezlogger: send error")
	ErrProtocol = errors.New("ezlogger: protocol error")
	ErrDecode   = errors.New("ezlogger: decode error")
	// ErrChecksum is also reported as ErrDecode.
	ErrChecksum = &checksumError{}
)

type checksumError struct{}

func (e *checksumError) Error() string {
	return "ezlogger: checksum mismatch"
}

func (e *checksumError) Is(target error) bool {
	return target == ErrDecode
}

// ErrorKind returns a short label for the error family of err, or "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnect):
		return "connect"
	case errors.Is(err, ErrSend):
		return "send"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrChecksum):
		return "checksum"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "unknown"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
