package errors

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/redis/go-redis/v9"
)

// MapRedisError converts a go-redis error into an AppError.
// op names the failed operation and becomes part of the message.
func MapRedisError(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, redis.Nil):
		return Wrapf(err, ErrCodeNotFound, "%s: key not found", op)
	case errors.Is(err, context.Canceled):
		return Wrapf(err, ErrCodeCanceled, "%s: canceled", op)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrapf(err, ErrCodeTimeout, "%s: timed out", op)
	case isConnectionError(err):
		return Unavailable(err, op)
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return Wrapf(err, ErrCodeInternal, "%s: redis error", op)
	}
	return Unavailable(err, op)
}

func isConnectionError(err error) bool {
	if errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
