package runner

import "context"

// FailureLogger logs failed transfer operations.
type FailureLogger interface {
	LogFailure(err error)
}

// loggingStream wraps a Stream with failure logging.
type loggingStream struct {
	inner  Stream
	logger FailureLogger
}

// WithLogging wraps a Stream to log failures.
func WithLogging(s Stream, logger FailureLogger) Stream {
	if logger == nil {
		return s
	}
	return &loggingStream{
		inner:  s,
		logger: logger,
	}
}

func (l *loggingStream) Transfer(ctx context.Context) (int, error) {
	n, err := l.inner.Transfer(ctx)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(err)
	}
	return n, err
}
