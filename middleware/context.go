package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"

	loggerKey    contextKeyT = "rigging.logger"
	requestIDKey contextKeyT = "rigging.request_id"
)

// LoggerSource hands out the active logger, the environment implements it
// so the logger can be swapped (or created) after the stack is built
type LoggerSource interface {
	Logger() *logrus.Logger
}

// WithLogger stores a request scoped logger on the context
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// Logger returns the request scoped logger, falling back to the logrus
// standard logger when RequestLogger did not run
func Logger(r *http.Request) *logrus.Entry {
	if entry, ok := r.Context().Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// RequestID returns the id RequestLogger assigned to the request
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func sourceLogger(source LoggerSource) *logrus.Logger {
	if source != nil {
		if l := source.Logger(); l != nil {
			return l
		}
	}
	return logrus.StandardLogger()
}
