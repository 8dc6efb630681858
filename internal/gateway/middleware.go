package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// logFormatter adapts logrus to chi's RequestLogger.
type logFormatter struct {
	logger logrus.FieldLogger
}

func (f *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{entry: f.logger.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote":     r.RemoteAddr,
		"request_id": middleware.GetReqID(r.Context()),
	})}
}

type logEntry struct {
	entry *logrus.Entry
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.entry.WithFields(logrus.Fields{
		"status":   status,
		"bytes":    bytes,
		"duration": elapsed.Round(time.Microsecond).String(),
	}).Info("request")
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.entry.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("handler panic")
}

// recoverPanic protects handlers from panics and answers with a 500 envelope.
func recoverPanic(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.WithFields(logrus.Fields{
						"panic":      rec,
						"path":       r.URL.Path,
						"request_id": middleware.GetReqID(r.Context()),
					}).Error("handler panic")
					writeFailure(w, http.StatusInternalServerError, "Server Error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
